package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicProvider talks to the Anthropic Messages API directly using the
// official SDK. Unlike GollmProvider it preserves structured tool calls and
// native stop reasons instead of round-tripping them through prompt text.
type AnthropicProvider struct {
	client anthropic.Client
	model  string
}

// AnthropicOption configures an AnthropicProvider.
type AnthropicOption func(*anthropicConfig)

type anthropicConfig struct {
	apiKey     string
	model      string
	requestOps []option.RequestOption
}

// WithAnthropicAPIKey sets the API key. Without it the SDK reads
// ANTHROPIC_API_KEY from the environment.
func WithAnthropicAPIKey(key string) AnthropicOption {
	return func(c *anthropicConfig) {
		c.apiKey = key
	}
}

// WithAnthropicModel sets the default model.
func WithAnthropicModel(model string) AnthropicOption {
	return func(c *anthropicConfig) {
		c.model = model
	}
}

// WithAnthropicRequestOptions adds extra SDK request options.
func WithAnthropicRequestOptions(opts ...option.RequestOption) AnthropicOption {
	return func(c *anthropicConfig) {
		c.requestOps = append(c.requestOps, opts...)
	}
}

// NewAnthropicProvider creates a provider backed by the official SDK.
func NewAnthropicProvider(opts ...AnthropicOption) *AnthropicProvider {
	cfg := &anthropicConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	model := cfg.model
	if model == "" {
		model = DefaultModel("anthropic")
	}

	// The SDK retries on its own by default; disable that so the caller's
	// retry policy is the only one in play.
	clientOpts := []option.RequestOption{option.WithMaxRetries(0)}
	if cfg.apiKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(cfg.apiKey))
	}
	clientOpts = append(clientOpts, cfg.requestOps...)

	return &AnthropicProvider{
		client: anthropic.NewClient(clientOpts...),
		model:  model,
	}
}

// Name returns the provider identifier.
func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

// Complete sends a blocking request and returns the full response.
func (p *AnthropicProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	params, err := p.translateRequest(req)
	if err != nil {
		return nil, err
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, p.translateError(ctx, err)
	}

	return p.translateResponse(req, msg), nil
}

func (p *AnthropicProvider) translateRequest(req Request) (anthropic.MessageNewParams, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokens),
	}

	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	}

	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleSystem:
			// The Messages API takes system text out of band.
			params.System = append(params.System, anthropic.TextBlockParam{Text: msg.TextContent()})
		case RoleUser:
			params.Messages = append(params.Messages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.TextContent())))
		case RoleAssistant:
			var blocks []anthropic.ContentBlockParamUnion
			for _, block := range msg.Content {
				switch block.Kind {
				case BlockText:
					blocks = append(blocks, anthropic.NewTextBlock(block.Text))
				case BlockToolCall:
					blocks = append(blocks, anthropic.NewToolUseBlock(block.ToolCall.ID, block.ToolCall.Arguments, block.ToolCall.Name))
				}
			}
			if len(blocks) > 0 {
				params.Messages = append(params.Messages, anthropic.NewAssistantMessage(blocks...))
			}
		case RoleTool:
			var blocks []anthropic.ContentBlockParamUnion
			for _, result := range msg.ToolResults() {
				blocks = append(blocks, anthropic.NewToolResultBlock(result.ToolCallID, result.Content, result.IsError))
			}
			if len(blocks) > 0 {
				// Tool results ride in a user-role message on the wire.
				params.Messages = append(params.Messages, anthropic.NewUserMessage(blocks...))
			}
		}
	}

	for _, t := range req.Tools {
		params.Tools = append(params.Tools, anthropic.ToolUnionParam{OfTool: &anthropic.ToolParam{
			Name:        t.Name,
			Description: anthropic.String(t.Description),
			InputSchema: toolInputSchema(t.Parameters),
		}})
	}

	return params, nil
}

// toolInputSchema converts a JSON schema map into the SDK's schema param.
func toolInputSchema(params map[string]interface{}) anthropic.ToolInputSchemaParam {
	schema := anthropic.ToolInputSchemaParam{}
	if props, ok := params["properties"]; ok {
		schema.Properties = props
	}
	if req, ok := params["required"].([]string); ok {
		schema.Required = req
	} else if raw, ok := params["required"].([]interface{}); ok {
		for _, r := range raw {
			if s, ok := r.(string); ok {
				schema.Required = append(schema.Required, s)
			}
		}
	}
	return schema
}

func (p *AnthropicProvider) translateResponse(req Request, msg *anthropic.Message) *Response {
	var blocks []ContentBlock
	for _, block := range msg.Content {
		switch v := block.AsAny().(type) {
		case anthropic.TextBlock:
			blocks = append(blocks, TextBlock(v.Text))
		case anthropic.ToolUseBlock:
			blocks = append(blocks, ToolCallBlock(v.ID, v.Name, json.RawMessage(v.JSON.Input.Raw())))
		}
	}

	model := req.Model
	if model == "" {
		model = p.model
	}

	return &Response{
		ID:         msg.ID,
		Model:      model,
		Provider:   "anthropic",
		Message:    Message{Role: RoleAssistant, Content: blocks},
		StopReason: translateStopReason(string(msg.StopReason)),
		RawStop:    string(msg.StopReason),
		Usage: Usage{
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
		},
	}
}

func translateStopReason(raw string) StopReason {
	switch raw {
	case "tool_use":
		return StopToolUse
	case "max_tokens":
		return StopMaxTokens
	default:
		return StopEndTurn
	}
}

func (p *AnthropicProvider) translateError(ctx context.Context, err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		var retryAfter *float64
		if apiErr.Response != nil {
			if v := apiErr.Response.Header.Get("Retry-After"); v != "" {
				if secs, parseErr := strconv.ParseFloat(v, 64); parseErr == nil {
					retryAfter = &secs
				}
			}
		}
		return ErrorFromStatusCode(apiErr.StatusCode, apiErr.Error(), "anthropic", retryAfter)
	}

	if ctx.Err() != nil {
		return &AbortError{SDKError: SDKError{Message: "request aborted", Cause: err}}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &RequestTimeoutError{SDKError: SDKError{Message: err.Error(), Cause: err}}
	}

	return &NetworkError{SDKError: SDKError{Message: err.Error(), Cause: err}}
}
