package agent

import (
	"context"
	"encoding/json"

	"github.com/martinemde/convoy/llm"
)

// Capability names a privilege a tool requires to do its work. The
// dispatcher checks declared capabilities against a Policy before invoking.
type Capability string

const (
	CapFileRead  Capability = "file_read"
	CapFileWrite Capability = "file_write"
	CapExec      Capability = "exec"
	CapNetwork   Capability = "network"
)

// Outcome is the result of one tool invocation. Expected failures (bad
// input, missing file, command exit != 0) are reported with IsError set;
// they go back to the model as error results, not up the stack. A panic
// escaping Invoke is a contract violation and aborts the whole run.
type Outcome struct {
	Content string
	IsError bool
}

// ErrorOutcome builds an error Outcome from a message.
func ErrorOutcome(msg string) Outcome {
	return Outcome{Content: msg, IsError: true}
}

// Tool is the contract every tool implements.
type Tool interface {
	// Name returns the unique tool name the model calls it by.
	Name() string

	// Definition returns the serializable metadata sent to the provider.
	Definition() llm.ToolDefinition

	// Capabilities returns the privileges this tool needs.
	Capabilities() []Capability

	// Invoke executes the tool with raw JSON arguments. It must honor ctx
	// cancellation for long-running work and must not panic on bad input.
	Invoke(ctx context.Context, args json.RawMessage) Outcome
}

// FuncTool adapts a plain function into a Tool.
type FuncTool struct {
	name        string
	description string
	parameters  map[string]interface{}
	caps        []Capability
	fn          func(ctx context.Context, args json.RawMessage) Outcome
}

// NewFuncTool creates a Tool from a function. The parameters map is a JSON
// schema; use SchemaFor to derive one from a struct.
func NewFuncTool(name, description string, parameters map[string]interface{}, caps []Capability, fn func(ctx context.Context, args json.RawMessage) Outcome) *FuncTool {
	return &FuncTool{
		name:        name,
		description: description,
		parameters:  parameters,
		caps:        caps,
		fn:          fn,
	}
}

func (t *FuncTool) Name() string { return t.name }

func (t *FuncTool) Definition() llm.ToolDefinition {
	return llm.ToolDefinition{
		Name:        t.name,
		Description: t.description,
		Parameters:  t.parameters,
	}
}

func (t *FuncTool) Capabilities() []Capability { return t.caps }

func (t *FuncTool) Invoke(ctx context.Context, args json.RawMessage) Outcome {
	return t.fn(ctx, args)
}
