package agent

import (
	"context"
	"fmt"
	"sync"

	"github.com/martinemde/convoy/llm"
)

// Dispatcher executes batches of tool calls against a Registry, applying
// policy checks, argument validation, and output truncation. Expected
// failures become error results the model can react to; only a panic
// escaping a tool (a contract violation) fails the batch.
type Dispatcher struct {
	registry   *Registry
	policy     Policy
	emitter    *EventEmitter
	parallel   bool
	charLimits map[string]int
	lineLimits map[string]int
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithPolicy sets the authorization policy. Default is AllowAll.
func WithPolicy(p Policy) DispatcherOption {
	return func(d *Dispatcher) { d.policy = p }
}

// WithParallel enables concurrent execution of a batch. Results are still
// returned in request order.
func WithParallel(parallel bool) DispatcherOption {
	return func(d *Dispatcher) { d.parallel = parallel }
}

// WithEmitter sets the event emitter for tool call events.
func WithEmitter(e *EventEmitter) DispatcherOption {
	return func(d *Dispatcher) { d.emitter = e }
}

// WithOutputLimits overrides per-tool truncation limits.
func WithOutputLimits(charLimits, lineLimits map[string]int) DispatcherOption {
	return func(d *Dispatcher) {
		d.charLimits = charLimits
		d.lineLimits = lineLimits
	}
}

// NewDispatcher creates a Dispatcher over the given registry.
func NewDispatcher(registry *Registry, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
		policy:   AllowAll(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch executes one batch of tool calls and returns one result per
// call, in request order. A non-nil error means the batch hit a contract
// violation and the run must stop; partial results are still returned.
func (d *Dispatcher) Dispatch(ctx context.Context, calls []llm.ToolCall) ([]llm.ToolResult, error) {
	if d.parallel && len(calls) > 1 {
		return d.dispatchParallel(ctx, calls)
	}
	return d.dispatchSequential(ctx, calls)
}

func (d *Dispatcher) dispatchSequential(ctx context.Context, calls []llm.ToolCall) ([]llm.ToolResult, error) {
	results := make([]llm.ToolResult, len(calls))
	for i, call := range calls {
		if err := ctx.Err(); err != nil {
			// Cancelled mid-batch: report remaining calls as cancelled so
			// the history invariant still holds.
			for j := i; j < len(calls); j++ {
				results[j] = llm.ToolResult{
					ToolCallID: calls[j].ID,
					Content:    "tool execution cancelled",
					IsError:    true,
				}
			}
			return results, err
		}

		result, err := d.executeOne(ctx, call)
		results[i] = result
		if err != nil {
			for j := i + 1; j < len(calls); j++ {
				results[j] = llm.ToolResult{
					ToolCallID: calls[j].ID,
					Content:    "tool execution aborted",
					IsError:    true,
				}
			}
			return results, err
		}
	}
	return results, nil
}

func (d *Dispatcher) dispatchParallel(ctx context.Context, calls []llm.ToolCall) ([]llm.ToolResult, error) {
	results := make([]llm.ToolResult, len(calls))
	errs := make([]error, len(calls))

	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(idx int, c llm.ToolCall) {
			defer wg.Done()
			results[idx], errs[idx] = d.executeOne(ctx, c)
		}(i, call)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

// executeOne runs the full pipeline for one call:
// resolve -> authorize -> validate -> invoke -> truncate.
// The returned error is non-nil only for contract violations (panics).
func (d *Dispatcher) executeOne(ctx context.Context, call llm.ToolCall) (result llm.ToolResult, fatal error) {
	d.emit(EventToolCallStart, map[string]interface{}{
		"tool_name": call.Name,
		"call_id":   call.ID,
	})

	tool, err := d.registry.Resolve(call.Name)
	if err != nil {
		return d.errorResult(call, fmt.Sprintf("Unknown tool: %s", call.Name)), nil
	}

	if err := d.policy.Authorize(call.Name, tool.Capabilities()); err != nil {
		return d.errorResult(call, fmt.Sprintf("Tool %s denied by policy: %v", call.Name, err)), nil
	}

	if err := ValidateArguments(call.Arguments, tool.Definition().Parameters); err != nil {
		return d.errorResult(call, fmt.Sprintf("Invalid arguments for %s: %v", call.Name, err)), nil
	}

	defer func() {
		if r := recover(); r != nil {
			fatal = fmt.Errorf("tool %s panicked: %v", call.Name, r)
			result = d.errorResult(call, fmt.Sprintf("Tool %s crashed: %v", call.Name, r))
		}
	}()

	outcome := tool.Invoke(ctx, call.Arguments)

	if outcome.IsError {
		return d.errorResult(call, outcome.Content), nil
	}

	truncated := TruncateToolOutput(outcome.Content, call.Name, d.charLimits, d.lineLimits)

	// The event stream carries the full untruncated output.
	d.emit(EventToolCallEnd, map[string]interface{}{
		"call_id": call.ID,
		"output":  outcome.Content,
	})

	return llm.ToolResult{
		ToolCallID: call.ID,
		Content:    truncated,
	}, nil
}

func (d *Dispatcher) errorResult(call llm.ToolCall, msg string) llm.ToolResult {
	d.emit(EventToolCallEnd, map[string]interface{}{
		"call_id": call.ID,
		"error":   msg,
	})
	return llm.ToolResult{
		ToolCallID: call.ID,
		Content:    msg,
		IsError:    true,
	}
}

func (d *Dispatcher) emit(kind EventKind, data map[string]interface{}) {
	if d.emitter != nil {
		d.emitter.Emit(kind, data)
	}
}
