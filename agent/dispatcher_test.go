package agent

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/martinemde/convoy/llm"
)

func mustRegistry(t *testing.T, tools ...Tool) *Registry {
	t.Helper()
	r, err := NewRegistry(tools...)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return r
}

func TestDispatchSequentialOrder(t *testing.T) {
	d := NewDispatcher(mustRegistry(t, echoTool()))

	calls := []llm.ToolCall{
		{ID: "c1", Name: "echo", Arguments: json.RawMessage(`{"text":"first"}`)},
		{ID: "c2", Name: "echo", Arguments: json.RawMessage(`{"text":"second"}`)},
		{ID: "c3", Name: "echo", Arguments: json.RawMessage(`{"text":"third"}`)},
	}

	results, err := d.Dispatch(context.Background(), calls)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, want := range []string{"first", "second", "third"} {
		if results[i].Content != want {
			t.Errorf("position %d: expected %q, got %q", i, want, results[i].Content)
		}
		if results[i].ToolCallID != calls[i].ID {
			t.Errorf("position %d: result ID %q does not match call ID %q", i, results[i].ToolCallID, calls[i].ID)
		}
	}
}

func TestDispatchParallelPreservesOrder(t *testing.T) {
	// Tools finish in reverse order but results must keep request order.
	slow := NewFuncTool("slow", "sleeps by index",
		map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"sleep_ms": map[string]interface{}{"type": "integer"},
				"label":    map[string]interface{}{"type": "string"},
			},
		},
		nil,
		func(ctx context.Context, args json.RawMessage) Outcome {
			var in struct {
				SleepMs int    `json:"sleep_ms"`
				Label   string `json:"label"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return ErrorOutcome(err.Error())
			}
			time.Sleep(time.Duration(in.SleepMs) * time.Millisecond)
			return Outcome{Content: in.Label}
		})

	d := NewDispatcher(mustRegistry(t, slow), WithParallel(true))

	calls := []llm.ToolCall{
		{ID: "c1", Name: "slow", Arguments: json.RawMessage(`{"sleep_ms":30,"label":"a"}`)},
		{ID: "c2", Name: "slow", Arguments: json.RawMessage(`{"sleep_ms":15,"label":"b"}`)},
		{ID: "c3", Name: "slow", Arguments: json.RawMessage(`{"sleep_ms":1,"label":"c"}`)},
	}

	results, err := d.Dispatch(context.Background(), calls)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, want := range []string{"a", "b", "c"} {
		if results[i].Content != want {
			t.Errorf("position %d: expected %q, got %q", i, want, results[i].Content)
		}
	}
}

func TestDispatchUnknownTool(t *testing.T) {
	d := NewDispatcher(mustRegistry(t, echoTool()))

	results, err := d.Dispatch(context.Background(), []llm.ToolCall{
		{ID: "c1", Name: "missing", Arguments: json.RawMessage(`{}`)},
		{ID: "c2", Name: "echo", Arguments: json.RawMessage(`{"text":"still runs"}`)},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !results[0].IsError {
		t.Error("expected error result for unknown tool")
	}
	if !strings.Contains(results[0].Content, "missing") {
		t.Errorf("error should name the tool: %q", results[0].Content)
	}
	// One bad call does not block the rest of the batch.
	if results[1].IsError || results[1].Content != "still runs" {
		t.Errorf("second call should succeed: %+v", results[1])
	}
}

func TestDispatchInvalidArguments(t *testing.T) {
	d := NewDispatcher(mustRegistry(t, echoTool()))

	tests := []struct {
		name string
		args string
	}{
		{"missing required", `{}`},
		{"wrong type", `{"text": 42}`},
		{"not an object", `"just a string"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := d.Dispatch(context.Background(), []llm.ToolCall{
				{ID: "c1", Name: "echo", Arguments: json.RawMessage(tt.args)},
			})
			if err != nil {
				t.Fatalf("argument problems must be recoverable: %v", err)
			}
			if !results[0].IsError {
				t.Errorf("expected error result for %s", tt.name)
			}
		})
	}
}

func TestDispatchPolicyDenial(t *testing.T) {
	writer := NewFuncTool("writer", "writes files",
		map[string]interface{}{"type": "object"},
		[]Capability{CapFileWrite},
		func(ctx context.Context, args json.RawMessage) Outcome {
			return Outcome{Content: "wrote"}
		})

	d := NewDispatcher(mustRegistry(t, writer), WithPolicy(Allow(CapFileRead)))

	results, err := d.Dispatch(context.Background(), []llm.ToolCall{
		{ID: "c1", Name: "writer", Arguments: json.RawMessage(`{}`)},
	})
	if err != nil {
		t.Fatalf("policy denial must be recoverable: %v", err)
	}
	if !results[0].IsError {
		t.Error("expected error result for denied tool")
	}
	if !strings.Contains(results[0].Content, "file_write") {
		t.Errorf("denial should name the capability: %q", results[0].Content)
	}
}

func TestDispatchPanicFailsBatch(t *testing.T) {
	d := NewDispatcher(mustRegistry(t, panicTool(), echoTool()))

	results, err := d.Dispatch(context.Background(), []llm.ToolCall{
		{ID: "c1", Name: "explode", Arguments: json.RawMessage(`{}`)},
		{ID: "c2", Name: "echo", Arguments: json.RawMessage(`{"text":"x"}`)},
	})
	if err == nil {
		t.Fatal("expected fatal error for panicking tool")
	}
	if !strings.Contains(err.Error(), "panicked") {
		t.Errorf("error should mention the panic: %v", err)
	}
	// Partial results still pair every call.
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if !results[0].IsError || !results[1].IsError {
		t.Error("all results should be errors after a fatal batch")
	}
}

func TestDispatchToolErrorOutcome(t *testing.T) {
	failing := NewFuncTool("fails", "always fails",
		map[string]interface{}{"type": "object"},
		nil,
		func(ctx context.Context, args json.RawMessage) Outcome {
			return ErrorOutcome("file not found: /etc/missing")
		})

	d := NewDispatcher(mustRegistry(t, failing))

	results, err := d.Dispatch(context.Background(), []llm.ToolCall{
		{ID: "c1", Name: "fails", Arguments: json.RawMessage(`{}`)},
	})
	if err != nil {
		t.Fatalf("expected failures are recoverable: %v", err)
	}
	if !results[0].IsError {
		t.Error("expected error result")
	}
	if results[0].Content != "file not found: /etc/missing" {
		t.Errorf("unexpected content: %q", results[0].Content)
	}
}

func TestDispatchCancellationBetweenCalls(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	first := NewFuncTool("first", "cancels the context",
		map[string]interface{}{"type": "object"},
		nil,
		func(ctx context.Context, args json.RawMessage) Outcome {
			cancel()
			return Outcome{Content: "done"}
		})

	d := NewDispatcher(mustRegistry(t, first, echoTool()))

	results, err := d.Dispatch(ctx, []llm.ToolCall{
		{ID: "c1", Name: "first", Arguments: json.RawMessage(`{}`)},
		{ID: "c2", Name: "echo", Arguments: json.RawMessage(`{"text":"never"}`)},
	})
	if err == nil {
		t.Fatal("expected cancellation error")
	}
	if results[0].IsError {
		t.Error("first call completed before cancellation")
	}
	if !results[1].IsError {
		t.Error("second call should be reported cancelled")
	}
}

func TestDispatchTruncatesOutput(t *testing.T) {
	big := NewFuncTool("big", "returns a lot",
		map[string]interface{}{"type": "object"},
		nil,
		func(ctx context.Context, args json.RawMessage) Outcome {
			return Outcome{Content: strings.Repeat("x", 500)}
		})

	d := NewDispatcher(mustRegistry(t, big), WithOutputLimits(map[string]int{"big": 100}, nil))

	results, err := d.Dispatch(context.Background(), []llm.ToolCall{
		{ID: "c1", Name: "big", Arguments: json.RawMessage(`{}`)},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(results[0].Content, "truncated") {
		t.Error("expected truncation marker in oversized output")
	}
	if len(results[0].Content) >= 500 {
		t.Errorf("output was not truncated: %d chars", len(results[0].Content))
	}
}
