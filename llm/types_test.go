package llm

import (
	"encoding/json"
	"testing"
)

func TestMessageConstructors(t *testing.T) {
	t.Run("UserMessage", func(t *testing.T) {
		msg := UserMessage("Hello")
		if msg.Role != RoleUser {
			t.Errorf("expected role %q, got %q", RoleUser, msg.Role)
		}
		if msg.TextContent() != "Hello" {
			t.Errorf("expected text %q, got %q", "Hello", msg.TextContent())
		}
	})

	t.Run("AssistantMessage", func(t *testing.T) {
		msg := AssistantMessage("Hi there")
		if msg.Role != RoleAssistant {
			t.Errorf("expected role %q, got %q", RoleAssistant, msg.Role)
		}
		if msg.TextContent() != "Hi there" {
			t.Errorf("expected text %q, got %q", "Hi there", msg.TextContent())
		}
	})

	t.Run("ToolResultsMessage", func(t *testing.T) {
		msg := ToolResultsMessage([]ToolResult{
			{ToolCallID: "call_1", Content: "72F and sunny"},
			{ToolCallID: "call_2", Content: "permission denied", IsError: true},
		})
		if msg.Role != RoleTool {
			t.Errorf("expected role %q, got %q", RoleTool, msg.Role)
		}
		results := msg.ToolResults()
		if len(results) != 2 {
			t.Fatalf("expected 2 results, got %d", len(results))
		}
		if results[0].ToolCallID != "call_1" || results[1].ToolCallID != "call_2" {
			t.Error("result order not preserved")
		}
		if results[0].IsError || !results[1].IsError {
			t.Error("is_error flags not preserved")
		}
	})
}

func TestMessageToolCalls(t *testing.T) {
	msg := Message{
		Role: RoleAssistant,
		Content: []ContentBlock{
			TextBlock("Let me check that."),
			ToolCallBlock("call_1", "get_weather", json.RawMessage(`{"city":"Paris"}`)),
			ToolCallBlock("call_2", "get_time", json.RawMessage(`{}`)),
		},
	}

	calls := msg.ToolCalls()
	if len(calls) != 2 {
		t.Fatalf("expected 2 tool calls, got %d", len(calls))
	}
	if calls[0].ID != "call_1" || calls[0].Name != "get_weather" {
		t.Errorf("unexpected first call: %+v", calls[0])
	}
	if calls[1].ID != "call_2" {
		t.Errorf("unexpected second call: %+v", calls[1])
	}
	if msg.TextContent() != "Let me check that." {
		t.Errorf("unexpected text content: %q", msg.TextContent())
	}
}

func TestMessageJSONRoundTrip(t *testing.T) {
	msg := Message{
		Role: RoleAssistant,
		Content: []ContentBlock{
			TextBlock("checking"),
			ToolCallBlock("call_1", "read_file", json.RawMessage(`{"path":"main.go"}`)),
		},
	}

	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded Message
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if decoded.Role != RoleAssistant {
		t.Errorf("expected role assistant, got %q", decoded.Role)
	}
	calls := decoded.ToolCalls()
	if len(calls) != 1 || calls[0].Name != "read_file" {
		t.Errorf("tool call did not survive round trip: %+v", calls)
	}
	if string(calls[0].Arguments) != `{"path":"main.go"}` {
		t.Errorf("arguments changed in round trip: %s", calls[0].Arguments)
	}
}

func TestUsageAdd(t *testing.T) {
	a := Usage{InputTokens: 100, OutputTokens: 50}
	b := Usage{InputTokens: 20, OutputTokens: 30}

	sum := a.Add(b)
	if sum.InputTokens != 120 || sum.OutputTokens != 80 {
		t.Errorf("unexpected sum: %+v", sum)
	}
	if sum.Total() != 200 {
		t.Errorf("expected total 200, got %d", sum.Total())
	}
	// Add must not mutate the receiver.
	if a.InputTokens != 100 {
		t.Error("Add mutated its receiver")
	}
}

func TestResponseAccessors(t *testing.T) {
	resp := Response{
		Message: Message{
			Role: RoleAssistant,
			Content: []ContentBlock{
				TextBlock("done"),
				ToolCallBlock("call_1", "list_dir", json.RawMessage(`{}`)),
			},
		},
		StopReason: StopToolUse,
	}

	if resp.Text() != "done" {
		t.Errorf("expected %q, got %q", "done", resp.Text())
	}
	if len(resp.ToolCalls()) != 1 {
		t.Errorf("expected 1 tool call, got %d", len(resp.ToolCalls()))
	}
}
