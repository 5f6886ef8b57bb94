package agent

import (
	"github.com/martinemde/convoy/llm"
)

// History is the append-only conversation record. It is not safe for
// concurrent mutation; the Loop is its single writer. Readers get copies.
type History struct {
	messages []llm.Message
}

// NewHistory creates an empty History.
func NewHistory() *History {
	return &History{}
}

// Append adds a message to the end of the history.
func (h *History) Append(msg llm.Message) {
	h.messages = append(h.messages, msg)
}

// Messages returns a copy of the history suitable for building a request.
func (h *History) Messages() []llm.Message {
	out := make([]llm.Message, len(h.messages))
	copy(out, h.messages)
	return out
}

// Len returns the number of messages.
func (h *History) Len() int {
	return len(h.messages)
}

// Last returns the most recent message, or a zero Message if empty.
func (h *History) Last() llm.Message {
	if len(h.messages) == 0 {
		return llm.Message{}
	}
	return h.messages[len(h.messages)-1]
}

// UnresolvedCalls returns the IDs of tool calls in the last assistant
// message that are not matched by a result in the message that follows it.
// A conversation with unresolved calls must not be sent to a provider.
func (h *History) UnresolvedCalls() []string {
	lastAssistant := -1
	for i := len(h.messages) - 1; i >= 0; i-- {
		if h.messages[i].Role == llm.RoleAssistant {
			lastAssistant = i
			break
		}
	}
	if lastAssistant == -1 {
		return nil
	}

	calls := h.messages[lastAssistant].ToolCalls()
	if len(calls) == 0 {
		return nil
	}

	resolved := make(map[string]bool)
	if lastAssistant+1 < len(h.messages) && h.messages[lastAssistant+1].Role == llm.RoleTool {
		for _, r := range h.messages[lastAssistant+1].ToolResults() {
			resolved[r.ToolCallID] = true
		}
	}

	var unresolved []string
	for _, c := range calls {
		if !resolved[c.ID] {
			unresolved = append(unresolved, c.ID)
		}
	}
	return unresolved
}
