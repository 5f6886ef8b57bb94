package main

import (
	"reflect"
	"testing"

	"github.com/martinemde/convoy/llm"
)

func TestAssistantTextSince(t *testing.T) {
	history := []llm.Message{
		llm.UserMessage("earlier input"),
		llm.AssistantMessage("earlier reply"),
		llm.UserMessage("current input"),
		llm.AssistantMessage("working on it"),
		// Steering injected mid-run is user-role; it must not hide
		// assistant text produced before it.
		llm.UserMessage("Loop detected: try a different approach."),
		llm.AssistantMessage("final answer"),
	}

	got := assistantTextSince(history, 2)
	want := []string{"working on it", "final answer"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	if got := assistantTextSince(history, len(history)); got != nil {
		t.Errorf("expected no text past the end, got %v", got)
	}

	got = assistantTextSince(history, 0)
	if len(got) != 3 || got[0] != "earlier reply" {
		t.Errorf("unexpected full-history result: %v", got)
	}
}
