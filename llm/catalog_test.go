package llm

import "testing"

func TestGetModelInfo(t *testing.T) {
	info := GetModelInfo("claude-opus-4-6")
	if info == nil {
		t.Fatal("expected model info")
	}
	if info.Provider != "anthropic" {
		t.Errorf("expected provider anthropic, got %q", info.Provider)
	}
	if !info.SupportsTools {
		t.Error("expected tool support")
	}
}

func TestGetModelInfoAlias(t *testing.T) {
	info := GetModelInfo("sonnet")
	if info == nil {
		t.Fatal("expected model info for alias")
	}
	if info.ID != "claude-sonnet-4-5" {
		t.Errorf("alias resolved to %q", info.ID)
	}
}

func TestGetModelInfoCaseInsensitive(t *testing.T) {
	info := GetModelInfo("GPT-5.2")
	if info == nil {
		t.Fatal("expected model info")
	}
	if info.Provider != "openai" {
		t.Errorf("expected provider openai, got %q", info.Provider)
	}
}

func TestGetModelInfoUnknown(t *testing.T) {
	if GetModelInfo("no-such-model") != nil {
		t.Error("expected nil for unknown model")
	}
	if GetModelInfo("") != nil {
		t.Error("expected nil for empty model")
	}
}

func TestDefaultModel(t *testing.T) {
	if m := DefaultModel("anthropic"); m != "claude-opus-4-6" {
		t.Errorf("unexpected default for anthropic: %q", m)
	}
	if m := DefaultModel("nonexistent"); m != "" {
		t.Errorf("expected empty default, got %q", m)
	}
}
