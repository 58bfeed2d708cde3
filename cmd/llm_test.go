package cmd

import "testing"

func TestDefaultAPIKeyEnv(t *testing.T) {
	cases := []struct {
		provider, want string
	}{
		{"anthropic", "ANTHROPIC_API_KEY"},
		{"openai", "OPENAI_API_KEY"},
		{"groq", "GROQ_API_KEY"},
		{"openrouter", "OPENROUTER_API_KEY"},
		{"", "OPENROUTER_API_KEY"},
	}
	for _, c := range cases {
		if got := defaultAPIKeyEnv(c.provider); got != c.want {
			t.Errorf("defaultAPIKeyEnv(%q) = %q, want %q", c.provider, got, c.want)
		}
	}
}

func TestDefaultBaseURL(t *testing.T) {
	cases := []struct {
		provider, want string
	}{
		{"anthropic", ""},
		{"openai", ""},
		{"groq", "https://api.groq.com/openai/v1"},
		{"openrouter", "https://openrouter.ai/api/v1"},
	}
	for _, c := range cases {
		if got := defaultBaseURL(c.provider); got != c.want {
			t.Errorf("defaultBaseURL(%q) = %q, want %q", c.provider, got, c.want)
		}
	}
}

func TestMakeLLMOverrideNilWhenBothEmpty(t *testing.T) {
	if got := makeLLMOverride("", ""); got != nil {
		t.Errorf("expected nil override, got %+v", got)
	}
}

func TestMakeLLMOverrideDefaultsProviderToOpenrouter(t *testing.T) {
	got := makeLLMOverride("", "some-model")
	if got == nil {
		t.Fatal("expected non-nil override")
	}
	if got.provider != "openrouter" {
		t.Errorf("provider = %q, want openrouter", got.provider)
	}
	if got.model != "some-model" {
		t.Errorf("model = %q, want some-model", got.model)
	}
}

func TestMakeLLMOverrideDefaultsModelForAnthropic(t *testing.T) {
	got := makeLLMOverride("anthropic", "")
	if got == nil {
		t.Fatal("expected non-nil override")
	}
	if got.model != "claude-sonnet-4-20250514" {
		t.Errorf("model = %q, want claude-sonnet-4-20250514", got.model)
	}
}

func TestMakeLLMOverrideDefaultsModelForNonAnthropic(t *testing.T) {
	got := makeLLMOverride("groq", "")
	if got == nil {
		t.Fatal("expected non-nil override")
	}
	if got.model != "arcee-ai/trinity-large-preview:free" {
		t.Errorf("model = %q, want arcee-ai/trinity-large-preview:free", got.model)
	}
}

func TestMakeLLMOverridePreservesBothWhenGiven(t *testing.T) {
	got := makeLLMOverride("openai", "gpt-4o")
	if got == nil || got.provider != "openai" || got.model != "gpt-4o" {
		t.Errorf("got %+v, want {openai gpt-4o}", got)
	}
}
