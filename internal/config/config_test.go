package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFullConfigParses(t *testing.T) {
	path := writeTemp(t, `
[github]
token = "ghp_test"
min_stars = 10

[solana]
rpc_url = "https://example.com"

[llm]
provider = "anthropic"
model = "claude-sonnet-4-20250514"
max_tokens = 2048
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.GitHub.Token != "ghp_test" || cfg.GitHub.MinStars != 10 {
		t.Fatalf("github section not parsed: %+v", cfg.GitHub)
	}
	if cfg.Llm.Provider != "anthropic" || cfg.Llm.MaxTokens != 2048 {
		t.Fatalf("llm section not parsed: %+v", cfg.Llm)
	}
}

func TestMinimalConfigUsesDefaults(t *testing.T) {
	path := writeTemp(t, `[github]
token = "ghp_test"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Solana.RPCURL != "https://api.mainnet-beta.solana.com" {
		t.Fatalf("expected default rpc_url, got %q", cfg.Solana.RPCURL)
	}
	if len(cfg.Solana.TrackedPrograms) != 3 {
		t.Fatalf("expected 3 default tracked programs, got %d", len(cfg.Solana.TrackedPrograms))
	}
	if cfg.AgentReview.MaxTurns != 30 || cfg.AgentReview.CostLimitUSD != 20.0 {
		t.Fatalf("expected agent_review defaults, got %+v", cfg.AgentReview)
	}
}

func TestAgentReviewConfigDefaults(t *testing.T) {
	cfg := Default()
	if cfg.AgentReview.MaxTurns != 30 {
		t.Fatalf("max_turns = %d, want 30", cfg.AgentReview.MaxTurns)
	}
	if cfg.AgentReview.MaxTokens != 8192 {
		t.Fatalf("max_tokens = %d, want 8192", cfg.AgentReview.MaxTokens)
	}
	if cfg.AgentReview.CostLimitUSD != 20.0 {
		t.Fatalf("cost_limit_usd = %v, want 20.0", cfg.AgentReview.CostLimitUSD)
	}
}

func TestValidateRejectsEmptyToken(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for empty github.token")
	}
}
