package cmd

import (
	"fmt"
	"os"

	"github.com/ampactor/st-solguard/internal/config"
	"github.com/ampactor/st-solguard/internal/llm"
)

// llmOverride carries a CLI-wide --provider/--model pair that bypasses
// per-task [models] routing entirely.
type llmOverride struct {
	provider string
	model    string
}

func defaultAPIKeyEnv(provider string) string {
	switch provider {
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	case "openai":
		return "OPENAI_API_KEY"
	case "groq":
		return "GROQ_API_KEY"
	default:
		return "OPENROUTER_API_KEY"
	}
}

func defaultBaseURL(provider string) string {
	switch provider {
	case "anthropic":
		return ""
	case "openai":
		return ""
	case "groq":
		return "https://api.groq.com/openai/v1"
	default:
		return "https://openrouter.ai/api/v1"
	}
}

// makeLLMOverride returns nil unless at least one of provider/model was
// given on the command line, matching the Rust CLI's all-or-nothing
// override semantics.
func makeLLMOverride(provider, model string) *llmOverride {
	if provider == "" && model == "" {
		return nil
	}
	if provider == "" {
		provider = "openrouter"
	}
	if model == "" {
		if provider == "anthropic" {
			model = "claude-sonnet-4-20250514"
		} else {
			model = "arcee-ai/trinity-large-preview:free"
		}
	}
	return &llmOverride{provider: provider, model: model}
}

// buildLLMClientFrom constructs a single llm.Client from a resolved
// provider/model/maxTokens/apiKeyEnv/baseURL tuple, reading the API key
// from the environment at call time.
func buildLLMClientFrom(provider, model string, maxTokens int, apiKeyEnv, baseURL string) llm.Client {
	if apiKeyEnv == "" {
		apiKeyEnv = defaultAPIKeyEnv(provider)
	}
	if baseURL == "" {
		baseURL = defaultBaseURL(provider)
	}
	apiKey := os.Getenv(apiKeyEnv)

	if provider == "anthropic" {
		return llm.NewAnthropicClient(apiKey, model, maxTokens, baseURL)
	}
	return llm.NewOpenAIClient(apiKey, model, maxTokens, baseURL)
}

// buildLLMClient builds the single default client for commands that need
// just one (scan --deep, investigate, test), honoring a CLI override.
func buildLLMClient(llmCfg config.LlmConfig, override *llmOverride) llm.Client {
	provider, model := llmCfg.Provider, llmCfg.Model
	if override != nil {
		provider, model = override.provider, override.model
	}
	return buildLLMClientFrom(provider, model, llmCfg.MaxTokens, llmCfg.APIKeyEnv, llmCfg.BaseURL)
}

// buildModelRouter builds the full per-task router used by the narrative
// and full-pipeline commands. A CLI override bypasses [models] routing
// entirely — every task kind uses the same overridden client.
func buildModelRouter(cfg config.Config, override *llmOverride) *llm.ModelRouter {
	def := buildLLMClient(cfg.Llm, override)
	router := llm.NewModelRouter(def)
	if override != nil {
		return router
	}

	if cfg.Models == nil {
		return router
	}

	pairs := []struct {
		mc   *config.ModelConfig
		kind llm.TaskKind
	}{
		{cfg.Models.Narrative, llm.TaskNarrativeSynthesis},
		{cfg.Models.Discovery, llm.TaskDiscovery},
		{cfg.Models.Investigation, llm.TaskDeepInvestigation},
		{cfg.Models.Validation, llm.TaskValidation},
		{cfg.Models.CrossReference, llm.TaskCrossReference},
	}
	for _, p := range pairs {
		if p.mc == nil {
			continue
		}
		maxTokens := cfg.Llm.MaxTokens
		if p.mc.MaxTokens != nil {
			maxTokens = *p.mc.MaxTokens
		}
		client := buildLLMClientFrom(p.mc.Provider, p.mc.Model, maxTokens, p.mc.APIKeyEnv, p.mc.BaseURL)
		router = router.WithClient(p.kind, client)
	}
	return router
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
