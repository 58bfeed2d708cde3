// Package config loads the TOML configuration file driving a pipeline run.
package config

import (
	"os"

	"github.com/ampactor/st-solguard/internal/errs"
	"github.com/pelletier/go-toml/v2"
)

type GitHubConfig struct {
	Token        string   `toml:"token"`
	Topics       []string `toml:"topics"`
	MinStars     int      `toml:"min_stars"`
	LookbackDays int      `toml:"lookback_days"`
	MaxRepos     int      `toml:"max_repos"`
}

type TrackedProgram struct {
	Name     string `toml:"name"`
	Address  string `toml:"address"`
	Category string `toml:"category"`
}

type SolanaConfig struct {
	RPCURL          string           `toml:"rpc_url"`
	TrackedPrograms []TrackedProgram `toml:"tracked_programs"`
}

type SocialSource struct {
	Name string `toml:"name"`
	URL  string `toml:"url"`
}

type SocialConfig struct {
	Sources []SocialSource `toml:"sources"`
}

type DefiLlamaConfig struct {
	Enabled      bool `toml:"enabled"`
	TopProtocols int  `toml:"top_protocols"`
}

type DiscoveryConfig struct {
	Enabled    bool `toml:"enabled"`
	MaxSignals int  `toml:"max_signals"`
}

type LlmConfig struct {
	Provider  string `toml:"provider"`
	Model     string `toml:"model"`
	MaxTokens int    `toml:"max_tokens"`
	APIKeyEnv string `toml:"api_key_env"`
	BaseURL   string `toml:"base_url"`
}

type ModelConfig struct {
	Provider  string `toml:"provider"`
	Model     string `toml:"model"`
	MaxTokens *int   `toml:"max_tokens"`
	APIKeyEnv string `toml:"api_key_env"`
	BaseURL   string `toml:"base_url"`
}

type ModelsConfig struct {
	Narrative      *ModelConfig `toml:"narrative"`
	Discovery      *ModelConfig `toml:"discovery"`
	Investigation  *ModelConfig `toml:"investigation"`
	Validation     *ModelConfig `toml:"validation"`
	CrossReference *ModelConfig `toml:"cross_reference"`
}

type AgentReviewConfig struct {
	MaxTurns     int     `toml:"max_turns"`
	MaxTokens    int     `toml:"max_tokens"`
	CostLimitUSD float64 `toml:"cost_limit_usd"`
}

type TargetsConfig struct {
	AlwaysScan []string `toml:"always_scan"`
	ReposDir   string   `toml:"repos_dir"`
}

type Config struct {
	GitHub      GitHubConfig      `toml:"github"`
	Solana      SolanaConfig      `toml:"solana"`
	Social      SocialConfig      `toml:"social"`
	DefiLlama   DefiLlamaConfig   `toml:"defi_llama"`
	Discovery   DiscoveryConfig   `toml:"discovery"`
	Llm         LlmConfig         `toml:"llm"`
	Models      *ModelsConfig     `toml:"models"`
	AgentReview AgentReviewConfig `toml:"agent_review"`
	Targets     TargetsConfig     `toml:"targets"`
}

// Default mirrors original_source/src/config.rs's serde field defaults.
func Default() Config {
	return Config{
		GitHub: GitHubConfig{
			MinStars:     5,
			LookbackDays: 30,
			MaxRepos:     30,
		},
		Solana: SolanaConfig{
			RPCURL: "https://api.mainnet-beta.solana.com",
			TrackedPrograms: []TrackedProgram{
				{Name: "Raydium AMM", Address: "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8", Category: "DEX"},
				{Name: "Jupiter Aggregator", Address: "JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4", Category: "DEX"},
				{Name: "Marinade Finance", Address: "MarBmsSgKXdrN1egZf5sqe1TMai9K1rChYNDJgjq7aD", Category: "Staking"},
			},
		},
		Social: SocialConfig{
			Sources: []SocialSource{
				{Name: "Helius Blog", URL: "https://www.helius.dev/blog"},
			},
		},
		DefiLlama: DefiLlamaConfig{
			TopProtocols: 10,
		},
		Discovery: DiscoveryConfig{
			MaxSignals: 15,
		},
		Llm: LlmConfig{
			Provider:  "openrouter",
			Model:     "arcee-ai/trinity-large-preview:free",
			MaxTokens: 8192,
		},
		AgentReview: AgentReviewConfig{
			MaxTurns:     30,
			MaxTokens:    8192,
			CostLimitUSD: 20.0,
		},
		Targets: TargetsConfig{
			ReposDir: "repos",
		},
	}
}

// Load reads and parses path, falling back to defaults for missing fields
// (go-toml leaves unset fields at their Go zero value, so Default is
// merged in field-by-field for every field left at its zero value).
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errs.IO("read config file: "+path, err)
	}

	var parsed Config
	if err := toml.Unmarshal(data, &parsed); err != nil {
		return Config{}, errs.Parse("parse TOML config: " + err.Error())
	}

	mergeDefaults(&parsed, &cfg)
	return parsed, nil
}

// mergeDefaults fills zero-valued scalar fields in dst from defaults,
// so a config.toml that only sets [github] still gets documented
// defaults everywhere else.
func mergeDefaults(dst, defaults *Config) {
	if dst.GitHub.MinStars == 0 {
		dst.GitHub.MinStars = defaults.GitHub.MinStars
	}
	if dst.GitHub.LookbackDays == 0 {
		dst.GitHub.LookbackDays = defaults.GitHub.LookbackDays
	}
	if dst.GitHub.MaxRepos == 0 {
		dst.GitHub.MaxRepos = defaults.GitHub.MaxRepos
	}
	if dst.Solana.RPCURL == "" {
		dst.Solana.RPCURL = defaults.Solana.RPCURL
	}
	if len(dst.Solana.TrackedPrograms) == 0 {
		dst.Solana.TrackedPrograms = defaults.Solana.TrackedPrograms
	}
	if len(dst.Social.Sources) == 0 {
		dst.Social.Sources = defaults.Social.Sources
	}
	if dst.DefiLlama.TopProtocols == 0 {
		dst.DefiLlama.TopProtocols = defaults.DefiLlama.TopProtocols
	}
	if dst.Discovery.MaxSignals == 0 {
		dst.Discovery.MaxSignals = defaults.Discovery.MaxSignals
	}
	if dst.Llm.Provider == "" {
		dst.Llm.Provider = defaults.Llm.Provider
	}
	if dst.Llm.Model == "" {
		dst.Llm.Model = defaults.Llm.Model
	}
	if dst.Llm.MaxTokens == 0 {
		dst.Llm.MaxTokens = defaults.Llm.MaxTokens
	}
	if dst.AgentReview.MaxTurns == 0 {
		dst.AgentReview.MaxTurns = defaults.AgentReview.MaxTurns
	}
	if dst.AgentReview.MaxTokens == 0 {
		dst.AgentReview.MaxTokens = defaults.AgentReview.MaxTokens
	}
	if dst.AgentReview.CostLimitUSD == 0 {
		dst.AgentReview.CostLimitUSD = defaults.AgentReview.CostLimitUSD
	}
	if dst.Targets.ReposDir == "" {
		dst.Targets.ReposDir = defaults.Targets.ReposDir
	}
}

// Validate rejects configs missing required fields.
func (c Config) Validate() error {
	if c.GitHub.Token == "" {
		return errs.Config("github.token must not be empty")
	}
	return nil
}
