package cmd

import (
	"context"

	"github.com/ampactor/st-solguard/internal/config"
	"github.com/ampactor/st-solguard/internal/security"
	"github.com/spf13/cobra"
)

var (
	investigateProvider  string
	investigateModel     string
	investigateMaxTurns  int
	investigateCostLimit float64
	investigateConfig    string
	investigateOutput    string
)

var investigateCmd = &cobra.Command{
	Use:   "investigate [repo_path]",
	Short: "Investigate a repo with the multi-turn security agent (deep review only)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		repoPath := args[0]

		cfg, err := config.Load(investigateConfig)
		if err != nil {
			cfg = config.Default()
		}
		override := makeLLMOverride(investigateProvider, investigateModel)
		client := buildLLMClient(cfg.Llm, override)

		budget := security.InvestigatorBudget{
			MaxTurns:     cfg.AgentReview.MaxTurns,
			CostLimitUSD: cfg.AgentReview.CostLimitUSD,
		}
		if cmd.Flags().Changed("max-turns") {
			budget.MaxTurns = investigateMaxTurns
		}
		if cmd.Flags().Changed("cost-limit") {
			budget.CostLimitUSD = investigateCostLimit
		}

		registry, err := security.NewToolRegistry(repoPath)
		if err != nil {
			fatalf("prepare tool registry: %v", err)
		}

		findings, _, err := security.ScanRepoDeep(context.Background(), repoPath, client, registry, budget, security.ScanContext{})
		if err != nil {
			fatalf("investigation failed: %v", err)
		}

		out, err := toJSONPretty(findings)
		if err != nil {
			fatalf("marshal findings: %v", err)
		}
		if err := writeOrPrint(out, investigateOutput); err != nil {
			fatalf("write findings: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(investigateCmd)
	investigateCmd.Flags().StringVar(&investigateProvider, "provider", "", "LLM provider override: anthropic, openrouter, openai")
	investigateCmd.Flags().StringVar(&investigateModel, "model", "", "LLM model override")
	investigateCmd.Flags().IntVar(&investigateMaxTurns, "max-turns", 0, "Maximum conversation turns")
	investigateCmd.Flags().Float64Var(&investigateCostLimit, "cost-limit", 0, "Maximum cost in USD")
	investigateCmd.Flags().StringVarP(&investigateConfig, "config", "c", "config.toml", "Path to config file")
	investigateCmd.Flags().StringVar(&investigateOutput, "output", "", "Write findings to file instead of stdout")
}
