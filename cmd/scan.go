package cmd

import (
	"context"

	"github.com/ampactor/st-solguard/internal/config"
	"github.com/ampactor/st-solguard/internal/security"
	"github.com/spf13/cobra"
)

var (
	scanDeep     bool
	scanProvider string
	scanModel    string
	scanConfig   string
	scanOutput   string
)

var scanCmd = &cobra.Command{
	Use:   "scan [repo_path]",
	Short: "Scan a specific repo for vulnerabilities",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		repoPath := args[0]

		var findings []security.SecurityFinding

		if scanDeep {
			cfg, err := config.Load(scanConfig)
			if err != nil {
				cfg = config.Default()
			}
			override := makeLLMOverride(scanProvider, scanModel)
			client := buildLLMClient(cfg.Llm, override)

			registry, err := security.NewToolRegistry(repoPath)
			if err != nil {
				fatalf("prepare tool registry: %v", err)
			}
			budget := security.InvestigatorBudget{
				MaxTurns:     cfg.AgentReview.MaxTurns,
				CostLimitUSD: cfg.AgentReview.CostLimitUSD,
			}
			result, _, err := security.ScanRepoDeep(context.Background(), repoPath, client, registry, budget, security.ScanContext{})
			if err != nil {
				fatalf("deep scan failed: %v", err)
			}
			findings = result
		} else {
			raw, err := security.ScanRepo(repoPath)
			if err != nil {
				fatalf("scan failed: %v", err)
			}
			for _, f := range raw {
				findings = append(findings, security.FindingToSecurityFinding(f))
			}
		}

		out, err := toJSONPretty(findings)
		if err != nil {
			fatalf("marshal findings: %v", err)
		}
		if err := writeOrPrint(out, scanOutput); err != nil {
			fatalf("write findings: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().BoolVar(&scanDeep, "deep", false, "Use multi-turn agent investigation (LLM-powered deep review)")
	scanCmd.Flags().StringVar(&scanProvider, "provider", "", "LLM provider override: anthropic, openrouter, openai")
	scanCmd.Flags().StringVar(&scanModel, "model", "", "LLM model override")
	scanCmd.Flags().StringVarP(&scanConfig, "config", "c", "config.toml", "Path to config file (for agent_review settings)")
	scanCmd.Flags().StringVarP(&scanOutput, "output", "o", "", "Write findings to file instead of stdout")
}
