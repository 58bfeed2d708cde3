package cmd

import (
	"context"
	"log/slog"

	"github.com/ampactor/st-solguard/internal/config"
	"github.com/ampactor/st-solguard/internal/security"
	"github.com/spf13/cobra"
)

var (
	testProvider  string
	testModel     string
	testMaxTurns  int
	testCostLimit float64
	testConfig    string
	testOutput    string
)

var testCmd = &cobra.Command{
	Use:   "test [repo_path]",
	Short: "Test a repo: investigate → validate findings → summary (development/calibration)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		repoPath := args[0]
		ctx := context.Background()

		cfg, err := config.Load(testConfig)
		if err != nil {
			cfg = config.Default()
		}
		override := makeLLMOverride(testProvider, testModel)
		client := buildLLMClient(cfg.Llm, override)

		budget := security.InvestigatorBudget{
			MaxTurns:     cfg.AgentReview.MaxTurns,
			CostLimitUSD: cfg.AgentReview.CostLimitUSD,
		}
		if cmd.Flags().Changed("max-turns") {
			budget.MaxTurns = testMaxTurns
		}
		if cmd.Flags().Changed("cost-limit") {
			budget.CostLimitUSD = testCostLimit
		}

		registry, err := security.NewToolRegistry(repoPath)
		if err != nil {
			fatalf("prepare tool registry: %v", err)
		}

		staticFindings, err := security.ScanRepo(repoPath)
		if err != nil {
			staticFindings = nil
		}

		slog.Info("phase 1: investigating repository")
		agentFindings, invStats, err := security.Investigate(ctx, client, registry, staticFindings, security.ScanContext{}, budget)
		if err != nil {
			fatalf("investigation failed: %v", err)
		}
		findings := make([]security.SecurityFinding, 0, len(agentFindings))
		for _, af := range agentFindings {
			findings = append(findings, security.AgentFindingToSecurityFinding(af))
		}
		slog.Info("investigation complete", "findings", len(findings), "turns", invStats.Turns, "cost", invStats.TotalCostUSD)

		slog.Info("phase 2: validating findings")
		validated, _, err := security.Validate(ctx, client, registry, findings, budget.MaxTurns)
		if err != nil {
			fatalf("validation failed: %v", err)
		}

		// Validate drops Dismissed findings, so they are counted by difference.
		var confirmed, disputed int
		for _, v := range validated {
			switch v.ValidationStatus {
			case security.StatusConfirmed:
				confirmed++
			case security.StatusDisputed:
				disputed++
			}
		}
		dismissed := len(findings) - len(validated)
		slog.Info("validation complete", "confirmed", confirmed, "disputed", disputed, "dismissed", dismissed)

		out, err := toJSONPretty(validated)
		if err != nil {
			fatalf("marshal results: %v", err)
		}
		if err := writeOrPrint(out, testOutput); err != nil {
			fatalf("write results: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(testCmd)
	testCmd.Flags().StringVar(&testProvider, "provider", "", "LLM provider override: anthropic, openrouter, openai")
	testCmd.Flags().StringVar(&testModel, "model", "", "LLM model override")
	testCmd.Flags().IntVar(&testMaxTurns, "max-turns", 0, "Maximum conversation turns (per phase)")
	testCmd.Flags().Float64Var(&testCostLimit, "cost-limit", 0, "Maximum cost in USD (investigation phase)")
	testCmd.Flags().StringVarP(&testConfig, "config", "c", "config.toml", "Path to config file")
	testCmd.Flags().StringVar(&testOutput, "output", "", "Write results to file instead of stdout")
}
