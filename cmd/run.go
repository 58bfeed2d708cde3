package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ampactor/st-solguard/internal/config"
	"github.com/ampactor/st-solguard/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	runConfigPath string
	runOutput     string
	runReposDir   string
	runProvider   string
	runModel      string
	runDeep       bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full autonomous pipeline: narratives → target selection → security scan → combined report",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load(runConfigPath)
		if err != nil {
			cfg = config.Default()
		}

		override := makeLLMOverride(runProvider, runModel)
		router := buildModelRouter(cfg, override)

		result, err := pipeline.Run(context.Background(), cfg, runReposDir, router, runDeep)
		if err != nil {
			fatalf("pipeline run failed: %v", err)
		}

		if dir := filepath.Dir(runOutput); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				fatalf("create output dir: %v", err)
			}
		}
		if err := os.WriteFile(runOutput, []byte(result.ReportHTML), 0o644); err != nil {
			fatalf("write report: %v", err)
		}

		fmt.Printf("SolGuard report: %s\n", runOutput)
		fmt.Printf("  %d narratives, %d security findings\n", len(result.Narratives), len(result.Findings))
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&runConfigPath, "config", "c", "config.toml", "Path to config file")
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "solguard-report.html", "Output path for the combined HTML report")
	runCmd.Flags().StringVar(&runReposDir, "repos-dir", "repos", "Directory to clone repos into for scanning")
	runCmd.Flags().StringVar(&runProvider, "provider", "", "LLM provider override: anthropic, openrouter, openai")
	runCmd.Flags().StringVar(&runModel, "model", "", "LLM model override")
	runCmd.Flags().BoolVar(&runDeep, "deep", false, "Use multi-turn agent investigation instead of static-only scanning")
}
