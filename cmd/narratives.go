package cmd

import (
	"context"
	"fmt"

	"github.com/ampactor/st-solguard/internal/config"
	"github.com/ampactor/st-solguard/internal/httpclient"
	"github.com/ampactor/st-solguard/internal/narrative"
	"github.com/spf13/cobra"
)

var (
	narrativesConfigPath string
	narrativesProvider   string
	narrativesModel      string
)

var narrativesCmd = &cobra.Command{
	Use:   "narratives",
	Short: "Run narrative detection only",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load(narrativesConfigPath)
		if err != nil {
			cfg = config.Default()
		}

		override := makeLLMOverride(narrativesProvider, narrativesModel)
		router := buildModelRouter(cfg, override)
		http := httpclient.New("st-solguard/0.1.0")

		result, err := narrative.Run(context.Background(), cfg, http, router)
		if err != nil {
			fatalf("narrative detection failed: %v", err)
		}

		out, err := toJSONPretty(result.Narratives)
		if err != nil {
			fatalf("marshal narratives: %v", err)
		}
		fmt.Println(out)
	},
}

func init() {
	rootCmd.AddCommand(narrativesCmd)
	narrativesCmd.Flags().StringVarP(&narrativesConfigPath, "config", "c", "config.toml", "Path to config file")
	narrativesCmd.Flags().StringVar(&narrativesProvider, "provider", "", "LLM provider override: anthropic, openrouter, openai")
	narrativesCmd.Flags().StringVar(&narrativesModel, "model", "", "LLM model override")
}
