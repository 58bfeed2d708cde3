package cmd

import "github.com/spf13/cobra"

var (
	renderNarratives string
	renderFindings   string
	renderOutput     string
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a report from pre-computed analysis files (no LLM calls)",
	Run: func(cmd *cobra.Command, args []string) {
		if err := renderFromFiles(renderNarratives, renderFindings, renderOutput); err != nil {
			fatalf("render failed: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(renderCmd)
	renderCmd.Flags().StringVar(&renderNarratives, "narratives", "", "Path to narratives JSON file")
	renderCmd.Flags().StringVar(&renderFindings, "findings", "", "Path to security findings JSON file")
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "solguard-report.html", "Output path for the combined HTML report")
	renderCmd.MarkFlagRequired("narratives")
	renderCmd.MarkFlagRequired("findings")
}
