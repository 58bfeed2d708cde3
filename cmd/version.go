package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is set at build via ldflags or defaults to current release
var Version = "0.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("solguard version %s\n", Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
