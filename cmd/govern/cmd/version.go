package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "1.0.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("govern version %s\n", version)
		fmt.Println("Governance ledger and pre-trade risk-rule tooling")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
