// internal/commands/suite.go
package driftmon

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"driftmon/internal/suite"
	"driftmon/internal/util"
)

var suiteCmd = &cobra.Command{
	Use:   "suite",
	Short: "Inspect the embedded test battery",
}

var suiteShowCmd = &cobra.Command{
	Use:   "show",
	Short: "List the battery's test cases",
	RunE: func(cmd *cobra.Command, args []string) error {
		battery, err := suite.Load()
		if err != nil {
			return err
		}

		header := color.New(color.FgCyan, color.Bold)
		for _, category := range suite.Categories() {
			cases := battery.ByCategory(category)
			if len(cases) == 0 {
				continue
			}
			header.Printf("%s (%d cases)\n", category, len(cases))
			for _, tc := range cases {
				fmt.Printf("  %-14s [%s] %s\n", tc.ID, tc.Scoring, util.TruncateRunes(tc.Prompt, 70))
			}
		}
		fmt.Printf("\n%d cases total\n", len(battery.Tests))
		return nil
	},
}

var suiteValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the battery against its JSON Schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		battery, err := suite.Load()
		if err != nil {
			return err
		}
		color.New(color.FgGreen).Printf("Battery valid: %d cases across %d categories\n",
			len(battery.Tests), len(suite.Categories()))
		return nil
	},
}

func init() {
	suiteCmd.AddCommand(suiteShowCmd)
	suiteCmd.AddCommand(suiteValidateCmd)
	rootCmd.AddCommand(suiteCmd)
}
