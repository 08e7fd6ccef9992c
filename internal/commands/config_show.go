// internal/commands/config_show.go
package driftmon

import (
	"github.com/k0kubun/pp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"driftmon/internal/appconfig"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the resolved configuration",
}

// configShowCmd displays the merged configuration; with --debug it dumps the
// full struct.
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show config settings",
	Long:  `Show config settings ensuring that the JSON config is loaded properly and overridden by flags accordingly.`,
	Run: func(cmd *cobra.Command, args []string) {
		appconfig.ShowConfig(cmd.OutOrStdout(), viper.ConfigFileUsed(), GetConfig())
		if DebugEnabled() {
			pp.Println(GetConfig())
		}
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}
