// internal/commands/serve.go
package driftmon

import (
	"fmt"

	"github.com/spf13/cobra"

	"driftmon/internal/dashboard"
	"driftmon/internal/logging"
	"driftmon/internal/results"
	"driftmon/internal/suite"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the read-only results dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := requireModels()
		if err != nil {
			return err
		}
		battery, err := suite.Load()
		if err != nil {
			return err
		}
		store, err := results.NewStore(cfg.DataDirPath())
		if err != nil {
			return err
		}

		server := dashboard.NewServer(cfg, battery, store)
		logging.LogEvent("Dashboard listening on %s", serveAddr)
		fmt.Printf("Dashboard listening on http://%s\n", displayAddr(serveAddr))
		return server.Run(serveAddr)
	},
}

func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
	rootCmd.AddCommand(serveCmd)
}
