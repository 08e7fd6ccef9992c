// internal/appconfig/show.go
package appconfig

import (
	"fmt"
	"io"
)

// ShowConfig prints the resolved configuration in a human-readable layout.
func ShowConfig(out io.Writer, file string, cfg *Config) {
	if file == "" {
		fmt.Fprintln(out, "No config file loaded (using defaults).")
	} else {
		fmt.Fprintf(out, "Config file: %s\n\n", file)
	}

	fmt.Fprintln(out, "Current configuration:")
	if cfg == nil {
		cfg = &Config{}
	}
	fmt.Fprintf(out, "  Debug:               %v\n", cfg.Debug)
	fmt.Fprintf(out, "  Data Dir:            %s\n", cfg.DataDirPath())
	fmt.Fprintf(out, "  Log File:            %s\n", cfg.LogFilePath())
	fmt.Fprintf(out, "  Request Timeout:     %s\n", cfg.RequestTimeout())
	fmt.Fprintf(out, "  Max Retries:         %d\n", cfg.RetryAttempts())
	fmt.Fprintf(out, "  Parallelism:         %d per provider\n", cfg.ProviderParallelism())
	fmt.Fprintf(out, "  Rate Limit:          %d requests/minute per provider\n", cfg.ProviderRequestsPerMinute())
	fmt.Fprintf(out, "  Max Tokens:          %d\n", cfg.CompletionMaxTokens())
	fmt.Fprintf(out, "  Significance Level:  %.3f\n", cfg.DriftSignificanceLevel())
	fmt.Fprintf(out, "  Min Effect Size:     %.2f\n", cfg.DriftMinEffectSize())

	fmt.Fprintf(out, "\nModels (%d enabled of %d):\n", len(cfg.EnabledModels()), len(cfg.Models))
	for _, m := range cfg.Models {
		state := "enabled"
		if !m.Enabled {
			state = "disabled"
		}
		fmt.Fprintf(out, "  %-16s %-10s %-40s %s\n", m.ID, m.Provider, m.APIModel, state)
	}
}
