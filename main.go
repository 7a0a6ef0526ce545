package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sheikhrachel/go-gol-boards/utils"
)

var (
	configPath string

	config utils.Config

	rootCmd = &cobra.Command{
		Use:   "gol",
		Short: "Conway's Game of Life boards service and terminal simulator",
		Long: `gol stores Game of Life boards and steps them forward over HTTP,
or runs a bounded board locally in the terminal.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			config, err = utils.LoadConfig(configPath)
			if err != nil {
				return err
			}
			slog.SetDefault(newLogger(config.Telemetry))
			return nil
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file (defaults are used when empty)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(simulateCmd)
}

// newLogger builds the JSON logger used by every command
func newLogger(cfg utils.TelemetryConfig) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
