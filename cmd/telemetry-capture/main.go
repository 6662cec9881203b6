package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/e7canasta/telemetry-capture/internal/config"
	"github.com/e7canasta/telemetry-capture/internal/logging"
	"github.com/e7canasta/telemetry-capture/internal/shm"
)

var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "telemetry-capture",
		Short: "Capture simulator telemetry from shared memory",
		Long: `telemetry-capture reads the racing simulator's shared telemetry region,
publishes frames, session documents and the variable catalog, and
forwards them to MQTT and a SQLite recording.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "Path to YAML configuration file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: text, json")
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	rootCmd.PersistentFlags().String("dump", "", "Read a region dump file instead of the live region")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newCatalogCmd(),
		newDumpCmd(),
		newSessionsCmd(),
	)
	return rootCmd
}

// loadConfig loads the configuration named by --config, applies the
// global flag overrides and installs the logger.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.Logging.Level = v
	}
	if v, _ := cmd.Flags().GetString("log-format"); v != "" {
		cfg.Logging.Format = v
	}
	if v, _ := cmd.Flags().GetString("dump"); v != "" {
		cfg.Capture.DumpFile = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	slog.SetDefault(logging.NewLogger(cfg.Logging.Level, cfg.Logging.Format, cmd.ErrOrStderr()))
	return cfg, nil
}

// openRegion opens the dump file when one is configured, the live region
// otherwise.
func openRegion(cfg *config.Config) (*shm.Connector, error) {
	if cfg.Capture.DumpFile != "" {
		region, err := shm.OpenDump(cfg.Capture.DumpFile)
		if err != nil {
			return nil, err
		}
		return shm.NewConnector(region), nil
	}

	names := shm.DefaultNames()
	if cfg.Capture.MappingName != "" {
		names.Mapping = cfg.Capture.MappingName
	}
	if cfg.Capture.EventName != "" {
		names.Event = cfg.Capture.EventName
	}
	return shm.Open(names)
}
