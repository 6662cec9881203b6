package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/e7canasta/telemetry-capture/internal/shm"
)

func newDumpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Write a snapshot of the shared region to a file",
		Long: `Copies the whole shared telemetry region to a file. The file can be
replayed later with --dump.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			if output == "" {
				return fmt.Errorf("--output is required")
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			conn, err := openRegion(cfg)
			if err != nil {
				return fmt.Errorf("failed to open region: %w", err)
			}
			defer conn.Close()

			if err := shm.WriteDump(conn.Region(), output); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s to %s\n", humanize.Bytes(uint64(conn.Region().Size())), output)
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "", "Destination file (required)")
	return cmd
}
