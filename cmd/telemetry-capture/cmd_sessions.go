package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/e7canasta/telemetry-capture/internal/recorder"
)

func newSessionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List sessions stored by the recorder",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			rec, err := recorder.Open(cfg.Recorder.Path)
			if err != nil {
				return err
			}
			defer rec.Close()

			sessions, err := rec.Sessions(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				return json.NewEncoder(out).Encode(map[string]any{
					"sessions": sessions,
					"count":    len(sessions),
				})
			}

			if len(sessions) == 0 {
				fmt.Fprintln(out, "No recorded sessions.")
				return nil
			}
			for _, s := range sessions {
				ended := "open"
				if !s.EndedAt.IsZero() {
					ended = s.EndedAt.Sub(s.StartedAt).Round(time.Second).String()
				}
				fmt.Fprintf(out, "%s  started %s  %-8s  %4d vars  %3d docs  %s samples\n",
					s.ID,
					humanize.Time(s.StartedAt),
					ended,
					s.VariableCount,
					s.Documents,
					humanize.Comma(int64(s.Samples)),
				)
			}
			return nil
		},
	}
}
