package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/e7canasta/telemetry-capture/vars"
)

type catalogEntry struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Semantic    string `json:"semantic"`
	Offset      int    `json:"offset"`
	Count       int    `json:"count"`
	Unit        string `json:"unit,omitempty"`
	Description string `json:"description,omitempty"`
}

func newCatalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "Print the producer's variable catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			conn, err := openRegion(cfg)
			if err != nil {
				return fmt.Errorf("failed to open region: %w", err)
			}
			defer conn.Close()

			cb, err := conn.ReadControlBlock()
			if err != nil {
				return fmt.Errorf("failed to read control block: %w", err)
			}
			cat, report, err := conn.Catalog(cb)
			if err != nil {
				return fmt.Errorf("failed to read variable table: %w", err)
			}

			entries := make([]catalogEntry, 0, len(cat))
			for _, name := range cat.Names() {
				d := cat[name]
				entries = append(entries, catalogEntry{
					Name:        d.Name,
					Type:        d.Type.String(),
					Semantic:    semanticLabel(d),
					Offset:      d.Offset,
					Count:       d.Count,
					Unit:        d.Unit,
					Description: d.Description,
				})
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				return json.NewEncoder(out).Encode(map[string]any{
					"connected": cb.Connected(),
					"version":   cb.Version,
					"tick_rate": cb.TickRate,
					"malformed": report.Malformed,
					"variables": entries,
					"count":     len(entries),
				})
			}

			fmt.Fprintf(out, "Producer version %d, tick rate %d, connected %v\n", cb.Version, cb.TickRate, cb.Connected())
			fmt.Fprintf(out, "%d variables", len(entries))
			if report.Malformed > 0 {
				fmt.Fprintf(out, " (%d malformed)", report.Malformed)
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out)
			fmt.Fprintf(out, "%-32s %-9s %-16s %6s  %-10s %s\n", "NAME", "TYPE", "SEMANTIC", "COUNT", "UNIT", "DESCRIPTION")
			for _, e := range entries {
				fmt.Fprintf(out, "%-32s %-9s %-16s %6d  %-10s %s\n", e.Name, e.Type, e.Semantic, e.Count, e.Unit, e.Description)
			}
			return nil
		},
	}
}

func semanticLabel(d vars.Descriptor) string {
	if d.IsArray() {
		return d.Semantic.String() + "[]"
	}
	return d.Semantic.String()
}
