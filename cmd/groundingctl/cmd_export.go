package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/course-grounding/internal/app"
)

var exportOut string

// exportCmd writes a run's evidence to an XLSX workbook
var exportCmd = &cobra.Command{
	Use:   "export <run_id>",
	Short: "Export a run's grounded evidence to XLSX",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runID, err := parseID("run_id", args[0])
		if err != nil {
			return err
		}
		path := exportOut
		if path == "" {
			path = fmt.Sprintf("evidence_%s.xlsx", runID)
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			data, err := a.Exporter.ExportRunXLSX(ctx, runID)
			if err != nil {
				return err
			}
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", path, len(data))
			return nil
		})
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "output", "o", "", "Output file (default evidence_<run_id>.xlsx)")
}
