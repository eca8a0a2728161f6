package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/course-grounding/internal/app"
	"github.com/joseph-ayodele/course-grounding/internal/audit"
)

// validationFailed is returned when the audit found uncited evidence.
type validationFailed struct{ uncited int }

func (e *validationFailed) Error() string {
	return fmt.Sprintf("validation failed: %d evidence rows without citations", e.uncited)
}

// validateCmd audits the latest run of a request
var validateCmd = &cobra.Command{
	Use:   "validate <request_id>",
	Short: "Check that every evidence row of the latest run is cited",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		requestID, err := parseID("request_id", args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			rep, err := a.Auditor.ValidateLatest(ctx, requestID)
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), rep)
			if !rep.OK() {
				return &validationFailed{uncited: len(rep.Uncited)}
			}
			return nil
		})
	},
}

func printReport(w io.Writer, rep audit.Report) {
	fmt.Fprintf(w, "request_id: %s\n", rep.RequestID)
	fmt.Fprintf(w, "run_id:     %s\n", rep.Run.ID)
	fmt.Fprintf(w, "status:     %s\n", rep.Run.Status)
	if rep.Run.ManifestURI != nil {
		fmt.Fprintf(w, "manifest:   %s\n", *rep.Run.ManifestURI)
	}
	if rep.Run.ErrorMessage != nil {
		fmt.Fprintf(w, "error:      %s\n", *rep.Run.ErrorMessage)
	}
	fmt.Fprintf(w, "chunks:     %d\n", rep.ChunkCount)
	fmt.Fprintf(w, "evidence:   %d (unknown %d)\n", rep.EvidenceCount, rep.UnknownCount)
	for _, warn := range rep.Warnings {
		fmt.Fprintf(w, "warning:    %s\n", warn)
	}
	for _, ev := range rep.Uncited {
		fmt.Fprintf(w, "UNCITED:    %s %s/%s\n", ev.ID, ev.FactType, ev.FactKey)
	}
	if rep.OK() {
		fmt.Fprintln(w, "PASS")
	} else {
		fmt.Fprintln(w, "FAIL")
	}
}
