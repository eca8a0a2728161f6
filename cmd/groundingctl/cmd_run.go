package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/course-grounding/constants"
	"github.com/joseph-ayodele/course-grounding/internal/app"
)

// runCmd executes one extraction run synchronously
var runCmd = &cobra.Command{
	Use:   "run <request_id>",
	Short: "Run extraction over a request's active documents",
	Long: `Runs the three-phase extraction for one request: acquire text (OCR when a PDF has no
text layer), chunk pages, extract syllabus and catalog facts, ground each fact in citations,
and write the run manifest.

Exit status 3 means the request has no active documents; no run was created.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		requestID, err := parseID("request_id", args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			runID, err := a.Orchestrator.Run(ctx, requestID)
			if err != nil {
				return err
			}
			run, err := a.Store.Repos().Runs.Get(ctx, runID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "run_id:   %s\n", run.ID)
			fmt.Fprintf(out, "status:   %s\n", run.Status)
			if run.ManifestURI != nil {
				fmt.Fprintf(out, "manifest: %s\n", *run.ManifestURI)
			}
			return nil
		})
	},
}

// queueCmd hands a request to extractiond
var queueCmd = &cobra.Command{
	Use:   "queue <request_id>",
	Short: "Mark a request for extraction by the worker",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		requestID, err := parseID("request_id", args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			if err := a.Store.Repos().Requests.SetStatus(ctx, requestID, constants.RequestStatusExtractionQueued); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "queued %s\n", requestID)
			return nil
		})
	},
}

// migrateCmd creates or updates the schema
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		// app.New migrates on startup
		return withApp(cmd, func(_ context.Context, a *app.App) error {
			fmt.Fprintf(cmd.OutOrStdout(), "schema up to date (%s)\n", a.Cfg.Database.Driver)
			return nil
		})
	},
}
