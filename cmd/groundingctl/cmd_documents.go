package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/course-grounding/constants"
	"github.com/joseph-ayodele/course-grounding/internal/app"
	"github.com/joseph-ayodele/course-grounding/internal/ingest"
)

var (
	addQueue      bool
	addSkipHidden bool
	watchDebounce time.Duration
)

// documentsCmd is the parent command for document registration
var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "Register course documents against a request",
}

// documentsAddCmd registers files or directories
var documentsAddCmd = &cobra.Command{
	Use:   "add <request_id> <path>...",
	Short: "Register PDF or text files (or directories of them) as active documents",
	Long: `Registers local files as documents of a request, creating the request if needed.
A file whose content is already active on the request is skipped; a file with the same name
as an active document replaces it (the old row is deactivated, never deleted).`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		requestID, err := parseID("request_id", args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			out := cmd.OutOrStdout()
			failed := 0
			for _, p := range args[1:] {
				fi, err := os.Stat(p)
				if err != nil {
					return err
				}
				if fi.IsDir() {
					results, stats, err := a.Ingestor.IngestDirectory(ctx, requestID, p, addSkipHidden)
					if err != nil {
						return err
					}
					for _, r := range results {
						printResult(out, r, nil)
					}
					fmt.Fprintf(out, "%s: scanned=%d matched=%d ok=%d dedup=%d failed=%d\n",
						p, stats.Scanned, stats.Matched, stats.Succeeded, stats.Deduplicated, stats.Failed)
					failed += int(stats.Failed)
					continue
				}
				r, err := a.Ingestor.IngestPath(ctx, requestID, p)
				if r.SourcePath == "" {
					r.SourcePath = p
				}
				printResult(out, r, err)
				if err != nil {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d documents failed to register", failed)
			}
			if addQueue {
				return a.Store.Repos().Requests.SetStatus(ctx, requestID, constants.RequestStatusExtractionQueued)
			}
			return nil
		})
	},
}

// documentsWatchCmd registers files as they appear
var documentsWatchCmd = &cobra.Command{
	Use:   "watch <request_id> <dir>...",
	Short: "Watch directories and register new files until interrupted",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		requestID, err := parseID("request_id", args[0])
		if err != nil {
			return err
		}
		// the watch runs until interrupted, not until --timeout
		timeout = 0
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			out := cmd.OutOrStdout()
			err := a.Ingestor.Watch(ctx, requestID, ingest.WatchConfig{
				Roots:       args[1:],
				InitialScan: true,
				SkipHidden:  addSkipHidden,
				Debounce:    watchDebounce,
			}, func(r ingest.IngestionResult, err error) { printResult(out, r, err) })
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	},
}

func init() {
	documentsAddCmd.Flags().BoolVar(&addQueue, "queue", false, "Mark the request extraction_queued after registering")
	documentsCmd.PersistentFlags().BoolVar(&addSkipHidden, "skip-hidden", true, "Skip hidden files and directories")
	documentsWatchCmd.Flags().DurationVar(&watchDebounce, "debounce", 500*time.Millisecond, "Coalesce bursts of file events")

	documentsCmd.AddCommand(documentsAddCmd)
	documentsCmd.AddCommand(documentsWatchCmd)
}

func printResult(w io.Writer, r ingest.IngestionResult, err error) {
	switch {
	case err != nil:
		fmt.Fprintf(w, "FAIL  %s: %v\n", r.SourcePath, err)
	case r.Err != "":
		fmt.Fprintf(w, "FAIL  %s: %s\n", r.SourcePath, r.Err)
	case r.Deduplicated:
		fmt.Fprintf(w, "SAME  %s doc_id=%s\n", r.SourcePath, r.DocID)
	case r.Replaced > 0:
		fmt.Fprintf(w, "REPL  %s doc_id=%s replaced=%d\n", r.SourcePath, r.DocID, r.Replaced)
	default:
		fmt.Fprintf(w, "NEW   %s doc_id=%s\n", r.SourcePath, r.DocID)
	}
}
