package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"google.golang.org/grpc/codes"

	"github.com/joseph-ayodele/course-grounding/internal/app"
	"github.com/joseph-ayodele/course-grounding/internal/common"
)

var timeout time.Duration

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "groundingctl",
	Short: "Extract and ground course facts from uploaded syllabi and catalogs",
	Long: `groundingctl drives the course-grounding pipeline against the configured database.

Configuration comes from environment variables (DB_DRIVER, DB_URL, SQLITE_PATH, MANIFEST_DIR, ...)
and optionally a YAML file named by CONFIG_FILE.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Minute, "Operation timeout")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(queueCmd)
	rootCmd.AddCommand(documentsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps an error onto a process exit status by its gRPC classification.
func exitCode(err error) int {
	var bad *validationFailed
	if errors.As(err, &bad) {
		return 5
	}
	switch common.GRPCCode(err) {
	case codes.InvalidArgument:
		return 2
	case codes.FailedPrecondition:
		return 3
	case codes.NotFound:
		return 4
	default:
		return 1
	}
}

// withApp builds the application for one command and tears it down afterwards.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	a, err := app.New(ctx, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func parseID(field, raw string) (uuid.UUID, error) {
	return common.ParseUUID(field, raw)
}
