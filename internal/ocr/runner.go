package ocr

import (
	"bytes"
	"context"
	"log/slog"
	"os/exec"
	"path/filepath"
	"time"
	"unicode/utf8"
)

// stderrLogLimit bounds how much tool stderr ends up in one log record.
const stderrLogLimit = 8 << 10

// Runner runs an external tool and returns its output. Tests substitute a fake.
// logger carries the caller's context (document path) and receives the exec record.
type Runner interface {
	Run(ctx context.Context, logger *slog.Logger, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, logger *slog.Logger, name string, args ...string) ([]byte, []byte, error) {
	if logger == nil {
		logger = slog.Default()
	}
	tool := filepath.Base(name)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout, cmd.Stderr = &stdout, &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start).Milliseconds()

	if err != nil {
		logger.Error("tool failed",
			"tool", tool,
			"args", args,
			"duration_ms", elapsed,
			"error", err,
			"stderr", truncate(stderr.String(), stderrLogLimit),
		)
		return stdout.Bytes(), stderr.Bytes(), err
	}
	logger.Debug("tool finished",
		"tool", tool,
		"duration_ms", elapsed,
		"stdout_bytes", stdout.Len(),
	)
	return stdout.Bytes(), stderr.Bytes(), nil
}

// truncate cuts s to at most max bytes without splitting a rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "...(truncated)"
}
