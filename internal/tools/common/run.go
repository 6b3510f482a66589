package common

import (
	"context"
	"time"

	"github.com/Elmeric/cycliti/internal/observability"
	"github.com/Elmeric/cycliti/internal/tools/ui"
)

// Run executes a tool command either headless (ci) or behind the TUI
// spinner, and records its outcome.
func Run(tool, command string, ci bool, timeout time.Duration, fn func(context.Context) ([]string, error)) ([]string, error) {
	start := time.Now()
	var (
		details []string
		err     error
	)
	if ci {
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		details, err = fn(ctx)
		cancel()
	} else {
		details, err = ui.Run(tool+" "+command, timeout, fn)
	}

	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	ctx := context.Background()
	observability.RecordToolCommandRun(ctx, tool, command, outcome)
	observability.RecordToolCommandDuration(ctx, tool, command, outcome, time.Since(start))
	return details, err
}
