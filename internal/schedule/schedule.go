package schedule

import (
	"context"
	"log/slog"
	"time"
)

// RunAt calls execute at runAt unless ctx is cancelled first. It returns
// whether execute ran.
func RunAt(ctx context.Context, runAt time.Time, execute func(ctx context.Context)) bool {
	timer := time.NewTimer(time.Until(runAt))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		execute(ctx)
		return true
	}
}

// Every runs execute at each firing of cron until ctx is cancelled. Runs do
// not overlap; a firing missed while execute is busy is skipped.
func Every(ctx context.Context, cron string, execute func(ctx context.Context)) error {
	if err := ValidateCron(cron); err != nil {
		return err
	}
	for {
		next, err := NextRunTimes(cron, 1)
		if err != nil {
			return err
		}
		slog.DebugContext(ctx, "Scheduled next run", slog.String("cron", cron), slog.Time("at", next[0]))
		if !RunAt(ctx, next[0], execute) {
			return ctx.Err()
		}
	}
}
