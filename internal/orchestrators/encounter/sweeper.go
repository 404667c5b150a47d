package encounter

import (
	"context"
	"log/slog"
	"time"

	"github.com/KirkDiggler/rpg-combat/internal/errors"
)

// SweepExpired times out idle sessions and drops ended ones past their grace
// period, publishing and archiving the timeouts
func (o *orchestrator) SweepExpired(ctx context.Context, _ *SweepExpiredInput) (*SweepExpiredOutput, error) {
	res, err := o.registry.SweepExpired(ctx, o.clock.Now())
	if err != nil {
		return nil, err
	}

	out := &SweepExpiredOutput{
		Removed: res.Removed,
		Busy:    res.Busy,
	}
	for _, expired := range res.TimedOut {
		o.publish(ctx, expired.Session, expired.Events)
		o.archive(ctx, expired.Session)
		out.TimedOut = append(out.TimedOut, expired.Session.ID)
	}

	if len(out.TimedOut) > 0 || len(out.Removed) > 0 {
		slog.Info("Swept combat sessions",
			"timed_out", len(out.TimedOut),
			"removed", len(out.Removed),
			"busy", len(out.Busy),
		)
	}

	return out, nil
}

// RunSweeper sweeps every interval until ctx is done
func (o *orchestrator) RunSweeper(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return errors.InvalidArgumentf("sweep interval must be positive, got %s", interval)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := o.SweepExpired(ctx, &SweepExpiredInput{}); err != nil && ctx.Err() == nil {
				slog.Error("Session sweep failed", "error", err)
			}
		}
	}
}
