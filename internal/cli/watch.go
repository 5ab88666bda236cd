package cli

import (
	"context"
	"log/slog"
	"time"
)

// reloadDebounce lets editors finish writing before definitions are reloaded.
const reloadDebounce = 100 * time.Millisecond

// Reloader is an engine whose definitions can be watched and reloaded.
type Reloader interface {
	Watch(ctx context.Context) (<-chan string, error)
	Reload(ctx context.Context) error
}

// WatchAndReload reloads definitions whenever the source changes, until ctx is done.
// A failed reload keeps the previous definitions. notify, if set, is called after every attempt.
func WatchAndReload(ctx context.Context, r Reloader, logger *slog.Logger, notify func(event string, err error)) error {
	events, err := r.Watch(ctx)
	if err != nil {
		return err
	}
	logger.Info("watching definitions for changes")

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}
			// Coalesce the burst of events a single save usually produces.
			timer := time.NewTimer(reloadDebounce)
		drain:
			for {
				select {
				case <-events:
				case <-timer.C:
					break drain
				case <-ctx.Done():
					timer.Stop()
					return nil
				}
			}

			err := r.Reload(ctx)
			if err != nil {
				logger.Error("reload failed, keeping previous definitions", "event", event, "err", err)
			} else {
				logger.Info("definitions reloaded", "event", event)
			}
			if notify != nil {
				notify(event, err)
			}
		}
	}
}
