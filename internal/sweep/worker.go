package sweep

import (
	"context"
	"time"

	"log/slog"
)

func (w *Worker) worker(ctx context.Context) {
	ticker := time.NewTicker(w.c.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.runOnce(ctx, time.Now())
		case <-ctx.Done():
			return
		}
	}
}

func (w *Worker) runOnce(ctx context.Context, now time.Time) {
	if err := w.svc.ExpireStaleOffers(ctx, now); err != nil {
		slog.Default().ErrorContext(ctx, "can't expire stale offers",
			slog.String("err", err.Error()),
		)
	}
	if err := w.svc.CleanupStalePendingRegistrations(ctx, now.Add(-w.c.PendingTTL)); err != nil {
		slog.Default().ErrorContext(ctx, "can't cleanup stale pending registrations",
			slog.String("err", err.Error()),
		)
	}
	if err := w.svc.CloseEndedOfferings(ctx, now); err != nil {
		slog.Default().ErrorContext(ctx, "can't close ended offerings",
			slog.String("err", err.Error()),
		)
	}
	if now.Sub(w.lastReminder) >= w.c.ReminderEvery {
		if err := w.svc.SendUpcomingReminders(ctx, now); err != nil {
			slog.Default().ErrorContext(ctx, "can't send upcoming reminders",
				slog.String("err", err.Error()),
			)
		} else {
			w.lastReminder = now
		}
	}
}
