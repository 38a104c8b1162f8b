package mail

import (
	"context"
	"errors"
	"fmt"
	"time"

	"log/slog"

	gerr "github.com/klubben/events-manager/internal/errors"
)

// Start starts the worker
func (m *Mailer) Start(ctx context.Context) error {
	if m.ctx != nil && m.cancel != nil {
		return fmt.Errorf("Mailer already started")
	}

	m.ctx, m.cancel = context.WithCancel(ctx)
	go m.worker(m.ctx)
	return nil
}

// Stop stops the worker gracefully
func (m *Mailer) Stop() error {
	if m.cancel == nil {
		return fmt.Errorf("Mailer already stopped or not started")
	}

	m.cancel()
	m.cancel = nil
	return nil
}

func (m *Mailer) worker(ctx context.Context) {
	ticker := time.NewTicker(m.c.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := m.handleUnsent(ctx); err != nil {
				slog.Default().ErrorContext(ctx, "can't handle unsent notifications",
					slog.String("err", err.Error()),
				)
			}
		case <-ctx.Done():
			return
		}
	}
}

func (m *Mailer) handleUnsent(ctx context.Context) error {
	unsent, err := m.outbox.GetAllUnsent(ctx, false)
	if err != nil {
		return fmt.Errorf("can't get unsent notifications: %w", err)
	}

	for _, n := range unsent {
		// Check for a stop signal before processing each notification
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := m.cli.Send(ctx, n.Recipient, n.Subject, n.Html); err != nil {
			slog.Default().ErrorContext(ctx, "can't send notification",
				slog.String("err", err.Error()),
				slog.Int("id", n.Id),
			)

			if errors.Is(err, gerr.ErrMailApiLimitReached) {
				return nil // Stop sending if API limit is reached
			}

			if err := m.outbox.AddError(ctx, n.Id, err.Error()); err != nil {
				return fmt.Errorf("can't log error for notification %v: %w", n.Id, err)
			}
		} else {
			if err := m.outbox.UpdateSent(ctx, n.Id); err != nil {
				return fmt.Errorf("can't update sent status for notification %v: %w", n.Id, err)
			}
		}
	}

	return nil
}
