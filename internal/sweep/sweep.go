// Package sweep runs the periodic maintenance passes: expiring stale
// waitlist offers, cancelling abandoned pending-payment registrations,
// sending upcoming-event reminders and closing ended offerings.
package sweep

import (
	"context"
	"fmt"
	"time"

	"github.com/klubben/events-manager/internal/enrollment"
)

// Config holds configuration for the sweep worker.
type Config struct {
	WorkerInterval time.Duration `mapstructure:"worker_interval"`
	PendingTTL     time.Duration `mapstructure:"pending_ttl"`    // e.g. 24h - cancel pending_payment older than this
	ReminderEvery  time.Duration `mapstructure:"reminder_every"` // gate between reminder passes
}

// DefaultConfig returns default configuration values.
func DefaultConfig() Config {
	return Config{
		WorkerInterval: 15 * time.Minute,
		PendingTTL:     24 * time.Hour,
		ReminderEvery:  24 * time.Hour,
	}
}

// Worker drives the sweeps on a ticker. Every sweep is idempotent, so
// overlapping deploys or missed ticks are harmless.
type Worker struct {
	svc          *enrollment.Service
	c            *Config
	ctx          context.Context
	stop         context.CancelFunc
	lastReminder time.Time
}

// New creates a new sweep worker.
func New(c *Config, svc *enrollment.Service) *Worker {
	if c == nil {
		dc := DefaultConfig()
		c = &dc
	}
	if c.WorkerInterval == 0 {
		c.WorkerInterval = 15 * time.Minute
	}
	if c.PendingTTL == 0 {
		c.PendingTTL = 24 * time.Hour
	}
	if c.ReminderEvery == 0 {
		c.ReminderEvery = 24 * time.Hour
	}
	return &Worker{
		svc: svc,
		c:   c,
	}
}

// Start starts the worker.
func (w *Worker) Start(ctx context.Context) error {
	if w.ctx != nil && w.stop != nil {
		return fmt.Errorf("sweep worker already started")
	}
	w.ctx, w.stop = context.WithCancel(ctx)
	go w.worker(w.ctx)
	return nil
}

// Stop stops the worker gracefully.
func (w *Worker) Stop() error {
	if w.stop == nil {
		return fmt.Errorf("sweep worker already stopped or not started")
	}
	w.stop()
	w.stop = nil
	return nil
}
