package app

import (
	"context"

	"log/slog"

	"github.com/klubben/events-manager/config"
	httpapi "github.com/klubben/events-manager/internal/api/http"
	"github.com/klubben/events-manager/internal/dependency"
	"github.com/klubben/events-manager/internal/enrollment"
	"github.com/klubben/events-manager/internal/mail"
	"github.com/klubben/events-manager/internal/payment/stripe"
	"github.com/klubben/events-manager/internal/store"
	"github.com/klubben/events-manager/internal/sweep"
)

// App is the main application
type App struct {
	hs     *httpapi.Server
	db     dependency.Repository
	mailer dependency.Mailer
	sweeps *sweep.Worker
	c      *config.Config
	done   chan struct{}
}

// New returns a new instance of App
func New(c *config.Config) *App {
	return &App{
		c:    c,
		done: make(chan struct{}),
	}
}

// Start starts the app
func (a *App) Start(ctx context.Context) error {
	var err error
	slog.Default().InfoContext(ctx, "starting events manager")

	a.db, err = store.New(ctx, a.c.DB)
	if err != nil {
		slog.Default().ErrorContext(ctx, "couldn't connect to mysql",
			slog.String("err", err.Error()),
		)
		return err
	}

	a.mailer, err = mail.New(&a.c.Mailer, a.db.Notifications())
	if err != nil {
		slog.Default().ErrorContext(ctx, "failed to create mailer",
			slog.String("err", err.Error()),
		)
		return err
	}
	if err = a.mailer.Start(ctx); err != nil {
		slog.Default().ErrorContext(ctx, "failed to start mailer worker",
			slog.String("err", err.Error()),
		)
		return err
	}

	processor, err := stripe.New(&a.c.Stripe)
	if err != nil {
		slog.Default().ErrorContext(ctx, "failed to create stripe processor",
			slog.String("err", err.Error()),
		)
		return err
	}

	svc := enrollment.New(a.db, processor, a.mailer)

	a.sweeps = sweep.New(&a.c.Sweep, svc)
	if err = a.sweeps.Start(ctx); err != nil {
		slog.Default().ErrorContext(ctx, "failed to start sweep worker",
			slog.String("err", err.Error()),
		)
		return err
	}

	a.hs = httpapi.New(&a.c.HTTP, svc, a.db, processor)
	if err = a.hs.Start(ctx); err != nil {
		slog.Default().ErrorContext(ctx, "cannot start http server",
			slog.String("err", err.Error()),
		)
		return err
	}

	return nil
}

// Stop stops the application and waits for all services to exit
func (a *App) Stop(ctx context.Context) {
	if a.hs != nil {
		if err := a.hs.Stop(ctx); err != nil {
			slog.Default().ErrorContext(ctx, "can't stop http server",
				slog.String("err", err.Error()),
			)
		}
	}
	if a.sweeps != nil {
		_ = a.sweeps.Stop()
	}
	if a.mailer != nil {
		_ = a.mailer.Stop()
	}
	if a.db != nil {
		a.db.Close()
	}
	close(a.done)
}

// Done returns a channel that is closed after the application has exited
func (a *App) Done() chan struct{} {
	return a.done
}
