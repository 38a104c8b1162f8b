// Package httpapi is the thin JSON surface over the enrollment service:
// decode, validate, call, encode. All domain rules live below it.
package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/jwtauth/v5"

	"github.com/klubben/events-manager/internal/dependency"
	"github.com/klubben/events-manager/internal/enrollment"
	appmw "github.com/klubben/events-manager/internal/middleware"
	"github.com/klubben/events-manager/internal/payment/stripe"
	"github.com/klubben/events-manager/internal/ratelimit"
)

// Config is the configuration for the http server
type Config struct {
	Port           string   `mapstructure:"port"`
	Address        string   `mapstructure:"address"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	JWTSecret      string   `mapstructure:"jwt_secret"`
}

// Server is the http server
type Server struct {
	hs      *http.Server
	c       *Config
	svc     *enrollment.Service
	rep     dependency.Repository
	proc    *stripe.Processor
	jwtAuth *jwtauth.JWTAuth
	limits  *ratelimit.EnrollmentLimiter
	done    chan struct{}
}

// New creates a new server
func New(c *Config, svc *enrollment.Service, rep dependency.Repository, proc *stripe.Processor) *Server {
	return &Server{
		c:       c,
		svc:     svc,
		rep:     rep,
		proc:    proc,
		jwtAuth: jwtauth.New("HS256", []byte(c.JWTSecret), nil),
		limits:  ratelimit.NewEnrollmentLimiter(),
		done:    make(chan struct{}),
	}
}

// Done returns a channel that is closed when the http server exits
func (s *Server) Done() <-chan struct{} {
	return s.done
}

// Start starts the http server
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%s", s.c.Address, s.c.Port)
	s.hs = &http.Server{
		Addr:              addr,
		Handler:           s.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		defer close(s.done)
		if err := s.hs.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Default().ErrorContext(ctx, "http server exited",
				slog.String("err", err.Error()),
			)
		}
	}()

	slog.Default().InfoContext(ctx, "http server listening", slog.String("addr", addr))
	return nil
}

// Stop shuts the http server down gracefully
func (s *Server) Stop(ctx context.Context) error {
	if s.hs == nil {
		return nil
	}
	return s.hs.Shutdown(ctx)
}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(appmw.ClientIdentifier)

	c := cors.New(cors.Options{
		AllowedOrigins: s.c.AllowedOrigins,
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	})
	r.Use(c.Handler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Post("/webhooks/stripe", s.handleStripeWebhook)

	r.Get("/api/offerings/{uuid}", s.handleGetOffering)

	r.Group(func(r chi.Router) {
		r.Use(jwtauth.Verifier(s.jwtAuth))
		r.Use(s.authenticator)

		r.Post("/api/offerings/{uuid}/register", s.handleRegister)
		r.Get("/api/offerings/{uuid}/registration", s.handleMyRegistration)
		r.Delete("/api/offerings/{uuid}/registration", s.handleCancelRegistration)
		r.Post("/api/waitlist/{uuid}/accept", s.handleAcceptOffer)
		r.Post("/api/waitlist/{uuid}/decline", s.handleDeclineOffer)

		r.Group(func(r chi.Router) {
			r.Use(s.adminOnly)

			r.Post("/api/admin/offerings", s.handleAddOffering)
			r.Post("/api/admin/offerings/{uuid}/status", s.handleSetOfferingStatus)
			r.Get("/api/admin/offerings/{uuid}/attendees", s.handleAttendees)
			r.Post("/api/admin/offerings/{uuid}/promote-next", s.handlePromoteNext)
		})
	})

	return r
}
