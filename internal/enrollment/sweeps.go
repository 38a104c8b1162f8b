package enrollment

import (
	"context"
	"fmt"
	"time"

	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/klubben/events-manager/internal/dependency"
)

const reminderSendConcurrency = 8

// ExpireStaleOffers expires every offer whose response window passed. Each
// entry gets its own transaction, so one bad entry doesn't block the rest.
// Safe to re-run: an entry that already left the offered state is skipped.
func (s *Service) ExpireStaleOffers(ctx context.Context, now time.Time) error {
	stale, err := s.rep.Waitlist().GetStaleOffers(ctx, now)
	if err != nil {
		return fmt.Errorf("can't get stale offers: %w", err)
	}

	for _, entry := range stale {
		if err := ctx.Err(); err != nil {
			return err
		}
		promoted, err := s.rep.Waitlist().ExpireOffer(ctx, entry.UUID, now)
		if err != nil {
			slog.Default().ErrorContext(ctx, "can't expire stale offer",
				slog.String("err", err.Error()),
				slog.String("entry_uuid", entry.UUID),
			)
			continue
		}
		if promoted != nil {
			s.notifySpotAvailable(ctx, promoted)
		}
	}
	return nil
}

// CleanupStalePendingRegistrations cancels pending_payment registrations
// registered before the cutoff. The rows never held a seat, so no promotion
// happens.
func (s *Service) CleanupStalePendingRegistrations(ctx context.Context, cutoff time.Time) error {
	stale, err := s.rep.Registrations().GetStalePendingRegistrations(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("can't get stale pending registrations: %w", err)
	}

	for _, reg := range stale {
		if err := ctx.Err(); err != nil {
			return err
		}
		offering, err := s.rep.Offerings().GetOfferingById(ctx, reg.OfferingId)
		if err != nil {
			slog.Default().ErrorContext(ctx, "can't resolve offering for stale registration",
				slog.String("err", err.Error()),
				slog.String("registration_uuid", reg.UUID),
			)
			continue
		}
		cancelled, _, err := s.rep.Registrations().CancelRegistration(ctx, offering.UUID, reg.MemberId, "payment timeout", s.rep.Now())
		if err != nil {
			slog.Default().ErrorContext(ctx, "can't cancel stale pending registration",
				slog.String("err", err.Error()),
				slog.String("registration_uuid", reg.UUID),
			)
			continue
		}
		if reg.CheckoutRef.Valid {
			if err := s.invoicer.CancelCheckout(ctx, reg.CheckoutRef.String); err != nil {
				slog.Default().ErrorContext(ctx, "can't cancel checkout for stale registration",
					slog.String("err", err.Error()),
					slog.String("registration_uuid", reg.UUID),
				)
			}
		}
		s.notifyCancelled(ctx, cancelled, "payment timeout")
	}
	return nil
}

// SendUpcomingReminders mails every confirmed registration of offerings
// starting between 24h and 48h from now. The reminder_sent_at flag makes the
// sweep idempotent across runs.
func (s *Service) SendUpcomingReminders(ctx context.Context, now time.Time) error {
	offerings, err := s.rep.Offerings().GetOfferingsStartingBetween(ctx, now.Add(24*time.Hour), now.Add(48*time.Hour))
	if err != nil {
		return fmt.Errorf("can't get upcoming offerings: %w", err)
	}

	for _, offering := range offerings {
		regs, err := s.rep.Registrations().GetUnremindedConfirmed(ctx, offering.UUID)
		if err != nil {
			slog.Default().ErrorContext(ctx, "can't get unreminded registrations",
				slog.String("err", err.Error()),
				slog.String("offering_uuid", offering.UUID),
			)
			continue
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(reminderSendConcurrency)
		for _, reg := range regs {
			reg := reg
			g.Go(func() error {
				err := s.mailer.SendUpcomingReminder(gctx, s.rep, reg.MemberEmail, &dependency.RegistrationMailDetails{
					OfferingTitle: offering.Title,
					StartsAt:      offering.StartsAt,
				})
				if err != nil {
					s.logNotifyError(gctx, "upcoming reminder", reg.UUID, err)
					return nil
				}
				if err := s.rep.Registrations().MarkReminderSent(gctx, reg.UUID, now); err != nil {
					s.logNotifyError(gctx, "upcoming reminder", reg.UUID, err)
				}
				return nil
			})
		}
		_ = g.Wait()
	}
	return nil
}

// CloseEndedOfferings moves past-end open offerings to closed and completes
// their confirmed registrations.
func (s *Service) CloseEndedOfferings(ctx context.Context, now time.Time) error {
	ended, err := s.rep.Offerings().GetEndedOpenOfferings(ctx, now)
	if err != nil {
		return fmt.Errorf("can't get ended offerings: %w", err)
	}
	for _, offering := range ended {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.rep.Offerings().CloseEndedOffering(ctx, offering.UUID); err != nil {
			slog.Default().ErrorContext(ctx, "can't close ended offering",
				slog.String("err", err.Error()),
				slog.String("offering_uuid", offering.UUID),
			)
		}
	}
	return nil
}
