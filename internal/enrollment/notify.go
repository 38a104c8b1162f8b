package enrollment

import (
	"context"

	"log/slog"

	"github.com/klubben/events-manager/internal/dependency"
	"github.com/klubben/events-manager/internal/entity"
)

// Notifications are fire-and-forget: a send failure is logged and left to
// the outbox worker, it never fails the operation that triggered it.

func (s *Service) notifyConfirmed(ctx context.Context, reg *entity.Registration) {
	offering, err := s.rep.Offerings().GetOfferingById(ctx, reg.OfferingId)
	if err != nil {
		s.logNotifyError(ctx, "registration confirmed", reg.UUID, err)
		return
	}
	err = s.mailer.SendRegistrationConfirmed(ctx, s.rep, reg.MemberEmail, &dependency.RegistrationMailDetails{
		OfferingTitle: offering.Title,
		StartsAt:      offering.StartsAt,
	})
	if err != nil {
		s.logNotifyError(ctx, "registration confirmed", reg.UUID, err)
	}
}

func (s *Service) notifyCancelled(ctx context.Context, reg *entity.Registration, reason string) {
	offering, err := s.rep.Offerings().GetOfferingById(ctx, reg.OfferingId)
	if err != nil {
		s.logNotifyError(ctx, "registration cancelled", reg.UUID, err)
		return
	}
	err = s.mailer.SendRegistrationCancelled(ctx, s.rep, reg.MemberEmail, &dependency.RegistrationMailDetails{
		OfferingTitle: offering.Title,
		StartsAt:      offering.StartsAt,
		Reason:        reason,
	})
	if err != nil {
		s.logNotifyError(ctx, "registration cancelled", reg.UUID, err)
	}
}

func (s *Service) notifyWaitlisted(ctx context.Context, entry *entity.WaitlistEntry) {
	offering, err := s.rep.Offerings().GetOfferingById(ctx, entry.OfferingId)
	if err != nil {
		s.logNotifyError(ctx, "waitlist joined", entry.UUID, err)
		return
	}
	err = s.mailer.SendWaitlistJoined(ctx, s.rep, entry.MemberEmail, &dependency.WaitlistMailDetails{
		OfferingTitle: offering.Title,
		Position:      entry.Position,
	})
	if err != nil {
		s.logNotifyError(ctx, "waitlist joined", entry.UUID, err)
	}
}

func (s *Service) notifySpotAvailable(ctx context.Context, entry *entity.WaitlistEntry) {
	offering, err := s.rep.Offerings().GetOfferingById(ctx, entry.OfferingId)
	if err != nil {
		s.logNotifyError(ctx, "spot available", entry.UUID, err)
		return
	}
	err = s.mailer.SendSpotAvailable(ctx, s.rep, entry.MemberEmail, &dependency.WaitlistMailDetails{
		OfferingTitle: offering.Title,
		Position:      entry.Position,
		RespondBy:     entry.RespondBy.Time,
	})
	if err != nil {
		s.logNotifyError(ctx, "spot available", entry.UUID, err)
	}
}

func (s *Service) logNotifyError(ctx context.Context, kind string, uid string, err error) {
	slog.Default().ErrorContext(ctx, "can't send notification",
		slog.String("kind", kind),
		slog.String("uuid", uid),
		slog.String("err", err.Error()),
	)
}
