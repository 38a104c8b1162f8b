// Package enrollment composes the store, the payment collaborator and the
// mailer into the registration use cases. Store operations run in their own
// serializable transactions; checkout creation and notifications happen
// outside them.
package enrollment

import (
	"context"
	"errors"
	"fmt"

	"log/slog"

	"github.com/klubben/events-manager/internal/dependency"
	"github.com/klubben/events-manager/internal/entity"
	gerr "github.com/klubben/events-manager/internal/errors"
)

type Service struct {
	rep      dependency.Repository
	invoicer dependency.Invoicer
	mailer   dependency.Mailer
}

func New(rep dependency.Repository, invoicer dependency.Invoicer, mailer dependency.Mailer) *Service {
	return &Service{
		rep:      rep,
		invoicer: invoicer,
		mailer:   mailer,
	}
}

// Register registers a member for an offering. For a paid offering with a
// free seat the registration is created pending and a checkout is opened with
// the payment collaborator after the transaction committed; a checkout
// failure leaves the row pending so the member can retry.
func (s *Service) Register(ctx context.Context, offeringUUID string, member entity.Member) (*entity.RegisterOutcome, error) {
	outcome, err := s.rep.Registrations().Register(ctx, offeringUUID, member, s.rep.Now())
	if err != nil {
		return nil, err
	}

	switch outcome.Kind {
	case entity.OutcomeConfirmed:
		s.notifyConfirmed(ctx, outcome.Registration)
	case entity.OutcomeWaitlisted:
		s.notifyWaitlisted(ctx, outcome.WaitlistEntry)
	case entity.OutcomeCheckoutRequired:
		offering, err := s.rep.Offerings().GetOfferingByUUID(ctx, offeringUUID)
		if err != nil {
			return nil, err
		}
		ref, err := s.invoicer.CreateCheckout(ctx, outcome.Registration, offering)
		if err != nil {
			slog.Default().ErrorContext(ctx, "can't create checkout",
				slog.String("err", err.Error()),
				slog.String("registration_uuid", outcome.Registration.UUID),
			)
			return nil, fmt.Errorf("%w: %v", gerr.ErrCheckoutCreationFailed, err)
		}
		if err := s.rep.Registrations().AttachCheckout(ctx, outcome.Registration.UUID, ref); err != nil {
			return nil, err
		}
		outcome.CheckoutRef = ref
	}

	return outcome, nil
}

// ConfirmPayment is the payment-success entry point, called from the webhook
// handler. Duplicate deliveries are absorbed by the store and send nothing.
func (s *Service) ConfirmPayment(ctx context.Context, registrationUUID string, paymentRef string) (*entity.Registration, error) {
	reg, wasUpdated, err := s.rep.Registrations().ConfirmPayment(ctx, registrationUUID, paymentRef, s.rep.Now())
	if err != nil {
		return nil, err
	}
	if wasUpdated {
		s.notifyConfirmed(ctx, reg)
	}
	return reg, nil
}

func (s *Service) FailPayment(ctx context.Context, registrationUUID string) error {
	return s.rep.Registrations().FailPayment(ctx, registrationUUID, s.rep.Now())
}

// CancelRegistration cancels the member's live registration and, when a seat
// was freed, notifies the waitlist entry promoted in the same transaction.
func (s *Service) CancelRegistration(ctx context.Context, offeringUUID string, memberId string, reason string) (*entity.Registration, error) {
	cancelled, promoted, err := s.rep.Registrations().CancelRegistration(ctx, offeringUUID, memberId, reason, s.rep.Now())
	if err != nil {
		return nil, err
	}

	s.notifyCancelled(ctx, cancelled, reason)
	if promoted != nil {
		s.notifySpotAvailable(ctx, promoted)
	}

	return cancelled, nil
}

// AcceptOffer converts an active offer into a registration. An offer found
// expired on access promotes the next entry before failing.
func (s *Service) AcceptOffer(ctx context.Context, entryUUID string, member entity.Member) (*entity.RegisterOutcome, error) {
	outcome, promoted, err := s.rep.Waitlist().AcceptOffer(ctx, entryUUID, member, s.rep.Now())
	if promoted != nil {
		s.notifySpotAvailable(ctx, promoted)
	}
	if err != nil {
		return nil, err
	}

	switch outcome.Kind {
	case entity.OutcomeConfirmed:
		s.notifyConfirmed(ctx, outcome.Registration)
	case entity.OutcomeCheckoutRequired:
		offering, err := s.rep.Offerings().GetOfferingById(ctx, outcome.Registration.OfferingId)
		if err != nil {
			return nil, err
		}
		ref, err := s.invoicer.CreateCheckout(ctx, outcome.Registration, offering)
		if err != nil {
			slog.Default().ErrorContext(ctx, "can't create checkout",
				slog.String("err", err.Error()),
				slog.String("registration_uuid", outcome.Registration.UUID),
			)
			return nil, fmt.Errorf("%w: %v", gerr.ErrCheckoutCreationFailed, err)
		}
		if err := s.rep.Registrations().AttachCheckout(ctx, outcome.Registration.UUID, ref); err != nil {
			return nil, err
		}
		outcome.CheckoutRef = ref
	}

	return outcome, nil
}

func (s *Service) DeclineOffer(ctx context.Context, entryUUID string, memberId string) (*entity.WaitlistEntry, error) {
	declined, promoted, err := s.rep.Waitlist().DeclineOffer(ctx, entryUUID, memberId, s.rep.Now())
	if err != nil {
		return nil, err
	}
	if promoted != nil {
		s.notifySpotAvailable(ctx, promoted)
	}
	return declined, nil
}

// PromoteNext is the admin recovery hook for a stuck queue, for instance
// after a manual capacity bump.
func (s *Service) PromoteNext(ctx context.Context, offeringUUID string) (*entity.WaitlistEntry, error) {
	promoted, err := s.rep.Waitlist().PromoteNext(ctx, offeringUUID, s.rep.Now())
	if err != nil {
		return nil, err
	}
	if promoted != nil {
		s.notifySpotAvailable(ctx, promoted)
	}
	return promoted, nil
}

// MemberStatus is the member's view of one offering: their registration, or
// their waitlist entry, either possibly nil.
type MemberStatus struct {
	Registration  *entity.Registration
	WaitlistEntry *entity.WaitlistEntry
}

func (s *Service) MyRegistration(ctx context.Context, offeringUUID string, memberId string) (*MemberStatus, error) {
	reg, err := s.rep.Registrations().GetMemberRegistration(ctx, offeringUUID, memberId)
	if err != nil {
		return nil, err
	}
	entry, err := s.rep.Waitlist().GetMemberEntry(ctx, offeringUUID, memberId)
	if err != nil && !errors.Is(err, gerr.ErrEntryNotFound) {
		return nil, err
	}
	return &MemberStatus{Registration: reg, WaitlistEntry: entry}, nil
}

// Attendees is the admin roster: confirmed registrations plus the live
// waitlist in position order.
func (s *Service) Attendees(ctx context.Context, offeringUUID string) ([]entity.Registration, []entity.WaitlistEntry, error) {
	regs, err := s.rep.Registrations().GetConfirmedRegistrations(ctx, offeringUUID)
	if err != nil {
		return nil, nil, err
	}
	entries, err := s.rep.Waitlist().GetLiveEntries(ctx, offeringUUID)
	if err != nil {
		return nil, nil, err
	}
	return regs, entries, nil
}

func (s *Service) WaitlistPosition(ctx context.Context, offeringUUID string, memberId string) (int, error) {
	entry, err := s.rep.Waitlist().GetMemberEntry(ctx, offeringUUID, memberId)
	if err != nil {
		return 0, err
	}
	if entry == nil {
		return 0, gerr.ErrEntryNotFound
	}
	return entry.Position, nil
}
