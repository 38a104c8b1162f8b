package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"github.com/klubben/events-manager/internal/dependency"
	"github.com/klubben/events-manager/internal/entity"
	gerr "github.com/klubben/events-manager/internal/errors"
)

type registrationStore struct {
	*MYSQLStore
}

// Registrations returns an object implementing the registrations interface
func (ms *MYSQLStore) Registrations() dependency.Registrations {
	return &registrationStore{
		MYSQLStore: ms,
	}
}

// Register is the central operation. It runs inside one serializable
// transaction holding the offering row lock, so two concurrent calls for the
// same offering are strictly serialized: the loser sees the updated seat
// count and is routed to the waitlist or rejected.
func (ms *MYSQLStore) Register(ctx context.Context, offeringUUID string, member entity.Member, now time.Time) (*entity.RegisterOutcome, error) {
	var outcome *entity.RegisterOutcome

	err := ms.Tx(ctx, func(ctx context.Context, rep dependency.Repository) error {
		offering, err := getOfferingByUUIDForUpdate(ctx, rep, offeringUUID)
		if err != nil {
			return err
		}

		if offering.Status != entity.OfferingOpen {
			return gerr.ErrOfferingNotOpen
		}
		if offering.Deadline.Valid && now.After(offering.Deadline.Time) {
			return gerr.ErrDeadlinePassed
		}

		// At most one live registration and one live waitlist entry per
		// (offering, member). Cancelled rows never block a fresh attempt.
		existing, err := getLiveRegistration(ctx, rep, offering.Id, member.Id)
		if err != nil {
			return err
		}
		if existing != nil {
			return gerr.ErrAlreadyRegistered
		}
		entry, err := getLiveWaitlistEntry(ctx, rep, offering.Id, member.Id)
		if err != nil {
			return err
		}
		if entry != nil {
			return gerr.ErrAlreadyWaitlisted
		}

		if offering.IsFull() {
			created, err := insertWaitlistEntry(ctx, rep, offering.Id, member, now)
			if err != nil {
				return err
			}
			outcome = &entity.RegisterOutcome{
				Kind:             entity.OutcomeWaitlisted,
				WaitlistEntry:    created,
				WaitlistPosition: created.Position,
			}
			return nil
		}

		if offering.IsFree() {
			reg, err := insertRegistration(ctx, rep, offering.Id, member, entity.RegistrationConfirmed, now)
			if err != nil {
				return err
			}
			if err := takeSeat(ctx, rep, offering.Id); err != nil {
				return err
			}
			outcome = &entity.RegisterOutcome{
				Kind:         entity.OutcomeConfirmed,
				Registration: reg,
			}
			return nil
		}

		// Paid offering: the seat is not secured until payment succeeds.
		// Unpaid attempts are bounded by the 24h cleanup sweep.
		reg, err := insertRegistration(ctx, rep, offering.Id, member, entity.RegistrationPendingPayment, now)
		if err != nil {
			return err
		}
		outcome = &entity.RegisterOutcome{
			Kind:         entity.OutcomeCheckoutRequired,
			Registration: reg,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return outcome, nil
}

func (ms *MYSQLStore) AttachCheckout(ctx context.Context, registrationUUID string, checkoutRef string) error {
	rows, err := ExecNamedRows(ctx, ms.DB(),
		`UPDATE registration SET checkout_ref = :checkoutRef
		 WHERE uuid = :uuid AND status = 'pending_payment'`,
		map[string]any{"checkoutRef": checkoutRef, "uuid": registrationUUID})
	if err != nil {
		return fmt.Errorf("can't attach checkout ref: %w", err)
	}
	if rows == 0 {
		return gerr.ErrRegistrationNotPending
	}
	return nil
}

// ConfirmPayment handles the payment collaborator's success confirmation.
// Delivery is at-least-once: a second delivery of the same event finds the
// registration already confirmed and returns wasUpdated=false without
// touching the seat count.
func (ms *MYSQLStore) ConfirmPayment(ctx context.Context, registrationUUID string, paymentRef string, now time.Time) (*entity.Registration, bool, error) {
	var reg *entity.Registration
	wasUpdated := false
	noCapacity := false

	err := ms.Tx(ctx, func(ctx context.Context, rep dependency.Repository) error {
		found, err := getRegistrationByUUID(ctx, rep, registrationUUID)
		if err != nil {
			return err
		}

		// Lock the offering row, then re-read the registration under it.
		if _, err := getOfferingByIdForUpdate(ctx, rep, found.OfferingId); err != nil {
			return err
		}
		found, err = getRegistrationByUUID(ctx, rep, registrationUUID)
		if err != nil {
			return err
		}

		switch found.Status {
		case entity.RegistrationPendingPayment:
			// fall through to the transition below
		case entity.RegistrationConfirmed:
			// duplicate webhook delivery, idempotent no-op
			reg = found
			return nil
		default:
			return gerr.ErrRegistrationNotPending
		}

		if err := takeSeat(ctx, rep, found.OfferingId); err != nil {
			if errors.Is(err, gerr.ErrNoCapacity) {
				// Seats filled while the payment was in flight. Cancel
				// rather than oversell; refunding is an operator action.
				// The cancellation must commit, so the error is surfaced
				// after the transaction instead of returned from it.
				slog.Default().ErrorContext(ctx, "no seat left at payment confirmation, cancelling registration",
					slog.String("registration_uuid", registrationUUID),
				)
				if cErr := cancelRegistrationRow(ctx, rep, found, "capacity exhausted before payment confirmation", now); cErr != nil {
					return cErr
				}
				noCapacity = true
				return nil
			}
			return err
		}

		err = ExecNamed(ctx, rep.DB(),
			`UPDATE registration
			 SET status = 'confirmed', payment_status = 'completed',
			     checkout_ref = :paymentRef, confirmed_at = :now
			 WHERE id = :id`,
			map[string]any{"paymentRef": paymentRef, "now": now, "id": found.Id})
		if err != nil {
			return fmt.Errorf("can't confirm registration: %w", err)
		}

		reg, err = getRegistrationByUUID(ctx, rep, registrationUUID)
		if err != nil {
			return err
		}
		wasUpdated = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if noCapacity {
		return nil, false, gerr.ErrNoCapacity
	}

	return reg, wasUpdated, nil
}

// FailPayment records a failed payment attempt. The registration stays
// pending_payment so the member can retry checkout without re-registering.
func (ms *MYSQLStore) FailPayment(ctx context.Context, registrationUUID string, now time.Time) error {
	return ms.Tx(ctx, func(ctx context.Context, rep dependency.Repository) error {
		found, err := getRegistrationByUUID(ctx, rep, registrationUUID)
		if err != nil {
			return err
		}
		if _, err := getOfferingByIdForUpdate(ctx, rep, found.OfferingId); err != nil {
			return err
		}
		found, err = getRegistrationByUUID(ctx, rep, registrationUUID)
		if err != nil {
			return err
		}
		if found.Status != entity.RegistrationPendingPayment {
			return gerr.ErrRegistrationNotPending
		}
		err = ExecNamed(ctx, rep.DB(),
			`UPDATE registration SET payment_status = 'failed' WHERE id = :id`,
			map[string]any{"id": found.Id})
		if err != nil {
			return fmt.Errorf("can't fail registration payment: %w", err)
		}
		return nil
	})
}

// CancelRegistration cancels the member's live registration. When a
// confirmed seat is freed, the next waitlist entry is promoted inside the
// same transaction so no other caller can observe the seat as available.
func (ms *MYSQLStore) CancelRegistration(ctx context.Context, offeringUUID string, memberId string, reason string, now time.Time) (*entity.Registration, *entity.WaitlistEntry, error) {
	var cancelled *entity.Registration
	var promoted *entity.WaitlistEntry

	err := ms.Tx(ctx, func(ctx context.Context, rep dependency.Repository) error {
		offering, err := getOfferingByUUIDForUpdate(ctx, rep, offeringUUID)
		if err != nil {
			return err
		}

		reg, err := getLiveRegistration(ctx, rep, offering.Id, memberId)
		if err != nil {
			return err
		}
		if reg == nil {
			// distinguish "never registered" from "already cancelled or
			// completed"
			newest, err := getNewestRegistration(ctx, rep, offering.Id, memberId)
			if err != nil {
				return err
			}
			if newest != nil {
				return gerr.ErrCancellationNotAllowed
			}
			return gerr.ErrRegistrationNotFound
		}

		wasConfirmed := reg.Status == entity.RegistrationConfirmed

		if err := cancelRegistrationRow(ctx, rep, reg, reason, now); err != nil {
			return err
		}

		if wasConfirmed {
			if err := releaseSeat(ctx, rep, offering.Id); err != nil {
				return err
			}
			promoted, err = promoteNextLocked(ctx, rep, offering.Id, now)
			if err != nil {
				return err
			}
		}

		cancelled, err = getRegistrationByUUID(ctx, rep, reg.UUID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	return cancelled, promoted, nil
}

func cancelRegistrationRow(ctx context.Context, rep dependency.Repository, reg *entity.Registration, reason string, now time.Time) error {
	if !reg.IsLive() {
		return gerr.ErrCancellationNotAllowed
	}
	err := ExecNamed(ctx, rep.DB(),
		`UPDATE registration
		 SET status = 'cancelled', cancelled_at = :now, cancellation_reason = :reason
		 WHERE id = :id`,
		map[string]any{"now": now, "reason": reason, "id": reg.Id})
	if err != nil {
		return fmt.Errorf("can't cancel registration: %w", err)
	}
	return nil
}

func insertRegistration(ctx context.Context, rep dependency.Repository, offeringId int, member entity.Member, status entity.RegistrationStatus, now time.Time) (*entity.Registration, error) {
	uid := uuid.New().String()
	params := map[string]any{
		"uuid":        uid,
		"offeringId":  offeringId,
		"memberId":    member.Id,
		"memberEmail": member.Email,
		"status":      status.String(),
		"now":         now,
	}
	var query string
	switch status {
	case entity.RegistrationConfirmed:
		query = `
		INSERT INTO registration
			(uuid, offering_id, member_id, member_email, status, registered_at, confirmed_at)
		VALUES
			(:uuid, :offeringId, :memberId, :memberEmail, :status, :now, :now)`
	case entity.RegistrationPendingPayment:
		query = `
		INSERT INTO registration
			(uuid, offering_id, member_id, member_email, status, payment_status, registered_at)
		VALUES
			(:uuid, :offeringId, :memberId, :memberEmail, :status, 'pending', :now)`
	default:
		return nil, fmt.Errorf("can't insert registration in status %s", status)
	}

	if _, err := ExecNamedLastId(ctx, rep.DB(), query, params); err != nil {
		return nil, fmt.Errorf("can't insert registration: %w", err)
	}
	return getRegistrationByUUID(ctx, rep, uid)
}

func getRegistrationByUUID(ctx context.Context, rep dependency.Repository, uid string) (*entity.Registration, error) {
	query := `SELECT * FROM registration WHERE uuid = :uuid`
	reg, err := QueryNamedOne[entity.Registration](ctx, rep.DB(), query, map[string]any{"uuid": uid})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, gerr.ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("can't get registration by uuid: %w", err)
	}
	return &reg, nil
}

// getLiveRegistration returns the pending_payment or confirmed row of a
// member for an offering, or nil. The partial-uniqueness rule guarantees at
// most one such row.
func getLiveRegistration(ctx context.Context, rep dependency.Repository, offeringId int, memberId string) (*entity.Registration, error) {
	query := `
	SELECT * FROM registration
	WHERE offering_id = :offeringId AND member_id = :memberId
		AND status IN ('pending_payment', 'confirmed')
	LIMIT 1`
	reg, err := QueryNamedOne[entity.Registration](ctx, rep.DB(), query, map[string]any{
		"offeringId": offeringId,
		"memberId":   memberId,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("can't get live registration: %w", err)
	}
	return &reg, nil
}

// getNewestRegistration returns the member's most recent row for the
// offering regardless of status, or nil.
func getNewestRegistration(ctx context.Context, rep dependency.Repository, offeringId int, memberId string) (*entity.Registration, error) {
	query := `
	SELECT * FROM registration
	WHERE offering_id = :offeringId AND member_id = :memberId
	ORDER BY registered_at DESC, id DESC
	LIMIT 1`
	reg, err := QueryNamedOne[entity.Registration](ctx, rep.DB(), query, map[string]any{
		"offeringId": offeringId,
		"memberId":   memberId,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("can't get newest registration: %w", err)
	}
	return &reg, nil
}

func (ms *MYSQLStore) GetRegistrationByUUID(ctx context.Context, uid string) (*entity.Registration, error) {
	return getRegistrationByUUID(ctx, ms, uid)
}

func (ms *MYSQLStore) GetMemberRegistration(ctx context.Context, offeringUUID string, memberId string) (*entity.Registration, error) {
	offering, err := ms.GetOfferingByUUID(ctx, offeringUUID)
	if err != nil {
		return nil, err
	}
	return getNewestRegistration(ctx, ms, offering.Id, memberId)
}

func (ms *MYSQLStore) GetConfirmedRegistrations(ctx context.Context, offeringUUID string) ([]entity.Registration, error) {
	offering, err := ms.GetOfferingByUUID(ctx, offeringUUID)
	if err != nil {
		return nil, err
	}
	query := `
	SELECT * FROM registration
	WHERE offering_id = :offeringId AND status = 'confirmed'
	ORDER BY confirmed_at ASC`
	regs, err := QueryListNamed[entity.Registration](ctx, ms.DB(), query, map[string]any{"offeringId": offering.Id})
	if err != nil {
		return nil, fmt.Errorf("can't get confirmed registrations: %w", err)
	}
	return regs, nil
}

func (ms *MYSQLStore) GetStalePendingRegistrations(ctx context.Context, cutoff time.Time) ([]entity.Registration, error) {
	query := `
	SELECT * FROM registration
	WHERE status = 'pending_payment' AND registered_at < :cutoff`
	regs, err := QueryListNamed[entity.Registration](ctx, ms.DB(), query, map[string]any{"cutoff": cutoff})
	if err != nil {
		return nil, fmt.Errorf("can't get stale pending registrations: %w", err)
	}
	return regs, nil
}

func (ms *MYSQLStore) GetUnremindedConfirmed(ctx context.Context, offeringUUID string) ([]entity.Registration, error) {
	offering, err := ms.GetOfferingByUUID(ctx, offeringUUID)
	if err != nil {
		return nil, err
	}
	query := `
	SELECT * FROM registration
	WHERE offering_id = :offeringId AND status = 'confirmed' AND reminder_sent_at IS NULL`
	regs, err := QueryListNamed[entity.Registration](ctx, ms.DB(), query, map[string]any{"offeringId": offering.Id})
	if err != nil {
		return nil, fmt.Errorf("can't get unreminded registrations: %w", err)
	}
	return regs, nil
}

func (ms *MYSQLStore) MarkReminderSent(ctx context.Context, registrationUUID string, now time.Time) error {
	err := ExecNamed(ctx, ms.DB(),
		`UPDATE registration SET reminder_sent_at = :now WHERE uuid = :uuid`,
		map[string]any{"now": now, "uuid": registrationUUID})
	if err != nil {
		return fmt.Errorf("can't mark reminder sent: %w", err)
	}
	return nil
}
