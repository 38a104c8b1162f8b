package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/klubben/events-manager/internal/dependency"
	"github.com/klubben/events-manager/internal/entity"
	gerr "github.com/klubben/events-manager/internal/errors"
)

// OfferResponseWindow is how long a promoted member has to accept or
// decline before the offer expires and the seat moves on.
const OfferResponseWindow = 48 * time.Hour

type waitlistStore struct {
	*MYSQLStore
}

// Waitlist returns an object implementing the waitlist interface
func (ms *MYSQLStore) Waitlist() dependency.Waitlist {
	return &waitlistStore{
		MYSQLStore: ms,
	}
}

// PromoteNext offers a freed seat to the lowest-position waiting entry.
// Exactly one offer is outstanding at a time: a later expiry or decline
// triggers the next promotion, never this call.
func (ms *MYSQLStore) PromoteNext(ctx context.Context, offeringUUID string, now time.Time) (*entity.WaitlistEntry, error) {
	var promoted *entity.WaitlistEntry

	err := ms.Tx(ctx, func(ctx context.Context, rep dependency.Repository) error {
		offering, err := getOfferingByUUIDForUpdate(ctx, rep, offeringUUID)
		if err != nil {
			return err
		}
		promoted, err = promoteNextLocked(ctx, rep, offering.Id, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return promoted, nil
}

// AcceptOffer turns an active offer into a registration through the
// capacity-available path of register: the entry already reserved logical
// priority, so the waitlist-check path does not apply.
func (ms *MYSQLStore) AcceptOffer(ctx context.Context, entryUUID string, member entity.Member, now time.Time) (*entity.RegisterOutcome, *entity.WaitlistEntry, error) {
	var outcome *entity.RegisterOutcome
	var promoted *entity.WaitlistEntry
	lazyExpired := false

	err := ms.Tx(ctx, func(ctx context.Context, rep dependency.Repository) error {
		entry, err := lockEntryOffering(ctx, rep, entryUUID)
		if err != nil {
			return err
		}
		if entry.MemberId != member.Id {
			return gerr.ErrNotAuthorized
		}
		if entry.Status != entity.WaitlistOffered {
			return gerr.ErrOfferNotActive
		}

		// Lazy expiry on access: the sweep may not have run yet, but an
		// expired offer must not win the seat. The expiry transition
		// commits; the caller still gets ErrOfferExpired.
		if entry.OfferIsExpired(now) {
			if err := expireEntryLocked(ctx, rep, entry, now); err != nil {
				return err
			}
			promoted, err = promoteNextLocked(ctx, rep, entry.OfferingId, now)
			if err != nil {
				return err
			}
			lazyExpired = true
			return nil
		}

		// Defensive capacity re-check under the lock. Should not occur with
		// a single outstanding offer, but must be handled.
		offering, err := getOfferingByIdForUpdate(ctx, rep, entry.OfferingId)
		if err != nil {
			return err
		}
		if offering.IsFull() {
			return gerr.ErrNoCapacity
		}

		err = ExecNamed(ctx, rep.DB(),
			`UPDATE waitlist_entry SET status = 'accepted', responded_at = :now WHERE id = :id`,
			map[string]any{"now": now, "id": entry.Id})
		if err != nil {
			return fmt.Errorf("can't accept waitlist entry: %w", err)
		}
		if err := renumberLivePositions(ctx, rep, entry.OfferingId); err != nil {
			return err
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
		return nil, nil, err
	}
	if lazyExpired {
		return nil, promoted, gerr.ErrOfferExpired
	}

	return outcome, promoted, nil
}

// DeclineOffer declines an active offer and promotes the next waiting entry
// in the same transaction.
func (ms *MYSQLStore) DeclineOffer(ctx context.Context, entryUUID string, memberId string, now time.Time) (*entity.WaitlistEntry, *entity.WaitlistEntry, error) {
	var declined *entity.WaitlistEntry
	var promoted *entity.WaitlistEntry

	err := ms.Tx(ctx, func(ctx context.Context, rep dependency.Repository) error {
		entry, err := lockEntryOffering(ctx, rep, entryUUID)
		if err != nil {
			return err
		}
		if entry.MemberId != memberId {
			return gerr.ErrNotAuthorized
		}
		if entry.Status != entity.WaitlistOffered {
			return gerr.ErrOfferNotActive
		}

		err = ExecNamed(ctx, rep.DB(),
			`UPDATE waitlist_entry SET status = 'declined', responded_at = :now WHERE id = :id`,
			map[string]any{"now": now, "id": entry.Id})
		if err != nil {
			return fmt.Errorf("can't decline waitlist entry: %w", err)
		}
		if err := renumberLivePositions(ctx, rep, entry.OfferingId); err != nil {
			return err
		}

		promoted, err = promoteNextLocked(ctx, rep, entry.OfferingId, now)
		if err != nil {
			return err
		}

		declined, err = getWaitlistEntryByUUID(ctx, rep, entryUUID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	return declined, promoted, nil
}

// ExpireOffer expires one stale offer in its own transaction so a failure
// on one entry does not abort the whole sweep. Idempotent: an entry that
// already left the offered state is a no-op.
func (ms *MYSQLStore) ExpireOffer(ctx context.Context, entryUUID string, now time.Time) (*entity.WaitlistEntry, error) {
	var promoted *entity.WaitlistEntry

	err := ms.Tx(ctx, func(ctx context.Context, rep dependency.Repository) error {
		entry, err := lockEntryOffering(ctx, rep, entryUUID)
		if err != nil {
			return err
		}
		if !entry.OfferIsExpired(now) {
			return nil
		}
		if err := expireEntryLocked(ctx, rep, entry, now); err != nil {
			return err
		}
		promoted, err = promoteNextLocked(ctx, rep, entry.OfferingId, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return promoted, nil
}

func (ms *MYSQLStore) GetStaleOffers(ctx context.Context, now time.Time) ([]entity.WaitlistEntry, error) {
	query := `
	SELECT * FROM waitlist_entry
	WHERE status = 'offered' AND respond_by < :now`
	entries, err := QueryListNamed[entity.WaitlistEntry](ctx, ms.DB(), query, map[string]any{"now": now})
	if err != nil {
		return nil, fmt.Errorf("can't get stale offers: %w", err)
	}
	return entries, nil
}

func (ms *MYSQLStore) GetMemberEntry(ctx context.Context, offeringUUID string, memberId string) (*entity.WaitlistEntry, error) {
	offering, err := ms.GetOfferingByUUID(ctx, offeringUUID)
	if err != nil {
		return nil, err
	}
	return getLiveWaitlistEntry(ctx, ms, offering.Id, memberId)
}

func (ms *MYSQLStore) GetEntryByUUID(ctx context.Context, uid string) (*entity.WaitlistEntry, error) {
	return getWaitlistEntryByUUID(ctx, ms, uid)
}

func (ms *MYSQLStore) GetLiveEntries(ctx context.Context, offeringUUID string) ([]entity.WaitlistEntry, error) {
	offering, err := ms.GetOfferingByUUID(ctx, offeringUUID)
	if err != nil {
		return nil, err
	}
	query := `
	SELECT * FROM waitlist_entry
	WHERE offering_id = :offeringId AND status IN ('waiting', 'offered')
	ORDER BY position ASC`
	entries, err := QueryListNamed[entity.WaitlistEntry](ctx, ms.DB(), query, map[string]any{"offeringId": offering.Id})
	if err != nil {
		return nil, fmt.Errorf("can't get live waitlist entries: %w", err)
	}
	return entries, nil
}

// lockEntryOffering resolves an entry, locks its offering row and re-reads
// the entry under the lock. Lock order is always offering first, so this
// reads the entry once without a lock to learn the offering id.
func lockEntryOffering(ctx context.Context, rep dependency.Repository, entryUUID string) (*entity.WaitlistEntry, error) {
	entry, err := getWaitlistEntryByUUID(ctx, rep, entryUUID)
	if err != nil {
		return nil, err
	}
	if _, err := getOfferingByIdForUpdate(ctx, rep, entry.OfferingId); err != nil {
		return nil, err
	}
	return getWaitlistEntryByUUID(ctx, rep, entryUUID)
}

// promoteNextLocked runs the waiting→offered transition. The caller must
// hold the offering row lock. Returns nil when no seat is free or no entry
// is waiting.
func promoteNextLocked(ctx context.Context, rep dependency.Repository, offeringId int, now time.Time) (*entity.WaitlistEntry, error) {
	offering, err := getOfferingByIdForUpdate(ctx, rep, offeringId)
	if err != nil {
		return nil, err
	}
	if offering.IsFull() {
		return nil, nil
	}

	query := `
	SELECT * FROM waitlist_entry
	WHERE offering_id = :offeringId AND status = 'waiting'
	ORDER BY position ASC
	LIMIT 1`
	next, err := QueryNamedOne[entity.WaitlistEntry](ctx, rep.DB(), query, map[string]any{"offeringId": offeringId})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("can't get next waiting entry: %w", err)
	}

	err = ExecNamed(ctx, rep.DB(),
		`UPDATE waitlist_entry
		 SET status = 'offered', offered_at = :now, respond_by = :respondBy
		 WHERE id = :id`,
		map[string]any{"now": now, "respondBy": now.Add(OfferResponseWindow), "id": next.Id})
	if err != nil {
		return nil, fmt.Errorf("can't offer waitlist entry: %w", err)
	}

	return getWaitlistEntryByUUID(ctx, rep, next.UUID)
}

func expireEntryLocked(ctx context.Context, rep dependency.Repository, entry *entity.WaitlistEntry, now time.Time) error {
	err := ExecNamed(ctx, rep.DB(),
		`UPDATE waitlist_entry SET status = 'expired' WHERE id = :id`,
		map[string]any{"id": entry.Id})
	if err != nil {
		return fmt.Errorf("can't expire waitlist entry: %w", err)
	}
	return renumberLivePositions(ctx, rep, entry.OfferingId)
}

// renumberLivePositions closes gaps after a removal so live positions stay
// a dense 1..n sequence in original join order. Must run in the same
// transaction as the removal.
func renumberLivePositions(ctx context.Context, rep dependency.Repository, offeringId int) error {
	query := `
	SELECT * FROM waitlist_entry
	WHERE offering_id = :offeringId AND status IN ('waiting', 'offered')
	ORDER BY position ASC`
	live, err := QueryListNamed[entity.WaitlistEntry](ctx, rep.DB(), query, map[string]any{"offeringId": offeringId})
	if err != nil {
		return fmt.Errorf("can't list live entries for renumbering: %w", err)
	}
	for i, entry := range live {
		want := i + 1
		if entry.Position == want {
			continue
		}
		err := ExecNamed(ctx, rep.DB(),
			`UPDATE waitlist_entry SET position = :position WHERE id = :id`,
			map[string]any{"position": want, "id": entry.Id})
		if err != nil {
			return fmt.Errorf("can't renumber waitlist entry: %w", err)
		}
	}
	return nil
}

func insertWaitlistEntry(ctx context.Context, rep dependency.Repository, offeringId int, member entity.Member, now time.Time) (*entity.WaitlistEntry, error) {
	position, err := nextWaitlistPosition(ctx, rep, offeringId)
	if err != nil {
		return nil, err
	}

	uid := uuid.New().String()
	query := `
	INSERT INTO waitlist_entry
		(uuid, offering_id, member_id, member_email, position, status, joined_at)
	VALUES
		(:uuid, :offeringId, :memberId, :memberEmail, :position, 'waiting', :now)`
	params := map[string]any{
		"uuid":        uid,
		"offeringId":  offeringId,
		"memberId":    member.Id,
		"memberEmail": member.Email,
		"position":    position,
		"now":         now,
	}
	if _, err := ExecNamedLastId(ctx, rep.DB(), query, params); err != nil {
		return nil, fmt.Errorf("can't insert waitlist entry: %w", err)
	}
	return getWaitlistEntryByUUID(ctx, rep, uid)
}

func nextWaitlistPosition(ctx context.Context, rep dependency.Repository, offeringId int) (int, error) {
	query := `
	SELECT COALESCE(MAX(position), 0) + 1 FROM waitlist_entry
	WHERE offering_id = :offeringId AND status IN ('waiting', 'offered')`
	position, err := QueryCountNamed(ctx, rep.DB(), query, map[string]any{"offeringId": offeringId})
	if err != nil {
		return 0, fmt.Errorf("can't get next waitlist position: %w", err)
	}
	return int(position), nil
}

func getWaitlistEntryByUUID(ctx context.Context, rep dependency.Repository, uid string) (*entity.WaitlistEntry, error) {
	query := `SELECT * FROM waitlist_entry WHERE uuid = :uuid`
	entry, err := QueryNamedOne[entity.WaitlistEntry](ctx, rep.DB(), query, map[string]any{"uuid": uid})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, gerr.ErrEntryNotFound
		}
		return nil, fmt.Errorf("can't get waitlist entry by uuid: %w", err)
	}
	return &entry, nil
}

// getLiveWaitlistEntry returns the waiting/offered entry of a member for an
// offering, or nil.
func getLiveWaitlistEntry(ctx context.Context, rep dependency.Repository, offeringId int, memberId string) (*entity.WaitlistEntry, error) {
	query := `
	SELECT * FROM waitlist_entry
	WHERE offering_id = :offeringId AND member_id = :memberId
		AND status IN ('waiting', 'offered')
	LIMIT 1`
	entry, err := QueryNamedOne[entity.WaitlistEntry](ctx, rep.DB(), query, map[string]any{
		"offeringId": offeringId,
		"memberId":   memberId,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("can't get live waitlist entry: %w", err)
	}
	return &entry, nil
}
