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

type offeringStore struct {
	*MYSQLStore
}

// Offerings returns an object implementing the offerings interface
func (ms *MYSQLStore) Offerings() dependency.Offerings {
	return &offeringStore{
		MYSQLStore: ms,
	}
}

func (ms *MYSQLStore) AddOffering(ctx context.Context, oi *entity.OfferingInsert) (*entity.Offering, error) {
	uid := uuid.New().String()
	query := `
	INSERT INTO offering
		(uuid, title, capacity, price, currency, registration_deadline, starts_at, ends_at, status)
	VALUES
		(:uuid, :title, :capacity, :price, :currency, :deadline, :startsAt, :endsAt, 'draft')`
	params := map[string]any{
		"uuid":     uid,
		"title":    oi.Title,
		"capacity": oi.Capacity,
		"price":    oi.Price,
		"currency": oi.Currency,
		"deadline": oi.Deadline,
		"startsAt": oi.StartsAt,
		"endsAt":   oi.EndsAt,
	}
	if _, err := ExecNamedLastId(ctx, ms.DB(), query, params); err != nil {
		return nil, fmt.Errorf("can't insert offering: %w", err)
	}
	return ms.GetOfferingByUUID(ctx, uid)
}

func (ms *MYSQLStore) GetOfferingByUUID(ctx context.Context, uid string) (*entity.Offering, error) {
	query := `SELECT * FROM offering WHERE uuid = :uuid`
	offering, err := QueryNamedOne[entity.Offering](ctx, ms.DB(), query, map[string]any{"uuid": uid})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, gerr.ErrOfferingNotFound
		}
		return nil, fmt.Errorf("can't get offering by uuid: %w", err)
	}
	return &offering, nil
}

func (ms *MYSQLStore) GetOfferingById(ctx context.Context, id int) (*entity.Offering, error) {
	query := `SELECT * FROM offering WHERE id = :id`
	offering, err := QueryNamedOne[entity.Offering](ctx, ms.DB(), query, map[string]any{"id": id})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, gerr.ErrOfferingNotFound
		}
		return nil, fmt.Errorf("can't get offering by id: %w", err)
	}
	return &offering, nil
}

func (ms *MYSQLStore) SetOfferingStatus(ctx context.Context, uid string, status entity.OfferingStatus) error {
	if !entity.ValidOfferingStatuses[status] {
		return fmt.Errorf("invalid offering status: %s", status)
	}
	rows, err := ExecNamedRows(ctx, ms.DB(),
		`UPDATE offering SET status = :status WHERE uuid = :uuid`,
		map[string]any{"status": status.String(), "uuid": uid})
	if err != nil {
		return fmt.Errorf("can't update offering status: %w", err)
	}
	if rows == 0 {
		return gerr.ErrOfferingNotFound
	}
	return nil
}

func (ms *MYSQLStore) GetEndedOpenOfferings(ctx context.Context, now time.Time) ([]entity.Offering, error) {
	query := `SELECT * FROM offering WHERE status = 'open' AND ends_at < :now`
	offerings, err := QueryListNamed[entity.Offering](ctx, ms.DB(), query, map[string]any{"now": now})
	if err != nil {
		return nil, fmt.Errorf("can't get ended open offerings: %w", err)
	}
	return offerings, nil
}

func (ms *MYSQLStore) GetOfferingsStartingBetween(ctx context.Context, from, to time.Time) ([]entity.Offering, error) {
	query := `SELECT * FROM offering WHERE status = 'open' AND starts_at >= :from AND starts_at < :to`
	offerings, err := QueryListNamed[entity.Offering](ctx, ms.DB(), query, map[string]any{
		"from": from,
		"to":   to,
	})
	if err != nil {
		return nil, fmt.Errorf("can't get offerings starting between: %w", err)
	}
	return offerings, nil
}

// CloseEndedOffering marks one past-end offering closed and completes its
// confirmed registrations. Own transaction so one failure doesn't abort the
// whole sweep.
func (ms *MYSQLStore) CloseEndedOffering(ctx context.Context, offeringUUID string) error {
	return ms.Tx(ctx, func(ctx context.Context, rep dependency.Repository) error {
		offering, err := getOfferingByUUIDForUpdate(ctx, rep, offeringUUID)
		if err != nil {
			return err
		}
		if offering.Status != entity.OfferingOpen {
			return nil
		}
		err = ExecNamed(ctx, rep.DB(),
			`UPDATE offering SET status = 'closed' WHERE id = :id`,
			map[string]any{"id": offering.Id})
		if err != nil {
			return fmt.Errorf("can't close offering: %w", err)
		}
		err = ExecNamed(ctx, rep.DB(),
			`UPDATE registration SET status = 'completed' WHERE offering_id = :offeringId AND status = 'confirmed'`,
			map[string]any{"offeringId": offering.Id})
		if err != nil {
			return fmt.Errorf("can't complete registrations: %w", err)
		}
		return nil
	})
}

// getOfferingByUUIDForUpdate locks the offering row for the rest of the
// transaction. Every mutating operation starts here: the row lock is the
// only mutual-exclusion primitive in the system.
func getOfferingByUUIDForUpdate(ctx context.Context, rep dependency.Repository, uid string) (*entity.Offering, error) {
	query := `SELECT * FROM offering WHERE uuid = :uuid FOR UPDATE`
	offering, err := QueryNamedOne[entity.Offering](ctx, rep.DB(), query, map[string]any{"uuid": uid})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, gerr.ErrOfferingNotFound
		}
		return nil, fmt.Errorf("can't get offering for update: %w", err)
	}
	return &offering, nil
}

func getOfferingByIdForUpdate(ctx context.Context, rep dependency.Repository, id int) (*entity.Offering, error) {
	query := `SELECT * FROM offering WHERE id = :id FOR UPDATE`
	offering, err := QueryNamedOne[entity.Offering](ctx, rep.DB(), query, map[string]any{"id": id})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, gerr.ErrOfferingNotFound
		}
		return nil, fmt.Errorf("can't get offering for update: %w", err)
	}
	return &offering, nil
}

// takeSeat increments the confirmed-seat counter under the capacity guard.
// The counter is authoritative: it is never recomputed from rows.
func takeSeat(ctx context.Context, rep dependency.Repository, offeringId int) error {
	rows, err := ExecNamedRows(ctx, rep.DB(),
		`UPDATE offering SET confirmed_seats = confirmed_seats + 1
		 WHERE id = :id AND confirmed_seats < capacity`,
		map[string]any{"id": offeringId})
	if err != nil {
		return fmt.Errorf("can't increment confirmed seats: %w", err)
	}
	if rows == 0 {
		return gerr.ErrNoCapacity
	}
	return nil
}

// releaseSeat decrements the confirmed-seat counter, guarded against going
// negative.
func releaseSeat(ctx context.Context, rep dependency.Repository, offeringId int) error {
	rows, err := ExecNamedRows(ctx, rep.DB(),
		`UPDATE offering SET confirmed_seats = confirmed_seats - 1
		 WHERE id = :id AND confirmed_seats > 0`,
		map[string]any{"id": offeringId})
	if err != nil {
		return fmt.Errorf("can't decrement confirmed seats: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("confirmed seats already zero for offering %d", offeringId)
	}
	return nil
}
