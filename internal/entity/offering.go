package entity

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// OfferingStatus is the custom type to enforce enum-like behavior
type OfferingStatus string

func (os OfferingStatus) String() string {
	return string(os)
}

const (
	OfferingDraft     OfferingStatus = "draft"
	OfferingOpen      OfferingStatus = "open"
	OfferingCancelled OfferingStatus = "cancelled"
	OfferingClosed    OfferingStatus = "closed"
)

// ValidOfferingStatuses is a set of valid offering statuses
var ValidOfferingStatuses = map[OfferingStatus]bool{
	OfferingDraft:     true,
	OfferingOpen:      true,
	OfferingCancelled: true,
	OfferingClosed:    true,
}

// Offering represents the offering table
type Offering struct {
	Id             int             `db:"id"`
	UUID           string          `db:"uuid"`
	Title          string          `db:"title"`
	Capacity       int             `db:"capacity"`
	ConfirmedSeats int             `db:"confirmed_seats"`
	Price          decimal.Decimal `db:"price"`
	Currency       string          `db:"currency"`
	Deadline       sql.NullTime    `db:"registration_deadline"`
	StartsAt       time.Time       `db:"starts_at"`
	EndsAt         time.Time       `db:"ends_at"`
	Status         OfferingStatus  `db:"status"`
	CreatedAt      time.Time       `db:"created_at"`
	ModifiedAt     time.Time       `db:"modified_at"`
}

// IsFree reports whether the offering requires no payment.
func (o *Offering) IsFree() bool {
	return !o.Price.IsPositive()
}

// IsFull reports whether all seats are taken. Compares the denormalized
// counter, never a row count.
func (o *Offering) IsFull() bool {
	return o.ConfirmedSeats >= o.Capacity
}

// AcceptsRegistrations reports whether the offering can take a new
// registration at the given time.
func (o *Offering) AcceptsRegistrations(now time.Time) bool {
	if o.Status != OfferingOpen {
		return false
	}
	if o.Deadline.Valid && now.After(o.Deadline.Time) {
		return false
	}
	return true
}

func (o *Offering) PriceDecimal() decimal.Decimal {
	return o.Price.Round(2)
}

// OfferingInsert is the payload to create an offering.
type OfferingInsert struct {
	Title    string          `db:"title" valid:"required"`
	Capacity int             `db:"capacity" valid:"required,range(1|100000)"`
	Price    decimal.Decimal `db:"price"`
	Currency string          `db:"currency" valid:"required"`
	Deadline sql.NullTime    `db:"registration_deadline"`
	StartsAt time.Time       `db:"starts_at" valid:"required"`
	EndsAt   time.Time       `db:"ends_at" valid:"required"`
}
