package entity

import (
	"database/sql"
	"time"
)

// WaitlistStatus is the custom type to enforce enum-like behavior
type WaitlistStatus string

func (ws WaitlistStatus) String() string {
	return string(ws)
}

const (
	WaitlistWaiting  WaitlistStatus = "waiting"
	WaitlistOffered  WaitlistStatus = "offered"
	WaitlistAccepted WaitlistStatus = "accepted"
	WaitlistExpired  WaitlistStatus = "expired"
	WaitlistDeclined WaitlistStatus = "declined"
)

// ValidWaitlistStatuses is a set of valid waitlist statuses
var ValidWaitlistStatuses = map[WaitlistStatus]bool{
	WaitlistWaiting:  true,
	WaitlistOffered:  true,
	WaitlistAccepted: true,
	WaitlistExpired:  true,
	WaitlistDeclined: true,
}

// WaitlistEntry represents the waitlist_entry table. Positions among
// waiting/offered entries of one offering are a dense 1..n sequence in
// join order.
type WaitlistEntry struct {
	Id          int            `db:"id"`
	UUID        string         `db:"uuid"`
	OfferingId  int            `db:"offering_id"`
	MemberId    string         `db:"member_id"`
	MemberEmail string         `db:"member_email"`
	Position    int            `db:"position"`
	Status      WaitlistStatus `db:"status"`
	JoinedAt    time.Time      `db:"joined_at"`
	OfferedAt   sql.NullTime   `db:"offered_at"`
	RespondBy   sql.NullTime   `db:"respond_by"`
	RespondedAt sql.NullTime   `db:"responded_at"`
}

// IsLive reports whether the entry still occupies a queue position.
func (w *WaitlistEntry) IsLive() bool {
	return w.Status == WaitlistWaiting || w.Status == WaitlistOffered
}

// OfferIsExpired reports whether an outstanding offer has passed its
// response deadline.
func (w *WaitlistEntry) OfferIsExpired(now time.Time) bool {
	return w.Status == WaitlistOffered && w.RespondBy.Valid && now.After(w.RespondBy.Time)
}
