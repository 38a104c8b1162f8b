package entity

import (
	"database/sql"
	"time"
)

// RegistrationStatus is the custom type to enforce enum-like behavior
type RegistrationStatus string

func (rs RegistrationStatus) String() string {
	return string(rs)
}

const (
	RegistrationPendingPayment RegistrationStatus = "pending_payment"
	RegistrationConfirmed      RegistrationStatus = "confirmed"
	RegistrationCancelled      RegistrationStatus = "cancelled"
	RegistrationCompleted      RegistrationStatus = "completed"
)

// ValidRegistrationStatuses is a set of valid registration statuses
var ValidRegistrationStatuses = map[RegistrationStatus]bool{
	RegistrationPendingPayment: true,
	RegistrationConfirmed:      true,
	RegistrationCancelled:      true,
	RegistrationCompleted:      true,
}

// PaymentStatus shadows the payment provider state on paid registrations.
type PaymentStatus string

func (ps PaymentStatus) String() string {
	return string(ps)
}

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// Registration represents the registration table. One live row per
// (offering, member); cancelled rows may coexist with a fresh attempt.
type Registration struct {
	Id                 int                `db:"id"`
	UUID               string             `db:"uuid"`
	OfferingId         int                `db:"offering_id"`
	MemberId           string             `db:"member_id"`
	MemberEmail        string             `db:"member_email"`
	Status             RegistrationStatus `db:"status"`
	PaymentStatus      sql.NullString     `db:"payment_status"`
	CheckoutRef        sql.NullString     `db:"checkout_ref"`
	RegisteredAt       time.Time          `db:"registered_at"`
	ConfirmedAt        sql.NullTime       `db:"confirmed_at"`
	CancelledAt        sql.NullTime       `db:"cancelled_at"`
	CancellationReason sql.NullString     `db:"cancellation_reason"`
	ReminderSentAt     sql.NullTime       `db:"reminder_sent_at"`
	ModifiedAt         time.Time          `db:"modified_at"`
}

// IsLive reports whether the registration still holds or may claim a seat.
func (r *Registration) IsLive() bool {
	return r.Status == RegistrationPendingPayment || r.Status == RegistrationConfirmed
}

// Member is the resolved caller identity supplied by the identity
// collaborator. The core trusts it and performs only ownership/role checks.
type Member struct {
	Id    string
	Email string
	Role  string
}

const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

// RegisterOutcomeKind distinguishes the three register results.
type RegisterOutcomeKind string

const (
	OutcomeConfirmed        RegisterOutcomeKind = "confirmed"
	OutcomeWaitlisted       RegisterOutcomeKind = "waitlisted"
	OutcomeCheckoutRequired RegisterOutcomeKind = "checkout_required"
)

// RegisterOutcome is what a register (or offer-accept) attempt produced.
type RegisterOutcome struct {
	Kind             RegisterOutcomeKind
	Registration     *Registration
	WaitlistEntry    *WaitlistEntry
	WaitlistPosition int
	CheckoutRef      string
}
