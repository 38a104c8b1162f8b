package dependency

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/klubben/events-manager/internal/entity"
)

type (
	ContextStore interface {
		Tx(ctx context.Context, fn func(ctx context.Context, store Repository) error) error
	}

	Offerings interface {
		// AddOffering creates a new offering in draft status.
		AddOffering(ctx context.Context, oi *entity.OfferingInsert) (*entity.Offering, error)
		// GetOfferingByUUID returns an offering by its public id.
		GetOfferingByUUID(ctx context.Context, uuid string) (*entity.Offering, error)
		// GetOfferingById returns an offering by its internal id.
		GetOfferingById(ctx context.Context, id int) (*entity.Offering, error)
		// SetOfferingStatus moves an offering between lifecycle statuses.
		SetOfferingStatus(ctx context.Context, uuid string, status entity.OfferingStatus) error
		// GetEndedOpenOfferings returns open offerings whose end time has passed.
		GetEndedOpenOfferings(ctx context.Context, now time.Time) ([]entity.Offering, error)
		// GetOfferingsStartingBetween returns open offerings with starts_at in [from, to).
		GetOfferingsStartingBetween(ctx context.Context, from, to time.Time) ([]entity.Offering, error)
		// CloseEndedOffering marks one past-end offering closed and completes
		// its confirmed registrations.
		CloseEndedOffering(ctx context.Context, offeringUUID string) error
	}

	Registrations interface {
		// Register runs the whole register contract under the offering row
		// lock: open/deadline checks, duplicate guards, capacity branch.
		Register(ctx context.Context, offeringUUID string, member entity.Member, now time.Time) (*entity.RegisterOutcome, error)
		// AttachCheckout persists the payment session reference created by
		// the payment collaborator outside the transaction.
		AttachCheckout(ctx context.Context, registrationUUID string, checkoutRef string) error
		// ConfirmPayment is the idempotent payment-success handler. The
		// second delivery of the same event returns wasUpdated=false and
		// changes nothing.
		ConfirmPayment(ctx context.Context, registrationUUID string, paymentRef string, now time.Time) (*entity.Registration, bool, error)
		// FailPayment records a failed payment attempt, leaving the
		// registration pending so checkout can be retried.
		FailPayment(ctx context.Context, registrationUUID string, now time.Time) error
		// CancelRegistration cancels a live registration. When a confirmed
		// seat is freed the next waitlist entry is promoted in the same
		// transaction and returned so the caller can notify after commit.
		CancelRegistration(ctx context.Context, offeringUUID string, memberId string, reason string, now time.Time) (*entity.Registration, *entity.WaitlistEntry, error)
		// GetRegistrationByUUID returns a registration by its public id.
		GetRegistrationByUUID(ctx context.Context, uuid string) (*entity.Registration, error)
		// GetMemberRegistration returns the newest registration of a member
		// for an offering, or nil.
		GetMemberRegistration(ctx context.Context, offeringUUID string, memberId string) (*entity.Registration, error)
		// GetConfirmedRegistrations returns the attendee list.
		GetConfirmedRegistrations(ctx context.Context, offeringUUID string) ([]entity.Registration, error)
		// GetStalePendingRegistrations returns pending_payment rows
		// registered before the cutoff.
		GetStalePendingRegistrations(ctx context.Context, cutoff time.Time) ([]entity.Registration, error)
		// GetUnremindedConfirmed returns confirmed registrations of an
		// offering that have not received an upcoming-event reminder.
		GetUnremindedConfirmed(ctx context.Context, offeringUUID string) ([]entity.Registration, error)
		// MarkReminderSent sets the reminder dedup flag.
		MarkReminderSent(ctx context.Context, registrationUUID string, now time.Time) error
	}

	Waitlist interface {
		// PromoteNext offers the freed seat to the lowest-position waiting
		// entry, if a seat is free. Returns nil when it was a no-op.
		PromoteNext(ctx context.Context, offeringUUID string, now time.Time) (*entity.WaitlistEntry, error)
		// AcceptOffer turns an active offer into a registration via the
		// capacity-available path. A lazily detected expired offer promotes
		// the next entry and fails with ErrOfferExpired.
		AcceptOffer(ctx context.Context, entryUUID string, member entity.Member, now time.Time) (*entity.RegisterOutcome, *entity.WaitlistEntry, error)
		// DeclineOffer declines an active offer and promotes the next entry.
		DeclineOffer(ctx context.Context, entryUUID string, memberId string, now time.Time) (*entity.WaitlistEntry, *entity.WaitlistEntry, error)
		// ExpireOffer expires one stale offer, renumbers the queue and
		// promotes the next entry. Own transaction per entry.
		ExpireOffer(ctx context.Context, entryUUID string, now time.Time) (*entity.WaitlistEntry, error)
		// GetStaleOffers returns offered entries whose respond_by passed.
		GetStaleOffers(ctx context.Context, now time.Time) ([]entity.WaitlistEntry, error)
		// GetMemberEntry returns the live waitlist entry of a member for an
		// offering, or nil.
		GetMemberEntry(ctx context.Context, offeringUUID string, memberId string) (*entity.WaitlistEntry, error)
		// GetEntryByUUID returns an entry by its public id.
		GetEntryByUUID(ctx context.Context, uuid string) (*entity.WaitlistEntry, error)
		// GetLiveEntries returns the waiting/offered entries of an offering
		// ordered by position.
		GetLiveEntries(ctx context.Context, offeringUUID string) ([]entity.WaitlistEntry, error)
	}

	Notifications interface {
		AddNotification(ctx context.Context, n *entity.Notification) (int, error)
		GetAllUnsent(ctx context.Context, withError bool) ([]entity.Notification, error)
		UpdateSent(ctx context.Context, id int) error
		AddError(ctx context.Context, id int, errMsg string) error
	}

	Repository interface {
		Offerings() Offerings
		Registrations() Registrations
		Waitlist() Waitlist
		Notifications() Notifications
		Tx(ctx context.Context, f func(context.Context, Repository) error) error
		TxBegin(ctx context.Context) (Repository, error)
		TxCommit(ctx context.Context) error
		TxRollback(ctx context.Context) error
		Now() time.Time
		InTx() bool
		Close()
		IsErrUniqueViolation(err error) bool
		IsErrorRepeat(err error) bool
		DB() DB
	}

	// DB represents database interface.
	DB interface {
		BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
		ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)

		// sqlx methods
		GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
		NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
		QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row
		QueryxContext(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error)
		SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	}

	// Invoicer is the payment collaborator: create a checkout for a paid
	// registration, receive asynchronous succeeded/failed confirmations
	// keyed by the registration public id.
	Invoicer interface {
		CreateCheckout(ctx context.Context, reg *entity.Registration, offering *entity.Offering) (string, error)
		CancelCheckout(ctx context.Context, checkoutRef string) error
	}

	// Mailer is the notification collaborator. All sends are fire-and-forget
	// from the orchestrator's point of view: failures are logged and retried
	// by the outbox worker, never propagated.
	Mailer interface {
		SendRegistrationConfirmed(ctx context.Context, rep Repository, to string, details *RegistrationMailDetails) error
		SendRegistrationCancelled(ctx context.Context, rep Repository, to string, details *RegistrationMailDetails) error
		SendWaitlistJoined(ctx context.Context, rep Repository, to string, details *WaitlistMailDetails) error
		SendSpotAvailable(ctx context.Context, rep Repository, to string, details *WaitlistMailDetails) error
		SendUpcomingReminder(ctx context.Context, rep Repository, to string, details *RegistrationMailDetails) error
		Start(ctx context.Context) error
		Stop() error
	}

	// RegistrationMailDetails is the template payload for registration mails.
	RegistrationMailDetails struct {
		OfferingTitle string
		StartsAt      time.Time
		Reason        string
	}

	// WaitlistMailDetails is the template payload for waitlist mails.
	WaitlistMailDetails struct {
		OfferingTitle string
		Position      int
		RespondBy     time.Time
	}
)
