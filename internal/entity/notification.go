package entity

import (
	"database/sql"
	"time"
)

// NotificationKind names the outbound notification templates.
type NotificationKind string

const (
	NotificationRegistrationConfirmed NotificationKind = "registration_confirmed"
	NotificationRegistrationCancelled NotificationKind = "registration_cancelled"
	NotificationWaitlistJoined        NotificationKind = "waitlist_joined"
	NotificationSpotAvailable         NotificationKind = "spot_available"
	NotificationUpcomingReminder      NotificationKind = "upcoming_reminder"
)

// Notification represents a row of the notification_outbox table. The
// orchestrator inserts and attempts a send in one go; the mail worker
// retries rows that stayed unsent.
type Notification struct {
	Id        int              `db:"id"`
	Kind      NotificationKind `db:"kind"`
	Recipient string           `db:"recipient"`
	Subject   string           `db:"subject"`
	Html      string           `db:"html"`
	Sent      bool             `db:"sent"`
	SendError sql.NullString   `db:"send_error"`
	CreatedAt time.Time        `db:"created_at"`
	SentAt    sql.NullTime     `db:"sent_at"`
}
