package mail

import (
	"context"
	"fmt"

	"github.com/klubben/events-manager/internal/dependency"
	"github.com/klubben/events-manager/internal/entity"
)

const (
	RegistrationConfirmed = "registration_confirmed.gohtml"
	RegistrationCancelled = "registration_cancelled.gohtml"
	WaitlistJoined        = "waitlist_joined.gohtml"
	SpotAvailable         = "spot_available.gohtml"
	UpcomingReminder      = "upcoming_reminder.gohtml"
)

// Define a map for template names to subjects
var templateSubjects = map[string]string{
	RegistrationConfirmed: "Your registration is confirmed",
	RegistrationCancelled: "Your registration has been cancelled",
	WaitlistJoined:        "You are on the waitlist",
	SpotAvailable:         "A spot opened up for you",
	UpcomingReminder:      "Your event starts soon",
}

var templateKinds = map[string]entity.NotificationKind{
	RegistrationConfirmed: entity.NotificationRegistrationConfirmed,
	RegistrationCancelled: entity.NotificationRegistrationCancelled,
	WaitlistJoined:        entity.NotificationWaitlistJoined,
	SpotAvailable:         entity.NotificationSpotAvailable,
	UpcomingReminder:      entity.NotificationUpcomingReminder,
}

// SendRegistrationConfirmed sends a registration confirmation email.
func (m *Mailer) SendRegistrationConfirmed(ctx context.Context, rep dependency.Repository, to string, details *dependency.RegistrationMailDetails) error {
	if details.OfferingTitle == "" {
		return fmt.Errorf("incomplete registration details: %+v", details)
	}
	return m.sendTemplate(ctx, rep, to, RegistrationConfirmed, details)
}

// SendRegistrationCancelled sends a registration cancellation email.
func (m *Mailer) SendRegistrationCancelled(ctx context.Context, rep dependency.Repository, to string, details *dependency.RegistrationMailDetails) error {
	if details.OfferingTitle == "" {
		return fmt.Errorf("incomplete registration details: %+v", details)
	}
	return m.sendTemplate(ctx, rep, to, RegistrationCancelled, details)
}

// SendWaitlistJoined sends a waitlist confirmation email with the position.
func (m *Mailer) SendWaitlistJoined(ctx context.Context, rep dependency.Repository, to string, details *dependency.WaitlistMailDetails) error {
	if details.OfferingTitle == "" || details.Position == 0 {
		return fmt.Errorf("incomplete waitlist details: %+v", details)
	}
	return m.sendTemplate(ctx, rep, to, WaitlistJoined, details)
}

// SendSpotAvailable sends a promotion offer email with the response deadline.
func (m *Mailer) SendSpotAvailable(ctx context.Context, rep dependency.Repository, to string, details *dependency.WaitlistMailDetails) error {
	if details.OfferingTitle == "" || details.RespondBy.IsZero() {
		return fmt.Errorf("incomplete waitlist details: %+v", details)
	}
	return m.sendTemplate(ctx, rep, to, SpotAvailable, details)
}

// SendUpcomingReminder sends an upcoming-event reminder email.
func (m *Mailer) SendUpcomingReminder(ctx context.Context, rep dependency.Repository, to string, details *dependency.RegistrationMailDetails) error {
	if details.OfferingTitle == "" {
		return fmt.Errorf("incomplete registration details: %+v", details)
	}
	return m.sendTemplate(ctx, rep, to, UpcomingReminder, details)
}

func (m *Mailer) sendTemplate(ctx context.Context, rep dependency.Repository, to string, tn string, data interface{}) error {
	n, err := m.buildNotification(to, tn, data)
	if err != nil {
		return err
	}
	return m.sendWithInsert(ctx, rep, n)
}
