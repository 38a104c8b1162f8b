package enrollment

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/klubben/events-manager/internal/entity"
)

func TestExpireStaleOffersPromotesAndNotifies(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	offering := testOffering()

	stale := []entity.WaitlistEntry{
		{UUID: "wl-1", OfferingId: offering.Id, Status: entity.WaitlistOffered},
		{UUID: "wl-2", OfferingId: offering.Id, Status: entity.WaitlistOffered},
	}
	promoted := &entity.WaitlistEntry{
		UUID:        "wl-3",
		OfferingId:  offering.Id,
		MemberEmail: "next@example.com",
		Position:    1,
		Status:      entity.WaitlistOffered,
		RespondBy:   sql.NullTime{Time: e.now.Add(48 * time.Hour), Valid: true},
	}
	e.wl.On("GetStaleOffers", mock.Anything, e.now).Return(stale, nil)
	// only the first expiry frees a seat for the next entry
	e.wl.On("ExpireOffer", mock.Anything, "wl-1", e.now).Return(promoted, nil)
	e.wl.On("ExpireOffer", mock.Anything, "wl-2", e.now).Return(nil, nil)
	e.offs.On("GetOfferingById", mock.Anything, offering.Id).Return(offering, nil)
	e.mailer.On("SendSpotAvailable", mock.Anything, e.repo, "next@example.com", mock.Anything).Return(nil)

	err := e.svc.ExpireStaleOffers(ctx, e.now)
	assert.NoError(t, err)
	e.mailer.AssertNumberOfCalls(t, "SendSpotAvailable", 1)
}

func TestCleanupStalePendingCancelsCheckoutAndNotifies(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	offering := testOffering()
	cutoff := e.now.Add(-24 * time.Hour)

	stale := []entity.Registration{
		{
			UUID:        "reg-1",
			OfferingId:  offering.Id,
			MemberId:    "m-1",
			MemberEmail: "m1@example.com",
			Status:      entity.RegistrationPendingPayment,
			CheckoutRef: sql.NullString{String: "pi_123_secret_abc", Valid: true},
		},
	}
	cancelled := &entity.Registration{
		UUID:        "reg-1",
		OfferingId:  offering.Id,
		MemberId:    "m-1",
		MemberEmail: "m1@example.com",
		Status:      entity.RegistrationCancelled,
	}
	e.regs.On("GetStalePendingRegistrations", mock.Anything, cutoff).Return(stale, nil)
	e.offs.On("GetOfferingById", mock.Anything, offering.Id).Return(offering, nil)
	e.regs.On("CancelRegistration", mock.Anything, offering.UUID, "m-1", "payment timeout", e.now).
		Return(cancelled, nil, nil)
	e.invoicer.On("CancelCheckout", mock.Anything, "pi_123_secret_abc").Return(nil)
	e.mailer.On("SendRegistrationCancelled", mock.Anything, e.repo, "m1@example.com", mock.Anything).Return(nil)

	err := e.svc.CleanupStalePendingRegistrations(ctx, cutoff)
	assert.NoError(t, err)
}

func TestSendUpcomingRemindersMarksEachOnce(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	offering := testOffering()
	offering.StartsAt = e.now.Add(30 * time.Hour)

	e.offs.On("GetOfferingsStartingBetween", mock.Anything, e.now.Add(24*time.Hour), e.now.Add(48*time.Hour)).
		Return([]entity.Offering{*offering}, nil)
	e.regs.On("GetUnremindedConfirmed", mock.Anything, offering.UUID).Return([]entity.Registration{
		{UUID: "reg-1", OfferingId: offering.Id, MemberEmail: "m1@example.com", Status: entity.RegistrationConfirmed},
		{UUID: "reg-2", OfferingId: offering.Id, MemberEmail: "m2@example.com", Status: entity.RegistrationConfirmed},
	}, nil)
	e.mailer.On("SendUpcomingReminder", mock.Anything, e.repo, "m1@example.com", mock.Anything).Return(nil)
	e.mailer.On("SendUpcomingReminder", mock.Anything, e.repo, "m2@example.com", mock.Anything).Return(nil)
	e.regs.On("MarkReminderSent", mock.Anything, "reg-1", e.now).Return(nil)
	e.regs.On("MarkReminderSent", mock.Anything, "reg-2", e.now).Return(nil)

	err := e.svc.SendUpcomingReminders(ctx, e.now)
	assert.NoError(t, err)
	e.mailer.AssertNumberOfCalls(t, "SendUpcomingReminder", 2)
}

func TestSendUpcomingRemindersSkipsMarkOnSendFailure(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	offering := testOffering()

	e.offs.On("GetOfferingsStartingBetween", mock.Anything, mock.Anything, mock.Anything).
		Return([]entity.Offering{*offering}, nil)
	e.regs.On("GetUnremindedConfirmed", mock.Anything, offering.UUID).Return([]entity.Registration{
		{UUID: "reg-1", OfferingId: offering.Id, MemberEmail: "m1@example.com"},
	}, nil)
	e.mailer.On("SendUpcomingReminder", mock.Anything, e.repo, "m1@example.com", mock.Anything).
		Return(assert.AnError)

	err := e.svc.SendUpcomingReminders(ctx, e.now)
	assert.NoError(t, err)
	e.regs.AssertNotCalled(t, "MarkReminderSent", mock.Anything, mock.Anything, mock.Anything)
}

func TestCloseEndedOfferings(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	ended := []entity.Offering{
		{Id: 1, UUID: "off-1", Status: entity.OfferingOpen},
		{Id: 2, UUID: "off-2", Status: entity.OfferingOpen},
	}
	e.offs.On("GetEndedOpenOfferings", mock.Anything, e.now).Return(ended, nil)
	e.offs.On("CloseEndedOffering", mock.Anything, "off-1").Return(nil)
	e.offs.On("CloseEndedOffering", mock.Anything, "off-2").Return(nil)

	err := e.svc.CloseEndedOfferings(ctx, e.now)
	assert.NoError(t, err)
}
