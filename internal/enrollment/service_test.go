package enrollment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/klubben/events-manager/internal/dependency/mocks"
	"github.com/klubben/events-manager/internal/entity"
	gerr "github.com/klubben/events-manager/internal/errors"
)

type testEnv struct {
	repo     *mocks.Repository
	offs     *mocks.Offerings
	regs     *mocks.Registrations
	wl       *mocks.Waitlist
	invoicer *mocks.Invoicer
	mailer   *mocks.Mailer
	svc      *Service
	now      time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	e := &testEnv{
		repo:     mocks.NewRepository(t),
		offs:     mocks.NewOfferings(t),
		regs:     mocks.NewRegistrations(t),
		wl:       mocks.NewWaitlist(t),
		invoicer: mocks.NewInvoicer(t),
		mailer:   mocks.NewMailer(t),
		now:      time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
	}
	e.repo.On("Now").Return(e.now).Maybe()
	e.repo.On("Offerings").Return(e.offs).Maybe()
	e.repo.On("Registrations").Return(e.regs).Maybe()
	e.repo.On("Waitlist").Return(e.wl).Maybe()
	e.svc = New(e.repo, e.invoicer, e.mailer)
	return e
}

func testOffering() *entity.Offering {
	return &entity.Offering{
		Id:             7,
		UUID:           "off-1",
		Title:          "Evening Pottery Class",
		Capacity:       10,
		ConfirmedSeats: 3,
		Currency:       "EUR",
		StartsAt:       time.Date(2026, 4, 1, 18, 0, 0, 0, time.UTC),
		EndsAt:         time.Date(2026, 4, 1, 20, 0, 0, 0, time.UTC),
		Status:         entity.OfferingOpen,
	}
}

func TestRegisterConfirmedSendsConfirmation(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	member := entity.Member{Id: "m-1", Email: "m1@example.com", Role: entity.RoleMember}
	offering := testOffering()

	reg := &entity.Registration{
		UUID:        "reg-1",
		OfferingId:  offering.Id,
		MemberId:    member.Id,
		MemberEmail: member.Email,
		Status:      entity.RegistrationConfirmed,
	}
	e.regs.On("Register", mock.Anything, "off-1", member, e.now).
		Return(&entity.RegisterOutcome{Kind: entity.OutcomeConfirmed, Registration: reg}, nil)
	e.offs.On("GetOfferingById", mock.Anything, offering.Id).Return(offering, nil)
	e.mailer.On("SendRegistrationConfirmed", mock.Anything, e.repo, member.Email, mock.Anything).Return(nil)

	outcome, err := e.svc.Register(ctx, "off-1", member)
	assert.NoError(t, err)
	assert.Equal(t, entity.OutcomeConfirmed, outcome.Kind)
	assert.Equal(t, "reg-1", outcome.Registration.UUID)
}

func TestRegisterWaitlistedSendsJoinedMail(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	member := entity.Member{Id: "m-2", Email: "m2@example.com"}
	offering := testOffering()

	entry := &entity.WaitlistEntry{
		UUID:        "wl-1",
		OfferingId:  offering.Id,
		MemberId:    member.Id,
		MemberEmail: member.Email,
		Position:    4,
		Status:      entity.WaitlistWaiting,
	}
	e.regs.On("Register", mock.Anything, "off-1", member, e.now).
		Return(&entity.RegisterOutcome{Kind: entity.OutcomeWaitlisted, WaitlistEntry: entry, WaitlistPosition: 4}, nil)
	e.offs.On("GetOfferingById", mock.Anything, offering.Id).Return(offering, nil)
	e.mailer.On("SendWaitlistJoined", mock.Anything, e.repo, member.Email, mock.Anything).Return(nil)

	outcome, err := e.svc.Register(ctx, "off-1", member)
	assert.NoError(t, err)
	assert.Equal(t, entity.OutcomeWaitlisted, outcome.Kind)
	assert.Equal(t, 4, outcome.WaitlistPosition)
}

func TestRegisterPaidOpensCheckout(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	member := entity.Member{Id: "m-3", Email: "m3@example.com"}
	offering := testOffering()

	reg := &entity.Registration{
		UUID:        "reg-2",
		OfferingId:  offering.Id,
		MemberId:    member.Id,
		MemberEmail: member.Email,
		Status:      entity.RegistrationPendingPayment,
	}
	e.regs.On("Register", mock.Anything, "off-1", member, e.now).
		Return(&entity.RegisterOutcome{Kind: entity.OutcomeCheckoutRequired, Registration: reg}, nil)
	e.offs.On("GetOfferingByUUID", mock.Anything, "off-1").Return(offering, nil)
	e.invoicer.On("CreateCheckout", mock.Anything, reg, offering).Return("pi_123_secret_abc", nil)
	e.regs.On("AttachCheckout", mock.Anything, "reg-2", "pi_123_secret_abc").Return(nil)

	outcome, err := e.svc.Register(ctx, "off-1", member)
	assert.NoError(t, err)
	assert.Equal(t, entity.OutcomeCheckoutRequired, outcome.Kind)
	assert.Equal(t, "pi_123_secret_abc", outcome.CheckoutRef)
}

func TestRegisterCheckoutFailureLeavesRowPending(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	member := entity.Member{Id: "m-3", Email: "m3@example.com"}
	offering := testOffering()

	reg := &entity.Registration{UUID: "reg-2", OfferingId: offering.Id, MemberEmail: member.Email}
	e.regs.On("Register", mock.Anything, "off-1", member, e.now).
		Return(&entity.RegisterOutcome{Kind: entity.OutcomeCheckoutRequired, Registration: reg}, nil)
	e.offs.On("GetOfferingByUUID", mock.Anything, "off-1").Return(offering, nil)
	e.invoicer.On("CreateCheckout", mock.Anything, reg, offering).Return("", fmt.Errorf("stripe is down"))

	_, err := e.svc.Register(ctx, "off-1", member)
	assert.ErrorIs(t, err, gerr.ErrCheckoutCreationFailed)
	e.regs.AssertNotCalled(t, "AttachCheckout", mock.Anything, mock.Anything, mock.Anything)
}

func TestConfirmPaymentNotifiesOnce(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	offering := testOffering()

	reg := &entity.Registration{
		UUID:        "reg-2",
		OfferingId:  offering.Id,
		MemberEmail: "m3@example.com",
		Status:      entity.RegistrationConfirmed,
	}
	e.regs.On("ConfirmPayment", mock.Anything, "reg-2", "pi_123", e.now).Return(reg, true, nil).Once()
	e.offs.On("GetOfferingById", mock.Anything, offering.Id).Return(offering, nil).Once()
	e.mailer.On("SendRegistrationConfirmed", mock.Anything, e.repo, reg.MemberEmail, mock.Anything).Return(nil).Once()

	got, err := e.svc.ConfirmPayment(ctx, "reg-2", "pi_123")
	assert.NoError(t, err)
	assert.Equal(t, entity.RegistrationConfirmed, got.Status)

	// duplicate delivery: store reports no update, nothing is sent
	e.regs.On("ConfirmPayment", mock.Anything, "reg-2", "pi_123", e.now).Return(reg, false, nil).Once()
	got, err = e.svc.ConfirmPayment(ctx, "reg-2", "pi_123")
	assert.NoError(t, err)
	assert.NotNil(t, got)
	e.mailer.AssertNumberOfCalls(t, "SendRegistrationConfirmed", 1)
}

func TestCancelRegistrationNotifiesPromoted(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	offering := testOffering()

	cancelled := &entity.Registration{
		UUID:        "reg-1",
		OfferingId:  offering.Id,
		MemberId:    "m-1",
		MemberEmail: "m1@example.com",
		Status:      entity.RegistrationCancelled,
	}
	promoted := &entity.WaitlistEntry{
		UUID:        "wl-1",
		OfferingId:  offering.Id,
		MemberId:    "m-2",
		MemberEmail: "m2@example.com",
		Position:    1,
		Status:      entity.WaitlistOffered,
		RespondBy:   sql.NullTime{Time: time.Date(2026, 3, 12, 12, 0, 0, 0, time.UTC), Valid: true},
	}
	e.regs.On("CancelRegistration", mock.Anything, "off-1", "m-1", "schedule conflict", e.now).
		Return(cancelled, promoted, nil)
	e.offs.On("GetOfferingById", mock.Anything, offering.Id).Return(offering, nil)
	e.mailer.On("SendRegistrationCancelled", mock.Anything, e.repo, "m1@example.com", mock.Anything).Return(nil)
	e.mailer.On("SendSpotAvailable", mock.Anything, e.repo, "m2@example.com", mock.Anything).Return(nil)

	got, err := e.svc.CancelRegistration(ctx, "off-1", "m-1", "schedule conflict")
	assert.NoError(t, err)
	assert.Equal(t, entity.RegistrationCancelled, got.Status)
}

func TestAcceptOfferExpiredStillNotifiesPromoted(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	offering := testOffering()
	member := entity.Member{Id: "m-2", Email: "m2@example.com"}

	promoted := &entity.WaitlistEntry{
		UUID:        "wl-2",
		OfferingId:  offering.Id,
		MemberId:    "m-3",
		MemberEmail: "m3@example.com",
		Position:    1,
		Status:      entity.WaitlistOffered,
		RespondBy:   sql.NullTime{Time: e.now.Add(48 * time.Hour), Valid: true},
	}
	e.wl.On("AcceptOffer", mock.Anything, "wl-1", member, e.now).
		Return(nil, promoted, gerr.ErrOfferExpired)
	e.offs.On("GetOfferingById", mock.Anything, offering.Id).Return(offering, nil)
	e.mailer.On("SendSpotAvailable", mock.Anything, e.repo, "m3@example.com", mock.Anything).Return(nil)

	outcome, err := e.svc.AcceptOffer(ctx, "wl-1", member)
	assert.ErrorIs(t, err, gerr.ErrOfferExpired)
	assert.Nil(t, outcome)
}

func TestAcceptOfferPaidOpensCheckout(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	offering := testOffering()
	member := entity.Member{Id: "m-2", Email: "m2@example.com"}

	reg := &entity.Registration{
		UUID:        "reg-5",
		OfferingId:  offering.Id,
		MemberId:    member.Id,
		MemberEmail: member.Email,
		Status:      entity.RegistrationPendingPayment,
	}
	e.wl.On("AcceptOffer", mock.Anything, "wl-1", member, e.now).
		Return(&entity.RegisterOutcome{Kind: entity.OutcomeCheckoutRequired, Registration: reg}, nil, nil)
	e.offs.On("GetOfferingById", mock.Anything, offering.Id).Return(offering, nil)
	e.invoicer.On("CreateCheckout", mock.Anything, reg, offering).Return("pi_456_secret_def", nil)
	e.regs.On("AttachCheckout", mock.Anything, "reg-5", "pi_456_secret_def").Return(nil)

	outcome, err := e.svc.AcceptOffer(ctx, "wl-1", member)
	assert.NoError(t, err)
	assert.Equal(t, "pi_456_secret_def", outcome.CheckoutRef)
}

func TestDeclineOfferNotifiesPromoted(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	offering := testOffering()

	declined := &entity.WaitlistEntry{UUID: "wl-1", OfferingId: offering.Id, Status: entity.WaitlistDeclined}
	promoted := &entity.WaitlistEntry{
		UUID:        "wl-2",
		OfferingId:  offering.Id,
		MemberEmail: "m3@example.com",
		Position:    1,
		Status:      entity.WaitlistOffered,
		RespondBy:   sql.NullTime{Time: e.now.Add(48 * time.Hour), Valid: true},
	}
	e.wl.On("DeclineOffer", mock.Anything, "wl-1", "m-2", e.now).Return(declined, promoted, nil)
	e.offs.On("GetOfferingById", mock.Anything, offering.Id).Return(offering, nil)
	e.mailer.On("SendSpotAvailable", mock.Anything, e.repo, "m3@example.com", mock.Anything).Return(nil)

	got, err := e.svc.DeclineOffer(ctx, "wl-1", "m-2")
	assert.NoError(t, err)
	assert.Equal(t, entity.WaitlistDeclined, got.Status)
}

func TestMyRegistrationToleratesMissingEntry(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	reg := &entity.Registration{UUID: "reg-1", Status: entity.RegistrationConfirmed}
	e.regs.On("GetMemberRegistration", mock.Anything, "off-1", "m-1").Return(reg, nil)
	e.wl.On("GetMemberEntry", mock.Anything, "off-1", "m-1").Return(nil, gerr.ErrEntryNotFound)

	status, err := e.svc.MyRegistration(ctx, "off-1", "m-1")
	assert.NoError(t, err)
	assert.NotNil(t, status.Registration)
	assert.Nil(t, status.WaitlistEntry)
}

func TestWaitlistPositionNoEntry(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	e.wl.On("GetMemberEntry", mock.Anything, "off-1", "m-1").Return(nil, nil)

	_, err := e.svc.WaitlistPosition(ctx, "off-1", "m-1")
	assert.True(t, errors.Is(err, gerr.ErrEntryNotFound))
}
