package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/klubben/events-manager/internal/entity"
)

type Registrations struct {
	mock.Mock
}

func NewRegistrations(t interface {
	mock.TestingT
	Cleanup(func())
}) *Registrations {
	m := &Registrations{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (_m *Registrations) Register(ctx context.Context, offeringUUID string, member entity.Member, now time.Time) (*entity.RegisterOutcome, error) {
	ret := _m.Called(ctx, offeringUUID, member, now)
	var r0 *entity.RegisterOutcome
	if v := ret.Get(0); v != nil {
		r0 = v.(*entity.RegisterOutcome)
	}
	return r0, ret.Error(1)
}

func (_m *Registrations) AttachCheckout(ctx context.Context, registrationUUID string, checkoutRef string) error {
	ret := _m.Called(ctx, registrationUUID, checkoutRef)
	return ret.Error(0)
}

func (_m *Registrations) ConfirmPayment(ctx context.Context, registrationUUID string, paymentRef string, now time.Time) (*entity.Registration, bool, error) {
	ret := _m.Called(ctx, registrationUUID, paymentRef, now)
	var r0 *entity.Registration
	if v := ret.Get(0); v != nil {
		r0 = v.(*entity.Registration)
	}
	return r0, ret.Bool(1), ret.Error(2)
}

func (_m *Registrations) FailPayment(ctx context.Context, registrationUUID string, now time.Time) error {
	ret := _m.Called(ctx, registrationUUID, now)
	return ret.Error(0)
}

func (_m *Registrations) CancelRegistration(ctx context.Context, offeringUUID string, memberId string, reason string, now time.Time) (*entity.Registration, *entity.WaitlistEntry, error) {
	ret := _m.Called(ctx, offeringUUID, memberId, reason, now)
	var r0 *entity.Registration
	if v := ret.Get(0); v != nil {
		r0 = v.(*entity.Registration)
	}
	var r1 *entity.WaitlistEntry
	if v := ret.Get(1); v != nil {
		r1 = v.(*entity.WaitlistEntry)
	}
	return r0, r1, ret.Error(2)
}

func (_m *Registrations) GetRegistrationByUUID(ctx context.Context, uuid string) (*entity.Registration, error) {
	ret := _m.Called(ctx, uuid)
	var r0 *entity.Registration
	if v := ret.Get(0); v != nil {
		r0 = v.(*entity.Registration)
	}
	return r0, ret.Error(1)
}

func (_m *Registrations) GetMemberRegistration(ctx context.Context, offeringUUID string, memberId string) (*entity.Registration, error) {
	ret := _m.Called(ctx, offeringUUID, memberId)
	var r0 *entity.Registration
	if v := ret.Get(0); v != nil {
		r0 = v.(*entity.Registration)
	}
	return r0, ret.Error(1)
}

func (_m *Registrations) GetConfirmedRegistrations(ctx context.Context, offeringUUID string) ([]entity.Registration, error) {
	ret := _m.Called(ctx, offeringUUID)
	var r0 []entity.Registration
	if v := ret.Get(0); v != nil {
		r0 = v.([]entity.Registration)
	}
	return r0, ret.Error(1)
}

func (_m *Registrations) GetStalePendingRegistrations(ctx context.Context, cutoff time.Time) ([]entity.Registration, error) {
	ret := _m.Called(ctx, cutoff)
	var r0 []entity.Registration
	if v := ret.Get(0); v != nil {
		r0 = v.([]entity.Registration)
	}
	return r0, ret.Error(1)
}

func (_m *Registrations) GetUnremindedConfirmed(ctx context.Context, offeringUUID string) ([]entity.Registration, error) {
	ret := _m.Called(ctx, offeringUUID)
	var r0 []entity.Registration
	if v := ret.Get(0); v != nil {
		r0 = v.([]entity.Registration)
	}
	return r0, ret.Error(1)
}

func (_m *Registrations) MarkReminderSent(ctx context.Context, registrationUUID string, now time.Time) error {
	ret := _m.Called(ctx, registrationUUID, now)
	return ret.Error(0)
}
