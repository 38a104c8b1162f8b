package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/klubben/events-manager/internal/entity"
)

type Waitlist struct {
	mock.Mock
}

func NewWaitlist(t interface {
	mock.TestingT
	Cleanup(func())
}) *Waitlist {
	m := &Waitlist{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (_m *Waitlist) PromoteNext(ctx context.Context, offeringUUID string, now time.Time) (*entity.WaitlistEntry, error) {
	ret := _m.Called(ctx, offeringUUID, now)
	var r0 *entity.WaitlistEntry
	if v := ret.Get(0); v != nil {
		r0 = v.(*entity.WaitlistEntry)
	}
	return r0, ret.Error(1)
}

func (_m *Waitlist) AcceptOffer(ctx context.Context, entryUUID string, member entity.Member, now time.Time) (*entity.RegisterOutcome, *entity.WaitlistEntry, error) {
	ret := _m.Called(ctx, entryUUID, member, now)
	var r0 *entity.RegisterOutcome
	if v := ret.Get(0); v != nil {
		r0 = v.(*entity.RegisterOutcome)
	}
	var r1 *entity.WaitlistEntry
	if v := ret.Get(1); v != nil {
		r1 = v.(*entity.WaitlistEntry)
	}
	return r0, r1, ret.Error(2)
}

func (_m *Waitlist) DeclineOffer(ctx context.Context, entryUUID string, memberId string, now time.Time) (*entity.WaitlistEntry, *entity.WaitlistEntry, error) {
	ret := _m.Called(ctx, entryUUID, memberId, now)
	var r0 *entity.WaitlistEntry
	if v := ret.Get(0); v != nil {
		r0 = v.(*entity.WaitlistEntry)
	}
	var r1 *entity.WaitlistEntry
	if v := ret.Get(1); v != nil {
		r1 = v.(*entity.WaitlistEntry)
	}
	return r0, r1, ret.Error(2)
}

func (_m *Waitlist) ExpireOffer(ctx context.Context, entryUUID string, now time.Time) (*entity.WaitlistEntry, error) {
	ret := _m.Called(ctx, entryUUID, now)
	var r0 *entity.WaitlistEntry
	if v := ret.Get(0); v != nil {
		r0 = v.(*entity.WaitlistEntry)
	}
	return r0, ret.Error(1)
}

func (_m *Waitlist) GetStaleOffers(ctx context.Context, now time.Time) ([]entity.WaitlistEntry, error) {
	ret := _m.Called(ctx, now)
	var r0 []entity.WaitlistEntry
	if v := ret.Get(0); v != nil {
		r0 = v.([]entity.WaitlistEntry)
	}
	return r0, ret.Error(1)
}

func (_m *Waitlist) GetMemberEntry(ctx context.Context, offeringUUID string, memberId string) (*entity.WaitlistEntry, error) {
	ret := _m.Called(ctx, offeringUUID, memberId)
	var r0 *entity.WaitlistEntry
	if v := ret.Get(0); v != nil {
		r0 = v.(*entity.WaitlistEntry)
	}
	return r0, ret.Error(1)
}

func (_m *Waitlist) GetEntryByUUID(ctx context.Context, uuid string) (*entity.WaitlistEntry, error) {
	ret := _m.Called(ctx, uuid)
	var r0 *entity.WaitlistEntry
	if v := ret.Get(0); v != nil {
		r0 = v.(*entity.WaitlistEntry)
	}
	return r0, ret.Error(1)
}

func (_m *Waitlist) GetLiveEntries(ctx context.Context, offeringUUID string) ([]entity.WaitlistEntry, error) {
	ret := _m.Called(ctx, offeringUUID)
	var r0 []entity.WaitlistEntry
	if v := ret.Get(0); v != nil {
		r0 = v.([]entity.WaitlistEntry)
	}
	return r0, ret.Error(1)
}
