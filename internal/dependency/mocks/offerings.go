package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/klubben/events-manager/internal/entity"
)

type Offerings struct {
	mock.Mock
}

func NewOfferings(t interface {
	mock.TestingT
	Cleanup(func())
}) *Offerings {
	m := &Offerings{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (_m *Offerings) AddOffering(ctx context.Context, oi *entity.OfferingInsert) (*entity.Offering, error) {
	ret := _m.Called(ctx, oi)
	var r0 *entity.Offering
	if v := ret.Get(0); v != nil {
		r0 = v.(*entity.Offering)
	}
	return r0, ret.Error(1)
}

func (_m *Offerings) GetOfferingByUUID(ctx context.Context, uuid string) (*entity.Offering, error) {
	ret := _m.Called(ctx, uuid)
	var r0 *entity.Offering
	if v := ret.Get(0); v != nil {
		r0 = v.(*entity.Offering)
	}
	return r0, ret.Error(1)
}

func (_m *Offerings) GetOfferingById(ctx context.Context, id int) (*entity.Offering, error) {
	ret := _m.Called(ctx, id)
	var r0 *entity.Offering
	if v := ret.Get(0); v != nil {
		r0 = v.(*entity.Offering)
	}
	return r0, ret.Error(1)
}

func (_m *Offerings) SetOfferingStatus(ctx context.Context, uuid string, status entity.OfferingStatus) error {
	ret := _m.Called(ctx, uuid, status)
	return ret.Error(0)
}

func (_m *Offerings) GetEndedOpenOfferings(ctx context.Context, now time.Time) ([]entity.Offering, error) {
	ret := _m.Called(ctx, now)
	var r0 []entity.Offering
	if v := ret.Get(0); v != nil {
		r0 = v.([]entity.Offering)
	}
	return r0, ret.Error(1)
}

func (_m *Offerings) GetOfferingsStartingBetween(ctx context.Context, from, to time.Time) ([]entity.Offering, error) {
	ret := _m.Called(ctx, from, to)
	var r0 []entity.Offering
	if v := ret.Get(0); v != nil {
		r0 = v.([]entity.Offering)
	}
	return r0, ret.Error(1)
}

func (_m *Offerings) CloseEndedOffering(ctx context.Context, offeringUUID string) error {
	ret := _m.Called(ctx, offeringUUID)
	return ret.Error(0)
}
