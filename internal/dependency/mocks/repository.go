// Package mocks provides testify mocks of the dependency interfaces.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/klubben/events-manager/internal/dependency"
)

type Repository struct {
	mock.Mock
}

func NewRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *Repository {
	m := &Repository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (_m *Repository) Offerings() dependency.Offerings {
	ret := _m.Called()
	var r0 dependency.Offerings
	if v := ret.Get(0); v != nil {
		r0 = v.(dependency.Offerings)
	}
	return r0
}

func (_m *Repository) Registrations() dependency.Registrations {
	ret := _m.Called()
	var r0 dependency.Registrations
	if v := ret.Get(0); v != nil {
		r0 = v.(dependency.Registrations)
	}
	return r0
}

func (_m *Repository) Waitlist() dependency.Waitlist {
	ret := _m.Called()
	var r0 dependency.Waitlist
	if v := ret.Get(0); v != nil {
		r0 = v.(dependency.Waitlist)
	}
	return r0
}

func (_m *Repository) Notifications() dependency.Notifications {
	ret := _m.Called()
	var r0 dependency.Notifications
	if v := ret.Get(0); v != nil {
		r0 = v.(dependency.Notifications)
	}
	return r0
}

func (_m *Repository) Tx(ctx context.Context, f func(context.Context, dependency.Repository) error) error {
	ret := _m.Called(ctx, f)
	return ret.Error(0)
}

func (_m *Repository) TxBegin(ctx context.Context) (dependency.Repository, error) {
	ret := _m.Called(ctx)
	var r0 dependency.Repository
	if v := ret.Get(0); v != nil {
		r0 = v.(dependency.Repository)
	}
	return r0, ret.Error(1)
}

func (_m *Repository) TxCommit(ctx context.Context) error {
	ret := _m.Called(ctx)
	return ret.Error(0)
}

func (_m *Repository) TxRollback(ctx context.Context) error {
	ret := _m.Called(ctx)
	return ret.Error(0)
}

func (_m *Repository) Now() time.Time {
	ret := _m.Called()
	return ret.Get(0).(time.Time)
}

func (_m *Repository) InTx() bool {
	ret := _m.Called()
	return ret.Bool(0)
}

func (_m *Repository) Close() {
	_m.Called()
}

func (_m *Repository) IsErrUniqueViolation(err error) bool {
	ret := _m.Called(err)
	return ret.Bool(0)
}

func (_m *Repository) IsErrorRepeat(err error) bool {
	ret := _m.Called(err)
	return ret.Bool(0)
}

func (_m *Repository) DB() dependency.DB {
	ret := _m.Called()
	var r0 dependency.DB
	if v := ret.Get(0); v != nil {
		r0 = v.(dependency.DB)
	}
	return r0
}
