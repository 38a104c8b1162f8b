package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/klubben/events-manager/internal/dependency"
)

type Mailer struct {
	mock.Mock
}

func NewMailer(t interface {
	mock.TestingT
	Cleanup(func())
}) *Mailer {
	m := &Mailer{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (_m *Mailer) SendRegistrationConfirmed(ctx context.Context, rep dependency.Repository, to string, details *dependency.RegistrationMailDetails) error {
	ret := _m.Called(ctx, rep, to, details)
	return ret.Error(0)
}

func (_m *Mailer) SendRegistrationCancelled(ctx context.Context, rep dependency.Repository, to string, details *dependency.RegistrationMailDetails) error {
	ret := _m.Called(ctx, rep, to, details)
	return ret.Error(0)
}

func (_m *Mailer) SendWaitlistJoined(ctx context.Context, rep dependency.Repository, to string, details *dependency.WaitlistMailDetails) error {
	ret := _m.Called(ctx, rep, to, details)
	return ret.Error(0)
}

func (_m *Mailer) SendSpotAvailable(ctx context.Context, rep dependency.Repository, to string, details *dependency.WaitlistMailDetails) error {
	ret := _m.Called(ctx, rep, to, details)
	return ret.Error(0)
}

func (_m *Mailer) SendUpcomingReminder(ctx context.Context, rep dependency.Repository, to string, details *dependency.RegistrationMailDetails) error {
	ret := _m.Called(ctx, rep, to, details)
	return ret.Error(0)
}

func (_m *Mailer) Start(ctx context.Context) error {
	ret := _m.Called(ctx)
	return ret.Error(0)
}

func (_m *Mailer) Stop() error {
	ret := _m.Called()
	return ret.Error(0)
}
