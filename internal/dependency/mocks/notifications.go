package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/klubben/events-manager/internal/entity"
)

type Notifications struct {
	mock.Mock
}

func NewNotifications(t interface {
	mock.TestingT
	Cleanup(func())
}) *Notifications {
	m := &Notifications{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (_m *Notifications) AddNotification(ctx context.Context, n *entity.Notification) (int, error) {
	ret := _m.Called(ctx, n)
	return ret.Int(0), ret.Error(1)
}

func (_m *Notifications) GetAllUnsent(ctx context.Context, withError bool) ([]entity.Notification, error) {
	ret := _m.Called(ctx, withError)
	var r0 []entity.Notification
	if v := ret.Get(0); v != nil {
		r0 = v.([]entity.Notification)
	}
	return r0, ret.Error(1)
}

func (_m *Notifications) UpdateSent(ctx context.Context, id int) error {
	ret := _m.Called(ctx, id)
	return ret.Error(0)
}

func (_m *Notifications) AddError(ctx context.Context, id int, errMsg string) error {
	ret := _m.Called(ctx, id, errMsg)
	return ret.Error(0)
}
