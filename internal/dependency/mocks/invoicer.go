package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/klubben/events-manager/internal/entity"
)

type Invoicer struct {
	mock.Mock
}

func NewInvoicer(t interface {
	mock.TestingT
	Cleanup(func())
}) *Invoicer {
	m := &Invoicer{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (_m *Invoicer) CreateCheckout(ctx context.Context, reg *entity.Registration, offering *entity.Offering) (string, error) {
	ret := _m.Called(ctx, reg, offering)
	return ret.String(0), ret.Error(1)
}

func (_m *Invoicer) CancelCheckout(ctx context.Context, checkoutRef string) error {
	ret := _m.Called(ctx, checkoutRef)
	return ret.Error(0)
}
