package sweep

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/klubben/events-manager/internal/dependency/mocks"
	"github.com/klubben/events-manager/internal/enrollment"
	"github.com/klubben/events-manager/internal/entity"
)

func TestNewAppliesDefaults(t *testing.T) {
	w := New(nil, nil)
	assert.Equal(t, 15*time.Minute, w.c.WorkerInterval)
	assert.Equal(t, 24*time.Hour, w.c.PendingTTL)
	assert.Equal(t, 24*time.Hour, w.c.ReminderEvery)

	w = New(&Config{WorkerInterval: time.Minute}, nil)
	assert.Equal(t, time.Minute, w.c.WorkerInterval)
	assert.Equal(t, 24*time.Hour, w.c.PendingTTL)
}

func TestRunOnceGatesReminders(t *testing.T) {
	repo := mocks.NewRepository(t)
	offs := mocks.NewOfferings(t)
	regs := mocks.NewRegistrations(t)
	wl := mocks.NewWaitlist(t)
	repo.On("Offerings").Return(offs).Maybe()
	repo.On("Registrations").Return(regs).Maybe()
	repo.On("Waitlist").Return(wl).Maybe()

	svc := enrollment.New(repo, mocks.NewInvoicer(t), mocks.NewMailer(t))
	w := New(&Config{ReminderEvery: 24 * time.Hour}, svc)

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	// empty sweeps, reminders run on the first pass
	wl.On("GetStaleOffers", mock.Anything, mock.Anything).Return(nil, nil)
	regs.On("GetStalePendingRegistrations", mock.Anything, mock.Anything).Return(nil, nil)
	offs.On("GetEndedOpenOfferings", mock.Anything, mock.Anything).Return(nil, nil)
	offs.On("GetOfferingsStartingBetween", mock.Anything, mock.Anything, mock.Anything).
		Return([]entity.Offering{}, nil)

	w.runOnce(context.Background(), now)
	offs.AssertNumberOfCalls(t, "GetOfferingsStartingBetween", 1)
	assert.Equal(t, now, w.lastReminder)

	// an hour later the reminder pass is still gated
	w.runOnce(context.Background(), now.Add(time.Hour))
	offs.AssertNumberOfCalls(t, "GetOfferingsStartingBetween", 1)

	// past the gate it runs again
	w.runOnce(context.Background(), now.Add(25*time.Hour))
	offs.AssertNumberOfCalls(t, "GetOfferingsStartingBetween", 2)
}

func TestStartStop(t *testing.T) {
	repo := mocks.NewRepository(t)
	svc := enrollment.New(repo, mocks.NewInvoicer(t), mocks.NewMailer(t))
	w := New(&Config{WorkerInterval: time.Hour}, svc)

	assert.NoError(t, w.Start(context.Background()))
	assert.Error(t, w.Start(context.Background()))
	assert.NoError(t, w.Stop())
	assert.Error(t, w.Stop())
}
