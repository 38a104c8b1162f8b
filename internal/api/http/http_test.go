package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	authjwt "github.com/klubben/events-manager/internal/auth/jwt"
	"github.com/klubben/events-manager/internal/dependency/mocks"
	"github.com/klubben/events-manager/internal/enrollment"
	"github.com/klubben/events-manager/internal/entity"
	gerr "github.com/klubben/events-manager/internal/errors"
	"github.com/klubben/events-manager/internal/payment/stripe"
	"github.com/klubben/events-manager/internal/ratelimit"
)

type httpEnv struct {
	repo     *mocks.Repository
	offs     *mocks.Offerings
	regs     *mocks.Registrations
	wl       *mocks.Waitlist
	invoicer *mocks.Invoicer
	mailer   *mocks.Mailer
	srv      *Server
	handler  http.Handler
	now      time.Time
}

func newHTTPEnv(t *testing.T) *httpEnv {
	e := &httpEnv{
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

	svc := enrollment.New(e.repo, e.invoicer, e.mailer)
	proc, err := stripe.New(&stripe.Config{
		SecretKey:     "sk_test_x",
		WebhookSecret: "whsec_test_x",
	})
	assert.NoError(t, err)

	e.srv = New(&Config{
		Port:      "0",
		JWTSecret: "test-secret",
	}, svc, e.repo, proc)
	e.handler = e.srv.router()
	return e
}

func (e *httpEnv) memberToken(t *testing.T, memberId, email, role string) string {
	tok, err := authjwt.NewMemberToken(e.srv.jwtAuth, time.Hour, memberId, email, role)
	assert.NoError(t, err)
	return tok
}

func (e *httpEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
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

func TestGetOffering(t *testing.T) {
	e := newHTTPEnv(t)
	e.offs.On("GetOfferingByUUID", mock.Anything, "off-1").Return(testOffering(), nil)

	w := e.do(httptest.NewRequest(http.MethodGet, "/api/offerings/off-1", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	var view offeringView
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, "off-1", view.UUID)
	assert.Equal(t, 7, view.SeatsAvailable)
	assert.Equal(t, "open", view.Status)
}

func TestGetOfferingNotFound(t *testing.T) {
	e := newHTTPEnv(t)
	e.offs.On("GetOfferingByUUID", mock.Anything, "nope").Return(nil, gerr.ErrOfferingNotFound)

	w := e.do(httptest.NewRequest(http.MethodGet, "/api/offerings/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	var resp errorResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "offering_not_found", resp.Code)
}

func TestRegisterWithoutToken(t *testing.T) {
	e := newHTTPEnv(t)

	w := e.do(httptest.NewRequest(http.MethodPost, "/api/offerings/off-1/register", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegisterConfirmed(t *testing.T) {
	e := newHTTPEnv(t)
	offering := testOffering()
	member := entity.Member{Id: "m-1", Email: "m1@example.com", Role: entity.RoleMember}

	reg := &entity.Registration{
		UUID:         "reg-1",
		OfferingId:   offering.Id,
		MemberId:     member.Id,
		MemberEmail:  member.Email,
		Status:       entity.RegistrationConfirmed,
		RegisteredAt: e.now,
	}
	e.regs.On("Register", mock.Anything, "off-1", member, e.now).
		Return(&entity.RegisterOutcome{Kind: entity.OutcomeConfirmed, Registration: reg}, nil)
	e.offs.On("GetOfferingById", mock.Anything, offering.Id).Return(offering, nil).Maybe()
	e.mailer.On("SendRegistrationConfirmed", mock.Anything, mock.Anything, member.Email, mock.Anything).Return(nil).Maybe()

	req := httptest.NewRequest(http.MethodPost, "/api/offerings/off-1/register", nil)
	req.Header.Set("Authorization", "Bearer "+e.memberToken(t, member.Id, member.Email, ""))

	w := e.do(req)
	assert.Equal(t, http.StatusCreated, w.Code)

	var resp outcomeResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "confirmed", resp.Outcome)
	assert.Equal(t, "reg-1", resp.Registration.UUID)
}

func TestRegisterDeadlinePassed(t *testing.T) {
	e := newHTTPEnv(t)
	member := entity.Member{Id: "m-1", Email: "m1@example.com", Role: entity.RoleMember}

	e.regs.On("Register", mock.Anything, "off-1", member, e.now).
		Return(nil, gerr.ErrDeadlinePassed)

	req := httptest.NewRequest(http.MethodPost, "/api/offerings/off-1/register", nil)
	req.Header.Set("Authorization", "Bearer "+e.memberToken(t, member.Id, member.Email, ""))

	w := e.do(req)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp errorResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "deadline_passed", resp.Code)
}

func TestRegisterRateLimited(t *testing.T) {
	e := newHTTPEnv(t)
	e.srv.limits = ratelimit.NewCustomEnrollmentLimiter(1, 1, 1)
	member := entity.Member{Id: "m-1", Email: "m1@example.com", Role: entity.RoleMember}

	offering := testOffering()
	reg := &entity.Registration{UUID: "reg-1", OfferingId: offering.Id, MemberEmail: member.Email, Status: entity.RegistrationConfirmed}
	e.regs.On("Register", mock.Anything, "off-1", member, e.now).
		Return(&entity.RegisterOutcome{Kind: entity.OutcomeConfirmed, Registration: reg}, nil).Maybe()
	e.offs.On("GetOfferingById", mock.Anything, offering.Id).Return(offering, nil).Maybe()
	e.mailer.On("SendRegistrationConfirmed", mock.Anything, mock.Anything, member.Email, mock.Anything).Return(nil).Maybe()

	tok := e.memberToken(t, member.Id, member.Email, "")

	req := httptest.NewRequest(http.MethodPost, "/api/offerings/off-1/register", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	assert.Equal(t, http.StatusCreated, e.do(req).Code)

	req = httptest.NewRequest(http.MethodPost, "/api/offerings/off-1/register", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	assert.Equal(t, http.StatusTooManyRequests, e.do(req).Code)
}

func TestAdminRouteForbiddenForMember(t *testing.T) {
	e := newHTTPEnv(t)

	body := bytes.NewBufferString(`{}`)
	req := httptest.NewRequest(http.MethodPost, "/api/admin/offerings", body)
	req.Header.Set("Authorization", "Bearer "+e.memberToken(t, "m-1", "m1@example.com", ""))

	w := e.do(req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAddOffering(t *testing.T) {
	e := newHTTPEnv(t)
	created := testOffering()
	created.ConfirmedSeats = 0
	e.offs.On("AddOffering", mock.Anything, mock.Anything).Return(created, nil)

	payload := map[string]any{
		"title":    "Evening Pottery Class",
		"capacity": 10,
		"price":    "25.00",
		"currency": "EUR",
		"startsAt": "2026-04-01T18:00:00Z",
		"endsAt":   "2026-04-01T20:00:00Z",
	}
	body, _ := json.Marshal(payload)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/offerings", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+e.memberToken(t, "admin-1", "ops@example.com", entity.RoleAdmin))

	w := e.do(req)
	assert.Equal(t, http.StatusCreated, w.Code)

	var view offeringView
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, 10, view.SeatsAvailable)
}

func TestAddOfferingRejectsEndBeforeStart(t *testing.T) {
	e := newHTTPEnv(t)

	payload := map[string]any{
		"title":    "Backwards Offering",
		"capacity": 10,
		"currency": "EUR",
		"startsAt": "2026-04-01T20:00:00Z",
		"endsAt":   "2026-04-01T18:00:00Z",
	}
	body, _ := json.Marshal(payload)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/offerings", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+e.memberToken(t, "admin-1", "ops@example.com", entity.RoleAdmin))

	w := e.do(req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStripeWebhookBadSignature(t *testing.T) {
	e := newHTTPEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewBufferString(`{}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=bogus")

	w := e.do(req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp errorResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "bad_signature", resp.Code)
}

func TestDeclineOffer(t *testing.T) {
	e := newHTTPEnv(t)
	declined := &entity.WaitlistEntry{
		UUID:     "wl-1",
		Position: 0,
		Status:   entity.WaitlistDeclined,
		JoinedAt: e.now,
	}
	e.wl.On("DeclineOffer", mock.Anything, "wl-1", "m-1", e.now).Return(declined, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/waitlist/wl-1/decline", nil)
	req.Header.Set("Authorization", "Bearer "+e.memberToken(t, "m-1", "m1@example.com", ""))

	w := e.do(req)
	assert.Equal(t, http.StatusOK, w.Code)

	var view waitlistEntryView
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, "declined", view.Status)
}
