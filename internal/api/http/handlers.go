package httpapi

import (
	"io"
	"net/http"
	"time"

	"database/sql"

	"github.com/asaskevich/govalidator"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/klubben/events-manager/internal/entity"
	appmw "github.com/klubben/events-manager/internal/middleware"
	"github.com/klubben/events-manager/internal/payment/stripe"
)

type offeringView struct {
	UUID           string     `json:"uuid"`
	Title          string     `json:"title"`
	Capacity       int        `json:"capacity"`
	SeatsAvailable int        `json:"seatsAvailable"`
	Price          string     `json:"price"`
	Currency       string     `json:"currency"`
	Deadline       *time.Time `json:"registrationDeadline,omitempty"`
	StartsAt       time.Time  `json:"startsAt"`
	EndsAt         time.Time  `json:"endsAt"`
	Status         string     `json:"status"`
}

func newOfferingView(o *entity.Offering) *offeringView {
	return &offeringView{
		UUID:           o.UUID,
		Title:          o.Title,
		Capacity:       o.Capacity,
		SeatsAvailable: o.Capacity - o.ConfirmedSeats,
		Price:          o.PriceDecimal().String(),
		Currency:       o.Currency,
		Deadline:       timePtr(o.Deadline.Valid, o.Deadline.Time),
		StartsAt:       o.StartsAt,
		EndsAt:         o.EndsAt,
		Status:         o.Status.String(),
	}
}

type registrationView struct {
	UUID          string     `json:"uuid"`
	Status        string     `json:"status"`
	PaymentStatus string     `json:"paymentStatus,omitempty"`
	RegisteredAt  time.Time  `json:"registeredAt"`
	ConfirmedAt   *time.Time `json:"confirmedAt,omitempty"`
	CancelledAt   *time.Time `json:"cancelledAt,omitempty"`
	Reason        string     `json:"cancellationReason,omitempty"`
}

func newRegistrationView(reg *entity.Registration) *registrationView {
	return &registrationView{
		UUID:          reg.UUID,
		Status:        reg.Status.String(),
		PaymentStatus: reg.PaymentStatus.String,
		RegisteredAt:  reg.RegisteredAt,
		ConfirmedAt:   timePtr(reg.ConfirmedAt.Valid, reg.ConfirmedAt.Time),
		CancelledAt:   timePtr(reg.CancelledAt.Valid, reg.CancelledAt.Time),
		Reason:        reg.CancellationReason.String,
	}
}

type waitlistEntryView struct {
	UUID      string     `json:"uuid"`
	Position  int        `json:"position"`
	Status    string     `json:"status"`
	JoinedAt  time.Time  `json:"joinedAt"`
	OfferedAt *time.Time `json:"offeredAt,omitempty"`
	RespondBy *time.Time `json:"respondBy,omitempty"`
}

func newWaitlistEntryView(entry *entity.WaitlistEntry) *waitlistEntryView {
	return &waitlistEntryView{
		UUID:      entry.UUID,
		Position:  entry.Position,
		Status:    entry.Status.String(),
		JoinedAt:  entry.JoinedAt,
		OfferedAt: timePtr(entry.OfferedAt.Valid, entry.OfferedAt.Time),
		RespondBy: timePtr(entry.RespondBy.Valid, entry.RespondBy.Time),
	}
}

type outcomeResponse struct {
	Outcome       string             `json:"outcome"`
	Registration  *registrationView  `json:"registration,omitempty"`
	WaitlistEntry *waitlistEntryView `json:"waitlistEntry,omitempty"`
	Position      int                `json:"position,omitempty"`
	CheckoutRef   string             `json:"checkoutRef,omitempty"`
}

func newOutcomeResponse(outcome *entity.RegisterOutcome) *outcomeResponse {
	resp := &outcomeResponse{
		Outcome:     string(outcome.Kind),
		Position:    outcome.WaitlistPosition,
		CheckoutRef: outcome.CheckoutRef,
	}
	if outcome.Registration != nil {
		resp.Registration = newRegistrationView(outcome.Registration)
	}
	if outcome.WaitlistEntry != nil {
		resp.WaitlistEntry = newWaitlistEntryView(outcome.WaitlistEntry)
	}
	return resp
}

func (s *Server) handleGetOffering(w http.ResponseWriter, r *http.Request) {
	offering, err := s.rep.Offerings().GetOfferingByUUID(r.Context(), chi.URLParam(r, "uuid"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newOfferingView(offering))
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	member := memberFromContext(r.Context())

	if err := s.limits.CheckRegister(appmw.GetClientIP(r.Context()), member.Id); err != nil {
		writeError(w, http.StatusTooManyRequests, "rate_limited", err.Error())
		return
	}

	outcome, err := s.svc.Register(r.Context(), chi.URLParam(r, "uuid"), member)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newOutcomeResponse(outcome))
}

func (s *Server) handleMyRegistration(w http.ResponseWriter, r *http.Request) {
	member := memberFromContext(r.Context())

	status, err := s.svc.MyRegistration(r.Context(), chi.URLParam(r, "uuid"), member.Id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	resp := struct {
		Registration  *registrationView  `json:"registration,omitempty"`
		WaitlistEntry *waitlistEntryView `json:"waitlistEntry,omitempty"`
	}{}
	if status.Registration != nil {
		resp.Registration = newRegistrationView(status.Registration)
	}
	if status.WaitlistEntry != nil {
		resp.WaitlistEntry = newWaitlistEntryView(status.WaitlistEntry)
	}
	writeJSON(w, http.StatusOK, resp)
}

type cancelRequest struct {
	Reason string `json:"reason" valid:"length(0|255)"`
}

func (s *Server) handleCancelRegistration(w http.ResponseWriter, r *http.Request) {
	member := memberFromContext(r.Context())

	var req cancelRequest
	if err := decodeJSON(r, &req); err != nil && err != io.EOF {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body: "+err.Error())
		return
	}
	reason := req.Reason
	if reason == "" {
		reason = "cancelled by member"
	}

	cancelled, err := s.svc.CancelRegistration(r.Context(), chi.URLParam(r, "uuid"), member.Id, reason)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newRegistrationView(cancelled))
}

func (s *Server) handleAcceptOffer(w http.ResponseWriter, r *http.Request) {
	member := memberFromContext(r.Context())

	if err := s.limits.CheckOfferResponse(member.Id); err != nil {
		writeError(w, http.StatusTooManyRequests, "rate_limited", err.Error())
		return
	}

	outcome, err := s.svc.AcceptOffer(r.Context(), chi.URLParam(r, "uuid"), member)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newOutcomeResponse(outcome))
}

func (s *Server) handleDeclineOffer(w http.ResponseWriter, r *http.Request) {
	member := memberFromContext(r.Context())

	if err := s.limits.CheckOfferResponse(member.Id); err != nil {
		writeError(w, http.StatusTooManyRequests, "rate_limited", err.Error())
		return
	}

	declined, err := s.svc.DeclineOffer(r.Context(), chi.URLParam(r, "uuid"), member.Id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newWaitlistEntryView(declined))
}

type addOfferingRequest struct {
	Title    string     `json:"title" valid:"required"`
	Capacity int        `json:"capacity" valid:"required,range(1|100000)"`
	Price    string     `json:"price"`
	Currency string     `json:"currency" valid:"required,length(3|3)"`
	Deadline *time.Time `json:"registrationDeadline"`
	StartsAt time.Time  `json:"startsAt" valid:"required"`
	EndsAt   time.Time  `json:"endsAt" valid:"required"`
}

func (s *Server) handleAddOffering(w http.ResponseWriter, r *http.Request) {
	var req addOfferingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body: "+err.Error())
		return
	}
	if _, err := govalidator.ValidateStruct(req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	if !req.EndsAt.After(req.StartsAt) {
		writeError(w, http.StatusBadRequest, "bad_request", "endsAt must be after startsAt")
		return
	}

	price := decimal.Zero
	if req.Price != "" {
		var err error
		price, err = decimal.NewFromString(req.Price)
		if err != nil || price.IsNegative() {
			writeError(w, http.StatusBadRequest, "bad_request", "invalid price")
			return
		}
	}

	oi := &entity.OfferingInsert{
		Title:    req.Title,
		Capacity: req.Capacity,
		Price:    price,
		Currency: req.Currency,
		StartsAt: req.StartsAt,
		EndsAt:   req.EndsAt,
	}
	if req.Deadline != nil {
		oi.Deadline = sql.NullTime{Time: *req.Deadline, Valid: true}
	}

	offering, err := s.rep.Offerings().AddOffering(r.Context(), oi)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newOfferingView(offering))
}

type setStatusRequest struct {
	Status string `json:"status" valid:"required,in(draft|open|cancelled|closed)"`
}

func (s *Server) handleSetOfferingStatus(w http.ResponseWriter, r *http.Request) {
	var req setStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body: "+err.Error())
		return
	}
	if _, err := govalidator.ValidateStruct(req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	err := s.rep.Offerings().SetOfferingStatus(r.Context(), chi.URLParam(r, "uuid"), entity.OfferingStatus(req.Status))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAttendees(w http.ResponseWriter, r *http.Request) {
	regs, entries, err := s.svc.Attendees(r.Context(), chi.URLParam(r, "uuid"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	resp := struct {
		Confirmed []*registrationView  `json:"confirmed"`
		Waitlist  []*waitlistEntryView `json:"waitlist"`
	}{
		Confirmed: []*registrationView{},
		Waitlist:  []*waitlistEntryView{},
	}
	for i := range regs {
		resp.Confirmed = append(resp.Confirmed, newRegistrationView(&regs[i]))
	}
	for i := range entries {
		resp.Waitlist = append(resp.Waitlist, newWaitlistEntryView(&entries[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePromoteNext(w http.ResponseWriter, r *http.Request) {
	promoted, err := s.svc.PromoteNext(r.Context(), chi.URLParam(r, "uuid"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if promoted == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, newWaitlistEntryView(promoted))
}

func (s *Server) handleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<16))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "can't read payload")
		return
	}

	event, err := s.proc.ParseWebhook(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_signature", err.Error())
		return
	}

	// A non-2xx answer makes the provider redeliver. Taxonomy errors here
	// (duplicate delivery against a cancelled row, capacity race) won't heal
	// on retry, so they are logged and acknowledged; only unexpected
	// failures ask for redelivery.
	switch event.Kind {
	case stripe.EventPaymentSucceeded:
		if _, err := s.svc.ConfirmPayment(r.Context(), event.RegistrationUUID, event.PaymentRef); err != nil {
			if !isTaxonomyError(err) {
				writeDomainError(w, r, err)
				return
			}
			logWebhookError(r, event.RegistrationUUID, err)
		}
	case stripe.EventPaymentFailed:
		if err := s.svc.FailPayment(r.Context(), event.RegistrationUUID); err != nil {
			if !isTaxonomyError(err) {
				writeDomainError(w, r, err)
				return
			}
			logWebhookError(r, event.RegistrationUUID, err)
		}
	}

	w.WriteHeader(http.StatusOK)
}
