package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"log/slog"

	gerr "github.com/klubben/events-manager/internal/errors"
)

type errorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Code: code, Error: msg})
}

func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

type mappedError struct {
	status int
	code   string
}

// Taxonomy errors map 1:1 to distinguishable statuses and machine-readable
// codes so clients can branch without parsing messages.
var errorMap = []struct {
	err    error
	mapped mappedError
}{
	{gerr.ErrOfferingNotFound, mappedError{http.StatusNotFound, "offering_not_found"}},
	{gerr.ErrRegistrationNotFound, mappedError{http.StatusNotFound, "registration_not_found"}},
	{gerr.ErrEntryNotFound, mappedError{http.StatusNotFound, "entry_not_found"}},
	{gerr.ErrOfferingNotOpen, mappedError{http.StatusUnprocessableEntity, "offering_not_open"}},
	{gerr.ErrDeadlinePassed, mappedError{http.StatusUnprocessableEntity, "deadline_passed"}},
	{gerr.ErrAlreadyRegistered, mappedError{http.StatusConflict, "already_registered"}},
	{gerr.ErrAlreadyWaitlisted, mappedError{http.StatusConflict, "already_waitlisted"}},
	{gerr.ErrRegistrationNotPending, mappedError{http.StatusConflict, "registration_not_pending"}},
	{gerr.ErrCancellationNotAllowed, mappedError{http.StatusConflict, "cancellation_not_allowed"}},
	{gerr.ErrOfferNotActive, mappedError{http.StatusConflict, "offer_not_active"}},
	{gerr.ErrOfferExpired, mappedError{http.StatusGone, "offer_expired"}},
	{gerr.ErrNoCapacity, mappedError{http.StatusConflict, "no_capacity"}},
	{gerr.ErrNotAuthorized, mappedError{http.StatusForbidden, "not_authorized"}},
	{gerr.ErrCheckoutCreationFailed, mappedError{http.StatusBadGateway, "checkout_creation_failed"}},
}

func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	for _, m := range errorMap {
		if errors.Is(err, m.err) {
			writeError(w, m.mapped.status, m.mapped.code, m.err.Error())
			return
		}
	}
	slog.Default().ErrorContext(r.Context(), "internal error",
		slog.String("err", err.Error()),
		slog.String("path", r.URL.Path),
	)
	writeError(w, http.StatusInternalServerError, "internal", "internal error")
}

func isTaxonomyError(err error) bool {
	for _, m := range errorMap {
		if errors.Is(err, m.err) {
			return true
		}
	}
	return false
}

func logWebhookError(r *http.Request, registrationUUID string, err error) {
	slog.Default().ErrorContext(r.Context(), "webhook event not applicable",
		slog.String("registration_uuid", registrationUUID),
		slog.String("err", err.Error()),
	)
}

// timePtr renders a nullable time as a JSON-friendly pointer.
func timePtr(valid bool, t time.Time) *time.Time {
	if !valid {
		return nil
	}
	return &t
}
