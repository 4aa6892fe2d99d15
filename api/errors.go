package api

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"session-booking/availability"
	"session-booking/booking"
	"session-booking/calendar"
	"session-booking/session"
	"session-booking/slot"
)

var errForbidden = errors.New("forbidden")

func statusFor(err error) int {
	switch {
	case errors.Is(err, availability.ErrInvalidWindow),
		errors.Is(err, availability.ErrInvalidRule),
		errors.Is(err, availability.ErrInvalidConfig):
		return http.StatusBadRequest
	case errors.Is(err, slot.ErrSlotUnavailable),
		errors.Is(err, booking.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, calendar.ErrNotConnected),
		errors.Is(err, calendar.ErrAccessExpired):
		return http.StatusPreconditionFailed
	case errors.Is(err, calendar.ErrConnectionTimedOut):
		return http.StatusRequestTimeout
	case errors.Is(err, booking.ErrNotFound),
		errors.Is(err, slot.ErrNotFound),
		errors.Is(err, calendar.ErrUnknownState):
		return http.StatusNotFound
	case errors.Is(err, errForbidden),
		errors.Is(err, calendar.ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, calendar.ErrNotConfigured):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error writes err with the status its sentinel maps to. Unmapped errors are
// logged and hidden behind a generic message.
func (a *API) Error(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		a.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		a.Response(w, status, "internal server error")
		return
	}
	a.Response(w, status, err.Error())
}

// pathID parses the {id} route variable. On failure the 400 is already written.
func (a *API) pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id := mux.Vars(r)["id"]
	if id == "" {
		a.Response(w, http.StatusBadRequest, name+" ID is required")
		return uuid.Nil, false
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		a.Response(w, http.StatusBadRequest, "invalid "+name+" ID")
		return uuid.Nil, false
	}
	return parsed, true
}

// loadSession fetches the {id} session. On failure the response is already
// written.
func (a *API) loadSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id, ok := a.pathID(w, r, "session")
	if !ok {
		return nil, false
	}
	s, err := a.sessions.GetSession(r.Context(), id)
	if err != nil {
		a.Error(w, r, err)
		return nil, false
	}
	if s == nil {
		a.Response(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	return s, true
}

// ownedSession is loadSession restricted to the session's creator.
func (a *API) ownedSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, ok := a.loadSession(w, r)
	if !ok {
		return nil, false
	}
	if !s.IsOwnedBy(principal(r)) {
		a.Error(w, r, errForbidden)
		return nil, false
	}
	return s, true
}
