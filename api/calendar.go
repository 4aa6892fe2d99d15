package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

func (a *API) calendarStatus(w http.ResponseWriter, r *http.Request) {
	conn, err := a.calendar.Status(r.Context(), principal(r))
	if err != nil {
		a.Error(w, r, err)
		return
	}
	a.Response(w, http.StatusOK, conn)
}

func (a *API) calendarAuthURL(w http.ResponseWriter, r *http.Request) {
	pending, err := a.calendar.AuthURL(principal(r))
	if err != nil {
		a.Error(w, r, err)
		return
	}
	a.Response(w, http.StatusOK, pending)
}

// calendarConnect holds the request open until the OAuth callback for state
// arrives or the connect timeout elapses.
func (a *API) calendarConnect(w http.ResponseWriter, r *http.Request) {
	state := mux.Vars(r)["state"]
	conn, err := a.calendar.Wait(r.Context(), principal(r), state)
	if err != nil {
		a.Error(w, r, err)
		return
	}
	a.Response(w, http.StatusOK, conn)
}

// calendarCallback is the OAuth redirect target. It is reached by the
// creator's browser, so it carries no bearer token; the state ties it to the
// pending handshake.
func (a *API) calendarCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	state := q.Get("state")
	if state == "" {
		a.Response(w, http.StatusBadRequest, "state is required")
		return
	}

	if reason := q.Get("error"); reason != "" {
		a.Error(w, r, a.calendar.Deny(state, reason))
		return
	}

	code := q.Get("code")
	if code == "" {
		a.Response(w, http.StatusBadRequest, "code is required")
		return
	}
	if err := a.calendar.Complete(r.Context(), state, code); err != nil {
		a.Error(w, r, err)
		return
	}
	a.Response(w, http.StatusOK, "calendar connected, you can close this window")
}

func (a *API) disconnectCalendar(w http.ResponseWriter, r *http.Request) {
	if err := a.calendar.Disconnect(r.Context(), principal(r)); err != nil {
		a.Error(w, r, err)
		return
	}
	a.Response(w, http.StatusNoContent, nil)
}
