package api

import (
	"encoding/json"
	"net/http"

	"session-booking/session"
)

type getSessionsResponse struct {
	Sessions []session.Session `json:"sessions"`
}

// createSession registers a session owned by the caller.
func (a *API) createSession(w http.ResponseWriter, r *http.Request) {
	var payload session.Session
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		a.Response(w, http.StatusBadRequest, "invalid request body")
		return
	}
	payload.CreatorID = principal(r)

	if err := payload.Validate(); err != nil {
		a.Response(w, http.StatusBadRequest, "validate: "+err.Error())
		return
	}

	created, err := a.sessions.CreateSession(r.Context(), payload, a.now().UTC())
	if err != nil {
		a.Error(w, r, err)
		return
	}
	a.Response(w, http.StatusCreated, created)
}

func (a *API) getSession(w http.ResponseWriter, r *http.Request) {
	s, ok := a.loadSession(w, r)
	if !ok {
		return
	}
	a.Response(w, http.StatusOK, s)
}

func (a *API) getCommunitySessions(w http.ResponseWriter, r *http.Request) {
	communityID, ok := a.pathID(w, r, "community")
	if !ok {
		return
	}

	sessions, err := a.sessions.GetCommunitySessions(r.Context(), communityID)
	if err != nil {
		a.Error(w, r, err)
		return
	}
	if sessions == nil {
		sessions = []session.Session{}
	}
	a.Response(w, http.StatusOK, getSessionsResponse{Sessions: sessions})
}
