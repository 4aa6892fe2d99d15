package api

import (
	"encoding/json"
	"net/http"

	"session-booking/user"
)

func (a *API) createUser(w http.ResponseWriter, r *http.Request) {
	var payload user.User

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		a.Response(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := payload.Validate(); err != nil {
		a.Response(w, http.StatusBadRequest, "validate: "+err.Error())
		return
	}

	created, err := a.users.CreateUser(r.Context(), payload, a.now().UTC())
	if err != nil {
		a.Error(w, r, err)
		return
	}
	a.Response(w, http.StatusCreated, created)
}

func (a *API) getUser(w http.ResponseWriter, r *http.Request) {
	id, ok := a.pathID(w, r, "user")
	if !ok {
		return
	}

	u, err := a.users.GetUser(r.Context(), id)
	if err != nil {
		a.Error(w, r, err)
		return
	}
	if u == nil {
		a.Response(w, http.StatusNotFound, "user not found")
		return
	}

	a.Response(w, http.StatusOK, u)
}
