package api

import (
	"encoding/json"
	"net/http"

	"session-booking/availability"
	"session-booking/slot"
)

type getSlotsResponse struct {
	Slots []slot.Slot `json:"slots"`
}

// generateSlotsRequest takes calendar dates in the session's timezone.
type generateSlotsRequest struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

func (a *API) getAvailableHours(w http.ResponseWriter, r *http.Request) {
	s, ok := a.loadSession(w, r)
	if !ok {
		return
	}

	cfg, err := a.availability.GetAvailableHours(r.Context(), s.ID)
	if err != nil {
		a.Error(w, r, err)
		return
	}
	a.Response(w, http.StatusOK, cfg)
}

func (a *API) setAvailableHours(w http.ResponseWriter, r *http.Request) {
	s, ok := a.ownedSession(w, r)
	if !ok {
		return
	}

	var payload availability.Config
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		a.Response(w, http.StatusBadRequest, "invalid request body")
		return
	}
	payload.SessionID = s.ID

	saved, err := a.availability.SetAvailableHours(r.Context(), payload)
	if err != nil {
		a.Error(w, r, err)
		return
	}
	a.Response(w, http.StatusOK, saved)
}

func (a *API) getAvailableSlots(w http.ResponseWriter, r *http.Request) {
	s, ok := a.loadSession(w, r)
	if !ok {
		return
	}

	slots, err := a.availability.GetAvailableSlots(r.Context(), s.ID)
	if err != nil {
		a.Error(w, r, err)
		return
	}
	a.Response(w, http.StatusOK, getSlotsResponse{Slots: slots})
}

func (a *API) generateSlots(w http.ResponseWriter, r *http.Request) {
	s, ok := a.ownedSession(w, r)
	if !ok {
		return
	}

	var req generateSlotsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.Response(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cfg, err := a.availability.GetAvailableHours(r.Context(), s.ID)
	if err != nil {
		a.Error(w, r, err)
		return
	}
	start, err := cfg.ParseDate(req.StartDate)
	if err != nil {
		a.Error(w, r, err)
		return
	}
	end, err := cfg.ParseDate(req.EndDate)
	if err != nil {
		a.Error(w, r, err)
		return
	}

	result, err := a.availability.GenerateSlots(r.Context(), s.ID, start, end)
	if err != nil {
		a.Error(w, r, err)
		return
	}
	a.Response(w, http.StatusOK, result)
}
