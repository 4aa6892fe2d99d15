package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"

	"session-booking/booking"
)

type createBookingRequest struct {
	SlotID uuid.UUID `json:"slotId"`
	Notes  string    `json:"notes"`
}

type cancelBookingRequest struct {
	Reason string `json:"reason"`
}

type getBookingsResponse struct {
	Bookings []booking.Booking `json:"bookings"`
}

type meetingLinkResponse struct {
	MeetingURL string `json:"meetingUrl"`
}

func (a *API) createBooking(w http.ResponseWriter, r *http.Request) {
	s, ok := a.loadSession(w, r)
	if !ok {
		return
	}

	var payload createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		a.Response(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req := booking.BookRequest{
		SessionID: s.ID,
		SlotID:    payload.SlotID,
		UserID:    principal(r),
		Notes:     payload.Notes,
	}
	if err := req.Validate(); err != nil {
		a.Response(w, http.StatusBadRequest, "validate: "+err.Error())
		return
	}

	b, err := a.bookings.Book(r.Context(), req)
	if err != nil {
		a.Error(w, r, err)
		return
	}
	a.Response(w, http.StatusCreated, b)
}

func (a *API) listSessionBookings(w http.ResponseWriter, r *http.Request) {
	s, ok := a.ownedSession(w, r)
	if !ok {
		return
	}

	status := booking.Status(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		a.Response(w, http.StatusBadRequest, "invalid status")
		return
	}

	bookings, err := a.bookings.ListForSession(r.Context(), s.ID, status)
	if err != nil {
		a.Error(w, r, err)
		return
	}
	a.Response(w, http.StatusOK, getBookingsResponse{Bookings: bookings})
}

func (a *API) listMyBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := a.bookings.ListForUser(r.Context(), principal(r))
	if err != nil {
		a.Error(w, r, err)
		return
	}
	a.Response(w, http.StatusOK, getBookingsResponse{Bookings: bookings})
}

// loadBooking fetches the {id} booking and checks that allow accepts the
// caller. On failure the response is already written.
func (a *API) loadBooking(w http.ResponseWriter, r *http.Request, allow func(b *booking.Booking, caller uuid.UUID) bool) (*booking.Booking, bool) {
	id, ok := a.pathID(w, r, "booking")
	if !ok {
		return nil, false
	}
	b, err := a.bookings.Get(r.Context(), id)
	if err != nil {
		a.Error(w, r, err)
		return nil, false
	}
	if !allow(b, principal(r)) {
		a.Error(w, r, errForbidden)
		return nil, false
	}
	return b, true
}

func participant(b *booking.Booking, caller uuid.UUID) bool {
	return b.Involves(caller)
}

func creator(b *booking.Booking, caller uuid.UUID) bool {
	return b.CreatorID == caller
}

func (a *API) getBooking(w http.ResponseWriter, r *http.Request) {
	b, ok := a.loadBooking(w, r, participant)
	if !ok {
		return
	}
	a.Response(w, http.StatusOK, b)
}

func (a *API) confirmBooking(w http.ResponseWriter, r *http.Request) {
	b, ok := a.loadBooking(w, r, creator)
	if !ok {
		return
	}

	confirmed, err := a.bookings.Confirm(r.Context(), b.ID)
	if err != nil {
		a.Error(w, r, err)
		return
	}
	a.Response(w, http.StatusOK, confirmed)
}

func (a *API) cancelBooking(w http.ResponseWriter, r *http.Request) {
	b, ok := a.loadBooking(w, r, participant)
	if !ok {
		return
	}

	// The body is optional.
	var payload cancelBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		a.Response(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cancelled, err := a.bookings.Cancel(r.Context(), b.ID, payload.Reason)
	if err != nil {
		a.Error(w, r, err)
		return
	}
	a.Response(w, http.StatusOK, cancelled)
}

func (a *API) completeBooking(w http.ResponseWriter, r *http.Request) {
	b, ok := a.loadBooking(w, r, creator)
	if !ok {
		return
	}

	completed, err := a.bookings.Complete(r.Context(), b.ID)
	if err != nil {
		a.Error(w, r, err)
		return
	}
	a.Response(w, http.StatusOK, completed)
}

func (a *API) createMeetingLink(w http.ResponseWriter, r *http.Request) {
	b, ok := a.loadBooking(w, r, creator)
	if !ok {
		return
	}

	url, err := a.bookings.CreateMeetingLink(r.Context(), b.ID)
	if err != nil {
		a.Error(w, r, err)
		return
	}
	a.Response(w, http.StatusOK, meetingLinkResponse{MeetingURL: url})
}
