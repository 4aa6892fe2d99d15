package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"session-booking/metrics"
)

func TestMetrics(t *testing.T) {
	m := metrics.New()

	m.SlotsRegenerated(3, 1, 2)
	m.SlotsRegenerated(1, 0, 0)
	m.SlotClaim(true)
	m.SlotClaim(false)
	m.SlotClaim(false)
	m.BookingTransition("confirmed")
	m.MeetingLink("created")

	count, err := testutil.GatherAndCount(m.Registry(), "session_booking_slots_regenerated_total")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	expected := `
# HELP session_booking_slot_claims_total Slot claim attempts, by result.
# TYPE session_booking_slot_claims_total counter
session_booking_slot_claims_total{result="claimed"} 1
session_booking_slot_claims_total{result="conflict"} 2
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "session_booking_slot_claims_total"))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `session_booking_booking_transitions_total{status="confirmed"} 1`)
	assert.Contains(t, rec.Body.String(), `session_booking_slots_regenerated_total{outcome="inserted"} 4`)
}

func TestNilMetrics(t *testing.T) {
	var m *metrics.Metrics

	assert.NotPanics(t, func() {
		m.SlotsRegenerated(1, 1, 1)
		m.SlotClaim(true)
		m.BookingTransition("cancelled")
		m.MeetingLink("failed")
	})
	assert.Nil(t, m.Registry())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
