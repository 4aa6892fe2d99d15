// Package metrics exposes the booking counters on a dedicated prometheus
// registry. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "session_booking"

type Metrics struct {
	registry *prometheus.Registry

	slotsGenerated *prometheus.CounterVec
	slotClaims     *prometheus.CounterVec
	transitions    *prometheus.CounterVec
	meetingLinks   *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		slotsGenerated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slots_regenerated_total",
			Help:      "Slots touched by regeneration, by outcome.",
		}, []string{"outcome"}),
		slotClaims: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slot_claims_total",
			Help:      "Slot claim attempts, by result.",
		}, []string{"result"}),
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_transitions_total",
			Help:      "Booking status transitions, by target status.",
		}, []string{"status"}),
		meetingLinks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "meeting_links_total",
			Help:      "Meeting link creation attempts, by result.",
		}, []string{"result"}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) SlotsRegenerated(inserted, removed, skipped int) {
	if m == nil {
		return
	}
	m.slotsGenerated.WithLabelValues("inserted").Add(float64(inserted))
	m.slotsGenerated.WithLabelValues("removed").Add(float64(removed))
	m.slotsGenerated.WithLabelValues("skipped").Add(float64(skipped))
}

func (m *Metrics) SlotClaim(ok bool) {
	if m == nil {
		return
	}
	result := "claimed"
	if !ok {
		result = "conflict"
	}
	m.slotClaims.WithLabelValues(result).Inc()
}

func (m *Metrics) BookingTransition(status string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(status).Inc()
}

func (m *Metrics) MeetingLink(result string) {
	if m == nil {
		return
	}
	m.meetingLinks.WithLabelValues(result).Inc()
}
