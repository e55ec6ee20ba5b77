package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is safe to use as a nil pointer; every method becomes a no-op.
type Metrics struct {
	bookings       *prometheus.CounterVec
	bookingLatency *prometheus.HistogramVec
	codeRequests   *prometheus.CounterVec
	codeChecks     *prometheus.CounterVec
	slotsGenerated *prometheus.CounterVec
	lifecycle      *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		bookings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salonbook",
			Subsystem: "booking",
			Name:      "attempts_total",
			Help:      "Booking attempts by outcome",
		}, []string{"outcome"}),
		bookingLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "salonbook",
			Subsystem: "booking",
			Name:      "duration_seconds",
			Help:      "Latency of booking attempts",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		codeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salonbook",
			Subsystem: "verification",
			Name:      "requests_total",
			Help:      "Verification code requests by outcome",
		}, []string{"outcome"}),
		codeChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salonbook",
			Subsystem: "verification",
			Name:      "validations_total",
			Help:      "Verification code validations by outcome",
		}, []string{"outcome"}),
		slotsGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salonbook",
			Subsystem: "slots",
			Name:      "generated_total",
			Help:      "Time slots written by the generator",
		}, []string{"source"}),
		lifecycle: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salonbook",
			Subsystem: "appointment",
			Name:      "transitions_total",
			Help:      "Appointment status changes",
		}, []string{"to"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookings, m.bookingLatency, m.codeRequests, m.codeChecks, m.slotsGenerated, m.lifecycle)
	return m
}

func (m *Metrics) ObserveBooking(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.bookings.WithLabelValues(outcome).Inc()
	m.bookingLatency.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveCodeRequest(outcome string) {
	if m == nil {
		return
	}
	m.codeRequests.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveCodeValidation(outcome string) {
	if m == nil {
		return
	}
	m.codeChecks.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveSlotsGenerated(source string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.slotsGenerated.WithLabelValues(source).Add(float64(n))
}

func (m *Metrics) ObserveTransition(to string) {
	if m == nil {
		return
	}
	m.lifecycle.WithLabelValues(to).Inc()
}
