package application

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/parkingmate/service-parking/internal/common/domain"
)

var (
	bookingRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "parking_booking_requests_total",
		Help: "Booking operations grouped by operation and outcome.",
	}, []string{"operation", "outcome"})

	bookingLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "parking_booking_duration_seconds",
		Help:    "Latency of booking operations.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
)

func outcomeOf(err error) string {
	if err == nil {
		return "success"
	}
	return strings.ToLower(string(domain.CodeOf(err)))
}
