package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default is the process-wide metrics set; promauto registers collectors
// globally so this must only be built once.
var Default = NewMetrics("bookkeys")

// Metrics holds all prometheus metrics
type Metrics struct {
	RequestsSubmitted  prometheus.Counter
	RequestsAccepted   prometheus.Counter
	RequestsDeclined   prometheus.Counter
	RequestsExpired    prometheus.Counter
	SlotQueries        prometheus.Counter
	FinalizeFailures   prometheus.Counter
	HTTPRequests       *prometheus.CounterVec
}

// NewMetrics creates new prometheus metrics
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		RequestsSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_submitted_total",
			Help:      "The total number of booking requests submitted",
		}),
		RequestsAccepted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_accepted_total",
			Help:      "The total number of booking requests accepted",
		}),
		RequestsDeclined: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_declined_total",
			Help:      "The total number of booking requests declined",
		}),
		RequestsExpired: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_expired_total",
			Help:      "The total number of booking requests that expired",
		}),
		SlotQueries: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slot_queries_total",
			Help:      "The total number of availability slot queries",
		}),
		FinalizeFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "finalize_failures_total",
			Help:      "The total number of failed calendar finalizations",
		}),
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "The total number of HTTP requests",
		}, []string{"method", "status"}),
	}
}
