package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/UnknownOlympus/meridian/internal/geocoder"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the Prometheus collectors of the geocoding worker.
type Metrics struct {
	TaskProcessed  *prometheus.CounterVec
	APIErrors      *prometheus.CounterVec
	RequestSeconds *prometheus.HistogramVec
	BatchItems     prometheus.Histogram
}

// errorKinds maps geocoder error kinds onto metric label values, most specific first.
var errorKinds = []struct {
	kind  error
	label string
}{
	{geocoder.ErrQuery, "query"},
	{geocoder.ErrAuthentication, "authentication"},
	{geocoder.ErrQuotaExceeded, "quota_exceeded"},
	{geocoder.ErrInsufficientPrivileges, "insufficient_privileges"},
	{geocoder.ErrRateLimited, "rate_limited"},
	{geocoder.ErrUnavailable, "unavailable"},
	{geocoder.ErrTimedOut, "timed_out"},
	{geocoder.ErrParse, "parse"},
	{context.Canceled, "canceled"},
	{geocoder.ErrService, "service"},
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		TaskProcessed: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "geocoding_tasks_processed_total",
			Help: "Total number of processed geocoding tasks.",
		}, []string{"status"}),
		APIErrors: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "geocoding_provider_api_errors_total",
			Help: "Total number of errors received from the geocoding provider API.",
		}, []string{"provider", "kind"}),
		RequestSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "geocoding_provider_request_duration_seconds",
			Help:    "Duration of requests to the geocoding provider API.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider", "operation"}),
		BatchItems: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "geocoding_batch_items",
			Help:    "Number of addresses submitted per geocoding batch.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 11),
		}),
	}
}

// ObserveRequest records the duration and outcome of one provider request.
func (m *Metrics) ObserveRequest(provider, operation string, duration time.Duration, err error) {
	m.RequestSeconds.WithLabelValues(provider, operation).Observe(duration.Seconds())
	if err != nil {
		m.APIErrors.WithLabelValues(provider, ErrorKind(err)).Inc()
	}
}

// ErrorKind returns the metric label for err.
func ErrorKind(err error) string {
	for _, kind := range errorKinds {
		if errors.Is(err, kind.kind) {
			return kind.label
		}
	}
	return "other"
}
