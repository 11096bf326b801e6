package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "travelapi_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "travelapi_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	searchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "travelapi_searches_total",
		Help: "Count of availability searches by result",
	}, []string{"result"})

	searchCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "travelapi_search_cache_lookups_total",
		Help: "Count of search cache lookups by outcome",
	}, []string{"outcome"})

	bookingsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "travelapi_bookings_total",
		Help: "Count of booking attempts by result",
	}, []string{"result"})

	bookingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "travelapi_booking_duration_seconds",
		Help:    "Duration of booking transactions",
		Buckets: prometheus.DefBuckets,
	}, []string{"result"})

	housesTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "travelapi_houses",
		Help: "Number of houses known to the service",
	})

	upcomingBookings = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "travelapi_upcoming_bookings",
		Help: "Number of bookings whose range has not yet fully elapsed",
	})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveSearch increments the search counter for the given result.
func ObserveSearch(result string) {
	searchesTotal.WithLabelValues(result).Inc()
}

// ObserveSearchCache records a cache lookup outcome ("hit" or "miss").
func ObserveSearchCache(outcome string) {
	searchCacheLookups.WithLabelValues(outcome).Inc()
}

// ObserveBooking records the duration of a booking attempt with a result label.
func ObserveBooking(result string, duration time.Duration) {
	bookingsTotal.WithLabelValues(result).Inc()
	bookingDuration.WithLabelValues(result).Observe(duration.Seconds())
}

// SetHouses sets the house-count gauge.
func SetHouses(count int) {
	if count < 0 {
		count = 0
	}
	housesTotal.Set(float64(count))
}

// SetUpcomingBookings sets the upcoming-bookings gauge.
func SetUpcomingBookings(count int) {
	if count < 0 {
		count = 0
	}
	upcomingBookings.Set(float64(count))
}
