package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "gomoldova"

// HTTPMetrics метрики API. Регистрируются в переданном Registerer,
// в main это prometheus.DefaultRegisterer, отдаваемый через /metrics.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	inFlight prometheus.Gauge
}

func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	f := promauto.With(reg)
	return &HTTPMetrics{
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Запросы к API по маршруту и коду ответа",
		}, []string{"method", "route", "code"}),
		// поиск и принятие заявки самые медленные, до секунды
		latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Время обработки запроса",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"method", "route"}),
		inFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Запросы в обработке",
		}),
	}
}

// Handler маршрут берется из шаблона gin, чтобы id не раздували кардинальность
func (m *HTTPMetrics) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		m.inFlight.Inc()
		started := time.Now()

		c.Next()

		m.inFlight.Dec()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.latency.WithLabelValues(c.Request.Method, route).Observe(time.Since(started).Seconds())
	}
}

var (
	defaultHTTPMetrics = NewHTTPMetrics(prometheus.DefaultRegisterer)

	BookingOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "booking_outcomes_total",
		Help:      "Результаты операций с заявками на бронирование",
	}, []string{"action", "outcome"})

	DuplicateSubmissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "duplicate_submissions_total",
		Help:      "Запросы, отклоненные из-за незавершенного такого же запроса",
	}, []string{"endpoint"})
)

// PrometheusMiddleware HTTP метрики в реестре по умолчанию
func PrometheusMiddleware() gin.HandlerFunc {
	return defaultHTTPMetrics.Handler()
}

// TrackBookingOutcome передается в booking.WithObserver
func TrackBookingOutcome(action, outcome string) {
	BookingOutcomes.WithLabelValues(action, outcome).Inc()
}
