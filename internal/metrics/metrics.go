package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/itsalifarrukh/hb-apparel/internal/response"
)

const namespace = "hbapparel"

// Metrics groups every collector the service exports.
type Metrics struct {
	Requests       *prometheus.CounterVec
	LatencyMS      *prometheus.HistogramVec
	WebhookEvents  *prometheus.CounterVec
	OrdersPlaced   prometheus.Counter
	PaymentIntents *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New registers the collectors on reg. Pass prometheus.NewRegistry() in tests.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"handler", "status"}),
		LatencyMS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"handler"}),
		WebhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_webhook_events_total",
			Help:      "Payment webhook events by type and outcome.",
		}, []string{"type", "outcome"}),
		OrdersPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_placed_total",
			Help:      "Orders created from a cart.",
		}),
		PaymentIntents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_intents_total",
			Help:      "Payment intents created, by mode and outcome.",
		}, []string{"mode", "outcome"}),
		gatherer: reg,
	}
	reg.MustRegister(m.Requests, m.LatencyMS, m.WebhookEvents, m.OrdersPlaced, m.PaymentIntents)
	return m
}

// Middleware records request count and latency per matched route.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = response.StatusOf(err)
		}
		route := c.Route().Path
		m.Requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
		m.LatencyMS.WithLabelValues(route).Observe(float64(time.Since(start).Milliseconds()))
		return err
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{}))
}

// Nop returns metrics bound to a throwaway registry.
func Nop() *Metrics {
	return New(prometheus.NewRegistry())
}
