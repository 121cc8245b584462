package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storefront"

// Checkout counts payment-intent and confirmation outcomes.
type Checkout struct {
	IntentsCreated  prometheus.Counter
	IntentFailures  prometheus.Counter
	Confirmations   *prometheus.CounterVec
	ConfirmLeniency prometheus.Counter
}

// NewCheckout registers checkout metrics with reg, or the default
// registerer when reg is nil.
func NewCheckout(reg prometheus.Registerer) *Checkout {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Checkout{
		IntentsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "checkout",
			Name:      "payment_intents_created_total",
			Help:      "Payment intents successfully created.",
		}),
		IntentFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "checkout",
			Name:      "payment_intent_failures_total",
			Help:      "Payment intent creation attempts that failed.",
		}),
		Confirmations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "checkout",
			Name:      "confirmations_total",
			Help:      "Payment confirmation attempts by outcome.",
		}, []string{"outcome"}),
		ConfirmLeniency: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "checkout",
			Name:      "backend_confirm_failures_total",
			Help:      "Paid orders whose backend confirmation call failed and was flagged for reconciliation.",
		}),
	}
	reg.MustRegister(m.IntentsCreated, m.IntentFailures, m.Confirmations, m.ConfirmLeniency)
	return m
}

// Server tracks the reference backend's HTTP traffic.
type Server struct {
	Requests  *prometheus.CounterVec
	LatencyMS *prometheus.HistogramVec
}

func NewServer(reg prometheus.Registerer) *Server {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Server{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"handler", "status"}),
		LatencyMS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"handler"}),
	}
	reg.MustRegister(m.Requests, m.LatencyMS)
	return m
}

// Handler exposes the default registry for scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}
