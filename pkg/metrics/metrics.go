// Package metrics exposes the Prometheus collectors of the checkout engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bookstore"

var (
	// Checkouts counts checkout attempts by payment method and outcome
	// (finalized, awaiting_payment, rejected).
	Checkouts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkouts_total",
		Help:      "Checkout attempts by payment method and outcome.",
	}, []string{"method", "outcome"})

	// PaymentCallbacks counts gateway callbacks by outcome.
	PaymentCallbacks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payment_callbacks_total",
		Help:      "Payment gateway callbacks by outcome.",
	}, []string{"outcome"})

	// InventoryReservations counts ledger operations by result.
	InventoryReservations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "inventory_reservations_total",
		Help:      "Inventory reservation operations by result.",
	}, []string{"result"})

	// SweptReservations counts reservations reclaimed by the sweepers.
	SweptReservations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "swept_reservations_total",
		Help:      "Expired reservations reclaimed by background sweeps.",
	}, []string{"kind"})

	// OutboxEvents counts relay attempts by result (published, retry, failed).
	OutboxEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "outbox_events_total",
		Help:      "Outbox relay attempts by result.",
	}, []string{"result"})

	// TransactionRetries counts repeated units of work by reason
	// (deadlock, lock_wait_timeout, conflict, bad_connection).
	TransactionRetries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "transaction_retries_total",
		Help:      "Database transactions repeated after a transient failure.",
	}, []string{"reason"})

	// Refunds counts wallet refunds issued on cancellation.
	Refunds = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "wallet_refunds_total",
		Help:      "Wallet refunds issued for cancelled paid orders.",
	})
)

func init() {
	prometheus.MustRegister(Checkouts, PaymentCallbacks, InventoryReservations, SweptReservations, OutboxEvents, TransactionRetries, Refunds)
}

// ServerMetrics holds the HTTP collectors of one binary.
type ServerMetrics struct {
	Requests  *prometheus.CounterVec
	LatencyMS *prometheus.HistogramVec
}

// NewServerMetrics creates and registers HTTP collectors on reg.
func NewServerMetrics(service string, reg prometheus.Registerer) *ServerMetrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: service,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"handler", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: service,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"handler"})

	reg.MustRegister(requests, latency)
	return &ServerMetrics{Requests: requests, LatencyMS: latency}
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
