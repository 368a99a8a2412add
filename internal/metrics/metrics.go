// Package metrics holds the Prometheus collectors for till activity.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

const namespace = "pos"

type Metrics struct {
	CheckoutsTotal     *prometheus.CounterVec
	CheckoutFailures   prometheus.Counter
	SaleRevenue        *prometheus.CounterVec
	SaleItems          prometheus.Histogram
	SalesDeleted       prometheus.Counter
	ScansTotal         *prometheus.CounterVec
	AssistantRequests  *prometheus.CounterVec
	AssistantDurations prometheus.Histogram
}

// New builds the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CheckoutsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkouts_total",
			Help:      "Committed checkouts by payment method",
		}, []string{"payment_method"}),
		CheckoutFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_failures_total",
			Help:      "Checkouts rolled back",
		}),
		SaleRevenue: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sale_revenue_total",
			Help:      "Revenue of committed sales by payment method",
		}, []string{"payment_method"}),
		SaleItems: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sale_items",
			Help:      "Units per sale",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21, 34},
		}),
		SalesDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sales_deleted_total",
			Help:      "Sales reversed by an admin",
		}),
		ScansTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scans_total",
			Help:      "Barcode scans by result",
		}, []string{"result"}),
		AssistantRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assistant_requests_total",
			Help:      "Assistant webhook calls by outcome",
		}, []string{"outcome"}),
		AssistantDurations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "assistant_request_seconds",
			Help:      "Assistant webhook latency",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.CheckoutsTotal, m.CheckoutFailures, m.SaleRevenue, m.SaleItems,
			m.SalesDeleted, m.ScansTotal, m.AssistantRequests, m.AssistantDurations,
		)
	}
	return m
}

func (m *Metrics) ObserveCheckout(method string, total decimal.Decimal, units int) {
	if m == nil {
		return
	}
	f, _ := total.Float64()
	m.CheckoutsTotal.WithLabelValues(method).Inc()
	m.SaleRevenue.WithLabelValues(method).Add(f)
	m.SaleItems.Observe(float64(units))
}

func (m *Metrics) ObserveCheckoutFailure() {
	if m == nil {
		return
	}
	m.CheckoutFailures.Inc()
}

func (m *Metrics) ObserveSaleDeleted() {
	if m == nil {
		return
	}
	m.SalesDeleted.Inc()
}

func (m *Metrics) ObserveScan(found bool) {
	if m == nil {
		return
	}
	result := "hit"
	if !found {
		result = "miss"
	}
	m.ScansTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveAssistant(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.AssistantRequests.WithLabelValues(outcome).Inc()
	m.AssistantDurations.Observe(seconds)
}
