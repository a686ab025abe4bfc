// Package monitoring exports prometheus metrics for the drink stand.
package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "drinkstand"

type Metrics struct {
	registry *prometheus.Registry

	ordersCreated   prometheus.Counter
	transitions     *prometheus.CounterVec
	ordersCleared   prometheus.Counter
	orderTurnaround prometheus.Histogram
	viewReloads     *prometheus.CounterVec
	liveViews       prometheus.Gauge
	storeErrors     *prometheus.CounterVec
}

// New builds the metrics on their own registry, alongside the go runtime
// and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ordersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_created_total",
			Help:      "Orders accepted from customers.",
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_transitions_total",
			Help:      "Order status changes made by staff, by target status.",
		}, []string{"status"}),
		ordersCleared: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_cleared_total",
			Help:      "Orders removed by clearing all orders.",
		}),
		orderTurnaround: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "order_turnaround_seconds",
			Help:      "Time from order placement to completion.",
			Buckets:   prometheus.LinearBuckets(60, 120, 10),
		}),
		viewReloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "view_reloads_total",
			Help:      "Live view re-reads, by view and result.",
		}, []string{"view", "result"}),
		liveViews: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_views",
			Help:      "Live views currently mounted.",
		}),
		storeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_errors_total",
			Help:      "Failed record store calls, by operation.",
		}, []string{"op"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.ordersCreated,
		m.transitions,
		m.ordersCleared,
		m.orderTurnaround,
		m.viewReloads,
		m.liveViews,
		m.storeErrors,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) OrderCreated() {
	m.ordersCreated.Inc()
}

func (m *Metrics) OrderTransitioned(status string) {
	m.transitions.WithLabelValues(status).Inc()
}

func (m *Metrics) OrderCompleted(placed, completed time.Time) {
	m.orderTurnaround.Observe(completed.Sub(placed).Seconds())
}

func (m *Metrics) OrdersCleared(n int64) {
	m.ordersCleared.Add(float64(n))
}

func (m *Metrics) StoreError(op string) {
	m.storeErrors.WithLabelValues(op).Inc()
}

// ViewMounted, ViewUnmounted and ViewReloaded let Metrics observe live
// views.
func (m *Metrics) ViewMounted(string) {
	m.liveViews.Inc()
}

func (m *Metrics) ViewUnmounted(string) {
	m.liveViews.Dec()
}

func (m *Metrics) ViewReloaded(view string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.viewReloads.WithLabelValues(view, result).Inc()
}
