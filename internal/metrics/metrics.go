// Package metrics owns the Prometheus registry and every storefront metric.
// Metric names and buckets are part of the operational contract; dashboards
// depend on them.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the storefront instruments on a private registry. Every
// series carries a constant "app" label.
type Metrics struct {
	registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	productViews    *prometheus.CounterVec
	addToCart       *prometheus.CounterVec
	checkouts       prometheus.Counter
	checkoutValue   prometheus.Histogram
	lastItems       prometheus.Gauge
}

// New creates a registry with Go and process collectors plus the storefront
// instruments, labelled with app=appName.
func New(appName string) *Metrics {
	registry := prometheus.NewRegistry()
	reg := prometheus.WrapRegistererWith(prometheus.Labels{"app": appName}, registry)

	m := &Metrics{
		registry: registry,
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "Duration of HTTP requests in seconds",
		}, []string{"method", "route", "status_code"}),
		productViews: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ecommerce_product_views_total",
			Help: "Product detail views",
		}, []string{"product_id"}),
		addToCart: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ecommerce_add_to_cart_total",
			Help: "Add to cart actions",
		}, []string{"product_id"}),
		checkouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ecommerce_checkout_total",
			Help: "Checkout actions",
		}),
		checkoutValue: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ecommerce_checkout_value",
			Help:    "Checkout order value",
			Buckets: []float64{0, 10, 20, 50, 100, 200, 500},
		}),
		lastItems: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ecommerce_checkout_items_last",
			Help: "Item count in the most recent checkout",
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requestDuration,
		m.productViews,
		m.addToCart,
		m.checkouts,
		m.checkoutValue,
		m.lastItems,
	)
	return m
}

// Handler returns the /metrics exposition handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one completed HTTP request.
func (m *Metrics) ObserveRequest(method, route, statusCode string, seconds float64) {
	m.requestDuration.WithLabelValues(method, route, statusCode).Observe(seconds)
}

// IncProductViews counts one product detail view.
func (m *Metrics) IncProductViews(productID string) {
	m.productViews.WithLabelValues(productID).Inc()
}

// AddToCart counts an add-to-cart action for qty units.
func (m *Metrics) AddToCart(productID string, qty int) {
	m.addToCart.WithLabelValues(productID).Add(float64(qty))
}

// IncCheckouts counts one completed checkout.
func (m *Metrics) IncCheckouts() {
	m.checkouts.Inc()
}

// ObserveCheckoutValue records the total of a completed checkout.
func (m *Metrics) ObserveCheckoutValue(total float64) {
	m.checkoutValue.Observe(total)
}

// SetLastCheckoutItems records the item count of the most recent checkout.
func (m *Metrics) SetLastCheckoutItems(count float64) {
	m.lastItems.Set(count)
}
