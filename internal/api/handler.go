// Package api exposes the storefront HTTP surface. All request and response
// bodies are JSON; errors use a structured {"error": "..."} body with a short
// message and no internal details.
package api

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/marketlane/storefront/internal/catalog"
	"github.com/marketlane/storefront/internal/checkout"
	"github.com/marketlane/storefront/internal/metrics"
	"github.com/marketlane/storefront/internal/order"
)

// Handler routes API requests to the catalog, checkout service, and order
// ledger.
type Handler struct {
	catalog  *catalog.Catalog
	checkout *checkout.Service
	ledger   order.Ledger
	metrics  *metrics.Metrics
}

// NewHandler constructs a Handler with the required dependencies.
func NewHandler(
	cat *catalog.Catalog,
	checkoutSvc *checkout.Service,
	ledger order.Ledger,
	m *metrics.Metrics,
) *Handler {
	return &Handler{
		catalog:  cat,
		checkout: checkoutSvc,
		ledger:   ledger,
		metrics:  m,
	}
}

// Mux returns a ServeMux with every route registered, including the health
// and metrics endpoints.
func (h *Handler) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/products", h.ListProducts)
	mux.HandleFunc("GET /api/product/{id}", h.GetProduct)
	mux.HandleFunc("POST /api/cart/add", h.AddToCart)
	mux.HandleFunc("POST /api/checkout", h.Checkout)
	mux.HandleFunc("GET /api/orders", h.ListOrders)
	mux.HandleFunc("GET /health", h.Health)
	mux.Handle("GET /metrics", h.metrics.Handler())
	return mux
}

// Health reports service liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("status", func(e *jx.Encoder) { e.Str("ok") })
	})
	writeJSON(w, http.StatusOK, &e)
}
