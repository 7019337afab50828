package api

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/marketlane/storefront/internal/catalog"
)

// ListProducts returns every product in the catalog.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	var e jx.Encoder
	e.Arr(func(e *jx.Encoder) {
		for _, p := range h.catalog.List() {
			encodeProduct(e, p)
		}
	})
	writeJSON(w, http.StatusOK, &e)
}

// GetProduct returns a single product by ID and counts the view.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.catalog.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}
	h.metrics.IncProductViews(p.ID)

	var e jx.Encoder
	encodeProduct(&e, p)
	writeJSON(w, http.StatusOK, &e)
}

func encodeProduct(e *jx.Encoder, p catalog.Product) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(p.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(p.Name) })
		e.Field("price", func(e *jx.Encoder) { e.Float64(p.Price.InexactFloat64()) })
		e.Field("description", func(e *jx.Encoder) { e.Str(p.Description) })
		e.Field("badge", func(e *jx.Encoder) { e.Str(p.Badge) })
	})
}
