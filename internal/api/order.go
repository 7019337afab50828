package api

import (
	"io"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/marketlane/storefront/internal/checkout"
)

// recentOrdersLimit caps the /api/orders projection.
const recentOrdersLimit = 20

// Checkout runs the cart through the checkout service and reports the new
// order. Validation failures map to 400, persistence failures to 500.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid item")
		return
	}

	items, err := decodeCheckout(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid item")
		return
	}

	receipt, err := h.checkout.Checkout(r.Context(), items)
	if err != nil {
		switch {
		case errors.Is(err, checkout.ErrEmptyCart):
			writeError(w, http.StatusBadRequest, "No items")
		case checkout.IsValidation(err):
			writeError(w, http.StatusBadRequest, "Invalid item")
		default:
			writeError(w, http.StatusInternalServerError, "DB error")
		}
		return
	}

	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("ok", func(e *jx.Encoder) { e.Bool(true) })
		e.Field("total", func(e *jx.Encoder) { e.Float64(receipt.Total.InexactFloat64()) })
		e.Field("order_id", func(e *jx.Encoder) { e.Int64(receipt.OrderID) })
	})
	writeJSON(w, http.StatusOK, &e)
}

// ListOrders returns the newest order summaries, most recent first.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.ledger.ListRecent(r.Context(), recentOrdersLimit)
	if err != nil {
		zctx.From(r.Context()).Error("orders_list_failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "DB error")
		return
	}

	var e jx.Encoder
	e.Arr(func(e *jx.Encoder) {
		for _, s := range summaries {
			e.Obj(func(e *jx.Encoder) {
				e.Field("id", func(e *jx.Encoder) { e.Int64(s.ID) })
				e.Field("total", func(e *jx.Encoder) { e.Float64(s.Total.InexactFloat64()) })
				e.Field("item_count", func(e *jx.Encoder) { e.Int(s.ItemCount) })
				e.Field("created_at", func(e *jx.Encoder) {
					e.Str(s.CreatedAt.UTC().Format(time.RFC3339Nano))
				})
			})
		}
	})
	writeJSON(w, http.StatusOK, &e)
}

// decodeCheckout parses an {items:[{id, qty}]} body. Quantities must be JSON
// integers; fractional numbers fail here and are rejected as invalid items.
func decodeCheckout(data []byte) ([]checkout.CartItem, error) {
	var items []checkout.CartItem
	d := jx.DecodeBytes(data)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		if key != "items" {
			return d.Skip()
		}
		return d.Arr(func(d *jx.Decoder) error {
			var item checkout.CartItem
			if err := d.Obj(func(d *jx.Decoder, key string) error {
				switch key {
				case "id":
					v, err := d.Str()
					item.ProductID = v
					return err
				case "qty":
					v, err := d.Int()
					item.Qty = v
					return err
				default:
					return d.Skip()
				}
			}); err != nil {
				return err
			}
			items = append(items, item)
			return nil
		})
	})
	return items, err
}
