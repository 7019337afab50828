package api

import (
	"io"
	"net/http"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// maxBodyBytes bounds request bodies; cart payloads are tiny.
const maxBodyBytes = 1 << 20

// AddToCart validates an {id, qty} payload against the catalog and counts
// the action. Nothing is persisted; the cart lives on the client.
func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid payload")
		return
	}

	id, qty, err := decodeCartAdd(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid payload")
		return
	}

	p, catErr := h.catalog.Get(id)
	if catErr != nil || qty <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid payload")
		return
	}

	h.metrics.AddToCart(p.ID, qty)
	zctx.From(r.Context()).Info("add_to_cart",
		zap.String("product_id", p.ID),
		zap.Int("qty", qty),
	)

	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("ok", func(e *jx.Encoder) { e.Bool(true) })
	})
	writeJSON(w, http.StatusOK, &e)
}

// decodeCartAdd parses an {id, qty} body. Quantities must be JSON integers;
// fractional numbers fail here and are rejected as invalid payloads.
func decodeCartAdd(data []byte) (id string, qty int, err error) {
	d := jx.DecodeBytes(data)
	err = d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "id":
			v, err := d.Str()
			id = v
			return err
		case "qty":
			v, err := d.Int()
			qty = v
			return err
		default:
			return d.Skip()
		}
	})
	return id, qty, err
}
