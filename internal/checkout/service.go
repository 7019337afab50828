// Package checkout validates carts against the catalog, computes totals, and
// persists orders atomically.
package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/marketlane/storefront/internal/catalog"
	"github.com/marketlane/storefront/internal/order"
)

// ErrEmptyCart is returned when a checkout is attempted with no items.
var ErrEmptyCart = errors.New("cart is empty")

// UnknownProductError indicates a cart line references a product that is not
// in the catalog.
type UnknownProductError struct {
	ProductID string
}

func (e *UnknownProductError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// InvalidQuantityError indicates a cart line has a non-positive quantity.
type InvalidQuantityError struct {
	ProductID string
	Qty       int
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for product %s, got %d", e.ProductID, e.Qty)
}

// IsValidation reports whether err is a cart validation failure, as opposed
// to a persistence failure. Validation failures are client errors and leave
// the ledger untouched.
func IsValidation(err error) bool {
	var (
		unknown *UnknownProductError
		qty     *InvalidQuantityError
	)
	return errors.Is(err, ErrEmptyCart) || errors.As(err, &unknown) || errors.As(err, &qty)
}

// CartItem is one client-supplied cart line.
type CartItem struct {
	ProductID string
	Qty       int
}

// Receipt holds the result of a successful checkout.
type Receipt struct {
	OrderID   int64
	Total     decimal.Decimal
	ItemCount int
}

// Recorder is the metrics capability the checkout service needs. The
// implementation lives in internal/metrics; tests supply their own.
type Recorder interface {
	IncCheckouts()
	ObserveCheckoutValue(total float64)
	SetLastCheckoutItems(count float64)
}

// Service encapsulates the checkout flow.
type Service struct {
	catalog *catalog.Catalog
	ledger  order.Ledger
	rec     Recorder
	now     func() time.Time
}

// NewService creates a checkout Service with the required dependencies.
func NewService(cat *catalog.Catalog, ledger order.Ledger, rec Recorder) *Service {
	return &Service{
		catalog: cat,
		ledger:  ledger,
		rec:     rec,
		now:     time.Now,
	}
}

// Checkout validates every cart line, computes the order total, and persists
// the order plus its line items in a single write transaction.
//
// Validation is all-or-nothing: the first invalid line rejects the whole
// cart before any persistence is attempted. On success the checkout metrics
// are recorded; on failure only the error is logged.
func (s *Service) Checkout(ctx context.Context, items []CartItem) (*Receipt, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	lines := make([]order.Line, len(items))
	total := decimal.Zero
	count := 0
	for i, item := range items {
		if item.Qty <= 0 {
			return nil, &InvalidQuantityError{ProductID: item.ProductID, Qty: item.Qty}
		}
		p, err := s.catalog.Get(item.ProductID)
		if err != nil {
			return nil, &UnknownProductError{ProductID: item.ProductID}
		}

		lines[i] = order.Line{ProductID: p.ID, Qty: item.Qty, Price: p.Price}
		total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(item.Qty))))
		count += item.Qty
	}
	total = total.Round(2)

	createdAt := s.now()
	var orderID int64
	err := s.ledger.InWriteTx(ctx, func(tx order.Tx) error {
		id, err := tx.CreateOrder(ctx, createdAt, total, count)
		if err != nil {
			return errors.Wrap(err, "create order")
		}
		for _, line := range lines {
			if err := tx.AddItem(ctx, id, line); err != nil {
				return errors.Wrap(err, "add order item")
			}
		}
		orderID = id
		return nil
	})
	if err != nil {
		zctx.From(ctx).Error("checkout_db_failed", zap.Error(err))
		return nil, errors.Wrap(err, "persist order")
	}

	s.rec.IncCheckouts()
	s.rec.ObserveCheckoutValue(total.InexactFloat64())
	s.rec.SetLastCheckoutItems(float64(count))
	zctx.From(ctx).Info("checkout_completed",
		zap.Int64("order_id", orderID),
		zap.String("total", total.String()),
		zap.Int("item_count", count),
	)

	return &Receipt{OrderID: orderID, Total: total, ItemCount: count}, nil
}
