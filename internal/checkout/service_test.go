package checkout

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketlane/storefront/internal/catalog"
	"github.com/marketlane/storefront/internal/order"
)

// --- Mock implementations ---

type memOrder struct {
	id        int64
	createdAt time.Time
	total     decimal.Decimal
	itemCount int
	lines     []order.Line
}

// memLedger is an in-memory order.Ledger. Writes staged inside a transaction
// are dropped when the callback fails, mirroring a rollback.
type memLedger struct {
	mu        sync.Mutex
	nextID    int64
	orders    []memOrder
	beginErr  error
	createErr error
	addErr    error
}

type memTx struct {
	l      *memLedger
	staged []memOrder
}

func (l *memLedger) InWriteTx(_ context.Context, fn func(tx order.Tx) error) error {
	if l.beginErr != nil {
		return l.beginErr
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	tx := &memTx{l: l}
	if err := fn(tx); err != nil {
		return err
	}
	l.orders = append(l.orders, tx.staged...)
	return nil
}

func (l *memLedger) ListRecent(_ context.Context, limit int) ([]order.Summary, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []order.Summary
	for i := len(l.orders) - 1; i >= 0 && len(out) < limit; i-- {
		o := l.orders[i]
		out = append(out, order.Summary{
			ID:        o.id,
			Total:     o.total,
			ItemCount: o.itemCount,
			CreatedAt: o.createdAt,
		})
	}
	return out, nil
}

func (t *memTx) CreateOrder(_ context.Context, createdAt time.Time, total decimal.Decimal, itemCount int) (int64, error) {
	if t.l.createErr != nil {
		return 0, t.l.createErr
	}
	t.l.nextID++
	t.staged = append(t.staged, memOrder{
		id:        t.l.nextID,
		createdAt: createdAt,
		total:     total,
		itemCount: itemCount,
	})
	return t.l.nextID, nil
}

func (t *memTx) AddItem(_ context.Context, orderID int64, line order.Line) error {
	if t.l.addErr != nil {
		return t.l.addErr
	}
	for i := range t.staged {
		if t.staged[i].id == orderID {
			t.staged[i].lines = append(t.staged[i].lines, line)
			return nil
		}
	}
	return errors.Errorf("unknown order %d", orderID)
}

type mockRecorder struct {
	checkouts int
	values    []float64
	lastItems []float64
}

func (m *mockRecorder) IncCheckouts() { m.checkouts++ }

func (m *mockRecorder) ObserveCheckoutValue(total float64) { m.values = append(m.values, total) }

func (m *mockRecorder) SetLastCheckoutItems(count float64) { m.lastItems = append(m.lastItems, count) }

// --- Tests ---

func TestCheckout(t *testing.T) {
	tests := []struct {
		name          string
		items         []CartItem
		wantTotal     string
		wantItemCount int
		wantErr       func(t *testing.T, err error)
	}{
		{
			name: "valid cart computes total and item count",
			items: []CartItem{
				{ProductID: "copper-mug", Qty: 2},
				{ProductID: "atlas-notebook", Qty: 1},
			},
			wantTotal:     "34",
			wantItemCount: 3,
		},
		{
			name:          "single line",
			items:         []CartItem{{ProductID: "linen-tote", Qty: 3}},
			wantTotal:     "54",
			wantItemCount: 3,
		},
		{
			name:  "empty cart is rejected",
			items: nil,
			wantErr: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrEmptyCart)
				assert.True(t, IsValidation(err))
			},
		},
		{
			name:  "unknown product rejects the whole cart",
			items: []CartItem{{ProductID: "copper-mug", Qty: 1}, {ProductID: "unknown-sku", Qty: 1}},
			wantErr: func(t *testing.T, err error) {
				var unknown *UnknownProductError
				require.ErrorAs(t, err, &unknown)
				assert.Equal(t, "unknown-sku", unknown.ProductID)
				assert.True(t, IsValidation(err))
			},
		},
		{
			name:  "zero quantity is rejected",
			items: []CartItem{{ProductID: "copper-mug", Qty: 0}},
			wantErr: func(t *testing.T, err error) {
				var invalid *InvalidQuantityError
				require.ErrorAs(t, err, &invalid)
				assert.True(t, IsValidation(err))
			},
		},
		{
			name:  "negative quantity is rejected",
			items: []CartItem{{ProductID: "copper-mug", Qty: -2}},
			wantErr: func(t *testing.T, err error) {
				var invalid *InvalidQuantityError
				require.ErrorAs(t, err, &invalid)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := &memLedger{}
			rec := &mockRecorder{}
			svc := NewService(catalog.Default(), ledger, rec)

			receipt, err := svc.Checkout(context.Background(), tt.items)

			if tt.wantErr != nil {
				require.Error(t, err)
				tt.wantErr(t, err)
				assert.Nil(t, receipt)
				assert.Empty(t, ledger.orders, "validation failure must not persist anything")
				assert.Zero(t, rec.checkouts, "validation failure must not record checkout metrics")
				return
			}

			require.NoError(t, err)
			require.NotNil(t, receipt)
			assert.Equal(t, tt.wantTotal, receipt.Total.String())
			assert.Equal(t, tt.wantItemCount, receipt.ItemCount)

			require.Len(t, ledger.orders, 1)
			persisted := ledger.orders[0]
			assert.Equal(t, receipt.OrderID, persisted.id)
			assert.True(t, persisted.total.Equal(receipt.Total))
			assert.Equal(t, tt.wantItemCount, persisted.itemCount)
			assert.Len(t, persisted.lines, len(tt.items))

			assert.Equal(t, 1, rec.checkouts)
			assert.Equal(t, []float64{receipt.Total.InexactFloat64()}, rec.values)
			assert.Equal(t, []float64{float64(tt.wantItemCount)}, rec.lastItems)
		})
	}
}

func TestCheckout_PriceSnapshot(t *testing.T) {
	ledger := &memLedger{}
	svc := NewService(catalog.Default(), ledger, &mockRecorder{})

	_, err := svc.Checkout(context.Background(), []CartItem{
		{ProductID: "copper-mug", Qty: 2},
		{ProductID: "atlas-notebook", Qty: 1},
	})
	require.NoError(t, err)

	require.Len(t, ledger.orders, 1)
	lines := ledger.orders[0].lines
	require.Len(t, lines, 2)
	assert.Equal(t, "copper-mug", lines[0].ProductID)
	assert.Equal(t, 2, lines[0].Qty)
	assert.True(t, lines[0].Price.Equal(decimal.RequireFromString("12.50")))
	assert.Equal(t, "atlas-notebook", lines[1].ProductID)
	assert.True(t, lines[1].Price.Equal(decimal.RequireFromString("9.00")))
}

func TestCheckout_PersistenceFailure(t *testing.T) {
	tests := []struct {
		name   string
		ledger *memLedger
	}{
		{name: "begin fails", ledger: &memLedger{beginErr: errors.New("db locked")}},
		{name: "create order fails", ledger: &memLedger{createErr: errors.New("disk full")}},
		{name: "add item fails", ledger: &memLedger{addErr: errors.New("disk full")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &mockRecorder{}
			svc := NewService(catalog.Default(), tt.ledger, rec)

			receipt, err := svc.Checkout(context.Background(), []CartItem{{ProductID: "copper-mug", Qty: 1}})
			require.Error(t, err)
			assert.Nil(t, receipt)
			assert.False(t, IsValidation(err), "persistence failure is a server error")
			assert.Empty(t, tt.ledger.orders, "failed checkout must not leave committed orders")
			assert.Zero(t, rec.checkouts)
			assert.Empty(t, rec.values)
		})
	}
}

func TestCheckout_ValidationBeforePersistence(t *testing.T) {
	// A ledger whose begin would fail: validation must reject the cart first,
	// so the ledger is never touched and the error stays a client error.
	ledger := &memLedger{beginErr: errors.New("db locked")}
	svc := NewService(catalog.Default(), ledger, &mockRecorder{})

	_, err := svc.Checkout(context.Background(), []CartItem{{ProductID: "unknown-sku", Qty: 1}})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}
