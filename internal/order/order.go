// Package order defines the durable order ledger model and its persistence
// contract. Orders are append-only: once committed they are never updated or
// deleted.
package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Line is one order line, capturing the unit price at checkout time. The
// price snapshot is independent of later catalog changes.
type Line struct {
	ProductID string
	Qty       int
	Price     decimal.Decimal
}

// Summary is the read-only projection returned by recent-order listings.
// It intentionally carries no line items.
type Summary struct {
	ID        int64
	Total     decimal.Decimal
	ItemCount int
	CreatedAt time.Time
}

// Tx is a scoped write transaction over the ledger. Implementations
// guarantee that either every write made through the handle commits, or none
// does.
type Tx interface {
	// CreateOrder inserts one order row and returns its assigned identifier.
	// Identifiers are unique and strictly increasing.
	CreateOrder(ctx context.Context, createdAt time.Time, total decimal.Decimal, itemCount int) (int64, error)

	// AddItem inserts one line referencing a previously created order.
	AddItem(ctx context.Context, orderID int64, line Line) error
}

// Ledger defines persistence operations for orders.
type Ledger interface {
	// InWriteTx runs fn inside a single serialized write transaction. The
	// transaction commits only if fn returns nil; any error rolls back every
	// write fn made.
	InWriteTx(ctx context.Context, fn func(tx Tx) error) error

	// ListRecent returns up to limit order summaries, newest first.
	ListRecent(ctx context.Context, limit int) ([]Summary, error)
}
