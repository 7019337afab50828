// Package sqlite implements the order ledger on top of a single SQLite file.
//
// The database runs in WAL mode: reads proceed concurrently against committed
// data while writes are serialized through a store-level mutex, so at most one
// write transaction is active at a time.
package sqlite

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/marketlane/storefront/db"
	"github.com/marketlane/storefront/internal/order"
)

var _ order.Ledger = (*Store)(nil)

// Store is a durable, append-only ledger of orders and their line items.
type Store struct {
	db *sql.DB
	lg *zap.Logger

	// writeMu serializes write transactions. SQLite allows a single writer;
	// queueing here keeps concurrent checkouts from tripping SQLITE_BUSY.
	writeMu sync.Mutex
}

// Open creates the parent directory for path if needed, opens the database,
// and switches it to WAL mode.
func Open(ctx context.Context, path string, lg *zap.Logger) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, "create data directory")
		}
	}

	// Pragmas go in the DSN so the driver applies them to every pooled
	// connection, not just whichever one serves a one-off Exec.
	dsn := "file:" + path +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=foreign_keys(1)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, errors.Wrap(err, "ping database")
	}

	return &Store{db: sqlDB, lg: lg}, nil
}

// Migrate executes the embedded DDL schema. All statements are idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, db.Schema); err != nil {
		return errors.Wrap(err, "run migrations")
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// InWriteTx runs fn inside a single write transaction. The transaction
// commits only if fn returns nil. On any failure every write fn made is
// rolled back; a rollback failure is logged but never replaces the error
// that triggered it.
func (s *Store) InWriteTx(ctx context.Context, fn func(tx order.Tx) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := sqlTx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			s.lg.Error("tx_rollback_failed", zap.Error(rbErr))
		}
	}()

	if err := fn(&Tx{tx: sqlTx}); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return errors.Wrap(err, "commit tx")
	}
	committed = true
	return nil
}

// ListRecent returns up to limit order summaries, newest first by id.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]order.Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, total, item_count, created_at FROM orders ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, errors.Wrap(err, "query orders")
	}
	defer func() { _ = rows.Close() }()

	var summaries []order.Summary
	for rows.Next() {
		var (
			id        int64
			total     float64
			itemCount int
			createdAt string
		)
		if err := rows.Scan(&id, &total, &itemCount, &createdAt); err != nil {
			return nil, errors.Wrap(err, "scan order")
		}

		ts, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, errors.Wrapf(err, "parse created_at of order %d", id)
		}

		summaries = append(summaries, order.Summary{
			ID:        id,
			Total:     decimal.NewFromFloat(total),
			ItemCount: itemCount,
			CreatedAt: ts,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate orders")
	}
	return summaries, nil
}

var _ order.Tx = (*Tx)(nil)

// Tx is a write-transaction handle over the ledger tables. It is only valid
// inside the InWriteTx callback that produced it.
type Tx struct {
	tx *sql.Tx
}

// CreateOrder inserts one order row and returns the rowid SQLite assigned.
func (t *Tx) CreateOrder(ctx context.Context, createdAt time.Time, total decimal.Decimal, itemCount int) (int64, error) {
	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO orders (created_at, total, item_count) VALUES (?, ?, ?)`,
		createdAt.UTC().Format(time.RFC3339Nano),
		total.InexactFloat64(),
		itemCount,
	)
	if err != nil {
		return 0, errors.Wrap(err, "insert order")
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "order id")
	}
	return id, nil
}

// AddItem inserts one line item referencing orderID.
func (t *Tx) AddItem(ctx context.Context, orderID int64, line order.Line) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO order_items (order_id, product_id, qty, price) VALUES (?, ?, ?, ?)`,
		orderID,
		line.ProductID,
		line.Qty,
		line.Price.InexactFloat64(),
	)
	if err != nil {
		return errors.Wrapf(err, "insert item %q of order %d", line.ProductID, orderID)
	}
	return nil
}
