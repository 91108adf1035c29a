// Package postgres implements every persisted-model store against
// PostgreSQL via sqlx, adapted from the teacher's internal/store/postgres
// package (NamedExecContext query idiom, SafeTransaction lifecycle
// wrapper) and generalized from the campaign/persona domain to this
// system's site/audit/trend-analysis domain.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Connect opens and pings a PostgreSQL connection pool.
func Connect(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

// TransactionManager runs operations inside a transaction with guaranteed
// commit/rollback cleanup, adapted from the teacher's SafeTransaction.
type TransactionManager struct {
	db          *sqlx.DB
	mu          sync.Mutex
	activeCount int64
}

// NewTransactionManager constructs a TransactionManager over db.
func NewTransactionManager(db *sqlx.DB) *TransactionManager {
	return &TransactionManager{db: db}
}

// SafeTransaction begins a transaction, runs fn, and commits on success or
// rolls back on error/panic. operation is used only for error context.
func (tm *TransactionManager) SafeTransaction(ctx context.Context, operation string, fn func(*sqlx.Tx) error) (err error) {
	tx, err := tm.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("postgres: begin tx for %s: %w", operation, err)
	}

	tm.mu.Lock()
	tm.activeCount++
	tm.mu.Unlock()
	defer func() {
		tm.mu.Lock()
		tm.activeCount--
		tm.mu.Unlock()
	}()

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			err = fmt.Errorf("postgres: %s panicked: %v", operation, p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("postgres: %s failed (%v), rollback also failed: %w", operation, err, rbErr)
		}
		return fmt.Errorf("postgres: %s: %w", operation, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit %s: %w", operation, err)
	}
	return nil
}

// ActiveTransactions reports the current in-flight transaction count.
func (tm *TransactionManager) ActiveTransactions() int64 {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	return tm.activeCount
}

// isRetryableConnErr classifies connection-class Postgres errors (refused,
// reset, closed pool) as safe to retry, distinct from query/constraint
// errors which are not.
func isRetryableConnErr(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, sub := range []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"driver: bad connection",
		"i/o timeout",
		"too many connections",
	} {
		if strings.Contains(msg, sub) {
			return true
		}
	}
	return false
}
