package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"sitestock/internal/core/tx"
	"sitestock/pkg/logger"
)

var tracer = otel.Tracer("sitestock/tx")

var _ tx.Manager = (*TxManager)(nil)

// statementTimeout bounds every statement issued inside a transaction,
// so a stuck query cannot hold row locks on the ledger indefinitely.
const statementTimeout = 30 * time.Second

// TxManager implements tx.Manager on a pgx connection pool. All
// transactions run at READ COMMITTED; the ledger relies on row locks
// taken explicitly by the repositories, not on isolation level.
type TxManager struct {
	pool *pgxpool.Pool
}

// NewTxManager creates a transaction manager on the given pool.
func NewTxManager(pool *Pool) *TxManager {
	return &TxManager{pool: pool.Pool}
}

type txKey struct{}

// Tx is the open transaction stored in the context while fn runs.
type Tx struct {
	pgx.Tx
}

// RunInTransaction executes fn within a transaction. A call made while
// a transaction is already in the context joins it; only the outermost
// call commits or rolls back.
func (m *TxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, span := tracer.Start(ctx, "transaction",
		trace.WithAttributes(
			attribute.String("tx.isolation", string(pgx.ReadCommitted)),
		))
	defer span.End()

	if m.GetTx(ctx) != nil {
		return fn(ctx)
	}

	dbTx, err := m.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	timeout := fmt.Sprintf("SET LOCAL statement_timeout = '%dms'", statementTimeout.Milliseconds())
	if _, err := dbTx.Exec(ctx, timeout); err != nil {
		_ = dbTx.Rollback(ctx)
		return fmt.Errorf("set statement_timeout: %w", err)
	}

	txCtx := context.WithValue(ctx, txKey{}, &Tx{Tx: dbTx})
	if err := fn(txCtx); err != nil {
		// Roll back on a background context so the rollback still runs
		// when the request context is already cancelled.
		if rbErr := dbTx.Rollback(context.Background()); rbErr != nil {
			logger.Error(ctx, "rollback failed", "error", rbErr, "original_error", err)
		}
		return err
	}

	if err := dbTx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// GetTx returns the transaction open in ctx, or nil if there is none.
func (m *TxManager) GetTx(ctx context.Context) *Tx {
	if t, ok := ctx.Value(txKey{}).(*Tx); ok {
		return t
	}
	return nil
}

// Querier is the query surface shared by pgxpool.Pool and pgx.Tx. The
// repositories work against it so the same code serves calls made
// inside and outside a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// GetQuerier returns the open transaction when there is one, the pool
// otherwise.
func (m *TxManager) GetQuerier(ctx context.Context) Querier {
	if t := m.GetTx(ctx); t != nil {
		return t.Tx
	}
	return m.pool
}
