package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Queryer は pgx.Tx および pgxpool.Pool と互換性のあるクエリ実行インターフェースです。
type Queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type txStarter interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

type txKey struct{}

// Runner はトランザクション内で関数を実行します。
// すでに ctx がトランザクションを持っている場合は新たに開始せずそれを使います。
type Runner struct {
	pool txStarter
}

// NewRunner は Runner を生成します。
func NewRunner(pool txStarter) *Runner {
	return &Runner{pool: pool}
}

// ReadOnly は読み取り専用トランザクションで fn を実行します。
func (r *Runner) ReadOnly(ctx context.Context, fn func(context.Context, Queryer) error) error {
	return r.run(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly}, fn)
}

// ReadWrite は読み書きトランザクションで fn を実行します。
func (r *Runner) ReadWrite(ctx context.Context, fn func(context.Context, Queryer) error) error {
	return r.run(ctx, pgx.TxOptions{AccessMode: pgx.ReadWrite}, fn)
}

func (r *Runner) run(ctx context.Context, opts pgx.TxOptions, fn func(context.Context, Queryer) error) error {
	if fn == nil {
		return fmt.Errorf("postgres: transaction function is required")
	}
	if tx, ok := TxFromContext(ctx); ok {
		return fn(ctx, tx)
	}
	if r == nil || r.pool == nil {
		return fmt.Errorf("postgres: runner has no pool")
	}

	tx, err := r.pool.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("postgres: begin tx: %w", err)
	}

	// fn が panic した場合もコネクションをプールに返すためにロールバックします。
	finished := false
	defer func() {
		if !finished {
			_ = tx.Rollback(ctx)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, tx), tx); err != nil {
		finished = true
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return errors.Join(err, fmt.Errorf("postgres: rollback: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		finished = true
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return errors.Join(fmt.Errorf("postgres: commit: %w", err), fmt.Errorf("postgres: rollback after commit failure: %w", rbErr))
		}
		return fmt.Errorf("postgres: commit: %w", err)
	}

	finished = true
	return nil
}

// TxFromContext は ctx に格納されたトランザクションを返します。
func TxFromContext(ctx context.Context) (pgx.Tx, bool) {
	if ctx == nil {
		return nil, false
	}
	tx, ok := ctx.Value(txKey{}).(pgx.Tx)
	return tx, ok
}

// QueryerFromContext は ctx にトランザクションがあればそれを、なければ fallback を返します。
func QueryerFromContext(ctx context.Context, fallback Queryer) Queryer {
	if tx, ok := TxFromContext(ctx); ok {
		return tx
	}
	return fallback
}

// AdvisoryLock は key に対するトランザクションスコープのアドバイザリロックを取得します。
// ロックはコミットまたはロールバックで解放されます。
func AdvisoryLock(ctx context.Context, q Queryer, key string) error {
	if _, err := q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
		return fmt.Errorf("postgres: advisory lock %s: %w", key, err)
	}
	return nil
}
