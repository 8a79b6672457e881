package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ogurasousui/employee-directory/internal/core/employee"
	pgdb "github.com/ogurasousui/employee-directory/internal/platform/db/postgres"
)

const (
	programLimitExceededCode = "54000"
	diskFullCode             = "53100"
)

// SlotRepository は storage_slots テーブルの 1 行を社員データの保存先として扱います。
type SlotRepository struct {
	pool     pgdb.Queryer
	tx       *pgdb.Runner
	key      string
	maxBytes int
}

// NewSlotRepository は SlotRepository を生成します。maxBytes が 0 以下の場合は容量を制限しません。
func NewSlotRepository(pool pgdb.Queryer, tx *pgdb.Runner, key string, maxBytes int) *SlotRepository {
	return &SlotRepository{pool: pool, tx: tx, key: key, maxBytes: maxBytes}
}

// Read はスロットの値を返します。行が存在しない場合は employee.ErrSlotEmpty を返します。
func (r *SlotRepository) Read(ctx context.Context) ([]byte, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)

	var value []byte
	err := exec.QueryRow(ctx, `SELECT value FROM storage_slots WHERE key = $1`, r.key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, employee.ErrSlotEmpty
		}
		return nil, fmt.Errorf("postgres: read slot %s: %w", r.key, err)
	}
	return value, nil
}

// Write はスロットの値を置き換えます。同じキーへの書き込みはアドバイザリロックで直列化します。
func (r *SlotRepository) Write(ctx context.Context, data []byte) error {
	if r.maxBytes > 0 && len(data) > r.maxBytes {
		return fmt.Errorf("%w: %d bytes exceeds %d", employee.ErrQuotaExceeded, len(data), r.maxBytes)
	}

	return r.tx.ReadWrite(ctx, func(ctx context.Context, q pgdb.Queryer) error {
		if err := pgdb.AdvisoryLock(ctx, q, r.key); err != nil {
			return err
		}
		_, err := q.Exec(ctx, `
        INSERT INTO storage_slots (key, value, updated_at)
        VALUES ($1, $2, now())
        ON CONFLICT (key) DO UPDATE
           SET value = EXCLUDED.value,
               updated_at = EXCLUDED.updated_at
    `, r.key, data)
		if err != nil {
			return translateSlotPgError(r.key, err)
		}
		return nil
	})
}

func translateSlotPgError(key string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case programLimitExceededCode, diskFullCode:
			return fmt.Errorf("%w: %s", employee.ErrQuotaExceeded, pgErr.Message)
		}
	}
	return fmt.Errorf("postgres: write slot %s: %w", key, err)
}
