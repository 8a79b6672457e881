package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/ogurasousui/employee-directory/internal/core/employee"
)

const lockRetryDelay = 50 * time.Millisecond

// SlotRepository は <dir>/<key>.json を社員データの保存先として扱います。
// 書き込みは一時ファイルへの出力と rename で行い、別プロセスとは <key>.lock で排他します。
type SlotRepository struct {
	dir      string
	key      string
	maxBytes int
}

// NewSlotRepository は SlotRepository を生成します。maxBytes が 0 以下の場合は容量を制限しません。
func NewSlotRepository(dir, key string, maxBytes int) *SlotRepository {
	return &SlotRepository{dir: dir, key: key, maxBytes: maxBytes}
}

// Path はデータファイルのパスを返します。
func (r *SlotRepository) Path() string {
	return filepath.Join(r.dir, r.key+".json")
}

func (r *SlotRepository) lockPath() string {
	return filepath.Join(r.dir, r.key+".lock")
}

// Read はスロットの値を返します。ファイルが存在しない場合は employee.ErrSlotEmpty を返します。
func (r *SlotRepository) Read(ctx context.Context) ([]byte, error) {
	if _, err := os.Stat(r.Path()); errors.Is(err, os.ErrNotExist) {
		return nil, employee.ErrSlotEmpty
	}

	var data []byte
	err := r.withLock(ctx, func() error {
		b, err := os.ReadFile(r.Path())
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return employee.ErrSlotEmpty
			}
			return fmt.Errorf("file: read slot %s: %w", r.key, err)
		}
		data = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Write はスロットの値を置き換えます。容量を超える場合は employee.ErrQuotaExceeded を返し、既存の値は変更しません。
func (r *SlotRepository) Write(ctx context.Context, data []byte) error {
	if r.maxBytes > 0 && len(data) > r.maxBytes {
		return fmt.Errorf("%w: %d bytes exceeds %d", employee.ErrQuotaExceeded, len(data), r.maxBytes)
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("file: create dir %s: %w", r.dir, err)
	}

	return r.withLock(ctx, func() error {
		tmp, err := os.CreateTemp(r.dir, r.key+".*.tmp")
		if err != nil {
			return fmt.Errorf("file: create temp: %w", err)
		}
		defer os.Remove(tmp.Name())

		if _, err := tmp.Write(data); err != nil {
			tmp.Close()
			return fmt.Errorf("file: write temp: %w", err)
		}
		if err := tmp.Sync(); err != nil {
			tmp.Close()
			return fmt.Errorf("file: sync temp: %w", err)
		}
		if err := tmp.Close(); err != nil {
			return fmt.Errorf("file: close temp: %w", err)
		}
		if err := os.Rename(tmp.Name(), r.Path()); err != nil {
			return fmt.Errorf("file: replace slot %s: %w", r.key, err)
		}
		return nil
	})
}

func (r *SlotRepository) withLock(ctx context.Context, fn func() error) error {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("file: create dir %s: %w", r.dir, err)
	}

	lock := flock.New(r.lockPath())
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("file: lock %s: %w", r.lockPath(), err)
	}
	if !locked {
		return fmt.Errorf("file: lock %s: not acquired", r.lockPath())
	}
	defer lock.Unlock()

	return fn()
}
