package interchange

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ogurasousui/employee-directory/internal/core/employee"
)

// ExportFileName はエクスポートファイル名 employees_<YYYY-MM-DD>.csv を返します。
func ExportFileName(now time.Time) string {
	return fmt.Sprintf("employees_%s.csv", now.UTC().Format(employee.HireDateLayout))
}

// WriteFile は emps を CSV として path に書き出します。
func (c *Codec) WriteFile(path string, emps []employee.Employee) error {
	data, err := c.EncodeBytes(emps)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("interchange: write %s: %w", path, err)
	}
	return nil
}

// ReadFile はユーザーが選んだファイルを読み込んでデコードします。
// 読み込みは別 goroutine で行い、ctx がキャンセルされると ctx.Err() を返して打ち切ります。
func (c *Codec) ReadFile(ctx context.Context, path string) (*DecodeResult, error) {
	type outcome struct {
		res *DecodeResult
		err error
	}

	done := make(chan outcome, 1)
	go func() {
		f, err := os.Open(path)
		if err != nil {
			done <- outcome{err: fmt.Errorf("%w: %v", ErrUnreadable, err)}
			return
		}
		defer f.Close()

		res, err := c.Decode(&contextReader{ctx: ctx, r: f})
		done <- outcome{res: res, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case o := <-done:
		if o.err != nil && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return o.res, o.err
	}
}

// contextReader は ctx のキャンセル後の読み込みを止めます。
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (cr *contextReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}
	return cr.r.Read(p)
}
