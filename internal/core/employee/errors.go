package employee

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidID       = errors.New("employee: invalid id")
	ErrDuplicateID     = errors.New("employee: duplicate id")
	ErrRequired        = errors.New("employee: required")
	ErrInvalidEmail    = errors.New("employee: invalid email")
	ErrInvalidHireDate = errors.New("employee: invalid hire date")
	ErrInvalidEnum     = errors.New("employee: invalid enum value")
	ErrSlotEmpty       = errors.New("employee: slot is empty")
	ErrQuotaExceeded   = errors.New("employee: storage quota exceeded")
	ErrPersistFailed   = errors.New("employee: persist failed")
)

// PersistError は永続化スロットへの書き込み失敗を表します。
// 返却時点でメモリ上の変更は適用済みであり、呼び出し側は警告として扱います。
type PersistError struct {
	Op  string
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("employee: persist after %s: %v", e.Op, e.Err)
}

func (e *PersistError) Unwrap() []error {
	return []error{ErrPersistFailed, e.Err}
}
