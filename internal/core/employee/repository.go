package employee

import "context"

// SlotKey は社員データを保存するスロットの固定キーです。
const SlotKey = "employee_management_data"

// Slot は単一のキーに JSON テキストを丸ごと保存する永続化の抽象です。
type Slot interface {
	// Read は保存済みの内容を返します。未保存の場合は ErrSlotEmpty を返します。
	Read(ctx context.Context) ([]byte, error)
	// Write は内容を丸ごと置き換えます。
	Write(ctx context.Context, data []byte) error
}
