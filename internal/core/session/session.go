// Package session は操作中のユーザーと、その権限による画面操作の出し分けを扱います。
// 権限はあくまで表示上の制御であり、コアの操作は呼び出し元を区別しません。
package session

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidRole = errors.New("session: invalid role")
	ErrForbidden   = errors.New("session: action not permitted for role")
)

// Role はセッションユーザーの権限です。
type Role string

const (
	RoleEmployee Role = "employee"
	RoleAdmin    Role = "admin"
)

// Label は表示用ラベルを返します。
func (r Role) Label() string {
	switch r {
	case RoleEmployee:
		return "一般社員"
	case RoleAdmin:
		return "管理者"
	default:
		return string(r)
	}
}

// ParseRole はコードまたはラベルから権限を解決します。
func ParseRole(raw string) (Role, error) {
	v := strings.TrimSpace(raw)
	for _, r := range []Role{RoleEmployee, RoleAdmin} {
		if strings.EqualFold(v, string(r)) || v == r.Label() {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRole, raw)
}

// Action は権限で出し分ける操作です。
type Action string

const (
	ActionView   Action = "view"
	ActionExport Action = "export"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionImport Action = "import"
)

// User は操作中のユーザーです。永続化はされません。
type User struct {
	Name string
	Role Role
}

// CanMutate は社員データを変更する操作を表示できるかを返します。
func (u User) CanMutate() bool {
	return u.Role == RoleAdmin
}

// Allows は action を表示できるかを返します。
func (u User) Allows(action Action) bool {
	switch action {
	case ActionView, ActionExport:
		return true
	default:
		return u.CanMutate()
	}
}

// Require は action が許可されていなければ ErrForbidden を返します。
func (u User) Require(action Action) error {
	if u.Allows(action) {
		return nil
	}
	return fmt.Errorf("%w: %s cannot %s", ErrForbidden, u.Role.Label(), action)
}
