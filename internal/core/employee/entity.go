package employee

import "strings"

// EmploymentType は雇用形態を表します。
type EmploymentType string

const (
	EmploymentFullTime EmploymentType = "full_time"
	EmploymentContract EmploymentType = "contract"
	EmploymentDispatch EmploymentType = "dispatch"
	EmploymentPartTime EmploymentType = "part_time"
)

// DefaultEmploymentType は不明な値の代わりに使う雇用形態です。
const DefaultEmploymentType = EmploymentFullTime

var employmentTypeLabels = map[EmploymentType]string{
	EmploymentFullTime: "正社員",
	EmploymentContract: "契約社員",
	EmploymentDispatch: "派遣社員",
	EmploymentPartTime: "アルバイト",
}

// EmploymentTypes は定義済みの雇用形態を表示順で返します。
func EmploymentTypes() []EmploymentType {
	return []EmploymentType{EmploymentFullTime, EmploymentContract, EmploymentDispatch, EmploymentPartTime}
}

// Label は表示用ラベルを返します。
func (t EmploymentType) Label() string {
	if label, ok := employmentTypeLabels[t]; ok {
		return label
	}
	return string(t)
}

// Valid は定義済みの値かどうかを返します。
func (t EmploymentType) Valid() bool {
	_, ok := employmentTypeLabels[t]
	return ok
}

// ParseEmploymentType はコードまたはラベルから雇用形態を解決します。
func ParseEmploymentType(raw string) (EmploymentType, bool) {
	v := strings.TrimSpace(raw)
	if v == "パート" {
		return EmploymentPartTime, true
	}
	for t, label := range employmentTypeLabels {
		if v == string(t) || v == label {
			return t, true
		}
	}
	return "", false
}

// Status は在籍状態を表します。
type Status string

const (
	StatusActive    Status = "active"
	StatusSeparated Status = "separated"
)

// DefaultStatus は不明な値の代わりに使う在籍状態です。
const DefaultStatus = StatusActive

// Label は表示用ラベルを返します。
func (s Status) Label() string {
	switch s {
	case StatusActive:
		return "在籍"
	case StatusSeparated:
		return "退職"
	default:
		return string(s)
	}
}

// Valid は定義済みの値かどうかを返します。
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusSeparated
}

// ParseStatus はコードまたはラベルから在籍状態を解決します。
func ParseStatus(raw string) (Status, bool) {
	v := strings.TrimSpace(raw)
	for _, s := range []Status{StatusActive, StatusSeparated} {
		if v == string(s) || v == s.Label() {
			return s, true
		}
	}
	return "", false
}

// AccessRole は社員自身に付与された権限を表します。操作中のセッションユーザーの権限とは別物です。
type AccessRole string

const (
	AccessStandard AccessRole = "standard"
	AccessAdmin    AccessRole = "admin"
)

// DefaultAccessRole は不明な値の代わりに使う権限です。
const DefaultAccessRole = AccessStandard

// Label は表示用ラベルを返します。
func (r AccessRole) Label() string {
	switch r {
	case AccessStandard:
		return "一般社員"
	case AccessAdmin:
		return "管理者"
	default:
		return string(r)
	}
}

// Valid は定義済みの値かどうかを返します。
func (r AccessRole) Valid() bool {
	return r == AccessStandard || r == AccessAdmin
}

// ParseAccessRole はコードまたはラベルから権限を解決します。
func ParseAccessRole(raw string) (AccessRole, bool) {
	v := strings.TrimSpace(raw)
	for _, r := range []AccessRole{AccessStandard, AccessAdmin} {
		if v == string(r) || v == r.Label() {
			return r, true
		}
	}
	return "", false
}

// Fields は ID を除く社員の属性です。作成・全置換更新の入力として使います。
type Fields struct {
	Name           string         `json:"name"`
	Department     string         `json:"department"`
	Position       string         `json:"position"`
	Email          string         `json:"email"`
	Phone          string         `json:"phone"`
	EmploymentType EmploymentType `json:"employmentType"`
	HireDate       string         `json:"hireDate"`
	Status         Status         `json:"status"`
	AccessRole     AccessRole     `json:"accessRole"`
}

// Employee は社員エンティティです。ID は Store が採番し、以後変更されません。
type Employee struct {
	ID string `json:"id"`
	Fields
}

// Patch は部分更新の入力です。nil のフィールドは変更しません。
type Patch struct {
	Name           *string
	Department     *string
	Position       *string
	Email          *string
	Phone          *string
	EmploymentType *EmploymentType
	HireDate       *string
	Status         *Status
	AccessRole     *AccessRole
}

// Apply は f に変更を適用した結果を返します。
func (p Patch) Apply(f Fields) Fields {
	if p.Name != nil {
		f.Name = *p.Name
	}
	if p.Department != nil {
		f.Department = *p.Department
	}
	if p.Position != nil {
		f.Position = *p.Position
	}
	if p.Email != nil {
		f.Email = *p.Email
	}
	if p.Phone != nil {
		f.Phone = *p.Phone
	}
	if p.EmploymentType != nil {
		f.EmploymentType = *p.EmploymentType
	}
	if p.HireDate != nil {
		f.HireDate = *p.HireDate
	}
	if p.Status != nil {
		f.Status = *p.Status
	}
	if p.AccessRole != nil {
		f.AccessRole = *p.AccessRole
	}
	return f
}

// Empty は変更対象が一つもないかを返します。
func (p Patch) Empty() bool {
	return p.Name == nil && p.Department == nil && p.Position == nil && p.Email == nil &&
		p.Phone == nil && p.EmploymentType == nil && p.HireDate == nil && p.Status == nil && p.AccessRole == nil
}

// Field は並び替えや CSV の列として扱う属性名です。
type Field string

const (
	FieldID             Field = "id"
	FieldName           Field = "name"
	FieldDepartment     Field = "department"
	FieldPosition       Field = "position"
	FieldEmail          Field = "email"
	FieldPhone          Field = "phone"
	FieldEmploymentType Field = "employmentType"
	FieldHireDate       Field = "hireDate"
	FieldStatus         Field = "status"
	FieldAccessRole     Field = "accessRole"
)

// Columns は CSV の列順を兼ねた全属性の固定順序です。
var Columns = []Field{
	FieldID,
	FieldName,
	FieldDepartment,
	FieldPosition,
	FieldEmail,
	FieldPhone,
	FieldEmploymentType,
	FieldHireDate,
	FieldStatus,
	FieldAccessRole,
}

// ParseField は属性名を解決します。
func ParseField(raw string) (Field, bool) {
	v := strings.TrimSpace(raw)
	for _, f := range Columns {
		if strings.EqualFold(v, string(f)) {
			return f, true
		}
	}
	return "", false
}

// Value は e の該当属性を文字列で返します。列挙値はコードのまま返します。
func (f Field) Value(e Employee) string {
	switch f {
	case FieldID:
		return e.ID
	case FieldName:
		return e.Name
	case FieldDepartment:
		return e.Department
	case FieldPosition:
		return e.Position
	case FieldEmail:
		return e.Email
	case FieldPhone:
		return e.Phone
	case FieldEmploymentType:
		return string(e.EmploymentType)
	case FieldHireDate:
		return e.HireDate
	case FieldStatus:
		return string(e.Status)
	case FieldAccessRole:
		return string(e.AccessRole)
	default:
		return ""
	}
}
