package employee

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// HireDateLayout は入社日の保存形式です。
const HireDateLayout = "2006-01-02"

var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

// FieldError は単一フィールドの検証エラーです。
type FieldError struct {
	Field   Field
	Err     error
	Message string
}

// ValidationError はフィールドごとの検証エラーをまとめたものです。
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		msgs = append(msgs, string(fe.Field)+": "+fe.Message)
	}
	return "employee: validation failed: " + strings.Join(msgs, ", ")
}

func (e *ValidationError) Unwrap() []error {
	errs := make([]error, 0, len(e.Errors))
	for _, fe := range e.Errors {
		errs = append(errs, fe.Err)
	}
	return errs
}

// Message は指定フィールドのエラーメッセージを返します。
func (e *ValidationError) Message(f Field) (string, bool) {
	for _, fe := range e.Errors {
		if fe.Field == f {
			return fe.Message, true
		}
	}
	return "", false
}

// Normalize は文字列属性の前後の空白を取り除き、未指定の列挙値に既定値を設定します。
func Normalize(f Fields) Fields {
	f.Name = strings.TrimSpace(f.Name)
	f.Department = strings.TrimSpace(f.Department)
	f.Position = strings.TrimSpace(f.Position)
	f.Email = strings.TrimSpace(f.Email)
	f.Phone = strings.TrimSpace(f.Phone)
	f.HireDate = strings.TrimSpace(f.HireDate)
	if f.EmploymentType == "" {
		f.EmploymentType = DefaultEmploymentType
	}
	if f.Status == "" {
		f.Status = DefaultStatus
	}
	if f.AccessRole == "" {
		f.AccessRole = DefaultAccessRole
	}
	return f
}

// Validate は入力画面側で Create/Update の前に行う検証です。Store 自体は検証しません。
func Validate(f Fields) error {
	var errs []FieldError
	add := func(field Field, err error, msg string) {
		errs = append(errs, FieldError{Field: field, Err: err, Message: msg})
	}

	if strings.TrimSpace(f.Name) == "" {
		add(FieldName, ErrRequired, "氏名は必須です")
	}
	if strings.TrimSpace(f.Department) == "" {
		add(FieldDepartment, ErrRequired, "所属は必須です")
	}
	if strings.TrimSpace(f.Position) == "" {
		add(FieldPosition, ErrRequired, "役職は必須です")
	}
	switch email := strings.TrimSpace(f.Email); {
	case email == "":
		add(FieldEmail, ErrRequired, "メールアドレスは必須です")
	case !emailPattern.MatchString(email):
		add(FieldEmail, ErrInvalidEmail, "メールアドレスの形式が正しくありません")
	}
	if strings.TrimSpace(f.Phone) == "" {
		add(FieldPhone, ErrRequired, "電話番号は必須です")
	}
	switch date := strings.TrimSpace(f.HireDate); {
	case date == "":
		add(FieldHireDate, ErrRequired, "入社日は必須です")
	case !validDate(date):
		add(FieldHireDate, ErrInvalidHireDate, "入社日の形式が正しくありません")
	}
	if f.EmploymentType != "" && !f.EmploymentType.Valid() {
		add(FieldEmploymentType, ErrInvalidEnum, "雇用形態が正しくありません")
	}
	if f.Status != "" && !f.Status.Valid() {
		add(FieldStatus, ErrInvalidEnum, "ステータスが正しくありません")
	}
	if f.AccessRole != "" && !f.AccessRole.Valid() {
		add(FieldAccessRole, ErrInvalidEnum, "権限が正しくありません")
	}

	if len(errs) == 0 {
		return nil
	}
	return &ValidationError{Errors: errs}
}

func validDate(raw string) bool {
	_, err := time.Parse(HireDateLayout, raw)
	return err == nil
}

// validateCollection は永続化された、または置換で渡された集合の構造を検査します。
func validateCollection(emps []Employee) error {
	seen := make(map[string]struct{}, len(emps))
	for _, e := range emps {
		if strings.TrimSpace(e.ID) == "" {
			return ErrInvalidID
		}
		if _, dup := seen[e.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateID, e.ID)
		}
		seen[e.ID] = struct{}{}
		if !e.EmploymentType.Valid() || !e.Status.Valid() || !e.AccessRole.Valid() {
			return fmt.Errorf("%w: record %s", ErrInvalidEnum, e.ID)
		}
	}
	return nil
}
