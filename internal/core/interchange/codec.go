package interchange

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/ogurasousui/employee-directory/internal/core/employee"
	"golang.org/x/text/encoding/japanese"
)

// BOM は表計算ソフトに UTF-8 と認識させるための先頭マーカーです。
const BOM = "\uFEFF"

// minRowFields は ID と氏名を推定できる最小の列数です。これ未満の行は取り込みません。
const minRowFields = 2

// Header は CSV の固定見出し行です。列順は employee.Columns と一致します。
var Header = []string{"ID", "氏名", "所属", "役職", "メール", "電話番号", "雇用形態", "入社日", "ステータス", "権限"}

var (
	ErrEmptyInput = errors.New("interchange: empty input")
	ErrUnreadable = errors.New("interchange: unreadable input")
)

// IssueKind は行単位の取り込み時の扱いです。
type IssueKind string

const (
	IssueSkipped    IssueKind = "skipped"
	IssueDefaulted  IssueKind = "defaulted"
	IssueIDAssigned IssueKind = "id_assigned"
)

// RowIssue は行単位の不備です。取り込み全体は失敗させません。
type RowIssue struct {
	Line   int
	Kind   IssueKind
	Detail string
}

// DecodeResult は Decode の結果です。
type DecodeResult struct {
	Employees []employee.Employee
	Issues    []RowIssue
}

// Skipped は取り込まれなかった行数を返します。
func (r *DecodeResult) Skipped() int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Kind == IssueSkipped {
			n++
		}
	}
	return n
}

// Codec は社員コレクションと CSV テキストを相互変換します。
type Codec struct {
	ids employee.IDGenerator
}

// NewCodec は Codec を生成します。ids は Store と同じ採番器を渡します。
func NewCodec(ids employee.IDGenerator) *Codec {
	if ids == nil {
		ids = employee.NewIDGenerator(nil)
	}
	return &Codec{ids: ids}
}

// Encode は BOM・見出し行・社員ごとの行を書き出します。区切り文字や引用符を含む値は RFC 4180 に従って引用します。
func (c *Codec) Encode(w io.Writer, emps []employee.Employee) error {
	if _, err := io.WriteString(w, BOM); err != nil {
		return fmt.Errorf("interchange: write bom: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("interchange: write header: %w", err)
	}
	for _, e := range emps {
		if err := cw.Write(Row(e)); err != nil {
			return fmt.Errorf("interchange: write row %s: %w", e.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("interchange: flush: %w", err)
	}
	return nil
}

// EncodeBytes は Encode の結果をバイト列で返します。
func (c *Codec) EncodeBytes(emps []employee.Employee) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.Encode(&buf, emps); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Row は社員 1 件を Header の列順で表示用の値に変換します。列挙値はラベルになります。
func Row(e employee.Employee) []string {
	row := make([]string, 0, len(employee.Columns))
	for _, f := range employee.Columns {
		switch f {
		case employee.FieldEmploymentType:
			row = append(row, e.EmploymentType.Label())
		case employee.FieldStatus:
			row = append(row, e.Status.Label())
		case employee.FieldAccessRole:
			row = append(row, e.AccessRole.Label())
		default:
			row = append(row, f.Value(e))
		}
	}
	return row
}

// Decode は CSV テキストを社員コレクションに変換します。
// 見出し行は位置でのみ扱い、名前は検証しません。行単位の不備は Issues に記録して続行します。
// 入力が空の場合は ErrEmptyInput、読み取れない場合は ErrUnreadable を返します。
func (c *Codec) Decode(r io.Reader) (*DecodeResult, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	text, err := toUTF8(raw)
	if err != nil {
		return nil, err
	}
	text = strings.TrimPrefix(text, BOM)
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}

	cr := csv.NewReader(strings.NewReader(text))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	if _, err := cr.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyInput
		}
		return nil, fmt.Errorf("%w: header: %v", ErrUnreadable, err)
	}

	result := &DecodeResult{Employees: []employee.Employee{}}
	seen := make(map[string]struct{})

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				result.Issues = append(result.Issues, RowIssue{Line: perr.StartLine, Kind: IssueSkipped, Detail: perr.Err.Error()})
				continue
			}
			return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
		}

		line, _ := cr.FieldPos(0)
		if blankRecord(rec) {
			continue
		}

		emp, issues, ok := c.decodeRow(line, rec, seen)
		result.Issues = append(result.Issues, issues...)
		if !ok {
			continue
		}
		seen[emp.ID] = struct{}{}
		result.Employees = append(result.Employees, emp)
	}

	return result, nil
}

func (c *Codec) decodeRow(line int, rec []string, seen map[string]struct{}) (employee.Employee, []RowIssue, bool) {
	var issues []RowIssue
	note := func(kind IssueKind, format string, args ...any) {
		issues = append(issues, RowIssue{Line: line, Kind: kind, Detail: fmt.Sprintf(format, args...)})
	}

	if len(rec) < minRowFields {
		note(IssueSkipped, "only %d of %d columns", len(rec), len(Header))
		return employee.Employee{}, issues, false
	}

	// 値はそのまま取り込みます。空白の除去は空判定と列挙値の解釈に限ります。
	col := func(i int) string {
		if i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	name := col(1)
	if strings.TrimSpace(name) == "" {
		note(IssueSkipped, "name is empty")
		return employee.Employee{}, issues, false
	}
	if len(rec) < len(Header) {
		note(IssueDefaulted, "filled %d missing columns", len(Header)-len(rec))
	}

	emp := employee.Employee{
		ID: col(0),
		Fields: employee.Fields{
			Name:       name,
			Department: col(2),
			Position:   col(3),
			Email:      col(4),
			Phone:      col(5),
			HireDate:   col(7),
		},
	}

	if t, ok := employee.ParseEmploymentType(col(6)); ok {
		emp.EmploymentType = t
	} else {
		emp.EmploymentType = employee.DefaultEmploymentType
		note(IssueDefaulted, "employment type %q replaced with %s", col(6), emp.EmploymentType.Label())
	}
	if s, ok := employee.ParseStatus(col(8)); ok {
		emp.Status = s
	} else {
		emp.Status = employee.DefaultStatus
		note(IssueDefaulted, "status %q replaced with %s", col(8), emp.Status.Label())
	}
	if r, ok := employee.ParseAccessRole(col(9)); ok {
		emp.AccessRole = r
	} else {
		emp.AccessRole = employee.DefaultAccessRole
		note(IssueDefaulted, "access role %q replaced with %s", col(9), emp.AccessRole.Label())
	}

	_, duplicate := seen[emp.ID]
	if strings.TrimSpace(emp.ID) == "" || duplicate {
		original := emp.ID
		emp.ID = c.ids.NewID(func(id string) bool {
			_, taken := seen[id]
			return taken
		})
		if duplicate {
			note(IssueIDAssigned, "duplicate id %q replaced with %s", original, emp.ID)
		} else {
			note(IssueIDAssigned, "missing id replaced with %s", emp.ID)
		}
	}

	return emp, issues, true
}

func blankRecord(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// toUTF8 は UTF-8 として不正なバイト列を Shift_JIS とみなして変換します。
// どちらとしても解釈できないバイトや制御文字を含む入力はテキストとみなしません。
func toUTF8(raw []byte) (string, error) {
	text := string(raw)
	if !utf8.Valid(raw) {
		decoded, err := japanese.ShiftJIS.NewDecoder().Bytes(raw)
		if err != nil {
			return "", fmt.Errorf("%w: not utf-8 or shift_jis text", ErrUnreadable)
		}
		// 元のバイト列は UTF-8 ではないので、置換文字は変換できなかったバイトです。
		if bytes.ContainsRune(decoded, utf8.RuneError) {
			return "", fmt.Errorf("%w: not utf-8 or shift_jis text", ErrUnreadable)
		}
		text = string(decoded)
	}
	if i := strings.IndexFunc(text, isBinaryControl); i >= 0 {
		return "", fmt.Errorf("%w: control byte 0x%02x at offset %d", ErrUnreadable, text[i], i)
	}
	return text, nil
}

// isBinaryControl はタブと改行以外の C0 制御文字と DEL を判定します。
func isBinaryControl(r rune) bool {
	switch r {
	case '\t', '\n', '\r':
		return false
	}
	return r < 0x20 || r == 0x7f
}
