package employee

import (
	"slices"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/width"
)

// DefaultPageSize は PageSize 未指定時の 1 ページあたりの件数です。
const DefaultPageSize = 10

// FilterAll は「絞り込みなし」を表す選択値です。
const FilterAll = "all"

// Direction は並び順です。
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ParseDirection は並び順を解決します。空文字は昇順です。
func ParseDirection(raw string) (Direction, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", string(Asc):
		return Asc, true
	case string(Desc):
		return Desc, true
	default:
		return "", false
	}
}

// SortOrder は並び替え条件です。Field が空の場合は並び替えません。
type SortOrder struct {
	Field     Field
	Direction Direction
}

// Criteria は一覧表示の条件です。
type Criteria struct {
	Search     string
	Department string
	Status     Status
	Sort       SortOrder
	Page       int
	PageSize   int
}

// Result は絞り込み・並び替え・ページ分割の結果です。
type Result struct {
	Employees []Employee
	Total     int
	Page      int
	PageSize  int
	PageCount int
}

// Query は snapshot に対して filter → sort → paginate を順に適用します。入力は変更しません。
func Query(snapshot []Employee, c Criteria) Result {
	filtered := Filter(snapshot, c)
	sorted := Sort(filtered, c.Sort)
	return Paginate(sorted, c.Page, c.PageSize)
}

// Filter は検索語・所属・在籍状態のすべてに一致する社員を元の順序で返します。
func Filter(snapshot []Employee, c Criteria) []Employee {
	term := fold(strings.TrimSpace(c.Search))
	department := strings.TrimSpace(c.Department)
	status := Status(strings.TrimSpace(string(c.Status)))

	out := make([]Employee, 0, len(snapshot))
	for _, e := range snapshot {
		if department != "" && department != FilterAll && e.Department != department {
			continue
		}
		if status != "" && status != FilterAll && e.Status != status {
			continue
		}
		if term != "" && !matchesSearch(e, term) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func matchesSearch(e Employee, term string) bool {
	for _, v := range []string{e.Name, e.Email, e.Phone, e.Department, e.Position} {
		if strings.Contains(fold(v), term) {
			return true
		}
	}
	return false
}

// fold は大文字小文字と全角半角の違いを吸収します。
func fold(s string) string {
	if s == "" {
		return s
	}
	return cases.Fold().String(width.Fold.String(s))
}

// Sort は order に従って安定ソートした新しいスライスを返します。
func Sort(emps []Employee, order SortOrder) []Employee {
	out := append([]Employee(nil), emps...)
	if order.Field == "" {
		return out
	}

	desc := order.Direction == Desc
	slices.SortStableFunc(out, func(a, b Employee) int {
		cmp := strings.Compare(order.Field.Value(a), order.Field.Value(b))
		if desc {
			return -cmp
		}
		return cmp
	})
	return out
}

// Paginate は 1 始まりの page を有効範囲に丸めて該当範囲を切り出します。
func Paginate(emps []Employee, page, pageSize int) Result {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	total := len(emps)
	pageCount := (total + pageSize - 1) / pageSize
	if pageCount < 1 {
		pageCount = 1
	}

	if page < 1 {
		page = 1
	}
	if page > pageCount {
		page = pageCount
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	return Result{
		Employees: append([]Employee{}, emps[start:end]...),
		Total:     total,
		Page:      page,
		PageSize:  pageSize,
		PageCount: pageCount,
	}
}

// Departments はスナップショットに含まれる所属を重複なく昇順で返します。
func Departments(snapshot []Employee) []string {
	set := make(map[string]struct{})
	for _, e := range snapshot {
		if e.Department == "" {
			continue
		}
		set[e.Department] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for d := range set {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}
