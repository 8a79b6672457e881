package cli

import (
	"fmt"
	"io"

	"github.com/ogurasousui/employee-directory/internal/core/employee"
	"github.com/ogurasousui/employee-directory/internal/core/interchange"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// queryFlags は一覧とエクスポートで共通の絞り込み条件です。
type queryFlags struct {
	search     string
	department string
	status     string
	sort       string
	order      string
	page       int
	pageSize   int
}

func (q *queryFlags) bind(cmd *cobra.Command, paging bool) {
	cmd.Flags().StringVarP(&q.search, "search", "s", "", "search name, email, phone, department and position")
	cmd.Flags().StringVar(&q.department, "department", employee.FilterAll, "department to show, or all")
	cmd.Flags().StringVar(&q.status, "status", employee.FilterAll, "status to show: active, separated or all")
	cmd.Flags().StringVar(&q.sort, "sort", "", "field to sort by (id, name, department, position, email, phone, employmentType, hireDate, status, accessRole)")
	cmd.Flags().StringVar(&q.order, "order", string(employee.Asc), "sort direction: asc or desc")
	if paging {
		cmd.Flags().IntVar(&q.page, "page", 1, "page number starting at 1")
		cmd.Flags().IntVar(&q.pageSize, "page-size", 0, "rows per page (defaults to query.page_size)")
	}
}

func (q *queryFlags) criteria(defaultPageSize int) (employee.Criteria, error) {
	c := employee.Criteria{
		Search:     q.search,
		Department: q.department,
		Page:       q.page,
		PageSize:   q.pageSize,
	}
	if c.PageSize <= 0 {
		c.PageSize = defaultPageSize
	}

	if q.status != "" && q.status != employee.FilterAll {
		s, ok := employee.ParseStatus(q.status)
		if !ok {
			return employee.Criteria{}, fmt.Errorf("cli: unknown status %q", q.status)
		}
		c.Status = s
	}

	if q.sort != "" {
		field, ok := employee.ParseField(q.sort)
		if !ok {
			return employee.Criteria{}, fmt.Errorf("cli: unknown sort field %q", q.sort)
		}
		dir, ok := employee.ParseDirection(q.order)
		if !ok {
			return employee.Criteria{}, fmt.Errorf("cli: unknown sort order %q", q.order)
		}
		c.Sort = employee.SortOrder{Field: field, Direction: dir}
	}

	return c, nil
}

func (c *Commandline) registerQuery(root *cobra.Command) {
	var list queryFlags
	listCmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "社員を一覧表示します",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			criteria, err := list.criteria(c.cfg.Query.PageSize)
			if err != nil {
				return err
			}
			renderList(cmd.OutOrStdout(), employee.Query(c.store.Snapshot(), criteria))
			return nil
		},
	}
	list.bind(listCmd, true)

	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "社員の詳細を表示します",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, ok := c.store.Get(args[0])
			if !ok {
				return fmt.Errorf("cli: employee %s not found", args[0])
			}
			renderDetail(cmd.OutOrStdout(), e)
			return nil
		},
	}

	departmentsCmd := &cobra.Command{
		Use:   "departments",
		Short: "登録されている所属を一覧表示します",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, d := range employee.Departments(c.store.Snapshot()) {
				fmt.Fprintln(cmd.OutOrStdout(), d)
			}
			return nil
		},
	}

	whoamiCmd := &cobra.Command{
		Use:   "whoami",
		Short: "セッションユーザーと権限を表示します",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", c.user.Name, c.user.Role.Label())
			return nil
		},
	}

	root.AddCommand(listCmd, showCmd, departmentsCmd, whoamiCmd)
}

func renderList(w io.Writer, res employee.Result) {
	if res.Total == 0 {
		fmt.Fprintln(w, styleDim.Render("該当する社員はいません"))
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader(interchange.Header)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	for _, e := range res.Employees {
		table.Append(interchange.Row(e))
	}
	table.Render()

	first := (res.Page-1)*res.PageSize + 1
	last := first + len(res.Employees) - 1
	fmt.Fprintln(w, styleDim.Render(fmt.Sprintf("全 %d 件中 %d-%d 件を表示 (%d/%d ページ)", res.Total, first, last, res.Page, res.PageCount)))
}

func renderDetail(w io.Writer, e employee.Employee) {
	row := interchange.Row(e)
	for i, label := range interchange.Header {
		fmt.Fprintf(w, "%s %s\n", styleLabel.Render(label), row[i])
	}
}
