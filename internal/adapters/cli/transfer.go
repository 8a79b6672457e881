package cli

import (
	"errors"
	"fmt"

	"github.com/ogurasousui/employee-directory/internal/core/employee"
	"github.com/ogurasousui/employee-directory/internal/core/interchange"
	"github.com/ogurasousui/employee-directory/internal/core/session"
	"github.com/spf13/cobra"
)

func (c *Commandline) registerTransfer(root *cobra.Command) {
	var (
		out      string
		filtered bool
		query    queryFlags
	)
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "社員データを CSV に書き出します",
		Long: `社員データを BOM 付き UTF-8 の CSV に書き出します。

--filtered を指定すると list と同じ条件で絞り込み・並び替えた結果だけを書き出します。
ページ分割は行いません。`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.require(cmd, session.ActionExport); err != nil {
				return err
			}

			emps := c.store.Snapshot()
			if filtered {
				criteria, err := query.criteria(c.cfg.Query.PageSize)
				if err != nil {
					return err
				}
				emps = employee.Sort(employee.Filter(emps, criteria), criteria.Sort)
			}

			path := out
			if path == "" {
				path = interchange.ExportFileName(c.now())
			}
			if err := c.codec.WriteFile(path, emps); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d 件を %s に書き出しました\n", successPrefix, len(emps), path)
			return nil
		},
	}
	exportCmd.Flags().StringVarP(&out, "out", "o", "", "output path (defaults to employees_<YYYY-MM-DD>.csv)")
	exportCmd.Flags().BoolVar(&filtered, "filtered", false, "export only rows matching the query flags")
	query.bind(exportCmd, false)

	var yes bool
	importCmd := &cobra.Command{
		Use:   "import <file>",
		Short: "CSV の内容で社員データを置き換えます",
		Long: `CSV の内容で社員データを全件置き換えます。

ID が空または重複している行には新しい ID を割り当て、列挙値が解釈できない行は既定値で取り込みます。
列が足りない行や氏名が空の行は取り込みません。`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.require(cmd, session.ActionImport); err != nil {
				return err
			}

			res, err := c.codec.ReadFile(cmd.Context(), args[0])
			switch {
			case errors.Is(err, interchange.ErrEmptyInput):
				return fmt.Errorf("cli: %s is empty: %w", args[0], err)
			case err != nil:
				return err
			}

			for _, issue := range res.Issues {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n", warningPrefix, styleWarning.Render(fmt.Sprintf("%d 行目: %s (%s)", issue.Line, issue.Detail, issue.Kind)))
			}
			if len(res.Employees) == 0 {
				return fmt.Errorf("cli: %s has no importable rows", args[0])
			}

			confirmed, err := confirm(cmd, yes, fmt.Sprintf("%d件の従業員データをインポートしますか？既存のデータは上書きされます。", len(res.Employees)))
			if err != nil || !confirmed {
				return err
			}

			err = c.store.ReplaceAll(cmd.Context(), res.Employees)
			if err := c.persisted(cmd, err); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d 件をインポートしました", successPrefix, len(res.Employees))
			if skipped := res.Skipped(); skipped > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), " (%d 行はスキップ)", skipped)
			}
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}
	importCmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")

	root.AddCommand(exportCmd, importCmd)
}
