package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ogurasousui/employee-directory/internal/core/employee"
	"github.com/ogurasousui/employee-directory/internal/core/session"
	"github.com/spf13/cobra"
)

// ErrInvalidInput は入力検証に失敗したことを表します。詳細は表示済みです。
var ErrInvalidInput = errors.New("cli: invalid input")

// fieldFlags は add と update で共通の属性フラグです。
type fieldFlags struct {
	name           string
	department     string
	position       string
	email          string
	phone          string
	employmentType string
	hireDate       string
	status         string
	accessRole     string
}

const (
	flagName           = "name"
	flagDepartment     = "department"
	flagPosition       = "position"
	flagEmail          = "email"
	flagPhone          = "phone"
	flagEmploymentType = "employment-type"
	flagHireDate       = "hire-date"
	flagStatus         = "status"
	flagAccessRole     = "access-role"
)

func (f *fieldFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, flagName, "", "氏名")
	cmd.Flags().StringVar(&f.department, flagDepartment, "", "所属")
	cmd.Flags().StringVar(&f.position, flagPosition, "", "役職")
	cmd.Flags().StringVar(&f.email, flagEmail, "", "メールアドレス")
	cmd.Flags().StringVar(&f.phone, flagPhone, "", "電話番号")
	cmd.Flags().StringVar(&f.employmentType, flagEmploymentType, "", "雇用形態 (full_time, contract, dispatch, part_time または 正社員 などのラベル)")
	cmd.Flags().StringVar(&f.hireDate, flagHireDate, "", "入社日 (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.status, flagStatus, "", "ステータス (active, separated)")
	cmd.Flags().StringVar(&f.accessRole, flagAccessRole, "", "権限 (standard, admin)")
}

func (f *fieldFlags) fields() employee.Fields {
	return employee.Normalize(employee.Fields{
		Name:           f.name,
		Department:     f.department,
		Position:       f.position,
		Email:          f.email,
		Phone:          f.phone,
		EmploymentType: parseEmploymentType(f.employmentType),
		HireDate:       f.hireDate,
		Status:         parseStatus(f.status),
		AccessRole:     parseAccessRole(f.accessRole),
	})
}

// patch は指定されたフラグだけを変更対象にします。
func (f *fieldFlags) patch(cmd *cobra.Command) employee.Patch {
	changed := cmd.Flags().Changed
	text := func(flag, v string) *string {
		if !changed(flag) {
			return nil
		}
		v = strings.TrimSpace(v)
		return &v
	}

	p := employee.Patch{
		Name:       text(flagName, f.name),
		Department: text(flagDepartment, f.department),
		Position:   text(flagPosition, f.position),
		Email:      text(flagEmail, f.email),
		Phone:      text(flagPhone, f.phone),
		HireDate:   text(flagHireDate, f.hireDate),
	}
	if changed(flagEmploymentType) {
		t := parseEmploymentType(f.employmentType)
		p.EmploymentType = &t
	}
	if changed(flagStatus) {
		s := parseStatus(f.status)
		p.Status = &s
	}
	if changed(flagAccessRole) {
		r := parseAccessRole(f.accessRole)
		p.AccessRole = &r
	}
	return p
}

// parse 系はラベルをコードに解決し、解決できない値はそのまま残して検証で報告させます。
func parseEmploymentType(raw string) employee.EmploymentType {
	if t, ok := employee.ParseEmploymentType(raw); ok {
		return t
	}
	return employee.EmploymentType(strings.TrimSpace(raw))
}

func parseStatus(raw string) employee.Status {
	if s, ok := employee.ParseStatus(raw); ok {
		return s
	}
	return employee.Status(strings.TrimSpace(raw))
}

func parseAccessRole(raw string) employee.AccessRole {
	if r, ok := employee.ParseAccessRole(raw); ok {
		return r
	}
	return employee.AccessRole(strings.TrimSpace(raw))
}

func (c *Commandline) registerMutations(root *cobra.Command) {
	var add fieldFlags
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "社員を登録します",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.require(cmd, session.ActionCreate); err != nil {
				return err
			}
			in := add.fields()
			if err := reportValidation(cmd.ErrOrStderr(), employee.Validate(in)); err != nil {
				return err
			}

			created, err := c.store.Create(cmd.Context(), in)
			if err := c.persisted(cmd, err); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s を登録しました (ID: %s)\n", successPrefix, created.Name, created.ID)
			return nil
		},
	}
	add.bind(addCmd)

	var update fieldFlags
	updateCmd := &cobra.Command{
		Use:   "update <id>",
		Short: "社員情報を更新します。指定した項目だけが変更されます",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.require(cmd, session.ActionUpdate); err != nil {
				return err
			}
			id := args[0]
			current, ok := c.store.Get(id)
			if !ok {
				return fmt.Errorf("cli: employee %s not found", id)
			}

			p := update.patch(cmd)
			if p.Empty() {
				return fmt.Errorf("cli: nothing to update, pass at least one field flag")
			}
			if err := reportValidation(cmd.ErrOrStderr(), employee.Validate(p.Apply(current.Fields))); err != nil {
				return err
			}

			ok, err := c.store.Patch(cmd.Context(), id, p)
			if err := c.persisted(cmd, err); err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("cli: employee %s not found", id)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s を更新しました\n", successPrefix, id)
			return nil
		},
	}
	update.bind(updateCmd)

	var yes bool
	deleteCmd := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "社員を削除します",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.require(cmd, session.ActionDelete); err != nil {
				return err
			}
			id := args[0]
			target, ok := c.store.Get(id)
			if !ok {
				return fmt.Errorf("cli: employee %s not found", id)
			}

			confirmed, err := confirm(cmd, yes, fmt.Sprintf("%s (%s) を削除してもよろしいですか？", target.Name, target.ID))
			if err != nil || !confirmed {
				return err
			}

			ok, err = c.store.Delete(cmd.Context(), id)
			if err := c.persisted(cmd, err); err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("cli: employee %s not found", id)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s を削除しました\n", successPrefix, target.Name)
			return nil
		},
	}
	deleteCmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")

	root.AddCommand(addCmd, updateCmd, deleteCmd)
}

// reportValidation は検証エラーをフィールドごとに表示し、ErrInvalidInput を返します。
func reportValidation(w io.Writer, err error) error {
	if err == nil {
		return nil
	}
	var verr *employee.ValidationError
	if !errors.As(err, &verr) {
		return err
	}
	for _, fe := range verr.Errors {
		fmt.Fprintf(w, "%s %s\n", errorPrefix, styleError.Render(fe.Message))
	}
	return fmt.Errorf("%w: %w", ErrInvalidInput, err)
}
