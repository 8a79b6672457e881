// Package cli は社員名簿の画面層をコマンドラインとして提供します。
// 権限による操作の出し分けはここで行い、コアのストアには持ち込みません。
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ogurasousui/employee-directory/internal/core/employee"
	"github.com/ogurasousui/employee-directory/internal/core/interchange"
	"github.com/ogurasousui/employee-directory/internal/core/session"
	"github.com/ogurasousui/employee-directory/internal/platform/config"
	"github.com/ogurasousui/employee-directory/internal/platform/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const defaultConfigPath = "assets/local.yaml"

// Backend はコマンド実行中に使うストアとその後始末です。
type Backend struct {
	Store *employee.Store
	Close func()
}

// Opener は設定に従ってストアを組み立てます。
type Opener func(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Backend, error)

// Commandline はルートコマンドとその実行中の状態を保持します。
type Commandline struct {
	open Opener
	now  func() time.Time

	configPath string
	userName   string
	roleName   string

	cfg     *config.Config
	log     zerolog.Logger
	user    session.User
	store   *employee.Store
	codec   *interchange.Codec
	closeFn func()
}

// NewCommandline は Commandline を生成します。
func NewCommandline(open Opener) *Commandline {
	return &Commandline{open: open, now: time.Now, log: zerolog.Nop()}
}

// Command はルートコマンド directory を組み立てます。
func (c *Commandline) Command() *cobra.Command {
	root := &cobra.Command{
		Use:   "directory",
		Short: "社員名簿を管理します",
		Long: `社員名簿の閲覧・登録・更新・削除と CSV の入出力を行います。

変更系のコマンド (add, update, delete, import) は管理者のみ実行できます。

Examples:
  directory list --department 開発部 --sort hireDate --order desc
  directory add --name "新人 一郎" --department 開発部 --position エンジニア \
    --email shinjin@example.com --phone 03-0000-0000 --hire-date 2024-04-01
  directory export --filtered --status active`,
		SilenceUsage:      true,
		PersistentPreRunE: c.connect,
	}

	root.PersistentFlags().StringVar(&c.configPath, "config", configPathFromEnv(), "path to config file (yaml or toml)")
	root.PersistentFlags().StringVar(&c.userName, "user", "", "session user name (defaults to session.name)")
	root.PersistentFlags().StringVar(&c.roleName, "role", "", "session role: employee or admin (defaults to session.role)")

	c.registerQuery(root)
	c.registerMutations(root)
	c.registerTransfer(root)

	return root
}

// Close は Backend を解放します。複数回呼んでも安全です。
func (c *Commandline) Close() {
	if c.closeFn != nil {
		c.closeFn()
		c.closeFn = nil
	}
}

func configPathFromEnv() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return defaultConfigPath
}

func (c *Commandline) connect(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadOrDefault(c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg

	log, err := logging.New(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	c.log = log

	user, err := c.sessionUser()
	if err != nil {
		return err
	}
	c.user = user

	backend, err := c.open(cmd.Context(), cfg, log)
	if err != nil {
		return fmt.Errorf("cli: open storage: %w", err)
	}
	c.store = backend.Store
	c.closeFn = backend.Close
	c.codec = interchange.NewCodec(c.store.IDs())

	c.store.Load(cmd.Context())
	return nil
}

func (c *Commandline) sessionUser() (session.User, error) {
	name := c.userName
	if name == "" {
		name = c.cfg.Session.Name
	}
	raw := c.roleName
	if raw == "" {
		raw = c.cfg.Session.Role
	}
	role, err := session.ParseRole(raw)
	if err != nil {
		return session.User{}, err
	}
	return session.User{Name: name, Role: role}, nil
}

// require は action が許可されていなければエラーを表示して返します。
func (c *Commandline) require(cmd *cobra.Command, action session.Action) error {
	if err := c.user.Require(action); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s %s (%s) にはこの操作の権限がありません\n", errorPrefix, c.user.Name, c.user.Role.Label())
		return err
	}
	return nil
}

// persisted は保存失敗を警告として表示します。メモリ上の変更は有効なのでコマンドは成功扱いにします。
func (c *Commandline) persisted(cmd *cobra.Command, err error) error {
	var perr *employee.PersistError
	if errors.As(err, &perr) {
		msg := "変更を保存できませんでした。この変更は現在のセッションでのみ有効です"
		if errors.Is(err, employee.ErrQuotaExceeded) {
			msg = "保存容量の上限を超えたため変更を保存できませんでした"
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n", warningPrefix, styleWarning.Render(msg))
		return nil
	}
	return err
}

// confirm は y/yes/はい の入力で true を返します。yes が立っていれば尋ねません。
func confirm(cmd *cobra.Command, yes bool, prompt string) (bool, error) {
	if yes {
		return true, nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N]: ", prompt)

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("cli: read confirmation: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes", "はい":
		return true, nil
	default:
		fmt.Fprintln(cmd.OutOrStdout(), styleDim.Render("キャンセルしました"))
		return false, nil
	}
}
