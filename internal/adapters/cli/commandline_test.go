package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ogurasousui/employee-directory/internal/adapters/repository/file"
	"github.com/ogurasousui/employee-directory/internal/core/employee"
	"github.com/ogurasousui/employee-directory/internal/core/interchange"
	"github.com/ogurasousui/employee-directory/internal/core/session"
	"github.com/ogurasousui/employee-directory/internal/platform/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	dir    string
	config string
}

func newHarness(t *testing.T, extra string) *harness {
	t.Helper()

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	body := fmt.Sprintf("storage:\n  file:\n    dir: %q\n%slog:\n  level: error\n", dir, extra)
	require.NoError(t, os.WriteFile(cfgPath, []byte(body), 0o600))

	return &harness{dir: dir, config: cfgPath}
}

type result struct {
	out    string
	errOut string
	err    error
}

func (h *harness) run(stdin string, args ...string) result {
	cl := NewCommandline(func(_ context.Context, cfg *config.Config, log zerolog.Logger) (*Backend, error) {
		slot := file.NewSlotRepository(cfg.Storage.File.Dir, cfg.Storage.Key, cfg.Storage.MaxBytes)
		return &Backend{Store: employee.NewStore(slot, employee.WithLogger(log))}, nil
	})
	cl.now = func() time.Time { return time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC) }
	defer cl.Close()

	cmd := cl.Command()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config", h.config}, args...))

	err := cmd.ExecuteContext(context.Background())
	return result{out: out.String(), errOut: errOut.String(), err: err}
}

var newcomer = []string{
	"--name", "新人 一郎",
	"--department", "開発部",
	"--position", "エンジニア",
	"--email", "shinjin@company.com",
	"--phone", "090-0000-0000",
	"--hire-date", "2024-04-01",
	"--employment-type", "契約社員",
}

func TestList_Default(t *testing.T) {
	t.Parallel()

	res := newHarness(t, "").run("", "list")
	require.NoError(t, res.err)

	for _, e := range employee.SeedEmployees() {
		assert.Contains(t, res.out, e.Name)
	}
	assert.Contains(t, res.out, "氏名")
	assert.Contains(t, res.out, "全 5 件中 1-5 件を表示 (1/1 ページ)")
}

func TestList_FilterSortAndPage(t *testing.T) {
	t.Parallel()

	h := newHarness(t, "")

	res := h.run("", "list", "--department", "営業部", "--status", "active")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "田中 太郎")
	assert.NotContains(t, res.out, "山田 孝志")
	assert.Contains(t, res.out, "全 1 件中 1-1 件を表示 (1/1 ページ)")

	res = h.run("", "list", "--sort", "hireDate", "--order", "desc", "--page-size", "2")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "高橋 美咲")
	assert.Contains(t, res.out, "佐藤 花子")
	assert.NotContains(t, res.out, "田中 太郎")
	assert.Contains(t, res.out, "全 5 件中 1-2 件を表示 (1/3 ページ)")

	res = h.run("", "list", "--sort", "hireDate", "--page-size", "2", "--page", "99")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "高橋 美咲")
	assert.Contains(t, res.out, "全 5 件中 5-5 件を表示 (3/3 ページ)")
}

func TestList_SearchFoldsCaseAndWidth(t *testing.T) {
	t.Parallel()

	res := newHarness(t, "").run("", "list", "--search", "ＳＡＴＯ")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "佐藤 花子")
	assert.Contains(t, res.out, "全 1 件中")
}

func TestList_NoMatchAndBadFlags(t *testing.T) {
	t.Parallel()

	h := newHarness(t, "")

	res := h.run("", "list", "--search", "存在しない")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "該当する社員はいません")

	assert.Error(t, h.run("", "list", "--status", "retired").err)
	assert.Error(t, h.run("", "list", "--sort", "salary").err)
	assert.Error(t, h.run("", "list", "--sort", "name", "--order", "sideways").err)
}

func TestShowAndDepartments(t *testing.T) {
	t.Parallel()

	h := newHarness(t, "")

	res := h.run("", "show", "3")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "鈴木 次郎")
	assert.Contains(t, res.out, "契約社員")
	assert.Contains(t, res.out, "一般社員")

	assert.Error(t, h.run("", "show", "404").err)

	res = h.run("", "departments")
	require.NoError(t, res.err)
	lines := strings.Split(strings.TrimSpace(res.out), "\n")
	assert.ElementsMatch(t, []string{"営業部", "開発部", "総務部", "マーケティング部"}, lines)
}

func TestWhoami(t *testing.T) {
	t.Parallel()

	h := newHarness(t, "")

	res := h.run("", "--user", "佐藤 花子", "--role", "employee", "whoami")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "佐藤 花子 (一般社員)")

	res = h.run("", "whoami")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "田中 太郎 (管理者)")

	assert.ErrorIs(t, h.run("", "--role", "guest", "whoami").err, session.ErrInvalidRole)
}

func TestSessionRoleFromConfig(t *testing.T) {
	t.Parallel()

	h := newHarness(t, "session:\n  name: 鈴木 次郎\n  role: employee\n")

	res := h.run("", "add")
	assert.ErrorIs(t, res.err, session.ErrForbidden)
	assert.Contains(t, res.errOut, "鈴木 次郎 (一般社員) にはこの操作の権限がありません")
}

func TestAdd(t *testing.T) {
	t.Parallel()

	h := newHarness(t, "")

	res := h.run("", append([]string{"add"}, newcomer...)...)
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "新人 一郎 を登録しました")

	res = h.run("", "list", "--search", "shinjin")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "新人 一郎")
	assert.Contains(t, res.out, "契約社員")

	res = h.run("", "list")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "全 6 件中")
}

func TestAdd_Forbidden(t *testing.T) {
	t.Parallel()

	h := newHarness(t, "")

	res := h.run("", append([]string{"--role", "employee", "add"}, newcomer...)...)
	assert.ErrorIs(t, res.err, session.ErrForbidden)

	res = h.run("", "list")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "全 5 件中")
}

func TestAdd_Validation(t *testing.T) {
	t.Parallel()

	h := newHarness(t, "")

	res := h.run("", "add", "--name", "  ", "--email", "not-an-email", "--hire-date", "2024/04/01")
	assert.ErrorIs(t, res.err, ErrInvalidInput)
	assert.ErrorIs(t, res.err, employee.ErrRequired)
	for _, msg := range []string{"氏名は必須です", "メールアドレスの形式が正しくありません", "入社日の形式が正しくありません", "所属は必須です"} {
		assert.Contains(t, res.errOut, msg)
	}

	res = h.run("", append([]string{"add", "--employment-type", "業務委託"}, newcomer[:12]...)...)
	assert.ErrorIs(t, res.err, employee.ErrInvalidEnum)
	assert.Contains(t, res.errOut, "雇用形態が正しくありません")
}

func TestAdd_PersistWarning(t *testing.T) {
	t.Parallel()

	h := newHarness(t, "  max_bytes: 16\n")

	res := h.run("", append([]string{"add"}, newcomer...)...)
	require.NoError(t, res.err)
	assert.Contains(t, res.errOut, "保存容量の上限を超えたため変更を保存できませんでした")
	assert.Contains(t, res.out, "新人 一郎 を登録しました")

	_, err := os.Stat(filepath.Join(h.dir, employee.SlotKey+".json"))
	assert.True(t, os.IsNotExist(err))
}

func TestUpdate(t *testing.T) {
	t.Parallel()

	h := newHarness(t, "")

	res := h.run("", "update", "2", "--position", " リーダー ", "--status", "退職")
	require.NoError(t, res.err)

	res = h.run("", "show", "2")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "リーダー")
	assert.Contains(t, res.out, "開発部")
	assert.Contains(t, res.out, "退職")

	assert.Error(t, h.run("", "update", "2").err)
	assert.Error(t, h.run("", "update", "404", "--name", "誰か").err)

	res = h.run("", "update", "2", "--email", "")
	assert.ErrorIs(t, res.err, ErrInvalidInput)
	assert.Contains(t, res.errOut, "メールアドレスは必須です")

	res = h.run("", "update", "2", "--status", "休職")
	assert.ErrorIs(t, res.err, employee.ErrInvalidEnum)
	assert.Contains(t, res.errOut, "ステータスが正しくありません")

	assert.ErrorIs(t, h.run("", "--role", "employee", "update", "2", "--name", "x").err, session.ErrForbidden)
}

func TestDelete(t *testing.T) {
	t.Parallel()

	h := newHarness(t, "")

	res := h.run("n\n", "delete", "5")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "山田 孝志 (5) を削除してもよろしいですか？")
	assert.Contains(t, res.out, "キャンセルしました")
	require.NoError(t, h.run("", "show", "5").err)

	res = h.run("y\n", "delete", "5")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "山田 孝志 を削除しました")
	assert.Error(t, h.run("", "show", "5").err)

	res = h.run("", "delete", "--yes", "4")
	require.NoError(t, res.err)
	assert.NotContains(t, res.out, "[y/N]")

	assert.Error(t, h.run("", "delete", "--yes", "4").err)
	assert.ErrorIs(t, h.run("", "--role", "employee", "delete", "--yes", "1").err, session.ErrForbidden)
}

func TestExportImport(t *testing.T) {
	t.Parallel()

	h := newHarness(t, "")
	path := filepath.Join(h.dir, "sales.csv")

	res := h.run("", "--role", "employee", "export", "--out", path, "--filtered", "--department", "営業部", "--sort", "hireDate")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "2 件を")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte(interchange.BOM)))
	assert.Less(t, bytes.Index(data, []byte("山田 孝志")), bytes.Index(data, []byte("田中 太郎")))

	res = h.run("n\n", "import", path)
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "2件の従業員データをインポートしますか？既存のデータは上書きされます。")
	assert.Contains(t, h.run("", "list").out, "全 5 件中")

	res = h.run("", "import", "--yes", path)
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "2 件をインポートしました")

	res = h.run("", "list")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "全 2 件中")
	assert.NotContains(t, res.out, "佐藤 花子")
}

func TestImport_RowIssues(t *testing.T) {
	t.Parallel()

	h := newHarness(t, "")
	path := filepath.Join(h.dir, "messy.csv")
	csv := strings.Join([]string{
		strings.Join(interchange.Header, ","),
		"1,田中 太郎,営業部,部長,tanaka@company.com,090-1234-5678,正社員,2020-04-01,在籍,管理者",
		"1,重複 太郎,営業部,部長,dup@company.com,090,正社員,2020-04-01,在籍,一般社員",
		"only-id",
		",名無し,総務部",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o600))

	res := h.run("", "import", "--yes", path)
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "3 件をインポートしました (1 行はスキップ)")
	assert.Contains(t, res.errOut, "4 行目")
	assert.Contains(t, res.errOut, string(interchange.IssueIDAssigned))

	res = h.run("", "list", "--status", "active")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "重複 太郎")
	assert.Contains(t, res.out, "名無し")
}

func TestImport_Errors(t *testing.T) {
	t.Parallel()

	h := newHarness(t, "")

	empty := filepath.Join(h.dir, "empty.csv")
	require.NoError(t, os.WriteFile(empty, []byte(interchange.BOM), 0o600))
	assert.ErrorIs(t, h.run("", "import", "--yes", empty).err, interchange.ErrEmptyInput)

	headerOnly := filepath.Join(h.dir, "header.csv")
	require.NoError(t, os.WriteFile(headerOnly, []byte(strings.Join(interchange.Header, ",")+"\n"), 0o600))
	assert.Error(t, h.run("", "import", "--yes", headerOnly).err)

	assert.ErrorIs(t, h.run("", "import", "--yes", filepath.Join(h.dir, "missing.csv")).err, interchange.ErrUnreadable)

	binary := filepath.Join(h.dir, "photo.csv")
	require.NoError(t, os.WriteFile(binary, []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\xff\xfe\x80"), 0o600))
	assert.ErrorIs(t, h.run("", "import", "--yes", binary).err, interchange.ErrUnreadable)
	assert.ErrorIs(t, h.run("", "--role", "employee", "import", "--yes", empty).err, session.ErrForbidden)

	assert.Contains(t, h.run("", "list").out, "全 5 件中")
}
