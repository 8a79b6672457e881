package logging

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ogurasousui/employee-directory/internal/platform/config"
	"github.com/rs/zerolog"
)

// New は log 設定から zerolog.Logger を生成します。CLI の出力と混ざらないよう w には通常 stderr を渡します。
func New(cfg config.LogConfig, w io.Writer) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("logging: level %q: %w", cfg.Level, err)
	}
	if level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	out := w
	if cfg.Format != "json" {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly, NoColor: true}
	}

	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("app", "employee-directory").
		Logger(), nil
}
