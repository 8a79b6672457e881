package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/ogurasousui/employee-directory/internal/core/employee"
	"gopkg.in/yaml.v3"
)

const (
	DriverFile     = "file"
	DriverPostgres = "postgres"

	defaultFileDir   = "data"
	defaultMaxBytes  = 5 * 1024 * 1024
	defaultPageSize  = 10
	defaultLogLevel  = "info"
	defaultLogFormat = "console"
	defaultUserName  = "田中 太郎"
	defaultUserRole  = "admin"
)

// Config はアプリケーション全体の設定を表現します。
type Config struct {
	Storage  StorageConfig  `yaml:"storage" toml:"storage"`
	Database DatabaseConfig `yaml:"database" toml:"database"`
	Query    QueryConfig    `yaml:"query" toml:"query"`
	Log      LogConfig      `yaml:"log" toml:"log"`
	Session  SessionConfig  `yaml:"session" toml:"session"`
}

// StorageConfig は社員データを保存するスロットの設定です。
type StorageConfig struct {
	Driver   string     `yaml:"driver" toml:"driver"`
	Key      string     `yaml:"key" toml:"key"`
	MaxBytes int        `yaml:"max_bytes" toml:"max_bytes"`
	File     FileConfig `yaml:"file" toml:"file"`
}

// FileConfig はファイルスロットの設定です。
type FileConfig struct {
	Dir string `yaml:"dir" toml:"dir"`
}

// DatabaseConfig は PostgreSQL 接続に関する設定です。storage.driver が postgres のときのみ必須です。
type DatabaseConfig struct {
	Host               string        `yaml:"host" toml:"host"`
	Port               int           `yaml:"port" toml:"port"`
	User               string        `yaml:"user" toml:"user"`
	Password           string        `yaml:"password" toml:"password"`
	Name               string        `yaml:"name" toml:"name"`
	SSLMode            string        `yaml:"ssl_mode" toml:"ssl_mode"`
	MaxOpenConns       int           `yaml:"max_open_conns" toml:"max_open_conns"`
	MaxIdleConns       int           `yaml:"max_idle_conns" toml:"max_idle_conns"`
	ConnMaxLifetime    time.Duration `yaml:"-" toml:"-"`
	ConnMaxIdleTime    time.Duration `yaml:"-" toml:"-"`
	ConnMaxLifetimeRaw string        `yaml:"conn_max_lifetime" toml:"conn_max_lifetime"`
	ConnMaxIdleTimeRaw string        `yaml:"conn_max_idle_time" toml:"conn_max_idle_time"`
}

// QueryConfig は一覧表示の設定です。
type QueryConfig struct {
	PageSize int `yaml:"page_size" toml:"page_size"`
}

// LogConfig はログ出力の設定です。
type LogConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// SessionConfig は起動時のセッションユーザーの既定値です。
type SessionConfig struct {
	Name string `yaml:"name" toml:"name"`
	Role string `yaml:"role" toml:"role"`
}

// Default は設定ファイルがない場合の設定を返します。
func Default() *Config {
	cfg := &Config{}
	if err := cfg.validateAndNormalize(); err != nil {
		panic(err)
	}
	return cfg
}

// Load は指定されたパスから設定ファイルを読み込みます。拡張子が .toml の場合は TOML として扱います。
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse toml: %w", err)
		}
	default:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse yaml: %w", err)
		}
	}

	if err := cfg.validateAndNormalize(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadOrDefault は path が存在すれば読み込み、存在しなければ Default を返します。
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return Load(path)
}

func (c *Config) validateAndNormalize() error {
	if err := c.Storage.validateAndNormalize(); err != nil {
		return err
	}

	if c.Storage.Driver == DriverPostgres {
		if err := c.Database.validateAndNormalize(); err != nil {
			return err
		}
	}

	if c.Query.PageSize == 0 {
		c.Query.PageSize = defaultPageSize
	}
	if c.Query.PageSize < 0 {
		return fmt.Errorf("config: query.page_size must be positive")
	}

	if c.Log.Level == "" {
		c.Log.Level = defaultLogLevel
	}
	switch c.Log.Format {
	case "":
		c.Log.Format = defaultLogFormat
	case "console", "json":
	default:
		return fmt.Errorf("config: log.format must be console or json, got %q", c.Log.Format)
	}

	if c.Session.Name == "" {
		c.Session.Name = defaultUserName
	}
	if c.Session.Role == "" {
		c.Session.Role = defaultUserRole
	}

	return nil
}

func (s *StorageConfig) validateAndNormalize() error {
	if s.Driver == "" {
		s.Driver = DriverFile
	}
	if s.Driver != DriverFile && s.Driver != DriverPostgres {
		return fmt.Errorf("config: storage.driver must be %s or %s, got %q", DriverFile, DriverPostgres, s.Driver)
	}
	if s.Key == "" {
		s.Key = employee.SlotKey
	}
	if s.MaxBytes == 0 {
		s.MaxBytes = defaultMaxBytes
	}
	if s.MaxBytes < 0 {
		return fmt.Errorf("config: storage.max_bytes must be positive")
	}
	if s.File.Dir == "" {
		s.File.Dir = defaultFileDir
	}
	return nil
}

func (d *DatabaseConfig) validateAndNormalize() error {
	if d.Host == "" {
		return fmt.Errorf("config: database.host must be set")
	}
	if d.Port == 0 {
		return fmt.Errorf("config: database.port must be set")
	}
	if d.User == "" {
		return fmt.Errorf("config: database.user must be set")
	}
	if d.Password == "" {
		return fmt.Errorf("config: database.password must be set")
	}
	if d.Name == "" {
		return fmt.Errorf("config: database.name must be set")
	}
	if d.SSLMode == "" {
		d.SSLMode = "disable"
	}

	lifetime, err := parseDurationAllowEmpty(d.ConnMaxLifetimeRaw)
	if err != nil {
		return fmt.Errorf("config: database.conn_max_lifetime: %w", err)
	}
	d.ConnMaxLifetime = lifetime

	idleTime, err := parseDurationAllowEmpty(d.ConnMaxIdleTimeRaw)
	if err != nil {
		return fmt.Errorf("config: database.conn_max_idle_time: %w", err)
	}
	d.ConnMaxIdleTime = idleTime

	return nil
}

func parseDurationAllowEmpty(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	return time.ParseDuration(raw)
}

// DSN は pgx 用の接続文字列を返します。認証情報は URL エスケープされます。
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:     "/" + d.Name,
		RawQuery: "sslmode=" + url.QueryEscape(d.SSLMode),
	}
	return u.String()
}
