// Package db はGORMによるデータベース接続を提供します。
package db

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"time"

	gmysql "gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"equity_backend/internal/feature/equity/adapters"
	"equity_backend/internal/feature/equity/usecase"
)

// サポートするドライバー名
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// retryInterval は接続リトライの間隔です。
const retryInterval = 3 * time.Second

// ErrUnsupportedDriver は未知の DB_DRIVER が指定されたことを表します。
var ErrUnsupportedDriver = errors.New("unsupported db driver")

// Config はデータベース接続設定を保持します。
type Config struct {
	Driver        string
	User          string
	Password      string
	Name          string
	Host          string
	Port          string
	InstanceName  string
	SQLitePath    string
	RunMigrations bool
}

// Opener はDSNからGORM接続を開く関数です。テストで差し替えます。
type Opener func(dsn string) (*gorm.DB, error)

// LoadConfigFromEnv は環境変数からデータベース設定を読み込みます。
// DB_DRIVER が未設定の場合は mysql を使用します。
func LoadConfigFromEnv() Config {
	driver := os.Getenv("DB_DRIVER")
	if driver == "" {
		driver = DriverMySQL
	}
	path := os.Getenv("DB_SQLITE_PATH")
	if path == "" {
		path = "equity.db"
	}
	return Config{
		Driver:        driver,
		User:          os.Getenv("DB_USER"),
		Password:      os.Getenv("DB_PASSWORD"),
		Name:          os.Getenv("DB_NAME"),
		Host:          os.Getenv("DB_HOST"),
		Port:          os.Getenv("DB_PORT"),
		InstanceName:  os.Getenv("INSTANCE_CONNECTION_NAME"),
		SQLitePath:    path,
		RunMigrations: os.Getenv("RUN_MIGRATIONS") == "true",
	}
}

// BuildDSN はMySQL用のDSN文字列を生成します。
// 売買日はUTCの0時として保存するため、接続のタイムゾーンはUTCに固定します。
// InstanceName が設定されている場合はCloud SQLのUnixソケット接続を優先します。
func BuildDSN(cfg Config) string {
	if cfg.InstanceName != "" {
		return fmt.Sprintf("%s:%s@unix(/cloudsql/%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
			cfg.User, cfg.Password, cfg.InstanceName, cfg.Name)
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name)
}

// BuildPostgresDSN はPostgreSQL用の接続URLを生成します。
// InstanceName が設定されている場合はCloud SQLのソケットディレクトリを host に指定します。
func BuildPostgresDSN(cfg Config) string {
	if cfg.InstanceName != "" {
		return fmt.Sprintf("user=%s password=%s dbname=%s host=/cloudsql/%s sslmode=disable",
			cfg.User, cfg.Password, cfg.Name, cfg.InstanceName)
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     cfg.Host + ":" + cfg.Port,
		Path:     "/" + cfg.Name,
		RawQuery: "sslmode=prefer",
	}
	return u.String()
}

// Dialect はドライバーに応じたDSNとOpenerを返します。
func Dialect(cfg Config) (string, Opener, error) {
	gcfg := &gorm.Config{}
	switch cfg.Driver {
	case DriverMySQL:
		return BuildDSN(cfg), func(dsn string) (*gorm.DB, error) {
			return gorm.Open(gmysql.Open(dsn), gcfg)
		}, nil
	case DriverPostgres:
		return BuildPostgresDSN(cfg), func(dsn string) (*gorm.DB, error) {
			return gorm.Open(postgres.Open(dsn), gcfg)
		}, nil
	case DriverSQLite:
		return cfg.SQLitePath, func(dsn string) (*gorm.DB, error) {
			return gorm.Open(sqlite.Open(dsn), gcfg)
		}, nil
	default:
		return "", nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
	}
}

// ConnectWithRetry は timeout に達するまで retryInterval ごとに接続を試みます。
func ConnectWithRetry(dsn string, timeout time.Duration, opener Opener) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for {
		db, err := opener(dsn)
		if err == nil {
			return db, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("db connect failed after %s: %w", timeout, err)
		}
		slog.Warn("DB connect failed, retrying", "error", err, "interval", retryInterval)
		time.Sleep(retryInterval)
	}
}

// OpenDB は設定に従って接続し、RunMigrations が有効ならequityテーブルを作成します。
func OpenDB(cfg Config) (*gorm.DB, error) {
	dsn, opener, err := Dialect(cfg)
	if err != nil {
		return nil, err
	}
	db, err := ConnectWithRetry(dsn, 60*time.Second, opener)
	if err != nil {
		return nil, err
	}
	slog.Info("DB connection successful", "driver", cfg.Driver)

	if cfg.RunMigrations {
		if err := Migrate(db, usecase.DefaultTable, usecase.DefaultSeriesTable); err != nil {
			return nil, err
		}
	}
	return db, nil
}

// Migrate は指定されたテーブルをequityスキーマで作成または更新します。
func Migrate(db *gorm.DB, tables ...string) error {
	for _, t := range tables {
		if err := db.Table(t).AutoMigrate(&adapters.EquityModel{}); err != nil {
			return fmt.Errorf("failed to migrate %s: %w", t, err)
		}
	}
	return nil
}

// Close は基盤となる接続プールを閉じます。
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
