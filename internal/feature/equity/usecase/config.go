package usecase

import (
	"os"
	"strconv"
)

const (
	// DefaultTable は基準日のデータを格納するテーブル名です。
	DefaultTable = "equity_table"
	// DefaultSeriesTable は遡り期間の各営業日のデータを格納するテーブル名です。
	DefaultSeriesTable = "equity_table_series"
	// DefaultLimit はランキングの件数です。
	DefaultLimit = 25
	// MaxLimit はランキング件数の上限です。
	MaxLimit = 500
)

// Config はequityフィーチャーの出力先設定を保持します。
type Config struct {
	Table       string // 基準日のテーブル
	SeriesTable string // 遡り期間のテーブル
	ReportDir   string // ランキングCSVの出力先ディレクトリ
	Limit       int    // ランキング件数
}

// LoadConfig は環境変数から設定を読み込みます。未設定の項目にはデフォルト値を使用します。
func LoadConfig() Config {
	cfg := Config{
		Table:       os.Getenv("EQUITY_TABLE"),
		SeriesTable: os.Getenv("EQUITY_SERIES_TABLE"),
		ReportDir:   os.Getenv("REPORT_DIR"),
	}
	if n, err := strconv.Atoi(os.Getenv("REPORT_LIMIT")); err == nil {
		cfg.Limit = n
	}
	return cfg.withDefaults()
}

func (c Config) withDefaults() Config {
	if c.Table == "" {
		c.Table = DefaultTable
	}
	if c.SeriesTable == "" {
		c.SeriesTable = DefaultSeriesTable
	}
	if c.ReportDir == "" {
		c.ReportDir = "."
	}
	switch {
	case c.Limit <= 0:
		c.Limit = DefaultLimit
	case c.Limit > MaxLimit:
		c.Limit = MaxLimit
	}
	return c
}
