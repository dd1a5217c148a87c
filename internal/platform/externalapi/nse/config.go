// Package nse はNSEアーカイブから上場銘柄一覧と日次の bhavcopy を取得するクライアントを提供します。
package nse

import (
	"os"
	"strconv"
	"time"
)

const (
	defaultListingURL        = "https://archives.nseindia.com/content/equities/EQUITY_L.csv"
	defaultBhavcopyBaseURL   = "https://archives.nseindia.com/content/historical/EQUITIES"
	defaultUserAgent         = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
	defaultTimeout           = 30 * time.Second
	defaultRequestsPerMinute = 30
)

// Config はNSEアーカイブクライアントの設定を保持します。
type Config struct {
	ListingURL        string        // EQUITY_L.csv のURL
	BhavcopyBaseURL   string        // bhavcopy アーカイブのベースURL（末尾のスラッシュなし）
	UserAgent         string        // リクエストに付与するUser-Agent
	Timeout           time.Duration // HTTPリクエストのタイムアウト
	RequestsPerMinute int           // 1分あたりの最大リクエスト数。0以下は無制限
}

// LoadConfig は環境変数からNSEクライアントの設定を読み込みます。
func LoadConfig() Config {
	cfg := Config{
		ListingURL:        envOr("NSE_LISTING_URL", defaultListingURL),
		BhavcopyBaseURL:   envOr("NSE_BHAVCOPY_BASE_URL", defaultBhavcopyBaseURL),
		UserAgent:         envOr("NSE_USER_AGENT", defaultUserAgent),
		Timeout:           defaultTimeout,
		RequestsPerMinute: defaultRequestsPerMinute,
	}
	if d, err := time.ParseDuration(os.Getenv("NSE_TIMEOUT")); err == nil && d > 0 {
		cfg.Timeout = d
	}
	if n, err := strconv.Atoi(os.Getenv("NSE_REQUESTS_PER_MINUTE")); err == nil {
		cfg.RequestsPerMinute = n
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
