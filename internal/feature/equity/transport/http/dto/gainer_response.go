// Package dto はequityフィーチャーのHTTPレスポンスDTOを提供します。
package dto

// GainerResponse は騰落率ランキングの1行です。
type GainerResponse struct {
	Symbol        string  `json:"symbol"`          // 銘柄コード
	CompanyName   string  `json:"company_name"`    // 会社名
	Series        string  `json:"series"`          // シリーズ
	DateOfListing string  `json:"date_of_listing"` // 上場日
	ISIN          string  `json:"isin"`            // ISIN
	Timestamp     string  `json:"timestamp"`       // 売買日
	Gains         float64 `json:"gains"`           // 騰落率
}

// TradeDatesResponse はロード済みの売買日一覧です。
type TradeDatesResponse struct {
	Source string   `json:"source"`
	Dates  []string `json:"dates"`
}

// ErrorResponse はエラーレスポンスです。
type ErrorResponse struct {
	Error string `json:"error"`
}
