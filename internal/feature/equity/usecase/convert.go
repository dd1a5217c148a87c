package usecase

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"equity_backend/internal/feature/equity/domain/dataset"
	"equity_backend/internal/feature/equity/domain/entity"
)

// isoDate は正規化後の日付形式です。
const isoDate = "2006-01-02"

// equityColumns はロード対象の列名（前後の空白を除いたもの）です。順序はテーブルの列順と一致します。
var equityColumns = []string{
	"SYMBOL", "NAME OF COMPANY", "SERIES", "DATE OF LISTING", "PAID UP VALUE", "MARKET LOT",
	"ISIN NUMBER", "FACE VALUE", "OPEN", "HIGH", "LOW", "CLOSE", "LAST", "PREVCLOSE",
	"TOTTRDQTY", "TOTTRDVAL", "TIMESTAMP", "TOTALTRADES",
}

// ToEquities は結合済みの表を entity.Equity に変換します。
//
// 列はヘッダーの前後の空白を除いた名前で対応付けます。
// 暦として存在しない日付や数値として解釈できない値を含む行はスキップし、その件数を返します。
func ToEquities(t *dataset.Table) ([]entity.Equity, int, error) {
	idx := make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		idx[strings.TrimSpace(c.Name)] = i
	}
	pos := make([]int, len(equityColumns))
	for i, name := range equityColumns {
		j, ok := idx[name]
		if !ok {
			return nil, 0, fmt.Errorf("%w: %q", dataset.ErrMissingColumn, name)
		}
		pos[i] = j
	}

	out := make([]entity.Equity, 0, t.Len())
	skipped := 0
	for r := 0; r < t.Len(); r++ {
		row := t.Row(r)
		vals := make([]string, len(pos))
		for i, j := range pos {
			vals[i] = row[j]
		}
		e, err := toEquity(vals)
		if err != nil {
			skipped++
			continue
		}
		out = append(out, e)
	}
	return out, skipped, nil
}

// toEquity は equityColumns の順に並んだ値を1件のエンティティに変換します。
func toEquity(v []string) (entity.Equity, error) {
	var (
		e entity.Equity
		p parser
	)

	e.Symbol = v[0]
	e.CompanyName = v[1]
	e.Series = v[2]
	e.ListingDate = p.date(v[3])
	e.PaidUpValue = p.integer(v[4])
	e.MarketLot = p.integer(v[5])
	e.ISIN = v[6]
	e.FaceValue = p.integer(v[7])
	e.Open = p.decimal(v[8])
	e.High = p.decimal(v[9])
	e.Low = p.decimal(v[10])
	e.Close = p.decimal(v[11])
	e.Last = p.decimal(v[12])
	e.PrevClose = p.decimal(v[13])
	e.TotalTradedQty = p.decimal(v[14])
	e.TotalTradedValue = p.decimal(v[15])
	e.TradeDate = p.date(v[16])
	e.TotalTrades = p.integer(v[17])

	return e, p.err
}

// parser は最初に発生したエラーだけを保持しながら値を順に変換します。
type parser struct {
	err error
}

func (p *parser) date(s string) time.Time {
	t, err := time.Parse(isoDate, s)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("parse date %q: %w", s, err)
	}
	return t
}

func (p *parser) decimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("parse decimal %q: %w", s, err)
	}
	return d
}

func (p *parser) integer(s string) int64 {
	d, err := decimal.NewFromString(s)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("parse integer %q: %w", s, err)
	}
	return d.IntPart()
}
