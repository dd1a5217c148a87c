package usecase

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equity_backend/internal/feature/equity/domain/dataset"
)

// mergedHeader は EQUITY_L.csv と bhavcopy を結合した後のヘッダーです。
var mergedHeader = []string{
	"SYMBOL", "NAME OF COMPANY", " SERIES", " DATE OF LISTING", " PAID UP VALUE", " MARKET LOT",
	" ISIN NUMBER", " FACE VALUE", "OPEN", "HIGH", "LOW", "CLOSE", "LAST", "PREVCLOSE",
	"TOTTRDQTY", "TOTTRDVAL", "TIMESTAMP", "TOTALTRADES",
}

func mergedRow(isin, listingDate, tradeDate, open, close string) []string {
	return []string{
		"SYM" + isin, "Company " + isin, "EQ", listingDate, "5", "1",
		isin, "5", open, "110.5", "98", close, "106.9", "101.25",
		"12345", "1318550.75", tradeDate, "420",
	}
}

func mergedTable(t *testing.T, rows ...[]string) *dataset.Table {
	t.Helper()

	tbl, err := dataset.FromRecords(append([][]string{mergedHeader}, rows...))
	require.NoError(t, err)
	return tbl
}

func TestToEquities(t *testing.T) {
	t.Parallel()

	tbl := mergedTable(t, mergedRow("INE144J01027", "2008-10-06", "2022-12-09", "100", "106.95"))

	got, skipped, err := ToEquities(tbl)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 0, skipped)

	e := got[0]
	assert.Equal(t, "SYMINE144J01027", e.Symbol)
	assert.Equal(t, "Company INE144J01027", e.CompanyName)
	assert.Equal(t, "EQ", e.Series)
	assert.Equal(t, time.Date(2008, 10, 6, 0, 0, 0, 0, time.UTC), e.ListingDate)
	assert.Equal(t, int64(5), e.PaidUpValue)
	assert.Equal(t, int64(1), e.MarketLot)
	assert.Equal(t, "INE144J01027", e.ISIN)
	assert.Equal(t, int64(5), e.FaceValue)
	assert.True(t, decimal.RequireFromString("100").Equal(e.Open))
	assert.True(t, decimal.RequireFromString("106.95").Equal(e.Close))
	assert.True(t, decimal.RequireFromString("1318550.75").Equal(e.TotalTradedValue))
	assert.Equal(t, time.Date(2022, 12, 9, 0, 0, 0, 0, time.UTC), e.TradeDate)
	assert.Equal(t, int64(420), e.TotalTrades)
}

// TestToEquities_SkipsInvalidRows は暦として存在しない日付や数値でない価格を含む行がスキップされることを検証します。
func TestToEquities_SkipsInvalidRows(t *testing.T) {
	t.Parallel()

	tbl := mergedTable(t,
		mergedRow("A", "2008-10-06", "2022-12-09", "100", "106"),
		mergedRow("B", "2022-02-31", "2022-12-09", "100", "106"),
		mergedRow("C", "2008-10-06", "2022-12-09", "-", "106"),
		mergedRow("D", "2008-10-06", "2022-12-09", "100", "106"),
	)

	got, skipped, err := ToEquities(tbl)
	require.NoError(t, err)

	assert.Equal(t, 2, skipped)
	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].ISIN)
	assert.Equal(t, "D", got[1].ISIN)
}

func TestToEquities_MissingColumn(t *testing.T) {
	t.Parallel()

	tbl := mergedTable(t, mergedRow("A", "2008-10-06", "2022-12-09", "100", "106"))
	tbl.Drop("TOTALTRADES")

	_, _, err := ToEquities(tbl)
	assert.ErrorIs(t, err, dataset.ErrMissingColumn)
}
