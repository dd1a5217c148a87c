package dataset

import "fmt"

// MergeSpec は結合に使う列名を指定します。列名は完全一致で比較されます。
type MergeSpec struct {
	ListingKey  string   // 上場銘柄表の識別子列（例: " ISIN NUMBER"）
	TradingKey  string   // 売買表の識別子列。結合前に ListingKey へ改名されます
	ListingDate string   // 上場銘柄表の日付列
	TradingDate string   // 売買表の日付列
	DropTrading []string // 上場銘柄表と重複するため売買表から削除する列
}

// DefaultMergeSpec は NSE の EQUITY_L.csv と bhavcopy のヘッダーに合わせた MergeSpec を返します。
func DefaultMergeSpec() MergeSpec {
	return MergeSpec{
		ListingKey:  " ISIN NUMBER",
		TradingKey:  "ISIN",
		ListingDate: " DATE OF LISTING",
		TradingDate: "TIMESTAMP",
		DropTrading: []string{"SERIES", "SYMBOL"},
	}
}

// MergeStats は結合処理で捨てられた行の件数などを保持します。
type MergeStats struct {
	ListingRows     int
	TradingRows     int
	BadListingDates int
	BadTradingDates int
	Matched         int
}

// Merge は2つの表の日付列を正規化し、識別子列で内部結合します。
//
// 日付を変換できない行は行ごと除外されるため、列同士の位置はずれません。
// 片側にしか存在しない識別子の行はエラーにせず除外します。
// 結果の列順は上場銘柄表の全列、続いて売買表の識別子以外の列です。
// 入力の表は変更しません。
func Merge(listing, trading *Table, spec MergeSpec) (*Table, MergeStats, error) {
	stats := MergeStats{ListingRows: listing.Len(), TradingRows: trading.Len()}

	l, bad, err := normalizeDateColumn(listing, spec.ListingDate)
	if err != nil {
		return nil, stats, fmt.Errorf("listing: %w", err)
	}
	stats.BadListingDates = bad

	t, bad, err := normalizeDateColumn(trading, spec.TradingDate)
	if err != nil {
		return nil, stats, fmt.Errorf("trading: %w", err)
	}
	stats.BadTradingDates = bad

	if t.Index(spec.TradingKey) >= 0 {
		if err := t.Rename(spec.TradingKey, spec.ListingKey); err != nil {
			return nil, stats, fmt.Errorf("trading: %w", err)
		}
	}
	t.Drop(spec.DropTrading...)

	lk, ok := l.Column(spec.ListingKey)
	if !ok {
		return nil, stats, fmt.Errorf("listing: %w: %q", ErrMissingColumn, spec.ListingKey)
	}
	tk, ok := t.Column(spec.ListingKey)
	if !ok {
		return nil, stats, fmt.Errorf("trading: %w: %q", ErrMissingColumn, spec.ListingKey)
	}
	if lk.Kind != tk.Kind {
		return nil, stats, fmt.Errorf("%w: key %q is %s in listing but %s in trading",
			ErrSchema, spec.ListingKey, lk.Kind, tk.Kind)
	}

	byKey := make(map[string]int, len(lk.Values))
	for i, v := range lk.Values {
		if _, dup := byKey[v]; dup {
			return nil, stats, fmt.Errorf("%w: duplicate key %q in listing", ErrSchema, v)
		}
		byKey[v] = i
	}

	tKey := t.Index(spec.ListingKey)
	cols := make([]Column, 0, len(l.Columns)+len(t.Columns)-1)
	for _, c := range l.Columns {
		cols = append(cols, Column{Name: c.Name, Kind: c.Kind})
	}
	for j, c := range t.Columns {
		if j == tKey {
			continue
		}
		cols = append(cols, Column{Name: c.Name, Kind: c.Kind})
	}

	// 上場銘柄表の行順を保ち、同じ識別子を持つ売買行を出現順に並べる
	matches := make(map[int][]int)
	for i, v := range tk.Values {
		if li, ok := byKey[v]; ok {
			matches[li] = append(matches[li], i)
		}
	}
	for li := 0; li < l.Len(); li++ {
		for _, ti := range matches[li] {
			n := 0
			for _, c := range l.Columns {
				cols[n].Values = append(cols[n].Values, c.Values[li])
				n++
			}
			for j, c := range t.Columns {
				if j == tKey {
					continue
				}
				cols[n].Values = append(cols[n].Values, c.Values[ti])
				n++
			}
			stats.Matched++
		}
	}

	out, err := NewTable(cols...)
	if err != nil {
		return nil, stats, err
	}
	return out, stats, nil
}

// normalizeDateColumn は複製した表の日付列を ISO 形式に置き換え、変換できない行を除外します。
func normalizeDateColumn(src *Table, name string) (*Table, int, error) {
	t := src.Clone()
	c, ok := t.Column(name)
	if !ok {
		return nil, 0, fmt.Errorf("%w: %q", ErrMissingColumn, name)
	}

	results := ParseDates(c.Values)
	keep := make([]int, 0, len(results))
	for i, r := range results {
		if !r.OK {
			continue
		}
		c.Values[i] = r.Value
		keep = append(keep, i)
	}
	c.Kind = KindString

	bad := len(results) - len(keep)
	if bad == 0 {
		return t, 0, nil
	}
	return t.selectRows(keep), bad, nil
}
