package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// ReadCSV はヘッダー付きCSVを読み込み Table に変換します。
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return FromRecords(records)
}

// FromRecords は先頭行をヘッダーとしてレコードを Table に変換します。
//
// ヘッダー名は空白も含めてそのまま保持し、値は前後の空白を除去します。
// ヘッダーが空の列（bhavcopy の末尾カンマなど）は取り込みません。
// 列の型は値から推定します。
func FromRecords(records [][]string) (*Table, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no header row", ErrSchema)
	}
	header := records[0]

	var keep []int
	for i, h := range header {
		if strings.TrimSpace(h) == "" {
			continue
		}
		keep = append(keep, i)
	}

	cols := make([]Column, len(keep))
	for j, i := range keep {
		cols[j] = Column{Name: header[i], Values: make([]string, 0, len(records)-1)}
	}

	for n, rec := range records[1:] {
		if len(rec) != len(header) {
			return nil, fmt.Errorf("%w: row %d has %d fields, want %d", ErrSchema, n+1, len(rec), len(header))
		}
		for j, i := range keep {
			cols[j].Values = append(cols[j].Values, strings.TrimSpace(rec[i]))
		}
	}

	for j := range cols {
		cols[j].Kind = InferKind(cols[j].Values)
	}
	return NewTable(cols...)
}
