// Package dataset はCSV由来の表形式データと、その正規化・結合処理を提供します。
package dataset

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind は列に格納された値の型を表します。
type Kind int

const (
	// KindString は文字列列です。
	KindString Kind = iota
	// KindNumber は全ての値が数値として解釈できる列です。
	KindNumber
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	default:
		return "string"
	}
}

// Column は名前付きの列です。Name は前後の空白も含めて元のヘッダーのまま保持します。
type Column struct {
	Name   string
	Kind   Kind
	Values []string
}

// Table は同じ長さの列を順序付きで保持する表です。
type Table struct {
	Columns []Column
}

// NewTable は列の長さと名前の一意性を検証して Table を生成します。
func NewTable(cols ...Column) (*Table, error) {
	seen := make(map[string]struct{}, len(cols))
	for i, c := range cols {
		if _, ok := seen[c.Name]; ok {
			return nil, fmt.Errorf("%w: duplicate column %q", ErrSchema, c.Name)
		}
		seen[c.Name] = struct{}{}
		if i > 0 && len(c.Values) != len(cols[0].Values) {
			return nil, fmt.Errorf("%w: column %q has %d values, want %d",
				ErrSchema, c.Name, len(c.Values), len(cols[0].Values))
		}
	}
	return &Table{Columns: cols}, nil
}

// Len は行数を返します。
func (t *Table) Len() int {
	if t == nil || len(t.Columns) == 0 {
		return 0
	}
	return len(t.Columns[0].Values)
}

// Names は列名を順番通りに返します。
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		names = append(names, c.Name)
	}
	return names
}

// Index は完全一致する列の位置を返します。存在しない場合は -1 です。
func (t *Table) Index(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Column は完全一致する列を返します。
func (t *Table) Column(name string) (*Column, bool) {
	i := t.Index(name)
	if i < 0 {
		return nil, false
	}
	return &t.Columns[i], true
}

// Row は i 行目の値を列順に返します。
func (t *Table) Row(i int) []string {
	row := make([]string, len(t.Columns))
	for j, c := range t.Columns {
		row[j] = c.Values[i]
	}
	return row
}

// Clone は値のスライスまで含めて複製します。
func (t *Table) Clone() *Table {
	cols := make([]Column, len(t.Columns))
	for i, c := range t.Columns {
		vals := make([]string, len(c.Values))
		copy(vals, c.Values)
		cols[i] = Column{Name: c.Name, Kind: c.Kind, Values: vals}
	}
	return &Table{Columns: cols}
}

// Rename は列名を変更します。変更先の名前が既に使われている場合は ErrSchema を返します。
func (t *Table) Rename(from, to string) error {
	if from == to {
		return nil
	}
	i := t.Index(from)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrMissingColumn, from)
	}
	if t.Index(to) >= 0 {
		return fmt.Errorf("%w: column %q already exists", ErrSchema, to)
	}
	t.Columns[i].Name = to
	return nil
}

// Drop は指定された列を削除します。存在しない列は無視します。
func (t *Table) Drop(names ...string) {
	drop := make(map[string]struct{}, len(names))
	for _, n := range names {
		drop[n] = struct{}{}
	}
	kept := t.Columns[:0]
	for _, c := range t.Columns {
		if _, ok := drop[c.Name]; ok {
			continue
		}
		kept = append(kept, c)
	}
	t.Columns = kept
}

// selectRows は rows に含まれる行だけを残した新しい Table を返します。
func (t *Table) selectRows(rows []int) *Table {
	cols := make([]Column, len(t.Columns))
	for i, c := range t.Columns {
		vals := make([]string, 0, len(rows))
		for _, r := range rows {
			vals = append(vals, c.Values[r])
		}
		cols[i] = Column{Name: c.Name, Kind: c.Kind, Values: vals}
	}
	return &Table{Columns: cols}
}

// InferKind は空でない値が全て数値であれば KindNumber を返します。
func InferKind(values []string) Kind {
	seen := false
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			return KindString
		}
		seen = true
	}
	if !seen {
		return KindString
	}
	return KindNumber
}
