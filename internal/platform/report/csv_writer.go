// Package report はランキング結果のCSV出力を提供します。
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"equity_backend/internal/feature/equity/domain/entity"
	"equity_backend/internal/feature/equity/usecase"
)

// Header はランキングCSVの見出し行です。
var Header = []string{"SYMBOL", "NAME OF COMPANY", "SERIES", "DATE OF LISTING", "ISIN NUMBER", "TIMESTAMP", "GAINS"}

const dateLayout = "2006-01-02"

// CSVWriter は Dir 配下のCSVファイルにランキングを追記します。
type CSVWriter struct {
	Dir string
}

// CSVWriterがReportWriterを実装していることをコンパイル時に検証します。
var _ usecase.ReportWriter = (*CSVWriter)(nil)

// NewCSVWriter は dir に出力する CSVWriter を生成します。
func NewCSVWriter(dir string) *CSVWriter {
	return &CSVWriter{Dir: dir}
}

// Append は name のファイルに見出し行とランキングを1ブロックとして追記します。
// ファイルが存在しない場合は作成します。
func (w *CSVWriter) Append(name string, gainers []entity.Gainer) error {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	p := filepath.Join(w.Dir, name)
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open report %s: %w", p, err)
	}
	if err := writeAndClose(f, gainers); err != nil {
		return fmt.Errorf("write report %s: %w", p, err)
	}
	slog.Info("report written", "path", p, "rows", len(gainers))
	return nil
}

// writeAndClose は f にランキングを書き出して閉じます。Close の失敗もエラーとして返します。
func writeAndClose(f io.WriteCloser, gainers []entity.Gainer) (err error) {
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close: %w", cerr)
		}
	}()
	return WriteCSV(f, gainers)
}

// WriteCSV は見出し行に続けてランキングを書き出します。
func WriteCSV(w io.Writer, gainers []entity.Gainer) error {
	cw := csv.NewWriter(w)
	cw.UseCRLF = true

	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, g := range gainers {
		if err := cw.Write(Record(g)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Record は1銘柄分の行を見出し行と同じ列順で返します。
func Record(g entity.Gainer) []string {
	return []string{
		g.Symbol,
		g.CompanyName,
		g.Series,
		g.ListingDate.Format(dateLayout),
		g.ISIN,
		g.TradeDate.Format(dateLayout),
		strconv.FormatFloat(g.Gains, 'f', -1, 64),
	}
}
