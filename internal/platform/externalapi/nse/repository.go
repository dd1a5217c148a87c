package nse

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"equity_backend/internal/feature/equity/domain/dataset"
	"equity_backend/internal/feature/equity/usecase"
)

// maxArchiveSize は bhavcopy のzipとして受け付ける最大バイト数です。
const maxArchiveSize = 64 << 20

// ErrEmptyArchive はzipにCSVが含まれていないことを表します。
var ErrEmptyArchive = errors.New("bhavcopy archive has no csv entry")

var errNotFound = errors.New("nse http 404")

// Archive はNSEアーカイブからCSVを取得するSourceRepository実装です。
type Archive struct {
	cfg    Config
	client *http.Client
}

// ArchiveがSourceRepositoryを実装していることをコンパイル時に検証します。
var _ usecase.SourceRepository = (*Archive)(nil)

// NewArchive は指定された設定とHTTPクライアントでArchiveの新しいインスタンスを生成します。
func NewArchive(cfg Config, client *http.Client) *Archive {
	return &Archive{cfg: cfg, client: client}
}

// BhavcopyURL は day の bhavcopy のURLを返します。
// 例: {base}/2022/DEC/cm09DEC2022bhav.csv.zip
func BhavcopyURL(base string, day time.Time) string {
	mon := strings.ToUpper(day.Format("Jan"))
	return fmt.Sprintf("%s/%s/%s/cm%s%s%sbhav.csv.zip",
		strings.TrimRight(base, "/"), day.Format("2006"), mon, day.Format("02"), mon, day.Format("2006"))
}

// FetchListing は上場銘柄一覧（EQUITY_L.csv）を取得します。
func (a *Archive) FetchListing(ctx context.Context) (*dataset.Table, error) {
	body, err := a.get(ctx, a.cfg.ListingURL)
	if err != nil {
		return nil, fmt.Errorf("fetch listing: %w", err)
	}
	t, err := dataset.ReadCSV(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse listing: %w", err)
	}
	slog.Info("listing fetched", "rows", t.Len(), "columns", len(t.Columns))
	return t, nil
}

// FetchBhavcopy は day の bhavcopy をダウンロードして展開します。
// アーカイブが存在しない日（休場日）は usecase.ErrBhavcopyNotFound を返します。
func (a *Archive) FetchBhavcopy(ctx context.Context, day time.Time) (*dataset.Table, error) {
	u := BhavcopyURL(a.cfg.BhavcopyBaseURL, day)
	body, err := a.get(ctx, u)
	if errors.Is(err, errNotFound) {
		return nil, fmt.Errorf("%w: %s", usecase.ErrBhavcopyNotFound, day.Format("2006-01-02"))
	}
	if err != nil {
		return nil, fmt.Errorf("fetch bhavcopy %s: %w", day.Format("2006-01-02"), err)
	}

	zr, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return nil, fmt.Errorf("open bhavcopy archive %s: %w", u, err)
	}
	f := csvEntry(zr)
	if f == nil {
		return nil, fmt.Errorf("%w: %s", ErrEmptyArchive, u)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer func() {
		if err := rc.Close(); err != nil {
			slog.Warn("failed to close archive entry", "name", f.Name, "error", err)
		}
	}()

	t, err := dataset.ReadCSV(rc)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", f.Name, err)
	}
	return t, nil
}

// get はGETリクエストを実行してレスポンスボディを返します。
func (a *Archive) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	res, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	if res.StatusCode == http.StatusNotFound {
		return nil, errNotFound
	}
	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("nse http %d", res.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, maxArchiveSize+1))
	if err != nil {
		return nil, err
	}
	if len(body) > maxArchiveSize {
		return nil, fmt.Errorf("nse response exceeds %d bytes", maxArchiveSize)
	}
	return body, nil
}

// csvEntry はアーカイブ内の最初のCSVエントリを返します。
func csvEntry(zr *zip.Reader) *zip.File {
	for _, f := range zr.File {
		if strings.EqualFold(path.Ext(f.Name), ".csv") {
			return f
		}
	}
	return nil
}
