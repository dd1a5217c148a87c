package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"equity_backend/internal/feature/equity/domain/dataset"
	"equity_backend/internal/feature/equity/domain/entity"
	"equity_backend/internal/shared/ratelimiter"
)

// ランキングCSVのファイル名です。
const (
	LatestReport = "query1results.csv" // 基準日のランキング
	SeriesReport = "query2results.csv" // 遡り期間の営業日ごとのランキング
	WindowReport = "query3results.csv" // 遡り期間全体の騰落率ランキング
)

// SourceRepository は上場銘柄一覧と日次の bhavcopy を取得するリポジトリのインターフェイスです。
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type SourceRepository interface {
	FetchListing(ctx context.Context) (*dataset.Table, error)
	// FetchBhavcopy は公開されていない日について ErrBhavcopyNotFound を返します。
	FetchBhavcopy(ctx context.Context, day time.Time) (*dataset.Table, error)
}

// GainersRepository はロード済みテーブルに対するランキング検索を抽象化します。
type GainersRepository interface {
	// TopGainers は騰落率の降順で最大 limit 件を返します。day が nil の場合は全日付が対象です。
	TopGainers(ctx context.Context, table string, day *time.Time, limit int) ([]entity.Gainer, error)
	// TopGainersOverWindow は銘柄ごとに seriesTable の最も古い日の始値と latestTable の終値から騰落率を計算します。
	TopGainersOverWindow(ctx context.Context, seriesTable, latestTable string, limit int) ([]entity.Gainer, error)
	// TradeDates はテーブルに含まれる売買日を昇順で返します。
	TradeDates(ctx context.Context, table string) ([]time.Time, error)
}

// EquityRepository はequityテーブルの書き込みと検索を抽象化します。
type EquityRepository interface {
	GainersRepository
	// Reset はテーブルを削除して作り直します。
	Reset(ctx context.Context, table string) error
	// ReplaceBatch は equities に含まれる売買日の既存行を置き換えます。
	ReplaceBatch(ctx context.Context, table string, equities []entity.Equity) error
}

// ReportWriter はランキング結果を書き出します。
type ReportWriter interface {
	Append(name string, gainers []entity.Gainer) error
}

// RunOptions は Run の対象日と遡り日数を指定します。
type RunOptions struct {
	Date         time.Time // 基準日
	LookbackDays int       // 基準日を含めて遡る暦日数
}

// IngestUsecase は bhavcopy を取得・結合してテーブルにロードし、ランキングを出力するユースケースです。
type IngestUsecase struct {
	source  SourceRepository
	repo    EquityRepository
	report  ReportWriter
	limiter ratelimiter.Limiter
	cfg     Config
	spec    dataset.MergeSpec
}

// NewIngestUsecase は新しい IngestUsecase を作成します。
func NewIngestUsecase(source SourceRepository, repo EquityRepository, report ReportWriter, limiter ratelimiter.Limiter, cfg Config) *IngestUsecase {
	return &IngestUsecase{
		source:  source,
		repo:    repo,
		report:  report,
		limiter: limiter,
		cfg:     cfg.withDefaults(),
		spec:    dataset.DefaultMergeSpec(),
	}
}

// IngestDay は指定日の bhavcopy を取得し、上場銘柄一覧と結合して table にロードします。
// ロードした行数を返します。
func (iu *IngestUsecase) IngestDay(ctx context.Context, listing *dataset.Table, day time.Time, table string) (int, error) {
	trading, err := iu.source.FetchBhavcopy(ctx, day)
	if err != nil {
		return 0, err
	}

	merged, stats, err := dataset.Merge(listing, trading, iu.spec)
	if err != nil {
		return 0, fmt.Errorf("merge %s: %w", day.Format(isoDate), err)
	}

	equities, skipped, err := ToEquities(merged)
	if err != nil {
		return 0, fmt.Errorf("convert %s: %w", day.Format(isoDate), err)
	}

	slog.Info("merged bhavcopy",
		"date", day.Format(isoDate),
		"table", table,
		"listing_rows", stats.ListingRows,
		"trading_rows", stats.TradingRows,
		"matched", stats.Matched,
		"bad_listing_dates", stats.BadListingDates,
		"bad_trading_dates", stats.BadTradingDates,
		"skipped", skipped,
	)

	if err := iu.repo.ReplaceBatch(ctx, table, equities); err != nil {
		return 0, fmt.Errorf("load %s: %w", day.Format(isoDate), err)
	}
	return len(equities), nil
}

// Run は基準日のロードとランキング、遡り期間の営業日ごとのロードとランキング、
// 期間全体のランキングを順に実行します。
//
// 基準日の取得・結合・ロードに失敗した場合はエラーを返します。
// 遡り期間の各営業日は失敗してもログに出力して次の日へ進みます。
func (iu *IngestUsecase) Run(ctx context.Context, opts RunOptions) error {
	if opts.Date.IsZero() {
		return errors.New("run: date is required")
	}
	if opts.LookbackDays < 0 {
		return fmt.Errorf("run: lookback days must not be negative: %d", opts.LookbackDays)
	}
	day := truncateDay(opts.Date)

	listing, err := iu.source.FetchListing(ctx)
	if err != nil {
		return fmt.Errorf("fetch listing: %w", err)
	}
	slog.Info("fetched listing", "rows", listing.Len())

	if err := iu.repo.Reset(ctx, iu.cfg.Table); err != nil {
		return fmt.Errorf("reset %s: %w", iu.cfg.Table, err)
	}
	n, err := iu.IngestDay(ctx, listing, day, iu.cfg.Table)
	if err != nil {
		return err
	}
	slog.Info("loaded base day", "date", day.Format(isoDate), "rows", n)

	latest, err := iu.repo.TopGainers(ctx, iu.cfg.Table, nil, iu.cfg.Limit)
	if err != nil {
		return fmt.Errorf("rank %s: %w", iu.cfg.Table, err)
	}
	if err := iu.report.Append(LatestReport, latest); err != nil {
		return err
	}

	if err := iu.repo.Reset(ctx, iu.cfg.SeriesTable); err != nil {
		return fmt.Errorf("reset %s: %w", iu.cfg.SeriesTable, err)
	}

	loaded := 0
	for _, d := range TradingDays(day, opts.LookbackDays) {
		d := d
		if err := iu.limiter.Wait(ctx); err != nil {
			return err
		}
		if _, err := iu.IngestDay(ctx, listing, d, iu.cfg.SeriesTable); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, ErrBhavcopyNotFound) {
				slog.Info("no bhavcopy published, skipping", "date", d.Format(isoDate))
				continue
			}
			// 1日分の失敗では処理を止めずにログに出力し、次の営業日へ進む
			slog.Error("failed to ingest day", "date", d.Format(isoDate), "error", err)
			continue
		}
		loaded++

		gainers, err := iu.repo.TopGainers(ctx, iu.cfg.SeriesTable, &d, iu.cfg.Limit)
		if err != nil {
			return fmt.Errorf("rank %s %s: %w", iu.cfg.SeriesTable, d.Format(isoDate), err)
		}
		if err := iu.report.Append(SeriesReport, gainers); err != nil {
			return err
		}
	}

	if loaded == 0 {
		slog.Warn("no trading day loaded in look-back window", "date", day.Format(isoDate), "lookback_days", opts.LookbackDays)
		return nil
	}

	window, err := iu.repo.TopGainersOverWindow(ctx, iu.cfg.SeriesTable, iu.cfg.Table, iu.cfg.Limit)
	if err != nil {
		return fmt.Errorf("rank window: %w", err)
	}
	return iu.report.Append(WindowReport, window)
}

// TradingDays は end から遡って days 暦日分の平日を新しい順に返します。end 自身も含みます。
// days が0以下なら nil を返します。
func TradingDays(end time.Time, days int) []time.Time {
	if days <= 0 {
		return nil
	}
	end = truncateDay(end)
	out := make([]time.Time, 0, days)
	for i := 0; i < days; i++ {
		d := end.AddDate(0, 0, -i)
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		out = append(out, d)
	}
	return out
}

// truncateDay は日付部分だけを残した UTC の時刻を返します。
func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
