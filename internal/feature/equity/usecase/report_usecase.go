package usecase

import (
	"context"
	"fmt"
	"time"

	"equity_backend/internal/feature/equity/domain/entity"
)

// ランキングの対象テーブルを指定する名前です。
const (
	SourceLatest = "latest"
	SourceSeries = "series"
)

// ReportUsecase はロード済みテーブルからランキングを読み出すユースケースです。
type ReportUsecase struct {
	repo GainersRepository
	cfg  Config
}

// NewReportUsecase は新しい ReportUsecase を作成します。
func NewReportUsecase(repo GainersRepository, cfg Config) *ReportUsecase {
	return &ReportUsecase{repo: repo, cfg: cfg.withDefaults()}
}

// TopGainers は source のテーブルから騰落率上位の銘柄を返します。
// source が空の場合は基準日のテーブルを使用します。
func (ru *ReportUsecase) TopGainers(ctx context.Context, source string, day *time.Time, limit int) ([]entity.Gainer, error) {
	table, err := ru.table(source)
	if err != nil {
		return nil, err
	}
	if day != nil {
		d := truncateDay(*day)
		day = &d
	}
	return ru.repo.TopGainers(ctx, table, day, ru.limit(limit))
}

// WindowGainers は遡り期間全体の騰落率上位の銘柄を返します。
func (ru *ReportUsecase) WindowGainers(ctx context.Context, limit int) ([]entity.Gainer, error) {
	return ru.repo.TopGainersOverWindow(ctx, ru.cfg.SeriesTable, ru.cfg.Table, ru.limit(limit))
}

// TradeDates は source のテーブルにロード済みの売買日を返します。
func (ru *ReportUsecase) TradeDates(ctx context.Context, source string) ([]time.Time, error) {
	table, err := ru.table(source)
	if err != nil {
		return nil, err
	}
	return ru.repo.TradeDates(ctx, table)
}

func (ru *ReportUsecase) table(source string) (string, error) {
	switch source {
	case "", SourceLatest:
		return ru.cfg.Table, nil
	case SourceSeries:
		return ru.cfg.SeriesTable, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSource, source)
	}
}

func (ru *ReportUsecase) limit(n int) int {
	switch {
	case n <= 0:
		return ru.cfg.Limit
	case n > MaxLimit:
		return MaxLimit
	}
	return n
}
