// Package adapters はequityフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"equity_backend/internal/feature/equity/domain/entity"
	"equity_backend/internal/feature/equity/usecase"
)

// insertBatchSize は1回のINSERTでまとめる行数です。
const insertBatchSize = 500

// tableNamePattern はテーブル名として許可する識別子です。
var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// equityMySQL はEquityRepositoryインターフェースのGORM実装です。
// テーブル名は呼び出しごとに指定され、同じスキーマの複数テーブルを扱います。
type equityMySQL struct {
	db *gorm.DB
}

// equityMySQLがEquityRepositoryを実装していることをコンパイル時に検証します。
var _ usecase.EquityRepository = (*equityMySQL)(nil)

// NewEquityRepository は指定されたDB接続でequityMySQLの新しいインスタンスを生成します。
func NewEquityRepository(db *gorm.DB) *equityMySQL {
	return &equityMySQL{db: db}
}

// EquityModel はequityテーブルの1行です。列の順序はロード対象の18列と一致します。
type EquityModel struct {
	Symbol        string          `gorm:"size:255"`
	CompanyName   string          `gorm:"size:255"`
	Series        string          `gorm:"size:10"`
	DateOfListing time.Time       `gorm:"type:date"`
	PaidUpValue   int64           `gorm:"column:paid_up_value"`
	MarketLot     int64           `gorm:"column:market_lot"`
	IsinNumber    string          `gorm:"size:12;index"`
	FaceValue     int64           `gorm:"column:face_value"`
	Open          decimal.Decimal `gorm:"type:decimal(12,3)"`
	High          decimal.Decimal `gorm:"type:decimal(12,3)"`
	Low           decimal.Decimal `gorm:"type:decimal(12,3)"`
	Close         decimal.Decimal `gorm:"type:decimal(12,3)"`
	Last          decimal.Decimal `gorm:"type:decimal(12,3)"`
	PrevClose     decimal.Decimal `gorm:"column:prevclose;type:decimal(12,3)"`
	TotTrdQty     decimal.Decimal `gorm:"column:tottrdqty;type:decimal(30,5)"`
	TotTrdVal     decimal.Decimal `gorm:"column:tottrdval;type:decimal(30,5)"`
	TradeDate     time.Time       `gorm:"type:date;index"`
	TotalTrades   int64           `gorm:"column:totaltrades"`
}

// TableName はデフォルトのテーブル名を返します。実際の操作では Table() で上書きします。
func (EquityModel) TableName() string {
	return usecase.DefaultTable
}

// gainerRow はランキングクエリの結果を受け取ります。
type gainerRow struct {
	Symbol        string
	CompanyName   string
	Series        string
	DateOfListing time.Time
	IsinNumber    string
	TradeDate     time.Time
	Gains         float64
}

func toModel(e entity.Equity) EquityModel {
	return EquityModel{
		Symbol:        e.Symbol,
		CompanyName:   e.CompanyName,
		Series:        e.Series,
		DateOfListing: e.ListingDate,
		PaidUpValue:   e.PaidUpValue,
		MarketLot:     e.MarketLot,
		IsinNumber:    e.ISIN,
		FaceValue:     e.FaceValue,
		Open:          e.Open,
		High:          e.High,
		Low:           e.Low,
		Close:         e.Close,
		Last:          e.Last,
		PrevClose:     e.PrevClose,
		TotTrdQty:     e.TotalTradedQty,
		TotTrdVal:     e.TotalTradedValue,
		TradeDate:     e.TradeDate,
		TotalTrades:   e.TotalTrades,
	}
}

func toGainer(r gainerRow) entity.Gainer {
	return entity.Gainer{
		Symbol:      r.Symbol,
		CompanyName: r.CompanyName,
		Series:      r.Series,
		ListingDate: r.DateOfListing,
		ISIN:        r.IsinNumber,
		TradeDate:   r.TradeDate,
		Gains:       r.Gains,
	}
}

// Reset はテーブルを削除して作り直します。
func (r *equityMySQL) Reset(ctx context.Context, table string) error {
	if err := validateTableName(table); err != nil {
		return err
	}
	m := r.db.WithContext(ctx).Migrator()
	if err := m.DropTable(table); err != nil {
		return fmt.Errorf("drop %s: %w", table, err)
	}
	if err := r.db.WithContext(ctx).Table(table).Migrator().CreateTable(&EquityModel{}); err != nil {
		return fmt.Errorf("create %s: %w", table, err)
	}
	return nil
}

// ReplaceBatch は equities に含まれる売買日の既存行を削除してから一括挿入します。
// 同じ日を再ロードしても行が重複しないよう、1トランザクションで実行します。
func (r *equityMySQL) ReplaceBatch(ctx context.Context, table string, equities []entity.Equity) error {
	if err := validateTableName(table); err != nil {
		return err
	}
	if len(equities) == 0 {
		return nil
	}

	days := make([]time.Time, 0, 1)
	seen := map[time.Time]struct{}{}
	ms := make([]EquityModel, 0, len(equities))
	for _, e := range equities {
		if _, ok := seen[e.TradeDate]; !ok {
			seen[e.TradeDate] = struct{}{}
			days = append(days, e.TradeDate)
		}
		ms = append(ms, toModel(e))
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Table(table).Where("trade_date IN ?", days).Delete(&EquityModel{}).Error; err != nil {
			return err
		}
		return tx.Table(table).CreateInBatches(&ms, insertBatchSize).Error
	})
	return translateError(err)
}

// TopGainers は (close - open) / open の降順で最大 limit 件を返します。
// 始値が0の行は除外します。day が nil でなければその売買日の行だけを対象にします。
// limit が0以下なら全件を返します。
func (r *equityMySQL) TopGainers(ctx context.Context, table string, day *time.Time, limit int) ([]entity.Gainer, error) {
	if err := validateTableName(table); err != nil {
		return nil, err
	}

	var rows []gainerRow
	q := r.db.WithContext(ctx).
		Table(table).
		Select("symbol, company_name, series, date_of_listing, isin_number, trade_date, " + gainsExpr("close", "open") + " AS gains").
		Where("open <> 0")
	if day != nil {
		q = q.Where("trade_date = ?", *day)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Order("gains DESC").Scan(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	return toGainers(rows), nil
}

// TopGainersOverWindow は銘柄ごとに seriesTable の最も古い売買日の始値と、
// latestTable の終値から騰落率を計算し、降順で最大 limit 件を返します。
// limit が0以下なら全件を返します。
func (r *equityMySQL) TopGainersOverWindow(ctx context.Context, seriesTable, latestTable string, limit int) ([]entity.Gainer, error) {
	if err := validateTableName(seriesTable); err != nil {
		return nil, err
	}
	if err := validateTableName(latestTable); err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT s.symbol, s.company_name, s.series, s.date_of_listing, s.isin_number, s.trade_date,
	%s AS gains
FROM %s s
JOIN (SELECT isin_number, MIN(trade_date) AS first_date FROM %s GROUP BY isin_number) f
  ON f.isin_number = s.isin_number AND f.first_date = s.trade_date
JOIN %s l ON l.isin_number = s.isin_number
WHERE s.open <> 0
ORDER BY gains DESC`, gainsExpr("l.close", "s.open"), seriesTable, seriesTable, latestTable)

	// limit <= 0 は TopGainers と同じく件数制限なし
	var args []any
	if limit > 0 {
		query += "\nLIMIT ?"
		args = append(args, limit)
	}

	var rows []gainerRow
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	return toGainers(rows), nil
}

// TradeDates はテーブルに含まれる売買日を昇順で返します。
func (r *equityMySQL) TradeDates(ctx context.Context, table string) ([]time.Time, error) {
	if err := validateTableName(table); err != nil {
		return nil, err
	}
	var days []time.Time
	if err := r.db.WithContext(ctx).
		Table(table).
		Distinct("trade_date").
		Order("trade_date ASC").
		Pluck("trade_date", &days).Error; err != nil {
		return nil, translateError(err)
	}
	return days, nil
}

// gainsExpr は騰落率の式を返します。SQLiteで整数同士の除算にならないよう 1.0 を掛けます。
func gainsExpr(closeCol, openCol string) string {
	return fmt.Sprintf("(%s - %s) * 1.0 / %s", closeCol, openCol, openCol)
}

func toGainers(rows []gainerRow) []entity.Gainer {
	out := make([]entity.Gainer, 0, len(rows))
	for _, r := range rows {
		out = append(out, toGainer(r))
	}
	return out
}

func validateTableName(name string) error {
	if !tableNamePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", usecase.ErrInvalidTableName, name)
	}
	return nil
}

// translateError はテーブル未作成のエラーを usecase.ErrTableNotFound に変換します。
func translateError(err error) error {
	if err == nil {
		return nil
	}
	// MySQLエラー1146: テーブルが存在しない
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == 1146 {
		return fmt.Errorf("%w: %v", usecase.ErrTableNotFound, err)
	}
	// PostgreSQL 42P01: undefined_table
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "42P01" {
		return fmt.Errorf("%w: %v", usecase.ErrTableNotFound, err)
	}
	if strings.Contains(err.Error(), "no such table") {
		return fmt.Errorf("%w: %v", usecase.ErrTableNotFound, err)
	}
	return err
}
