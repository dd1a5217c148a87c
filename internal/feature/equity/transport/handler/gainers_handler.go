// Package handler はequityフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"equity_backend/internal/feature/equity/domain/entity"
	"equity_backend/internal/feature/equity/transport/http/dto"
	"equity_backend/internal/feature/equity/usecase"
	"equity_backend/internal/platform/report"
)

const dateLayout = "2006-01-02"

// sourceWindow は /gainers.csv で期間全体のランキングを指定する値です。
const sourceWindow = "window"

// GainersUsecase はランキング読み出しのユースケースインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type GainersUsecase interface {
	TopGainers(ctx context.Context, source string, day *time.Time, limit int) ([]entity.Gainer, error)
	WindowGainers(ctx context.Context, limit int) ([]entity.Gainer, error)
	TradeDates(ctx context.Context, source string) ([]time.Time, error)
}

// GainersHandler は騰落率ランキングのHTTPリクエストを処理します。
type GainersHandler struct {
	uc GainersUsecase
}

// NewGainersHandler は指定されたusecaseでGainersHandlerの新しいインスタンスを生成します。
func NewGainersHandler(uc GainersUsecase) *GainersHandler {
	return &GainersHandler{uc: uc}
}

// List はテーブルごとのランキングをJSONで返します。
//
// エンドポイント例:
// GET /gainers?source=series&date=2022-12-08&limit=25
func (h *GainersHandler) List(c *gin.Context) {
	day, ok := parseDay(c)
	if !ok {
		return
	}
	gainers, err := h.uc.TopGainers(c.Request.Context(), c.Query("source"), day, queryLimit(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponses(gainers))
}

// Window は遡り期間全体のランキングをJSONで返します。
//
// エンドポイント例:
// GET /gainers/window?limit=25
func (h *GainersHandler) Window(c *gin.Context) {
	gainers, err := h.uc.WindowGainers(c.Request.Context(), queryLimit(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponses(gainers))
}

// Dates はロード済みの売買日を返します。
//
// エンドポイント例:
// GET /gainers/dates?source=series
func (h *GainersHandler) Dates(c *gin.Context) {
	source := c.DefaultQuery("source", usecase.SourceLatest)
	days, err := h.uc.TradeDates(c.Request.Context(), source)
	if err != nil {
		writeError(c, err)
		return
	}
	out := dto.TradeDatesResponse{Source: source, Dates: make([]string, 0, len(days))}
	for _, d := range days {
		out.Dates = append(out.Dates, d.Format(dateLayout))
	}
	c.JSON(http.StatusOK, out)
}

// CSV はランキングをレポートと同じ形式のCSVで返します。source=window で期間全体のランキングです。
//
// エンドポイント例:
// GET /gainers.csv?source=latest&limit=25
func (h *GainersHandler) CSV(c *gin.Context) {
	var (
		gainers []entity.Gainer
		err     error
	)
	source := c.Query("source")
	if source == sourceWindow {
		gainers, err = h.uc.WindowGainers(c.Request.Context(), queryLimit(c))
	} else {
		day, ok := parseDay(c)
		if !ok {
			return
		}
		gainers, err = h.uc.TopGainers(c.Request.Context(), source, day, queryLimit(c))
	}
	if err != nil {
		writeError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := report.WriteCSV(&buf, gainers); err != nil {
		writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// parseDay は date クエリを解釈します。不正な場合は400を書き込み false を返します。
func parseDay(c *gin.Context) (*time.Time, bool) {
	s := c.Query("date")
	if s == "" {
		return nil, true
	}
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "date must be YYYY-MM-DD"})
		return nil, false
	}
	return &d, true
}

// queryLimit は limit クエリを整数に変換します。不正な値は0となり、usecaseでデフォルト値に置き換えられます。
func queryLimit(c *gin.Context) int {
	n, _ := strconv.Atoi(c.Query("limit"))
	return n
}

// writeError はエラーの種類に応じたステータスコードでエラーレスポンスを書き込みます。
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, usecase.ErrUnknownSource), errors.Is(err, usecase.ErrInvalidTableName):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, usecase.ErrTableNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "no data loaded"})
	default:
		slog.Error("failed to read gainers", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}
}

func toResponses(gainers []entity.Gainer) []dto.GainerResponse {
	out := make([]dto.GainerResponse, 0, len(gainers))
	for _, g := range gainers {
		out = append(out, dto.GainerResponse{
			Symbol:        g.Symbol,
			CompanyName:   g.CompanyName,
			Series:        g.Series,
			DateOfListing: g.ListingDate.Format(dateLayout),
			ISIN:          g.ISIN,
			Timestamp:     g.TradeDate.Format(dateLayout),
			Gains:         g.Gains,
		})
	}
	return out
}
