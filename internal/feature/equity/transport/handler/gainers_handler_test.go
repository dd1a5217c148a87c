package handler_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"equity_backend/internal/feature/equity/domain/entity"
	"equity_backend/internal/feature/equity/transport/handler"
	"equity_backend/internal/feature/equity/usecase"
)

// mockGainersUsecase はGainersUsecaseインターフェースのモック実装です。
type mockGainersUsecase struct {
	TopGainersFunc    func(ctx context.Context, source string, day *time.Time, limit int) ([]entity.Gainer, error)
	WindowGainersFunc func(ctx context.Context, limit int) ([]entity.Gainer, error)
	TradeDatesFunc    func(ctx context.Context, source string) ([]time.Time, error)
}

func (m *mockGainersUsecase) TopGainers(ctx context.Context, source string, day *time.Time, limit int) ([]entity.Gainer, error) {
	return m.TopGainersFunc(ctx, source, day, limit)
}

func (m *mockGainersUsecase) WindowGainers(ctx context.Context, limit int) ([]entity.Gainer, error) {
	return m.WindowGainersFunc(ctx, limit)
}

func (m *mockGainersUsecase) TradeDates(ctx context.Context, source string) ([]time.Time, error) {
	return m.TradeDatesFunc(ctx, source)
}

var (
	listed  = time.Date(2008, 10, 6, 0, 0, 0, 0, time.UTC)
	traded  = time.Date(2022, 12, 9, 0, 0, 0, 0, time.UTC)
	sampleG = entity.Gainer{
		Symbol: "20MICRONS", CompanyName: "20 Microns Limited", Series: "EQ",
		ListingDate: listed, ISIN: "INE144J01027", TradeDate: traded, Gains: 0.25,
	}
	sampleJSON = `[{"symbol":"20MICRONS","company_name":"20 Microns Limited","series":"EQ",` +
		`"date_of_listing":"2008-10-06","isin":"INE144J01027","timestamp":"2022-12-09","gains":0.25}]`
)

func newRouter(uc handler.GainersUsecase) *gin.Engine {
	h := handler.NewGainersHandler(uc)
	r := gin.New()
	r.GET("/gainers", h.List)
	r.GET("/gainers/window", h.Window)
	r.GET("/gainers/dates", h.Dates)
	r.GET("/gainers.csv", h.CSV)
	return r
}

// TestGainersHandler_List はList のリクエスト/レスポンス処理をテストします。
func TestGainersHandler_List(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		url            string
		mockTopGainers func(ctx context.Context, source string, day *time.Time, limit int) ([]entity.Gainer, error)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "success: all parameters specified",
			url:  "/gainers?source=series&date=2022-12-09&limit=10",
			mockTopGainers: func(ctx context.Context, source string, day *time.Time, limit int) ([]entity.Gainer, error) {
				assert.Equal(t, "series", source)
				if assert.NotNil(t, day) {
					assert.True(t, traded.Equal(*day))
				}
				assert.Equal(t, 10, limit)
				return []entity.Gainer{sampleG}, nil
			},
			expectedStatus: http.StatusOK,
			expectedBody:   sampleJSON,
		},
		{
			name: "success: default parameters",
			url:  "/gainers",
			mockTopGainers: func(ctx context.Context, source string, day *time.Time, limit int) ([]entity.Gainer, error) {
				assert.Equal(t, "", source)
				assert.Nil(t, day)
				assert.Equal(t, 0, limit)
				return []entity.Gainer{}, nil
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `[]`,
		},
		{
			name:           "error: malformed date",
			url:            "/gainers?date=09-DEC-2022",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"date must be YYYY-MM-DD"}`,
		},
		{
			name: "error: unknown source",
			url:  "/gainers?source=weekly",
			mockTopGainers: func(ctx context.Context, source string, day *time.Time, limit int) ([]entity.Gainer, error) {
				return nil, usecase.ErrUnknownSource
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"unknown ranking source"}`,
		},
		{
			name: "error: table not loaded",
			url:  "/gainers",
			mockTopGainers: func(ctx context.Context, source string, day *time.Time, limit int) ([]entity.Gainer, error) {
				return nil, usecase.ErrTableNotFound
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"error":"no data loaded"}`,
		},
		{
			name: "error: repository failure",
			url:  "/gainers",
			mockTopGainers: func(ctx context.Context, source string, day *time.Time, limit int) ([]entity.Gainer, error) {
				return nil, errors.New("connection reset")
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"error":"internal server error"}`,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			mockUC := &mockGainersUsecase{
				TopGainersFunc: func(ctx context.Context, source string, day *time.Time, limit int) ([]entity.Gainer, error) {
					if tt.mockTopGainers == nil {
						t.Fatal("usecase should not be called")
					}
					return tt.mockTopGainers(ctx, source, day, limit)
				},
			}

			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodGet, tt.url, nil)
			newRouter(mockUC).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
		})
	}
}

func TestGainersHandler_Window(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockUC := &mockGainersUsecase{
		WindowGainersFunc: func(ctx context.Context, limit int) ([]entity.Gainer, error) {
			assert.Equal(t, 5, limit)
			return []entity.Gainer{sampleG}, nil
		},
	}

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/gainers/window?limit=5", nil)
	newRouter(mockUC).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, sampleJSON, w.Body.String())
}

func TestGainersHandler_Dates(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockUC := &mockGainersUsecase{
		TradeDatesFunc: func(ctx context.Context, source string) ([]time.Time, error) {
			assert.Equal(t, "series", source)
			return []time.Time{traded.AddDate(0, 0, -1), traded}, nil
		},
	}

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/gainers/dates?source=series", nil)
	newRouter(mockUC).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"source":"series","dates":["2022-12-08","2022-12-09"]}`, w.Body.String())
}

func TestGainersHandler_Dates_DefaultSource(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockUC := &mockGainersUsecase{
		TradeDatesFunc: func(ctx context.Context, source string) ([]time.Time, error) {
			assert.Equal(t, usecase.SourceLatest, source)
			return nil, nil
		},
	}

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/gainers/dates", nil)
	newRouter(mockUC).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"source":"latest","dates":[]}`, w.Body.String())
}

// TestGainersHandler_CSV はCSVがレポートと同じ見出し行で返されることを検証します。
func TestGainersHandler_CSV(t *testing.T) {
	gin.SetMode(gin.TestMode)

	const header = "SYMBOL,NAME OF COMPANY,SERIES,DATE OF LISTING,ISIN NUMBER,TIMESTAMP,GAINS\r\n"
	const row = "20MICRONS,20 Microns Limited,EQ,2008-10-06,INE144J01027,2022-12-09,0.25\r\n"

	tests := []struct {
		name        string
		url         string
		wantWindow  bool
		wantStatus  int
		wantBody    string
		contentType string
	}{
		{name: "latest", url: "/gainers.csv", wantStatus: http.StatusOK, wantBody: header + row, contentType: "text/csv; charset=utf-8"},
		{name: "window", url: "/gainers.csv?source=window&limit=3", wantWindow: true, wantStatus: http.StatusOK, wantBody: header + row, contentType: "text/csv; charset=utf-8"},
		{name: "bad date", url: "/gainers.csv?date=2022/12/09", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			windowCalled := false
			mockUC := &mockGainersUsecase{
				TopGainersFunc: func(ctx context.Context, source string, day *time.Time, limit int) ([]entity.Gainer, error) {
					return []entity.Gainer{sampleG}, nil
				},
				WindowGainersFunc: func(ctx context.Context, limit int) ([]entity.Gainer, error) {
					windowCalled = true
					assert.Equal(t, 3, limit)
					return []entity.Gainer{sampleG}, nil
				},
			}

			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodGet, tt.url, nil)
			newRouter(mockUC).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantWindow, windowCalled)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, w.Body.String())
				assert.Equal(t, tt.contentType, w.Header().Get("Content-Type"))
			}
		})
	}
}
