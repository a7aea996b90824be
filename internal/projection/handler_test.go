package projection

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/atacado-lab/sales-analytics/internal/core/analytics"
	httperr "github.com/atacado-lab/sales-analytics/internal/core/errors"
	"github.com/atacado-lab/sales-analytics/internal/core/storage"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newTestRouter(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	svc.RegisterRoutes(r)
	return r
}

func TestService_HandleDashboard_StatusMapping(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		manualErr      error
		expectedStatus int
		expectedType   string
	}{
		{
			name:           "missing dates returns 400",
			query:          "",
			expectedStatus: http.StatusBadRequest,
			expectedType:   httperr.HttpInvalidQueryError,
		},
		{
			name:           "malformed date returns 400",
			query:          "start=01/02/2024&end=2024-01-31",
			expectedStatus: http.StatusBadRequest,
			expectedType:   httperr.HttpInvalidQueryError,
		},
		{
			name:           "end before start returns 400",
			query:          "start=2024-02-01&end=2024-01-01",
			expectedStatus: http.StatusBadRequest,
			expectedType:   httperr.HttpInvalidQueryError,
		},
		{
			name:           "cancelled returns 499",
			query:          "start=2024-01-01&end=2024-01-31&client=7",
			manualErr:      storage.ErrCancelled,
			expectedStatus: statusClientClosedRequest,
			expectedType:   httperr.HttpCancelledError,
		},
		{
			name:           "source unavailable returns 503",
			query:          "start=2024-01-01&end=2024-01-31&client=7",
			manualErr:      fmt.Errorf("invoices: %w: timeout", storage.ErrSourceUnavailable),
			expectedStatus: http.StatusServiceUnavailable,
			expectedType:   httperr.HttpSourceUnavailableError,
		},
		{
			name:           "unexpected error returns 500",
			query:          "start=2024-01-01&end=2024-01-31&client=7",
			manualErr:      errors.New("boom"),
			expectedStatus: http.StatusInternalServerError,
			expectedType:   httperr.HttpInternalError,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := newTestService(&stubAggregator{}, &stubAggregator{err: tc.manualErr}, nil)
			router := newTestRouter(svc)

			req := httptest.NewRequest(http.MethodGet, "/v1/dashboard?"+tc.query, nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			require.Equal(t, tc.expectedStatus, rec.Code)

			var body httperr.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			require.Equal(t, tc.expectedType, body.ErrorType)
			require.NotEmpty(t, body.RequestID)
			require.Equal(t, body.RequestID, rec.Header().Get(requestIDHeader))
		})
	}
}

func TestService_HandleDashboard_BindsFilter(t *testing.T) {
	simple, manual := &stubAggregator{}, &stubAggregator{}
	router := newTestRouter(newTestService(simple, manual, nil))

	req := httptest.NewRequest(http.MethodGet,
		"/v1/dashboard?start=2024-01-01&end=2024-01-31&cost_center=Atacado&representative=10&representative=20,30&product=SKU-1", nil)
	req.Header.Set(requestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "req-123", rec.Header().Get(requestIDHeader))
	require.Zero(t, simple.calls())
	require.Len(t, manual.filters, 1)

	f := manual.filters[0]
	require.Equal(t, day(2024, 1, 1), f.Start)
	require.Equal(t, day(2024, 1, 31), f.End)
	require.Equal(t, "Atacado", f.CostCenter)
	require.Equal(t, []string{"10", "20", "30"}, f.Representatives)
	require.Equal(t, []string{"SKU-1"}, f.Products)

	var env analytics.ResultEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.Equal(t, analytics.StrategyManual, env.Strategy)
	require.NotNil(t, env.DailySeries)
	require.Equal(t, "2024-01-01", env.DataRangeInfo.RequestedStart)
}

func TestService_HandleDashboard_WithCities(t *testing.T) {
	cities := &stubCities{report: &analytics.CityReport{
		CityStats:     []analytics.CityStat{{Stat: analytics.Stat{Key: "Indefinido-", Label: "Indefinido"}, City: "Indefinido"}},
		DataRangeInfo: analytics.DataRangeInfo{HasCompleteData: true},
	}}
	router := newTestRouter(newTestService(&stubAggregator{}, &stubAggregator{}, cities))

	req := httptest.NewRequest(http.MethodGet, "/v1/dashboard?start=2024-01-01&end=2024-01-31&cities=true", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, cities.calls)

	var env analytics.ResultEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.Len(t, env.CityStats, 1)
	require.Equal(t, "Indefinido-", env.CityStats[0].Key)
}

func TestService_HandleCities(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		cities := &stubCities{report: &analytics.CityReport{CityStats: []analytics.CityStat{}}}
		router := newTestRouter(newTestService(&stubAggregator{}, &stubAggregator{}, cities))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/dashboard/cities?start=2024-01-01&end=2024-01-31", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		require.JSONEq(t, `{"cityStats":[],"dataRangeInfo":{"requestedStart":"","requestedEnd":"","hasCompleteData":false}}`, rec.Body.String())
	})

	t.Run("source unavailable", func(t *testing.T) {
		cities := &stubCities{err: storage.ErrSourceUnavailable}
		router := newTestRouter(newTestService(&stubAggregator{}, &stubAggregator{}, cities))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/dashboard/cities?start=2024-01-01&end=2024-01-31", nil))

		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}
