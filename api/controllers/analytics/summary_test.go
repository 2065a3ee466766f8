package analytics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VINCENT-bot354/safaribytes/internal/analytics/types"
)

type testAnalyticsService struct {
	last   types.SummaryRequest
	called bool
	err    error
}

func (s *testAnalyticsService) Summary(_ context.Context, req types.SummaryRequest) (*types.SummaryResponse, error) {
	s.called = true
	s.last = req
	if s.err != nil {
		return nil, s.err
	}
	return &types.SummaryResponse{FailedPayments: 2}, nil
}

func nairobi(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Africa/Nairobi")
	require.NoError(t, err)
	return loc
}

func TestSummaryExplicitDatesUseBusinessTimezone(t *testing.T) {
	svc := &testAnalyticsService{}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/analytics/summary?start=2025-10-01&end=2025-10-07", nil)

	Summary(svc, nairobi(t), nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, svc.called)
	assert.Equal(t, time.Date(2025, 9, 30, 21, 0, 0, 0, time.UTC), svc.last.Start)
	assert.Equal(t, time.Date(2025, 10, 7, 21, 0, 0, 0, time.UTC), svc.last.End)
	assert.Contains(t, rec.Body.String(), `"failed_payments":2`)
}

func TestSummaryDefaultsToThirtyDayPreset(t *testing.T) {
	fixed := time.Date(2025, 10, 20, 8, 0, 0, 0, time.UTC)
	prev := timeNowUTC
	timeNowUTC = func() time.Time { return fixed }
	t.Cleanup(func() { timeNowUTC = prev })

	svc := &testAnalyticsService{}
	rec := httptest.NewRecorder()
	Summary(svc, time.UTC, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/analytics/summary", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, fixed, svc.last.End)
	assert.Equal(t, 30*24*time.Hour, svc.last.End.Sub(svc.last.Start))
}

func TestSummaryRejectsBadRanges(t *testing.T) {
	cases := map[string]string{
		"only start":    "?start=2025-10-01",
		"reversed":      "?start=2025-10-07&end=2025-10-01",
		"bad date":      "?start=01/10/2025&end=2025-10-07",
		"unknown range": "?preset=1y",
	}
	for name, query := range cases {
		t.Run(name, func(t *testing.T) {
			svc := &testAnalyticsService{}
			rec := httptest.NewRecorder()
			Summary(svc, time.UTC, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/analytics/summary"+query, nil))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.False(t, svc.called)
		})
	}
}

func TestSummaryPropagatesServiceError(t *testing.T) {
	svc := &testAnalyticsService{err: errors.New("bq down")}
	rec := httptest.NewRecorder()
	Summary(svc, time.UTC, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/analytics/summary?start=2025-10-01&end=2025-10-01", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestSummaryTodayPresetStartsAtLocalMidnight(t *testing.T) {
	fixed := time.Date(2025, 10, 20, 8, 0, 0, 0, time.UTC)
	prev := timeNowUTC
	timeNowUTC = func() time.Time { return fixed }
	t.Cleanup(func() { timeNowUTC = prev })

	svc := &testAnalyticsService{}
	rec := httptest.NewRecorder()
	Summary(svc, nairobi(t), nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/analytics/summary?preset=today", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, time.Date(2025, 10, 19, 21, 0, 0, 0, time.UTC), svc.last.Start)
	assert.Equal(t, fixed, svc.last.End)
}
