package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VINCENT-bot354/safaribytes/api/middleware"
	"github.com/VINCENT-bot354/safaribytes/internal/ledger"
	"github.com/VINCENT-bot354/safaribytes/pkg/enums"
)

type stubLedger struct {
	ledger.Service
	adminID uint64
	entryID uint64
	input   ledger.EntryInput
}

func (s *stubLedger) Summary(context.Context) (*ledger.Summary, error) {
	return &ledger.Summary{
		Entries: []ledger.EntryView{{ID: 1, Amount: decimal.NewFromInt(15000), Purpose: "Gas"}},
		Total:   decimal.NewFromInt(15000),
	}, nil
}

func (s *stubLedger) Record(_ context.Context, adminID uint64, input ledger.EntryInput) (*ledger.EntryView, error) {
	s.adminID, s.input = adminID, input
	return &ledger.EntryView{ID: 2, Amount: input.Amount, Purpose: input.Purpose}, nil
}

func (s *stubLedger) Edit(_ context.Context, adminID, id uint64, input ledger.EntryInput) (*ledger.EntryView, error) {
	s.adminID, s.entryID, s.input = adminID, id, input
	return &ledger.EntryView{ID: id, Amount: input.Amount, Purpose: input.Purpose, IsEdited: true}, nil
}

func capitalRouter(svc ledger.Service) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithIdentity(req.Context(), 3, enums.ActorRoleAdmin, "Amina")))
		})
	})
	r.Get("/admin/capital", CapitalLedger(svc, nil))
	r.Post("/admin/capital", RecordCapital(svc, nil))
	r.Put("/admin/capital/{entryId}", EditCapital(svc, nil))
	return r
}

func TestCapitalLedgerReturnsTotal(t *testing.T) {
	rec := httptest.NewRecorder()
	capitalRouter(&stubLedger{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/capital", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":"15000"`)
	assert.Contains(t, rec.Body.String(), `"purpose":"Gas"`)
}

func TestRecordCapitalUsesTokenIdentity(t *testing.T) {
	svc := &stubLedger{}
	rec := httptest.NewRecorder()
	capitalRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/capital",
		strings.NewReader(`{"amount": 2500.5, "purpose": "  Packaging  bags "}`)))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, uint64(3), svc.adminID)
	assert.Equal(t, "Packaging bags", svc.input.Purpose)
	assert.True(t, svc.input.Amount.Equal(decimal.RequireFromString("2500.5")))
}

func TestEditCapitalParsesEntryID(t *testing.T) {
	svc := &stubLedger{}
	router := capitalRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/admin/capital/abc", strings.NewReader(`{"amount":1,"purpose":"x"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/admin/capital/12", strings.NewReader(`{"amount":1,"purpose":"Fuel"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(12), svc.entryID)
	assert.Contains(t, rec.Body.String(), `"is_edited":true`)
}

func TestRecordCapitalRequiresPurpose(t *testing.T) {
	svc := &stubLedger{}
	rec := httptest.NewRecorder()
	capitalRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/capital", strings.NewReader(`{"amount":100}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, svc.adminID)
}
