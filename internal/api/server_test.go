package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"

	apperrors "github.com/figure-tracker/internal/errors"
	"github.com/figure-tracker/internal/job"
	"github.com/figure-tracker/internal/models"
	"github.com/figure-tracker/internal/service"
	"github.com/figure-tracker/internal/types"
)

type mockFigureSync struct {
	syncAllCalled bool
}

func (m *mockFigureSync) SyncOne(ctx context.Context, name string) (*models.Figure, error) {
	if name == "없는사람" {
		return nil, apperrors.NewEmptyResultError(name)
	}
	return &models.Figure{FigureID: "F001", Name: name}, nil
}

func (m *mockFigureSync) SyncMany(ctx context.Context, names []string) *types.BatchResult {
	return &types.BatchResult{SuccessCount: len(names)}
}

func (m *mockFigureSync) SyncManyAsync(names []string) (string, error) {
	return "job-123", nil
}

func (m *mockFigureSync) SyncParty(ctx context.Context, party string) (*types.BatchResult, error) {
	return &types.BatchResult{SuccessCount: 2}, nil
}

func (m *mockFigureSync) SyncAll(ctx context.Context) (*types.BatchResult, error) {
	m.syncAllCalled = true
	return &types.BatchResult{SuccessCount: 5}, nil
}

func (m *mockFigureSync) SyncAllAsync() string {
	return "job-456"
}

type mockStatementSync struct{}

func (m *mockStatementSync) SyncByFigure(ctx context.Context, figureName string) (*types.BatchResult, error) {
	if figureName == "없는사람" {
		return nil, apperrors.NewNotFoundError("figure", figureName)
	}
	return &types.BatchResult{SuccessCount: 3}, nil
}

func (m *mockStatementSync) SyncManyFigures(ctx context.Context, figureNames []string) *types.BatchResult {
	return &types.BatchResult{SuccessCount: len(figureNames)}
}

type mockBillSync struct{}

func (m *mockBillSync) SyncByProposer(ctx context.Context, proposerName string) (*types.BatchResult, error) {
	return &types.BatchResult{SuccessCount: 1}, nil
}

func (m *mockBillSync) SyncAllPaged(ctx context.Context) (*types.BatchResult, error) {
	return &types.BatchResult{SuccessCount: 10}, nil
}

type mockFigureQuery struct{}

func (m *mockFigureQuery) GetFigure(ctx context.Context, figureID string) (*models.Figure, error) {
	if figureID == "F404" {
		return nil, apperrors.NewNotFoundError("figure", figureID)
	}
	return &models.Figure{FigureID: figureID, Name: "홍길동"}, nil
}

func (m *mockFigureQuery) ListByParty(ctx context.Context, party string) ([]*models.Figure, error) {
	return []*models.Figure{{FigureID: "F001", Party: party}}, nil
}

func (m *mockFigureQuery) ListPopular(ctx context.Context, limit int) ([]*models.Figure, error) {
	return []*models.Figure{{FigureID: "F001"}}, nil
}

func (m *mockFigureQuery) Search(ctx context.Context, keyword string) ([]*models.Figure, error) {
	return []*models.Figure{{FigureID: "F001", Name: keyword}}, nil
}

type mockActivityQuery struct {
	lastLimit int
}

func (m *mockActivityQuery) FigureBills(ctx context.Context, figureID string) (*service.FigureBills, error) {
	if figureID == "F404" {
		return nil, apperrors.NewNotFoundError("figure", figureID)
	}
	return &service.FigureBills{
		FigureID: figureID,
		Proposer: "홍길동",
		Total:    2,
		Bills:    []*models.Bill{{BillID: "B001"}, {BillID: "B002"}},
	}, nil
}

func (m *mockActivityQuery) FigureStatements(ctx context.Context, figureID string, limit int) (*service.FigureStatements, error) {
	if figureID == "F404" {
		return nil, apperrors.NewNotFoundError("figure", figureID)
	}
	m.lastLimit = limit
	return &service.FigureStatements{
		FigureID:   figureID,
		Total:      1,
		Statements: []*models.Statement{{FigureID: figureID, OriginalURL: "https://news.example/1"}},
	}, nil
}

func (m *mockActivityQuery) GetBill(ctx context.Context, billID string) (*models.Bill, error) {
	if billID == "B404" {
		return nil, apperrors.NewNotFoundError("bill", billID)
	}
	return &models.Bill{BillID: billID, Title: "테스트 법안"}, nil
}

func (m *mockActivityQuery) Stats(ctx context.Context) (*service.TrackerStats, error) {
	return &service.TrackerStats{Figures: 300, Bills: 1200}, nil
}

type mockJobTracker struct {
	jobs map[string]*job.Status
}

func (m *mockJobTracker) Get(jobID string) *job.Status {
	return m.jobs[jobID]
}

func (m *mockJobTracker) List() []*job.Status {
	out := make([]*job.Status, 0, len(m.jobs))
	for _, s := range m.jobs {
		out = append(out, s)
	}
	return out
}

type mockCacheAdmin struct {
	evictedFigures  []string
	evictedPatterns []string
	evictedAll      bool
}

func (m *mockCacheAdmin) InvalidateFigure(ctx context.Context, figureID string) error {
	m.evictedFigures = append(m.evictedFigures, figureID)
	return nil
}

func (m *mockCacheAdmin) InvalidatePattern(ctx context.Context, pattern string) error {
	m.evictedPatterns = append(m.evictedPatterns, pattern)
	return nil
}

func (m *mockCacheAdmin) InvalidateAll(ctx context.Context) error {
	m.evictedAll = true
	return nil
}

func createTestServer() *Server {
	config := &ServerConfig{
		Host:           "localhost",
		Port:           "8080",
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    60 * time.Second,
		RequestsPerSec: 1000,
	}

	server := &Server{
		router:        mux.NewRouter(),
		figureSync:    &mockFigureSync{},
		statementSync: &mockStatementSync{},
		billSync:      &mockBillSync{},
		figureQuery:   &mockFigureQuery{},
		activityQuery: &mockActivityQuery{},
		jobs:          &mockJobTracker{jobs: map[string]*job.Status{}},
		cacheAdmin:    &mockCacheAdmin{},
		config:        config,
	}
	server.setupRouter()
	return server
}

func doRequest(server *Server, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	server.router.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	server := createTestServer()

	w := doRequest(server, "GET", "/health")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var response map[string]string
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response["status"] != "healthy" {
		t.Errorf("status = %q, want healthy", response["status"])
	}
}

func TestGetFigure(t *testing.T) {
	server := createTestServer()

	w := doRequest(server, "GET", "/api/figures/F001")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var figure models.Figure
	if err := json.NewDecoder(w.Body).Decode(&figure); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if figure.FigureID != "F001" {
		t.Errorf("FigureID = %q, want F001", figure.FigureID)
	}
}

func TestGetFigure_NotFound(t *testing.T) {
	server := createTestServer()

	w := doRequest(server, "GET", "/api/figures/F404")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestListPopular_LimitValidation(t *testing.T) {
	server := createTestServer()

	tests := []struct {
		name     string
		path     string
		wantCode int
	}{
		{"default limit", "/api/figures/popular", http.StatusOK},
		{"explicit limit", "/api/figures/popular?limit=5", http.StatusOK},
		{"zero limit rejected", "/api/figures/popular?limit=0", http.StatusBadRequest},
		{"negative limit rejected", "/api/figures/popular?limit=-1", http.StatusBadRequest},
		{"non-numeric limit rejected", "/api/figures/popular?limit=ten", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(server, "GET", tt.path)
			if w.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", w.Code, tt.wantCode)
			}
		})
	}
}

func TestSearch_RequiresKeyword(t *testing.T) {
	server := createTestServer()

	w := doRequest(server, "GET", "/api/figures/search")
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}

	w = doRequest(server, "GET", "/api/figures/search?q=홍길동")
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestListByParty(t *testing.T) {
	server := createTestServer()

	w := doRequest(server, "GET", "/api/figures/party/무소속")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var response struct {
		Count   int              `json:"count"`
		Figures []*models.Figure `json:"figures"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Count != 1 {
		t.Errorf("count = %d, want 1", response.Count)
	}
}

func TestFigureBills(t *testing.T) {
	server := createTestServer()

	w := doRequest(server, "GET", "/api/figures/F001/bills")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var response service.FigureBills
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Total != 2 {
		t.Errorf("Total = %d, want 2", response.Total)
	}
	if len(response.Bills) != 2 {
		t.Errorf("len(Bills) = %d, want 2", len(response.Bills))
	}
}

func TestFigureBills_UnknownFigure(t *testing.T) {
	server := createTestServer()

	w := doRequest(server, "GET", "/api/figures/F404/bills")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestFigureStatements(t *testing.T) {
	server := createTestServer()
	activity := server.activityQuery.(*mockActivityQuery)

	w := doRequest(server, "GET", "/api/figures/F001/statements?limit=20")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if activity.lastLimit != 20 {
		t.Errorf("limit = %d, want 20", activity.lastLimit)
	}

	var response service.FigureStatements
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(response.Statements) != 1 {
		t.Errorf("len(Statements) = %d, want 1", len(response.Statements))
	}
}

func TestFigureStatements_LimitValidation(t *testing.T) {
	server := createTestServer()

	w := doRequest(server, "GET", "/api/figures/F001/statements?limit=abc")
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}

	// Oversized limits are capped, not rejected
	activity := server.activityQuery.(*mockActivityQuery)
	w = doRequest(server, "GET", "/api/figures/F001/statements?limit=9999")
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if activity.lastLimit != 500 {
		t.Errorf("limit = %d, want capped at 500", activity.lastLimit)
	}
}

func TestGetBill(t *testing.T) {
	server := createTestServer()

	w := doRequest(server, "GET", "/api/bills/B001")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var bill models.Bill
	if err := json.NewDecoder(w.Body).Decode(&bill); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if bill.BillID != "B001" {
		t.Errorf("BillID = %q, want B001", bill.BillID)
	}
}

func TestGetBill_NotFound(t *testing.T) {
	server := createTestServer()

	w := doRequest(server, "GET", "/api/bills/B404")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestStats(t *testing.T) {
	server := createTestServer()

	w := doRequest(server, "GET", "/api/stats")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var stats service.TrackerStats
	if err := json.NewDecoder(w.Body).Decode(&stats); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if stats.Figures != 300 || stats.Bills != 1200 {
		t.Errorf("stats = %+v, want 300 figures and 1200 bills", stats)
	}
}

func TestSyncFigure(t *testing.T) {
	server := createTestServer()

	w := doRequest(server, "POST", "/api/sync/figures/홍길동")
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestSyncFigure_UpstreamMiss(t *testing.T) {
	server := createTestServer()

	w := doRequest(server, "POST", "/api/sync/figures/없는사람")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestSyncAllFigures_AsyncDefault(t *testing.T) {
	server := createTestServer()

	w := doRequest(server, "POST", "/api/sync/figures")
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", w.Code)
	}

	var response map[string]string
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response["jobId"] != "job-456" {
		t.Errorf("jobId = %q, want job-456", response["jobId"])
	}
}

func TestSyncAllFigures_SyncMode(t *testing.T) {
	server := createTestServer()

	w := doRequest(server, "POST", "/api/sync/figures?mode=sync")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var result types.BatchResult
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result.SuccessCount != 5 {
		t.Errorf("SuccessCount = %d, want 5", result.SuccessCount)
	}
}

func TestSyncAllFigures_BadMode(t *testing.T) {
	server := createTestServer()

	w := doRequest(server, "POST", "/api/sync/figures?mode=batch")
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestSyncStatements_EmptyBody(t *testing.T) {
	server := createTestServer()

	w := doRequest(server, "POST", "/api/sync/statements")
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestSyncStatementsByFigure_NotFound(t *testing.T) {
	server := createTestServer()

	w := doRequest(server, "POST", "/api/sync/statements/없는사람")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestSyncBills(t *testing.T) {
	server := createTestServer()

	w := doRequest(server, "POST", "/api/sync/bills")
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestGetJob(t *testing.T) {
	server := createTestServer()
	tracker := server.jobs.(*mockJobTracker)
	tracker.jobs["job-123"] = &job.Status{JobID: "job-123", TotalTasks: 3, Completed: true}

	w := doRequest(server, "GET", "/api/sync/jobs/job-123")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var status job.Status
	if err := json.NewDecoder(w.Body).Decode(&status); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if status.JobID != "job-123" {
		t.Errorf("JobID = %q", status.JobID)
	}
}

func TestGetJob_NotFound(t *testing.T) {
	server := createTestServer()

	w := doRequest(server, "GET", "/api/sync/jobs/unknown")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestEvictFigure(t *testing.T) {
	server := createTestServer()

	w := doRequest(server, "DELETE", "/api/cache/figures/F001")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	admin := server.cacheAdmin.(*mockCacheAdmin)
	if len(admin.evictedFigures) != 1 || admin.evictedFigures[0] != "F001" {
		t.Errorf("evictedFigures = %v, want [F001]", admin.evictedFigures)
	}
}

func TestEvictPattern(t *testing.T) {
	server := createTestServer()

	w := doRequest(server, "DELETE", "/api/cache?pattern=list:party:*")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	admin := server.cacheAdmin.(*mockCacheAdmin)
	if len(admin.evictedPatterns) != 1 {
		t.Fatalf("evictedPatterns = %v", admin.evictedPatterns)
	}
}

func TestEvictAll(t *testing.T) {
	server := createTestServer()

	w := doRequest(server, "DELETE", "/api/cache")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	admin := server.cacheAdmin.(*mockCacheAdmin)
	if !admin.evictedAll {
		t.Error("expected InvalidateAll to be called")
	}
}
