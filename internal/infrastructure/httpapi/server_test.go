package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"WineScout/internal/domain"
	"WineScout/internal/feed"
	"WineScout/internal/infrastructure/favorites"
	"WineScout/internal/ports"
	"WineScout/internal/usecase"
)

type memoryRepo struct {
	mu    sync.Mutex
	wines map[string]domain.Wine
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{wines: map[string]domain.Wine{}}
}

func (r *memoryRepo) UpsertWines(ctx context.Context, wines []domain.Wine) (ports.UpsertResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result ports.UpsertResult
	for _, wine := range wines {
		if _, ok := r.wines[wine.ProductID]; ok {
			result.Updated++
		} else {
			result.Inserted++
		}
		r.wines[wine.ProductID] = wine
	}
	return result, nil
}

func (r *memoryRepo) ListWines(ctx context.Context) ([]domain.Wine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	wines := make([]domain.Wine, 0, len(r.wines))
	for _, wine := range r.wines {
		wines = append(wines, wine)
	}
	return wines, nil
}

func (r *memoryRepo) Reset(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.wines = map[string]domain.Wine{}
	return nil
}

type memoryTracker struct {
	mu   sync.Mutex
	runs []domain.SyncRun
}

func (t *memoryTracker) CreateRun(ctx context.Context, run domain.SyncRun) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.runs = append(t.runs, run)
	return nil
}

func (t *memoryTracker) UpdateRun(ctx context.Context, run domain.SyncRun) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.runs {
		if t.runs[i].ID == run.ID {
			t.runs[i] = run
		}
	}
	return nil
}

func (t *memoryTracker) LatestRun(ctx context.Context) (domain.SyncRun, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.runs) == 0 {
		return domain.SyncRun{}, nil
	}
	latest := t.runs[0]
	for _, run := range t.runs[1:] {
		if run.StartedAt.After(latest.StartedAt) {
			latest = run
		}
	}
	return latest, nil
}

func (t *memoryTracker) RunsBySource(ctx context.Context, syncType string, limit int) ([]domain.SyncRun, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	var runs []domain.SyncRun
	for _, run := range t.runs {
		if run.SyncType == syncType {
			runs = append(runs, run)
		}
	}
	return runs, nil
}

type memoryPlans struct {
	mu    sync.Mutex
	plans []domain.LaunchPlan
}

func (p *memoryPlans) ListLaunchPlans(ctx context.Context, year int) ([]domain.LaunchPlan, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := []domain.LaunchPlan{}
	for _, plan := range p.plans {
		if year == 0 || plan.Year == year {
			out = append(out, plan)
		}
	}
	return out, nil
}

func (p *memoryPlans) SaveLaunchPlan(ctx context.Context, plan domain.LaunchPlan) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	plan.ID = int64(len(p.plans) + 1)
	p.plans = append(p.plans, plan)
	return nil
}

// windowedAdapter serves a fixed feed honoring the batch cursor, like
// the real batched source adapters do.
type windowedAdapter struct {
	name  string
	wines []domain.Wine
}

func (a *windowedAdapter) Name() string { return a.name }

func (a *windowedAdapter) Fetch(ctx context.Context, req feed.Request) (feed.Result, error) {
	start, end, hasMore, nextBatch := feed.Window(len(a.wines), req.BatchNumber, req.BatchSize)
	return feed.Result{
		Wines:         a.wines[start:end],
		TotalProducts: len(a.wines),
		HasMore:       hasMore,
		NextBatch:     nextBatch,
	}, nil
}

func testFeed(n int) []domain.Wine {
	wines := make([]domain.Wine, n)
	for i := range wines {
		wines[i] = domain.Wine{
			ProductID: fmt.Sprintf("SB-%d", i+100),
			Name:      fmt.Sprintf("Wine %d", i),
			Country:   "France",
			Price:     700,
			Source:    "systembolaget",
		}
	}
	return wines
}

func newTestServer(t *testing.T, feedSize int) (*Server, *memoryRepo, *memoryTracker) {
	t.Helper()

	registry := feed.NewRegistry()
	registry.Register(&windowedAdapter{name: "systembolaget", wines: testFeed(feedSize)})

	repo := newMemoryRepo()
	tracker := &memoryTracker{}
	syncService := usecase.NewSyncService(usecase.SyncDeps{
		Registry:     registry,
		Repository:   repo,
		Tracker:      tracker,
		Seed:         7,
		PaceInterval: time.Millisecond,
	})

	guestLists, err := favorites.NewLocalFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalFileStore: %v", err)
	}

	server := NewServer(Deps{
		Sync:        syncService,
		Catalog:     usecase.NewCatalog(repo, usecase.DefaultLimits),
		Tracker:     tracker,
		LaunchPlans: &memoryPlans{},
		Favorites:   guestLists,
		Repository:  repo,
	})
	return server, repo, tracker
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return doJSONAs(t, handler, method, path, "", body)
}

func doJSONAs(t *testing.T, handler http.Handler, method, path, role string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("X-Role", role)
	}
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	return recorder
}

func TestTriggerSyncEndpoint(t *testing.T) {
	server, _, _ := newTestServer(t, 5)

	resp := doJSON(t, server.Handler(), http.MethodPost, "/api/sync/systembolaget", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("status %d: %s", resp.Code, resp.Body.String())
	}
	var body struct {
		Success bool   `json:"success"`
		SyncID  string `json:"sync_id"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if !body.Success || body.SyncID == "" {
		t.Fatalf("unexpected trigger response: %s", resp.Body.String())
	}

	if resp := doJSON(t, server.Handler(), http.MethodPost, "/api/sync/duty-free", nil); resp.Code != http.StatusBadRequest {
		t.Fatalf("unknown source must 400, got %d", resp.Code)
	}
}

func TestBatchSyncEndpointCursor(t *testing.T) {
	server, repo, _ := newTestServer(t, 5)

	type batchResponse struct {
		Success       bool `json:"success"`
		WinesInserted int  `json:"wines_inserted"`
		TotalProducts int  `json:"total_products"`
		HasMore       bool `json:"hasMore"`
		NextBatch     *int `json:"nextBatch"`
	}

	resp := doJSON(t, server.Handler(), http.MethodPost, "/api/sync/systembolaget/batch",
		map[string]int{"batchNumber": 1, "batchSize": 2})
	if resp.Code != http.StatusOK {
		t.Fatalf("status %d: %s", resp.Code, resp.Body.String())
	}
	var first batchResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &first); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if first.WinesInserted != 2 || first.TotalProducts != 5 {
		t.Fatalf("unexpected batch counts: %+v", first)
	}
	if !first.HasMore || first.NextBatch == nil || *first.NextBatch != 2 {
		t.Fatalf("unexpected cursor: %+v", first)
	}

	resp = doJSON(t, server.Handler(), http.MethodPost, "/api/sync/systembolaget/batch",
		map[string]int{"batchNumber": 3, "batchSize": 2})
	var last batchResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &last); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if last.HasMore || last.NextBatch != nil {
		t.Fatalf("exhausted feed must end the cursor: %+v", last)
	}

	wines, _ := repo.ListWines(context.Background())
	if len(wines) != 3 {
		t.Fatalf("expected 3 wines after batches 1 and 3, got %d", len(wines))
	}

	resp = doJSON(t, server.Handler(), http.MethodPost, "/api/sync/systembolaget/batch",
		map[string]int{"batchNumber": 0, "batchSize": 2})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("non-positive batchNumber must 400, got %d", resp.Code)
	}
}

func TestBatchSyncUnknownSource(t *testing.T) {
	server, _, tracker := newTestServer(t, 3)

	resp := doJSON(t, server.Handler(), http.MethodPost, "/api/sync/duty-free/batch",
		map[string]int{"batchNumber": 1, "batchSize": 10})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("unknown source must 400 like the trigger route, got %d: %s", resp.Code, resp.Body.String())
	}
	if len(tracker.runs) != 0 {
		t.Fatalf("rejected batch must not create a run row")
	}
}

func TestSyncRunHistoryEndpoint(t *testing.T) {
	server, _, _ := newTestServer(t, 5)
	handler := server.Handler()

	doJSON(t, handler, http.MethodPost, "/api/sync/systembolaget/batch",
		map[string]int{"batchNumber": 1, "batchSize": 2})
	doJSON(t, handler, http.MethodPost, "/api/sync/systembolaget/batch",
		map[string]int{"batchNumber": 2, "batchSize": 2})

	var body struct {
		Runs []struct {
			SyncType string `json:"sync_type"`
			Status   string `json:"status"`
		} `json:"runs"`
	}
	resp := doJSON(t, handler, http.MethodGet, "/api/sync/runs/systembolaget", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("status %d: %s", resp.Code, resp.Body.String())
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if len(body.Runs) != 2 {
		t.Fatalf("expected 2 runs, got %d: %s", len(body.Runs), resp.Body.String())
	}
	for _, run := range body.Runs {
		if run.SyncType != "systembolaget" || run.Status != "completed" {
			t.Fatalf("unexpected run in history: %+v", run)
		}
	}

	resp = doJSON(t, handler, http.MethodGet, "/api/sync/runs/vinmonopolet", nil)
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if len(body.Runs) != 0 {
		t.Fatalf("foreign source must have no runs: %s", resp.Body.String())
	}

	if resp := doJSON(t, handler, http.MethodGet, "/api/sync/runs/systembolaget?limit=zero", nil); resp.Code != http.StatusBadRequest {
		t.Fatalf("bad limit must 400, got %d", resp.Code)
	}
}

func TestSyncStatusEndpoint(t *testing.T) {
	server, _, _ := newTestServer(t, 4)

	if resp := doJSON(t, server.Handler(), http.MethodGet, "/api/sync/status", nil); resp.Code != http.StatusNotFound {
		t.Fatalf("no runs yet must 404, got %d", resp.Code)
	}

	doJSON(t, server.Handler(), http.MethodPost, "/api/sync/systembolaget/batch",
		map[string]int{"batchNumber": 1, "batchSize": 10})

	resp := doJSON(t, server.Handler(), http.MethodGet, "/api/sync/status", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("status %d: %s", resp.Code, resp.Body.String())
	}
	var body struct {
		SyncType string `json:"sync_type"`
		Status   string `json:"status"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if body.SyncType != "systembolaget" || body.Status != "completed" {
		t.Fatalf("unexpected status payload: %s", resp.Body.String())
	}
}

func TestWinesEndpointFilters(t *testing.T) {
	server, _, _ := newTestServer(t, 4)
	doJSON(t, server.Handler(), http.MethodPost, "/api/sync/systembolaget/batch",
		map[string]int{"batchNumber": 1, "batchSize": 10})

	var dump struct {
		Wines []struct {
			ProductID string `json:"product_id"`
		} `json:"wines"`
		Total int `json:"total"`
	}
	resp := doJSON(t, server.Handler(), http.MethodGet, "/api/wines", nil)
	if err := json.Unmarshal(resp.Body.Bytes(), &dump); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if dump.Total != 4 || len(dump.Wines) != 4 {
		t.Fatalf("full dump wrong: %s", resp.Body.String())
	}

	resp = doJSON(t, server.Handler(), http.MethodGet, "/api/wines?country=Narnia", nil)
	if err := json.Unmarshal(resp.Body.Bytes(), &dump); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if dump.Total != 0 {
		t.Fatalf("country filter ignored: %s", resp.Body.String())
	}
}

func TestListLifecycleEndpoints(t *testing.T) {
	server, _, _ := newTestServer(t, 2)
	handler := server.Handler()

	resp := doJSON(t, handler, http.MethodPost, "/api/lists",
		map[string]string{"name": "Cellar candidates", "description": "q3 buys"})
	if resp.Code != http.StatusCreated {
		t.Fatalf("create list: %d %s", resp.Code, resp.Body.String())
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &created); err != nil {
		t.Fatalf("parse created list: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("created list has no id: %s", resp.Body.String())
	}

	resp = doJSON(t, handler, http.MethodPost, "/api/lists/"+created.ID+"/wines",
		map[string]string{"product_id": "SB-100"})
	if resp.Code != http.StatusNoContent {
		t.Fatalf("add wine: %d %s", resp.Code, resp.Body.String())
	}

	resp = doJSON(t, handler, http.MethodGet, "/api/lists", nil)
	if !strings.Contains(resp.Body.String(), "SB-100") {
		t.Fatalf("list content missing: %s", resp.Body.String())
	}

	resp = doJSON(t, handler, http.MethodDelete, "/api/lists/"+created.ID+"/wines/SB-100", nil)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("remove wine: %d", resp.Code)
	}

	resp = doJSON(t, handler, http.MethodDelete, "/api/lists/"+created.ID, nil)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("delete list: %d", resp.Code)
	}
	resp = doJSON(t, handler, http.MethodDelete, "/api/lists/"+created.ID, nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("double delete must 404, got %d", resp.Code)
	}
}

func TestExportCSVEndpoint(t *testing.T) {
	server, _, _ := newTestServer(t, 2)

	resp := doJSON(t, server.Handler(), http.MethodGet, "/api/export/wines.csv", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("status %d", resp.Code)
	}
	raw := resp.Body.Bytes()
	if !bytes.HasPrefix(raw, []byte{0xEF, 0xBB, 0xBF}) {
		t.Fatalf("csv export must start with the UTF-8 BOM")
	}
	if !strings.Contains(string(raw), "product_id,") {
		t.Fatalf("empty catalog export must still carry the header: %q", raw)
	}
}

func TestAdminResetEndpoint(t *testing.T) {
	server, repo, _ := newTestServer(t, 3)
	doJSON(t, server.Handler(), http.MethodPost, "/api/sync/systembolaget/batch",
		map[string]int{"batchNumber": 1, "batchSize": 10})

	resp := doJSON(t, server.Handler(), http.MethodPost, "/api/admin/reset", nil)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("reset without admin role must 403, got %d", resp.Code)
	}
	wines, _ := repo.ListWines(context.Background())
	if len(wines) != 3 {
		t.Fatalf("rejected reset must not touch the catalog, got %d wines", len(wines))
	}

	resp = doJSONAs(t, server.Handler(), http.MethodPost, "/api/admin/reset", "admin", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("reset: %d %s", resp.Code, resp.Body.String())
	}
	wines, _ = repo.ListWines(context.Background())
	if len(wines) != 0 {
		t.Fatalf("catalog must be empty after reset, got %d", len(wines))
	}
}

func TestLaunchPlanEndpoints(t *testing.T) {
	server, _, _ := newTestServer(t, 1)
	handler := server.Handler()

	plan := map[string]any{
		"title":      "September releases",
		"date":       "2026-09-15",
		"source_url": "https://example.org/releases",
	}
	if resp := doJSON(t, handler, http.MethodPost, "/api/launch-plans", plan); resp.Code != http.StatusForbidden {
		t.Fatalf("ingestion without admin role must 403, got %d", resp.Code)
	}

	resp := doJSONAs(t, handler, http.MethodPost, "/api/launch-plans", "admin", plan)
	if resp.Code != http.StatusCreated {
		t.Fatalf("create plan: %d %s", resp.Code, resp.Body.String())
	}
	var created struct {
		Year    int `json:"year"`
		Quarter int `json:"quarter"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &created); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if created.Year != 2026 || created.Quarter != 3 {
		t.Fatalf("year and quarter must derive from the date: %s", resp.Body.String())
	}

	resp = doJSON(t, handler, http.MethodGet, "/api/launch-plans?year=2026", nil)
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), "September releases") {
		t.Fatalf("plan missing from listing: %d %s", resp.Code, resp.Body.String())
	}
	resp = doJSON(t, handler, http.MethodGet, "/api/launch-plans?year=2030", nil)
	if strings.Contains(resp.Body.String(), "September releases") {
		t.Fatalf("year filter ignored: %s", resp.Body.String())
	}

	bad := map[string]any{"title": "No date", "date": "next tuesday"}
	if resp := doJSONAs(t, handler, http.MethodPost, "/api/launch-plans", "admin", bad); resp.Code != http.StatusBadRequest {
		t.Fatalf("malformed date must 400, got %d", resp.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	server, _, _ := newTestServer(t, 1)

	req := httptest.NewRequest(http.MethodOptions, "/api/wines", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	recorder := httptest.NewRecorder()
	server.Handler().ServeHTTP(recorder, req)

	if recorder.Code != http.StatusNoContent {
		t.Fatalf("preflight status %d", recorder.Code)
	}
	if got := recorder.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("expected wildcard origin, got %q", got)
	}
}
