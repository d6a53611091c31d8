package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bodyshop-platform/api/internal/config"
	"github.com/bodyshop-platform/api/internal/identity"
	"github.com/bodyshop-platform/api/internal/store"
)

const testToken = "integration-token"

// memoryStore is an in-memory RecordStore with real upsert semantics, enough
// to drive the API end to end without Postgres.
type memoryStore struct {
	tables map[string][]store.Row
}

func newMemoryStore() *memoryStore {
	return &memoryStore{tables: map[string][]store.Row{}}
}

func (m *memoryStore) Select(_ context.Context, table string, filter map[string]any) ([]store.Row, error) {
	out := []store.Row{}
	for _, row := range m.tables[table] {
		matched := true
		for key, want := range filter {
			if fmt.Sprint(row[key]) != fmt.Sprint(want) {
				matched = false
				break
			}
		}
		if matched {
			out = append(out, row)
		}
	}
	return out, nil
}

func (m *memoryStore) Insert(_ context.Context, table string, rows []store.Row) (store.WriteResult, error) {
	m.tables[table] = append(m.tables[table], rows...)
	return store.WriteResult{Rows: rows, Count: int64(len(rows))}, nil
}

func (m *memoryStore) Upsert(_ context.Context, table string, rows []store.Row, onConflict string) (store.WriteResult, error) {
	keyOf := func(row store.Row) string {
		key := ""
		for _, col := range strings.Split(onConflict, ",") {
			key += fmt.Sprint(row[strings.TrimSpace(col)]) + "\x1f"
		}
		return key
	}

	for _, row := range rows {
		replaced := false
		for i, existing := range m.tables[table] {
			if keyOf(existing) == keyOf(row) {
				m.tables[table][i] = row
				replaced = true
				break
			}
		}
		if !replaced {
			m.tables[table] = append(m.tables[table], row)
		}
	}
	return store.WriteResult{Rows: rows, Count: int64(len(rows))}, nil
}

func (m *memoryStore) Update(_ context.Context, table string, patch store.Row, filter map[string]any) error {
	rows, _ := m.Select(context.Background(), table, filter)
	for _, row := range rows {
		for key, value := range patch {
			row[key] = value
		}
	}
	return nil
}

type tokenVerifier struct{}

func (tokenVerifier) Verify(_ context.Context, token string) (identity.User, error) {
	if token != testToken {
		return identity.User{}, fmt.Errorf("unknown token")
	}
	return identity.User{ID: "user-1", Email: "advisor@example.com"}, nil
}

type testEnv struct {
	store  *memoryStore
	router http.Handler
}

func setupTestEnv(t *testing.T) testEnv {
	t.Helper()

	st := newMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Config{
		Addr:               ":0",
		DatabaseURL:        "memory",
		Env:                "test",
		APIMaxBodyBytes:    2 << 20,
		ImportMaxFileBytes: 25 << 20,
		ImportMaxRows:      5000,
		IngestBatchSize:    500,
		RawTable:           "service_jobs_raw",
		JobsTable:          "jobs",
		PresetsTable:       "mapping_presets",
		AuditTable:         "audit_log",
		InventoryTable:     "inventory",
	}

	router, err := NewRouter(cfg, st, tokenVerifier{}, logger)
	if err != nil {
		t.Fatalf("create router: %v", err)
	}
	return testEnv{store: st, router: router}
}

func request(t *testing.T, router http.Handler, method, path string, payload any, token string) (int, []byte) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("encode request body: %v", err)
		}
		body = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	resBody, _ := io.ReadAll(rec.Result().Body)
	return rec.Code, resBody
}

func importRows() map[string]any {
	return map[string]any{
		"rows": []map[string]any{
			{
				"Job Card No":   "JC-1",
				"Customer Name": "Asha Verma",
				"Service Type":  "Insurance",
				"Est. Lab Amt":  "₹1,200",
				"Est. Part Amt": "300",
				"Bill Amount":   "2200",
			},
			{
				"Job Card No":   "JC-2",
				"Customer Name": "Rahul Nair",
				"Bill Amount":   "500",
			},
		},
	}
}

func TestHealthIsPublic(t *testing.T) {
	env := setupTestEnv(t)
	status, body := request(t, env.router, http.MethodGet, "/api/health", nil, "")
	if status != http.StatusOK {
		t.Fatalf("expected 200 health, got %d (%s)", status, string(body))
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := setupTestEnv(t)

	for _, path := range []string{"/api/jobs", "/api/mapping-presets", "/api/inventory"} {
		status, _ := request(t, env.router, http.MethodGet, path, nil, "")
		if status != http.StatusUnauthorized {
			t.Fatalf("expected 401 for %s without token, got %d", path, status)
		}
	}

	status, _ := request(t, env.router, http.MethodPost, "/api/imports", importRows(), "")
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 for import without token, got %d", status)
	}
}

func TestImportCreatesJobsWithDerivedBilling(t *testing.T) {
	env := setupTestEnv(t)

	status, body := request(t, env.router, http.MethodPost, "/api/imports", importRows(), testToken)
	if status != http.StatusOK {
		t.Fatalf("expected 200 import, got %d (%s)", status, string(body))
	}

	var result struct {
		InsertedCount int64 `json:"insertedCount"`
		Errors        []any `json:"errors"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatalf("parse import result: %v", err)
	}
	if result.InsertedCount != 2 {
		t.Fatalf("expected insertedCount 2, got %d", result.InsertedCount)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("expected no errors, got %v", result.Errors)
	}

	status, body = request(t, env.router, http.MethodGet, "/api/jobs", nil, testToken)
	if status != http.StatusOK {
		t.Fatalf("expected 200 jobs list, got %d (%s)", status, string(body))
	}

	var jobs []map[string]any
	if err := json.Unmarshal(body, &jobs); err != nil {
		t.Fatalf("parse jobs: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}

	byID := map[string]map[string]any{}
	for _, job := range jobs {
		byID[job["id"].(string)] = job
	}
	first := byID["JC-1"]
	if first == nil {
		t.Fatal("job JC-1 missing")
	}
	if got := first["profit"].(float64); got != 700 {
		t.Fatalf("expected profit 700, got %v", got)
	}
	if got := first["jobType"].(string); got != "Insurance" {
		t.Fatalf("expected Insurance job type, got %q", got)
	}
	if got := first["currentStage"].(string); got != "Job Created" {
		t.Fatalf("expected initial stage, got %q", got)
	}

	second := byID["JC-2"]
	if second == nil {
		t.Fatal("job JC-2 missing")
	}
	if got := second["jobType"].(string); got != "Cash" {
		t.Fatalf("expected Cash fallback, got %q", got)
	}
}

func TestReimportDoesNotDuplicate(t *testing.T) {
	env := setupTestEnv(t)

	for i := 0; i < 2; i++ {
		status, body := request(t, env.router, http.MethodPost, "/api/imports", importRows(), testToken)
		if status != http.StatusOK {
			t.Fatalf("import %d expected 200, got %d (%s)", i, status, string(body))
		}
	}

	if raw := len(env.store.tables["service_jobs_raw"]); raw != 2 {
		t.Fatalf("expected 2 raw records after re-import, got %d", raw)
	}
	if jobs := len(env.store.tables["jobs"]); jobs != 2 {
		t.Fatalf("expected 2 jobs after re-import, got %d", jobs)
	}
}

func TestImportRejectsEmptyRows(t *testing.T) {
	env := setupTestEnv(t)

	status, body := request(t, env.router, http.MethodPost, "/api/imports", map[string]any{"rows": []map[string]any{}}, testToken)
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty rows, got %d (%s)", status, string(body))
	}

	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		t.Fatalf("parse error envelope: %v", err)
	}
	if envelope.Error.Code != "validation_error" {
		t.Fatalf("expected validation_error code, got %q", envelope.Error.Code)
	}
}

func TestMappingPresetRoundTrip(t *testing.T) {
	env := setupTestEnv(t)

	payload := map[string]any{
		"name":    "Dealer DMS export",
		"mapping": map[string]string{"DMS Job Ref": "job_card_no"},
	}
	status, body := request(t, env.router, http.MethodPost, "/api/mapping-presets", payload, testToken)
	if status != http.StatusCreated {
		t.Fatalf("expected 201 preset save, got %d (%s)", status, string(body))
	}

	status, body = request(t, env.router, http.MethodGet, "/api/mapping-presets", nil, testToken)
	if status != http.StatusOK {
		t.Fatalf("expected 200 preset list, got %d (%s)", status, string(body))
	}

	var presets []struct {
		Name    string            `json:"name"`
		Mapping map[string]string `json:"mapping"`
	}
	if err := json.Unmarshal(body, &presets); err != nil {
		t.Fatalf("parse presets: %v", err)
	}
	if len(presets) != 1 {
		t.Fatalf("expected 1 preset, got %d", len(presets))
	}
	if presets[0].Mapping["DMS Job Ref"] != "job_card_no" {
		t.Fatalf("unexpected mapping: %v", presets[0].Mapping)
	}
}

func TestInventoryListing(t *testing.T) {
	env := setupTestEnv(t)
	env.store.tables["inventory"] = []store.Row{
		{"id": "inv-1", "part_no": "BP-2041", "name": "Front bumper", "quantity": 4.0},
		{"id": "inv-2", "part_no": "WS-1108", "name": "Windshield", "quantity": 2.0},
	}

	status, body := request(t, env.router, http.MethodGet, "/api/inventory", nil, testToken)
	if status != http.StatusOK {
		t.Fatalf("expected 200 inventory list, got %d (%s)", status, string(body))
	}

	var result struct {
		Data []map[string]any `json:"data"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatalf("parse inventory: %v", err)
	}
	if len(result.Data) != 2 {
		t.Fatalf("expected 2 inventory items, got %d", len(result.Data))
	}
}

func TestPatchRecomputesProfit(t *testing.T) {
	env := setupTestEnv(t)

	status, body := request(t, env.router, http.MethodPost, "/api/imports", importRows(), testToken)
	if status != http.StatusOK {
		t.Fatalf("expected 200 import, got %d (%s)", status, string(body))
	}

	patch := map[string]any{"billAmount": 5000}
	status, body = request(t, env.router, http.MethodPatch, "/api/jobs/JC-1", patch, testToken)
	if status != http.StatusOK {
		t.Fatalf("expected 200 patch, got %d (%s)", status, string(body))
	}

	var job map[string]any
	if err := json.Unmarshal(body, &job); err != nil {
		t.Fatalf("parse job: %v", err)
	}
	// 5000 - (1200 + 300)
	if got := job["profit"].(float64); got != 3500 {
		t.Fatalf("expected recomputed profit 3500, got %v", got)
	}

	status, body = request(t, env.router, http.MethodGet, "/api/jobs/JC-1", nil, testToken)
	if status != http.StatusOK {
		t.Fatalf("expected 200 job fetch, got %d (%s)", status, string(body))
	}
}

func TestAppendNoteKeepsHistory(t *testing.T) {
	env := setupTestEnv(t)

	status, body := request(t, env.router, http.MethodPost, "/api/imports", importRows(), testToken)
	if status != http.StatusOK {
		t.Fatalf("expected 200 import, got %d (%s)", status, string(body))
	}

	for i := 0; i < 2; i++ {
		note := map[string]any{"text": fmt.Sprintf("note %d", i)}
		status, body = request(t, env.router, http.MethodPost, "/api/jobs/JC-1/notes", note, testToken)
		if status != http.StatusOK {
			t.Fatalf("expected 200 note append, got %d (%s)", status, string(body))
		}
	}

	var job struct {
		Notes []map[string]any `json:"notes"`
	}
	if err := json.Unmarshal(body, &job); err != nil {
		t.Fatalf("parse job: %v", err)
	}
	if len(job.Notes) != 2 {
		t.Fatalf("expected 2 notes, got %d", len(job.Notes))
	}
	if job.Notes[0]["by"] != "user-1" {
		t.Fatalf("expected note author user-1, got %v", job.Notes[0]["by"])
	}
}
