package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Amerigo2020/vestigas-co2-scribe/internal"
	"github.com/Amerigo2020/vestigas-co2-scribe/internal/config"
	"github.com/Amerigo2020/vestigas-co2-scribe/internal/embedding"
	"github.com/Amerigo2020/vestigas-co2-scribe/internal/metrics"
	"github.com/Amerigo2020/vestigas-co2-scribe/internal/pipeline"
	"github.com/Amerigo2020/vestigas-co2-scribe/internal/storage"
)

const testCatalog = "UUID;Name (de);Kategorie (original);Bezugseinheit;Modul;GWPtotal (A2);Rohdichte (kg/m3)\n" +
	"u-1;Transportbeton C25/30;Beton;m3;A1-A3;254,6;2400\n" +
	"u-2;Betonstahl;Stahl;kg;A1-A3;0,68;\n" +
	"u-3;Betonstahl;Stahl;kg;D;-0,2;\n"

const testDeliveriesA = "Lieferant;Artikel-Nummer;Artikel;Menge;Einheit\n" +
	"Heidelberg Materials;B-25;Transportbeton C25/30;2;m3\n"

const testDeliveriesB = "Lieferant;Artikel-Nummer;Artikel;Menge;Einheit\n" +
	"Stahlhandel Süd;BST-12;Betonstahl;100;kg\n"

func testConfig() config.Config {
	return config.Config{
		MaxUploadMB:         4,
		CatalogModule:       "A1-A3",
		EmbeddingDimensions: 32,
		EmbeddingTimeoutMs:  1000,
		EmbeddingWorkers:    2,
		ReportTopN:          5,
	}
}

type testEnv struct {
	handler http.Handler
	db      *storage.DB
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	return newLoggedTestEnv(t, zerolog.Nop())
}

func newLoggedTestEnv(t *testing.T, logger zerolog.Logger) testEnv {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "co2scribe.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cfg := testConfig()
	reg := metrics.NewRegistry()
	svc := pipeline.NewProcessingService(cfg, embedding.NewMockProvider(cfg.EmbeddingDimensions), zerolog.Nop()).
		WithStore(db).
		WithMetrics(reg)
	return testEnv{handler: New(cfg, svc, db, reg, logger).Routes(), db: db}
}

type upload struct {
	field, name, body string
}

func multipartRequest(t *testing.T, parts []upload, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, p := range parts {
		fw, err := mw.CreateFormFile(p.field, p.name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(p.body))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/runs", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func createSampleRun(t *testing.T, env testEnv) runResponse {
	t.Helper()
	req := multipartRequest(t, []upload{
		{"catalog", "OBD_2024_I.csv", testCatalog},
		{"deliveries", "a.csv", testDeliveriesA},
		{"deliveries", "b.csv", testDeliveriesB},
	}, nil)
	rec := serve(env.handler, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp runResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	rec := serve(env.handler, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRequestIDIsEchoed(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "rid-42")
	rec := serve(env.handler, req)
	assert.Equal(t, "rid-42", rec.Header().Get("X-Request-ID"))
}

func TestCreateRun(t *testing.T) {
	env := newTestEnv(t)
	resp := createSampleRun(t, env)

	assert.Positive(t, resp.RunID)
	assert.NotEmpty(t, resp.TraceID)
	require.Len(t, resp.Rows, 2)
	assert.Equal(t, 1, resp.Rows[0].LineNo)
	assert.Equal(t, 2, resp.Rows[1].LineNo)
	assert.Equal(t, "Transportbeton C25/30", resp.Rows[0].MatchedMaterial)
	assert.Equal(t, "Betonstahl", resp.Rows[1].MatchedMaterial)
	assert.InDelta(t, 509.2, resp.Rows[0].MaterialCO2e, 1e-9)
	assert.InDelta(t, 68.0, resp.Rows[1].MaterialCO2e, 1e-9)
	assert.Equal(t, 2, resp.Summary.TotalItems)
	assert.Equal(t, 2, resp.Summary.SuccessItems)

	run, err := env.db.GetRun(resp.RunID)
	require.NoError(t, err)
	assert.Equal(t, 2, run.CatalogCount)
	assert.Equal(t, "A1-A3", run.Module)
}

func TestCreateRunValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name  string
		parts []upload
		want  string
	}{
		{
			name:  "no catalog",
			parts: []upload{{"deliveries", "a.csv", testDeliveriesA}},
			want:  "missing catalog",
		},
		{
			name:  "no deliveries",
			parts: []upload{{"catalog", "c.csv", testCatalog}},
			want:  "missing deliveries",
		},
		{
			name:  "unsupported catalog",
			parts: []upload{{"catalog", "c.pdf", "%PDF"}, {"deliveries", "a.csv", testDeliveriesA}},
			want:  "unsupported",
		},
		{
			name:  "deliveries without description",
			parts: []upload{{"catalog", "c.csv", testCatalog}, {"deliveries", "a.csv", "Menge;Einheit\n1;kg\n"}},
			want:  "missing column",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(env.handler, multipartRequest(t, tt.parts, nil))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
		})
	}
}

func TestCreateRunModuleOverride(t *testing.T) {
	env := newTestEnv(t)
	req := multipartRequest(t, []upload{
		{"catalog", "c.csv", testCatalog},
		{"deliveries", "b.csv", testDeliveriesB},
	}, map[string]string{"module": "D"})
	rec := serve(env.handler, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp runResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Rows, 1)
	assert.Equal(t, "Betonstahl", resp.Rows[0].MatchedMaterial)
	assert.Zero(t, resp.Rows[0].MaterialCO2e)

	run, err := env.db.GetRun(resp.RunID)
	require.NoError(t, err)
	assert.Equal(t, "D", run.Module)
	assert.Equal(t, 1, run.CatalogCount)
}

func TestBodyLimit(t *testing.T) {
	env := newTestEnv(t)
	big := strings.Repeat("x", 5<<20)
	req := multipartRequest(t, []upload{
		{"catalog", "c.csv", big},
		{"deliveries", "a.csv", testDeliveriesA},
	}, nil)
	rec := serve(env.handler, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListAndGetRuns(t *testing.T) {
	env := newTestEnv(t)
	first := createSampleRun(t, env)
	second := createSampleRun(t, env)

	rec := serve(env.handler, httptest.NewRequest(http.MethodGet, "/v1/runs?limit=10", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var runs []internal.RunRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &runs))
	require.Len(t, runs, 2)
	assert.Equal(t, second.RunID, runs[0].ID)
	assert.Equal(t, first.RunID, runs[1].ID)

	rec = serve(env.handler, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/v1/runs/%d", first.RunID), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var detail runDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	assert.Equal(t, first.RunID, detail.Run.ID)
	assert.Len(t, detail.Rows, 2)
	assert.Equal(t, 2, detail.Run.Summary.SuccessItems)
}

// accessLines returns the decoded access log entries written to buf.
func accessLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m), line)
		if m["message"] == "request" {
			out = append(out, m)
		}
	}
	return out
}

func TestAccessLogCarriesRun(t *testing.T) {
	var buf bytes.Buffer
	env := newLoggedTestEnv(t, zerolog.New(&buf))
	run := createSampleRun(t, env)

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/v1/runs/%d", run.RunID), nil)
	req.Header.Set("X-Request-ID", "rid-7")
	serve(env.handler, req)
	serve(env.handler, httptest.NewRequest(http.MethodGet, "/v1/runs/99", nil))

	lines := accessLines(t, &buf)
	require.Len(t, lines, 3)

	created := lines[0]
	assert.Equal(t, "info", created["level"])
	assert.Equal(t, "POST", created["method"])
	assert.Contains(t, created["route"], "/v1/runs")
	assert.Equal(t, float64(run.RunID), created["run_id"])
	assert.Equal(t, run.TraceID, created["trace_id"])
	assert.Equal(t, float64(2), created["rows"])

	got := lines[1]
	assert.Equal(t, "rid-7", got["rid"])
	assert.Equal(t, "/v1/runs/{id}", got["route"])
	assert.Equal(t, float64(http.StatusOK), got["status"])
	assert.Equal(t, run.TraceID, got["trace_id"])
	assert.Equal(t, "http", got["component"])

	missing := lines[2]
	assert.Equal(t, "warn", missing["level"])
	assert.Equal(t, float64(http.StatusNotFound), missing["status"])
	assert.NotContains(t, missing, "run_id")
	assert.NotContains(t, missing, "trace_id")
}

func TestGetRunErrors(t *testing.T) {
	env := newTestEnv(t)

	rec := serve(env.handler, httptest.NewRequest(http.MethodGet, "/v1/runs/99", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(env.handler, httptest.NewRequest(http.MethodGet, "/v1/runs/abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(env.handler, httptest.NewRequest(http.MethodGet, "/v1/runs/99/report.xlsx", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDownloadReport(t *testing.T) {
	env := newTestEnv(t)
	run := createSampleRun(t, env)

	rec := serve(env.handler, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/v1/runs/%d/report.xlsx", run.RunID), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "report")

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("CO2e Report")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, internal.ReportColumns, rows[0])
	assert.Equal(t, "Transportbeton C25/30", rows[1][5])
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	createSampleRun(t, env)

	rec := serve(env.handler, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "co2scribe_records_total 2")
	assert.Contains(t, rec.Body.String(), "co2scribe_runs_total 1")
}

func TestRunsWithoutStorage(t *testing.T) {
	cfg := testConfig()
	svc := pipeline.NewProcessingService(cfg, embedding.NewMockProvider(8), zerolog.Nop())
	h := New(cfg, svc, nil, nil, zerolog.Nop()).Routes()

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/v1/runs", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecoverWritesInternalError(t *testing.T) {
	h := Recover(zerolog.Nop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal"}`, rec.Body.String())
}
