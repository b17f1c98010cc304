//go:build !integration

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/greenfinch/fieldvisit/internal/assessment"
	"github.com/greenfinch/fieldvisit/internal/config"
	"github.com/greenfinch/fieldvisit/internal/imaging"
	"github.com/greenfinch/fieldvisit/internal/model"
	"github.com/greenfinch/fieldvisit/internal/ocr"
	"github.com/greenfinch/fieldvisit/internal/report"
	"github.com/greenfinch/fieldvisit/internal/store"
	"github.com/greenfinch/fieldvisit/internal/summary"
	"github.com/greenfinch/fieldvisit/internal/valuation"
)

type failingSummarizer struct{}

func (failingSummarizer) Summarize(context.Context, string) (*model.Summary, error) {
	return nil, errors.New("upstream timeout")
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func newTestService(t *testing.T, st store.Store, sum summary.Summarizer) *assessment.Service {
	t.Helper()
	engine, err := valuation.NewEngine(valuation.DefaultConfig())
	require.NoError(t, err)
	if sum == nil {
		sum = summary.NewKeyword(0)
	}
	return assessment.New(engine, st, ocr.NewSimulated(0, nil), sum, imaging.NewSimulated(0, nil))
}

func newTestServer(t *testing.T) (http.Handler, store.Store) {
	t.Helper()
	st := newTestStore(t)
	return buildMux(newTestService(t, st, nil), st, config.ServerConfig{}), st
}

const premiumInput = `{
	"postal_code": "400001",
	"neighbour_confirmation": "yes",
	"employment_proof": "yes",
	"address_matching_aadhaar": "yes",
	"nearby_condition": "good",
	"road_access": "excellent",
	"road_width": "30 feet",
	"nearby_sold_property": "crore",
	"image_count": 1
}`

func do(t *testing.T, h http.Handler, method, target string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func createReport(t *testing.T, h http.Handler) valuationResponse {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/api/valuations", bytes.NewBufferString(premiumInput), "application/json")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp valuationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Report)
	return resp
}

type upload struct {
	field, name string
	data        []byte
}

func multipartBody(t *testing.T, fields map[string]string, files []upload) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		fw, err := mw.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = fw.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestHealth(t *testing.T) {
	h, _ := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHealth_StoreClosed(t *testing.T) {
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "closed.db"))
	require.NoError(t, err)
	require.NoError(t, st.Close())
	h := buildMux(newTestService(t, nil, nil), st, config.ServerConfig{})

	rec := do(t, h, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCreateValuation_JSON(t *testing.T) {
	h, st := newTestServer(t)

	resp := createReport(t, h)
	assert.NotEmpty(t, resp.Report.ID)
	assert.Equal(t, 70, resp.Report.Result.Score)
	assert.Equal(t, "300.00", resp.Report.Result.Valuation)
	assert.Equal(t, model.LoanNotRecommended, resp.Report.Result.LoanRecommendation.Status)
	assert.Contains(t, resp.ResultsURL, "/results?")
	assert.Contains(t, resp.ResultsURL, "score=70")
	assert.Contains(t, resp.ResultsURL, "loanStatus=not_recommended")

	saved, err := st.GetReport(context.Background(), resp.Report.ID)
	require.NoError(t, err)
	assert.Equal(t, 70, saved.Result.Score)
}

func TestCreateValuation_Multipart(t *testing.T) {
	h, _ := newTestServer(t)

	body, ct := multipartBody(t, map[string]string{
		"postal_code":              "110001",
		"neighbour_confirmation":   "yes",
		"employment_proof":         "partial",
		"address_matching_aadhaar": "no",
		"nearby_condition":         "average",
		"additional_notes":         "Owner present.",
	}, []upload{
		{fieldImages, "front.jpg", []byte("jpeg-1")},
		{fieldImages, "side.jpg", []byte("jpeg-2")},
		{fieldNoteImages, "notes.jpg", []byte("jpeg-3")},
	})

	rec := do(t, h, http.MethodPost, "/api/valuations", body, ct)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp valuationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	rep := resp.Report
	assert.Equal(t, "110001", rep.Input.PostalCode)
	assert.Equal(t, 2, rep.Input.ImageCount)
	assert.Len(t, rep.Images, 2)
	require.NotNil(t, rep.Extraction)
	assert.NotEmpty(t, rep.Extraction.Text)
	assert.True(t, strings.HasPrefix(rep.Input.AdditionalNotes, "Owner present.\n\nExtracted from agent notes:\n"))
}

func TestCreateValuation_MultipartInputPart(t *testing.T) {
	h, _ := newTestServer(t)

	body, ct := multipartBody(t, map[string]string{fieldInput: premiumInput}, nil)
	rec := do(t, h, http.MethodPost, "/api/valuations", body, ct)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp valuationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 70, resp.Report.Result.Score)
}

func TestCreateValuation_BadRequests(t *testing.T) {
	h, _ := newTestServer(t)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"malformed json", `{"postal_code":`, "invalid request body"},
		{"missing postal code", `{"neighbour_confirmation":"yes"}`, "postal_code is required"},
		{"unknown doc answer", `{"postal_code":"400001","employment_proof":"maybe"}`, "employment_proof must be yes, no or partial"},
		{"negative image count", `{"postal_code":"400001","image_count":-1}`, "image_count must not be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/valuations", bytes.NewBufferString(tt.body), "application/json")
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var body errorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Contains(t, body.Error, tt.want)
		})
	}
}

func TestReports_ListGetStats(t *testing.T) {
	h, _ := newTestServer(t)
	first := createReport(t, h)
	createReport(t, h)

	rec := do(t, h, http.MethodGet, "/api/reports?limit=1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Reports []model.Report `json:"reports"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list.Reports, 1)

	rec = do(t, h, http.MethodGet, "/api/reports?loan_status=okay", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Empty(t, list.Reports)

	rec = do(t, h, http.MethodGet, "/api/reports/"+first.Report.ID, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got model.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, first.Report.ID, got.ID)

	rec = do(t, h, http.MethodGet, "/api/reports/stats", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var stats store.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 2, stats.ByLoanStatus[model.LoanNotRecommended])
}

func TestReports_InvalidListParams(t *testing.T) {
	h, _ := newTestServer(t)

	for _, q := range []string{"limit=abc", "offset=-1"} {
		rec := do(t, h, http.MethodGet, "/api/reports?"+q, nil, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestReports_NotFound(t *testing.T) {
	h, _ := newTestServer(t)

	for _, path := range []string{"/api/reports/missing", "/api/reports/missing/export"} {
		rec := do(t, h, http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.JSONEq(t, `{"error":"report not found"}`, rec.Body.String())
	}
}

func TestExportReport_HTML(t *testing.T) {
	h, _ := newTestServer(t)
	resp := createReport(t, h)

	rec := do(t, h, http.MethodGet, "/api/reports/"+resp.Report.ID+"/export", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), report.DownloadFilename)
	assert.Contains(t, rec.Body.String(), report.Title)
	assert.Contains(t, rec.Body.String(), "70/100")
	assert.Contains(t, rec.Body.String(), "3.00 Crores")
}

func TestExportReports_XLSX(t *testing.T) {
	h, _ := newTestServer(t)
	createReport(t, h)

	rec := do(t, h, http.MethodGet, "/api/reports/export.xlsx", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "fieldvisit_reports.xlsx")

	f, err := xlsx.OpenBinary(rec.Body.Bytes())
	require.NoError(t, err)
	sheet := f.Sheet[report.SheetName]
	require.NotNil(t, sheet)
	assert.Len(t, sheet.Rows, 2)
}

func TestResultsPage(t *testing.T) {
	h, _ := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/results?score=45&valuation=35.00&loanStatus=okay&loanRange=20+lac+-+40+lac", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "45/100")
	assert.Contains(t, body, "35 Lakhs")
	assert.Contains(t, body, "Loan approval recommended within this range.")
}

func TestResultsPage_Defaults(t *testing.T) {
	h, _ := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/results", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "0/100")
}

func TestSummarizeNotes(t *testing.T) {
	h, _ := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/api/notes/summarize",
		bytes.NewBufferString(`{"text":"Property in average condition. Price around 1.5 crore."}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var sum model.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sum))
	assert.NotEmpty(t, sum.Summary)

	rec = do(t, h, http.MethodPost, "/api/notes/summarize", bytes.NewBufferString(`{"text":"   "}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"text is required"}`, rec.Body.String())
}

func TestSummarizeNotes_CollaboratorFailure(t *testing.T) {
	st := newTestStore(t)
	h := buildMux(newTestService(t, st, failingSummarizer{}), st, config.ServerConfig{})

	rec := do(t, h, http.MethodPost, "/api/notes/summarize", bytes.NewBufferString(`{"text":"notes"}`), "application/json")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.JSONEq(t, `{"error":"summary service unavailable"}`, rec.Body.String())
}

func TestExtractNotes(t *testing.T) {
	h, _ := newTestServer(t)

	body, ct := multipartBody(t, map[string]string{fieldNotes: "Visited at noon."},
		[]upload{{fieldImages, "page1.jpg", []byte("jpeg")}})
	rec := do(t, h, http.MethodPost, "/api/notes/extract", body, ct)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res assessment.NotesResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.NotNil(t, res.Extraction)
	assert.True(t, strings.HasPrefix(res.Notes, "Visited at noon.\n\nExtracted from agent notes:\n"))
}

func TestExtractNotes_NoImages(t *testing.T) {
	h, _ := newTestServer(t)

	body, ct := multipartBody(t, map[string]string{fieldNotes: "x"}, nil)
	rec := do(t, h, http.MethodPost, "/api/notes/extract", body, ct)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeImages(t *testing.T) {
	h, _ := newTestServer(t)

	body, ct := multipartBody(t, nil, []upload{
		{fieldImages, "a.jpg", []byte("1")},
		{fieldImages, "b.jpg", []byte("2")},
		{fieldImages, "c.jpg", []byte("3")},
	})
	rec := do(t, h, http.MethodPost, "/api/images/analyze", body, ct)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Analyses []model.ImageAnalysis `json:"analyses"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Analyses, 3)
	for _, a := range resp.Analyses {
		assert.GreaterOrEqual(t, a.ConfidenceScore, 65)
		assert.LessOrEqual(t, a.ConfidenceScore, 95)
		assert.Equal(t, imaging.QualityFor(a.ConfidenceScore), a.Quality)
	}

	body, ct = multipartBody(t, nil, nil)
	rec = do(t, h, http.MethodPost, "/api/images/analyze", body, ct)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRateLimit(t *testing.T) {
	st := newTestStore(t)
	h := buildMux(newTestService(t, st, nil), st, config.ServerConfig{RateLimit: 0.001, RateBurst: 1})

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", nil, "").Code)

	rec := do(t, h, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"error":"rate limit exceeded"}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	h, _ := newTestServer(t)
	do(t, h, http.MethodGet, "/health", nil, "")

	rec := do(t, h, http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "fieldvisit_http_requests_total")
}
