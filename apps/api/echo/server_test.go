package echoapi_test

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	echoapi "github.com/trezcool/apsas/apps/api/echo"
	"github.com/trezcool/apsas/core"
	"github.com/trezcool/apsas/core/academic"
	"github.com/trezcool/apsas/core/bundle"
	"github.com/trezcool/apsas/core/dashboard"
	"github.com/trezcool/apsas/core/session"
	"github.com/trezcool/apsas/services/apsas"
	"github.com/trezcool/apsas/services/cache"
	"github.com/trezcool/apsas/services/export/docx"
	"github.com/trezcool/apsas/services/export/xlsx"
	inmemdb "github.com/trezcool/apsas/storage/database/inmem"
	testutil "github.com/trezcool/apsas/tests"
)

type httpErr struct {
	Error string `json:"error"`
}

type app struct {
	*echoapi.Server
	src    *testutil.Source
	logger *testutil.Logger
}

func setupWith(t *testing.T, src *testutil.Source, upstream cache.Upstream) app {
	t.Helper()
	cached := cache.NewSource(upstream, cache.New(time.Minute))
	validate, translator := core.NewValidator()
	logger := testutil.NewLogger()

	dash := dashboard.NewService(cached, validate)
	dash.SetClock(func() time.Time { return testutil.Now })

	srv := echoapi.NewServer(echoapi.ServerDeps{
		Conf:           &core.Config{AppName: "APSAS Insight", TestMode: true},
		Logger:         logger,
		Translator:     translator,
		DashboardSvc:   dash,
		SessionSvc:     session.NewService(inmemdb.NewSessionRepository(inmemdb.Open()), validate),
		Bundler:        bundle.NewBuilder(cached, docx.NewRenderer(), logger, bundle.Options{}),
		Exporter:       xlsx.NewWriter(),
		Cache:          cached.Cache(),
		DisableReqLogs: true,
	})
	srv.SetClock(func() time.Time { return testutil.Now })
	return app{Server: srv, src: src, logger: logger}
}

func setup(t *testing.T) app {
	src := testutil.NewSource(testutil.Fixtures())
	return setupWith(t, src, src)
}

func (a app) do(t *testing.T, method, path string, body ...interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if len(body) > 0 {
		require.NoError(t, json.NewEncoder(&buf).Encode(body[0]))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	a.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestServer_home(t *testing.T) {
	rec := setup(t).do(t, http.MethodGet, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to APSAS Insight API!", rec.Body.String())
}

func TestServer_lists(t *testing.T) {
	a := setup(t)

	tests := []struct {
		name      string
		path      string
		key       string
		wantCodes []string
	}{
		{name: "semesters", path: "/v1/semesters", key: "semesterCode", wantCodes: []string{"FA23", "SP24", "SU24"}},
		{name: "active semesters", path: "/v1/semesters?active=true", key: "semesterCode", wantCodes: []string{"SP24"}},
		{name: "trailing slash", path: "/v1/semesters/?active=true", key: "semesterCode", wantCodes: []string{"SP24"}},
		{name: "classes search", path: "/v1/classes?search=SE18", key: "classCode", wantCodes: []string{"SE1801", "SE1802"}},
		{name: "accounts by role", path: "/v1/accounts?role=1", key: "accountCode", wantCodes: []string{"LE01", "LE02"}},
		{name: "group submissions", path: "/v1/grading-groups/1/submissions", key: "studentCode", wantCodes: []string{"SE100", "SE101", "SE102"}},
		{name: "graded submissions", path: "/v1/grading-groups/1/submissions?status=Graded", key: "studentCode", wantCodes: []string{"SE100", "SE101"}},
		{name: "nothing matches", path: "/v1/semesters?search=nope", key: "semesterCode", wantCodes: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := a.do(t, http.MethodGet, tt.path)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var rows []map[string]interface{}
			decode(t, rec, &rows)
			codes := make([]string, 0, len(rows))
			for _, r := range rows {
				codes = append(codes, r[tt.key].(string))
			}
			assert.Equal(t, tt.wantCodes, codes)
		})
	}
}

func TestServer_validation(t *testing.T) {
	a := setup(t)

	tests := []struct {
		name     string
		path     string
		wantCode int
		wantKey  string
	}{
		{name: "bad flag", path: "/v1/semesters?active=maybe", wantCode: http.StatusBadRequest, wantKey: "active"},
		{name: "bad date", path: "/v1/assessments?from=2024-13-01", wantCode: http.StatusBadRequest, wantKey: "from"},
		{name: "reversed range", path: "/v1/dashboard/overview?from=2024-03-02&to=2024-03-01", wantCode: http.StatusBadRequest, wantKey: "to"},
		{name: "bad type", path: "/v1/assessments?type=Quiz", wantCode: http.StatusBadRequest, wantKey: "type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := a.do(t, http.MethodGet, tt.path)
			assert.Equal(t, tt.wantCode, rec.Code)
			var fields map[string]string
			decode(t, rec, &fields)
			assert.Contains(t, fields, tt.wantKey)
		})
	}

	// nothing reached upstream
	assert.Zero(t, a.src.Calls("semesters"))
	assert.Zero(t, a.src.Calls("class-assessments"))

	rec := a.do(t, http.MethodGet, "/v1/grading-groups/abc/submissions")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_upstreamError(t *testing.T) {
	a := setup(t)
	a.src.Fail("semesters", &core.UpstreamError{Resource: "semesters", StatusCode: http.StatusServiceUnavailable})

	rec := a.do(t, http.MethodGet, "/v1/semesters")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	var body httpErr
	decode(t, rec, &body)
	assert.Contains(t, body.Error, "fetching semesters: unexpected status 503")
	assert.Len(t, a.logger.Entries("warn"), 1)
}

func TestServer_overview(t *testing.T) {
	rec := setup(t).do(t, http.MethodGet, "/v1/dashboard/overview")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var ov dashboard.Overview
	decode(t, rec, &ov)
	assert.Equal(t, 5, ov.Users.Total)
	assert.Equal(t, 6, ov.Submissions.Total)
	assert.Equal(t, 4, ov.Classes.Total)
}

func TestServer_report(t *testing.T) {
	a := setup(t)

	rec := a.do(t, http.MethodGet, "/v1/reports/overview")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, xlsx.ContentType, rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="Overview_2024-03-15.xlsx"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "0", rec.Header().Get(echoapi.HeaderExportFailures))

	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	assert.Equal(t, []string{"Overview", "Grade Distribution", "By Class", "Top Students"}, f.GetSheetList())

	rec = a.do(t, http.MethodGet, "/v1/reports/unknown")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_report_partial(t *testing.T) {
	a := setup(t)
	a.src.Fail("submissions", nil)

	rec := a.do(t, http.MethodGet, "/v1/reports/overview")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "3", rec.Header().Get(echoapi.HeaderExportFailures))
	assert.Len(t, a.logger.Entries("warn"), 3)
}

func TestServer_report_noData(t *testing.T) {
	a := setup(t)
	a.src.Fail("templates", nil)

	rec := a.do(t, http.MethodGet, "/v1/reports/templates")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body httpErr
	decode(t, rec, &body)
	assert.Contains(t, body.Error, "no data available to export")
}

func zipEntries(t *testing.T, data []byte) []string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	return names
}

func TestServer_bundle(t *testing.T) {
	a := setup(t)

	rec := a.do(t, http.MethodGet, "/v1/templates/30/bundle")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/zip", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="PE PRF192.zip"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "0", rec.Header().Get(echoapi.HeaderBundleFailures))
	assert.Equal(t, []string{
		"requirement/PE PRF192.docx",
		"requirement/files/input.txt",
		"submissions/SE100.zip",
		"submissions/SE101.zip",
		"submissions/SE102_no_file.txt",
	}, zipEntries(t, rec.Body.Bytes()))

	tests := []struct {
		name     string
		path     string
		wantCode int
	}{
		{name: "unknown template", path: "/v1/templates/99/bundle", wantCode: http.StatusNotFound},
		{name: "empty archive", path: "/v1/templates/10/bundle", wantCode: http.StatusUnprocessableEntity},
		{name: "foreign grading group", path: "/v1/templates/30/bundle?grading_group=2", wantCode: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantCode, a.do(t, http.MethodGet, tt.path).Code)
		})
	}
}

func TestServer_bundle_failedDownload(t *testing.T) {
	a := setup(t)
	delete(a.src.Data.Files, "https://files/sub-2.zip")

	rec := a.do(t, http.MethodGet, "/v1/templates/30/bundle")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "1", rec.Header().Get(echoapi.HeaderBundleFailures))
	assert.Contains(t, zipEntries(t, rec.Body.Bytes()), "submissions/SE101_no_file.txt")
}

func TestServer_cacheRefresh(t *testing.T) {
	a := setup(t)

	for i := 0; i < 2; i++ {
		require.Equal(t, http.StatusOK, a.do(t, http.MethodGet, "/v1/semesters").Code)
	}
	assert.Equal(t, 1, a.src.Calls("semesters"))

	rec := a.do(t, http.MethodPost, "/v1/cache/refresh")
	require.Equal(t, http.StatusOK, rec.Code)
	var res echoapi.RefreshResponse
	decode(t, rec, &res)
	assert.Equal(t, 1, res.Invalidated)

	require.Equal(t, http.StatusOK, a.do(t, http.MethodGet, "/v1/semesters").Code)
	assert.Equal(t, 2, a.src.Calls("semesters"))

	rec = a.do(t, http.MethodPost, "/v1/cache/refresh", echoapi.RefreshRequest{Prefixes: []string{"classes"}})
	decode(t, rec, &res)
	assert.Equal(t, 0, res.Invalidated)
}

type tokenSource struct {
	*testutil.Source
	mu     sync.Mutex
	tokens []string
}

func (s *tokenSource) ListSemesters(ctx context.Context) ([]academic.Semester, error) {
	s.mu.Lock()
	s.tokens = append(s.tokens, apsas.TokenFrom(ctx))
	s.mu.Unlock()
	return s.Source.ListSemesters(ctx)
}

func TestServer_forwardsToken(t *testing.T) {
	src := testutil.NewSource(testutil.Fixtures())
	upstream := &tokenSource{Source: src}
	a := setupWith(t, src, upstream)

	req := httptest.NewRequest(http.MethodGet, "/v1/semesters", nil)
	req.Header.Set("Authorization", "Bearer s3cr3t")
	rec := httptest.NewRecorder()
	a.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"s3cr3t"}, upstream.tokens)
}

func TestServer_sessions(t *testing.T) {
	a := setup(t)

	rec := a.do(t, http.MethodPost, "/v1/sessions", map[string]int{"selectedClassId": 1, "selectedTemplateId": 30})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created session.Session
	decode(t, rec, &created)
	assert.Equal(t, 1, created.SelectedClassID.Int)
	path := "/v1/sessions/" + created.ID.String()

	rec = a.do(t, http.MethodGet, path)
	require.Equal(t, http.StatusOK, rec.Code)
	var got session.Session
	decode(t, rec, &got)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, 30, got.SelectedTemplateID.Int)

	rec = a.do(t, http.MethodPut, path, map[string]int{"selectedGradingGroupId": 1})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated session.Session
	decode(t, rec, &updated)
	assert.False(t, updated.SelectedClassID.Valid)
	assert.False(t, updated.SelectedTemplateID.Valid)
	assert.Equal(t, 1, updated.SelectedGradingGroupID.Int)

	assert.Equal(t, http.StatusNoContent, a.do(t, http.MethodDelete, path).Code)
	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodGet, path).Code)
	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodGet, "/v1/sessions/not-a-uuid").Code)

	rec = a.do(t, http.MethodPost, "/v1/sessions", map[string]int{"selectedClassId": 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var fields map[string]string
	decode(t, rec, &fields)
	assert.Contains(t, fields, "selectedClassId")
}

type lostRepository struct {
	session.Repository
}

func (lostRepository) GetSession(context.Context, uuid.UUID) (session.Session, error) {
	return session.Session{}, core.NewShutdownError("selecting session: driver: bad connection")
}

func TestServer_shutdownOnLostDatabase(t *testing.T) {
	validate, translator := core.NewValidator()
	logger := testutil.NewLogger()
	srv := echoapi.NewServer(echoapi.ServerDeps{
		Conf:           &core.Config{AppName: "APSAS Insight", TestMode: true},
		Logger:         logger,
		Translator:     translator,
		SessionSvc:     session.NewService(lostRepository{}, validate),
		DisableReqLogs: true,
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions/"+uuid.New().String(), nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Len(t, logger.Entries("error"), 1)
	select {
	case <-srv.ShutdownSignal():
	default:
		t.Fatal("server did not signal shutdown")
	}
}
