package routers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/medref/revision-service/internal/app"
	"github.com/medref/revision-service/internal/dao"
	"github.com/medref/revision-service/internal/domain"
	"github.com/medref/revision-service/internal/dto"
	"github.com/medref/revision-service/internal/model"
	"github.com/medref/revision-service/pkg/validator"

	"github.com/creasty/defaults"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type envelope struct {
	Code    int             `json:"code"`
	Status  bool            `json:"status"`
	Details json.RawMessage `json:"details"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &app.AppConfig{}
	require.NoError(t, defaults.Set(cfg))
	cfg.Database.Path = filepath.Join(t.TempDir(), "api.db")

	db, err := dao.NewDBEngineWithConfig(cfg.GetDatabaseConfig(), nil)
	require.NoError(t, err)
	require.NoError(t, model.AutoMigrate(db, ""))

	a, err := app.NewApp(cfg, zap.NewNop(), db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown(context.Background()) })

	uni, err := validator.Setup()
	require.NoError(t, err)

	return &testServer{t: t, router: NewRouter(a, uni)}
}

func (s *testServer) do(method, target string, body interface{}, out interface{}) envelope {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	require.Equal(s.t, http.StatusOK, w.Code)

	var env envelope
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if out != nil && env.Status {
		require.NoError(s.t, json.Unmarshal(env.Data, out))
	}
	return env
}

func articleBody(title string) map[string]interface{} {
	return map[string]interface{}{
		"title":   title,
		"slug":    "serum-sodium",
		"content": "Sodium regulates fluid balance. " + title,
		"tags":    []string{"electrolytes"},
		"referenceRanges": []map[string]string{
			{"parameter": "Na", "range": "135-145", "unit": "mmol/L", "ageGroup": "adult"},
		},
		"status": "published",
	}
}

func TestRouter_RevisionLifecycle(t *testing.T) {
	s := newTestServer(t)

	var created dto.ArticleWriteDTO
	env := s.do(http.MethodPost, "/api/article", articleBody("A"), &created)
	require.True(t, env.Status, string(env.Details))
	id := created.Article.ID
	assert.Equal(t, int64(1), created.Revision.Version)

	for _, title := range []string{"B", "C"} {
		body := articleBody(title)
		body["id"] = id
		body["editedBy"] = "dr.ng"
		env = s.do(http.MethodPut, "/api/article", body, nil)
		require.True(t, env.Status, string(env.Details))
	}

	var cmp dto.RevisionCompareDTO
	env = s.do(http.MethodGet, fmt.Sprintf("/api/article/revision/compare?id=%d&v1=1&v2=3", id), nil, &cmp)
	require.True(t, env.Status, string(env.Details))
	assert.True(t, cmp.Differences[domain.FieldTitle])
	assert.False(t, cmp.Differences[domain.FieldTags])
	assert.False(t, cmp.Differences[domain.FieldReferenceRanges])

	var restored dto.RevisionRestoreDTO
	env = s.do(http.MethodPut, "/api/article/revision/restore", map[string]interface{}{"id": id, "version": 1}, &restored)
	require.True(t, env.Status, string(env.Details))
	assert.Equal(t, int64(4), restored.Revision.Version)
	assert.Equal(t, "A", restored.Revision.Title)
	assert.Equal(t, "admin", restored.Revision.EditedBy)
	assert.Equal(t, "restore", restored.Revision.ChangeType)

	var list dto.RevisionListDTO
	env = s.do(http.MethodGet, fmt.Sprintf("/api/article/revisions?id=%d&page=1&pageSize=10", id), nil, &list)
	require.True(t, env.Status, string(env.Details))
	assert.Equal(t, int64(4), list.Pagination.Total)
	assert.Equal(t, 1, list.Pagination.Pages)
	var versions []int64
	for _, r := range list.Data {
		versions = append(versions, r.Version)
	}
	assert.Equal(t, []int64{4, 3, 2, 1}, versions)

	var article dto.ArticleDTO
	env = s.do(http.MethodGet, fmt.Sprintf("/api/article?id=%d", id), nil, &article)
	require.True(t, env.Status, string(env.Details))
	assert.Equal(t, "A", article.Title)

	var audit dto.RevisionAuditDTO
	env = s.do(http.MethodGet, fmt.Sprintf("/api/article/revision/audit?id=%d", id), nil, &audit)
	require.True(t, env.Status, string(env.Details))
	assert.True(t, audit.Contiguous)
	assert.True(t, audit.InSync)
	assert.Equal(t, int64(4), audit.LatestVersion)
}

func TestRouter_ManualRevision(t *testing.T) {
	s := newTestServer(t)

	var created dto.ArticleWriteDTO
	require.True(t, s.do(http.MethodPost, "/api/article", articleBody("A"), &created).Status)

	body := articleBody("A, annotated")
	body["articleId"] = created.Article.ID
	body["changeDescription"] = "typo fix"

	var rev dto.RevisionDTO
	env := s.do(http.MethodPost, "/api/article/revision", body, &rev)
	require.True(t, env.Status, string(env.Details))
	assert.Equal(t, int64(2), rev.Version)
	assert.Equal(t, "manual", rev.ChangeType)
	assert.Equal(t, "typo fix", rev.ChangeDescription)

	var got dto.RevisionDTO
	require.True(t, s.do(http.MethodGet, fmt.Sprintf("/api/article/revision?id=%d&version=2", created.Article.ID), nil, &got).Status)
	assert.Equal(t, rev.ContentHash, got.ContentHash)
}

func TestRouter_Errors(t *testing.T) {
	s := newTestServer(t)

	var created dto.ArticleWriteDTO
	require.True(t, s.do(http.MethodPost, "/api/article", articleBody("A"), &created).Status)
	id := created.Article.ID

	invalid := articleBody("A")
	invalid["status"] = "retired"
	invalid["slug"] = "other-slug"

	tests := []struct {
		name   string
		method string
		target string
		body   interface{}
		code   int
	}{
		{name: "missing article id", method: http.MethodGet, target: "/api/article/revisions", code: 400},
		{name: "unknown version", method: http.MethodGet, target: fmt.Sprintf("/api/article/revision?id=%d&version=9", id), code: 4101},
		{name: "unknown article", method: http.MethodGet, target: "/api/article?id=999", code: 4001},
		{name: "duplicate slug", method: http.MethodPost, target: "/api/article", body: articleBody("dup"), code: 4002},
		{name: "invalid status", method: http.MethodPost, target: "/api/article", body: invalid, code: 4103},
		{name: "restore unknown version", method: http.MethodPut, target: "/api/article/revision/restore", body: map[string]interface{}{"id": id, "version": 7}, code: 4101},
		{name: "unknown route", method: http.MethodGet, target: "/api/nope", code: 404},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := s.do(tt.method, tt.target, tt.body, nil)
			assert.False(t, env.Status)
			assert.Equal(t, tt.code, env.Code)
		})
	}
}

func TestRouter_EmptyHistory(t *testing.T) {
	s := newTestServer(t)

	var list dto.RevisionListDTO
	env := s.do(http.MethodGet, "/api/article/revisions?id=42", nil, &list)
	require.True(t, env.Status)
	assert.Empty(t, list.Data)
	assert.Equal(t, int64(0), list.Pagination.Total)
}

func TestRouter_Health(t *testing.T) {
	s := newTestServer(t)

	var health dto.HealthDTO
	env := s.do(http.MethodGet, "/api/health", nil, &health)
	require.True(t, env.Status)
	assert.Equal(t, "healthy", health.Status)
}

func TestPrivateRouter_Metrics(t *testing.T) {
	r := NewPrivateRouterWithLogger("release", zap.NewNop())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestPrivateRouter_ExpvarAndPprof(t *testing.T) {
	release := NewPrivateRouterWithLogger("release", zap.NewNop())

	w := httptest.NewRecorder()
	release.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/debug/vars", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var vars map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &vars))
	assert.Contains(t, vars, "memstats")
	assert.Contains(t, vars, "cmdline")

	w = httptest.NewRecorder()
	release.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/debug/vars?name=missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	release.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/debug/pprof/heap", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	debug := NewPrivateRouterWithLogger("debug", zap.NewNop())
	w = httptest.NewRecorder()
	debug.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/debug/pprof/cmdline", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
