package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"karta/internal/chart"
	"karta/internal/reference"
)

// ==== фейки ====

type fakePublisher struct {
	res      chart.PublishResult
	err      error
	gotActor string
	gotCfg   *chart.Config
	gotPrev  *chart.Config
}

func (f *fakePublisher) Publish(_ context.Context, actor string, cfg, existing *chart.Config) (chart.PublishResult, error) {
	f.gotActor, f.gotCfg, f.gotPrev = actor, cfg, existing
	if f.err != nil {
		return chart.PublishResult{}, f.err
	}
	return f.res, nil
}

type fakeStore struct {
	summaries []chart.Summary
	doc       map[string]any
	revisions []chart.Revision
	users     map[string]chart.User
	issues    []chart.Issue
	starred   int64
	deleted   int64
	err       error
}

func (f *fakeStore) ListCharts(context.Context, int, string) ([]chart.Summary, error) {
	return f.summaries, f.err
}
func (f *fakeStore) GetConfig(context.Context, int64) (map[string]any, error) {
	if f.doc == nil {
		return nil, &chart.Fault{Code: chart.ErrNotFound, Field: "id", Message: "chart not found"}
	}
	return f.doc, nil
}
func (f *fakeStore) ChartsByVariable(context.Context, int64, int) ([]chart.Summary, error) {
	return f.summaries, f.err
}
func (f *fakeStore) ChartsByDataset(context.Context, int64, int) ([]chart.Summary, error) {
	return f.summaries, f.err
}
func (f *fakeStore) Revisions(context.Context, int64, int) ([]chart.Revision, error) {
	return f.revisions, f.err
}
func (f *fakeStore) Star(_ context.Context, id int64) error {
	f.starred = id
	return f.err
}
func (f *fakeStore) Delete(_ context.Context, id int64) error {
	f.deleted = id
	return f.err
}
func (f *fakeStore) UserByEmail(_ context.Context, email string) (chart.User, error) {
	u, ok := f.users[email]
	if !ok {
		return chart.User{}, &chart.Fault{Code: chart.ErrNotFound, Field: "email", Message: "user not found"}
	}
	return u, nil
}
func (f *fakeStore) ListUsers(context.Context, int) ([]chart.User, error) {
	out := make([]chart.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, u)
	}
	return out, nil
}
func (f *fakeStore) UpdateUser(_ context.Context, id int64, fullName string, isSuperuser bool) (chart.User, error) {
	return chart.User{ID: id, FullName: fullName, IsSuperuser: isSuperuser}, nil
}
func (f *fakeStore) Lint(context.Context) ([]chart.Issue, error) {
	return f.issues, f.err
}

func newTestRouter(p *fakePublisher, s *fakeStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(Deps{
		Publisher: p,
		Reader:    s,
		Writer:    s,
		Users:     s,
		Linter:    s,
		Catalog: map[string]reference.Directory{
			"properties": {Name: "properties", Items: []reference.Item{{Code: "y"}}},
		},
	})
}

func do(r *gin.Engine, method, path, actor string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if actor != "" {
		req.Header.Set("X-Karta-User", actor)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateChart(t *testing.T) {
	p := &fakePublisher{res: chart.PublishResult{ID: 5, Version: 1}}
	r := newTestRouter(p, &fakeStore{})

	w := do(r, http.MethodPost, "/api/charts", "alice@example.org", map[string]any{
		"title": "GDP", "slug": "gdp", "isPublished": true,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var res chart.PublishResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, int64(5), res.ID)
	assert.Equal(t, int64(1), res.Version)

	assert.Equal(t, "alice@example.org", p.gotActor)
	require.NotNil(t, p.gotCfg)
	assert.Zero(t, p.gotCfg.ID) // id в теле create игнорируется
	assert.Nil(t, p.gotPrev)
}

func TestCreateChartBadJSON(t *testing.T) {
	r := newTestRouter(&fakePublisher{}, &fakeStore{})
	req := httptest.NewRequest(http.MethodPost, "/api/charts", bytes.NewBufferString("{nope"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateChart(t *testing.T) {
	p := &fakePublisher{res: chart.PublishResult{ID: 7, Version: 4}}
	r := newTestRouter(p, &fakeStore{})

	w := do(r, http.MethodPut, "/api/charts/7", "alice@example.org", map[string]any{
		"config":         map[string]any{"title": "v2", "version": 3},
		"existingConfig": map[string]any{"title": "v1", "version": 3},
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, p.gotPrev)
	assert.Equal(t, int64(7), p.gotCfg.ID)
	assert.Equal(t, int64(7), p.gotPrev.ID)
}

func TestUpdateChartRequiresExistingConfig(t *testing.T) {
	r := newTestRouter(&fakePublisher{}, &fakeStore{})
	w := do(r, http.MethodPut, "/api/charts/7", "alice@example.org", map[string]any{
		"config": map[string]any{"title": "v2"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "existingConfig")
}

func TestFaultStatusMapping(t *testing.T) {
	cases := []struct {
		code   string
		status int
	}{
		{chart.ErrSlugInvalid, http.StatusBadRequest},
		{chart.ErrSlugConflict, http.StatusConflict},
		{chart.ErrVersionConflict, http.StatusConflict},
		{chart.ErrNotFound, http.StatusNotFound},
	}
	for _, tc := range cases {
		p := &fakePublisher{err: &chart.Fault{Code: tc.code, Field: "slug", Message: "boom"}}
		r := newTestRouter(p, &fakeStore{})
		w := do(r, http.MethodPost, "/api/charts", "alice@example.org", map[string]any{"title": "x"})
		assert.Equal(t, tc.status, w.Code, "code %s", tc.code)
	}
}

func TestStarAndDelete(t *testing.T) {
	s := &fakeStore{}
	r := newTestRouter(&fakePublisher{}, s)

	w := do(r, http.MethodPost, "/api/charts/3/star", "alice@example.org", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(3), s.starred)

	w = do(r, http.MethodDelete, "/api/charts/9", "alice@example.org", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, int64(9), s.deleted)

	// мусорный id — 400 ещё до стора
	w = do(r, http.MethodDelete, "/api/charts/abc", "alice@example.org", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListChartsHeader(t *testing.T) {
	s := &fakeStore{summaries: []chart.Summary{{ID: 1}, {ID: 2}}}
	r := newTestRouter(&fakePublisher{}, s)
	w := do(r, http.MethodGet, "/api/charts?limit=10", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-Total-Count"))
}

func TestUserManagementGuard(t *testing.T) {
	s := &fakeStore{users: map[string]chart.User{
		"alice@example.org": {ID: 1, Email: "alice@example.org", IsSuperuser: true},
		"bob@example.org":   {ID: 2, Email: "bob@example.org"},
	}}
	r := newTestRouter(&fakePublisher{}, s)

	// без заголовка — 403
	w := do(r, http.MethodGet, "/api/users", "", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// не суперпользователь — 403
	w = do(r, http.MethodGet, "/api/users", "bob@example.org", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// суперпользователь — ок
	w = do(r, http.MethodGet, "/api/users", "alice@example.org", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodPatch, "/api/users/2", "alice@example.org", map[string]any{
		"full_name": "Bob Jr.", "is_superuser": true,
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Bob Jr.")
}

func TestReferenceEndpoint(t *testing.T) {
	r := newTestRouter(&fakePublisher{}, &fakeStore{})

	w := do(r, http.MethodGet, "/api/reference/properties", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"y"`)

	w = do(r, http.MethodGet, "/api/reference/unknown", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLintEndpoint(t *testing.T) {
	s := &fakeStore{issues: []chart.Issue{{Entity: "charts", Code: "published_slug_duplicate"}}}
	r := newTestRouter(&fakePublisher{}, s)
	w := do(r, http.MethodGet, "/api/admin/lint", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ok":false`)
	assert.Contains(t, w.Body.String(), "published_slug_duplicate")
}
