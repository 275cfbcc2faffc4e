package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gounc/adapters/memory"
	"gounc/domain/core"
	"gounc/domain/run"
	"gounc/domain/uncertainty"
	"gounc/internal/testkit"
)

func newTestServer(t *testing.T) (*Server, *run.Record) {
	t.Helper()
	ctx := context.Background()
	store := memory.NewRunStore()
	e, err := testkit.IshigamiRun(ctx, 16, true)
	require.NoError(t, err)
	rec, err := e.Record()
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, rec))
	require.NoError(t, store.SaveFrames(ctx, rec.ID(), e.Frames()))
	return NewServer(store, nil), rec
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestServer_Health(t *testing.T) {
	s, _ := newTestServer(t)
	w := get(t, s, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestServer_ListAndGetRun(t *testing.T) {
	s, rec := newTestServer(t)

	w := get(t, s, "/api/runs/")
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[struct {
		Runs  []run.Summary `json:"runs"`
		Count int           `json:"count"`
	}](t, w)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, rec.ID(), list.Runs[0].RunID)
	assert.Equal(t, 16*8, list.Runs[0].Rows)

	w = get(t, s, "/api/runs/"+rec.ID().String()+"/")
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[run.Record](t, w)
	assert.Equal(t, rec.Manifest.Fingerprint, got.Manifest.Fingerprint)
	require.NotNil(t, got.Sensitivity)
	assert.True(t, got.Sensitivity.SecondOrder)
}

func TestServer_SensitivityViews(t *testing.T) {
	s, rec := newTestServer(t)
	base := "/api/runs/" + rec.ID().String() + "/sensitivity"

	w := get(t, s, base+"?output=y&param=x2")
	require.Equal(t, http.StatusOK, w.Code)
	idx := decode[uncertainty.Index](t, w)
	want, _ := rec.Sensitivity.Index("y", "x2")
	assert.Equal(t, want, idx)

	w = get(t, s, base+"?output=y")
	require.Equal(t, http.StatusOK, w.Code)
	comp := decode[uncertainty.ComponentSensitivity](t, w)
	assert.Len(t, comp.Indices, 3)
	assert.Len(t, comp.S2, 3)

	assert.Equal(t, http.StatusNotFound, get(t, s, base+"?output=nope").Code)
	assert.Equal(t, http.StatusNotFound, get(t, s, base+"?output=y&param=x9").Code)
}

func TestServer_DistributionAndFrames(t *testing.T) {
	s, rec := newTestServer(t)
	base := "/api/runs/" + rec.ID().String()

	w := get(t, s, base+"/distribution?output=y")
	require.Equal(t, http.StatusOK, w.Code)
	d := decode[uncertainty.OutputDistribution](t, w)
	assert.Equal(t, 16*8, d.Count)

	w = get(t, s, base+"/frames")
	require.Equal(t, http.StatusOK, w.Code)
	infos := decode[[]frameInfo](t, w)
	assert.Len(t, infos, 6)

	w = get(t, s, base+"/frames/sensitivity_s2")
	require.Equal(t, http.StatusOK, w.Code)
	f := decode[uncertainty.Frame](t, w)
	assert.Equal(t, []string{"metric", "label", "param_i", "param_j", "S2", "S2_conf"}, f.Columns)
	assert.Len(t, f.Rows, 3)

	assert.Equal(t, http.StatusNotFound, get(t, s, base+"/frames/missing").Code)
}

func TestServer_Report(t *testing.T) {
	s, rec := newTestServer(t)
	base := "/api/runs/" + rec.ID().String() + "/report"

	w := get(t, s, base)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/html"))
	assert.Contains(t, w.Body.String(), "<table>")

	w = get(t, s, base+"?format=md&digits=2")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "# Uncertainty run "+rec.ID().String())

	assert.Equal(t, http.StatusBadRequest, get(t, s, base+"?digits=-1").Code)
}

func TestServer_Errors(t *testing.T) {
	s, _ := newTestServer(t)

	w := get(t, s, "/api/runs/not-a-uuid/")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_INPUT", decode[errorResponse](t, w).Code)

	w = get(t, s, "/api/runs/"+core.NewRunID().String()+"/")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decode[errorResponse](t, w).Code)

	assert.Equal(t, http.StatusBadRequest, get(t, s, "/api/runs/?limit=x").Code)
}
