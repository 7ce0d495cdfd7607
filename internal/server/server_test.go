package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/backoffice/internal/engine/detail"
	"github.com/mesh-intelligence/backoffice/internal/engine/list"
	"github.com/mesh-intelligence/backoffice/internal/gateway"
	"github.com/mesh-intelligence/backoffice/internal/sqlite"
	"github.com/mesh-intelligence/backoffice/pkg/types"
)

func newTestServer(t *testing.T, opts ...Option) (*httptest.Server, *prometheus.Registry) {
	t.Helper()
	b := sqlite.NewBackend()
	require.NoError(t, b.Attach(t.TempDir()))
	t.Cleanup(func() { _ = b.Detach() })

	reg := prometheus.NewRegistry()
	srv := httptest.NewServer(New(b, append(opts, WithRegistry(reg))...).Handler())
	t.Cleanup(srv.Close)
	return srv, reg
}

func do(t *testing.T, method, url, body string, header ...string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if len(header) == 2 {
		req.Header.Set(header[0], header[1])
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out)
	}
	return resp, out
}

func TestHealthAndMetrics(t *testing.T) {
	srv, reg := newTestServer(t)

	resp, body := do(t, http.MethodGet, srv.URL+"/healthz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])

	assert.Eventually(t, func() bool {
		n, err := testutil.GatherAndCount(reg, "backoffice_server_requests_total")
		return err == nil && n >= 1
	}, time.Second, 10*time.Millisecond)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/metrics", nil)
	require.NoError(t, err)
	raw, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer raw.Body.Close()
	text, err := io.ReadAll(raw.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, raw.StatusCode)
	assert.Contains(t, string(text), `backoffice_server_requests_total{code="200",method="GET"}`)
}

func TestDocumentRoutes(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, created := do(t, http.MethodPost, srv.URL+"/parents", `{"name":"Amani","status":"active"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id, _ := created["id"].(string)
	require.NotEmpty(t, id)

	resp, got := do(t, http.MethodGet, srv.URL+"/parents/"+id, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Amani", got["name"])

	resp, patched := do(t, http.MethodPatch, srv.URL+"/parents/"+id, `{"status":"suspended"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "suspended", patched["status"])
	assert.Equal(t, "Amani", patched["name"])

	resp, _ = do(t, http.MethodDelete, srv.URL+"/parents/"+id, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, errBody := do(t, http.MethodGet, srv.URL+"/parents/"+id, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", errBody["code"])

	resp, errBody = do(t, http.MethodPost, srv.URL+"/parents", `{broken`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_JSON", errBody["code"])

	resp, errBody = do(t, http.MethodDelete, srv.URL+"/parents", "")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, "METHOD_NOT_ALLOWED", errBody["code"])
}

func TestTokenRequired(t *testing.T) {
	srv, _ := newTestServer(t, WithToken("s3cret"))

	resp, body := do(t, http.MethodGet, srv.URL+"/parents", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", body["code"])

	resp, _ = do(t, http.MethodGet, srv.URL+"/parents", "", "Authorization", "Bearer s3cret")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = do(t, http.MethodGet, srv.URL+"/parents", "", "Authorization", "Bearer s3cre")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = do(t, http.MethodGet, srv.URL+"/healthz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestValidToken(t *testing.T) {
	tests := []struct {
		header string
		want   bool
	}{
		{"Bearer s3cret", true},
		{"Bearer s3cret ", false},
		{"Bearer S3CRET", false},
		{"bearer s3cret", false},
		{"s3cret", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, validToken(tt.header, "s3cret"), tt.header)
	}
}

func TestEnginesOverHTTP(t *testing.T) {
	ctx := context.Background()
	srv, _ := newTestServer(t)
	cfg := types.ResourceConfig{
		Key: "parents",
		Operations: types.Operations{
			Get:          &types.Endpoint{Path: "/parents/{id}"},
			List:         &types.Endpoint{Path: "/parents"},
			Create:       &types.Endpoint{Path: "/parents"},
			Update:       &types.Endpoint{Path: "/parents/{id}"},
			Remove:       &types.Endpoint{Path: "/parents/{id}"},
			UpdateStatus: &types.Endpoint{Path: "/parents/{id}"},
		},
		Fields: []types.FieldSpec{{Name: "id"}, {Name: "name", Editable: true}, {Name: "status"}},
		Tabs: []types.TabConfig{{
			Kind: types.TabTasks, Enabled: true,
			ListPath: "/parents/{id}/tasks", CreatePath: "/parents/{id}/tasks",
			UpdatePath: "/parents/{id}/tasks/{itemId}", DeletePath: "/parents/{id}/tasks/{itemId}",
		}},
	}
	tr, err := gateway.NewHTTP(srv.URL)
	require.NoError(t, err)
	gw := gateway.New(cfg, tr)

	for _, name := range []string{"Amani", "Baraka"} {
		_, err := gw.Call(ctx, types.OpCreate, "", map[string]any{"id": strings.ToLower(name), "name": name, "status": "active"}, nil)
		require.NoError(t, err)
	}

	le, err := list.New(cfg, gw, list.WithDebounce(0))
	require.NoError(t, err)
	defer le.Close()
	rows, err := le.Load(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	de, err := detail.New(cfg, gw)
	require.NoError(t, err)
	de.Open("amani", nil)
	_, err = de.Load(ctx)
	require.NoError(t, err)
	require.NoError(t, de.Update(ctx, "name", "Amani K"))
	require.NoError(t, de.Suspend(ctx))
	assert.Equal(t, "suspended", de.Entity()["status"])

	task, err := de.AddTask(ctx, "Call back")
	require.NoError(t, err)
	_, err = de.CompleteTask(ctx, task.ID("id"))
	require.NoError(t, err)
	state, err := de.ReloadTab(ctx, types.TabTasks)
	require.NoError(t, err)
	require.Len(t, state.Items, 1)
	assert.Equal(t, true, state.Items[0]["done"])

	res := le.BulkDelete(ctx, []string{"amani", "ghost"})
	assert.Equal(t, []string{"amani"}, res.Succeeded)
	assert.True(t, types.IsNotFound(res.Failed["ghost"]))
	assert.Len(t, le.Rows(), 1)
}
