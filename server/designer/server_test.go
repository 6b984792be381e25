//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package designer

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autorpa/flowforge/agentclient"
	"github.com/autorpa/flowforge/agentwire"
	"github.com/autorpa/flowforge/tabular"
)

const validDraft = `{
  "name": "Login flow",
  "nodes": [
    {"id": "a", "type": "action", "position": {"x": 0, "y": 0},
     "data": {"label": "Open", "type": "navigate", "config": {"type": "navigate", "url": "https://example.com"}}},
    {"id": "b", "type": "action", "position": {"x": 0, "y": 100},
     "data": {"label": "Login", "type": "click", "config": {"type": "click", "selector": "#login"}}}
  ],
  "edges": [{"id": "e1", "source": "a", "target": "b"}]
}`

const invalidDraft = `{
  "name": "Broken",
  "nodes": [
    {"id": "a", "type": "action", "position": {"x": 0, "y": 0},
     "data": {"label": "Login", "type": "click", "config": {"type": "click"}}}
  ],
  "edges": []
}`

type fakeAgent struct {
	executed   *agentwire.Workflow
	executeErr error
	healthErr  error
	pickerMode string
	logLimit   int
}

func (f *fakeAgent) Health(context.Context) (*agentclient.Status, error) {
	if f.healthErr != nil {
		return &agentclient.Status{Status: agentclient.StatusDisconnected}, f.healthErr
	}
	return &agentclient.Status{Status: agentclient.StatusConnected, Version: "2.0"}, nil
}

func (f *fakeAgent) Execute(_ context.Context, wf *agentwire.Workflow) (*agentclient.ExecutionResult, error) {
	f.executed = wf
	if f.executeErr != nil {
		return nil, f.executeErr
	}
	return &agentclient.ExecutionResult{Status: agentclient.ExecutionRunning, TotalSteps: len(wf.Nodes)}, nil
}

func (f *fakeAgent) StartPicker(_ context.Context, mode string) error {
	f.pickerMode = mode
	return nil
}

func (f *fakeAgent) Logs(_ context.Context, limit int) ([]string, error) {
	f.logLimit = limit
	return []string{"started"}, nil
}

func (f *fakeAgent) Diagnostic(context.Context) (map[string]any, error) {
	return nil, &agentclient.StatusError{Method: http.MethodGet, Path: agentclient.PathDiagnostic, StatusCode: 500}
}

func newTestServer(t *testing.T, opts ...Option) (*Server, *fakeAgent) {
	t.Helper()
	agent := &fakeAgent{}
	opts = append([]Option{
		WithAgent(agent),
		WithClock(func() time.Time { return time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC) }),
	}, opts...)
	return New(opts...), agent
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealthSetsRequestID(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(HeaderRequestID))
	assert.Equal(t, "ok", decode(t, rec)["status"])

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(HeaderRequestID, "abc")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "abc", rec.Header().Get(HeaderRequestID))
}

func TestValidate(t *testing.T) {
	s, _ := newTestServer(t)

	out := decode(t, do(t, s, http.MethodPost, "/api/v1/workflows/validate", validDraft))
	assert.Equal(t, true, out["valid"])
	assert.Empty(t, out["issues"])

	out = decode(t, do(t, s, http.MethodPost, "/api/v1/workflows/validate", invalidDraft))
	assert.Equal(t, false, out["valid"])
	issues := out["issues"].([]any)
	require.Len(t, issues, 1)
	issue := issues[0].(map[string]any)
	assert.Equal(t, "a", issue["nodeId"])
	assert.Equal(t, "error", issue["severity"])
	assert.Equal(t, "missing-selector", issue["type"])

	rec := do(t, s, http.MethodPost, "/api/v1/workflows/validate", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "Invalid request JSON")
}

func TestTransform(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/api/v1/workflows/transform", validDraft)
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode(t, rec)
	assert.Equal(t, "Login flow", out["name"])
	nodes := out["nodes"].([]any)
	require.Len(t, nodes, 2)
	first := nodes[0].(map[string]any)
	assert.Equal(t, "a", first["id"])
	assert.Equal(t, "action", first["type"])
}

func TestVariablesUseSources(t *testing.T) {
	s, _ := newTestServer(t)
	src, err := tabular.Load("clientes.csv", []byte("nombre,email\nAna,a@x.com\n"), tabular.LoadOptions{})
	require.NoError(t, err)
	s.Sources().Add(src)

	out := decode(t, do(t, s, http.MethodPost, "/api/v1/workflows/variables", validDraft))
	vars := out["variables"].([]any)
	var names []string
	for _, v := range vars {
		names = append(names, v.(map[string]any)["name"].(string))
	}
	assert.Contains(t, names, "clientes.nombre")
	assert.Contains(t, names, "clientes.email")
}

func TestConnect(t *testing.T) {
	s, _ := newTestServer(t)
	body := func(src, dst string) string {
		return `{"nodes":[
		  {"id":"a","type":"action","position":{"x":0,"y":0},"data":{"type":"click"}},
		  {"id":"n","type":"note","position":{"x":0,"y":0},"data":{"title":"x"}}
		],"edges":[],"source":"` + src + `","target":"` + dst + `"}`
	}
	out := decode(t, do(t, s, http.MethodPost, "/api/v1/workflows/connect", body("a", "a")))
	assert.Equal(t, false, out["allowed"])
	assert.NotEmpty(t, out["reason"])

	out = decode(t, do(t, s, http.MethodPost, "/api/v1/workflows/connect", body("a", "n")))
	assert.Equal(t, false, out["allowed"])

	rec := do(t, s, http.MethodPost, "/api/v1/workflows/connect", body("a", ""))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearch(t *testing.T) {
	s, _ := newTestServer(t)
	var draft map[string]any
	require.NoError(t, json.Unmarshal([]byte(validDraft), &draft))
	draft["term"] = "login"
	body, err := json.Marshal(draft)
	require.NoError(t, err)

	out := decode(t, do(t, s, http.MethodPost, "/api/v1/workflows/search", string(body)))
	results := out["results"].([]any)
	require.Len(t, results, 1)
	assert.Equal(t, "b", results[0].(map[string]any)["nodeId"])
}

func TestExportImport(t *testing.T) {
	s, _ := newTestServer(t)
	src, err := tabular.Load("clientes.csv", []byte("nombre\nAna\n"), tabular.LoadOptions{})
	require.NoError(t, err)
	s.Sources().Add(src)

	rec := do(t, s, http.MethodPost, "/api/v1/workflows/export", validDraft)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="login_flow_2025-03-14.json"`, rec.Header().Get("Content-Disposition"))
	exported := rec.Body.String()
	assert.Contains(t, exported, `"version": "1.0.0"`)

	fresh, _ := newTestServer(t)
	rec = do(t, fresh, http.MethodPost, "/api/v1/workflows/import", exported)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode(t, rec)
	wf := out["workflow"].(map[string]any)
	assert.Equal(t, "Login flow", wf["name"])
	assert.Len(t, wf["nodes"], 2)

	imported, ok := fresh.Sources().ByName("clientes")
	require.True(t, ok)
	assert.Equal(t, []string{"nombre"}, imported.Columns)

	rec = do(t, fresh, http.MethodPost, "/api/v1/workflows/import", `{"version":"1.0.0"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExecute(t *testing.T) {
	s, agent := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/v1/workflows/execute", invalidDraft)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Nil(t, agent.executed)

	rec = do(t, s, http.MethodPost, "/api/v1/workflows/execute", validDraft)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, agent.executed)
	assert.Equal(t, "Login flow", agent.executed.Name)
	assert.Equal(t, "running", decode(t, rec)["status"])

	agent.executeErr = errors.New("connection refused")
	rec = do(t, s, http.MethodPost, "/api/v1/workflows/execute", validDraft)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	out := decode(t, rec)
	assert.Equal(t, "error", out["status"])
	assert.Equal(t, "connection refused", out["error"])
}

func TestSources(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/v1/sources", "a;b\n1;2\n")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/v1/sources?name=datos.csv", "a;b\n1;2\n3;4\n")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode(t, rec)
	id := created["id"].(string)
	assert.Equal(t, "datos", created["name"])
	assert.Equal(t, []any{"a", "b"}, created["headers"])
	assert.EqualValues(t, 2, created["totalRows"])

	rec = do(t, s, http.MethodPost, "/api/v1/sources?name=notes.txt", "x")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	out := decode(t, do(t, s, http.MethodGet, "/api/v1/sources", ""))
	assert.Len(t, out["sources"], 1)

	rec = do(t, s, http.MethodGet, "/api/v1/sources/"+id, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodDelete, "/api/v1/sources/"+id, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/v1/sources/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUploadTooLarge(t *testing.T) {
	s, _ := newTestServer(t)
	big := bytes.Repeat([]byte("a"), tabular.MaxFileSize+1)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sources?name=big.csv", bytes.NewReader(big))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestAgentPassthrough(t *testing.T) {
	s, agent := newTestServer(t)

	out := decode(t, do(t, s, http.MethodGet, "/api/v1/agent/health", ""))
	assert.Equal(t, "connected", out["status"])

	agent.healthErr = errors.New("down")
	rec := do(t, s, http.MethodGet, "/api/v1/agent/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "disconnected", decode(t, rec)["status"])

	out = decode(t, do(t, s, http.MethodGet, "/api/v1/agent/logs?limit=5", ""))
	assert.Equal(t, []any{"started"}, out["logs"])
	assert.Equal(t, 5, agent.logLimit)

	rec = do(t, s, http.MethodGet, "/api/v1/agent/logs?limit=x", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/v1/agent/picker", `{"mode":"web"}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "web", agent.pickerMode)

	rec = do(t, s, http.MethodPost, "/api/v1/agent/picker", `{"mode":"mobile"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/v1/agent/diagnostic", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	s, _ := newTestServer(t, WithCORSOrigins("http://localhost:3000"))
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/workflows/validate", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestAccessLogAndRecovery(t *testing.T) {
	var buf bytes.Buffer
	s, _ := newTestServer(t, WithAccessLog(&buf))
	s.router.HandleFunc("/panic", func(http.ResponseWriter, *http.Request) { panic("boom") })

	rec := do(t, s, http.MethodGet, "/panic", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	do(t, s, http.MethodGet, "/health", "")
	assert.Contains(t, buf.String(), "GET /health")
}
