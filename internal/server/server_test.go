package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compvault/compvault/internal/config"
	"github.com/compvault/compvault/internal/sandbox"
	"github.com/compvault/compvault/internal/types"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host: "localhost",
			Port: 7878,
		},
		Preview: config.PreviewConfig{
			DebounceMs: 50,
			CacheSize:  16,
			Zoom:       1.0,
		},
		Sandbox: config.SandboxConfig{
			LoadTimeoutMs:     8000,
			MaxConsoleEntries: 500,
		},
		Watch: config.WatchConfig{
			Paths:      []string{"."},
			DebounceMs: 50,
		},
	}
}

func newTestServer(t *testing.T) *PreviewServer {
	t.Helper()
	s, err := New(testConfig(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.watcher.Stop() })
	return s
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestHandleRender_React(t *testing.T) {
	s := newTestServer(t)

	rec := postJSON(t, s.handleRender, "/api/render", renderRequest{
		Files: []types.SourceFile{{
			Filename: "App.tsx",
			Language: types.LangTSX,
			Code:     "export default function App(){ return <h1>Hi</h1> }",
		}},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp renderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "react", resp.Framework)
	assert.Contains(t, resp.HTML, `<div id="root">`)
}

func TestHandleRender_NeverFails(t *testing.T) {
	s := newTestServer(t)

	rec := postJSON(t, s.handleRender, "/api/render", renderRequest{
		Files: []types.SourceFile{{
			Filename: "broken.tsx",
			Language: types.LangTSX,
			Code:     "import sharp from \"sharp\";\nexport default function X(){ return <div/> }",
		}},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp renderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.HTML, "render is total; failures become panel documents")
}

func TestHandleRender_DeviceViewport(t *testing.T) {
	s := newTestServer(t)

	rec := postJSON(t, s.handleRender, "/api/render", renderRequest{
		Files: []types.SourceFile{{
			Filename: "index.html",
			Language: types.LangHTML,
			Code:     "<h1>Hello</h1>",
		}},
		Device: "iPhone SE",
	})

	var resp renderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.HTML, "width=375")
}

func TestHandleRender_RejectsBadMethod(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/render", nil)
	rec := httptest.NewRecorder()
	s.handleRender(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleScan(t *testing.T) {
	s := newTestServer(t)

	rec := postJSON(t, s.handleScan, "/api/scan", scanRequest{
		Code: `import React from "react";
import { format } from "date-fns";
import styles from "./app.module.css";`,
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp scanResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Imports, "date-fns")
	assert.Contains(t, resp.Imports, "./app.module.css")
	assert.Equal(t, []string{"date-fns"}, resp.Packages)
	assert.Contains(t, resp.Install, "npm install date-fns")
}

func TestHandleScan_GETQueryParam(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/scan?code="+
		"import%20axios%20from%20%22axios%22", nil)
	rec := httptest.NewRecorder()
	s.handleScan(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp scanResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"axios"}, resp.Imports)
}

func TestHandleDetect(t *testing.T) {
	s := newTestServer(t)

	rec := postJSON(t, s.handleDetect, "/api/detect", detectRequest{
		Files: []types.SourceFile{
			{Filename: "App.vue", Language: types.LangVue, Code: "<template><div/></template>"},
			{Filename: "styles.css", Language: types.LangCSS, Code: ".a { color: red; }"},
		},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp detectResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "vue", resp.Files["App.vue"])
	assert.Equal(t, "css", resp.Files["styles.css"])
	assert.Equal(t, "vue", resp.Aggregate)
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.handleHealth(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
}

func TestHandleIndexAndFrame(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	s.handleIndex(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "/ws")
	assert.Contains(t, body, s.host.FrameID().String())

	req = httptest.NewRequest(http.MethodGet, "/frame?fid=x", nil)
	rec = httptest.NewRecorder()
	s.handleFrame(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "frame:ready")
	assert.Contains(t, rec.Body.String(), "srcdoc")
}

func TestHandleIndex_UnknownPath404(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rec := httptest.NewRecorder()
	s.handleIndex(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCheckOrigin(t *testing.T) {
	s := newTestServer(t)

	cases := []struct {
		origin  string
		allowed bool
	}{
		{"http://localhost:7878", true},
		{"http://127.0.0.1:7878", true},
		{"https://localhost:7878", true},
		{"", false},
		{"http://evil.com", false},
		{"http://localhost:9999", false},
		{"file:///etc/passwd", false},
		{"javascript:alert(1)", false},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/ws", nil)
		if tc.origin != "" {
			req.Header.Set("Origin", tc.origin)
		}
		assert.Equal(t, tc.allowed, s.checkOrigin(req), "origin %q", tc.origin)
	}
}

func TestCheckOrigin_ConfiguredAllowlist(t *testing.T) {
	cfg := testConfig()
	cfg.Server.AllowedOrigins = []string{"https://preview.example.com"}
	s, err := New(cfg, nil)
	require.NoError(t, err)
	defer s.watcher.Stop()

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Origin", "https://preview.example.com")
	assert.True(t, s.checkOrigin(req))
}

func TestHandleFrameMessage_LifecycleAndSpoofing(t *testing.T) {
	s := newTestServer(t)
	origin := s.expectedOrigin()
	frameID := s.host.FrameID()

	// Ready from the live frame advances the state machine.
	s.handleFrameMessage(origin, wsEnvelope{Type: "frame:ready", FrameID: frameID.String()})
	assert.Equal(t, sandbox.StateContentAccepted, s.host.State(),
		"frame:ready triggers FrameLoaded and an immediate document push")

	s.handleFrameMessage(origin, wsEnvelope{Type: types.MsgPreviewLoaded, FrameID: frameID.String()})
	assert.Equal(t, sandbox.StateContentRendered, s.host.State())

	// A stale frame ID must not disturb the state machine.
	s.handleFrameMessage(origin, wsEnvelope{Type: types.MsgPreviewLoaded, FrameID: "00000000-0000-0000-0000-000000000001"})
	assert.Equal(t, sandbox.StateContentRendered, s.host.State())

	// Garbage frame IDs are dropped silently.
	s.handleFrameMessage(origin, wsEnvelope{Type: types.MsgPreviewLoaded, FrameID: "not-a-uuid"})
	assert.Equal(t, sandbox.StateContentRendered, s.host.State())
}

func TestHandleFrameMessage_ConsoleRelay(t *testing.T) {
	s := newTestServer(t)
	origin := s.expectedOrigin()
	frameID := s.host.FrameID()

	s.handleFrameMessage(origin, wsEnvelope{Type: "frame:ready", FrameID: frameID.String()})
	s.handleFrameMessage(origin, wsEnvelope{
		Type: types.MsgConsole, FrameID: frameID.String(),
		Level: "error", Message: "boom",
	})

	entries := s.host.ConsoleLog()
	require.Len(t, entries, 1)
	assert.Equal(t, "error", entries[0].Level)
	assert.Equal(t, "boom", entries[0].Message)
}

func TestIsAllowedOrigin(t *testing.T) {
	s := newTestServer(t)
	assert.True(t, s.isAllowedOrigin("http://localhost:7878"))
	assert.False(t, s.isAllowedOrigin(""))
	assert.False(t, s.isAllowedOrigin("http://attacker.test"))
}

func TestHandleReload_IssuesNewFrame(t *testing.T) {
	s := newTestServer(t)
	old := s.host.FrameID().String()

	req := httptest.NewRequest(http.MethodPost, "/api/reload", strings.NewReader(""))
	rec := httptest.NewRecorder()
	s.handleReload(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEqual(t, old, resp["frame_id"])
}
