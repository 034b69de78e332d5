package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/compvault/compvault/internal/detector"
	"github.com/compvault/compvault/internal/document"
	"github.com/compvault/compvault/internal/preview"
	"github.com/compvault/compvault/internal/registry"
	"github.com/compvault/compvault/internal/scanner"
	"github.com/compvault/compvault/internal/types"
)

type renderRequest struct {
	Files     []types.SourceFile `json:"files"`
	Framework string             `json:"framework,omitempty"`
	Device    string             `json:"device,omitempty"`
	Zoom      float64            `json:"zoom,omitempty"`
}

type renderResponse struct {
	HTML      string `json:"html"`
	Framework string `json:"framework"`
}

type scanRequest struct {
	Code string `json:"code"`
}

type scanResponse struct {
	Imports  []string `json:"imports"`
	Packages []string `json:"packages"`
	Install  string   `json:"install,omitempty"`
}

type detectRequest struct {
	Files []types.SourceFile `json:"files"`
}

type detectResponse struct {
	Files     map[string]string `json:"files"`
	Aggregate string            `json:"aggregate"`
}

// handleRender builds a preview document from posted sources. The build
// never fails: malformed input yields an error-panel document, not a 500.
func (s *PreviewServer) handleRender(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req renderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	fw := types.Framework(req.Framework)
	if fw == "" {
		fw = detector.DetectAll(req.Files)
	}

	opts := document.Options{Zoom: req.Zoom, Responsive: true}
	if req.Device != "" {
		if d, ok := preview.DeviceByName(req.Device); ok {
			opts = document.Options{
				ViewportWidth:  d.Width,
				ViewportHeight: d.Height,
				Zoom:           req.Zoom,
			}
		}
	}

	start := time.Now()
	html := document.BuildDocument(req.Files, fw, opts)
	s.logger.Debug(r.Context(), "document built",
		"framework", string(fw), "bytes", len(html), "duration", time.Since(start).String())

	writeJSON(w, renderResponse{HTML: html, Framework: string(fw)})
}

// handleScan extracts import specifiers and their CDN-resolvable external
// packages from a single source.
func (s *PreviewServer) handleScan(w http.ResponseWriter, r *http.Request) {
	req, ok := codePayload(w, r)
	if !ok {
		return
	}

	imports := scanner.ScanImports(req.Code)
	packages := registry.ExternalPackages(imports)

	writeJSON(w, scanResponse{
		Imports:  imports,
		Packages: packages,
		Install:  registry.InstallCommand(packages),
	})
}

// handleDetect classifies posted sources per file and in aggregate.
func (s *PreviewServer) handleDetect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req detectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	perFile := make(map[string]string, len(req.Files))
	for _, f := range req.Files {
		perFile[f.Filename] = string(detector.Detect(f.Code, f.Filename))
	}

	writeJSON(w, detectResponse{
		Files:     perFile,
		Aggregate: string(detector.DetectAll(req.Files)),
	})
}

// handleConsole returns the retained console entries of the live frame.
func (s *PreviewServer) handleConsole(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, map[string]interface{}{
		"entries": s.host.ConsoleLog(),
	})
}

// handleReload resets the sandbox frame and re-renders.
func (s *PreviewServer) handleReload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.controller.Reload()
	frameID := s.host.FrameID().String()
	s.broadcastJSON(wsEnvelope{Type: "sandbox:reload", FrameID: frameID})
	writeJSON(w, map[string]interface{}{
		"frame_id": frameID,
	})
}

// handleHealth returns the server health status for health checks
func (s *PreviewServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.clientsMutex.RLock()
	clientCount := len(s.clients)
	s.clientsMutex.RUnlock()

	writeJSON(w, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"checks": map[string]interface{}{
			"server":  map[string]interface{}{"status": "healthy"},
			"sandbox": map[string]interface{}{"state": s.host.State().String()},
			"clients": map[string]interface{}{"connected": clientCount},
		},
	})
}

// codePayload decodes the {code} body shared by scan-style endpoints. A
// GET with a ?code= query parameter is accepted for quick manual use.
func codePayload(w http.ResponseWriter, r *http.Request) (scanRequest, bool) {
	var req scanRequest

	switch r.Method {
	case http.MethodGet:
		req.Code = r.URL.Query().Get("code")
	case http.MethodPost:
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return req, false
		}
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return req, false
	}

	return req, true
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
