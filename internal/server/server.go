// Package server is the deployment shell around the preview core: it
// serves the host page and sandbox frame, exposes the render/scan/detect
// HTTP API, and relays live updates and console output over a websocket.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os/exec"
	"runtime"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/compvault/compvault/internal/config"
	"github.com/compvault/compvault/internal/errors"
	"github.com/compvault/compvault/internal/logging"
	"github.com/compvault/compvault/internal/preview"
	"github.com/compvault/compvault/internal/sandbox"
	"github.com/compvault/compvault/internal/types"
	"github.com/compvault/compvault/internal/watcher"
)

// Client represents a WebSocket client
type Client struct {
	conn   *websocket.Conn
	send   chan []byte
	server *PreviewServer
}

// PreviewServer serves component previews with live reload
type PreviewServer struct {
	config      *config.Config
	logger      logging.Logger
	httpServer  *http.Server
	serverMutex sync.RWMutex

	clients      map[*websocket.Conn]*Client
	clientsMutex sync.RWMutex
	broadcast    chan []byte
	register     chan *Client
	unregister   chan *websocket.Conn

	host       *sandbox.Host
	controller *preview.Controller
	watcher    *watcher.FileWatcher
	collector  *errors.ErrorCollector

	shutdownOnce sync.Once
}

// New creates a new preview server
func New(cfg *config.Config, logger logging.Logger) (*PreviewServer, error) {
	if logger == nil {
		logger = logging.NewLogger(logging.DefaultConfig())
	}
	logger = logger.WithComponent("server")

	s := &PreviewServer{
		config:     cfg,
		logger:     logger,
		clients:    make(map[*websocket.Conn]*Client),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *Client),
		unregister: make(chan *websocket.Conn),
		collector:  errors.NewErrorCollector(),
	}

	s.host = sandbox.NewHost(s.expectedOrigin(),
		sandbox.WithLoadTimeout(cfg.Sandbox.LoadTimeout()),
		sandbox.WithConsoleLimit(cfg.Sandbox.MaxConsoleEntries),
		sandbox.WithStateHandler(s.handleSandboxState),
		sandbox.WithConsoleHandler(s.handleConsoleEntry),
	)

	s.controller = preview.NewController(s.host,
		preview.WithDebounce(cfg.Preview.Debounce()),
		preview.WithCacheSize(cfg.Preview.CacheSize),
		preview.WithDocumentHandler(s.pushDocument),
	)

	fw, err := watcher.NewFileWatcher(cfg.Watch.Debounce(), logger.WithComponent("watcher"))
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	s.watcher = fw

	return s, nil
}

// Controller exposes the preview controller, mainly for tests.
func (s *PreviewServer) Controller() *preview.Controller {
	return s.controller
}

// Host exposes the sandbox host, mainly for tests.
func (s *PreviewServer) Host() *sandbox.Host {
	return s.host
}

func (s *PreviewServer) expectedOrigin() string {
	return fmt.Sprintf("http://%s:%d", s.config.Server.Host, s.config.Server.Port)
}

// Start starts the preview server and blocks until it stops.
func (s *PreviewServer) Start(ctx context.Context) error {
	s.setupFileWatcher(ctx)

	go s.runWebSocketHub(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/frame", s.handleFrame)
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/render", s.handleRender)
	mux.HandleFunc("/api/scan", s.handleScan)
	mux.HandleFunc("/api/detect", s.handleDetect)
	mux.HandleFunc("/api/console", s.handleConsole)
	mux.HandleFunc("/api/reload", s.handleReload)

	handler := s.addMiddleware(mux)

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)

	s.serverMutex.Lock()
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: handler,
	}
	server := s.httpServer
	s.serverMutex.Unlock()

	if s.config.Server.Open {
		go s.openBrowser(fmt.Sprintf("http://%s", addr))
	}

	s.logger.Info(ctx, "preview server listening", "addr", addr)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func (s *PreviewServer) setupFileWatcher(ctx context.Context) {
	s.watcher.AddFilter(watcher.ComponentFilter)
	s.watcher.AddFilter(watcher.NoNodeModulesFilter)
	s.watcher.AddFilter(watcher.NoGitFilter)
	s.watcher.AddHandler(s.handleFileChange)

	for _, path := range s.config.Watch.Paths {
		if err := s.watcher.AddRecursive(path); err != nil {
			s.logger.Warn(ctx, err, "failed to watch path", "path", path)
		}
	}

	if err := s.watcher.Start(ctx); err != nil {
		s.logger.Warn(ctx, err, "failed to start file watcher")
	}
}

func (s *PreviewServer) handleFileChange(events []watcher.ChangeEvent) error {
	paths := make([]string, 0, len(events))
	for _, ev := range events {
		s.logger.Debug(context.Background(), "file changed",
			"path", ev.Path, "type", ev.Type.String())
		if ev.Type != watcher.EventTypeDeleted {
			paths = append(paths, ev.Path)
		}
	}
	if len(s.config.TargetFiles) > 0 {
		// Pinned file set: reload it wholesale so deletes are reflected too.
		paths = s.config.TargetFiles
	}
	files := watcher.ReadSources(paths)
	if len(files) == 0 {
		return nil
	}
	s.controller.SetFiles(files)
	return nil
}

func (s *PreviewServer) handleSandboxState(state sandbox.State) {
	s.logger.Debug(context.Background(), "sandbox state", "state", state.String())
	if state == sandbox.StateErrored {
		s.collector.Add(*errors.New(errors.StageSandbox, "", "frame content failed to signal load in time"))
	}
	s.broadcastJSON(wsEnvelope{Type: "sandbox:state", State: state.String()})
}

func (s *PreviewServer) handleConsoleEntry(entry types.ConsoleEntry) {
	s.broadcastJSON(wsEnvelope{
		Type:    "console",
		Level:   entry.Level,
		Message: entry.Message,
	})
}

// pushDocument is the controller's document handler: every regenerated
// document goes to all connected browsers.
func (s *PreviewServer) pushDocument(doc string) {
	s.broadcastJSON(wsEnvelope{
		Type:    "setPreviewHtml",
		HTML:    doc,
		FrameID: s.host.FrameID().String(),
	})
}

func (s *PreviewServer) openBrowser(url string) {
	time.Sleep(100 * time.Millisecond) // Give server time to start

	var err error
	switch runtime.GOOS {
	case "linux":
		err = exec.Command("xdg-open", url).Start()
	case "windows":
		err = exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	case "darwin":
		err = exec.Command("open", url).Start()
	default:
		err = fmt.Errorf("unsupported platform")
	}
	if err != nil {
		s.logger.Warn(context.Background(), err, "failed to open browser")
	}
}

func (s *PreviewServer) addMiddleware(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if s.isAllowedOrigin(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		} else if s.config.Server.Environment == "development" {
			// Only allow wildcard in development
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		start := time.Now()
		handler.ServeHTTP(w, r)
		s.logger.Debug(r.Context(), "request",
			"method", r.Method, "path", r.URL.Path, "duration", time.Since(start).String())
	})
}

// isAllowedOrigin checks if the origin is in the allowed origins list
func (s *PreviewServer) isAllowedOrigin(origin string) bool {
	if origin == "" {
		return false
	}
	if origin == s.expectedOrigin() {
		return true
	}
	for _, allowed := range s.config.Server.AllowedOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}

// Shutdown gracefully shuts down the server and cleans up resources
func (s *PreviewServer) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.logger.Info(ctx, "shutting down preview server")

		s.controller.Close()

		if s.watcher != nil {
			s.watcher.Stop()
		}

		s.clientsMutex.Lock()
		for conn, client := range s.clients {
			close(client.send)
			conn.Close(websocket.StatusNormalClosure, "")
		}
		s.clients = make(map[*websocket.Conn]*Client)
		s.clientsMutex.Unlock()

		s.serverMutex.RLock()
		server := s.httpServer
		s.serverMutex.RUnlock()

		if server != nil {
			shutdownErr = server.Shutdown(ctx)
		}
	})

	return shutdownErr
}
