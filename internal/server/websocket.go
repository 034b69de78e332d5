package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/compvault/compvault/internal/types"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. Frame events and console
	// entries only; documents flow the other way.
	maxMessageSize = 64 * 1024
)

// wsEnvelope is the wire shape for both directions of the /ws channel.
type wsEnvelope struct {
	Type    string `json:"type"`
	FrameID string `json:"frameId,omitempty"`
	HTML    string `json:"html,omitempty"`
	Level   string `json:"level,omitempty"`
	Message string `json:"message,omitempty"`
	State   string `json:"state,omitempty"`
}

func (s *PreviewServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if !s.checkOrigin(r) {
		http.Error(w, "Origin not allowed", http.StatusForbidden)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: false, // Always verify origin
	})
	if err != nil {
		s.logger.Warn(r.Context(), err, "websocket upgrade error")
		return
	}

	client := &Client{
		conn:   conn,
		send:   make(chan []byte, 256),
		server: s,
	}

	go client.writePump()
	go client.readPump(r.Header.Get("Origin"))

	s.register <- client
}

// checkOrigin validates the request origin for security
func (s *PreviewServer) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		// Reject connections without origin header
		return false
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}

	if originURL.Scheme != "http" && originURL.Scheme != "https" {
		return false
	}

	expectedHost := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	allowedHosts := []string{
		expectedHost,
		fmt.Sprintf("localhost:%d", s.config.Server.Port),
		fmt.Sprintf("127.0.0.1:%d", s.config.Server.Port),
	}
	for _, allowed := range allowedHosts {
		if originURL.Host == allowed {
			return true
		}
	}

	for _, allowed := range s.config.Server.AllowedOrigins {
		if origin == allowed {
			return true
		}
	}

	return false
}

func (s *PreviewServer) runWebSocketHub(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case client := <-s.register:
			if client == nil || client.conn == nil {
				continue
			}
			s.clientsMutex.Lock()
			s.clients[client.conn] = client
			count := len(s.clients)
			s.clientsMutex.Unlock()
			s.logger.Debug(ctx, "client connected", "total", count)

		case conn := <-s.unregister:
			if conn == nil {
				continue
			}
			s.clientsMutex.Lock()
			if client, ok := s.clients[conn]; ok {
				delete(s.clients, conn)
				close(client.send)
				conn.Close(websocket.StatusNormalClosure, "")
			}
			count := len(s.clients)
			s.clientsMutex.Unlock()
			s.logger.Debug(ctx, "client disconnected", "total", count)

		case message := <-s.broadcast:
			s.clientsMutex.RLock()
			var failed []*websocket.Conn
			for conn, client := range s.clients {
				select {
				case client.send <- message:
				default:
					// Send buffer full, drop the client
					failed = append(failed, conn)
				}
			}
			s.clientsMutex.RUnlock()

			if len(failed) > 0 {
				s.clientsMutex.Lock()
				for _, conn := range failed {
					if client, ok := s.clients[conn]; ok {
						delete(s.clients, conn)
						close(client.send)
						conn.Close(websocket.StatusNormalClosure, "")
					}
				}
				s.clientsMutex.Unlock()
			}
		}
	}
}

func (s *PreviewServer) broadcastJSON(env wsEnvelope) {
	data, err := json.Marshal(env)
	if err != nil {
		s.logger.Warn(context.Background(), err, "failed to marshal ws message")
		return
	}
	select {
	case s.broadcast <- data:
	default:
		// Hub backed up; browsers will catch up on the next document push.
	}
}

// handleFrameMessage feeds a browser-relayed frame event into the sandbox
// host. origin is the websocket connection's validated Origin header; the
// frame ID comes from the browser and is checked against the live frame.
func (s *PreviewServer) handleFrameMessage(origin string, env wsEnvelope) {
	frameID, err := uuid.Parse(env.FrameID)
	if err != nil {
		return
	}

	if env.Type == "frame:ready" {
		if err := s.host.FrameLoaded(frameID); err != nil {
			s.logger.Debug(context.Background(), "stale frame ready ignored", "frame_id", env.FrameID)
			return
		}
		// The frame just (re)loaded; push the current document into it.
		s.controller.Run()
		return
	}

	msg := types.SandboxMessage{
		Type:    env.Type,
		Level:   env.Level,
		Message: env.Message,
	}
	if err := s.host.HandleMessage(origin, frameID, msg); err != nil {
		s.logger.Debug(context.Background(), "frame message rejected",
			"type", env.Type, "reason", err.Error())
	}
}

// readPump pumps messages from the websocket connection
func (c *Client) readPump(origin string) {
	defer func() {
		c.server.unregister <- c.conn
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	c.conn.SetReadLimit(maxMessageSize)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for {
		readCtx, readCancel := context.WithTimeout(ctx, pongWait)
		_, data, err := c.conn.Read(readCtx)
		readCancel()

		if err != nil {
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure &&
				websocket.CloseStatus(err) != websocket.StatusGoingAway {
				c.server.logger.Debug(ctx, "websocket read ended", "error", err.Error())
			}
			break
		}

		var env wsEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}
		c.server.handleFrameMessage(origin, env)
	}
}

// writePump pumps messages to the websocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	ctx := context.Background()

	for {
		select {
		case message, ok := <-c.send:
			writeCtx, cancel := context.WithTimeout(ctx, writeWait)
			if !ok {
				c.conn.Close(websocket.StatusNormalClosure, "")
				cancel()
				return
			}
			if err := c.conn.Write(writeCtx, websocket.MessageText, message); err != nil {
				cancel()
				return
			}
			cancel()

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			if err := c.conn.Ping(pingCtx); err != nil {
				cancel()
				return
			}
			cancel()
		}
	}
}
