// Package sandbox implements the host side of the preview frame protocol.
//
// The frame's iframe src points at a static, same-origin frame document;
// dynamic content always arrives via a setPreviewHtml message so content
// swaps never trigger a navigation (no flash of blank on every
// keystroke-driven re-render). The host tracks a small state machine:
//
//	Unloaded -> FrameLoaded -> ContentAccepted -> ContentRendered
//
// with a timeout transition to Errored when an accepted document never
// reports preview:loaded. Every inbound message is validated against both
// the expected origin and the current frame instance ID; anything else is
// discarded, which guards against races from a stale frame during a
// forced reload.
package sandbox

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/compvault/compvault/internal/types"
)

// State is the lifecycle position of the current frame instance.
type State int

const (
	StateUnloaded State = iota
	StateFrameLoaded
	StateContentAccepted
	StateContentRendered
	StateErrored
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateFrameLoaded:
		return "frame-loaded"
	case StateContentAccepted:
		return "content-accepted"
	case StateContentRendered:
		return "content-rendered"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

var (
	// ErrOriginMismatch marks a message from an unexpected origin.
	ErrOriginMismatch = errors.New("sandbox: message origin mismatch")
	// ErrStaleFrame marks a message from a frame instance that is no
	// longer current (e.g. the frame that existed before a reload).
	ErrStaleFrame = errors.New("sandbox: message from stale frame instance")
	// ErrFrameNotLoaded is returned when content is pushed before the
	// frame document has loaded.
	ErrFrameNotLoaded = errors.New("sandbox: frame not loaded")
)

// DefaultLoadTimeout bounds how long an accepted document may take to
// report preview:loaded before the host flips to the error state.
const DefaultLoadTimeout = 8 * time.Second

// DefaultConsoleLimit bounds the retained log; the ring drops oldest first.
const DefaultConsoleLimit = 500

// Host coordinates one preview frame. All methods are safe for concurrent
// use; callbacks are invoked without the internal lock held.
type Host struct {
	mu sync.Mutex

	origin      string
	state       State
	frameID     uuid.UUID
	remountKey  int
	loadTimeout time.Duration

	timer    *time.Timer
	timerGen int

	console      []types.ConsoleEntry
	consoleLimit int

	onState   func(State)
	onConsole func(types.ConsoleEntry)
}

// Option configures a Host.
type Option func(*Host)

// WithLoadTimeout overrides DefaultLoadTimeout.
func WithLoadTimeout(d time.Duration) Option {
	return func(h *Host) { h.loadTimeout = d }
}

// WithConsoleLimit overrides DefaultConsoleLimit.
func WithConsoleLimit(n int) Option {
	return func(h *Host) {
		if n > 0 {
			h.consoleLimit = n
		}
	}
}

// WithStateHandler registers a callback fired on every state change.
func WithStateHandler(fn func(State)) Option {
	return func(h *Host) { h.onState = fn }
}

// WithConsoleHandler registers a callback fired for each relayed console
// entry.
func WithConsoleHandler(fn func(types.ConsoleEntry)) Option {
	return func(h *Host) { h.onConsole = fn }
}

// NewHost creates a host expecting messages from origin. origin must be
// the host page's own origin; the frame document is same-origin by
// construction.
func NewHost(origin string, opts ...Option) *Host {
	h := &Host{
		origin:       origin,
		state:        StateUnloaded,
		frameID:      uuid.New(),
		loadTimeout:  DefaultLoadTimeout,
		consoleLimit: DefaultConsoleLimit,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// State returns the current lifecycle state.
func (h *Host) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// FrameID identifies the frame instance currently considered live.
func (h *Host) FrameID() uuid.UUID {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.frameID
}

// RemountKey increments on every Reload; the UI keys the iframe element
// on it so a hung frame is replaced wholesale.
func (h *Host) RemountKey() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.remountKey
}

// FrameLoaded records the frame document's load event. A load event from
// a stale instance is rejected: during a forced reload the old iframe may
// still fire events after the new one exists.
func (h *Host) FrameLoaded(frameID uuid.UUID) error {
	h.mu.Lock()
	if frameID != h.frameID {
		h.mu.Unlock()
		return ErrStaleFrame
	}
	h.setStateLocked(StateFrameLoaded)
	notify := h.stateNotifier()
	h.mu.Unlock()
	notify()
	return nil
}

// SetPreviewHTML produces the message carrying a freshly generated
// document into the frame and arms the render timeout. Messages must be
// delivered to the frame in the order SetPreviewHTML returns them.
func (h *Host) SetPreviewHTML(html string) (types.SandboxMessage, error) {
	h.mu.Lock()
	if h.state == StateUnloaded {
		h.mu.Unlock()
		return types.SandboxMessage{}, ErrFrameNotLoaded
	}
	h.setStateLocked(StateContentAccepted)
	h.armTimeoutLocked()
	notify := h.stateNotifier()
	h.mu.Unlock()
	notify()
	return types.SandboxMessage{Type: types.MsgSetPreviewHTML, HTML: html}, nil
}

// HandleMessage validates and applies one inbound frame message. Origin
// and frame-instance checks run before anything is trusted; a mismatch is
// an error the caller logs and otherwise ignores — no state changes.
func (h *Host) HandleMessage(origin string, frameID uuid.UUID, msg types.SandboxMessage) error {
	h.mu.Lock()
	if origin != h.origin {
		h.mu.Unlock()
		return ErrOriginMismatch
	}
	if frameID != h.frameID {
		h.mu.Unlock()
		return ErrStaleFrame
	}

	notify := func() {}
	switch msg.Type {
	case types.MsgPreviewAccepted:
		// Acknowledgement only; the state already advanced when the
		// content was posted.
	case types.MsgPreviewLoaded:
		h.disarmTimeoutLocked()
		h.setStateLocked(StateContentRendered)
		notify = h.stateNotifier()
	case types.MsgConsole:
		entry := types.ConsoleEntry{
			Level:     msg.Level,
			Message:   msg.Message,
			Timestamp: time.Now(),
		}
		h.console = append(h.console, entry)
		if len(h.console) > h.consoleLimit {
			h.console = h.console[len(h.console)-h.consoleLimit:]
		}
		if fn := h.onConsole; fn != nil {
			notify = func() { fn(entry) }
		}
	default:
		// Unknown message types are ignored by protocol contract.
	}
	h.mu.Unlock()
	notify()
	return nil
}

// Reload abandons the current frame instance: state resets, the remount
// key increments, pending timers are cancelled, and a fresh frame ID is
// issued so anything the old frame still sends is discarded as stale.
// This is the manual recovery path for a hung frame.
func (h *Host) Reload() uuid.UUID {
	h.mu.Lock()
	h.disarmTimeoutLocked()
	h.frameID = uuid.New()
	h.remountKey++
	h.setStateLocked(StateUnloaded)
	id := h.frameID
	notify := h.stateNotifier()
	h.mu.Unlock()
	notify()
	return id
}

// ConsoleLog returns a copy of the retained console entries.
func (h *Host) ConsoleLog() []types.ConsoleEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]types.ConsoleEntry, len(h.console))
	copy(out, h.console)
	return out
}

// ClearConsole empties the retained log (the UI's "clear" button).
func (h *Host) ClearConsole() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.console = h.console[:0]
}

func (h *Host) setStateLocked(s State) {
	h.state = s
}

// stateNotifier captures the callback and state under the lock so the
// callback can run after unlock without racing a concurrent transition.
func (h *Host) stateNotifier() func() {
	if h.onState == nil {
		return func() {}
	}
	fn, s := h.onState, h.state
	return func() { fn(s) }
}

// armTimeoutLocked starts (or restarts) the render timeout. The
// generation counter invalidates callbacks from timers that were armed
// for an earlier content push.
func (h *Host) armTimeoutLocked() {
	h.disarmTimeoutLocked()
	h.timerGen++
	gen := h.timerGen
	h.timer = time.AfterFunc(h.loadTimeout, func() {
		h.mu.Lock()
		if gen != h.timerGen || h.state != StateContentAccepted {
			h.mu.Unlock()
			return
		}
		h.setStateLocked(StateErrored)
		notify := h.stateNotifier()
		h.mu.Unlock()
		notify()
	})
}

func (h *Host) disarmTimeoutLocked() {
	h.timerGen++
	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
	}
}
