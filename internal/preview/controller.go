// Package preview orchestrates document regeneration for the UI shell.
//
// The controller debounces file edits so the frame is not re-rendered on
// every keystroke, memoizes generated documents in a bounded LRU keyed by
// a hash of the full input, simulates device viewports and zoom, and
// exposes the manual Run and Reload actions. It is the only component
// that calls the document generator on the hot path.
package preview

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/compvault/compvault/internal/document"
	"github.com/compvault/compvault/internal/sandbox"
	"github.com/compvault/compvault/internal/types"
)

// DefaultDebounce is the settle time after the last edit before a render.
const DefaultDebounce = 300 * time.Millisecond

const defaultCacheSize = 64

// Controller owns the render loop for one preview session.
type Controller struct {
	mu sync.Mutex

	files     []types.SourceFile
	framework types.Framework
	device    types.DeviceProfile
	zoom      float64

	containerWidth  int
	containerHeight int

	debounce time.Duration
	timer    *time.Timer
	timerGen int
	closed   bool

	cache *lru.Cache[string, string]
	host  *sandbox.Host

	onDocument func(string)
}

// Option configures a Controller.
type Option func(*Controller)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(c *Controller) { c.debounce = d }
}

// WithDocumentHandler registers the callback receiving each regenerated
// document. The server pushes these to the browser.
func WithDocumentHandler(fn func(string)) Option {
	return func(c *Controller) { c.onDocument = fn }
}

// WithCacheSize overrides the document memoization cache bound.
func WithCacheSize(n int) Option {
	return func(c *Controller) {
		if cache, err := lru.New[string, string](n); err == nil {
			c.cache = cache
		}
	}
}

// NewController creates a controller bound to a sandbox host. host may be
// nil when the caller only wants synchronous rendering (the render CLI).
func NewController(host *sandbox.Host, opts ...Option) *Controller {
	cache, _ := lru.New[string, string](defaultCacheSize)
	c := &Controller{
		device:   types.DeviceProfile{Name: "Responsive"},
		zoom:     1.0,
		debounce: DefaultDebounce,
		cache:    cache,
		host:     host,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetFiles replaces the file snapshot and schedules a debounced render.
// The slice is copied: the caller keeps ownership of its files.
func (c *Controller) SetFiles(files []types.SourceFile) {
	c.mu.Lock()
	c.files = append([]types.SourceFile(nil), files...)
	c.scheduleLocked()
	c.mu.Unlock()
}

// SetFramework pins the aggregate framework, or clears the pin with
// types.FrameworkOther to restore auto-detection. Schedules a render.
func (c *Controller) SetFramework(fw types.Framework) {
	c.mu.Lock()
	c.framework = fw
	c.scheduleLocked()
	c.mu.Unlock()
}

// SetDevice switches the simulated viewport and renders immediately:
// device switches are discrete user actions, not keystroke churn.
func (c *Controller) SetDevice(d types.DeviceProfile) {
	c.mu.Lock()
	c.device = d
	c.mu.Unlock()
	c.Run()
}

// SetZoom updates the zoom factor and renders immediately.
func (c *Controller) SetZoom(zoom float64) {
	c.mu.Lock()
	c.zoom = zoom
	c.mu.Unlock()
	c.Run()
}

// SetContainerSize records the measured pixel size of the live preview
// container (resize observation). Only the Responsive device re-derives
// the document from it, so renders are scheduled, not immediate —
// container resizes arrive in bursts just like keystrokes.
func (c *Controller) SetContainerSize(width, height int) {
	c.mu.Lock()
	c.containerWidth, c.containerHeight = width, height
	if c.device.Responsive() {
		c.scheduleLocked()
	}
	c.mu.Unlock()
}

// Run renders immediately, cancelling any pending debounce, and returns
// the document. This is the manual "Run" action and the synchronous
// rendering entry point.
func (c *Controller) Run() string {
	c.mu.Lock()
	c.cancelTimerLocked()
	doc := c.renderLocked()
	c.mu.Unlock()
	c.dispatch(doc)
	return doc
}

// Reload resets the sandbox (fresh frame instance, cleared console) and
// re-renders. Recovery path for a hung frame.
func (c *Controller) Reload() string {
	if c.host != nil {
		c.host.ClearConsole()
		c.host.Reload()
	}
	return c.Run()
}

// Close cancels pending work. Subsequent Set calls are no-ops for the
// debounce path; this prevents a late timer firing against stale state
// after the session ended.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.cancelTimerLocked()
	c.mu.Unlock()
}

// Render is the pure, synchronous form used by the HTTP API: no debounce,
// no host push, no cache interaction beyond reads/writes.
func (c *Controller) Render(files []types.SourceFile, fw types.Framework, opts document.Options) string {
	return document.BuildDocument(files, fw, opts)
}

func (c *Controller) scheduleLocked() {
	if c.closed {
		return
	}
	c.cancelTimerLocked()
	c.timerGen++
	gen := c.timerGen
	c.timer = time.AfterFunc(c.debounce, func() {
		c.mu.Lock()
		if gen != c.timerGen || c.closed {
			c.mu.Unlock()
			return
		}
		doc := c.renderLocked()
		c.mu.Unlock()
		c.dispatch(doc)
	})
}

func (c *Controller) cancelTimerLocked() {
	c.timerGen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Controller) renderLocked() string {
	opts := c.optionsLocked()
	key := cacheKey(c.files, c.framework, opts)
	if doc, ok := c.cache.Get(key); ok {
		return doc
	}
	doc := document.BuildDocument(c.files, c.framework, opts)
	c.cache.Add(key, doc)
	return doc
}

func (c *Controller) optionsLocked() document.Options {
	if c.device.Responsive() {
		return document.Options{
			ViewportWidth:  c.containerWidth,
			ViewportHeight: c.containerHeight,
			Zoom:           c.zoom,
			Responsive:     true,
		}
	}
	return document.Options{
		ViewportWidth:  c.device.Width,
		ViewportHeight: c.device.Height,
		Zoom:           c.zoom,
	}
}

func (c *Controller) dispatch(doc string) {
	if c.onDocument != nil {
		c.onDocument(doc)
	}
	if c.host != nil {
		// Before the frame loads there is nowhere to push; the server
		// re-pushes on FrameLoaded.
		_, _ = c.host.SetPreviewHTML(doc)
	}
}

// cacheKey hashes the full render input. Document generation is pure, so
// equal keys imply byte-identical documents.
func cacheKey(files []types.SourceFile, fw types.Framework, opts document.Options) string {
	h := sha256.New()
	for _, f := range files {
		h.Write([]byte(f.Filename))
		h.Write([]byte{0})
		h.Write([]byte(f.Language))
		h.Write([]byte{0})
		h.Write([]byte(f.Code))
		h.Write([]byte{0xff})
	}
	h.Write([]byte(fw))
	var dims [17]byte
	binary.LittleEndian.PutUint32(dims[0:], uint32(opts.ViewportWidth))
	binary.LittleEndian.PutUint32(dims[4:], uint32(opts.ViewportHeight))
	binary.LittleEndian.PutUint64(dims[8:], uint64(opts.Zoom*1000))
	if opts.Responsive {
		dims[16] = 1
	}
	h.Write(dims[:])
	return hex.EncodeToString(h.Sum(nil))
}
