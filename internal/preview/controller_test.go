package preview

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/compvault/compvault/internal/sandbox"
	"github.com/compvault/compvault/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func appFile() types.SourceFile {
	return types.SourceFile{
		Filename: "App.tsx",
		Language: types.LangTSX,
		Code:     "export default function App(){ return <div>Hello</div> }",
	}
}

func TestController_DebouncedRender(t *testing.T) {
	var renders atomic.Int32
	var mu sync.Mutex
	var lastDoc string

	c := NewController(nil,
		WithDebounce(20*time.Millisecond),
		WithDocumentHandler(func(doc string) {
			renders.Add(1)
			mu.Lock()
			lastDoc = doc
			mu.Unlock()
		}),
	)
	defer c.Close()

	// burst of keystroke-style updates
	for i := 0; i < 10; i++ {
		c.SetFiles([]types.SourceFile{appFile()})
	}

	assert.Eventually(t, func() bool { return renders.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), renders.Load(), "burst must collapse to one render")

	mu.Lock()
	assert.Contains(t, lastDoc, `<div id="root">`)
	mu.Unlock()
}

func TestController_RunCancelsPendingDebounce(t *testing.T) {
	var renders atomic.Int32
	c := NewController(nil,
		WithDebounce(50*time.Millisecond),
		WithDocumentHandler(func(string) { renders.Add(1) }),
	)
	defer c.Close()

	c.SetFiles([]types.SourceFile{appFile()})
	doc := c.Run()

	assert.NotEmpty(t, doc)
	assert.Equal(t, int32(1), renders.Load())

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), renders.Load(), "debounce timer must have been cancelled by Run")
}

func TestController_CloseStopsPendingTimer(t *testing.T) {
	var renders atomic.Int32
	c := NewController(nil,
		WithDebounce(20*time.Millisecond),
		WithDocumentHandler(func(string) { renders.Add(1) }),
	)

	c.SetFiles([]types.SourceFile{appFile()})
	c.Close()

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(0), renders.Load(), "no render may fire after Close")
}

func TestController_CachedRenderIsStable(t *testing.T) {
	c := NewController(nil)
	defer c.Close()

	c.SetFiles([]types.SourceFile{appFile()})
	first := c.Run()
	second := c.Run()

	assert.Equal(t, first, second)
}

func TestController_DeviceChangeRerenders(t *testing.T) {
	c := NewController(nil)
	defer c.Close()
	c.SetFiles([]types.SourceFile{appFile()})

	desktop := c.Run()

	phone, ok := DeviceByName("iPhone SE")
	require.True(t, ok)
	c.SetDevice(phone)
	phoneDoc := c.Run()

	assert.NotEqual(t, desktop, phoneDoc)
	assert.Contains(t, phoneDoc, "width=375")
}

func TestController_ZoomAffectsViewport(t *testing.T) {
	c := NewController(nil)
	defer c.Close()
	c.SetFiles([]types.SourceFile{appFile()})

	phone, _ := DeviceByName("iPhone SE")
	c.SetDevice(phone)
	c.SetZoom(0.5)
	doc := c.Run()

	assert.Contains(t, doc, "initial-scale=0.5")
}

func TestController_ResponsiveTracksContainer(t *testing.T) {
	var renders atomic.Int32
	c := NewController(nil,
		WithDebounce(15*time.Millisecond),
		WithDocumentHandler(func(string) { renders.Add(1) }),
	)
	defer c.Close()
	c.SetFiles([]types.SourceFile{appFile()})
	assert.Eventually(t, func() bool { return renders.Load() == 1 }, time.Second, 5*time.Millisecond)

	c.SetContainerSize(800, 600)
	assert.Eventually(t, func() bool { return renders.Load() == 2 }, time.Second, 5*time.Millisecond)

	doc := c.Run()
	assert.Contains(t, doc, "width=device-width", "responsive mode defers to the real viewport")
}

func TestController_ContainerResizeIgnoredForFixedDevice(t *testing.T) {
	var renders atomic.Int32
	c := NewController(nil,
		WithDebounce(15*time.Millisecond),
		WithDocumentHandler(func(string) { renders.Add(1) }),
	)
	defer c.Close()

	phone, _ := DeviceByName("Pixel 7")
	c.SetDevice(phone)
	before := renders.Load()

	c.SetContainerSize(500, 400)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, before, renders.Load(), "fixed device must not re-render on container resize")
}

func TestController_ReloadResetsSandbox(t *testing.T) {
	host := sandbox.NewHost("http://localhost:7878")
	c := NewController(host, WithDebounce(10*time.Millisecond))
	defer c.Close()

	require.NoError(t, host.FrameLoaded(host.FrameID()))
	_ = host.HandleMessage("http://localhost:7878", host.FrameID(),
		types.SandboxMessage{Type: types.MsgConsole, Level: "log", Message: "old"})
	oldID := host.FrameID()

	c.SetFiles([]types.SourceFile{appFile()})
	doc := c.Reload()

	assert.NotEmpty(t, doc)
	assert.NotEqual(t, oldID, host.FrameID())
	assert.Empty(t, host.ConsoleLog())
}

func TestDevices_CatalogAndResponsive(t *testing.T) {
	devices := Devices(1024, 768)

	require.NotEmpty(t, devices)
	assert.Equal(t, "Responsive", devices[0].Name)
	assert.Equal(t, 1024, devices[0].Width)
	assert.True(t, devices[0].Responsive())

	names := make(map[string]bool)
	for _, d := range devices {
		names[d.Name] = true
	}
	assert.True(t, names["iPhone SE"])
	assert.True(t, names["Desktop"])
}
