package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compvault/compvault/internal/types"
)

func TestComponentFilter(t *testing.T) {
	accepted := []string{"App.tsx", "card.jsx", "util.ts", "main.js", "Modal.vue", "index.html", "styles.css", "theme.SCSS"}
	for _, p := range accepted {
		assert.True(t, ComponentFilter(p), p)
	}

	rejected := []string{"README.md", "go.mod", "image.png", "archive.tar.gz", "noext"}
	for _, p := range rejected {
		assert.False(t, ComponentFilter(p), p)
	}
}

func TestNoNodeModulesFilter(t *testing.T) {
	assert.False(t, NoNodeModulesFilter(filepath.Join("node_modules", "react", "index.js")))
	assert.False(t, NoNodeModulesFilter(filepath.Join("app", "node_modules", "x", "y.js")))
	assert.True(t, NoNodeModulesFilter(filepath.Join("src", "App.tsx")))
}

func TestDebouncer_BatchesAndDeduplicates(t *testing.T) {
	d := &Debouncer{
		delay:   20 * time.Millisecond,
		events:  make(chan ChangeEvent, 100),
		output:  make(chan []ChangeEvent, 10),
		pending: make([]ChangeEvent, 0),
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.start(ctx)

	for i := 0; i < 5; i++ {
		d.events <- ChangeEvent{Type: EventTypeModified, Path: "App.tsx"}
	}
	d.events <- ChangeEvent{Type: EventTypeModified, Path: "styles.css"}

	select {
	case batch := <-d.output:
		assert.Len(t, batch, 2, "repeated edits to one path must collapse")
	case <-time.After(time.Second):
		t.Fatal("debouncer never flushed")
	}
}

func TestFileWatcher_DetectsWrite(t *testing.T) {
	dir := t.TempDir()
	orig, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(orig) })

	fw, err := NewFileWatcher(20*time.Millisecond, nil)
	require.NoError(t, err)
	defer fw.Stop()

	fw.AddFilter(ComponentFilter)

	var seen atomic.Int32
	fw.AddHandler(func(events []ChangeEvent) error {
		for _, ev := range events {
			if filepath.Base(ev.Path) == "App.tsx" {
				seen.Add(1)
			}
		}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, fw.Start(ctx))
	require.NoError(t, fw.AddPath("."))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "App.tsx"), []byte("export default () => null"), 0o644))

	assert.Eventually(t, func() bool { return seen.Load() > 0 }, 3*time.Second, 20*time.Millisecond)
}

func TestFileWatcher_RejectsOutsidePath(t *testing.T) {
	fw, err := NewFileWatcher(10*time.Millisecond, nil)
	require.NoError(t, err)
	defer fw.Stop()

	assert.Error(t, fw.AddPath("../outside"))
	assert.Error(t, fw.AddPath("/etc"))
}

func TestReadSources(t *testing.T) {
	dir := t.TempDir()
	tsx := filepath.Join(dir, "App.tsx")
	css := filepath.Join(dir, "app.module.css")
	require.NoError(t, os.WriteFile(tsx, []byte("export default function App(){}"), 0o644))
	require.NoError(t, os.WriteFile(css, []byte(".card { color: red; }"), 0o644))

	files := ReadSources([]string{tsx, css, filepath.Join(dir, "missing.vue"), filepath.Join(dir, "notes.txt")})

	require.Len(t, files, 2)
	assert.Equal(t, "App.tsx", files[0].Filename)
	assert.Equal(t, types.LangTSX, files[0].Language)
	assert.Equal(t, types.LangCSS, files[1].Language)
	assert.Contains(t, files[1].Code, ".card")
}
