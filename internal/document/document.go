// Package document synthesizes the complete, self-contained HTML document
// ("srcdoc") executed inside the sandboxed preview frame.
//
// BuildDocument is pure and total: identical inputs yield byte-identical
// output, every input yields some well-formed HTML, and nothing here ever
// executes user code — the host side only does string transformation.
// Execution happens exclusively inside the sandbox.
//
// Dispatch order when multiple framework signals coexist in one file set:
// Vue, then Angular, then React, then static HTML/CSS/JS, then a
// single-file fallback. First match wins.
package document

import (
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"github.com/compvault/compvault/internal/detector"
	"github.com/compvault/compvault/internal/types"
)

// Options carries the simulated device parameters for the viewport meta
// tag. The zero value means the default desktop viewport.
type Options struct {
	// ViewportWidth/ViewportHeight are the simulated device pixels;
	// ignored when Responsive is set.
	ViewportWidth  int
	ViewportHeight int
	// Zoom scales initial-scale for fixed devices. Zero means 1.0.
	Zoom float64
	// Responsive tracks the live container instead of a fixed device.
	Responsive bool
}

// UnavailableMarker appears in every degraded document so tests and the
// host UI can recognize the placeholder without parsing.
const UnavailableMarker = "Preview Unavailable"

// ErrorPanelClass is the class of the in-document error panel rendered for
// transform and extraction failures.
const ErrorPanelClass = "preview-error-panel"

// BuildDocument assembles the srcdoc for a file set. framework is the
// aggregate classification; pass types.FrameworkOther to let the generator
// re-derive it. The function never returns an empty string and never
// panics, whatever the input.
func BuildDocument(files []types.SourceFile, framework types.Framework, opts Options) (doc string) {
	defer func() {
		if r := recover(); r != nil {
			doc = panelDocument(opts, UnavailableMarker,
				fmt.Sprintf("document generation failed: %v", r), "")
		}
	}()

	if framework == "" || framework == types.FrameworkOther {
		framework = detector.DetectAll(files)
	}

	switch {
	case hasVue(files, framework):
		return buildVueDocument(files, opts)
	case hasAngular(files, framework):
		return panelDocument(opts, UnavailableMarker,
			"Angular components require a build step and cannot be previewed in the browser.", "")
	case hasReact(files):
		return buildReactDocument(files, opts)
	case hasStatic(files):
		return buildStaticDocument(files, opts)
	default:
		return buildFallbackDocument(files, opts)
	}
}

func hasVue(files []types.SourceFile, framework types.Framework) bool {
	if framework == types.FrameworkVue {
		return true
	}
	for _, f := range files {
		if strings.HasSuffix(strings.ToLower(f.Filename), ".vue") || f.Language == types.LangVue {
			return true
		}
	}
	return false
}

func hasAngular(files []types.SourceFile, framework types.Framework) bool {
	if framework == types.FrameworkAngular {
		return true
	}
	for _, f := range files {
		if strings.HasSuffix(strings.ToLower(f.Filename), ".component.ts") {
			return true
		}
	}
	return false
}

func hasReact(files []types.SourceFile) bool {
	for _, f := range files {
		name := strings.ToLower(f.Filename)
		if strings.HasSuffix(name, ".tsx") || strings.HasSuffix(name, ".jsx") {
			return true
		}
		if f.Language == types.LangTSX || f.Language == types.LangJSX {
			return true
		}
	}
	return false
}

func hasStatic(files []types.SourceFile) bool {
	for _, f := range files {
		switch classify(f) {
		case types.FrameworkHTML, types.FrameworkCSS, types.FrameworkJS:
			return true
		}
	}
	return false
}

// classify is the per-file classification used for bucketing inside a
// branch. Always per file — concatenated detection is forbidden.
func classify(f types.SourceFile) types.Framework {
	return detector.Detect(f.Code, f.Filename)
}

// viewportMeta renders the viewport tag for the simulated device. Fixed
// devices pin the exact pixel width and scale; responsive mode defers to
// the real container.
func viewportMeta(opts Options) string {
	if opts.Responsive || opts.ViewportWidth <= 0 {
		return `<meta name="viewport" content="width=device-width, initial-scale=1">`
	}
	zoom := opts.Zoom
	if zoom <= 0 {
		zoom = 1.0
	}
	return fmt.Sprintf(`<meta name="viewport" content="width=%d, initial-scale=%g">`,
		opts.ViewportWidth, zoom)
}

// baseStylesheet is embedded in every branch so sandboxed content cannot
// visually escape the preview frame.
const baseStylesheet = `*, *::before, *::after { box-sizing: border-box; }
html, body { margin: 0; padding: 0; min-height: 100%; }
body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif; overflow-x: hidden; }
img, video { max-width: 100%; height: auto; }
#root, #app { min-height: 100vh; }
.preview-error-panel { font-family: ui-monospace, SFMono-Regular, Menlo, monospace; white-space: pre-wrap; background: #fef2f2; color: #991b1b; border: 1px solid #fecaca; border-radius: 8px; margin: 16px; padding: 16px; font-size: 13px; line-height: 1.5; }
.preview-unavailable { font-family: -apple-system, sans-serif; margin: 16px; padding: 24px; border: 1px dashed #d4d4d8; border-radius: 8px; color: #52525b; background: #fafafa; }
.preview-unavailable h2 { margin: 0 0 8px; font-size: 16px; color: #18181b; }
.preview-unavailable pre { font-family: ui-monospace, Menlo, monospace; font-size: 12px; background: #f4f4f5; padding: 12px; border-radius: 6px; overflow: auto; max-height: 240px; }
.preview-badge { position: fixed; right: 8px; bottom: 8px; font-size: 11px; font-family: -apple-system, sans-serif; background: #eef2ff; color: #3730a3; border: 1px solid #c7d2fe; border-radius: 999px; padding: 2px 10px; opacity: 0.9; z-index: 9999; }`

// htmlDocument is the shared skeleton. head and body are inserted
// verbatim; the loaded signal fires after first paint in every branch so
// the host can clear its spinner even for static panels.
func htmlDocument(opts Options, head, body string) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	b.WriteString(viewportMeta(opts))
	b.WriteString("\n<style>\n")
	b.WriteString(baseStylesheet)
	b.WriteString("\n</style>\n")
	b.WriteString(head)
	b.WriteString("\n</head>\n<body>\n")
	b.WriteString(body)
	b.WriteString("\n<script>")
	b.WriteString(loadedSignalScript)
	b.WriteString("</script>\n</body>\n</html>\n")
	return b.String()
}

// loadedSignalScript notifies the host after the document has painted.
// This is the FrameLoaded/ContentAccepted -> ContentRendered transition of
// the sandbox protocol.
const loadedSignalScript = `window.addEventListener("load", function () {
  requestAnimationFrame(function () {
    try { parent.postMessage({ type: "preview:loaded" }, "*"); } catch (e) {}
  });
});`

// panelDocument renders the degraded "unavailable" document. detail is
// plain text; sourcePreview, when non-empty, is shown truncated to help
// debugging.
func panelDocument(opts Options, title, detail, sourcePreview string) string {
	var body strings.Builder
	body.WriteString(`<div class="preview-unavailable">`)
	fmt.Fprintf(&body, "<h2>%s</h2>", html.EscapeString(title))
	fmt.Fprintf(&body, "<p>%s</p>", html.EscapeString(detail))
	if sourcePreview != "" {
		fmt.Fprintf(&body, "<pre>%s</pre>", html.EscapeString(truncate(sourcePreview, 600)))
	}
	body.WriteString(`</div>`)
	return htmlDocument(opts, "", body.String())
}

// errorPanel is the inline-HTML variant used inside otherwise functional
// documents (e.g. a Vue file whose template block cannot be found).
func errorPanel(message, sourcePreview string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<div class="%s">`, ErrorPanelClass)
	b.WriteString(html.EscapeString(message))
	if sourcePreview != "" {
		b.WriteString("\n\n")
		b.WriteString(html.EscapeString(truncate(sourcePreview, 600)))
	}
	b.WriteString(`</div>`)
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "\n…"
}

// jsString renders s as a JavaScript string literal safe for embedding in
// an inline script. encoding/json escapes <, > and & by default, which
// covers the closing-script-tag injection case.
func jsString(s string) string {
	out, err := json.Marshal(s)
	if err != nil {
		// Marshal of a string cannot fail; belt and braces for the total
		// function guarantee.
		return `""`
	}
	return string(out)
}

// concatCSS merges every stylesheet in the set, CSS Modules included,
// into one block. Identity class mapping in the synthesizer depends on
// the stylesheet text being embedded verbatim.
func concatCSS(files []types.SourceFile) string {
	var b strings.Builder
	for _, f := range files {
		if classify(f) != types.FrameworkCSS && !strings.HasSuffix(strings.ToLower(f.Filename), ".css") {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "/* %s */\n", f.Filename)
		b.WriteString(f.Code)
	}
	return b.String()
}

// cssFiles filters the stylesheet subset handed to the synthesizer.
func cssFiles(files []types.SourceFile) []types.SourceFile {
	var out []types.SourceFile
	for _, f := range files {
		if strings.HasSuffix(strings.ToLower(f.Filename), ".css") || classify(f) == types.FrameworkCSS {
			out = append(out, f)
		}
	}
	return out
}
