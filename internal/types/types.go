// Package types provides common type definitions used throughout compvault.
// This package contains shared types to avoid circular dependencies between packages.
package types

import "time"

// Language identifies the source language of a single file as tracked by
// the editor and versioning layer. The preview core treats it as advisory:
// framework detection re-derives classification from content when the
// filename or language tag looks like a placeholder.
type Language string

const (
	LangTSX  Language = "tsx"
	LangJSX  Language = "jsx"
	LangTS   Language = "ts"
	LangJS   Language = "js"
	LangVue  Language = "vue"
	LangHTML Language = "html"
	LangCSS  Language = "css"
)

// Framework is the per-file (and aggregate) classification produced by the
// detector. It is derived, never stored: classification is a pure function
// of (code, filename) and is recomputed on every render.
type Framework string

const (
	FrameworkReact   Framework = "react"
	FrameworkNext    Framework = "next"
	FrameworkVue     Framework = "vue"
	FrameworkAngular Framework = "angular"
	FrameworkHTML    Framework = "html"
	FrameworkCSS     Framework = "css"
	FrameworkJS      Framework = "js"
	FrameworkOther   Framework = "other"
)

// SourceFile is a snapshot of one component file at render time.
//
// The preview core never mutates a SourceFile: the editor/versioning
// subsystem owns the files and hands the core a fresh slice on every
// change. All transformation happens on copies of Code.
type SourceFile struct {
	// Filename is the user-visible name, e.g. "App.tsx" or "styles.module.css"
	Filename string `json:"filename"`
	// Language is the editor's language tag for the file
	Language Language `json:"language"`
	// Code is the full source text
	Code string `json:"code"`
}

// IsCSSModule reports whether the file is a CSS Modules stylesheet by
// filename convention (*.module.css).
func (f SourceFile) IsCSSModule() bool {
	return hasSuffixFold(f.Filename, ".module.css")
}

// Sandbox wire protocol message types exchanged between the host page and
// the sandboxed preview frame. The set is fixed: unknown types are ignored
// by both sides.
const (
	// MsgSetPreviewHTML carries a freshly generated document into the frame
	// (host -> frame) without reassigning the iframe src.
	MsgSetPreviewHTML = "setPreviewHtml"
	// MsgPreviewAccepted acknowledges receipt of new HTML (frame -> host).
	MsgPreviewAccepted = "preview:accepted"
	// MsgPreviewLoaded signals the frame's internal document has painted
	// (frame -> host); clears the host's loading state.
	MsgPreviewLoaded = "preview:loaded"
	// MsgConsole relays a captured console call or runtime error
	// (frame -> host).
	MsgConsole = "console"
)

// SandboxMessage is the single wire format crossing the sandbox boundary
// in either direction. Fields not used by a given Type are omitted.
type SandboxMessage struct {
	Type string `json:"type"`
	// HTML is the full srcdoc string for MsgSetPreviewHTML
	HTML string `json:"html,omitempty"`
	// Level is the console level for MsgConsole: log, error, warn, info, debug, trace
	Level string `json:"level,omitempty"`
	// Message is the pre-formatted console/error text for MsgConsole
	Message string `json:"message,omitempty"`
}

// ConsoleEntry is one captured console line as surfaced to the host UI's
// log panel, tagged with arrival time for ordering.
type ConsoleEntry struct {
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// DeviceProfile describes one simulated viewport. Height zero means "100%"
// (fill the container). The catalog is fixed except for the synthesized
// Responsive entry, whose dimensions track the measured container size.
type DeviceProfile struct {
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Responsive reports whether this profile is the synthesized
// container-tracking entry rather than a fixed device.
func (d DeviceProfile) Responsive() bool {
	return d.Name == "Responsive"
}

// hasSuffixFold is a tiny ASCII case-insensitive HasSuffix; filenames in
// the vault are user-typed and arrive in mixed case.
func hasSuffixFold(s, suffix string) bool {
	if len(s) < len(suffix) {
		return false
	}
	tail := s[len(s)-len(suffix):]
	for i := 0; i < len(suffix); i++ {
		a, b := tail[i], suffix[i]
		if 'A' <= a && a <= 'Z' {
			a += 'a' - 'A'
		}
		if 'A' <= b && b <= 'Z' {
			b += 'a' - 'A'
		}
		if a != b {
			return false
		}
	}
	return true
}
