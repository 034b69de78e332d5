// Package synth turns raw React/TSX component source into a self-contained
// ES module the preview frame can load at runtime.
//
// The pipeline is textual from end to end: TypeScript-only syntax is
// stripped (best effort, not type-checked), bare imports are rewritten to
// ES-module CDN URLs with react/react-dom pinned to one shared instance,
// CSS Module imports are replaced with an inline identity class map, and a
// mount epilogue renders the exported component into the frame's root
// element. JSX is left intact; the generated document transpiles it inside
// the sandbox before the module is imported.
//
// Synthesis never fails with a panic or error return: every failure path
// collapses to ModeDisabled plus a human-readable diagnostic so the caller
// can render a "preview unavailable" panel with the source preserved.
package synth

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/compvault/compvault/internal/registry"
	"github.com/compvault/compvault/internal/types"
)

// Mode tells the document generator whether synthesis produced a loadable
// module or degraded to the unavailable panel.
type Mode string

const (
	ModeModule   Mode = "module"
	ModeDisabled Mode = "disabled"
)

// Result is the outcome of one synthesis run.
type Result struct {
	Mode Mode
	// RuntimeCode is the module body, set when Mode == ModeModule
	RuntimeCode string
	// Error is the diagnostic for ModeDisabled
	Error string
	// AutoDetectedPackages lists external packages the synthesizer resolved
	// to CDN URLs without an explicit install, for the advisory badge.
	AutoDetectedPackages []string
}

const (
	reactVersion = "18.3.1"
	cdnBase      = "https://esm.sh/"
)

// CDN URLs for the pinned framework instance. Everything that depends on
// react routes through ?deps so the CDN serves exactly one copy; two React
// instances in one document break hooks.
var (
	reactURL          = cdnBase + "react@" + reactVersion
	reactDOMClientURL = cdnBase + "react-dom@" + reactVersion + "/client?deps=react@" + reactVersion
)

var assetExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".svg": true, ".webp": true, ".avif": true, ".ico": true,
}

// placeholderAsset is a 1x1 transparent PNG; image imports resolve to it
// so layouts keep their shape without the real binary.
const placeholderAsset = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

// Synthesize transforms code into a runnable module. cssFiles supplies the
// stylesheet set used to satisfy CSS Module imports.
func Synthesize(code string, cssFiles []types.SourceFile) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			result = Result{
				Mode:  ModeDisabled,
				Error: fmt.Sprintf("preview synthesis failed: %v", r),
			}
		}
	}()

	body, resolved, err := rewriteImports(code, cssFiles)
	if err != nil {
		return Result{
			Mode:                 ModeDisabled,
			Error:                err.Error(),
			AutoDetectedPackages: resolved,
		}
	}

	body = StripTypeScript(body)

	body, componentName, ok := normalizeDefaultExport(body)
	if !ok {
		return Result{
			Mode:                 ModeDisabled,
			Error:                "no component export found: add `export default function MyComponent() { ... }`",
			AutoDetectedPackages: resolved,
		}
	}

	var b strings.Builder
	if !hasReactImport(body) {
		fmt.Fprintf(&b, "import React from %q;\n", reactURL)
	}
	b.WriteString(body)
	if !strings.HasSuffix(body, "\n") {
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "\nimport { createRoot } from %q;\n", reactDOMClientURL)
	b.WriteString("const __mountEl = document.getElementById(\"root\");\n")
	fmt.Fprintf(&b, "createRoot(__mountEl).render(React.createElement(%s));\n", componentName)

	return Result{
		Mode:                 ModeModule,
		RuntimeCode:          b.String(),
		AutoDetectedPackages: resolved,
	}
}

var (
	importFromStmt  = regexp.MustCompile(`(?m)^[ \t]*import\s+(?:type\s+)?[^'";]*?from\s*(['"])([^'"]+)['"];?[ \t]*$`)
	importBareStmt  = regexp.MustCompile(`(?m)^[ \t]*import\s*(['"])([^'"]+)['"];?[ \t]*$`)
	importDynamic   = regexp.MustCompile(`import\s*\(\s*(['"])([^'"]+)['"]\s*\)`)
	cssModuleImport = regexp.MustCompile(`(?m)^[ \t]*import\s+([\w$]+)\s+from\s*['"]([^'"]+\.module\.css)['"];?[ \t]*$`)
	importDefBind   = regexp.MustCompile(`import\s+([\w$]+)\s`)
)

// importRewriter accumulates the outcome of rewriting every import in one
// source body. A single rejection poisons the run: the caller reports the
// first unresolvable dependency and disables the preview.
type importRewriter struct {
	cssFiles []types.SourceFile
	resolved []string
	seen     map[string]bool
	reject   error
}

// rewriteImports walks every import statement and rewrites, inlines, or
// rejects it. Returns the transformed body and the list of external
// packages that were auto-resolved to CDN URLs.
func rewriteImports(code string, cssFiles []types.SourceFile) (string, []string, error) {
	rw := &importRewriter{cssFiles: cssFiles, seen: make(map[string]bool)}

	// CSS Module imports become inline identity class maps.
	code = cssModuleImport.ReplaceAllStringFunc(code, func(stmt string) string {
		m := cssModuleImport.FindStringSubmatch(stmt)
		binding, spec := m[1], m[2]
		cssFile, found := matchCSSFile(spec, cssFiles)
		if !found {
			// Missing stylesheet degrades to an empty map; styles.foo
			// renders undefined classes, not a crash.
			return fmt.Sprintf("const %s = {};", binding)
		}
		return fmt.Sprintf("const %s = %s;", binding, classMapLiteral(cssFile.Code))
	})

	code = rw.replaceAll(importFromStmt, code)
	code = rw.replaceAll(importBareStmt, code)
	code = rw.replaceAll(importDynamic, code)

	if rw.reject != nil {
		return code, rw.resolved, rw.reject
	}
	return code, rw.resolved, nil
}

func (rw *importRewriter) replaceAll(pattern *regexp.Regexp, code string) string {
	return pattern.ReplaceAllStringFunc(code, func(stmt string) string {
		m := pattern.FindStringSubmatch(stmt)
		quote, spec := m[1], m[2]
		return rw.rewriteStmt(stmt, quote, spec)
	})
}

func (rw *importRewriter) rewriteStmt(stmt, quote, spec string) string {
	swap := func(target string) string {
		return strings.Replace(stmt, quote+spec+quote, quote+target+quote, 1)
	}

	if registry.IsRelative(spec) {
		ext := strings.ToLower(path.Ext(spec))
		switch {
		case ext == ".css":
			// The document embeds all CSS globally; a plain stylesheet
			// import is dropped, keeping the binding (if any) defined.
			if binding := importBinding(stmt); binding != "" {
				return fmt.Sprintf("const %s = {};", binding)
			}
			return ""
		case assetExtensions[ext]:
			if binding := importBinding(stmt); binding != "" {
				return fmt.Sprintf("const %s = %q;", binding, placeholderAsset)
			}
			return ""
		default:
			rw.fail(fmt.Errorf("relative import %q cannot be resolved: the preview runs the selected file only", spec))
			return stmt
		}
	}

	pkg := registry.Collapse(spec)
	switch pkg {
	case "react":
		return swap(reactURL)
	case "react-dom":
		return swap(reactDOMClientURL)
	case "next":
		stub, ok := nextStub(spec)
		if !ok {
			rw.fail(fmt.Errorf("import %q requires the Next.js runtime, which needs a build step", spec))
			return stmt
		}
		return swap(stub)
	}

	if !registry.IsResolvable(pkg) {
		rw.fail(fmt.Errorf("dependency %q has no browser build and cannot be previewed", pkg))
		return stmt
	}
	if !rw.seen[pkg] {
		rw.seen[pkg] = true
		rw.resolved = append(rw.resolved, pkg)
	}
	return swap(cdnBase + spec + "?deps=react@" + reactVersion)
}

func (rw *importRewriter) fail(err error) {
	if rw.reject == nil {
		rw.reject = err
	}
}

func importBinding(stmt string) string {
	if m := importDefBind.FindStringSubmatch(stmt); m != nil {
		return m[1]
	}
	return ""
}

// matchCSSFile resolves a ./x.module.css specifier against the provided
// stylesheet set by basename.
func matchCSSFile(spec string, cssFiles []types.SourceFile) (types.SourceFile, bool) {
	want := path.Base(spec)
	for _, f := range cssFiles {
		if path.Base(f.Filename) == want {
			return f, true
		}
	}
	return types.SourceFile{}, false
}

var cssClassPattern = regexp.MustCompile(`\.([A-Za-z_][\w-]*)`)

// classMapLiteral builds a JS object literal mapping each class name in
// the stylesheet to itself. The document embeds the stylesheet verbatim,
// so identity mapping makes styles.foo resolve without a CSS Modules
// build step.
func classMapLiteral(css string) string {
	seen := make(map[string]bool)
	var pairs []string
	for _, m := range cssClassPattern.FindAllStringSubmatch(css, -1) {
		name := m[1]
		if seen[name] {
			continue
		}
		seen[name] = true
		pairs = append(pairs, fmt.Sprintf("%q: %q", name, name))
	}
	return "{" + strings.Join(pairs, ", ") + "}"
}

// nextStub returns a data-URI module standing in for the few Next.js
// primitives that can degrade gracefully in a plain browser context.
func nextStub(spec string) (string, bool) {
	var js string
	switch spec {
	case "next/link":
		js = "import React from '" + reactURL + "';" +
			"export default function Link({href, children, ...rest}){" +
			"return React.createElement('a', {href, ...rest}, children);}"
	case "next/image":
		js = "import React from '" + reactURL + "';" +
			"export default function Image({src, alt, width, height, ...rest}){" +
			"return React.createElement('img', {src, alt, width, height, ...rest});}"
	default:
		return "", false
	}
	return "data:text/javascript," + url.PathEscape(js), true
}

// hasReactImport reports whether the (already rewritten) body imports the
// pinned React module under the default binding React.
func hasReactImport(body string) bool {
	return strings.Contains(body, "import React") || strings.Contains(body, "import * as React")
}

var (
	defaultExportIdent = regexp.MustCompile(`(?m)^[ \t]*export\s+default\s+([A-Z][\w$]*)[ \t]*;?[ \t]*$`)
	defaultExportFunc  = regexp.MustCompile(`export\s+default\s+(?:async\s+)?function\s+([A-Za-z_$][\w$]*)`)
	defaultExportClass = regexp.MustCompile(`export\s+default\s+class\s+([A-Za-z_$][\w$]*)`)
	defaultExportAnon  = regexp.MustCompile(`export\s+default\s+(?:async\s+)?function\s*\(`)
	defaultExportAny   = regexp.MustCompile(`(?m)^[ \t]*export\s+default\s+`)
	namedComponent     = regexp.MustCompile(`export\s+(?:const|function)\s+([A-Z][\w$]*)`)
)

// normalizeDefaultExport locates the component to mount and, when the
// default export is anonymous, names it so the mount epilogue can
// reference it. Returns ok=false when no component-shaped export exists.
func normalizeDefaultExport(body string) (string, string, bool) {
	if m := defaultExportIdent.FindStringSubmatch(body); m != nil {
		return body, m[1], true
	}
	if m := defaultExportFunc.FindStringSubmatch(body); m != nil {
		return body, m[1], true
	}
	if m := defaultExportClass.FindStringSubmatch(body); m != nil {
		return body, m[1], true
	}
	if defaultExportAnon.MatchString(body) {
		body = defaultExportAnon.ReplaceAllString(body, "export default function __Component(")
		return body, "__Component", true
	}
	if loc := defaultExportAny.FindStringIndex(body); loc != nil {
		// Expression form: export default () => ..., export default {...}.
		// RE2 has no lookahead, so function/class forms were ruled out by
		// the earlier checks and anything left here is an expression.
		stmt := body[loc[0]:loc[1]]
		replaced := strings.Replace(stmt, "export default", "const __Component =", 1)
		body = body[:loc[0]] + replaced + body[loc[1]:] + "\nexport default __Component;\n"
		return body, "__Component", true
	}
	if m := namedComponent.FindStringSubmatch(body); m != nil {
		return body, m[1], true
	}
	return body, "", false
}
