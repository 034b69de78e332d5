package document

import (
	"fmt"
	"html"
	"strings"

	"github.com/compvault/compvault/internal/synth"
	"github.com/compvault/compvault/internal/types"
)

const babelStandaloneURL = "https://unpkg.com/@babel/standalone@7.24.7/babel.min.js"

// buildReactDocument synthesizes the runtime module for the primary
// React file and embeds it behind a Blob-backed dynamic import. The blob
// indirection is deliberate: it yields real stack traces and lets a parse
// error surface as a catchable rejection, which inline script tags cannot
// provide. JSX is transpiled inside the sandbox by Babel standalone just
// before the import.
func buildReactDocument(files []types.SourceFile, opts Options) string {
	main, ok := primaryReactFile(files)
	if !ok {
		return panelDocument(opts, UnavailableMarker, "no React component file found in this version", "")
	}

	result := synth.Synthesize(main.Code, cssFiles(files))
	if result.Mode == synth.ModeDisabled {
		return panelDocument(opts, UnavailableMarker, result.Error, main.Code)
	}

	var head strings.Builder
	if css := concatCSS(files); css != "" {
		fmt.Fprintf(&head, "<style>\n%s\n</style>\n", css)
	}
	head.WriteString(bridgeTag)
	head.WriteString("\n")
	fmt.Fprintf(&head, "<script src=%q></script>", babelStandaloneURL)

	var body strings.Builder
	body.WriteString(`<div id="root"></div>`)
	body.WriteString("\n")
	if len(result.AutoDetectedPackages) > 0 {
		fmt.Fprintf(&body, `<div class="preview-badge">auto-detected: %s</div>`,
			html.EscapeString(strings.Join(result.AutoDetectedPackages, ", ")))
		body.WriteString("\n")
	}
	body.WriteString(`<script type="module">` + "\n")
	fmt.Fprintf(&body, "var __previewSource = %s;\n", jsString(result.RuntimeCode))
	body.WriteString(reactBootstrapScript)
	body.WriteString("\n</script>")

	return htmlDocument(opts, head.String(), body.String())
}

// reactBootstrapScript transpiles and loads the synthesized module. It
// runs inside a <script type="module"> so the dynamic import resolves in
// module context; both the Babel pass and the import route failures
// through the error bridge instead of leaving a blank frame.
const reactBootstrapScript = `try {
  var out = Babel.transform(__previewSource, {
    presets: [["react", { runtime: "classic" }]],
    filename: "component.jsx"
  }).code;
  var blob = new Blob([out], { type: "text/javascript" });
  import(URL.createObjectURL(blob)).catch(function (err) {
    window.__previewShowError(err);
  });
} catch (err) {
  window.__previewShowError(err);
}`

// primaryReactFile picks the component to synthesize: App.* wins, then
// the first .tsx/.jsx file in order.
func primaryReactFile(files []types.SourceFile) (types.SourceFile, bool) {
	var first types.SourceFile
	found := false
	for _, f := range files {
		name := strings.ToLower(f.Filename)
		isReact := strings.HasSuffix(name, ".tsx") || strings.HasSuffix(name, ".jsx") ||
			f.Language == types.LangTSX || f.Language == types.LangJSX
		if !isReact {
			continue
		}
		if name == "app.tsx" || name == "app.jsx" {
			return f, true
		}
		if !found {
			first = f
			found = true
		}
	}
	return first, found
}
