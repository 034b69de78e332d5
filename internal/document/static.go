package document

import (
	"fmt"
	"html"
	"strings"

	xhtml "golang.org/x/net/html"

	"github.com/compvault/compvault/internal/types"
)

const tailwindCDNURL = "https://cdn.tailwindcss.com"

// buildStaticDocument handles the plain HTML/CSS/JS case: stylesheets are
// merged into one <style> block, markup bodies are injected verbatim, and
// scripts run behind a wait-for-Tailwind loop so CDN utility classes are
// styled before user code measures the DOM. The loop gives up after five
// seconds and runs the script anyway.
func buildStaticDocument(files []types.SourceFile, opts Options) string {
	var markup, scripts strings.Builder
	for _, f := range files {
		switch classify(f) {
		case types.FrameworkHTML:
			if markup.Len() > 0 {
				markup.WriteString("\n")
			}
			markup.WriteString(extractBody(f.Code))
		case types.FrameworkJS:
			if scripts.Len() > 0 {
				scripts.WriteString("\n;\n")
			}
			scripts.WriteString(f.Code)
		}
	}

	var head strings.Builder
	head.WriteString(bridgeTag)
	head.WriteString("\n")
	fmt.Fprintf(&head, "<script src=%q></script>\n", tailwindCDNURL)
	if css := concatCSS(files); css != "" {
		fmt.Fprintf(&head, "<style>\n%s\n</style>", css)
	}

	var body strings.Builder
	if markup.Len() > 0 {
		body.WriteString(markup.String())
	} else {
		body.WriteString(`<div id="root"></div>`)
	}
	if scripts.Len() > 0 {
		body.WriteString("\n<script>\n")
		fmt.Fprintf(&body, "var __userScript = %s;\n", jsString(scripts.String()))
		body.WriteString(staticRunnerScript)
		body.WriteString("\n</script>")
	}

	return htmlDocument(opts, head.String(), body.String())
}

// staticRunnerScript polls for the Tailwind runtime before evaluating the
// user script, with a five-second give-up. Runtime errors route through
// the error bridge, which replaces the root content with a formatted
// panel rather than leaving a blank frame.
const staticRunnerScript = `(function () {
  var started = Date.now();
  function ready() {
    if (window.tailwind) return true;
    return Date.now() - started > 5000;
  }
  function run() {
    try {
      new Function(__userScript)();
    } catch (err) {
      window.__previewShowError(err);
    }
  }
  (function poll() {
    if (ready()) { run(); return; }
    setTimeout(poll, 50);
  })();
})();`

// extractBody returns the inner content of <body> when the input is a
// complete HTML document; fragments pass through verbatim. Parsing uses
// the html5 parser, which never fails on arbitrary input.
func extractBody(source string) string {
	lower := strings.ToLower(source)
	if !strings.Contains(lower, "<html") && !strings.Contains(lower, "<body") &&
		!strings.Contains(lower, "<!doctype") {
		return source
	}
	root, err := xhtml.Parse(strings.NewReader(source))
	if err != nil {
		return source
	}
	bodyNode := findElement(root, "body")
	if bodyNode == nil {
		return source
	}
	var b strings.Builder
	for child := bodyNode.FirstChild; child != nil; child = child.NextSibling {
		if renderErr := xhtml.Render(&b, child); renderErr != nil {
			return source
		}
	}
	return b.String()
}

func findElement(n *xhtml.Node, tag string) *xhtml.Node {
	if n.Type == xhtml.ElementNode && n.Data == tag {
		return n
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if found := findElement(child, tag); found != nil {
			return found
		}
	}
	return nil
}

// buildFallbackDocument is the single-file legacy path for content that
// matched no multi-file branch. It keys off content type alone and must
// still produce a non-empty document.
func buildFallbackDocument(files []types.SourceFile, opts Options) string {
	if len(files) == 0 {
		return panelDocument(opts, UnavailableMarker, "this version has no files to preview", "")
	}

	f := files[0]
	switch classify(f) {
	case types.FrameworkCSS:
		head := fmt.Sprintf("<style>\n%s\n</style>", f.Code)
		body := `<div class="preview-css-sample"><h1>Heading</h1><p>Paragraph text for stylesheet preview.</p><button>Button</button></div>`
		return htmlDocument(opts, head, body)
	case types.FrameworkJS:
		var body strings.Builder
		body.WriteString(`<div id="root"></div>`)
		body.WriteString("\n<script>\n")
		fmt.Fprintf(&body, "var __userScript = %s;\n", jsString(f.Code))
		body.WriteString(staticRunnerScript)
		body.WriteString("\n</script>")
		head := bridgeTag + "\n" + fmt.Sprintf("<script src=%q></script>", tailwindCDNURL)
		return htmlDocument(opts, head, body.String())
	default:
		// Plain text or unrecognized content renders escaped, never blank.
		body := fmt.Sprintf("<pre>%s</pre>", html.EscapeString(f.Code))
		return htmlDocument(opts, "", body)
	}
}
