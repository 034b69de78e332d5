// Package detector classifies component source files into frameworks and
// languages using filename and content heuristics.
//
// Classification is a pure function of (code, filename): no state, no
// caching, so repeated calls with identical input always agree. The UI
// auto-renames files based on the result, so an oscillating classifier
// causes a rename loop; stability is a hard requirement.
//
// Detection runs per file, never on concatenated multi-file text.
// Concatenation is known to misclassify (a CSS file merged with HTML
// content reads as HTML).
package detector

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/compvault/compvault/internal/types"
)

// ContentCheck is one entry in the ordered content-signature table. The
// first matching entry wins; ordering encodes the tie-break policy of
// preferring structurally specific signatures (Vue SFC tags) over lexical
// guesses (selector-heavy text).
type ContentCheck struct {
	Framework types.Framework
	Match     func(code string) bool
}

// ContentChecks is the tie-break table applied when the filename extension
// is absent or generic. Exported so the precedence is visible and testable
// rather than buried in an if-chain.
var ContentChecks = []ContentCheck{
	{types.FrameworkVue, looksLikeVue},
	{types.FrameworkNext, looksLikeNext},
	{types.FrameworkReact, looksLikeReact},
	{types.FrameworkAngular, looksLikeAngular},
	{types.FrameworkHTML, looksLikeHTML},
	{types.FrameworkCSS, looksLikeCSS},
	{types.FrameworkJS, looksLikeJS},
}

// genericNames are default/placeholder filenames whose extension says more
// about the editor's template than about the content; for these the
// content signature is consulted even though an extension is present.
var genericNames = map[string]bool{
	"app.tsx":    true,
	"index.html": true,
	"index.htm":  true,
	"untitled":   true,
}

// Detect classifies a single file. The filename extension is a strong
// prior; content signatures break ties when the extension is missing or
// the name is a known placeholder.
func Detect(code, filename string) types.Framework {
	base := strings.ToLower(filepath.Base(filename))
	ext := filepath.Ext(base)

	if !genericNames[base] {
		if fw, ok := byExtension(base, ext, code); ok {
			return fw
		}
	}

	for _, check := range ContentChecks {
		if check.Match(code) {
			return check.Framework
		}
	}

	// Fall back to the extension even for generic names: an empty
	// index.html is still HTML.
	if fw, ok := byExtension(base, ext, code); ok {
		return fw
	}
	return types.FrameworkOther
}

func byExtension(base, ext, code string) (types.Framework, bool) {
	if strings.HasSuffix(base, ".component.ts") {
		return types.FrameworkAngular, true
	}
	switch ext {
	case ".vue":
		return types.FrameworkVue, true
	case ".tsx", ".jsx":
		if looksLikeNext(code) {
			return types.FrameworkNext, true
		}
		return types.FrameworkReact, true
	case ".css", ".scss", ".less":
		return types.FrameworkCSS, true
	case ".html", ".htm":
		return types.FrameworkHTML, true
	case ".ts", ".js", ".mjs":
		if looksLikeAngular(code) {
			return types.FrameworkAngular, true
		}
		if looksLikeReact(code) {
			return types.FrameworkReact, true
		}
		return types.FrameworkJS, true
	}
	return types.FrameworkOther, false
}

// DetectLanguage derives the editor language tag for a file given its
// framework classification. Used when the UI needs to (re)name a pasted
// snippet that arrived without a filename.
func DetectLanguage(code string, framework types.Framework) types.Language {
	switch framework {
	case types.FrameworkVue:
		return types.LangVue
	case types.FrameworkHTML:
		return types.LangHTML
	case types.FrameworkCSS:
		return types.LangCSS
	case types.FrameworkAngular:
		return types.LangTS
	case types.FrameworkReact, types.FrameworkNext:
		if hasTypeScriptSyntax(code) {
			return types.LangTSX
		}
		return types.LangJSX
	default:
		if hasTypeScriptSyntax(code) {
			return types.LangTS
		}
		return types.LangJS
	}
}

// DetectAll classifies every file and returns the aggregate framework used
// to pick the document generator branch. Aggregation follows the dispatch
// precedence: vue > angular > react/next > html > css > js.
func DetectAll(files []types.SourceFile) types.Framework {
	order := []types.Framework{
		types.FrameworkVue,
		types.FrameworkAngular,
		types.FrameworkNext,
		types.FrameworkReact,
		types.FrameworkHTML,
		types.FrameworkCSS,
		types.FrameworkJS,
	}
	seen := make(map[types.Framework]bool, len(files))
	for _, f := range files {
		seen[Detect(f.Code, f.Filename)] = true
	}
	for _, fw := range order {
		if seen[fw] {
			return fw
		}
	}
	return types.FrameworkOther
}

var (
	jsxTagPattern       = regexp.MustCompile(`<[A-Za-z][\w.-]*(\s+[\w-]+(=("[^"]*"|'[^']*'|\{[^}]*\}))?)*\s*/?>`)
	reactExportPattern  = regexp.MustCompile(`export\s+default\s+(function|const|class)\s|export\s+(default\s+)?function\s+[A-Z]`)
	angularDecorator    = regexp.MustCompile(`@Component\s*\(`)
	vueScriptSetup      = regexp.MustCompile(`<script\s[^>]*setup`)
	nextImportPattern   = regexp.MustCompile(`["']next(/[\w/-]+)?["']`)
	cssRulePattern      = regexp.MustCompile(`(?m)^\s*[.#]?[\w-]+(\s*[,>+~]\s*[.#]?[\w-]+)*\s*\{[^{}]*:`)
	htmlDocPattern      = regexp.MustCompile(`(?i)<!DOCTYPE\s+html|<html[\s>]|<head[\s>]|<body[\s>]`)
	htmlElementPattern  = regexp.MustCompile(`(?i)<(div|span|p|h[1-6]|ul|ol|li|table|form|input|button|a|img|section|header|footer|nav|main)[\s>]`)
	jsSignaturePattern  = regexp.MustCompile(`\b(function|const|let|var|=>|console\.|document\.|window\.)\b|=>`)
	tsSignaturePattern  = regexp.MustCompile(`\binterface\s+\w+|\btype\s+\w+\s*=|:\s*(string|number|boolean|void|any|unknown|never)\b|\bas\s+(const|\w+)\s*[;,)\]]|<\w+(,\s*\w+)*>\(`)
	vueOptionsAPIHint   = regexp.MustCompile(`export\s+default\s*\{`)
	vueTemplateBlock    = regexp.MustCompile(`(?s)<template[\s>].*</template>`)
	vueDirectivePattern = regexp.MustCompile(`\bv-(if|for|model|bind|on|show|else)\b|@click|:class=|\{\{[^}]+\}\}`)
)

func looksLikeVue(code string) bool {
	if vueTemplateBlock.MatchString(code) {
		return vueScriptSetup.MatchString(code) || vueOptionsAPIHint.MatchString(code) ||
			vueDirectivePattern.MatchString(code) || strings.Contains(code, "<style")
	}
	return false
}

func looksLikeNext(code string) bool {
	return nextImportPattern.MatchString(code) ||
		strings.Contains(code, "getServerSideProps") ||
		strings.Contains(code, "getStaticProps") ||
		strings.Contains(code, `"use client"`) || strings.Contains(code, "'use client'")
}

func looksLikeReact(code string) bool {
	if !jsxTagPattern.MatchString(code) {
		return false
	}
	return reactExportPattern.MatchString(code) ||
		strings.Contains(code, "from \"react\"") || strings.Contains(code, "from 'react'") ||
		strings.Contains(code, "useState") || strings.Contains(code, "useEffect")
}

func looksLikeAngular(code string) bool {
	return angularDecorator.MatchString(code)
}

func looksLikeHTML(code string) bool {
	if htmlDocPattern.MatchString(code) {
		return true
	}
	// Element-heavy text without a CSS rule shape reads as an HTML fragment.
	return htmlElementPattern.MatchString(code) && !cssRulePattern.MatchString(code)
}

func looksLikeCSS(code string) bool {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return false
	}
	if strings.ContainsAny(trimmed, "<") {
		return false
	}
	return cssRulePattern.MatchString(code) ||
		strings.HasPrefix(trimmed, "@import") || strings.HasPrefix(trimmed, "@media") ||
		strings.HasPrefix(trimmed, ":root")
}

func looksLikeJS(code string) bool {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return false
	}
	return jsSignaturePattern.MatchString(code) && !strings.Contains(trimmed, "<")
}

func hasTypeScriptSyntax(code string) bool {
	return tsSignaturePattern.MatchString(code)
}
