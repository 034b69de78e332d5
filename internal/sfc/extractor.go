// Package sfc extracts the top-level blocks of a Vue Single-File Component.
//
// The extractor is string-scanning, not a real parser: tag matching with
// depth counting for nested <template> elements and a regex fallback for
// sources the scanner cannot make sense of. That is sufficient for a
// best-effort in-browser preview. The Extractor interface exists so a real
// parser can replace the scanning implementation without touching callers.
package sfc

import (
	"regexp"
	"strings"
)

// Blocks holds the extracted top-level sections of an SFC. Absent blocks
// are empty strings. ScriptSetup and Script are distinct: a file may carry
// both (composition API plus a classic options block).
type Blocks struct {
	Template    string
	Style       string
	Script      string
	ScriptSetup string
}

// HasTemplate reports whether a non-empty template block was found.
// Documents without one render an error panel instead of a blank frame.
func (b Blocks) HasTemplate() bool {
	return strings.TrimSpace(b.Template) != ""
}

// Extractor turns SFC source into its blocks. Extract never fails: absent
// or unparseable blocks come back empty and the caller decides how to
// degrade.
type Extractor interface {
	Extract(source string) Blocks
}

// StringExtractor is the scanning implementation used in production.
type StringExtractor struct{}

// NewExtractor returns the default string-scanning extractor.
func NewExtractor() Extractor {
	return StringExtractor{}
}

var (
	scriptSetupOpen = regexp.MustCompile(`<script\s[^>]*\bsetup\b[^>]*>`)
	scriptOpen      = regexp.MustCompile(`<script(\s[^>]*)?>`)
	styleOpen       = regexp.MustCompile(`<style(\s[^>]*)?>`)
	templateOpenRe  = regexp.MustCompile(`(?s)<template(\s[^>]*)?>(.*?)</template>`)
)

// Extract scans the source for <template>, <style>, <script setup> and
// <script> blocks. Template extraction counts tag depth so nested
// <template> elements (used for v-if/v-slot groups) do not terminate the
// outer block early; the other blocks cannot nest and use simple close-tag
// search.
func (StringExtractor) Extract(source string) Blocks {
	var b Blocks
	b.Template = extractTemplate(source)
	if b.Template == "" {
		// Regex fallback for sources the depth scanner gave up on
		// (unclosed inner tags, template inside a string, etc).
		if m := templateOpenRe.FindStringSubmatch(source); m != nil {
			b.Template = m[2]
		}
	}

	if loc := scriptSetupOpen.FindStringIndex(source); loc != nil {
		b.ScriptSetup = contentUntilClose(source[loc[1]:], "</script>")
		// A plain <script> may still follow/precede; search outside the
		// setup block's opening tag.
		rest := source[:loc[0]] + source[loc[1]:]
		b.Script = plainScript(rest)
	} else {
		b.Script = plainScript(source)
	}

	if loc := styleOpen.FindStringIndex(source); loc != nil {
		b.Style = contentUntilClose(source[loc[1]:], "</style>")
	}
	return b
}

// extractTemplate returns the content of the first top-level <template>
// block, tracking nesting depth. Returns "" when no balanced block exists.
func extractTemplate(source string) string {
	lower := strings.ToLower(source)
	start := strings.Index(lower, "<template")
	if start < 0 {
		return ""
	}
	openEnd := strings.IndexByte(source[start:], '>')
	if openEnd < 0 {
		return ""
	}
	contentStart := start + openEnd + 1

	depth := 1
	i := contentStart
	for i < len(source) {
		nextOpen := strings.Index(lower[i:], "<template")
		nextClose := strings.Index(lower[i:], "</template")
		if nextClose < 0 {
			return ""
		}
		if nextOpen >= 0 && nextOpen < nextClose {
			depth++
			i += nextOpen + len("<template")
			continue
		}
		depth--
		if depth == 0 {
			return source[contentStart : i+nextClose]
		}
		i += nextClose + len("</template")
	}
	return ""
}

// plainScript finds a <script> block that is not a <script setup> block.
func plainScript(source string) string {
	for _, loc := range scriptOpen.FindAllStringSubmatchIndex(source, -1) {
		openTag := source[loc[0]:loc[1]]
		if scriptSetupOpen.MatchString(openTag) {
			continue
		}
		return contentUntilClose(source[loc[1]:], "</script>")
	}
	return ""
}

func contentUntilClose(rest, closeTag string) string {
	end := strings.Index(strings.ToLower(rest), closeTag)
	if end < 0 {
		return strings.TrimSpace(rest)
	}
	return strings.TrimSpace(rest[:end])
}

var bindingPattern = regexp.MustCompile(`(?m)^\s*(?:export\s+)?(?:const|let|var|function|async\s+function)\s+([A-Za-z_$][\w$]*)`)

// TopLevelBindings lists the names declared at the top level of a script
// setup block, in declaration order. The generated document returns these
// from the synthesized setup() so the template can see them — the same
// trick the SFC compiler performs for real.
func TopLevelBindings(script string) []string {
	seen := make(map[string]bool)
	var names []string
	for _, m := range bindingPattern.FindAllStringSubmatch(script, -1) {
		name := m[1]
		if seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

var (
	definePropsGeneric = regexp.MustCompile(`defineProps\s*<[^>]*>\s*\(\s*\)`)
	defineEmitsGeneric = regexp.MustCompile(`defineEmits\s*<[^>]*>\s*\(\s*\)`)
	typeAnnotation     = regexp.MustCompile(`:\s*(string|number|boolean|void|any|unknown|never|Ref<[^>]*>)\b`)
	tsInterfaceBlock   = regexp.MustCompile(`(?s)\binterface\s+\w+\s*\{[^{}]*\}`)
	tsTypeAlias        = regexp.MustCompile(`(?m)^\s*(?:export\s+)?type\s+\w+\s*=.*$`)
	asCast             = regexp.MustCompile(`\s+as\s+[A-Za-z_$][\w$.<>\[\]]*`)
)

// StripMacros performs a best-effort textual strip of compiler macros and
// TypeScript-only syntax from a script setup body so it runs as plain
// JavaScript inside the interpreter context. Not a type checker; just
// enough for the common paste.
func StripMacros(script string) string {
	script = definePropsGeneric.ReplaceAllString(script, "defineProps()")
	script = defineEmitsGeneric.ReplaceAllString(script, "defineEmits()")
	script = tsInterfaceBlock.ReplaceAllString(script, "")
	script = tsTypeAlias.ReplaceAllString(script, "")
	script = typeAnnotation.ReplaceAllString(script, "")
	script = asCast.ReplaceAllString(script, "")
	return script
}
