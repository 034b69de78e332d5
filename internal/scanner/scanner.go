// Package scanner provides best-effort extraction of ES module import
// specifiers from raw source text.
//
// The scanner is deliberately regex/line based rather than a real parser:
// it runs on every keystroke-driven re-render against arbitrary, possibly
// half-typed user code, so it must be cheap and must never fail. It
// recognizes static imports, side-effect imports, dynamic import() calls,
// and re-export forms. Policy decisions (filtering relative specifiers,
// collapsing subpaths to package names, excluding framework intrinsics)
// belong to the consumer, not the scanner; see the registry package.
package scanner

import (
	"iter"
	"regexp"
	"sort"
	"strings"
)

// importPatterns are tried against the comment-stripped source. Each
// pattern captures exactly one module specifier in group 1. Character
// classes and \s span newlines, so prettier-style multi-line import
// statements match too.
var importPatterns = []*regexp.Regexp{
	// import X from "spec" / import {a, b} from "spec" / import * as ns from "spec"
	// also: import X, {a} from "spec" and TS "import type {T} from"
	regexp.MustCompile(`\bimport\s+(?:type\s+)?[\w$]*\s*,?\s*(?:\{[^}]*\}|\*\s*as\s+[\w$]+)?\s*from\s*['"]([^'"]+)['"]`),
	// side-effect import: import "spec"
	regexp.MustCompile(`\bimport\s*['"]([^'"]+)['"]`),
	// dynamic import: import("spec")
	regexp.MustCompile(`\bimport\s*\(\s*['"]([^'"]+)['"]\s*\)`),
	// re-export: export * from "spec" / export {a} from "spec" / export * as ns from "spec"
	regexp.MustCompile(`\bexport\s+(?:\*(?:\s*as\s+[\w$]+)?|\{[^}]*\})\s*from\s*['"]([^'"]+)['"]`),
}

// Imports returns a restartable iterator over the module specifiers found
// in code, in first-seen source order. Duplicates are yielded as they
// occur; callers that need a set deduplicate themselves.
//
// Malformed input is never an error: at worst the sequence is empty.
func Imports(code string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, spec := range matchSource(stripAllComments(code)) {
			if !yield(spec) {
				return
			}
		}
	}
}

// ScanImports collects Imports into a slice. This is the form exposed to
// the UI shell and the API layer.
func ScanImports(code string) []string {
	specs := make([]string, 0, 8)
	for spec := range Imports(code) {
		specs = append(specs, spec)
	}
	return specs
}

// sourceMatch pairs a specifier with its byte offset so matches from the
// different patterns come out in source order.
type sourceMatch struct {
	pos  int
	spec string
}

func matchSource(src string) []string {
	var matches []sourceMatch
	for _, pattern := range importPatterns {
		for _, loc := range pattern.FindAllStringSubmatchIndex(src, -1) {
			if len(loc) < 4 || loc[2] < 0 {
				continue
			}
			matches = append(matches, sourceMatch{pos: loc[2], spec: src[loc[2]:loc[3]]})
		}
	}
	if len(matches) == 0 {
		return nil
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].pos < matches[j].pos })
	specs := make([]string, 0, len(matches))
	last := -1
	for _, m := range matches {
		// Two patterns can capture the same specifier occurrence; drop
		// positional duplicates but keep genuine repeats elsewhere.
		if m.pos == last {
			continue
		}
		last = m.pos
		specs = append(specs, m.spec)
	}
	return specs
}

// stripAllComments applies stripComments line by line, preserving line
// structure so match offsets stay meaningful.
func stripAllComments(code string) string {
	var out strings.Builder
	out.Grow(len(code))
	inBlock := false
	for i, line := range strings.Split(code, "\n") {
		if i > 0 {
			out.WriteByte('\n')
		}
		line, inBlock = stripComments(line, inBlock)
		out.WriteString(line)
	}
	return out.String()
}

// stripComments removes // and /* */ comment text from a line, tracking
// block-comment state across lines. String literals containing comment
// markers can fool this; that is an accepted limitation of the
// line-scanning approach.
func stripComments(line string, inBlock bool) (string, bool) {
	var out strings.Builder
	i := 0
	for i < len(line) {
		if inBlock {
			end := strings.Index(line[i:], "*/")
			if end < 0 {
				return out.String(), true
			}
			i += end + 2
			inBlock = false
			continue
		}
		if strings.HasPrefix(line[i:], "//") {
			return out.String(), false
		}
		if strings.HasPrefix(line[i:], "/*") {
			i += 2
			inBlock = true
			continue
		}
		out.WriteByte(line[i])
		i++
	}
	return out.String(), inBlock
}
