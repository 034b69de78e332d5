package synth

import (
	"regexp"
	"strings"
)

// StripTypeScript removes TypeScript-only syntax from source so the result
// parses as plain JavaScript (plus JSX). This is textual best effort, not
// a compiler: it covers the annotations that appear in real pasted
// components and leaves anything it cannot recognize untouched. A missed
// construct surfaces as a parse error inside the sandbox, where the error
// bridge renders it with a stack trace.
func StripTypeScript(code string) string {
	code = stripInterfaceBlocks(code)
	code = stripTypeAliases(code)
	code = stripDeclareLines(code)
	code = genericCallPattern.ReplaceAllString(code, "${1}(")
	code = satisfiesPattern.ReplaceAllString(code, "")
	code = asCastPattern.ReplaceAllString(code, "")
	code = varAnnotationPattern.ReplaceAllString(code, "$1 $2 =")
	code = returnTypePattern.ReplaceAllString(code, ") $3")
	code = destructureAnnotation.ReplaceAllString(code, "$1")
	code = stripParamAnnotations(code)
	code = accessModifierPattern.ReplaceAllString(code, "")
	code = implementsPattern.ReplaceAllString(code, "{")
	code = nonNullChainPattern.ReplaceAllString(code, "$1.")
	return code
}

var (
	interfaceHead = regexp.MustCompile(`(?m)^[ \t]*(?:export\s+)?interface\s+[\w$]+(?:<[^>{]*>)?(?:\s+extends\s+[^{]+)?\s*\{`)
	typeAliasHead = regexp.MustCompile(`(?m)^[ \t]*(?:export\s+)?type\s+[\w$]+(?:<[^>=]*>)?\s*=`)
	declareLine   = regexp.MustCompile(`(?m)^[ \t]*declare\s+.*$`)

	// useState<string>( -> useState(
	genericCallPattern = regexp.MustCompile(`([\w$])<[\w$,.\s\[\]|&'"]+?>\(`)
	// value satisfies SomeType -> value
	satisfiesPattern = regexp.MustCompile(`\s+satisfies\s+[\w$.<>\[\]|&]+`)
	// x as SomeType -> x ; x as const -> x
	asCastPattern = regexp.MustCompile(`\s+as\s+(?:const\b|[A-Za-z_$][\w$.]*(?:<[^>]*>)?(?:\[\])*)`)
	// const n: number = -> const n =
	varAnnotationPattern = regexp.MustCompile(`\b(const|let|var)\s+([\w$]+)\s*:\s*[^=\n]+?=`)
	// ): ReturnType => / ): ReturnType { -> ) => / ) {
	returnTypePattern = regexp.MustCompile(`\)\s*:\s*([\w$.<>\[\]|&]+(\s*\|\s*[\w$.<>\[\]|&]+)*)\s*(=>|\{)`)
	// ({a, b}: Props) -> ({a, b}); anchored to the opening paren so object
	// literals in ternaries are left alone
	destructureAnnotation = regexp.MustCompile(`(\(\s*\{[^{}]*\})\s*:\s*[\w$.<>\[\]|&]+`)
	// (name?: Type, other: Type) -> (name, other); ran to fixpoint because
	// adjacent parameters share their separating comma
	paramAnnotation = regexp.MustCompile(`([(,]\s*[\w$]+)\??\s*:\s*[\w$.\[\]<>|&]+(?:\s*\|\s*[\w$.\[\]<>|&]+)*\s*([,)=])`)
	// class A implements B { -> class A {
	implementsPattern = regexp.MustCompile(`\bimplements\s+[\w$.<>,\s]+?\s*\{`)
	// constructor(private x) / readonly y -> bare names
	accessModifierPattern = regexp.MustCompile(`\b(public|private|protected|readonly)\s+`)
	// foo!.bar -> foo.bar
	nonNullChainPattern = regexp.MustCompile(`([\w$\)\]])!\.`)
)

// stripInterfaceBlocks removes interface declarations including nested
// object members, using brace counting since RE2 cannot match balanced
// braces.
func stripInterfaceBlocks(code string) string {
	for {
		loc := interfaceHead.FindStringIndex(code)
		if loc == nil {
			return code
		}
		end, ok := matchBrace(code, loc[1]-1)
		if !ok {
			// Unbalanced source: give up on this pass rather than loop.
			return code
		}
		code = code[:loc[0]] + code[end:]
	}
}

// stripTypeAliases removes `type X = ...` declarations. Object-shaped
// aliases consume through the balanced brace block; simple aliases consume
// to the end of the line.
func stripTypeAliases(code string) string {
	for {
		loc := typeAliasHead.FindStringIndex(code)
		if loc == nil {
			return code
		}
		rest := code[loc[1]:]
		trimmed := strings.TrimLeft(rest, " \t")
		offset := loc[1] + (len(rest) - len(trimmed))
		var end int
		if strings.HasPrefix(trimmed, "{") {
			closed, ok := matchBrace(code, offset)
			if !ok {
				return code
			}
			end = closed
			if end < len(code) && code[end] == ';' {
				end++
			}
		} else {
			nl := strings.IndexByte(code[loc[1]:], '\n')
			if nl < 0 {
				end = len(code)
			} else {
				end = loc[1] + nl
			}
		}
		code = code[:loc[0]] + code[end:]
	}
}

func stripDeclareLines(code string) string {
	return declareLine.ReplaceAllString(code, "")
}

// stripParamAnnotations erases parameter type annotations. Adjacent
// parameters share the comma the pattern consumes as a terminator, so the
// replacement runs to a fixpoint with a small iteration cap.
func stripParamAnnotations(code string) string {
	for i := 0; i < 8; i++ {
		next := paramAnnotation.ReplaceAllString(code, "$1$2")
		if next == code {
			return code
		}
		code = next
	}
	return code
}

// matchBrace returns the index just past the brace that closes the one at
// open. ok is false when the braces never balance.
func matchBrace(code string, open int) (int, bool) {
	if open >= len(code) || code[open] != '{' {
		return 0, false
	}
	depth := 0
	for i := open; i < len(code); i++ {
		switch code[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1, true
			}
		}
	}
	return 0, false
}
