package synth

import (
	"strings"
	"testing"

	"github.com/compvault/compvault/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynthesize_BasicComponent(t *testing.T) {
	code := `export default function App() {
  return <div>Hello</div>
}`

	result := Synthesize(code, nil)

	require.Equal(t, ModeModule, result.Mode)
	assert.Empty(t, result.Error)
	assert.Contains(t, result.RuntimeCode, `import React from "https://esm.sh/react@18.3.1"`)
	assert.Contains(t, result.RuntimeCode, "createRoot(__mountEl).render(React.createElement(App))")
	assert.Contains(t, result.RuntimeCode, `getElementById("root")`)
}

func TestSynthesize_PinsReactImports(t *testing.T) {
	code := `import React, { useState } from "react"
import { createPortal } from "react-dom"

export default function Counter() {
  const [n, setN] = useState(0)
  return <button onClick={() => setN(n + 1)}>{n}</button>
}`

	result := Synthesize(code, nil)

	require.Equal(t, ModeModule, result.Mode)
	assert.Contains(t, result.RuntimeCode, `from "https://esm.sh/react@18.3.1"`)
	assert.Contains(t, result.RuntimeCode, `react-dom@18.3.1/client?deps=react@18.3.1`)
	assert.NotContains(t, result.RuntimeCode, `from "react"`)
	// user code already imports React; no second import is prepended
	assert.Equal(t, 1, strings.Count(result.RuntimeCode, "import React"))
}

func TestSynthesize_ThirdPartyCDNRewrite(t *testing.T) {
	code := `import { motion } from "framer-motion"
import debounce from "lodash/debounce"

export default function Panel() {
  return <motion.div>hi</motion.div>
}`

	result := Synthesize(code, nil)

	require.Equal(t, ModeModule, result.Mode)
	assert.Contains(t, result.RuntimeCode, `"https://esm.sh/framer-motion?deps=react@18.3.1"`)
	assert.Contains(t, result.RuntimeCode, `"https://esm.sh/lodash/debounce?deps=react@18.3.1"`)
	assert.Equal(t, []string{"framer-motion", "lodash"}, result.AutoDetectedPackages)
}

func TestSynthesize_UnresolvableDependencyDisables(t *testing.T) {
	code := `import sharp from "sharp"
export default function Resizer() { return <div/> }`

	result := Synthesize(code, nil)

	assert.Equal(t, ModeDisabled, result.Mode)
	assert.Contains(t, result.Error, "sharp")
	assert.Empty(t, result.RuntimeCode)
}

func TestSynthesize_NodeBuiltinDisables(t *testing.T) {
	code := `import fs from "fs"
export default function FileList() { return <ul/> }`

	result := Synthesize(code, nil)

	assert.Equal(t, ModeDisabled, result.Mode)
	assert.Contains(t, result.Error, `"fs"`)
}

func TestSynthesize_RelativeImportDisables(t *testing.T) {
	code := `import { helper } from "./utils"
export default function App() { return <div/> }`

	result := Synthesize(code, nil)

	assert.Equal(t, ModeDisabled, result.Mode)
	assert.Contains(t, result.Error, "./utils")
}

func TestSynthesize_CSSModuleImport(t *testing.T) {
	code := `import styles from "./card.module.css"

export default function Card() {
  return <div className={styles.card}>x</div>
}`
	cssFiles := []types.SourceFile{{
		Filename: "card.module.css",
		Language: types.LangCSS,
		Code:     ".card { padding: 8px }\n.card-title { font-weight: bold }",
	}}

	result := Synthesize(code, cssFiles)

	require.Equal(t, ModeModule, result.Mode)
	assert.Contains(t, result.RuntimeCode, `const styles = {"card": "card", "card-title": "card-title"};`)
	assert.NotContains(t, result.RuntimeCode, "card.module.css")
}

func TestSynthesize_CSSModuleMissingFileDegrades(t *testing.T) {
	code := `import styles from "./missing.module.css"
export default function App() { return <div className={styles.x}/> }`

	result := Synthesize(code, nil)

	require.Equal(t, ModeModule, result.Mode)
	assert.Contains(t, result.RuntimeCode, "const styles = {};")
}

func TestSynthesize_PlainCSSImportDropped(t *testing.T) {
	code := `import "./global.css"
export default function App() { return <div/> }`

	result := Synthesize(code, nil)

	require.Equal(t, ModeModule, result.Mode)
	assert.NotContains(t, result.RuntimeCode, "global.css")
}

func TestSynthesize_AssetImportPlaceholder(t *testing.T) {
	code := `import logo from "./logo.png"
export default function App() { return <img src={logo}/> }`

	result := Synthesize(code, nil)

	require.Equal(t, ModeModule, result.Mode)
	assert.Contains(t, result.RuntimeCode, `const logo = "data:image/png;base64`)
}

func TestSynthesize_NextLinkStub(t *testing.T) {
	code := `import Link from "next/link"
export default function Nav() { return <Link href="/">Home</Link> }`

	result := Synthesize(code, nil)

	require.Equal(t, ModeModule, result.Mode)
	assert.Contains(t, result.RuntimeCode, "data:text/javascript,")
	assert.NotContains(t, result.RuntimeCode, `"next/link"`)
}

func TestSynthesize_NextRouterDisables(t *testing.T) {
	code := `import { useRouter } from "next/router"
export default function Page() { return <div/> }`

	result := Synthesize(code, nil)

	assert.Equal(t, ModeDisabled, result.Mode)
	assert.Contains(t, result.Error, "next/router")
}

func TestSynthesize_AnonymousDefaultExport(t *testing.T) {
	code := `export default function () {
  return <p>anon</p>
}`

	result := Synthesize(code, nil)

	require.Equal(t, ModeModule, result.Mode)
	assert.Contains(t, result.RuntimeCode, "function __Component(")
	assert.Contains(t, result.RuntimeCode, "React.createElement(__Component)")
}

func TestSynthesize_ArrowDefaultExport(t *testing.T) {
	code := `export default () => <p>arrow</p>`

	result := Synthesize(code, nil)

	require.Equal(t, ModeModule, result.Mode)
	assert.Contains(t, result.RuntimeCode, "const __Component =")
	assert.Contains(t, result.RuntimeCode, "React.createElement(__Component)")
}

func TestSynthesize_DefaultExportByName(t *testing.T) {
	code := `function Widget() { return <div/> }
export default Widget`

	result := Synthesize(code, nil)

	require.Equal(t, ModeModule, result.Mode)
	assert.Contains(t, result.RuntimeCode, "React.createElement(Widget)")
}

func TestSynthesize_NamedExportFallback(t *testing.T) {
	code := `export const Badge = () => <span>badge</span>`

	result := Synthesize(code, nil)

	require.Equal(t, ModeModule, result.Mode)
	assert.Contains(t, result.RuntimeCode, "React.createElement(Badge)")
}

func TestSynthesize_NoComponentExport(t *testing.T) {
	code := `const x = 1
console.log(x)`

	result := Synthesize(code, nil)

	assert.Equal(t, ModeDisabled, result.Mode)
	assert.Contains(t, result.Error, "no component export")
}

func TestSynthesize_NeverPanics(t *testing.T) {
	inputs := []string{
		"",
		"import",
		"export default",
		"interface {",
		strings.Repeat("{", 1000),
	}
	for _, code := range inputs {
		assert.NotPanics(t, func() {
			result := Synthesize(code, nil)
			assert.Equal(t, ModeDisabled, result.Mode, "input %q", code)
			assert.NotEmpty(t, result.Error)
		})
	}
}

func TestStripTypeScript(t *testing.T) {
	testCases := []struct {
		name        string
		code        string
		wantGone    []string
		wantPresent []string
	}{
		{
			name:        "interface block",
			code:        "interface Props {\n  title: string\n  items: string[]\n}\nconst a = 1",
			wantGone:    []string{"interface Props", "title: string"},
			wantPresent: []string{"const a = 1"},
		},
		{
			name:        "nested interface members",
			code:        "interface Props { style: { color: string } }\nlet b = 2",
			wantGone:    []string{"interface Props"},
			wantPresent: []string{"let b = 2"},
		},
		{
			name:        "type alias simple",
			code:        "type ID = string | number\nconst id = 7",
			wantGone:    []string{"type ID"},
			wantPresent: []string{"const id = 7"},
		},
		{
			name:        "type alias object",
			code:        "export type Item = {\n  id: number\n}\nconst x = 3",
			wantGone:    []string{"type Item"},
			wantPresent: []string{"const x = 3"},
		},
		{
			name:        "variable annotation",
			code:        "const count: number = 0",
			wantGone:    []string{": number"},
			wantPresent: []string{"const count = 0"},
		},
		{
			name:        "generic call",
			code:        `const [value, setValue] = useState<string>("")`,
			wantGone:    []string{"<string>"},
			wantPresent: []string{`useState("")`},
		},
		{
			name:     "as cast",
			code:     "const el = document.body as HTMLElement",
			wantGone: []string{"as HTMLElement"},
		},
		{
			name:     "as const",
			code:     `const sizes = ["s", "m"] as const`,
			wantGone: []string{"as const"},
		},
		{
			name:     "satisfies",
			code:     "const cfg = { a: 1 } satisfies Config",
			wantGone: []string{"satisfies"},
		},
		{
			name:        "param annotations",
			code:        "function add(a: number, b: number) { return a + b }",
			wantGone:    []string{": number"},
			wantPresent: []string{"function add(a, b)"},
		},
		{
			name:        "optional param",
			code:        "function greet(name?: string) { return name }",
			wantGone:    []string{": string"},
			wantPresent: []string{"function greet(name)"},
		},
		{
			name:        "destructured props annotation",
			code:        "function Card({ title, body }: CardProps) { return null }",
			wantGone:    []string{"CardProps"},
			wantPresent: []string{"({ title, body })"},
		},
		{
			name:     "return type arrow",
			code:     "const f = (): void => {}",
			wantGone: []string{": void"},
		},
		{
			name:        "non-null chain",
			code:        "const v = ref!.current",
			wantGone:    []string{"!."},
			wantPresent: []string{"ref.current"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := StripTypeScript(tc.code)
			for _, s := range tc.wantGone {
				assert.NotContains(t, got, s)
			}
			for _, s := range tc.wantPresent {
				assert.Contains(t, got, s)
			}
		})
	}
}

func TestStripTypeScript_LeavesPlainJSAlone(t *testing.T) {
	code := `const obj = { color: "red", nested: { size: 10 } }
function f(a, b) { return a + b }
const arrow = (x) => x * 2`

	assert.Equal(t, code, StripTypeScript(code))
}
