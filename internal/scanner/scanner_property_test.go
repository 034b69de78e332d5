//go:build property
// +build property

package scanner

import (
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestScannerProperties tests invariant properties of the import scanner
func TestScannerProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	// Property 1: scanning never panics, for any input
	properties.Property("scanner totality", prop.ForAll(
		func(code string) (result bool) {
			defer func() {
				if r := recover(); r != nil {
					result = false
				}
			}()
			_ = ScanImports(code)
			return true
		},
		gen.AnyString(),
	))

	// Property 2: scanning is deterministic
	properties.Property("scanner determinism", prop.ForAll(
		func(code string) bool {
			first := ScanImports(code)
			second := ScanImports(code)
			return reflect.DeepEqual(first, second)
		},
		gen.AnyString(),
	))

	// Property 3: a well-formed static import is always found
	properties.Property("well-formed imports recognized", prop.ForAll(
		func(pkg string) bool {
			code := `import thing from "` + pkg + `"`
			specs := ScanImports(code)
			return len(specs) == 1 && specs[0] == pkg
		},
		gen.RegexMatch(`[a-z][a-z0-9-]{0,20}`),
	))

	properties.TestingRun(t)
}
