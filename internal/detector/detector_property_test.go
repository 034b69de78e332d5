//go:build property
// +build property

package detector

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestDetectorProperties tests invariant properties of framework detection
func TestDetectorProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	// Property 1: detection is idempotent for any (code, filename) pair.
	// The UI renames files from the detected framework, so a flapping
	// classifier causes an infinite rename loop.
	properties.Property("detection idempotency", prop.ForAll(
		func(code, filename string) bool {
			first := Detect(code, filename)
			for i := 0; i < 5; i++ {
				if Detect(code, filename) != first {
					return false
				}
			}
			return true
		},
		gen.AnyString(),
		gen.AnyString(),
	))

	// Property 2: detection never panics
	properties.Property("detection totality", prop.ForAll(
		func(code, filename string) (result bool) {
			defer func() {
				if r := recover(); r != nil {
					result = false
				}
			}()
			_ = Detect(code, filename)
			return true
		},
		gen.AnyString(),
		gen.AnyString(),
	))

	// Property 3: language derivation always yields a known tag
	properties.Property("language always known", prop.ForAll(
		func(code string) bool {
			fw := Detect(code, "")
			lang := DetectLanguage(code, fw)
			switch lang {
			case "tsx", "jsx", "ts", "js", "vue", "html", "css":
				return true
			}
			return false
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}
