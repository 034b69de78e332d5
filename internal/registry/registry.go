// Package registry decides how scanned import specifiers map to installable
// and CDN-resolvable packages.
//
// The scanner stays pure (it reports every specifier it sees); this package
// owns the policy: collapsing subpaths to package names, excluding relative
// and framework-intrinsic specifiers, and answering whether a package can
// be loaded from an ES-module CDN without a local install step.
package registry

import "strings"

// knownCDNPackages are packages with a known-good ESM CDN build. The list
// is curated, not exhaustive: it covers the dependency surface the vault's
// users actually paste. Anything absent is treated as resolvable unless it
// appears in unresolvablePackages, since the CDN transpiles most of npm.
var knownCDNPackages = map[string]bool{
	"axios":                 true,
	"classnames":            true,
	"clsx":                  true,
	"d3":                    true,
	"date-fns":              true,
	"dayjs":                 true,
	"framer-motion":         true,
	"immer":                 true,
	"jotai":                 true,
	"lodash":                true,
	"lodash-es":             true,
	"lucide-react":          true,
	"nanoid":                true,
	"ramda":                 true,
	"react-hook-form":       true,
	"react-icons":           true,
	"recharts":              true,
	"rxjs":                  true,
	"swr":                   true,
	"tailwind-merge":        true,
	"three":                 true,
	"uuid":                  true,
	"zod":                   true,
	"zustand":               true,
	"@radix-ui/colors":      true,
	"@tanstack/react-query": true,
}

// unresolvablePackages have no usable CDN build: native addons, Node-only
// runtimes, or packages that require a build/install step. Importing one of
// these disables the preview with a diagnostic instead of a runtime crash.
var unresolvablePackages = map[string]bool{
	"bcrypt":         true,
	"canvas":         true,
	"electron":       true,
	"esbuild":        true,
	"fsevents":       true,
	"next":           true,
	"node-gyp":       true,
	"playwright":     true,
	"prisma":         true,
	"@prisma/client": true,
	"puppeteer":      true,
	"sharp":          true,
	"sqlite3":        true,
	"better-sqlite3": true,
}

// nodeBuiltins are Node core modules; they never exist in a browser and a
// "node:" prefix or bare builtin import marks the code as non-previewable.
var nodeBuiltins = map[string]bool{
	"assert": true, "buffer": true, "child_process": true, "crypto": true,
	"events": true, "fs": true, "http": true, "https": true, "net": true,
	"os": true, "path": true, "process": true, "stream": true, "url": true,
	"util": true, "worker_threads": true, "zlib": true,
}

// intrinsicPackages are supplied by the preview runtime itself and must
// never be treated as external dependencies: the synthesizer pins them to
// a single shared instance.
var intrinsicPackages = map[string]bool{
	"react":     true,
	"react-dom": true,
	"vue":       true,
}

// IsRelative reports whether the specifier is a relative or absolute path
// rather than a package name.
func IsRelative(spec string) bool {
	return strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../") ||
		strings.HasPrefix(spec, "/") || spec == "." || spec == ".."
}

// IsIntrinsic reports whether the specifier resolves to a package the
// runtime provides itself (react, react-dom, vue, and next/* subpaths).
func IsIntrinsic(spec string) bool {
	pkg := Collapse(spec)
	return intrinsicPackages[pkg] || pkg == "next"
}

// Collapse reduces an import specifier to its npm package name:
// "@scope/pkg/sub" -> "@scope/pkg", "lodash/debounce" -> "lodash".
// Relative specifiers are returned unchanged.
func Collapse(spec string) string {
	if IsRelative(spec) || spec == "" {
		return spec
	}
	spec = strings.TrimPrefix(spec, "node:")
	parts := strings.Split(spec, "/")
	if strings.HasPrefix(spec, "@") {
		if len(parts) >= 2 {
			return parts[0] + "/" + parts[1]
		}
		return spec
	}
	return parts[0]
}

// IsResolvable reports whether a collapsed package name can be loaded from
// the ES-module CDN at runtime. Unknown packages default to resolvable —
// the CDN serves most of npm — so only the explicit deny lists block a
// preview.
func IsResolvable(pkg string) bool {
	if pkg == "" || IsRelative(pkg) {
		return false
	}
	if unresolvablePackages[pkg] || nodeBuiltins[pkg] {
		return false
	}
	return true
}

// IsKnown reports whether the package is on the curated known-good list.
// The synthesizer uses this to distinguish "confidently resolved" from
// "auto-detected, best guess" packages in its advisory output.
func IsKnown(pkg string) bool {
	return knownCDNPackages[pkg]
}

// ExternalPackages scans nothing itself; it applies policy to a raw
// specifier list: relative and intrinsic specifiers are dropped, subpaths
// collapse to package names, duplicates are removed, first-seen order is
// preserved.
func ExternalPackages(specs []string) []string {
	seen := make(map[string]bool, len(specs))
	pkgs := make([]string, 0, len(specs))
	for _, spec := range specs {
		if IsRelative(spec) {
			continue
		}
		pkg := Collapse(spec)
		if pkg == "" || IsIntrinsic(pkg) || seen[pkg] {
			continue
		}
		seen[pkg] = true
		pkgs = append(pkgs, pkg)
	}
	return pkgs
}

// InstallCommand renders the npm install line for the external packages of
// a component, for the optional in-browser terminal helper. Empty input
// yields an empty string, not a bare "npm install".
func InstallCommand(pkgs []string) string {
	if len(pkgs) == 0 {
		return ""
	}
	return "npm install " + strings.Join(pkgs, " ")
}
