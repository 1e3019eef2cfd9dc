package labels

import (
	"strings"

	"github.com/gobwas/glob"
)

// CompileGlob compiles a name or value pattern. Matching is case sensitive,
// `*` and `?` never cross a `/`, and a leading dot needs no special pattern.
// `**` has no globstar meaning and behaves like `*`.
func CompileGlob(pattern string) (glob.Glob, error) {
	for strings.Contains(pattern, "**") {
		pattern = strings.ReplaceAll(pattern, "**", "*")
	}
	return glob.Compile(pattern, '/')
}

// MatchGlob reports whether s matches pattern. A pattern that does not
// compile only matches itself literally.
func MatchGlob(pattern, s string) bool {
	g, err := CompileGlob(pattern)
	if err != nil {
		return pattern == s
	}
	return g.Match(s)
}
