// ABOUTME: Path rewriting between absolute and document-relative forms
// ABOUTME: Covers the document directory and its two ancestors

package store

import (
	"path"
	"strings"
)

// relativeFragments are ordered deepest first so "../../../" is expanded
// before its "../" suffix can be
var relativeFragments = []string{"../../../", "../../", "../"}

// ancestorPrefixes returns the document's directory followed by its parent
// and grandparent, each with a trailing slash
func ancestorPrefixes(docPath string) [3]string {
	var prefixes [3]string
	dir := path.Dir(normalizePath(docPath))
	for i := range prefixes {
		prefixes[i] = withSlash(dir)
		dir = path.Dir(dir)
	}
	return prefixes
}

// AbsolutePaths expands "../", "../../" and "../../../" fragments in data
// into absolute paths relative to the directory holding docPath
func AbsolutePaths(data, docPath string) string {
	if !strings.Contains(data, "../") {
		return data
	}
	prefixes := ancestorPrefixes(docPath)
	for i, frag := range relativeFragments {
		data = strings.ReplaceAll(data, frag, prefixes[len(prefixes)-1-i])
	}
	return data
}

// RelativePaths is the inverse of AbsolutePaths. Only quoted strings that
// start with one of the ancestor directories are rewritten, and filesystem
// roots are left alone so unrelated paths are never touched.
func RelativePaths(data, docPath string) string {
	prefixes := ancestorPrefixes(docPath)
	for i, prefix := range prefixes {
		if isRoot(prefix) {
			break
		}
		data = strings.ReplaceAll(data, `"`+prefix, `"`+strings.Repeat("../", i+1))
	}
	return data
}

func withSlash(dir string) string {
	if strings.HasSuffix(dir, "/") {
		return dir
	}
	return dir + "/"
}

// isRoot reports whether prefix is "/" or a volume root such as "C:/"
func isRoot(prefix string) bool {
	trimmed := strings.TrimSuffix(prefix, "/")
	return trimmed == "" || strings.HasSuffix(trimmed, ":") || trimmed == "."
}
