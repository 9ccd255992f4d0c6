package discovery

import (
	"path/filepath"
	"strings"

	"jsunit/internal/domain"
)

// Filter filters test files by name pattern or test selector
type Filter struct {
	exts []string
}

// NewFilter creates a new Filter. exts are the extensions a selector may
// omit, e.g. ".js".
func NewFilter(exts []string) *Filter {
	return &Filter{exts: exts}
}

// FilterByName filters test files by file name using wildcard matching.
// Supports patterns like "*calc_test.js" or "*math*"; a pattern without
// wildcards matches as a substring.
func (f *Filter) FilterByName(tests []domain.TestFile, pattern string) []domain.TestFile {
	if pattern == "" {
		return tests
	}

	var filtered []domain.TestFile
	for _, test := range tests {
		if matchName(test.FileName, pattern) {
			filtered = append(filtered, test)
		}
	}
	return filtered
}

func matchName(name, pattern string) bool {
	if matched, err := filepath.Match(pattern, name); err == nil && matched {
		return true
	}

	if !strings.ContainsAny(pattern, "*?") {
		return strings.Contains(name, pattern)
	}

	// Fall back to matching every literal part in order, for patterns like
	// "*calc*" that filepath.Match rejects on names with separators.
	rest := name
	found := false
	for _, part := range strings.Split(pattern, "*") {
		if part == "" {
			continue
		}
		i := strings.Index(rest, part)
		if i < 0 {
			return false
		}
		rest = rest[i+len(part):]
		found = true
	}
	return found
}

// FilterByTest keeps the files selected by a test selector such as
// "math/calc_test", "math.calc_test.js" or "calc_test". The selector's
// slashes and the file's relative path are both read as dots and the path
// must end with the selector. A selector without a known extension matches
// any of them.
func (f *Filter) FilterByTest(tests []domain.TestFile, selector string) []domain.TestFile {
	if selector == "" {
		return tests
	}

	dotted := func(s string) string {
		return strings.NewReplacer("/", ".", "\\", ".").Replace(s)
	}
	var suffixes []string
	if f.hasExt(selector) {
		suffixes = []string{dotted(selector)}
	} else {
		for _, ext := range f.exts {
			suffixes = append(suffixes, dotted(selector+ext))
		}
	}

	var filtered []domain.TestFile
	for _, test := range tests {
		path := dotted(test.FilePath)
		for _, suffix := range suffixes {
			if path == suffix || strings.HasSuffix(path, "."+suffix) {
				filtered = append(filtered, test)
				break
			}
		}
	}
	return filtered
}

func (f *Filter) hasExt(selector string) bool {
	for _, ext := range f.exts {
		if strings.HasSuffix(selector, ext) {
			return true
		}
	}
	return false
}
