package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"jsunit/internal/domain"
)

// FileScanner finds test scripts under a directory
type FileScanner struct {
	skipDirs map[string]bool
	supports func(path string) bool
}

// NewFileScanner creates a FileScanner that skips the given directory names
// and keeps files accepted by supports (usually the loader registry).
func NewFileScanner(skipDirs []string, supports func(path string) bool) *FileScanner {
	skipMap := make(map[string]bool)
	for _, dir := range skipDirs {
		skipMap[dir] = true
	}
	return &FileScanner{skipDirs: skipMap, supports: supports}
}

// IsTestFile reports whether path names a test script: a supported
// extension and a base name ending in "test", in any case
// (calc_test.js, calcTest.js, CalcTest.star).
func (s *FileScanner) IsTestFile(path string) bool {
	if !s.supports(path) {
		return false
	}
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return strings.HasSuffix(strings.ToLower(stem), "test")
}

// Scan finds all test scripts under root. A root naming a single file is
// returned as is when it is supported.
func (s *FileScanner) Scan(root string) ([]string, error) {
	var testFiles []string

	root = filepath.Clean(root)
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("test path does not exist: %s", root)
	}
	if !info.IsDir() {
		if !s.supports(root) {
			return nil, fmt.Errorf("no script engine for test path: %s", root)
		}
		return []string{root}, nil
	}

	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			name := d.Name()
			// Skip hidden directories, but not the root itself
			if path != root && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			if s.skipDirs[name] {
				return filepath.SkipDir
			}
			return nil
		}

		if s.IsTestFile(path) {
			testFiles = append(testFiles, path)
		}
		return nil
	})

	return testFiles, err
}

// NewTestFile describes the script at path. Its report name is the path
// relative to baseDir without extension, dot separated and prefixed with
// "jsunit.".
func NewTestFile(baseDir, path string) domain.TestFile {
	rel := path
	if baseDir != "" {
		if r, err := filepath.Rel(baseDir, path); err == nil && !strings.HasPrefix(r, "..") {
			rel = r
		}
	}
	rel = filepath.ToSlash(rel)

	name := strings.TrimSuffix(rel, filepath.Ext(rel))
	name = strings.TrimPrefix(name, "/")
	return domain.TestFile{
		Path:     path,
		FilePath: rel,
		FileName: filepath.Base(path),
		Name:     "jsunit." + strings.ReplaceAll(name, "/", "."),
	}
}
