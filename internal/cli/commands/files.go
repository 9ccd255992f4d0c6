package commands

import (
	"path/filepath"

	"jsunit/internal/discovery"
	"jsunit/internal/domain"
)

// testFiles scans the configured paths and applies the name and test
// selector filters. A file reachable from several paths is listed once.
func testFiles(d *Dependencies) ([]domain.TestFile, error) {
	cfg := d.Config
	seen := make(map[string]bool)
	var files []domain.TestFile
	for _, root := range cfg.GetTestPaths() {
		paths, err := d.Scanner.Scan(root)
		if err != nil {
			return nil, err
		}
		for _, p := range paths {
			abs, err := filepath.Abs(p)
			if err != nil {
				abs = p
			}
			if seen[abs] {
				continue
			}
			seen[abs] = true
			files = append(files, discovery.NewTestFile(cfg.ProjectPath, p))
		}
	}

	files = d.Filter.FilterByName(files, cfg.Flags.NameFilter)
	files = d.Filter.FilterByTest(files, cfg.Flags.Test)
	return files, nil
}
