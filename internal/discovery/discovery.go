// Package discovery finds test scripts on disk and turns each loaded script
// into a composite test tree.
package discovery

import (
	"context"
	"io"

	"github.com/charmbracelet/log"

	"jsunit/internal/domain"
	"jsunit/internal/script"
	"jsunit/internal/suite"
)

// Discoverer loads a test file and builds its tree
type Discoverer struct {
	loader  script.Loader
	builder *Builder
	logger  *log.Logger
}

// NewDiscoverer creates a new Discoverer
func NewDiscoverer(loader script.Loader, builder *Builder, logger *log.Logger) *Discoverer {
	if logger == nil {
		logger = log.Default()
	}
	return &Discoverer{loader: loader, builder: builder, logger: logger}
}

// Discover loads path and returns its test tree. The tree is never empty: a
// load error becomes a diagnostic at the root, followed by whatever the file
// defined before failing, and a file without tests gets a "No tests found"
// diagnostic. Script print output goes to stdout.
func (d *Discoverer) Discover(ctx context.Context, path string, stdout io.Writer) *suite.Composite {
	root := suite.NewComposite(path)

	ns, err := d.loader.Load(ctx, path, stdout)
	if err != nil {
		d.logger.Warn("script failed to load", "path", path, "err", err)
		root.Add(suite.Warning(path, err.Error()))
	}
	if ns != nil {
		d.builder.Populate(root, ns)
	}
	if root.CountTestCases() == 0 {
		root.Add(suite.Warning(path, "No tests found in "+path))
	}
	return root
}

// Cases lists the tests of a discovered tree.
func Cases(root *suite.Composite, filePath string) []domain.TestCase {
	var cases []domain.TestCase
	for _, l := range suite.Leaves(root) {
		cases = append(cases, domain.TestCase{Name: l.Name(), Suite: l.Suite(), FilePath: filePath})
	}
	return cases
}
