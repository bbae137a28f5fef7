// Package file implements a datasource that reads a saved HTML page from
// local disk, for offline runs and fixtures.
package file

import (
	"context"
	"fmt"
	"io"
	"os"
)

// Local opens one file from the local disk.
type Local struct{ path string }

// NewLocal returns a Local data source bound to path.
func NewLocal(path string) *Local { return &Local{path: path} }

// Describe implements datasource.Source.
func (l *Local) Describe() string { return "file:" + l.path }

// Open returns the file as an io.ReadCloser. A canceled context wins over
// the filesystem; errors wrap the *PathError so errors.Is(err,
// os.ErrNotExist) still works.
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot %s: %w", l.path, err)
	}
	return f, nil
}
