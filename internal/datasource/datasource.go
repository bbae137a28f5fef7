// Package datasource defines where the scraped page comes from: the live site
// over HTTP (httpds) or a saved snapshot on disk (file).
package datasource

import (
	"context"
	"io"
)

// Source opens the page body. The caller closes the returned reader.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	// Describe names the source for logs ("https://...", "file:page.html").
	Describe() string
}
