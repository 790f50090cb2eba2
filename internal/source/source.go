// Package source opens raw bidding exports from a local path, an HTTP(S) URL
// or an S3 object, and streams their CSV rows.
package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	xhttp "COEAnalytics/pkg/http"
)

// Opener resolves a URI to a readable stream.
type Opener struct {
	http *xhttp.Client
	s3   S3GetObjectAPI
}

// Option configures Opener.
type Option func(*Opener)

// WithHTTPClient sets the client for http:// and https:// URIs.
func WithHTTPClient(c *xhttp.Client) Option {
	return func(o *Opener) { o.http = c }
}

// WithS3 enables s3:// URIs.
func WithS3(api S3GetObjectAPI) Option {
	return func(o *Opener) { o.s3 = api }
}

func NewOpener(opts ...Option) *Opener {
	o := &Opener{http: xhttp.NewClient()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Open returns the content behind uri. Plain paths and file:// are read from disk.
func (o *Opener) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	switch {
	case strings.HasPrefix(uri, "s3://"):
		if o.s3 == nil {
			return nil, fmt.Errorf("open %s: s3 is not configured", uri)
		}
		return openS3(ctx, o.s3, uri)
	case strings.HasPrefix(uri, "http://"), strings.HasPrefix(uri, "https://"):
		return o.http.Download(ctx, uri)
	default:
		f, err := os.Open(strings.TrimPrefix(uri, "file://"))
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", uri, err)
		}
		return f, nil
	}
}
