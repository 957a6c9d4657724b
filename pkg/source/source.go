// Package source reads layout files from local paths or S3 URIs.
//
// Open accepts a filesystem path or an s3://bucket/key URI and returns the
// raw bytes together with the encoding guessed from the name. Text layout
// documents (.json, .toml) are reported as such so callers can convert
// them with [gdsio.ToStream] before handing them to the pipeline.
//
// [gdsio.ToStream]: github.com/matzehuels/gdsview/pkg/io.ToStream
package source

import (
	"context"
	"net/http"
	"path"
	"strings"

	"github.com/matzehuels/gdsview/pkg/errors"
	gdsio "github.com/matzehuels/gdsview/pkg/io"
)

// Input is a layout read from a source.
type Input struct {
	Name   string // base name, for display
	URI    string // as given to Open
	Data   []byte
	Format gdsio.Format
}

// S3Options configures access to S3 or an S3-compatible store.
type S3Options struct {
	Region    string
	Endpoint  string // custom endpoint, e.g. a MinIO server
	PathStyle bool

	// Static credentials; when empty the default AWS chain is used.
	AccessKey string
	SecretKey string

	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

// Options configures [Open].
type Options struct {
	S3 S3Options
}

// Open reads the layout named by uri.
func Open(ctx context.Context, uri string, opts Options) (*Input, error) {
	if bucket, key, ok := ParseS3URI(uri); ok {
		if err := errors.ValidatePath(key); err != nil {
			return nil, err
		}
		data, err := readS3(ctx, bucket, key, opts.S3)
		if err != nil {
			return nil, err
		}
		return &Input{Name: path.Base(key), URI: uri, Data: data, Format: gdsio.FormatFromPath(key)}, nil
	}
	if strings.Contains(uri, "://") {
		return nil, errors.New(errors.ErrCodeUnsupported, "unsupported source %q", uri)
	}
	return readLocal(uri)
}

// ParseS3URI splits s3://bucket/key. ok is false for anything else,
// including URIs without a key.
func ParseS3URI(uri string) (bucket, key string, ok bool) {
	rest, found := strings.CutPrefix(uri, "s3://")
	if !found {
		return "", "", false
	}
	bucket, key, found = strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}
