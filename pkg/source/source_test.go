package source

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/gdsview/pkg/errors"
	gdsio "github.com/matzehuels/gdsview/pkg/io"
)

func TestParseS3URI(t *testing.T) {
	tests := []struct {
		uri         string
		bucket, key string
		ok          bool
	}{
		{"s3://chips/top.gds", "chips", "top.gds", true},
		{"s3://chips/tapeout/v2/top.gds", "chips", "tapeout/v2/top.gds", true},
		{"s3://chips/", "", "", false},
		{"s3://chips", "", "", false},
		{"s3:///top.gds", "", "", false},
		{"/tmp/top.gds", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			bucket, key, ok := ParseS3URI(tt.uri)
			if bucket != tt.bucket || key != tt.key || ok != tt.ok {
				t.Errorf("ParseS3URI(%q) = %q, %q, %v", tt.uri, bucket, key, ok)
			}
		})
	}
}

func TestOpenLocal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fixture.toml")
	if err := os.WriteFile(path, []byte(`name = "L"`), 0o644); err != nil {
		t.Fatal(err)
	}

	in, err := Open(context.Background(), path, Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if in.Name != "fixture.toml" || in.Format != gdsio.FormatTOML || string(in.Data) != `name = "L"` {
		t.Errorf("Open = %+v", in)
	}

	_, err = Open(context.Background(), filepath.Join(dir, "missing.gds"), Options{})
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing file error = %v, want FILE_NOT_FOUND", err)
	}
	_, err = Open(context.Background(), "https://example.com/top.gds", Options{})
	if !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("https error = %v, want UNSUPPORTED", err)
	}
}

// fakeS3 answers path-style GetObject requests from a map.
type fakeS3 struct {
	objects map[string][]byte
	paths   []string
}

func (f *fakeS3) RoundTrip(req *http.Request) (*http.Response, error) {
	f.paths = append(f.paths, req.URL.Path)
	body, ok := f.objects[strings.TrimPrefix(req.URL.Path, "/")]
	if !ok {
		const notFound = `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`
		return &http.Response{
			StatusCode: http.StatusNotFound,
			Header:     http.Header{"Content-Type": {"application/xml"}},
			Body:       io.NopCloser(strings.NewReader(notFound)),
			Request:    req,
		}, nil
	}
	return &http.Response{
		StatusCode:    http.StatusOK,
		Header:        http.Header{"Content-Type": {"application/octet-stream"}},
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
		Request:       req,
	}, nil
}

func TestOpenS3(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{"chips/tapeout/top.gds": []byte("GDSDATA")}}
	opts := Options{S3: S3Options{
		Region:     "us-east-1",
		Endpoint:   "https://s3.test",
		PathStyle:  true,
		AccessKey:  "AKIA",
		SecretKey:  "SECRET",
		HTTPClient: &http.Client{Transport: fake},
	}}

	in, err := Open(context.Background(), "s3://chips/tapeout/top.gds", opts)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if in.Name != "top.gds" || in.Format != gdsio.FormatGDS || string(in.Data) != "GDSDATA" {
		t.Errorf("Open = %+v", in)
	}
	if len(fake.paths) == 0 || fake.paths[0] != "/chips/tapeout/top.gds" {
		t.Errorf("requested paths = %v", fake.paths)
	}

	_, err = Open(context.Background(), "s3://chips/missing.gds", opts)
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing object error = %v, want FILE_NOT_FOUND", err)
	}

	_, err = Open(context.Background(), "s3://chips/../secrets.gds", opts)
	if !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Errorf("traversal error = %v, want INVALID_PATH", err)
	}
}
