package io

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/gdsview/pkg/gds"
)

// Format is a layout encoding.
type Format int

const (
	FormatGDS Format = iota
	FormatJSON
	FormatTOML
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatTOML:
		return "toml"
	default:
		return "gds"
	}
}

// FormatFromPath guesses the format from the file extension. Anything that
// is not .json or .toml is treated as a GDSII stream.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".toml":
		return FormatTOML
	default:
		return FormatGDS
	}
}

// Read decodes a library from r in the given format.
func Read(r io.Reader, format Format) (*gds.Library, error) {
	switch format {
	case FormatJSON:
		return ReadJSON(r)
	case FormatTOML:
		return ReadTOML(r)
	default:
		return gds.Decode(r)
	}
}

// ReadFile decodes the layout at path, picking the decoder by extension.
func ReadFile(path string) (*gds.Library, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f, FormatFromPath(path))
}

// ToStream returns data as a GDSII stream. Text documents are decoded and
// re-encoded; GDSII input is returned unchanged.
func ToStream(data []byte, format Format) ([]byte, error) {
	if format == FormatGDS {
		return data, nil
	}
	lib, err := Read(bytes.NewReader(data), format)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := gds.Encode(&buf, lib); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile encodes lib to path, picking the encoder by extension.
func WriteFile(lib *gds.Library, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	switch FormatFromPath(path) {
	case FormatJSON:
		err = WriteJSON(lib, f)
	case FormatTOML:
		err = WriteTOML(lib, f)
	default:
		err = gds.Encode(f, lib)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}
