package io

import (
	"fmt"
	"io"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/gdsview/pkg/gds"
)

// WriteTOML encodes lib as a TOML document.
func WriteTOML(lib *gds.Library, w io.Writer) error {
	if err := toml.NewEncoder(w).Encode(fromLibrary(lib)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadTOML decodes a TOML document from r. Keys that map to no field are
// reported as an error.
func ReadTOML(r io.Reader) (*gds.Library, error) {
	var doc document
	md, err := toml.NewDecoder(r).Decode(&doc)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%w: unknown keys %s", ErrInvalidDocument, strings.Join(keys, ", "))
	}
	return doc.library()
}
