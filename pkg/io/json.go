package io

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/matzehuels/gdsview/pkg/gds"
)

// WriteJSON encodes lib as an indented JSON document.
func WriteJSON(lib *gds.Library, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(fromLibrary(lib)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadJSON decodes a JSON document from r. Unknown fields are rejected so
// that typos in hand-written fixtures do not pass silently.
func ReadJSON(r io.Reader) (*gds.Library, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var doc document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return doc.library()
}
