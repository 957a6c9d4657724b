package source

import (
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/matzehuels/gdsview/pkg/errors"
	gdsio "github.com/matzehuels/gdsview/pkg/io"
)

func readLocal(path string) (*Input, error) {
	if path == "" {
		return nil, errors.New(errors.ErrCodeInvalidPath, "path cannot be empty")
	}
	data, err := os.ReadFile(path)
	if stderrors.Is(err, fs.ErrNotExist) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "layout file %s not found", path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read %s", path)
	}
	return &Input{Name: filepath.Base(path), URI: path, Data: data, Format: gdsio.FormatFromPath(path)}, nil
}
