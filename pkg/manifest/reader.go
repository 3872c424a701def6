package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/NullVoxPopuli/dep-hellp/pkg/errors"
)

// Reader loads a manifest from storage.
type Reader interface {
	// Read loads and decodes the manifest at path. It fails with an
	// ErrCodeFileNotFound or ErrCodeInvalidManifest error.
	Read(path string) (*Manifest, error)
}

// ReaderFunc adapts a function to the Reader interface.
type ReaderFunc func(path string) (*Manifest, error)

// Read calls f(path).
func (f ReaderFunc) Read(path string) (*Manifest, error) { return f(path) }

// FileReader reads manifests from the local filesystem.
type FileReader struct{}

// Read implements Reader.
func (FileReader) Read(path string) (*Manifest, error) { return Read(path) }

// Read loads the manifest at path from disk.
func Read(path string) (*Manifest, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "resolve %s", path)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "read %s", abs)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "read %s", abs)
	}

	m, err := Parse(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "parse %s", abs)
	}
	m.Path = abs
	return m, nil
}

// Parse decodes manifest bytes. The returned manifest has no Path.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Exists reports whether dir contains a package.json.
func Exists(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, FileName))
	return err == nil && info.Mode().IsRegular()
}
