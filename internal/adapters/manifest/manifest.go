// Package manifest records what a build produced.
package manifest

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"

	"github.com/MyCarrier-DevOps/icdump-build/internal/domain"
)

// FileName is the manifest file written into the build directory.
const FileName = "build-info.toml"

// Writer implements domain.ManifestWriter with TOML files.
type Writer struct {
	fs afero.Fs
}

// NewWriter creates a Writer.
func NewWriter(fs afero.Fs) *Writer {
	return &Writer{fs: fs}
}

// Write stores the manifest as dir/build-info.toml and returns the file path.
func (w *Writer) Write(_ context.Context, dir string, m domain.BuildManifest) (string, error) {
	data, err := toml.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("failed to encode build manifest: %w", err)
	}

	if err := w.fs.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create manifest directory: %w", err)
	}

	path := filepath.Join(dir, FileName)
	if err := afero.WriteFile(w.fs, path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write build manifest: %w", err)
	}
	return path, nil
}

// Read loads a manifest written by Write.
func Read(fs afero.Fs, dir string) (*domain.BuildManifest, error) {
	data, err := afero.ReadFile(fs, filepath.Join(dir, FileName))
	if err != nil {
		return nil, fmt.Errorf("failed to read build manifest: %w", err)
	}

	var m domain.BuildManifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode build manifest: %w", err)
	}
	return &m, nil
}
