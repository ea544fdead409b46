// Package pkginfo reads the version recorded in installed package metadata.
package pkginfo

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/textproto"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/MyCarrier-DevOps/icdump-build/internal/domain"
)

// ErrNoVersion indicates the metadata file has no Version field.
var ErrNoVersion = errors.New("package metadata has no Version field")

// Path returns the PKG-INFO location for the package under dir.
func Path(dir string) string {
	return filepath.Join(dir, domain.PackageName+".egg-info", "PKG-INFO")
}

// Reader implements domain.PackageMetadata over a PKG-INFO file.
type Reader struct {
	fs   afero.Fs
	path string
}

// NewReader creates a Reader for the PKG-INFO of the package under dir.
func NewReader(fs afero.Fs, dir string) *Reader {
	return &Reader{fs: fs, path: Path(dir)}
}

// InstalledVersion returns the Version header of the PKG-INFO file.
func (r *Reader) InstalledVersion(_ context.Context) (string, error) {
	f, err := r.fs.Open(r.path)
	if err != nil {
		return "", fmt.Errorf("failed to open package metadata: %w", err)
	}
	defer f.Close()

	// PKG-INFO is an RFC 822 header block; the description body after it is ignored.
	header, err := textproto.NewReader(bufio.NewReader(f)).ReadMIMEHeader()
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to parse package metadata %s: %w", r.path, err)
	}

	version := strings.TrimSpace(header.Get("Version"))
	if version == "" {
		return "", fmt.Errorf("%w: %s", ErrNoVersion, r.path)
	}
	return version, nil
}
