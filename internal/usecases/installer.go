package usecases

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/MyCarrier-DevOps/icdump-build/internal/domain"
)

// ArtifactInstaller copies the compiled library into the packaging layout.
type ArtifactInstaller struct {
	fs     afero.Fs
	logger Logger
}

// NewArtifactInstaller creates an ArtifactInstaller.
func NewArtifactInstaller(fs afero.Fs, log Logger) *ArtifactInstaller {
	return &ArtifactInstaller{
		fs:     fs,
		logger: log,
	}
}

// ArtifactPaths returns where the compiled library is expected and where it is installed.
// The source file is the package name plus the suffix of the packaging layer's
// target file name, e.g. icdump.cpython-312-x86_64-linux-gnu.so -> icdump.so.
func ArtifactPaths(cfg domain.BuildConfiguration) (src, dst string) {
	name := cfg.ExtensionFilename
	suffix := name[strings.LastIndex(name, ".")+1:]

	src = filepath.Join(cfg.LibraryOutputDir(), domain.PackageName+"."+suffix)
	dst = filepath.Join(cfg.BuildLib, name)
	return src, dst
}

// Install copies the artifact produced by a successful build and returns the destination.
// The copy is written to a temporary file next to the destination and renamed
// into place, so the destination is either the previous file or the complete new one.
// Dry runs never reach the installer; callers report the planned path from ArtifactPaths.
func (i *ArtifactInstaller) Install(ctx context.Context, cfg domain.BuildConfiguration) (string, error) {
	src, dst := ArtifactPaths(cfg)

	info, err := i.fs.Stat(src)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", domain.ErrArtifactMissing, src)
		}
		return "", fmt.Errorf("failed to stat artifact %s: %w", src, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", domain.ErrArtifactMissing, src)
	}

	i.logger.Info(ctx, "installing artifact", map[string]interface{}{
		"source":      src,
		"destination": dst,
		"size":        info.Size(),
	})

	if err := i.fs.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := i.copyAtomic(src, dst, info); err != nil {
		return "", err
	}

	return dst, nil
}

func (i *ArtifactInstaller) copyAtomic(src, dst string, info os.FileInfo) (err error) {
	in, err := i.fs.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open artifact: %w", err)
	}
	defer in.Close()

	tmp, err := afero.TempFile(i.fs, filepath.Dir(dst), "."+filepath.Base(dst)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = i.fs.Remove(tmpName)
		}
	}()

	if _, err = io.Copy(tmp, in); err != nil {
		return fmt.Errorf("failed to copy artifact: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync artifact: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close artifact: %w", err)
	}
	if err = i.fs.Chmod(tmpName, info.Mode().Perm()); err != nil {
		return fmt.Errorf("failed to set artifact mode: %w", err)
	}
	if err = i.fs.Chtimes(tmpName, info.ModTime(), info.ModTime()); err != nil {
		return fmt.Errorf("failed to set artifact times: %w", err)
	}
	if err = i.fs.Rename(tmpName, dst); err != nil {
		return fmt.Errorf("failed to move artifact into place: %w", err)
	}
	return nil
}
