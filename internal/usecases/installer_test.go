package usecases

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MyCarrier-DevOps/icdump-build/internal/domain"
)

func installConfig(root string) domain.BuildConfiguration {
	return domain.BuildConfiguration{
		BuildTemp:         filepath.Join(root, "build", "temp"),
		BuildLib:          filepath.Join(root, "build", "lib"),
		ExtensionFilename: "icdump.cpython-312-x86_64-linux-gnu.so",
	}
}

func TestArtifactPaths(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		wantSrc  string
		wantDst  string
	}{
		{
			name:     "cpython linux extension",
			filename: "icdump.cpython-312-x86_64-linux-gnu.so",
			wantSrc:  "/w/build/icdump.so",
			wantDst:  "/w/build/lib/icdump.cpython-312-x86_64-linux-gnu.so",
		},
		{
			name:     "windows extension",
			filename: "icdump.cp312-win_amd64.pyd",
			wantSrc:  "/w/build/icdump.pyd",
			wantDst:  "/w/build/lib/icdump.cp312-win_amd64.pyd",
		},
		{
			name:     "plain name",
			filename: "icdump.so",
			wantSrc:  "/w/build/icdump.so",
			wantDst:  "/w/build/lib/icdump.so",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := installConfig("/w")
			cfg.ExtensionFilename = tt.filename

			src, dst := ArtifactPaths(cfg)

			assert.Equal(t, tt.wantSrc, src)
			assert.Equal(t, tt.wantDst, dst)
		})
	}
}

func TestArtifactInstaller_Install(t *testing.T) {
	root := t.TempDir()
	fs := afero.NewOsFs()
	cfg := installConfig(root)
	src, dst := ArtifactPaths(cfg)

	require.NoError(t, os.MkdirAll(filepath.Dir(src), 0o755))
	require.NoError(t, os.WriteFile(src, []byte("\x7fELF native library"), 0o755))
	mtime := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(src, mtime, mtime))

	installer := NewArtifactInstaller(fs, &mockLogger{})
	got, err := installer.Install(context.Background(), cfg)

	require.NoError(t, err)
	assert.Equal(t, dst, got)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "\x7fELF native library", string(data))

	info, err := os.Stat(dst)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())
	assert.True(t, info.ModTime().Equal(mtime))

	// Only the artifact is left in the output directory.
	entries, err := os.ReadDir(filepath.Dir(dst))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestArtifactInstaller_Install_Overwrites(t *testing.T) {
	root := t.TempDir()
	cfg := installConfig(root)
	src, dst := ArtifactPaths(cfg)

	require.NoError(t, os.MkdirAll(filepath.Dir(src), 0o755))
	require.NoError(t, os.WriteFile(src, []byte("new build"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Dir(dst), 0o755))
	require.NoError(t, os.WriteFile(dst, []byte("previous build with more bytes"), 0o644))

	installer := NewArtifactInstaller(afero.NewOsFs(), &mockLogger{})
	_, err := installer.Install(context.Background(), cfg)

	require.NoError(t, err)
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "new build", string(data))
}

func TestArtifactInstaller_Install_MissingArtifact(t *testing.T) {
	fs := afero.NewMemMapFs()
	cfg := installConfig("/w")
	_, dst := ArtifactPaths(cfg)

	installer := NewArtifactInstaller(fs, &mockLogger{})
	got, err := installer.Install(context.Background(), cfg)

	require.Error(t, err)
	assert.Empty(t, got)
	assert.ErrorIs(t, err, domain.ErrArtifactMissing)
	assert.Contains(t, err.Error(), "icdump.so")

	exists, err := afero.Exists(fs, dst)
	require.NoError(t, err)
	assert.False(t, exists)
}

// failingReadFs returns files whose reads fail after the first chunk.
type failingReadFs struct {
	afero.Fs
	failPath string
}

func (f *failingReadFs) Open(name string) (afero.File, error) {
	file, err := f.Fs.Open(name)
	if err != nil || name != f.failPath {
		return file, err
	}
	return &failingFile{File: file}, nil
}

type failingFile struct {
	afero.File
	read bool
}

func (f *failingFile) Read(p []byte) (int, error) {
	if f.read {
		return 0, errors.New("input/output error")
	}
	f.read = true
	n := copy(p, "partial")
	return n, nil
}

func TestArtifactInstaller_Install_InterruptedCopy(t *testing.T) {
	mem := afero.NewMemMapFs()
	cfg := installConfig("/w")
	src, dst := ArtifactPaths(cfg)
	require.NoError(t, afero.WriteFile(mem, src, []byte("complete library contents"), 0o644))
	require.NoError(t, afero.WriteFile(mem, dst, []byte("previous"), 0o644))

	fs := &failingReadFs{Fs: mem, failPath: src}
	installer := NewArtifactInstaller(fs, &mockLogger{})

	_, err := installer.Install(context.Background(), cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to copy artifact")

	// The previous artifact is untouched and no temporary file remains.
	data, err := afero.ReadFile(mem, dst)
	require.NoError(t, err)
	assert.Equal(t, "previous", string(data))

	entries, err := afero.ReadDir(mem, filepath.Dir(dst))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestArtifactInstaller_Install_InterruptedCopyNoPrevious(t *testing.T) {
	mem := afero.NewMemMapFs()
	cfg := installConfig("/w")
	src, dst := ArtifactPaths(cfg)
	require.NoError(t, afero.WriteFile(mem, src, []byte("complete library contents"), 0o644))

	installer := NewArtifactInstaller(&failingReadFs{Fs: mem, failPath: src}, &mockLogger{})

	_, err := installer.Install(context.Background(), cfg)

	require.Error(t, err)
	exists, err := afero.Exists(mem, dst)
	require.NoError(t, err)
	assert.False(t, exists)
}
