package main

import (
	"context"
	"os"
	"testing"

	gogit "github.com/go-git/go-git/v5"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	logadapter "github.com/MyCarrier-DevOps/icdump-build/internal/adapters/logger"
	"github.com/MyCarrier-DevOps/icdump-build/internal/adapters/process"
	"github.com/MyCarrier-DevOps/icdump-build/internal/domain"
	"github.com/MyCarrier-DevOps/icdump-build/internal/infrastructure/config"
)

type nopLogger struct{}

func (nopLogger) Info(_ context.Context, _ string, _ map[string]any)           {}
func (nopLogger) Debug(_ context.Context, _ string, _ map[string]any)          {}
func (nopLogger) Warn(_ context.Context, _ string, _ map[string]any)           {}
func (nopLogger) Error(_ context.Context, _ string, _ error, _ map[string]any) {}

func testAdapter() *logadapter.ZapAdapter {
	return logadapter.NewZapAdapter(nopLogger{}).WithComponent("git")
}

func TestToAppConfig(t *testing.T) {
	cfg := &config.Config{
		Toolchain:  domain.ToolchainOverrides{CC: "gcc-13", CFlags: "-O3"},
		LogLevel:   "debug",
		LogAppName: "icdump-build",
		VCS:        config.VCSGit,
	}

	got := toAppConfig(cfg)

	assert.Equal(t, cfg.Toolchain, got.Toolchain)
	assert.Equal(t, "debug", got.LogLevel)
	assert.Equal(t, "icdump-build", got.LogAppName)
	assert.Equal(t, config.VCSGit, got.VCS)
}

func TestOpenRepository_InvalidBackend(t *testing.T) {
	_, err := openRepository(afero.NewMemMapFs(), process.NewExecRunner(), "svn", t.TempDir(), testAdapter())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
	assert.ErrorIs(t, err, config.ErrInvalidVCS)
}

func TestOpenRepository_NotARepository(t *testing.T) {
	for _, backend := range []string{config.VCSGoGit, config.VCSGit} {
		t.Run(backend, func(t *testing.T) {
			dir := t.TempDir()

			repo, err := openRepository(afero.NewOsFs(), process.NewExecRunner(), backend, dir, testAdapter())

			require.Error(t, err)
			assert.Nil(t, repo)
			assert.ErrorIs(t, err, domain.ErrRepositoryNotFound)
		})
	}
}

func TestOpenRepository_Backends(t *testing.T) {
	dir := t.TempDir()
	_, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)

	for _, backend := range []string{config.VCSGoGit, config.VCSGit} {
		t.Run(backend, func(t *testing.T) {
			repo, err := openRepository(afero.NewOsFs(), process.NewExecRunner(), backend, dir, testAdapter())

			require.NoError(t, err)
			require.NotNil(t, repo)
			assert.NoError(t, repo.Close())
		})
	}
}

func TestLazyAdapter_BuildsOnceAfterEnvironment(t *testing.T) {
	t.Setenv("LOG_LEVEL", "info")
	t.Setenv(config.EnvLogAppName, "")

	var builds int
	var levelAtBuild string
	adapter := lazyAdapter(func() logadapter.Logger {
		builds++
		levelAtBuild = os.Getenv("LOG_LEVEL")
		return nopLogger{}
	})
	assert.Zero(t, builds, "logger must not be built before first use")

	// --verbose is applied between wiring and the first log call.
	t.Setenv("LOG_LEVEL", "debug")

	first := adapter()
	second := adapter()

	assert.Equal(t, 1, builds)
	assert.Same(t, first, second)
	assert.Equal(t, "debug", levelAtBuild)
	assert.Equal(t, config.DefaultLogAppName, os.Getenv(config.EnvLogAppName))
}

func TestLazyAdapter_KeepsConfiguredAppName(t *testing.T) {
	t.Setenv(config.EnvLogAppName, "ci-icdump")

	adapter := lazyAdapter(func() logadapter.Logger { return nopLogger{} })
	require.NotNil(t, adapter())

	assert.Equal(t, "ci-icdump", os.Getenv(config.EnvLogAppName))
}
