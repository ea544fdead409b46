// Package main is the entry point for the icdump-build CLI application.
// icdump-build compiles the icdump native extension with CMake and labels
// each build with a version derived from the repository state.
package main

import (
	"fmt"
	"os"
	"sync"

	"github.com/MyCarrier-DevOps/goLibMyCarrier/logger"
	"github.com/spf13/afero"

	"github.com/MyCarrier-DevOps/icdump-build/cmd"
	"github.com/MyCarrier-DevOps/icdump-build/internal/adapters/git"
	logadapter "github.com/MyCarrier-DevOps/icdump-build/internal/adapters/logger"
	"github.com/MyCarrier-DevOps/icdump-build/internal/adapters/manifest"
	"github.com/MyCarrier-DevOps/icdump-build/internal/adapters/output"
	"github.com/MyCarrier-DevOps/icdump-build/internal/adapters/pkginfo"
	"github.com/MyCarrier-DevOps/icdump-build/internal/adapters/process"
	"github.com/MyCarrier-DevOps/icdump-build/internal/domain"
	"github.com/MyCarrier-DevOps/icdump-build/internal/infrastructure/config"
	"github.com/MyCarrier-DevOps/icdump-build/internal/usecases"
)

func main() {
	// The shared logger is created on first use, after --verbose has been applied.
	adapter := lazyAdapter(func() logadapter.Logger {
		return logger.NewZapLoggerFromConfig()
	})

	fs := afero.NewOsFs()
	runner := process.NewExecRunner()

	// Wire up production dependencies
	deps := &cmd.Dependencies{
		LoggerFactory: func() cmd.Logger {
			return adapter()
		},

		ConfigLoader: func() (*cmd.AppConfig, error) {
			cfg, err := config.Load()
			if err != nil {
				return nil, err
			}
			return toAppConfig(cfg), nil
		},

		VCSFactory: func(backend, path string, _ cmd.Logger) (domain.Repository, error) {
			return openRepository(fs, runner, backend, path, adapter().WithComponent("git"))
		},

		MetadataFactory: func(dir string) domain.PackageMetadata {
			return pkginfo.NewReader(fs, dir)
		},

		ResolverFactory: func(
			vcs domain.VersionControl,
			meta domain.PackageMetadata,
			_ cmd.Logger,
		) domain.VersionResolver {
			return usecases.NewDefaultResolver(vcs, meta, adapter().WithComponent("version"))
		},

		OrchestratorFactory: func(_ cmd.Logger) domain.Orchestrator {
			return usecases.NewBuildOrchestrator(runner, fs, adapter().WithComponent("cmake"))
		},

		InstallerFactory: func(_ cmd.Logger) domain.Installer {
			return usecases.NewArtifactInstaller(fs, adapter().WithComponent("install"))
		},

		ManifestWriterFactory: func() domain.ManifestWriter {
			return manifest.NewWriter(fs)
		},

		OutputWriterFactory: func() domain.OutputWriter {
			return output.NewWriter()
		},

		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}

	cmd.SetDefaultDependencies(deps)
	cmd.Execute()
}

// lazyAdapter returns a function that builds the shared logger once, on its first call.
// The logger reads LOG_LEVEL and LOG_APP_NAME when it is built, so the first call
// must come after command-line flags have been applied to the environment.
func lazyAdapter(build func() logadapter.Logger) func() *logadapter.ZapAdapter {
	var (
		once    sync.Once
		adapter *logadapter.ZapAdapter
	)
	return func() *logadapter.ZapAdapter {
		once.Do(func() {
			if os.Getenv(config.EnvLogAppName) == "" {
				// Best-effort: the logger falls back to its own default name.
				_ = os.Setenv(config.EnvLogAppName, config.DefaultLogAppName)
			}
			adapter = logadapter.NewZapAdapter(build())
		})
		return adapter
	}
}

func toAppConfig(cfg *config.Config) *cmd.AppConfig {
	return &cmd.AppConfig{
		Toolchain:  cfg.Toolchain,
		VCS:        cfg.VCS,
		LogLevel:   cfg.LogLevel,
		LogAppName: cfg.LogAppName,
	}
}

// openRepository opens path with the named backend: go-git in process, or the
// git binary through the process runner.
func openRepository(
	fs afero.Fs,
	runner domain.ProcessRunner,
	backend, path string,
	log *logadapter.ZapAdapter,
) (domain.Repository, error) {
	name, err := config.ParseVCS(backend)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}

	if name == config.VCSGit {
		repo, err := git.NewCLIRepository(fs, runner, path, log)
		if err != nil {
			return nil, err
		}
		return repo, nil
	}

	repo, err := git.NewGoGitRepository(path, log)
	if err != nil {
		return nil, err
	}
	return repo, nil
}
