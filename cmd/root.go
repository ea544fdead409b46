// Package cmd provides the CLI commands for icdump-build.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/MyCarrier-DevOps/icdump-build/internal/domain"
)

// Logger defines the logging interface used by the commands.
type Logger interface {
	Info(ctx context.Context, msg string, fields map[string]interface{})
	Debug(ctx context.Context, msg string, fields map[string]interface{})
	Warn(ctx context.Context, msg string, fields map[string]interface{})
	Error(ctx context.Context, msg string, err error, fields map[string]interface{})
}

// Dependencies holds all injectable dependencies for the commands.
// This enables testing by allowing mock implementations to be injected.
type Dependencies struct {
	// LoggerFactory creates a logger instance.
	LoggerFactory func() Logger

	// ConfigLoader loads application configuration.
	ConfigLoader func() (*AppConfig, error)

	// VCSFactory opens the repository at path with the named backend.
	// It returns an error wrapping domain.ErrRepositoryNotFound when path is not
	// a repository, and one wrapping domain.ErrConfiguration for an unknown backend.
	VCSFactory func(backend, path string, log Logger) (domain.Repository, error)

	// MetadataFactory creates a reader for the package metadata under dir.
	MetadataFactory func(dir string) domain.PackageMetadata

	// ResolverFactory creates a VersionResolver. vcs is nil when no repository is available.
	ResolverFactory func(vcs domain.VersionControl, meta domain.PackageMetadata, log Logger) domain.VersionResolver

	// OrchestratorFactory creates the build orchestrator.
	OrchestratorFactory func(log Logger) domain.Orchestrator

	// InstallerFactory creates the artifact installer.
	InstallerFactory func(log Logger) domain.Installer

	// ManifestWriterFactory creates the build manifest writer.
	ManifestWriterFactory func() domain.ManifestWriter

	// OutputWriterFactory creates an OutputWriter.
	OutputWriterFactory func() domain.OutputWriter

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time

	// Stdout is the writer for standard output.
	Stdout io.Writer

	// Stderr is the writer for standard error (for warnings/errors).
	Stderr io.Writer
}

// AppConfig holds application configuration loaded by ConfigLoader.
type AppConfig struct {
	// Toolchain holds the compiler overrides from the environment.
	Toolchain domain.ToolchainOverrides

	// VCS is the default repository backend.
	VCS string

	// LogLevel is the log level setting.
	LogLevel string

	// LogAppName is the application name for logging.
	LogAppName string
}

// Command-line flags shared by every subcommand.
var verbose bool

// defaultDeps holds the production dependencies.
// This is set by the production wiring in main or via SetDefaultDependencies.
var defaultDeps *Dependencies

// SetDefaultDependencies sets the default dependencies for production use.
// This should be called from main() before Execute().
func SetDefaultDependencies(deps *Dependencies) {
	defaultDeps = deps
}

// NewRootCmd creates the root command for icdump-build.
func NewRootCmd() *cobra.Command {
	return NewRootCmdWithDeps(defaultDeps)
}

// NewRootCmdWithDeps creates the root command with explicit dependencies.
// This is the primary constructor that enables testing via dependency injection.
func NewRootCmdWithDeps(deps *Dependencies) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "icdump-build",
		Short: "Build the icdump native extension and derive its version",
		Long: `icdump-build compiles the icdump native extension against an LLVM and a
LIEF installation with CMake, then installs the compiled library into the
packaging layout.

Every build is labelled with a version derived from the repository: a
release-<version> branch, the tag on HEAD, or the next minor release with a
.dev0 suffix. Without a repository the installed package metadata or a
built-in fallback is used.

Compiler selection follows the CC, CXX, CFLAGS and CXXFLAGS environment
variables.

Examples:
  # Build against local installations
  icdump-build build --llvm-dir=/opt/llvm/lib/cmake/llvm --lief-dir=/opt/lief/share/LIEF/cmake

  # Use Ninja and keep debug info
  icdump-build build --llvm-dir=... --lief-dir=... --ninja --debug

  # Print the version only
  icdump-build version`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable verbose/debug logging")

	rootCmd.AddCommand(newBuildCmd(deps))
	rootCmd.AddCommand(newVersionCmd(deps))

	return rootCmd
}

// Execute runs the root command.
func Execute() {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// session holds what every subcommand sets up before doing its work.
type session struct {
	ctx    context.Context
	deps   *Dependencies
	log    Logger
	cfg    *AppConfig
	stderr io.Writer
}

// newSession applies the verbose flag, creates the logger and loads configuration.
func newSession(cmd *cobra.Command, deps *Dependencies) (*session, error) {
	if deps == nil {
		return nil, errors.New("dependencies not configured")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	stderr := deps.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	// Set log level based on verbose flag (best-effort)
	if verbose {
		if err := os.Setenv("LOG_LEVEL", "debug"); err != nil {
			writeWarningf(stderr, "warning: could not set log level: %v\n", err)
		}
	}

	log := deps.LoggerFactory()

	cfg, err := deps.ConfigLoader()
	if err != nil {
		log.Error(ctx, "failed to load configuration", err, nil)
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	return &session{
		ctx:    ctx,
		deps:   deps,
		log:    log,
		cfg:    cfg,
		stderr: stderr,
	}, nil
}

// resolveVersion opens the repository at sourceDir, if there is one, and runs
// the version resolver. backend overrides the configured VCS backend when set.
func (s *session) resolveVersion(sourceDir, packageDir, backend string) (*domain.ResolvedVersion, error) {
	if backend == "" {
		backend = s.cfg.VCS
	}
	if packageDir == "" {
		packageDir = sourceDir
	}

	var vcs domain.VersionControl
	repo, err := s.deps.VCSFactory(backend, sourceDir, s.log)
	switch {
	case err == nil:
		vcs = repo
		defer func() {
			if closeErr := repo.Close(); closeErr != nil {
				s.log.Warn(s.ctx, "failed to close repository", map[string]interface{}{
					"error": closeErr.Error(),
				})
			}
		}()
	case errors.Is(err, domain.ErrConfiguration):
		return nil, err
	case errors.Is(err, domain.ErrRepositoryNotFound):
		s.log.Debug(s.ctx, "no repository found; skipping VCS version sources", map[string]interface{}{
			"path": sourceDir,
		})
	default:
		s.log.Warn(s.ctx, "failed to open repository; skipping VCS version sources", map[string]interface{}{
			"path":  sourceDir,
			"error": err.Error(),
		})
	}

	resolver := s.deps.ResolverFactory(vcs, s.deps.MetadataFactory(packageDir), s.log)
	version, err := resolver.Resolve(s.ctx)
	if err != nil {
		s.log.Error(s.ctx, "failed to resolve version", err, nil)
		return nil, fmt.Errorf("version error: %w", err)
	}
	return version, nil
}

// writeWarningf writes a warning message to the given writer.
// This is a best-effort operation; errors are intentionally ignored
// because there is no recovery action if stderr writes fail.
func writeWarningf(w io.Writer, format string, args ...any) {
	_, err := fmt.Fprintf(w, format, args...)
	if err != nil {
		// Intentionally ignored: no recovery action for failed stderr writes
		return
	}
}
