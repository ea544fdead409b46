package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/MyCarrier-DevOps/icdump-build/internal/domain"
	"github.com/MyCarrier-DevOps/icdump-build/internal/usecases"
)

// buildFlags holds the flags of the build command.
type buildFlags struct {
	llvmDir    string
	liefDir    string
	osxArch    string
	ninja      bool
	debug      bool
	sourceDir  string
	buildTemp  string
	buildLib   string
	python     string
	extName    string
	packageDir string
	vcs        string
	dryRun     bool
}

func newBuildCmd(deps *Dependencies) *cobra.Command {
	flags := &buildFlags{}

	buildCmd := &cobra.Command{
		Use:   "build",
		Short: "Compile the native extension and install it into the packaging layout",
		Long: `build runs the CMake generate and compile phases in the scratch directory,
then copies the compiled library into the output directory under the file
name the packaging layer expects. On success the installed path is printed
on stdout.

Ninja is used when --ninja is given and a working ninja is found on PATH.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBuild(cmd, flags, deps)
		},
	}

	f := buildCmd.Flags()
	f.StringVar(&flags.llvmDir, "llvm-dir", "", "LLVM CMake package directory (required)")
	f.StringVar(&flags.liefDir, "lief-dir", "", "LIEF CMake package directory (required)")
	f.StringVar(&flags.osxArch, "osx-arch", "", "Target architecture when building for macOS")
	f.BoolVar(&flags.ninja, "ninja", false, "Use the Ninja generator when it is available")
	f.BoolVar(&flags.debug, "debug", false, "Build with debug info (RelWithDebInfo)")
	f.StringVar(&flags.sourceDir, "source-dir", usecases.DefaultSourceDir, "Root of the CMake project and repository")
	f.StringVar(&flags.buildTemp, "build-temp", usecases.DefaultBuildTemp, "Scratch directory for the generated build files")
	f.StringVar(&flags.buildLib, "build-lib", usecases.DefaultBuildLib, "Output directory receiving the installed library")
	f.StringVar(&flags.python, "python", "", "Python interpreter forwarded to CMake")
	f.StringVar(&flags.extName, "ext-filename", "", "File name of the installed library (default icdump.so, icdump.pyd on Windows)")
	f.StringVar(&flags.packageDir, "package-dir", "", "Directory holding installed package metadata (default --source-dir)")
	f.StringVar(&flags.vcs, "vcs", "", "Repository backend: go-git or git (default $ICDUMP_VCS or go-git)")
	f.BoolVar(&flags.dryRun, "dry-run", false, "Log the build commands without running them")

	return buildCmd
}

// runBuild validates the options, labels the build, compiles and installs the artifact.
func runBuild(cmd *cobra.Command, flags *buildFlags, deps *Dependencies) error {
	s, err := newSession(cmd, deps)
	if err != nil {
		return err
	}

	cfg, err := usecases.LocateDependencies(domain.BuildOptions{
		LLVMDir:           flags.llvmDir,
		LIEFDir:           flags.liefDir,
		OSXArch:           flags.osxArch,
		Ninja:             flags.ninja,
		Debug:             flags.debug,
		SourceDir:         flags.sourceDir,
		BuildTemp:         flags.buildTemp,
		BuildLib:          flags.buildLib,
		PythonExecutable:  flags.python,
		ExtensionFilename: flags.extName,
		DryRun:            flags.dryRun,
		Toolchain:         s.cfg.Toolchain,
	})
	if err != nil {
		// err is the one-line diagnostic cobra prints; logging it at error level would add a second line.
		s.log.Debug(s.ctx, "invalid build configuration", map[string]interface{}{
			"error": err.Error(),
		})
		return err
	}

	version, err := s.resolveVersion(cfg.SourceDir, flags.packageDir, flags.vcs)
	if err != nil {
		return err
	}

	s.log.Info(s.ctx, "starting icdump build", map[string]interface{}{
		"version":        version.Version,
		"version_source": string(version.Source),
		"profile":        string(cfg.Profile),
		"ninja":          cfg.UseNinja,
		"dry_run":        cfg.DryRun,
	})

	result, err := deps.OrchestratorFactory(s.log).Run(s.ctx, cfg)
	if err != nil {
		s.log.Error(s.ctx, "native build failed", err, nil)
		var phaseErr *domain.PhaseError
		if errors.As(err, &phaseErr) {
			return fmt.Errorf("build failed: %w", err)
		}
		return err
	}

	var artifact string
	if cfg.DryRun {
		_, artifact = usecases.ArtifactPaths(cfg)
	} else {
		artifact, err = deps.InstallerFactory(s.log).Install(s.ctx, cfg)
		if err != nil {
			s.log.Error(s.ctx, "failed to install artifact", err, nil)
			return fmt.Errorf("install failed: %w", err)
		}
		s.writeManifest(cfg, version, result, artifact)
	}

	writer := deps.OutputWriterFactory()
	if err := writer.WriteLine(artifact); err != nil {
		s.log.Error(s.ctx, "failed to write output", err, nil)
		return fmt.Errorf("output error: %w", err)
	}

	s.log.Info(s.ctx, "icdump build complete", map[string]interface{}{
		"version":  version.Version,
		"artifact": artifact,
	})

	return nil
}

// writeManifest records the build next to the build files. Failure only warns.
func (s *session) writeManifest(
	cfg domain.BuildConfiguration,
	version *domain.ResolvedVersion,
	result *domain.BuildResult,
	artifact string,
) {
	now := time.Now
	if s.deps.Now != nil {
		now = s.deps.Now
	}

	path, err := s.deps.ManifestWriterFactory().Write(s.ctx, result.BuildDir, domain.BuildManifest{
		Package:       domain.PackageName,
		Version:       version.Version,
		VersionSource: string(version.Source),
		Profile:       string(cfg.Profile),
		Generator:     result.Generator,
		Artifact:      artifact,
		ConfigureArgs: result.ConfigureArgs,
		BuiltAt:       now().UTC(),
	})
	if err != nil {
		s.log.Warn(s.ctx, "failed to write build manifest", map[string]interface{}{
			"error": err.Error(),
		})
		writeWarningf(s.stderr, "warning: could not write build manifest: %v\n", err)
		return
	}

	s.log.Debug(s.ctx, "build manifest written", map[string]interface{}{
		"path": path,
	})
}
