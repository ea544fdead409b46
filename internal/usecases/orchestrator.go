package usecases

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/MyCarrier-DevOps/icdump-build/internal/domain"
)

// Build tools invoked by the orchestrator.
const (
	CMakeTool = "cmake"
	NinjaTool = "ninja"

	// NinjaGenerator is the CMake generator name for Ninja.
	NinjaGenerator = "Ninja"
)

// Build phases, as reported in domain.PhaseError.
const (
	PhaseGenerate = "generate"
	PhaseCompile  = "compile"
)

// BuildOrchestrator drives the CMake generate and compile phases.
type BuildOrchestrator struct {
	runner domain.ProcessRunner
	fs     afero.Fs
	logger Logger
}

// NewBuildOrchestrator creates a BuildOrchestrator.
func NewBuildOrchestrator(runner domain.ProcessRunner, fs afero.Fs, log Logger) *BuildOrchestrator {
	return &BuildOrchestrator{
		runner: runner,
		fs:     fs,
		logger: log,
	}
}

// Run generates the build files into cfg.BuildTemp and compiles them there.
// A failed phase stops the orchestration; nothing is retried.
func (o *BuildOrchestrator) Run(ctx context.Context, cfg domain.BuildConfiguration) (*domain.BuildResult, error) {
	if _, err := o.runner.LookPath(CMakeTool); err != nil {
		return nil, fmt.Errorf("%w: %s must be installed to build %s: %w",
			domain.ErrToolchainUnavailable, CMakeTool, domain.PackageName, err)
	}

	generator := ""
	if o.useNinja(ctx, cfg) {
		generator = NinjaGenerator
	}

	buildDir, err := filepath.Abs(cfg.BuildTemp)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve build directory: %w", err)
	}
	sourceDir, err := filepath.Abs(cfg.SourceDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve source directory: %w", err)
	}

	result := &domain.BuildResult{
		Generator:        generator,
		ConfigureArgs:    ConfigureArgs(cfg, sourceDir, filepath.Dir(buildDir), generator),
		CompileCommand:   compileCommand(cfg, generator),
		BuildDir:         buildDir,
		LibraryOutputDir: filepath.Dir(buildDir),
		DryRun:           cfg.DryRun,
	}

	o.logger.Info(ctx, "configuring native build", map[string]interface{}{
		"source_dir": sourceDir,
		"build_dir":  buildDir,
		"generator":  generatorName(generator),
		"profile":    string(cfg.Profile),
		"command":    CMakeTool + " " + strings.Join(result.ConfigureArgs, " "),
	})

	if cfg.DryRun {
		o.logger.Info(ctx, "dry run: skipping build phases", map[string]interface{}{
			"compile_command": strings.Join(result.CompileCommand, " "),
		})
		return result, nil
	}

	if err := o.fs.MkdirAll(buildDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create build directory %s: %w", buildDir, err)
	}

	if err := o.runPhase(ctx, PhaseGenerate, domain.Command{
		Name:   CMakeTool,
		Args:   result.ConfigureArgs,
		Dir:    buildDir,
		Stream: true,
	}); err != nil {
		return nil, err
	}

	if err := o.runPhase(ctx, PhaseCompile, domain.Command{
		Name:   result.CompileCommand[0],
		Args:   result.CompileCommand[1:],
		Dir:    buildDir,
		Stream: true,
	}); err != nil {
		return nil, err
	}

	o.logger.Info(ctx, "native build complete", map[string]interface{}{
		"build_dir":          buildDir,
		"library_output_dir": result.LibraryOutputDir,
	})

	return result, nil
}

// useNinja selects Ninja only when it was requested and is usable on the host.
func (o *BuildOrchestrator) useNinja(ctx context.Context, cfg domain.BuildConfiguration) bool {
	if !cfg.UseNinja {
		return false
	}

	res, err := o.runner.Run(ctx, domain.Command{Name: NinjaTool, Args: []string{"--version"}})
	if err != nil || res.ExitCode != 0 {
		o.logger.Warn(ctx, "ninja requested but not available; using default generator", map[string]interface{}{
			"error": errString(err),
		})
		return false
	}
	return true
}

func (o *BuildOrchestrator) runPhase(ctx context.Context, phase string, cmd domain.Command) error {
	o.logger.Debug(ctx, "running build phase", map[string]interface{}{
		"phase":   phase,
		"command": cmd.Name + " " + strings.Join(cmd.Args, " "),
		"dir":     cmd.Dir,
	})

	res, err := o.runner.Run(ctx, cmd)
	if err != nil {
		phaseErr := &domain.PhaseError{Phase: phase, ExitCode: -1, Cause: err}
		o.logger.Error(ctx, "build phase could not run", phaseErr, map[string]interface{}{"phase": phase})
		return phaseErr
	}
	if res.ExitCode != 0 {
		phaseErr := &domain.PhaseError{Phase: phase, ExitCode: res.ExitCode}
		o.logger.Error(ctx, "build phase failed", phaseErr, map[string]interface{}{
			"phase":     phase,
			"exit_code": res.ExitCode,
		})
		return phaseErr
	}
	return nil
}

// ConfigureArgs returns the cmake arguments of the generate phase.
// Toolchain overrides are only passed when set.
func ConfigureArgs(cfg domain.BuildConfiguration, sourceDir, libraryOutputDir, generator string) []string {
	args := []string{filepath.ToSlash(sourceDir)}
	if generator != "" {
		args = append(args, "-G", generator)
	}

	args = append(args,
		"-DLIEF_DIR="+cfg.LIEFDir,
		"-DLLVM_DIR="+cfg.LLVMDir,
		"-DClang_DIR="+filepath.ToSlash(filepath.Join(cfg.LLVMDir, "..", "clang")),
		"-DICDUMP_LLVM=ON",
		"-DICDUMP_PYTHON_BINDINGS=ON",
		"-DCMAKE_LIBRARY_OUTPUT_DIRECTORY="+libraryOutputDir,
	)
	if cfg.PythonExecutable != "" {
		args = append(args, "-DPython_EXECUTABLE="+cfg.PythonExecutable)
	}
	args = append(args, "-DCMAKE_BUILD_TYPE="+cfg.Profile.CMakeBuildType())

	if cfg.OSXArch != "" {
		args = append(args, "-DCMAKE_OSX_ARCHITECTURES="+cfg.OSXArch)
	}

	tc := cfg.Toolchain
	if tc.CXXFlags != "" {
		args = append(args, "-DCMAKE_CXX_FLAGS="+tc.CXXFlags)
	}
	if tc.CFlags != "" {
		args = append(args, "-DCMAKE_C_FLAGS="+tc.CFlags)
	}
	if tc.CC != "" {
		args = append(args, "-DCMAKE_C_COMPILER="+tc.CC)
	}
	if tc.CXX != "" {
		args = append(args, "-DCMAKE_CXX_COMPILER="+tc.CXX)
	}

	return args
}

// compileCommand returns the build driver invocation for the selected generator.
func compileCommand(cfg domain.BuildConfiguration, generator string) []string {
	if generator == NinjaGenerator {
		return []string{NinjaTool}
	}
	return []string{CMakeTool, "--build", ".", "--config", cfg.Profile.CMakeBuildType()}
}

func generatorName(generator string) string {
	if generator == "" {
		return "default"
	}
	return generator
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
