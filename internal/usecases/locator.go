package usecases

import (
	"github.com/MyCarrier-DevOps/icdump-build/internal/domain"
)

// Default locations used when the corresponding option is empty.
const (
	DefaultSourceDir = "."
	DefaultBuildTemp = "build/temp"
	DefaultBuildLib  = "build/lib"
)

// LocateDependencies validates the parsed build options and returns the
// immutable configuration for the orchestrator.
//
// The LLVM and LIEF install directories are mandatory; the first missing one is
// reported as a *domain.MissingPathError. Existence of the directories is not
// checked here: CMake reports unusable package directories during generation.
func LocateDependencies(opts domain.BuildOptions) (domain.BuildConfiguration, error) {
	if opts.LLVMDir == "" {
		return domain.BuildConfiguration{}, &domain.MissingPathError{Flag: "llvm-dir", Dependency: "LLVM"}
	}
	if opts.LIEFDir == "" {
		return domain.BuildConfiguration{}, &domain.MissingPathError{Flag: "lief-dir", Dependency: "LIEF"}
	}

	profile := domain.ProfileRelease
	if opts.Debug {
		profile = domain.ProfileReleaseWithDebug
	}

	return domain.BuildConfiguration{
		LLVMDir:           opts.LLVMDir,
		LIEFDir:           opts.LIEFDir,
		OSXArch:           opts.OSXArch,
		UseNinja:          opts.Ninja,
		Toolchain:         opts.Toolchain,
		Profile:           profile,
		SourceDir:         orDefault(opts.SourceDir, DefaultSourceDir),
		BuildTemp:         orDefault(opts.BuildTemp, DefaultBuildTemp),
		BuildLib:          orDefault(opts.BuildLib, DefaultBuildLib),
		PythonExecutable:  opts.PythonExecutable,
		ExtensionFilename: orDefault(opts.ExtensionFilename, domain.DefaultExtensionFilename()),
		DryRun:            opts.DryRun,
	}, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
