// Package domain defines the core build and versioning entities for icdump-build.
package domain

import (
	"path/filepath"
	"runtime"
	"time"
)

// PackageName is the name of the native extension produced by the build.
const PackageName = "icdump"

// FallbackVersion is shipped with the source and used when neither a
// repository nor installed package metadata is available.
const FallbackVersion = "1.1.0"

// ReleaseBranchPrefix marks branches whose name carries the version verbatim.
const ReleaseBranchPrefix = "release-"

// DevSuffix is appended to the next anticipated release for untagged builds.
const DevSuffix = ".dev0"

// BuildProfile selects the CMake build type.
type BuildProfile string

const (
	// ProfileRelease builds with optimizations and no debug info.
	ProfileRelease BuildProfile = "release"

	// ProfileReleaseWithDebug builds with optimizations and debug info.
	ProfileReleaseWithDebug BuildProfile = "release-with-debug"
)

// CMakeBuildType returns the CMAKE_BUILD_TYPE value for the profile.
func (p BuildProfile) CMakeBuildType() string {
	if p == ProfileReleaseWithDebug {
		return "RelWithDebInfo"
	}
	return "Release"
}

// ToolchainOverrides holds the optional compiler selections read from the environment.
// An empty field means "inherit the platform default" and is never passed on.
type ToolchainOverrides struct {
	CC       string
	CXX      string
	CFlags   string
	CXXFlags string
}

// BuildOptions holds the build options as parsed from the command line.
// Nothing here is validated; see usecases.LocateDependencies.
type BuildOptions struct {
	LLVMDir           string
	LIEFDir           string
	OSXArch           string
	Ninja             bool
	Debug             bool
	SourceDir         string
	BuildTemp         string
	BuildLib          string
	PythonExecutable  string
	ExtensionFilename string
	DryRun            bool
	Toolchain         ToolchainOverrides
}

// BuildConfiguration is the validated input of the build orchestrator.
// It is passed by value and never modified once the locator returns it.
type BuildConfiguration struct {
	// LLVMDir is the LLVM CMake package directory (required).
	LLVMDir string

	// LIEFDir is the LIEF CMake package directory (required).
	LIEFDir string

	// OSXArch is the target architecture when cross-compiling for macOS.
	OSXArch string

	// UseNinja records that the caller asked for the Ninja generator.
	// Ninja is only used when it is also available on the host.
	UseNinja bool

	// Toolchain holds the compiler and flag overrides.
	Toolchain ToolchainOverrides

	// Profile is the build profile.
	Profile BuildProfile

	// SourceDir is the root of the CMake project.
	SourceDir string

	// BuildTemp is the scratch directory receiving the generated build files.
	BuildTemp string

	// BuildLib is the packaging layer's output directory.
	BuildLib string

	// PythonExecutable is forwarded to CMake when set.
	PythonExecutable string

	// ExtensionFilename is the artifact file name the packaging layer expects.
	ExtensionFilename string

	// DryRun logs the planned commands without running them.
	DryRun bool
}

// LibraryOutputDir is the directory CMake writes the compiled library to:
// the parent of the scratch directory.
func (c BuildConfiguration) LibraryOutputDir() string {
	return filepath.Dir(filepath.Clean(c.BuildTemp))
}

// DefaultExtensionFilename returns the artifact name for the host platform.
func DefaultExtensionFilename() string {
	if runtime.GOOS == "windows" {
		return PackageName + ".pyd"
	}
	return PackageName + ".so"
}

// VersionDescriptor is the repository state reported by a describe query.
type VersionDescriptor struct {
	// Tag is the nearest reachable tag.
	Tag string

	// Count is the number of commits between the tag and HEAD.
	Count int

	// ShortHash is the abbreviated HEAD commit hash, without the "g" prefix.
	ShortHash string

	// Dirty is true when the working tree has uncommitted changes.
	Dirty bool
}

// IsExact reports whether HEAD is the tagged commit and the tree is clean.
func (d VersionDescriptor) IsExact() bool {
	return d.Count == 0 && !d.Dirty
}

// VersionSource identifies which strategy produced a version.
type VersionSource string

// Version sources, in resolution priority order.
const (
	SourceReleaseBranch   VersionSource = "release-branch"
	SourceVCSTag          VersionSource = "vcs-tag"
	SourcePackageMetadata VersionSource = "package-metadata"
	SourceStaticFallback  VersionSource = "static-fallback"
)

// ResolvedVersion is the final version label of a build.
type ResolvedVersion struct {
	Version string
	Source  VersionSource
}

// Command describes one external process invocation.
type Command struct {
	// Name is the executable, looked up on PATH.
	Name string

	// Args are the arguments, not including Name.
	Args []string

	// Dir is the working directory; empty means the current directory.
	Dir string

	// Env is the complete environment; nil inherits the current process environment.
	Env []string

	// Stream forwards the process output to the runner's sinks while it runs.
	Stream bool
}

// ProcessResult is the outcome of a process that ran to completion.
type ProcessResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// BuildResult describes a finished (or planned, for dry runs) orchestration.
type BuildResult struct {
	// Generator is the CMake generator used, empty for the platform default.
	Generator string

	// ConfigureArgs are the arguments passed to cmake in the generate phase.
	ConfigureArgs []string

	// CompileCommand is the build driver invocation.
	CompileCommand []string

	// BuildDir is the scratch directory.
	BuildDir string

	// LibraryOutputDir is where the compiled artifact was written.
	LibraryOutputDir string

	// DryRun is true when no command was executed.
	DryRun bool
}

// BuildManifest is the record written next to the build files after an install.
type BuildManifest struct {
	Package       string    `toml:"package"`
	Version       string    `toml:"version"`
	VersionSource string    `toml:"version_source"`
	Profile       string    `toml:"profile"`
	Generator     string    `toml:"generator"`
	Artifact      string    `toml:"artifact"`
	ConfigureArgs []string  `toml:"configure_args"`
	BuiltAt       time.Time `toml:"built_at"`
}
