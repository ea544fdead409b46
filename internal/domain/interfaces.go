// Package domain defines the core build and versioning entities for icdump-build.
// This package contains no external dependencies and represents the innermost layer
// of the CLEAN architecture.
package domain

import (
	"context"
)

// ProcessRunner executes external processes.
// Run returns an error only when the process could not be started or waited on;
// a process that exits non-zero is reported through ProcessResult.ExitCode.
type ProcessRunner interface {
	// Run executes the command and blocks until it exits.
	Run(ctx context.Context, cmd Command) (*ProcessResult, error)

	// LookPath resolves an executable on PATH.
	LookPath(name string) (string, error)
}

// VersionControl answers the read-only repository queries used for versioning.
// All queries are best-effort; callers treat errors as "source unavailable".
type VersionControl interface {
	// Describe returns the nearest tag with distance, hash and dirty flag,
	// formatted like `git describe --tags --long --dirty`.
	Describe(ctx context.Context) (string, error)

	// CurrentBranch returns the checked-out branch name, or "HEAD" when detached.
	CurrentBranch(ctx context.Context) (string, error)

	// TagsAtHead returns the tags pointing directly at HEAD.
	TagsAtHead(ctx context.Context) ([]string, error)
}

// PackageMetadata reads the version recorded by a previous package install.
type PackageMetadata interface {
	// InstalledVersion returns the recorded version.
	InstalledVersion(ctx context.Context) (string, error)
}

// VersionStrategy is one tier of the version resolution chain.
// ok is false when the source is unavailable; err is reserved for
// contract violations that must stop resolution.
type VersionStrategy interface {
	// Name identifies the strategy in logs and results.
	Name() VersionSource

	// Resolve returns the version from this source.
	Resolve(ctx context.Context) (version string, ok bool, err error)
}

// VersionResolver produces the version label of a build.
type VersionResolver interface {
	Resolve(ctx context.Context) (*ResolvedVersion, error)
}

// Orchestrator drives the external generate and compile phases.
type Orchestrator interface {
	Run(ctx context.Context, cfg BuildConfiguration) (*BuildResult, error)
}

// Installer places the compiled artifact into the packaging layout.
type Installer interface {
	// Install copies the artifact and returns its destination path.
	Install(ctx context.Context, cfg BuildConfiguration) (string, error)
}

// ManifestWriter records what was built.
type ManifestWriter interface {
	Write(ctx context.Context, dir string, manifest BuildManifest) (string, error)
}

// OutputWriter writes results for consumption by external tooling.
type OutputWriter interface {
	// WriteLine writes a single value followed by a newline.
	WriteLine(value string) error
}

// Repository is a VersionControl backed by an open repository handle.
type Repository interface {
	VersionControl

	// Close releases the repository.
	Close() error
}
