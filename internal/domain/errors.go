package domain

import (
	"errors"
	"fmt"
)

// Domain errors for configuration, building and version resolution.
var (
	// ErrConfiguration indicates a required build option is missing.
	ErrConfiguration = errors.New("invalid build configuration")

	// ErrToolchainUnavailable indicates a required build tool is not installed.
	ErrToolchainUnavailable = errors.New("required build tool not found")

	// ErrBuildPhaseFailure indicates the generate or compile phase failed.
	ErrBuildPhaseFailure = errors.New("build phase failed")

	// ErrArtifactMissing indicates the compiled artifact is absent after a successful build.
	ErrArtifactMissing = errors.New("compiled artifact not found")

	// ErrVersionSourceUnavailable indicates no version strategy produced a result.
	ErrVersionSourceUnavailable = errors.New("no version source available")

	// ErrRepositoryNotFound indicates the source directory is not a Git repository.
	ErrRepositoryNotFound = errors.New("git repository not found at specified path")

	// ErrMalformedDescribe indicates describe output is not tag-count-sha[-dirty].
	ErrMalformedDescribe = errors.New("malformed describe output")

	// ErrInvalidTag indicates a tag is not MAJOR.MINOR.PATCH.
	ErrInvalidTag = errors.New("tag is not MAJOR.MINOR.PATCH")
)

// MissingPathError is returned when a required dependency directory was not given.
type MissingPathError struct {
	// Flag is the command-line flag name, without dashes.
	Flag string

	// Dependency is the human name of the dependency.
	Dependency string
}

func (e *MissingPathError) Error() string {
	return fmt.Sprintf("Please provide the %s install directory: '--%s='", e.Dependency, e.Flag)
}

// Unwrap lets errors.Is match ErrConfiguration.
func (e *MissingPathError) Unwrap() error {
	return ErrConfiguration
}

// PhaseError is returned when an external build phase does not succeed.
type PhaseError struct {
	// Phase is "generate" or "compile".
	Phase string

	// ExitCode is the process exit code, or -1 if the process did not start.
	ExitCode int

	// Cause is the start error, if any.
	Cause error
}

func (e *PhaseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s phase failed: %v", e.Phase, e.Cause)
	}
	return fmt.Sprintf("%s phase failed with exit code %d", e.Phase, e.ExitCode)
}

// Unwrap exposes both ErrBuildPhaseFailure and the underlying cause.
func (e *PhaseError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrBuildPhaseFailure, e.Cause}
	}
	return []error{ErrBuildPhaseFailure}
}
