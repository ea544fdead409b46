package usecases

import (
	"context"
	"strings"

	"github.com/MyCarrier-DevOps/icdump-build/internal/domain"
)

// ReleaseBranchStrategy returns <version> when the checked-out branch is
// named release-<version>. It wins over every other source, dirty tree or not.
type ReleaseBranchStrategy struct {
	vcs domain.VersionControl
}

// NewReleaseBranchStrategy creates a ReleaseBranchStrategy.
func NewReleaseBranchStrategy(vcs domain.VersionControl) *ReleaseBranchStrategy {
	return &ReleaseBranchStrategy{vcs: vcs}
}

// Name implements domain.VersionStrategy.
func (s *ReleaseBranchStrategy) Name() domain.VersionSource {
	return domain.SourceReleaseBranch
}

// Resolve implements domain.VersionStrategy.
func (s *ReleaseBranchStrategy) Resolve(ctx context.Context) (string, bool, error) {
	branch, err := s.vcs.CurrentBranch(ctx)
	if err != nil {
		return "", false, nil
	}

	version, found := strings.CutPrefix(strings.TrimSpace(branch), domain.ReleaseBranchPrefix)
	if !found || version == "" {
		return "", false, nil
	}
	return version, true, nil
}

// TagStrategy derives the version from the nearest tag.
//
// A tagged HEAD yields the bare tag. Otherwise the next minor release is
// anticipated: MAJOR.(MINOR+1).0, suffixed with .dev0 unless describe reports
// an exact, clean match. The commit hash is not part of the result.
type TagStrategy struct {
	vcs domain.VersionControl
}

// NewTagStrategy creates a TagStrategy.
func NewTagStrategy(vcs domain.VersionControl) *TagStrategy {
	return &TagStrategy{vcs: vcs}
}

// Name implements domain.VersionStrategy.
func (s *TagStrategy) Name() domain.VersionSource {
	return domain.SourceVCSTag
}

// Resolve implements domain.VersionStrategy.
func (s *TagStrategy) Resolve(ctx context.Context) (string, bool, error) {
	// A failed tag listing counts as "not tagged" rather than unavailable.
	tags, err := s.vcs.TagsAtHead(ctx)
	tagged := err == nil && len(tags) > 0

	out, err := s.vcs.Describe(ctx)
	if err != nil {
		return "", false, nil
	}

	desc, err := domain.ParseDescribe(out)
	if err != nil {
		return "", false, err
	}

	tag, err := domain.ParseTag(desc.Tag)
	if err != nil {
		return "", false, err
	}

	// The tag is returned as written; ParseTag only validates it.
	if tagged {
		return desc.Tag, true, nil
	}

	next := tag.NextMinor().String()
	if desc.IsExact() {
		return next, true, nil
	}
	return next + domain.DevSuffix, true, nil
}

// PackageMetadataStrategy returns the version recorded by a previous install.
type PackageMetadataStrategy struct {
	meta domain.PackageMetadata
}

// NewPackageMetadataStrategy creates a PackageMetadataStrategy.
func NewPackageMetadataStrategy(meta domain.PackageMetadata) *PackageMetadataStrategy {
	return &PackageMetadataStrategy{meta: meta}
}

// Name implements domain.VersionStrategy.
func (s *PackageMetadataStrategy) Name() domain.VersionSource {
	return domain.SourcePackageMetadata
}

// Resolve implements domain.VersionStrategy.
func (s *PackageMetadataStrategy) Resolve(ctx context.Context) (string, bool, error) {
	version, err := s.meta.InstalledVersion(ctx)
	if err != nil || version == "" {
		return "", false, nil
	}
	return version, true, nil
}

// StaticStrategy always returns the version it was built with.
type StaticStrategy struct {
	version string
}

// NewStaticStrategy creates a StaticStrategy.
func NewStaticStrategy(version string) *StaticStrategy {
	return &StaticStrategy{version: version}
}

// Name implements domain.VersionStrategy.
func (s *StaticStrategy) Name() domain.VersionSource {
	return domain.SourceStaticFallback
}

// Resolve implements domain.VersionStrategy.
func (s *StaticStrategy) Resolve(_ context.Context) (string, bool, error) {
	return s.version, s.version != "", nil
}
