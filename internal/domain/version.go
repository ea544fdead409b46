package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// SemanticTag is a release tag of the form MAJOR.MINOR.PATCH.
type SemanticTag struct {
	Major int
	Minor int
	Patch int
}

// String formats the tag as MAJOR.MINOR.PATCH.
func (t SemanticTag) String() string {
	return fmt.Sprintf("%d.%d.%d", t.Major, t.Minor, t.Patch)
}

// NextMinor returns the next anticipated release: MAJOR.(MINOR+1).0.
func (t SemanticTag) NextMinor() SemanticTag {
	return SemanticTag{Major: t.Major, Minor: t.Minor + 1}
}

// ParseTag parses a MAJOR.MINOR.PATCH tag.
// Each component must be a non-empty run of ASCII digits; signs are rejected.
func ParseTag(tag string) (SemanticTag, error) {
	parts := strings.Split(tag, ".")
	if len(parts) != 3 {
		return SemanticTag{}, fmt.Errorf("%w: %q has %d components", ErrInvalidTag, tag, len(parts))
	}

	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || !isDigits(p) {
			return SemanticTag{}, fmt.Errorf("%w: %q has non-numeric component %q", ErrInvalidTag, tag, p)
		}
		nums[i] = n
	}

	return SemanticTag{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

// ParseDescribe parses `git describe --tags --long --dirty` output:
//
//	1.2.0-5-g1a2b3c4
//	1.2.0-5-g1a2b3c4-dirty
//
// The output is split on every dash; any field count other than 3 or 4
// is ErrMalformedDescribe.
func ParseDescribe(out string) (VersionDescriptor, error) {
	out = strings.TrimSpace(out)
	parts := strings.Split(out, "-")
	if len(parts) != 3 && len(parts) != 4 {
		return VersionDescriptor{}, fmt.Errorf("%w: %q has %d fields", ErrMalformedDescribe, out, len(parts))
	}

	dirty := len(parts) == 4
	if dirty && parts[3] != "dirty" {
		return VersionDescriptor{}, fmt.Errorf("%w: unexpected suffix %q in %q", ErrMalformedDescribe, parts[3], out)
	}

	count, err := strconv.Atoi(parts[1])
	if err != nil || count < 0 {
		return VersionDescriptor{}, fmt.Errorf("%w: invalid commit count %q in %q", ErrMalformedDescribe, parts[1], out)
	}

	return VersionDescriptor{
		Tag:       parts[0],
		Count:     count,
		ShortHash: strings.TrimPrefix(parts[2], "g"),
		Dirty:     dirty,
	}, nil
}

// FormatDescribe is the inverse of ParseDescribe.
func FormatDescribe(d VersionDescriptor) string {
	s := fmt.Sprintf("%s-%d-g%s", d.Tag, d.Count, d.ShortHash)
	if d.Dirty {
		s += "-dirty"
	}
	return s
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
