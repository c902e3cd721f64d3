package version

import (
	"fmt"
	"strings"

	"github.com/blang/semver/v4"
)

// Bump names the version component incremented for the next build.
type Bump string

const (
	BumpPatch Bump = "patch"
	BumpMinor Bump = "minor"
	BumpMajor Bump = "major"
)

// ParseBump accepts patch, minor or major in any case. Empty means patch.
func ParseBump(s string) (Bump, error) {
	switch b := Bump(strings.ToLower(strings.TrimSpace(s))); b {
	case "":
		return BumpPatch, nil
	case BumpPatch, BumpMinor, BumpMajor:
		return b, nil
	default:
		return "", fmt.Errorf("unknown bump %q, expected one of patch, minor, major", s)
	}
}

// Apply returns the release version following v. Prerelease and build
// metadata are not carried over.
func (b Bump) Apply(v semver.Version) semver.Version {
	switch b {
	case BumpMajor:
		return semver.Version{Major: v.Major + 1}
	case BumpMinor:
		return semver.Version{Major: v.Major, Minor: v.Minor + 1}
	default:
		return semver.Version{Major: v.Major, Minor: v.Minor, Patch: v.Patch + 1}
	}
}
