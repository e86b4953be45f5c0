package domain

import (
	"fmt"

	"golang.org/x/mod/semver"

	"github.com/paulzierep/micoreca/pkg/contains"
)

// Release is one installable artifact version of a package as advertised by
// the package index.
type Release struct {
	Package  string `json:"package"`
	Version  string `json:"version"`
	URL      string `json:"url"`
	Filename string `json:"filename,omitempty"`
	SHA256   string `json:"sha256,omitempty"`
}

type Releases []*Release

// NoMatchError indicates that none of the available releases of a package
// satisfies a requirement.
type NoMatchError struct {
	Req       *Requirement
	Available []string
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("no release of %q satisfies %q (available: %v)", e.Req.Name, e.Req.String(), e.Available)
}

// Newest returns the highest-versioned release, or nil when empty.
func (rels Releases) Newest() *Release {
	var (
		result *Release
		newest = "v0.0.0-0"
	)
	for _, rel := range rels {
		ver := CanonicalVersion(rel.Version)
		if result == nil || compareVersions(newest, ver) < 0 {
			result = rel
			newest = ver
		}
	}
	return result
}

// BestMatch returns the highest-versioned release satisfying the requirement.
func (rels Releases) BestMatch(req *Requirement) (*Release, error) {
	var (
		result *Release
		newest string
	)
	for _, rel := range rels {
		if !req.Matches(rel.Version) {
			continue
		}
		ver := CanonicalVersion(rel.Version)
		if result == nil || compareVersions(newest, ver) < 0 {
			result = rel
			newest = ver
		}
	}
	if result == nil {
		return nil, &NoMatchError{Req: req, Available: rels.Versions()}
	}
	return result, nil
}

// Versions returns the distinct version strings of the releases.  A version
// may be advertised more than once when the index carries multiple artifact
// formats of it.
func (rels Releases) Versions() []string {
	versions := make([]string, 0, len(rels))
	for _, rel := range rels {
		if !contains.String(versions, rel.Version) {
			versions = append(versions, rel.Version)
		}
	}
	return versions
}

func compareVersions(a string, b string) int {
	if semver.IsValid(a) && semver.IsValid(b) {
		return semver.Compare(a, b)
	}
	if a < b {
		return -1
	} else if a > b {
		return 1
	}
	return 0
}
