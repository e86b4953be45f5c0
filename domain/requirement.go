package domain

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"

	"golang.org/x/mod/semver"
)

// ConstraintOp is a version constraint operator in a requirement line.
type ConstraintOp string

const (
	OpAny ConstraintOp = ""
	OpEQ  ConstraintOp = "=="
	OpNE  ConstraintOp = "!="
	OpGTE ConstraintOp = ">="
	OpLTE ConstraintOp = "<="
	OpGT  ConstraintOp = ">"
	OpLT  ConstraintOp = "<"
)

// constraintOps in match order; two-character operators must come first.
var constraintOps = []ConstraintOp{OpEQ, OpNE, OpGTE, OpLTE, OpGT, OpLT}

var nameExpr = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// Requirement is a single parsed manifest line: a package name and an
// optional version constraint.
type Requirement struct {
	Name    string       `json:"name"`
	Op      ConstraintOp `json:"op,omitempty"`
	Version string       `json:"version,omitempty"`
}

func NewRequirement(name string) *Requirement {
	req := &Requirement{
		Name: name,
	}
	return req
}

// ParseRequirement parses a single manifest line, e.g. "samtools==1.17",
// "bwa>=0.7", or a bare package name.
func ParseRequirement(line string) (*Requirement, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, fmt.Errorf("empty requirement")
	}

	for _, op := range constraintOps {
		idx := strings.Index(line, string(op))
		if idx < 0 {
			continue
		}
		var (
			name    = strings.TrimSpace(line[:idx])
			version = strings.TrimSpace(line[idx+len(op):])
		)
		if !nameExpr.MatchString(name) {
			return nil, fmt.Errorf("invalid package name %q in requirement %q", name, line)
		}
		if version == "" {
			return nil, fmt.Errorf("constraint %q in requirement %q is missing a version", op, line)
		}
		req := &Requirement{
			Name:    name,
			Op:      op,
			Version: version,
		}
		return req, nil
	}

	if !nameExpr.MatchString(line) {
		return nil, fmt.Errorf("invalid package name %q", line)
	}
	return NewRequirement(line), nil
}

// ParseManifest reads a manifest of requirement lines.  Blank lines and
// "#" comments are ignored.
func ParseManifest(r io.Reader) ([]*Requirement, error) {
	var (
		reqs    = []*Requirement{}
		scanner = bufio.NewScanner(r)
		lineNo  int
	)
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if idx := strings.Index(line, "#"); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		req, err := ParseRequirement(line)
		if err != nil {
			return nil, fmt.Errorf("manifest line %v: %s", lineNo, err)
		}
		reqs = append(reqs, req)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return reqs, nil
}

// Matches returns true when the given concrete version satisfies the
// requirement.
//
// Versions are compared as semver when both sides parse as such (a leading
// "v" is implied), otherwise falls back to exact string comparison for
// equality operators and lexical comparison for the rest.
func (req *Requirement) Matches(version string) bool {
	if req.Op == OpAny {
		return true
	}

	var cmp int
	a, b := CanonicalVersion(version), CanonicalVersion(req.Version)
	if semver.IsValid(a) && semver.IsValid(b) {
		cmp = semver.Compare(a, b)
	} else {
		cmp = strings.Compare(version, req.Version)
	}

	switch req.Op {
	case OpEQ:
		return cmp == 0
	case OpNE:
		return cmp != 0
	case OpGTE:
		return cmp >= 0
	case OpLTE:
		return cmp <= 0
	case OpGT:
		return cmp > 0
	case OpLT:
		return cmp < 0
	}
	return false
}

func (req *Requirement) String() string {
	if req.Op == OpAny {
		return req.Name
	}
	return fmt.Sprintf("%s%s%s", req.Name, req.Op, req.Version)
}

// CanonicalVersion prefixes a "v" when absent so package versions can be fed
// to the semver machinery.
func CanonicalVersion(version string) string {
	if !strings.HasPrefix(version, "v") {
		version = "v" + version
	}
	return version
}
