package installer

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	mapset "github.com/deckarep/golang-set"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/paulzierep/micoreca/domain"
	"github.com/paulzierep/micoreca/env"
	"github.com/paulzierep/micoreca/registry"
)

// Installer applies a manifest of requirements to an environment.
//
// An invocation is all-or-nothing: every requirement is resolved before any
// filesystem mutation, artifacts are fetched and unpacked into a staging
// directory, and only then committed into the environment.  A failure at any
// point leaves the environment exactly as it was.
type Installer struct {
	env      *env.Environment
	registry *registry.Client
}

// Result summarizes one install invocation.
type Result struct {
	Installed []string // name==version actually installed by this run.
	Satisfied []string // requirements already satisfied beforehand.
}

type plannedInstall struct {
	req     *domain.Requirement
	release *domain.Release
}

func New(e *env.Environment, reg *registry.Client) *Installer {
	inst := &Installer{
		env:      e,
		registry: reg,
	}
	return inst
}

// Install resolves and installs the given requirements.
func (inst *Installer) Install(reqs []*domain.Requirement) (*Result, error) {
	if err := checkDuplicates(reqs); err != nil {
		return nil, err
	}

	state, err := inst.env.State()
	if err != nil {
		return nil, err
	}

	result := &Result{
		Installed: []string{},
		Satisfied: []string{},
	}

	// Resolution phase: any failure here aborts the whole invocation
	// before a single byte lands in the environment.
	plan := []*plannedInstall{}
	for _, req := range reqs {
		if installed, ok := state.Installed[req.Name]; ok && req.Matches(installed.Version) {
			log.WithField("package", req.Name).WithField("version", installed.Version).Debug("Requirement already satisfied")
			result.Satisfied = append(result.Satisfied, req.String())
			continue
		}

		rels, err := inst.registry.Releases(req.Name)
		if err != nil {
			return nil, errors.Wrapf(err, "resolving %q", req.String())
		}
		rel, err := rels.BestMatch(req)
		if err != nil {
			return nil, err
		}
		// BestMatch hands back a release owned by the registry client's
		// listing cache; plan against a copy so staging can backfill the
		// digest without mutating the cache.
		relCopy := *rel
		plan = append(plan, &plannedInstall{req: req, release: &relCopy})
	}

	if len(plan) == 0 {
		log.WithField("satisfied", len(result.Satisfied)).Info("Environment already satisfies manifest, nothing to do")
		return result, nil
	}

	staging, err := os.MkdirTemp(inst.env.Root, ".staging-")
	if err != nil {
		return nil, errors.Wrap(err, "creating staging directory")
	}
	defer os.RemoveAll(staging)

	// Fetch phase: everything lands in staging.
	for _, p := range plan {
		if err := inst.stage(p, staging); err != nil {
			return nil, err
		}
	}

	// Commit phase: rename staged package dirs into place, then record
	// state.  State is written last so a failed run never claims packages
	// it did not finish.
	var (
		now        = time.Now()
		superseded = []string{}
	)
	for _, p := range plan {
		var (
			rel    = p.release
			staged = filepath.Join(staging, fmt.Sprintf("%s-%s", rel.Package, rel.Version))
			target = inst.env.PackageDir(rel.Package, rel.Version)
		)
		if err := os.RemoveAll(target); err != nil {
			return nil, errors.Wrapf(err, "clearing %q", target)
		}
		if err := os.Rename(staged, target); err != nil {
			return nil, errors.Wrapf(err, "committing %s %s", rel.Package, rel.Version)
		}

		if prev, ok := state.Installed[rel.Package]; ok && prev.Version != rel.Version {
			superseded = append(superseded, prev.Path)
		}

		state.Installed[rel.Package] = &env.InstalledPackage{
			Name:        rel.Package,
			Version:     rel.Version,
			SHA256:      rel.SHA256,
			Path:        target,
			InstalledAt: &now,
		}
		result.Installed = append(result.Installed, fmt.Sprintf("%s==%s", rel.Package, rel.Version))
		log.WithField("package", rel.Package).WithField("version", rel.Version).Info("Installed")
	}

	if err := inst.env.SaveState(state); err != nil {
		return nil, err
	}

	// Superseded version dirs are removed only once the new state is on
	// disk, so an interrupted run never leaves state pointing at a deleted
	// path.
	for _, path := range superseded {
		if err := os.RemoveAll(path); err != nil {
			log.WithField("path", path).Warnf("Could not remove superseded version: %s", err)
		}
	}

	return result, nil
}

// stage downloads, verifies, and unpacks one planned install under the
// staging directory.
func (inst *Installer) stage(p *plannedInstall, staging string) error {
	rel := p.release

	content, digest, err := inst.registry.Download(rel)
	if err != nil {
		return err
	}
	if rel.SHA256 != "" && rel.SHA256 != digest {
		return errors.Errorf("checksum mismatch for %s %s: index advertises %s but artifact is %s", rel.Package, rel.Version, rel.SHA256, digest)
	}
	if rel.SHA256 == "" {
		// Record what we actually received so later runs can detect drift.
		rel.SHA256 = digest
	}

	dest := filepath.Join(staging, fmt.Sprintf("%s-%s", rel.Package, rel.Version))
	if err := unpackArchive(content, rel.Filename, dest); err != nil {
		return errors.Wrapf(err, "unpacking %s %s", rel.Package, rel.Version)
	}

	log.WithField("package", rel.Package).WithField("version", rel.Version).Debug("Staged")
	return nil
}

func checkDuplicates(reqs []*domain.Requirement) error {
	seen := mapset.NewSet()
	for _, req := range reqs {
		if !seen.Add(req.Name) {
			return errors.Errorf("package %q appears more than once in the manifest", req.Name)
		}
	}
	return nil
}
