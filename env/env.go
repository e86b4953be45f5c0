package env

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	// StateFile holds the installed-state record at the environment root.
	StateFile = "micoreca-env.json"

	// FormatVersion is bumped when the on-disk environment layout changes.
	FormatVersion = 1
)

var (
	ErrNotAnEnvironment = errors.New("path exists but is not a micoreca environment")

	DirMode  = os.FileMode(0755)
	FileMode = os.FileMode(0644)
)

// Environment is an isolated, self-contained directory tree holding a
// package set independent of system-wide installations.
type Environment struct {
	Root string
}

// Create bootstraps a fresh environment rooted at the given path.
//
// Creating over an existing valid environment is an idempotent success.
// Creating over an existing path which is not an environment fails with
// ErrNotAnEnvironment.
func Create(root string) (*Environment, error) {
	if info, err := os.Stat(root); err == nil {
		if !info.IsDir() {
			return nil, errors.Wrapf(ErrNotAnEnvironment, "%q", root)
		}
		e, err := Open(root)
		if err != nil {
			return nil, err
		}
		log.WithField("root", root).Info("Environment already exists, leaving as-is")
		return e, nil
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "inspecting %q", root)
	}

	e := &Environment{Root: root}

	for _, dir := range []string{root, e.BinDir(), e.PkgsDir()} {
		if err := os.MkdirAll(dir, DirMode); err != nil {
			return nil, errors.Wrapf(err, "creating environment directory %q", dir)
		}
	}

	if err := os.WriteFile(filepath.Join(e.BinDir(), "activate"), []byte(e.ActivateScript()), FileMode); err != nil {
		return nil, errors.Wrap(err, "writing activate script")
	}

	now := time.Now()
	state := &State{
		Format:    FormatVersion,
		CreatedAt: &now,
		Installed: map[string]*InstalledPackage{},
	}
	if err := e.SaveState(state); err != nil {
		return nil, err
	}

	log.WithField("root", root).Info("Environment created")
	return e, nil
}

// Open validates and returns an existing environment.
func Open(root string) (*Environment, error) {
	e := &Environment{Root: root}
	if !IsEnvironment(root) {
		return nil, errors.Wrapf(ErrNotAnEnvironment, "%q", root)
	}
	return e, nil
}

// IsEnvironment reports whether the path looks like an environment root.
func IsEnvironment(root string) bool {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return false
	}
	if _, err := os.Stat(filepath.Join(root, StateFile)); err != nil {
		return false
	}
	return true
}

func (e *Environment) BinDir() string {
	return filepath.Join(e.Root, "bin")
}

func (e *Environment) PkgsDir() string {
	return filepath.Join(e.Root, "pkgs")
}

// PackageDir is where one installed package version lives.
func (e *Environment) PackageDir(name string, version string) string {
	return filepath.Join(e.PkgsDir(), fmt.Sprintf("%s-%s", name, version))
}

// ActivateScript returns the shell fragment which scopes installed packages
// to this environment for the current shell session.
func (e *Environment) ActivateScript() string {
	abs, err := filepath.Abs(e.Root)
	if err != nil {
		abs = e.Root
	}
	return fmt.Sprintf(`# micoreca environment activation script.
# Usage: eval "$(micoreca env activate %s)"  (or: . %s/bin/activate)
export MICORECA_ENV=%q
export MICORECA_PKGS=%q
export PATH=%q:"$PATH"
`, e.Root, e.Root, abs, filepath.Join(abs, "pkgs"), filepath.Join(abs, "bin"))
}
