package env

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

// State is the installed-state record persisted at the environment root.
type State struct {
	Format    int                          `json:"format"`
	CreatedAt *time.Time                   `json:"created_at,omitempty"`
	Installed map[string]*InstalledPackage `json:"installed"`
}

// InstalledPackage records one committed package install.
type InstalledPackage struct {
	Name        string     `json:"name"`
	Version     string     `json:"version"`
	SHA256      string     `json:"sha256,omitempty"`
	Path        string     `json:"path"`
	InstalledAt *time.Time `json:"installed_at,omitempty"`
}

// State loads the installed-state record.
func (e *Environment) State() (*State, error) {
	raw, err := os.ReadFile(e.stateFilePath())
	if err != nil {
		return nil, errors.Wrap(err, "reading environment state")
	}

	state := &State{}
	if err := json.Unmarshal(raw, state); err != nil {
		return nil, errors.Wrap(err, "parsing environment state")
	}
	if state.Installed == nil {
		state.Installed = map[string]*InstalledPackage{}
	}
	return state, nil
}

// SaveState atomically rewrites the installed-state record.
func (e *Environment) SaveState(state *State) error {
	raw, err := json.MarshalIndent(state, "", "    ")
	if err != nil {
		return errors.Wrap(err, "marshalling environment state")
	}

	tmp, err := os.CreateTemp(e.Root, ".state-*")
	if err != nil {
		return errors.Wrap(err, "creating temp state file")
	}
	defer os.Remove(tmp.Name())

	if _, err = tmp.Write(raw); err != nil {
		tmp.Close()
		return errors.Wrap(err, "writing temp state file")
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrap(err, "closing temp state file")
	}
	if err = os.Chmod(tmp.Name(), FileMode); err != nil {
		return errors.Wrap(err, "setting state file mode")
	}
	if err = os.Rename(tmp.Name(), e.stateFilePath()); err != nil {
		return errors.Wrap(err, "committing state file")
	}
	return nil
}

func (e *Environment) stateFilePath() string {
	return filepath.Join(e.Root, StateFile)
}
