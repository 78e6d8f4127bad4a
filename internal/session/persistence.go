package session

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
)

// Load replaces the in-memory records with the contents of the state file.
// A missing file leaves the store empty; a corrupt file is an error.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.resolveStatePath()

	data, err := os.ReadFile(path) //nolint:gosec // G304: path is from config
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Debug("state file does not exist, using fresh state",
				"path", path,
			)

			return nil
		}

		return errors.Wrap(err, "reading state file")
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return errors.Wrapf(err, "parsing state file %s", path)
	}

	if state.Sessions == nil {
		state.Sessions = make(map[string]*Session)
	}

	for id, rec := range state.Sessions {
		if rec == nil {
			delete(state.Sessions, id)

			continue
		}

		rec.ID = id
	}

	s.state = &state

	s.logger.Debug("loaded state from file",
		"path", path,
		"sessions", len(s.state.Sessions),
	)

	return nil
}

// Save writes the records to the state file atomically.
func (s *Store) Save() error {
	s.mu.RLock()
	data, err := json.MarshalIndent(s.state, "", "  ")
	count := len(s.state.Sessions)
	s.mu.RUnlock()

	if err != nil {
		return errors.Wrap(err, "marshaling state")
	}

	path := s.resolveStatePath()

	if err := os.MkdirAll(filepath.Dir(path), stateDirPermissions); err != nil {
		return errors.Wrap(err, "creating state directory")
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, stateFilePermissions); err != nil {
		return errors.Wrap(err, "writing temp state file")
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)

		return errors.Wrap(err, "renaming state file")
	}

	s.logger.Debug("saved state to file",
		"path", path,
		"sessions", count,
	)

	return nil
}

// resolveStatePath expands ~ in the state file path.
func (s *Store) resolveStatePath() string {
	path := s.stateFile
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	return path
}
