package config

// DefaultStoreStateFile is the default session state file path.
const DefaultStoreStateFile = "~/.sendguard/sessions.json"

// StoreConfig configures the session record store.
type StoreConfig struct {
	// StateFile is the path to the session state file.
	// Default: "~/.sendguard/sessions.json"
	StateFile string `json:"state_file,omitempty" koanf:"state_file" toml:"state_file"`
}

// GetStateFile returns the state file path.
// Returns DefaultStoreStateFile if StateFile is empty.
func (s *StoreConfig) GetStateFile() string {
	if s == nil || s.StateFile == "" {
		return DefaultStoreStateFile
	}

	return s.StateFile
}
