package session

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/smykla-skalski/sendguard/pkg/config"
	"github.com/smykla-skalski/sendguard/pkg/logger"
)

// File permission constants.
const (
	stateFilePermissions = 0o600
	stateDirPermissions  = 0o700
)

var (
	// ErrSessionNotFound is returned when no record exists for an ID.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionExists is returned when creating a record that already exists.
	ErrSessionExists = errors.New("session already exists")

	// ErrEmptySessionID is returned for operations given a blank ID.
	ErrEmptySessionID = errors.New("session ID is empty")
)

// Store keeps session records in memory and persists them to a JSON file.
// Records handed out are copies; write them back with Put.
type Store struct {
	mu     sync.RWMutex
	state  *State
	logger logger.Logger

	stateFile string

	now func() time.Time
}

// StoreOption configures the Store.
type StoreOption func(*Store)

// WithLogger sets the logger.
func WithLogger(log logger.Logger) StoreOption {
	return func(s *Store) {
		if log != nil {
			s.logger = log
		}
	}
}

// WithStateFile sets a custom state file path.
func WithStateFile(path string) StoreOption {
	return func(s *Store) {
		if path != "" {
			s.stateFile = path
		}
	}
}

// WithTimeFunc sets a custom time function for testing.
func WithTimeFunc(fn func() time.Time) StoreOption {
	return func(s *Store) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewStore creates an empty store. Call Load to read persisted records.
func NewStore(cfg *config.StoreConfig, opts ...StoreOption) *Store {
	s := &Store{
		state:     NewState(),
		logger:    logger.NewNoOpLogger(),
		stateFile: cfg.GetStateFile(),
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.state.LastUpdated = s.now()

	return s
}

// Get returns a copy of the record for id.
func (s *Store) Get(id string) (*Session, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrEmptySessionID
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.state.Sessions[id]
	if !ok {
		return nil, errors.Wrapf(ErrSessionNotFound, "session %q", id)
	}

	return rec.Clone(), nil
}

// Create inserts a new record. It fails if the ID is already taken.
func (s *Store) Create(rec *Session) error {
	if rec == nil || strings.TrimSpace(rec.ID) == "" {
		return ErrEmptySessionID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.Sessions[rec.ID]; ok {
		return errors.Wrapf(ErrSessionExists, "session %q", rec.ID)
	}

	s.state.Sessions[rec.ID] = rec.Clone()
	s.state.LastUpdated = s.now()

	s.logger.Debug("session created", "session_id", rec.ID)

	return nil
}

// Put inserts or replaces a record.
func (s *Store) Put(rec *Session) error {
	if rec == nil || strings.TrimSpace(rec.ID) == "" {
		return ErrEmptySessionID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Sessions[rec.ID] = rec.Clone()
	s.state.LastUpdated = s.now()

	return nil
}

// Delete removes the record for id.
func (s *Store) Delete(id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrEmptySessionID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.Sessions[id]; !ok {
		return errors.Wrapf(ErrSessionNotFound, "session %q", id)
	}

	delete(s.state.Sessions, id)
	s.state.LastUpdated = s.now()

	s.logger.Debug("session deleted", "session_id", id)

	return nil
}

// IDs returns every stored session ID in sorted order.
func (s *Store) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.state.Sessions))
	for id := range s.state.Sessions {
		ids = append(ids, id)
	}

	slices.Sort(ids)

	return ids
}

// List returns copies of every record sorted by ID.
func (s *Store) List() []*Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Session, 0, len(s.state.Sessions))
	for _, rec := range s.state.Sessions {
		out = append(out, rec.Clone())
	}

	slices.SortFunc(out, func(a, b *Session) int {
		return strings.Compare(a.ID, b.ID)
	})

	return out
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.state.Sessions)
}

// StatePath returns the resolved state file path.
func (s *Store) StatePath() string {
	return s.resolveStatePath()
}
