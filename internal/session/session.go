// Package session persists per-installation state: the device id, the active
// group code, the intro flag and the last history cleanup time.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

type state struct {
	DeviceID     string    `json:"deviceId,omitempty"`
	GroupCode    string    `json:"groupCode,omitempty"`
	HasSeenIntro bool      `json:"hasSeenIntro"`
	LastCleanup  time.Time `json:"lastCleanup,omitzero"`
}

// Store is a JSON file holding one installation's session. It is safe for
// concurrent use within a process.
type Store struct {
	mu    sync.Mutex
	path  string
	state state
}

// Open loads the session at path. A missing file yields an empty session;
// the parent directory is created on first write.
func Open(path string) (*Store, error) {
	st, _, err := load(path)
	if err != nil {
		return nil, err
	}
	return &Store{path: path, state: st}, nil
}

// load reads the session file. found is false when it does not exist.
func load(path string) (st state, found bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return state{}, false, nil
		}
		return state{}, false, fmt.Errorf("read session: %w", err)
	}
	if err := json.Unmarshal(b, &st); err != nil {
		return state{}, false, fmt.Errorf("parse session %s: %w", path, err)
	}
	return st, true, nil
}

// reload replaces the in-memory state with the file's, picking up writes
// made by other processes since Open. A missing file keeps the current
// state. Caller holds mu.
func (s *Store) reload() error {
	st, found, err := load(s.path)
	if err != nil {
		return err
	}
	if found {
		s.state = st
	}
	return nil
}

// DeviceID returns the stable device id, generating and persisting one on
// first access.
func (s *Store) DeviceID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.DeviceID != "" {
		return s.state.DeviceID, nil
	}
	if err := s.reload(); err != nil {
		return "", err
	}
	if s.state.DeviceID != "" {
		return s.state.DeviceID, nil
	}

	s.state.DeviceID = uuid.NewString()
	if err := s.save(); err != nil {
		s.state.DeviceID = ""
		return "", err
	}
	return s.state.DeviceID, nil
}

// GroupCode returns the active group code, or "" when none is set.
func (s *Store) GroupCode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.GroupCode
}

func (s *Store) SetGroupCode(code string) error {
	return s.update(func(st *state) { st.GroupCode = code })
}

func (s *Store) ClearGroupCode() error {
	return s.update(func(st *state) { st.GroupCode = "" })
}

func (s *Store) HasSeenIntro() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.HasSeenIntro
}

func (s *Store) MarkIntroSeen() error {
	return s.update(func(st *state) { st.HasSeenIntro = true })
}

// LastCleanup returns the zero time when no cleanup has run yet.
func (s *Store) LastCleanup() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.LastCleanup
}

func (s *Store) SetLastCleanup(t time.Time) error {
	return s.update(func(st *state) { st.LastCleanup = t.UTC() })
}

func (s *Store) Path() string {
	return s.path
}

// update re-reads the file, applies fn and persists, so a write only changes
// the fields fn touches. The in-memory state is rolled back if the write
// fails.
func (s *Store) update(fn func(*state)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.reload(); err != nil {
		return err
	}
	prev := s.state
	fn(&s.state)
	if err := s.save(); err != nil {
		s.state = prev
		return err
	}
	return nil
}

// save writes the state to a temp file in the same directory and renames it
// over the target. Caller holds mu.
func (s *Store) save() error {
	b, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*.json")
	if err != nil {
		return fmt.Errorf("create temp session: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("write session: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return fmt.Errorf("chmod session: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace session: %w", err)
	}
	return nil
}
