package retained

import (
	"errors"
	"os"
	"sync"
)

// Store persists State across suspend.
type Store interface {
	// Load returns ErrNoState if nothing was saved, or an errcode.CorruptState
	// error if the image does not verify.
	Load() (State, error)
	Save(State) error
}

// MemStore models RTC slow memory: it survives suspend but not power loss.
// It holds the encoded image rather than the struct so that Load exercises
// the same decode path as hardware.
type MemStore struct {
	mu  sync.Mutex
	img []byte
}

func (m *MemStore) Load() (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.img == nil {
		return State{}, ErrNoState
	}
	var s State
	if err := s.UnmarshalBinary(m.img); err != nil {
		return State{}, err
	}
	return s, nil
}

func (m *MemStore) Save(s State) error {
	b, err := s.MarshalBinary()
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.img = b
	m.mu.Unlock()
	return nil
}

// Image returns a copy of the stored bytes (nil when empty).
func (m *MemStore) Image() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.img...)
}

// SetImage replaces the stored bytes; used to model corruption.
func (m *MemStore) SetImage(b []byte) {
	m.mu.Lock()
	m.img = append([]byte(nil), b...)
	m.mu.Unlock()
}

// FileStore keeps the image in a file so host runs survive process restarts.
type FileStore struct {
	Path string
}

func (f FileStore) Load() (State, error) {
	b, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return State{}, ErrNoState
	}
	if err != nil {
		return State{}, err
	}
	var s State
	if err := s.UnmarshalBinary(b); err != nil {
		return State{}, err
	}
	return s, nil
}

// Save writes to a temporary file and renames it over Path.
func (f FileStore) Save(s State) error {
	b, err := s.MarshalBinary()
	if err != nil {
		return err
	}
	tmp := f.Path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, f.Path)
}
