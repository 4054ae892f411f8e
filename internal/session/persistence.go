package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/me/acadeval/pkg/model"
)

// Persistence is the durable medium a Store mirrors its session into, so a
// restart can restore the session without a network round-trip.
type Persistence interface {
	// Load returns the saved session, or nil if none is saved.
	Load(ctx context.Context) (*model.Session, error)
	Save(ctx context.Context, sess *model.Session) error
	Clear(ctx context.Context) error
}

const sessionFileName = "session.json"

// DefaultFilePath returns the path of the session file (~/.acadeval/session.json).
func DefaultFilePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("find home directory: %w", err)
	}
	return filepath.Join(home, ".acadeval", sessionFileName), nil
}

// FilePersistence keeps the session in a JSON file readable only by the owner.
type FilePersistence struct {
	Path string
}

// NewFilePersistence returns a file adapter for path.
func NewFilePersistence(path string) *FilePersistence {
	return &FilePersistence{Path: path}
}

func (f *FilePersistence) Load(ctx context.Context) (*model.Session, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	var sess model.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("parse session %s: %w", f.Path, err)
	}
	return &sess, nil
}

func (f *FilePersistence) Save(ctx context.Context, sess *model.Session) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	tmp := f.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	if err := os.Rename(tmp, f.Path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

func (f *FilePersistence) Clear(ctx context.Context) error {
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}

// MemoryPersistence keeps the session for the life of the process only.
type MemoryPersistence struct {
	mu   sync.Mutex
	sess *model.Session
}

// NewMemoryPersistence returns an empty in-memory adapter.
func NewMemoryPersistence() *MemoryPersistence {
	return &MemoryPersistence{}
}

func (m *MemoryPersistence) Load(ctx context.Context) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sess == nil {
		return nil, nil
	}
	return cloneSession(m.sess), nil
}

func (m *MemoryPersistence) Save(ctx context.Context, sess *model.Session) error {
	m.mu.Lock()
	m.sess = cloneSession(sess)
	m.mu.Unlock()
	return nil
}

func (m *MemoryPersistence) Clear(ctx context.Context) error {
	m.mu.Lock()
	m.sess = nil
	m.mu.Unlock()
	return nil
}

func cloneSession(s *model.Session) *model.Session {
	c := *s
	if s.User != nil {
		u := *s.User
		c.User = &u
	}
	return &c
}
