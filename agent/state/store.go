package state

import (
	"context"
	"errors"
	"strings"
	"sync"
)

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrInvalidRecord  = errors.New("record name is empty")
)

// Record names used by the conversation memory.
const (
	RecordConversations = "conversations"
	RecordUserProfiles  = "user_profiles"
)

// RecordStore persists whole named JSON documents. Load returns
// ErrRecordNotFound when nothing was saved under name yet.
type RecordStore interface {
	Load(ctx context.Context, name string) ([]byte, error)
	Save(ctx context.Context, name string, payload []byte) error
	Delete(ctx context.Context, name string) error
}

func validName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", ErrInvalidRecord
	}
	return trimmed, nil
}

// MemoryStore keeps records in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string][]byte
}

var _ RecordStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string][]byte, 2)}
}

func (s *MemoryStore) Load(_ context.Context, name string) ([]byte, error) {
	key, err := validName(name)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	payload, ok := s.records[key]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return append([]byte(nil), payload...), nil
}

func (s *MemoryStore) Save(_ context.Context, name string, payload []byte) error {
	key, err := validName(name)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key] = append([]byte(nil), payload...)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, name string) error {
	key, err := validName(name)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
	return nil
}
