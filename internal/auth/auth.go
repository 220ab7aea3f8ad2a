// Package auth keeps the session token and logged-in user id.
//
// The Service is what the engine and the HTTP client read from. Its values
// survive restarts when backed by the SQLite session table.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/roach88/presenter/internal/store"
)

// Session keys.
const (
	KeyToken  = "token"
	KeyUserID = "user_id"
)

// TokenStore persists session values.
type TokenStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Clear(ctx context.Context) error
}

// Service caches the session in memory and writes through to a TokenStore.
type Service struct {
	mu     sync.RWMutex
	store  TokenStore
	token  string
	userID int64
}

// NewService loads any persisted session from ts.
func NewService(ctx context.Context, ts TokenStore) (*Service, error) {
	s := &Service{store: ts}

	token, ok, err := ts.Get(ctx, KeyToken)
	if err != nil {
		return nil, fmt.Errorf("load token: %w", err)
	}
	if ok {
		s.token = token
	}

	raw, ok, err := ts.Get(ctx, KeyUserID)
	if err != nil {
		return nil, fmt.Errorf("load user id: %w", err)
	}
	if ok {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("load user id %q: %w", raw, err)
		}
		s.userID = id
	}
	return s, nil
}

// NewMemoryService returns a service with no persistence.
func NewMemoryService() *Service {
	return &Service{store: NewMemoryStore()}
}

func (s *Service) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Service) UserID() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

// IsAuthenticated reports whether a token is present.
func (s *Service) IsAuthenticated() bool {
	return s.Token() != ""
}

func (s *Service) SetToken(ctx context.Context, token string) error {
	if err := s.store.Set(ctx, KeyToken, token); err != nil {
		return fmt.Errorf("set token: %w", err)
	}
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return nil
}

func (s *Service) SetUserID(ctx context.Context, id int64) error {
	if err := s.store.Set(ctx, KeyUserID, strconv.FormatInt(id, 10)); err != nil {
		return fmt.Errorf("set user id: %w", err)
	}
	s.mu.Lock()
	s.userID = id
	s.mu.Unlock()
	return nil
}

// Logout forgets the token and user id.
func (s *Service) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.userID = 0
	s.mu.Unlock()
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// MemoryStore is an in-process TokenStore.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: map[string]string{}}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values = map[string]string{}
	return nil
}

// SQLiteStore keeps the session in the store's session table.
type SQLiteStore struct {
	db *store.Store
}

func NewSQLiteStore(db *store.Store) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.db.GetSession(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key, value string) error {
	return s.db.SetSession(ctx, key, value)
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	return s.db.ClearSession(ctx)
}
