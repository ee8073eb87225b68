// Package session holds the bearer token of the signed-in user and keeps it
// in durable storage across runs.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/oauth2"

	"taskctl/internal/service"
)

// TokenKey is the fixed storage key of the session token.
const TokenKey = "token"

// Storage is durable key-value storage for session state.
type Storage interface {
	// Read returns the stored value, or fs.ErrNotExist.
	Read(key string) ([]byte, error)
	Write(key string, data []byte) error
	// Remove deletes the value. Removing a missing key is not an error.
	Remove(key string) error
}

// Store holds the current session token.
// It satisfies oauth2.TokenSource so HTTP transports read the live token.
type Store struct {
	mu      sync.RWMutex
	storage Storage
	token   *oauth2.Token
}

// Open creates a Store and restores any previously persisted token.
// A corrupt stored token is treated as no session.
func Open(storage Storage) (*Store, error) {
	s := &Store{storage: storage}

	data, err := storage.Read(TokenKey)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err == nil && tok.AccessToken != "" {
		s.token = &tok
	}
	return s, nil
}

// Get returns the current access token, if any.
func (s *Store) Get() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == nil {
		return "", false
	}
	return s.token.AccessToken, true
}

// Set persists the token and makes it current.
// The token only becomes current once it is persisted.
func (s *Store) Set(tok *oauth2.Token) error {
	if tok == nil || tok.AccessToken == "" {
		return errors.New("empty token")
	}
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return err
	}
	if err := s.storage.Write(TokenKey, data); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	s.mu.Lock()
	s.token = tok
	s.mu.Unlock()
	return nil
}

// SetAccessToken stores a bare bearer access token.
func (s *Store) SetAccessToken(accessToken string) error {
	return s.Set(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
}

// Clear removes the session from memory and storage.
func (s *Store) Clear() error {
	s.mu.Lock()
	s.token = nil
	s.mu.Unlock()

	if err := s.storage.Remove(TokenKey); err != nil {
		return fmt.Errorf("failed to remove session: %w", err)
	}
	return nil
}

// Token implements oauth2.TokenSource.
func (s *Store) Token() (*oauth2.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == nil {
		return nil, fmt.Errorf("%w: not logged in", service.ErrUnauthorized)
	}
	tok := *s.token
	return &tok, nil
}

// FileStorage stores each key as a file under Dir.
type FileStorage struct {
	Dir string
}

// NewFileStorage returns storage rooted at dir.
func NewFileStorage(dir string) *FileStorage {
	return &FileStorage{Dir: dir}
}

// Read implements Storage.
func (f *FileStorage) Read(key string) ([]byte, error) {
	return os.ReadFile(f.path(key))
}

// Write implements Storage. Files are written with mode 0600.
func (f *FileStorage) Write(key string, data []byte) error {
	if err := os.MkdirAll(f.Dir, 0700); err != nil {
		return err
	}
	return os.WriteFile(f.path(key), data, 0600)
}

// Remove implements Storage.
func (f *FileStorage) Remove(key string) error {
	err := os.Remove(f.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Path returns the file backing key.
func (f *FileStorage) Path(key string) string {
	return f.path(key)
}

func (f *FileStorage) path(key string) string {
	return filepath.Join(f.Dir, key)
}

// MemoryStorage is in-process Storage for tests and ephemeral sessions.
type MemoryStorage struct {
	mu   sync.Mutex
	data map[string][]byte
}

// NewMemoryStorage returns empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: make(map[string][]byte)}
}

// Read implements Storage.
func (m *MemoryStorage) Read(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return append([]byte(nil), v...), nil
}

// Write implements Storage.
func (m *MemoryStorage) Write(key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), data...)
	return nil
}

// Remove implements Storage.
func (m *MemoryStorage) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
