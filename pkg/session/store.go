package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/avetikov/polisdesk/pkg/domain"
)

// StoredCredentials is the durable projection of a session: the token pair
// and the cached profile, stored and cleared as one record so a token can
// never exist without its paired user.
type StoredCredentials struct {
	AccessToken  string             `json:"access_token"`
	RefreshToken string             `json:"refresh_token"`
	User         domain.UserProfile `json:"user"`
}

// Store persists credentials across process restarts. Implementations treat
// failures as non-fatal: Get returns nil on any read problem and Set/Clear
// errors are logged and swallowed by the controller.
type Store interface {
	// Get returns the stored record, or nil if absent or unreadable.
	Get() *StoredCredentials
	// Set writes the record, replacing any previous one.
	Set(creds StoredCredentials) error
	// Clear removes the record. Clearing an absent record is not an error.
	Clear() error
}

// FileStore keeps the credentials record as a single JSON file.
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by dir/credentials.json.
func NewFileStore(dir string) *FileStore {
	return &FileStore{path: filepath.Join(dir, "credentials.json")}
}

// DefaultCredentialsDir returns ~/.polisdesk, honoring the POLISDESK_HOME
// override.
func DefaultCredentialsDir() (string, error) {
	if dir := os.Getenv("POLISDESK_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".polisdesk"), nil
}

func (s *FileStore) Get() *StoredCredentials {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil
	}
	var creds StoredCredentials
	if err := json.Unmarshal(data, &creds); err != nil {
		// Corrupt record. Treat as absent.
		return nil
	}
	if creds.AccessToken == "" {
		return nil
	}
	return &creds
}

// Set writes the record atomically: serialize to a temp file in the same
// directory, then rename over the target, so readers never see a torn write.
func (s *FileStore) Set(creds StoredCredentials) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("session.FileStore: create dir: %w", err)
	}
	data, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("session.FileStore: marshal: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("session.FileStore: write: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp) //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("session.FileStore: rename: %w", err)
	}
	return nil
}

func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("session.FileStore: remove: %w", err)
	}
	return nil
}

// MemStore is an in-memory Store for tests.
type MemStore struct {
	creds *StoredCredentials
}

func NewMemStore() *MemStore { return &MemStore{} }

func (s *MemStore) Get() *StoredCredentials {
	if s.creds == nil {
		return nil
	}
	c := *s.creds
	return &c
}

func (s *MemStore) Set(creds StoredCredentials) error {
	s.creds = &creds
	return nil
}

func (s *MemStore) Clear() error {
	s.creds = nil
	return nil
}
