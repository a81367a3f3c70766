// Package auth persists the signed-in browser state between runs.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zalando/go-keyring"
)

const (
	// KeyringService is the service name for keyring storage
	KeyringService = "netbuilder"
	// KeyringAccount is the single entry the state is stored under
	KeyringAccount = "browser_state"
	// DefaultStatePath is the per-installation state file
	DefaultStatePath = "browser_state.json"
)

var (
	// ErrNoState is returned when nothing has been saved yet
	ErrNoState = errors.New("no saved auth state")
	// ErrExpired is returned when every saved cookie has expired
	ErrExpired = errors.New("saved auth state expired")
)

// State is the cookie jar of a signed-in browser. The JSON layout matches
// browser storage-state files, so a file written by other tooling loads too.
type State struct {
	Cookies   []Cookie  `json:"cookies"`
	SavedAt   time.Time `json:"saved_at,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// Cookie represents a browser cookie
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
	SameSite string  `json:"sameSite,omitempty"`
}

// Store loads and saves auth state
type Store interface {
	Load() (*State, error)
	Save(state *State) error
	Delete() error
}

// NewStore returns the store for kind ("file" or "keyring"). The keyring
// store keeps the file store as a fallback for hosts without a keyring.
func NewStore(kind, path string) (Store, error) {
	if path == "" {
		path = DefaultStatePath
	}
	file := &FileStore{Path: path}

	switch kind {
	case "", "file":
		return file, nil
	case "keyring":
		if useFileBasedStorage() {
			log.Warn().Str("path", path).Msg("Keyring unavailable, storing auth state in file")
			return file, nil
		}
		return &KeyringStore{Service: KeyringService, Account: KeyringAccount, Fallback: file}, nil
	default:
		return nil, fmt.Errorf("unknown auth store %q", kind)
	}
}

// FileStore keeps the state in a JSON file readable only by its owner
type FileStore struct {
	Path string
}

// Load implements Store
func (f *FileStore) Load() (*State, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoState
		}
		return nil, fmt.Errorf("failed to read auth state: %w", err)
	}
	return decode(data)
}

// Save implements Store
func (f *FileStore) Save(state *State) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize auth state: %w", err)
	}
	if dir := filepath.Dir(f.Path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create auth state directory: %w", err)
		}
	}
	if err := os.WriteFile(f.Path, data, 0600); err != nil {
		return fmt.Errorf("failed to save auth state: %w", err)
	}
	return nil
}

// Delete implements Store
func (f *FileStore) Delete() error {
	if err := os.Remove(f.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete auth state: %w", err)
	}
	return nil
}

// KeyringStore keeps the state in the OS keyring
type KeyringStore struct {
	Service  string
	Account  string
	Fallback *FileStore
}

// Load implements Store
func (k *KeyringStore) Load() (*State, error) {
	data, err := keyring.Get(k.Service, k.Account)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			if k.Fallback != nil {
				return k.Fallback.Load()
			}
			return nil, ErrNoState
		}
		return nil, fmt.Errorf("failed to load from keyring: %w", err)
	}
	return decode([]byte(data))
}

// Save implements Store. States too large for the keyring go to the fallback file.
func (k *KeyringStore) Save(state *State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to serialize auth state: %w", err)
	}

	err = keyring.Set(k.Service, k.Account, string(data))
	if err == nil {
		return nil
	}
	if k.Fallback == nil {
		return fmt.Errorf("failed to save to keyring: %w", err)
	}

	log.Warn().Err(err).Str("path", k.Fallback.Path).Msg("Keyring rejected auth state, using file")
	return k.Fallback.Save(state)
}

// Delete implements Store
func (k *KeyringStore) Delete() error {
	err := keyring.Delete(k.Service, k.Account)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}
	if k.Fallback != nil {
		return k.Fallback.Delete()
	}
	return nil
}

func decode(data []byte) (*State, error) {
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to deserialize auth state: %w", err)
	}
	if !state.ExpiresAt.IsZero() && time.Now().After(state.ExpiresAt) {
		return nil, ErrExpired
	}
	return &state, nil
}

// fileBasedStorageCache holds the result of the keyring probe
var fileBasedStorageCache *bool

// useFileBasedStorage reports whether the keyring is unusable here
// (Codespaces, CI, headless hosts without a secret service).
func useFileBasedStorage() bool {
	if fileBasedStorageCache != nil {
		return *fileBasedStorageCache
	}

	if os.Getenv("CODESPACES") != "" || os.Getenv("CI") != "" {
		result := true
		fileBasedStorageCache = &result
		return true
	}

	testKey := "_test_keyring_access_"
	err := keyring.Set(KeyringService, testKey, "test")
	result := err != nil
	fileBasedStorageCache = &result

	if !result {
		keyring.Delete(KeyringService, testKey)
	}

	return result
}
