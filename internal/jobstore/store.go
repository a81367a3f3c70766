package jobstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/mathursrus/LinkedIn-Network/pkg/models"
	"github.com/rs/zerolog/log"
)

var (
	// ErrNotFound is returned for absent keys and for records that cannot be decoded.
	ErrNotFound = errors.New("job record not found")
	// ErrInvalidKey is returned for keys that resolve outside the store root.
	ErrInvalidKey = errors.New("invalid job key")
)

// Store is a key-value store of job records. Keys are the paths produced by
// DeriveKey and double as job ids.
type Store interface {
	Get(ctx context.Context, key string) (*models.JobRecord, error)
	Put(ctx context.Context, key string, rec *models.JobRecord) error
	Exists(ctx context.Context, key string) (bool, error)
	List(ctx context.Context) ([]string, error)
	Root() string
}

// FileStore keeps one JSON file per key under a root directory
type FileStore struct {
	root string
}

// NewFileStore creates a FileStore rooted at dir. The directory is created
// on first write.
func NewFileStore(dir string) *FileStore {
	if dir == "" {
		dir = "cache"
	}
	return &FileStore{root: dir}
}

// Root returns the directory keys are derived under
func (s *FileStore) Root() string {
	return s.root
}

// Key derives the cache key for a query under this store's root.
func (s *FileStore) Key(queryName string, params map[string]string) string {
	return DeriveKey(s.root, queryName, params)
}

// Get loads the record at key. A malformed file is reported as ErrNotFound
// so the caller re-runs the query instead of failing.
func (s *FileStore) Get(ctx context.Context, key string) (*models.JobRecord, error) {
	p, err := s.resolve(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read job record: %w", err)
	}

	var rec models.JobRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		log.Warn().
			Str("component", "cache").
			Str("key", key).
			Err(err).
			Msg("Ignoring malformed job record")
		return nil, ErrNotFound
	}

	return &rec, nil
}

// Put overwrites the record at key. The write goes through a temp file and
// rename so readers never see a partial record.
func (s *FileStore) Put(ctx context.Context, key string, rec *models.JobRecord) error {
	if rec == nil {
		return fmt.Errorf("job record is nil")
	}
	p, err := s.resolve(key)
	if err != nil {
		return err
	}

	data, err := rec.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode job record: %w", err)
	}

	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".job-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write job record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close job record: %w", err)
	}
	if err := os.Rename(tmpName, p); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace job record: %w", err)
	}

	log.Debug().
		Str("component", "cache").
		Str("key", key).
		Str("status", string(rec.Status)).
		Msg("Job record saved")
	return nil
}

// Exists reports whether a file is present at key, whether or not it decodes.
func (s *FileStore) Exists(ctx context.Context, key string) (bool, error) {
	p, err := s.resolve(key)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(p)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// List returns every key in the store
func (s *FileStore) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}

	root := filepath.ToSlash(s.root)
	keys := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		keys = append(keys, path.Join(root, entry.Name()))
	}
	return keys, nil
}

// resolve maps a key to a file path and rejects keys outside the root.
func (s *FileStore) resolve(key string) (string, error) {
	if key == "" || filepath.Ext(key) != ".json" {
		return "", ErrInvalidKey
	}

	p := filepath.Clean(filepath.FromSlash(key))
	rootAbs, err := filepath.Abs(s.root)
	if err != nil {
		return "", err
	}
	pAbs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}

	rel, err := filepath.Rel(rootAbs, pAbs)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") || strings.ContainsRune(rel, filepath.Separator) {
		return "", ErrInvalidKey
	}
	return p, nil
}

// IsStale reports whether a processing record has gone without an update for
// longer than ttl. A zero ttl disables staleness.
func IsStale(rec *models.JobRecord, ttl time.Duration, now time.Time) bool {
	if rec == nil || rec.Status != models.StatusProcessing || ttl <= 0 {
		return false
	}
	if rec.Timestamp.IsZero() {
		return true
	}
	return now.Sub(rec.Timestamp) > ttl
}
