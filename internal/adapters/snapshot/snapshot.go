// Package snapshot is a small diskv-backed key/value store for JSON blobs.
//
// The client keeps its warm-start copy of the event mapping here and the
// reference backend persists its collections here.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/peterbourgon/diskv/v3"
)

// EventsKey is the fixed key of the client event mapping snapshot.
const EventsKey = "calendar-events"

const defaultCacheBytes = 1024 * 1024 // 1MB

// Store reads and writes whole blobs by key.
type Store struct {
	d        *diskv.Diskv
	basePath string
}

// Option configures a Store.
type Option func(*diskv.Options)

// WithCacheSize bounds the in-memory read cache.
func WithCacheSize(bytes uint64) Option {
	return func(o *diskv.Options) {
		o.CacheSizeMax = bytes
	}
}

// Open returns a Store rooted at basePath. The directory is created lazily
// on first write.
func Open(basePath string, opts ...Option) (*Store, error) {
	if basePath == "" {
		return nil, ErrNoPath
	}
	clean := filepath.Clean(basePath)
	o := diskv.Options{
		BasePath:     clean,
		Transform:    flatTransform,
		CacheSizeMax: defaultCacheBytes,
		// Temp files live beside the base dir so Keys never sees them.
		TempDir: filepath.Join(filepath.Dir(clean), "."+filepath.Base(clean)+"-tmp"),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Store{d: diskv.New(o), basePath: clean}, nil
}

func flatTransform(string) []string { return []string{} }

// BasePath returns the directory holding the blobs.
func (s *Store) BasePath() string { return s.basePath }

// Put stores val under key, replacing any previous value.
func (s *Store) Put(key string, val []byte) error {
	if err := s.d.Write(key, val); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWrite, key, err)
	}
	return nil
}

// Get returns the value under key. Missing keys report found == false.
func (s *Store) Get(key string) (val []byte, found bool, err error) {
	val, err = s.d.Read(key)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%w: %s: %w", ErrRead, key, err)
	}
	return val, true, nil
}

// Delete removes key. Missing keys are not an error.
func (s *Store) Delete(key string) error {
	if !s.d.Has(key) {
		return nil
	}
	if err := s.d.Erase(key); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWrite, key, err)
	}
	return nil
}

// SaveJSON encodes v and stores it under key.
func (s *Store) SaveJSON(key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrEncode, key, err)
	}
	return s.Put(key, b)
}

// LoadJSON decodes the value under key into v. It reports false, leaving v
// untouched, when the key is missing.
func (s *Store) LoadJSON(key string, v any) (bool, error) {
	b, found, err := s.Get(key)
	if err != nil || !found {
		return false, err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return false, fmt.Errorf("%w: %s: %w", ErrEncode, key, err)
	}
	return true, nil
}
