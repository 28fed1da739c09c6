package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/l3aro/go-complexity/pkg/metrics"
)

// cacheFileName is the single persistence file inside the cache directory.
const cacheFileName = "reports.msgpack"

// Digest returns the hex content digest used to detect file changes.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Fingerprint condenses the analysis options that change report contents.
// Cached entries made under a different fingerprint are treated as stale.
func Fingerprint(opts metrics.Options) string {
	if opts.CountShortCircuit {
		return "short-circuit"
	}
	return "plain"
}

// Store couples an LRUCache with its location on disk.
type Store struct {
	*LRUCache
	path string
}

// OpenStore loads the persisted cache from dir, creating the directory on
// first use. A missing or corrupt cache file yields an empty store.
func OpenStore(dir string, maxEntries int) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	s := &Store{
		LRUCache: New(Options{MaxSize: maxEntries}),
		path:     filepath.Join(dir, cacheFileName),
	}

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to open cache file: %w", err)
	}
	defer f.Close()

	if err := s.Load(f); err != nil {
		s.Clear()
	}
	return s, nil
}

// Flush writes the current entries back to disk.
func (s *Store) Flush() error {
	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}
	defer f.Close()

	return s.Save(f)
}

// Path returns the on-disk location of the cache file.
func (s *Store) Path() string {
	return s.path
}
