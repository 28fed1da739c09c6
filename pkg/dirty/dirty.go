// Package dirty tracks which source files changed since the last
// analysis run. Each tracked file carries a sha256 content hash; a file
// whose hash differs from the recorded one is dirty and needs
// re-analysis. The tracker snapshot persists across runs so repeated
// invocations only surface files that actually changed.
package dirty

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

const (
	// DefaultCacheDir is the directory where the tracker snapshot lives.
	DefaultCacheDir = ".gcx/cache"
	// DefaultCacheFile is the snapshot file name.
	DefaultCacheFile = "dirty.msgpack"
	// SnapshotVersion stamps the snapshot format. A snapshot written by
	// an incompatible version is discarded on load.
	SnapshotVersion = 1
)

// fileState holds the tracked state of a single file.
type fileState struct {
	Path     string `msgpack:"path"`
	Hash     string `msgpack:"hash"`
	IsDirty  bool   `msgpack:"is_dirty"`
	LastSeen int64  `msgpack:"last_seen"`
}

// snapshotData is the on-disk snapshot format.
type snapshotData struct {
	Version int                  `msgpack:"version"`
	Files   map[string]fileState `msgpack:"files"`
}

// Tracker records file content hashes and dirty flags.
type Tracker struct {
	mu        sync.RWMutex
	files     map[string]fileState
	cacheDir  string
	cacheFile string
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithCacheDir sets the directory for the snapshot file.
func WithCacheDir(dir string) Option {
	return func(t *Tracker) {
		t.cacheDir = dir
	}
}

// WithCacheFile sets the snapshot file name.
func WithCacheFile(name string) Option {
	return func(t *Tracker) {
		t.cacheFile = name
	}
}

// New creates an empty Tracker.
func New(opts ...Option) *Tracker {
	t := &Tracker{
		files:     make(map[string]fileState),
		cacheDir:  DefaultCacheDir,
		cacheFile: DefaultCacheFile,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// NewFromCache creates a Tracker and loads the persisted snapshot if
// one exists. A missing snapshot is not an error.
func NewFromCache(opts ...Option) (*Tracker, error) {
	t := New(opts...)
	if err := t.Load(); err != nil {
		return nil, err
	}
	return t, nil
}

// computeHash returns the sha256 hex digest of the file's content.
func computeHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash file: %w", err)
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// MarkDirty records the file's current hash and flags it dirty.
func (t *Tracker) MarkDirty(path string) error {
	hash, err := computeHash(path)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.files[path] = fileState{
		Path:     path,
		Hash:     hash,
		IsDirty:  true,
		LastSeen: time.Now().Unix(),
	}
	return nil
}

// IsDirty reports whether the file is flagged dirty.
func (t *Tracker) IsDirty(path string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	state, ok := t.files[path]
	return ok && state.IsDirty
}

// GetDirtyFiles returns the sorted paths of all dirty files.
func (t *Tracker) GetDirtyFiles() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var paths []string
	for path, state := range t.files {
		if state.IsDirty {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)
	return paths
}

// ClearDirty clears the dirty flag on the given files. An empty slice
// clears every tracked file.
func (t *Tracker) ClearDirty(paths []string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(paths) == 0 {
		for path, state := range t.files {
			state.IsDirty = false
			t.files[path] = state
		}
		return
	}

	for _, path := range paths {
		if state, ok := t.files[path]; ok {
			state.IsDirty = false
			t.files[path] = state
		}
	}
}

// Count returns the number of dirty files.
func (t *Tracker) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	count := 0
	for _, state := range t.files {
		if state.IsDirty {
			count++
		}
	}
	return count
}

// TotalCount returns the number of tracked files, dirty or not.
func (t *Tracker) TotalCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.files)
}

// GetHash returns the recorded hash for a tracked file.
func (t *Tracker) GetHash(path string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	state, ok := t.files[path]
	if !ok {
		return "", false
	}
	return state.Hash, true
}

// Remove drops a file from tracking.
func (t *Tracker) Remove(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.files, path)
}

// Clear drops all tracked files.
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.files = make(map[string]fileState)
}

// CheckAndMark compares the file's current content against the
// recorded hash. A new or changed file is flagged dirty and true is
// returned; an unchanged file has its dirty flag cleared and false is
// returned.
func (t *Tracker) CheckAndMark(path string) (bool, error) {
	hash, err := computeHash(path)
	if err != nil {
		return false, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	state, ok := t.files[path]
	if ok && state.Hash == hash {
		state.IsDirty = false
		state.LastSeen = time.Now().Unix()
		t.files[path] = state
		return false, nil
	}

	t.files[path] = fileState{
		Path:     path,
		Hash:     hash,
		IsDirty:  true,
		LastSeen: time.Now().Unix(),
	}
	return true, nil
}

// cachePath returns the full path of the snapshot file.
func (t *Tracker) cachePath() string {
	return filepath.Join(t.cacheDir, t.cacheFile)
}

// Save writes the snapshot to the configured cache path, creating the
// directory if needed.
func (t *Tracker) Save() error {
	if err := os.MkdirAll(t.cacheDir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	f, err := os.Create(t.cachePath())
	if err != nil {
		return fmt.Errorf("failed to create snapshot file: %w", err)
	}
	defer f.Close()

	return t.SaveTo(f)
}

// Load reads the snapshot from the configured cache path. A missing
// snapshot leaves the tracker empty and is not an error.
func (t *Tracker) Load() error {
	f, err := os.Open(t.cachePath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open snapshot file: %w", err)
	}
	defer f.Close()

	return t.LoadFrom(f)
}

// SaveTo writes the snapshot to the given writer.
func (t *Tracker) SaveTo(w io.Writer) error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	data := snapshotData{
		Version: SnapshotVersion,
		Files:   t.files,
	}
	if err := msgpack.NewEncoder(w).Encode(&data); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return nil
}

// LoadFrom reads a snapshot from the given reader, replacing the
// tracker's state. A snapshot with an unexpected version is discarded
// and the tracker starts empty.
func (t *Tracker) LoadFrom(r io.Reader) error {
	var data snapshotData
	if err := msgpack.NewDecoder(r).Decode(&data); err != nil {
		return fmt.Errorf("failed to decode snapshot: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if data.Version != SnapshotVersion {
		t.files = make(map[string]fileState)
		return nil
	}

	t.files = data.Files
	if t.files == nil {
		t.files = make(map[string]fileState)
	}
	return nil
}
