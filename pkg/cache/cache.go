// Package cache provides LRU caching of per-file analysis reports with disk
// persistence. Entries are validated on lookup against the content digest and
// the analysis option fingerprint recorded when they were stored, so edited
// files and changed settings read as misses instead of stale hits.
package cache

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/l3aro/go-complexity/pkg/report"
)

// FormatVersion stamps the on-disk layout. A cache file written by a
// different version is discarded on load instead of being misread.
const FormatVersion = 1

// ErrKeyNotFound is returned when a key is not found in the cache.
var ErrKeyNotFound = errors.New("key not found")

// Entry represents a cached per-file report with validation metadata.
type Entry struct {
	Key         string      `msgpack:"key"`         // file path as given to the analyzer
	Digest      string      `msgpack:"digest"`      // content digest at analysis time
	Fingerprint string      `msgpack:"fingerprint"` // analysis option fingerprint
	File        report.File `msgpack:"file"`
	AccessedAt  time.Time   `msgpack:"accessed_at"`
	CreatedAt   time.Time   `msgpack:"created_at"`
}

// LRUCache is an in-memory LRU cache of per-file reports.
type LRUCache struct {
	mu        sync.RWMutex
	items     map[string]*listItem
	lru       *list // doubly-linked list (most recent at front)
	maxSize   int
	hitCount  int64
	missCount int64
	onEvict   func(key string)
}

// listItem is an item in the doubly-linked list.
type listItem struct {
	Entry
	prev *listItem
	next *listItem
}

// list represents a doubly-linked list.
type list struct {
	head *listItem // most recently accessed
	tail *listItem // least recently accessed
	len  int
}

// newList creates a new doubly-linked list.
func newList() *list {
	return &list{}
}

// moveToFront moves an item to the front (most recently used).
func (l *list) moveToFront(item *listItem) {
	if item == l.head {
		return
	}

	// Remove from current position
	if item.prev != nil {
		item.prev.next = item.next
	}
	if item.next != nil {
		item.next.prev = item.prev
	}
	if item == l.tail {
		l.tail = item.prev
	}

	// Add to front
	item.prev = nil
	item.next = l.head
	if l.head != nil {
		l.head.prev = item
	}
	l.head = item

	if l.tail == nil {
		l.tail = item
	}
}

// removeBack removes and returns the least recently used item.
func (l *list) removeBack() *listItem {
	if l.tail == nil {
		return nil
	}

	item := l.tail
	l.tail = item.prev
	if l.tail != nil {
		l.tail.next = nil
	} else {
		l.head = nil
	}
	l.len--
	return item
}

// pushFront adds an item to the front of the list.
func (l *list) pushFront(item *listItem) {
	item.next = l.head
	item.prev = nil
	if l.head != nil {
		l.head.prev = item
	}
	l.head = item
	if l.tail == nil {
		l.tail = item
	}
	l.len++
}

// remove unlinks an item from the list.
func (l *list) remove(item *listItem) {
	if item.prev != nil {
		item.prev.next = item.next
	} else {
		l.head = item.next
	}
	if item.next != nil {
		item.next.prev = item.prev
	} else {
		l.tail = item.prev
	}
	l.len--
}

// Options configures the LRU cache.
type Options struct {
	// MaxSize is the maximum number of entries.
	// 0 means unlimited.
	MaxSize int

	// OnEvict is called when an entry is evicted.
	OnEvict func(key string)
}

// New creates a new LRU cache with the given options.
func New(opts Options) *LRUCache {
	c := &LRUCache{
		items:   make(map[string]*listItem),
		lru:     newList(),
		maxSize: opts.MaxSize,
		onEvict: opts.OnEvict,
	}
	return c
}

// Get retrieves the raw entry stored under key, valid or not.
func (c *LRUCache) Get(key string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, found := c.items[key]
	if !found {
		c.missCount++
		return Entry{}, false
	}

	// Update access time and move to front
	item.AccessedAt = time.Now()
	c.lru.moveToFront(item)
	c.hitCount++
	return item.Entry, true
}

// Lookup returns the cached report for key when both the content digest and
// the option fingerprint still match. A stale entry counts as a miss and is
// dropped from the cache.
func (c *LRUCache) Lookup(key, digest, fingerprint string) (report.File, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, found := c.items[key]
	if !found {
		c.missCount++
		return report.File{}, false
	}

	if item.Digest != digest || item.Fingerprint != fingerprint {
		c.removeLocked(item)
		c.missCount++
		return report.File{}, false
	}

	item.AccessedAt = time.Now()
	c.lru.moveToFront(item)
	c.hitCount++
	return item.File, true
}

// Set stores the report for key, replacing any previous entry.
func (c *LRUCache) Set(key, digest, fingerprint string, file report.File) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Check if key already exists
	if item, exists := c.items[key]; exists {
		item.Digest = digest
		item.Fingerprint = fingerprint
		item.File = file
		item.AccessedAt = time.Now()
		c.lru.moveToFront(item)
		return
	}

	// Create new entry
	item := &listItem{
		Entry: Entry{
			Key:         key,
			Digest:      digest,
			Fingerprint: fingerprint,
			File:        file,
			AccessedAt:  time.Now(),
			CreatedAt:   time.Now(),
		},
	}

	c.items[key] = item
	c.lru.pushFront(item)

	c.evictIfNeeded()
}

// Delete removes a key from the cache.
func (c *LRUCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, found := c.items[key]
	if !found {
		return
	}
	c.removeLocked(item)
}

// removeLocked unlinks an item and fires the eviction callback.
// The caller holds c.mu.
func (c *LRUCache) removeLocked(item *listItem) {
	c.lru.remove(item)
	delete(c.items, item.Key)

	if c.onEvict != nil {
		c.onEvict(item.Key)
	}
}

// Clear removes all entries from the cache.
func (c *LRUCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*listItem)
	c.lru = newList()
}

// Len returns the number of entries in the cache.
func (c *LRUCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// evictIfNeeded evicts entries if the cache exceeds its limits.
func (c *LRUCache) evictIfNeeded() {
	for c.maxSize > 0 && c.lru.len > c.maxSize {
		item := c.lru.removeBack()
		if item == nil {
			break
		}
		delete(c.items, item.Key)

		if c.onEvict != nil {
			c.onEvict(item.Key)
		}
	}
}

// Stats returns cache statistics.
type Stats struct {
	Length    int   `json:"length"`
	HitCount  int64 `json:"hit_count"`
	MissCount int64 `json:"miss_count"`
}

// Stats returns the current cache statistics.
func (c *LRUCache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{
		Length:    len(c.items),
		HitCount:  c.hitCount,
		MissCount: c.missCount,
	}
}

// HitRate returns the cache hit rate.
func (c *LRUCache) HitRate() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	total := c.hitCount + c.missCount
	if total == 0 {
		return 0
	}
	return float64(c.hitCount) / float64(total)
}

// cacheData is the on-disk layout.
type cacheData struct {
	Version int     `msgpack:"version"`
	Entries []Entry `msgpack:"entries"`
}

// Save persists the cache to a writer using msgpack. Entries are written
// most recent first so a reload preserves the eviction order.
func (c *LRUCache) Save(w io.Writer) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	data := cacheData{
		Version: FormatVersion,
		Entries: make([]Entry, 0, len(c.items)),
	}
	for item := c.lru.head; item != nil; item = item.next {
		data.Entries = append(data.Entries, item.Entry)
	}

	enc := msgpack.NewEncoder(w)
	return enc.Encode(data)
}

// Load restores the cache from a reader using msgpack. A version mismatch
// empties the cache rather than guessing at the old layout.
func (c *LRUCache) Load(r io.Reader) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var data cacheData
	dec := msgpack.NewDecoder(r)
	if err := dec.Decode(&data); err != nil {
		return fmt.Errorf("failed to decode cache: %w", err)
	}

	// Clear existing items
	c.items = make(map[string]*listItem)
	c.lru = newList()

	if data.Version != FormatVersion {
		return nil
	}

	// Restore items, most recent ends up at the front
	for i := len(data.Entries) - 1; i >= 0; i-- {
		entry := data.Entries[i]
		item := &listItem{Entry: entry}
		c.items[entry.Key] = item
		c.lru.pushFront(item)
	}

	return nil
}
