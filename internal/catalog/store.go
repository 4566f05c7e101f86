package catalog

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/coffersTech/objectfilter/filter"
	"github.com/coffersTech/objectfilter/internal/logger"
	"github.com/coffersTech/objectfilter/internal/storage"
	"github.com/coffersTech/objectfilter/wire"
	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

// ErrNotFound is returned when no entry has the requested name.
var ErrNotFound = errors.New("catalog: filter not found")

// Entry is a named, saved filter.
type Entry struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Expression string `json:"expression,omitempty"`
	Filter     []byte `json:"-"`
	Digest     string `json:"digest"`
	SavedAt    int64  `json:"saved_at"`
}

// Store holds named filters and persists them to a filter-set file.
type Store struct {
	mu      sync.RWMutex
	path    string
	entries map[string]*Entry
	dirty   bool
	now     func() time.Time
}

// NewStore creates an empty store that flushes to path.
func NewStore(path string) *Store {
	return &Store{
		path:    path,
		entries: make(map[string]*Entry),
		now:     time.Now,
	}
}

// Open creates a store backed by path, loading it if it exists.
func Open(path string) (*Store, error) {
	s := NewStore(path)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return s, nil
	}

	reader, err := storage.NewSetReader()
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	records, info, err := reader.ReadSet(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}
	for _, rec := range records {
		s.entries[rec.Name] = &Entry{
			ID:         rec.ID,
			Name:       rec.Name,
			Expression: rec.Expression,
			Filter:     rec.Filter,
			Digest:     rec.Digest,
			SavedAt:    rec.SavedAt,
		}
	}
	logger.Get().Debug("catalog loaded", "path", path, "filters", info.Count)
	return s, nil
}

// Digest returns the hex BLAKE2b-256 digest of encoded filter JSON.
func Digest(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Put encodes root and stores it under name. An existing entry keeps its ID.
func (s *Store) Put(name, expression string, root *filter.Node) (Entry, error) {
	if name == "" {
		return Entry{}, errors.New("catalog: empty filter name")
	}
	data, err := wire.Marshal(root)
	if err != nil {
		return Entry{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry := Entry{
		Name:       name,
		Expression: expression,
		Filter:     data,
		Digest:     Digest(data),
		SavedAt:    s.now().UnixNano(),
	}
	// If it already exists, preserve the ID
	if existing, ok := s.entries[name]; ok {
		entry.ID = existing.ID
	} else {
		entry.ID = uuid.NewString()
	}

	s.entries[name] = &entry
	s.dirty = true
	return entry, nil
}

// Get retrieves an entry by name.
func (s *Store) Get(name string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[name]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Node decodes the named filter into a new tree.
func (s *Store) Node(name string) (*filter.Node, error) {
	e, ok := s.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return wire.Unmarshal(e.Filter)
}

// FindByDigest returns the first entry, by name, whose filter has digest.
func (s *Store) FindByDigest(digest string) (Entry, bool) {
	for _, e := range s.List() {
		if e.Digest == digest {
			return e, true
		}
	}
	return Entry{}, false
}

// DuplicateOf returns the first entry, by name, other than name itself whose
// filter has the same digest as the named entry.
func (s *Store) DuplicateOf(name string) (Entry, bool) {
	e, ok := s.Get(name)
	if !ok {
		return Entry{}, false
	}
	for _, other := range s.List() {
		if other.Name != name && other.Digest == e.Digest {
			return other, true
		}
	}
	return Entry{}, false
}

// List returns all entries sorted by name.
func (s *Store) List() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		list = append(list, *e)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

// Delete removes the named entry and reports whether it existed.
func (s *Store) Delete(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[name]; !ok {
		return false
	}
	delete(s.entries, name)
	s.dirty = true
	return true
}

// Prune removes entries saved more than olderThan ago.
func (s *Store) Prune(olderThan time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-olderThan).UnixNano()
	count := 0

	for name, e := range s.entries {
		if e.SavedAt < cutoff {
			delete(s.entries, name)
			count++
		}
	}
	if count > 0 {
		s.dirty = true
	}
	return count
}

// Flush writes the store to its file if anything changed since the last
// load or flush.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	records := make([]storage.Record, 0, len(s.entries))
	for _, e := range s.entries {
		records = append(records, storage.Record{
			ID:         e.ID,
			Name:       e.Name,
			Expression: e.Expression,
			Digest:     e.Digest,
			Filter:     e.Filter,
			SavedAt:    e.SavedAt,
		})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Name < records[j].Name })

	writer, err := storage.NewSetWriter()
	if err != nil {
		return err
	}
	defer writer.Close()

	if err := writer.WriteSet(s.path, records); err != nil {
		return fmt.Errorf("flush catalog %s: %w", s.path, err)
	}
	s.dirty = false
	logger.Get().Debug("catalog flushed", "path", s.path, "filters", len(records))
	return nil
}
