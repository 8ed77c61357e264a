// Package vectorstore is an embedded vector index with named collections,
// metadata filtering and cosine-distance nearest-neighbor queries. Each
// collection is held in memory and snapshotted to disk with encoding/gob;
// ingestion rebuilds a collection wholesale and flushes once at the end.
package vectorstore

import (
	"encoding/gob"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

var (
	ErrNotFound          = errors.New("vectorstore: record not found")
	ErrDimensionMismatch = errors.New("vectorstore: embedding dimension mismatch")
)

// Metadata is the indexed key-value payload of a record. Values are scalars
// (string, bool, int or float64); free text belongs in Document, not here.
type Metadata map[string]any

type Record struct {
	ID        string
	Document  string
	Embedding []float32
	Metadata  Metadata
}

// QueryResult is one nearest-neighbor hit, ordered by ascending Distance.
type QueryResult struct {
	ID       string
	Document string
	Metadata Metadata
	Distance float64
}

func init() {
	// Metadata values travel through an interface field; gob needs the
	// concrete types registered once.
	gob.Register(map[string]any{})
	gob.Register([]any{})
	gob.Register(int(0))
	gob.Register(int64(0))
	gob.Register(float64(0))
	gob.Register(false)
	gob.Register("")
}

// Store manages named collections persisted under a single directory.
type Store struct {
	dir string

	mu          sync.Mutex
	collections map[string]*Collection
}

func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("vectorstore: create dir: %w", err)
	}
	return &Store{
		dir:         dir,
		collections: make(map[string]*Collection),
	}, nil
}

// GetOrCreateCollection returns the named collection, loading a previous
// snapshot from disk if one exists.
func (s *Store) GetOrCreateCollection(name string) (*Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.collections[name]; ok {
		return c, nil
	}

	c := &Collection{
		name:  name,
		path:  s.snapshotPath(name),
		index: make(map[string]int),
	}
	if err := c.load(); err != nil {
		return nil, err
	}
	s.collections[name] = c
	return c, nil
}

// DeleteCollection drops the named collection and its snapshot. Deleting a
// collection that does not exist is not an error; ingestion always drops
// before rebuilding.
func (s *Store) DeleteCollection(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.collections, name)
	if err := os.Remove(s.snapshotPath(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("vectorstore: delete snapshot: %w", err)
	}
	return nil
}

func (s *Store) snapshotPath(name string) string {
	// Collection names are internal constants, but keep the file name safe.
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		default:
			return '_'
		}
	}, name)
	return filepath.Join(s.dir, safe+".gob")
}

// Collection is one named embedding index. A single RWMutex serializes a
// rebuild against concurrent queries: readers see either the pre-drop or the
// partially rebuilt set, never torn state.
type Collection struct {
	name string
	path string

	mu      sync.RWMutex
	records []Record
	index   map[string]int
}

func (c *Collection) Name() string { return c.name }

// Add upserts a record by id. The snapshot on disk is not touched until
// Flush; batch writers flush once after the last Add.
func (c *Collection) Add(rec Record) error {
	if rec.ID == "" {
		return errors.New("vectorstore: record id is required")
	}
	if len(rec.Embedding) == 0 {
		return errors.New("vectorstore: record embedding is required")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.records) > 0 && len(rec.Embedding) != len(c.records[0].Embedding) {
		return ErrDimensionMismatch
	}
	if i, ok := c.index[rec.ID]; ok {
		c.records[i] = rec
		return nil
	}
	c.index[rec.ID] = len(c.records)
	c.records = append(c.records, rec)
	return nil
}

// Get returns the record with the given id.
func (c *Collection) Get(id string) (Record, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i, ok := c.index[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return c.records[i], nil
}

func (c *Collection) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

// Query returns the n nearest records to the embedding, restricted to those
// whose metadata matches where, ordered by ascending cosine distance.
func (c *Collection) Query(embedding []float32, n int, where Where) ([]QueryResult, error) {
	if n <= 0 {
		return nil, nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.records) > 0 && len(embedding) != len(c.records[0].Embedding) {
		return nil, ErrDimensionMismatch
	}

	results := make([]QueryResult, 0, n)
	for _, rec := range c.records {
		if !where.Matches(rec.Metadata) {
			continue
		}
		results = append(results, QueryResult{
			ID:       rec.ID,
			Document: rec.Document,
			Metadata: rec.Metadata,
			Distance: cosineDistance(embedding, rec.Embedding),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})
	if len(results) > n {
		results = results[:n]
	}
	return results, nil
}

// Flush snapshots the collection to disk. Written atomically via a temp
// file so a crash mid-write leaves the previous snapshot intact.
func (c *Collection) Flush() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tmp := c.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("vectorstore: snapshot %s: %w", c.name, err)
	}
	if err := gob.NewEncoder(f).Encode(c.records); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("vectorstore: snapshot %s: %w", c.name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("vectorstore: snapshot %s: %w", c.name, err)
	}
	return os.Rename(tmp, c.path)
}

func (c *Collection) load() error {
	f, err := os.Open(c.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("vectorstore: open snapshot %s: %w", c.name, err)
	}
	defer f.Close()

	var records []Record
	if err := gob.NewDecoder(f).Decode(&records); err != nil {
		return fmt.Errorf("vectorstore: decode snapshot %s: %w", c.name, err)
	}
	c.records = records
	c.index = make(map[string]int, len(records))
	for i, rec := range records {
		c.index[rec.ID] = i
	}
	return nil
}

func cosineDistance(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
