package index

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/MrSnakeDoc/tlama/internal/domain"
)

// MemoryIndex provides in-memory item storage.
// It is used when no Redis address is configured, and as a test double.
type MemoryIndex struct {
	mu    sync.RWMutex
	items map[string]domain.Record // URL -> Record
}

// NewMemoryIndex creates a new memory index
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		items: make(map[string]domain.Record),
	}
}

// Exists reports whether an item is stored
func (idx *MemoryIndex) Exists(_ context.Context, url string) (bool, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	_, ok := idx.items[url]
	return ok, nil
}

// Get retrieves a copy of an item record
func (idx *MemoryIndex) Get(_ context.Context, url string) (*domain.Record, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	rec, ok := idx.items[url]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, url)
	}
	out := rec.Clone()
	return &out, nil
}

// Put upserts an item record
func (idx *MemoryIndex) Put(_ context.Context, rec domain.Record) error {
	if strings.TrimSpace(rec.URL) == "" {
		return fmt.Errorf("%w: empty url", domain.ErrInvalidItem)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.items[rec.URL] = rec.Clone()
	return nil
}

// SetFlag updates one annotation of a stored item
func (idx *MemoryIndex) SetFlag(_ context.Context, url string, flag domain.Flag, value bool) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	rec, ok := idx.items[url]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, url)
	}

	annotations, err := rec.Annotations().With(flag, value)
	if err != nil {
		return err
	}
	rec.ApplyAnnotations(annotations)
	idx.items[url] = rec
	return nil
}

// All returns every stored item, ordered by URL
func (idx *MemoryIndex) All(_ context.Context) ([]domain.Record, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	records := make([]domain.Record, 0, len(idx.items))
	for _, rec := range idx.items {
		records = append(records, rec.Clone())
	}
	slices.SortFunc(records, func(a, b domain.Record) int {
		return strings.Compare(a.URL, b.URL)
	})
	return records, nil
}

// Count returns the number of stored items
func (idx *MemoryIndex) Count(_ context.Context) (int, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return len(idx.items), nil
}

// Ping always succeeds
func (idx *MemoryIndex) Ping(_ context.Context) error {
	return nil
}

// Kind names the backend for status output
func (idx *MemoryIndex) Kind() string {
	return "memory"
}
