package docstore

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type memCollection struct {
	docs  map[string]Document
	order []string
}

// MemoryStore keeps documents in-process. Query results without an explicit
// order come back in insertion order.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*memCollection
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]*memCollection)}
}

func (m *MemoryStore) collection(name string) *memCollection {
	c, ok := m.collections[name]
	if !ok {
		c = &memCollection{docs: make(map[string]Document)}
		m.collections[name] = c
	}
	return c
}

// put must be called with the write lock held.
func (m *MemoryStore) put(collection, id string, doc Document) {
	c := m.collection(collection)
	if _, exists := c.docs[id]; !exists {
		c.order = append(c.order, id)
	}
	c.docs[id] = copyDocument(doc)
}

// remove must be called with the write lock held.
func (m *MemoryStore) remove(collection, id string) {
	c := m.collection(collection)
	if _, exists := c.docs[id]; !exists {
		return
	}
	delete(c.docs, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

func (m *MemoryStore) Add(_ context.Context, collection string, doc Document) (string, error) {
	id := uuid.NewString()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(collection, id, doc)
	return id, nil
}

func (m *MemoryStore) Set(_ context.Context, collection, id string, doc Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(collection, id, doc)
	return nil
}

func (m *MemoryStore) Get(_ context.Context, collection, id string) (*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.collections[collection]
	if !ok {
		return nil, ErrNotFound
	}
	doc, ok := c.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &Snapshot{ID: id, Data: copyDocument(doc)}, nil
}

func (m *MemoryStore) Update(_ context.Context, collection, id string, fields Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.collection(collection)
	doc, ok := c.docs[id]
	if !ok {
		return errors.Wrapf(ErrNotFound, "%s/%s", collection, id)
	}
	merged := copyDocument(doc)
	for k, v := range fields {
		merged[k] = v
	}
	c.docs[id] = merged
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.remove(collection, id)
	return nil
}

func (m *MemoryStore) Query(_ context.Context, q Query) ([]Snapshot, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}

	m.mu.RLock()
	var out []Snapshot
	if c, ok := m.collections[q.Collection]; ok {
		for _, id := range c.order {
			doc := c.docs[id]
			if matches(doc, q.Filters) {
				out = append(out, Snapshot{ID: id, Data: copyDocument(doc)})
			}
		}
	}
	m.mu.RUnlock()

	if q.OrderBy != "" {
		sort.SliceStable(out, func(i, j int) bool {
			cmp := compareValues(out[i].Data[q.OrderBy], out[j].Data[q.OrderBy])
			if q.Desc {
				return cmp > 0
			}
			return cmp < 0
		})
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func matches(doc Document, filters []Filter) bool {
	for _, f := range filters {
		v, ok := doc[f.Field]
		if !ok || !valuesEqual(v, f.Value) {
			return false
		}
	}
	return true
}

func (m *MemoryStore) NewBatch() Batch {
	return &memoryBatch{store: m}
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) Close() error { return nil }

type memoryBatch struct {
	store *MemoryStore
	ops   []batchOp
}

func (b *memoryBatch) Create(collection string, doc Document) string {
	id := uuid.NewString()
	b.Set(collection, id, doc)
	return id
}

func (b *memoryBatch) Set(collection, id string, doc Document) {
	b.ops = append(b.ops, batchOp{kind: opSet, collection: collection, id: id, doc: copyDocument(doc)})
}

func (b *memoryBatch) Delete(collection, id string) {
	b.ops = append(b.ops, batchOp{kind: opDelete, collection: collection, id: id})
}

func (b *memoryBatch) Len() int { return len(b.ops) }

func (b *memoryBatch) Commit(context.Context) error {
	if len(b.ops) > MaxBatchSize {
		return ErrBatchTooLarge
	}
	b.store.mu.Lock()
	defer b.store.mu.Unlock()
	for _, op := range b.ops {
		switch op.kind {
		case opSet:
			b.store.put(op.collection, op.id, op.doc)
		case opDelete:
			b.store.remove(op.collection, op.id)
		}
	}
	b.ops = nil
	return nil
}
