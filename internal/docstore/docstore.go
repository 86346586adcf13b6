// Package docstore is a small document-database abstraction: named
// collections of schema-less documents with point reads, equality queries,
// single-field ordering and bounded batch writes.
//
// Three backends implement Store:
//
//   - SQLStore keeps documents as JSON in a single gorm-managed SQLite table.
//   - FirestoreStore talks to Cloud Firestore.
//   - MemoryStore keeps everything in process, for tests and demos.
//
// # Usage
//
//	store := docstore.NewSQLStore(db)
//	id, err := store.Add(ctx, "visits", docstore.Document{"userId": "u1", "rating": 5})
//	snaps, err := store.Query(ctx, docstore.Query{
//		Collection: "visits",
//		Filters:    []docstore.Filter{docstore.Where("userId", "u1")},
//	})
package docstore

import (
	"context"
	"regexp"

	"github.com/pkg/errors"
)

// MaxBatchSize is the largest number of writes a single batch may commit.
const MaxBatchSize = 500

var (
	ErrNotFound      = errors.New("document not found")
	ErrBatchTooLarge = errors.New("batch exceeds maximum size")
	ErrInvalidField  = errors.New("invalid field name")
)

// Document is the raw, loosely typed body of a stored document.
type Document map[string]any

// Snapshot is a document read back from a store together with its key.
type Snapshot struct {
	ID   string
	Data Document
}

// Filter matches documents whose Field equals Value.
type Filter struct {
	Field string
	Value any
}

// Where builds an equality filter.
func Where(field string, value any) Filter {
	return Filter{Field: field, Value: value}
}

type Query struct {
	Collection string
	Filters    []Filter
	OrderBy    string // empty means store order
	Desc       bool
	Limit      int // 0 means unlimited
}

// Store is implemented by every backend.
type Store interface {
	// Add stores doc under a store-generated key and returns the key.
	Add(ctx context.Context, collection string, doc Document) (string, error)
	// Set creates or fully replaces the document stored under id.
	Set(ctx context.Context, collection, id string, doc Document) error
	// Get returns ErrNotFound when no document is stored under id.
	Get(ctx context.Context, collection, id string) (*Snapshot, error)
	// Update merges fields into an existing document. Returns ErrNotFound
	// when the document does not exist.
	Update(ctx context.Context, collection, id string, fields Document) error
	// Delete removes a document. Deleting a missing document is not an error.
	Delete(ctx context.Context, collection, id string) error
	Query(ctx context.Context, q Query) ([]Snapshot, error)
	NewBatch() Batch
	Ping(ctx context.Context) error
	Close() error
}

// Batch stages writes that are applied together on Commit.
type Batch interface {
	// Create stages a new document and returns the key it will be stored under.
	Create(collection string, doc Document) string
	Set(collection, id string, doc Document)
	Delete(collection, id string)
	Len() int
	Commit(ctx context.Context) error
}

var fieldPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func validateQuery(q Query) error {
	if q.Collection == "" {
		return errors.New("query collection is required")
	}
	for _, f := range q.Filters {
		if !fieldPattern.MatchString(f.Field) {
			return errors.Wrapf(ErrInvalidField, "filter %q", f.Field)
		}
	}
	if q.OrderBy != "" && !fieldPattern.MatchString(q.OrderBy) {
		return errors.Wrapf(ErrInvalidField, "order by %q", q.OrderBy)
	}
	return nil
}

type opKind int

const (
	opSet opKind = iota
	opDelete
)

// batchOp is a staged write shared by the SQL and in-memory batches.
type batchOp struct {
	kind       opKind
	collection string
	id         string
	doc        Document
}

func copyDocument(doc Document) Document {
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}
