package docstore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/pkg/errors"
	"google.golang.org/api/iterator"
)

// FirestoreStore is the Cloud Firestore backend. Timestamps are stored
// natively; equality filters combined with an order on a different field
// need a composite index, which callers avoid by sorting in process.
type FirestoreStore struct {
	client *firestore.Client
}

func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

func (s *FirestoreStore) Add(ctx context.Context, collection string, doc Document) (string, error) {
	ref := s.client.Collection(collection).NewDoc()
	if _, err := ref.Set(ctx, map[string]any(doc)); err != nil {
		return "", errors.Wrapf(err, "add to %s", collection)
	}
	return ref.ID, nil
}

func (s *FirestoreStore) Set(ctx context.Context, collection, id string, doc Document) error {
	_, err := s.client.Collection(collection).Doc(id).Set(ctx, map[string]any(doc))
	return errors.Wrapf(err, "set %s/%s", collection, id)
}

func (s *FirestoreStore) Get(ctx context.Context, collection, id string) (*Snapshot, error) {
	snap, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		if snap != nil && !snap.Exists() {
			return nil, ErrNotFound
		}
		return nil, errors.Wrapf(err, "get %s/%s", collection, id)
	}
	return &Snapshot{ID: snap.Ref.ID, Data: Document(snap.Data())}, nil
}

func (s *FirestoreStore) Update(ctx context.Context, collection, id string, fields Document) error {
	if _, err := s.Get(ctx, collection, id); err != nil {
		return err
	}
	_, err := s.client.Collection(collection).Doc(id).Set(ctx, map[string]any(fields), firestore.MergeAll)
	return errors.Wrapf(err, "update %s/%s", collection, id)
}

func (s *FirestoreStore) Delete(ctx context.Context, collection, id string) error {
	_, err := s.client.Collection(collection).Doc(id).Delete(ctx)
	return errors.Wrapf(err, "delete %s/%s", collection, id)
}

func (s *FirestoreStore) Query(ctx context.Context, q Query) ([]Snapshot, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}

	query := s.client.Collection(q.Collection).Query
	for _, f := range q.Filters {
		query = query.Where(f.Field, "==", f.Value)
	}
	if q.OrderBy != "" {
		dir := firestore.Asc
		if q.Desc {
			dir = firestore.Desc
		}
		query = query.OrderBy(q.OrderBy, dir)
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var out []Snapshot
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "query %s", q.Collection)
		}
		out = append(out, Snapshot{ID: doc.Ref.ID, Data: Document(doc.Data())})
	}
	return out, nil
}

func (s *FirestoreStore) NewBatch() Batch {
	return &firestoreBatch{client: s.client, batch: s.client.Batch()}
}

// Ping lists at most one collection, which fails fast on bad credentials.
func (s *FirestoreStore) Ping(ctx context.Context) error {
	_, err := s.client.Collections(ctx).Next()
	if err == iterator.Done {
		return nil
	}
	return err
}

func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

type firestoreBatch struct {
	client *firestore.Client
	batch  *firestore.WriteBatch
	n      int
}

func (b *firestoreBatch) Create(collection string, doc Document) string {
	ref := b.client.Collection(collection).NewDoc()
	b.batch.Set(ref, map[string]any(doc))
	b.n++
	return ref.ID
}

func (b *firestoreBatch) Set(collection, id string, doc Document) {
	b.batch.Set(b.client.Collection(collection).Doc(id), map[string]any(doc))
	b.n++
}

func (b *firestoreBatch) Delete(collection, id string) {
	b.batch.Delete(b.client.Collection(collection).Doc(id))
	b.n++
}

func (b *firestoreBatch) Len() int { return b.n }

func (b *firestoreBatch) Commit(ctx context.Context) error {
	if b.n > MaxBatchSize {
		return ErrBatchTooLarge
	}
	if b.n == 0 {
		return nil
	}
	if _, err := b.batch.Commit(ctx); err != nil {
		return errors.Wrap(err, "commit batch")
	}
	b.batch = b.client.Batch()
	b.n = 0
	return nil
}
