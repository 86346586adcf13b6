package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Record is the row behind SQLStore: one JSON document per (collection, id).
type Record struct {
	Collection string         `gorm:"primaryKey;size:64"`
	ID         string         `gorm:"primaryKey;size:64"`
	Data       datatypes.JSON `gorm:"not null"`
	CreatedAt  time.Time      `gorm:"index"`
	UpdatedAt  time.Time
}

func (Record) TableName() string {
	return "documents"
}

// SQLStore stores documents in a relational database through gorm.
// Time values are written in TimeLayout so they compare and sort as strings.
type SQLStore struct {
	db *gorm.DB
}

// NewSQLStore wraps an open gorm connection. The documents table must have
// been migrated (database.NewDatabase does this). The connection stays owned
// by the caller; Close does not close it.
func NewSQLStore(db *gorm.DB) *SQLStore {
	return &SQLStore{db: db}
}

func newRecord(collection, id string, doc Document) (*Record, error) {
	data, err := json.Marshal(encodeDocument(doc))
	if err != nil {
		return nil, errors.Wrapf(err, "encode %s/%s", collection, id)
	}
	return &Record{Collection: collection, ID: id, Data: datatypes.JSON(data)}, nil
}

func (r *Record) snapshot() (Snapshot, error) {
	doc := Document{}
	if err := json.Unmarshal(r.Data, &doc); err != nil {
		return Snapshot{}, errors.Wrapf(err, "decode %s/%s", r.Collection, r.ID)
	}
	return Snapshot{ID: r.ID, Data: doc}, nil
}

func upsert(tx *gorm.DB, rec *Record) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "collection"}, {Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(rec).Error
}

func (s *SQLStore) Add(ctx context.Context, collection string, doc Document) (string, error) {
	id := uuid.NewString()
	rec, err := newRecord(collection, id, doc)
	if err != nil {
		return "", err
	}
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return "", errors.Wrapf(err, "add to %s", collection)
	}
	return id, nil
}

func (s *SQLStore) Set(ctx context.Context, collection, id string, doc Document) error {
	rec, err := newRecord(collection, id, doc)
	if err != nil {
		return err
	}
	return errors.Wrapf(upsert(s.db.WithContext(ctx), rec), "set %s/%s", collection, id)
}

func (s *SQLStore) get(tx *gorm.DB, collection, id string) (*Record, error) {
	var rec Record
	err := tx.Where("collection = ? AND id = ?", collection, id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get %s/%s", collection, id)
	}
	return &rec, nil
}

func (s *SQLStore) Get(ctx context.Context, collection, id string) (*Snapshot, error) {
	rec, err := s.get(s.db.WithContext(ctx), collection, id)
	if err != nil {
		return nil, err
	}
	snap, err := rec.snapshot()
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

func (s *SQLStore) Update(ctx context.Context, collection, id string, fields Document) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec, err := s.get(tx, collection, id)
		if err != nil {
			return err
		}
		snap, err := rec.snapshot()
		if err != nil {
			return err
		}
		for k, v := range encodeDocument(fields) {
			snap.Data[k] = v
		}
		updated, err := newRecord(collection, id, snap.Data)
		if err != nil {
			return err
		}
		return tx.Model(&Record{}).
			Where("collection = ? AND id = ?", collection, id).
			Update("data", updated.Data).Error
	})
}

func (s *SQLStore) Delete(ctx context.Context, collection, id string) error {
	err := s.db.WithContext(ctx).
		Where("collection = ? AND id = ?", collection, id).
		Delete(&Record{}).Error
	return errors.Wrapf(err, "delete %s/%s", collection, id)
}

func (s *SQLStore) Query(ctx context.Context, q Query) ([]Snapshot, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}

	tx := s.db.WithContext(ctx).Where("collection = ?", q.Collection)
	for _, f := range q.Filters {
		tx = tx.Where(datatypes.JSONQuery("data").Equals(encodeValue(f.Value), f.Field))
	}
	if q.OrderBy != "" {
		dir := "ASC"
		if q.Desc {
			dir = "DESC"
		}
		tx = tx.Order(fmt.Sprintf("json_extract(data, '$.%s') %s", q.OrderBy, dir))
	}
	tx = tx.Order("created_at").Order("id")
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	var records []Record
	if err := tx.Find(&records).Error; err != nil {
		return nil, errors.Wrapf(err, "query %s", q.Collection)
	}

	out := make([]Snapshot, 0, len(records))
	for i := range records {
		snap, err := records[i].snapshot()
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, nil
}

func (s *SQLStore) NewBatch() Batch {
	return &sqlBatch{store: s}
}

func (s *SQLStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *SQLStore) Close() error { return nil }

// sqlBatch applies its staged writes in one transaction.
type sqlBatch struct {
	store *SQLStore
	ops   []batchOp
}

func (b *sqlBatch) Create(collection string, doc Document) string {
	id := uuid.NewString()
	b.Set(collection, id, doc)
	return id
}

func (b *sqlBatch) Set(collection, id string, doc Document) {
	b.ops = append(b.ops, batchOp{kind: opSet, collection: collection, id: id, doc: copyDocument(doc)})
}

func (b *sqlBatch) Delete(collection, id string) {
	b.ops = append(b.ops, batchOp{kind: opDelete, collection: collection, id: id})
}

func (b *sqlBatch) Len() int { return len(b.ops) }

func (b *sqlBatch) Commit(ctx context.Context) error {
	if len(b.ops) > MaxBatchSize {
		return ErrBatchTooLarge
	}
	err := b.store.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, op := range b.ops {
			switch op.kind {
			case opSet:
				rec, err := newRecord(op.collection, op.id, op.doc)
				if err != nil {
					return err
				}
				if err := upsert(tx, rec); err != nil {
					return err
				}
			case opDelete:
				if err := tx.Where("collection = ? AND id = ?", op.collection, op.id).Delete(&Record{}).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "commit batch")
	}
	b.ops = nil
	return nil
}
