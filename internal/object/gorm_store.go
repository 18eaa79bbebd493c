// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package object

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// upsertBatchSize bounds how many rows go into one INSERT .. ON CONFLICT
// statement. Each row remains individually durable: a failure mid-sync
// loses at most the current chunk, never previously committed ones.
const upsertBatchSize = 50

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db}
}

func (s *GormStore) UpsertBatch(ctx context.Context, objs []Object) error {
	if len(objs) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "resource"}, {Name: "obj_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"updated", "payload"}),
		}).
		CreateInBatches(dedupeByKey(objs), upsertBatchSize).Error
}

// Postgres rejects an ON CONFLICT DO UPDATE statement that touches the same
// row twice, and an upstream page can repeat an id. The last occurrence
// wins.
func dedupeByKey(objs []Object) []Object {
	type key struct {
		resource string
		id       int64
	}
	seen := make(map[key]int, len(objs))
	out := make([]Object, 0, len(objs))
	for _, o := range objs {
		k := key{o.Resource, o.ObjID}
		if i, ok := seen[k]; ok {
			out[i] = o
			continue
		}
		seen[k] = len(out)
		out = append(out, o)
	}
	return out
}

func (s *GormStore) Get(ctx context.Context, resource string, id int64) (*Object, error) {
	var o Object
	err := s.db.WithContext(ctx).
		Where("resource = ? AND obj_id = ?", resource, id).
		First(&o).Error
	return &o, err
}

func (s *GormStore) List(ctx context.Context, resource string, q Query) ([]Object, error) {
	tx := s.db.WithContext(ctx).Where("resource = ?", resource)

	if q.HasID {
		tx = tx.Where("obj_id = ?", q.ID)
	}
	if q.Since != "" {
		// String comparison is intentional: updated is stored in a fixed
		// width UTC format, so lexical order matches time order.
		tx = tx.Where("updated > ?", q.Since)
	}
	if !q.HasID {
		tx = tx.Order("updated DESC")
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	if q.Offset > 0 {
		tx = tx.Offset(q.Offset)
	}

	var out []Object
	err := tx.Find(&out).Error
	return out, err
}

func (s *GormStore) MaxUpdated(ctx context.Context, resource string) (string, error) {
	var max sql.NullString
	err := s.db.WithContext(ctx).Model(&Object{}).
		Where("resource = ?", resource).
		Select("MAX(updated)").
		Scan(&max).Error
	if err != nil {
		return "", err
	}
	if !max.Valid {
		return "", nil
	}
	return max.String, nil
}
