// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package object

import (
	"context"
	"time"
)

// Object is a mirrored PeeringDB object. The payload is stored verbatim;
// only id and updated are ever interpreted locally.
type Object struct {
	Resource string `gorm:"primaryKey;index:idx_objects_resource_updated,priority:1"`
	ObjID    int64  `gorm:"primaryKey"`
	Updated  string `gorm:"index:idx_objects_resource_updated,priority:2,sort:desc;not null"`
	Payload  []byte `gorm:"type:jsonb; not null"`
}

func (Object) TableName() string {
	return "objects"
}

// Query filters a List call. Since is compared against the stored updated
// string with a strict greater-than; zero values mean "no filter".
type Query struct {
	ID     int64
	HasID  bool
	Since  string
	Limit  int
	Offset int
}

type Store interface {
	UpsertBatch(ctx context.Context, objs []Object) error
	Get(ctx context.Context, resource string, id int64) (*Object, error)
	List(ctx context.Context, resource string, q Query) ([]Object, error)
	// MaxUpdated returns the latest updated value for the resource, or ""
	// when the resource has no rows.
	MaxUpdated(ctx context.Context, resource string) (string, error)
}

// updatedLayout is the wire format for the updated column. It is fixed
// width and UTC-only so that string comparison orders the same way time
// does; the store's since filter depends on that.
const updatedLayout = "2006-01-02T15:04:05Z"

// EpochToUpdated converts Unix seconds to the stored updated format.
func EpochToUpdated(epoch int64) string {
	return time.Unix(epoch, 0).UTC().Format(updatedLayout)
}

// UpdatedToEpoch parses a stored updated value back to Unix seconds.
func UpdatedToEpoch(updated string) (int64, error) {
	t, err := time.Parse(time.RFC3339, updated)
	if err != nil {
		return 0, err
	}
	return t.Unix(), nil
}
