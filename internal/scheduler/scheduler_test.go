// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package scheduler_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"pdbmirror/internal/object"
	"pdbmirror/internal/scheduler"
	"pdbmirror/internal/syncer"

	"gorm.io/gorm"
)

// mockStore is locked because the scheduler writes from its own goroutine
// while the test polls.
type mockStore struct {
	mu   sync.Mutex
	data map[string]map[int64]object.Object
}

func newMockStore() *mockStore {
	return &mockStore{data: map[string]map[int64]object.Object{}}
}

func (m *mockStore) UpsertBatch(ctx context.Context, objs []object.Object) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range objs {
		if m.data[o.Resource] == nil {
			m.data[o.Resource] = map[int64]object.Object{}
		}
		m.data[o.Resource][o.ObjID] = o
	}
	return nil
}

func (m *mockStore) Get(ctx context.Context, resource string, id int64) (*object.Object, error) {
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStore) List(ctx context.Context, resource string, q object.Query) ([]object.Object, error) {
	return nil, nil
}

func (m *mockStore) MaxUpdated(ctx context.Context, resource string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	max := ""
	for _, o := range m.data[resource] {
		if o.Updated > max {
			max = o.Updated
		}
	}
	return max, nil
}

func (m *mockStore) resources() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

type fakeUpstream struct{}

func (fakeUpstream) FetchSnapshot(ctx context.Context, resource string) ([]json.RawMessage, error) {
	return []json.RawMessage{json.RawMessage(`{"id":1,"updated":"2024-01-01T00:00:00Z"}`)}, nil
}

func (fakeUpstream) FetchPage(ctx context.Context, resource string, since, limit, skip int64) ([]json.RawMessage, error) {
	return nil, nil
}

// The first sync happens on startup, not an interval later.
func TestRunSyncsImmediately(t *testing.T) {
	store := newMockStore()
	engine := syncer.New(store, fakeUpstream{}, 1000)
	sched := scheduler.New(engine, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sched.Run(ctx)
		close(done)
	}()

	deadline := time.After(5 * time.Second)
	for store.resources() < 12 {
		select {
		case <-deadline:
			t.Fatalf("startup sync missing, only %d resources populated", store.resources())
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	<-done
}
