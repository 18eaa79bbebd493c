// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package router_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pdbmirror/internal/api/admin"
	"pdbmirror/internal/api/mirror"
	"pdbmirror/internal/object"
	"pdbmirror/internal/router"
	"pdbmirror/internal/syncer"

	"gorm.io/gorm"
)

type mockStore struct {
	data map[string]map[int64]object.Object
}

func newMockStore() *mockStore {
	return &mockStore{data: map[string]map[int64]object.Object{}}
}

func (m *mockStore) UpsertBatch(ctx context.Context, objs []object.Object) error {
	for _, o := range objs {
		if m.data[o.Resource] == nil {
			m.data[o.Resource] = map[int64]object.Object{}
		}
		m.data[o.Resource][o.ObjID] = o
	}
	return nil
}

func (m *mockStore) Get(ctx context.Context, resource string, id int64) (*object.Object, error) {
	o, ok := m.data[resource][id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &o, nil
}

func (m *mockStore) List(ctx context.Context, resource string, q object.Query) ([]object.Object, error) {
	var out []object.Object
	for _, o := range m.data[resource] {
		out = append(out, o)
	}
	return out, nil
}

func (m *mockStore) MaxUpdated(ctx context.Context, resource string) (string, error) {
	max := ""
	for _, o := range m.data[resource] {
		if o.Updated > max {
			max = o.Updated
		}
	}
	return max, nil
}

type fakeUpstream struct{}

func (fakeUpstream) FetchSnapshot(ctx context.Context, resource string) ([]json.RawMessage, error) {
	return []json.RawMessage{json.RawMessage(`{"id":1,"updated":"2024-01-01T00:00:00Z"}`)}, nil
}

func (fakeUpstream) FetchPage(ctx context.Context, resource string, since, limit, skip int64) ([]json.RawMessage, error) {
	return nil, nil
}

// slowUpstream simulates a bootstrap that takes a while to come back.
type slowUpstream struct {
	delay time.Duration
}

func (u slowUpstream) FetchSnapshot(ctx context.Context, resource string) ([]json.RawMessage, error) {
	time.Sleep(u.delay)
	return []json.RawMessage{json.RawMessage(`{"id":1,"updated":"2024-01-01T00:00:00Z"}`)}, nil
}

func (u slowUpstream) FetchPage(ctx context.Context, resource string, since, limit, skip int64) ([]json.RawMessage, error) {
	return nil, nil
}

func newTestRouter(store object.Store) http.Handler {
	engine := syncer.New(store, fakeUpstream{}, 1000)
	return router.New(mirror.NewHandler(store, 250), admin.NewHandler(engine), "hunter2")
}

func TestHealth(t *testing.T) {
	h := newTestRouter(newMockStore())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))

	if rec.Code != 200 || rec.Body.String() != "ok" {
		t.Fatalf("health = %d %q", rec.Code, rec.Body.String())
	}
}

func TestAPIRouting(t *testing.T) {
	store := newMockStore()
	payload := []byte(`{"id":3352,"updated":"2024-01-01T00:00:00Z"}`)
	store.UpsertBatch(context.Background(), []object.Object{
		{Resource: "ix", ObjID: 3352, Updated: "2024-01-01T00:00:00Z", Payload: payload},
	})
	h := newTestRouter(store)

	// single lookup
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/ix/3352", nil))
	if rec.Code != 200 || rec.Body.String() != string(payload) {
		t.Fatalf("lookup = %d %s", rec.Code, rec.Body.String())
	}

	// list
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/ix", nil))
	if rec.Code != 200 {
		t.Fatalf("list = %d", rec.Code)
	}
	var env struct {
		Data []json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil || len(env.Data) != 1 {
		t.Fatalf("list body = %s", rec.Body.String())
	}

	// trailing slash on the list shape
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/ix/", nil))
	if rec.Code != 200 {
		t.Fatalf("list with trailing slash = %d", rec.Code)
	}

	// writes are rejected
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/api/ix", nil))
	if rec.Code != 405 {
		t.Fatalf("POST /api = %d, want 405", rec.Code)
	}
}

func TestAdminSyncAuth(t *testing.T) {
	h := newTestRouter(newMockStore())

	// no token
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/admin/sync", nil))
	if rec.Code != 401 {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	// wrong token
	req := httptest.NewRequest("POST", "/admin/sync", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != 401 {
		t.Fatalf("expected 401 with wrong token, got %d", rec.Code)
	}
}

func TestAdminSync(t *testing.T) {
	store := newMockStore()
	h := newTestRouter(store)

	req := httptest.NewRequest("POST", "/admin/sync?resource=net", nil)
	req.Header.Set("Authorization", "Bearer hunter2")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var result syncer.RunResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if len(result.Synced) != 1 || result.Synced[0].Imported != 1 {
		t.Fatalf("summary = %+v", result)
	}
	if len(store.data["net"]) != 1 {
		t.Fatal("sync did not reach the store")
	}
}

// A long sync must not lose its summary to the server's write deadline,
// which is armed before the handler runs.
func TestAdminSyncOutlivesWriteTimeout(t *testing.T) {
	store := newMockStore()
	engine := syncer.New(store, slowUpstream{delay: 300 * time.Millisecond}, 1000)
	h := router.New(mirror.NewHandler(store, 250), admin.NewHandler(engine), "hunter2")

	srv := httptest.NewUnstartedServer(h)
	srv.Config.WriteTimeout = 100 * time.Millisecond
	srv.Start()
	defer srv.Close()

	req, err := http.NewRequest("POST", srv.URL+"/admin/sync?resource=net", nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Authorization", "Bearer hunter2")

	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var result syncer.RunResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("summary not readable: %v", err)
	}
	if len(result.Synced) != 1 || result.Synced[0].Imported != 1 {
		t.Fatalf("summary = %+v", result)
	}
}

func TestAdminSyncUnknownResource(t *testing.T) {
	h := newTestRouter(newMockStore())

	req := httptest.NewRequest("POST", "/admin/sync?resource=bogus", nil)
	req.Header.Set("Authorization", "Bearer hunter2")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != 400 {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
