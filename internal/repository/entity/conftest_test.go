package entity

import (
	"context"
	"testing"

	"github.com/kailas-cloud/docman/internal/db"
	domentity "github.com/kailas-cloud/docman/internal/domain/entity"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	jsonSetFn     func(ctx context.Context, key, path string, data []byte) error
	jsonGetFn     func(ctx context.Context, key string, paths ...string) ([]byte, error)
	delFn         func(ctx context.Context, key string) error
	existsFn      func(ctx context.Context, key string) (bool, error)
	searchFn      func(ctx context.Context, index string, req *db.SearchRequest) (*db.SearchResult, error)
	searchCountFn func(ctx context.Context, index, query string) (int, error)
	bulkFn        func(ctx context.Context, ops []db.BulkOp) ([]error, error)
	createIndexFn func(ctx context.Context, def *db.IndexDefinition) error
	indexExistsFn func(ctx context.Context, name string) (bool, error)
}

func (m *mockStore) JSONSet(ctx context.Context, key, path string, data []byte) error {
	if m.jsonSetFn != nil {
		return m.jsonSetFn(ctx, key, path, data)
	}
	return nil
}

func (m *mockStore) JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error) {
	if m.jsonGetFn != nil {
		return m.jsonGetFn(ctx, key, paths...)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockStore) Del(ctx context.Context, key string) error {
	if m.delFn != nil {
		return m.delFn(ctx, key)
	}
	return nil
}

func (m *mockStore) Exists(ctx context.Context, key string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, key)
	}
	return false, nil
}

func (m *mockStore) Search(ctx context.Context, index string, req *db.SearchRequest) (*db.SearchResult, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, index, req)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) SearchCount(ctx context.Context, index, query string) (int, error) {
	if m.searchCountFn != nil {
		return m.searchCountFn(ctx, index, query)
	}
	return 0, nil
}

func (m *mockStore) Bulk(ctx context.Context, ops []db.BulkOp) ([]error, error) {
	if m.bulkFn != nil {
		return m.bulkFn(ctx, ops)
	}
	return make([]error, len(ops)), nil
}

func (m *mockStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, def)
	}
	return nil
}

func (m *mockStore) IndexExists(ctx context.Context, name string) (bool, error) {
	if m.indexExistsFn != nil {
		return m.indexExistsFn(ctx, name)
	}
	return false, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	repo := New(ms)
	return repo, ms
}

func testEntity(t *testing.T, id string) domentity.Entity {
	t.Helper()
	return domentity.Reconstruct(
		id, "Test entity", domentity.StatusActive, 5,
		[]string{"go", "backend"},
		map[string]any{"owner": map[string]any{"name": "alice"}},
		1700000000000, 1700000000000,
	)
}
