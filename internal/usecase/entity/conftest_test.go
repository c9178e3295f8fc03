package entity

import (
	"context"
	"testing"
	"time"

	"github.com/kailas-cloud/docman/internal/db"
	domentity "github.com/kailas-cloud/docman/internal/domain/entity"
	"github.com/kailas-cloud/docman/internal/domain/validate"
)

// mockRepo implements Repository for tests.
type mockRepo struct {
	createFn func(ctx context.Context, e *domentity.Entity) error
	getFn    func(ctx context.Context, id string) (domentity.Entity, error)
	updateFn func(ctx context.Context, e *domentity.Entity) error
	deleteFn func(ctx context.Context, id string) error
	searchFn func(ctx context.Context, req *db.SearchRequest) ([]domentity.Entity, int, error)
}

func (m *mockRepo) Create(ctx context.Context, e *domentity.Entity) error {
	if m.createFn != nil {
		return m.createFn(ctx, e)
	}
	return nil
}

func (m *mockRepo) Get(ctx context.Context, id string) (domentity.Entity, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return domentity.Entity{}, nil
}

func (m *mockRepo) Update(ctx context.Context, e *domentity.Entity) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, e)
	}
	return nil
}

func (m *mockRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockRepo) Search(ctx context.Context, req *db.SearchRequest) ([]domentity.Entity, int, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, req)
	}
	return nil, 0, nil
}

func newTestService(t *testing.T) (*Service, *mockRepo) {
	t.Helper()
	repo := &mockRepo{}
	schema := domentity.DefaultSchema()
	svc := New(repo, validate.New(validate.DefaultLimits(), schema), schema).
		WithClock(func() time.Time { return time.UnixMilli(1700000000000) }).
		WithIDGenerator(func() string { return "generated-id" })
	return svc, repo
}

func storedEntity(t *testing.T, id string) domentity.Entity {
	t.Helper()
	return domentity.Reconstruct(
		id, "Stored title", domentity.StatusActive, 5,
		[]string{"go"},
		map[string]any{"owner": map[string]any{"name": "alice"}},
		1600000000000, 1600000000000,
	)
}
