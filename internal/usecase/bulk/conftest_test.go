package bulk

import (
	"context"
	"testing"
	"time"

	domentity "github.com/kailas-cloud/docman/internal/domain/entity"
	"github.com/kailas-cloud/docman/internal/domain/validate"
)

// mockRepo implements Repository for tests.
type mockRepo struct {
	existsFn     func(ctx context.Context, id string) (bool, error)
	getFn        func(ctx context.Context, id string) (domentity.Entity, error)
	bulkSetFn    func(ctx context.Context, entities []domentity.Entity) ([]error, error)
	bulkDeleteFn func(ctx context.Context, ids []string) ([]error, error)
}

func (m *mockRepo) Exists(ctx context.Context, id string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, id)
	}
	return false, nil
}

func (m *mockRepo) Get(ctx context.Context, id string) (domentity.Entity, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return domentity.Entity{}, nil
}

func (m *mockRepo) BulkSet(ctx context.Context, entities []domentity.Entity) ([]error, error) {
	if m.bulkSetFn != nil {
		return m.bulkSetFn(ctx, entities)
	}
	return make([]error, len(entities)), nil
}

func (m *mockRepo) BulkDelete(ctx context.Context, ids []string) ([]error, error) {
	if m.bulkDeleteFn != nil {
		return m.bulkDeleteFn(ctx, ids)
	}
	return make([]error, len(ids)), nil
}

func newTestService(t *testing.T) (*Service, *mockRepo) {
	t.Helper()
	repo := &mockRepo{}
	engine := validate.New(validate.DefaultLimits(), domentity.DefaultSchema())
	svc := New(repo, engine).
		WithClock(func() time.Time { return time.UnixMilli(1700000000000) }).
		WithIDGenerator(func() string { return "generated-id" })
	return svc, repo
}
