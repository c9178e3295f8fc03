package chi

import (
	"context"
	"net/http"
	"testing"
	"time"

	chirouter "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docman/internal/db"
	"github.com/kailas-cloud/docman/internal/domain"
	domentity "github.com/kailas-cloud/docman/internal/domain/entity"
	"github.com/kailas-cloud/docman/internal/domain/validate"
	bulkuc "github.com/kailas-cloud/docman/internal/usecase/bulk"
	entityuc "github.com/kailas-cloud/docman/internal/usecase/entity"
	healthuc "github.com/kailas-cloud/docman/internal/usecase/health"
)

// fakeRepo is an in-memory entity store backing both the entity and bulk
// services in handler tests.
type fakeRepo struct {
	entities map[string]domentity.Entity
	searchFn func(ctx context.Context, req *db.SearchRequest) ([]domentity.Entity, int, error)
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{entities: make(map[string]domentity.Entity)}
}

func (f *fakeRepo) Create(_ context.Context, e *domentity.Entity) error {
	if _, ok := f.entities[e.ID()]; ok {
		return domain.ErrAlreadyExists
	}
	f.entities[e.ID()] = *e
	return nil
}

func (f *fakeRepo) Get(_ context.Context, id string) (domentity.Entity, error) {
	e, ok := f.entities[id]
	if !ok {
		return domentity.Entity{}, domain.ErrNotFound
	}
	return e, nil
}

func (f *fakeRepo) Update(_ context.Context, e *domentity.Entity) error {
	if _, ok := f.entities[e.ID()]; !ok {
		return domain.ErrNotFound
	}
	f.entities[e.ID()] = *e
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.entities[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.entities, id)
	return nil
}

func (f *fakeRepo) Search(ctx context.Context, req *db.SearchRequest) ([]domentity.Entity, int, error) {
	if f.searchFn != nil {
		return f.searchFn(ctx, req)
	}
	return nil, 0, nil
}

func (f *fakeRepo) Exists(_ context.Context, id string) (bool, error) {
	_, ok := f.entities[id]
	return ok, nil
}

func (f *fakeRepo) BulkSet(_ context.Context, entities []domentity.Entity) ([]error, error) {
	for _, e := range entities {
		f.entities[e.ID()] = e
	}
	return make([]error, len(entities)), nil
}

func (f *fakeRepo) BulkDelete(_ context.Context, ids []string) ([]error, error) {
	outcomes := make([]error, len(ids))
	for i, id := range ids {
		if _, ok := f.entities[id]; !ok {
			outcomes[i] = domain.ErrNotFound
			continue
		}
		delete(f.entities, id)
	}
	return outcomes, nil
}

// fakePinger always reports a reachable store.
type fakePinger struct{ err error }

func (p *fakePinger) Ping(_ context.Context) error { return p.err }

func newTestRouter(t *testing.T) (http.Handler, *fakeRepo) {
	t.Helper()

	repo := newFakeRepo()
	schema := domentity.DefaultSchema()
	engine := validate.New(validate.DefaultLimits(), schema)

	entities := entityuc.New(repo, engine, schema).
		WithClock(func() time.Time { return time.UnixMilli(1700000000000) }).
		WithIDGenerator(func() string { return "generated-id" })
	bulk := bulkuc.New(repo, engine).
		WithClock(func() time.Time { return time.UnixMilli(1700000000000) }).
		WithIDGenerator(func() string { return "generated-id" })
	health := healthuc.New(&fakePinger{}, nil, "")

	server := NewServer(entities, bulk, health, zap.NewNop())
	r := chirouter.NewRouter()
	server.Routes(r)
	return r, repo
}

func seedEntity(repo *fakeRepo, id string) domentity.Entity {
	e := domentity.Reconstruct(
		id, "Stored title", domentity.StatusActive, 5,
		[]string{"go"},
		map[string]any{"owner": map[string]any{"name": "alice"}},
		1600000000000, 1600000000000,
	)
	repo.entities[id] = e
	return e
}
