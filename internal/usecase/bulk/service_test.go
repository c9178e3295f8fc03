package bulk

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/docman/internal/domain"
	domentity "github.com/kailas-cloud/docman/internal/domain/entity"
	"github.com/kailas-cloud/docman/internal/domain/validate"
)

// --- Create ---

func TestBulkCreate_AllSucceed(t *testing.T) {
	svc, repo := newTestService(t)

	var written []domentity.Entity
	repo.bulkSetFn = func(_ context.Context, entities []domentity.Entity) ([]error, error) {
		written = entities
		return make([]error, len(entities)), nil
	}

	sum, err := svc.Create(context.Background(), []any{
		map[string]any{"id": "a", "title": "First"},
		map[string]any{"title": "Second"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sum.Success || sum.TotalProcessed != 2 || sum.TotalSuccess != 2 {
		t.Errorf("unexpected summary: %+v", sum)
	}
	if len(written) != 2 {
		t.Fatalf("expected 2 writes, got %d", len(written))
	}
	if written[1].ID() != "generated-id" {
		t.Errorf("expected generated id for second item, got %s", written[1].ID())
	}
	if sum.Succeeded[0].CreatedAt() != 1700000000000 {
		t.Errorf("unexpected createdAt: %d", sum.Succeeded[0].CreatedAt())
	}
}

func TestBulkCreate_ConflictFailsItemOnly(t *testing.T) {
	svc, repo := newTestService(t)

	repo.existsFn = func(_ context.Context, id string) (bool, error) {
		return id == "taken", nil
	}
	repo.bulkSetFn = func(_ context.Context, entities []domentity.Entity) ([]error, error) {
		if len(entities) != 1 || entities[0].ID() != "free" {
			t.Errorf("expected only the free id to be written, got %v", entities)
		}
		return make([]error, len(entities)), nil
	}

	sum, err := svc.Create(context.Background(), []any{
		map[string]any{"id": "taken", "title": "First"},
		map[string]any{"id": "free", "title": "Second"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.Success {
		t.Error("expected partial failure")
	}
	if sum.TotalSuccess != 1 || sum.TotalFailed != 1 {
		t.Errorf("unexpected counts: %+v", sum)
	}
	if sum.Failed[0].ID != "taken" || sum.Failed[0].Error != "entity already exists" {
		t.Errorf("unexpected failure: %+v", sum.Failed[0])
	}
}

func TestBulkCreate_ValidationRejectsWholeBatch(t *testing.T) {
	svc, repo := newTestService(t)
	repo.bulkSetFn = func(_ context.Context, _ []domentity.Entity) ([]error, error) {
		t.Fatal("store must not be touched on validation failure")
		return nil, nil
	}

	_, err := svc.Create(context.Background(), []any{
		map[string]any{"title": "ok"},
		map[string]any{"priority": float64(-1)},
	})
	var verr *validate.Error
	if !errors.As(err, &verr) {
		t.Fatalf("expected *validate.Error, got %v", err)
	}
	// title missing and priority out of range, both on item 1
	found := false
	for _, fe := range verr.Fields() {
		if fe.Field == "entities[1].priority" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected entities[1].priority in %v", verr.Fields())
	}
}

func TestBulkCreate_EmptyBatchRejected(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Create(context.Background(), []any{})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestBulkCreate_WriteErrorFailsItemOnly(t *testing.T) {
	svc, repo := newTestService(t)

	opErr := errors.New("write failed")
	repo.bulkSetFn = func(_ context.Context, entities []domentity.Entity) ([]error, error) {
		outcomes := make([]error, len(entities))
		outcomes[0] = opErr
		return outcomes, nil
	}

	sum, err := svc.Create(context.Background(), []any{
		map[string]any{"id": "a", "title": "First"},
		map[string]any{"id": "b", "title": "Second"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.TotalFailed != 1 || sum.Failed[0].ID != "a" {
		t.Errorf("unexpected summary: %+v", sum)
	}
	if sum.TotalSuccess != 1 || sum.Succeeded[0].ID() != "b" {
		t.Errorf("unexpected successes: %+v", sum.Succeeded)
	}
}

// --- Update ---

func TestBulkUpdate_MergesOverStored(t *testing.T) {
	svc, repo := newTestService(t)

	repo.getFn = func(_ context.Context, id string) (domentity.Entity, error) {
		return domentity.Reconstruct(
			id, "Old title", domentity.StatusActive, 1, nil, nil,
			1600000000000, 1600000000000,
		), nil
	}
	var written []domentity.Entity
	repo.bulkSetFn = func(_ context.Context, entities []domentity.Entity) ([]error, error) {
		written = entities
		return make([]error, len(entities)), nil
	}

	sum, err := svc.Update(context.Background(), []any{
		map[string]any{"id": "a", "attributes": map[string]any{"priority": float64(7)}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sum.Success {
		t.Errorf("unexpected summary: %+v", sum)
	}
	if written[0].Title() != "Old title" || written[0].Priority() != 7 {
		t.Errorf("unexpected merge result: %+v", written[0])
	}
	if written[0].CreatedAt() != 1600000000000 || written[0].UpdatedAt() != 1700000000000 {
		t.Errorf("unexpected timestamps: %d/%d", written[0].CreatedAt(), written[0].UpdatedAt())
	}
}

func TestBulkUpdate_MissingEntityFailsItemOnly(t *testing.T) {
	svc, repo := newTestService(t)

	repo.getFn = func(_ context.Context, id string) (domentity.Entity, error) {
		if id == "ghost" {
			return domentity.Entity{}, domain.ErrNotFound
		}
		return domentity.Reconstruct(id, "Old", domentity.StatusActive, 0, nil, nil, 1, 1), nil
	}

	sum, err := svc.Update(context.Background(), []any{
		map[string]any{"id": "ghost", "attributes": map[string]any{"title": "x"}},
		map[string]any{"id": "real", "attributes": map[string]any{"title": "y"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.TotalFailed != 1 || sum.Failed[0].ID != "ghost" {
		t.Errorf("unexpected failures: %+v", sum.Failed)
	}
	if sum.Failed[0].Error != "entity not found" {
		t.Errorf("unexpected failure message: %q", sum.Failed[0].Error)
	}
	if sum.TotalSuccess != 1 {
		t.Errorf("unexpected successes: %+v", sum)
	}
}

// --- Delete ---

func TestBulkDelete_MapsMissingToNotFound(t *testing.T) {
	svc, repo := newTestService(t)

	repo.bulkDeleteFn = func(_ context.Context, ids []string) ([]error, error) {
		outcomes := make([]error, len(ids))
		for i, id := range ids {
			if id == "ghost" {
				outcomes[i] = domain.ErrNotFound
			}
		}
		return outcomes, nil
	}

	sum, err := svc.Delete(context.Background(), []any{"a", "ghost", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.TotalProcessed != 3 || sum.TotalSuccess != 2 || sum.TotalFailed != 1 {
		t.Errorf("unexpected summary: %+v", sum)
	}
	if sum.Failed[0].ID != "ghost" || sum.Failed[0].Error != "entity not found" {
		t.Errorf("unexpected failure: %+v", sum.Failed[0])
	}
	if sum.Succeeded[0] != "a" || sum.Succeeded[1] != "b" {
		t.Errorf("unexpected successes: %v", sum.Succeeded)
	}
}

func TestBulkDelete_OversizedBatchRejected(t *testing.T) {
	svc, repo := newTestService(t)
	repo.bulkDeleteFn = func(_ context.Context, _ []string) ([]error, error) {
		t.Fatal("store must not be touched on validation failure")
		return nil, nil
	}

	ids := make([]any, 101)
	for i := range ids {
		ids[i] = "id"
	}
	_, err := svc.Delete(context.Background(), ids)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestBulkDelete_TransportErrorAborts(t *testing.T) {
	svc, repo := newTestService(t)
	repo.bulkDeleteFn = func(_ context.Context, _ []string) ([]error, error) {
		return nil, errors.New("connection reset")
	}

	_, err := svc.Delete(context.Background(), []any{"a"})
	if err == nil {
		t.Fatal("expected error")
	}
}
