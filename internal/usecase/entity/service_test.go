package entity

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/docman/internal/db"
	"github.com/kailas-cloud/docman/internal/domain"
	domentity "github.com/kailas-cloud/docman/internal/domain/entity"
	"github.com/kailas-cloud/docman/internal/domain/flatten"
	"github.com/kailas-cloud/docman/internal/domain/validate"
)

// --- Create ---

func TestCreate_GeneratesID(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	var stored domentity.Entity
	repo.createFn = func(_ context.Context, e *domentity.Entity) error {
		stored = *e
		return nil
	}

	e, err := svc.Create(ctx, map[string]any{
		"title":    "  Hello  ",
		"priority": float64(3),
		"tags":     []any{"go", "backend"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.ID() != "generated-id" {
		t.Errorf("expected generated id, got %s", e.ID())
	}
	if e.Title() != "Hello" {
		t.Errorf("expected sanitized title, got %q", e.Title())
	}
	if e.Status() != domentity.StatusActive {
		t.Errorf("expected default status active, got %s", e.Status())
	}
	if e.Priority() != 3 {
		t.Errorf("expected priority 3, got %d", e.Priority())
	}
	if e.CreatedAt() != 1700000000000 || e.UpdatedAt() != 1700000000000 {
		t.Errorf("unexpected timestamps: %d / %d", e.CreatedAt(), e.UpdatedAt())
	}
	if stored.ID() != "generated-id" {
		t.Errorf("repo saw wrong entity: %s", stored.ID())
	}
}

func TestCreate_KeepsProvidedID(t *testing.T) {
	svc, _ := newTestService(t)

	e, err := svc.Create(context.Background(), map[string]any{
		"id":    "my-id",
		"title": "Hello",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.ID() != "my-id" {
		t.Errorf("expected my-id, got %s", e.ID())
	}
}

func TestCreate_CollectsAllValidationErrors(t *testing.T) {
	svc, repo := newTestService(t)
	repo.createFn = func(_ context.Context, _ *domentity.Entity) error {
		t.Fatal("store must not be touched on validation failure")
		return nil
	}

	_, err := svc.Create(context.Background(), map[string]any{
		"status":   "paused",
		"priority": float64(5000),
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	var verr *validate.Error
	if !errors.As(err, &verr) {
		t.Fatalf("expected *validate.Error, got %T", err)
	}
	// title missing, status unknown, priority out of range
	if len(verr.Fields()) != 3 {
		t.Errorf("expected 3 field errors, got %d: %v", len(verr.Fields()), verr.Fields())
	}
}

func TestCreate_NonObjectPayload(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Create(context.Background(), []any{"not", "an", "object"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestCreate_RepoConflict(t *testing.T) {
	svc, repo := newTestService(t)
	repo.createFn = func(_ context.Context, _ *domentity.Entity) error {
		return domain.ErrAlreadyExists
	}

	_, err := svc.Create(context.Background(), map[string]any{"title": "Hello"})
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

// --- Get / Delete ---

func TestGet_HappyPath(t *testing.T) {
	svc, repo := newTestService(t)
	repo.getFn = func(_ context.Context, id string) (domentity.Entity, error) {
		return storedEntity(t, id), nil
	}

	e, err := svc.Get(context.Background(), "ent-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Title() != "Stored title" {
		t.Errorf("unexpected title: %s", e.Title())
	}
}

func TestGet_InvalidID(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Get(context.Background(), "  ")
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestDelete_NotFound(t *testing.T) {
	svc, repo := newTestService(t)
	repo.deleteFn = func(_ context.Context, _ string) error { return domain.ErrNotFound }

	err := svc.Delete(context.Background(), "ghost")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// --- Update ---

func TestUpdate_PartialMerge(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	repo.getFn = func(_ context.Context, id string) (domentity.Entity, error) {
		return storedEntity(t, id), nil
	}
	var stored domentity.Entity
	repo.updateFn = func(_ context.Context, e *domentity.Entity) error {
		stored = *e
		return nil
	}

	e, err := svc.Update(ctx, "ent-1", map[string]any{"priority": float64(9)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Priority() != 9 {
		t.Errorf("expected priority 9, got %d", e.Priority())
	}
	if e.Title() != "Stored title" {
		t.Errorf("title should be kept, got %q", e.Title())
	}
	if e.CreatedAt() != 1600000000000 {
		t.Errorf("createdAt should be kept, got %d", e.CreatedAt())
	}
	if e.UpdatedAt() != 1700000000000 {
		t.Errorf("updatedAt should advance, got %d", e.UpdatedAt())
	}
	if stored.Priority() != 9 {
		t.Errorf("repo saw wrong entity: %+v", stored)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	svc, repo := newTestService(t)
	repo.getFn = func(_ context.Context, _ string) (domentity.Entity, error) {
		return domentity.Entity{}, domain.ErrNotFound
	}

	_, err := svc.Update(context.Background(), "ghost", map[string]any{"title": "x"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdate_InvalidPayloadSkipsStore(t *testing.T) {
	svc, repo := newTestService(t)
	repo.getFn = func(_ context.Context, _ string) (domentity.Entity, error) {
		t.Fatal("store must not be touched on validation failure")
		return domentity.Entity{}, nil
	}

	_, err := svc.Update(context.Background(), "ent-1", map[string]any{"title": ""})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

// --- Search ---

func TestSearch_Defaults(t *testing.T) {
	svc, repo := newTestService(t)

	var captured db.SearchRequest
	repo.searchFn = func(_ context.Context, req *db.SearchRequest) ([]domentity.Entity, int, error) {
		captured = *req
		return nil, 0, nil
	}

	out, err := svc.Search(context.Background(), SearchInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if captured.Query != "*" {
		t.Errorf("expected match-all query, got %q", captured.Query)
	}
	if captured.Offset != 0 || captured.Limit != 20 {
		t.Errorf("expected default window 0/20, got %d/%d", captured.Offset, captured.Limit)
	}
	if out.Page != 1 || out.PageSize != 20 {
		t.Errorf("unexpected page info: %d/%d", out.Page, out.PageSize)
	}
}

func TestSearch_CompilesFiltersAndSort(t *testing.T) {
	svc, repo := newTestService(t)

	var captured db.SearchRequest
	repo.searchFn = func(_ context.Context, req *db.SearchRequest) ([]domentity.Entity, int, error) {
		captured = *req
		return []domentity.Entity{storedEntity(t, "a")}, 41, nil
	}

	out, err := svc.Search(context.Background(), SearchInput{
		Filters: []any{
			map[string]any{"field": "status", "operator": "eq", "value": "active"},
			map[string]any{"field": "priority", "operator": "gte", "value": float64(3)},
		},
		Sort: []any{
			map[string]any{"field": "priority", "direction": "desc"},
		},
		Page:     float64(3),
		PageSize: float64(10),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if captured.Query != `@status:{active} @priority:[3 +inf]` {
		t.Errorf("unexpected query: %q", captured.Query)
	}
	if captured.Offset != 20 || captured.Limit != 10 {
		t.Errorf("expected window 20/10, got %d/%d", captured.Offset, captured.Limit)
	}
	if len(captured.Sort) != 1 || captured.Sort[0].Field != "priority" || !captured.Sort[0].Desc {
		t.Errorf("unexpected sort: %+v", captured.Sort)
	}
	if out.Total != 41 {
		t.Errorf("expected total 41, got %d", out.Total)
	}
}

func TestSearch_CollectsAllValidationErrors(t *testing.T) {
	svc, repo := newTestService(t)
	repo.searchFn = func(_ context.Context, _ *db.SearchRequest) ([]domentity.Entity, int, error) {
		t.Fatal("store must not be touched on validation failure")
		return nil, 0, nil
	}

	_, err := svc.Search(context.Background(), SearchInput{
		Filters:  []any{map[string]any{"field": "unknown", "operator": "eq", "value": "x"}},
		Sort:     []any{map[string]any{"field": "tags"}},
		PageSize: float64(5000),
	})
	var verr *validate.Error
	if !errors.As(err, &verr) {
		t.Fatalf("expected *validate.Error, got %v", err)
	}
	if len(verr.Fields()) != 3 {
		t.Errorf("expected 3 field errors, got %d: %v", len(verr.Fields()), verr.Fields())
	}
}

// --- Flat ---

func TestFlat_EmitsLeaves(t *testing.T) {
	svc, repo := newTestService(t)
	repo.getFn = func(_ context.Context, id string) (domentity.Entity, error) {
		return storedEntity(t, id), nil
	}

	entries, err := svc.Flat(context.Background(), "ent-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	byPath := make(map[string]any, len(entries))
	for _, e := range entries {
		byPath[e.Path] = e.Value
	}
	if byPath["title"] != "Stored title" {
		t.Errorf("unexpected title leaf: %v", byPath["title"])
	}
	if byPath["tags[0]"] != "go" {
		t.Errorf("unexpected tags[0] leaf: %v", byPath["tags[0]"])
	}
	if byPath["attributes.owner.name"] != "alice" {
		t.Errorf("unexpected nested leaf: %v", byPath["attributes.owner.name"])
	}
}

func TestFlatReplace_RebuildsEntity(t *testing.T) {
	svc, repo := newTestService(t)

	repo.getFn = func(_ context.Context, id string) (domentity.Entity, error) {
		return storedEntity(t, id), nil
	}
	var stored domentity.Entity
	repo.updateFn = func(_ context.Context, e *domentity.Entity) error {
		stored = *e
		return nil
	}

	e, err := svc.FlatReplace(context.Background(), "ent-1", []flatten.Entry{
		{Path: "id", Value: "spoofed"}, // identity comes from the caller
		{Path: "title", Value: "Rebuilt"},
		{Path: "status", Value: "inactive"},
		{Path: "tags[0]", Value: "new"},
		{Path: "attributes.owner.name", Value: "bob"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.ID() != "ent-1" {
		t.Errorf("expected id from path, got %s", e.ID())
	}
	if e.Title() != "Rebuilt" {
		t.Errorf("unexpected title: %s", e.Title())
	}
	if e.Status() != domentity.StatusInactive {
		t.Errorf("unexpected status: %s", e.Status())
	}
	owner, _ := e.Attributes()["owner"].(map[string]any)
	if owner["name"] != "bob" {
		t.Errorf("unexpected attributes: %v", e.Attributes())
	}
	if e.CreatedAt() != 1600000000000 {
		t.Errorf("createdAt should be kept, got %d", e.CreatedAt())
	}
	if stored.Title() != "Rebuilt" {
		t.Errorf("repo saw wrong entity: %+v", stored)
	}
}

func TestFlatReplace_KeepsEmptyContainers(t *testing.T) {
	svc, repo := newTestService(t)
	repo.getFn = func(_ context.Context, id string) (domentity.Entity, error) {
		return storedEntity(t, id), nil
	}
	repo.updateFn = func(_ context.Context, _ *domentity.Entity) error { return nil }

	e, err := svc.FlatReplace(context.Background(), "ent-1", []flatten.Entry{
		{Path: "title", Value: "Rebuilt"},
		{Path: "attributes.meta", Value: map[string]any{}},
		{Path: "attributes.history", Value: []any{}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	meta, ok := e.Attributes()["meta"].(map[string]any)
	if !ok || len(meta) != 0 {
		t.Errorf("meta should be an empty object, got %#v", e.Attributes()["meta"])
	}
	history, ok := e.Attributes()["history"].([]any)
	if !ok || len(history) != 0 {
		t.Errorf("history should be an empty array, got %#v", e.Attributes()["history"])
	}

	entries, err := flatten.Flatten(entityDoc(&e))
	if err != nil {
		t.Fatalf("flatten: %v", err)
	}
	byPath := make(map[string]any, len(entries))
	for _, en := range entries {
		byPath[en.Path] = en.Value
	}
	if _, present := byPath["attributes.meta"]; !present {
		t.Error("flat form should carry the empty object leaf")
	}
	if _, present := byPath["attributes.history"]; !present {
		t.Error("flat form should carry the empty array leaf")
	}
}

func TestFlatReplace_PathConflict(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.FlatReplace(context.Background(), "ent-1", []flatten.Entry{
		{Path: "title", Value: "x"},
		{Path: "title.sub", Value: "y"},
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestFlatReplace_MissingTitle(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.FlatReplace(context.Background(), "ent-1", []flatten.Entry{
		{Path: "status", Value: "active"},
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
