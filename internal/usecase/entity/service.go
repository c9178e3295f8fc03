package entity

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/docman/internal/db"
	"github.com/kailas-cloud/docman/internal/domain"
	domentity "github.com/kailas-cloud/docman/internal/domain/entity"
	"github.com/kailas-cloud/docman/internal/domain/flatten"
	"github.com/kailas-cloud/docman/internal/domain/query"
	"github.com/kailas-cloud/docman/internal/domain/validate"
)

// Service handles entity CRUD, search and flat-form editing. Payloads
// arrive as raw decoded JSON and pass through the validate engine before
// anything touches the store.
type Service struct {
	repo   Repository
	engine *validate.Engine
	schema domentity.Schema
	now    func() time.Time
	newID  func() string
}

// New creates an entity service.
func New(repo Repository, engine *validate.Engine, schema domentity.Schema) *Service {
	return &Service{
		repo:   repo,
		engine: engine,
		schema: schema,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// WithClock overrides the time source (tests).
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// WithIDGenerator overrides the ID source (tests).
func (s *Service) WithIDGenerator(newID func() string) *Service {
	s.newID = newID
	return s
}

// Create validates a raw entity payload and stores a new entity. A missing
// id is generated.
func (s *Service) Create(ctx context.Context, payload any) (domentity.Entity, error) {
	r := s.engine.Entity(payload, false)

	m, _ := payload.(map[string]any)
	if m != nil {
		if _, present := m["id"]; present {
			r.Merge("", s.engine.ID(m["id"]))
		}
	}
	if err := r.Err(); err != nil {
		return domentity.Entity{}, err
	}

	id, _ := m["id"].(string)
	if id == "" {
		id = s.newID()
	}

	e, err := s.buildEntity(id, m, domentity.Entity{})
	if err != nil {
		return domentity.Entity{}, err
	}
	nowMs := s.now().UnixMilli()
	e = e.WithTimestamps(nowMs, nowMs)

	if err := s.repo.Create(ctx, &e); err != nil {
		return domentity.Entity{}, fmt.Errorf("create entity: %w", err)
	}
	return e, nil
}

// Get retrieves an entity by ID.
func (s *Service) Get(ctx context.Context, id string) (domentity.Entity, error) {
	if err := s.engine.ID(id).Err(); err != nil {
		return domentity.Entity{}, err
	}
	e, err := s.repo.Get(ctx, id)
	if err != nil {
		return domentity.Entity{}, fmt.Errorf("get entity: %w", err)
	}
	return e, nil
}

// Update applies a partial update: fields absent from the payload keep
// their stored values.
func (s *Service) Update(ctx context.Context, id string, payload any) (domentity.Entity, error) {
	r := s.engine.ID(id)
	r.Merge("", s.engine.Entity(payload, true))
	if err := r.Err(); err != nil {
		return domentity.Entity{}, err
	}

	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return domentity.Entity{}, fmt.Errorf("get entity: %w", err)
	}

	m, _ := payload.(map[string]any)
	e, err := s.buildEntity(id, m, current)
	if err != nil {
		return domentity.Entity{}, err
	}
	e = e.WithTimestamps(current.CreatedAt(), s.now().UnixMilli())

	if err := s.repo.Update(ctx, &e); err != nil {
		return domentity.Entity{}, fmt.Errorf("update entity: %w", err)
	}
	return e, nil
}

// Delete removes an entity.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.engine.ID(id).Err(); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete entity: %w", err)
	}
	return nil
}

// SearchInput is the raw decoded search request body.
type SearchInput struct {
	Filters  any
	Sort     any
	Page     any
	PageSize any
}

// SearchOutput is a page of matching entities.
type SearchOutput struct {
	Entities []domentity.Entity
	Total    int
	Page     int
	PageSize int
}

// Search validates filter/sort/pagination specs, compiles them into a
// backend query and runs it.
func (s *Service) Search(ctx context.Context, in SearchInput) (SearchOutput, error) {
	var r validate.Result
	r.Merge("", s.engine.Filters(in.Filters))
	r.Merge("", s.engine.Sort(in.Sort))
	r.Merge("", s.engine.Pagination(in.Page, in.PageSize))
	if err := r.Err(); err != nil {
		return SearchOutput{}, err
	}

	limits := s.engine.Limits()
	page := query.Page{
		Number: intOr(in.Page, 1),
		Size:   intOr(in.PageSize, limits.DefaultPageSize),
	}

	req := db.Compile(buildFilters(in.Filters), buildSorts(in.Sort), page, s.schema)
	entities, total, err := s.repo.Search(ctx, &req)
	if err != nil {
		return SearchOutput{}, fmt.Errorf("search entities: %w", err)
	}

	return SearchOutput{
		Entities: entities,
		Total:    total,
		Page:     page.Number,
		PageSize: page.Size,
	}, nil
}

// Flat returns the entity as a list of path/value leaves.
func (s *Service) Flat(ctx context.Context, id string) ([]flatten.Entry, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	entries, err := flatten.Flatten(entityDoc(&e))
	if err != nil {
		return nil, fmt.Errorf("flatten entity: %w", err)
	}
	return entries, nil
}

// FlatReplace rebuilds the entity from flat path/value leaves and stores it
// as a full replacement. The id, createdAt and updatedAt leaves of the
// payload are ignored: identity comes from the caller and timestamps are
// managed here.
func (s *Service) FlatReplace(ctx context.Context, id string, entries []flatten.Entry) (domentity.Entity, error) {
	if err := s.engine.ID(id).Err(); err != nil {
		return domentity.Entity{}, err
	}

	doc, err := flatten.Unflatten(entries)
	if err != nil {
		return domentity.Entity{}, fmt.Errorf("unflatten document: %v: %w", err, domain.ErrValidation)
	}
	m, ok := doc.(map[string]any)
	if !ok {
		var r validate.Result
		r.Add("", validate.CodeInvalidType, "document must be an object")
		return domentity.Entity{}, r.Err()
	}
	delete(m, "id")
	delete(m, "createdAt")
	delete(m, "updatedAt")

	if err := s.engine.Entity(m, false).Err(); err != nil {
		return domentity.Entity{}, err
	}

	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return domentity.Entity{}, fmt.Errorf("get entity: %w", err)
	}

	e, err := s.buildEntity(id, m, domentity.Entity{})
	if err != nil {
		return domentity.Entity{}, err
	}
	e = e.WithTimestamps(current.CreatedAt(), s.now().UnixMilli())

	if err := s.repo.Update(ctx, &e); err != nil {
		return domentity.Entity{}, fmt.Errorf("update entity: %w", err)
	}
	return e, nil
}

func (s *Service) buildEntity(id string, m map[string]any, base domentity.Entity) (domentity.Entity, error) {
	return Build(id, m, base)
}

// Build merges a validated payload over base field values. Fields absent
// from the payload keep the base's value, so a zero base gives create
// semantics and a stored entity gives partial-update semantics.
func Build(id string, m map[string]any, base domentity.Entity) (domentity.Entity, error) {
	title := base.Title()
	if v, present := m["title"]; present {
		title = validate.Sanitize(v)
	}

	status := base.Status()
	if v, present := m["status"]; present {
		st, _ := v.(string)
		status = domentity.Status(st)
	}

	priority := base.Priority()
	if v, present := m["priority"]; present {
		priority = intOr(v, 0)
	}

	tags := base.Tags()
	if v, present := m["tags"]; present {
		tags = toStrings(v)
	}

	attributes := base.Attributes()
	if v, present := m["attributes"]; present {
		attributes, _ = v.(map[string]any)
	}

	e, err := domentity.New(id, title, status, priority, tags, attributes)
	if err != nil {
		return domentity.Entity{}, fmt.Errorf("build entity: %v: %w", err, domain.ErrValidation)
	}
	return e, nil
}

// entityDoc projects an entity into the decoded-JSON shape the flattener
// walks.
func entityDoc(e *domentity.Entity) map[string]any {
	tags := make([]any, len(e.Tags()))
	for i, t := range e.Tags() {
		tags[i] = t
	}
	doc := map[string]any{
		"id":        e.ID(),
		"title":     e.Title(),
		"status":    string(e.Status()),
		"priority":  e.Priority(),
		"tags":      tags,
		"createdAt": e.CreatedAt(),
		"updatedAt": e.UpdatedAt(),
	}
	if len(e.Attributes()) > 0 {
		doc["attributes"] = e.Attributes()
	}
	return doc
}

func buildFilters(raw any) []query.Filter {
	arr, _ := raw.([]any)
	filters := make([]query.Filter, 0, len(arr))
	for _, item := range arr {
		m, _ := item.(map[string]any)
		field, _ := m["field"].(string)
		op, _ := m["operator"].(string)
		filters = append(filters, query.Filter{
			Field:    field,
			Operator: query.Operator(op),
			Value:    m["value"],
		})
	}
	return filters
}

func buildSorts(raw any) []query.Sort {
	arr, _ := raw.([]any)
	sorts := make([]query.Sort, 0, len(arr))
	for _, item := range arr {
		m, _ := item.(map[string]any)
		field, _ := m["field"].(string)
		dir := query.Asc
		if d, _ := m["direction"].(string); d != "" {
			dir = query.Direction(d)
		}
		sorts = append(sorts, query.Sort{
			Field:     field,
			Direction: dir,
			Priority:  intOr(m["priority"], 0),
		})
	}
	return sorts
}

func intOr(v any, def int) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return def
}

func toStrings(v any) []string {
	arr, _ := v.([]any)
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		s, _ := item.(string)
		out = append(out, s)
	}
	return out
}
