package entity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kailas-cloud/docman/internal/db"
	"github.com/kailas-cloud/docman/internal/domain"
	domentity "github.com/kailas-cloud/docman/internal/domain/entity"
)

// store is the consumer interface for entities (ISP).
type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Search(ctx context.Context, index string, req *db.SearchRequest) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
	Bulk(ctx context.Context, ops []db.BulkOp) ([]error, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Repo implements usecase/entity.Repository.
type Repo struct {
	store  store
	prefix string
}

// New creates an entity repository.
func New(s store) *Repo {
	return &Repo{store: s, prefix: domain.KeyPrefix}
}

// WithKeyPrefix overrides the key namespace (config).
func (r *Repo) WithKeyPrefix(prefix string) *Repo {
	if prefix != "" {
		r.prefix = prefix
	}
	return r
}

// EnsureIndex creates the entity search index if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	name := r.indexName()

	exists, err := r.store.IndexExists(ctx, name)
	if err != nil {
		return fmt.Errorf("check index %s: %w", name, err)
	}
	if exists {
		return nil
	}

	def := db.NewIndex(name).
		Prefix(r.keyPrefix()).
		Tag("$.id", "id", false).
		Text("$.title", "title", true).
		Tag("$.status", "status", true).
		Numeric("$.priority", "priority", true).
		Tag("$.tags[*]", "tags", false).
		Numeric("$.createdAt", "createdAt", true).
		Numeric("$.updatedAt", "updatedAt", true).
		MustBuild()

	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return nil
		}
		return fmt.Errorf("create index %s: %w", name, err)
	}
	return nil
}

// Create inserts a new entity. Fails when the ID is already taken.
func (r *Repo) Create(ctx context.Context, e *domentity.Entity) error {
	key := r.docKey(e.ID())

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if exists {
		return domain.ErrAlreadyExists
	}

	data, err := marshalEntity(e)
	if err != nil {
		return err
	}
	if err := r.store.JSONSet(ctx, key, "$", data); err != nil {
		return fmt.Errorf("json.set %s: %w", key, err)
	}
	return nil
}

// Exists reports whether an entity with the given ID is stored.
func (r *Repo) Exists(ctx context.Context, id string) (bool, error) {
	exists, err := r.store.Exists(ctx, r.docKey(id))
	if err != nil {
		return false, fmt.Errorf("check exists %s: %w", r.docKey(id), err)
	}
	return exists, nil
}

// Get returns an entity by ID.
func (r *Repo) Get(ctx context.Context, id string) (domentity.Entity, error) {
	key := r.docKey(id)
	raw, err := r.store.JSONGet(ctx, key, "$")
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domentity.Entity{}, domain.ErrNotFound
		}
		return domentity.Entity{}, fmt.Errorf("json.get %s: %w", key, err)
	}
	return parseJSONGetResult(id, raw)
}

// Update replaces an existing entity. Fails when the ID is unknown.
func (r *Repo) Update(ctx context.Context, e *domentity.Entity) error {
	key := r.docKey(e.ID())

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if !exists {
		return domain.ErrNotFound
	}

	data, err := marshalEntity(e)
	if err != nil {
		return err
	}
	if err := r.store.JSONSet(ctx, key, "$", data); err != nil {
		return fmt.Errorf("json.set %s: %w", key, err)
	}
	return nil
}

// Delete removes an entity.
func (r *Repo) Delete(ctx context.Context, id string) error {
	key := r.docKey(id)
	if err := r.store.Del(ctx, key); err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

// Search runs a compiled query and hydrates the matching entities.
func (r *Repo) Search(ctx context.Context, req *db.SearchRequest) ([]domentity.Entity, int, error) {
	result, err := r.store.Search(ctx, r.indexName(), req)
	if err != nil {
		return nil, 0, fmt.Errorf("search: %w", err)
	}
	if result == nil || result.Total == 0 {
		return nil, 0, nil
	}

	entities := make([]domentity.Entity, 0, len(result.Entries))
	for _, entry := range result.Entries {
		id := r.extractID(entry.Key)
		e, err := parseSearchEntry(id, entry.Fields)
		if err != nil {
			continue // skip documents the index returned in a shape we cannot read
		}
		entities = append(entities, e)
	}
	return entities, result.Total, nil
}

// Count returns the number of entities matching a compiled query string.
func (r *Repo) Count(ctx context.Context, query string) (int, error) {
	n, err := r.store.SearchCount(ctx, r.indexName(), query)
	if err != nil {
		return 0, fmt.Errorf("search count: %w", err)
	}
	return n, nil
}

// BulkSet writes many entities in one pipelined call and returns one
// outcome per entity in input order.
func (r *Repo) BulkSet(ctx context.Context, entities []domentity.Entity) ([]error, error) {
	if len(entities) == 0 {
		return nil, nil
	}

	ops := make([]db.BulkOp, 0, len(entities))
	outcomes := make([]error, len(entities))
	// ops[i] may be skipped when marshalling fails; track the source slot.
	slots := make([]int, 0, len(entities))

	for i := range entities {
		data, err := marshalEntity(&entities[i])
		if err != nil {
			outcomes[i] = err
			continue
		}
		ops = append(ops, db.BulkOp{
			Kind: db.BulkSet,
			Key:  r.docKey(entities[i].ID()),
			Path: "$",
			Data: data,
		})
		slots = append(slots, i)
	}

	results, err := r.store.Bulk(ctx, ops)
	if err != nil {
		return nil, fmt.Errorf("bulk set: %w", err)
	}
	for j, res := range results {
		outcomes[slots[j]] = res
	}
	return outcomes, nil
}

// BulkDelete removes many entities in one pipelined call and returns one
// outcome per ID in input order. Missing IDs map to domain.ErrNotFound.
func (r *Repo) BulkDelete(ctx context.Context, ids []string) ([]error, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	ops := make([]db.BulkOp, len(ids))
	for i, id := range ids {
		ops[i] = db.BulkOp{Kind: db.BulkDel, Key: r.docKey(id)}
	}

	results, err := r.store.Bulk(ctx, ops)
	if err != nil {
		return nil, fmt.Errorf("bulk delete: %w", err)
	}
	for i, res := range results {
		if errors.Is(res, db.ErrKeyNotFound) {
			results[i] = domain.ErrNotFound
		}
	}
	return results, nil
}

func (r *Repo) keyPrefix() string {
	return r.prefix + "entity:"
}

func (r *Repo) docKey(id string) string {
	return r.keyPrefix() + id
}

func (r *Repo) indexName() string {
	return r.prefix + "entity:idx"
}

func (r *Repo) extractID(key string) string {
	return strings.TrimPrefix(key, r.keyPrefix())
}
