package docman

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/docman/internal/db"
	dbRedis "github.com/kailas-cloud/docman/internal/db/redis"
	dombulk "github.com/kailas-cloud/docman/internal/domain/bulk"
	domentity "github.com/kailas-cloud/docman/internal/domain/entity"
	"github.com/kailas-cloud/docman/internal/domain/flatten"
	"github.com/kailas-cloud/docman/internal/domain/validate"
	entityrepo "github.com/kailas-cloud/docman/internal/repository/entity"
	bulkuc "github.com/kailas-cloud/docman/internal/usecase/bulk"
	entityuc "github.com/kailas-cloud/docman/internal/usecase/entity"
)

const defaultReadinessTimeout = 10 * time.Second

// Client is the docman SDK entry point: an embedded document manager over
// a RediSearch-capable store, sharing the service layer with the HTTP API.
type Client struct {
	store    db.Store
	entities *entityuc.Service
	bulk     *bulkuc.Service
}

// New creates a docman Client and connects to the database.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		readinessTimeout: defaultReadinessTimeout,
	}
	for _, o := range opts {
		o(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("docman: database address required (use WithAddrs)")
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.addrs,
		Username: cfg.username,
		Password: cfg.password,
		DB:       cfg.database,
	})
	if err != nil {
		return nil, fmt.Errorf("docman: create store: %w", err)
	}

	ctx := context.Background()
	if err := store.WaitForReady(ctx, cfg.readinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("docman: database not ready: %w", err)
	}

	repo := entityrepo.New(store).WithKeyPrefix(cfg.keyPrefix)
	if err := repo.EnsureIndex(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("docman: ensure index: %w", err)
	}

	schema := domentity.DefaultSchema()
	engine := validate.New(cfg.limits.toEngine(), schema)

	return &Client{
		store:    store,
		entities: entityuc.New(repo, engine, schema),
		bulk:     bulkuc.New(repo, engine),
	}, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Entity is a stored document.
type Entity struct {
	ID         string
	Title      string
	Status     string
	Priority   int
	Tags       []string
	Attributes map[string]any
	CreatedAt  int64
	UpdatedAt  int64
}

// FlatEntry is one path/value leaf of a flattened entity.
type FlatEntry struct {
	Path  string
	Value any
}

// Create validates the given fields and stores a new entity. A missing
// "id" field is generated.
func (c *Client) Create(ctx context.Context, fields map[string]any) (Entity, error) {
	e, err := c.entities.Create(ctx, anyMap(fields))
	if err != nil {
		return Entity{}, err
	}
	return fromDomain(&e), nil
}

// Get returns an entity by ID.
func (c *Client) Get(ctx context.Context, id string) (Entity, error) {
	e, err := c.entities.Get(ctx, id)
	if err != nil {
		return Entity{}, err
	}
	return fromDomain(&e), nil
}

// Update applies a partial update: fields absent from the map keep their
// stored values.
func (c *Client) Update(ctx context.Context, id string, fields map[string]any) (Entity, error) {
	e, err := c.entities.Update(ctx, id, anyMap(fields))
	if err != nil {
		return Entity{}, err
	}
	return fromDomain(&e), nil
}

// Delete removes an entity.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.entities.Delete(ctx, id)
}

// Flat returns an entity as editable path/value leaves.
func (c *Client) Flat(ctx context.Context, id string) ([]FlatEntry, error) {
	entries, err := c.entities.Flat(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]FlatEntry, len(entries))
	for i, e := range entries {
		out[i] = FlatEntry{Path: e.Path, Value: e.Value}
	}
	return out, nil
}

// ReplaceFlat rebuilds an entity from flat leaves and stores it as a full
// replacement.
func (c *Client) ReplaceFlat(ctx context.Context, id string, entries []FlatEntry) (Entity, error) {
	in := make([]flatten.Entry, len(entries))
	for i, e := range entries {
		in[i] = flatten.Entry{Path: e.Path, Value: e.Value}
	}
	e, err := c.entities.FlatReplace(ctx, id, in)
	if err != nil {
		return Entity{}, err
	}
	return fromDomain(&e), nil
}

// BulkFailure is one failed item of a bulk operation.
type BulkFailure struct {
	ID    string
	Error string
}

// BulkResult summarizes a bulk operation. Exactly the items listed in
// Failed did not apply; the batch itself never aborts on item failures.
type BulkResult struct {
	Success        bool
	TotalProcessed int
	TotalSuccess   int
	TotalFailed    int
	Entities       []Entity
	DeletedIDs     []string
	Failed         []BulkFailure
}

// BulkCreate inserts many entities in one pipelined write.
func (c *Client) BulkCreate(ctx context.Context, items []map[string]any) (BulkResult, error) {
	summary, err := c.bulk.Create(ctx, anySlice(items))
	if err != nil {
		return BulkResult{}, err
	}
	return entityBulkResult(summary.Success, summary.TotalProcessed, summary.TotalSuccess,
		summary.TotalFailed, summary.Succeeded, summary.Failed), nil
}

// BulkUpdateItem is one partial update of a bulk update.
type BulkUpdateItem struct {
	ID         string
	Attributes map[string]any
}

// BulkUpdate applies many partial updates in one pipelined write.
func (c *Client) BulkUpdate(ctx context.Context, updates []BulkUpdateItem) (BulkResult, error) {
	payload := make([]any, len(updates))
	for i, u := range updates {
		payload[i] = map[string]any{"id": u.ID, "attributes": u.Attributes}
	}
	summary, err := c.bulk.Update(ctx, payload)
	if err != nil {
		return BulkResult{}, err
	}
	return entityBulkResult(summary.Success, summary.TotalProcessed, summary.TotalSuccess,
		summary.TotalFailed, summary.Succeeded, summary.Failed), nil
}

// BulkDelete removes many entities in one pipelined call. Missing IDs fail
// their item only.
func (c *Client) BulkDelete(ctx context.Context, ids []string) (BulkResult, error) {
	payload := make([]any, len(ids))
	for i, id := range ids {
		payload[i] = id
	}
	summary, err := c.bulk.Delete(ctx, payload)
	if err != nil {
		return BulkResult{}, err
	}

	res := BulkResult{
		Success:        summary.Success,
		TotalProcessed: summary.TotalProcessed,
		TotalSuccess:   summary.TotalSuccess,
		TotalFailed:    summary.TotalFailed,
		DeletedIDs:     summary.Succeeded,
	}
	for _, f := range summary.Failed {
		res.Failed = append(res.Failed, BulkFailure{ID: f.ID, Error: f.Error})
	}
	return res, nil
}

func entityBulkResult(
	success bool, processed, ok, failed int,
	succeeded []domentity.Entity, failures []dombulk.Failure,
) BulkResult {
	res := BulkResult{
		Success:        success,
		TotalProcessed: processed,
		TotalSuccess:   ok,
		TotalFailed:    failed,
	}
	for i := range succeeded {
		res.Entities = append(res.Entities, fromDomain(&succeeded[i]))
	}
	for _, f := range failures {
		res.Failed = append(res.Failed, BulkFailure{ID: f.ID, Error: f.Error})
	}
	return res
}

func fromDomain(e *domentity.Entity) Entity {
	return Entity{
		ID:         e.ID(),
		Title:      e.Title(),
		Status:     string(e.Status()),
		Priority:   e.Priority(),
		Tags:       e.Tags(),
		Attributes: e.Attributes(),
		CreatedAt:  e.CreatedAt(),
		UpdatedAt:  e.UpdatedAt(),
	}
}

// anyMap passes a decoded-JSON-shaped map through as the services expect.
func anyMap(m map[string]any) any {
	if m == nil {
		return nil
	}
	return m
}

func anySlice(items []map[string]any) any {
	out := make([]any, len(items))
	for i, m := range items {
		out[i] = m
	}
	return out
}
