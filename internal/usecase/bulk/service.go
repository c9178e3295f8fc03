package bulk

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/docman/internal/domain"
	dombulk "github.com/kailas-cloud/docman/internal/domain/bulk"
	domentity "github.com/kailas-cloud/docman/internal/domain/entity"
	"github.com/kailas-cloud/docman/internal/domain/validate"
	ucentity "github.com/kailas-cloud/docman/internal/usecase/entity"
)

// Service handles bulk entity operations with per-item outcomes. The
// whole payload is validated up front; item-level failures after that
// point never abort the rest of the batch.
type Service struct {
	repo   Repository
	engine *validate.Engine
	now    func() time.Time
	newID  func() string
}

// New creates a bulk service.
func New(repo Repository, engine *validate.Engine) *Service {
	return &Service{
		repo:   repo,
		engine: engine,
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

// Create validates a raw `entities` array and inserts the items in one
// pipelined write. IDs already taken fail their item only.
func (s *Service) Create(ctx context.Context, payload any) (dombulk.Summary[domentity.Entity], error) {
	if err := s.engine.BulkCreate(payload).Err(); err != nil {
		return dombulk.Summary[domentity.Entity]{}, err
	}
	arr, _ := payload.([]any)

	nowMs := s.now().UnixMilli()
	items := make([]dombulk.Item[domentity.Entity], len(arr))
	valid := make([]domentity.Entity, 0, len(arr))
	validIdx := make([]int, 0, len(arr))

	for i, raw := range arr {
		m, _ := raw.(map[string]any)
		id, _ := m["id"].(string)
		if id == "" {
			id = s.newID()
		}

		e, err := ucentity.Build(id, m, domentity.Entity{})
		if err != nil {
			items[i] = dombulk.NewError[domentity.Entity](id, err)
			continue
		}
		e = e.WithTimestamps(nowMs, nowMs)

		exists, err := s.repo.Exists(ctx, id)
		if err != nil {
			items[i] = dombulk.NewError[domentity.Entity](id, fmt.Errorf("check exists: %w", err))
			continue
		}
		if exists {
			items[i] = dombulk.NewError[domentity.Entity](id, domain.ErrAlreadyExists)
			continue
		}

		valid = append(valid, e)
		validIdx = append(validIdx, i)
	}

	if err := s.flush(ctx, items, valid, validIdx); err != nil {
		return dombulk.Summary[domentity.Entity]{}, err
	}
	return dombulk.Aggregate(items), nil
}

// Update validates a raw `updates` array of {id, attributes} pairs and
// applies the partial updates in one pipelined write. Unknown IDs fail
// their item only.
func (s *Service) Update(ctx context.Context, payload any) (dombulk.Summary[domentity.Entity], error) {
	if err := s.engine.BulkUpdate(payload).Err(); err != nil {
		return dombulk.Summary[domentity.Entity]{}, err
	}
	arr, _ := payload.([]any)

	nowMs := s.now().UnixMilli()
	items := make([]dombulk.Item[domentity.Entity], len(arr))
	valid := make([]domentity.Entity, 0, len(arr))
	validIdx := make([]int, 0, len(arr))

	for i, raw := range arr {
		m, _ := raw.(map[string]any)
		id, _ := m["id"].(string)
		attrs, _ := m["attributes"].(map[string]any)

		current, err := s.repo.Get(ctx, id)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				err = fmt.Errorf("get entity: %w", err)
			}
			items[i] = dombulk.NewError[domentity.Entity](id, err)
			continue
		}

		e, err := ucentity.Build(id, attrs, current)
		if err != nil {
			items[i] = dombulk.NewError[domentity.Entity](id, err)
			continue
		}
		e = e.WithTimestamps(current.CreatedAt(), nowMs)

		valid = append(valid, e)
		validIdx = append(validIdx, i)
	}

	if err := s.flush(ctx, items, valid, validIdx); err != nil {
		return dombulk.Summary[domentity.Entity]{}, err
	}
	return dombulk.Aggregate(items), nil
}

// Delete validates a raw `ids` array and removes the entities in one
// pipelined call. Missing IDs fail their item only.
func (s *Service) Delete(ctx context.Context, payload any) (dombulk.Summary[string], error) {
	if err := s.engine.BulkDelete(payload).Err(); err != nil {
		return dombulk.Summary[string]{}, err
	}
	arr, _ := payload.([]any)

	ids := make([]string, len(arr))
	for i, raw := range arr {
		ids[i], _ = raw.(string)
	}

	outcomes, err := s.repo.BulkDelete(ctx, ids)
	if err != nil {
		return dombulk.Summary[string]{}, fmt.Errorf("bulk delete: %w", err)
	}

	items := make([]dombulk.Item[string], len(ids))
	for i, id := range ids {
		if outcomes[i] != nil {
			items[i] = dombulk.NewError[string](id, outcomes[i])
			continue
		}
		items[i] = dombulk.NewOK(id, id)
	}
	return dombulk.Aggregate(items), nil
}

// flush writes the surviving entities in one pipelined call and maps
// per-op outcomes back onto their original item slots.
func (s *Service) flush(
	ctx context.Context,
	items []dombulk.Item[domentity.Entity],
	valid []domentity.Entity,
	validIdx []int,
) error {
	if len(valid) == 0 {
		return nil
	}

	outcomes, err := s.repo.BulkSet(ctx, valid)
	if err != nil {
		return fmt.Errorf("bulk set: %w", err)
	}
	for j, idx := range validIdx {
		if outcomes[j] != nil {
			items[idx] = dombulk.NewError[domentity.Entity](valid[j].ID(), outcomes[j])
			continue
		}
		items[idx] = dombulk.NewOK(valid[j].ID(), valid[j])
	}
	return nil
}
