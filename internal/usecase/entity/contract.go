package entity

import (
	"context"

	"github.com/kailas-cloud/docman/internal/db"
	domentity "github.com/kailas-cloud/docman/internal/domain/entity"
)

// Repository defines the storage contract for entities.
type Repository interface {
	Create(ctx context.Context, e *domentity.Entity) error
	Get(ctx context.Context, id string) (domentity.Entity, error)
	Update(ctx context.Context, e *domentity.Entity) error
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, req *db.SearchRequest) (entities []domentity.Entity, total int, err error)
}
