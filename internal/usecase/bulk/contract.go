package bulk

import (
	"context"

	domentity "github.com/kailas-cloud/docman/internal/domain/entity"
)

// Repository defines the storage contract for bulk entity operations.
// BulkSet and BulkDelete return one outcome per input item in order.
type Repository interface {
	Exists(ctx context.Context, id string) (bool, error)
	Get(ctx context.Context, id string) (domentity.Entity, error)
	BulkSet(ctx context.Context, entities []domentity.Entity) ([]error, error)
	BulkDelete(ctx context.Context, ids []string) ([]error, error)
}
