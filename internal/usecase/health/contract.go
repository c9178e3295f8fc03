package health

import "context"

// DBPinger checks store availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// IndexChecker reports whether a search index exists.
type IndexChecker interface {
	IndexExists(ctx context.Context, name string) (bool, error)
}
