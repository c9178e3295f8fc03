package db

import (
	"context"
	"time"
)

// Store is the search-engine facade the repositories consume. Implementations
// issue each call at most once: retries and backoff belong to the caller.
type Store interface {
	Pinger
	JSONStore
	IndexManager
	Searcher
	Bulker
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks backend connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// JSONStore provides JSON document operations.
type JSONStore interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// IndexManager provides FT index lifecycle operations.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Searcher provides search operations over FT indexes.
type Searcher interface {
	Search(ctx context.Context, index string, req *SearchRequest) (*SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}

// BulkOpKind selects the command a BulkOp issues.
type BulkOpKind string

// Bulk op kinds.
const (
	BulkSet BulkOpKind = "set"
	BulkDel BulkOpKind = "del"
)

// BulkOp is one write in a pipelined bulk call.
type BulkOp struct {
	Kind BulkOpKind
	Key  string
	Path string // JSON path for set ops
	Data []byte // payload for set ops
}

// Bulker executes independent write operations in a single pipelined call,
// returning one outcome per op in input order. A non-nil entry marks that
// item failed; the returned error covers transport-level failure only.
type Bulker interface {
	Bulk(ctx context.Context, ops []BulkOp) ([]error, error)
}
