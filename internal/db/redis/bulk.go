package redis

import (
	"context"
	"fmt"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/docman/internal/db"
)

// Bulk pipelines the given ops in a single round trip via DoMulti and
// returns one outcome per op in input order. A nil entry means the op
// succeeded; the trailing error reports transport-level failure only.
func (s *Store) Bulk(ctx context.Context, ops []db.BulkOp) ([]error, error) {
	if len(ops) == 0 {
		return nil, nil
	}

	cmds := make([]rueidis.Completed, 0, len(ops))
	for i := range ops {
		cmd, err := s.buildBulkCmd(&ops[i])
		if err != nil {
			return nil, fmt.Errorf("op %d: %w", i, err)
		}
		cmds = append(cmds, cmd)
	}

	results := s.client.DoMulti(ctx, cmds...)

	outcomes := make([]error, len(ops))
	for i, res := range results {
		outcomes[i] = bulkOutcome(&ops[i], res)
	}
	return outcomes, nil
}

func (s *Store) buildBulkCmd(op *db.BulkOp) (rueidis.Completed, error) {
	switch op.Kind {
	case db.BulkSet:
		path := op.Path
		if path == "" {
			path = "$"
		}
		return s.b().Arbitrary("JSON.SET").Keys(op.Key).Args(path, string(op.Data)).Build(), nil
	case db.BulkDel:
		return s.b().Del().Key(op.Key).Build(), nil
	default:
		return rueidis.Completed{}, fmt.Errorf("unknown bulk op kind %q", op.Kind)
	}
}

func bulkOutcome(op *db.BulkOp, res rueidis.RedisResult) error {
	switch op.Kind {
	case db.BulkDel:
		n, err := res.AsInt64()
		if err != nil {
			return &db.Error{Op: db.OpDel, Err: err}
		}
		if n == 0 {
			return db.ErrKeyNotFound
		}
		return nil
	default:
		if err := res.Error(); err != nil {
			return &db.Error{Op: db.OpJSONSet, Err: err}
		}
		return nil
	}
}
