package bulk

// ItemStatus is the processing outcome of a single bulk item.
type ItemStatus string

// Bulk item status values.
const (
	StatusOK    ItemStatus = "ok"
	StatusError ItemStatus = "error"
)

// Item is the outcome of processing one item in a bulk operation, carrying
// the produced value on success.
type Item[T any] struct {
	id     string
	status ItemStatus
	value  T
	err    error
}

// NewOK creates a successful bulk item outcome.
func NewOK[T any](id string, value T) Item[T] {
	return Item[T]{id: id, status: StatusOK, value: value}
}

// NewError creates a failed bulk item outcome.
func NewError[T any](id string, err error) Item[T] {
	return Item[T]{id: id, status: StatusError, err: err}
}

// ID returns the item identifier.
func (i Item[T]) ID() string { return i.id }

// Status returns the processing outcome.
func (i Item[T]) Status() ItemStatus { return i.status }

// Value returns the produced value (zero on failure).
func (i Item[T]) Value() T { return i.value }

// Err returns the error, if any.
func (i Item[T]) Err() error { return i.err }

// Failure is one failed item in a summary.
type Failure struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// Summary reduces heterogeneous per-item outcomes into a single
// success/failure report. Success is true iff no item failed; it says
// nothing about the transport-level fate of the batch call itself.
type Summary[T any] struct {
	Success        bool
	TotalProcessed int
	TotalSuccess   int
	TotalFailed    int
	Succeeded      []T
	Failed         []Failure
}

// Aggregate partitions per-item outcomes into a summary. An empty input
// aggregates to a successful zero summary: callers treat an empty batch as
// a no-op and never invoke the backend for it.
func Aggregate[T any](items []Item[T]) Summary[T] {
	s := Summary[T]{
		TotalProcessed: len(items),
		Succeeded:      []T{},
		Failed:         []Failure{},
	}
	for _, item := range items {
		if item.Status() == StatusOK {
			s.TotalSuccess++
			s.Succeeded = append(s.Succeeded, item.Value())
			continue
		}
		msg := "unknown error"
		if item.Err() != nil {
			msg = item.Err().Error()
		}
		s.TotalFailed++
		s.Failed = append(s.Failed, Failure{ID: item.ID(), Error: msg})
	}
	s.Success = s.TotalFailed == 0
	return s
}
