// Package query holds the abstract filter/sort/pagination specs compiled
// into backend search requests.
package query

// Operator is a filter comparison operator.
type Operator string

// Filter operators.
const (
	OpEq       Operator = "eq"
	OpNeq      Operator = "neq"
	OpGt       Operator = "gt"
	OpGte      Operator = "gte"
	OpLt       Operator = "lt"
	OpLte      Operator = "lte"
	OpIn       Operator = "in"
	OpBetween  Operator = "between"
	OpExists   Operator = "exists"
	OpContains Operator = "contains"
)

// ValidOperator reports whether op is a known operator.
func ValidOperator(op Operator) bool {
	switch op {
	case OpEq, OpNeq, OpGt, OpGte, OpLt, OpLte, OpIn, OpBetween, OpExists, OpContains:
		return true
	}
	return false
}

// NeedsValue reports whether op requires a comparison value.
func (op Operator) NeedsValue() bool { return op != OpExists }

// Filter is one field/operator/value constraint. Value is the raw decoded
// JSON value; its arity per operator is enforced by the validate engine
// before a Filter reaches the compiler.
type Filter struct {
	Field    string
	Operator Operator
	Value    any
}

// Direction is a sort direction.
type Direction string

// Sort directions.
const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ValidDirection reports whether d is a known direction.
func ValidDirection(d Direction) bool { return d == Asc || d == Desc }

// Sort is one field/direction ordering rule. Lower Priority sorts earlier
// when multiple specs are combined.
type Sort struct {
	Field     string
	Direction Direction
	Priority  int
}

// Page is a 1-based pagination window.
type Page struct {
	Number int
	Size   int
}

// Offset returns the zero-based result offset for the page.
func (p Page) Offset() int { return (p.Number - 1) * p.Size }
