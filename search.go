package docman

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/docman/internal/domain/query"
	entityuc "github.com/kailas-cloud/docman/internal/usecase/entity"
)

// Op is a filter comparison operator.
type Op string

// Supported filter operators.
const (
	OpEq       Op = Op(query.OpEq)
	OpNeq      Op = Op(query.OpNeq)
	OpGt       Op = Op(query.OpGt)
	OpGte      Op = Op(query.OpGte)
	OpLt       Op = Op(query.OpLt)
	OpLte      Op = Op(query.OpLte)
	OpIn       Op = Op(query.OpIn)
	OpBetween  Op = Op(query.OpBetween)
	OpContains Op = Op(query.OpContains)
)

// Direction orders a sort field.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// SearchPage is one page of search results.
type SearchPage struct {
	Items    []Entity
	Total    int
	Page     int
	PageSize int
}

// SearchBuilder is a fluent builder for filtered, sorted, paginated queries.
type SearchBuilder struct {
	client *Client

	filters []any
	sorts   []any
	page    int
	size    int
}

// Search starts a new query.
func (c *Client) Search() *SearchBuilder {
	return &SearchBuilder{client: c}
}

// Where adds a filter condition on a field.
func (b *SearchBuilder) Where(field string, op Op, value any) *SearchBuilder {
	b.filters = append(b.filters, map[string]any{
		"field":    field,
		"operator": string(op),
		"value":    value,
	})
	return b
}

// WhereExists filters for entities where the field is present.
func (b *SearchBuilder) WhereExists(field string) *SearchBuilder {
	b.filters = append(b.filters, map[string]any{
		"field":    field,
		"operator": string(query.OpExists),
	})
	return b
}

// Sort adds a sort field. Fields added earlier take precedence.
func (b *SearchBuilder) Sort(field string, dir Direction) *SearchBuilder {
	b.sorts = append(b.sorts, map[string]any{
		"field":     field,
		"direction": string(dir),
		"priority":  float64(len(b.sorts)),
	})
	return b
}

// Page sets the 1-based page number.
func (b *SearchBuilder) Page(n int) *SearchBuilder {
	b.page = n
	return b
}

// PageSize sets the number of items per page.
func (b *SearchBuilder) PageSize(n int) *SearchBuilder {
	b.size = n
	return b
}

// Do executes the query.
func (b *SearchBuilder) Do(ctx context.Context) (SearchPage, error) {
	out, err := b.client.entities.Search(ctx, b.input())
	if err != nil {
		return SearchPage{}, fmt.Errorf("search: %w", err)
	}

	items := make([]Entity, len(out.Entities))
	for i := range out.Entities {
		items[i] = fromDomain(&out.Entities[i])
	}
	return SearchPage{
		Items:    items,
		Total:    out.Total,
		Page:     out.Page,
		PageSize: out.PageSize,
	}, nil
}

func (b *SearchBuilder) input() entityuc.SearchInput {
	in := entityuc.SearchInput{}
	if len(b.filters) > 0 {
		in.Filters = b.filters
	}
	if len(b.sorts) > 0 {
		in.Sort = b.sorts
	}
	if b.page > 0 {
		in.Page = float64(b.page)
	}
	if b.size > 0 {
		in.PageSize = float64(b.size)
	}
	return in
}
