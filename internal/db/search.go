package db

// SortClause is one ordered sort directive of a search request.
type SortClause struct {
	Field string
	Desc  bool
}

// SearchRequest is a compiled backend query, ready to hand to a Store.
// Query uses the RediSearch query DSL; Offset/Limit window the result.
type SearchRequest struct {
	Query  string
	Offset int
	Limit  int
	Sort   []SortClause
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Fields map[string]string
}
