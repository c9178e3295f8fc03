// Package validate enforces field-level and structural contracts on raw
// decoded JSON before it reaches the query compiler or the store. All
// checks are pure and collect every failure instead of stopping at the
// first one.
package validate

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/docman/internal/domain/entity"
	"github.com/kailas-cloud/docman/internal/domain/query"
)

// Limits is the recognized-options bag for the engine.
type Limits struct {
	MaxPageSize     int
	DefaultPageSize int
	MaxFilters      int
	// MaxSortFields caps accepted sort directives. The search backend
	// applies a single SORTBY clause, so directives beyond the first
	// break ties only if a future backend supports them.
	MaxSortFields int
	MaxBulkSize   int
}

// DefaultLimits returns the stock limits.
func DefaultLimits() Limits {
	return Limits{
		MaxPageSize:     100,
		DefaultPageSize: 20,
		MaxFilters:      10,
		MaxSortFields:   3,
		MaxBulkSize:     100,
	}
}

// Engine validates entities, filters, sort specs, pagination and bulk
// payloads against an injected field schema and limits.
type Engine struct {
	limits Limits
	schema entity.Schema
}

// New creates a validation engine.
func New(limits Limits, schema entity.Schema) *Engine {
	return &Engine{limits: limits, schema: schema}
}

// Limits returns the configured limits.
func (e *Engine) Limits() Limits { return e.limits }

// Entity validates a decoded entity payload. For updates, absent fields are
// skipped (partial-update semantics) but present fields follow the same
// rules as create.
func (e *Engine) Entity(candidate any, isUpdate bool) Result {
	var r Result

	m, ok := candidate.(map[string]any)
	if !ok {
		r.Add("", CodeInvalidType, "entity must be an object")
		return r
	}

	e.checkTitle(&r, m, isUpdate)
	e.checkStatus(&r, m)
	e.checkPriority(&r, m)
	e.checkTags(&r, m)

	return r
}

func (e *Engine) checkTitle(r *Result, m map[string]any, isUpdate bool) {
	v, present := m["title"]
	if !present {
		if !isUpdate {
			r.Add("title", CodeRequired, "title is required")
		}
		return
	}

	s, ok := v.(string)
	if !ok {
		r.Add("title", CodeInvalidType, "title must be a string")
		return
	}
	if strings.TrimSpace(s) == "" {
		r.Add("title", CodeEmptyValue, "title must not be empty")
		return
	}
	if utf8.RuneCountInString(s) > entity.MaxTitleLength {
		r.Add("title", CodeMaxLength, fmt.Sprintf("title exceeds %d characters", entity.MaxTitleLength))
	}
}

func (e *Engine) checkStatus(r *Result, m map[string]any) {
	v, present := m["status"]
	if !present {
		return
	}
	s, ok := v.(string)
	if !ok || !entity.ValidStatus(entity.Status(s)) {
		r.Add("status", CodeInvalidValue, "status must be one of: active, inactive, archived")
	}
}

func (e *Engine) checkPriority(r *Result, m map[string]any) {
	v, present := m["priority"]
	if !present {
		return
	}
	n, ok := asInt(v)
	if !ok {
		r.Add("priority", CodeInvalidValue, "priority must be an integer")
		return
	}
	if n < entity.MinPriority || n > entity.MaxPriority {
		r.Add("priority", CodeOutOfRange,
			fmt.Sprintf("priority must be between %d and %d", entity.MinPriority, entity.MaxPriority))
	}
}

func (e *Engine) checkTags(r *Result, m map[string]any) {
	v, present := m["tags"]
	if !present {
		return
	}
	arr, ok := v.([]any)
	if !ok {
		r.Add("tags", CodeInvalidType, "tags must be an array")
		return
	}
	if len(arr) > entity.MaxTags {
		r.Add("tags", CodeMaxItems, fmt.Sprintf("at most %d tags allowed", entity.MaxTags))
	}
	for i, t := range arr {
		s, ok := t.(string)
		if !ok {
			r.Add(fmt.Sprintf("tags[%d]", i), CodeInvalidType, "tag must be a string")
			continue
		}
		if utf8.RuneCountInString(s) > entity.MaxTagLength {
			r.Add(fmt.Sprintf("tags[%d]", i), CodeMaxLength,
				fmt.Sprintf("tag exceeds %d characters", entity.MaxTagLength))
		}
	}
}

// Filters validates a decoded filter list: allow-listed fields, known
// operators, and value arity per operator.
func (e *Engine) Filters(candidate any) Result {
	var r Result

	if candidate == nil {
		return r
	}
	arr, ok := candidate.([]any)
	if !ok {
		r.Add("filters", CodeInvalidType, "filters must be an array")
		return r
	}
	if len(arr) > e.limits.MaxFilters {
		r.Add("filters", CodeMaxFilters, fmt.Sprintf("at most %d filters allowed", e.limits.MaxFilters))
	}

	for i, item := range arr {
		path := fmt.Sprintf("filters[%d]", i)
		m, ok := item.(map[string]any)
		if !ok {
			r.Add(path, CodeInvalidType, "filter must be an object")
			continue
		}
		e.checkFilter(&r, path, m)
	}
	return r
}

func (e *Engine) checkFilter(r *Result, path string, m map[string]any) {
	field, _ := m["field"].(string)
	if field == "" {
		r.Add(path+".field", CodeRequired, "filter field is required")
	} else if !e.schema.Has(field) {
		r.Add(path+".field", CodeInvalidValue, fmt.Sprintf("unknown filter field %q", field))
	}

	opRaw, present := m["operator"]
	if !present {
		r.Add(path+".operator", CodeRequired, "filter operator is required")
		return
	}
	opStr, _ := opRaw.(string)
	op := query.Operator(opStr)
	if !query.ValidOperator(op) {
		r.Add(path+".operator", CodeInvalidValue, fmt.Sprintf("unknown operator %q", opStr))
		return
	}

	value := m["value"]
	if value == nil {
		if op.NeedsValue() {
			r.Add(path+".value", CodeRequired, fmt.Sprintf("operator %q requires a value", op))
		}
		return
	}

	switch op {
	case query.OpIn:
		if _, ok := value.([]any); !ok {
			r.Add(path+".value", CodeInvalidType, "operator \"in\" requires an array value")
		}
	case query.OpBetween:
		arr, ok := value.([]any)
		if !ok || len(arr) != 2 {
			r.Add(path+".value", CodeInvalidValue, "operator \"between\" requires an array of exactly 2 values")
		}
	}
}

// Sort validates a decoded sort spec list against the sortable fields.
func (e *Engine) Sort(candidate any) Result {
	var r Result

	if candidate == nil {
		return r
	}
	arr, ok := candidate.([]any)
	if !ok {
		r.Add("sort", CodeInvalidType, "sort must be an array")
		return r
	}
	if len(arr) > e.limits.MaxSortFields {
		r.Add("sort", CodeMaxSortFields, fmt.Sprintf("at most %d sort fields allowed", e.limits.MaxSortFields))
	}

	for i, item := range arr {
		path := fmt.Sprintf("sort[%d]", i)
		m, ok := item.(map[string]any)
		if !ok {
			r.Add(path, CodeInvalidType, "sort spec must be an object")
			continue
		}
		e.checkSort(&r, path, m)
	}
	return r
}

func (e *Engine) checkSort(r *Result, path string, m map[string]any) {
	field, _ := m["field"].(string)
	if field == "" {
		r.Add(path+".field", CodeRequired, "sort field is required")
	} else if f, ok := e.schema.Lookup(field); !ok || !f.Sortable() {
		r.Add(path+".field", CodeInvalidValue, fmt.Sprintf("field %q is not sortable", field))
	}

	if v, present := m["direction"]; present {
		d, _ := v.(string)
		if !query.ValidDirection(query.Direction(d)) {
			r.Add(path+".direction", CodeInvalidValue, "direction must be \"asc\" or \"desc\"")
		}
	}

	if v, present := m["priority"]; present {
		n, ok := asInt(v)
		if !ok {
			r.Add(path+".priority", CodeInvalidValue, "priority must be an integer")
		} else if n < 0 {
			r.Add(path+".priority", CodeOutOfRange, "priority must not be negative")
		}
	}
}

// Pagination validates page and pageSize. Nil means absent; defaults are
// applied by the caller, not here.
func (e *Engine) Pagination(page, pageSize any) Result {
	var r Result

	if page != nil {
		n, ok := asInt(page)
		switch {
		case !ok:
			r.Add("page", CodeInvalidValue, "page must be an integer")
		case n < 1:
			r.Add("page", CodeOutOfRange, "page must be at least 1")
		}
	}

	if pageSize != nil {
		n, ok := asInt(pageSize)
		switch {
		case !ok:
			r.Add("pageSize", CodeInvalidValue, "pageSize must be an integer")
		case n < 1 || n > e.limits.MaxPageSize:
			r.Add("pageSize", CodeOutOfRange,
				fmt.Sprintf("pageSize must be between 1 and %d", e.limits.MaxPageSize))
		}
	}

	return r
}

// ID validates an entity identifier.
func (e *Engine) ID(candidate any) Result {
	return checkID("id", candidate)
}

func checkID(path string, candidate any) Result {
	var r Result

	if candidate == nil {
		r.Add(path, CodeRequired, "id is required")
		return r
	}
	s, ok := candidate.(string)
	if !ok {
		r.Add(path, CodeInvalidType, "id must be a string")
		return r
	}
	if strings.TrimSpace(s) == "" {
		r.Add(path, CodeEmptyValue, "id must not be empty")
		return r
	}
	if utf8.RuneCountInString(s) > entity.MaxIDLength {
		r.Add(path, CodeMaxLength, fmt.Sprintf("id exceeds %d characters", entity.MaxIDLength))
	}
	return r
}

// BulkCreate validates a decoded `entities` array, re-rooting per-item
// failures under entities[i].
func (e *Engine) BulkCreate(candidate any) Result {
	r, arr := e.checkBulkArray("entities", candidate)
	for i, item := range arr {
		r.Merge(fmt.Sprintf("entities[%d]", i), e.Entity(item, false))
	}
	return r
}

// BulkUpdate validates a decoded `updates` array of {id, attributes} pairs.
func (e *Engine) BulkUpdate(candidate any) Result {
	r, arr := e.checkBulkArray("updates", candidate)
	for i, item := range arr {
		path := fmt.Sprintf("updates[%d]", i)
		m, ok := item.(map[string]any)
		if !ok {
			r.Add(path, CodeInvalidType, "update must be an object")
			continue
		}
		r.Merge(path, checkID("id", m["id"]))

		attrs, present := m["attributes"]
		if !present {
			r.Add(path+".attributes", CodeRequired, "attributes are required")
			continue
		}
		if _, ok := attrs.(map[string]any); !ok {
			r.Add(path+".attributes", CodeInvalidType, "attributes must be an object")
			continue
		}
		r.Merge(path+".attributes", e.Entity(attrs, true))
	}
	return r
}

// BulkDelete validates a decoded `ids` array.
func (e *Engine) BulkDelete(candidate any) Result {
	r, arr := e.checkBulkArray("ids", candidate)
	for i, item := range arr {
		r.Merge(fmt.Sprintf("ids[%d]", i), checkID("", item))
	}
	return r
}

func (e *Engine) checkBulkArray(field string, candidate any) (Result, []any) {
	var r Result

	arr, ok := candidate.([]any)
	if !ok {
		r.Add(field, CodeInvalidType, field+" must be an array")
		return r, nil
	}
	if len(arr) == 0 {
		r.Add(field, CodeEmptyArray, field+" must not be empty")
		return r, nil
	}
	if len(arr) > e.limits.MaxBulkSize {
		r.Add(field, CodeMaxBulkSize, fmt.Sprintf("at most %d items allowed per bulk request", e.limits.MaxBulkSize))
		return r, nil
	}
	return r, arr
}

// Sanitize trims surrounding whitespace and strips embedded NUL bytes from
// free-text input. Non-string input yields an empty string. This is not
// output encoding: callers still HTML-escape before rendering.
func Sanitize(candidate any) string {
	s, ok := candidate.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(strings.ReplaceAll(s, "\x00", ""))
}

// asInt accepts JSON numbers (float64) and Go ints, rejecting fractional values.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) || math.IsNaN(n) {
			return 0, false
		}
		return int(n), true
	}
	return 0, false
}
