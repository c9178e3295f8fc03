package db

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/docman/internal/domain/entity"
	"github.com/kailas-cloud/docman/internal/domain/query"
)

// Compile turns validated filter/sort/pagination specs into a backend
// search request. Filters combine as an AND conjunction only; OR and
// grouping are not supported. Inputs are assumed to have passed the
// validate engine — Compile performs no validation of its own and never
// touches the network.
func Compile(filters []query.Filter, sorts []query.Sort, page query.Page, schema entity.Schema) SearchRequest {
	return SearchRequest{
		Query:  compileQuery(filters, schema),
		Offset: page.Offset(),
		Limit:  page.Size,
		Sort:   compileSort(sorts),
	}
}

func compileQuery(filters []query.Filter, schema entity.Schema) string {
	if len(filters) == 0 {
		return "*"
	}

	parts := make([]string, 0, len(filters))
	for _, f := range filters {
		kind := entity.KindText
		if fld, ok := schema.Lookup(f.Field); ok {
			kind = fld.FieldKind()
		}
		if clause := compileClause(f, kind); clause != "" {
			parts = append(parts, clause)
		}
	}
	if len(parts) == 0 {
		return "*"
	}
	return strings.Join(parts, " ")
}

func compileClause(f query.Filter, kind entity.Kind) string {
	switch f.Operator {
	case query.OpEq:
		return exactClause(f.Field, f.Value, kind)
	case query.OpNeq:
		return "-" + exactClause(f.Field, f.Value, kind)
	case query.OpGt:
		return fmt.Sprintf("@%s:[(%s +inf]", f.Field, formatNumber(f.Value))
	case query.OpGte:
		return fmt.Sprintf("@%s:[%s +inf]", f.Field, formatNumber(f.Value))
	case query.OpLt:
		return fmt.Sprintf("@%s:[-inf (%s]", f.Field, formatNumber(f.Value))
	case query.OpLte:
		return fmt.Sprintf("@%s:[-inf %s]", f.Field, formatNumber(f.Value))
	case query.OpIn:
		return inClause(f.Field, f.Value, kind)
	case query.OpBetween:
		bounds, ok := f.Value.([]any)
		if !ok || len(bounds) != 2 {
			return ""
		}
		return fmt.Sprintf("@%s:[%s %s]", f.Field, formatNumber(bounds[0]), formatNumber(bounds[1]))
	case query.OpContains:
		return containsClause(f.Field, f.Value, kind)
	case query.OpExists:
		return fmt.Sprintf("-ismissing(@%s)", f.Field)
	}
	return ""
}

func exactClause(field string, value any, kind entity.Kind) string {
	switch kind {
	case entity.KindNumeric:
		n := formatNumber(value)
		return fmt.Sprintf("@%s:[%s %s]", field, n, n)
	case entity.KindTag:
		return fmt.Sprintf("@%s:{%s}", field, tagEscaper.Replace(formatString(value)))
	default:
		return fmt.Sprintf("@%s:%q", field, formatString(value))
	}
}

func inClause(field string, value any, kind entity.Kind) string {
	values, ok := value.([]any)
	if !ok || len(values) == 0 {
		return ""
	}

	if kind == entity.KindNumeric {
		alts := make([]string, len(values))
		for i, v := range values {
			n := formatNumber(v)
			alts[i] = fmt.Sprintf("@%s:[%s %s]", field, n, n)
		}
		if len(alts) == 1 {
			return alts[0]
		}
		return "(" + strings.Join(alts, " | ") + ")"
	}

	alts := make([]string, len(values))
	for i, v := range values {
		alts[i] = tagEscaper.Replace(formatString(v))
	}
	return fmt.Sprintf("@%s:{%s}", field, strings.Join(alts, " | "))
}

func containsClause(field string, value any, kind entity.Kind) string {
	s := formatString(value)
	if kind == entity.KindTag {
		return fmt.Sprintf("@%s:{*%s*}", field, tagEscaper.Replace(s))
	}
	return fmt.Sprintf("@%s:(%s)", field, queryEscaper.Replace(s))
}

// compileSort orders specs by ascending priority, keeping original order
// for ties (stable), and strips the priority from the emitted clauses.
func compileSort(sorts []query.Sort) []SortClause {
	if len(sorts) == 0 {
		return nil
	}

	ordered := make([]query.Sort, len(sorts))
	copy(ordered, sorts)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority < ordered[j].Priority
	})

	clauses := make([]SortClause, len(ordered))
	for i, s := range ordered {
		clauses[i] = SortClause{Field: s.Field, Desc: s.Direction == query.Desc}
	}
	return clauses
}

func formatNumber(v any) string {
	switch n := v.(type) {
	case float64:
		return fmt.Sprintf("%g", n)
	case int:
		return fmt.Sprintf("%d", n)
	case int64:
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%v", v)
}

func formatString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

var tagEscaper = strings.NewReplacer(
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	" ", "\\ ",
)

var queryEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`"`, `\"`,
	`@`, `\@`,
	`{`, `\{`,
	`}`, `\}`,
	`(`, `\(`,
	`)`, `\)`,
	`|`, `\|`,
	`-`, `\-`,
	`~`, `\~`,
	`*`, `\*`,
	`[`, `\[`,
	`]`, `\]`,
	`!`, `\!`,
	`%`, `\%`,
	`^`, `\^`,
	`$`, `\$`,
	`<`, `\<`,
	`>`, `\>`,
	`=`, `\=`,
	`;`, `\;`,
	`+`, `\+`,
)
