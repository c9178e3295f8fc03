// Package flatten converts arbitrarily nested JSON documents into flat,
// editable path/value pairs and back. Paths join object keys with "." and
// address array elements as "key[index]"; Flatten and Unflatten are mutual
// inverses for any document whose keys stay clear of those separators.
package flatten

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/kailas-cloud/docman/internal/domain"
)

// Entry is one leaf of a flattened document: a path mapped to a scalar or null.
type Entry struct {
	Path  string `json:"path"`
	Value any    `json:"value"`
}

// Flatten converts a nested document into flat entries, depth-first in key
// order. Scalars and null are leaves; objects and arrays recurse, except
// that an empty object or array becomes a leaf holding the empty container
// itself, so no part of the document is lost in the flat form. Keys
// containing ".", "[" or "]" collide with the path encoding and are
// rejected with domain.ErrUnsupportedKey.
func Flatten(doc any) ([]Entry, error) {
	entries := []Entry{}
	if err := walk("", doc, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func walk(path string, v any, out *[]Entry) error {
	switch val := v.(type) {
	case map[string]any:
		if len(val) == 0 {
			*out = append(*out, Entry{Path: path, Value: map[string]any{}})
			return nil
		}
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if strings.ContainsAny(k, ".[]") {
				return fmt.Errorf("key %q contains path separators: %w", k, domain.ErrUnsupportedKey)
			}
			child := k
			if path != "" {
				child = path + "." + k
			}
			if err := walk(child, val[k], out); err != nil {
				return err
			}
		}
	case []any:
		if len(val) == 0 {
			*out = append(*out, Entry{Path: path, Value: []any{}})
			return nil
		}
		for i, item := range val {
			if err := walk(fmt.Sprintf("%s[%d]", path, i), item, out); err != nil {
				return err
			}
		}
	default:
		// Leaf: scalar or null, stored as-is.
		*out = append(*out, Entry{Path: path, Value: val})
	}
	return nil
}

// Unflatten rebuilds a nested document from flat entries, creating
// intermediate objects and arrays as needed. Array indices are expected to
// be contiguous from 0 (Flatten always emits them that way; gaps left by
// hand-edited input become nulls). An entry whose path conflicts with an
// already-built branch is an error.
func Unflatten(entries []Entry) (any, error) {
	if len(entries) == 0 {
		return map[string]any{}, nil
	}

	var root any
	for _, e := range entries {
		toks, err := parsePath(e.Path)
		if err != nil {
			return nil, err
		}
		root, err = assign(root, toks, e.Value)
		if err != nil {
			return nil, fmt.Errorf("path %q: %w", e.Path, err)
		}
	}
	return root, nil
}

// token is one step of a parsed path: an object key or an array index.
type token struct {
	key   string
	index int
	isKey bool
}

// parsePath splits "a.b[2].c" into [key a, key b, index 2, key c].
// An empty path addresses the document root itself.
func parsePath(path string) ([]token, error) {
	if path == "" {
		return nil, nil
	}

	var toks []token
	for i, part := range strings.Split(path, ".") {
		bracket := strings.IndexByte(part, '[')

		key := part
		if bracket >= 0 {
			key = part[:bracket]
		}
		if key == "" {
			// Only a root-level array path like "[0]" may omit the key.
			if i != 0 || bracket != 0 {
				return nil, fmt.Errorf("path %q: empty segment", path)
			}
		} else {
			toks = append(toks, token{key: key, isKey: true})
		}

		if bracket < 0 {
			continue
		}
		rest := part[bracket:]
		for rest != "" {
			if rest[0] != '[' {
				return nil, fmt.Errorf("path %q: malformed index in %q", path, part)
			}
			end := strings.IndexByte(rest, ']')
			if end < 0 {
				return nil, fmt.Errorf("path %q: unterminated index in %q", path, part)
			}
			idx, err := strconv.Atoi(rest[1:end])
			if err != nil || idx < 0 {
				return nil, fmt.Errorf("path %q: invalid index in %q", path, part)
			}
			toks = append(toks, token{index: idx})
			rest = rest[end+1:]
		}
	}
	return toks, nil
}

// assign places value at the position named by toks, extending node as
// needed, and returns the (possibly re-allocated) node.
func assign(node any, toks []token, value any) (any, error) {
	if len(toks) == 0 {
		if node != nil {
			return nil, fmt.Errorf("leaf conflicts with existing value")
		}
		return value, nil
	}

	tok := toks[0]
	if tok.isKey {
		m, ok := node.(map[string]any)
		if node == nil {
			m = map[string]any{}
		} else if !ok {
			return nil, fmt.Errorf("segment %q is not an object", tok.key)
		}
		child, err := assign(m[tok.key], toks[1:], value)
		if err != nil {
			return nil, err
		}
		m[tok.key] = child
		return m, nil
	}

	arr, ok := node.([]any)
	if node != nil && !ok {
		return nil, fmt.Errorf("index %d applied to non-array", tok.index)
	}
	for len(arr) <= tok.index {
		arr = append(arr, nil)
	}
	child, err := assign(arr[tok.index], toks[1:], value)
	if err != nil {
		return nil, err
	}
	arr[tok.index] = child
	return arr, nil
}
