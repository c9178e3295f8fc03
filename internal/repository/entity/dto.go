package entity

import (
	"encoding/json"
	"fmt"

	domentity "github.com/kailas-cloud/docman/internal/domain/entity"
)

// jsonEntity is the stored document shape.
type jsonEntity struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	Status     string         `json:"status"`
	Priority   int            `json:"priority"`
	Tags       []string       `json:"tags"`
	Attributes map[string]any `json:"attributes,omitempty"`
	CreatedAt  int64          `json:"createdAt"`
	UpdatedAt  int64          `json:"updatedAt"`
}

func marshalEntity(e *domentity.Entity) ([]byte, error) {
	tags := e.Tags()
	if tags == nil {
		tags = []string{}
	}
	doc := jsonEntity{
		ID:         e.ID(),
		Title:      e.Title(),
		Status:     string(e.Status()),
		Priority:   e.Priority(),
		Tags:       tags,
		Attributes: e.Attributes(),
		CreatedAt:  e.CreatedAt(),
		UpdatedAt:  e.UpdatedAt(),
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal entity %s: %w", e.ID(), err)
	}
	return data, nil
}

// parseJSONGetResult parses the output of JSON.GET with the "$" path,
// which wraps the document in a one-element array.
func parseJSONGetResult(id string, raw []byte) (domentity.Entity, error) {
	var docs []jsonEntity
	if err := json.Unmarshal(raw, &docs); err != nil {
		// some backends return the bare document for a root path
		var doc jsonEntity
		if err2 := json.Unmarshal(raw, &doc); err2 != nil {
			return domentity.Entity{}, fmt.Errorf("unmarshal entity %s: %w", id, err)
		}
		return hydrate(id, &doc), nil
	}
	if len(docs) == 0 {
		return domentity.Entity{}, fmt.Errorf("empty result for entity %s", id)
	}
	return hydrate(id, &docs[0]), nil
}

// parseSearchEntry parses one FT.SEARCH hit. On JSON indexes the whole
// document comes back under the "$" field.
func parseSearchEntry(id string, fields map[string]string) (domentity.Entity, error) {
	raw, ok := fields["$"]
	if !ok || raw == "" {
		return domentity.Entity{}, fmt.Errorf("no document payload for entity %s", id)
	}
	var doc jsonEntity
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return domentity.Entity{}, fmt.Errorf("unmarshal entity %s: %w", id, err)
	}
	return hydrate(id, &doc), nil
}

func hydrate(id string, doc *jsonEntity) domentity.Entity {
	if doc.ID != "" {
		id = doc.ID
	}
	return domentity.Reconstruct(
		id, doc.Title, domentity.Status(doc.Status), doc.Priority,
		doc.Tags, doc.Attributes, doc.CreatedAt, doc.UpdatedAt,
	)
}
