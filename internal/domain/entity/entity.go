package entity

import (
	"fmt"
	"unicode/utf8"
)

// Status is the lifecycle state of an entity.
type Status string

// Entity status values.
const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusArchived Status = "archived"
)

// ValidStatus reports whether s is a known status.
func ValidStatus(s Status) bool {
	switch s {
	case StatusActive, StatusInactive, StatusArchived:
		return true
	}
	return false
}

// Limits on entity fields. Lengths count characters, not bytes.
const (
	MaxIDLength    = 100
	MaxTitleLength = 255
	MaxTags        = 20
	MaxTagLength   = 50
	MinPriority    = 0
	MaxPriority    = 1000
)

// Entity is the document aggregate (immutable value object).
// Attributes holds the loosely structured part of the record: arbitrarily
// nested JSON composed of objects, arrays and scalars.
type Entity struct {
	id         string
	title      string
	status     Status
	priority   int
	tags       []string
	attributes map[string]any
	createdAt  int64
	updatedAt  int64
}

// New validates invariants the storage layer depends on and creates an Entity.
// Field-level validation against the API contract happens in the validate engine.
func New(id, title string, status Status, priority int, tags []string, attributes map[string]any) (Entity, error) {
	if id == "" {
		return Entity{}, fmt.Errorf("entity ID is required")
	}
	if utf8.RuneCountInString(id) > MaxIDLength {
		return Entity{}, fmt.Errorf("entity ID too long (max %d)", MaxIDLength)
	}
	if title == "" {
		return Entity{}, fmt.Errorf("title is required")
	}
	if status == "" {
		status = StatusActive
	}
	if !ValidStatus(status) {
		return Entity{}, fmt.Errorf("unknown status %q", status)
	}
	return Entity{
		id:         id,
		title:      title,
		status:     status,
		priority:   priority,
		tags:       cloneStrings(tags),
		attributes: attributes,
	}, nil
}

// Reconstruct creates an Entity without validation (storage hydration).
func Reconstruct(
	id, title string, status Status, priority int, tags []string,
	attributes map[string]any, createdAt, updatedAt int64,
) Entity {
	return Entity{
		id: id, title: title, status: status, priority: priority,
		tags: tags, attributes: attributes,
		createdAt: createdAt, updatedAt: updatedAt,
	}
}

// ID returns the entity identifier.
func (e *Entity) ID() string { return e.id }

// Title returns the entity title.
func (e *Entity) Title() string { return e.title }

// Status returns the lifecycle state.
func (e *Entity) Status() Status { return e.status }

// Priority returns the priority in [0, 1000].
func (e *Entity) Priority() int { return e.priority }

// Tags returns the tag list.
func (e *Entity) Tags() []string { return e.tags }

// Attributes returns the nested free-form part of the record.
func (e *Entity) Attributes() map[string]any { return e.attributes }

// CreatedAt returns the creation time in unix milliseconds.
func (e *Entity) CreatedAt() int64 { return e.createdAt }

// UpdatedAt returns the last update time in unix milliseconds.
func (e *Entity) UpdatedAt() int64 { return e.updatedAt }

// WithTimestamps returns a copy with creation and update times set.
func (e *Entity) WithTimestamps(createdAt, updatedAt int64) Entity {
	c := *e
	c.createdAt = createdAt
	c.updatedAt = updatedAt
	return c
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	c := make([]string, len(s))
	copy(c, s)
	return c
}
