package entity

// Kind is the index type of a queryable field.
type Kind string

// Field kinds, mirroring the search index field types.
const (
	KindText    Kind = "text"
	KindTag     Kind = "tag"
	KindNumeric Kind = "numeric"
)

// Field describes one queryable entity field.
type Field struct {
	name     string
	kind     Kind
	sortable bool
}

// Name returns the field name as it appears on the wire.
func (f Field) Name() string { return f.name }

// FieldKind returns the index type.
func (f Field) FieldKind() Kind { return f.kind }

// Sortable reports whether the field may appear in sort specs.
func (f Field) Sortable() bool { return f.sortable }

// Schema is the allow-list of queryable fields.
type Schema struct {
	fields []Field
	byName map[string]Field
}

// NewSchema builds a schema from a field list.
func NewSchema(fields []Field) Schema {
	byName := make(map[string]Field, len(fields))
	for _, f := range fields {
		byName[f.name] = f
	}
	return Schema{fields: fields, byName: byName}
}

// DefaultSchema returns the queryable fields of an entity.
func DefaultSchema() Schema {
	return NewSchema([]Field{
		{name: "id", kind: KindTag},
		{name: "title", kind: KindText, sortable: true},
		{name: "status", kind: KindTag, sortable: true},
		{name: "priority", kind: KindNumeric, sortable: true},
		{name: "tags", kind: KindTag},
		{name: "createdAt", kind: KindNumeric, sortable: true},
		{name: "updatedAt", kind: KindNumeric, sortable: true},
	})
}

// Fields returns all schema fields in declaration order.
func (s Schema) Fields() []Field { return s.fields }

// Lookup returns the field definition for name.
func (s Schema) Lookup(name string) (Field, bool) {
	f, ok := s.byName[name]
	return f, ok
}

// Has reports whether name is a known field.
func (s Schema) Has(name string) bool {
	_, ok := s.byName[name]
	return ok
}
