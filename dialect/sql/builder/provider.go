package builder

import (
	"reflect"

	"github.com/syssam/tabula/schema"
)

// ValueProvider is a forward-only cursor producing the column values of one
// row at a time. Builders read the current row; callers advance it.
type ValueProvider interface {
	// MoveNext advances to the next row and reports whether there is one.
	MoveNext() bool
	// GetValue returns the value of column c for the current row. Absent
	// values are returned as nil, which binds as NULL.
	GetValue(c *schema.Column) any
}

// EntityProvider reads column values from mapped entities.
type EntityProvider struct {
	entities []reflect.Value
	pos      int
}

// NewEntityProvider returns a provider over entities, each a pointer to a
// mapped struct.
func NewEntityProvider(entities []reflect.Value) *EntityProvider {
	return &EntityProvider{entities: entities, pos: -1}
}

// Entities returns a provider over the given entities.
func Entities[T any](entities ...*T) *EntityProvider {
	values := make([]reflect.Value, len(entities))
	for i, e := range entities {
		values[i] = reflect.ValueOf(e)
	}
	return NewEntityProvider(values)
}

// MoveNext implements the ValueProvider interface.
func (p *EntityProvider) MoveNext() bool {
	if p.pos < len(p.entities) {
		p.pos++
	}
	return p.pos < len(p.entities)
}

// Current returns the entity the provider is positioned on.
func (p *EntityProvider) Current() reflect.Value {
	if p.pos < 0 || p.pos >= len(p.entities) {
		return reflect.Value{}
	}
	return p.entities[p.pos]
}

// GetValue implements the ValueProvider interface.
func (p *EntityProvider) GetValue(c *schema.Column) any {
	e := p.Current()
	if !e.IsValid() || e.Kind() == reflect.Pointer && e.IsNil() {
		return nil
	}
	return c.Get(e)
}

// Reset rewinds the provider to before its first entity.
func (p *EntityProvider) Reset() { p.pos = -1 }

// RecordProvider reads column values from computed records, keyed by struct
// member or column name.
type RecordProvider struct {
	records []map[string]any
	pos     int
}

// Records returns a provider over the given records.
func Records(records ...map[string]any) *RecordProvider {
	return &RecordProvider{records: records, pos: -1}
}

// MoveNext implements the ValueProvider interface.
func (p *RecordProvider) MoveNext() bool {
	if p.pos < len(p.records) {
		p.pos++
	}
	return p.pos < len(p.records)
}

// GetValue implements the ValueProvider interface.
func (p *RecordProvider) GetValue(c *schema.Column) any {
	if p.pos < 0 || p.pos >= len(p.records) {
		return nil
	}
	r := p.records[p.pos]
	if v, ok := r[c.Member]; ok {
		return v
	}
	return r[c.Name]
}
