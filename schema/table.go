package schema

import (
	"reflect"

	"github.com/syssam/tabula"
)

// Table is the immutable persistence descriptor of a mapped type.
type Table struct {
	Catalog string
	Schema  string
	Name    string
	// Routine is the stored routine the type is read from, if any.
	Routine string

	Type        reflect.Type
	Columns     []*Column
	PrimaryKeys []*Column
	Identity    *Column
	Navigations []*Navigation

	byMember map[string]*Column
	byName   map[string]*Column
}

// TypeName returns the name of the mapped Go type.
func (t *Table) TypeName() string { return t.Type.Name() }

// Column returns the column mapped to the given struct member, or nil.
func (t *Table) Column(member string) *Column { return t.byMember[member] }

// ColumnByName returns the column with the given database name, or nil.
func (t *Table) ColumnByName(name string) *Column { return t.byName[name] }

// Navigation returns the navigation declared on the given member, or nil.
func (t *Table) Navigation(member string) *Navigation {
	for _, n := range t.Navigations {
		if n.Name == member {
			return n
		}
	}
	return nil
}

// Insertable returns the columns written by an insert: every column except
// the identity and read-only ones.
func (t *Table) Insertable() []*Column {
	cols := make([]*Column, 0, len(t.Columns))
	for _, c := range t.Columns {
		if !c.Identity && !c.ReadOnly {
			cols = append(cols, c)
		}
	}
	return cols
}

// Updatable returns the columns written by an update: every column except
// the identity, read-only and primary key ones.
func (t *Table) Updatable() []*Column {
	cols := make([]*Column, 0, len(t.Columns))
	for _, c := range t.Columns {
		if !c.Identity && !c.ReadOnly && !c.PrimaryKey {
			cols = append(cols, c)
		}
	}
	return cols
}

// IsNew reports whether entity has not been stored yet: every primary key
// member holds its type's default value. entity is a struct or a pointer to
// one. Natural keys assigned by the application are therefore reported as
// existing rows.
func (t *Table) IsNew(entity any) bool {
	return t.IsNewValue(reflect.ValueOf(entity))
}

// IsNewValue is like IsNew but operates on a reflect.Value.
func (t *Table) IsNewValue(entity reflect.Value) bool {
	for _, c := range t.PrimaryKeys {
		if !c.IsZero(entity) {
			return false
		}
	}
	return true
}

// KeyValues returns the primary key values of entity in key order.
func (t *Table) KeyValues(entity reflect.Value) []any {
	values := make([]any, len(t.PrimaryKeys))
	for i, c := range t.PrimaryKeys {
		values[i] = c.Get(entity)
	}
	return values
}

// RequireKeys fails with a NoPrimaryKeys mapping error when the table
// declares no primary key.
func (t *Table) RequireKeys(op string) error {
	if len(t.PrimaryKeys) == 0 {
		return tabula.NewMappingError(t.TypeName(), tabula.NoPrimaryKeys, op)
	}
	return nil
}

// RequireTable fails with a MissingTable mapping error when the type is not
// mapped to a table.
func (t *Table) RequireTable(op string) error {
	if t.Name == "" {
		return tabula.NewMappingError(t.TypeName(), tabula.MissingTable, op)
	}
	return nil
}

// RequireRoutine fails with a MissingRoutine mapping error when the type is
// not mapped to a routine.
func (t *Table) RequireRoutine(op string) error {
	if t.Routine == "" {
		return tabula.NewMappingError(t.TypeName(), tabula.MissingRoutine, op)
	}
	return nil
}

// New allocates a new entity of the mapped type and returns a pointer to it.
func (t *Table) New() reflect.Value {
	return reflect.New(t.Type)
}
