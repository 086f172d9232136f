package schema

import (
	"fmt"
	"reflect"
)

// Column describes one mapped column of a table.
type Column struct {
	Name      string // Column name in the database.
	Member    string // Go struct field holding the value.
	Type      Type   // Dialect-agnostic semantic type.
	Size      int    // Maximum size for strings and bytes, 0 if unbounded.
	Precision int
	Scale     int

	PrimaryKey bool
	Identity   bool
	ForeignKey bool
	Unique     bool
	// ReadOnly columns are selected but never written (computed columns).
	ReadOnly bool

	index  []int
	goType reflect.Type
}

// GoType returns the Go type of the struct field.
func (c *Column) GoType() reflect.Type { return c.goType }

// String implements the fmt.Stringer interface.
func (c *Column) String() string { return c.Name }

// Value returns the column value of the given entity, which must be a struct
// or a pointer to a struct of the mapped type. Nil pointers along the way
// yield nil.
func (c *Column) Value(entity any) any {
	return c.Get(reflect.ValueOf(entity))
}

// Get is like Value but operates on a reflect.Value.
func (c *Column) Get(entity reflect.Value) any {
	fv, ok := fieldByIndex(entity, c.index, false)
	if !ok {
		return nil
	}
	if fv.Kind() == reflect.Pointer {
		if fv.IsNil() {
			return nil
		}
		fv = fv.Elem()
	}
	return fv.Interface()
}

// Set stores v into the column field of entity, converting it from its
// database representation. entity must be a pointer to a struct.
func (c *Column) Set(entity reflect.Value, v any) error {
	fv, ok := fieldByIndex(entity, c.index, true)
	if !ok || !fv.CanSet() {
		return fmt.Errorf("schema: column %s: field %s is not settable", c.Name, c.Member)
	}
	if err := assign(fv, v); err != nil {
		return fmt.Errorf("schema: column %s: %w", c.Name, err)
	}
	return nil
}

// IsZero reports whether the column field of entity holds its type's
// default value.
func (c *Column) IsZero(entity reflect.Value) bool {
	fv, ok := fieldByIndex(entity, c.index, false)
	return !ok || fv.IsZero()
}

// fieldByIndex walks the field index path of v. Pointers to embedded structs
// are followed; when alloc is set nil ones are allocated, otherwise the walk
// stops and reports false.
func fieldByIndex(v reflect.Value, index []int, alloc bool) (reflect.Value, bool) {
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}, false
		}
		v = v.Elem()
	}
	for i, x := range index {
		if i > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				if !alloc || !v.CanSet() {
					return reflect.Value{}, false
				}
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	return v, true
}
