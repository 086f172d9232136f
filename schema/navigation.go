package schema

import (
	"fmt"
	"reflect"
)

// Kind is the shape of a navigation member.
type Kind uint8

// Navigation kinds.
const (
	// Reference navigations hold a single *Target.
	Reference Kind = iota + 1
	// Collection navigations hold a []*Target.
	Collection
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Reference:
		return "reference"
	case Collection:
		return "collection"
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// KeyPair links a member of the source type to a member of the target type.
type KeyPair struct {
	Source string
	Target string
}

// Navigation describes a relationship from a source type to a target type.
type Navigation struct {
	Name   string // Navigation member on the source type.
	Kind   Kind
	Source reflect.Type
	Target reflect.Type
	Keys   []KeyPair
	// AggregateRoot is set when the source owns the relationship: the foreign
	// key lives on the target and target rows are saved after the source.
	AggregateRoot bool

	index []int
}

// String implements the fmt.Stringer interface.
func (n *Navigation) String() string {
	return fmt.Sprintf("%s.%s", n.Source.Name(), n.Name)
}

// SourceMembers returns the source side member names of the key pairs.
func (n *Navigation) SourceMembers() []string {
	members := make([]string, len(n.Keys))
	for i, k := range n.Keys {
		members[i] = k.Source
	}
	return members
}

// TargetMembers returns the target side member names of the key pairs.
func (n *Navigation) TargetMembers() []string {
	members := make([]string, len(n.Keys))
	for i, k := range n.Keys {
		members[i] = k.Target
	}
	return members
}

// Loaded reports whether the navigation member of entity is set.
// A nil slice or a nil pointer is reported as not loaded.
func (n *Navigation) Loaded(entity reflect.Value) bool {
	fv, ok := fieldByIndex(entity, n.index, false)
	return ok && !fv.IsNil()
}

// Related returns the non-nil target entities held by entity, as pointers.
func (n *Navigation) Related(entity reflect.Value) []reflect.Value {
	fv, ok := fieldByIndex(entity, n.index, false)
	if !ok || fv.IsNil() {
		return nil
	}
	if n.Kind == Reference {
		return []reflect.Value{fv}
	}
	related := make([]reflect.Value, 0, fv.Len())
	for i := 0; i < fv.Len(); i++ {
		if e := fv.Index(i); !e.IsNil() {
			related = append(related, e)
		}
	}
	return related
}

// Attach stores target, a pointer to the target type, on entity: as the
// reference itself or appended to the collection, creating it if needed.
func (n *Navigation) Attach(entity, target reflect.Value) {
	fv, ok := fieldByIndex(entity, n.index, true)
	if !ok {
		return
	}
	if n.Kind == Reference {
		fv.Set(target)
		return
	}
	if fv.IsNil() {
		fv.Set(reflect.MakeSlice(fv.Type(), 0, 1))
	}
	fv.Set(reflect.Append(fv, target))
}

// check validates the navigation member against its declared kind.
func (n *Navigation) check(ft reflect.Type) error {
	want := reflect.PointerTo(n.Target)
	switch n.Kind {
	case Reference:
		if ft != want {
			return fmt.Errorf("schema: navigation %s: reference member must be %s, got %s", n, want, ft)
		}
	case Collection:
		if ft.Kind() != reflect.Slice || ft.Elem() != want {
			return fmt.Errorf("schema: navigation %s: collection member must be []%s, got %s", n, want, ft)
		}
	default:
		return fmt.Errorf("schema: navigation %s: unknown kind %s", n, n.Kind)
	}
	if len(n.Keys) == 0 {
		return fmt.Errorf("schema: navigation %s: no key pairs declared", n)
	}
	return nil
}
