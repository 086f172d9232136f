package schema

import (
	"fmt"
	"reflect"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/syssam/tabula"
)

// Cache builds and memoizes table descriptors per Go type.
//
// A Cache is meant to be created once per application and passed to every
// access object. Lookups are safe for concurrent use; concurrent first
// lookups of the same type share a single build.
type Cache struct {
	tables   sync.Map // reflect.Type => *Table
	mappings sync.Map // reflect.Type => MappingFunc
	group    singleflight.Group
}

// NewCache returns an empty descriptor cache.
func NewCache() *Cache {
	return &Cache{}
}

// Register declares the mapping of v's type with fn, for types that do not
// implement Mapper. It must be called before the first lookup of the type.
func (c *Cache) Register(v any, fn MappingFunc) {
	c.mappings.Store(indirect(reflect.TypeOf(v)), fn)
}

// For returns the descriptor of v's type. v may be a struct, a pointer to a
// struct, or a reflect.Type.
func (c *Cache) For(v any) (*Table, error) {
	if rt, ok := v.(reflect.Type); ok {
		return c.Table(rt)
	}
	return c.Table(reflect.TypeOf(v))
}

// TableOf returns the descriptor of T.
func TableOf[T any](c *Cache) (*Table, error) {
	return c.Table(reflect.TypeFor[T]())
}

// Table returns the descriptor of the given struct type, building it on
// first access.
func (c *Cache) Table(rt reflect.Type) (*Table, error) {
	rt = indirect(rt)
	if rt == nil || rt.Kind() != reflect.Struct {
		return nil, fmt.Errorf("schema: %v is not a struct type", rt)
	}
	if t, ok := c.tables.Load(rt); ok {
		return t.(*Table), nil
	}
	v, err, _ := c.group.Do(key(rt), func() (any, error) {
		if t, ok := c.tables.Load(rt); ok {
			return t, nil
		}
		t, err := c.build(rt, map[reflect.Type]bool{})
		if err != nil {
			return nil, err
		}
		actual, _ := c.tables.LoadOrStore(rt, t)
		return actual, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Table), nil
}

// Len returns the number of cached descriptors.
func (c *Cache) Len() int {
	n := 0
	c.tables.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func (c *Cache) build(rt reflect.Type, visiting map[reflect.Type]bool) (*Table, error) {
	m, err := c.collect(rt, rt, visiting)
	if err != nil {
		return nil, err
	}
	return m.build()
}

// collect runs the mapping declarations of src, resolved against the struct
// type rt, and folds in the included mappings recursively.
func (c *Cache) collect(rt, src reflect.Type, visiting map[reflect.Type]bool) (*Mapping, error) {
	if visiting[src] {
		return nil, fmt.Errorf("schema: %s: include cycle through %s", rt, src)
	}
	visiting[src] = true
	defer delete(visiting, src)

	m := &Mapping{typ: rt}
	switch fn, ok := c.mappings.Load(src); {
	case ok:
		fn.(MappingFunc)(m)
	default:
		mapper, ok := reflect.Zero(src).Interface().(Mapper)
		if !ok {
			if p, pok := reflect.New(src).Interface().(Mapper); pok {
				mapper, ok = p, true
			}
		}
		if !ok {
			return nil, tabula.NewMappingError(src.Name(), tabula.MissingTable, "describe")
		}
		mapper.Mapping(m)
	}
	// merge prepends, so walk backwards to keep the include order.
	for i := len(m.includes) - 1; i >= 0; i-- {
		im, err := c.collect(rt, m.includes[i], visiting)
		if err != nil {
			return nil, err
		}
		m.merge(im)
	}
	return m, nil
}

// key returns a singleflight key unique to the type identity.
func key(rt reflect.Type) string {
	return fmt.Sprintf("%s#%p", rt, rt)
}
