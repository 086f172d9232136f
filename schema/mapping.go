package schema

import (
	"fmt"
	"reflect"

	"github.com/go-openapi/inflect"
)

// names derives default table and column names. Acronyms are registered
// longest first so that "UUID" is not split by the "ID" rule.
var names = func() *inflect.Ruleset {
	rs := inflect.NewDefaultRuleset()
	for _, a := range []string{"UUID", "HTTP", "JSON", "URL", "API", "SQL", "ID"} {
		rs.AddAcronym(a)
	}
	return rs
}()

// Mapper is implemented by mapped types to declare their mapping.
// Mapping is called once, on the zero value, when the descriptor is built.
type Mapper interface {
	Mapping(m *Mapping)
}

// MappingFunc declares the mapping of a type that cannot implement Mapper,
// see Cache.Register.
type MappingFunc func(m *Mapping)

// Mapping collects the declarations of a mapped type.
type Mapping struct {
	typ      reflect.Type
	catalog  string
	schema   string
	table    string
	routine  string
	columns  []*ColumnDecl
	navs     []*NavigationDecl
	includes []reflect.Type
}

// ColumnDecl declares a single column. Its methods may be chained.
type ColumnDecl struct {
	col  Column
	name bool
	typ  bool
}

// NavigationDecl declares a relationship. Keys may be called several times
// for multi-column keys.
type NavigationDecl struct {
	nav Navigation
}

// Table sets the table name.
func (m *Mapping) Table(name string) *Mapping {
	m.table = name
	return m
}

// Schema sets the database schema the table lives in.
func (m *Mapping) Schema(name string) *Mapping {
	m.schema = name
	return m
}

// Catalog sets the catalog (database) the table lives in.
func (m *Mapping) Catalog(name string) *Mapping {
	m.catalog = name
	return m
}

// Routine maps the type to the result of a stored routine.
func (m *Mapping) Routine(name string) *Mapping {
	m.routine = name
	return m
}

// Column declares the column backed by the given struct member. Declaring the
// same member twice replaces the earlier declaration.
func (m *Mapping) Column(member string) *ColumnDecl {
	d := &ColumnDecl{col: Column{Member: member}}
	for i, c := range m.columns {
		if c.col.Member == member {
			m.columns[i] = d
			return d
		}
	}
	m.columns = append(m.columns, d)
	return d
}

// Columns declares plain columns for each member, using default names and
// types.
func (m *Mapping) Columns(members ...string) *Mapping {
	for _, member := range members {
		m.Column(member)
	}
	return m
}

// Include contributes the declarations of another mapped type. Members
// declared by this mapping take precedence over included ones.
func (m *Mapping) Include(v any) *Mapping {
	m.includes = append(m.includes, indirect(reflect.TypeOf(v)))
	return m
}

// HasMany declares a collection navigation owned by this type. The foreign
// key lives on the target.
func (m *Mapping) HasMany(member string, target any) *NavigationDecl {
	return m.navigation(member, target, Collection, true)
}

// HasOne declares a reference navigation owned by this type. The foreign key
// lives on the target.
func (m *Mapping) HasOne(member string, target any) *NavigationDecl {
	return m.navigation(member, target, Reference, true)
}

// BelongsTo declares a reference navigation to a parent. The foreign key
// lives on this type.
func (m *Mapping) BelongsTo(member string, target any) *NavigationDecl {
	return m.navigation(member, target, Reference, false)
}

func (m *Mapping) navigation(member string, target any, kind Kind, root bool) *NavigationDecl {
	d := &NavigationDecl{nav: Navigation{
		Name:          member,
		Kind:          kind,
		Target:        indirect(reflect.TypeOf(target)),
		AggregateRoot: root,
	}}
	for i, n := range m.navs {
		if n.nav.Name == member {
			m.navs[i] = d
			return d
		}
	}
	m.navs = append(m.navs, d)
	return d
}

// Name sets the column name. It defaults to the snake-cased member name.
func (d *ColumnDecl) Name(name string) *ColumnDecl {
	d.col.Name, d.name = name, true
	return d
}

// Type sets the semantic type. It defaults to the type derived from the field.
func (d *ColumnDecl) Type(t Type) *ColumnDecl {
	d.col.Type, d.typ = t, true
	return d
}

// Size sets the maximum size of a string or bytes column.
func (d *ColumnDecl) Size(n int) *ColumnDecl {
	d.col.Size = n
	return d
}

// Precision sets the numeric precision and scale.
func (d *ColumnDecl) Precision(precision, scale int) *ColumnDecl {
	d.col.Precision, d.col.Scale = precision, scale
	return d
}

// PrimaryKey marks the column as part of the primary key.
func (d *ColumnDecl) PrimaryKey() *ColumnDecl {
	d.col.PrimaryKey = true
	return d
}

// Identity marks the column as generated by the database on insert.
func (d *ColumnDecl) Identity() *ColumnDecl {
	d.col.Identity = true
	return d
}

// ForeignKey marks the column as a foreign key.
func (d *ColumnDecl) ForeignKey() *ColumnDecl {
	d.col.ForeignKey = true
	return d
}

// Unique marks the column as a unique key.
func (d *ColumnDecl) Unique() *ColumnDecl {
	d.col.Unique = true
	return d
}

// ReadOnly excludes the column from inserts and updates.
func (d *ColumnDecl) ReadOnly() *ColumnDecl {
	d.col.ReadOnly = true
	return d
}

// Keys adds a key pair linking a source member to a target member.
func (d *NavigationDecl) Keys(source, target string) *NavigationDecl {
	d.nav.Keys = append(d.nav.Keys, KeyPair{Source: source, Target: target})
	return d
}

// build resolves the declarations against the struct type and returns the
// table descriptor. Included mappings are passed in already collected.
func (m *Mapping) build() (*Table, error) {
	t := &Table{
		Catalog:  m.catalog,
		Schema:   m.schema,
		Name:     m.table,
		Routine:  m.routine,
		Type:     m.typ,
		byMember: make(map[string]*Column, len(m.columns)),
		byName:   make(map[string]*Column, len(m.columns)),
	}
	if t.Name == "" && t.Routine == "" {
		t.Name = names.Pluralize(names.Underscore(m.typ.Name()))
	}
	for _, d := range m.columns {
		c := d.col
		sf, ok := m.typ.FieldByName(c.Member)
		if !ok || !sf.IsExported() {
			return nil, fmt.Errorf("schema: %s: no exported field %q", m.typ, c.Member)
		}
		c.index, c.goType = sf.Index, sf.Type
		if !d.name {
			c.Name = names.Underscore(c.Member)
		}
		if !d.typ {
			c.Type = TypeOf(sf.Type)
		}
		if _, ok := t.byName[c.Name]; ok {
			return nil, fmt.Errorf("schema: %s: duplicate column name %q", m.typ, c.Name)
		}
		if c.Identity {
			if t.Identity != nil {
				return nil, fmt.Errorf("schema: %s: more than one identity column (%s, %s)", m.typ, t.Identity.Name, c.Name)
			}
			if !c.Type.Integer() {
				return nil, fmt.Errorf("schema: %s: identity column %s must be an integer, got %s", m.typ, c.Name, c.Type)
			}
		}
		col := &c
		t.Columns = append(t.Columns, col)
		t.byMember[col.Member] = col
		t.byName[col.Name] = col
		if col.PrimaryKey {
			t.PrimaryKeys = append(t.PrimaryKeys, col)
		}
		if col.Identity {
			t.Identity = col
		}
	}
	for _, d := range m.navs {
		n := d.nav
		n.Source = m.typ
		sf, ok := m.typ.FieldByName(n.Name)
		if !ok || !sf.IsExported() {
			return nil, fmt.Errorf("schema: %s: no exported field %q", m.typ, n.Name)
		}
		n.index = sf.Index
		if err := n.check(sf.Type); err != nil {
			return nil, err
		}
		for _, k := range n.Keys {
			c := t.byMember[k.Source]
			if c == nil {
				return nil, fmt.Errorf("schema: navigation %s: key member %q is not a mapped column", &n, k.Source)
			}
			if !n.AggregateRoot {
				c.ForeignKey = true
			}
		}
		nav := n
		t.Navigations = append(t.Navigations, &nav)
	}
	return t, nil
}

// merge folds an included mapping into m. Included columns come first in
// declaration order; members already declared by m keep m's declaration.
func (m *Mapping) merge(inc *Mapping) {
	if m.table == "" {
		m.table = inc.table
	}
	if m.schema == "" {
		m.schema = inc.schema
	}
	if m.catalog == "" {
		m.catalog = inc.catalog
	}
	if m.routine == "" {
		m.routine = inc.routine
	}
	own := make(map[string]bool, len(m.columns))
	for _, c := range m.columns {
		own[c.col.Member] = true
	}
	columns := make([]*ColumnDecl, 0, len(inc.columns)+len(m.columns))
	for _, c := range inc.columns {
		if !own[c.col.Member] {
			columns = append(columns, c)
		}
	}
	m.columns = append(columns, m.columns...)
	for _, n := range inc.navs {
		found := false
		for _, o := range m.navs {
			if o.nav.Name == n.nav.Name {
				found = true
				break
			}
		}
		if !found {
			m.navs = append(m.navs, n)
		}
	}
}

func indirect(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}
