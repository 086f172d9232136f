// Package load reads the mapped types of compiled user packages. A struct
// type is mapped when it carries a blank field whose tabula tag names a
// table or a routine:
//
//	type Author struct {
//	    _     struct{} `tabula:"table=authors"`
//	    ID    int64    `tabula:"pk,identity"`
//	    Name  string   `tabula:"size=200"`
//	    Books []*Book  `tabula:"hasmany,keys=ID:AuthorID"`
//	}
package load

import (
	"context"
	"errors"
	"fmt"
	"go/types"
	"path/filepath"
	"reflect"
	"sort"

	"golang.org/x/tools/go/packages"
)

// Config configures the loading of packages.
type Config struct {
	// Dir is the directory patterns are resolved in.
	Dir string
	// BuildFlags are passed to the build system, e.g. "-tags=integration".
	BuildFlags []string
	// Generated is the base name of generated files. Mapping methods declared
	// in these files do not count as hand-written.
	Generated string
}

// Load loads the packages matching patterns and returns their mapped types.
// Types that declare a hand-written Mapping method are left out.
func Load(ctx context.Context, cfg Config, patterns ...string) ([]*Package, error) {
	pkgs, err := packages.Load(&packages.Config{
		Context:    ctx,
		Dir:        cfg.Dir,
		BuildFlags: cfg.BuildFlags,
		Mode:       packages.NeedName | packages.NeedFiles | packages.NeedTypes | packages.NeedSyntax | packages.NeedTypesInfo,
	}, patterns...)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	var errs []error
	packages.Visit(pkgs, nil, func(p *packages.Package) {
		for _, e := range p.Errors {
			errs = append(errs, e)
		}
	})
	if len(errs) > 0 {
		return nil, fmt.Errorf("load: %w", errors.Join(errs...))
	}
	out := make([]*Package, 0, len(pkgs))
	for _, p := range pkgs {
		lp, err := newPackage(p, cfg.Generated)
		if err != nil {
			return nil, err
		}
		out = append(out, lp)
	}
	return out, nil
}

func newPackage(p *packages.Package, generated string) (*Package, error) {
	lp := &Package{Name: p.Name, Path: p.PkgPath}
	if len(p.GoFiles) > 0 {
		lp.Dir = filepath.Dir(p.GoFiles[0])
	}
	scope := p.Types.Scope()
	names := scope.Names()
	sort.Strings(names)
	for _, name := range names {
		tn, ok := scope.Lookup(name).(*types.TypeName)
		if !ok || tn.IsAlias() {
			continue
		}
		named, ok := tn.Type().(*types.Named)
		if !ok {
			continue
		}
		st, ok := named.Underlying().(*types.Struct)
		if !ok {
			continue
		}
		t, err := newType(p, named, st)
		if err != nil {
			return nil, err
		}
		if t == nil || handwritten(p, named, generated) {
			continue
		}
		lp.Types = append(lp.Types, t)
	}
	return lp, nil
}

// handwritten reports whether named declares a Mapping method outside the
// generated file.
func handwritten(p *packages.Package, named *types.Named, generated string) bool {
	for i := 0; i < named.NumMethods(); i++ {
		m := named.Method(i)
		if m.Name() != "Mapping" {
			continue
		}
		return generated == "" || filepath.Base(p.Fset.Position(m.Pos()).Filename) != generated
	}
	return false
}

// newType returns the mapped type of st, or nil if st is not mapped.
func newType(p *packages.Package, named *types.Named, st *types.Struct) (*Type, error) {
	var (
		t      = &Type{Name: named.Obj().Name(), Pos: p.Fset.Position(named.Obj().Pos()).String()}
		mapped bool
	)
	for i := 0; i < st.NumFields(); i++ {
		f := st.Field(i)
		raw, ok := reflect.StructTag(st.Tag(i)).Lookup("tabula")
		if f.Name() == "_" {
			if !ok {
				continue
			}
			tag, err := ParseTag(raw)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", t.Pos, err)
			}
			if tag.marker() {
				mapped = true
				t.Table, t.Schema, t.Catalog, t.Routine = tag.Table, tag.Schema, tag.Catalog, tag.Routine
			}
			continue
		}
		if !f.Exported() || f.Embedded() {
			continue
		}
		tag := &Tag{}
		if ok {
			var err error
			if tag, err = ParseTag(raw); err != nil {
				return nil, fmt.Errorf("%s: field %s: %w", t.Pos, f.Name(), err)
			}
		}
		if tag.Skip {
			continue
		}
		if tag.Kind != "" {
			nav, err := newNavigation(f, tag)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", t.Pos, err)
			}
			t.Navigations = append(t.Navigations, nav)
			continue
		}
		if !ok && entityType(f.Type()) != nil {
			// Untagged related entities are not mapped.
			continue
		}
		t.Columns = append(t.Columns, &Column{
			Member:     f.Name(),
			Name:       tag.Column,
			PrimaryKey: tag.PrimaryKey,
			Identity:   tag.Identity,
			ForeignKey: tag.ForeignKey,
			Unique:     tag.Unique,
			ReadOnly:   tag.ReadOnly,
			Size:       tag.Size,
			Precision:  tag.Precision,
			Scale:      tag.Scale,
		})
	}
	if !mapped {
		return nil, nil
	}
	return t, nil
}

func newNavigation(f *types.Var, tag *Tag) (*Navigation, error) {
	target := entityType(f.Type())
	if target == nil {
		return nil, fmt.Errorf("field %s: navigation must be *T or []*T of a mapped struct, got %s", f.Name(), f.Type())
	}
	_, many := f.Type().(*types.Slice)
	if many != (tag.Kind == HasMany) {
		return nil, fmt.Errorf("field %s: %s does not match field type %s", f.Name(), tag.Kind, f.Type())
	}
	nav := &Navigation{
		Member: f.Name(),
		Kind:   tag.Kind,
		Target: target.Obj().Name(),
		Keys:   tag.Keys,
	}
	if pkg := target.Obj().Pkg(); pkg != nil {
		nav.TargetPkg = pkg.Path()
	}
	return nav, nil
}

// entityType returns T for field types *T and []*T where T is a mapped
// struct, and nil otherwise.
func entityType(t types.Type) *types.Named {
	if s, ok := t.(*types.Slice); ok {
		t = s.Elem()
	}
	ptr, ok := t.(*types.Pointer)
	if !ok {
		return nil
	}
	named, ok := ptr.Elem().(*types.Named)
	if !ok || !entity(named) {
		return nil
	}
	return named
}

// entity reports whether named is a mapped struct: it has a Mapping method
// or a tagged blank field. Other structs, such as time.Time, hold values.
func entity(named *types.Named) bool {
	st, ok := named.Underlying().(*types.Struct)
	if !ok {
		return false
	}
	if obj, _, _ := types.LookupFieldOrMethod(types.NewPointer(named), true, named.Obj().Pkg(), "Mapping"); obj != nil {
		if _, ok := obj.(*types.Func); ok {
			return true
		}
	}
	for i := 0; i < st.NumFields(); i++ {
		if st.Field(i).Name() == "_" {
			if _, ok := reflect.StructTag(st.Tag(i)).Lookup("tabula"); ok {
				return true
			}
		}
	}
	return false
}
