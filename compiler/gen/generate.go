package gen

import (
	"context"
	"fmt"

	"github.com/dave/jennifer/jen"
	"golang.org/x/sync/errgroup"

	"github.com/syssam/tabula/compiler/load"
)

const schemaPkg = "github.com/syssam/tabula/schema"

// Generator writes the Mapping methods of loaded types.
type Generator struct {
	cfg *Config
}

// New returns a generator configured by opts.
func New(opts ...Option) (*Generator, error) {
	cfg, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}
	return &Generator{cfg: cfg}, nil
}

// Config returns the generator configuration.
func (g *Generator) Config() *Config { return g.cfg }

// Generate writes one mapping file per package, in parallel. The file of a
// package without mapped types is removed.
func (g *Generator) Generate(ctx context.Context, pkgs []*load.Package) error {
	errg, ctx := errgroup.WithContext(ctx)
	errg.SetLimit(g.cfg.Workers)
	for _, p := range pkgs {
		errg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if len(p.Types) == 0 {
				return g.removeFile(p)
			}
			f, err := g.File(p)
			if err != nil {
				return err
			}
			return g.writeFile(f, p)
		})
	}
	return errg.Wait()
}

// File returns the mapping file of p.
func (g *Generator) File(p *load.Package) (*jen.File, error) {
	f := jen.NewFilePathName(p.Path, p.Name)
	if g.cfg.Header != "" {
		f.HeaderComment(g.cfg.Header)
	}
	for _, t := range p.Types {
		if err := validate(t); err != nil {
			return nil, err
		}
		f.Commentf("Mapping implements schema.Mapper for %s.", t.Name)
		f.Func().Params(jen.Id(t.Name)).Id("Mapping").
			Params(jen.Id("m").Op("*").Qual(schemaPkg, "Mapping")).
			BlockFunc(func(b *jen.Group) {
				genTable(b, t)
				for _, c := range t.Columns {
					b.Add(genColumn(c))
				}
				for _, n := range t.Navigations {
					b.Add(genNavigation(p, n))
				}
			})
		f.Line()
	}
	return f, nil
}

func genTable(b *jen.Group, t *load.Type) {
	for _, s := range []struct{ method, value string }{
		{"Table", t.Table},
		{"Schema", t.Schema},
		{"Catalog", t.Catalog},
		{"Routine", t.Routine},
	} {
		if s.value != "" {
			b.Id("m").Dot(s.method).Call(jen.Lit(s.value))
		}
	}
}

func genColumn(c *load.Column) *jen.Statement {
	s := jen.Id("m").Dot("Column").Call(jen.Lit(c.Member))
	if c.Name != "" {
		s.Dot("Name").Call(jen.Lit(c.Name))
	}
	flags := []struct {
		set    bool
		method string
	}{
		{c.PrimaryKey, "PrimaryKey"},
		{c.Identity, "Identity"},
		{c.ForeignKey, "ForeignKey"},
		{c.Unique, "Unique"},
		{c.ReadOnly, "ReadOnly"},
	}
	for _, f := range flags {
		if f.set {
			s.Dot(f.method).Call()
		}
	}
	if c.Size > 0 {
		s.Dot("Size").Call(jen.Lit(c.Size))
	}
	if c.Precision > 0 {
		s.Dot("Precision").Call(jen.Lit(c.Precision), jen.Lit(c.Scale))
	}
	return s
}

var navMethods = map[string]string{
	load.HasMany:   "HasMany",
	load.HasOne:    "HasOne",
	load.BelongsTo: "BelongsTo",
}

func genNavigation(p *load.Package, n *load.Navigation) *jen.Statement {
	pkg := n.TargetPkg
	if pkg == "" {
		pkg = p.Path
	}
	s := jen.Id("m").Dot(navMethods[n.Kind]).Call(jen.Lit(n.Member), jen.Qual(pkg, n.Target).Values())
	for _, k := range n.Keys {
		s.Dot("Keys").Call(jen.Lit(k[0]), jen.Lit(k[1]))
	}
	return s
}

// validate checks what the mapping builder would reject at run time.
func validate(t *load.Type) error {
	if t.Table == "" && t.Routine == "" {
		return NewSchemaError(t.Name, "", "no table or routine declared")
	}
	members := make(map[string]bool, len(t.Columns))
	names := make(map[string]bool, len(t.Columns))
	identity := ""
	for _, c := range t.Columns {
		members[c.Member] = true
		if c.Name != "" {
			if names[c.Name] {
				return NewSchemaError(t.Name, c.Member, fmt.Sprintf("duplicate column name %q", c.Name))
			}
			names[c.Name] = true
		}
		if c.Identity {
			if identity != "" {
				return NewSchemaError(t.Name, c.Member, "more than one identity column, "+identity+" is one")
			}
			identity = c.Member
		}
	}
	for _, n := range t.Navigations {
		if _, ok := navMethods[n.Kind]; !ok {
			return NewSchemaError(t.Name, n.Member, fmt.Sprintf("unknown navigation kind %q", n.Kind))
		}
		if len(n.Keys) == 0 {
			return NewSchemaError(t.Name, n.Member, "navigation without keys")
		}
		for _, k := range n.Keys {
			if !members[k[0]] {
				return NewSchemaError(t.Name, n.Member, fmt.Sprintf("key member %q is not a mapped column", k[0]))
			}
		}
	}
	return nil
}
