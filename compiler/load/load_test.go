package load

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	pkgs, err := Load(context.Background(), Config{}, "./testdata/valid")
	require.NoError(t, err)
	require.Len(t, pkgs, 1)
	p := pkgs[0]
	assert.Equal(t, "valid", p.Name)
	assert.Equal(t, "github.com/syssam/tabula/compiler/load/testdata/valid", p.Path)
	assert.NotEmpty(t, p.Dir)

	names := make([]string, len(p.Types))
	for i, typ := range p.Types {
		names[i] = typ.Name
	}
	assert.Equal(t, []string{"Author", "Book", "Profile", "Sales"}, names, "types are sorted; unmapped ones are skipped")

	author := p.Types[0]
	assert.Equal(t, "authors", author.Table)
	assert.Equal(t, "app", author.Schema)
	members := make([]string, len(author.Columns))
	for i, c := range author.Columns {
		members[i] = c.Member
	}
	assert.Equal(t, []string{"ID", "Name", "Born", "Rating"}, members)
	assert.Equal(t, &Column{Member: "ID", Name: "id", PrimaryKey: true, Identity: true}, author.Columns[0])
	assert.Equal(t, 200, author.Columns[1].Size)
	assert.True(t, author.Columns[1].Unique)
	assert.Equal(t, 4, author.Columns[3].Precision)
	assert.Equal(t, 2, author.Columns[3].Scale)

	require.Len(t, author.Navigations, 2)
	books := author.Navigations[0]
	assert.Equal(t, HasMany, books.Kind)
	assert.Equal(t, "Book", books.Target)
	assert.Equal(t, p.Path, books.TargetPkg)
	assert.Equal(t, [][2]string{{"ID", "AuthorID"}}, books.Keys)
	assert.Equal(t, HasOne, author.Navigations[1].Kind)

	book := p.Types[1]
	require.Len(t, book.Navigations, 1)
	assert.Equal(t, BelongsTo, book.Navigations[0].Kind)
	assert.True(t, book.Columns[1].ForeignKey)

	profile := p.Types[2]
	assert.Empty(t, profile.Navigations, "untagged related entities are not mapped")
	assert.Len(t, profile.Columns, 2)

	sales := p.Types[3]
	assert.Equal(t, "monthly_sales", sales.Routine)
	assert.True(t, sales.Columns[1].ReadOnly)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(context.Background(), Config{}, "./testdata/failure")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hasmany does not match field type")

	_, err = Load(context.Background(), Config{}, "./testdata/missing")
	require.Error(t, err)
}

func TestParseTag(t *testing.T) {
	tests := []struct {
		tag  string
		want *Tag
	}{
		{"-", &Tag{Skip: true}},
		{"table=authors,schema=app,catalog=main", &Tag{Table: "authors", Schema: "app", Catalog: "main"}},
		{"routine=report", &Tag{Routine: "report"}},
		{"column=id, pk, identity", &Tag{Column: "id", PrimaryKey: true, Identity: true}},
		{"size=20,fk,unique,readonly", &Tag{Size: 20, ForeignKey: true, Unique: true, ReadOnly: true}},
		{"precision=10:2", &Tag{Precision: 10, Scale: 2}},
		{"precision=10", &Tag{Precision: 10}},
		{"hasmany,keys=ID:OrderID", &Tag{Kind: HasMany, Keys: [][2]string{{"ID", "OrderID"}}}},
		{"belongsto,keys=OrderID:ID+Line:No", &Tag{Kind: BelongsTo, Keys: [][2]string{{"OrderID", "ID"}, {"Line", "No"}}}},
		{"", &Tag{}},
	}
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			got, err := ParseTag(tt.tag)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{
		"nullable",
		"size=x",
		"size",
		"table=",
		"hasmany",
		"keys=A:B",
		"hasone,belongsto,keys=A:B",
		"hasone,keys=A",
		"precision=1:x",
	} {
		t.Run(bad, func(t *testing.T) {
			_, err := ParseTag(bad)
			require.Error(t, err)
		})
	}
}
