package load

import (
	"fmt"
	"strconv"
	"strings"
)

// Package holds the mapped types declared by one user package.
type Package struct {
	Name  string  `json:"name,omitempty"`
	Path  string  `json:"path,omitempty"`
	Dir   string  `json:"dir,omitempty"`
	Types []*Type `json:"types,omitempty"`
}

// Type is a struct type carrying tabula tags.
type Type struct {
	Name        string        `json:"name,omitempty"`
	Pos         string        `json:"-"`
	Table       string        `json:"table,omitempty"`
	Schema      string        `json:"schema,omitempty"`
	Catalog     string        `json:"catalog,omitempty"`
	Routine     string        `json:"routine,omitempty"`
	Columns     []*Column     `json:"columns,omitempty"`
	Navigations []*Navigation `json:"navigations,omitempty"`
}

// Column is a struct field mapped to a column.
type Column struct {
	Member     string `json:"member,omitempty"`
	Name       string `json:"name,omitempty"`
	PrimaryKey bool   `json:"primary_key,omitempty"`
	Identity   bool   `json:"identity,omitempty"`
	ForeignKey bool   `json:"foreign_key,omitempty"`
	Unique     bool   `json:"unique,omitempty"`
	ReadOnly   bool   `json:"read_only,omitempty"`
	Size       int    `json:"size,omitempty"`
	Precision  int    `json:"precision,omitempty"`
	Scale      int    `json:"scale,omitempty"`
}

// Navigation kinds, as written in tags.
const (
	HasMany   = "hasmany"
	HasOne    = "hasone"
	BelongsTo = "belongsto"
)

// Navigation is a struct field holding related entities.
type Navigation struct {
	Member    string      `json:"member,omitempty"`
	Kind      string      `json:"kind,omitempty"`
	Target    string      `json:"target,omitempty"`
	TargetPkg string      `json:"target_pkg,omitempty"`
	Keys      [][2]string `json:"keys,omitempty"`
}

// Tag is a parsed tabula struct tag:
//
//	`tabula:"table=authors,schema=app"`          on a blank field
//	`tabula:"column=id,pk,identity"`             on a column field
//	`tabula:"size=200,unique"`
//	`tabula:"precision=10:2"`
//	`tabula:"hasmany,keys=ID:AuthorID"`          on a navigation field
//	`tabula:"belongsto,keys=OrderID:ID+Line:No"` for composite keys
//	`tabula:"-"`                                 skips the field
type Tag struct {
	Skip       bool
	Table      string
	Schema     string
	Catalog    string
	Routine    string
	Column     string
	PrimaryKey bool
	Identity   bool
	ForeignKey bool
	Unique     bool
	ReadOnly   bool
	Size       int
	Precision  int
	Scale      int
	Kind       string
	Keys       [][2]string
}

// ParseTag parses the value of a tabula struct tag.
func ParseTag(s string) (*Tag, error) {
	t := &Tag{}
	if strings.TrimSpace(s) == "-" {
		t.Skip = true
		return t, nil
	}
	for _, opt := range strings.Split(s, ",") {
		opt = strings.TrimSpace(opt)
		if opt == "" {
			continue
		}
		key, value, hasValue := strings.Cut(opt, "=")
		var err error
		switch key {
		case "table":
			t.Table = value
		case "schema":
			t.Schema = value
		case "catalog":
			t.Catalog = value
		case "routine":
			t.Routine = value
		case "column":
			t.Column = value
		case "pk":
			t.PrimaryKey = true
		case "identity":
			t.Identity = true
		case "fk":
			t.ForeignKey = true
		case "unique":
			t.Unique = true
		case "readonly":
			t.ReadOnly = true
		case "size":
			t.Size, err = strconv.Atoi(value)
		case "precision":
			p, sc, _ := strings.Cut(value, ":")
			if t.Precision, err = strconv.Atoi(p); err == nil && sc != "" {
				t.Scale, err = strconv.Atoi(sc)
			}
		case HasMany, HasOne, BelongsTo:
			if t.Kind != "" {
				return nil, fmt.Errorf("load: tag %q: more than one navigation kind", s)
			}
			t.Kind = key
		case "keys":
			t.Keys, err = parseKeys(value)
		default:
			return nil, fmt.Errorf("load: tag %q: unknown option %q", s, key)
		}
		if err != nil {
			return nil, fmt.Errorf("load: tag %q: option %s: %w", s, key, err)
		}
		if needsValue(key) && (!hasValue || value == "") {
			return nil, fmt.Errorf("load: tag %q: option %s needs a value", s, key)
		}
	}
	if t.Kind != "" && len(t.Keys) == 0 {
		return nil, fmt.Errorf("load: tag %q: navigation without keys", s)
	}
	if t.Kind == "" && len(t.Keys) > 0 {
		return nil, fmt.Errorf("load: tag %q: keys without a navigation kind", s)
	}
	return t, nil
}

func needsValue(key string) bool {
	switch key {
	case "table", "schema", "catalog", "routine", "column", "size", "precision", "keys":
		return true
	}
	return false
}

// parseKeys parses "A:B+C:D" into source/target member pairs.
func parseKeys(s string) ([][2]string, error) {
	var keys [][2]string
	for _, pair := range strings.Split(s, "+") {
		src, dst, ok := strings.Cut(pair, ":")
		if !ok || src == "" || dst == "" {
			return nil, fmt.Errorf("key pair %q is not source:target", pair)
		}
		keys = append(keys, [2]string{src, dst})
	}
	return keys, nil
}

// marker reports whether the tag of a blank field declares a mapping.
func (t *Tag) marker() bool {
	return t.Table != "" || t.Routine != ""
}
