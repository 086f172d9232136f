package graph

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/syssam/tabula/dialect"
	"github.com/syssam/tabula/dialect/sql/builder"
	"github.com/syssam/tabula/schema"
)

// keyStrategy matches the rows of the two sides of a navigation.
type keyStrategy interface {
	// filter renders the predicate selecting the rows whose key columns
	// hold one of the tuples.
	filter(f dialect.Formatter, tuples [][]any) (string, error)
	// key returns the partition key of a tuple of key values.
	key(tuple []any) string
}

// singleKey matches rows on one column with an IN list.
type singleKey struct {
	col *schema.Column
}

func (s singleKey) filter(f dialect.Formatter, tuples [][]any) (string, error) {
	return builder.KeyFilter(f, []*schema.Column{s.col}, tuples)
}

func (s singleKey) key(tuple []any) string {
	return normalize(tuple[0], s.col.Type)
}

// multiKey matches rows on several columns with a disjunction of
// conjunctions.
type multiKey struct {
	cols []*schema.Column
}

func (m multiKey) filter(f dialect.Formatter, tuples [][]any) (string, error) {
	return builder.KeyFilter(f, m.cols, tuples)
}

func (m multiKey) key(tuple []any) string {
	parts := make([]string, len(tuple))
	for i, v := range tuple {
		parts[i] = normalize(v, m.cols[i].Type)
	}
	return strings.Join(parts, "\x00")
}

// normalize renders v as it would be stored in a column of type t, so that
// an int32 foreign key and an int64 primary key compare equal.
func normalize(v any, t schema.Type) string {
	if c, err := schema.Convert(v, t); err == nil {
		v = c
	}
	return fmt.Sprintf("%T:%v", v, v)
}

// navigation drives the cascades of one declared relationship.
type navigation struct {
	owner *access
	desc  *schema.Navigation
	// source holds the owner columns of the key pairs, target the columns of
	// the related type, in the same order.
	source []*schema.Column
	target []*schema.Column
	keys   keyStrategy
}

func newNavigation(owner *access, n *schema.Navigation) (*navigation, error) {
	tt, err := owner.reg.cache.Table(n.Target)
	if err != nil {
		return nil, fmt.Errorf("graph: navigation %s: %w", n, err)
	}
	nav := &navigation{owner: owner, desc: n}
	for _, k := range n.Keys {
		sc, tc := owner.table.Column(k.Source), tt.Column(k.Target)
		if sc == nil || tc == nil {
			return nil, fmt.Errorf("graph: navigation %s: key %s=%s is not a pair of mapped columns", n, k.Source, k.Target)
		}
		nav.source = append(nav.source, sc)
		nav.target = append(nav.target, tc)
	}
	if len(nav.target) == 1 {
		nav.keys = singleKey{col: nav.target[0]}
	} else {
		nav.keys = multiKey{cols: nav.target}
	}
	return nav, nil
}

// referencesParent reports whether the owner holds the foreign key: the
// related entity must exist before the owner row and outlives it.
func (n *navigation) referencesParent() bool {
	return n.desc.Kind == schema.Reference && !n.desc.AggregateRoot
}

// related returns the access of the related type.
func (n *navigation) related() (*access, error) {
	return n.owner.reg.access(n.desc.Target)
}

// tuples returns the distinct, complete source key tuples of entities.
func (n *navigation) tuples(entities []reflect.Value) [][]any {
	var (
		out  [][]any
		seen = make(map[string]bool)
	)
outer:
	for _, e := range entities {
		tuple := make([]any, len(n.source))
		for i, c := range n.source {
			if tuple[i] = c.Get(e); tuple[i] == nil {
				continue outer
			}
		}
		if k := n.keys.key(tuple); !seen[k] {
			seen[k] = true
			out = append(out, tuple)
		}
	}
	return out
}

func (n *navigation) sourceKey(e reflect.Value) string {
	tuple := make([]any, len(n.source))
	for i, c := range n.source {
		tuple[i] = c.Get(e)
	}
	return n.keys.key(tuple)
}

func (n *navigation) targetKey(e reflect.Value) string {
	tuple := make([]any, len(n.target))
	for i, c := range n.target {
		tuple[i] = c.Get(e)
	}
	return n.keys.key(tuple)
}

// load selects the related rows of all entities at once and attaches them.
func (n *navigation) load(ctx context.Context, op *operation, entities []reflect.Value) error {
	tuples := n.tuples(entities)
	if len(tuples) == 0 {
		return nil
	}
	rel, err := n.related()
	if err != nil {
		return err
	}
	where, err := n.keys.filter(n.owner.reg.conn.Formatter(), tuples)
	if err != nil {
		return err
	}
	rows, err := rel.selectWhere(ctx, op, where, nil)
	if err != nil {
		return err
	}
	n.partition(entities, rows)
	return nil
}

// partition attaches rows onto the entities with a matching key. Rows
// attached to an owned navigation are consumed so that no row is attached
// twice; referenced rows may be shared by many entities.
func (n *navigation) partition(entities, rows []reflect.Value) {
	pool := make(map[string][]reflect.Value, len(rows))
	for _, r := range rows {
		k := n.targetKey(r)
		pool[k] = append(pool[k], r)
	}
	for _, e := range entities {
		k := n.sourceKey(e)
		matches := pool[k]
		if len(matches) == 0 {
			continue
		}
		switch {
		case n.desc.Kind == schema.Collection:
			for _, m := range matches {
				n.desc.Attach(e, m)
			}
			delete(pool, k)
		case n.desc.AggregateRoot:
			n.desc.Attach(e, matches[0])
			pool[k] = matches[1:]
		default:
			n.desc.Attach(e, matches[0])
		}
	}
}

// saveBefore saves the referenced entities and copies their keys onto the
// foreign key members of the owners.
func (n *navigation) saveBefore(ctx context.Context, op *operation, entities []reflect.Value) error {
	var parents []reflect.Value
	for _, e := range entities {
		parents = append(parents, n.desc.Related(e)...)
	}
	if len(parents) == 0 {
		return nil
	}
	rel, err := n.related()
	if err != nil {
		return err
	}
	if err := rel.save(ctx, op, parents); err != nil {
		return err
	}
	for _, e := range entities {
		for _, p := range n.desc.Related(e) {
			if err := copyKeys(p, n.target, e, n.source); err != nil {
				return err
			}
		}
	}
	return nil
}

// saveAfter copies the owner keys onto the owned entities and saves them.
func (n *navigation) saveAfter(ctx context.Context, op *operation, entities []reflect.Value) error {
	var children []reflect.Value
	for _, e := range entities {
		for _, c := range n.desc.Related(e) {
			if err := copyKeys(e, n.source, c, n.target); err != nil {
				return err
			}
			children = append(children, c)
		}
	}
	if len(children) == 0 {
		return nil
	}
	rel, err := n.related()
	if err != nil {
		return err
	}
	return rel.save(ctx, op, children)
}

// deleteBefore deletes the owned entities: the loaded ones, and those of
// owners whose navigation is not loaded, which are looked up first.
func (n *navigation) deleteBefore(ctx context.Context, op *operation, entities []reflect.Value) error {
	rel, err := n.related()
	if err != nil {
		return err
	}
	f := n.owner.reg.conn.Formatter()
	if len(rel.table.PrimaryKeys) == 0 {
		// Rows without keys can only be deleted by their foreign key.
		tuples := n.tuples(entities)
		if len(tuples) == 0 {
			return nil
		}
		where, err := n.keys.filter(f, tuples)
		if err != nil {
			return err
		}
		cmd, err := n.owner.factory().DeleteWhere(rel.table, where)
		if err != nil {
			return err
		}
		_, err = cmd.ExecNonQuery(ctx)
		return err
	}
	var children, unloaded []reflect.Value
	for _, e := range entities {
		if n.desc.Loaded(e) {
			children = append(children, n.desc.Related(e)...)
		} else {
			unloaded = append(unloaded, e)
		}
	}
	if tuples := n.tuples(unloaded); len(tuples) > 0 {
		where, err := n.keys.filter(f, tuples)
		if err != nil {
			return err
		}
		rows, err := rel.selectRows(ctx, where, nil)
		if err != nil {
			return err
		}
		children = append(children, rows...)
	}
	if len(children) == 0 {
		return nil
	}
	return rel.delete(ctx, op, children)
}

// deleteAfter deletes the loaded referenced entities.
func (n *navigation) deleteAfter(ctx context.Context, op *operation, entities []reflect.Value) error {
	var parents []reflect.Value
	for _, e := range entities {
		parents = append(parents, n.desc.Related(e)...)
	}
	if len(parents) == 0 {
		return nil
	}
	rel, err := n.related()
	if err != nil {
		return err
	}
	return rel.delete(ctx, op, parents)
}

// copyKeys assigns the from columns of src to the to columns of dst.
func copyKeys(src reflect.Value, from []*schema.Column, dst reflect.Value, to []*schema.Column) error {
	for i := range from {
		if err := to[i].Set(dst, from[i].Get(src)); err != nil {
			return err
		}
	}
	return nil
}
