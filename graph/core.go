package graph

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/syssam/tabula"
	"github.com/syssam/tabula/dialect/sql"
	"github.com/syssam/tabula/dialect/sql/builder"
	"github.com/syssam/tabula/schema"
)

// registry holds the accesses of every type reachable through the
// navigations of the type an Access was created for.
type registry struct {
	conn    sql.Connector
	cache   *schema.Cache
	factory *builder.Factory
	opts    options

	mu     sync.Mutex
	byType map[reflect.Type]*access
}

func (r *registry) access(rt reflect.Type) (*access, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.byType[rt]; ok {
		return a, nil
	}
	t, err := r.cache.Table(rt)
	if err != nil {
		return nil, err
	}
	a := &access{reg: r, table: t}
	for _, n := range t.Navigations {
		nav, err := newNavigation(a, n)
		if err != nil {
			return nil, err
		}
		a.navs = append(a.navs, nav)
	}
	r.byType[t.Type] = a
	return a, nil
}

// visit identifies an entity within one operation.
type visit struct {
	typ reflect.Type
	ptr uintptr
}

// operation is the state of one top-level call, shared by every cascade
// it triggers.
type operation struct {
	visited map[visit]bool
	// path holds the types whose select cascade is in progress.
	path map[reflect.Type]bool
}

func newOperation() *operation {
	return &operation{visited: make(map[visit]bool), path: make(map[reflect.Type]bool)}
}

// pending returns the entities not processed yet by the operation.
func (op *operation) pending(entities []reflect.Value) []reflect.Value {
	var out []reflect.Value
	for _, e := range entities {
		if !op.visited[visit{e.Type(), e.Pointer()}] {
			out = append(out, e)
		}
	}
	return out
}

// claim marks the pending entities as processed and returns them. An entity
// listed twice is returned once.
func (op *operation) claim(entities []reflect.Value) []reflect.Value {
	var out []reflect.Value
	for _, e := range entities {
		k := visit{e.Type(), e.Pointer()}
		if !op.visited[k] {
			op.visited[k] = true
			out = append(out, e)
		}
	}
	return out
}

// access implements the CRUD operations of one mapped type on reflected
// entities, which are always pointers to the mapped struct.
type access struct {
	reg   *registry
	table *schema.Table
	navs  []*navigation
}

func (a *access) factory() *builder.Factory { return a.reg.factory }

func (a *access) selectOne(ctx context.Context, op *operation, ids []any) (reflect.Value, error) {
	b, err := a.factory().SelectOne(a.table)
	if err != nil {
		return reflect.Value{}, err
	}
	cmd, err := b.Command(ids...)
	if err != nil {
		return reflect.Value{}, err
	}
	rows, err := a.query(ctx, cmd)
	if err != nil {
		return reflect.Value{}, err
	}
	if len(rows) == 0 {
		return reflect.Value{}, fmt.Errorf("%w: %s %v", tabula.ErrNotFound, a.table.TypeName(), ids)
	}
	rows = rows[:1]
	if err := a.cascade(ctx, op, rows); err != nil {
		return reflect.Value{}, err
	}
	return rows[0], nil
}

func (a *access) selectWhere(ctx context.Context, op *operation, where string, params []any) ([]reflect.Value, error) {
	rows, err := a.selectRows(ctx, where, params)
	if err != nil {
		return nil, err
	}
	if err := a.cascade(ctx, op, rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// selectRows selects without loading navigations.
func (a *access) selectRows(ctx context.Context, where string, params []any) ([]reflect.Value, error) {
	b, err := a.factory().Select(a.table)
	if err != nil {
		return nil, err
	}
	cmd, err := b.Command(where, params...)
	if err != nil {
		return nil, err
	}
	return a.query(ctx, cmd)
}

func (a *access) call(ctx context.Context, op *operation, args []any) ([]reflect.Value, error) {
	b, err := a.factory().Call(a.table)
	if err != nil {
		return nil, err
	}
	rows, err := a.query(ctx, b.Command(args...))
	if err != nil {
		return nil, err
	}
	if err := a.cascade(ctx, op, rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// query runs cmd and maps every row of its first result set.
func (a *access) query(ctx context.Context, cmd *sql.Command) ([]reflect.Value, error) {
	r, err := cmd.ExecReader(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	rows, err := scan(r, a.table)
	if err != nil {
		return nil, tabula.NewCommandError(cmd.Text(), err)
	}
	return rows, nil
}

// cascade loads the navigations of entities, skipping the types whose load
// is already in progress further up.
func (a *access) cascade(ctx context.Context, op *operation, entities []reflect.Value) error {
	if !a.reg.opts.navigations || len(entities) == 0 || len(a.navs) == 0 {
		return nil
	}
	op.path[a.table.Type] = true
	defer delete(op.path, a.table.Type)
	for _, n := range a.navs {
		if op.path[n.desc.Target] {
			continue
		}
		if err := n.load(ctx, op, entities); err != nil {
			return err
		}
	}
	return nil
}

func (a *access) insert(ctx context.Context, op *operation, entities []reflect.Value) error {
	ins, err := a.factory().Insert(a.table)
	if err != nil {
		return err
	}
	if entities = op.claim(entities); len(entities) == 0 {
		return nil
	}
	a.reg.opts.log.DebugContext(ctx, "tabula: insert", "type", a.table.TypeName(), "count", len(entities))
	if err := a.saveBefore(ctx, op, entities); err != nil {
		return err
	}
	var lastID *builder.LastInsertID
	if a.table.Identity != nil {
		lastID = a.factory().LastInsertID(a.table)
	}
	batch := a.batch()
	vp := builder.NewEntityProvider(entities)
	for vp.MoveNext() {
		batch.Add(ins.Command(vp), nil)
		if lastID != nil {
			batch.Add(lastID.Command(), a.identity(vp.Current()))
		}
	}
	if err := batch.Execute(ctx); err != nil {
		return err
	}
	return a.saveAfter(ctx, op, entities)
}

// identity returns the callback writing the generated identity onto e.
func (a *access) identity(e reflect.Value) sql.ResultFunc {
	return func(r *sql.Reader) error {
		if !r.Next() {
			if err := r.Err(); err != nil {
				return err
			}
			return errors.New("graph: no identity value returned")
		}
		return a.table.Identity.Set(e, r.Value(0))
	}
}

func (a *access) update(ctx context.Context, op *operation, entities []reflect.Value) error {
	upd, err := a.factory().Update(a.table)
	if err != nil {
		return err
	}
	if entities = op.claim(entities); len(entities) == 0 {
		return nil
	}
	a.reg.opts.log.DebugContext(ctx, "tabula: update", "type", a.table.TypeName(), "count", len(entities))
	if err := a.saveBefore(ctx, op, entities); err != nil {
		return err
	}
	if !upd.Empty() {
		batch := a.batch()
		vp := builder.NewEntityProvider(entities)
		for vp.MoveNext() {
			batch.Add(upd.Command(vp), nil)
		}
		if err := batch.Execute(ctx); err != nil {
			return err
		}
	}
	return a.saveAfter(ctx, op, entities)
}

// save inserts the new entities and updates the others.
func (a *access) save(ctx context.Context, op *operation, entities []reflect.Value) error {
	var fresh, stored []reflect.Value
	for _, e := range op.pending(entities) {
		if a.table.IsNewValue(e) {
			fresh = append(fresh, e)
		} else {
			stored = append(stored, e)
		}
	}
	if len(fresh) > 0 {
		if err := a.insert(ctx, op, fresh); err != nil {
			return err
		}
	}
	if len(stored) > 0 {
		return a.update(ctx, op, stored)
	}
	return nil
}

func (a *access) delete(ctx context.Context, op *operation, entities []reflect.Value) error {
	del, err := a.factory().Delete(a.table)
	if err != nil {
		return err
	}
	if entities = op.claim(entities); len(entities) == 0 {
		return nil
	}
	a.reg.opts.log.DebugContext(ctx, "tabula: delete", "type", a.table.TypeName(), "count", len(entities))
	if err := a.deleteBefore(ctx, op, entities); err != nil {
		return err
	}
	cmds, err := del.Commands(builder.NewEntityProvider(entities))
	if err != nil {
		return err
	}
	batch := a.batch()
	for _, cmd := range cmds {
		batch.Add(cmd, nil)
	}
	if err := batch.Execute(ctx); err != nil {
		return err
	}
	return a.deleteAfter(ctx, op, entities)
}

func (a *access) batch() *sql.Batch {
	return sql.NewBatch(a.reg.conn, sql.BatchLogger(a.reg.opts.log))
}

// saveBefore saves the referenced entities the rows point to.
func (a *access) saveBefore(ctx context.Context, op *operation, entities []reflect.Value) error {
	for _, n := range a.navs {
		if n.referencesParent() {
			if err := n.saveBefore(ctx, op, entities); err != nil {
				return err
			}
		}
	}
	return nil
}

// saveAfter saves the owned entities, which point to the rows.
func (a *access) saveAfter(ctx context.Context, op *operation, entities []reflect.Value) error {
	for _, n := range a.navs {
		if n.desc.AggregateRoot {
			if err := n.saveAfter(ctx, op, entities); err != nil {
				return err
			}
		}
	}
	return nil
}

// deleteBefore deletes the owned entities.
func (a *access) deleteBefore(ctx context.Context, op *operation, entities []reflect.Value) error {
	for _, n := range a.navs {
		if n.desc.AggregateRoot {
			if err := n.deleteBefore(ctx, op, entities); err != nil {
				return err
			}
		}
	}
	return nil
}

// deleteAfter deletes the loaded referenced entities.
func (a *access) deleteAfter(ctx context.Context, op *operation, entities []reflect.Value) error {
	for _, n := range a.navs {
		if n.referencesParent() {
			if err := n.deleteAfter(ctx, op, entities); err != nil {
				return err
			}
		}
	}
	return nil
}

// scan maps the rows of the current result set of r onto new entities of
// table t. Columns missing from the result set are left zero.
func scan(r *sql.Reader, t *schema.Table) ([]reflect.Value, error) {
	ordinals := make([]int, len(t.Columns))
	for i, c := range t.Columns {
		ordinals[i] = r.Ordinal(c.Name)
	}
	var rows []reflect.Value
	for r.Next() {
		e := t.New()
		for i, c := range t.Columns {
			if ordinals[i] < 0 {
				continue
			}
			if err := c.Set(e, r.Value(ordinals[i])); err != nil {
				return nil, err
			}
		}
		rows = append(rows, e)
	}
	return rows, r.Err()
}
