package graph

import (
	"context"
	"log/slog"
	"reflect"

	"github.com/syssam/tabula/dialect/sql"
	"github.com/syssam/tabula/dialect/sql/builder"
	"github.com/syssam/tabula/schema"
)

// Option configures an Access.
type Option func(*options)

type options struct {
	navigations bool
	log         *slog.Logger
	factory     []builder.FactoryOption
}

// WithoutNavigations disables the select cascade: selected entities are
// returned without their related entities. Save and delete cascades still
// follow loaded navigations.
func WithoutNavigations() Option {
	return func(o *options) {
		o.navigations = false
	}
}

// WithLogger sets the logger operations are reported to.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

// WithBuilderOptions configures the command builder factory, e.g. to
// restrict the columns inserts and updates write.
func WithBuilderOptions(opts ...builder.FactoryOption) Option {
	return func(o *options) {
		o.factory = append(o.factory, opts...)
	}
}

// Access is the CRUD entry point of the mapped type T. It is safe for
// concurrent use; statements are serialized by the connector.
type Access[T any] struct {
	core *access
}

// New returns the access of T on conn. Descriptors are read from cache.
func New[T any](conn sql.Connector, cache *schema.Cache, opts ...Option) (*Access[T], error) {
	o := options{navigations: true, log: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	reg := &registry{
		conn:    conn,
		cache:   cache,
		factory: builder.NewFactory(conn, o.factory...),
		opts:    o,
		byType:  make(map[reflect.Type]*access),
	}
	core, err := reg.access(reflect.TypeFor[T]())
	if err != nil {
		return nil, err
	}
	return &Access[T]{core: core}, nil
}

// Table returns the descriptor of T.
func (a *Access[T]) Table() *schema.Table { return a.core.table }

// IsNew reports whether e has not been stored yet: all of its primary key
// members hold their zero value.
func (a *Access[T]) IsNew(e *T) bool { return a.core.table.IsNew(e) }

// SelectOne returns the entity with the given primary key values, in key
// order, with its navigations loaded. It fails with tabula.ErrNotFound
// when no row matches.
func (a *Access[T]) SelectOne(ctx context.Context, ids ...any) (*T, error) {
	v, err := a.core.selectOne(ctx, newOperation(), ids)
	if err != nil {
		return nil, err
	}
	return v.Interface().(*T), nil
}

// Select returns the entities matching where, a SQL predicate referencing
// params as @1, @2 and so on, with their navigations loaded. An empty where
// returns every row.
func (a *Access[T]) Select(ctx context.Context, where string, params ...any) ([]*T, error) {
	values, err := a.core.selectWhere(ctx, newOperation(), where, params)
	if err != nil {
		return nil, err
	}
	return unwrap[T](values), nil
}

// Call runs the stored routine T is mapped to and returns its rows.
func (a *Access[T]) Call(ctx context.Context, args ...any) ([]*T, error) {
	values, err := a.core.call(ctx, newOperation(), args)
	if err != nil {
		return nil, err
	}
	return unwrap[T](values), nil
}

// Insert stores entities, together with the entities their navigations
// hold: referenced entities first, owned entities last. Generated identity
// values are written back onto the entities.
func (a *Access[T]) Insert(ctx context.Context, entities ...*T) error {
	return a.core.insert(ctx, newOperation(), wrap(entities))
}

// Update writes entities back, saving the entities their navigations hold
// in the same order as Insert.
func (a *Access[T]) Update(ctx context.Context, entities ...*T) error {
	return a.core.update(ctx, newOperation(), wrap(entities))
}

// Save inserts the new entities and updates the others.
func (a *Access[T]) Save(ctx context.Context, entities ...*T) error {
	return a.core.save(ctx, newOperation(), wrap(entities))
}

// Delete removes entities. Owned entities are deleted first, whether
// loaded or not; loaded referenced entities are deleted last.
func (a *Access[T]) Delete(ctx context.Context, entities ...*T) error {
	return a.core.delete(ctx, newOperation(), wrap(entities))
}

func wrap[T any](entities []*T) []reflect.Value {
	values := make([]reflect.Value, 0, len(entities))
	for _, e := range entities {
		if e != nil {
			values = append(values, reflect.ValueOf(e))
		}
	}
	return values
}

func unwrap[T any](values []reflect.Value) []*T {
	entities := make([]*T, len(values))
	for i, v := range values {
		entities[i] = v.Interface().(*T)
	}
	return entities
}
