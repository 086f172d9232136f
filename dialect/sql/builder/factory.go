package builder

import (
	"github.com/syssam/tabula"
	"github.com/syssam/tabula/dialect"
	"github.com/syssam/tabula/dialect/sql"
	"github.com/syssam/tabula/schema"
)

// ColumnsFunc selects the columns a statement writes.
type ColumnsFunc func(*schema.Table) []*schema.Column

// Factory creates the command builders of a connector.
type Factory struct {
	conn       sql.Connector
	insertable ColumnsFunc
	updatable  ColumnsFunc
}

// FactoryOption configures a Factory.
type FactoryOption func(*Factory)

// WithInsertable restricts the columns written by inserts, for backends
// that refuse some column types in an insert list.
func WithInsertable(fn ColumnsFunc) FactoryOption {
	return func(f *Factory) {
		f.insertable = fn
	}
}

// WithUpdatable restricts the columns written by updates.
func WithUpdatable(fn ColumnsFunc) FactoryOption {
	return func(f *Factory) {
		f.updatable = fn
	}
}

// NewFactory returns the builder factory of conn.
func NewFactory(conn sql.Connector, opts ...FactoryOption) *Factory {
	f := &Factory{
		conn:       conn,
		insertable: (*schema.Table).Insertable,
		updatable:  (*schema.Table).Updatable,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Connector returns the connector commands are created on.
func (f *Factory) Connector() sql.Connector { return f.conn }

// Formatter returns the connector format provider.
func (f *Factory) Formatter() dialect.Formatter { return f.conn.Formatter() }

// InsertableColumns returns the columns an insert into t writes.
func (f *Factory) InsertableColumns(t *schema.Table) []*schema.Column {
	return f.insertable(t)
}

// UpdatableColumns returns the columns an update of t writes.
func (f *Factory) UpdatableColumns(t *schema.Table) []*schema.Column {
	return f.updatable(t)
}

// SelectOne returns the primary key lookup builder of t.
func (f *Factory) SelectOne(t *schema.Table) (*SelectOne, error) {
	if err := requireOp(t, "select one", true); err != nil {
		return nil, err
	}
	return newSelectOne(f.conn, t), nil
}

// Select returns the filtered select builder of t.
func (f *Factory) Select(t *schema.Table) (*Select, error) {
	if err := requireOp(t, "select", false); err != nil {
		return nil, err
	}
	return newSelect(f.conn, t), nil
}

// Insert returns the insert builder of t.
func (f *Factory) Insert(t *schema.Table) (*Insert, error) {
	if err := requireOp(t, "insert", false); err != nil {
		return nil, err
	}
	return newInsert(f.conn, t, f.insertable(t)), nil
}

// Update returns the update builder of t.
func (f *Factory) Update(t *schema.Table) (*Update, error) {
	if err := requireOp(t, "update", true); err != nil {
		return nil, err
	}
	return newUpdate(f.conn, t, f.updatable(t)), nil
}

// Delete returns the delete builder of t.
func (f *Factory) Delete(t *schema.Table) (*Delete, error) {
	if err := requireOp(t, "delete", true); err != nil {
		return nil, err
	}
	return newDelete(f.conn, t), nil
}

// LastInsertID returns the identity read-back builder of t.
func (f *Factory) LastInsertID(t *schema.Table) *LastInsertID {
	return &LastInsertID{conn: f.conn, text: f.conn.Formatter().LastInsertID(t)}
}

// Call returns the routine call builder of t.
func (f *Factory) Call(t *schema.Table) (*Call, error) {
	if err := t.RequireRoutine("call"); err != nil {
		return nil, err
	}
	head, err := f.conn.Formatter().RoutineCall(t.Routine)
	if err != nil {
		return nil, tabula.NewConnectorError("call", err)
	}
	return &Call{conn: f.conn, table: t, head: head}, nil
}

func requireOp(t *schema.Table, op string, keys bool) error {
	if err := t.RequireTable(op); err != nil {
		return err
	}
	if keys {
		return t.RequireKeys(op)
	}
	return nil
}
