// Package builder renders the CRUD statements of mapped types as commands.
//
// A Factory creates one builder per operation and table. Builders fix the
// invariant part of their text at construction and fail fast when the table
// cannot support the operation: SelectOne, Update and Delete need primary
// keys, Call needs a routine.
//
//	f := builder.NewFactory(conn)
//	ins, err := f.Insert(table)
//	if err != nil {
//	    return err
//	}
//	vp := builder.Entities(alice, bob)
//	for vp.MoveNext() {
//	    batch.Add(ins.Command(vp), nil)
//	}
//
// Inserts, updates and lookups bind their values as parameters. Deletes and
// key filters inline them as literals escaped by the dialect formatter, so
// one statement can match any number of rows.
package builder
