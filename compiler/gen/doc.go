// Package gen generates the Mapping methods of types declared with tabula
// struct tags, so that descriptors are built from code instead of tags at
// run time.
//
// For a type loaded by package load
//
//	type Book struct {
//	    _        struct{} `tabula:"table=books"`
//	    ID       int64    `tabula:"pk,identity"`
//	    AuthorID int64
//	    Author   *Author  `tabula:"belongsto,keys=AuthorID:ID"`
//	}
//
// the generated file holds
//
//	func (Book) Mapping(m *schema.Mapping) {
//	    m.Table("books")
//	    m.Column("ID").PrimaryKey().Identity()
//	    m.Column("AuthorID")
//	    m.BelongsTo("Author", Author{}).Keys("AuthorID", "ID")
//	}
//
// Files are rendered with jennifer, which tracks imports, and written one
// per package in parallel.
package gen
