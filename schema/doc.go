// Package schema describes how Go entity types map onto relational tables.
//
// A mapped type declares its table, columns, keys and relationships
// explicitly by implementing [Mapper]:
//
//	type Customer struct {
//	    ID     int64
//	    Name   string
//	    Orders []*Order
//	}
//
//	func (Customer) Mapping(m *schema.Mapping) {
//	    m.Table("customers")
//	    m.Column("ID").PrimaryKey().Identity()
//	    m.Column("Name").Size(100)
//	    m.HasMany("Orders", Order{}).Keys("ID", "CustomerID")
//	}
//
//	type Order struct {
//	    ID         int64
//	    CustomerID int64
//	    Customer   *Customer
//	}
//
//	func (Order) Mapping(m *schema.Mapping) {
//	    m.Table("orders")
//	    m.Column("ID").PrimaryKey().Identity()
//	    m.Column("CustomerID")
//	    m.BelongsTo("Customer", Customer{}).Keys("CustomerID", "ID")
//	}
//
// # Descriptors
//
// The declaration is turned into an immutable [Table] descriptor holding the
// ordered [Column] list, primary keys, the identity column and the
// [Navigation] links of the type. Descriptors are built once per type by a
// [Cache] and shared by every caller afterwards:
//
//	cache := schema.NewCache()
//	t, err := cache.For(Customer{})
//
// # Navigations
//
// Relationships have an explicit [Kind]: a Reference holds a single related
// entity through a pointer field, a Collection holds a slice of pointers.
// HasMany and HasOne mark the aggregate-root side that owns the foreign key
// living on the target; BelongsTo marks the side that carries the foreign key
// itself.
//
// # Referenced mappings
//
// Include lets a type reuse the declarations of another mapped type (for
// example a shared audit struct embedded in many entities). Declarations made
// by the including type win over included ones for the same member.
package schema
