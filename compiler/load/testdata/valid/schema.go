package valid

import "time"

type Author struct {
	_       struct{} `tabula:"table=authors,schema=app"`
	ID      int64    `tabula:"column=id,pk,identity"`
	Name    string   `tabula:"size=200,unique"`
	Born    *time.Time
	Rating  float64 `tabula:"precision=4:2"`
	Books   []*Book  `tabula:"hasmany,keys=ID:AuthorID"`
	Profile *Profile `tabula:"hasone,keys=ID:AuthorID"`
	cache   string
	Notes   string `tabula:"-"`
}

type Book struct {
	_        struct{} `tabula:"table=books"`
	ID       int64    `tabula:"pk,identity"`
	AuthorID int64    `tabula:"fk"`
	Title    string
	Author   *Author `tabula:"belongsto,keys=AuthorID:ID"`
}

type Profile struct {
	_        struct{} `tabula:"table=profiles"`
	AuthorID int64    `tabula:"pk"`
	Bio      string
	Author   *Author
}

type Sales struct {
	_     struct{} `tabula:"routine=monthly_sales"`
	Month int
	Total float64 `tabula:"readonly"`
}

// Plain is not mapped.
type Plain struct {
	Name string
}
