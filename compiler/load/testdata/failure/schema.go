package failure

type Order struct {
	_     struct{} `tabula:"table=orders"`
	ID    int64    `tabula:"pk"`
	Lines *Line    `tabula:"hasmany,keys=ID:OrderID"`
}

type Line struct {
	_       struct{} `tabula:"table=lines"`
	OrderID int64
}
