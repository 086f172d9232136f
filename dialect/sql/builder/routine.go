package builder

import (
	"strconv"

	"github.com/syssam/tabula/dialect/sql"
	"github.com/syssam/tabula/schema"
)

// Call builds calls of the stored routine a type is mapped to.
type Call struct {
	conn  sql.Connector
	table *schema.Table
	head  string
}

// Command returns the call of the routine with args bound in order.
func (b *Call) Command(args ...any) *sql.Command {
	cmd := sql.NewCommand(b.conn, b.head)
	for i, a := range args {
		if i > 0 {
			cmd.WriteString(", ")
		}
		cmd.WriteParam(&sql.Parameter{Name: "p" + strconv.Itoa(i+1), Value: a})
	}
	return cmd.WriteString(")")
}

