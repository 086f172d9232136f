package sql

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

type stateErr string

func (e stateErr) Error() string    { return "pq: " + string(e) }
func (e stateErr) SQLState() string { return string(e) }

func TestConstraintErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		kind   ConstraintKind
		unique bool
		fk     bool
		check  bool
	}{
		{"mysql duplicate", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}, UniqueConstraint, true, false, false},
		{"mysql parent row", &mysql.MySQLError{Number: 1451}, ForeignKeyConstraint, false, true, false},
		{"mysql check", &mysql.MySQLError{Number: 3819}, CheckConstraint, false, false, true},
		{"pq unique", &pq.Error{Code: "23505", Message: "duplicate key value"}, UniqueConstraint, true, false, false},
		{"pq not null", &pq.Error{Code: "23502", Message: "violates unique constraint"}, 0, false, false, false},
		{"mysql syntax", fmt.Errorf("exec: %w", &mysql.MySQLError{Number: 1064, Message: "FOREIGN KEY constraint failed"}), 0, false, false, false},
		{"postgres unique", stateErr("23505"), UniqueConstraint, true, false, false},
		{"postgres fk wrapped", fmt.Errorf("insert: %w", stateErr("23503")), ForeignKeyConstraint, false, true, false},
		{"sqlite unique", errors.New("UNIQUE constraint failed: customers.email"), UniqueConstraint, true, false, false},
		{"sqlite check", errors.New("CHECK constraint failed: qty > 0"), CheckConstraint, false, false, true},
		{"other", errors.New("syntax error"), 0, false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.unique, IsUniqueConstraintError(tt.err))
			assert.Equal(t, tt.fk, IsForeignKeyConstraintError(tt.err))
			assert.Equal(t, tt.check, IsCheckConstraintError(tt.err))
			assert.Equal(t, tt.kind != 0, IsConstraintError(tt.err))
			classified := Classify(tt.err)
			var cerr *ConstraintError
			if tt.kind == 0 {
				assert.Same(t, tt.err, classified)
				return
			}
			if assert.ErrorAs(t, classified, &cerr) {
				assert.Equal(t, tt.kind, cerr.Kind)
				assert.ErrorIs(t, classified, tt.err)
			}
		})
	}
	assert.NoError(t, Classify(nil))
}
