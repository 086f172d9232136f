package builder

import (
	"strings"

	"github.com/syssam/tabula/dialect"
	"github.com/syssam/tabula/schema"
)

// Terms renders key predicates with inlined, escaped literals. keys holds
// one value tuple per row, in the order of cols. A single column yields one
// term per value, to be joined into an IN list; several columns yield one
// parenthesized conjunction per tuple, to be joined with OR.
func Terms(f dialect.Formatter, cols []*schema.Column, keys [][]any) ([]string, error) {
	terms := make([]string, 0, len(keys))
	for _, tuple := range keys {
		if len(cols) == 1 {
			lit, err := f.Literal(tuple[0], cols[0].Type)
			if err != nil {
				return nil, err
			}
			terms = append(terms, lit)
			continue
		}
		var b strings.Builder
		b.WriteByte('(')
		for i, c := range cols {
			if i > 0 {
				b.WriteString(" AND ")
			}
			lit, err := f.Literal(tuple[i], c.Type)
			if err != nil {
				return nil, err
			}
			b.WriteString(f.QuoteIdent(c.Name))
			b.WriteString(" = ")
			b.WriteString(lit)
		}
		b.WriteByte(')')
		terms = append(terms, b.String())
	}
	return terms, nil
}

// Predicate joins terms produced by Terms into one predicate.
func Predicate(f dialect.Formatter, cols []*schema.Column, terms []string) string {
	if len(cols) == 1 {
		return f.QuoteIdent(cols[0].Name) + " IN (" + strings.Join(terms, ", ") + ")"
	}
	return strings.Join(terms, " OR ")
}

// KeyFilter renders the predicate matching every key tuple.
func KeyFilter(f dialect.Formatter, cols []*schema.Column, keys [][]any) (string, error) {
	terms, err := Terms(f, cols, keys)
	if err != nil {
		return "", err
	}
	return Predicate(f, cols, terms), nil
}
