package dialect

import (
	"database/sql/driver"
	"encoding/hex"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/syssam/tabula/schema"
)

// literalStyle holds the dialect specific parts of literal rendering.
type literalStyle struct {
	quote      func(string) string
	bytes      func([]byte) string
	boolean    func(bool) string
	timeLayout string
}

// renderLiteral renders v as a SQL literal. Values are first converted to the
// column type so a key given as "7" for an integer column renders as 7.
func renderLiteral(v any, t schema.Type, s literalStyle) (string, error) {
	if t != "" && t != schema.TypeOther && t != schema.TypeDecimal {
		converted, err := schema.Convert(v, t)
		if err != nil {
			return "", fmt.Errorf("dialect: literal: %w", err)
		}
		v = converted
	}
	switch x := v.(type) {
	case nil:
		return "NULL", nil
	case bool:
		return s.boolean(x), nil
	case string:
		return s.quote(x), nil
	case []byte:
		if x == nil {
			return "NULL", nil
		}
		return s.bytes(x), nil
	case time.Time:
		return s.quote(x.Format(s.timeLayout)), nil
	case uuid.UUID:
		return s.quote(x.String()), nil
	case float32:
		return formatFloat(float64(x), 32)
	case float64:
		return formatFloat(x, 64)
	case driver.Valuer:
		dv, err := x.Value()
		if err != nil {
			return "", fmt.Errorf("dialect: literal: %w", err)
		}
		return renderLiteral(dv, "", s)
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.String:
		return s.quote(rv.String()), nil
	case reflect.Pointer:
		if rv.IsNil() {
			return "NULL", nil
		}
		return renderLiteral(rv.Elem().Interface(), "", s)
	}
	if st, ok := v.(fmt.Stringer); ok {
		return s.quote(st.String()), nil
	}
	return "", fmt.Errorf("dialect: literal: unsupported value type %T", v)
}

func formatFloat(f float64, bits int) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", fmt.Errorf("dialect: literal: %v has no SQL representation", f)
	}
	return strconv.FormatFloat(f, 'g', -1, bits), nil
}

// quoteWith doubles every occurrence of q inside s and wraps s in q.
func quoteWith(s string, q byte) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte(q)
	for i := 0; i < len(s); i++ {
		if s[i] == q {
			b.WriteByte(q)
		}
		b.WriteByte(s[i])
	}
	b.WriteByte(q)
	return b.String()
}

func hexBlob(b []byte) string {
	return "X'" + hex.EncodeToString(b) + "'"
}

func intBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// qualify joins the non-empty name parts, each escaped with quote.
func qualify(quote func(string) string, parts ...string) string {
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(quote(p))
	}
	return b.String()
}

func columnList(quote func(string) string, cols []*schema.Column) string {
	var b strings.Builder
	for i, c := range cols {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(quote(c.Name))
	}
	return b.String()
}
