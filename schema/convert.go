package schema

import (
	"database/sql"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// timeLayouts are tried in order when a backend hands back a time as text.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Convert converts v to the representation bound for a column of type t.
// It is used for caller supplied key values, which may arrive as strings or
// as integers of a different width than the column declares.
func Convert(v any, t Type) (any, error) {
	if v == nil {
		return nil, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, nil
		}
		v = rv.Elem().Interface()
	}
	switch t {
	case TypeInt16, TypeInt32, TypeInt64:
		return toInt64(v)
	case TypeFloat32, TypeFloat64:
		return toFloat64(v)
	case TypeBool:
		return toBool(v)
	case TypeString:
		switch s := v.(type) {
		case string:
			return s, nil
		case []byte:
			return string(s), nil
		case fmt.Stringer:
			return s.String(), nil
		}
		return fmt.Sprint(v), nil
	case TypeBytes:
		switch b := v.(type) {
		case []byte:
			return b, nil
		case string:
			return []byte(b), nil
		}
	case TypeTime:
		return toTime(v)
	case TypeUUID:
		return toUUID(v)
	default:
		return v, nil
	}
	return nil, fmt.Errorf("schema: cannot convert %T to %s", v, t)
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case string:
		return strconv.ParseInt(n, 10, 64)
	case []byte:
		return strconv.ParseInt(string(n), 10, 64)
	case bool:
		if n {
			return 1, nil
		}
		return 0, nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, fmt.Errorf("schema: %d overflows int64", u)
		}
		return int64(u), nil
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f != math.Trunc(f) {
			return 0, fmt.Errorf("schema: %v is not a whole number", f)
		}
		return int64(f), nil
	}
	return 0, fmt.Errorf("schema: cannot convert %T to int64", v)
}

func toFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case string:
		return strconv.ParseFloat(n, 64)
	case []byte:
		return strconv.ParseFloat(string(n), 64)
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	}
	return 0, fmt.Errorf("schema: cannot convert %T to float64", v)
}

func toBool(v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		return strconv.ParseBool(b)
	case []byte:
		return strconv.ParseBool(string(b))
	}
	n, err := toInt64(v)
	if err != nil {
		return false, fmt.Errorf("schema: cannot convert %T to bool", v)
	}
	return n != 0, nil
}

func toTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		return parseTime(t)
	case []byte:
		return parseTime(string(t))
	case int64:
		return time.Unix(t, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("schema: cannot convert %T to time", v)
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("schema: unrecognized time %q", s)
}

func toUUID(v any) (uuid.UUID, error) {
	switch u := v.(type) {
	case uuid.UUID:
		return u, nil
	case [16]byte:
		return uuid.UUID(u), nil
	case string:
		return uuid.Parse(u)
	case []byte:
		if len(u) == 16 {
			return uuid.FromBytes(u)
		}
		return uuid.ParseBytes(u)
	}
	return uuid.Nil, fmt.Errorf("schema: cannot convert %T to uuid", v)
}

// assign stores a scanned database value into dst, allocating pointers and
// converting between the driver representation and the field type.
func assign(dst reflect.Value, src any) error {
	if src == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}
	if dst.CanAddr() {
		if s, ok := dst.Addr().Interface().(sql.Scanner); ok {
			return s.Scan(src)
		}
	}
	if dst.Kind() == reflect.Pointer {
		elem := reflect.New(dst.Type().Elem())
		if err := assign(elem.Elem(), src); err != nil {
			return err
		}
		dst.Set(elem)
		return nil
	}
	sv := reflect.ValueOf(src)
	if sv.Type().AssignableTo(dst.Type()) && dst.Type() != bytesType {
		dst.Set(sv)
		return nil
	}
	var (
		v   any
		err error
	)
	switch TypeOf(dst.Type()) {
	case TypeTime:
		v, err = toTime(src)
	case TypeUUID:
		v, err = toUUID(src)
	case TypeBytes:
		switch b := src.(type) {
		case []byte:
			v = append([]byte(nil), b...)
		case string:
			v = []byte(b)
		default:
			err = fmt.Errorf("schema: cannot convert %T to bytes", src)
		}
	case TypeBool:
		v, err = toBool(src)
	case TypeString:
		switch s := src.(type) {
		case []byte:
			v = string(s)
		default:
			v = fmt.Sprint(s)
		}
	case TypeInt16, TypeInt32, TypeInt64:
		var n int64
		if n, err = toInt64(src); err == nil {
			if dst.Kind() >= reflect.Uint && dst.Kind() <= reflect.Uint64 {
				dst.SetUint(uint64(n))
			} else {
				dst.SetInt(n)
			}
			return nil
		}
	case TypeFloat32, TypeFloat64:
		var f float64
		if f, err = toFloat64(src); err == nil {
			dst.SetFloat(f)
			return nil
		}
	default:
		if sv.Type().ConvertibleTo(dst.Type()) {
			dst.Set(sv.Convert(dst.Type()))
			return nil
		}
		err = fmt.Errorf("schema: cannot assign %T to %s", src, dst.Type())
	}
	if err != nil {
		return err
	}
	rv := reflect.ValueOf(v)
	if !rv.Type().AssignableTo(dst.Type()) {
		if !rv.Type().ConvertibleTo(dst.Type()) {
			return fmt.Errorf("schema: cannot assign %T to %s", src, dst.Type())
		}
		rv = rv.Convert(dst.Type())
	}
	dst.Set(rv)
	return nil
}
