package schema

import (
	"reflect"
	"time"

	"github.com/google/uuid"
)

// Type is the dialect-agnostic semantic type of a column.
type Type string

// Semantic column types.
const (
	TypeBool    Type = "bool"
	TypeInt16   Type = "int16"
	TypeInt32   Type = "int32"
	TypeInt64   Type = "int64"
	TypeFloat32 Type = "float32"
	TypeFloat64 Type = "float64"
	TypeDecimal Type = "decimal"
	TypeString  Type = "string"
	TypeBytes   Type = "bytes"
	TypeTime    Type = "time"
	TypeUUID    Type = "uuid"
	TypeOther   Type = "other"
)

var (
	timeType  = reflect.TypeOf(time.Time{})
	uuidType  = reflect.TypeOf(uuid.UUID{})
	bytesType = reflect.TypeOf([]byte(nil))
)

// Numeric reports whether t holds numbers.
func (t Type) Numeric() bool {
	switch t {
	case TypeInt16, TypeInt32, TypeInt64, TypeFloat32, TypeFloat64, TypeDecimal:
		return true
	}
	return false
}

// Integer reports whether t holds whole numbers.
func (t Type) Integer() bool {
	return t == TypeInt16 || t == TypeInt32 || t == TypeInt64
}

// TypeOf returns the semantic type used for a Go field type.
// Pointers are followed; unknown types map to TypeOther.
func TypeOf(rt reflect.Type) Type {
	for rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	switch rt {
	case timeType:
		return TypeTime
	case uuidType:
		return TypeUUID
	case bytesType:
		return TypeBytes
	}
	switch rt.Kind() {
	case reflect.Bool:
		return TypeBool
	case reflect.Int8, reflect.Int16, reflect.Uint8:
		return TypeInt16
	case reflect.Int32, reflect.Uint16:
		return TypeInt32
	case reflect.Int, reflect.Int64, reflect.Uint, reflect.Uint32, reflect.Uint64:
		return TypeInt64
	case reflect.Float32:
		return TypeFloat32
	case reflect.Float64:
		return TypeFloat64
	case reflect.String:
		return TypeString
	}
	return TypeOther
}
