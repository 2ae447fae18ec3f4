// Package edm holds the typed property values stored in table rows and the
// comparison rules the filter engine applies to them.
//
// A Value is one of String, Binary, Boolean, DateTime, Double, Guid, Int32
// or Int64. A nil Value means the value is absent: a missing row field or a
// literal that could not be parsed.
package edm

import (
	"encoding/hex"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Type names the variant of a Value.
type Type string

const (
	TypeString   Type = "String"
	TypeBinary   Type = "Binary"
	TypeBoolean  Type = "Boolean"
	TypeDateTime Type = "DateTime"
	TypeDouble   Type = "Double"
	TypeGuid     Type = "Guid"
	TypeInt32    Type = "Int32"
	TypeInt64    Type = "Int64"
)

var allTypes = []Type{
	TypeString, TypeBinary, TypeBoolean, TypeDateTime,
	TypeDouble, TypeGuid, TypeInt32, TypeInt64,
}

// ParseType maps a type name such as "Int64" to its Type.
func ParseType(name string) (Type, bool) {
	for _, t := range allTypes {
		if string(t) == name {
			return t, true
		}
	}
	return "", false
}

// Value is a typed property value. The set of implementations is closed.
type Value interface {
	Type() Type
	String() string
	edmValue()
}

type (
	String   string
	Binary   []byte
	Boolean  bool
	DateTime time.Time
	Double   float64
	Guid     uuid.UUID
	Int32    int32
	Int64    int64
)

func (String) edmValue()   {}
func (Binary) edmValue()   {}
func (Boolean) edmValue()  {}
func (DateTime) edmValue() {}
func (Double) edmValue()   {}
func (Guid) edmValue()     {}
func (Int32) edmValue()    {}
func (Int64) edmValue()    {}

func (String) Type() Type   { return TypeString }
func (Binary) Type() Type   { return TypeBinary }
func (Boolean) Type() Type  { return TypeBoolean }
func (DateTime) Type() Type { return TypeDateTime }
func (Double) Type() Type   { return TypeDouble }
func (Guid) Type() Type     { return TypeGuid }
func (Int32) Type() Type    { return TypeInt32 }
func (Int64) Type() Type    { return TypeInt64 }

func (v String) String() string  { return string(v) }
func (v Binary) String() string  { return "0x" + hex.EncodeToString(v) }
func (v Boolean) String() string { return strconv.FormatBool(bool(v)) }
func (v DateTime) String() string {
	return time.Time(v).UTC().Format(time.RFC3339Nano)
}
func (v Double) String() string { return strconv.FormatFloat(float64(v), 'g', -1, 64) }
func (v Guid) String() string   { return uuid.UUID(v).String() }
func (v Int32) String() string  { return strconv.FormatInt(int64(v), 10) }
func (v Int64) String() string  { return strconv.FormatInt(int64(v), 10) }

// Time returns the wrapped instant.
func (v DateTime) Time() time.Time { return time.Time(v) }

// TypeOf reports the type name of v, or "absent" for nil.
func TypeOf(v Value) string {
	if v == nil {
		return "absent"
	}
	return string(v.Type())
}

// Row is a set of named property values. Names are case sensitive.
type Row map[string]Value

// Clone returns a deep copy of the row. A nil row clones to nil.
func (r Row) Clone() Row {
	if r == nil {
		return nil
	}
	out := make(Row, len(r))
	for name, v := range r {
		if b, ok := v.(Binary); ok {
			v = append(Binary(nil), b...)
		}
		out[name] = v
	}
	return out
}
