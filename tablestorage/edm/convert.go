package edm

import (
	"encoding/base64"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// The From* constructors parse literal text. They return nil (absent) when
// the text is not a valid value of the target type.

// FromInt parses a 32-bit integer.
func FromInt(text string) Value {
	n, err := strconv.ParseInt(text, 10, 32)
	if err != nil {
		return nil
	}
	return Int32(n)
}

// FromLong parses a 64-bit integer.
func FromLong(text string) Value {
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return nil
	}
	return Int64(n)
}

// FromDouble parses a 64-bit float.
func FromDouble(text string) Value {
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil
	}
	return Double(f)
}

// FromGuid parses a guid in any form uuid.Parse accepts.
func FromGuid(text string) Value {
	id, err := uuid.Parse(strings.TrimSpace(text))
	if err != nil {
		return nil
	}
	return Guid(id)
}

// FromString wraps text as a String. It never fails.
func FromString(text string) Value {
	return String(text)
}

// FromBoolean parses true/false in the forms strconv.ParseBool accepts.
func FromBoolean(text string) Value {
	b, err := strconv.ParseBool(text)
	if err != nil {
		return nil
	}
	return Boolean(b)
}

// FromBinary decodes standard base64 text.
func FromBinary(text string) Value {
	b, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return nil
	}
	return Binary(b)
}

// dateTimeLayouts are tried in order. Layouts without a zone are read as UTC.
var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006",
}

// FromDateTime parses text with the first matching layout and returns UTC.
func FromDateTime(text string) Value {
	text = strings.TrimSpace(text)
	for _, layout := range dateTimeLayouts {
		t, err := time.Parse(layout, text)
		if err == nil {
			return DateTime(t.UTC())
		}
	}
	return nil
}

// Parse builds a value of the named type from text.
func Parse(t Type, text string) Value {
	switch t {
	case TypeString:
		return FromString(text)
	case TypeBinary:
		return FromBinary(text)
	case TypeBoolean:
		return FromBoolean(text)
	case TypeDateTime:
		return FromDateTime(text)
	case TypeDouble:
		return FromDouble(text)
	case TypeGuid:
		return FromGuid(text)
	case TypeInt32:
		return FromInt(text)
	case TypeInt64:
		return FromLong(text)
	default:
		return nil
	}
}
