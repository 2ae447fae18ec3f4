package edm

import (
	"bytes"
	"time"

	"golang.org/x/exp/constraints"
)

// Op is a comparison operator.
type Op string

const (
	Eq Op = "eq"
	Ne Op = "ne"
	Gt Op = "gt"
	Ge Op = "ge"
	Lt Op = "lt"
	Le Op = "le"
)

// Compare applies op to left and right. The right operand is widened to the
// type of the left operand; Int64 accepts Int32, Double accepts Int32 and
// Int64, and every other type accepts only itself.
func Compare(op Op, left, right Value) (bool, error) {
	if left == nil || right == nil {
		return false, ErrAbsentValue
	}
	switch op {
	case Eq:
		return equal(left, right)
	case Gt:
		return greater(left, right)
	case Ge:
		gt, err := greater(left, right)
		if err != nil || gt {
			return gt, err
		}
		return equal(left, right)
	case Le:
		gt, err := greater(left, right)
		if err != nil {
			return false, err
		}
		return !gt, nil
	case Lt:
		eq, err := equal(left, right)
		if err != nil || eq {
			return false, err
		}
		gt, err := greater(left, right)
		if err != nil {
			return false, err
		}
		return !gt, nil
	case Ne:
		eq, err := equal(left, right)
		if err != nil {
			return false, err
		}
		return !eq, nil
	default:
		return false, &InvalidOperatorError{Op: string(op)}
	}
}

// widen converts v to the type t, when the widening rules allow it.
func widen(t Type, v Value) (Value, error) {
	if v.Type() == t {
		return v, nil
	}
	switch t {
	case TypeInt64:
		if n, ok := v.(Int32); ok {
			return Int64(n), nil
		}
	case TypeDouble:
		switch n := v.(type) {
		case Int32:
			return Double(n), nil
		case Int64:
			return Double(n), nil
		}
	}
	return nil, &ConversionError{From: v.Type(), To: t}
}

func equal(left, right Value) (bool, error) {
	right, err := widen(left.Type(), right)
	if err != nil {
		return false, err
	}
	switch l := left.(type) {
	case Binary:
		return bytes.Equal(l, right.(Binary)), nil
	case DateTime:
		return time.Time(l).Equal(time.Time(right.(DateTime))), nil
	case String:
		return l == right.(String), nil
	case Boolean:
		return l == right.(Boolean), nil
	case Double:
		return l == right.(Double), nil
	case Guid:
		return l == right.(Guid), nil
	case Int32:
		return l == right.(Int32), nil
	case Int64:
		return l == right.(Int64), nil
	}
	return false, &ConversionError{From: right.Type(), To: left.Type()}
}

func greater(left, right Value) (bool, error) {
	right, err := widen(left.Type(), right)
	if err != nil {
		return false, err
	}
	switch l := left.(type) {
	case String:
		return ordered(l, right.(String)), nil
	case Binary:
		return bytes.Compare(l, right.(Binary)) > 0, nil
	case Guid:
		lb, rb := l.orderBytes(), right.(Guid).orderBytes()
		return bytes.Compare(lb[:], rb[:]) > 0, nil
	case Boolean:
		return bool(l) && !bool(right.(Boolean)), nil
	case DateTime:
		return time.Time(l).After(time.Time(right.(DateTime))), nil
	case Double:
		return ordered(l, right.(Double)), nil
	case Int32:
		return ordered(l, right.(Int32)), nil
	case Int64:
		return ordered(l, right.(Int64)), nil
	}
	return false, &ConversionError{From: right.Type(), To: left.Type()}
}

// orderBytes returns the guid in the layout guids are ordered by: the first
// three groups little-endian, the last two as written.
func (v Guid) orderBytes() [16]byte {
	b := [16]byte(v)
	b[0], b[1], b[2], b[3] = b[3], b[2], b[1], b[0]
	b[4], b[5] = b[5], b[4]
	b[6], b[7] = b[7], b[6]
	return b
}

func ordered[T constraints.Ordered](l, r T) bool {
	return l > r
}
