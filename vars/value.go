package vars

import (
	"fmt"
	"math"
	"strings"
)

// Value is a decoded variable: a single scalar of one physical type, the
// count sentinel's end marker, or an ordered array of scalars.
type Value struct {
	typ   VarType
	bits  uint64
	elems []Value
	array bool
}

func CharValue(b byte) Value { return Value{typ: TypeChar, bits: uint64(b)} }

func BoolValue(b bool) Value {
	v := Value{typ: TypeBool}
	if b {
		v.bits = 1
	}
	return v
}

func IntValue(i int32) Value { return Value{typ: TypeInt, bits: uint64(uint32(i))} }

func BitFieldValue(u uint32) Value { return Value{typ: TypeBitField, bits: uint64(u)} }

func FloatValue(f float32) Value { return Value{typ: TypeFloat, bits: uint64(math.Float32bits(f))} }

func DoubleValue(f float64) Value { return Value{typ: TypeDouble, bits: math.Float64bits(f)} }

// EndMarker is the value decoded for the count sentinel type.
func EndMarker() Value { return Value{typ: TypeETCount} }

// ArrayValue builds an array value from its elements.
func ArrayValue(elems ...Value) Value {
	return Value{typ: elemType(elems), elems: elems, array: true}
}

func elemType(elems []Value) VarType {
	if len(elems) == 0 {
		return TypeETCount
	}
	return elems[0].typ
}

// Type returns the physical type of the value, or of its elements.
func (v Value) Type() VarType { return v.typ }

func (v Value) IsArray() bool { return v.array }

func (v Value) IsEndMarker() bool { return !v.array && v.typ == TypeETCount }

// Len returns the number of elements, or 1 for a scalar.
func (v Value) Len() int {
	if v.array {
		return len(v.elems)
	}
	return 1
}

// Index returns element i of an array value. It panics if v is not an
// array or i is out of range.
func (v Value) Index(i int) Value {
	if !v.array {
		panic("vars: Index of scalar value")
	}
	return v.elems[i]
}

func (v Value) Char() (byte, bool) {
	if v.array || v.typ != TypeChar {
		return 0, false
	}
	return byte(v.bits), true
}

func (v Value) Bool() (bool, bool) {
	if v.array || v.typ != TypeBool {
		return false, false
	}
	return v.bits != 0, true
}

func (v Value) Int() (int32, bool) {
	if v.array || v.typ != TypeInt {
		return 0, false
	}
	return int32(uint32(v.bits)), true
}

func (v Value) BitField() (uint32, bool) {
	if v.array || v.typ != TypeBitField {
		return 0, false
	}
	return uint32(v.bits), true
}

func (v Value) Float() (float32, bool) {
	if v.array || v.typ != TypeFloat {
		return 0, false
	}
	return math.Float32frombits(uint32(v.bits)), true
}

func (v Value) Double() (float64, bool) {
	if v.array || v.typ != TypeDouble {
		return 0, false
	}
	return math.Float64frombits(v.bits), true
}

// Equal reports whether two values have the same type and bit pattern.
func (v Value) Equal(o Value) bool {
	if v.array != o.array || v.typ != o.typ || v.bits != o.bits || len(v.elems) != len(o.elems) {
		return false
	}
	for i := range v.elems {
		if !v.elems[i].Equal(o.elems[i]) {
			return false
		}
	}
	return true
}

func (v Value) String() string {
	if v.array {
		parts := make([]string, len(v.elems))
		for i, e := range v.elems {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, " ") + "]"
	}
	switch v.typ {
	case TypeChar:
		return fmt.Sprintf("%d", byte(v.bits))
	case TypeBool:
		return fmt.Sprintf("%t", v.bits != 0)
	case TypeInt:
		return fmt.Sprintf("%d", int32(uint32(v.bits)))
	case TypeBitField:
		return fmt.Sprintf("0x%08x", uint32(v.bits))
	case TypeFloat:
		return fmt.Sprintf("%g", math.Float32frombits(uint32(v.bits)))
	case TypeDouble:
		return fmt.Sprintf("%g", math.Float64frombits(v.bits))
	default:
		return "<end>"
	}
}
