package vars

import (
	"encoding/binary"
	"fmt"
)

// Extract decodes the value of d from frame. A count greater than one
// yields an array of exactly Count elements. The count sentinel type
// yields end markers and reads nothing.
func Extract(d Descriptor, frame []byte) (Value, error) {
	count := max(d.Count, 1)
	if err := checkBounds(d, count, len(frame)); err != nil {
		return Value{}, err
	}

	width := d.Type.Width()
	if count == 1 {
		return decodeScalar(d.Type, frame[d.Offset:d.Offset+width]), nil
	}

	elems := make([]Value, count)
	for i := range elems {
		start := d.Offset + i*width
		elems[i] = decodeScalar(d.Type, frame[start:start+width])
	}
	return Value{typ: d.Type, elems: elems, array: true}, nil
}

// Put encodes v into frame at the position d describes. v must match the
// descriptor's physical type and element count.
func Put(d Descriptor, frame []byte, v Value) error {
	count := max(d.Count, 1)
	if err := checkBounds(d, count, len(frame)); err != nil {
		return err
	}
	if v.typ != d.Type {
		return fmt.Errorf("%w: %s holds %s, value is %s", ErrTypeMismatch, d.Name, d.Type, v.typ)
	}

	width := d.Type.Width()
	if count == 1 {
		if v.array {
			return fmt.Errorf("%w: %s is scalar, value is array", ErrTypeMismatch, d.Name)
		}
		encodeScalar(v, frame[d.Offset:d.Offset+width])
		return nil
	}

	if !v.array || len(v.elems) != count {
		return fmt.Errorf("%w: %s holds %d elements, value has %d", ErrTypeMismatch, d.Name, count, v.Len())
	}
	for i, e := range v.elems {
		start := d.Offset + i*width
		encodeScalar(e, frame[start:start+width])
	}
	return nil
}

func checkBounds(d Descriptor, count, frameLen int) error {
	if d.Type.Width() == 0 {
		return nil
	}
	end := d.Offset + d.Type.Width()*count
	if d.Offset < 0 || end > frameLen {
		return fmt.Errorf("%w: %s spans [%d,%d) of %d-byte frame", ErrOutOfBounds, d.Name, d.Offset, end, frameLen)
	}
	return nil
}

func decodeScalar(t VarType, b []byte) Value {
	switch t {
	case TypeChar, TypeBool:
		return Value{typ: t, bits: uint64(b[0])}
	case TypeInt, TypeBitField, TypeFloat:
		return Value{typ: t, bits: uint64(binary.LittleEndian.Uint32(b))}
	case TypeDouble:
		return Value{typ: t, bits: binary.LittleEndian.Uint64(b)}
	default:
		return EndMarker()
	}
}

func encodeScalar(v Value, b []byte) {
	switch v.typ {
	case TypeChar, TypeBool:
		b[0] = byte(v.bits)
	case TypeInt, TypeBitField, TypeFloat:
		binary.LittleEndian.PutUint32(b, uint32(v.bits))
	case TypeDouble:
		binary.LittleEndian.PutUint64(b, v.bits)
	}
}
