package vars

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
)

// Descriptor record layout. All integers are little-endian.
const (
	DescriptorSize = 144

	MaxNameLen = 32
	MaxDescLen = 64
	MaxUnitLen = 32

	recType        = 0
	recOffset      = 4
	recCount       = 8
	recCountAsTime = 12
	recName        = 16
	recDesc        = recName + MaxNameLen
	recUnit        = recDesc + MaxDescLen
)

// Descriptor describes one published variable.
type Descriptor struct {
	Name        string
	Description string
	Unit        string

	Type     VarType
	Semantic Semantic

	// Offset is the byte offset of the first element inside a frame.
	Offset int
	// Count is the number of elements. Greater than one means an array.
	Count int
	// CountAsTime is carried through unchanged from the producer.
	CountAsTime bool
}

// IsArray reports whether the variable holds more than one element.
func (d Descriptor) IsArray() bool { return d.Count > 1 }

// Size returns the number of frame bytes the variable occupies.
func (d Descriptor) Size() int { return d.Type.Width() * d.Count }

func (d Descriptor) String() string {
	if d.IsArray() {
		return fmt.Sprintf("%s %s[%d]@%d (%s)", d.Name, d.Type, d.Count, d.Offset, d.Semantic)
	}
	return fmt.Sprintf("%s %s@%d (%s)", d.Name, d.Type, d.Offset, d.Semantic)
}

// ParseDescriptor decodes one descriptor record. A record with an unknown
// type code or a non-positive count still yields a usable descriptor
// (count sentinel type, count of one) together with an error wrapping
// ErrMalformedEntry.
func ParseDescriptor(rec []byte) (Descriptor, error) {
	if len(rec) < DescriptorSize {
		return Descriptor{}, fmt.Errorf("%w: record is %d bytes, want %d", ErrMalformedEntry, len(rec), DescriptorSize)
	}

	d := Descriptor{
		Type:        VarType(int32(binary.LittleEndian.Uint32(rec[recType:]))),
		Offset:      int(int32(binary.LittleEndian.Uint32(rec[recOffset:]))),
		Count:       int(int32(binary.LittleEndian.Uint32(rec[recCount:]))),
		CountAsTime: rec[recCountAsTime] != 0,
		Name:        TrimCString(rec[recName : recName+MaxNameLen]),
		Description: TrimCString(rec[recDesc : recDesc+MaxDescLen]),
		Unit:        TrimCString(rec[recUnit : recUnit+MaxUnitLen]),
	}

	var problems []string
	if !d.Type.Valid() {
		problems = append(problems, fmt.Sprintf("type code %d", int32(d.Type)))
		d.Type = TypeETCount
	}
	if d.Count < 1 {
		problems = append(problems, fmt.Sprintf("count %d", d.Count))
		d.Count = 1
	}
	if d.Offset < 0 {
		problems = append(problems, fmt.Sprintf("offset %d", d.Offset))
	}

	d.Semantic = Classify(d.Type, d.Name)

	if len(problems) > 0 {
		return d, fmt.Errorf("%w: %s: %s", ErrMalformedEntry, d.Name, strings.Join(problems, ", "))
	}
	return d, nil
}

// AppendDescriptor encodes d as a descriptor record and appends it to dst.
// Strings longer than their field are truncated, leaving room for the NUL.
func AppendDescriptor(dst []byte, d Descriptor) []byte {
	var rec [DescriptorSize]byte
	binary.LittleEndian.PutUint32(rec[recType:], uint32(int32(d.Type)))
	binary.LittleEndian.PutUint32(rec[recOffset:], uint32(int32(d.Offset)))
	binary.LittleEndian.PutUint32(rec[recCount:], uint32(int32(d.Count)))
	if d.CountAsTime {
		rec[recCountAsTime] = 1
	}
	putCString(rec[recName:recName+MaxNameLen], d.Name)
	putCString(rec[recDesc:recDesc+MaxDescLen], d.Description)
	putCString(rec[recUnit:recUnit+MaxUnitLen], d.Unit)
	return append(dst, rec[:]...)
}

// TrimCString returns the bytes before the first NUL as a string. Invalid
// UTF-8 sequences are replaced with U+FFFD.
func TrimCString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return strings.ToValidUTF8(string(b), "�")
}

func putCString(dst []byte, s string) {
	n := copy(dst[:len(dst)-1], s)
	clear(dst[n:])
}
