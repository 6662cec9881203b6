package vars

// VarType is the physical storage type of a variable as encoded by the
// producer. The numeric values are the producer's type codes.
type VarType int32

const (
	TypeChar     VarType = 0
	TypeBool     VarType = 1
	TypeInt      VarType = 2
	TypeBitField VarType = 3
	TypeFloat    VarType = 4
	TypeDouble   VarType = 5
	// TypeETCount is the producer's count sentinel. It carries no data.
	TypeETCount VarType = 6
)

var varTypeNames = map[VarType]string{
	TypeChar:     "char",
	TypeBool:     "bool",
	TypeInt:      "int",
	TypeBitField: "bitfield",
	TypeFloat:    "float",
	TypeDouble:   "double",
	TypeETCount:  "etcount",
}

func (t VarType) String() string {
	if s, ok := varTypeNames[t]; ok {
		return s
	}
	return "unknown"
}

// Width returns the number of bytes one element occupies in a frame.
// TypeETCount and unknown codes occupy nothing.
func (t VarType) Width() int {
	switch t {
	case TypeChar, TypeBool:
		return 1
	case TypeInt, TypeBitField, TypeFloat:
		return 4
	case TypeDouble:
		return 8
	default:
		return 0
	}
}

// Valid reports whether t is one of the producer's known type codes.
func (t VarType) Valid() bool {
	_, ok := varTypeNames[t]
	return ok
}
