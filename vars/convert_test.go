package vars

import (
	"errors"
	"math"
	"testing"
	"testing/quick"
)

func TestToInt32(t *testing.T) {
	tests := []struct {
		name    string
		in      Value
		want    int32
		wantErr error
	}{
		{"char", CharValue(200), 200, nil},
		{"int", IntValue(-17), -17, nil},
		{"bitfield", BitFieldValue(0x80000000), math.MinInt32, nil},
		{"float rounds up", FloatValue(2.5), 3, nil},
		{"float rounds down", FloatValue(-2.4), -2, nil},
		{"double", DoubleValue(1e9), 1000000000, nil},
		{"double max", DoubleValue(math.MaxInt32), math.MaxInt32, nil},
		{"double over max", DoubleValue(2147483648.5), 0, ErrOutOfRange},
		{"double under min", DoubleValue(-2147483649), 0, ErrOutOfRange},
		{"float over max", FloatValue(3e9), 0, ErrOutOfRange},
		{"nan", DoubleValue(math.NaN()), 0, ErrOutOfRange},
		{"bool", BoolValue(true), 0, ErrTypeMismatch},
		{"end marker", EndMarker(), 0, ErrTypeMismatch},
		{"array", ArrayValue(IntValue(1)), 0, ErrTypeMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToInt32(tt.in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ToInt32(%v) failed: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ToInt32(%v) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestToFloat32(t *testing.T) {
	tests := []struct {
		name    string
		in      Value
		want    float32
		wantErr error
	}{
		{"float", FloatValue(1.25), 1.25, nil},
		{"small int", IntValue(1 << 20), 1 << 20, nil},
		{"int 2^24", IntValue(1 << 24), 1 << 24, nil},
		{"int not exact", IntValue(1<<24 + 1), 0, ErrOutOfRange},
		{"int max", IntValue(math.MaxInt32), 0, ErrOutOfRange},
		{"double", DoubleValue(0.5), 0.5, nil},
		{"double too large", DoubleValue(1e300), 0, ErrOutOfRange},
		{"char", CharValue(1), 0, ErrTypeMismatch},
		{"bitfield", BitFieldValue(1), 0, ErrTypeMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToFloat32(tt.in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ToFloat32(%v) = %v, %v; want %v", tt.in, got, err, tt.want)
			}
		})
	}
}

func TestToFloat64(t *testing.T) {
	for _, v := range []Value{IntValue(-5), FloatValue(-5), DoubleValue(-5)} {
		got, err := ToFloat64(v)
		if err != nil || got != -5 {
			t.Errorf("ToFloat64(%v) = %v, %v", v, got, err)
		}
	}
	if _, err := ToFloat64(BitFieldValue(5)); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("bitfield: err = %v", err)
	}
}

func TestToBool_NoTruthyCoercion(t *testing.T) {
	if b, err := ToBool(BoolValue(true)); err != nil || !b {
		t.Errorf("ToBool(true) = %v, %v", b, err)
	}
	for _, v := range []Value{IntValue(1), CharValue(1), BitFieldValue(1)} {
		if _, err := ToBool(v); !errors.Is(err, ErrTypeMismatch) {
			t.Errorf("ToBool(%v): err = %v, want ErrTypeMismatch", v, err)
		}
	}
}

func TestToByte(t *testing.T) {
	if b, err := ToByte(CharValue('x')); err != nil || b != 'x' {
		t.Errorf("ToByte = %v, %v", b, err)
	}
	if _, err := ToByte(IntValue('x')); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("int: err = %v", err)
	}
}

func TestToUint32(t *testing.T) {
	if u, err := ToUint32(IntValue(-1)); err != nil || u != math.MaxUint32 {
		t.Errorf("ToUint32(-1) = %d, %v", u, err)
	}
	if _, err := ToUint32(FloatValue(1)); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("float: err = %v", err)
	}
}

// TestToInt32_Property_RoundingWithinRange tests float to integer conversion
//
// Property: any finite double within int32 range converts to its
// nearest integer, and anything whose rounding leaves the range fails.
func TestToInt32_Property_RoundingWithinRange(t *testing.T) {
	property := func(f float64) bool {
		got, err := ToInt32(DoubleValue(f))
		r := math.Round(f)
		if r > math.MaxInt32 || r < math.MinInt32 {
			return errors.Is(err, ErrOutOfRange)
		}
		return err == nil && float64(got) == r
	}
	if err := quick.Check(property, nil); err != nil {
		t.Error(err)
	}

	// Values near every int32 round back to it.
	nearby := func(x int32) bool {
		for _, delta := range []float64{-0.25, 0, 0.25} {
			got, err := ToInt32(DoubleValue(float64(x) + delta))
			if err != nil || got != x {
				return false
			}
		}
		return true
	}
	if err := quick.Check(nearby, nil); err != nil {
		t.Error(err)
	}
}

func TestAs(t *testing.T) {
	if v, err := As[int64](IntValue(-9)); err != nil || v != -9 {
		t.Errorf("As[int64] = %d, %v", v, err)
	}
	if v, err := As[int](FloatValue(9.6)); err != nil || v != 10 {
		t.Errorf("As[int] = %d, %v", v, err)
	}
	if _, err := As[string](IntValue(1)); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("As[string]: err = %v", err)
	}
	if _, err := As[int32](ArrayValue(IntValue(1))); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("As on array: err = %v", err)
	}
}

func TestGetSlice_ReportsFailingElement(t *testing.T) {
	d := Descriptor{Name: "CarIdxTrackSurface", Type: TypeInt, Offset: 0, Count: 3, Semantic: SemanticTrackLocation}
	frame := make([]byte, 12)
	if err := Put(d, frame, ArrayValue(IntValue(3), IntValue(-1), IntValue(42))); err != nil {
		t.Fatal(err)
	}

	_, err := GetSlice[TrackLocation](d, frame)
	var ce *ConversionError
	if !errors.As(err, &ce) {
		t.Fatalf("err = %v, want *ConversionError", err)
	}
	if ce.Index != 2 || ce.Variable != "CarIdxTrackSurface" {
		t.Errorf("ConversionError = %+v", ce)
	}
	if !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("err = %v, want ErrTypeMismatch", err)
	}

	if _, err := GetSlice[int32](Descriptor{Name: "Gear", Type: TypeInt, Count: 1}, frame); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("scalar to slice: err = %v", err)
	}
}

func TestGet(t *testing.T) {
	d := Descriptor{Name: "Gear", Type: TypeInt, Offset: 4, Count: 1}
	frame := make([]byte, 8)
	if err := Put(d, frame, IntValue(4)); err != nil {
		t.Fatal(err)
	}
	if g, err := Get[int32](d, frame); err != nil || g != 4 {
		t.Errorf("Get[int32] = %d, %v", g, err)
	}

	_, err := Get[bool](d, frame)
	var ce *ConversionError
	if !errors.As(err, &ce) || ce.Target != "bool" || ce.Index != -1 {
		t.Errorf("Get[bool] err = %v", err)
	}

	short := Descriptor{Name: "Gear", Type: TypeInt, Offset: 6, Count: 1}
	if _, err := Get[int32](short, frame); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("out of bounds: err = %v", err)
	}
}
