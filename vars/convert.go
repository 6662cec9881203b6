package vars

import (
	"errors"
	"fmt"
	"math"
)

func mismatch(v Value, target string) error {
	if v.array {
		return fmt.Errorf("%w: array of %s to %s", ErrTypeMismatch, v.typ, target)
	}
	return fmt.Errorf("%w: %s to %s", ErrTypeMismatch, v.typ, target)
}

// ToByte converts a Char value.
func ToByte(v Value) (byte, error) {
	if b, ok := v.Char(); ok {
		return b, nil
	}
	return 0, mismatch(v, "byte")
}

// ToBool converts a Bool value. Integers are not coerced.
func ToBool(v Value) (bool, error) {
	if b, ok := v.Bool(); ok {
		return b, nil
	}
	return false, mismatch(v, "bool")
}

// ToInt32 converts Char, Int and BitField values directly and rounds
// Float and Double values to the nearest integer.
func ToInt32(v Value) (int32, error) {
	if v.array {
		return 0, mismatch(v, "int32")
	}
	switch v.typ {
	case TypeChar:
		return int32(byte(v.bits)), nil
	case TypeInt, TypeBitField:
		return int32(uint32(v.bits)), nil
	case TypeFloat:
		f, _ := v.Float()
		return roundInt32(float64(f))
	case TypeDouble:
		f, _ := v.Double()
		return roundInt32(f)
	default:
		return 0, mismatch(v, "int32")
	}
}

func roundInt32(f float64) (int32, error) {
	if math.IsNaN(f) {
		return 0, fmt.Errorf("%w: NaN to int32", ErrOutOfRange)
	}
	r := math.Round(f)
	if r > math.MaxInt32 || r < math.MinInt32 {
		return 0, fmt.Errorf("%w: %g to int32", ErrOutOfRange, f)
	}
	return int32(r), nil
}

func ToInt64(v Value) (int64, error) {
	i, err := ToInt32(v)
	return int64(i), err
}

func ToInt(v Value) (int, error) {
	i, err := ToInt32(v)
	return int(i), err
}

// ToUint32 returns the raw bits of a BitField or Int value.
func ToUint32(v Value) (uint32, error) {
	if v.array || (v.typ != TypeBitField && v.typ != TypeInt) {
		return 0, mismatch(v, "uint32")
	}
	return uint32(v.bits), nil
}

// ToFloat32 converts Float values directly. Int values must be exactly
// representable and Double values must be within float32 range.
func ToFloat32(v Value) (float32, error) {
	if v.array {
		return 0, mismatch(v, "float32")
	}
	switch v.typ {
	case TypeFloat:
		f, _ := v.Float()
		return f, nil
	case TypeInt:
		i, _ := v.Int()
		f := float32(i)
		if int64(f) != int64(i) {
			return 0, fmt.Errorf("%w: %d is not exact as float32", ErrOutOfRange, i)
		}
		return f, nil
	case TypeDouble:
		d, _ := v.Double()
		if !math.IsInf(d, 0) && !math.IsNaN(d) && math.Abs(d) > math.MaxFloat32 {
			return 0, fmt.Errorf("%w: %g to float32", ErrOutOfRange, d)
		}
		return float32(d), nil
	default:
		return 0, mismatch(v, "float32")
	}
}

// ToFloat64 converts Int, Float and Double values.
func ToFloat64(v Value) (float64, error) {
	if v.array {
		return 0, mismatch(v, "float64")
	}
	switch v.typ {
	case TypeInt:
		i, _ := v.Int()
		return float64(i), nil
	case TypeFloat:
		f, _ := v.Float()
		return float64(f), nil
	case TypeDouble:
		d, _ := v.Double()
		return d, nil
	default:
		return 0, mismatch(v, "float64")
	}
}

func toEnum[T ~int32](v Value, names enumNames[T], target string) (T, error) {
	if v.array || (v.typ != TypeInt && v.typ != TypeBitField) {
		return 0, mismatch(v, target)
	}
	d := int32(uint32(v.bits))
	e, ok := names.lookup(d)
	if !ok {
		return 0, fmt.Errorf("%w: %d is not a %s", ErrTypeMismatch, d, target)
	}
	return e, nil
}

func ToTrackLocation(v Value) (TrackLocation, error) {
	return toEnum(v, trackLocationNames, "TrackLocation")
}

func ToTrackSurface(v Value) (TrackSurface, error) {
	return toEnum(v, trackSurfaceNames, "TrackSurface")
}

func ToSessionState(v Value) (SessionState, error) {
	return toEnum(v, sessionStateNames, "SessionState")
}

func ToCarLeftRight(v Value) (CarLeftRight, error) {
	return toEnum(v, carLeftRightNames, "CarLeftRight")
}

func ToPitStatus(v Value) (PitStatus, error) {
	return toEnum(v, pitStatusNames, "PitStatus")
}

func ToPaceMode(v Value) (PaceMode, error) {
	return toEnum(v, paceModeNames, "PaceMode")
}

func ToTrackWetness(v Value) (TrackWetness, error) {
	return toEnum(v, trackWetnessNames, "TrackWetness")
}

// Bitflag conversions drop bits the flag set does not define.
func toFlags[T ~uint32](v Value, mask T, target string) (T, error) {
	if v.array || (v.typ != TypeBitField && v.typ != TypeInt) {
		return 0, mismatch(v, target)
	}
	return T(uint32(v.bits)) & mask, nil
}

func ToEngineWarnings(v Value) (EngineWarnings, error) {
	return toFlags(v, engineWarningsMask, "EngineWarnings")
}

func ToFlags(v Value) (Flags, error) {
	return toFlags(v, flagsMask, "Flags")
}

func ToCameraState(v Value) (CameraState, error) {
	return toFlags(v, cameraStateMask, "CameraState")
}

func ToPitServiceFlags(v Value) (PitServiceFlags, error) {
	return toFlags(v, pitServiceMask, "PitServiceFlags")
}

func ToPaceFlags(v Value) (PaceFlags, error) {
	return toFlags(v, paceFlagsMask, "PaceFlags")
}

// As converts a scalar value to T. Supported targets are byte, bool,
// int32, int64, int, uint32, float32, float64 and the enum and flag types
// of this package.
func As[T any](v Value) (T, error) {
	var out T
	var err error
	switch p := any(&out).(type) {
	case *byte:
		*p, err = ToByte(v)
	case *bool:
		*p, err = ToBool(v)
	case *int32:
		*p, err = ToInt32(v)
	case *int64:
		*p, err = ToInt64(v)
	case *int:
		*p, err = ToInt(v)
	case *uint32:
		*p, err = ToUint32(v)
	case *float32:
		*p, err = ToFloat32(v)
	case *float64:
		*p, err = ToFloat64(v)
	case *TrackLocation:
		*p, err = ToTrackLocation(v)
	case *TrackSurface:
		*p, err = ToTrackSurface(v)
	case *SessionState:
		*p, err = ToSessionState(v)
	case *CarLeftRight:
		*p, err = ToCarLeftRight(v)
	case *PitStatus:
		*p, err = ToPitStatus(v)
	case *PaceMode:
		*p, err = ToPaceMode(v)
	case *TrackWetness:
		*p, err = ToTrackWetness(v)
	case *EngineWarnings:
		*p, err = ToEngineWarnings(v)
	case *Flags:
		*p, err = ToFlags(v)
	case *CameraState:
		*p, err = ToCameraState(v)
	case *PitServiceFlags:
		*p, err = ToPitServiceFlags(v)
	case *PaceFlags:
		*p, err = ToPaceFlags(v)
	default:
		err = fmt.Errorf("%w: unsupported target %T", ErrTypeMismatch, out)
	}
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// AsSlice converts every element of an array value to T. The first
// failing element aborts the conversion.
func AsSlice[T any](v Value) ([]T, error) {
	if !v.array {
		var zero T
		return nil, mismatch(v, fmt.Sprintf("[]%T", zero))
	}
	out := make([]T, len(v.elems))
	for i, e := range v.elems {
		x, err := As[T](e)
		if err != nil {
			return nil, &elementError{index: i, err: err}
		}
		out[i] = x
	}
	return out, nil
}

type elementError struct {
	index int
	err   error
}

func (e *elementError) Error() string { return fmt.Sprintf("element %d: %v", e.index, e.err) }
func (e *elementError) Unwrap() error { return e.err }

// Get extracts d from frame and converts it to T.
func Get[T any](d Descriptor, frame []byte) (T, error) {
	var zero T
	v, err := Extract(d, frame)
	if err != nil {
		return zero, err
	}
	out, err := As[T](v)
	if err != nil {
		return zero, &ConversionError{Variable: d.Name, Target: fmt.Sprintf("%T", zero), Index: -1, Err: err}
	}
	return out, nil
}

// GetSlice extracts an array variable from frame and converts each
// element to T.
func GetSlice[T any](d Descriptor, frame []byte) ([]T, error) {
	v, err := Extract(d, frame)
	if err != nil {
		return nil, err
	}
	out, err := AsSlice[T](v)
	if err != nil {
		var zero T
		ce := &ConversionError{Variable: d.Name, Target: fmt.Sprintf("%T", zero), Index: -1, Err: err}
		var ee *elementError
		if errors.As(err, &ee) {
			ce.Index = ee.index
			ce.Err = ee.err
		}
		return nil, ce
	}
	return out, nil
}
