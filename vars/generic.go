package vars

import (
	"errors"
	"fmt"
)

// Generic decodes d from frame into a loosely typed representation for
// generic serializers: int32, bool, float32 or float64 for plain values,
// and the display string for enum and flag semantics. Arrays become a
// slice of the element representation. End markers render as nil.
//
// An enum or flag array with undecodable elements is still returned, with
// those elements rendered as "Unknown(<raw>)", alongside the error.
func Generic(d Descriptor, frame []byte) (any, error) {
	v, err := Extract(d, frame)
	if err != nil {
		return nil, err
	}
	out, err := GenericValue(d.Semantic, v)
	if err != nil {
		return out, &ConversionError{Variable: d.Name, Target: d.Semantic.String(), Index: -1, Err: err}
	}
	return out, nil
}

// GenericValue renders an already decoded value under the given semantic.
func GenericValue(sem Semantic, v Value) (any, error) {
	if v.Type() == TypeETCount {
		return nil, nil
	}
	if !v.IsArray() {
		return renderScalar(sem, v)
	}
	switch sem {
	case SemanticChar, SemanticInt:
		return AsSlice[int32](v)
	case SemanticBool:
		return AsSlice[bool](v)
	case SemanticFloat:
		return AsSlice[float32](v)
	case SemanticDouble:
		return AsSlice[float64](v)
	}
	out := make([]string, v.Len())
	var errs []error
	for i := range out {
		e := v.Index(i)
		s, err := renderScalar(sem, e)
		if err != nil {
			out[i] = "Unknown(" + e.String() + ")"
			errs = append(errs, fmt.Errorf("element %d: %w", i, err))
			continue
		}
		out[i] = s.(string)
	}
	return out, errors.Join(errs...)
}

func renderScalar(sem Semantic, v Value) (any, error) {
	switch sem {
	case SemanticChar, SemanticInt:
		return ToInt32(v)
	case SemanticBool:
		return ToBool(v)
	case SemanticFloat:
		return ToFloat32(v)
	case SemanticDouble:
		return ToFloat64(v)
	}
	s, err := displayString(sem, v)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func displayString(sem Semantic, v Value) (string, error) {
	var s fmt.Stringer
	var err error
	switch sem {
	case SemanticTrackLocation:
		s, err = ToTrackLocation(v)
	case SemanticTrackSurface:
		s, err = ToTrackSurface(v)
	case SemanticSessionState:
		s, err = ToSessionState(v)
	case SemanticCarLeftRight:
		s, err = ToCarLeftRight(v)
	case SemanticPitStatus:
		s, err = ToPitStatus(v)
	case SemanticPaceMode:
		s, err = ToPaceMode(v)
	case SemanticTrackWetness:
		s, err = ToTrackWetness(v)
	case SemanticEngineWarnings:
		s, err = ToEngineWarnings(v)
	case SemanticFlags:
		s, err = ToFlags(v)
	case SemanticCameraState:
		s, err = ToCameraState(v)
	case SemanticPitServiceFlags:
		s, err = ToPitServiceFlags(v)
	case SemanticPaceFlags:
		s, err = ToPaceFlags(v)
	default:
		return "", fmt.Errorf("%w: no rendering for semantic %s", ErrTypeMismatch, sem)
	}
	if err != nil {
		return "", err
	}
	return s.String(), nil
}
