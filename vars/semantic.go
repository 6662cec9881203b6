package vars

import "log/slog"

// Semantic is the meaning assigned to a variable's raw bits. It is derived
// from the physical type and, for integers and bitfields, the variable name.
type Semantic int

const (
	SemanticChar Semantic = iota
	SemanticBool
	SemanticInt
	SemanticFloat
	SemanticDouble
	SemanticTrackLocation
	SemanticTrackSurface
	SemanticSessionState
	SemanticCarLeftRight
	SemanticPitStatus
	SemanticPaceMode
	SemanticTrackWetness
	SemanticEngineWarnings
	SemanticFlags
	SemanticCameraState
	SemanticPitServiceFlags
	SemanticPaceFlags
)

var semanticNames = [...]string{
	SemanticChar:            "Char",
	SemanticBool:            "Bool",
	SemanticInt:             "Int",
	SemanticFloat:           "Float",
	SemanticDouble:          "Double",
	SemanticTrackLocation:   "TrackLocation",
	SemanticTrackSurface:    "TrackSurface",
	SemanticSessionState:    "SessionState",
	SemanticCarLeftRight:    "CarLeftRight",
	SemanticPitStatus:       "PitStatus",
	SemanticPaceMode:        "PaceMode",
	SemanticTrackWetness:    "TrackWetness",
	SemanticEngineWarnings:  "EngineWarnings",
	SemanticFlags:           "Flags",
	SemanticCameraState:     "CameraState",
	SemanticPitServiceFlags: "PitServiceFlags",
	SemanticPaceFlags:       "PaceFlags",
}

func (s Semantic) String() string {
	if s >= 0 && int(s) < len(semanticNames) {
		return semanticNames[s]
	}
	return "Unknown"
}

// IsEnum reports whether values of this semantic decode to a named enum.
func (s Semantic) IsEnum() bool {
	return s >= SemanticTrackLocation && s <= SemanticTrackWetness
}

// IsFlags reports whether values of this semantic decode to a bitflag set.
func (s Semantic) IsFlags() bool {
	return s >= SemanticEngineWarnings && s <= SemanticPaceFlags
}

// Integer variables whose name selects an enum.
var intSemantics = map[string]Semantic{
	"CarIdxTrackSurface": SemanticTrackLocation,
	"SessionState":       SemanticSessionState,
	"CarLeftRight":       SemanticCarLeftRight,
	"PitSvStatus":        SemanticPitStatus,
	"PaceMode":           SemanticPaceMode,
	"TrackWetness":       SemanticTrackWetness,
}

// Bitfield variables whose name selects a flag set.
var bitfieldSemantics = map[string]Semantic{
	"EngineWarnings":     SemanticEngineWarnings,
	"PitSvFlags":         SemanticPitServiceFlags,
	"SessionFlags":       SemanticFlags,
	"CarIdxSessionFlags": SemanticFlags,
	"CamCameraState":     SemanticCameraState,
	"CarIdxPaceFlags":    SemanticPaceFlags,
}

// Classify derives the semantic type of a variable. Bitfields with an
// unrecognised name fall back to SemanticInt. The count sentinel and
// unknown physical types fall back to SemanticFloat.
func Classify(t VarType, name string) Semantic {
	switch t {
	case TypeChar:
		return SemanticChar
	case TypeBool:
		return SemanticBool
	case TypeInt:
		if s, ok := intSemantics[name]; ok {
			return s
		}
		return SemanticInt
	case TypeBitField:
		if s, ok := bitfieldSemantics[name]; ok {
			return s
		}
		slog.Error("vars: unknown bitfield, treating as integer", "variable", name)
		return SemanticInt
	case TypeFloat:
		return SemanticFloat
	case TypeDouble:
		return SemanticDouble
	default:
		slog.Warn("vars: variable has no data type, treating as float",
			"variable", name,
			"type", t.String(),
		)
		return SemanticFloat
	}
}
