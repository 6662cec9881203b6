package vars

import "strconv"

// enumNames maps every member of an enum to its display name. Membership
// in the map is what makes a discriminant valid.
type enumNames[T ~int32] map[T]string

func (n enumNames[T]) name(v T) string {
	if s, ok := n[v]; ok {
		return s
	}
	return "Unknown(" + strconv.Itoa(int(v)) + ")"
}

func (n enumNames[T]) lookup(d int32) (T, bool) {
	v := T(d)
	_, ok := n[v]
	return v, ok
}

// TrackLocation is where a car is relative to the racing surface.
type TrackLocation int32

const (
	TrackLocationNotInWorld      TrackLocation = -1
	TrackLocationOffTrack        TrackLocation = 0
	TrackLocationInPitStall      TrackLocation = 1
	TrackLocationApproachingPits TrackLocation = 2
	TrackLocationOnTrack         TrackLocation = 3
)

var trackLocationNames = enumNames[TrackLocation]{
	TrackLocationNotInWorld: "NotInWorld",
	TrackLocationOffTrack:   "OffTrack",
	TrackLocationInPitStall: "InPitStall",
	// Producer SDK spelling.
	TrackLocationApproachingPits: "AproachingPits",
	TrackLocationOnTrack:         "OnTrack",
}

func (l TrackLocation) String() string { return trackLocationNames.name(l) }

func TrackLocationFrom(d int32) (TrackLocation, bool) { return trackLocationNames.lookup(d) }

// TrackSurface is the material under a car.
type TrackSurface int32

const (
	SurfaceNotInWorld TrackSurface = iota - 1
	SurfaceUndefined
	SurfaceAsphalt1
	SurfaceAsphalt2
	SurfaceAsphalt3
	SurfaceAsphalt4
	SurfaceConcrete1
	SurfaceConcrete2
	SurfaceRacingDirt1
	SurfaceRacingDirt2
	SurfacePaint1
	SurfacePaint2
	SurfaceRumble1
	SurfaceRumble2
	SurfaceRumble3
	SurfaceRumble4
	SurfaceGrass1
	SurfaceGrass2
	SurfaceGrass3
	SurfaceGrass4
	SurfaceDirt1
	SurfaceDirt2
	SurfaceDirt3
	SurfaceDirt4
	SurfaceSand
	SurfaceGravel1
	SurfaceGravel2
	SurfaceGrasscrete
	SurfaceAstroturf
)

var trackSurfaceNames = enumNames[TrackSurface]{
	SurfaceNotInWorld:  "SurfaceNotInWorld",
	SurfaceUndefined:   "UndefinedMaterial",
	SurfaceAsphalt1:    "Asphalt1Material",
	SurfaceAsphalt2:    "Asphalt2Material",
	SurfaceAsphalt3:    "Asphalt3Material",
	SurfaceAsphalt4:    "Asphalt4Material",
	SurfaceConcrete1:   "Concrete1Material",
	SurfaceConcrete2:   "Concrete2Material",
	SurfaceRacingDirt1: "RacingDirt1Material",
	SurfaceRacingDirt2: "RacingDirt2Material",
	SurfacePaint1:      "Paint1Material",
	SurfacePaint2:      "Paint2Material",
	SurfaceRumble1:     "Rumble1Material",
	SurfaceRumble2:     "Rumble2Material",
	SurfaceRumble3:     "Rumble3Material",
	SurfaceRumble4:     "Rumble4Material",
	SurfaceGrass1:      "Grass1Material",
	SurfaceGrass2:      "Grass2Material",
	SurfaceGrass3:      "Grass3Material",
	SurfaceGrass4:      "Grass4Material",
	SurfaceDirt1:       "Dirt1Material",
	SurfaceDirt2:       "Dirt2Material",
	SurfaceDirt3:       "Dirt3Material",
	SurfaceDirt4:       "Dirt4Material",
	SurfaceSand:        "SandMaterial",
	SurfaceGravel1:     "Gravel1Material",
	SurfaceGravel2:     "Gravel2Material",
	SurfaceGrasscrete:  "GrasscreteMaterial",
	SurfaceAstroturf:   "AstroturfMaterial",
}

func (s TrackSurface) String() string { return trackSurfaceNames.name(s) }

func TrackSurfaceFrom(d int32) (TrackSurface, bool) { return trackSurfaceNames.lookup(d) }

// SessionState is the phase of the current session.
type SessionState int32

const (
	SessionStateInvalid SessionState = iota
	SessionStateGetInCar
	SessionStateWarmup
	SessionStateParadeLaps
	SessionStateRacing
	SessionStateCheckered
	SessionStateCoolDown
)

var sessionStateNames = enumNames[SessionState]{
	SessionStateInvalid:    "Invalid",
	SessionStateGetInCar:   "GetInCar",
	SessionStateWarmup:     "Warmup",
	SessionStateParadeLaps: "ParadeLaps",
	SessionStateRacing:     "Racing",
	SessionStateCheckered:  "Checkered",
	SessionStateCoolDown:   "CoolDown",
}

func (s SessionState) String() string { return sessionStateNames.name(s) }

func SessionStateFrom(d int32) (SessionState, bool) { return sessionStateNames.lookup(d) }

// CarLeftRight is the spotter's view of cars alongside.
type CarLeftRight int32

const (
	CarLeftRightOff CarLeftRight = iota
	CarLeftRightClear
	CarLeftRightCarLeft
	CarLeftRightCarRight
	CarLeftRightBoth
	CarLeftRightTwoCarsLeft
	CarLeftRightTwoCarsRight
)

var carLeftRightNames = enumNames[CarLeftRight]{
	CarLeftRightOff:          "Off",
	CarLeftRightClear:        "Clear",
	CarLeftRightCarLeft:      "CarLeft",
	CarLeftRightCarRight:     "CarRight",
	CarLeftRightBoth:         "CarLeftRight",
	CarLeftRightTwoCarsLeft:  "TwoCarsLeft",
	CarLeftRightTwoCarsRight: "TwoCarsRight",
}

func (c CarLeftRight) String() string { return carLeftRightNames.name(c) }

func CarLeftRightFrom(d int32) (CarLeftRight, bool) { return carLeftRightNames.lookup(d) }

// PitStatus is the progress or failure of a pit service request.
type PitStatus int32

const (
	PitStatusNone       PitStatus = 0
	PitStatusInProgress PitStatus = 1
	PitStatusComplete   PitStatus = 2

	PitStatusTooFarLeft    PitStatus = 100
	PitStatusTooFarRight   PitStatus = 101
	PitStatusTooFarForward PitStatus = 102
	PitStatusTooFarBack    PitStatus = 103
	PitStatusBadAngle      PitStatus = 104
	PitStatusCantFixThat   PitStatus = 105
)

var pitStatusNames = enumNames[PitStatus]{
	PitStatusNone:          "NoStatus",
	PitStatusInProgress:    "InProgress",
	PitStatusComplete:      "Complete",
	PitStatusTooFarLeft:    "TooFarLeft",
	PitStatusTooFarRight:   "TooFarRight",
	PitStatusTooFarForward: "TooFarForward",
	PitStatusTooFarBack:    "TooFarBack",
	PitStatusBadAngle:      "BadAngle",
	PitStatusCantFixThat:   "CantFixThat",
}

func (p PitStatus) String() string { return pitStatusNames.name(p) }

func PitStatusFrom(d int32) (PitStatus, bool) { return pitStatusNames.lookup(d) }

// PaceMode is the formation the field is pacing in.
type PaceMode int32

const (
	PaceModeSingleFileStart PaceMode = iota
	PaceModeDoubleFileStart
	PaceModeSingleFileRestart
	PaceModeDoubleFileRestart
	PaceModeNotPacing
)

var paceModeNames = enumNames[PaceMode]{
	PaceModeSingleFileStart:   "SingleFileStart",
	PaceModeDoubleFileStart:   "DoubleFileStart",
	PaceModeSingleFileRestart: "SingleFileRestart",
	PaceModeDoubleFileRestart: "DoubleFileRestart",
	PaceModeNotPacing:         "NotPacing",
}

func (p PaceMode) String() string { return paceModeNames.name(p) }

func PaceModeFrom(d int32) (PaceMode, bool) { return paceModeNames.lookup(d) }

// TrackWetness grades the amount of water on the racing surface.
type TrackWetness int32

const (
	TrackWetnessUnknown TrackWetness = iota
	TrackWetnessDry
	TrackWetnessMostlyDry
	TrackWetnessVeryLightlyWet
	TrackWetnessLightlyWet
	TrackWetnessModeratelyWet
	TrackWetnessVeryWet
	TrackWetnessExtremelyWet
)

var trackWetnessNames = enumNames[TrackWetness]{
	TrackWetnessUnknown:        "Unknown",
	TrackWetnessDry:            "Dry",
	TrackWetnessMostlyDry:      "MostlyDry",
	TrackWetnessVeryLightlyWet: "VeryLightlyWet",
	TrackWetnessLightlyWet:     "LightlyWet",
	TrackWetnessModeratelyWet:  "ModeratelyWet",
	TrackWetnessVeryWet:        "VeryWet",
	TrackWetnessExtremelyWet:   "ExtremelyWet",
}

func (w TrackWetness) String() string { return trackWetnessNames.name(w) }

func TrackWetnessFrom(d int32) (TrackWetness, bool) { return trackWetnessNames.lookup(d) }
