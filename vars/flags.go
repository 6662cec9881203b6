package vars

import "strings"

type flagName[T ~uint32] struct {
	bit  T
	name string
}

func joinFlags[T ~uint32](v T, names []flagName[T]) string {
	var parts []string
	for _, f := range names {
		if v&f.bit == f.bit {
			parts = append(parts, f.name)
		}
	}
	return strings.Join(parts, ", ")
}

func maskOf[T ~uint32](names []flagName[T]) T {
	var m T
	for _, f := range names {
		m |= f.bit
	}
	return m
}

// EngineWarnings is the set of active engine warning lights.
type EngineWarnings uint32

const (
	EngineWaterTemp        EngineWarnings = 0x0001
	EngineFuelPressure     EngineWarnings = 0x0002
	EngineOilPressure      EngineWarnings = 0x0004
	EngineStalled          EngineWarnings = 0x0008
	EnginePitSpeedLimiter  EngineWarnings = 0x0010
	EngineRevLimiterActive EngineWarnings = 0x0020
	EngineOilTemperature   EngineWarnings = 0x0040
)

var engineWarningNames = []flagName[EngineWarnings]{
	{EngineWaterTemp, "Water Temp"},
	{EngineFuelPressure, "Fuel Pressure"},
	{EngineOilPressure, "Oil Pressure"},
	{EngineStalled, "Engine Stalled"},
	{EnginePitSpeedLimiter, "Pit Speed Limiter"},
	{EngineRevLimiterActive, "Rev Limiter Active"},
	{EngineOilTemperature, "Oil Temperature"},
}

var engineWarningsMask = maskOf(engineWarningNames)

func (w EngineWarnings) Has(f EngineWarnings) bool { return w&f == f }
func (w EngineWarnings) String() string            { return joinFlags(w, engineWarningNames) }

// Flags is the set of flags shown to a driver or the whole field.
type Flags uint32

const (
	FlagCheckered     Flags = 0x00000001
	FlagWhite         Flags = 0x00000002
	FlagGreen         Flags = 0x00000004
	FlagYellow        Flags = 0x00000008
	FlagRed           Flags = 0x00000010
	FlagBlue          Flags = 0x00000020
	FlagDebris        Flags = 0x00000040
	FlagCrossed       Flags = 0x00000080
	FlagYellowWaving  Flags = 0x00000100
	FlagOneLapToGreen Flags = 0x00000200
	FlagGreenHeld     Flags = 0x00000400
	FlagTenToGo       Flags = 0x00000800
	FlagFiveToGo      Flags = 0x00001000
	FlagRandomWaving  Flags = 0x00002000
	FlagCaution       Flags = 0x00004000
	FlagCautionWaving Flags = 0x00008000

	// Driver black flags.
	FlagBlack      Flags = 0x00010000
	FlagDisqualify Flags = 0x00020000
	FlagServicible Flags = 0x00040000
	FlagFurled     Flags = 0x00080000
	FlagRepair     Flags = 0x00100000

	// Start lights.
	FlagStartHidden Flags = 0x10000000
	FlagStartReady  Flags = 0x20000000
	FlagStartSet    Flags = 0x40000000
	FlagStartGo     Flags = 0x80000000
)

var flagNames = []flagName[Flags]{
	{FlagCheckered, "Checkered Flag"},
	{FlagWhite, "White Flag"},
	{FlagGreen, "Green Flag"},
	{FlagYellow, "Yellow Flag"},
	{FlagRed, "Red Flag"},
	{FlagBlue, "Blue Flag"},
	{FlagDebris, "Debris"},
	{FlagCrossed, "Crossed"},
	{FlagYellowWaving, "Yellow Waving"},
	{FlagOneLapToGreen, "One Lap To Green"},
	{FlagGreenHeld, "Green Held"},
	{FlagTenToGo, "Ten To Go"},
	{FlagFiveToGo, "Five To Go"},
	{FlagRandomWaving, "Random Waving"},
	{FlagCaution, "Caution"},
	{FlagCautionWaving, "Caution Waving"},
	{FlagBlack, "Black"},
	{FlagDisqualify, "Disqualify"},
	{FlagServicible, "Servicible"},
	{FlagFurled, "Furled"},
	{FlagRepair, "Repair"},
	{FlagStartHidden, "Start Hidden"},
	{FlagStartReady, "Start Ready"},
	{FlagStartSet, "Start Set"},
	{FlagStartGo, "Start Go"},
}

var flagsMask = maskOf(flagNames)

func (f Flags) Has(o Flags) bool { return f&o == o }
func (f Flags) String() string   { return joinFlags(f, flagNames) }

// CameraState is the replay camera tool's state.
type CameraState uint32

const (
	CameraIsSessionScreen       CameraState = 0x0001
	CameraIsScenicActive        CameraState = 0x0002
	CameraCamToolActive         CameraState = 0x0004
	CameraUIHidden              CameraState = 0x0008
	CameraUseAutoShotSelect     CameraState = 0x0010
	CameraUseTemporaryEdits     CameraState = 0x0020
	CameraUseKeyAcceleration    CameraState = 0x0040
	CameraUseKey10xAcceleration CameraState = 0x0080
	CameraUseMouseAimMode       CameraState = 0x0100
)

var cameraStateNames = []flagName[CameraState]{
	{CameraIsSessionScreen, "Session Screen"},
	{CameraIsScenicActive, "Scenic Active"},
	{CameraCamToolActive, "Cam Tool Active"},
	{CameraUIHidden, "UI Hidden"},
	{CameraUseAutoShotSelect, "Use Auto Shot Select"},
	{CameraUseTemporaryEdits, "Use Temporary Edits"},
	{CameraUseKeyAcceleration, "Use Key Acceleration"},
	{CameraUseKey10xAcceleration, "Use Key 10X Acceleration"},
	{CameraUseMouseAimMode, "Use Mouse Aim Mode"},
}

var cameraStateMask = maskOf(cameraStateNames)

func (c CameraState) Has(o CameraState) bool { return c&o == o }
func (c CameraState) String() string         { return joinFlags(c, cameraStateNames) }

// PitServiceFlags is the set of services requested for the next stop.
type PitServiceFlags uint32

const (
	PitServiceLFTireChange      PitServiceFlags = 0x0001
	PitServiceRFTireChange      PitServiceFlags = 0x0002
	PitServiceLRTireChange      PitServiceFlags = 0x0004
	PitServiceRRTireChange      PitServiceFlags = 0x0008
	PitServiceFuelFill          PitServiceFlags = 0x0010
	PitServiceWindshieldTearoff PitServiceFlags = 0x0020
	PitServiceFastRepair        PitServiceFlags = 0x0040
)

var pitServiceNames = []flagName[PitServiceFlags]{
	{PitServiceLFTireChange, "LF Tire Change"},
	{PitServiceRFTireChange, "RF Tire Change"},
	{PitServiceLRTireChange, "LR Tire Change"},
	{PitServiceRRTireChange, "RR Tire Change"},
	{PitServiceFuelFill, "Fuel Fill"},
	{PitServiceWindshieldTearoff, "Windshield Tearoff"},
	{PitServiceFastRepair, "Fast Repair"},
}

var pitServiceMask = maskOf(pitServiceNames)

func (p PitServiceFlags) Has(o PitServiceFlags) bool { return p&o == o }
func (p PitServiceFlags) String() string             { return joinFlags(p, pitServiceNames) }

// PaceFlags describes a car's position relative to the pace line.
type PaceFlags uint32

const (
	PaceEndOfLine  PaceFlags = 0x0001
	PaceFreePass   PaceFlags = 0x0002
	PaceWaveAround PaceFlags = 0x0004
)

var paceFlagNames = []flagName[PaceFlags]{
	{PaceEndOfLine, "End Of Line"},
	{PaceFreePass, "Free Pass"},
	{PaceWaveAround, "Wave Around"},
}

var paceFlagsMask = maskOf(paceFlagNames)

func (p PaceFlags) Has(o PaceFlags) bool { return p&o == o }
func (p PaceFlags) String() string       { return joinFlags(p, paceFlagNames) }
