package vars

import (
	"errors"
	"testing"
)

func TestEnumConversions(t *testing.T) {
	t.Run("track location", func(t *testing.T) {
		tests := []struct {
			in   int32
			want TrackLocation
			name string
		}{
			{-1, TrackLocationNotInWorld, "NotInWorld"},
			{0, TrackLocationOffTrack, "OffTrack"},
			{1, TrackLocationInPitStall, "InPitStall"},
			{2, TrackLocationApproachingPits, "AproachingPits"},
			{3, TrackLocationOnTrack, "OnTrack"},
		}
		for _, tt := range tests {
			got, err := ToTrackLocation(IntValue(tt.in))
			if err != nil || got != tt.want || got.String() != tt.name {
				t.Errorf("ToTrackLocation(%d) = %v (%q), %v", tt.in, got, got.String(), err)
			}
		}
		if _, err := ToTrackLocation(IntValue(4)); !errors.Is(err, ErrTypeMismatch) {
			t.Errorf("unknown discriminant: err = %v", err)
		}
	})

	t.Run("pit status gap", func(t *testing.T) {
		if s, err := ToPitStatus(IntValue(100)); err != nil || s != PitStatusTooFarLeft {
			t.Errorf("ToPitStatus(100) = %v, %v", s, err)
		}
		if _, err := ToPitStatus(IntValue(50)); !errors.Is(err, ErrTypeMismatch) {
			t.Errorf("ToPitStatus(50): err = %v", err)
		}
		if PitStatusNone.String() != "NoStatus" {
			t.Errorf("PitStatusNone = %q", PitStatusNone.String())
		}
	})

	t.Run("from bitfield", func(t *testing.T) {
		if s, err := ToSessionState(BitFieldValue(4)); err != nil || s != SessionStateRacing {
			t.Errorf("ToSessionState(bitfield 4) = %v, %v", s, err)
		}
	})

	t.Run("rejects floats", func(t *testing.T) {
		if _, err := ToPaceMode(FloatValue(1)); !errors.Is(err, ErrTypeMismatch) {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("surface names", func(t *testing.T) {
		for d := int32(-1); d <= int32(SurfaceAstroturf); d++ {
			s, ok := TrackSurfaceFrom(d)
			if !ok {
				t.Errorf("TrackSurfaceFrom(%d) not found", d)
				continue
			}
			name := s.String()
			if d >= 0 && name[len(name)-len("Material"):] != "Material" {
				t.Errorf("surface %d name %q", d, name)
			}
		}
		if SurfaceAstroturf != 28 {
			t.Errorf("SurfaceAstroturf = %d, want 28", SurfaceAstroturf)
		}
	})

	t.Run("unknown member string", func(t *testing.T) {
		if got := TrackWetness(99).String(); got != "Unknown(99)" {
			t.Errorf("String = %q", got)
		}
	})
}

func TestFlagConversions(t *testing.T) {
	t.Run("pit service", func(t *testing.T) {
		f, err := ToPitServiceFlags(BitFieldValue(0x5))
		if err != nil {
			t.Fatal(err)
		}
		if f != PitServiceLFTireChange|PitServiceLRTireChange {
			t.Errorf("flags = %#x", uint32(f))
		}
		if got := f.String(); got != "LF Tire Change, LR Tire Change" {
			t.Errorf("String = %q", got)
		}
	})

	t.Run("truncates unknown bits", func(t *testing.T) {
		f, err := ToEngineWarnings(BitFieldValue(0x8000_0011))
		if err != nil {
			t.Fatal(err)
		}
		if f != EngineWaterTemp|EnginePitSpeedLimiter {
			t.Errorf("flags = %#x", uint32(f))
		}
	})

	t.Run("from int", func(t *testing.T) {
		f, err := ToFlags(IntValue(-0x80000000))
		if err != nil || f != FlagStartGo {
			t.Errorf("ToFlags = %#x, %v", uint32(f), err)
		}
	})

	t.Run("rejects bool", func(t *testing.T) {
		if _, err := ToCameraState(BoolValue(true)); !errors.Is(err, ErrTypeMismatch) {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("display strings", func(t *testing.T) {
		tests := []struct {
			got  string
			want string
		}{
			{(FlagCheckered | FlagWhite).String(), "Checkered Flag, White Flag"},
			{FlagServicible.String(), "Servicible"},
			{(CameraUIHidden | CameraUseKey10xAcceleration).String(), "UI Hidden, Use Key 10X Acceleration"},
			{(PaceEndOfLine | PaceWaveAround).String(), "End Of Line, Wave Around"},
			{EngineWarnings(0).String(), ""},
		}
		for _, tt := range tests {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		}
	})

	t.Run("has", func(t *testing.T) {
		f := FlagYellow | FlagCaution
		if !f.Has(FlagYellow) || f.Has(FlagGreen) {
			t.Errorf("Has on %s", f)
		}
	})
}
