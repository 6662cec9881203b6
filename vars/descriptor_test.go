package vars

import (
	"errors"
	"strings"
	"testing"
)

func TestParseDescriptor(t *testing.T) {
	rec := AppendDescriptor(nil, Descriptor{
		Name:        "Speed",
		Description: "GPS vehicle speed",
		Unit:        "m/s",
		Type:        TypeFloat,
		Offset:      24,
		Count:       1,
	})
	if len(rec) != DescriptorSize {
		t.Fatalf("record is %d bytes, want %d", len(rec), DescriptorSize)
	}

	d, err := ParseDescriptor(rec)
	if err != nil {
		t.Fatalf("ParseDescriptor failed: %v", err)
	}
	if d.Name != "Speed" || d.Description != "GPS vehicle speed" || d.Unit != "m/s" {
		t.Errorf("strings = %q %q %q", d.Name, d.Description, d.Unit)
	}
	if d.Type != TypeFloat || d.Offset != 24 || d.Count != 1 {
		t.Errorf("layout = %s@%d x%d", d.Type, d.Offset, d.Count)
	}
	if d.Semantic != SemanticFloat {
		t.Errorf("Semantic = %s, want Float", d.Semantic)
	}
	if d.IsArray() {
		t.Error("scalar reported as array")
	}
}

func TestParseDescriptor_Malformed(t *testing.T) {
	tests := []struct {
		name      string
		desc      Descriptor
		wantType  VarType
		wantCount int
	}{
		{"unknown type code", Descriptor{Name: "Mystery", Type: VarType(42), Count: 1}, TypeETCount, 1},
		{"zero count", Descriptor{Name: "Empty", Type: TypeInt, Count: 0}, TypeInt, 1},
		{"negative count", Descriptor{Name: "Negative", Type: TypeInt, Count: -3}, TypeInt, 1},
		{"negative offset", Descriptor{Name: "Before", Type: TypeInt, Offset: -4, Count: 1}, TypeInt, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ParseDescriptor(AppendDescriptor(nil, tt.desc))
			if !errors.Is(err, ErrMalformedEntry) {
				t.Fatalf("err = %v, want ErrMalformedEntry", err)
			}
			if d.Type != tt.wantType {
				t.Errorf("Type = %s, want %s", d.Type, tt.wantType)
			}
			if d.Count != tt.wantCount {
				t.Errorf("Count = %d, want %d", d.Count, tt.wantCount)
			}
			if d.Name != tt.desc.Name {
				t.Errorf("Name = %q, want %q", d.Name, tt.desc.Name)
			}
		})
	}
}

func TestParseDescriptor_ShortRecord(t *testing.T) {
	if _, err := ParseDescriptor(make([]byte, DescriptorSize-1)); !errors.Is(err, ErrMalformedEntry) {
		t.Fatalf("err = %v, want ErrMalformedEntry", err)
	}
}

func TestTrimCString(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{"nul terminated", []byte("RPM\x00garbage"), "RPM"},
		{"no nul", []byte("FullWidth"), "FullWidth"},
		{"empty", []byte{0, 'x'}, ""},
		{"invalid utf8", []byte{'a', 0xff, 'b', 0}, "a�b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TrimCString(tt.in); got != tt.want {
				t.Errorf("TrimCString(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestAppendDescriptor_TruncatesLongNames(t *testing.T) {
	long := strings.Repeat("x", 40)
	d, err := ParseDescriptor(AppendDescriptor(nil, Descriptor{Name: long, Type: TypeInt, Count: 1}))
	if err != nil {
		t.Fatalf("ParseDescriptor failed: %v", err)
	}
	if len(d.Name) != MaxNameLen-1 {
		t.Errorf("name length = %d, want %d", len(d.Name), MaxNameLen-1)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		typ  VarType
		name string
		want Semantic
	}{
		{TypeInt, "CarIdxTrackSurface", SemanticTrackLocation},
		{TypeInt, "SessionState", SemanticSessionState},
		{TypeInt, "CarLeftRight", SemanticCarLeftRight},
		{TypeInt, "PitSvStatus", SemanticPitStatus},
		{TypeInt, "PaceMode", SemanticPaceMode},
		{TypeInt, "TrackWetness", SemanticTrackWetness},
		{TypeInt, "Gear", SemanticInt},
		{TypeBitField, "EngineWarnings", SemanticEngineWarnings},
		{TypeBitField, "PitSvFlags", SemanticPitServiceFlags},
		{TypeBitField, "SessionFlags", SemanticFlags},
		{TypeBitField, "CarIdxSessionFlags", SemanticFlags},
		{TypeBitField, "CamCameraState", SemanticCameraState},
		{TypeBitField, "CarIdxPaceFlags", SemanticPaceFlags},
		{TypeBitField, "SomethingNew", SemanticInt},
		{TypeChar, "DisplayUnits", SemanticChar},
		{TypeBool, "IsOnTrack", SemanticBool},
		{TypeFloat, "Speed", SemanticFloat},
		{TypeDouble, "SessionTime", SemanticDouble},
		{TypeETCount, "Sentinel", SemanticFloat},
	}

	for _, tt := range tests {
		t.Run(tt.typ.String()+"/"+tt.name, func(t *testing.T) {
			if got := Classify(tt.typ, tt.name); got != tt.want {
				t.Errorf("Classify(%s, %q) = %s, want %s", tt.typ, tt.name, got, tt.want)
			}
		})
	}
}
