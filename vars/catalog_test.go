package vars

import "testing"

func buildTable(descs ...Descriptor) []byte {
	var table []byte
	for _, d := range descs {
		table = AppendDescriptor(table, d)
	}
	return table
}

func TestBuild(t *testing.T) {
	table := buildTable(
		Descriptor{Name: "SessionTime", Type: TypeDouble, Offset: 0, Count: 1},
		Descriptor{Name: "Gear", Type: TypeInt, Offset: 8, Count: 1},
		Descriptor{Name: "CarIdxLap", Type: TypeInt, Offset: 12, Count: 64},
		Descriptor{Name: "Sentinel", Type: TypeETCount, Count: 1},
	)

	// The trailing record is the producer's sentinel and is not read.
	cat, report := Build(table, 4)
	if len(cat) != 3 {
		t.Fatalf("catalog has %d entries, want 3: %v", len(cat), cat.Names())
	}
	if report.Records != 3 || report.Malformed != 0 || report.Truncated {
		t.Errorf("report = %+v", report)
	}
	if _, ok := cat.Lookup("Sentinel"); ok {
		t.Error("sentinel record should not be in the catalog")
	}

	lap, ok := cat.Lookup("CarIdxLap")
	if !ok || !lap.IsArray() || lap.Count != 64 {
		t.Errorf("CarIdxLap = %+v", lap)
	}
	if got := cat.FrameSize(); got != 12+4*64 {
		t.Errorf("FrameSize = %d, want %d", got, 12+4*64)
	}
}

func TestBuild_Degenerate(t *testing.T) {
	for _, n := range []int{-1, 0, 1} {
		cat, report := Build(nil, n)
		if len(cat) != 0 || report.Records != 0 {
			t.Errorf("Build(nil, %d) = %d entries, report %+v", n, len(cat), report)
		}
	}
}

func TestBuild_DuplicateNamesLastWins(t *testing.T) {
	table := buildTable(
		Descriptor{Name: "RPM", Type: TypeFloat, Offset: 0, Count: 1},
		Descriptor{Name: "RPM", Type: TypeFloat, Offset: 40, Count: 1},
	)
	cat, _ := Build(table, 3)
	if len(cat) != 1 {
		t.Fatalf("catalog has %d entries, want 1", len(cat))
	}
	if cat["RPM"].Offset != 40 {
		t.Errorf("RPM offset = %d, want 40", cat["RPM"].Offset)
	}
}

func TestBuild_MalformedEntriesKept(t *testing.T) {
	table := buildTable(
		Descriptor{Name: "Weird", Type: VarType(99), Count: 1},
		Descriptor{Name: "Fine", Type: TypeBool, Offset: 3, Count: 1},
	)
	cat, report := Build(table, 3)
	if report.Malformed != 1 {
		t.Errorf("Malformed = %d, want 1", report.Malformed)
	}
	weird, ok := cat.Lookup("Weird")
	if !ok {
		t.Fatal("malformed entry missing from catalog")
	}
	if weird.Type != TypeETCount || weird.Semantic != SemanticFloat {
		t.Errorf("Weird = %s/%s, want etcount/Float", weird.Type, weird.Semantic)
	}
	if _, ok := cat.Lookup("Fine"); !ok {
		t.Error("well-formed entry missing")
	}
}

func TestBuild_TruncatedTable(t *testing.T) {
	table := buildTable(Descriptor{Name: "Only", Type: TypeInt, Count: 1})
	cat, report := Build(table, 5)
	if !report.Truncated {
		t.Error("expected Truncated")
	}
	if report.Records != 1 || report.Malformed != 3 {
		t.Errorf("report = %+v", report)
	}
	if len(cat) != 1 {
		t.Errorf("catalog has %d entries, want 1", len(cat))
	}
}
