package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/e7canasta/telemetry-capture/internal/shm"
	"github.com/e7canasta/telemetry-capture/internal/shm/shmtest"
	"github.com/e7canasta/telemetry-capture/vars"
)

// writeTestDump records a small producer region and returns its path.
func writeTestDump(t *testing.T) string {
	t.Helper()
	p := shmtest.NewProducer([]shmtest.Variable{
		{Name: "Speed", Unit: "m/s", Description: "GPS vehicle speed", Type: vars.TypeFloat},
		{Name: "Gear", Description: "-1=reverse 0=neutral 1..n=current gear", Type: vars.TypeInt},
		{Name: "CarIdxTrackSurface", Description: "Track surface type", Type: vars.TypeInt, Count: 64},
	}, shmtest.Options{})
	p.SetConnected(true)
	if err := p.SetSessionDocument("---\nWeekendInfo:\n TrackName: spa\n"); err != nil {
		t.Fatalf("SetSessionDocument: %v", err)
	}
	if err := p.Publish(map[string]vars.Value{"Speed": vars.FloatValue(55), "Gear": vars.IntValue(4)}); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	path := filepath.Join(t.TempDir(), "region.bin")
	if err := shm.WriteDump(p.Region, path); err != nil {
		t.Fatalf("WriteDump: %v", err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, "telemetry-capture version "+version) {
		t.Errorf("output = %q", out)
	}

	out, err = execute(t, "version", "--json")
	if err != nil {
		t.Fatalf("version --json: %v", err)
	}
	var info map[string]string
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	if info["version"] != version {
		t.Errorf("version = %q, want %q", info["version"], version)
	}
}

func TestCatalogCmd(t *testing.T) {
	dump := writeTestDump(t)

	out, err := execute(t, "catalog", "--dump", dump)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	for _, want := range []string{"3 variables", "Speed", "m/s", "CarIdxTrackSurface", "TrackLocation[]"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	out, err = execute(t, "catalog", "--dump", dump, "--json")
	if err != nil {
		t.Fatalf("catalog --json: %v", err)
	}
	var result struct {
		Connected bool           `json:"connected"`
		Count     int            `json:"count"`
		Variables []catalogEntry `json:"variables"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if !result.Connected || result.Count != 3 {
		t.Errorf("result = %+v", result)
	}
	// Sorted by name.
	if result.Variables[0].Name != "CarIdxTrackSurface" || result.Variables[0].Count != 64 {
		t.Errorf("first variable = %+v", result.Variables[0])
	}
}

func TestCatalogCmd_MissingRegion(t *testing.T) {
	if _, err := execute(t, "catalog", "--dump", filepath.Join(t.TempDir(), "missing.bin")); err == nil {
		t.Error("expected error for missing dump file")
	}
}

func TestDumpCmd(t *testing.T) {
	src := writeTestDump(t)
	dst := filepath.Join(t.TempDir(), "copy.bin")

	if _, err := execute(t, "dump"); err == nil {
		t.Error("dump without --output succeeded")
	}

	out, err := execute(t, "dump", "--dump", src, "--output", dst)
	if err != nil {
		t.Fatalf("dump: %v", err)
	}
	if !strings.Contains(out, dst) {
		t.Errorf("output = %q", out)
	}

	want, _ := os.ReadFile(src)
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("dump copy differs: %d bytes vs %d", len(got), len(want))
	}
}

func TestRunCmd_RecordsReplay(t *testing.T) {
	dump := writeTestDump(t)
	db := filepath.Join(t.TempDir(), "telemetry.db")
	t.Setenv("TELEMETRY_RECORDER_PATH", db)

	out, err := execute(t, "run", "--dump", dump, "--duration", "300ms", "--stats-interval", "0", "--rate", "50")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out, "Final Statistics") || !strings.Contains(out, "Frames Published:   1") {
		t.Errorf("output = %s", out)
	}

	out, err = execute(t, "sessions", "--json")
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	var result struct {
		Count    int `json:"count"`
		Sessions []struct {
			ID            string
			VariableCount int
			Documents     int
			Samples       int
		} `json:"sessions"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	if result.Count != 1 {
		t.Fatalf("count = %d, want 1", result.Count)
	}
	s := result.Sessions[0]
	if s.VariableCount != 3 || s.Documents != 1 || s.Samples != 1 {
		t.Errorf("session = %+v", s)
	}
}

func TestRunCmd_InvalidRate(t *testing.T) {
	dump := writeTestDump(t)
	if _, err := execute(t, "run", "--dump", dump, "--rate", "0"); err == nil {
		t.Error("run with rate 0 succeeded")
	}
}
