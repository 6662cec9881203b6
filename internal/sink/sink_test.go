package sink

import (
	"context"
	"errors"
	"testing"
	"time"

	telemetrycapture "github.com/e7canasta/telemetry-capture"
	"github.com/e7canasta/telemetry-capture/vars"
)

type recordingSink struct {
	calls   []string
	samples []Sample
	docs    []string
	fail    error
}

func (r *recordingSink) Catalog(sessionID string, cat vars.Catalog) error {
	r.calls = append(r.calls, "catalog")
	return r.fail
}

func (r *recordingSink) SessionDocument(doc *telemetrycapture.SessionDocument) error {
	r.calls = append(r.calls, "document")
	r.docs = append(r.docs, doc.Text)
	return r.fail
}

func (r *recordingSink) Sample(s Sample) error {
	r.calls = append(r.calls, "sample")
	r.samples = append(r.samples, s)
	return r.fail
}

func (r *recordingSink) Disconnected(sessionID string) error {
	r.calls = append(r.calls, "disconnected")
	return r.fail
}

func testCatalog() vars.Catalog {
	return vars.Catalog{
		"Speed":        {Name: "Speed", Type: vars.TypeFloat, Semantic: vars.SemanticFloat, Offset: 0, Count: 1},
		"Gear":         {Name: "Gear", Type: vars.TypeInt, Semantic: vars.SemanticInt, Offset: 4, Count: 1},
		"SessionState": {Name: "SessionState", Type: vars.TypeInt, Semantic: vars.SemanticSessionState, Offset: 8, Count: 1},
	}
}

func testFrame(t *testing.T, cat vars.Catalog, seq uint64, speed float32) *telemetrycapture.Frame {
	t.Helper()
	data := make([]byte, cat.FrameSize())
	for name, v := range map[string]vars.Value{
		"Speed":        vars.FloatValue(speed),
		"Gear":         vars.IntValue(3),
		"SessionState": vars.IntValue(int32(vars.SessionStateRacing)),
	} {
		if err := vars.Put(cat[name], data, v); err != nil {
			t.Fatalf("Put %s: %v", name, err)
		}
	}
	return &telemetrycapture.Frame{Seq: seq, Tick: int32(seq), Data: data, SessionID: "s1", CapturedAt: time.Now()}
}

func catalogEvent(cat vars.Catalog) telemetrycapture.Event {
	return telemetrycapture.Event{Kind: telemetrycapture.EventCatalog, SessionID: "s1", Catalog: cat}
}

func frameEvent(f *telemetrycapture.Frame) telemetrycapture.Event {
	return telemetrycapture.Event{Kind: telemetrycapture.EventFrame, SessionID: f.SessionID, Frame: f}
}

func TestSampler_SelectsConfiguredNames(t *testing.T) {
	cat := testCatalog()
	s := NewSampler([]string{"Speed", "SessionState", "RPM"}, 1)

	missing := s.SetCatalog(cat)
	if len(missing) != 1 || missing[0] != "RPM" {
		t.Errorf("missing = %v, want [RPM]", missing)
	}

	sample, ok, err := s.Sample(testFrame(t, cat, 1, 27.5))
	if err != nil || !ok {
		t.Fatalf("Sample: ok=%v err=%v", ok, err)
	}
	if len(sample.Values) != 2 {
		t.Errorf("values = %v, want 2 entries", sample.Values)
	}
	if sample.Values["Speed"] != float32(27.5) {
		t.Errorf("Speed = %#v", sample.Values["Speed"])
	}
	if sample.Values["SessionState"] != "Racing" {
		t.Errorf("SessionState = %#v", sample.Values["SessionState"])
	}
}

func TestSampler_AllVariablesWhenUnconfigured(t *testing.T) {
	cat := testCatalog()
	s := NewSampler(nil, 0)
	s.SetCatalog(cat)

	if got := len(s.Selected()); got != len(cat) {
		t.Errorf("selected %d variables, want %d", got, len(cat))
	}
}

func TestSampler_Every(t *testing.T) {
	cat := testCatalog()
	s := NewSampler(nil, 3)
	s.SetCatalog(cat)

	var kept []uint64
	for seq := uint64(1); seq <= 7; seq++ {
		sample, ok, err := s.Sample(testFrame(t, cat, seq, 1))
		if err != nil {
			t.Fatalf("Sample: %v", err)
		}
		if ok {
			kept = append(kept, sample.Seq)
		}
	}
	want := []uint64{1, 4, 7}
	if len(kept) != len(want) {
		t.Fatalf("kept %v, want %v", kept, want)
	}
	for i := range want {
		if kept[i] != want[i] {
			t.Errorf("kept %v, want %v", kept, want)
		}
	}
}

func TestSampler_NoCatalog(t *testing.T) {
	s := NewSampler(nil, 1)
	if _, _, err := s.Sample(&telemetrycapture.Frame{}); !errors.Is(err, ErrNoCatalog) {
		t.Errorf("Sample before catalog = %v, want ErrNoCatalog", err)
	}
}

func TestSampler_PartialFrame(t *testing.T) {
	cat := testCatalog()
	s := NewSampler(nil, 1)
	s.SetCatalog(cat)

	f := testFrame(t, cat, 1, 5)
	f.Data = f.Data[:4]

	sample, ok, err := s.Sample(f)
	if !ok {
		t.Fatal("partial frame skipped")
	}
	if !errors.Is(err, vars.ErrOutOfBounds) {
		t.Errorf("err = %v, want ErrOutOfBounds", err)
	}
	if _, found := sample.Values["Speed"]; !found || len(sample.Values) != 1 {
		t.Errorf("values = %v, want only Speed", sample.Values)
	}
}

func TestSampler_SkipsEndMarkers(t *testing.T) {
	cat := testCatalog()
	cat["Marker"] = vars.Descriptor{Name: "Marker", Type: vars.TypeETCount, Semantic: vars.SemanticFloat, Offset: 0, Count: 1}
	s := NewSampler(nil, 1)
	s.SetCatalog(cat)

	if got := len(s.Selected()); got != 3 {
		t.Errorf("selected %d variables, want 3", got)
	}
	sample, ok, err := s.Sample(testFrame(t, cat, 1, 12))
	if err != nil || !ok {
		t.Fatalf("Sample: ok=%v err=%v", ok, err)
	}
	if _, found := sample.Values["Marker"]; found {
		t.Errorf("end marker sampled: %v", sample.Values)
	}
}

func TestSampler_KeepsArrayWithUnknownElement(t *testing.T) {
	surfaces := vars.Descriptor{Name: "CarIdxTrackSurface", Type: vars.TypeInt, Semantic: vars.SemanticTrackLocation, Offset: 0, Count: 3}
	speed := vars.Descriptor{Name: "Speed", Type: vars.TypeFloat, Semantic: vars.SemanticFloat, Offset: 12, Count: 1}
	cat := vars.Catalog{surfaces.Name: surfaces, speed.Name: speed}

	data := make([]byte, cat.FrameSize())
	if err := vars.Put(surfaces, data, vars.ArrayValue(vars.IntValue(3), vars.IntValue(99), vars.IntValue(1))); err != nil {
		t.Fatal(err)
	}
	if err := vars.Put(speed, data, vars.FloatValue(42.5)); err != nil {
		t.Fatal(err)
	}

	s := NewSampler(nil, 1)
	s.SetCatalog(cat)
	sample, ok, err := s.Sample(&telemetrycapture.Frame{Seq: 1, Data: data, SessionID: "s1"})
	if !ok {
		t.Fatal("frame skipped")
	}
	if !errors.Is(err, vars.ErrTypeMismatch) {
		t.Errorf("err = %v, want ErrTypeMismatch", err)
	}
	got, _ := sample.Values["CarIdxTrackSurface"].([]string)
	want := []string{"OnTrack", "Unknown(99)", "InPitStall"}
	if len(got) != len(want) {
		t.Fatalf("CarIdxTrackSurface = %#v, want %v", sample.Values["CarIdxTrackSurface"], want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("element %d = %q, want %q", i, got[i], want[i])
		}
	}
	if sample.Values["Speed"] != float32(42.5) {
		t.Errorf("Speed = %#v", sample.Values["Speed"])
	}
}

func TestFanout_DeliversInOrder(t *testing.T) {
	cat := testCatalog()
	fan := NewFanout(NewSampler([]string{"Speed"}, 1))
	defer fan.Close()

	rec := &recordingSink{}
	if err := fan.Subscribe("rec", rec); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	fan.Deliver(catalogEvent(cat))
	fan.Deliver(telemetrycapture.Event{
		Kind:      telemetrycapture.EventSessionDocument,
		SessionID: "s1",
		Document:  &telemetrycapture.SessionDocument{Revision: 1, Text: "---\n"},
	})
	fan.Deliver(frameEvent(testFrame(t, cat, 1, 12)))
	fan.Deliver(telemetrycapture.Event{Kind: telemetrycapture.EventDisconnected, SessionID: "s1"})

	want := []string{"catalog", "document", "sample", "disconnected"}
	if len(rec.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", rec.calls, want)
	}
	for i := range want {
		if rec.calls[i] != want[i] {
			t.Errorf("calls = %v, want %v", rec.calls, want)
		}
	}
	if rec.samples[0].Values["Speed"] != float32(12) {
		t.Errorf("sample = %v", rec.samples[0].Values)
	}
	if fan.TotalDelivered() != 4 {
		t.Errorf("TotalDelivered = %d, want 4", fan.TotalDelivered())
	}
}

func TestFanout_FailingSinkDoesNotStopOthers(t *testing.T) {
	cat := testCatalog()
	fan := NewFanout(nil)
	defer fan.Close()

	bad := &recordingSink{fail: errors.New("broker down")}
	good := &recordingSink{}
	fan.Subscribe("bad", bad)
	fan.Subscribe("good", good)

	fan.Deliver(catalogEvent(cat))
	fan.Deliver(frameEvent(testFrame(t, cat, 1, 1)))

	if len(good.calls) != 2 {
		t.Errorf("good sink calls = %v", good.calls)
	}

	badStats, err := fan.Stats("bad")
	if err != nil {
		t.Fatalf("Stats(bad): %v", err)
	}
	if badStats.Errors != 2 || badStats.Delivered != 0 {
		t.Errorf("bad stats = %+v, want 2 errors", badStats)
	}
	goodStats, _ := fan.Stats("good")
	if goodStats.Delivered != 2 || goodStats.Errors != 0 {
		t.Errorf("good stats = %+v, want 2 delivered", goodStats)
	}
}

func TestFanout_Registration(t *testing.T) {
	fan := NewFanout(nil)

	if err := fan.Subscribe("a", &recordingSink{}); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if err := fan.Subscribe("a", &recordingSink{}); !errors.Is(err, ErrSinkExists) {
		t.Errorf("duplicate Subscribe = %v, want ErrSinkExists", err)
	}
	if err := fan.Subscribe("nil", nil); !errors.Is(err, ErrNilSink) {
		t.Errorf("nil Subscribe = %v, want ErrNilSink", err)
	}
	if err := fan.Unsubscribe("missing"); !errors.Is(err, ErrSinkNotFound) {
		t.Errorf("Unsubscribe(missing) = %v, want ErrSinkNotFound", err)
	}
	if err := fan.Unsubscribe("a"); err != nil {
		t.Errorf("Unsubscribe(a): %v", err)
	}
	if _, err := fan.Stats("a"); !errors.Is(err, ErrSinkNotFound) {
		t.Errorf("Stats after Unsubscribe = %v, want ErrSinkNotFound", err)
	}

	fan.Close()
	if err := fan.Subscribe("b", &recordingSink{}); !errors.Is(err, ErrFanoutClosed) {
		t.Errorf("Subscribe after Close = %v, want ErrFanoutClosed", err)
	}
}

func TestFanout_RunUntilChannelCloses(t *testing.T) {
	cat := testCatalog()
	fan := NewFanout(nil)
	rec := &recordingSink{}
	fan.Subscribe("rec", rec)

	events := make(chan telemetrycapture.Event, 3)
	events <- catalogEvent(cat)
	events <- frameEvent(testFrame(t, cat, 1, 1))
	events <- frameEvent(testFrame(t, cat, 2, 2))
	close(events)

	if err := fan.Run(context.Background(), events); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(rec.samples) != 2 {
		t.Errorf("samples = %d, want 2", len(rec.samples))
	}
}

func TestFanout_RunCancelled(t *testing.T) {
	fan := NewFanout(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := fan.Run(ctx, make(chan telemetrycapture.Event)); !errors.Is(err, context.Canceled) {
		t.Errorf("Run = %v, want context.Canceled", err)
	}
}
