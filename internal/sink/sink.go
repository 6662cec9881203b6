// Package sink delivers capture events to downstream consumers.
//
// A Fanout drains the capture's event channel, turns frames into Samples
// with a Sampler, and hands every event to each registered Sink in
// registration order. A failing sink is logged and counted; delivery to the
// others continues.
package sink

import (
	"errors"
	"time"

	telemetrycapture "github.com/e7canasta/telemetry-capture"
	"github.com/e7canasta/telemetry-capture/vars"
)

// Sink receives capture events. Calls are made from a single goroutine.
type Sink interface {
	Catalog(sessionID string, cat vars.Catalog) error
	SessionDocument(doc *telemetrycapture.SessionDocument) error
	Sample(s Sample) error
	Disconnected(sessionID string) error
}

// Sample is the rendered subset of one frame.
type Sample struct {
	Seq        uint64
	Tick       int32
	SessionID  string
	CapturedAt time.Time
	Values     map[string]any
}

// SinkStats tracks delivery to one sink.
type SinkStats struct {
	Delivered uint64
	Errors    uint64
}

var (
	ErrFanoutClosed = errors.New("sink: fanout closed")
	ErrSinkExists   = errors.New("sink: sink already registered")
	ErrSinkNotFound = errors.New("sink: sink not found")
	ErrNilSink      = errors.New("sink: nil sink")
	ErrNoCatalog    = errors.New("sink: frame received before catalog")
)
