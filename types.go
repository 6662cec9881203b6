package telemetrycapture

import (
	"errors"
	"time"

	"github.com/e7canasta/telemetry-capture/vars"
)

// EventKind identifies the payload of an Event.
type EventKind int

const (
	// EventFrame carries a new data buffer in Event.Frame.
	EventFrame EventKind = iota
	// EventSessionDocument carries new session document text in Event.Document.
	EventSessionDocument
	// EventCatalog carries the session's variable catalog in Event.Catalog.
	EventCatalog
	// EventDisconnected reports that the producer ended its session.
	EventDisconnected
)

func (k EventKind) String() string {
	switch k {
	case EventFrame:
		return "frame"
	case EventSessionDocument:
		return "session_document"
	case EventCatalog:
		return "catalog"
	case EventDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Event is one item on the capture channel. Exactly one payload field is
// set, matching Kind; EventDisconnected has none.
type Event struct {
	Kind      EventKind
	SessionID string
	At        time.Time

	Frame    *Frame
	Document *SessionDocument
	Catalog  vars.Catalog
}

// Frame is an owned copy of one producer data buffer.
type Frame struct {
	// Seq counts frames published by this capture, starting at 1
	Seq uint64
	// Tick is the producer's tick counter for the buffer
	Tick int32
	// Data is the raw buffer contents
	Data []byte
	// CapturedAt is when the buffer was copied
	CapturedAt time.Time
	// SessionID identifies the connection session
	SessionID string
}

// Value decodes one variable from the frame.
func (f *Frame) Value(d vars.Descriptor) (vars.Value, error) {
	return vars.Extract(d, f.Data)
}

// Generic decodes every variable in cat into its loosely typed form.
// Variables that fail to decode are left out and reported in the joined
// error; the rest of the frame is still returned. End markers are omitted.
func (f *Frame) Generic(cat vars.Catalog) (map[string]any, error) {
	out := make(map[string]any, len(cat))
	var errs []error
	for name, d := range cat {
		v, err := vars.Generic(d, f.Data)
		if err != nil {
			errs = append(errs, err)
		}
		if v != nil {
			out[name] = v
		}
	}
	return out, errors.Join(errs...)
}

// SessionDocument is the producer's session description text.
type SessionDocument struct {
	// Revision is the producer's document update counter
	Revision int32
	// Text is the raw document, handed over verbatim
	Text string
	// CapturedAt is when the document was copied
	CapturedAt time.Time
	// SessionID identifies the connection session
	SessionID string
}

// Config contains configuration for a Capture.
type Config struct {
	// UpdateRate is the maximum number of polls per second (0 < rate <= 100)
	UpdateRate float64
	// ChannelCapacity bounds the event channel (default 4)
	ChannelCapacity int
	// ReconnectDelay is the wait before every session after the first (default 10s)
	ReconnectDelay time.Duration
	// MaxReconnectAttempts stops the capture after this many consecutive
	// failed sessions (0 = retry forever)
	MaxReconnectAttempts int
	// MappingName overrides the producer's shared mapping name
	MappingName string
	// EventName overrides the producer's data-ready event name
	EventName string
	// DumpFile replays a recorded region file instead of the live region
	DumpFile string
}

// CaptureStats contains current capture statistics.
type CaptureStats struct {
	// FramesPublished is the total number of frames delivered
	FramesPublished uint64
	// DocumentsPublished is the total number of session documents delivered
	DocumentsPublished uint64
	// CatalogsPublished is the number of sessions that delivered a catalog
	CatalogsPublished uint64
	// Disconnects is the number of Disconnected events delivered
	Disconnects uint64
	// Reconnects is the number of session restarts
	Reconnects uint32
	// BytesCopied is the total bytes copied out of the region
	BytesCopied uint64
	// MalformedEntries is the number of catalog records decoded with defaults
	MalformedEntries uint64

	// LastTick is the tick of the last frame delivered
	LastTick int32
	// SessionRevision is the revision of the last document delivered
	SessionRevision int32
	// SessionID identifies the current session, empty when not connected
	SessionID string
	// IsConnected is true while a session is attached to the region
	IsConnected bool

	// ProducerVersion is the control block's layout version
	ProducerVersion int32
	// ProducerTickRate is the producer's advertised ticks per second
	ProducerTickRate int32

	// UpdateRate is the configured polls per second
	UpdateRate float64
	// Interval is the poll interval derived from UpdateRate
	Interval time.Duration
	// DeliveryRate is the measured frames per second over recent frames
	DeliveryRate float64
	// DeliveryStable is true when recent frame spacing is regular
	DeliveryStable bool
	// LatencyMS is the time since the last frame in milliseconds
	LatencyMS int64

	// ErrorsUnavailable counts sessions that could not open the region
	ErrorsUnavailable uint64
	// ErrorsLayout counts sessions that ended on an unreadable region layout
	ErrorsLayout uint64
	// ErrorsUnknown counts sessions that ended on any other error
	ErrorsUnknown uint64
}
