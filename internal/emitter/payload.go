package emitter

import (
	"time"

	"github.com/e7canasta/telemetry-capture/internal/sink"
	"github.com/e7canasta/telemetry-capture/vars"
)

// FramePayload is published on <prefix>/frame.
type FramePayload struct {
	Seq        uint64         `msgpack:"seq"`
	Tick       int32          `msgpack:"tick"`
	SessionID  string         `msgpack:"session_id"`
	CapturedAt time.Time      `msgpack:"captured_at"`
	Values     map[string]any `msgpack:"values"`
}

// CatalogEntry describes one variable on <prefix>/catalog.
type CatalogEntry struct {
	Name        string `msgpack:"name"`
	Description string `msgpack:"description"`
	Unit        string `msgpack:"unit"`
	Type        string `msgpack:"type"`
	Semantic    string `msgpack:"semantic"`
	Offset      int    `msgpack:"offset"`
	Count       int    `msgpack:"count"`
	CountAsTime bool   `msgpack:"count_as_time"`
}

// CatalogPayload is published, retained, on <prefix>/catalog.
type CatalogPayload struct {
	SessionID string         `msgpack:"session_id"`
	Variables []CatalogEntry `msgpack:"variables"`
}

func newFramePayload(s sink.Sample) FramePayload {
	return FramePayload{
		Seq:        s.Seq,
		Tick:       s.Tick,
		SessionID:  s.SessionID,
		CapturedAt: s.CapturedAt,
		Values:     s.Values,
	}
}

// newCatalogPayload lists variables sorted by name.
func newCatalogPayload(sessionID string, cat vars.Catalog) CatalogPayload {
	p := CatalogPayload{SessionID: sessionID, Variables: make([]CatalogEntry, 0, len(cat))}
	for _, name := range cat.Names() {
		d := cat[name]
		p.Variables = append(p.Variables, CatalogEntry{
			Name:        d.Name,
			Description: d.Description,
			Unit:        d.Unit,
			Type:        d.Type.String(),
			Semantic:    d.Semantic.String(),
			Offset:      d.Offset,
			Count:       d.Count,
			CountAsTime: d.CountAsTime,
		})
	}
	return p
}
