package sink

import (
	"errors"
	"log/slog"

	telemetrycapture "github.com/e7canasta/telemetry-capture"
	"github.com/e7canasta/telemetry-capture/vars"
)

// Sampler renders a fixed selection of variables from every Nth frame.
type Sampler struct {
	names []string
	every uint64

	selected []vars.Descriptor
	ready    bool
	frames   uint64
}

// NewSampler selects names, or the whole catalog when names is empty.
// every < 1 is treated as 1.
func NewSampler(names []string, every int) *Sampler {
	return &Sampler{
		names: append([]string(nil), names...),
		every: uint64(max(every, 1)),
	}
}

// SetCatalog resolves the selection against a new session's catalog and
// returns the configured names it does not contain.
func (s *Sampler) SetCatalog(cat vars.Catalog) []string {
	s.selected = s.selected[:0]
	s.frames = 0
	s.ready = true

	if len(s.names) == 0 {
		for _, name := range cat.Names() {
			if d := cat[name]; d.Type != vars.TypeETCount {
				s.selected = append(s.selected, d)
			}
		}
		return nil
	}

	var missing []string
	for _, name := range s.names {
		d, ok := cat.Lookup(name)
		if !ok {
			missing = append(missing, name)
			continue
		}
		s.selected = append(s.selected, d)
	}
	if len(missing) > 0 {
		slog.Warn("sink: sampled variables not in catalog", "missing", missing)
	}
	return missing
}

// Selected returns the descriptors currently sampled.
func (s *Sampler) Selected() []vars.Descriptor {
	return append([]vars.Descriptor(nil), s.selected...)
}

// Sample renders f. ok is false when f is skipped by the every-Nth rule.
// Variables that fail to decode are left out of Values and reported in
// the joined error. Enum arrays with some undecodable elements are kept.
func (s *Sampler) Sample(f *telemetrycapture.Frame) (sample Sample, ok bool, err error) {
	if !s.ready {
		return Sample{}, false, ErrNoCatalog
	}
	s.frames++
	if (s.frames-1)%s.every != 0 {
		return Sample{}, false, nil
	}

	sample = Sample{
		Seq:        f.Seq,
		Tick:       f.Tick,
		SessionID:  f.SessionID,
		CapturedAt: f.CapturedAt,
		Values:     make(map[string]any, len(s.selected)),
	}
	var errs []error
	for _, d := range s.selected {
		v, err := vars.Generic(d, f.Data)
		if err != nil {
			errs = append(errs, err)
		}
		if v != nil {
			sample.Values[d.Name] = v
		}
	}
	return sample, true, errors.Join(errs...)
}
