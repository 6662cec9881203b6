package sink

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	telemetrycapture "github.com/e7canasta/telemetry-capture"
)

type sinkHolder struct {
	id    string
	sink  Sink
	stats SinkStats
}

// Fanout distributes events to registered sinks.
type Fanout struct {
	sampler *Sampler

	mu             sync.RWMutex
	sinks          []*sinkHolder
	totalDelivered uint64
	sampleErrors   uint64
	closed         bool
}

func NewFanout(sampler *Sampler) *Fanout {
	if sampler == nil {
		sampler = NewSampler(nil, 1)
	}
	return &Fanout{sampler: sampler}
}

// Subscribe registers s under id.
func (f *Fanout) Subscribe(id string, s Sink) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrFanoutClosed
	}
	if s == nil {
		return ErrNilSink
	}
	for _, h := range f.sinks {
		if h.id == id {
			return ErrSinkExists
		}
	}

	f.sinks = append(f.sinks, &sinkHolder{id: id, sink: s})
	return nil
}

func (f *Fanout) Unsubscribe(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, h := range f.sinks {
		if h.id == id {
			f.sinks = append(f.sinks[:i], f.sinks[i+1:]...)
			return nil
		}
	}
	return ErrSinkNotFound
}

// Deliver hands ev to every sink. It must be called from one goroutine.
func (f *Fanout) Deliver(ev telemetrycapture.Event) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.closed {
		return
	}

	var deliver func(Sink) error
	switch ev.Kind {
	case telemetrycapture.EventCatalog:
		f.sampler.SetCatalog(ev.Catalog)
		deliver = func(s Sink) error { return s.Catalog(ev.SessionID, ev.Catalog) }

	case telemetrycapture.EventSessionDocument:
		deliver = func(s Sink) error { return s.SessionDocument(ev.Document) }

	case telemetrycapture.EventFrame:
		sample, ok, err := f.sampler.Sample(ev.Frame)
		if err != nil {
			atomic.AddUint64(&f.sampleErrors, 1)
			slog.Warn("sink: frame sampled with errors", "tick", ev.Frame.Tick, "error", err)
		}
		if !ok {
			return
		}
		deliver = func(s Sink) error { return s.Sample(sample) }

	case telemetrycapture.EventDisconnected:
		deliver = func(s Sink) error { return s.Disconnected(ev.SessionID) }

	default:
		return
	}

	atomic.AddUint64(&f.totalDelivered, 1)
	for _, h := range f.sinks {
		if err := deliver(h.sink); err != nil {
			atomic.AddUint64(&h.stats.Errors, 1)
			slog.Warn("sink: delivery failed",
				"sink", h.id,
				"event", ev.Kind.String(),
				"error", err,
			)
			continue
		}
		atomic.AddUint64(&h.stats.Delivered, 1)
	}
}

// Run delivers events until the channel closes or ctx is cancelled.
func (f *Fanout) Run(ctx context.Context, events <-chan telemetrycapture.Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			f.Deliver(ev)
		}
	}
}

// Stats returns statistics for a sink.
func (f *Fanout) Stats(id string) (*SinkStats, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for _, h := range f.sinks {
		if h.id == id {
			return &SinkStats{
				Delivered: atomic.LoadUint64(&h.stats.Delivered),
				Errors:    atomic.LoadUint64(&h.stats.Errors),
			}, nil
		}
	}
	return nil, ErrSinkNotFound
}

// TotalDelivered counts events handed to the sinks.
func (f *Fanout) TotalDelivered() uint64 {
	return atomic.LoadUint64(&f.totalDelivered)
}

// SampleErrors counts frames that rendered with decode errors.
func (f *Fanout) SampleErrors() uint64 {
	return atomic.LoadUint64(&f.sampleErrors)
}

// Close stops delivery and drops all sinks. It does not close them.
func (f *Fanout) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true
	f.sinks = nil
}
