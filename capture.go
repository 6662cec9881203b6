package telemetrycapture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/e7canasta/telemetry-capture/internal/cadence"
	"github.com/e7canasta/telemetry-capture/internal/header"
	"github.com/e7canasta/telemetry-capture/internal/reconnect"
	"github.com/e7canasta/telemetry-capture/internal/shm"
	"github.com/e7canasta/telemetry-capture/vars"
)

const (
	// MaxUpdateRate is the highest accepted UpdateRate.
	MaxUpdateRate = 100.0

	// DefaultChannelCapacity is the event channel bound when Config leaves it zero.
	DefaultChannelCapacity = 4

	stopTimeout   = 3 * time.Second
	maxWaitSlice  = 200 * time.Millisecond
	cadenceWindow = 120
)

// UpdateInterval converts a rate in updates per second into the poll
// interval 100s / round(rate*100).
func UpdateInterval(rate float64) (time.Duration, error) {
	if math.IsNaN(rate) || rate <= 0 || rate > MaxUpdateRate {
		return 0, fmt.Errorf("telemetry-capture: invalid update rate %v (must be > 0 and <= %v)", rate, MaxUpdateRate)
	}
	steps := math.Round(rate * 100)
	if steps < 1 {
		return 0, fmt.Errorf("telemetry-capture: update rate %v rounds to zero", rate)
	}
	return 100 * time.Second / time.Duration(steps), nil
}

type opener func() (*shm.Connector, error)

var _ TelemetryProvider = (*Capture)(nil)

// Capture implements TelemetryProvider over the producer's shared region.
type Capture struct {
	open     opener
	capacity int
	source   string

	updateRate atomic.Uint64 // math.Float64bits
	interval   atomic.Int64  // time.Duration

	mu      sync.RWMutex
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started time.Time

	// Statistics (atomic for thread-safety)
	framesPublished    uint64
	documentsPublished uint64
	catalogsPublished  uint64
	disconnects        uint64
	bytesCopied        uint64
	malformedEntries   uint64
	errorsUnavailable  uint64
	errorsLayout       uint64
	errorsUnknown      uint64
	lastTick           atomic.Int32
	sessionRevision    atomic.Int32
	producerVersion    atomic.Int32
	producerTickRate   atomic.Int32
	lastFrameAt        atomic.Int64 // unix nanoseconds
	connected          atomic.Bool
	sessionID          atomic.Value // string
	seq                uint64       // owned by the acquisition goroutine

	cadence *cadence.Window

	reconnectState *reconnect.State
	reconnectCfg   reconnect.Config
}

// NewCapture creates a capture with fail-fast validation
//
// Validates configuration at construction time:
//   - UpdateRate must be in (0, 100]
//   - ChannelCapacity, ReconnectDelay and MaxReconnectAttempts must not be negative
//   - DumpFile, when set, must exist
//
// The producer does not need to be running yet.
func NewCapture(cfg Config) (*Capture, error) {
	if cfg.DumpFile != "" {
		if _, err := os.Stat(cfg.DumpFile); err != nil {
			return nil, fmt.Errorf("telemetry-capture: dump file: %w", err)
		}
		path := cfg.DumpFile
		return newCapture(cfg, "dump:"+path, func() (*shm.Connector, error) {
			region, err := shm.OpenDump(path)
			if err != nil {
				return nil, err
			}
			return shm.NewConnector(region), nil
		})
	}

	names := shm.DefaultNames()
	if cfg.MappingName != "" {
		names.Mapping = cfg.MappingName
	}
	if cfg.EventName != "" {
		names.Event = cfg.EventName
	}
	return newCapture(cfg, names.Mapping, func() (*shm.Connector, error) {
		return shm.Open(names)
	})
}

func newCapture(cfg Config, source string, open opener) (*Capture, error) {
	interval, err := UpdateInterval(cfg.UpdateRate)
	if err != nil {
		return nil, err
	}
	if cfg.ChannelCapacity < 0 {
		return nil, fmt.Errorf("telemetry-capture: invalid channel capacity %d", cfg.ChannelCapacity)
	}
	if cfg.ReconnectDelay < 0 {
		return nil, fmt.Errorf("telemetry-capture: invalid reconnect delay %v", cfg.ReconnectDelay)
	}
	if cfg.MaxReconnectAttempts < 0 {
		return nil, fmt.Errorf("telemetry-capture: invalid max reconnect attempts %d", cfg.MaxReconnectAttempts)
	}

	capacity := cfg.ChannelCapacity
	if capacity == 0 {
		capacity = DefaultChannelCapacity
	}

	reconnectCfg := reconnect.DefaultConfig()
	if cfg.ReconnectDelay > 0 {
		reconnectCfg.RetryDelay = cfg.ReconnectDelay
		reconnectCfg.MaxRetryDelay = cfg.ReconnectDelay
	}
	reconnectCfg.MaxRetries = cfg.MaxReconnectAttempts

	c := &Capture{
		open:         open,
		capacity:     capacity,
		source:       source,
		cadence:      cadence.NewWindow(cadenceWindow),
		reconnectCfg: reconnectCfg,
		reconnectState: &reconnect.State{
			Reconnects: new(uint32),
		},
	}
	c.updateRate.Store(math.Float64bits(cfg.UpdateRate))
	c.interval.Store(int64(interval))
	c.sessionID.Store("")

	slog.Info("telemetry-capture: capture created",
		"source", source,
		"update_rate", cfg.UpdateRate,
		"interval", interval,
		"channel_capacity", capacity,
		"reconnect_delay", reconnectCfg.RetryDelay,
	)
	return c, nil
}

// Start launches the acquisition goroutine and returns the event channel.
//
// The channel closes when ctx is cancelled, Stop is called, or the capture
// gives up reconnecting.
func (c *Capture) Start(ctx context.Context) (<-chan Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		return nil, fmt.Errorf("telemetry-capture: capture already started")
	}

	c.ctx, c.cancel = context.WithCancel(ctx)
	c.started = time.Now()
	events := make(chan Event, c.capacity)

	c.wg.Add(1)
	go c.run(c.ctx, events)

	slog.Info("telemetry-capture: capture started", "source", c.source)
	return events, nil
}

// Stop cancels the capture and waits for the acquisition goroutine.
//
// Idempotent - safe to call multiple times.
func (c *Capture) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel == nil {
		slog.Debug("telemetry-capture: capture not started, nothing to stop")
		return nil
	}

	slog.Info("telemetry-capture: stopping capture")
	c.cancel()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
		slog.Debug("telemetry-capture: acquisition goroutine stopped cleanly")
	case <-time.After(stopTimeout):
		err = fmt.Errorf("telemetry-capture: stop timeout exceeded (%v)", stopTimeout)
		slog.Warn("telemetry-capture: stop timeout exceeded, acquisition goroutine still running")
	}

	slog.Info("telemetry-capture: capture stopped",
		"frames_published", atomic.LoadUint64(&c.framesPublished),
		"reconnects", atomic.LoadUint32(c.reconnectState.Reconnects),
		"uptime", time.Since(c.started),
	)

	c.cancel = nil
	c.ctx = nil
	return err
}

// SetUpdateRate changes the poll rate without restarting the capture.
func (c *Capture) SetUpdateRate(rate float64) error {
	interval, err := UpdateInterval(rate)
	if err != nil {
		return err
	}
	old := math.Float64frombits(c.updateRate.Swap(math.Float64bits(rate)))
	c.interval.Store(int64(interval))
	slog.Info("telemetry-capture: update rate changed",
		"old_rate", old,
		"new_rate", rate,
		"interval", interval,
	)
	return nil
}

// Stats returns current capture statistics.
//
// Thread-safe - uses atomic operations for counters.
func (c *Capture) Stats() CaptureStats {
	var latencyMS int64
	if last := c.lastFrameAt.Load(); last != 0 {
		latencyMS = time.Since(time.Unix(0, last)).Milliseconds()
	}
	delivery := c.cadence.Stats()

	return CaptureStats{
		FramesPublished:    atomic.LoadUint64(&c.framesPublished),
		DocumentsPublished: atomic.LoadUint64(&c.documentsPublished),
		CatalogsPublished:  atomic.LoadUint64(&c.catalogsPublished),
		Disconnects:        atomic.LoadUint64(&c.disconnects),
		Reconnects:         atomic.LoadUint32(c.reconnectState.Reconnects),
		BytesCopied:        atomic.LoadUint64(&c.bytesCopied),
		MalformedEntries:   atomic.LoadUint64(&c.malformedEntries),
		LastTick:           c.lastTick.Load(),
		SessionRevision:    c.sessionRevision.Load(),
		SessionID:          c.sessionID.Load().(string),
		IsConnected:        c.connected.Load(),
		ProducerVersion:    c.producerVersion.Load(),
		ProducerTickRate:   c.producerTickRate.Load(),
		UpdateRate:         math.Float64frombits(c.updateRate.Load()),
		Interval:           time.Duration(c.interval.Load()),
		DeliveryRate:       delivery.RateMean,
		DeliveryStable:     delivery.IsStable,
		LatencyMS:          latencyMS,
		ErrorsUnavailable:  atomic.LoadUint64(&c.errorsUnavailable),
		ErrorsLayout:       atomic.LoadUint64(&c.errorsLayout),
		ErrorsUnknown:      atomic.LoadUint64(&c.errorsUnknown),
	}
}

// run supervises sessions until the consumer goes away or reconnection
// gives up, then closes the event channel.
func (c *Capture) run(ctx context.Context, events chan<- Event) {
	defer c.wg.Done()
	defer close(events)

	err := reconnect.Supervise(ctx, func(ctx context.Context) error {
		return c.session(ctx, events)
	}, c.reconnectCfg, c.reconnectState)

	switch {
	case err == nil, errors.Is(err, ErrConsumerGone), errors.Is(err, context.Canceled):
		slog.Debug("telemetry-capture: acquisition loop finished", "reason", err)
	default:
		slog.Error("telemetry-capture: acquisition stopped after reconnection failure",
			"error", err,
			"source", c.source,
			"uptime", time.Since(c.started),
			"frames_published", atomic.LoadUint64(&c.framesPublished),
			"reconnects", atomic.LoadUint32(c.reconnectState.Reconnects),
		)
	}
}

// session runs one connection: open the region, poll it until the
// producer disconnects, then release it.
func (c *Capture) session(ctx context.Context, events chan<- Event) error {
	conn, err := c.open()
	if err != nil {
		c.countError(err)
		slog.Debug("telemetry-capture: producer region not available", "error", err)
		return err
	}
	defer func() {
		if err := conn.Close(); err != nil {
			slog.Warn("telemetry-capture: failed to release region", "error", err)
		}
	}()

	sessionID := uuid.NewString()
	c.sessionID.Store(sessionID)
	c.connected.Store(true)
	c.cadence.Reset()
	defer func() {
		c.connected.Store(false)
		c.sessionID.Store("")
	}()
	reconnect.Reset(c.reconnectState)

	slog.Info("telemetry-capture: attached to producer region",
		"session_id", sessionID,
		"source", c.source,
		"region_bytes", conn.Region().Size(),
	)

	err = c.poll(ctx, conn, sessionID, events)
	if errors.Is(err, ErrConsumerGone) {
		return reconnect.Permanent(err)
	}
	if err != nil {
		c.countError(err)
		slog.Warn("telemetry-capture: session ended with error",
			"session_id", sessionID,
			"error", err,
			"category", ClassifyError(err).String(),
		)
	}
	return err
}

// poll is the per-session state machine. It returns nil after publishing
// Disconnected, ErrConsumerGone when the consumer is gone, or the error
// that made the region unreadable.
func (c *Capture) poll(ctx context.Context, conn *shm.Connector, sessionID string, events chan<- Event) error {
	var (
		lastTick     int32
		haveTick     bool
		lastRevision int32
		haveRevision bool
		catalogSent  bool
		lastUpdate   time.Time
	)

	for {
		if ctx.Err() != nil {
			return ErrConsumerGone
		}

		if !conn.IsConnected() {
			slog.Info("telemetry-capture: producer disconnected", "session_id", sessionID)
			if err := c.publish(ctx, events, Event{Kind: EventDisconnected, SessionID: sessionID, At: time.Now()}); err != nil {
				return err
			}
			atomic.AddUint64(&c.disconnects, 1)
			return nil
		}

		interval := time.Duration(c.interval.Load())
		if elapsed := time.Since(lastUpdate); elapsed < interval {
			if _, err := conn.WaitForSignal(min(interval-elapsed, maxWaitSlice)); err != nil {
				return err
			}
			continue
		}

		cb, err := conn.ReadControlBlock()
		if err != nil {
			return fmt.Errorf("%w: %w", errRegionLayout, err)
		}
		lastUpdate = time.Now()
		c.producerVersion.Store(cb.Version)
		c.producerTickRate.Store(cb.TickRate)

		if !catalogSent {
			if err := c.publishCatalog(ctx, conn, cb, sessionID, events); err != nil {
				return err
			}
			catalogSent = true
		}

		if !haveRevision || cb.SessionInfoUpdate != lastRevision {
			if err := c.publishDocument(ctx, conn, cb, sessionID, events); err != nil {
				return err
			}
			lastRevision, haveRevision = cb.SessionInfoUpdate, true
		}

		freshest, _, err := cb.Freshest()
		if err != nil {
			return err
		}
		if !haveTick || freshest.TickCount != lastTick {
			tick, err := c.publishFrame(ctx, conn, cb, sessionID, events)
			if err != nil {
				return err
			}
			lastTick, haveTick = tick, true
		}
	}
}

func (c *Capture) publishCatalog(ctx context.Context, conn *shm.Connector, cb header.ControlBlock, sessionID string, events chan<- Event) error {
	cat, report, err := conn.Catalog(cb)
	if err != nil {
		return fmt.Errorf("%w: %w", errRegionLayout, err)
	}
	atomic.AddUint64(&c.malformedEntries, uint64(report.Malformed))
	atomic.AddUint64(&c.bytesCopied, uint64(report.Records)*vars.DescriptorSize)

	slog.Info("telemetry-capture: variable catalog loaded",
		"session_id", sessionID,
		"variables", len(cat),
		"malformed", report.Malformed,
		"producer_version", cb.Version,
		"tick_rate", cb.TickRate,
	)

	if err := c.publish(ctx, events, Event{Kind: EventCatalog, SessionID: sessionID, At: time.Now(), Catalog: cat}); err != nil {
		return err
	}
	atomic.AddUint64(&c.catalogsPublished, 1)
	return nil
}

func (c *Capture) publishDocument(ctx context.Context, conn *shm.Connector, cb header.ControlBlock, sessionID string, events chan<- Event) error {
	text, err := conn.CopySessionDocument(cb)
	if err != nil {
		return fmt.Errorf("%w: %w", errRegionLayout, err)
	}
	now := time.Now()
	atomic.AddUint64(&c.bytesCopied, uint64(max(cb.SessionInfoLen, 0)))

	slog.Debug("telemetry-capture: session document changed",
		"session_id", sessionID,
		"revision", cb.SessionInfoUpdate,
		"bytes", len(text),
	)

	doc := &SessionDocument{Revision: cb.SessionInfoUpdate, Text: text, CapturedAt: now, SessionID: sessionID}
	if err := c.publish(ctx, events, Event{Kind: EventSessionDocument, SessionID: sessionID, At: now, Document: doc}); err != nil {
		return err
	}
	atomic.AddUint64(&c.documentsPublished, 1)
	c.sessionRevision.Store(cb.SessionInfoUpdate)
	return nil
}

func (c *Capture) publishFrame(ctx context.Context, conn *shm.Connector, cb header.ControlBlock, sessionID string, events chan<- Event) (int32, error) {
	copied, err := conn.CopyFrame(cb)
	if err != nil {
		if errors.Is(err, header.ErrNoBuffers) {
			return 0, err
		}
		return 0, fmt.Errorf("%w: %w", errRegionLayout, err)
	}
	now := time.Now()
	atomic.AddUint64(&c.bytesCopied, uint64(len(copied.Data)))

	c.seq++
	frame := &Frame{
		Seq:        c.seq,
		Tick:       copied.Tick,
		Data:       copied.Data,
		CapturedAt: now,
		SessionID:  sessionID,
	}
	if err := c.publish(ctx, events, Event{Kind: EventFrame, SessionID: sessionID, At: now, Frame: frame}); err != nil {
		return 0, err
	}

	atomic.AddUint64(&c.framesPublished, 1)
	c.lastTick.Store(copied.Tick)
	c.lastFrameAt.Store(now.UnixNano())
	c.cadence.Add(now)
	return copied.Tick, nil
}

// publish blocks until the consumer takes ev or ctx is cancelled.
func (c *Capture) publish(ctx context.Context, events chan<- Event, ev Event) error {
	select {
	case events <- ev:
		return nil
	case <-ctx.Done():
		return ErrConsumerGone
	}
}

func (c *Capture) countError(err error) {
	switch ClassifyError(err) {
	case ErrCategoryUnavailable:
		atomic.AddUint64(&c.errorsUnavailable, 1)
	case ErrCategoryLayout:
		atomic.AddUint64(&c.errorsLayout, 1)
	case ErrCategoryUnknown:
		atomic.AddUint64(&c.errorsUnknown, 1)
	}
}
