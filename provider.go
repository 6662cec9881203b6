package telemetrycapture

import "context"

// TelemetryProvider defines the contract for telemetry acquisition
//
// Implementations must guarantee:
//   - Start() returns immediately (non-blocking)
//   - The event channel closes only after Stop() or context cancellation
//   - Events are never dropped; delivery blocks when the channel is full
//   - Stop() is idempotent (safe to call multiple times)
//   - Stats() is thread-safe (can be called from any goroutine)
//   - SetUpdateRate() does not require restart
type TelemetryProvider interface {
	// Start attaches to the producer in the background and returns a
	// read-only channel of events.
	//
	// If the producer is not running yet, Start still succeeds; the capture
	// keeps retrying until it appears.
	//
	// Returns an error if the capture is already running.
	Start(ctx context.Context) (<-chan Event, error)

	// Stop cancels the capture, waits up to 3 seconds for the acquisition
	// goroutine to finish and releases the region.
	Stop() error

	// Stats returns current capture statistics.
	Stats() CaptureStats

	// SetUpdateRate changes the poll rate. It takes effect on the next poll.
	SetUpdateRate(rate float64) error
}
