package telemetrycapture

import (
	"errors"

	"github.com/e7canasta/telemetry-capture/internal/header"
	"github.com/e7canasta/telemetry-capture/internal/shm"
	"github.com/e7canasta/telemetry-capture/vars"
)

// ErrConsumerGone is returned when the consumer stopped receiving events.
// It ends the capture.
var ErrConsumerGone = errors.New("telemetry-capture: consumer gone")

// Re-exported sentinels so callers need not import internal packages.
var (
	ErrRegionUnavailable = shm.ErrRegionUnavailable
	ErrNoBuffers         = header.ErrNoBuffers
)

// ErrorCategory classifies why a session ended.
type ErrorCategory int

const (
	// ErrCategoryUnavailable means the producer's region could not be opened
	ErrCategoryUnavailable ErrorCategory = iota
	// ErrCategoryLayout means the region's contents could not be read as advertised
	ErrCategoryLayout
	// ErrCategoryConsumer means the consumer went away
	ErrCategoryConsumer
	// ErrCategoryUnknown covers everything else
	ErrCategoryUnknown
)

func (e ErrorCategory) String() string {
	switch e {
	case ErrCategoryUnavailable:
		return "unavailable"
	case ErrCategoryLayout:
		return "layout"
	case ErrCategoryConsumer:
		return "consumer"
	default:
		return "unknown"
	}
}

// ClassifyError categorizes an error that ended a session.
func ClassifyError(err error) ErrorCategory {
	switch {
	case errors.Is(err, shm.ErrRegionUnavailable):
		return ErrCategoryUnavailable
	case errors.Is(err, ErrConsumerGone):
		return ErrCategoryConsumer
	case errors.Is(err, header.ErrNoBuffers),
		errors.Is(err, errRegionLayout),
		errors.Is(err, vars.ErrOutOfBounds):
		return ErrCategoryLayout
	default:
		return ErrCategoryUnknown
	}
}

// errRegionLayout wraps copy failures caused by offsets or lengths the
// control block advertised but the region cannot satisfy.
var errRegionLayout = errors.New("telemetry-capture: region layout")
