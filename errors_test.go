package telemetrycapture

import (
	"errors"
	"fmt"
	"testing"

	"github.com/e7canasta/telemetry-capture/internal/header"
	"github.com/e7canasta/telemetry-capture/internal/reconnect"
	"github.com/e7canasta/telemetry-capture/internal/shm"
	"github.com/e7canasta/telemetry-capture/vars"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCategory
	}{
		{"region unavailable", shm.ErrRegionUnavailable, ErrCategoryUnavailable},
		{"wrapped unavailable", fmt.Errorf("shm: open %q: %w", "map", shm.ErrRegionUnavailable), ErrCategoryUnavailable},
		{"consumer gone", ErrConsumerGone, ErrCategoryConsumer},
		{"permanent consumer gone", reconnect.Permanent(ErrConsumerGone), ErrCategoryConsumer},
		{"no buffers", header.ErrNoBuffers, ErrCategoryLayout},
		{"copy failure", fmt.Errorf("%w: %w", errRegionLayout, errors.New("shm: range exceeds region")), ErrCategoryLayout},
		{"variable out of bounds", vars.ErrOutOfBounds, ErrCategoryLayout},
		{"other", errors.New("boom"), ErrCategoryUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyError(tt.err); got != tt.want {
				t.Errorf("ClassifyError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestReexportedSentinels(t *testing.T) {
	if !errors.Is(fmt.Errorf("wrap: %w", shm.ErrRegionUnavailable), ErrRegionUnavailable) {
		t.Error("ErrRegionUnavailable does not match shm sentinel")
	}
	if !errors.Is(header.ErrNoBuffers, ErrNoBuffers) {
		t.Error("ErrNoBuffers does not match header sentinel")
	}
}

func TestEventKind_String(t *testing.T) {
	for kind, want := range map[EventKind]string{
		EventFrame:           "frame",
		EventSessionDocument: "session_document",
		EventCatalog:         "catalog",
		EventDisconnected:    "disconnected",
		EventKind(42):        "unknown",
	} {
		if got := kind.String(); got != want {
			t.Errorf("EventKind(%d).String() = %q, want %q", int(kind), got, want)
		}
	}
}
