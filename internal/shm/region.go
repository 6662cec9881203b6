// Package shm provides read-only access to the producer's shared
// telemetry region and its data-ready signal.
//
// A Region is the raw mapping. A Connector layers the control block and
// the copy helpers on top of it. Every byte handed out by a Connector is a
// private copy; nothing outside this package sees the mapped memory.
package shm

import (
	"errors"
	"fmt"
	"io"
	"time"
)

// Default producer object names.
const (
	DefaultMappingName = `Local\IRSDKMemMapFileName`
	DefaultEventName   = `Local\IRSDKDataValidEvent`
)

// ErrRegionUnavailable is returned when the shared region or its signal
// cannot be opened, usually because the producer is not running.
var ErrRegionUnavailable = errors.New("shm: shared region unavailable")

// Region is a read-only view of the shared region plus its signal.
type Region interface {
	io.ReaderAt

	// Size returns the number of readable bytes.
	Size() int64

	// Wait blocks until the producer signals new data or timeout elapses.
	// It reports whether the signal fired.
	Wait(timeout time.Duration) (bool, error)

	Close() error
}

// Names identifies the producer's mapping and signal objects.
type Names struct {
	Mapping string
	Event   string
}

func DefaultNames() Names {
	return Names{Mapping: DefaultMappingName, Event: DefaultEventName}
}

// OpenRegion opens the platform's shared region for names.
func OpenRegion(names Names) (Region, error) {
	if names.Mapping == "" {
		return nil, fmt.Errorf("%w: empty mapping name", ErrRegionUnavailable)
	}
	return openRegion(names)
}

// readFull reads exactly len(p) bytes at off.
func readFull(r io.ReaderAt, p []byte, off int64) error {
	n, err := r.ReadAt(p, off)
	if n == len(p) {
		return nil
	}
	if err == nil || err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return err
}

// readAtSlice copies from data into p the way io.ReaderAt requires.
func readAtSlice(data []byte, p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("shm: negative offset %d", off)
	}
	if off >= int64(len(data)) {
		return 0, io.EOF
	}
	n := copy(p, data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}
