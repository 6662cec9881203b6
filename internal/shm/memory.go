package shm

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// MemoryRegion is a Region backed by a byte slice in this process. It
// serves recorded dumps and lets tests play the producer.
type MemoryRegion struct {
	mu     sync.RWMutex
	buf    []byte
	signal chan struct{}
	closed bool
}

func NewMemoryRegion(buf []byte) *MemoryRegion {
	return &MemoryRegion{buf: buf, signal: make(chan struct{}, 1)}
}

func (m *MemoryRegion) ReadAt(p []byte, off int64) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return 0, fmt.Errorf("shm: read from closed region")
	}
	return readAtSlice(m.buf, p, off)
}

func (m *MemoryRegion) Size() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.buf))
}

// Update runs fn with exclusive access to the region bytes, then signals
// waiting readers.
func (m *MemoryRegion) Update(fn func(buf []byte)) {
	m.mu.Lock()
	fn(m.buf)
	m.mu.Unlock()
	m.Signal()
}

// Signal wakes one pending or future Wait. Repeated signals coalesce.
func (m *MemoryRegion) Signal() {
	select {
	case m.signal <- struct{}{}:
	default:
	}
}

func (m *MemoryRegion) Wait(timeout time.Duration) (bool, error) {
	if timeout <= 0 {
		select {
		case <-m.signal:
			return true, nil
		default:
			return false, nil
		}
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-m.signal:
		return true, nil
	case <-timer.C:
		return false, nil
	}
}

func (m *MemoryRegion) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// OpenDump loads a region previously written by WriteDump.
func OpenDump(path string) (*MemoryRegion, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open dump %s: %v", ErrRegionUnavailable, path, err)
	}
	if len(buf) == 0 {
		return nil, fmt.Errorf("%w: dump %s is empty", ErrRegionUnavailable, path)
	}
	return NewMemoryRegion(buf), nil
}

// WriteDump copies the whole of r to path.
func WriteDump(r Region, path string) error {
	size := r.Size()
	buf := make([]byte, size)
	if err := readFull(r, buf, 0); err != nil {
		return fmt.Errorf("shm: snapshot region: %w", err)
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("shm: write dump: %w", err)
	}
	return nil
}
