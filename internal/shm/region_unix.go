//go:build !windows

package shm

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// ShmDir is where named regions live when the name is not a path.
const ShmDir = "/dev/shm"

// fileRegion maps a file read-only. There is no cross-process data
// signal, so Wait simply sleeps for the timeout.
type fileRegion struct {
	file *os.File
	data []byte

	closeOnce sync.Once
	closeErr  error
}

// MappingPath turns a producer object name into a file path. Absolute
// paths are used as given; other names drop any `Local\` namespace and
// resolve under ShmDir.
func MappingPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	name = strings.TrimPrefix(name, `Local\`)
	name = strings.ReplaceAll(name, `\`, "_")
	return filepath.Join(ShmDir, name)
}

func openRegion(names Names) (Region, error) {
	path := MappingPath(names.Mapping)
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRegionUnavailable, err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("%w: stat %s: %v", ErrRegionUnavailable, path, err)
	}
	if info.Size() == 0 {
		file.Close()
		return nil, fmt.Errorf("%w: %s is empty", ErrRegionUnavailable, path)
	}

	data, err := unix.Mmap(int(file.Fd()), 0, int(info.Size()), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("%w: mmap %s: %v", ErrRegionUnavailable, path, err)
	}

	slog.Debug("shm: mapped shared region", "path", path, "size", len(data))
	return &fileRegion{file: file, data: data}, nil
}

// ReadAt copies from the mapping. A fault raised because the producer
// shrank or removed the backing file is returned as ErrRegionUnavailable.
func (r *fileRegion) ReadAt(p []byte, off int64) (n int, err error) {
	if r.data == nil {
		return 0, fmt.Errorf("shm: read from closed region")
	}

	defer debug.SetPanicOnFault(debug.SetPanicOnFault(true))
	defer func() {
		rec := recover()
		if rec == nil {
			return
		}
		if fault, ok := rec.(interface{ Addr() uintptr }); ok {
			n, err = 0, fmt.Errorf("%w: fault reading offset %d (addr %#x)", ErrRegionUnavailable, off, fault.Addr())
			return
		}
		panic(rec)
	}()
	return readAtSlice(r.data, p, off)
}

func (r *fileRegion) Size() int64 { return int64(len(r.data)) }

func (r *fileRegion) Wait(timeout time.Duration) (bool, error) {
	if timeout > 0 {
		time.Sleep(timeout)
	}
	return false, nil
}

func (r *fileRegion) Close() error {
	r.closeOnce.Do(func() {
		if err := unix.Munmap(r.data); err != nil {
			r.closeErr = fmt.Errorf("shm: munmap: %w", err)
		}
		r.data = nil
		if err := r.file.Close(); err != nil && r.closeErr == nil {
			r.closeErr = fmt.Errorf("shm: close: %w", err)
		}
	})
	return r.closeErr
}
