//go:build windows

package shm

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	modkernel32          = windows.NewLazySystemDLL("kernel32.dll")
	procOpenFileMappingW = modkernel32.NewProc("OpenFileMappingW")
)

type windowsRegion struct {
	mapping windows.Handle
	event   windows.Handle
	view    uintptr
	data    []byte

	closeOnce sync.Once
	closeErr  error
}

func openFileMapping(access uint32, name string) (windows.Handle, error) {
	namePtr, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return 0, err
	}
	r1, _, e1 := procOpenFileMappingW.Call(uintptr(access), 0, uintptr(unsafe.Pointer(namePtr)))
	if r1 == 0 {
		return 0, e1
	}
	return windows.Handle(r1), nil
}

func openRegion(names Names) (Region, error) {
	mapping, err := openFileMapping(windows.FILE_MAP_READ, names.Mapping)
	if err != nil {
		return nil, fmt.Errorf("%w: open mapping %q: %v", ErrRegionUnavailable, names.Mapping, err)
	}

	view, err := windows.MapViewOfFile(mapping, windows.FILE_MAP_READ, 0, 0, 0)
	if err != nil {
		windows.CloseHandle(mapping)
		return nil, fmt.Errorf("%w: map view: %v", ErrRegionUnavailable, err)
	}

	var info windows.MemoryBasicInformation
	if err := windows.VirtualQuery(view, &info, unsafe.Sizeof(info)); err != nil {
		windows.UnmapViewOfFile(view)
		windows.CloseHandle(mapping)
		return nil, fmt.Errorf("%w: query view size: %v", ErrRegionUnavailable, err)
	}

	eventName, err := windows.UTF16PtrFromString(names.Event)
	if err != nil {
		windows.UnmapViewOfFile(view)
		windows.CloseHandle(mapping)
		return nil, fmt.Errorf("%w: event name %q: %v", ErrRegionUnavailable, names.Event, err)
	}
	event, err := windows.OpenEvent(windows.SYNCHRONIZE, false, eventName)
	if err != nil {
		windows.UnmapViewOfFile(view)
		windows.CloseHandle(mapping)
		return nil, fmt.Errorf("%w: open event %q: %v", ErrRegionUnavailable, names.Event, err)
	}

	slog.Debug("shm: mapped shared region",
		"mapping", names.Mapping,
		"size", info.RegionSize,
	)

	return &windowsRegion{
		mapping: mapping,
		event:   event,
		view:    view,
		data:    unsafe.Slice((*byte)(unsafe.Pointer(view)), int(info.RegionSize)),
	}, nil
}

func (r *windowsRegion) ReadAt(p []byte, off int64) (int, error) {
	if r.data == nil {
		return 0, fmt.Errorf("shm: read from closed region")
	}
	return readAtSlice(r.data, p, off)
}

func (r *windowsRegion) Size() int64 { return int64(len(r.data)) }

func (r *windowsRegion) Wait(timeout time.Duration) (bool, error) {
	ms := timeout.Milliseconds()
	if ms < 0 {
		ms = 0
	}
	// INFINITE is MaxUint32; stay below it.
	if ms >= math.MaxUint32 {
		ms = math.MaxUint32 - 1
	}
	event, err := windows.WaitForSingleObject(r.event, uint32(ms))
	switch event {
	case windows.WAIT_OBJECT_0:
		return true, nil
	case uint32(windows.WAIT_TIMEOUT):
		return false, nil
	default:
		return false, fmt.Errorf("shm: wait for data signal: %v", err)
	}
}

// Close releases the event, the view and the mapping in that order.
func (r *windowsRegion) Close() error {
	r.closeOnce.Do(func() {
		var errs []error
		if err := windows.CloseHandle(r.event); err != nil {
			errs = append(errs, fmt.Errorf("close event: %w", err))
		}
		if err := windows.UnmapViewOfFile(r.view); err != nil {
			errs = append(errs, fmt.Errorf("unmap view: %w", err))
		}
		if err := windows.CloseHandle(r.mapping); err != nil {
			errs = append(errs, fmt.Errorf("close mapping: %w", err))
		}
		r.data = nil
		if len(errs) > 0 {
			r.closeErr = fmt.Errorf("shm: close region: %v", errs)
		}
	})
	return r.closeErr
}
