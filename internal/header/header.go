// Package header decodes the control block at the start of the shared
// telemetry region.
package header

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Control block layout. Every field is a little-endian int32.
const (
	MaxBuffers = 4
	Size       = 48 + MaxBuffers*bufferSize

	StatusConnected int32 = 1

	offVersion           = 0
	offStatus            = 4
	offTickRate          = 8
	offSessionInfoUpdate = 12
	offSessionInfoLen    = 16
	offSessionInfoOffset = 20
	offNumVars           = 24
	offVarHeaderOffset   = 28
	offNumBuf            = 32
	offBufLen            = 36
	offBuffers           = 48

	bufferSize      = 16
	bufferTickCount = 0
	bufferOffset    = 4
)

// ErrNoBuffers is returned when the control block advertises no data
// buffers to select from.
var ErrNoBuffers = errors.New("header: control block has no data buffers")

// Buffer is one slot of the producer's rotating data buffers.
type Buffer struct {
	TickCount int32
	Offset    int32
}

// ControlBlock is a snapshot of the region header.
type ControlBlock struct {
	Version  int32
	Status   int32
	TickRate int32

	SessionInfoUpdate int32
	SessionInfoLen    int32
	SessionInfoOffset int32

	NumVars         int32
	VarHeaderOffset int32

	NumBuf  int32
	BufLen  int32
	Buffers [MaxBuffers]Buffer
}

// Connected reports whether the producer marked its session live.
func (cb ControlBlock) Connected() bool { return cb.Status&StatusConnected != 0 }

// Freshest returns the buffer slot with the greatest tick count among the
// first NumBuf slots (at most MaxBuffers). Ties go to the lowest slot.
func (cb ControlBlock) Freshest() (Buffer, int, error) {
	n := min(int(cb.NumBuf), MaxBuffers)
	if n <= 0 {
		return Buffer{}, -1, ErrNoBuffers
	}
	best := 0
	for i := 1; i < n; i++ {
		if cb.Buffers[i].TickCount > cb.Buffers[best].TickCount {
			best = i
		}
	}
	return cb.Buffers[best], best, nil
}

// Decode parses a control block from its encoded bytes.
func Decode(b []byte) (ControlBlock, error) {
	if len(b) < Size {
		return ControlBlock{}, fmt.Errorf("header: need %d bytes, have %d", Size, len(b))
	}
	return Read(bytes.NewReader(b))
}

// Read decodes the control block from r one field at a time. The producer
// may rewrite the block while it is read, so fields are not guaranteed to
// be mutually consistent.
func Read(r io.ReaderAt) (ControlBlock, error) {
	fr := fieldReader{r: r}
	cb := ControlBlock{
		Version:           fr.read(offVersion),
		Status:            fr.read(offStatus),
		TickRate:          fr.read(offTickRate),
		SessionInfoUpdate: fr.read(offSessionInfoUpdate),
		SessionInfoLen:    fr.read(offSessionInfoLen),
		SessionInfoOffset: fr.read(offSessionInfoOffset),
		NumVars:           fr.read(offNumVars),
		VarHeaderOffset:   fr.read(offVarHeaderOffset),
		NumBuf:            fr.read(offNumBuf),
		BufLen:            fr.read(offBufLen),
	}
	for i := range cb.Buffers {
		base := int64(offBuffers + i*bufferSize)
		cb.Buffers[i] = Buffer{
			TickCount: fr.read(base + bufferTickCount),
			Offset:    fr.read(base + bufferOffset),
		}
	}
	if fr.err != nil {
		return ControlBlock{}, fr.err
	}
	return cb, nil
}

// ReadStatus reads only the status field.
func ReadStatus(r io.ReaderAt) (int32, error) {
	fr := fieldReader{r: r}
	status := fr.read(offStatus)
	return status, fr.err
}

// fieldReader reads int32 fields and keeps the first error.
type fieldReader struct {
	r   io.ReaderAt
	buf [4]byte
	err error
}

func (fr *fieldReader) read(off int64) int32 {
	if fr.err != nil {
		return 0
	}
	n, err := fr.r.ReadAt(fr.buf[:], off)
	if n < len(fr.buf) {
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		fr.err = fmt.Errorf("header: read field at offset %d: %w", off, err)
		return 0
	}
	return int32(binary.LittleEndian.Uint32(fr.buf[:]))
}

// Encode writes cb into dst, which must hold at least Size bytes.
func (cb ControlBlock) Encode(dst []byte) error {
	if len(dst) < Size {
		return fmt.Errorf("header: need %d bytes, have %d", Size, len(dst))
	}
	put := func(off int, v int32) { binary.LittleEndian.PutUint32(dst[off:], uint32(v)) }

	put(offVersion, cb.Version)
	put(offStatus, cb.Status)
	put(offTickRate, cb.TickRate)
	put(offSessionInfoUpdate, cb.SessionInfoUpdate)
	put(offSessionInfoLen, cb.SessionInfoLen)
	put(offSessionInfoOffset, cb.SessionInfoOffset)
	put(offNumVars, cb.NumVars)
	put(offVarHeaderOffset, cb.VarHeaderOffset)
	put(offNumBuf, cb.NumBuf)
	put(offBufLen, cb.BufLen)
	clear(dst[40:offBuffers])
	for i, b := range cb.Buffers {
		base := offBuffers + i*bufferSize
		put(base+bufferTickCount, b.TickCount)
		put(base+bufferOffset, b.Offset)
		clear(dst[base+8 : base+bufferSize])
	}
	return nil
}
