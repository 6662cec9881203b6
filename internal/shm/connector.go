package shm

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	"github.com/e7canasta/telemetry-capture/internal/header"
	"github.com/e7canasta/telemetry-capture/vars"
)

// Connector reads control blocks, frames, the session document and the
// variable table out of a Region. It is used by a single goroutine.
type Connector struct {
	region Region

	closeOnce sync.Once
	closeErr  error
}

// Open opens the producer's region and wraps it in a Connector.
func Open(names Names) (*Connector, error) {
	region, err := OpenRegion(names)
	if err != nil {
		return nil, err
	}
	return NewConnector(region), nil
}

func NewConnector(region Region) *Connector {
	return &Connector{region: region}
}

// Region returns the underlying region.
func (c *Connector) Region() Region { return c.region }

func (c *Connector) ReadControlBlock() (header.ControlBlock, error) {
	return header.Read(c.region)
}

// IsConnected reads the live status bit. Any read failure counts as not
// connected.
func (c *Connector) IsConnected() bool {
	status, err := header.ReadStatus(c.region)
	if err != nil {
		return false
	}
	return status&header.StatusConnected != 0
}

// WaitForSignal blocks until the producer signals or timeout elapses.
func (c *Connector) WaitForSignal(timeout time.Duration) (bool, error) {
	return c.region.Wait(timeout)
}

// CopyBytes copies length bytes starting at offset.
func (c *Connector) CopyBytes(offset, length int64) ([]byte, error) {
	if offset < 0 || length < 0 {
		return nil, fmt.Errorf("shm: invalid range offset=%d length=%d", offset, length)
	}
	if end := offset + length; end > c.region.Size() {
		return nil, fmt.Errorf("shm: range [%d,%d) exceeds %d-byte region", offset, end, c.region.Size())
	}
	buf := make([]byte, length)
	if err := readFull(c.region, buf, offset); err != nil {
		return nil, fmt.Errorf("shm: copy [%d,+%d): %w", offset, length, err)
	}
	return buf, nil
}

// Frame is a private copy of one data buffer.
type Frame struct {
	Tick int32
	Slot int
	Data []byte
}

// CopyFrame copies the freshest data buffer cb advertises.
func (c *Connector) CopyFrame(cb header.ControlBlock) (Frame, error) {
	buf, slot, err := cb.Freshest()
	if err != nil {
		return Frame{}, err
	}
	data, err := c.CopyBytes(int64(buf.Offset), int64(cb.BufLen))
	if err != nil {
		return Frame{}, err
	}
	return Frame{Tick: buf.TickCount, Slot: slot, Data: data}, nil
}

// CopySessionDocument copies the session document text, ending at the
// first NUL inside the advertised length.
func (c *Connector) CopySessionDocument(cb header.ControlBlock) (string, error) {
	raw, err := c.CopyBytes(int64(cb.SessionInfoOffset), int64(cb.SessionInfoLen))
	if err != nil {
		return "", fmt.Errorf("session document: %w", err)
	}
	if i := bytes.IndexByte(raw, 0); i >= 0 {
		raw = raw[:i]
	}
	return string(raw), nil
}

// CopyCatalogTable copies the descriptor records cb advertises, excluding
// the trailing sentinel.
func (c *Connector) CopyCatalogTable(cb header.ControlBlock) ([]byte, error) {
	n := int64(cb.NumVars) - 1
	if n <= 0 {
		return nil, nil
	}
	table, err := c.CopyBytes(int64(cb.VarHeaderOffset), n*vars.DescriptorSize)
	if err != nil {
		return nil, fmt.Errorf("variable table: %w", err)
	}
	return table, nil
}

// Catalog copies and decodes the variable table.
func (c *Connector) Catalog(cb header.ControlBlock) (vars.Catalog, vars.BuildReport, error) {
	table, err := c.CopyCatalogTable(cb)
	if err != nil {
		return nil, vars.BuildReport{}, err
	}
	cat, report := vars.Build(table, int(cb.NumVars))
	return cat, report, nil
}

// Close releases the region. It is safe to call more than once.
func (c *Connector) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.region.Close()
	})
	return c.closeErr
}
