// Package shmtest plays the telemetry producer inside one process. It lays
// out a control block, a session document, a variable table and rotating
// data buffers in a shm.MemoryRegion, and updates them the way the real
// producer does.
package shmtest

import (
	"fmt"
	"sync"

	"github.com/e7canasta/telemetry-capture/internal/header"
	"github.com/e7canasta/telemetry-capture/internal/shm"
	"github.com/e7canasta/telemetry-capture/vars"
)

// Variable declares one published variable. Offsets are assigned in
// declaration order.
type Variable struct {
	Name        string
	Description string
	Unit        string
	Type        vars.VarType
	Count       int
}

type Options struct {
	NumBuf      int // data buffers, default 3
	DocCapacity int // bytes reserved for the session document, default 4096
	TickRate    int // advertised ticks per second, default 60
}

// Producer owns a region and writes to it.
type Producer struct {
	Region *shm.MemoryRegion

	mu          sync.Mutex
	cb          header.ControlBlock
	catalog     vars.Catalog
	frame       []byte
	docCapacity int
	tick        int32
}

func NewProducer(variables []Variable, opts Options) *Producer {
	if opts.NumBuf == 0 {
		opts.NumBuf = 3
	}
	if opts.DocCapacity == 0 {
		opts.DocCapacity = 4096
	}
	if opts.TickRate == 0 {
		opts.TickRate = 60
	}

	catalog := make(vars.Catalog, len(variables))
	var table []byte
	frameLen := 0
	for _, v := range variables {
		d := vars.Descriptor{
			Name:        v.Name,
			Description: v.Description,
			Unit:        v.Unit,
			Type:        v.Type,
			Offset:      frameLen,
			Count:       max(v.Count, 1),
		}
		d.Semantic = vars.Classify(d.Type, d.Name)
		frameLen += d.Size()
		catalog[d.Name] = d
		table = vars.AppendDescriptor(table, d)
	}
	// Trailing sentinel record, counted in NumVars but never read.
	table = vars.AppendDescriptor(table, vars.Descriptor{Name: "", Type: vars.TypeETCount, Count: 1})

	docOffset := header.Size
	tableOffset := align(docOffset+opts.DocCapacity, 16)
	bufOffset := align(tableOffset+len(table), 16)
	bufStride := align(max(frameLen, 1), 16)
	size := bufOffset + opts.NumBuf*bufStride

	cb := header.ControlBlock{
		Version:           2,
		TickRate:          int32(opts.TickRate),
		SessionInfoLen:    int32(opts.DocCapacity),
		SessionInfoOffset: int32(docOffset),
		NumVars:           int32(len(variables) + 1),
		VarHeaderOffset:   int32(tableOffset),
		NumBuf:            int32(opts.NumBuf),
		BufLen:            int32(frameLen),
	}
	for i := 0; i < opts.NumBuf && i < header.MaxBuffers; i++ {
		cb.Buffers[i] = header.Buffer{TickCount: -1, Offset: int32(bufOffset + i*bufStride)}
	}

	buf := make([]byte, size)
	copy(buf[tableOffset:], table)
	_ = cb.Encode(buf)

	return &Producer{
		Region:      shm.NewMemoryRegion(buf),
		cb:          cb,
		catalog:     catalog,
		frame:       make([]byte, frameLen),
		docCapacity: opts.DocCapacity,
	}
}

func align(n, to int) int { return (n + to - 1) / to * to }

// Catalog returns the descriptors the producer advertises.
func (p *Producer) Catalog() vars.Catalog { return p.catalog }

// ControlBlock returns the current control block.
func (p *Producer) ControlBlock() header.ControlBlock {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cb
}

// Tick returns the tick of the most recent Publish.
func (p *Producer) Tick() int32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tick
}

// SetConnected sets or clears the live status bit.
func (p *Producer) SetConnected(connected bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if connected {
		p.cb.Status |= header.StatusConnected
	} else {
		p.cb.Status &^= header.StatusConnected
	}
	p.Region.Update(func(buf []byte) { _ = p.cb.Encode(buf) })
}

// SetSessionDocument writes text and bumps the document revision.
func (p *Producer) SetSessionDocument(text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(text) >= p.docCapacity {
		return fmt.Errorf("shmtest: document is %d bytes, capacity %d", len(text), p.docCapacity)
	}
	p.cb.SessionInfoUpdate++
	p.Region.Update(func(buf []byte) {
		doc := buf[p.cb.SessionInfoOffset : p.cb.SessionInfoOffset+p.cb.SessionInfoLen]
		clear(doc)
		copy(doc, text)
		_ = p.cb.Encode(buf)
	})
	return nil
}

// Publish writes values over the previous frame into the next data buffer
// and advances the tick.
func (p *Producer) Publish(values map[string]vars.Value) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for name, v := range values {
		d, ok := p.catalog[name]
		if !ok {
			return fmt.Errorf("shmtest: unknown variable %q", name)
		}
		if err := vars.Put(d, p.frame, v); err != nil {
			return err
		}
	}

	p.tick++
	n := min(int(p.cb.NumBuf), header.MaxBuffers)
	slot := int(p.tick) % n
	p.cb.Buffers[slot].TickCount = p.tick

	p.Region.Update(func(buf []byte) {
		off := p.cb.Buffers[slot].Offset
		copy(buf[off:off+p.cb.BufLen], p.frame)
		_ = p.cb.Encode(buf)
	})
	return nil
}

// Mutate edits the control block directly, for simulating a misbehaving
// producer.
func (p *Producer) Mutate(fn func(cb *header.ControlBlock)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(&p.cb)
	p.Region.Update(func(buf []byte) { _ = p.cb.Encode(buf) })
}
