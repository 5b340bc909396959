// Released under an MIT license. See LICENSE.

// Package core implements the interpreter core: the tagged cell
// representation, the pooled series memory manager and its garbage
// collector, the data stack, the frame-based evaluator, and the
// fail/throw control flow.
package core

import "fmt"

// The first byte of every pool node (cell or series stub) identifies
// what the node is. The patterns are chosen so that, in isolation, a
// node byte can never be confused with the leading byte of a valid
// UTF-8 string: bytes below 0x80 are ASCII, and 0xC0/0xC1 never
// appear in well-formed UTF-8, so they mark freed nodes.
const (
	nodeByteNode    byte = 0x80 // set on every node, live or freed
	nodeByteFree    byte = 0x40 // with nodeByteNode: a freed node
	nodeByteManaged byte = 0x20 // lifetime owned by the GC
	nodeByteMarked  byte = 0x10 // reachable during the current mark pass
	nodeByteRoot    byte = 0x08 // API handle; always treated as a root
	nodeByteCell    byte = 0x01 // node is a cell, not a series stub

	freedSeriesByte = nodeByteNode | nodeByteFree                // 0xC0
	freedCellByte   = nodeByteNode | nodeByteFree | nodeByteCell // 0xC1
)

// Detected is the verdict of inspecting an unknown pointer.
type Detected byte

// Everything a raw pointer can turn out to be.
const (
	DetectedUTF8 Detected = iota
	DetectedSeries
	DetectedFreedSeries
	DetectedCell
	DetectedFreedCell
	DetectedEnd
)

// Detect identifies p by its leading byte (for pool nodes) or its Go
// type (for text). It is the foundation of the variadic API and of
// panic diagnostics.
func Detect(p any) Detected {
	switch v := p.(type) {
	case string, []byte:
		return DetectedUTF8
	case *Cell:
		b := byte(v.header)
		switch {
		case b == freedCellByte:
			return DetectedFreedCell
		case v.KindByte() == byte(KindEnd):
			return DetectedEnd
		default:
			return DetectedCell
		}
	case *Pairing:
		return Detect(&v.cells[0])
	case *Series:
		if byte(v.header) == freedSeriesByte {
			return DetectedFreedSeries
		}

		return DetectedSeries
	}

	panic(fmt.Sprintf("cannot detect %T", p))
}

// String names the detection verdict for diagnostics.
func (d Detected) String() string {
	switch d {
	case DetectedUTF8:
		return "utf8"
	case DetectedSeries:
		return "series"
	case DetectedFreedSeries:
		return "freed-series"
	case DetectedCell:
		return "cell"
	case DetectedFreedCell:
		return "freed-cell"
	case DetectedEnd:
		return "end"
	}

	return "unknown"
}

// panicNode reports an internal invariant breach involving p. Unlike
// Fail this does not unwind to a trap: it dumps what the offending
// pointer looks like and terminates. GC is disabled first so that
// diagnostics can allocate freely.
func (ip *Interp) panicNode(p any, why string) {
	ip.gcDisabled++

	detail := "<nil>"
	if p != nil {
		detail = Detect(p).String()
	}

	panic(fmt.Sprintf("core: %s (pointer detected as %s)", why, detail))
}

// Pairing is a two-cell GC unit. It backs PAIR values and the
// out-of-line encoding for quote depths past the in-cell limit.
type Pairing struct {
	cells    [2]Cell
	nextFree *Pairing
}

// First returns the pairing's first cell.
func (p *Pairing) First() *Cell { return &p.cells[0] }

// Second returns the pairing's second cell.
func (p *Pairing) Second() *Cell { return &p.cells[1] }

// Pool node counts per segment. Segments are carved into nodes that
// are linked into the pool's free list up front.
const (
	seriesPerSegment  = 128
	pairingPerSegment = 128
)

// seriesPool hands out series stubs with free-list reuse.
type seriesPool struct {
	segments [][]Series
	free     *Series
}

func (p *seriesPool) alloc() *Series {
	if p.free == nil {
		p.grow()
	}

	s := p.free
	p.free = s.link.series

	*s = Series{}

	return s
}

func (p *seriesPool) grow() {
	seg := make([]Series, seriesPerSegment)
	p.segments = append(p.segments, seg)

	for i := range seg {
		s := &seg[i]
		s.header = uint32(freedSeriesByte)
		s.link.series = p.free
		p.free = s
	}
}

// release marks the stub freed and pushes it at the head of the free
// list. The node must not be dereferenced afterwards except to read
// its freed byte.
func (p *seriesPool) release(s *Series) {
	*s = Series{}
	s.header = uint32(freedSeriesByte)
	s.link.series = p.free
	p.free = s
}

// pairingPool hands out two-cell pairing nodes.
type pairingPool struct {
	segments [][]Pairing
	free     *Pairing
}

func (p *pairingPool) alloc() *Pairing {
	if p.free == nil {
		p.grow()
	}

	n := p.free
	p.free = n.nextFree

	*n = Pairing{}

	return n
}

func (p *pairingPool) grow() {
	seg := make([]Pairing, pairingPerSegment)
	p.segments = append(p.segments, seg)

	for i := range seg {
		n := &seg[i]
		n.cells[0].header = uint32(freedCellByte)
		n.nextFree = p.free
		p.free = n
	}
}

func (p *pairingPool) release(n *Pairing) {
	*n = Pairing{}
	n.cells[0].header = uint32(freedCellByte)
	n.nextFree = p.free
	p.free = n
}

// allocStub takes a fresh series stub from the pool. The caller must
// write a valid header before the next GC. Allocation is infallible;
// running out of memory is a Go runtime abort, never a partial
// failure.
func (ip *Interp) allocStub() *Series {
	ip.gcBallast++

	return ip.series.alloc()
}

// NewPairing takes a fresh pairing, born unmanaged. The caller must
// either free it or manage it before the next GC.
func (ip *Interp) NewPairing() *Pairing {
	return ip.allocPairing()
}

// allocPairing takes a fresh pairing, born unmanaged. The caller must
// either free it or manage it before the next GC.
func (ip *Interp) allocPairing() *Pairing {
	p := ip.pairings.alloc()
	p.cells[0].header = uint32(nodeByteNode | nodeByteCell)
	p.cells[1].header = uint32(nodeByteNode | nodeByteCell)

	return p
}
