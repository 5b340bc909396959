// Released under an MIT license. See LICENSE.

package core

// Mark and sweep over the pooled nodes. The mark phase colors every
// stub reachable from the roots: the data stack, the guard list, the
// manuals list, the frame stack, and any node flagged as an API root.
// The sweep phase walks the pool segments and frees every managed,
// unmarked stub, running handle cleanup hooks and unlinking swept
// spellings from the intern table.
//
// Unmanaged series are never swept; their contents are still marked
// so that a managed series held only through a manual one survives.

// Guard keeps p (a *Series, *Cell, or *Pairing) alive across
// allocations until a matching Unguard.
func (ip *Interp) Guard(p any) {
	switch p.(type) {
	case *Series, *Cell, *Pairing:
	default:
		ip.panicNode(nil, "guard of unexpected type")
	}

	ip.guards = append(ip.guards, p)
}

// Unguard releases the n most recent guards.
func (ip *Interp) Unguard(n int) {
	if n > len(ip.guards) {
		ip.panicNode(nil, "unguard below guard stack base")
	}

	ip.guards = ip.guards[:len(ip.guards)-n]
}

// DisableGC suspends collection; every call must be paired with
// EnableGC. Allocation is still permitted while disabled.
func (ip *Interp) DisableGC() {
	ip.gcDisabled++
}

// EnableGC re-permits collection.
func (ip *Interp) EnableGC() {
	if ip.gcDisabled == 0 {
		ip.panicNode(nil, "unbalanced EnableGC")
	}

	ip.gcDisabled--
}

// maybeRecycle runs a collection once enough stubs have been handed
// out since the last one. The evaluator calls this between steps,
// where every live value is reachable from a root.
func (ip *Interp) maybeRecycle() {
	if ip.gcBallast >= gcBallastTrigger {
		ip.Recycle()
	}
}

// Recycle runs a full mark and sweep, returning the number of series
// stubs freed. A no-op while collection is disabled.
func (ip *Interp) Recycle() int {
	if ip.gcDisabled > 0 {
		return 0
	}

	ip.gcBallast = 0

	ip.mark()

	return ip.sweep()
}

func (ip *Interp) mark() {
	for i := 1; i <= ip.ds.top; i++ {
		ip.markCell(&ip.ds.cells[i])
	}

	for _, g := range ip.guards {
		switch v := g.(type) {
		case *Series:
			ip.markSeries(v)
		case *Cell:
			ip.markCell(v)
		case *Pairing:
			ip.markPairing(v)
		}
	}

	for _, m := range ip.manuals {
		ip.markSeries(m)
	}

	for f := ip.topFrame; f != nil; f = f.prior {
		ip.markFrame(f)
	}

	ip.markSeries(ip.lib)
	ip.markCell(&ip.thrownArg)

	// API roots are their own reason to live.
	for _, seg := range ip.series.segments {
		for i := range seg {
			s := &seg[i]
			if byte(s.header)&(nodeByteFree|nodeByteRoot) == nodeByteRoot {
				ip.markSeries(s)
			}
		}
	}

	for _, seg := range ip.pairings.segments {
		for i := range seg {
			p := &seg[i]
			b := byte(p.cells[0].header)
			if b&(nodeByteFree|nodeByteRoot) == nodeByteRoot {
				ip.markPairing(p)
			}
		}
	}
}

func (ip *Interp) markFrame(f *Frame) {
	if f.feed != nil {
		ip.markSeries(f.feed.array)
	}

	if f.out != nil {
		ip.markCell(f.out)
	}

	ip.markSeries(f.varlist)
	ip.markSeries(f.phase)
	ip.markSeries(f.original)
	ip.markSeries(f.label)
}

// markCell colors everything the cell points at. Constructors zero
// cells before writing, so a non-nil pointer slot is always live.
func (ip *Interp) markCell(c *Cell) {
	if c == nil || c.IsEnd() {
		return
	}

	ip.markSeries(c.node)
	ip.markSeries(c.extra)
	ip.markPairing(c.pairing)
}

func (ip *Interp) markPairing(p *Pairing) {
	if p == nil || byte(p.cells[0].header)&nodeByteMarked != 0 {
		return
	}

	p.cells[0].header |= uint32(nodeByteMarked)

	ip.markCell(&p.cells[0])
	ip.markCell(&p.cells[1])
}

func (ip *Interp) markSeries(s *Series) {
	if s == nil || byte(s.header)&nodeByteMarked != 0 {
		return
	}

	if byte(s.header)&nodeByteFree != 0 {
		ip.panicNode(s, "marking a freed series")
	}

	s.header |= uint32(nodeByteMarked)

	if s.GetFlag(seriesFlagIsArray) {
		if s.IsDynamic() {
			live := s.cells[s.bias : s.bias+s.used]
			for i := range live {
				ip.markCell(&live[i])
			}
		} else {
			ip.markCell(&s.content)
		}
	}

	// Spellings keep their whole equivalence class alive: the ring is
	// walked during sweep re-election and must stay intact.
	ip.markSeries(s.link.series)
	ip.markSeries(s.misc.series)

	if s.link.frame != nil {
		ip.markFrame(s.link.frame)
	}
}

func (ip *Interp) sweep() int {
	freed := 0

	for _, seg := range ip.series.segments {
		for i := range seg {
			s := &seg[i]
			b := byte(s.header)

			if b&nodeByteFree != 0 || b&nodeByteManaged == 0 {
				continue
			}

			if b&(nodeByteMarked|nodeByteRoot) != 0 {
				s.header &^= uint32(nodeByteMarked)

				continue
			}

			ip.sweepSeries(s)
			freed++
		}
	}

	for _, seg := range ip.pairings.segments {
		for i := range seg {
			p := &seg[i]
			b := byte(p.cells[0].header)

			if b&nodeByteFree != 0 || b&nodeByteManaged == 0 {
				continue
			}

			if b&(nodeByteMarked|nodeByteRoot) != 0 {
				p.cells[0].header &^= uint32(nodeByteMarked)

				continue
			}

			ip.pairings.release(p)
		}
	}

	return freed
}

func (ip *Interp) sweepSeries(s *Series) {
	if s.misc.cleanup != nil {
		hook := s.misc.cleanup
		s.misc.cleanup = nil
		hook(&s.content)
	}

	if s.GetFlag(seriesFlagSymbol) {
		ip.sweepSymbol(s)
	}

	ip.series.release(s)
}
