// Released under an MIT license. See LICENSE.

package core

// API handles. An embedder keeps a value alive across collections by
// boxing it into a pairing whose first cell carries the root bit; the
// sweep never frees a root node. Handles are released explicitly, at
// which point their contents become collectible again.

// NewHandle boxes v into a fresh handle. A nil v yields a null handle.
func (ip *Interp) NewHandle(v *Cell) *Pairing {
	p := ip.allocPairing()
	p.cells[0].header |= uint32(nodeByteManaged)

	if v != nil {
		p.cells[0] = *v
	} else {
		InitNull(&p.cells[0])
	}

	p.cells[0].header |= uint32(nodeByteRoot | nodeByteManaged)

	return p
}

// HandleCell returns the handle's value cell. The cell stays
// addressable until the handle is released.
func HandleCell(p *Pairing) *Cell {
	return &p.cells[0]
}

// FreeHandle releases the handle. The boxed value is collectible on
// the next recycle unless something else reaches it.
func (ip *Interp) FreeHandle(p *Pairing) {
	if byte(p.cells[0].header)&nodeByteRoot == 0 {
		ip.panicNode(p, "releasing a cell that is not a handle")
	}

	p.cells[0].header &^= uint32(nodeByteRoot)
	ip.pairings.release(p)
}
