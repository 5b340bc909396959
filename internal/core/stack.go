// Released under an MIT license. See LICENSE.

package core

// The data stack is one array of cells grown lazily. Pushes advance
// the top index; when the top reaches the END sentinel the stack is
// expanded by a fixed basis. Pointers into the stack are only valid
// until the next push.
//
// Every subsystem must leave the depth on exit equal to what it was
// on entry. The evaluator asserts this each cycle and every trap
// asserts it on unwind.

const stackExpandBasis = 128

type dataStack struct {
	cells []Cell
	top   int // index of the top cell; 0 means empty (cells[0] is a base sentinel)
}

func newDataStack() dataStack {
	ds := dataStack{cells: make([]Cell, stackExpandBasis)}
	InitEnd(&ds.cells[0])
	InitEnd(&ds.cells[1])

	return ds
}

// Depth returns the current stack depth, used as a balance mark.
func (ip *Interp) Depth() int {
	return ip.ds.top
}

// Push returns a fresh writable top cell, initialized to a safe
// unreadable marker the caller must overwrite before the next
// GC-visible point.
func (ip *Interp) Push() *Cell {
	ds := &ip.ds
	ds.top++

	if ds.top+1 >= len(ds.cells) {
		grown := make([]Cell, len(ds.cells)+stackExpandBasis)
		copy(grown, ds.cells)
		ds.cells = grown
	}

	c := &ds.cells[ds.top]
	InitVoid(c)
	c.SetFlag(CellFlagStale)
	InitEnd(&ds.cells[ds.top+1])

	return c
}

// PushValue copies c onto the stack.
func (ip *Interp) PushValue(c *Cell) *Cell {
	top := ip.Push()
	*top = *c

	return top
}

// Top returns the current top cell.
func (ip *Interp) Top() *Cell {
	return &ip.ds.cells[ip.ds.top]
}

// StackAt returns the cell at depth index (1-based from the bottom).
func (ip *Interp) StackAt(index int) *Cell {
	return &ip.ds.cells[index]
}

// Drop removes the top cell, poisoning it against reuse.
func (ip *Interp) Drop() {
	ds := &ip.ds
	if ds.top == 0 {
		ip.panicNode(nil, "data stack underflow")
	}

	InitEnd(&ds.cells[ds.top])
	ds.top--
}

// DropTo removes cells until the depth equals mark.
func (ip *Interp) DropTo(mark int) {
	if mark > ip.ds.top {
		ip.panicNode(nil, "data stack mark above top")
	}

	for ip.ds.top > mark {
		ip.Drop()
	}
}

// PopValues copies the cells above mark into a fresh array of the
// exact length and drops to mark. The result is unmanaged.
func (ip *Interp) PopValues(mark int, flags uint32) *Series {
	count := ip.ds.top - mark
	a := ip.MakeSeries(count, cellWide, seriesFlagIsArray|flags)

	for i := 1; i <= count; i++ {
		ip.AppendValue(a, &ip.ds.cells[mark+i])
	}

	ip.DropTo(mark)

	return a
}
