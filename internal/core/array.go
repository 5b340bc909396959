// Released under an MIT license. See LICENSE.

package core

// Arrays are cell-wide series. A singular array stores its one cell
// inside the stub; reading at or past the used length always yields
// an END cell, so iteration never needs a length check and a bounds
// check at once.

// arrayAt returns the cell at logical index i, or the END terminator
// at the used length. The returned END must not be written.
func arrayAt(a *Series, i int) *Cell {
	if !a.IsDynamic() {
		if i == 0 && a.used > 0 {
			return &a.content
		}

		return &endCell
	}

	if i >= a.used {
		return &a.cells[a.bias+a.used]
	}

	return &a.cells[a.bias+i]
}

// ArrayAt is the exported view of arrayAt for the scanner and the
// embedding API.
func ArrayAt(a *Series, i int) *Cell {
	return arrayAt(a, i)
}

// ArrayLen returns the used length of an array.
func ArrayLen(a *Series) int {
	return a.used
}

// writableAt returns the cell at index i for mutation. Unlike
// arrayAt it never yields the shared END.
func writableAt(a *Series, i int) *Cell {
	if !a.IsDynamic() {
		return &a.content
	}

	return &a.cells[a.bias+i]
}

// AppendValue copies one cell onto the tail of the array.
func (ip *Interp) AppendValue(a *Series, c *Cell) {
	at := a.used
	ip.ensureSpace(a, at, 1)
	*writableAt(a, at) = *c
	a.terminate()
}

// AppendValues copies n cells from src onto the tail of the array.
func (ip *Interp) AppendValues(a *Series, src []Cell) {
	at := a.used
	ip.ensureSpace(a, at, len(src))

	for i := range src {
		*writableAt(a, at+i) = src[i]
	}

	a.terminate()
}

// InsertValue copies one cell into the array at index.
func (ip *Interp) InsertValue(a *Series, index int, c *Cell) {
	if index > a.used {
		index = a.used
	}

	ip.ensureSpace(a, index, 1)
	*writableAt(a, index) = *c
	a.terminate()
}

// CopyArrayAt shallow-copies the array from index to the tail.
func (ip *Interp) CopyArrayAt(a *Series, index int) *Series {
	return ip.CopyArrayAtExtra(a, index, 0)
}

// CopyArrayAtExtra shallow-copies the array from index to the tail,
// reserving extra trailing capacity.
func (ip *Interp) CopyArrayAtExtra(a *Series, index, extra int) *Series {
	length := a.used - index
	if length < 0 {
		length = 0
	}

	cp := ip.MakeArray(length + extra)

	for i := 0; i < length; i++ {
		ip.AppendValue(cp, arrayAt(a, index+i))
	}

	return cp
}

// arrayEqual compares two arrays element-wise from the given offsets.
func arrayEqual(a *Series, ai int, b *Series, bi int, depth int) bool {
	if a.used-ai != b.used-bi {
		return false
	}

	if a == b && ai == bi {
		return true
	}

	for i := 0; ai+i < a.used; i++ {
		if !equalAt(arrayAt(a, ai+i), arrayAt(b, bi+i), depth) {
			return false
		}
	}

	return true
}
