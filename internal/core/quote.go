// Released under an MIT license. See LICENSE.

package core

// N-level quoting. Depths 1..3 are stored in the cell itself by
// offsetting the kind byte in steps of quoteStep; the datatype is
// recovered mod quoteStep, so iterating mixed shallow depths costs no
// allocation. Depths past maxInCellQuote move the unquoted value into
// a pairing and the cell becomes KindQuoted with the depth in bits.

const maxInCellQuote = 3

// QuoteDepth returns the number of quote levels on c.
func QuoteDepth(c *Cell) int {
	if c.Kind() == KindQuoted {
		return int(c.bits)
	}

	return int(c.KindByte() / quoteStep)
}

// Quotify adds depth quote levels to c in place.
func (ip *Interp) Quotify(c *Cell, depth int) *Cell {
	if depth == 0 {
		return c
	}

	if depth < 0 {
		ip.panicNode(c, "negative quote depth")
	}

	total := QuoteDepth(c) + depth

	if c.Kind() == KindQuoted {
		c.bits = uint64(total)

		return c
	}

	if total <= maxInCellQuote {
		c.setKindByte(byte(c.Kind()) + byte(total)*quoteStep)

		return c
	}

	// Move the unquoted value out of line.
	p := ip.allocPairing()
	p.cells[0] = *c
	p.cells[0].setKindByte(byte(c.Kind()))
	InitEnd(&p.cells[1])
	ip.ManagePairing(p)

	*c = Cell{}
	c.writeHeader(KindQuoted)
	c.pairing = p
	c.bits = uint64(total)

	return c
}

// Unquotify removes depth quote levels from c in place. Removing more
// levels than are present is an invariant breach.
func (ip *Interp) Unquotify(c *Cell, depth int) *Cell {
	if depth == 0 {
		return c
	}

	have := QuoteDepth(c)
	if depth < 0 || depth > have {
		ip.panicNode(c, "unquote past depth zero")
	}

	total := have - depth

	if c.Kind() != KindQuoted {
		c.setKindByte(byte(c.Kind()) + byte(total)*quoteStep)

		return c
	}

	if total > maxInCellQuote {
		c.bits = uint64(total)

		return c
	}

	// Shallow again: collapse back into the cell.
	inner := c.pairing.cells[0]
	*c = inner
	c.setKindByte(byte(c.Kind()) + byte(total)*quoteStep)

	return c
}

// Unquoted copies c with all quoting removed, without touching c.
func Unquoted(c *Cell) Cell {
	if c.Kind() == KindQuoted {
		return c.pairing.cells[0]
	}

	plain := *c
	plain.setKindByte(byte(c.Kind()))

	return plain
}
