// Released under an MIT license. See LICENSE.

package core

// Deep copy of arrays and series. Which kinds are descended into is
// controlled by a type mask, so a body copy can deep-copy blocks and
// groups while leaving contexts and actions shared. Quoted values are
// peeled, copied at their heart, and requoted to the same depth.

// cloneLimit bounds the copy recursion; a self-referential array
// raises a stack-overflow failure rather than exhausting the
// goroutine stack, matching frameLimit in the evaluator.
const cloneLimit = 1024

// CopyValueDeep copies v into out, deep-copying any series payload
// whose kind is in types. Series-bearing kinds left outside the mask
// stay shared but pick up a const overlay, so nested data the copy
// did not duplicate is not writable through the new reference.
func (ip *Interp) CopyValueDeep(out, v *Cell, types TypeMask) *Cell {
	return ip.copyValueDeep(out, v, types, 0)
}

func (ip *Interp) copyValueDeep(out, v *Cell, types TypeMask, depth int) *Cell {
	if depth >= cloneLimit {
		ip.Fail(ip.ErrorOf(ErrStackOverflow))
	}

	*out = *v

	qd := QuoteDepth(v)
	if qd > 0 {
		heart := Unquoted(v)
		ip.copyValueDeep(out, &heart, types, depth+1)
		ip.Quotify(out, qd)

		return out
	}

	k := v.Kind()
	if !types.Has(k) {
		if MaskAnySeries.Has(k) || k == KindMap || MaskAnyContext.Has(k) {
			out.SetFlag(CellFlagConst)
		}

		return out
	}

	switch {
	case MaskAnyArray.Has(k):
		out.node = ip.Manage(ip.cloneArrayDeep(v.node, types, depth+1))
	case MaskAnySeries.Has(k):
		out.node = ip.Manage(ip.CopySequence(v.node, 0))
	case k == KindPair:
		p := ip.allocPairing()
		ip.copyValueDeep(&p.cells[0], v.pairing.First(), types, depth+1)
		ip.copyValueDeep(&p.cells[1], v.pairing.Second(), types, depth+1)
		out.pairing = ip.ManagePairing(p)
	}

	return out
}

// cloneArrayDeep copies the array and, recursively, every nested
// series whose kind is in types. The copy is unmanaged and carries
// none of the original's frozen or const state.
func (ip *Interp) cloneArrayDeep(a *Series, types TypeMask, depth int) *Series {
	clone := ip.MakeArray(a.used)

	for i := 0; i < a.used; i++ {
		var c Cell

		ip.copyValueDeep(&c, arrayAt(a, i), types, depth)
		ip.AppendValue(clone, &c)
	}

	return clone
}

// CopyArrayShallow copies the cells from index on, sharing every
// nested series.
func (ip *Interp) CopyArrayShallow(a *Series, index int) *Series {
	return ip.CopyArrayAt(a, index)
}
