// Released under an MIT license. See LICENSE.

package core

// A context is a varlist: an array whose first cell is the archetype
// identifying the object, followed by one cell per variable. The
// varlist's link points at its keylist (an array of typeset keys,
// index-parallel with the varlist) or, for a frame context whose
// frame is still running, at the frame itself. misc points at an
// optional metadata context.

// MakeContext allocates a context with room for capacity variables.
// The result is unmanaged; callers manage it once it is reachable.
func (ip *Interp) MakeContext(kind Kind, capacity int) *Series {
	var rootkey Cell

	keylist := ip.MakeArray(capacity + 1)
	ip.AppendValue(keylist, InitBlank(&rootkey))

	varlist := ip.MakeSeries(capacity+1, cellWide,
		seriesFlagIsArray|seriesFlagVarlist)
	varlist.link.series = keylist

	archetype := Cell{}
	InitObject(&archetype, varlist)
	archetype.setKindByte(byte(kind))
	ip.AppendValue(varlist, &archetype)

	ip.Manage(keylist)

	return varlist
}

// CtxKeylist returns the context's keylist, resolving the frame
// aliasing: while an action frame is live its varlist links to the
// frame, and the keylist is the frame's current facade.
func CtxKeylist(ctx *Series) *Series {
	if ctx.link.frame != nil {
		return ctx.link.frame.facade()
	}

	return ctx.link.series
}

// CtxArchetype returns the context's identity cell.
func CtxArchetype(ctx *Series) *Cell {
	return arrayAt(ctx, 0)
}

// CtxLen returns the number of variables.
func CtxLen(ctx *Series) int {
	return ctx.used - 1
}

// CtxKey returns the typeset key for slot index (1-based).
func CtxKey(ctx *Series, index int) *Cell {
	return arrayAt(CtxKeylist(ctx), index)
}

// CtxVar returns the variable cell for slot index (1-based).
func CtxVar(ctx *Series, index int) *Cell {
	return writableAt(ctx, index)
}

// CtxMeta returns the context's metadata context, if any.
func CtxMeta(ctx *Series) *Series {
	return ctx.misc.series
}

// SetCtxMeta attaches a metadata context.
func SetCtxMeta(ctx, meta *Series) {
	ctx.misc.series = meta
}

// makeKey writes a typeset key cell for the spelling.
func makeKey(out *Cell, spelling *Series, mask TypeMask, class ParamClass) *Cell {
	*out = Cell{}
	out.writeHeader(KindTypeset)
	out.node = spelling
	out.bits = uint64(mask)&paramMaskBits | uint64(class)<<paramClassShift

	return out
}

// KeySpelling returns the spelling of a typeset key.
func KeySpelling(key *Cell) *Series {
	return key.node
}

// AppendContextKey adds a variable slot for the spelling and returns
// its cell, initialized to null.
func (ip *Interp) AppendContextKey(ctx *Series, spelling *Series) *Cell {
	keylist := CtxKeylist(ctx)

	var key Cell

	ip.AppendValue(keylist, makeKey(&key, spelling, 0, ParamNormal))

	var empty Cell

	ip.AppendValue(ctx, InitNull(&empty))

	return CtxVar(ctx, CtxLen(ctx))
}

// FindContextKey returns the slot index bound to the spelling, or 0.
// Matching is case-insensitive via canon comparison.
func FindContextKey(ctx *Series, spelling *Series) int {
	keylist := CtxKeylist(ctx)
	canon := CanonOf(spelling)

	for i := 1; i < keylist.used; i++ {
		if CanonOf(KeySpelling(arrayAt(keylist, i))) == canon {
			return i
		}
	}

	return 0
}

// Bind attaches the word to the context if the context has its
// spelling; returns true on success.
func (ip *Interp) Bind(word *Cell, ctx *Series) bool {
	if !MaskAnyWord.Has(word.Kind()) {
		return false
	}

	index := FindContextKey(ctx, word.Spelling())
	if index == 0 {
		return false
	}

	word.BindSpecific(ctx, index)

	return true
}

// BindArrayDeep binds every bindable word in the array (and nested
// arrays) to the context. Words already bound are rebound when the
// context knows their spelling; adds is consulted for whether new
// keys should be created for set-words.
func (ip *Interp) BindArrayDeep(a *Series, ctx *Series, addSetWords bool) {
	for i := 0; i < a.used; i++ {
		c := writableAt(a, i)

		switch {
		case MaskAnyWord.Has(c.Kind()):
			if !ip.Bind(c, ctx) && addSetWords && c.Is(KindSetWord) {
				ip.AppendContextKey(ctx, c.Spelling())
				ip.Bind(c, ctx)
			}
		case MaskAnyArray.Has(c.Kind()):
			ip.BindArrayDeep(c.node, ctx, addSetWords)
		}
	}
}

// Lookup resolves a word to its variable cell. Unbound words and
// stale frame bindings fail; get-style callers convert specific
// error ids to null at their boundary.
func (ip *Interp) Lookup(word *Cell) *Cell {
	binding := word.Binding()
	if binding == nil {
		ip.Fail(ip.ErrorOf(ErrNoValue, word))
	}

	if binding.GetFlag(seriesFlagParamlist) {
		// Relative binding: resolve against the nearest live frame
		// running this action.
		f := ip.topFrame
		for ; f != nil; f = f.prior {
			if f.original == binding || f.phase == binding {
				return CtxVar(f.varlist, word.WordIndex())
			}
		}

		ip.Fail(ip.ErrorOf(ErrNotInContext, word))
	}

	if binding.GetFlag(seriesFlagInaccessible) {
		ip.Fail(ip.ErrorOf(ErrStaleFrame, word))
	}

	return CtxVar(binding, word.WordIndex())
}

// WordIsLive reports whether a word's binding can still be read: a
// varlist-bound word goes stale when the varlist outlived the frame
// that described it.
func (ip *Interp) WordIsLive(word *Cell) bool {
	binding := word.Binding()
	if binding == nil {
		return false
	}

	if binding.GetFlag(seriesFlagParamlist) {
		for f := ip.topFrame; f != nil; f = f.prior {
			if f.original == binding || f.phase == binding {
				return true
			}
		}

		return false
	}

	return !binding.GetFlag(seriesFlagInaccessible)
}

// GetVar reads a word's value. The protected flag only guards
// assignment, not reads.
func (ip *Interp) GetVar(word *Cell) *Cell {
	return ip.Lookup(word)
}

// SetVar writes a word's variable cell.
func (ip *Interp) SetVar(word *Cell, value *Cell) {
	slot := ip.Lookup(word)
	if slot.GetFlag(CellFlagProtected) {
		ip.Fail(ip.ErrorOf(ErrProtected, word))
	}

	preserve := slot.header & CellFlagProtected
	*slot = *value
	slot.header |= preserve
}
