// Released under an MIT license. See LICENSE.

package core

import (
	"strings"
	"unicode/utf8"
)

// Path traversal. A path is an array of steps walked left to right;
// each step picks inside the value produced so far, with the pick
// discipline chosen per kind through a hook table. Reaching an
// ACTION! stops the walk: the remaining steps name refinements and
// the caller invokes the action with them.
//
// Some picks have no stable cell to point at. A date's year is packed
// into the date's bits, so setting my-date/year unpacks, updates, and
// writes the packed field back.

type pathHook struct {
	pick func(ip *Interp, v, picker, out *Cell) bool
	poke func(ip *Interp, v, picker, nv *Cell) bool

	// site returns the addressable storage cell a pick would read,
	// or nil when picks of this kind produce synthesized values. It
	// is what lets a poke on a bits-packed value (a date's year)
	// land back in the container.
	site func(ip *Interp, v, picker *Cell) *Cell
}

//nolint:funlen
func defaultPathHooks() map[Kind]pathHook {
	array := pathHook{pick: pickArray, poke: pokeArray, site: siteArray}
	ctx := pathHook{pick: pickContext, poke: pokeContext, site: siteContext}

	return map[Kind]pathHook{
		KindBlock:   array,
		KindGroup:   array,
		KindPath:    array,
		KindSetPath: array,
		KindGetPath: array,
		KindObject:  ctx,
		KindFrame:   ctx,
		KindError:   ctx,
		KindMap:     {pick: pickMap, poke: pokeMap},
		KindText:    {pick: pickText, poke: pokeText},
		KindBinary:  {pick: pickBinary, poke: pokeBinary},
		KindPair:    {pick: pickPair, poke: pokePair},
		KindDate:    {pick: pickDate, poke: pokeDate},
	}
}

// pathLabel returns the spelling of the path's head word, for frame
// labels and error reports.
func pathLabel(pc *Cell) *Series {
	head := arrayAt(pc.node, pc.Index())
	if MaskAnyWord.Has(head.Kind()) {
		return head.Spelling()
	}

	return nil
}

// pathEval walks the path. With setval nil this is a get: the picked
// value lands in out, and if an ACTION! is reached mid-path its cell
// and the trailing refinement spellings are returned for invocation.
// With setval non-nil the walk stops one step short and pokes setval
// at the final picker.
//
//nolint:funlen,gocognit
func (ip *Interp) pathEval(pc *Cell, out *Cell, setval *Cell) (bool, *Cell, []*Series) {
	a := pc.node
	first := pc.Index()
	last := a.used - 1

	if first > last {
		ip.Fail(ip.ErrorOf(ErrBadValue, pc))
	}

	// Poking through a path with a single step is plain assignment.
	if setval != nil && first == last {
		head := arrayAt(a, first)
		nv := *setval
		ip.SetVar(head, &nv)

		return false, nil, nil
	}

	head := arrayAt(a, first)

	// slot tracks the addressable storage holding the current value,
	// so a poke that rewrites a packed payload can land back in it.
	var slot *Cell

	switch {
	case MaskAnyWord.Has(head.Kind()):
		val := ip.GetVar(head)
		if val.IsNulled() {
			ip.Fail(ip.ErrorOf(ErrNoValue, head))
		}

		slot = val
		*out = *val
		out.ClearFlag(CellFlagProtected)

	case head.Is(KindGroup):
		if ip.DoArrayAt(head.node, head.Index(), out) {
			return true, nil, nil
		}

	default:
		*out = *head
	}

	for i := first + 1; i <= last; i++ {
		if out.Is(KindAction) {
			refines, thrown := ip.pathRefinements(a, i, out)
			if thrown {
				return true, nil, nil
			}

			act := *out

			return false, &act, refines
		}

		var picker Cell

		step := arrayAt(a, i)
		if step.Is(KindGroup) {
			if ip.DoArrayAt(step.node, step.Index(), &picker) {
				*out = picker

				return true, nil, nil
			}
		} else {
			picker = *step
		}

		hook, ok := ip.pathHooks[out.Kind()]

		if setval != nil && i == last {
			if !ok || hook.poke == nil {
				ip.Fail(ip.ErrorOf(ErrBadPathPoke, &picker))
			}

			target := *out
			nv := *setval

			if !hook.poke(ip, &target, &picker, &nv) {
				ip.Fail(ip.ErrorOf(ErrBadPathPoke, &picker))
			}

			// A poke that rewrote the value itself (packed payloads
			// like a date's fields) lands back in its storage cell.
			if slot != nil && !Equal(slot, &target) {
				if slot.GetFlag(CellFlagProtected) {
					ip.Fail(ip.ErrorOf(ErrProtected, &picker))
				}

				*slot = target
			}

			return false, nil, nil
		}

		if !ok || hook.pick == nil {
			ip.Fail(ip.ErrorOf(ErrBadPathPick, &picker))
		}

		if hook.site != nil {
			slot = hook.site(ip, out, &picker)
		} else {
			slot = nil
		}

		v := *out
		if !hook.pick(ip, &v, &picker, out) {
			ip.Fail(ip.ErrorOf(ErrBadPathPick, &picker))
		}
	}

	if out.Is(KindAction) && setval == nil {
		act := *out

		return false, &act, nil
	}

	return false, nil, nil
}

// pathRefinements collects the trailing steps of an action path as
// refinement spellings. Groups evaluate; each result must be a word.
func (ip *Interp) pathRefinements(a *Series, from int, out *Cell) ([]*Series, bool) {
	var refines []*Series

	for i := from; i < a.used; i++ {
		step := arrayAt(a, i)

		var r Cell

		if step.Is(KindGroup) {
			if ip.DoArrayAt(step.node, step.Index(), &r) {
				*out = r

				return nil, true
			}
		} else {
			r = *step
		}

		if !MaskAnyWord.Has(r.Kind()) {
			ip.Fail(ip.ErrorOf(ErrBadRefines))
		}

		refines = append(refines, r.Spelling())
	}

	return refines, false
}

// Per-kind pick and poke disciplines.

func pickArray(ip *Interp, v, picker, out *Cell) bool {
	switch picker.Kind() {
	case KindInteger:
		i := v.Index() + int(picker.Int64()) - 1
		if i < v.Index() || i >= v.node.used {
			InitNull(out)

			return true
		}

		*out = *arrayAt(v.node, i)
	case KindWord:
		// SELECT discipline: the value after the matching word.
		a := v.node
		for i := v.Index(); i+1 < a.used; i++ {
			c := arrayAt(a, i)
			if MaskAnyWord.Has(c.Kind()) &&
				SameWord(c.Spelling(), picker.Spelling()) {
				*out = *arrayAt(a, i+1)

				return true
			}
		}

		InitNull(out)
	default:
		return false
	}

	return true
}

func pokeArray(ip *Interp, v, picker, nv *Cell) bool {
	ip.EnsureMutable(v.node, v)

	switch picker.Kind() {
	case KindInteger:
		i := v.Index() + int(picker.Int64()) - 1
		if i < v.Index() || i >= v.node.used {
			ip.Fail(ip.ErrorOf(ErrIndexPastEnd, picker))
		}

		*writableAt(v.node, i) = *nv
	case KindWord:
		a := v.node
		for i := v.Index(); i+1 < a.used; i++ {
			c := arrayAt(a, i)
			if MaskAnyWord.Has(c.Kind()) &&
				SameWord(c.Spelling(), picker.Spelling()) {
				*writableAt(a, i+1) = *nv

				return true
			}
		}

		ip.Fail(ip.ErrorOf(ErrNotInContext, picker))
	default:
		return false
	}

	return true
}

func siteArray(ip *Interp, v, picker *Cell) *Cell {
	if picker.Kind() != KindInteger {
		return nil
	}

	i := v.Index() + int(picker.Int64()) - 1
	if i < v.Index() || i >= v.node.used {
		return nil
	}

	return arrayAt(v.node, i)
}

func siteContext(ip *Interp, v, picker *Cell) *Cell {
	if !MaskAnyWord.Has(picker.Kind()) {
		return nil
	}

	idx := FindContextKey(v.node, picker.Spelling())
	if idx == 0 {
		return nil
	}

	return CtxVar(v.node, idx)
}

func pickContext(ip *Interp, v, picker, out *Cell) bool {
	if !MaskAnyWord.Has(picker.Kind()) {
		return false
	}

	idx := FindContextKey(v.node, picker.Spelling())
	if idx == 0 {
		ip.Fail(ip.ErrorOf(ErrNotInContext, picker))
	}

	*out = *CtxVar(v.node, idx)
	out.ClearFlag(CellFlagProtected)

	return true
}

func pokeContext(ip *Interp, v, picker, nv *Cell) bool {
	if !MaskAnyWord.Has(picker.Kind()) {
		return false
	}

	idx := FindContextKey(v.node, picker.Spelling())
	if idx == 0 {
		ip.Fail(ip.ErrorOf(ErrNotInContext, picker))
	}

	slot := CtxVar(v.node, idx)
	if slot.GetFlag(CellFlagProtected) {
		ip.Fail(ip.ErrorOf(ErrProtected, picker))
	}

	*slot = *nv

	return true
}

// pickMap follows SELECT discipline: an absent key picks null rather
// than failing.
func pickMap(ip *Interp, v, picker, out *Cell) bool {
	ip.MapGet(v.node, picker, out)

	return true
}

func pokeMap(ip *Interp, v, picker, nv *Cell) bool {
	ip.EnsureMutable(v.node, v)
	ip.MapSet(v.node, picker, nv)

	return true
}

func pickText(ip *Interp, v, picker, out *Cell) bool {
	if picker.Kind() != KindInteger {
		return false
	}

	r, ok := textRuneAt(v.node, v.Index()+int(picker.Int64())-1)
	if !ok {
		InitNull(out)

		return true
	}

	InitChar(out, r)

	return true
}

func pokeText(ip *Interp, v, picker, nv *Cell) bool {
	if picker.Kind() != KindInteger || nv.Kind() != KindChar {
		return false
	}

	ip.EnsureMutable(v.node, v)

	return textSetRuneAt(ip, v.node, v.Index()+int(picker.Int64())-1, nv.Rune())
}

// textRuneAt decodes the rune at rune position i (relative to the
// start of the series data).
func textRuneAt(s *Series, i int) (rune, bool) {
	if i < 0 {
		return 0, false
	}

	data := s.Data()
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if i == 0 {
			return r, true
		}

		i--
		data = data[size:]
	}

	return 0, false
}

// textSetRuneAt replaces the rune at rune position i, resizing the
// byte storage when the encodings differ in width.
func textSetRuneAt(ip *Interp, s *Series, i int, r rune) bool {
	if i < 0 {
		return false
	}

	off := 0
	data := s.Data()

	for i > 0 {
		if off >= len(data) {
			return false
		}

		_, size := utf8.DecodeRune(data[off:])
		off += size
		i--
	}

	if off >= len(data) {
		return false
	}

	_, oldSize := utf8.DecodeRune(data[off:])

	var buf [utf8.UTFMax]byte

	newSize := utf8.EncodeRune(buf[:], r)

	switch {
	case newSize > oldSize:
		ip.Expand(s, off, newSize-oldSize)
	case newSize < oldSize:
		ip.RemoveUnits(s, off, oldSize-newSize)
	}

	copy(s.Data()[off:], buf[:newSize])

	return true
}

func pickBinary(ip *Interp, v, picker, out *Cell) bool {
	if picker.Kind() != KindInteger {
		return false
	}

	i := v.Index() + int(picker.Int64()) - 1
	if i < v.Index() || i >= v.node.used {
		InitNull(out)

		return true
	}

	InitInteger(out, int64(v.node.At(i)))

	return true
}

func pokeBinary(ip *Interp, v, picker, nv *Cell) bool {
	if picker.Kind() != KindInteger || nv.Kind() != KindInteger {
		return false
	}

	ip.EnsureMutable(v.node, v)

	i := v.Index() + int(picker.Int64()) - 1
	if i < v.Index() || i >= v.node.used {
		ip.Fail(ip.ErrorOf(ErrIndexPastEnd, picker))
	}

	b := nv.Int64()
	if b < 0 || b > 255 {
		ip.Fail(ip.ErrorOf(ErrOutOfRange, nv))
	}

	v.node.Head()[i] = byte(b)

	return true
}

func pickPair(ip *Interp, v, picker, out *Cell) bool {
	half, ok := pairHalf(v, picker)
	if !ok {
		return false
	}

	*out = *half

	return true
}

func pokePair(ip *Interp, v, picker, nv *Cell) bool {
	half, ok := pairHalf(v, picker)
	if !ok {
		return false
	}

	*half = *nv

	return true
}

// foldedPick is the case-insensitive spelling of a word picker. The
// canon's literal spelling depends on interning order, so named field
// picks fold the picker itself instead.
func foldedPick(picker *Cell) string {
	return strings.ToLower(SpellingOf(picker.Spelling()))
}

func pairHalf(v, picker *Cell) (*Cell, bool) {
	switch {
	case picker.Is(KindInteger) && picker.Int64() == 1,
		picker.Is(KindWord) && foldedPick(picker) == "x":
		return v.pairing.First(), true
	case picker.Is(KindInteger) && picker.Int64() == 2,
		picker.Is(KindWord) && foldedPick(picker) == "y":
		return v.pairing.Second(), true
	}

	return nil, false
}

func pickDate(ip *Interp, v, picker, out *Cell) bool {
	if !picker.Is(KindWord) {
		return false
	}

	year, month, day, zone := v.DateParts()

	switch foldedPick(picker) {
	case "year":
		InitInteger(out, int64(year))
	case "month":
		InitInteger(out, int64(month))
	case "day":
		InitInteger(out, int64(day))
	case "zone":
		InitTime(out, int64(zone)*15*60*1e9)
	default:
		return false
	}

	return true
}

// pokeDate edits one packed field in place; the caller writes the
// whole rewritten date back into the storage cell the walk tracked.
func pokeDate(ip *Interp, v, picker, nv *Cell) bool {
	if !picker.Is(KindWord) || !nv.Is(KindInteger) {
		return false
	}

	year, month, day, zone := v.DateParts()

	n := int(nv.Int64())

	switch foldedPick(picker) {
	case "year":
		year = n
	case "month":
		if n < 1 || n > 12 {
			ip.Fail(ip.ErrorOf(ErrOutOfRange, nv))
		}

		month = n
	case "day":
		if n < 1 || n > 31 {
			ip.Fail(ip.ErrorOf(ErrOutOfRange, nv))
		}

		day = n
	default:
		return false
	}

	InitDate(v, year, month, day, zone)

	return true
}
