// Released under an MIT license. See LICENSE.

package core

// The evaluator. One step pulls a cell from the frame's feed,
// dispatches on its kind, and leaves the result in the frame's out
// cell. Action calls push a child frame sharing the same feed, so
// argument fulfillment continues from where the action's name was.
//
// Evaluation is strictly left to right within any array; argument
// fulfillment is strictly left to right within any call.

// DoArrayAt evaluates the array from index, leaving the last
// expression's result in out. Returns true if a throw is bubbling.
func (ip *Interp) DoArrayAt(a *Series, index int, out *Cell) bool {
	return ip.DoFeed(NewFeed(a, index), out)
}

// DoFeed evaluates every expression remaining in the feed.
func (ip *Interp) DoFeed(feed *Feed, out *Cell) bool {
	f := ip.pushFrame(feed, out)

	InitVoid(out)

	for !feed.AtEnd() {
		if ip.step(f, false) {
			ip.dropFrame(f)

			return true
		}
	}

	ip.dropFrame(f)

	return false
}

// EvalValue evaluates a single already-scanned value (convenience
// for path groups and the embedding API).
func (ip *Interp) EvalValue(c *Cell, out *Cell) bool {
	one := ip.MakeArray(1)
	ip.AppendValue(one, c)
	ip.Guard(one)

	thrown := ip.DoArrayAt(one, 0, out)

	ip.Unguard(1)
	ip.FreeUnmanaged(one)

	return thrown
}

// step performs one evaluation step. fulfilling is true while the
// step is producing an argument for a pending action, which is what
// an enfix operation with a deferring first parameter waits out.
func (ip *Interp) step(f *Frame, fulfilling bool) bool {
	ip.CheckHalt()
	ip.maybeRecycle()

	depth := ip.Depth()

	if thrown := ip.stepCore(f, fulfilling); thrown {
		return true
	}

	if ip.Depth() != depth {
		ip.panicNode(nil, "data stack unbalanced after evaluator step")
	}

	return ip.lookahead(f, fulfilling)
}

//nolint:funlen
func (ip *Interp) stepCore(f *Frame, fulfilling bool) bool {
	feed := f.feed
	cur := *feed.At()
	feed.Fetch()

	out := f.out

	if QuoteDepth(&cur) > 0 {
		// Strip one quote level; the inner value is not evaluated.
		*out = cur
		ip.Unquotify(out, 1)
		out.SetFlag(CellFlagUnevaluated)

		return false
	}

	switch cur.Kind() {
	case KindWord:
		val := ip.GetVar(&cur)

		if val.Is(KindAction) {
			return ip.runAction(f, val, cur.Spelling(), nil, nil)
		}

		if val.IsNulled() {
			ip.Fail(ip.ErrorOf(ErrNoValue, &cur))
		}

		*out = *val
		out.ClearFlag(CellFlagProtected | CellFlagUnevaluated)

	case KindSetWord:
		if feed.AtEnd() {
			ip.Fail(ip.ErrorOf(ErrNoArg, &cur, &cur))
		}

		if ip.step(f, true) {
			return true
		}

		ip.SetVar(&cur, out)

	case KindGetWord:
		plain := cur
		plain.setKindByte(byte(KindWord))

		val := ip.GetVar(&plain)
		*out = *val
		out.ClearFlag(CellFlagProtected | CellFlagUnevaluated)

	case KindGroup:
		if ip.DoArrayAt(cur.node, cur.Index(), out) {
			return true
		}

	case KindPath:
		thrown, act, refines := ip.pathEval(&cur, out, nil)
		if thrown {
			return true
		}

		if act != nil {
			return ip.runAction(f, act, pathLabel(&cur), nil, refines)
		}

	case KindGetPath:
		thrown, _, _ := ip.pathEval(&cur, out, nil)
		if thrown {
			return true
		}

	case KindSetPath:
		if feed.AtEnd() {
			ip.Fail(ip.ErrorOf(ErrNoArg, &cur, &cur))
		}

		if ip.step(f, true) {
			return true
		}

		if thrown, _, _ := ip.pathEval(&cur, out, out); thrown {
			return true
		}

	case KindAction:
		return ip.runAction(f, &cur, nil, nil, nil)

	case KindVoid:
		// Not executable in value position.
		ip.Fail(ip.ErrorOf(ErrBadValue, &cur))

	case KindEnd, KindNull:
		ip.panicNode(&cur, "end or null cell in evaluable array")

	default:
		// Inert values evaluate to themselves.
		*out = cur
		out.SetFlag(CellFlagUnevaluated)
	}

	return false
}

// lookahead lets an enfix action consume the value just produced as
// its first argument. An enfix action whose defer bit is set yields
// the left argument back to the pending (higher precedence)
// operation: it only takes once the full expression is resolved.
func (ip *Interp) lookahead(f *Frame, fulfilling bool) bool {
	for {
		n := f.feed.At()
		if !n.Is(KindWord) {
			return false
		}

		val := ip.tryGetVar(n)
		if val == nil || !val.Is(KindAction) ||
			!val.GetFlag(CellFlagEnfixed) {
			return false
		}

		if fulfilling && ActDefersLookback(val.node) {
			return false
		}

		spelling := n.Spelling()
		f.feed.Fetch()

		left := *f.out

		if ip.runAction(f, val, spelling, &left, nil) {
			return true
		}
	}
}

// tryGetVar resolves a word without failing: nil for unbound words,
// stale bindings, and unset variables.
func (ip *Interp) tryGetVar(word *Cell) *Cell {
	if !ip.WordIsLive(word) {
		return nil
	}

	binding := word.Binding()
	if binding.GetFlag(seriesFlagParamlist) {
		for fr := ip.topFrame; fr != nil; fr = fr.prior {
			if fr.original == binding || fr.phase == binding {
				return CtxVar(fr.varlist, word.WordIndex())
			}
		}

		return nil
	}

	return CtxVar(binding, word.WordIndex())
}

// runAction invokes an action: allocate the frame's argument slots,
// fulfill each parameter per its class, typecheck, and hand the frame
// to the dispatcher. left, when non-nil, is a lookback first
// argument; refines names path-invoked refinements.
//
//nolint:funlen,gocognit
func (ip *Interp) runAction(parent *Frame, actCell *Cell, label *Series, left *Cell, refines []*Series) bool {
	act := actCell.node
	facade := ActFacade(act)
	n := facade.used - 1

	child := ip.pushFrame(parent.feed, parent.out)
	child.phase = act
	child.original = act
	child.label = label

	varlist := ip.MakeSeries(n+1, cellWide,
		seriesFlagIsArray|seriesFlagVarlist|seriesFlagFixedSize)
	varlist.link.frame = child
	child.varlist = varlist

	var arch Cell

	ip.AppendValue(varlist, InitFrame(&arch, varlist))

	var empty Cell
	for i := 0; i < n; i++ {
		ip.AppendValue(varlist, InitNull(&empty))
	}

	exemplar := ActSpecial(act)
	matched := 0
	active := true

	for i := 1; i <= n; i++ {
		child.paramIdx = i
		param := arrayAt(facade, i)
		arg := CtxVar(varlist, i)
		class := KeyClass(param)

		if exemplar != nil && i <= CtxLen(exemplar) {
			if ex := CtxVar(exemplar, i); !ex.IsNulled() {
				*arg = *ex

				if class == ParamRefinement {
					active = ex.IsTruthy()
				}

				continue
			}
		}

		switch class {
		case ParamRefinement:
			use := false

			for _, r := range refines {
				if SameWord(r, KeySpelling(param)) {
					use = true
					matched++

					break
				}
			}

			InitLogic(arg, use)
			active = use

			continue

		case ParamLocal:
			continue // slot stays null
		}

		if !active {
			continue // argument of an unused refinement
		}

		if left != nil {
			*arg = *left
			left = nil

			continue
		}

		if parent.feed.AtEnd() {
			var pw Cell

			InitWord(&pw, KeySpelling(param))
			ip.Fail(ip.ErrorOf(ErrNoArg, actionName(ip, child), &pw))
		}

		switch class {
		case ParamNormal, ParamTight:
			child.out = arg

			thrown := ip.step(child, true)

			child.out = parent.out

			if thrown {
				*child.out = *arg

				ip.dropFrame(child)

				return true
			}

		case ParamHardQuote:
			*arg = *parent.feed.At()
			arg.SetFlag(CellFlagUnevaluated)
			parent.feed.Fetch()

		case ParamSoftQuote:
			if thrown := ip.fulfillSoft(child, arg); thrown {
				ip.dropFrame(child)

				return true
			}
		}
	}

	if len(refines) > matched {
		ip.Fail(ip.ErrorOf(ErrBadRefines))
	}

	ip.typecheck(child)

	for {
		verdict := ActDispatcher(child.phase)(child)

		switch verdict {
		case VerdictValue, VerdictInvisible:
		case VerdictNull:
			InitNull(child.out)
		case VerdictThrown:
			ip.dropFrame(child)

			return true
		case VerdictRedo:
			child.phase = child.original
			ip.typecheck(child)

			continue
		case VerdictRedoUnchecked:
			child.phase = child.original

			continue
		}

		break
	}

	ip.dropFrame(child)

	return false
}

// fulfillSoft implements the soft-quote discipline: groups are
// evaluated, get-words and get-paths are fetched, anything else is
// taken literally.
func (ip *Interp) fulfillSoft(f *Frame, arg *Cell) bool {
	cur := *f.feed.At()
	f.feed.Fetch()

	switch cur.Kind() {
	case KindGroup:
		return ip.DoArrayAt(cur.node, cur.Index(), arg)

	case KindGetWord:
		plain := cur
		plain.setKindByte(byte(KindWord))

		val := ip.GetVar(&plain)
		*arg = *val
		arg.ClearFlag(CellFlagProtected)

		return false

	case KindGetPath:
		thrown, _, _ := ip.pathEval(&cur, arg, nil)

		return thrown

	default:
		*arg = cur
		arg.SetFlag(CellFlagUnevaluated)

		return false
	}
}

func (ip *Interp) typecheck(f *Frame) {
	facade := f.facade()

	for i := 1; i < facade.used; i++ {
		param := arrayAt(facade, i)
		arg := f.Arg(i)

		class := KeyClass(param)
		if class == ParamRefinement || class == ParamLocal {
			continue
		}

		if arg.IsNulled() {
			// Unused refinement arguments stay null; anything else
			// null means fulfillment was skipped by specialization.
			continue
		}

		mask := KeyTypes(param)
		if mask == 0 {
			continue
		}

		if !mask.Has(arg.Heart()) {
			var pw Cell

			InitWord(&pw, KeySpelling(param))
			ip.Fail(ip.ErrorOf(ErrInvalidArg, &pw))
		}
	}
}

func actionName(ip *Interp, f *Frame) *Cell {
	name := f.label
	if name == nil {
		name = ip.Intern("anonymous")
	}

	c := new(Cell)

	return InitWord(c, name)
}
