// Released under an MIT license. See LICENSE.

package core

// An action is a paramlist: an array whose first cell is the action's
// archetype and whose remaining cells are typeset parameters. The
// paramlist's link points at the facade -- the parameter list of the
// underlying invocation, which differs from the paramlist itself
// under specialization and adaptation -- and misc points at metadata.
// The archetype's extra slot holds the details array; the details
// array carries the dispatcher and whatever the dispatcher needs
// (body, exemplar, underlying action).

// ParamClass is a parameter's evaluation discipline.
type ParamClass byte

// The parameter classes.
const (
	ParamNormal ParamClass = iota
	ParamTight
	ParamHardQuote
	ParamSoftQuote
	ParamRefinement
	ParamLocal
)

const (
	paramMaskBits   = (uint64(1) << 56) - 1
	paramClassShift = 56
)

// KeyClass returns the parameter class of a typeset key.
func KeyClass(key *Cell) ParamClass {
	return ParamClass(key.bits >> paramClassShift)
}

// KeyTypes returns the accepted-types mask of a typeset key. A zero
// mask accepts any value.
func KeyTypes(key *Cell) TypeMask {
	return TypeMask(key.bits & paramMaskBits)
}

// Verdict is what a dispatcher hands back to the action driver.
type Verdict byte

// The dispatcher verdicts.
const (
	// VerdictValue: out holds the result.
	VerdictValue Verdict = iota

	// VerdictNull: the result is the null non-value.
	VerdictNull

	// VerdictInvisible: out is left exactly as the caller had it.
	VerdictInvisible

	// VerdictThrown: out carries a throw label.
	VerdictThrown

	// VerdictRedo: re-run the current phase, re-typechecking.
	VerdictRedo

	// VerdictRedoUnchecked: re-run the current phase as-is.
	VerdictRedoUnchecked
)

// Dispatcher is the Go half of an action.
type Dispatcher func(f *Frame) Verdict

// ParamSpec describes one parameter when building an action.
type ParamSpec struct {
	Name  string
	Class ParamClass
	Types TypeMask
}

// Param is a convenience constructor for ParamSpec.
func Param(name string, class ParamClass, types TypeMask) ParamSpec {
	return ParamSpec{Name: name, Class: class, Types: types}
}

// detailsDispatch is the slot layout shared by every details array:
// slot 0 is owned by the dispatcher flavor.
const (
	detailsBody      = 0 // interpreted: body block
	detailsExemplar  = 0 // specialized: exemplar FRAME!
	detailsPrelude   = 0 // adaptation: prelude block
	detailsUnderlier = 1 // specialized/adaptation: underlying ACTION!
)

// MakeAction builds an action from explicit parameters, a details
// array sized to detailsLen, and a dispatcher. The result is managed:
// actions are immediately shareable.
func (ip *Interp) MakeAction(params []ParamSpec, detailsLen int, d Dispatcher) *Series {
	paramlist := ip.MakeSeries(len(params)+1, cellWide,
		seriesFlagIsArray|seriesFlagParamlist)
	paramlist.link.series = paramlist // facade is itself until composed

	details := ip.MakeArray(detailsLen)
	details.misc.cleanup = nil
	details.misc.series = nil
	details.misc.dispatch = d

	var blank Cell
	for i := 0; i < detailsLen; i++ {
		ip.AppendValue(details, InitBlank(&blank))
	}

	var archetype Cell

	InitAction(&archetype, paramlist)
	archetype.extra = details
	ip.AppendValue(paramlist, &archetype)

	var key Cell
	for _, p := range params {
		makeKey(&key, ip.Intern(p.Name), p.Types, p.Class)
		ip.AppendValue(paramlist, &key)
	}

	// Cache the lookback behavior: an enfix call defers to the
	// expression on its left when its first parameter evaluates
	// normally; a tight first parameter grabs the value mid-flight.
	if len(params) > 0 && params[0].Class == ParamNormal {
		paramlist.SetFlag(seriesFlagDefersLookback)
	}

	ip.Manage(details)

	return ip.Manage(paramlist)
}

// ActArchetype returns the action's identity cell.
func ActArchetype(act *Series) *Cell {
	return arrayAt(act, 0)
}

// ActDetails returns the action's details array.
func ActDetails(act *Series) *Series {
	return ActArchetype(act).extra
}

// ActDispatcher returns the Go dispatcher of the action.
func ActDispatcher(act *Series) Dispatcher {
	return ActDetails(act).misc.dispatch
}

// ActFacade returns the facade: the paramlist governing the argument
// layout of the underlying invocation.
func ActFacade(act *Series) *Series {
	return act.link.series
}

// ActNumParams returns the number of parameters in the facade.
func ActNumParams(act *Series) int {
	return ActFacade(act).used - 1
}

// ActParam returns the typeset parameter at index (1-based).
func ActParam(act *Series, index int) *Cell {
	return arrayAt(ActFacade(act), index)
}

// ActDefersLookback reports the cached enfix defer decision.
func ActDefersLookback(act *Series) bool {
	return act.GetFlag(seriesFlagDefersLookback)
}

// ActMeta returns the action's metadata context, if any.
func ActMeta(act *Series) *Series {
	return act.misc.series
}

// dispatchInterpreted runs a FUNC-built action: evaluate the body,
// converting a RETURN throw aimed at this frame into the result.
func dispatchInterpreted(f *Frame) Verdict {
	ip := f.ip

	body := arrayAt(ActDetails(f.phase), detailsBody)
	if !body.Is(KindBlock) {
		ip.panicNode(body, "interpreted action without body")
	}

	if ip.DoArrayAt(body.node, 0, f.out) {
		if ThrownLabelIs(f.out, throwLabelReturn) {
			ip.CatchThrown(f.out)

			if f.out.IsNulled() {
				return VerdictNull
			}

			return VerdictValue
		}

		return VerdictThrown
	}

	if f.out.IsNulled() {
		return VerdictNull
	}

	return VerdictValue
}

// MakeFunc builds an interpreted action from a parameter list and a
// body block. The body is deep-copied and its parameter words are
// bound relatively to the new paramlist.
func (ip *Interp) MakeFunc(params []ParamSpec, body *Series) *Series {
	act := ip.MakeAction(params, 1, dispatchInterpreted)

	copied := ip.cloneArrayDeep(body, MaskAnyArray, 0)
	ip.bindRelativeDeep(copied, act)
	Freeze(copied)

	InitBlock(writableAt(ActDetails(act), detailsBody), ip.Manage(copied))

	return act
}

// bindRelativeDeep binds every word matching a parameter of act
// relatively to act, so evaluation resolves it against the live
// frame.
func (ip *Interp) bindRelativeDeep(a *Series, act *Series) {
	facade := ActFacade(act)

	for i := 0; i < a.used; i++ {
		c := writableAt(a, i)

		switch {
		case MaskAnyWord.Has(c.Kind()):
			canon := CanonOf(c.Spelling())
			for p := 1; p < facade.used; p++ {
				if CanonOf(KeySpelling(arrayAt(facade, p))) == canon {
					c.BindRelative(act, p)

					break
				}
			}
		case MaskAnyArray.Has(c.Kind()):
			ip.bindRelativeDeep(c.node, act)
		}
	}
}

// dispatchSpecialized fills unfilled frame slots from the exemplar
// and delegates to the underlying phase in the same frame.
func dispatchSpecialized(f *Frame) Verdict {
	details := ActDetails(f.phase)

	under := arrayAt(details, detailsUnderlier)
	if !under.Is(KindAction) {
		f.ip.panicNode(under, "specialization without underlying action")
	}

	f.phase = under.node

	return ActDispatcher(under.node)(f)
}

// Specialize builds an action with some arguments fixed. The exemplar
// holds the fixed values; fulfillment consults it and skips feed
// consumption for filled slots, keeping the underlying argument
// layout (the facade) intact.
func (ip *Interp) Specialize(act *Series, exemplar *Series) *Series {
	sp := ip.MakeAction(nil, 2, dispatchSpecialized)

	// Share the underlying facade so the frame is laid out for the
	// underlying action, not for the (empty) surface paramlist.
	sp.link.series = ActFacade(act)

	details := ActDetails(sp)
	InitFrame(writableAt(details, detailsExemplar), ip.Manage(exemplar))

	var under Cell

	InitAction(&under, act)
	*writableAt(details, detailsUnderlier) = under

	return sp
}

// ActSpecial returns the exemplar consulted during fulfillment, or
// nil for ordinary actions.
func ActSpecial(act *Series) *Series {
	details := ActDetails(act)
	if details.used <= detailsExemplar {
		return nil
	}

	ex := arrayAt(details, detailsExemplar)
	if !ex.Is(KindFrame) {
		return nil
	}

	return ex.node
}

// dispatchAdapted evaluates the prelude in the frame, then delegates
// to the underlying phase.
func dispatchAdapted(f *Frame) Verdict {
	ip := f.ip
	details := ActDetails(f.phase)

	prelude := arrayAt(details, detailsPrelude)
	if prelude.Is(KindBlock) {
		var scratch Cell

		if ip.DoArrayAt(prelude.node, 0, &scratch) {
			*f.out = scratch

			return VerdictThrown
		}
	}

	under := arrayAt(details, detailsUnderlier)
	f.phase = under.node

	return ActDispatcher(under.node)(f)
}

// Adapt builds an action that runs a prelude block before the
// underlying action, sharing its frame and facade.
func (ip *Interp) Adapt(act *Series, prelude *Series) *Series {
	ad := ip.MakeAction(nil, 2, dispatchAdapted)
	ad.link.series = ActFacade(act)

	details := ActDetails(ad)

	copied := ip.cloneArrayDeep(prelude, MaskAnyArray, 0)
	ip.bindRelativeDeep(copied, ad)
	InitBlock(writableAt(details, detailsPrelude), ip.Manage(copied))

	var under Cell

	InitAction(&under, act)
	*writableAt(details, detailsUnderlier) = under

	return ad
}

// SetEnfix marks an action cell as taking its first argument from the
// left of the source expression.
func SetEnfix(c *Cell) *Cell {
	c.SetFlag(CellFlagEnfixed)

	return c
}
