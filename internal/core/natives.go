// Released under an MIT license. See LICENSE.

package core

import "strings"

// The built-in actions. Each native is a Go dispatcher reading its
// arguments from the frame the evaluator fulfilled; registration
// collects them into the library context. Natives that run blocks
// propagate throws by returning VerdictThrown with the label left in
// out; the loop natives intercept their own break and continue
// labels instead of propagating them.

func anyType() TypeMask { return 0 }

//nolint:funlen
func (ip *Interp) registerNatives() {
	n := ip.addNative

	blocky := TypeMask(1 << KindBlock)
	branch := TypeMask(1<<KindBlock | 1<<KindAction)
	wordy := MaskAnyWord
	series := MaskAnySeries

	// Quoting.
	n("quote", false, []ParamSpec{
		Param("value", ParamNormal, anyType()),
	}, natQuote)
	n("unquote", false, []ParamSpec{
		Param("value", ParamNormal, anyType()),
	}, natUnquote)
	n("the", false, []ParamSpec{
		Param("value", ParamHardQuote, anyType()),
	}, natThe)
	n("quoted?", false, []ParamSpec{
		Param("value", ParamNormal, anyType()),
	}, natQuotedQ)

	// Evaluation and control flow.
	n("do", false, []ParamSpec{
		Param("source", ParamNormal, 1<<KindBlock|1<<KindGroup),
	}, natDo)
	n("reduce", false, []ParamSpec{
		Param("block", ParamNormal, blocky),
	}, natReduce)
	n("if", false, []ParamSpec{
		Param("condition", ParamNormal, anyType()),
		Param("branch", ParamNormal, branch),
	}, natIf)
	n("either", false, []ParamSpec{
		Param("condition", ParamNormal, anyType()),
		Param("true-branch", ParamNormal, branch),
		Param("false-branch", ParamNormal, branch),
	}, natEither)
	n("while", false, []ParamSpec{
		Param("condition", ParamNormal, blocky),
		Param("body", ParamNormal, blocky),
	}, natWhile)
	n("loop", false, []ParamSpec{
		Param("count", ParamNormal, 1<<KindInteger),
		Param("body", ParamNormal, blocky),
	}, natLoop)
	n("repeat", false, []ParamSpec{
		Param("word", ParamHardQuote, wordy),
		Param("count", ParamNormal, 1<<KindInteger),
		Param("body", ParamNormal, blocky),
	}, natRepeat)
	n("catch", false, []ParamSpec{
		Param("block", ParamNormal, blocky),
	}, natCatch)
	n("throw", false, []ParamSpec{
		Param("value", ParamNormal, anyType()),
	}, natThrow)
	n("break", false, nil, natBreak)
	n("continue", false, nil, natContinue)
	n("return", false, []ParamSpec{
		Param("value", ParamNormal, anyType()),
	}, natReturn)
	n("quit", false, nil, natQuit)

	// Failure handling.
	n("try", false, []ParamSpec{
		Param("block", ParamNormal, blocky),
	}, natTry)
	n("attempt", false, []ParamSpec{
		Param("block", ParamNormal, blocky),
	}, natAttempt)
	n("fail", false, []ParamSpec{
		Param("reason", ParamNormal, 1<<KindText|1<<KindError),
	}, natFail)

	// Function building.
	n("func", false, []ParamSpec{
		Param("spec", ParamNormal, blocky),
		Param("body", ParamNormal, blocky),
	}, natFunc)
	n("does", false, []ParamSpec{
		Param("body", ParamNormal, blocky),
	}, natDoes)
	n("specialize", false, []ParamSpec{
		Param("action", ParamNormal, 1<<KindAction),
		Param("args", ParamNormal, blocky),
	}, natSpecialize)
	n("adapt", false, []ParamSpec{
		Param("action", ParamNormal, 1<<KindAction),
		Param("prelude", ParamNormal, blocky),
	}, natAdapt)
	n("enfix", false, []ParamSpec{
		Param("action", ParamNormal, 1<<KindAction),
	}, natEnfix)

	// Invisibles.
	n("comment", false, []ParamSpec{
		Param("ignored", ParamHardQuote, anyType()),
	}, natComment)
	n("elide", false, []ParamSpec{
		Param("ignored", ParamNormal, anyType()),
	}, natElide)

	// Variables.
	n("set", false, []ParamSpec{
		Param("word", ParamNormal, wordy),
		Param("value", ParamNormal, anyType()),
	}, natSet)
	n("get", false, []ParamSpec{
		Param("word", ParamNormal, wordy),
	}, natGet)
	n("protect", false, []ParamSpec{
		Param("word", ParamNormal, wordy),
	}, natProtect)
	n("unprotect", false, []ParamSpec{
		Param("word", ParamNormal, wordy),
	}, natUnprotect)

	// Output.
	n("print", false, []ParamSpec{
		Param("value", ParamNormal, anyType()),
	}, natPrint)
	n("probe", false, []ParamSpec{
		Param("value", ParamNormal, anyType()),
	}, natProbe)
	n("mold", false, []ParamSpec{
		Param("value", ParamNormal, anyType()),
	}, natMold)
	n("form", false, []ParamSpec{
		Param("value", ParamNormal, anyType()),
	}, natForm)

	// Series.
	n("copy", false, []ParamSpec{
		Param("value", ParamNormal, series|1<<KindMap),
		Param("deep", ParamRefinement, 0),
	}, natCopy)
	n("append", false, []ParamSpec{
		Param("series", ParamNormal, series),
		Param("value", ParamNormal, anyType()),
		Param("only", ParamRefinement, 0),
	}, natAppend)
	n("insert", false, []ParamSpec{
		Param("series", ParamNormal, series),
		Param("value", ParamNormal, anyType()),
	}, natInsert)
	n("remove", false, []ParamSpec{
		Param("series", ParamNormal, series),
		Param("part", ParamRefinement, 0),
		Param("count", ParamNormal, 1<<KindInteger),
	}, natRemove)
	n("pick", false, []ParamSpec{
		Param("value", ParamNormal, anyType()),
		Param("picker", ParamNormal, anyType()),
	}, natPick)
	n("poke", false, []ParamSpec{
		Param("value", ParamNormal, anyType()),
		Param("picker", ParamNormal, anyType()),
		Param("new", ParamNormal, anyType()),
	}, natPoke)
	n("select", false, []ParamSpec{
		Param("value", ParamNormal, series|1<<KindMap),
		Param("key", ParamNormal, anyType()),
	}, natSelect)
	n("length-of", false, []ParamSpec{
		Param("value", ParamNormal, series|MaskAnyContext|1<<KindMap),
	}, natLengthOf)
	n("head", false, []ParamSpec{
		Param("series", ParamNormal, series),
	}, natHead)
	n("tail", false, []ParamSpec{
		Param("series", ParamNormal, series),
	}, natTail)
	n("next", false, []ParamSpec{
		Param("series", ParamNormal, series),
	}, natNext)
	n("back", false, []ParamSpec{
		Param("series", ParamNormal, series),
	}, natBack)
	n("skip", false, []ParamSpec{
		Param("series", ParamNormal, series),
		Param("offset", ParamNormal, 1<<KindInteger),
	}, natSkip)
	n("first", false, []ParamSpec{
		Param("series", ParamNormal, series),
	}, natFirst)
	n("freeze", false, []ParamSpec{
		Param("value", ParamNormal, series|1<<KindMap),
	}, natFreeze)

	// Construction and reflection.
	n("make", false, []ParamSpec{
		Param("type", ParamNormal, 1<<KindDatatype),
		Param("spec", ParamNormal, anyType()),
	}, natMake)
	n("to", false, []ParamSpec{
		Param("type", ParamNormal, 1<<KindDatatype),
		Param("value", ParamNormal, anyType()),
	}, natTo)
	n("type-of", false, []ParamSpec{
		Param("value", ParamNormal, anyType()),
	}, natTypeOf)
	n("recycle", false, nil, natRecycle)

	// Logic and math. The operators are enfix with a tight left
	// argument, so chains run strictly left to right; THEN and ELSE
	// defer, waiting for the whole expression on their left.
	n("not", false, []ParamSpec{
		Param("value", ParamNormal, anyType()),
	}, natNot)
	n("add", false, mathParams(), natAdd)
	n("subtract", false, mathParams(), natSubtract)
	n("multiply", false, mathParams(), natMultiply)
	n("divide", false, mathParams(), natDivide)
	n("+", true, mathOpParams(), natAdd)
	n("-", true, mathOpParams(), natSubtract)
	n("*", true, mathOpParams(), natMultiply)
	n("equal?", false, cmpParams(false), natEqualQ)
	n("=", true, cmpParams(true), natEqualQ)
	n("<", true, cmpParams(true), natLesserQ)
	n(">", true, cmpParams(true), natGreaterQ)
	n("then", true, []ParamSpec{
		Param("optional", ParamNormal, anyType()),
		Param("branch", ParamNormal, branch),
	}, natThen)
	n("else", true, []ParamSpec{
		Param("optional", ParamNormal, anyType()),
		Param("branch", ParamNormal, branch),
	}, natElse)

	// Datatype words.
	for k := KindVoid; k < KindQuoted; k++ {
		var dt Cell

		InitDatatype(&dt, k)
		slot := ip.AppendContextKey(ip.lib, ip.Intern(k.Name()))
		*slot = dt
	}

	var logic Cell

	*ip.AppendContextKey(ip.lib, ip.Intern("true")) = *InitLogic(&logic, true)
	*ip.AppendContextKey(ip.lib, ip.Intern("false")) = *InitLogic(&logic, false)
}

func mathParams() []ParamSpec {
	return []ParamSpec{
		Param("value1", ParamNormal, 1<<KindInteger|1<<KindDecimal|1<<KindPercent),
		Param("value2", ParamNormal, 1<<KindInteger|1<<KindDecimal|1<<KindPercent),
	}
}

func mathOpParams() []ParamSpec {
	p := mathParams()
	p[0].Class = ParamTight

	return p
}

func cmpParams(op bool) []ParamSpec {
	class := ParamNormal
	if op {
		class = ParamTight
	}

	return []ParamSpec{
		Param("value1", class, 0),
		Param("value2", ParamNormal, 0),
	}
}

// AddNative defines an action named name in the library context.
// Extensions use this to contribute natives of their own.
func (ip *Interp) AddNative(name string, enfix bool, params []ParamSpec, d Dispatcher) {
	ip.addNative(name, enfix, params, d)
}

func (ip *Interp) addNative(name string, enfix bool, params []ParamSpec, d Dispatcher) {
	act := ip.MakeAction(params, 0, d)

	var c Cell

	InitAction(&c, act)

	if enfix {
		SetEnfix(&c)
	}

	slot := ip.AppendContextKey(ip.lib, ip.Intern(name))
	*slot = c
}

func (ip *Interp) makeText(s string) *Series {
	t := ip.MakeBinary(len(s))
	ip.AppendBytes(t, []byte(s))

	return ip.Manage(t)
}

// runBranch evaluates a branch value: blocks run, actions are called
// with no arguments, anything else is the result as-is.
func runBranch(f *Frame, branch *Cell) Verdict {
	ip := f.ip

	switch branch.Kind() {
	case KindBlock:
		if ip.DoArrayAt(branch.node, branch.Index(), f.out) {
			return VerdictThrown
		}
	case KindAction:
		if ip.runAction(f, branch, nil, nil, nil) {
			return VerdictThrown
		}
	default:
		*f.out = *branch
	}

	if f.out.IsNulled() {
		return VerdictNull
	}

	return VerdictValue
}

// Quoting.

func natQuote(f *Frame) Verdict {
	*f.out = *f.Arg(1)
	f.ip.Quotify(f.out, 1)

	return VerdictValue
}

func natUnquote(f *Frame) Verdict {
	arg := f.Arg(1)
	if QuoteDepth(arg) == 0 {
		f.ip.Fail(f.ip.ErrorOf(ErrInvalidArg, arg))
	}

	*f.out = *arg
	f.ip.Unquotify(f.out, 1)

	return VerdictValue
}

func natThe(f *Frame) Verdict {
	*f.out = *f.Arg(1)
	f.out.ClearFlag(CellFlagUnevaluated)

	return VerdictValue
}

func natQuotedQ(f *Frame) Verdict {
	InitLogic(f.out, QuoteDepth(f.Arg(1)) > 0)

	return VerdictValue
}

// Evaluation and control flow.

func natDo(f *Frame) Verdict {
	src := f.Arg(1)
	if f.ip.DoArrayAt(src.node, src.Index(), f.out) {
		return VerdictThrown
	}

	if f.out.IsNulled() {
		return VerdictNull
	}

	return VerdictValue
}

func natReduce(f *Frame) Verdict {
	ip := f.ip
	src := f.Arg(1)

	out := ip.MakeArray(src.node.used - src.Index())
	ip.Guard(out)

	feed := NewFeed(src.node, src.Index())
	sub := ip.pushFrame(feed, f.out)

	for !feed.AtEnd() {
		if ip.step(sub, false) {
			ip.dropFrame(sub)
			ip.Unguard(1)
			ip.FreeUnmanaged(out)

			return VerdictThrown
		}

		if !f.out.IsNulled() {
			ip.AppendValue(out, f.out)
		}
	}

	ip.dropFrame(sub)
	ip.Unguard(1)

	InitBlock(f.out, ip.Manage(out))

	return VerdictValue
}

func natIf(f *Frame) Verdict {
	if !f.Arg(1).IsTruthy() {
		return VerdictNull
	}

	return runBranch(f, f.Arg(2))
}

func natEither(f *Frame) Verdict {
	if f.Arg(1).IsTruthy() {
		return runBranch(f, f.Arg(2))
	}

	return runBranch(f, f.Arg(3))
}

// loopVerdict folds a thrown body result into the loop's fate:
// continue resumes, break exits with null, anything else propagates.
func loopVerdict(f *Frame) (Verdict, bool) {
	ip := f.ip

	if ThrownLabelIs(f.out, throwLabelContinue) {
		ip.CatchThrown(f.out)

		return VerdictValue, false
	}

	if ThrownLabelIs(f.out, throwLabelBreak) {
		ip.CatchThrown(f.out)

		return VerdictNull, true
	}

	return VerdictThrown, true
}

func natWhile(f *Frame) Verdict {
	ip := f.ip
	cond := f.Arg(1)
	body := f.Arg(2)

	result := VerdictNull

	for {
		var c Cell

		if ip.DoArrayAt(cond.node, cond.Index(), &c) {
			*f.out = c

			return VerdictThrown
		}

		if !c.IsTruthy() {
			return result
		}

		if ip.DoArrayAt(body.node, body.Index(), f.out) {
			v, done := loopVerdict(f)
			if done {
				return v
			}

			continue
		}

		result = VerdictValue
	}
}

func natLoop(f *Frame) Verdict {
	ip := f.ip
	count := f.Arg(1).Int64()
	body := f.Arg(2)

	result := VerdictNull

	for i := int64(0); i < count; i++ {
		if ip.DoArrayAt(body.node, body.Index(), f.out) {
			v, done := loopVerdict(f)
			if done {
				return v
			}

			continue
		}

		result = VerdictValue
	}

	return result
}

func natRepeat(f *Frame) Verdict {
	ip := f.ip
	word := f.Arg(1)
	count := f.Arg(2).Int64()
	body := f.Arg(3)

	// The loop variable lives in a one-slot context the body copy is
	// bound into.
	ctx := ip.MakeContext(KindObject, 1)
	ip.AppendContextKey(ctx, word.Spelling())
	ip.Manage(ctx)
	ip.Guard(ctx)

	copied := ip.Manage(ip.cloneArrayDeep(body.node, MaskAnyArray, 0))
	ip.Guard(copied)
	ip.BindArrayDeep(copied, ctx, false)

	defer ip.Unguard(2)

	result := VerdictNull

	for i := int64(1); i <= count; i++ {
		InitInteger(CtxVar(ctx, 1), i)

		if ip.DoArrayAt(copied, 0, f.out) {
			v, done := loopVerdict(f)
			if done {
				return v
			}

			continue
		}

		result = VerdictValue
	}

	return result
}

func natCatch(f *Frame) Verdict {
	ip := f.ip
	body := f.Arg(1)

	if ip.DoArrayAt(body.node, body.Index(), f.out) {
		if ThrownLabelIs(f.out, throwLabelThrow) {
			ip.CatchThrown(f.out)

			if f.out.IsNulled() {
				return VerdictNull
			}

			return VerdictValue
		}

		return VerdictThrown
	}

	return VerdictNull
}

func natThrow(f *Frame) Verdict {
	return f.ip.throwNamed(f.out, throwLabelThrow, f.Arg(1))
}

func natBreak(f *Frame) Verdict {
	return f.ip.throwNamed(f.out, throwLabelBreak, nil)
}

func natContinue(f *Frame) Verdict {
	return f.ip.throwNamed(f.out, throwLabelContinue, nil)
}

func natReturn(f *Frame) Verdict {
	return f.ip.throwNamed(f.out, throwLabelReturn, f.Arg(1))
}

func natQuit(f *Frame) Verdict {
	return f.ip.throwNamed(f.out, throwLabelQuit, nil)
}

// Failure handling.

func natTry(f *Frame) Verdict {
	ip := f.ip
	body := f.Arg(1)

	thrown := false

	if err := ip.Trap(func() {
		thrown = ip.DoArrayAt(body.node, body.Index(), f.out)
	}); err != nil {
		InitError(f.out, err)

		return VerdictValue
	}

	if thrown {
		return VerdictThrown
	}

	if f.out.IsNulled() {
		return VerdictNull
	}

	return VerdictValue
}

func natAttempt(f *Frame) Verdict {
	ip := f.ip
	body := f.Arg(1)

	thrown := false

	if err := ip.Trap(func() {
		thrown = ip.DoArrayAt(body.node, body.Index(), f.out)
	}); err != nil {
		return VerdictNull
	}

	if thrown {
		return VerdictThrown
	}

	if f.out.IsNulled() {
		return VerdictNull
	}

	return VerdictValue
}

func natFail(f *Frame) Verdict {
	f.ip.Fail(f.Arg(1))

	return VerdictNull // unreachable
}

// Function building.

// parseSpec reads a FUNC spec block: words take their argument
// normally, quoted words literally, get-words softly; a leading
// slash marks a refinement and everything after it its arguments.
func (ip *Interp) parseSpec(spec *Cell) []ParamSpec {
	var params []ParamSpec

	a := spec.node
	for i := spec.Index(); i < a.used; i++ {
		c := arrayAt(a, i)

		switch {
		case c.Is(KindText):
			// Doc string; ignored here.
		case QuoteDepth(c) == 1 && c.Heart() == KindWord:
			u := Unquoted(c)
			params = append(params,
				Param(SpellingOf(u.Spelling()), ParamHardQuote, 0))
		case c.Is(KindWord):
			params = append(params,
				Param(SpellingOf(c.Spelling()), ParamNormal, 0))
		case c.Is(KindGetWord):
			params = append(params,
				Param(SpellingOf(c.Spelling()), ParamSoftQuote, 0))
		case isRefinementPath(c):
			params = append(params,
				Param(refinementName(c), ParamRefinement, 0))
		case c.Is(KindSetWord):
			// Treated as a local.
			params = append(params,
				Param(SpellingOf(c.Spelling()), ParamLocal, 0))
		case c.Is(KindBlock):
			// Type block for the preceding parameter.
			if len(params) > 0 {
				params[len(params)-1].Types = ip.typesFromBlock(c)
			}
		default:
			ip.Fail(ip.ErrorOf(ErrInvalidArg, c))
		}
	}

	return params
}

// isRefinementPath recognizes the scanner's rendering of /name.
func isRefinementPath(c *Cell) bool {
	if !c.Is(KindPath) || c.node.used != 2 {
		return false
	}

	return arrayAt(c.node, 0).Is(KindBlank) &&
		arrayAt(c.node, 1).Is(KindWord)
}

func refinementName(c *Cell) string {
	return SpellingOf(arrayAt(c.node, 1).Spelling())
}

func (ip *Interp) typesFromBlock(c *Cell) TypeMask {
	var m TypeMask

	a := c.node
	for i := c.Index(); i < a.used; i++ {
		t := arrayAt(a, i)
		if !t.Is(KindWord) {
			continue
		}

		name := strings.ToLower(SpellingOf(t.Spelling()))
		for k := Kind(0); k < KindMaxBuiltin; k++ {
			if k.Name() == name {
				m |= k.Mask()

				break
			}
		}
	}

	return m
}

func natFunc(f *Frame) Verdict {
	ip := f.ip

	params := ip.parseSpec(f.Arg(1))
	act := ip.MakeFunc(params, f.Arg(2).node)

	InitAction(f.out, act)

	return VerdictValue
}

func natDoes(f *Frame) Verdict {
	ip := f.ip
	act := ip.MakeFunc(nil, f.Arg(1).node)

	InitAction(f.out, act)

	return VerdictValue
}

func natSpecialize(f *Frame) Verdict {
	ip := f.ip
	act := f.Arg(1).node
	args := f.Arg(2)

	// Build the exemplar: a frame laid out like the action's facade,
	// filled by evaluating the arg block bound into it.
	facade := ActFacade(act)
	exemplar := ip.MakeContext(KindFrame, facade.used-1)

	keylist := CtxKeylist(exemplar)
	for i := 1; i < facade.used; i++ {
		p := arrayAt(facade, i)

		var key Cell

		ip.AppendValue(keylist, makeKey(&key, KeySpelling(p), KeyTypes(p), KeyClass(p)))

		var empty Cell

		ip.AppendValue(exemplar, InitNull(&empty))
	}

	ip.Manage(exemplar)
	ip.Guard(exemplar)

	copied := ip.Manage(ip.cloneArrayDeep(args.node, MaskAnyArray, 0))
	ip.Guard(copied)
	ip.BindArrayDeep(copied, exemplar, false)

	var scratch Cell

	thrown := ip.DoArrayAt(copied, 0, &scratch)

	ip.Unguard(2)

	if thrown {
		*f.out = scratch

		return VerdictThrown
	}

	InitAction(f.out, ip.Specialize(act, exemplar))

	return VerdictValue
}

func natAdapt(f *Frame) Verdict {
	ip := f.ip

	InitAction(f.out, ip.Adapt(f.Arg(1).node, f.Arg(2).node))

	return VerdictValue
}

// natEnfix marks an action value as taking its first argument from
// the left. The mark travels with the value, so the result must be
// assigned before a word lookup can reach it.
func natEnfix(f *Frame) Verdict {
	*f.out = *f.Arg(1)
	SetEnfix(f.out)

	return VerdictValue
}

// Invisibles.

func natComment(f *Frame) Verdict {
	return VerdictInvisible
}

func natElide(f *Frame) Verdict {
	return VerdictInvisible
}

// Variables.

func natSet(f *Frame) Verdict {
	f.ip.SetVar(f.Arg(1), f.Arg(2))
	*f.out = *f.Arg(2)

	return VerdictValue
}

func natGet(f *Frame) Verdict {
	slot := f.ip.GetVar(f.Arg(1))

	*f.out = *slot
	f.out.ClearFlag(CellFlagProtected)

	if f.out.IsNulled() {
		return VerdictNull
	}

	return VerdictValue
}

func natProtect(f *Frame) Verdict {
	slot := f.ip.Lookup(f.Arg(1))
	slot.SetFlag(CellFlagProtected)

	*f.out = *f.Arg(1)

	return VerdictValue
}

func natUnprotect(f *Frame) Verdict {
	slot := f.ip.Lookup(f.Arg(1))
	slot.ClearFlag(CellFlagProtected)

	*f.out = *f.Arg(1)

	return VerdictValue
}

// Output.

func natPrint(f *Frame) Verdict {
	ip := f.ip
	arg := f.Arg(1)

	text := ""

	if arg.Is(KindBlock) {
		// A block prints its reduced contents, spaced.
		feed := NewFeed(arg.node, arg.Index())
		sub := ip.pushFrame(feed, f.out)

		for !feed.AtEnd() {
			if ip.step(sub, false) {
				ip.dropFrame(sub)

				return VerdictThrown
			}

			if f.out.IsNulled() {
				continue
			}

			if text != "" {
				text += " "
			}

			text += ip.FormOf(f.out)
		}

		ip.dropFrame(sub)
	} else {
		text = ip.FormOf(arg)
	}

	writeLine(ip, text)
	InitVoid(f.out)

	return VerdictValue
}

func natProbe(f *Frame) Verdict {
	ip := f.ip

	writeLine(ip, ip.moldOf(f.Arg(1)))

	*f.out = *f.Arg(1)

	return VerdictValue
}

func writeLine(ip *Interp, s string) {
	if ip.Out == nil {
		return
	}

	_, _ = ip.Out.Write(append([]byte(s), '\n'))
}

func natMold(f *Frame) Verdict {
	ip := f.ip

	InitText(f.out, ip.makeText(ip.moldOf(f.Arg(1))))

	return VerdictValue
}

func natForm(f *Frame) Verdict {
	ip := f.ip

	InitText(f.out, ip.makeText(ip.FormOf(f.Arg(1))))

	return VerdictValue
}

// Series.

func natCopy(f *Frame) Verdict {
	ip := f.ip
	v := f.Arg(1)
	deep := f.Arg(2).IsTruthy()

	switch {
	case deep:
		ip.CopyValueDeep(f.out, v, MaskDeepCopyable)
	case MaskAnyArray.Has(v.Kind()):
		*f.out = *v
		f.out.node = ip.Manage(ip.CopyArrayAt(v.node, v.Index()))
		f.out.SetIndex(0)
	case v.Is(KindMap):
		m := ip.MakeMap(MapLen(v.node))
		for i := 0; i < v.node.used; i++ {
			ip.AppendValue(m, arrayAt(v.node, i))
		}

		InitMap(f.out, ip.Manage(m))
	default:
		*f.out = *v
		f.out.node = ip.Manage(ip.CopySequence(v.node, v.Index()))
		f.out.SetIndex(0)
	}

	f.out.ClearFlag(CellFlagConst)

	return VerdictValue
}

func natAppend(f *Frame) Verdict {
	ip := f.ip
	target := f.Arg(1)
	value := f.Arg(2)
	only := f.Arg(3).IsTruthy()

	ip.EnsureMutable(target.node, target)

	switch {
	case MaskAnyArray.Has(target.Kind()):
		if value.Is(KindBlock) && !only {
			// Blocks splice their contents unless /only.
			for i := value.Index(); i < value.node.used; i++ {
				ip.AppendValue(target.node, arrayAt(value.node, i))
			}
		} else {
			ip.AppendValue(target.node, value)
		}
	case target.Is(KindText):
		ip.AppendBytes(target.node, []byte(ip.FormOf(value)))
	case target.Is(KindBinary):
		appendBinary(ip, target.node, value)
	default:
		ip.Fail(ip.ErrorOf(ErrInvalidArg, target))
	}

	*f.out = *target

	return VerdictValue
}

func appendBinary(ip *Interp, s *Series, value *Cell) {
	switch value.Kind() {
	case KindBinary:
		data := value.node.Data()
		if value.Index() < len(data) {
			ip.AppendBytes(s, data[value.Index():])
		}
	case KindInteger:
		b := value.Int64()
		if b < 0 || b > 255 {
			ip.Fail(ip.ErrorOf(ErrOutOfRange, value))
		}

		ip.AppendBytes(s, []byte{byte(b)})
	case KindText:
		if data := value.node.Data(); value.Index() < len(data) {
			ip.AppendBytes(s, data[value.Index():])
		}
	default:
		ip.Fail(ip.ErrorOf(ErrInvalidArg, value))
	}
}

func natInsert(f *Frame) Verdict {
	ip := f.ip
	target := f.Arg(1)
	value := f.Arg(2)

	ip.EnsureMutable(target.node, target)

	if !MaskAnyArray.Has(target.Kind()) {
		ip.Fail(ip.ErrorOf(ErrInvalidArg, target))
	}

	ip.InsertValue(target.node, target.Index(), value)

	*f.out = *target
	f.out.SetIndex(target.Index() + 1)

	return VerdictValue
}

func natRemove(f *Frame) Verdict {
	ip := f.ip
	target := f.Arg(1)

	count := 1
	if f.Arg(2).IsTruthy() {
		count = int(f.Arg(3).Int64())
	}

	ip.EnsureMutable(target.node, target)

	if target.Index() < target.node.used {
		if over := target.node.used - target.Index(); count > over {
			count = over
		}

		ip.RemoveUnits(target.node, target.Index(), count)
	}

	*f.out = *target

	return VerdictValue
}

func natPick(f *Frame) Verdict {
	ip := f.ip

	hook, ok := ip.pathHooks[f.Arg(1).Kind()]
	if !ok || hook.pick == nil {
		ip.Fail(ip.ErrorOf(ErrBadPathPick, f.Arg(2)))
	}

	if !hook.pick(ip, f.Arg(1), f.Arg(2), f.out) {
		ip.Fail(ip.ErrorOf(ErrBadPathPick, f.Arg(2)))
	}

	if f.out.IsNulled() {
		return VerdictNull
	}

	return VerdictValue
}

func natPoke(f *Frame) Verdict {
	ip := f.ip

	hook, ok := ip.pathHooks[f.Arg(1).Kind()]
	if !ok || hook.poke == nil {
		ip.Fail(ip.ErrorOf(ErrBadPathPoke, f.Arg(2)))
	}

	if !hook.poke(ip, f.Arg(1), f.Arg(2), f.Arg(3)) {
		ip.Fail(ip.ErrorOf(ErrBadPathPoke, f.Arg(2)))
	}

	*f.out = *f.Arg(3)

	return VerdictValue
}

func natSelect(f *Frame) Verdict {
	ip := f.ip
	v := f.Arg(1)
	key := f.Arg(2)

	if v.Is(KindMap) {
		if !ip.MapGet(v.node, key, f.out) {
			return VerdictNull
		}

		return VerdictValue
	}

	if MaskAnyArray.Has(v.Kind()) {
		a := v.node
		for i := v.Index(); i+1 < a.used; i++ {
			if Equal(arrayAt(a, i), key) {
				*f.out = *arrayAt(a, i+1)

				return VerdictValue
			}
		}
	}

	return VerdictNull
}

func natLengthOf(f *Frame) Verdict {
	v := f.Arg(1)

	n := 0

	switch {
	case v.Is(KindMap):
		n = MapLen(v.node)
	case MaskAnyContext.Has(v.Kind()):
		n = CtxLen(v.node)
	default:
		n = v.node.used - v.Index()
		if n < 0 {
			n = 0
		}
	}

	InitInteger(f.out, int64(n))

	return VerdictValue
}

func reposition(f *Frame, index int) Verdict {
	v := f.Arg(1)

	if index < 0 {
		index = 0
	}

	if index > v.node.used {
		index = v.node.used
	}

	*f.out = *v
	f.out.SetIndex(index)

	return VerdictValue
}

func natHead(f *Frame) Verdict {
	return reposition(f, 0)
}

func natTail(f *Frame) Verdict {
	return reposition(f, f.Arg(1).node.used)
}

func natNext(f *Frame) Verdict {
	return reposition(f, f.Arg(1).Index()+1)
}

func natBack(f *Frame) Verdict {
	return reposition(f, f.Arg(1).Index()-1)
}

func natSkip(f *Frame) Verdict {
	return reposition(f, f.Arg(1).Index()+int(f.Arg(2).Int64()))
}

func natFirst(f *Frame) Verdict {
	v := f.Arg(1)

	if !MaskAnyArray.Has(v.Kind()) {
		f.ip.Fail(f.ip.ErrorOf(ErrInvalidArg, v))
	}

	if v.Index() >= v.node.used {
		return VerdictNull
	}

	*f.out = *arrayAt(v.node, v.Index())

	return VerdictValue
}

func natFreeze(f *Frame) Verdict {
	Freeze(f.Arg(1).node)

	*f.out = *f.Arg(1)

	return VerdictValue
}

// Construction and reflection.

//nolint:funlen
func natMake(f *Frame) Verdict {
	ip := f.ip
	kind := f.Arg(1).Datatype()
	spec := f.Arg(2)

	switch kind {
	case KindBlock, KindGroup, KindPath, KindSetPath, KindGetPath:
		capacity := 0
		if spec.Is(KindInteger) {
			capacity = int(spec.Int64())
		}

		a := ip.MakeArray(capacity)

		if MaskAnyArray.Has(spec.Kind()) {
			for i := spec.Index(); i < spec.node.used; i++ {
				ip.AppendValue(a, arrayAt(spec.node, i))
			}
		}

		InitSeriesKind(f.out, kind, ip.Manage(a), 0)
	case KindText, KindBinary:
		capacity := 0
		if spec.Is(KindInteger) {
			capacity = int(spec.Int64())
		}

		s := ip.MakeBinary(capacity)

		if spec.Is(KindText) || spec.Is(KindBinary) {
			ip.AppendBytes(s, spec.node.Data())
		}

		InitSeriesKind(f.out, kind, ip.Manage(s), 0)
	case KindMap:
		return makeMap(f, spec)
	case KindObject:
		return makeObject(f, spec)
	case KindError:
		if !spec.Is(KindText) {
			ip.Fail(ip.ErrorOf(ErrBadMake, f.Arg(1), spec))
		}

		InitError(f.out, ip.ErrorFromText(string(spec.node.Data())))
	default:
		if ck := ip.customFor(kind); ck != nil && ck.Make != nil {
			ck.Make(ip, f.out, spec, kind)

			break
		}

		ip.Fail(ip.ErrorOf(ErrBadMake, f.Arg(1), spec))
	}

	return VerdictValue
}

func makeMap(f *Frame, spec *Cell) Verdict {
	ip := f.ip

	switch {
	case spec.Is(KindInteger):
		InitMap(f.out, ip.Manage(ip.MakeMap(int(spec.Int64()))))
	case spec.Is(KindBlock):
		m := ip.MakeMap(spec.node.used / 2)
		ip.Guard(m)

		for i := spec.Index(); i+1 < spec.node.used; i += 2 {
			ip.MapSet(m, arrayAt(spec.node, i), arrayAt(spec.node, i+1))
		}

		ip.Unguard(1)
		InitMap(f.out, ip.Manage(m))
	default:
		ip.Fail(ip.ErrorOf(ErrBadMake, f.Arg(1), spec))
	}

	return VerdictValue
}

// makeObject builds a context from a spec block: set-words become
// keys, then the block body runs bound to the new context.
func makeObject(f *Frame, spec *Cell) Verdict {
	ip := f.ip

	if !spec.Is(KindBlock) {
		ip.Fail(ip.ErrorOf(ErrBadMake, f.Arg(1), spec))
	}

	ctx := ip.MakeContext(KindObject, 8)
	ip.Manage(ctx)
	ip.Guard(ctx)

	copied := ip.Manage(ip.cloneArrayDeep(spec.node, MaskAnyArray, 0))
	ip.Guard(copied)
	ip.BindArrayDeep(copied, ctx, true)

	var scratch Cell

	thrown := ip.DoArrayAt(copied, 0, &scratch)

	ip.Unguard(2)

	if thrown {
		*f.out = scratch

		return VerdictThrown
	}

	InitObject(f.out, ctx)

	return VerdictValue
}

//nolint:funlen,gocyclo,cyclop
func natTo(f *Frame) Verdict {
	ip := f.ip
	kind := f.Arg(1).Datatype()
	v := f.Arg(2)

	if v.Kind() == kind {
		*f.out = *v

		return VerdictValue
	}

	switch kind {
	case KindInteger:
		switch v.Kind() {
		case KindDecimal, KindPercent:
			InitInteger(f.out, int64(v.Float64()))
		case KindChar:
			InitInteger(f.out, int64(v.Rune()))
		case KindText:
			n, err := parseInt(string(v.node.Data()))
			if err {
				ip.Fail(ip.ErrorOf(ErrBadCast, v, f.Arg(1)))
			}

			InitInteger(f.out, n)
		case KindLogic:
			n := int64(0)
			if v.Logic() {
				n = 1
			}

			InitInteger(f.out, n)
		default:
			ip.Fail(ip.ErrorOf(ErrBadCast, v, f.Arg(1)))
		}
	case KindDecimal:
		switch v.Kind() {
		case KindInteger:
			InitDecimal(f.out, float64(v.Int64()))
		case KindPercent:
			InitDecimal(f.out, v.Float64())
		default:
			ip.Fail(ip.ErrorOf(ErrBadCast, v, f.Arg(1)))
		}
	case KindText:
		InitText(f.out, ip.makeText(ip.FormOf(v)))
	case KindWord:
		switch v.Kind() {
		case KindText:
			InitWord(f.out, ip.Intern(string(v.node.Data())))
		case KindSetWord, KindGetWord, KindSymWord, KindIssue:
			InitWord(f.out, v.Spelling())
		default:
			ip.Fail(ip.ErrorOf(ErrBadCast, v, f.Arg(1)))
		}
	case KindBlock:
		a := ip.MakeArray(1)

		if MaskAnyArray.Has(v.Kind()) {
			for i := v.Index(); i < v.node.used; i++ {
				ip.AppendValue(a, arrayAt(v.node, i))
			}
		} else {
			ip.AppendValue(a, v)
		}

		InitBlock(f.out, ip.Manage(a))
	case KindChar:
		if !v.Is(KindInteger) {
			ip.Fail(ip.ErrorOf(ErrBadCast, v, f.Arg(1)))
		}

		r := v.Int64()
		if r < 0 || r > 0x10FFFF {
			ip.Fail(ip.ErrorOf(ErrCodepointTooHigh, v))
		}

		InitChar(f.out, rune(r))
	default:
		ip.Fail(ip.ErrorOf(ErrBadCast, v, f.Arg(1)))
	}

	return VerdictValue
}

func parseInt(s string) (int64, bool) {
	if s == "" {
		return 0, true
	}

	neg := false
	i := 0

	if s[0] == '-' || s[0] == '+' {
		neg = s[0] == '-'
		i++
	}

	if i == len(s) {
		return 0, true
	}

	n := int64(0)

	for ; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, true
		}

		n = n*10 + int64(s[i]-'0')
	}

	if neg {
		n = -n
	}

	return n, false
}

func natTypeOf(f *Frame) Verdict {
	InitDatatype(f.out, f.Arg(1).Heart())

	return VerdictValue
}

func natRecycle(f *Frame) Verdict {
	InitInteger(f.out, int64(f.ip.Recycle()))

	return VerdictValue
}

// Logic and math.

func natNot(f *Frame) Verdict {
	InitLogic(f.out, !f.Arg(1).IsTruthy())

	return VerdictValue
}

// bothInts reports whether an arithmetic native can stay on the
// exact int64 path. Mixed operands go through float64.
func bothInts(f *Frame) bool {
	return f.Arg(1).Is(KindInteger) && f.Arg(2).Is(KindInteger)
}

func numOf(c *Cell) float64 {
	if c.Is(KindInteger) {
		return float64(c.Int64())
	}

	return c.Float64()
}

func natAdd(f *Frame) Verdict {
	if bothInts(f) {
		InitInteger(f.out, f.Arg(1).Int64()+f.Arg(2).Int64())
	} else {
		InitDecimal(f.out, numOf(f.Arg(1))+numOf(f.Arg(2)))
	}

	return VerdictValue
}

func natSubtract(f *Frame) Verdict {
	if bothInts(f) {
		InitInteger(f.out, f.Arg(1).Int64()-f.Arg(2).Int64())
	} else {
		InitDecimal(f.out, numOf(f.Arg(1))-numOf(f.Arg(2)))
	}

	return VerdictValue
}

func natMultiply(f *Frame) Verdict {
	if bothInts(f) {
		InitInteger(f.out, f.Arg(1).Int64()*f.Arg(2).Int64())
	} else {
		InitDecimal(f.out, numOf(f.Arg(1))*numOf(f.Arg(2)))
	}

	return VerdictValue
}

func natDivide(f *Frame) Verdict {
	if bothInts(f) {
		a, b := f.Arg(1).Int64(), f.Arg(2).Int64()
		if b == 0 {
			f.ip.Fail(f.ip.ErrorOf(ErrZeroDivide))
		}

		if a%b == 0 {
			InitInteger(f.out, a/b)
		} else {
			InitDecimal(f.out, float64(a)/float64(b))
		}

		return VerdictValue
	}

	a, b := numOf(f.Arg(1)), numOf(f.Arg(2))
	if b == 0 {
		f.ip.Fail(f.ip.ErrorOf(ErrZeroDivide))
	}

	InitDecimal(f.out, a/b)

	return VerdictValue
}

func natEqualQ(f *Frame) Verdict {
	InitLogic(f.out, Equal(f.Arg(1), f.Arg(2)))

	return VerdictValue
}

func compareNums(f *Frame) (float64, float64) {
	a, b := f.Arg(1), f.Arg(2)

	numeric := TypeMask(1<<KindInteger | 1<<KindDecimal | 1<<KindPercent)
	if !numeric.Has(a.Kind()) || !numeric.Has(b.Kind()) {
		f.ip.Fail(f.ip.ErrorOf(ErrInvalidArg, b))
	}

	return numOf(a), numOf(b)
}

func natLesserQ(f *Frame) Verdict {
	a, b := compareNums(f)
	InitLogic(f.out, a < b)

	return VerdictValue
}

func natGreaterQ(f *Frame) Verdict {
	a, b := compareNums(f)
	InitLogic(f.out, a > b)

	return VerdictValue
}

// natThen runs its branch when the left expression produced a value;
// natElse runs its branch when it produced null. Both are enfix with
// a deferring left argument, so they apply to the whole expression
// on their left.
func natThen(f *Frame) Verdict {
	if f.Arg(1).IsNulled() {
		return VerdictNull
	}

	return runBranch(f, f.Arg(2))
}

func natElse(f *Frame) Verdict {
	if !f.Arg(1).IsNulled() {
		*f.out = *f.Arg(1)

		return VerdictValue
	}

	return runBranch(f, f.Arg(2))
}
