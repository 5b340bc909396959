// Released under an MIT license. See LICENSE.

package core

import "github.com/michaelmacinnis/adapted"

// Failures are non-local: Fail panics with the error context and the
// nearest Trap recovers it. A trap snapshots the shared mutable state
// (data stack depth, frame top, guard count, mold buffer offset,
// outstanding manuals) and the unwind restores all of it before
// handing the error back, so a failed computation cannot leak stack
// entries, guards, or manually owned series.
//
// Throws are not failures; they travel by ordinary returns through
// out cells (see throw.go) and need no state restoration.

// raised is the panic payload of Fail. Anything else crossing a trap
// is an internal invariant breach and is re-panicked.
type raised struct {
	err *Series
}

// Fail raises an error. The reason is one of:
//   - a string: boxed into a user error on the fly;
//   - an ERROR! context series (from ErrorOf);
//   - a cell whose kind picks the error: a word fails as no-value, an
//     ERROR! cell re-raises its context, anything else is bad-value.
//
// Fail never returns.
func (ip *Interp) Fail(reason any) {
	switch v := reason.(type) {
	case string:
		panic(&raised{err: ip.ErrorFromText(v)})
	case *Series:
		if !IsErrorContext(v) {
			ip.panicNode(v, "fail with non-error series")
		}

		panic(&raised{err: v})
	case *Cell:
		switch {
		case v.Is(KindError):
			panic(&raised{err: v.node})
		case v.Is(KindText):
			panic(&raised{err: ip.ErrorFromText(string(v.node.Data()))})
		case MaskAnyWord.Has(v.Kind()):
			panic(&raised{err: ip.ErrorOf(ErrNoValue, v)})
		default:
			panic(&raised{err: ip.ErrorOf(ErrBadValue, v)})
		}
	default:
		ip.panicNode(nil, "fail with unexpected reason type")
	}
}

func (ip *Interp) failLocked(ref *Cell) {
	if ref == nil {
		var anon Cell

		InitBlank(&anon)
		ip.Fail(ip.ErrorOf(ErrLockedSeries, &anon))
	}

	ip.Fail(ip.ErrorOf(ErrLockedSeries, ref))
}

// snapshot captures the interpreter state a trap must restore.
type snapshot struct {
	depth   int
	frame   *Frame
	guards  int
	mold    int
	manuals int
}

func (ip *Interp) snap() snapshot {
	return snapshot{
		depth:   ip.ds.top,
		frame:   ip.topFrame,
		guards:  len(ip.guards),
		mold:    len(ip.moldBuf),
		manuals: len(ip.manuals),
	}
}

// rollback restores the snapshot after an unwind.
func (ip *Interp) rollback(s snapshot) {
	// Drop frames past the saved top, running per-frame cleanup.
	for ip.topFrame != s.frame {
		f := ip.topFrame
		if f == nil {
			ip.panicNode(nil, "trap frame not on stack")
		}

		f.abort()
		ip.topFrame = f.prior
	}

	// Truncate the guarded-node stack.
	ip.guards = ip.guards[:s.guards]

	// Truncate the data stack.
	ip.DropTo(s.depth)

	// Free manually managed series allocated since the trap was
	// installed. Some may have been managed or freed along the way;
	// only those still on the manuals list are swept.
	for len(ip.manuals) > s.manuals {
		ip.FreeUnmanaged(ip.manuals[len(ip.manuals)-1])
	}

	// Truncate the mold buffer.
	ip.moldBuf = ip.moldBuf[:s.mold]
}

// Trap runs fn, catching a failure raised anywhere beneath it. On
// success it returns nil; on failure the restored error context.
// Post-unwind state equals the pre-trap state except for the error.
func (ip *Interp) Trap(fn func()) (err *Series) {
	saved := ip.snap()

	defer func() {
		r := recover()
		if r == nil {
			return
		}

		rz, ok := r.(*raised)
		if !ok {
			panic(r)
		}

		ip.rollback(saved)
		err = rz.err
	}()

	fn()

	return nil
}

// CheckHalt raises a halt failure if a user interrupt arrived since
// the last suspension point. The evaluator calls this between steps.
func (ip *Interp) CheckHalt() {
	if ip.halted.CompareAndSwap(true, false) {
		ip.Fail(ip.ErrorOf(ErrHalt))
	}
}

// RequestHalt flags a user interrupt. Safe to call from a signal
// handling goroutine; the evaluator notices at its next suspension
// point.
func (ip *Interp) RequestHalt() {
	ip.halted.Store(true)
}

// fillErrorNear records where evaluation was when the error was
// built: the offending fragment, quoted so that control characters
// in scanned source cannot mangle the report.
func (ip *Interp) fillErrorNear(errCtx *Series, f *Frame) {
	near := f.feedNear()
	if near == "" {
		return
	}

	quoted := adapted.CanonicalString(near)

	text := ip.MakeBinary(len(quoted))
	ip.AppendBytes(text, []byte(quoted))
	InitText(CtxVar(errCtx, errSlotNear), ip.Manage(text))

	if f.label != nil {
		InitWord(CtxVar(errCtx, errSlotWhere), f.label)
	}
}
