// Released under an MIT license. See LICENSE.

package core

// Frame is the record of one in-progress evaluation. Frames chain
// toward a sentinel bottom via prior; the top of the chain is the
// frame whose feed the evaluator is currently pulling from.
//
// When the frame is executing an action, its argument slots live in
// varlist; the varlist links back to the frame (key source aliasing)
// so a word bound to it can find the live slot. phase names the
// composition layer currently running and original the entry layer;
// specialization and adaptation switch phase without a new frame.
type Frame struct {
	ip *Interp

	prior *Frame
	feed  *Feed
	out   *Cell

	varlist  *Series
	phase    *Series
	original *Series

	paramIdx int
	dspOrig  int
	label    *Series // spelling of the word that invoked the action
}

// frameLimit bounds frame nesting; past it the evaluator raises a
// stack-overflow failure rather than exhausting the goroutine stack.
const frameLimit = 2048

func (ip *Interp) pushFrame(feed *Feed, out *Cell) *Frame {
	if ip.frameDepth >= frameLimit {
		ip.Fail(ip.ErrorOf(ErrStackOverflow))
	}

	f := &Frame{
		ip:      ip,
		prior:   ip.topFrame,
		feed:    feed,
		out:     out,
		dspOrig: ip.ds.top,
	}

	ip.topFrame = f
	ip.frameDepth++

	return f
}

func (ip *Interp) dropFrame(f *Frame) {
	if ip.topFrame != f {
		ip.panicNode(nil, "dropping a frame that is not on top")
	}

	if ip.ds.top != f.dspOrig {
		ip.panicNode(nil, "data stack unbalanced at frame drop")
	}

	f.decouple()
	ip.topFrame = f.prior
	ip.frameDepth--
}

// abort is the trap-unwind path: no balance assertions, since the
// whole point of the rollback is to restore them.
func (f *Frame) abort() {
	f.decouple()
	f.ip.frameDepth--
}

// decouple releases the frame's varlist. If the varlist escaped (some
// FRAME! value or binding still references it, which is the case
// exactly when it was managed) it survives with its keylist rewired
// from the dead frame to the facade; otherwise it is freed outright.
func (f *Frame) decouple() {
	v := f.varlist
	if v == nil {
		return
	}

	f.varlist = nil

	if v.IsManaged() {
		v.link.frame = nil
		v.link.series = f.facade()
		v.SetFlag(seriesFlagInaccessible)

		return
	}

	f.ip.FreeUnmanaged(v)
}

// facade returns the parameter list governing argument layout for the
// frame's current phase.
func (f *Frame) facade() *Series {
	if f.phase == nil {
		return nil
	}

	return ActFacade(f.phase)
}

// Out returns the frame's result cell.
func (f *Frame) Out() *Cell {
	return f.out
}

// Arg returns the argument cell for parameter index (1-based).
func (f *Frame) Arg(index int) *Cell {
	return CtxVar(f.varlist, index)
}

// ArgCount returns the number of argument slots.
func (f *Frame) ArgCount() int {
	return CtxLen(f.varlist)
}

// Interp returns the owning interpreter.
func (f *Frame) Interp() *Interp {
	return f.ip
}

// Varlist exposes the frame's argument context.
func (f *Frame) Varlist() *Series {
	return f.varlist
}

// feedNear renders a short fragment of the source around the feed for
// error reports.
func (f *Frame) feedNear() string {
	if f.feed == nil || f.feed.array == nil {
		return ""
	}

	from := f.feed.index - 1
	if from < 0 {
		from = 0
	}

	to := from + 3
	if to > f.feed.array.used {
		to = f.feed.array.used
	}

	s := ""
	for i := from; i < to; i++ {
		if s != "" {
			s += " "
		}

		s += f.ip.moldOf(arrayAt(f.feed.array, i))
	}

	return s
}
