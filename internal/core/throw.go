// Released under an MIT license. See LICENSE.

package core

import "strings"

// Thrown values are cooperative signals, distinct from failures. A
// dispatcher writes the throw label into its out cell, marked with
// the thrown flag, and the argument travels beside the frame stack;
// the stack then unwinds by ordinary returns, each level choosing to
// propagate or catch. Nothing needs restoring because throws are
// structured. BREAK, CONTINUE, RETURN and THROW all use this channel.

// The labels used by the control-flow natives.
const (
	throwLabelThrow    = "throw"
	throwLabelBreak    = "break"
	throwLabelContinue = "continue"
	throwLabelReturn   = "return"
	throwLabelQuit     = "quit"
)

// InitThrown marks out as carrying a throw with the given label and
// stashes the thrown argument.
func (ip *Interp) InitThrown(out *Cell, label *Cell, arg *Cell) {
	*out = *label
	out.SetFlag(CellFlagThrown)

	if arg != nil {
		ip.thrownArg = *arg
	} else {
		InitNull(&ip.thrownArg)
	}
}

// IsThrown reports whether the cell carries a throw.
func IsThrown(c *Cell) bool {
	return c.GetFlag(CellFlagThrown)
}

// ThrownLabelIs reports whether the throw in out carries the named
// label.
func ThrownLabelIs(out *Cell, name string) bool {
	if !IsThrown(out) || !MaskAnyWord.Has(out.Kind()) {
		return false
	}

	return strings.ToLower(SpellingOf(out.Spelling())) == name
}

// CatchThrown consumes the throw in out, writing the thrown argument
// over it.
func (ip *Interp) CatchThrown(out *Cell) {
	*out = ip.thrownArg
	InitNull(&ip.thrownArg)
}

// throwNamed is the helper the control-flow natives share.
func (ip *Interp) throwNamed(out *Cell, name string, arg *Cell) Verdict {
	var label Cell

	InitWord(&label, ip.Intern(name))
	ip.InitThrown(out, &label, arg)

	return VerdictThrown
}
