// Released under an MIT license. See LICENSE.

package core

import (
	"errors"
	"io"
	"os"
	"sync"
	"sync/atomic"
)

// Interp is one interpreter instance. It owns its pools, its data
// stack, its intern table, and its frame stack; nothing is shared
// between instances, so distinct interpreters can run on distinct
// goroutines without coordination. Within one instance the evaluator
// is single-threaded; only RequestHalt and Intern may be called from
// other goroutines.
type Interp struct {
	series   seriesPool
	pairings pairingPool

	ds dataStack

	// Series kept alive by explicit ownership rather than cell
	// reachability. Guards protect temporaries across allocation;
	// manuals are unmanaged series the GC must never sweep.
	guards  []any
	manuals []*Series

	topFrame   *Frame
	frameDepth int

	symbols symbolTable
	symlock sync.RWMutex

	// lib is the one user-visible context natives are collected
	// into; top-level words bind here.
	lib *Series

	moldBuf   []byte
	thrownArg Cell

	gcDisabled int
	gcBallast  int
	halted     atomic.Bool

	pathHooks map[Kind]pathHook
	customs   [8]*CustomKind

	Out io.Writer
}

// gcBallastTrigger is how many stub allocations accumulate between
// automatic recycles.
const gcBallastTrigger = 4096

// New creates an interpreter with its library context populated with
// the built-in natives.
func New() *Interp {
	ip := &Interp{
		ds: newDataStack(),
		symbols: symbolTable{
			byExact: map[string]*Series{},
			byCanon: map[string]*Series{},
		},
		Out: os.Stdout,
	}

	ip.pathHooks = defaultPathHooks()

	ip.lib = ip.MakeContext(KindObject, 64)
	ip.Guard(ip.lib)

	ip.registerNatives()

	return ip
}

// Lib returns the library context top-level code binds into.
func (ip *Interp) Lib() *Series {
	return ip.lib
}

// DoText scans and evaluates source text against the library
// context. The scanned block is bound before evaluation so that
// set-words extend the library, matching console semantics.
func (ip *Interp) DoText(scan func(string) (*Series, error), source string, out *Cell) error {
	block, err := scan(source)
	if err != nil {
		return err
	}

	ip.Guard(block)
	defer ip.Unguard(1)

	ip.Manage(block)
	ip.BindArrayDeep(block, ip.lib, true)

	return ip.DoBlock(block, out)
}

// DoBlock evaluates an already-built, already-bound array. A raised
// error or an uncaught throw comes back as an EvalError; an uncaught
// QUIT comes back as ErrQuit so a console can wind down cleanly.
func (ip *Interp) DoBlock(block *Series, out *Cell) error {
	quit := false

	if failed := ip.Trap(func() {
		if ip.DoArrayAt(block, 0, out) {
			if ThrownLabelIs(out, throwLabelQuit) {
				ip.CatchThrown(out)

				quit = true

				return
			}

			label := *out
			ip.Fail(ip.ErrorOf(ErrNoCatch, &label))
		}
	}); failed != nil {
		var e Cell

		return &EvalError{Context: failed, Text: ip.moldOf(InitError(&e, failed))}
	}

	if quit {
		return ErrQuit
	}

	return nil
}

// ErrQuit reports that evaluation ended with an uncaught QUIT.
var ErrQuit = errors.New("core: quit")

// EvalError carries a raised ERROR! context across the package
// boundary as an ordinary Go error.
type EvalError struct {
	Context *Series
	Text    string
}

func (e *EvalError) Error() string {
	return e.Text
}
