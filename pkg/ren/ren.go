// Released under an MIT license. See LICENSE.

// Package ren embeds the interpreter in a Go program. A Machine owns
// one interpreter; Do splices source fragments and held values into a
// single evaluation and hands back the result as a Value handle the
// collector will not touch until it is released.
package ren

import (
	"errors"
	"fmt"

	"github.com/rhencke/ren/internal/core"
	"github.com/rhencke/ren/internal/device"
	"github.com/rhencke/ren/internal/ext"
	"github.com/rhencke/ren/internal/scan"
)

// Machine is one interpreter instance plus its extension registry.
// A Machine is not safe for concurrent use; run one per goroutine.
type Machine struct {
	ip  *core.Interp
	reg *ext.Registry
}

// Value is a handle on an interpreter value. It stays valid across
// collections until Release.
type Value struct {
	m *Machine
	p *core.Pairing
}

// API errors.
var (
	ErrBadArgument = errors.New("ren: argument is neither source text nor a value handle")
	ErrWrongType   = errors.New("ren: value has the wrong type")
	ErrReleased    = errors.New("ren: value handle already released")
)

// New creates a machine with the standard library and a stdio device
// registered.
func New() *Machine {
	m := &Machine{ip: core.New()}
	m.reg = ext.NewRegistry(m.ip)

	// The one built-in device.
	_ = m.reg.AddDevice(device.Stdio())

	return m
}

// Interp exposes the underlying interpreter for callers that need
// the full core surface.
func (m *Machine) Interp() *core.Interp {
	return m.ip
}

// Registry exposes the extension registry.
func (m *Machine) Registry() *ext.Registry {
	return m.reg
}

// Load wires an extension into the machine.
func (m *Machine) Load(x *ext.Extension) error {
	return m.reg.Load(x)
}

// Halt requests that the evaluator stop at its next suspension
// point. Safe to call from any goroutine.
func (m *Machine) Halt() {
	m.ip.RequestHalt()
}

// Do evaluates its arguments as one stream. Each argument is either
// a string of source text or a *Value; text is scanned in place and
// values are spliced in as single already-evaluated items. The result
// comes back as a fresh handle, or nil for null and void results.
func (m *Machine) Do(args ...any) (*Value, error) {
	ip := m.ip

	block := ip.MakeArray(len(args) * 4)
	ip.Guard(block)
	defer ip.Unguard(1)

	for _, a := range args {
		switch arg := a.(type) {
		case string:
			frag, err := scan.Load(ip, "do", arg)
			if err != nil {
				return nil, err
			}

			ip.Guard(frag)

			for i := 0; i < core.ArrayLen(frag); i++ {
				ip.AppendValue(block, core.ArrayAt(frag, i))
			}

			ip.Unguard(1)
			ip.FreeUnmanaged(frag)
		case *Value:
			if arg.p == nil {
				return nil, ErrReleased
			}

			ip.AppendValue(block, core.HandleCell(arg.p))
		default:
			// Stray pointers into interpreter memory get the
			// detection verdict; anything else just its Go type.
			switch a.(type) {
			case *core.Cell, *core.Series, *core.Pairing:
				return nil, fmt.Errorf("%w (%s)", ErrBadArgument, core.Detect(a))
			}

			return nil, fmt.Errorf("%w (%T)", ErrBadArgument, a)
		}
	}

	ip.Manage(block)
	ip.BindArrayDeep(block, ip.Lib(), true)

	var out core.Cell

	if err := ip.DoBlock(block, &out); err != nil {
		return nil, err
	}

	switch out.Kind() {
	case core.KindNull, core.KindVoid, core.KindEnd:
		return nil, nil
	}

	return &Value{m: m, p: ip.NewHandle(&out)}, nil
}

// DoText evaluates a single string of source text.
func (m *Machine) DoText(source string) (*Value, error) {
	return m.Do(source)
}

// Box wraps a bare cell in a fresh handle.
func (m *Machine) Box(c *core.Cell) *Value {
	return &Value{m: m, p: m.ip.NewHandle(c)}
}

// Release frees the handle. The held value becomes collectible.
// Releasing twice is an error caught by the pool.
func (v *Value) Release() {
	v.m.ip.FreeHandle(v.p)
	v.p = nil
}

// Cell returns the held cell. The pointer is stable until Release.
func (v *Value) Cell() *core.Cell {
	return core.HandleCell(v.p)
}

// Type returns the held value's datatype name.
func (v *Value) Type() string {
	return v.Cell().Kind().Name()
}

// Int64 unboxes an INTEGER!.
func (v *Value) Int64() (int64, error) {
	c := v.Cell()
	if !c.Is(core.KindInteger) {
		return 0, fmt.Errorf("%w: %s is not an integer!", ErrWrongType, v.Type())
	}

	return c.Int64(), nil
}

// Logic unboxes a LOGIC!.
func (v *Value) Logic() (bool, error) {
	c := v.Cell()
	if !c.Is(core.KindLogic) {
		return false, fmt.Errorf("%w: %s is not a logic!", ErrWrongType, v.Type())
	}

	return c.Logic(), nil
}

// Float64 unboxes a DECIMAL! or PERCENT!, widening an INTEGER!.
func (v *Value) Float64() (float64, error) {
	c := v.Cell()

	switch {
	case c.Is(core.KindDecimal) || c.Is(core.KindPercent):
		return c.Float64(), nil
	case c.Is(core.KindInteger):
		return float64(c.Int64()), nil
	}

	return 0, fmt.Errorf("%w: %s is not a decimal!", ErrWrongType, v.Type())
}

// Spell returns the held value formed as a fresh string: text without
// quotes, words without sigils.
func (v *Value) Spell() string {
	return v.m.ip.FormOf(v.Cell())
}

// SpellInto forms the held value into buf and reports how many bytes
// the full spelling needs. A short buf holds a truncated copy.
func (v *Value) SpellInto(buf []byte) int {
	s := v.m.ip.FormOf(v.Cell())
	copy(buf, s)

	return len(s)
}

// Mold returns the held value as loadable source text.
func (v *Value) Mold() string {
	return v.m.ip.MoldOf(v.Cell())
}
