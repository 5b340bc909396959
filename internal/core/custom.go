// Released under an MIT license. See LICENSE.

package core

import "errors"

// Extension datatypes. Eight kind ids past the built-ins are held for
// registration at startup; a registered kind plugs its own mold, make,
// and path behavior into the tables the core consults.

// ErrCustomKindsExhausted reports that all extension kind ids are in
// use.
var ErrCustomKindsExhausted = errors.New("core: no unused extension kind id")

// CustomKind supplies the behavior for an extension datatype. Name is
// required; every hook is optional.
type CustomKind struct {
	// Name is the datatype name, without the "!" suffix.
	Name string

	// Mold renders a value of this kind as loadable text.
	Mold func(ip *Interp, c *Cell) string

	// Make constructs a value of this kind from a spec value. The
	// claimed kind id is passed in since it is only assigned at
	// registration.
	Make func(ip *Interp, out, spec *Cell, k Kind)

	// Pick and Poke give values of this kind path behavior. Both
	// report whether the picker was meaningful.
	Pick func(ip *Interp, v, picker, out *Cell) bool
	Poke func(ip *Interp, v, picker, nv *Cell) bool
}

// RegisterKind claims the next free extension kind id for ck and
// introduces a datatype word for it in lib.
func (ip *Interp) RegisterKind(ck *CustomKind) (Kind, error) {
	for i := range ip.customs {
		if ip.customs[i] != nil {
			continue
		}

		k := KindCustom0 + Kind(i)
		ip.customs[i] = ck

		if ck.Pick != nil || ck.Poke != nil {
			ip.pathHooks[k] = pathHook{pick: ck.Pick, poke: ck.Poke}
		}

		slot := ip.AppendContextKey(ip.lib, ip.Intern(ck.Name+"!"))
		InitDatatype(slot, k)

		return k, nil
	}

	return KindEnd, ErrCustomKindsExhausted
}

// customFor returns the registration for k, or nil for built-ins and
// unclaimed ids.
func (ip *Interp) customFor(k Kind) *CustomKind {
	if k < KindCustom0 || k > KindCustom7 {
		return nil
	}

	return ip.customs[k-KindCustom0]
}

// InitCustom writes a cell of the extension kind k whose payload is
// the series s. The payload is reached by the collector like any
// other node payload.
func InitCustom(out *Cell, k Kind, s *Series) *Cell {
	out.writeHeader(k)
	out.node = s

	return out
}
