// Released under an MIT license. See LICENSE.

package core

import "strings"

// Spellings are interned, frozen UTF-8 byte series. All word cells
// with the same spelling share one series. Per case-insensitive
// equivalence class one spelling is elected canon (the first
// interned); the synonyms form a ring through link so the whole
// class is reachable from any member.
//
// The intern table is the only structure in the core that tolerates
// concurrent readers: the embedding API may intern from the host
// while the evaluator runs, so lookups take a read lock.

type symbolTable struct {
	byExact map[string]*Series
	byCanon map[string]*Series
}

// Intern returns the shared spelling series for name, creating and
// electing a canon for its case-insensitive class as needed.
func (ip *Interp) Intern(name string) *Series {
	ip.symlock.RLock()
	s, ok := ip.symbols.byExact[name]
	ip.symlock.RUnlock()

	if ok {
		return s
	}

	ip.symlock.Lock()
	defer ip.symlock.Unlock()

	if s, ok = ip.symbols.byExact[name]; ok {
		return s
	}

	s = ip.MakeSeries(len(name), 1, seriesFlagSymbol)
	ip.AppendBytes(s, []byte(name))
	s.SetFlag(SeriesFlagFrozen)
	ip.Manage(s)

	folded := strings.ToLower(name)

	canon, ok := ip.symbols.byCanon[folded]
	if !ok {
		// First of its class: elected canon, ring of one.
		canon = s
		s.misc.series = s
		s.link.series = s
		ip.symbols.byCanon[folded] = s
	} else {
		// Splice the synonym into the canon's ring.
		s.misc.series = canon
		s.link.series = canon.link.series
		canon.link.series = s
	}

	ip.symbols.byExact[name] = s

	return s
}

// SpellingOf returns the text of a spelling series.
func SpellingOf(s *Series) string {
	return string(s.Data())
}

// CanonOf returns the elected canon of the spelling's equivalence
// class.
func CanonOf(s *Series) *Series {
	return s.misc.series
}

// SameWord compares two spellings case-insensitively.
func SameWord(a, b *Series) bool {
	return CanonOf(a) == CanonOf(b)
}

// sweepSymbol drops a spelling that the GC found unreachable from the
// intern table, so the table itself never keeps spellings alive.
func (ip *Interp) sweepSymbol(s *Series) {
	name := SpellingOf(s)

	ip.symlock.Lock()
	defer ip.symlock.Unlock()

	delete(ip.symbols.byExact, name)

	folded := strings.ToLower(name)

	canon := CanonOf(s)
	if canon != s {
		unlinkSynonym(canon, s)

		return
	}

	// The canon itself is going away. If synonyms remain, the next
	// ring member is elected canon for the class.
	next := s.link.series
	if next == s {
		delete(ip.symbols.byCanon, folded)

		return
	}

	unlinkSynonym(s, s)
	ip.symbols.byCanon[folded] = next

	for p := next; ; {
		p.misc.series = next
		p = p.link.series

		if p == next {
			break
		}
	}
}

func unlinkSynonym(ring, s *Series) {
	for p := ring; ; {
		if p.link.series == s {
			p.link.series = s.link.series

			return
		}

		p = p.link.series

		if p == ring {
			return
		}
	}
}
