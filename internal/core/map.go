// Released under an MIT license. See LICENSE.

package core

// MAP! is a pairlist: an array of alternating key and value cells.
// Small maps search linearly; past a threshold a hashlist hangs off
// link, a byte series of little-endian uint32 buckets giving the
// pair slot plus one (zero marks an empty bucket), rebuilt whenever
// the load factor crosses half.

const (
	mapHashThreshold = 8 // pairs; linear search below this
	hashEntryWide    = 4
)

// MakeMap creates an empty unmanaged map with room for the given
// number of pairs.
func (ip *Interp) MakeMap(capacity int) *Series {
	return ip.MakeSeries(2*capacity, cellWide,
		seriesFlagIsArray|seriesFlagPairlist)
}

// MapLen returns the number of pairs.
func MapLen(m *Series) int {
	return m.used / 2
}

// MapPairAt returns the key and value cells of pair i.
func MapPairAt(m *Series, i int) (*Cell, *Cell) {
	return arrayAt(m, 2*i), arrayAt(m, 2*i+1)
}

// MapGet looks key up, copying the value into out. Returns false
// (and nulls out) when the key is absent.
func (ip *Interp) MapGet(m *Series, key, out *Cell) bool {
	slot := ip.mapFind(m, key)
	if slot < 0 {
		InitNull(out)

		return false
	}

	*out = *arrayAt(m, slot+1)

	return true
}

// MapSet inserts or overwrites the pair for key.
func (ip *Interp) MapSet(m *Series, key, val *Cell) {
	ip.EnsureMutable(m, nil)

	slot := ip.mapFind(m, key)
	if slot >= 0 {
		*writableAt(m, slot+1) = *val

		return
	}

	slot = m.used
	ip.AppendValue(m, key)
	ip.AppendValue(m, val)

	if MapLen(m) < mapHashThreshold {
		return
	}

	hl := m.link.series
	if hl == nil || MapLen(m)*2 >= hl.used {
		ip.mapRehash(m)

		return
	}

	ip.hashInsert(hl, ip.hashKey(key), slot)
}

// MapRemove deletes the pair for key if present.
func (ip *Interp) MapRemove(m *Series, key *Cell) bool {
	ip.EnsureMutable(m, nil)

	slot := ip.mapFind(m, key)
	if slot < 0 {
		return false
	}

	ip.RemoveUnits(m, slot, 2)

	// Slots above the removal shifted down; start over.
	if m.link.series != nil {
		ip.mapRehash(m)
	}

	return true
}

// mapFind returns the pairlist slot of the key cell, or -1.
func (ip *Interp) mapFind(m *Series, key *Cell) int {
	hl := m.link.series
	if hl == nil {
		for i := 0; i+1 < m.used; i += 2 {
			if Equal(arrayAt(m, i), key) {
				return i
			}
		}

		return -1
	}

	buckets := hl.used
	h := int(ip.hashKey(key)) % buckets

	for probes := 0; probes < buckets; probes++ {
		e := hashEntry(hl, h)
		if e == 0 {
			return -1
		}

		if Equal(arrayAt(m, e-1), key) {
			return e - 1
		}

		h = (h + 1) % buckets
	}

	return -1
}

func (ip *Interp) mapRehash(m *Series) {
	buckets := 4 * MapLen(m)

	hl := ip.MakeSeries(buckets, hashEntryWide, 0)
	hl.used = buckets

	for i := range hl.data {
		hl.data[i] = 0
	}

	ip.Manage(hl)
	m.link.series = hl

	for i := 0; i+1 < m.used; i += 2 {
		ip.hashInsert(hl, ip.hashKey(arrayAt(m, i)), i)
	}
}

func (ip *Interp) hashInsert(hl *Series, h uint32, slot int) {
	buckets := hl.used
	at := int(h) % buckets

	for hashEntry(hl, at) != 0 {
		at = (at + 1) % buckets
	}

	setHashEntry(hl, at, slot+1)
}

func hashEntry(hl *Series, i int) int {
	b := hl.Head()[i*hashEntryWide:]

	return int(uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 |
		uint32(b[3])<<24)
}

func setHashEntry(hl *Series, i, e int) {
	b := hl.Head()[i*hashEntryWide:]
	b[0] = byte(e)
	b[1] = byte(e >> 8)
	b[2] = byte(e >> 16)
	b[3] = byte(e >> 24)
}

// hashKey folds a key cell to a bucket hash (FNV-1a over the kind
// and the canonical payload). Words of one equivalence class hash
// alike, matching Equal's case-insensitive comparison.
func (ip *Interp) hashKey(c *Cell) uint32 {
	const (
		offset = 2166136261
		prime  = 16777619
	)

	h := uint32(offset)

	mix := func(b byte) {
		h ^= uint32(b)
		h *= prime
	}

	mix(byte(c.Kind()))

	switch {
	case MaskAnyWord.Has(c.Kind()):
		for _, b := range []byte(SpellingOf(CanonOf(c.Spelling()))) {
			mix(b)
		}
	case c.Is(KindText) || c.Is(KindBinary):
		data := c.node.Data()
		if c.Index() < len(data) {
			for _, b := range data[c.Index():] {
				mix(b)
			}
		}
	default:
		bits := c.bits
		for i := 0; i < 8; i++ {
			mix(byte(bits >> (8 * i)))
		}
	}

	return h
}
