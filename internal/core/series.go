// Released under an MIT license. See LICENSE.

package core

// Series header flags. The low byte of the header is the node byte;
// the second byte is the element width; flags start at bit 16.
const (
	// seriesFlagDynamic: content lives in an allocated buffer rather
	// than in the embedded cell.
	seriesFlagDynamic uint32 = 1 << (16 + iota)

	// seriesFlagFixedSize forbids expansion (frame varlists).
	seriesFlagFixedSize

	// SeriesFlagFrozen is deep immutability. Monotonic: never
	// cleared once set.
	SeriesFlagFrozen

	// SeriesFlagReadOnly is shallow immutability.
	SeriesFlagReadOnly

	// seriesFlagIsArray: elements are cells.
	seriesFlagIsArray

	// seriesFlagSymbol: this series is an interned spelling.
	seriesFlagSymbol

	// Array role triplet. Mutually exclusive; zero means plain.
	seriesFlagVarlist
	seriesFlagParamlist
	seriesFlagPairlist

	// seriesFlagDefersLookback caches, for a paramlist, whether an
	// enfix call should let the expression on its left finish first.
	// Computed once at action construction.
	seriesFlagDefersLookback

	// seriesFlagInaccessible: a frame varlist whose frame has ended
	// and whose slots are gone.
	seriesFlagInaccessible
)

const roleMask = seriesFlagVarlist | seriesFlagParamlist | seriesFlagPairlist

// Series is a variable-width contiguous buffer. Role (plain array,
// varlist, paramlist, pairlist, spelling) is encoded in the header
// and decides which members of link and misc are live -- the unions
// are typed so misuse is caught by the accessors rather than by
// convention.
//
// Invariants: used < rest + 1 (there is always room to terminate);
// bias counts unused prefix elements in the buffer; rest counts
// elements from the logical head to the end of the buffer.
type Series struct {
	header uint32

	used int
	bias int
	rest int

	data  []byte // dynamic storage, width != cellWide
	cells []Cell // dynamic storage, arrays

	content Cell // singular storage: the array IS this one cell

	link linkUnion
	misc miscUnion
}

// linkUnion is the typed rendering of the overloaded link word.
type linkUnion struct {
	series *Series // keylist / facade / hashlist / synonym chain
	frame  *Frame  // keysource while a frame varlist's frame is live
}

// miscUnion is the typed rendering of the overloaded misc word.
type miscUnion struct {
	series   *Series     // meta context / canon spelling
	cleanup  func(*Cell) // handle cleanup hook, run by the GC sweep
	dispatch Dispatcher  // native entry point for a details array
}

// cellWide is the nominal element width recorded for arrays. Byte
// series use their true widths.
const cellWide = 8

// Width returns the element width in bytes. Nonzero for every live
// series.
func (s *Series) Width() int {
	return int(byte(s.header >> 8))
}

// IsArray returns true if the elements are cells.
func (s *Series) IsArray() bool {
	return s.header&seriesFlagIsArray != 0
}

// IsDynamic returns true if content lives in an allocated buffer.
func (s *Series) IsDynamic() bool {
	return s.header&seriesFlagDynamic != 0
}

// Len returns the used length.
func (s *Series) Len() int {
	return s.used
}

// Rest returns the element capacity from the logical head.
func (s *Series) Rest() int {
	return s.rest
}

// Bias returns the unused prefix count.
func (s *Series) Bias() int {
	return s.bias
}

// GetFlag returns true if the given series flag is set.
func (s *Series) GetFlag(flag uint32) bool {
	return s.header&flag != 0
}

// SetFlag sets the given series flag.
func (s *Series) SetFlag(flag uint32) {
	s.header |= flag
}

// IsManaged returns true once the GC owns the node's lifetime.
func (s *Series) IsManaged() bool {
	return byte(s.header)&nodeByteManaged != 0
}

// IsFreed returns true for a node returned to its pool.
func (s *Series) IsFreed() bool {
	return byte(s.header) == freedSeriesByte
}

// maxSeriesRest caps expansion so that doubling cannot run away.
const maxSeriesRest = 1 << 30

// biasLimit is the accumulated-bias threshold past which head removal
// slides the buffer back instead of biasing further.
const biasLimit = 1 << 16

// stdBufSizes are the byte-buffer size classes. Requests round up to
// the nearest class; larger requests round to the next power of two.
//
//nolint:gochecknoglobals
var stdBufSizes = []int{8, 16, 32, 64, 128, 256, 512, 1024, 2048}

func bucketSize(n int) int {
	for _, c := range stdBufSizes {
		if n <= c {
			return c
		}
	}

	size := stdBufSizes[len(stdBufSizes)-1]
	for size < n {
		size <<= 1
	}

	return size
}

// MakeSeries allocates a series with room for capacity elements of
// the given width, plus a terminator. Cell-wide arrays of capacity
// one (and no flag demanding otherwise) use the singular form: the
// storage is the stub's own embedded cell and no buffer exists.
func (ip *Interp) MakeSeries(capacity, wide int, flags uint32) *Series {
	if wide <= 0 || wide > 255 {
		ip.panicNode(nil, "bad series width")
	}

	s := ip.allocStub()
	s.header = uint32(nodeByteNode) | uint32(wide)<<8 | flags

	if s.IsArray() && capacity <= 1 && flags&seriesFlagFixedSize == 0 {
		// Singular form: bias stays 0 and the terminator is implied.
		s.rest = 1
		InitEnd(&s.content)
	} else {
		s.header |= seriesFlagDynamic
		s.allocBuffer(capacity + 1)
	}

	ip.manuals = append(ip.manuals, s)

	return s
}

// MakeArray allocates a plain array of cells.
func (ip *Interp) MakeArray(capacity int) *Series {
	return ip.MakeSeries(capacity, cellWide, seriesFlagIsArray)
}

// MakeBinary allocates a byte series.
func (ip *Interp) MakeBinary(capacity int) *Series {
	return ip.MakeSeries(capacity, 1, 0)
}

func (s *Series) allocBuffer(rest int) {
	if s.IsArray() {
		if rest < 2 {
			rest = 2
		}

		s.cells = make([]Cell, rest)
		s.rest = rest
		InitEnd(&s.cells[0])

		return
	}

	size := bucketSize(rest * s.Width())
	s.data = make([]byte, size)
	s.rest = size / s.Width()
}

// Manage promotes the series from manual to GC-owned lifetime.
func (ip *Interp) Manage(s *Series) *Series {
	if s.IsManaged() {
		return s
	}

	s.header |= uint32(nodeByteManaged)
	ip.forgetManual(s)

	return s
}

func (ip *Interp) forgetManual(s *Series) {
	for i := len(ip.manuals) - 1; i >= 0; i-- {
		if ip.manuals[i] == s {
			ip.manuals = append(ip.manuals[:i], ip.manuals[i+1:]...)

			return
		}
	}
}

// ManagePairing promotes a pairing to GC-owned lifetime.
func (ip *Interp) ManagePairing(p *Pairing) *Pairing {
	p.cells[0].header |= uint32(nodeByteManaged)

	return p
}

// SetCleanup attaches a hook the sweep runs when it frees s. Only
// plain series can carry one; the slot is shared with the role
// members of misc.
func SetCleanup(s *Series, hook func(*Cell)) {
	s.misc.cleanup = hook
}

// FreeUnmanaged returns a manually owned series to its pool. Managed
// series may only be freed by the GC.
func (ip *Interp) FreeUnmanaged(s *Series) {
	if s.IsManaged() {
		ip.panicNode(s, "freeing a managed series")
	}

	ip.forgetManual(s)
	ip.series.release(s)
}

// Head returns the byte storage starting at the logical head.
func (s *Series) Head() []byte {
	return s.data[s.bias*s.Width():]
}

// At returns the byte at logical index i.
func (s *Series) At(i int) byte {
	return s.data[(s.bias+i)*s.Width()]
}

// Data returns the used content as bytes.
func (s *Series) Data() []byte {
	w := s.Width()

	return s.data[s.bias*w : (s.bias+s.used)*w]
}

// SameContent compares the remaining content of two byte series from
// the given offsets.
func (s *Series) SameContent(o *Series, si, oi int) bool {
	a, b := s.Data(), o.Data()
	if si > len(a) || oi > len(b) {
		return false
	}

	return string(a[si:]) == string(b[oi:])
}

func (s *Series) terminate() {
	if s.IsArray() {
		if s.IsDynamic() {
			InitEnd(&s.cells[s.bias+s.used])
		}

		// Singular arrays are terminated implicitly: reading index
		// used yields the shared END.
		return
	}

	w := s.Width()
	at := (s.bias + s.used) * w
	for i := at; i < at+w && i < len(s.data); i++ {
		s.data[i] = 0
	}
}

// EnsureMutable fails unless the series can be mutated through the
// reference ref (which, when non-nil, names the value in the error).
func (ip *Interp) EnsureMutable(s *Series, ref *Cell) {
	if s.GetFlag(SeriesFlagFrozen) || s.GetFlag(SeriesFlagReadOnly) {
		ip.failLocked(ref)

		return
	}

	if ref != nil && ref.GetFlag(CellFlagConst) {
		ip.failLocked(ref)
	}
}

// Freeze makes the series deeply immutable. Idempotent and monotonic.
func Freeze(s *Series) {
	if s.GetFlag(SeriesFlagFrozen) {
		return
	}

	s.SetFlag(SeriesFlagFrozen)

	if s.IsArray() {
		for i := 0; i < s.Len(); i++ {
			c := arrayAt(s, i)
			if c.node != nil && MaskAnySeries.Has(c.Kind()) {
				Freeze(c.node)
			}
		}
	}
}

// ensureSpace opens room for delta more elements at index, growing by
// amortized doubling. Insertion at the head consumes accumulated bias
// before anything else; otherwise the suffix slides right. On return
// used has grown by delta and the gap contents are unspecified.
func (ip *Interp) ensureSpace(s *Series, index, delta int) {
	if delta <= 0 {
		return
	}

	if s.IsArray() && !s.IsDynamic() {
		if s.used+delta <= s.rest {
			s.used += delta

			return
		}

		ip.singularToDynamic(s, delta)
	}

	if index == 0 && s.bias >= delta {
		s.bias -= delta
		s.rest += delta
		s.used += delta

		return
	}

	if s.used+delta >= s.rest {
		if s.GetFlag(seriesFlagFixedSize) {
			ip.Fail(ip.ErrorOf(ErrPastEnd))
		}

		newRest := s.rest * 2
		for newRest <= s.used+delta {
			newRest *= 2
		}

		if newRest > maxSeriesRest {
			ip.Fail(ip.ErrorOf(ErrPastEnd))
		}

		s.regrow(newRest)
	}

	if s.IsArray() {
		cells := s.cells[s.bias:]
		copy(cells[index+delta:s.used+delta], cells[index:s.used])
	} else {
		w := s.Width()
		b := s.data[s.bias*w:]
		copy(b[(index+delta)*w:(s.used+delta)*w], b[index*w:s.used*w])
	}

	s.used += delta
	s.terminate()
}

// Expand opens delta elements at index, initialized to BLANK! for
// arrays and zero bytes otherwise.
func (ip *Interp) Expand(s *Series, index, delta int) {
	ip.ensureSpace(s, index, delta)

	if s.IsArray() {
		for i := 0; i < delta; i++ {
			InitBlank(writableAt(s, index+i))
		}

		s.terminate()
	}
}

// regrow reallocates the buffer, dropping accumulated bias.
func (s *Series) regrow(newRest int) {
	if s.IsArray() {
		old := s.cells[s.bias : s.bias+s.used]
		s.cells = make([]Cell, newRest)
		copy(s.cells, old)
	} else {
		w := s.Width()
		old := s.data[s.bias*w : (s.bias+s.used)*w]
		s.data = make([]byte, newRest*w)
		copy(s.data, old)
	}

	s.rest = newRest
	s.bias = 0
	s.terminate()
}

// singularToDynamic moves a singular array's embedded cell into a
// freshly allocated buffer.
func (ip *Interp) singularToDynamic(s *Series, delta int) {
	saved := s.content
	count := s.used

	s.header |= seriesFlagDynamic
	s.allocBuffer(count + delta + 1)

	if count > 0 {
		s.cells[0] = saved
	}

	s.used = count
	s.terminate()
	InitEnd(&s.content)
}

// RemoveUnits deletes count elements at offset. Removal at the head
// of a dynamic series prefers incrementing bias, making it O(1);
// accumulated bias past the threshold is collapsed.
func (ip *Interp) RemoveUnits(s *Series, offset, count int) {
	if count <= 0 || offset >= s.used {
		return
	}

	if offset+count > s.used {
		count = s.used - offset
	}

	if offset == 0 && s.IsDynamic() {
		s.bias += count
		s.rest -= count
		s.used -= count

		if s.bias > biasLimit {
			ip.Unbias(s, true)
		}

		return
	}

	if s.IsArray() {
		if s.IsDynamic() {
			cells := s.cells[s.bias:]
			copy(cells[offset:], cells[offset+count:s.used])
		}
		// Singular: the only removable element is at offset 0, and
		// the dynamic branch above never applies.
	} else {
		w := s.Width()
		b := s.data[s.bias*w:]
		copy(b[offset*w:], b[(offset+count)*w:s.used*w])
	}

	s.used -= count
	s.terminate()
}

// Unbias collapses accumulated bias, optionally preserving contents.
func (ip *Interp) Unbias(s *Series, keep bool) {
	if s.bias == 0 {
		return
	}

	rest := s.rest + s.bias

	if keep {
		if s.IsArray() {
			copy(s.cells, s.cells[s.bias:s.bias+s.used])
		} else {
			w := s.Width()
			copy(s.data, s.data[s.bias*w:(s.bias+s.used)*w])
		}
	} else {
		s.used = 0
	}

	s.bias = 0
	s.rest = rest
	s.terminate()
}

// AppendBytes appends raw bytes to a byte series.
func (ip *Interp) AppendBytes(s *Series, b []byte) {
	at := s.used
	ip.ensureSpace(s, at, len(b))
	copy(s.data[(s.bias+at)*s.Width():], b)
	s.terminate()
}

// SetData replaces the content of a byte series.
func (ip *Interp) SetData(s *Series, b []byte) {
	ip.Unbias(s, false)
	s.used = 0
	ip.AppendBytes(s, b)
}

// CopySequence copies a byte series (content from index to tail).
func (ip *Interp) CopySequence(s *Series, index int) *Series {
	length := s.used - index
	if length < 0 {
		length = 0
	}

	cp := ip.MakeSeries(length, s.Width(), 0)
	ip.AppendBytes(cp, s.Data()[index*s.Width():])

	return cp
}
