// Released under an MIT license. See LICENSE.

package core

import "math"

// Cell is the fixed-size unit of storage. The header packs the node
// tag byte, the kind byte (with its in-cell quote depth), and the
// per-cell flags. The three remaining words are the extra and payload
// slots; which of them is meaningful depends on the kind:
//
//	word variants   node = spelling, extra = binding, bits = index
//	any-series      node = series, bits = position
//	any-context     node = varlist
//	action          node = paramlist, extra = details holder
//	integer         bits = two's complement value
//	decimal/percent bits = IEEE 754 bits
//	char            bits = codepoint
//	time            bits = nanoseconds
//	date            bits = packed year/month/day/zone fields
//	pair, deep quote  pairing
type Cell struct {
	header  uint32
	bits    uint64
	node    *Series
	pairing *Pairing
	extra   *Series
}

// Cell flags live in the top half of the header word.
const (
	// CellFlagProtected blocks assignment through this cell.
	CellFlagProtected uint32 = 1 << (16 + iota)

	// CellFlagUnevaluated marks a value that came from source rather
	// than from evaluation.
	CellFlagUnevaluated

	// CellFlagConst is a shallow immutability overlay: the cell's
	// series cannot be mutated through this reference.
	CellFlagConst

	// CellFlagStale marks evaluator output that must not be consumed
	// as a value.
	CellFlagStale

	// CellFlagThrown marks an out cell carrying a throw label. The
	// thrown argument itself travels beside the frame stack.
	CellFlagThrown

	// CellFlagEnfixed marks an action that takes its first argument
	// from the left.
	CellFlagEnfixed

	// CellFlagNewlineBefore records that a newline preceded this
	// value in the source it was scanned from.
	CellFlagNewlineBefore
)

// KindByte returns the raw kind byte, including any in-cell quote
// depth. Type tests compare against this byte so that a quoted and an
// unquoted instance are distinguishable by a single comparison.
func (c *Cell) KindByte() byte {
	return byte(c.header >> 8)
}

// Kind returns the kind byte mod the quote step: the underlying
// datatype for shallow quote depths, KindQuoted for deep ones.
func (c *Cell) Kind() Kind {
	return Kind(c.KindByte() % quoteStep)
}

// Heart returns the cell's datatype with all quoting peeled off.
func (c *Cell) Heart() Kind {
	k := c.Kind()
	if k == KindQuoted {
		return c.pairing.cells[0].Kind()
	}

	return k
}

// Is tests the raw kind byte against k. Quoted instances do not
// match.
func (c *Cell) Is(k Kind) bool {
	return c.KindByte() == byte(k)
}

func (c *Cell) writeHeader(k Kind) {
	c.header = uint32(nodeByteNode|nodeByteCell) | uint32(k)<<8
}

func (c *Cell) setKindByte(b byte) {
	c.header = c.header&^uint32(0xFF00) | uint32(b)<<8
}

// GetFlag returns true if the given cell flag is set.
func (c *Cell) GetFlag(flag uint32) bool {
	return c.header&flag != 0
}

// SetFlag sets the given cell flag.
func (c *Cell) SetFlag(flag uint32) {
	c.header |= flag
}

// ClearFlag clears the given cell flag.
func (c *Cell) ClearFlag(flag uint32) {
	c.header &^= flag
}

// endCell is the shared END sentinel. It terminates arrays and must
// never be written through.
//
//nolint:gochecknoglobals
var endCell = Cell{header: uint32(nodeByteNode | nodeByteCell)}

// End returns the shared END sentinel.
func End() *Cell {
	return &endCell
}

// IsEnd returns true for the END sentinel.
func (c *Cell) IsEnd() bool {
	return c.KindByte() == byte(KindEnd)
}

// Constructors. Each writes a complete value into out and returns out
// so initializations can be chained into calls.

// InitEnd writes the END marker. Only array terminators and evaluator
// prep slots may hold it.
func InitEnd(out *Cell) *Cell {
	*out = endCell

	return out
}

// InitNull writes the null non-value. Nulls may live only in
// transient evaluator slots and variable cells.
func InitNull(out *Cell) *Cell {
	*out = Cell{}
	out.writeHeader(KindNull)

	return out
}

// InitVoid writes a VOID! value.
func InitVoid(out *Cell) *Cell {
	*out = Cell{}
	out.writeHeader(KindVoid)

	return out
}

// InitBlank writes a BLANK! (unit) value.
func InitBlank(out *Cell) *Cell {
	*out = Cell{}
	out.writeHeader(KindBlank)

	return out
}

// InitLogic writes a LOGIC! value.
func InitLogic(out *Cell, v bool) *Cell {
	*out = Cell{}
	out.writeHeader(KindLogic)

	if v {
		out.bits = 1
	}

	return out
}

// InitInteger writes an INTEGER! value.
func InitInteger(out *Cell, v int64) *Cell {
	*out = Cell{}
	out.writeHeader(KindInteger)
	out.bits = uint64(v)

	return out
}

// InitDecimal writes a DECIMAL! value.
func InitDecimal(out *Cell, v float64) *Cell {
	*out = Cell{}
	out.writeHeader(KindDecimal)
	out.bits = math.Float64bits(v)

	return out
}

// InitPercent writes a PERCENT! value (stored as its fraction).
func InitPercent(out *Cell, v float64) *Cell {
	InitDecimal(out, v)
	out.setKindByte(byte(KindPercent))

	return out
}

// InitChar writes a CHAR! value.
func InitChar(out *Cell, r rune) *Cell {
	*out = Cell{}
	out.writeHeader(KindChar)
	out.bits = uint64(uint32(r))

	return out
}

// InitTime writes a TIME! value from nanoseconds.
func InitTime(out *Cell, nano int64) *Cell {
	*out = Cell{}
	out.writeHeader(KindTime)
	out.bits = uint64(nano)

	return out
}

// Packed DATE! field layout inside bits.
const (
	dateDayShift   = 0  // 5 bits
	dateMonthShift = 5  // 4 bits
	dateYearShift  = 9  // 16 bits
	dateZoneShift  = 25 // 7 bits, offset in 15 minute units, biased by 64
)

// InitDate writes a DATE! value with packed fields.
func InitDate(out *Cell, year, month, day, zone int) *Cell {
	*out = Cell{}
	out.writeHeader(KindDate)
	out.bits = uint64(day)<<dateDayShift |
		uint64(month)<<dateMonthShift |
		uint64(year)<<dateYearShift |
		uint64(zone+64)<<dateZoneShift

	return out
}

// DateParts unpacks a DATE! cell.
func (c *Cell) DateParts() (year, month, day, zone int) {
	day = int(c.bits >> dateDayShift & 0x1F)
	month = int(c.bits >> dateMonthShift & 0x0F)
	year = int(c.bits >> dateYearShift & 0xFFFF)
	zone = int(c.bits>>dateZoneShift&0x7F) - 64

	return
}

// InitPair writes a PAIR! backed by the pairing p.
func InitPair(out *Cell, p *Pairing) *Cell {
	*out = Cell{}
	out.writeHeader(KindPair)
	out.pairing = p

	return out
}

// InitWordKind writes a word variant with the given spelling, unbound.
func InitWordKind(out *Cell, k Kind, spelling *Series) *Cell {
	*out = Cell{}
	out.writeHeader(k)
	out.node = spelling

	return out
}

// InitWord writes an unbound WORD! with the given spelling.
func InitWord(out *Cell, spelling *Series) *Cell {
	return InitWordKind(out, KindWord, spelling)
}

// InitSeriesKind writes an any-series value at the given position.
func InitSeriesKind(out *Cell, k Kind, s *Series, index int) *Cell {
	*out = Cell{}
	out.writeHeader(k)
	out.node = s
	out.bits = uint64(index)

	return out
}

// InitBlock writes a BLOCK! at position 0.
func InitBlock(out *Cell, a *Series) *Cell {
	return InitSeriesKind(out, KindBlock, a, 0)
}

// InitGroup writes a GROUP! at position 0.
func InitGroup(out *Cell, a *Series) *Cell {
	return InitSeriesKind(out, KindGroup, a, 0)
}

// InitText writes a TEXT! at position 0.
func InitText(out *Cell, s *Series) *Cell {
	return InitSeriesKind(out, KindText, s, 0)
}

// InitBinary writes a BINARY! at position 0.
func InitBinary(out *Cell, s *Series) *Cell {
	return InitSeriesKind(out, KindBinary, s, 0)
}

// InitObject writes an OBJECT! for the varlist.
func InitObject(out *Cell, varlist *Series) *Cell {
	*out = Cell{}
	out.writeHeader(KindObject)
	out.node = varlist

	return out
}

// InitError writes an ERROR! for the varlist.
func InitError(out *Cell, varlist *Series) *Cell {
	InitObject(out, varlist)
	out.setKindByte(byte(KindError))

	return out
}

// InitFrame writes a FRAME! for the varlist.
func InitFrame(out *Cell, varlist *Series) *Cell {
	InitObject(out, varlist)
	out.setKindByte(byte(KindFrame))

	return out
}

// InitAction writes an ACTION! for the paramlist.
func InitAction(out *Cell, paramlist *Series) *Cell {
	*out = Cell{}
	out.writeHeader(KindAction)
	out.node = paramlist

	return out
}

// InitMap writes a MAP! for the pairlist.
func InitMap(out *Cell, pairlist *Series) *Cell {
	*out = Cell{}
	out.writeHeader(KindMap)
	out.node = pairlist

	return out
}

// InitDatatype writes a DATATYPE! value.
func InitDatatype(out *Cell, k Kind) *Cell {
	*out = Cell{}
	out.writeHeader(KindDatatype)
	out.bits = uint64(k)

	return out
}

// InitTypeset writes a TYPESET! value.
func InitTypeset(out *Cell, m TypeMask) *Cell {
	*out = Cell{}
	out.writeHeader(KindTypeset)
	out.bits = uint64(m)

	return out
}

// InitHandle writes a HANDLE! wrapping the series s. A cleanup hook,
// if any, lives on the series and runs when the GC frees it.
func InitHandle(out *Cell, s *Series) *Cell {
	*out = Cell{}
	out.writeHeader(KindHandle)
	out.node = s

	return out
}

// Accessors. Reading a payload through the wrong kind is an internal
// invariant breach, not a user error.

// Logic returns the LOGIC! payload.
func (c *Cell) Logic() bool {
	return c.bits != 0
}

// Int64 returns the INTEGER! payload.
func (c *Cell) Int64() int64 {
	return int64(c.bits)
}

// Float64 returns the DECIMAL!/PERCENT! payload.
func (c *Cell) Float64() float64 {
	return math.Float64frombits(c.bits)
}

// Rune returns the CHAR! payload.
func (c *Cell) Rune() rune {
	return rune(uint32(c.bits))
}

// Nano returns the TIME! payload in nanoseconds.
func (c *Cell) Nano() int64 {
	return int64(c.bits)
}

// Datatype returns the DATATYPE! payload.
func (c *Cell) Datatype() Kind {
	return Kind(c.bits)
}

// Typeset returns the TYPESET! payload.
func (c *Cell) Typeset() TypeMask {
	return TypeMask(c.bits)
}

// Node returns the payload series (array, string, varlist, ...).
func (c *Cell) Node() *Series {
	return c.node
}

// Pairing returns the payload pairing (PAIR! or deep QUOTED!).
func (c *Cell) Pairing() *Pairing {
	return c.pairing
}

// Index returns the position payload of an any-series cell.
func (c *Cell) Index() int {
	return int(c.bits)
}

// SetIndex repositions an any-series cell.
func (c *Cell) SetIndex(i int) {
	c.bits = uint64(i)
}

// Spelling returns the spelling series of a word variant.
func (c *Cell) Spelling() *Series {
	return c.node
}

// Binding returns a word's binding: nil when unbound, a varlist for a
// specific binding, a paramlist for a relative one.
func (c *Cell) Binding() *Series {
	return c.extra
}

// WordIndex returns the bound slot index of a word.
func (c *Cell) WordIndex() int {
	return int(c.bits)
}

// BindSpecific attaches the word to slot index of the varlist.
func (c *Cell) BindSpecific(varlist *Series, index int) {
	c.extra = varlist
	c.bits = uint64(index)
}

// BindRelative attaches the word to parameter index of the paramlist,
// to be resolved against a live frame at evaluation time.
func (c *Cell) BindRelative(paramlist *Series, index int) {
	c.extra = paramlist
	c.bits = uint64(index)
}

// Unbind detaches the word from any context.
func (c *Cell) Unbind() {
	c.extra = nil
	c.bits = 0
}

// IsNulled returns true for the null non-value.
func (c *Cell) IsNulled() bool {
	return c.KindByte() == byte(KindNull)
}

// IsTruthy returns the conditional truth of a value: everything but
// null, BLANK! and LOGIC! false is truthy.
func (c *Cell) IsTruthy() bool {
	switch c.Kind() {
	case KindNull, KindBlank:
		return false
	case KindLogic:
		return c.Logic()
	default:
		return true
	}
}

// equalLimit bounds the comparison recursion, past any plausible
// acyclic nesting. Values that deep still compare, by identity: for
// cyclic arrays that is the only answer that terminates.
const equalLimit = 1024

// Equal compares two cells for (case-insensitive, quote-sensitive)
// equality.
func Equal(a, b *Cell) bool {
	return equalAt(a, b, 0)
}

func equalAt(a, b *Cell, depth int) bool {
	if a.KindByte() != b.KindByte() {
		return false
	}

	if depth >= equalLimit {
		return a.bits == b.bits && a.node == b.node &&
			a.pairing == b.pairing
	}

	if a.Kind() == KindQuoted {
		return equalAt(&a.pairing.cells[0], &b.pairing.cells[0], depth+1) &&
			a.bits == b.bits
	}

	switch a.Kind() {
	case KindEnd, KindNull, KindVoid, KindBlank:
		return true
	case KindLogic:
		return a.Logic() == b.Logic()
	case KindInteger, KindChar, KindTime, KindDate, KindDatatype,
		KindTypeset:
		return a.bits == b.bits
	case KindDecimal, KindPercent:
		return a.Float64() == b.Float64()
	case KindWord, KindSetWord, KindGetWord, KindSymWord, KindIssue:
		return CanonOf(a.Spelling()) == CanonOf(b.Spelling())
	case KindPair:
		return equalAt(a.pairing.First(), b.pairing.First(), depth+1) &&
			equalAt(a.pairing.Second(), b.pairing.Second(), depth+1)
	case KindText, KindBinary:
		return a.node.SameContent(b.node, a.Index(), b.Index())
	case KindBlock, KindGroup, KindPath, KindSetPath, KindGetPath:
		return arrayEqual(a.node, a.Index(), b.node, b.Index(), depth+1)
	default:
		// Identity for contexts, actions, maps, handles.
		return a.node == b.node && a.pairing == b.pairing
	}
}
