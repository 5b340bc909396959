// Released under an MIT license. See LICENSE.

package core

// Kind identifies a datatype. The kind byte of a cell holds a Kind in
// its low six bits; the two high bits carry an in-cell quote depth
// (see quote.go). All kind arithmetic is done mod quoteStep.
type Kind byte

// The built-in kinds. KindEnd must be zero so that a zeroed header is
// never mistaken for a live value.
const (
	KindEnd Kind = iota
	KindNull
	KindVoid
	KindBlank
	KindLogic
	KindInteger
	KindDecimal
	KindPercent
	KindChar
	KindPair
	KindTime
	KindDate
	KindWord
	KindSetWord
	KindGetWord
	KindSymWord
	KindIssue
	KindPath
	KindSetPath
	KindGetPath
	KindBlock
	KindGroup
	KindText
	KindBinary
	KindBitset
	KindMap
	KindObject
	KindFrame
	KindAction
	KindVarargs
	KindHandle
	KindDatatype
	KindTypeset
	KindError

	// KindQuoted marks values whose quote depth is too deep to encode
	// in the kind byte. The payload points at a pairing holding the
	// unquoted value.
	KindQuoted

	// Eight kind ids reserved for extension-registered datatypes.
	KindCustom0
	KindCustom1
	KindCustom2
	KindCustom3
	KindCustom4
	KindCustom5
	KindCustom6
	KindCustom7

	KindMaxBuiltin
)

// quoteStep is the kind byte distance between quote depths. With a
// six bit kind space, depths 1..3 fit in the byte itself.
const quoteStep = 64

// A compile-time guarantee that kinds leave room for in-cell quoting.
const _ = uint8(quoteStep - int(KindMaxBuiltin))

//nolint:gochecknoglobals
var kindNames = [KindMaxBuiltin]string{
	KindEnd:      "end!",
	KindNull:     "null",
	KindVoid:     "void!",
	KindBlank:    "blank!",
	KindLogic:    "logic!",
	KindInteger:  "integer!",
	KindDecimal:  "decimal!",
	KindPercent:  "percent!",
	KindChar:     "char!",
	KindPair:     "pair!",
	KindTime:     "time!",
	KindDate:     "date!",
	KindWord:     "word!",
	KindSetWord:  "set-word!",
	KindGetWord:  "get-word!",
	KindSymWord:  "sym-word!",
	KindIssue:    "issue!",
	KindPath:     "path!",
	KindSetPath:  "set-path!",
	KindGetPath:  "get-path!",
	KindBlock:    "block!",
	KindGroup:    "group!",
	KindText:     "text!",
	KindBinary:   "binary!",
	KindBitset:   "bitset!",
	KindMap:      "map!",
	KindObject:   "object!",
	KindFrame:    "frame!",
	KindAction:   "action!",
	KindVarargs:  "varargs!",
	KindHandle:   "handle!",
	KindDatatype: "datatype!",
	KindTypeset:  "typeset!",
	KindError:    "error!",
	KindQuoted:   "quoted!",
	KindCustom0:  "custom-0!",
	KindCustom1:  "custom-1!",
	KindCustom2:  "custom-2!",
	KindCustom3:  "custom-3!",
	KindCustom4:  "custom-4!",
	KindCustom5:  "custom-5!",
	KindCustom6:  "custom-6!",
	KindCustom7:  "custom-7!",
}

// Name returns the canonical type name for the kind k.
func (k Kind) Name() string {
	if k < KindMaxBuiltin {
		return kindNames[k]
	}

	return "unknown!"
}

// TypeMask is a set of kinds, one bit per kind.
type TypeMask uint64

// Mask returns the singleton mask for the kind k.
func (k Kind) Mask() TypeMask {
	return 1 << k
}

// MaskAnyValue covers every storable kind. END and NULL are not
// storable in user-visible arrays so they are excluded.
const MaskAnyValue = ^TypeMask(0) &^ (1<<KindEnd | 1<<KindNull)

// MaskAnySeries covers the series-bearing kinds.
const MaskAnySeries TypeMask = 1<<KindBlock | 1<<KindGroup |
	1<<KindPath | 1<<KindSetPath | 1<<KindGetPath | 1<<KindText |
	1<<KindBinary | 1<<KindBitset

// MaskAnyArray covers the kinds whose payload is an array of cells.
const MaskAnyArray TypeMask = 1<<KindBlock | 1<<KindGroup |
	1<<KindPath | 1<<KindSetPath | 1<<KindGetPath

// MaskAnyWord covers the word variants.
const MaskAnyWord TypeMask = 1<<KindWord | 1<<KindSetWord |
	1<<KindGetWord | 1<<KindSymWord | 1<<KindIssue

// MaskAnyContext covers the context-bearing kinds.
const MaskAnyContext TypeMask = 1<<KindObject | 1<<KindFrame |
	1<<KindError

// MaskDeepCopyable is the default type mask used by clonify: the
// kinds that are copied rather than shared on a copy/deep.
const MaskDeepCopyable TypeMask = MaskAnyArray | 1<<KindText |
	1<<KindBinary | 1<<KindBitset | 1<<KindMap

// Has returns true if the mask m includes the kind k.
func (m TypeMask) Has(k Kind) bool {
	return m&k.Mask() != 0
}
