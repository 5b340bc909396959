// Released under an MIT license. See LICENSE.

package core

import (
	"fmt"
	"strconv"
)

// Molding renders values back as loadable source. One shared buffer
// per interpreter holds nested mold work; each mold remembers its
// start offset and slices its own output back out, so a mold running
// inside a mold (error args, probe inside print) needs no extra
// allocation and a failed mold unwinds cleanly to its mark.

// moldLimit caps how many elements of one series a mold renders, so
// probing a pathological series stays readable.
const moldLimit = 1024

type molder struct {
	ip *Interp

	// Series already being rendered above us; a revisit renders as
	// ... instead of recursing forever.
	active []*Series
}

// MoldOf renders a single value as loadable source text.
func (ip *Interp) MoldOf(c *Cell) string {
	return ip.moldOf(c)
}

// moldOf renders a single value as source text.
func (ip *Interp) moldOf(c *Cell) string {
	mark := len(ip.moldBuf)

	m := molder{ip: ip}
	m.cell(c)

	out := string(ip.moldBuf[mark:])
	ip.moldBuf = ip.moldBuf[:mark]

	return out
}

// FormOf renders a value for humans: text without quotes, words
// without sigils, everything else as molded.
func (ip *Interp) FormOf(c *Cell) string {
	if QuoteDepth(c) == 0 {
		switch c.Kind() {
		case KindText:
			data := c.node.Data()
			if c.Index() < len(data) {
				return string(data[c.Index():])
			}

			return ""
		case KindWord, KindSetWord, KindGetWord, KindSymWord:
			return SpellingOf(c.Spelling())
		case KindChar:
			return string(c.Rune())
		}
	}

	return ip.moldOf(c)
}

func (m *molder) put(s string) {
	m.ip.moldBuf = append(m.ip.moldBuf, s...)
}

//nolint:funlen,gocyclo,cyclop
func (m *molder) cell(c *Cell) {
	if depth := QuoteDepth(c); depth > 0 {
		for i := 0; i < depth; i++ {
			m.put("'")
		}

		heart := Unquoted(c)
		m.cell(&heart)

		return
	}

	switch c.Kind() {
	case KindEnd:
		m.put("~end~")
	case KindNull:
		m.put("~null~")
	case KindVoid:
		m.put("~void~")
	case KindBlank:
		m.put("_")
	case KindLogic:
		if c.Logic() {
			m.put("true")
		} else {
			m.put("false")
		}
	case KindInteger:
		m.put(strconv.FormatInt(c.Int64(), 10))
	case KindDecimal:
		m.put(moldFloat(c.Float64()))
	case KindPercent:
		m.put(moldFloat(c.Float64() * 100))
		m.put("%")
	case KindChar:
		m.moldChar(c.Rune())
	case KindPair:
		m.cell(c.pairing.First())
		m.put("x")
		m.cell(c.pairing.Second())
	case KindTime:
		m.moldTime(c.Nano())
	case KindDate:
		m.moldDate(c)
	case KindWord:
		m.put(SpellingOf(c.Spelling()))
	case KindSetWord:
		m.put(SpellingOf(c.Spelling()))
		m.put(":")
	case KindGetWord:
		m.put(":")
		m.put(SpellingOf(c.Spelling()))
	case KindSymWord:
		m.put("@")
		m.put(SpellingOf(c.Spelling()))
	case KindIssue:
		m.put("#")
		m.put(SpellingOf(c.Spelling()))
	case KindBlock:
		m.moldArray(c, "[", "]", " ")
	case KindGroup:
		m.moldArray(c, "(", ")", " ")
	case KindPath:
		m.moldArray(c, "", "", "/")
	case KindSetPath:
		m.moldArray(c, "", "", "/")
		m.put(":")
	case KindGetPath:
		m.put(":")
		m.moldArray(c, "", "", "/")
	case KindText:
		m.moldText(c)
	case KindBinary:
		m.moldBinary(c)
	case KindBitset:
		m.put("make bitset! ")
		m.moldBinaryData(c.node.Data())
	case KindMap:
		m.moldMap(c)
	case KindObject:
		m.moldContext(c, "make object! [")
	case KindFrame:
		m.moldContext(c, "make frame! [")
	case KindError:
		m.moldError(c)
	case KindAction:
		m.moldAction(c)
	case KindVarargs:
		m.put("make varargs! [...]")
	case KindHandle:
		m.put("#[handle!]")
	case KindDatatype:
		m.put(c.Datatype().Name())
	case KindTypeset:
		m.moldTypeset(c.Typeset())
	default:
		if ck := m.ip.customFor(c.Kind()); ck != nil {
			if ck.Mold != nil {
				m.put(ck.Mold(m.ip, c))

				break
			}

			m.put("#[")
			m.put(ck.Name)
			m.put("!]")

			break
		}

		m.put("#[")
		m.put(c.Kind().Name())
		m.put("]")
	}
}

func moldFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)

	// A decimal always molds with a point so it reloads as one.
	for _, r := range s {
		if r == '.' || r == 'e' || r == 'n' || r == 'i' {
			return s
		}
	}

	return s + ".0"
}

func (m *molder) moldChar(r rune) {
	switch r {
	case '\n':
		m.put(`#"^/"`)
	case '\t':
		m.put(`#"^-"`)
	case '"':
		m.put(`#"^""`)
	default:
		m.put(`#"`)
		m.put(string(r))
		m.put(`"`)
	}
}

func (m *molder) moldTime(nano int64) {
	neg := nano < 0
	if neg {
		m.put("-")
		nano = -nano
	}

	secs := nano / 1e9
	frac := nano % 1e9

	m.put(fmt.Sprintf("%d:%02d:%02d", secs/3600, secs/60%60, secs%60))

	if frac != 0 {
		s := strconv.FormatFloat(float64(frac)/1e9, 'f', -1, 64)
		m.put(s[1:]) // drop the leading 0
	}
}

//nolint:gochecknoglobals
var monthNames = [...]string{
	"Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
}

func (m *molder) moldDate(c *Cell) {
	year, month, day, zone := c.DateParts()

	name := "???"
	if month >= 1 && month <= 12 {
		name = monthNames[month-1]
	}

	m.put(fmt.Sprintf("%d-%s-%d", day, name, year))

	if zone != 0 {
		mins := zone * 15
		sign := "+"

		if mins < 0 {
			sign = "-"
			mins = -mins
		}

		m.put(fmt.Sprintf("%s%d:%02d", sign, mins/60, mins%60))
	}
}

func (m *molder) revisiting(s *Series) bool {
	for _, a := range m.active {
		if a == s {
			return true
		}
	}

	return false
}

func (m *molder) moldArray(c *Cell, open, close, sep string) {
	a := c.node

	m.put(open)

	if m.revisiting(a) {
		m.put("...")
		m.put(close)

		return
	}

	m.active = append(m.active, a)

	for i, n := c.Index(), 0; i < a.used; i, n = i+1, n+1 {
		if n > 0 {
			m.put(sep)
		}

		if n >= moldLimit {
			m.put("...")

			break
		}

		m.cell(arrayAt(a, i))
	}

	m.active = m.active[:len(m.active)-1]

	m.put(close)
}

func (m *molder) moldText(c *Cell) {
	m.put(`"`)

	data := c.node.Data()
	if c.Index() < len(data) {
		for _, r := range string(data[c.Index():]) {
			switch r {
			case '"':
				m.put(`^"`)
			case '^':
				m.put("^^")
			case '\n':
				m.put("^/")
			case '\t':
				m.put("^-")
			default:
				m.put(string(r))
			}
		}
	}

	m.put(`"`)
}

const hexDigits = "0123456789ABCDEF"

func (m *molder) moldBinary(c *Cell) {
	data := c.node.Data()
	if c.Index() < len(data) {
		data = data[c.Index():]
	} else {
		data = nil
	}

	m.moldBinaryData(data)
}

func (m *molder) moldBinaryData(data []byte) {
	m.put("#{")

	for i, b := range data {
		if i >= moldLimit {
			m.put("...")

			break
		}

		m.ip.moldBuf = append(m.ip.moldBuf, hexDigits[b>>4], hexDigits[b&0xF])
	}

	m.put("}")
}

func (m *molder) moldMap(c *Cell) {
	m.put("make map! [")

	pairs := c.node

	if m.revisiting(pairs) {
		m.put("...]")

		return
	}

	m.active = append(m.active, pairs)

	for i := 0; i+1 < pairs.used; i += 2 {
		if i > 0 {
			m.put(" ")
		}

		m.cell(arrayAt(pairs, i))
		m.put(" ")
		m.cell(arrayAt(pairs, i+1))
	}

	m.active = m.active[:len(m.active)-1]

	m.put("]")
}

func (m *molder) moldContext(c *Cell, open string) {
	ctx := c.node

	m.put(open)

	if m.revisiting(ctx) {
		m.put("...]")

		return
	}

	m.active = append(m.active, ctx)

	for i := 1; i <= CtxLen(ctx); i++ {
		if i > 1 {
			m.put(" ")
		}

		m.put(SpellingOf(KeySpelling(CtxKey(ctx, i))))
		m.put(": ")
		m.cell(CtxVar(ctx, i))
	}

	m.active = m.active[:len(m.active)-1]

	m.put("]")
}

func (m *molder) moldError(c *Cell) {
	err := c.node

	m.put("** ")
	m.put(ErrorCategory(err))
	m.put(" error: ")
	m.put(ErrorMessage(err))

	near := CtxVar(err, errSlotNear)
	if near.Is(KindText) {
		m.put("\n** near: ")
		m.put(string(near.node.Data()))
	}

	where := CtxVar(err, errSlotWhere)
	if where.Is(KindWord) {
		m.put("\n** where: ")
		m.put(SpellingOf(where.Spelling()))
	}
}

func (m *molder) moldAction(c *Cell) {
	m.put("#[action! [")

	facade := ActFacade(c.node)
	for i := 1; i < facade.used; i++ {
		if i > 1 {
			m.put(" ")
		}

		key := arrayAt(facade, i)

		switch KeyClass(key) {
		case ParamRefinement:
			m.put("/")
		case ParamHardQuote:
			m.put("'")
		case ParamSoftQuote:
			m.put(":")
		}

		m.put(SpellingOf(KeySpelling(key)))
	}

	m.put("]]")
}

func (m *molder) moldTypeset(ts TypeMask) {
	m.put("make typeset! [")

	first := true

	for k := KindNull + 1; k < KindMaxBuiltin; k++ {
		if !ts.Has(k) {
			continue
		}

		if !first {
			m.put(" ")
		}

		first = false

		m.put(k.Name())
	}

	m.put("]")
}
