// Released under an MIT license. See LICENSE.

// Package scan turns source text into arrays of cells. The scanner
// is a recursive descent over one buffer: brackets and parentheses
// recurse, everything else is a token classified by its leading
// characters and reparsed into the matching cell.
package scan

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rhencke/ren/internal/core"
)

// Error reports where scanning failed.
type Error struct {
	Name string
	Line int
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.Name, e.Line, e.Msg)
}

// Incomplete reports whether err says the source ended inside an
// open construct, so a console should keep reading lines.
func Incomplete(err error) bool {
	var se *Error
	if !errors.As(err, &se) {
		return false
	}

	return strings.HasPrefix(se.Msg, "missing ") ||
		strings.HasPrefix(se.Msg, "unterminated ")
}

// T holds the state of one scan.
type T struct {
	ip   *core.Interp
	name string
	src  string
	i    int
	line int

	newline bool // a newline was crossed before the next value
}

// New creates a scanner over source. Label is a file name or other
// identifier for error reports.
func New(ip *core.Interp, label, source string) *T {
	return &T{ip: ip, name: label, src: source, i: 0, line: 1}
}

// Load scans source into a block array. The result is unmanaged; the
// caller owns it.
func Load(ip *core.Interp, label, source string) (*core.Series, error) {
	t := New(ip, label, source)

	block, err := t.sequence(0)
	if err != nil {
		return nil, err
	}

	t.skip()

	if t.i < len(t.src) {
		return nil, t.failf("unexpected %q", t.src[t.i])
	}

	return block, nil
}

func (t *T) failf(format string, args ...any) error {
	return &Error{Name: t.name, Line: t.line, Msg: fmt.Sprintf(format, args...)}
}

// sequence scans values until the closing delimiter (0 for end of
// input) and collects them into a fresh array.
func (t *T) sequence(close byte) (*core.Series, error) {
	a := t.ip.MakeArray(8)
	t.ip.Guard(a)

	for {
		t.skip()

		if t.i >= len(t.src) {
			t.ip.Unguard(1)

			if close != 0 {
				return nil, t.failf("missing %q", close)
			}

			return a, nil
		}

		if t.src[t.i] == close {
			t.i++
			t.ip.Unguard(1)

			return a, nil
		}

		if t.src[t.i] == ']' || t.src[t.i] == ')' {
			t.ip.Unguard(1)

			return nil, t.failf("unexpected %q", t.src[t.i])
		}

		var c core.Cell

		newline := t.newline
		t.newline = false

		if err := t.value(&c); err != nil {
			t.ip.Unguard(1)

			return nil, err
		}

		if newline {
			c.SetFlag(core.CellFlagNewlineBefore)
		}

		t.ip.AppendValue(a, &c)
	}
}

// skip consumes whitespace and comments, noting newlines.
func (t *T) skip() {
	for t.i < len(t.src) {
		switch t.src[t.i] {
		case '\n':
			t.line++
			t.newline = true
			t.i++
		case ' ', '\t', '\r':
			t.i++
		case ';':
			for t.i < len(t.src) && t.src[t.i] != '\n' {
				t.i++
			}
		default:
			return
		}
	}
}

func delimiter(b byte) bool {
	switch b {
	case ' ', '\t', '\r', '\n', '[', ']', '(', ')', '"', ';':
		return true
	}

	return false
}

// value scans one value, including any path it heads.
//
//nolint:gocyclo,cyclop,funlen
func (t *T) value(out *core.Cell) error {
	b := t.src[t.i]

	switch b {
	case '[':
		t.i++

		a, err := t.sequence(']')
		if err != nil {
			return err
		}

		core.InitBlock(out, t.ip.Manage(a))

		return nil

	case '(':
		t.i++

		a, err := t.sequence(')')
		if err != nil {
			return err
		}

		core.InitGroup(out, t.ip.Manage(a))

		return nil

	case '"':
		return t.quotedText(out)

	case '{':
		return t.bracedText(out)

	case '\'':
		depth := 0
		for t.i < len(t.src) && t.src[t.i] == '\'' {
			depth++
			t.i++
		}

		if t.i >= len(t.src) || delimiter(t.src[t.i]) {
			return t.failf("quote with nothing to quote")
		}

		if err := t.value(out); err != nil {
			return err
		}

		t.ip.Quotify(out, depth)

		return nil

	case '#':
		return t.hash(out)

	case ':':
		t.i++

		if t.i >= len(t.src) || delimiter(t.src[t.i]) {
			return t.failf("get-word with no word")
		}

		if err := t.value(out); err != nil {
			return err
		}

		return t.getify(out)

	case '@':
		t.i++

		word, err := t.word()
		if err != nil {
			return err
		}

		core.InitWordKind(out, core.KindSymWord, t.ip.Intern(word))

		return nil

	case '/':
		// A leading slash heads a refinement-shaped path.
		return t.path(out, blankCell())

	case '_':
		if t.i+1 >= len(t.src) || delimiter(t.src[t.i+1]) {
			t.i++
			core.InitBlank(out)

			return nil
		}
	}

	if b >= '0' && b <= '9' ||
		(b == '-' || b == '+') && t.i+1 < len(t.src) &&
			t.src[t.i+1] >= '0' && t.src[t.i+1] <= '9' {
		return t.number(out)
	}

	return t.wordish(out)
}

func blankCell() *core.Cell {
	c := new(core.Cell)
	core.InitBlank(c)

	return c
}

// getify turns the scanned value into its get- form.
func (t *T) getify(out *core.Cell) error {
	switch {
	case out.Is(core.KindWord):
		core.InitWordKind(out, core.KindGetWord, out.Spelling())
	case out.Is(core.KindPath):
		node := out.Node()
		core.InitSeriesKind(out, core.KindGetPath, node, 0)
	default:
		return t.failf("cannot make a get- form of that")
	}

	return nil
}

// word reads a plain word token.
func (t *T) word() (string, error) {
	start := t.i

	for t.i < len(t.src) && wordByte(t.src[t.i]) {
		t.i++
	}

	if t.i == start {
		return "", t.failf("expected a word")
	}

	return t.src[start:t.i], nil
}

// wordByte reports whether b can appear inside a word spelling.
func wordByte(b byte) bool {
	if delimiter(b) {
		return false
	}

	switch b {
	case '/', ':', '\'', '{', '}':
		return false
	}

	return true
}

// wordish scans a word, set-word, or path headed by a word.
func (t *T) wordish(out *core.Cell) error {
	word, err := t.word()
	if err != nil {
		return err
	}

	head := new(core.Cell)
	core.InitWord(head, t.ip.Intern(word))

	if t.i < len(t.src) {
		switch t.src[t.i] {
		case '/':
			return t.path(out, head)
		case ':':
			t.i++
			core.InitWordKind(out, core.KindSetWord, t.ip.Intern(word))

			return nil
		}
	}

	*out = *head

	return nil
}

// path scans the remainder of a path whose first element is head.
// A trailing colon makes it a set-path.
func (t *T) path(out *core.Cell, head *core.Cell) error {
	a := t.ip.MakeArray(4)
	t.ip.Guard(a)

	t.ip.AppendValue(a, head)

	for t.i < len(t.src) && t.src[t.i] == '/' {
		t.i++

		if t.i >= len(t.src) || delimiter(t.src[t.i]) {
			t.ip.Unguard(1)

			return t.failf("path ends with a slash")
		}

		var seg core.Cell

		if err := t.pathSegment(&seg); err != nil {
			t.ip.Unguard(1)

			return err
		}

		t.ip.AppendValue(a, &seg)
	}

	kind := core.KindPath

	if t.i < len(t.src) && t.src[t.i] == ':' {
		t.i++

		kind = core.KindSetPath
	}

	t.ip.Unguard(1)
	core.InitSeriesKind(out, kind, t.ip.Manage(a), 0)

	return nil
}

// pathSegment scans one step of a path: a word, an integer, or a
// group.
func (t *T) pathSegment(out *core.Cell) error {
	b := t.src[t.i]

	switch {
	case b == '(':
		t.i++

		a, err := t.sequence(')')
		if err != nil {
			return err
		}

		core.InitGroup(out, t.ip.Manage(a))

		return nil

	case b >= '0' && b <= '9':
		start := t.i
		for t.i < len(t.src) && t.src[t.i] >= '0' && t.src[t.i] <= '9' {
			t.i++
		}

		n, err := strconv.ParseInt(t.src[start:t.i], 10, 64)
		if err != nil {
			return t.failf("bad integer in path")
		}

		core.InitInteger(out, n)

		return nil

	default:
		word, err := t.word()
		if err != nil {
			return err
		}

		core.InitWord(out, t.ip.Intern(word))

		return nil
	}
}

// quotedText scans a "..." string with caret escapes.
func (t *T) quotedText(out *core.Cell) error {
	t.i++ // opening quote

	var sb strings.Builder

	for t.i < len(t.src) {
		b := t.src[t.i]

		switch b {
		case '"':
			t.i++

			s := t.ip.MakeBinary(sb.Len())
			t.ip.AppendBytes(s, []byte(sb.String()))
			core.InitText(out, t.ip.Manage(s))

			return nil

		case '\n':
			return t.failf("unterminated string")

		case '^':
			r, err := t.caret()
			if err != nil {
				return err
			}

			sb.WriteRune(r)

		default:
			r, w := utf8.DecodeRuneInString(t.src[t.i:])
			sb.WriteRune(r)
			t.i += w
		}
	}

	return t.failf("unterminated string")
}

// bracedText scans a {...} string, which nests and spans lines.
func (t *T) bracedText(out *core.Cell) error {
	t.i++ // opening brace

	depth := 1

	var sb strings.Builder

	for t.i < len(t.src) {
		b := t.src[t.i]

		switch b {
		case '{':
			depth++

			sb.WriteByte(b)
			t.i++

		case '}':
			depth--
			t.i++

			if depth == 0 {
				s := t.ip.MakeBinary(sb.Len())
				t.ip.AppendBytes(s, []byte(sb.String()))
				core.InitText(out, t.ip.Manage(s))

				return nil
			}

			sb.WriteByte(b)

		case '\n':
			t.line++

			sb.WriteByte(b)
			t.i++

		case '^':
			r, err := t.caret()
			if err != nil {
				return err
			}

			sb.WriteRune(r)

		default:
			r, w := utf8.DecodeRuneInString(t.src[t.i:])
			sb.WriteRune(r)
			t.i += w
		}
	}

	return t.failf("unterminated string")
}

// caret decodes one ^ escape, leaving the cursor past it.
func (t *T) caret() (rune, error) {
	t.i++ // the caret

	if t.i >= len(t.src) {
		return 0, t.failf("dangling escape")
	}

	b := t.src[t.i]
	t.i++

	switch b {
	case '/':
		return '\n', nil
	case '-':
		return '\t', nil
	case '^':
		return '^', nil
	case '"':
		return '"', nil
	case '(':
		// ^(hex) codepoint escape.
		end := strings.IndexByte(t.src[t.i:], ')')
		if end < 0 {
			return 0, t.failf("unterminated codepoint escape")
		}

		n, err := strconv.ParseInt(t.src[t.i:t.i+end], 16, 32)
		if err != nil || n > unicode.MaxRune {
			return 0, t.failf("bad codepoint escape")
		}

		t.i += end + 1

		return rune(n), nil
	}

	return 0, t.failf("unknown escape ^%c", b)
}

// hash scans the #-prefixed forms: char, binary, and issue.
func (t *T) hash(out *core.Cell) error {
	t.i++ // the hash

	if t.i >= len(t.src) {
		return t.failf("dangling #")
	}

	switch t.src[t.i] {
	case '"':
		return t.char(out)
	case '{':
		return t.binary(out)
	case '[':
		return t.construction(out)
	}

	word, err := t.word()
	if err != nil {
		return err
	}

	core.InitWordKind(out, core.KindIssue, t.ip.Intern(word))

	return nil
}

// construction scans a #[...] literal. Only the logic constructions
// are recognized.
func (t *T) construction(out *core.Cell) error {
	t.i++ // the bracket

	word, err := t.word()
	if err != nil {
		return err
	}

	if t.i >= len(t.src) || t.src[t.i] != ']' {
		return t.failf("unterminated construction")
	}

	t.i++ // the bracket

	switch word {
	case "true":
		core.InitLogic(out, true)
	case "false":
		core.InitLogic(out, false)
	default:
		return t.failf("unknown construction #[%s]", word)
	}

	return nil
}

func (t *T) char(out *core.Cell) error {
	t.i++ // opening quote

	if t.i >= len(t.src) {
		return t.failf("unterminated character")
	}

	var r rune

	if t.src[t.i] == '^' {
		var err error

		r, err = t.caret()
		if err != nil {
			return err
		}
	} else {
		var w int

		r, w = utf8.DecodeRuneInString(t.src[t.i:])
		t.i += w
	}

	if t.i >= len(t.src) || t.src[t.i] != '"' {
		return t.failf("unterminated character")
	}

	t.i++

	core.InitChar(out, r)

	return nil
}

func (t *T) binary(out *core.Cell) error {
	t.i++ // opening brace

	s := t.ip.MakeBinary(8)
	t.ip.Guard(s)

	hi := byte(0xFF)

	for t.i < len(t.src) {
		b := t.src[t.i]
		t.i++

		switch {
		case b == '}':
			t.ip.Unguard(1)

			if hi != 0xFF {
				return t.failf("odd number of hex digits")
			}

			core.InitBinary(out, t.ip.Manage(s))

			return nil

		case b == ' ' || b == '\t' || b == '\r':

		case b == '\n':
			t.line++

		default:
			d := hexValue(b)
			if d == 0xFF {
				t.ip.Unguard(1)

				return t.failf("bad hex digit %q", b)
			}

			if hi == 0xFF {
				hi = d
			} else {
				t.ip.AppendBytes(s, []byte{hi<<4 | d})
				hi = 0xFF
			}
		}
	}

	t.ip.Unguard(1)

	return t.failf("unterminated binary")
}

func hexValue(b byte) byte {
	switch {
	case b >= '0' && b <= '9':
		return b - '0'
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10
	}

	return 0xFF
}

// number scans the numeric-looking forms: integer, decimal, percent,
// pair, time, and date.
//
//nolint:gocyclo,cyclop
func (t *T) number(out *core.Cell) error {
	start := t.i

	if t.src[t.i] == '-' || t.src[t.i] == '+' {
		t.i++
	}

	for t.i < len(t.src) && !delimiter(t.src[t.i]) && t.src[t.i] != '/' {
		t.i++
	}

	text := t.src[start:t.i]

	if strings.ContainsRune(text, ':') {
		return t.time(text, out)
	}

	if strings.HasSuffix(text, "%") {
		f, err := strconv.ParseFloat(text[:len(text)-1], 64)
		if err != nil {
			return t.failf("bad percent %q", text)
		}

		core.InitPercent(out, f/100)

		return nil
	}

	if n, err := strconv.ParseInt(text, 10, 64); err == nil {
		core.InitInteger(out, n)

		// An integer can head a path: see pathSegment for steps.
		if t.i < len(t.src) && t.src[t.i] == '/' {
			head := *out

			return t.path(out, &head)
		}

		return nil
	}

	if f, err := strconv.ParseFloat(text, 64); err == nil {
		core.InitDecimal(out, f)

		return nil
	}

	if i := strings.IndexByte(text, 'x'); i > 0 {
		return t.pair(text, i, out)
	}

	return t.date(text, out)
}

// pair splits NxM into its two numeric halves.
func (t *T) pair(text string, split int, out *core.Cell) error {
	x, errX := strconv.ParseFloat(text[:split], 64)
	y, errY := strconv.ParseFloat(text[split+1:], 64)

	if errX != nil || errY != nil {
		return t.failf("bad pair %q", text)
	}

	p := t.ip.NewPairing()

	half := func(c *core.Cell, f float64) {
		if f == float64(int64(f)) {
			core.InitInteger(c, int64(f))
		} else {
			core.InitDecimal(c, f)
		}
	}

	half(p.First(), x)
	half(p.Second(), y)
	core.InitPair(out, t.ip.ManagePairing(p))

	return nil
}

func (t *T) time(text string, out *core.Cell) error {
	parts := strings.Split(text, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return t.failf("bad time %q", text)
	}

	neg := strings.HasPrefix(parts[0], "-")

	h, err := strconv.ParseInt(strings.TrimPrefix(parts[0], "-"), 10, 64)
	if err != nil {
		return t.failf("bad time %q", text)
	}

	m, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || m > 59 {
		return t.failf("bad time %q", text)
	}

	var sec float64

	if len(parts) == 3 {
		sec, err = strconv.ParseFloat(parts[2], 64)
		if err != nil || sec >= 60 {
			return t.failf("bad time %q", text)
		}
	}

	nano := h*3600*1e9 + m*60*1e9 + int64(sec*1e9)
	if neg {
		nano = -nano
	}

	core.InitTime(out, nano)

	return nil
}

func (t *T) date(text string, out *core.Cell) error {
	parts := strings.Split(text, "-")
	if len(parts) != 3 {
		return t.failf("bad date %q", text)
	}

	day, err := strconv.Atoi(parts[0])
	if err != nil || day < 1 || day > 31 {
		return t.failf("bad date %q", text)
	}

	month := monthNumber(parts[1])
	if month == 0 {
		return t.failf("bad date %q", text)
	}

	year, err := strconv.Atoi(parts[2])
	if err != nil {
		return t.failf("bad date %q", text)
	}

	core.InitDate(out, year, month, day, 0)

	return nil
}

func monthNumber(s string) int {
	if n, err := strconv.Atoi(s); err == nil && n >= 1 && n <= 12 {
		return n
	}

	names := []string{
		"jan", "feb", "mar", "apr", "may", "jun",
		"jul", "aug", "sep", "oct", "nov", "dec",
	}

	folded := strings.ToLower(s)
	for i, name := range names {
		if strings.HasPrefix(folded, name) {
			return i + 1
		}
	}

	return 0
}
