// Released under an MIT license. See LICENSE.

package core

import (
	"strconv"
	"strings"
)

// Error ids. Every failure a core primitive can raise is catalogued
// here with its category and message template; {1}..{3} interpolate
// the molded arguments.
const (
	ErrBadMake          = "bad-make"
	ErrBadCast          = "bad-cast"
	ErrUnexpectedType   = "unexpected-type"
	ErrBadChar          = "bad-char"
	ErrNoArg            = "no-arg"
	ErrBadRefines       = "bad-refines"
	ErrInvalidArg       = "invalid-arg"
	ErrBadValue         = "bad-value"
	ErrNoValue          = "no-value"
	ErrNotInContext     = "not-in-context"
	ErrStaleFrame       = "stale-frame"
	ErrOutOfRange       = "out-of-range"
	ErrIndexPastEnd     = "index-past-end"
	ErrCodepointTooHigh = "codepoint-too-high"
	ErrLockedSeries     = "locked-series"
	ErrProtected        = "protected"
	ErrReadOnly         = "read-only"
	ErrStackOverflow    = "stack-overflow"
	ErrPastEnd          = "past-end"
	ErrBadPathPick      = "bad-path-pick"
	ErrBadPathPoke      = "bad-path-poke"
	ErrNoCatch          = "no-catch"
	ErrHalt             = "halt"
	ErrUser             = "user"
	ErrHost             = "host"
	ErrSecurity         = "security"
	ErrZeroDivide       = "zero-divide"
)

type errorEntry struct {
	category string
	message  string
}

//nolint:gochecknoglobals
var errorCatalog = map[string]errorEntry{
	ErrBadMake:          {"syntax", "cannot make {1} from {2}"},
	ErrBadCast:          {"syntax", "cannot cast {1} to {2}"},
	ErrUnexpectedType:   {"syntax", "expected {1}, not {2}"},
	ErrBadChar:          {"syntax", "invalid character: {1}"},
	ErrNoArg:            {"arity", "{1} is missing its {2} argument"},
	ErrBadRefines:       {"arity", "incompatible or duplicate refinements"},
	ErrInvalidArg:       {"arity", "invalid argument: {1}"},
	ErrBadValue:         {"arity", "invalid value: {1}"},
	ErrNoValue:          {"lookup", "{1} has no value"},
	ErrNotInContext:     {"lookup", "{1} is not in the specified context"},
	ErrStaleFrame:       {"lookup", "{1} is bound to a frame that is no longer running"},
	ErrOutOfRange:       {"range", "value out of range: {1}"},
	ErrIndexPastEnd:     {"range", "index {1} is past the end of the series"},
	ErrCodepointTooHigh: {"range", "codepoint {1} is too high"},
	ErrLockedSeries:     {"access", "series is locked: {1}"},
	ErrProtected:        {"access", "{1} is protected"},
	ErrReadOnly:         {"access", "read-only: {1}"},
	ErrStackOverflow:    {"resource", "stack overflow"},
	ErrPastEnd:          {"resource", "series would exceed its size limit"},
	ErrBadPathPick:      {"script", "cannot pick {1} in path"},
	ErrBadPathPoke:      {"script", "cannot poke {1} in path"},
	ErrNoCatch:          {"script", "no catch for throw of {1}"},
	ErrHalt:             {"internal", "halted by user"},
	ErrUser:             {"user", "{1}"},
	ErrHost:             {"host", "host error {1}: {2}"},
	ErrSecurity:         {"security", "security policy denies {1}"},
	ErrZeroDivide:       {"math", "attempt to divide by zero"},
}

// The slot layout of an ERROR! context. Always the same keys in the
// same order so code can index instead of searching.
const (
	errSlotType = iota + 1
	errSlotID
	errSlotMessage
	errSlotArg1
	errSlotArg2
	errSlotArg3
	errSlotNear
	errSlotWhere
	errSlots = errSlotWhere
)

// ErrorOf builds a managed ERROR! context from a catalogued id and
// its message arguments.
func (ip *Interp) ErrorOf(id string, args ...*Cell) *Series {
	entry, ok := errorCatalog[id]
	if !ok {
		entry = errorEntry{"user", "{1}"}
	}

	msg := entry.message
	for i, a := range args {
		token := "{" + strconv.Itoa(i+1) + "}"
		msg = strings.ReplaceAll(msg, token, ip.moldOf(a))
	}

	return ip.buildError(entry.category, id, msg, args)
}

// ErrorFromText boxes a plain message into a user error context.
func (ip *Interp) ErrorFromText(text string) *Series {
	return ip.buildError("user", ErrUser, text, nil)
}

func (ip *Interp) buildError(category, id, msg string, args []*Cell) *Series {
	ctx := ip.MakeContext(KindError, errSlots)

	for _, name := range [errSlots]string{
		"type", "id", "message", "arg1", "arg2", "arg3", "near", "where",
	} {
		ip.AppendContextKey(ctx, ip.Intern(name))
	}

	InitWord(CtxVar(ctx, errSlotType), ip.Intern(category))
	InitWord(CtxVar(ctx, errSlotID), ip.Intern(id))

	text := ip.MakeBinary(len(msg))
	ip.AppendBytes(text, []byte(msg))
	InitText(CtxVar(ctx, errSlotMessage), ip.Manage(text))

	for i, a := range args {
		if i >= 3 {
			break
		}

		*CtxVar(ctx, errSlotArg1+i) = *a
	}

	if ip.topFrame != nil {
		ip.fillErrorNear(ctx, ip.topFrame)
	}

	return ip.Manage(ctx)
}

// ErrorID returns the id word of an error context.
func ErrorID(err *Series) string {
	id := arrayAt(err, errSlotID)
	if !id.Is(KindWord) {
		return ""
	}

	return SpellingOf(id.Spelling())
}

// ErrorCategory returns the category word of an error context.
func ErrorCategory(err *Series) string {
	c := arrayAt(err, errSlotType)
	if !c.Is(KindWord) {
		return ""
	}

	return SpellingOf(c.Spelling())
}

// ErrorMessage returns the rendered message of an error context.
func ErrorMessage(err *Series) string {
	msg := arrayAt(err, errSlotMessage)
	if msg.Kind() != KindText {
		return ""
	}

	return string(msg.node.Data())
}

// IsErrorContext reports whether the series is an ERROR! varlist.
func IsErrorContext(s *Series) bool {
	return s.GetFlag(seriesFlagVarlist) &&
		CtxArchetype(s).Is(KindError)
}
