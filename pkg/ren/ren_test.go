// Released under an MIT license. See LICENSE.

package ren

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rhencke/ren/internal/core"
)

func doInt(t *testing.T, m *Machine, source string) int64 {
	t.Helper()

	v, err := m.Do(source)
	require.NoError(t, err, "evaluating %q", source)
	require.NotNil(t, v, "evaluating %q", source)

	defer v.Release()

	n, err := v.Int64()
	require.NoError(t, err)

	return n
}

func doMold(t *testing.T, m *Machine, source string) string {
	t.Helper()

	v, err := m.Do(source)
	require.NoError(t, err, "evaluating %q", source)
	require.NotNil(t, v, "evaluating %q", source)

	defer v.Release()

	return v.Mold()
}

func TestArithmeticIsLeftToRight(t *testing.T) {
	m := New()

	assert.EqualValues(t, 9, doInt(t, m, "1 + 2 * 3"))
	assert.EqualValues(t, 7, doInt(t, m, "1 + (2 * 3)"))
}

func TestIntegerArithmeticIsExact(t *testing.T) {
	m := New()

	// Past 2^53 a float64 detour would round these.
	assert.EqualValues(t, 9007199254740994, doInt(t, m,
		"9007199254740993 + 1"))
	assert.EqualValues(t, 9007199254740991, doInt(t, m,
		"9007199254740993 - 2"))
	assert.EqualValues(t, 9007199254740993, doInt(t, m,
		"divide 18014398509481986 2"))
}

func TestWordsHoldState(t *testing.T) {
	m := New()

	assert.EqualValues(t, 10, doInt(t, m, "x: 10"))
	assert.EqualValues(t, 15, doInt(t, m, "x + 5"))
	assert.EqualValues(t, 10, doInt(t, m, ":x"))
}

func TestConditionals(t *testing.T) {
	m := New()

	assert.Equal(t, `"big"`, doMold(t, m, `either 10 > 5 ["big"] ["small"]`))
	assert.EqualValues(t, 1, doInt(t, m, "if true [1]"))

	v, err := m.Do("if false [1]")
	require.NoError(t, err)
	assert.Nil(t, v, "a failed IF yields no value")
}

func TestThenElseDeferToTheLeftExpression(t *testing.T) {
	m := New()

	assert.EqualValues(t, 2, doInt(t, m, "1 + 1 then [2]"))
	assert.EqualValues(t, 3, doInt(t, m, "if false [1] else [3]"))
}

func TestLoops(t *testing.T) {
	m := New()

	assert.EqualValues(t, 10, doInt(t, m, "n: 0 loop 5 [n: n + 2] n"))
	assert.EqualValues(t, 15, doInt(t, m, "total: 0 repeat i 5 [total: total + i] total"))
	assert.EqualValues(t, 0, doInt(t, m, "n: 5 while [n > 0] [n: n - 1] n"))
	assert.EqualValues(t, 3, doInt(t, m, "n: 0 loop 10 [n: n + 1 if n = 3 [break]] n"))
}

func TestFunctionsAndRefinements(t *testing.T) {
	m := New()

	assert.EqualValues(t, 7, doInt(t, m, "f: func [a b] [a + b] f 3 4"))
	assert.EqualValues(t, 12, doInt(t, m, "g: func [a /double] [either double [a * 2] [a]] g/double 6"))
	assert.EqualValues(t, 6, doInt(t, m, "g 6"))
}

func TestQuotedArguments(t *testing.T) {
	m := New()

	// A hard-quoted parameter receives its argument unevaluated.
	assert.Equal(t, "missing", doMold(t, m, "q: func ['w] [mold w] q missing"))
}

func TestQuoteAndUnquote(t *testing.T) {
	m := New()

	assert.Equal(t, "'x", doMold(t, m, "quote 'x"))
	assert.Equal(t, "''''x", doMold(t, m, "quote quote quote quote 'x"))
	assert.Equal(t, "x", doMold(t, m, "unquote quote 'x"))
	assert.Equal(t, "true", doMold(t, m, "quoted? the 'x"))
	assert.Equal(t, "false", doMold(t, m, "quoted? 'x"))
}

func TestCatchThrow(t *testing.T) {
	m := New()

	assert.EqualValues(t, 42, doInt(t, m, "catch [1 throw 42 2]"))
	assert.EqualValues(t, 3, doInt(t, m, "catch [3]"))

	// A throw in argument position bubbles out before the operator
	// ever sees a second argument.
	assert.EqualValues(t, 7, doInt(t, m, "catch [1 + throw 7]"))
}

func TestTryCapturesFailure(t *testing.T) {
	m := New()

	assert.Equal(t, "error!", doMold(t, m, "type-of try [divide 1 0]"))
	assert.Equal(t, "zero-divide", doMold(t, m, "e: try [divide 1 0] e/id"))

	// Failure unwinds cleanly: the machine still works after.
	assert.EqualValues(t, 5, doInt(t, m, "2 + 3"))
}

func TestUncaughtFailureSurfacesAsError(t *testing.T) {
	m := New()

	_, err := m.Do("divide 1 0")
	require.Error(t, err)

	var ee *core.EvalError

	require.ErrorAs(t, err, &ee)
	assert.Equal(t, core.ErrZeroDivide, core.ErrorID(ee.Context))
}

func TestQuitSurfacesAsErrQuit(t *testing.T) {
	m := New()

	_, err := m.Do("1 quit 2")
	assert.ErrorIs(t, err, core.ErrQuit)
}

func TestSeriesOperations(t *testing.T) {
	m := New()

	assert.Equal(t, "[1 2 3 4]", doMold(t, m, "b: [1 2 3] append b 4 b"))
	assert.EqualValues(t, 4, doInt(t, m, "length-of b"))
	assert.EqualValues(t, 2, doInt(t, m, "pick b 2"))
	assert.Equal(t, "[1 9 3 4]", doMold(t, m, "poke b 2 9 b"))
	assert.EqualValues(t, 9, doInt(t, m, "first next b"))
	assert.Equal(t, "[3 4]", doMold(t, m, "remove remove b b"))
}

func TestPaths(t *testing.T) {
	m := New()

	assert.EqualValues(t, 800, doInt(t, m, "o: make object! [w: 800 h: 600] o/w"))
	assert.EqualValues(t, 640, doInt(t, m, "o/w: 640 o/w"))
	assert.EqualValues(t, 25, doInt(t, m, "d: 25-Dec-2020 d/day"))
	assert.EqualValues(t, 26, doInt(t, m, "d/day: 26 d/day"))
	assert.EqualValues(t, 2, doInt(t, m, "nested: [a [b 2]] nested/a/b"))
}

func TestMaps(t *testing.T) {
	m := New()

	assert.EqualValues(t, 1, doInt(t, m, "mp: make map! [a 1 b 2] select mp 'a"))
	assert.EqualValues(t, 2, doInt(t, m, "mp/b"))
	assert.EqualValues(t, 7, doInt(t, m, "mp/c: 7 mp/c"))
}

func TestSpecializeAndAdapt(t *testing.T) {
	m := New()

	assert.EqualValues(t, 15, doInt(t, m,
		"add-ten: specialize :add [value1: 10] add-ten 5"))
	assert.EqualValues(t, 12, doInt(t, m,
		"log: adapt :add [value1: value1 + 1] log 5 6"))
}

func TestEnfixMarksAction(t *testing.T) {
	m := New()

	assert.EqualValues(t, 9, doInt(t, m, "plus: enfix :add 4 plus 5"))
}

func TestProtect(t *testing.T) {
	m := New()

	_, err := m.Do("fixed: 1 protect 'fixed fixed: 2")
	require.Error(t, err)

	var ee *core.EvalError

	require.ErrorAs(t, err, &ee)
	assert.Equal(t, core.ErrProtected, core.ErrorID(ee.Context))
}

func TestReduceAndCopy(t *testing.T) {
	m := New()

	assert.Equal(t, "[3 7]", doMold(t, m, "reduce [1 + 2 3 + 4]"))
	assert.Equal(t, "[1 2]", doMold(t, m, "orig: [1 2] dup: copy orig append dup 3 orig"))
}

func TestValueSplicing(t *testing.T) {
	m := New()

	ten, err := m.Do("10")
	require.NoError(t, err)

	defer ten.Release()

	v, err := m.Do("5 + ", ten)
	require.NoError(t, err)

	defer v.Release()

	n, err := v.Int64()
	require.NoError(t, err)
	assert.EqualValues(t, 15, n)
}

func TestSplicedValuesSurviveCollection(t *testing.T) {
	m := New()

	held, err := m.Do(`append copy "kept " "alive"`)
	require.NoError(t, err)

	defer held.Release()

	m.Interp().Recycle()

	assert.Equal(t, "kept alive", held.Spell())
}

func TestUnboxing(t *testing.T) {
	m := New()

	v, err := m.Do("42")
	require.NoError(t, err)

	defer v.Release()

	assert.Equal(t, "integer!", v.Type())

	n, err := v.Int64()
	require.NoError(t, err)
	assert.EqualValues(t, 42, n)

	f, err := v.Float64()
	require.NoError(t, err)
	assert.Equal(t, 42.0, f)

	_, err = v.Logic()
	assert.ErrorIs(t, err, ErrWrongType)

	buf := make([]byte, 2)
	assert.Equal(t, 2, v.SpellInto(buf))
	assert.Equal(t, "42", string(buf))
}

func TestBadArgumentsAreRejected(t *testing.T) {
	m := New()

	_, err := m.Do(3.14)
	assert.ErrorIs(t, err, ErrBadArgument)

	_, err = m.Do("1 +", nil)
	assert.ErrorIs(t, err, ErrBadArgument)
}

func TestNullResultsComeBackNil(t *testing.T) {
	m := New()

	for _, source := range []string{"if false [1]", "comment {nothing}", ""} {
		v, err := m.Do(source)
		require.NoError(t, err, "evaluating %q", source)
		assert.Nil(t, v, "evaluating %q", source)
	}
}

func TestScanErrorsPropagate(t *testing.T) {
	m := New()

	_, err := m.Do("[1 2")
	require.Error(t, err)
	assert.True(t, errors.As(err, new(interface{ Error() string })))
}
