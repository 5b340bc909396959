// Released under an MIT license. See LICENSE.

package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildBlock assembles a test program: int64 becomes INTEGER!, string
// becomes WORD! (or SET-WORD!/GET-WORD! with a trailing/leading
// colon), *Series becomes an inner BLOCK!.
func buildBlock(ip *Interp, items ...any) *Series {
	a := ip.MakeArray(len(items))

	for _, item := range items {
		var c Cell

		switch v := item.(type) {
		case int:
			InitInteger(&c, int64(v))
		case string:
			switch {
			case len(v) > 1 && v[len(v)-1] == ':':
				InitWordKind(&c, KindSetWord, ip.Intern(v[:len(v)-1]))
			case len(v) > 1 && v[0] == ':':
				InitWordKind(&c, KindGetWord, ip.Intern(v[1:]))
			default:
				InitWord(&c, ip.Intern(v))
			}
		case *Series:
			InitBlock(&c, ip.Manage(v))
		default:
			panic("buildBlock: unsupported item")
		}

		ip.AppendValue(a, &c)
	}

	return a
}

func evalBlock(t *testing.T, ip *Interp, items ...any) Cell {
	t.Helper()

	block := buildBlock(ip, items...)
	ip.Guard(block)
	defer ip.Unguard(1)

	ip.Manage(block)
	ip.BindArrayDeep(block, ip.Lib(), true)

	var out Cell

	require.NoError(t, ip.DoBlock(block, &out))

	return out
}

func TestEvaluationIsLeftToRight(t *testing.T) {
	ip := New()

	// Enfix math has no precedence: (1 + 2) * 3.
	out := evalBlock(t, ip, 1, "+", 2, "*", 3)
	assert.EqualValues(t, 9, out.Int64())
}

func TestDeferringEnfixWaitsForTheLeftExpression(t *testing.T) {
	ip := New()

	// THEN's left argument is normal, so it defers until 1 + 2 has
	// fully evaluated, then runs its branch.
	branch := buildBlock(ip, 10, "*", 10)
	out := evalBlock(t, ip, 1, "+", 2, "then", branch)
	assert.EqualValues(t, 100, out.Int64())
}

func TestSetWordThenGetWord(t *testing.T) {
	ip := New()

	out := evalBlock(t, ip, "x:", 10, ":x")
	assert.EqualValues(t, 10, out.Int64())
}

func TestWhileLoopsAndCountsDown(t *testing.T) {
	ip := New()

	cond := buildBlock(ip, "n", ">", 0)
	body := buildBlock(ip, "n:", "n", "-", 1)
	out := evalBlock(t, ip, "n:", 5, "while", cond, body, "n")
	assert.EqualValues(t, 0, out.Int64())
}

func TestFuncCallFulfillsArguments(t *testing.T) {
	ip := New()

	spec := buildBlock(ip, "a", "b")
	body := buildBlock(ip, "a", "+", "b")
	out := evalBlock(t, ip, "f:", "func", spec, body, "f", 3, 4)
	assert.EqualValues(t, 7, out.Int64())
}

func TestReturnUnwindsToItsFunction(t *testing.T) {
	ip := New()

	spec := buildBlock(ip, "a")
	body := buildBlock(ip, "return", "a", 99)
	out := evalBlock(t, ip, "f:", "func", spec, body, "f", 5)
	assert.EqualValues(t, 5, out.Int64())
}

func TestCatchInterceptsThrow(t *testing.T) {
	ip := New()

	body := buildBlock(ip, 1, "throw", 42, 2)
	out := evalBlock(t, ip, "catch", body)
	assert.EqualValues(t, 42, out.Int64())
}

func TestThrowInEnfixArgumentPosition(t *testing.T) {
	ip := New()

	// The throw propagates through out before + ever completes its
	// second argument.
	body := buildBlock(ip, 1, "+", "throw", 7)
	out := evalBlock(t, ip, "catch", body)
	assert.EqualValues(t, 7, out.Int64())
}

func TestBreakStopsTheLoop(t *testing.T) {
	ip := New()

	body := buildBlock(ip, "n:", "n", "+", 1, "if", "n", "=", 3, buildBlock(ip, "break"))
	out := evalBlock(t, ip, "n:", 0, "loop", 10, body, "n")
	assert.EqualValues(t, 3, out.Int64())
}

func TestUncaughtThrowFailsWithNoCatch(t *testing.T) {
	ip := New()

	block := buildBlock(ip, "throw", 1)
	ip.Guard(block)
	defer ip.Unguard(1)

	ip.Manage(block)
	ip.BindArrayDeep(block, ip.Lib(), true)

	var out Cell

	err := ip.DoBlock(block, &out)
	require.Error(t, err)

	var ee *EvalError

	require.ErrorAs(t, err, &ee)
	assert.Equal(t, ErrNoCatch, ErrorID(ee.Context))
}

func TestMissingArgumentFails(t *testing.T) {
	ip := New()

	block := buildBlock(ip, "add", 1)
	ip.Guard(block)
	defer ip.Unguard(1)

	ip.Manage(block)
	ip.BindArrayDeep(block, ip.Lib(), true)

	var out Cell

	err := ip.DoBlock(block, &out)
	require.Error(t, err)

	var ee *EvalError

	require.ErrorAs(t, err, &ee)
	assert.Equal(t, ErrNoArg, ErrorID(ee.Context))
}

func TestFrameDepthBalancesAcrossEvaluation(t *testing.T) {
	ip := New()

	require.Equal(t, 0, ip.frameDepth)

	_ = evalBlock(t, ip, 1, "+", 2)

	assert.Equal(t, 0, ip.frameDepth)
	assert.Nil(t, ip.topFrame)
}
