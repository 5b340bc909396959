// Released under an MIT license. See LICENSE.

package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func appendInts(ip *Interp, a *Series, vals ...int64) {
	for _, v := range vals {
		var c Cell

		InitInteger(&c, v)
		ip.AppendValue(a, &c)
	}
}

func intsOf(a *Series) []int64 {
	out := make([]int64, a.Len())
	for i := range out {
		out[i] = ArrayAt(a, i).Int64()
	}

	return out
}

func TestArrayAlwaysTerminated(t *testing.T) {
	ip := New()

	a := ip.MakeArray(2)
	assert.True(t, arrayAt(a, a.used).IsEnd())

	appendInts(ip, a, 1, 2, 3, 4, 5)
	assert.True(t, arrayAt(a, a.used).IsEnd())
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, intsOf(a))
}

func TestSingularArrayHoldsOneCellInStub(t *testing.T) {
	ip := New()

	a := ip.MakeArray(1)
	require.False(t, a.IsDynamic())
	assert.Equal(t, 0, a.Len())

	appendInts(ip, a, 9)
	assert.False(t, a.IsDynamic(), "one element fits the stub itself")
	assert.Equal(t, []int64{9}, intsOf(a))

	// A second element forces the move to a real buffer.
	appendInts(ip, a, 10)
	assert.True(t, a.IsDynamic())
	assert.Equal(t, []int64{9, 10}, intsOf(a))
	assert.True(t, arrayAt(a, a.used).IsEnd())
}

func TestHeadRemovalUsesBias(t *testing.T) {
	ip := New()

	a := ip.MakeArray(8)
	appendInts(ip, a, 1, 2, 3, 4, 5, 6)

	ip.RemoveUnits(a, 0, 2)

	assert.Equal(t, 2, a.Bias(), "head removal biases instead of copying")
	assert.Equal(t, []int64{3, 4, 5, 6}, intsOf(a))

	// Interior removal really shifts.
	ip.RemoveUnits(a, 1, 2)
	assert.Equal(t, 2, a.Bias())
	assert.Equal(t, []int64{3, 6}, intsOf(a))
}

func TestUnbiasKeepsContents(t *testing.T) {
	ip := New()

	a := ip.MakeArray(8)
	appendInts(ip, a, 1, 2, 3, 4)
	ip.RemoveUnits(a, 0, 3)
	require.Equal(t, 3, a.Bias())

	rest := a.Rest()
	ip.Unbias(a, true)

	assert.Equal(t, 0, a.Bias())
	assert.Equal(t, rest+3, a.Rest())
	assert.Equal(t, []int64{4}, intsOf(a))
}

func TestExpandOpensBlankGap(t *testing.T) {
	ip := New()

	a := ip.MakeArray(4)
	appendInts(ip, a, 1, 2)

	ip.Expand(a, 1, 2)

	assert.Equal(t, 4, a.Len())
	assert.EqualValues(t, 1, ArrayAt(a, 0).Int64())
	assert.Equal(t, KindBlank, ArrayAt(a, 1).Kind())
	assert.Equal(t, KindBlank, ArrayAt(a, 2).Kind())
	assert.EqualValues(t, 2, ArrayAt(a, 3).Int64())
}

func TestByteSeriesGrowAndCopy(t *testing.T) {
	ip := New()

	s := ip.MakeBinary(4)
	ip.AppendBytes(s, []byte("hello, "))
	ip.AppendBytes(s, []byte("world"))

	assert.Equal(t, "hello, world", string(s.Data()))

	cp := ip.CopySequence(s, 7)
	assert.Equal(t, "world", string(cp.Data()))

	// The copy is independent storage.
	ip.AppendBytes(cp, []byte("!"))
	assert.Equal(t, "hello, world", string(s.Data()))
}

func TestFrozenSeriesRefusesMutation(t *testing.T) {
	ip := New()

	a := ip.Manage(ip.MakeArray(2))
	appendInts(ip, a, 1)
	Freeze(a)

	var ref Cell

	InitBlock(&ref, a)

	failed := ip.Trap(func() {
		ip.EnsureMutable(a, &ref)
	})
	require.NotNil(t, failed)
}

func TestSymbolInterningIsCanonInsensitive(t *testing.T) {
	ip := New()

	lower := ip.Intern("word")
	again := ip.Intern("word")
	upper := ip.Intern("WORD")

	assert.Same(t, lower, again, "exact spellings share one node")
	assert.NotSame(t, lower, upper)
	assert.True(t, SameWord(lower, upper), "case variants share a canon")
	assert.Same(t, CanonOf(lower), CanonOf(upper))
}
