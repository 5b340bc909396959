// Released under an MIT license. See LICENSE.

package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecycleFreesUnreachableManagedSeries(t *testing.T) {
	ip := New()
	ip.Recycle()

	a := ip.Manage(ip.MakeArray(4))
	appendInts(ip, a, 1, 2, 3)

	ip.Recycle()
	assert.True(t, a.IsFreed())
}

func TestGuardKeepsSeriesAlive(t *testing.T) {
	ip := New()

	a := ip.Manage(ip.MakeArray(4))
	ip.Guard(a)

	ip.Recycle()
	require.False(t, a.IsFreed())

	ip.Unguard(1)
	ip.Recycle()
	assert.True(t, a.IsFreed())
}

func TestReachabilityThroughNestedCells(t *testing.T) {
	ip := New()

	inner := ip.Manage(ip.MakeArray(2))
	appendInts(ip, inner, 7)

	outer := ip.Manage(ip.MakeArray(2))

	var c Cell

	InitBlock(&c, inner)
	ip.AppendValue(outer, &c)

	ip.Guard(outer)
	defer ip.Unguard(1)

	ip.Recycle()

	assert.False(t, outer.IsFreed())
	assert.False(t, inner.IsFreed(), "reachable through the outer array")
	assert.EqualValues(t, 7, ArrayAt(ArrayAt(outer, 0).node, 0).Int64())
}

func TestDataStackIsARoot(t *testing.T) {
	ip := New()

	a := ip.Manage(ip.MakeArray(1))
	InitBlock(ip.Push(), a)

	ip.Recycle()
	require.False(t, a.IsFreed())

	ip.Drop()
	ip.Recycle()
	assert.True(t, a.IsFreed())
}

func TestUnmanagedSeriesAreNeverSwept(t *testing.T) {
	ip := New()

	a := ip.MakeArray(4)
	appendInts(ip, a, 1)

	ip.Recycle()
	require.False(t, a.IsFreed())

	ip.FreeUnmanaged(a)
	assert.True(t, a.IsFreed())
}

func TestHandleRootsSurviveUntilReleased(t *testing.T) {
	ip := New()

	a := ip.Manage(ip.MakeArray(2))
	appendInts(ip, a, 42)

	var c Cell

	InitBlock(&c, a)

	h := ip.NewHandle(&c)

	ip.Recycle()
	require.False(t, a.IsFreed())
	assert.EqualValues(t, 42, ArrayAt(HandleCell(h).node, 0).Int64())

	ip.FreeHandle(h)
	ip.Recycle()
	assert.True(t, a.IsFreed())
}

func TestCleanupHookRunsOnSweep(t *testing.T) {
	ip := New()

	ran := 0

	s := ip.Manage(ip.MakeBinary(4))
	SetCleanup(s, func(*Cell) { ran++ })

	ip.Guard(s)
	ip.Recycle()
	assert.Equal(t, 0, ran)

	ip.Unguard(1)
	ip.Recycle()
	assert.Equal(t, 1, ran)
	assert.True(t, s.IsFreed())
}

func TestSymbolCanonSurvivesWhileSynonymLives(t *testing.T) {
	ip := New()

	// Interned spellings are managed; a spelling held by a guarded
	// word cell keeps its whole case-equivalence class alive.
	lower := ip.Intern("flibbertigibbet")
	upper := ip.Intern("FLIBBERTIGIBBET")
	canon := CanonOf(lower)

	var w Cell

	InitWord(&w, upper)
	ip.Guard(&w)

	ip.Recycle()
	assert.False(t, upper.IsFreed())
	assert.False(t, canon.IsFreed(), "canon lives while any synonym does")

	ip.Unguard(1)
	ip.Recycle()
	assert.True(t, upper.IsFreed())
	assert.True(t, lower.IsFreed())
}

func TestFreedSeriesDetectsAsFreed(t *testing.T) {
	ip := New()
	ip.Recycle()

	s := ip.Manage(ip.MakeBinary(1))
	require.Equal(t, DetectedSeries, Detect(s))

	ip.Recycle()
	assert.Equal(t, DetectedFreedSeries, Detect(s))
}
