// Released under an MIT license. See LICENSE.

package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeepCopyDescendsMaskedKinds(t *testing.T) {
	ip := New()

	inner := ip.Manage(ip.MakeArray(2))
	appendInts(ip, inner, 1, 2)

	outer := ip.Manage(ip.MakeArray(2))
	ip.Guard(outer)
	defer ip.Unguard(1)

	var b Cell

	InitBlock(&b, inner)
	ip.AppendValue(outer, &b)

	var src, dst Cell

	InitBlock(&src, outer)
	ip.CopyValueDeep(&dst, &src, MaskAnyArray)

	require.NotSame(t, outer, dst.node)
	copied := arrayAt(dst.node, 0)
	require.NotSame(t, inner, copied.node)
	assert.Equal(t, []int64{1, 2}, intsOf(copied.node))

	// Writing through the copy leaves the original alone.
	var nv Cell

	InitInteger(&nv, 99)
	*writableAt(copied.node, 0) = nv
	assert.Equal(t, []int64{1, 2}, intsOf(inner))
}

func TestDeepCopyConstOverlayOnSharedKinds(t *testing.T) {
	ip := New()

	text := ip.Manage(ip.MakeBinary(4))
	ip.AppendBytes(text, []byte("abc"))

	a := ip.Manage(ip.MakeArray(2))
	ip.Guard(a)
	defer ip.Unguard(1)

	var tc Cell

	InitText(&tc, text)
	ip.AppendValue(a, &tc)

	var src, dst Cell

	InitBlock(&src, a)
	ip.CopyValueDeep(&dst, &src, MaskAnyArray)

	// Text was outside the mask: shared, but const through the copy.
	shared := arrayAt(dst.node, 0)
	assert.Same(t, text, shared.node)
	assert.True(t, shared.GetFlag(CellFlagConst))

	failed := ip.Trap(func() {
		ip.EnsureMutable(shared.node, shared)
	})
	require.NotNil(t, failed)
	assert.Equal(t, ErrLockedSeries, ErrorID(failed))

	// The original reference stays writable.
	assert.False(t, tc.GetFlag(CellFlagConst))
}

func TestDeepCopyOfCyclicArrayFails(t *testing.T) {
	ip := New()

	a := ip.Manage(ip.MakeArray(2))
	ip.Guard(a)
	defer ip.Unguard(1)

	var self Cell

	InitBlock(&self, a)
	ip.AppendValue(a, &self)

	var src, dst Cell

	InitBlock(&src, a)

	failed := ip.Trap(func() {
		ip.CopyValueDeep(&dst, &src, MaskAnyArray)
	})
	require.NotNil(t, failed)
	assert.Equal(t, ErrStackOverflow, ErrorID(failed))

	// The failure unwound cleanly; the interpreter still copies.
	flat := ip.Manage(ip.MakeArray(2))
	appendInts(ip, flat, 7)
	InitBlock(&src, flat)
	ip.CopyValueDeep(&dst, &src, MaskAnyArray)
	assert.Equal(t, []int64{7}, intsOf(dst.node))
}

func TestEqualTerminatesOnCyclicArrays(t *testing.T) {
	ip := New()

	x := ip.Manage(ip.MakeArray(2))
	y := ip.Manage(ip.MakeArray(2))
	ip.Guard(x)
	ip.Guard(y)
	defer ip.Unguard(2)

	var cx, cy Cell

	InitBlock(&cx, x)
	ip.AppendValue(x, &cx)
	InitBlock(&cy, y)
	ip.AppendValue(y, &cy)

	// A cycle compared against itself is equal by identity.
	assert.True(t, Equal(&cx, &cx))

	// Two structurally alike but distinct cycles bottom out at the
	// recursion limit and compare by identity there.
	assert.False(t, Equal(&cx, &cy))
}
