// Released under an MIT license. See LICENSE.

package core

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapSetGetRemove(t *testing.T) {
	ip := New()

	m := ip.MakeMap(4)
	ip.Guard(m)
	defer ip.Unguard(1)

	var k, v, out Cell

	InitWord(&k, ip.Intern("alpha"))
	InitInteger(&v, 1)
	ip.MapSet(m, &k, &v)

	require.True(t, ip.MapGet(m, &k, &out))
	assert.EqualValues(t, 1, out.Int64())

	// Overwrite, not duplicate.
	InitInteger(&v, 2)
	ip.MapSet(m, &k, &v)
	assert.Equal(t, 1, MapLen(m))

	require.True(t, ip.MapGet(m, &k, &out))
	assert.EqualValues(t, 2, out.Int64())

	assert.True(t, ip.MapRemove(m, &k))
	assert.False(t, ip.MapGet(m, &k, &out))
	assert.False(t, ip.MapRemove(m, &k))
}

func TestMapKeysAreCanonInsensitive(t *testing.T) {
	ip := New()

	m := ip.MakeMap(4)
	ip.Guard(m)
	defer ip.Unguard(1)

	var k, v, out Cell

	InitWord(&k, ip.Intern("Key"))
	InitInteger(&v, 7)
	ip.MapSet(m, &k, &v)

	InitWord(&k, ip.Intern("KEY"))
	require.True(t, ip.MapGet(m, &k, &out))
	assert.EqualValues(t, 7, out.Int64())
}

func TestMapGrowsIntoHashIndex(t *testing.T) {
	ip := New()

	m := ip.MakeMap(2)
	ip.Guard(m)
	defer ip.Unguard(1)

	const n = 50

	var k, v, out Cell

	for i := 0; i < n; i++ {
		InitWord(&k, ip.Intern("key-"+strconv.Itoa(i)))
		InitInteger(&v, int64(i*i))
		ip.MapSet(m, &k, &v)
	}

	assert.Equal(t, n, MapLen(m))

	for i := 0; i < n; i++ {
		InitWord(&k, ip.Intern("key-"+strconv.Itoa(i)))
		require.True(t, ip.MapGet(m, &k, &out), "key-%d", i)
		assert.EqualValues(t, i*i, out.Int64())
	}

	// Integer keys hash too.
	InitInteger(&k, 99)
	InitInteger(&v, -1)
	ip.MapSet(m, &k, &v)

	require.True(t, ip.MapGet(m, &k, &out))
	assert.EqualValues(t, -1, out.Int64())
}

func TestContextKeysResolveByCanon(t *testing.T) {
	ip := New()

	ctx := ip.MakeContext(KindObject, 4)
	ip.Guard(ctx)
	defer ip.Unguard(1)

	slot := ip.AppendContextKey(ctx, ip.Intern("value"))
	InitInteger(slot, 11)

	assert.Equal(t, 1, FindContextKey(ctx, ip.Intern("VALUE")))
	assert.Equal(t, 0, FindContextKey(ctx, ip.Intern("missing")))
	assert.EqualValues(t, 11, CtxVar(ctx, 1).Int64())
}

func TestBoundWordReadsAndWritesItsSlot(t *testing.T) {
	ip := New()

	ctx := ip.MakeContext(KindObject, 4)
	ip.Guard(ctx)
	defer ip.Unguard(1)

	InitInteger(ip.AppendContextKey(ctx, ip.Intern("x")), 5)

	var w Cell

	InitWord(&w, ip.Intern("x"))
	require.True(t, ip.Bind(&w, ctx))

	assert.EqualValues(t, 5, ip.GetVar(&w).Int64())

	var nv Cell

	InitInteger(&nv, 6)
	ip.SetVar(&w, &nv)
	assert.EqualValues(t, 6, CtxVar(ctx, 1).Int64())
}
