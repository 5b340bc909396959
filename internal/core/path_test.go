// Released under an MIT license. See LICENSE.

package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPickArrayByIndexAndWord(t *testing.T) {
	ip := New()

	a := ip.Manage(ip.MakeArray(4))
	ip.Guard(a)
	defer ip.Unguard(1)

	var w, v Cell

	InitWord(&w, ip.Intern("size"))
	ip.AppendValue(a, &w)
	InitInteger(&v, 64)
	ip.AppendValue(a, &v)

	var ref, picker, out Cell

	InitBlock(&ref, a)

	// 1-based integer pick.
	InitInteger(&picker, 2)
	require.True(t, pickArray(ip, &ref, &picker, &out))
	assert.EqualValues(t, 64, out.Int64())

	// Word pick selects the value after the matching word.
	InitWord(&picker, ip.Intern("size"))
	require.True(t, pickArray(ip, &ref, &picker, &out))
	assert.EqualValues(t, 64, out.Int64())

	// Past the tail is a null pick.
	InitInteger(&picker, 9)
	require.True(t, pickArray(ip, &ref, &picker, &out))
	assert.Equal(t, KindNull, out.Kind())
}

func TestPokeArrayWritesInPlace(t *testing.T) {
	ip := New()

	a := ip.Manage(ip.MakeArray(2))
	appendInts(ip, a, 1, 2)
	ip.Guard(a)
	defer ip.Unguard(1)

	var ref, picker, nv Cell

	InitBlock(&ref, a)
	InitInteger(&picker, 2)
	InitInteger(&nv, 20)

	require.True(t, pokeArray(ip, &ref, &picker, &nv))
	assert.Equal(t, []int64{1, 20}, intsOf(a))
}

func TestPickContextByWord(t *testing.T) {
	ip := New()

	ctx := ip.MakeContext(KindObject, 2)
	ip.Guard(ctx)
	defer ip.Unguard(1)

	InitInteger(ip.AppendContextKey(ctx, ip.Intern("width")), 800)

	var ref, picker, out Cell

	InitObject(&ref, ctx)
	InitWord(&picker, ip.Intern("WIDTH"))

	require.True(t, pickContext(ip, &ref, &picker, &out))
	assert.EqualValues(t, 800, out.Int64())
}

func TestMapPickAndPokeFollowSelectDiscipline(t *testing.T) {
	ip := New()

	m := ip.MakeMap(4)

	var ref, picker, nv, out Cell

	InitMap(&ref, m)
	InitWord(&picker, ip.Intern("size"))
	InitInteger(&nv, 64)

	require.True(t, pokeMap(ip, &ref, &picker, &nv))
	require.True(t, pickMap(ip, &ref, &picker, &out))
	assert.EqualValues(t, 64, out.Int64())

	// An absent key picks null rather than failing.
	InitWord(&picker, ip.Intern("missing"))
	require.True(t, pickMap(ip, &ref, &picker, &out))
	assert.Equal(t, KindNull, out.Kind())

	// Poking an existing key overwrites in place.
	InitWord(&picker, ip.Intern("SIZE"))
	InitInteger(&nv, 128)
	require.True(t, pokeMap(ip, &ref, &picker, &nv))
	assert.Equal(t, 1, MapLen(m))

	require.True(t, pickMap(ip, &ref, &picker, &out))
	assert.EqualValues(t, 128, out.Int64())
}

func TestPokeFrozenMapFails(t *testing.T) {
	ip := New()

	m := ip.MakeMap(2)

	var ref, picker, nv Cell

	InitMap(&ref, m)
	InitWord(&picker, ip.Intern("k"))
	InitInteger(&nv, 1)

	Freeze(m)

	failed := ip.Trap(func() {
		pokeMap(ip, &ref, &picker, &nv)
	})
	require.NotNil(t, failed)
	assert.Equal(t, ErrLockedSeries, ErrorID(failed))
}

func TestTextPicksAreRuneIndexed(t *testing.T) {
	ip := New()

	s := ip.Manage(ip.MakeBinary(8))
	ip.AppendBytes(s, []byte("héllo"))
	ip.Guard(s)
	defer ip.Unguard(1)

	var ref, picker, out Cell

	InitText(&ref, s)
	InitInteger(&picker, 2)

	require.True(t, pickText(ip, &ref, &picker, &out))
	assert.Equal(t, KindChar, out.Kind())
	assert.Equal(t, 'é', out.Rune())

	// Replacing a multibyte rune with an ASCII one reshapes the
	// bytes underneath.
	var nv Cell

	InitChar(&nv, 'e')
	require.True(t, pokeText(ip, &ref, &picker, &nv))
	assert.Equal(t, "hello", string(s.Data()))
}

func TestDateFieldPokeWritesBackPackedBits(t *testing.T) {
	ip := New()

	var d, picker, out, nv Cell

	InitDate(&d, 2020, 12, 25, 0)
	InitWord(&picker, ip.Intern("day"))

	require.True(t, pickDate(ip, &d, &picker, &out))
	assert.EqualValues(t, 25, out.Int64())

	InitInteger(&nv, 26)
	require.True(t, pokeDate(ip, &d, &picker, &nv))

	_, _, day, _ := d.DateParts()
	assert.Equal(t, 26, day)

	year, month, _, _ := d.DateParts()
	assert.Equal(t, 2020, year)
	assert.Equal(t, 12, month)
}

func TestDatePicksIgnoreInterningOrder(t *testing.T) {
	ip := New()

	// Interning the uppercase spelling first elects it canon for the
	// whole equivalence class; field picks must not care.
	ip.Intern("YEAR")

	var d, picker, out Cell

	InitDate(&d, 1999, 3, 4, 0)
	InitWord(&picker, ip.Intern("year"))

	require.True(t, pickDate(ip, &d, &picker, &out))
	assert.EqualValues(t, 1999, out.Int64())

	var nv Cell

	InitInteger(&nv, 2001)
	require.True(t, pokeDate(ip, &d, &picker, &nv))

	year, _, _, _ := d.DateParts()
	assert.Equal(t, 2001, year)
}

func TestProtectedCellRefusesPoke(t *testing.T) {
	ip := New()

	ctx := ip.MakeContext(KindObject, 2)
	ip.Guard(ctx)
	defer ip.Unguard(1)

	slot := ip.AppendContextKey(ctx, ip.Intern("locked"))
	InitInteger(slot, 1)
	slot.SetFlag(CellFlagProtected)

	var ref, picker, nv Cell

	InitObject(&ref, ctx)
	InitWord(&picker, ip.Intern("locked"))
	InitInteger(&nv, 2)

	failed := ip.Trap(func() {
		pokeContext(ip, &ref, &picker, &nv)
	})
	require.NotNil(t, failed)
	assert.Equal(t, ErrProtected, ErrorID(failed))
}
