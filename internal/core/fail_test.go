// Released under an MIT license. See LICENSE.

package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrapReturnsTheRaisedError(t *testing.T) {
	ip := New()

	failed := ip.Trap(func() {
		ip.Fail(ip.ErrorOf(ErrZeroDivide))
	})

	require.NotNil(t, failed)
	assert.Equal(t, ErrZeroDivide, ErrorID(failed))
	assert.Equal(t, "math", ErrorCategory(failed))
}

func TestTrapRestoresInterpreterState(t *testing.T) {
	ip := New()

	depth := ip.Depth()
	guards := len(ip.guards)
	manuals := len(ip.manuals)

	failed := ip.Trap(func() {
		InitInteger(ip.Push(), 1)
		InitInteger(ip.Push(), 2)

		a := ip.MakeArray(4)
		ip.Guard(a)

		_ = ip.MakeBinary(16)

		ip.Fail("deliberate")
	})

	require.NotNil(t, failed)
	assert.Equal(t, depth, ip.Depth(), "data stack restored")
	assert.Equal(t, guards, len(ip.guards), "guard stack restored")
	assert.Equal(t, manuals, len(ip.manuals), "manuals swept back")
}

func TestTrapNests(t *testing.T) {
	ip := New()

	outer := ip.Trap(func() {
		inner := ip.Trap(func() {
			ip.Fail(ip.ErrorOf(ErrPastEnd))
		})

		require.NotNil(t, inner)
		assert.Equal(t, ErrPastEnd, ErrorID(inner))

		ip.Fail(inner)
	})

	require.NotNil(t, outer)
	assert.Equal(t, ErrPastEnd, ErrorID(outer), "re-raising keeps the context")
}

func TestTrapPassesSuccessThrough(t *testing.T) {
	ip := New()

	ran := false

	failed := ip.Trap(func() { ran = true })

	assert.Nil(t, failed)
	assert.True(t, ran)
}

func TestFailWithTextBecomesUserError(t *testing.T) {
	ip := New()

	failed := ip.Trap(func() {
		ip.Fail("something broke")
	})

	require.NotNil(t, failed)
	assert.Equal(t, ErrUser, ErrorID(failed))
	assert.Equal(t, "user", ErrorCategory(failed))
}

func TestFailWithTextCellBecomesUserError(t *testing.T) {
	ip := New()

	msg := ip.Manage(ip.MakeBinary(16))
	ip.AppendBytes(msg, []byte("something broke"))
	ip.Guard(msg)
	defer ip.Unguard(1)

	var reason Cell

	InitText(&reason, msg)

	failed := ip.Trap(func() {
		ip.Fail(&reason)
	})

	require.NotNil(t, failed)
	assert.Equal(t, ErrUser, ErrorID(failed))
	assert.Equal(t, "user", ErrorCategory(failed))
}

func TestHaltUnwindsLikeAnyFailure(t *testing.T) {
	ip := New()

	ip.RequestHalt()

	failed := ip.Trap(func() {
		ip.CheckHalt()
	})

	require.NotNil(t, failed)
	assert.Equal(t, ErrHalt, ErrorID(failed))

	// The flag is consumed; the next check is quiet.
	assert.Nil(t, ip.Trap(func() { ip.CheckHalt() }))
}

func TestForeignPanicsPassThroughTrap(t *testing.T) {
	ip := New()

	assert.Panics(t, func() {
		_ = ip.Trap(func() {
			panic("not a raised failure")
		})
	})
}
