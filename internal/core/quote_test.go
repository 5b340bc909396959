// Released under an MIT license. See LICENSE.

package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteShallowDepthsStayInCell(t *testing.T) {
	ip := New()

	var c Cell

	InitInteger(&c, 42)

	for depth := 1; depth <= maxInCellQuote; depth++ {
		ip.Quotify(&c, 1)

		assert.Equal(t, depth, QuoteDepth(&c))
		assert.Equal(t, KindInteger, c.Kind())
		assert.Equal(t, byte(KindInteger)+byte(depth)*quoteStep, c.KindByte())
		assert.Nil(t, c.pairing, "shallow depths must not allocate")
		assert.EqualValues(t, 42, c.bits)
	}
}

func TestQuoteDeepDepthsMoveOutOfLine(t *testing.T) {
	ip := New()

	var c Cell

	InitInteger(&c, 7)
	ip.Quotify(&c, maxInCellQuote+1)

	require.Equal(t, KindQuoted, c.Kind())
	require.NotNil(t, c.pairing)
	assert.Equal(t, maxInCellQuote+1, QuoteDepth(&c))
	assert.Equal(t, KindInteger, c.Heart())

	inner := Unquoted(&c)
	assert.Equal(t, KindInteger, inner.Kind())
	assert.EqualValues(t, 7, inner.Int64())
}

func TestUnquoteRoundTrip(t *testing.T) {
	ip := New()

	var c Cell

	InitWord(&c, ip.Intern("alpha"))

	for _, depth := range []int{1, 2, 3, 4, 9} {
		ip.Quotify(&c, depth)
		assert.Equal(t, depth, QuoteDepth(&c))

		ip.Unquotify(&c, depth)
		assert.Equal(t, 0, QuoteDepth(&c))
		assert.Equal(t, KindWord, c.Kind())
		assert.Equal(t, "alpha", SpellingOf(c.Spelling()))
	}
}

func TestUnquoteCollapsesDeepEncoding(t *testing.T) {
	ip := New()

	var c Cell

	InitInteger(&c, 1)
	ip.Quotify(&c, 5)
	require.Equal(t, KindQuoted, c.Kind())

	// 5 -> 4 stays out of line, 4 -> 2 collapses back into the cell.
	ip.Unquotify(&c, 1)
	assert.Equal(t, KindQuoted, c.Kind())
	assert.Equal(t, 4, QuoteDepth(&c))

	ip.Unquotify(&c, 2)
	assert.Equal(t, KindInteger, c.Kind())
	assert.Equal(t, 2, QuoteDepth(&c))
	assert.EqualValues(t, 1, c.Int64())
}

func TestTypeMasksClassifyKinds(t *testing.T) {
	assert.True(t, MaskAnyArray.Has(KindBlock))
	assert.False(t, MaskAnyArray.Has(KindText))
	assert.True(t, MaskAnySeries.Has(KindText))
	assert.True(t, MaskAnyWord.Has(KindSetWord))
	assert.True(t, MaskAnyContext.Has(KindError))
	assert.True(t, MaskDeepCopyable.Has(KindMap))
	assert.False(t, MaskAnyValue.Has(KindNull))
	assert.True(t, MaskAnyValue.Has(KindInteger))
}

func TestKindByteStaysWithinTaxonomy(t *testing.T) {
	ip := New()

	var c Cell

	InitBlock(&c, ip.Manage(ip.MakeArray(0)))

	for depth := 0; depth < 8; depth++ {
		assert.Less(t, Kind(c.KindByte()%quoteStep), KindMaxBuiltin)
		assert.Equal(t, DetectedCell, Detect(&c))

		ip.Quotify(&c, 1)
	}
}
