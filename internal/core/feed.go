// Released under an MIT license. See LICENSE.

package core

// Feed is the shared cursor over the input source of an evaluation.
// Frames for enfix and argument fulfillment advance the same feed, so
// one expression can span several frames without re-reading.
type Feed struct {
	array *Series
	index int
}

// NewFeed returns a feed over the array starting at index.
func NewFeed(a *Series, index int) *Feed {
	return &Feed{array: a, index: index}
}

// At returns the current cell, or END when the feed is exhausted.
func (fd *Feed) At() *Cell {
	return arrayAt(fd.array, fd.index)
}

// Fetch advances past the current cell.
func (fd *Feed) Fetch() {
	fd.index++
}

// AtEnd reports whether the feed is exhausted.
func (fd *Feed) AtEnd() bool {
	return fd.index >= fd.array.used
}

// Index returns the current position.
func (fd *Feed) Index() int {
	return fd.index
}
