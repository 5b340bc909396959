// Released under an MIT license. See LICENSE.

package device

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStdio(t *testing.T, in io.Reader, out io.Writer) *Device {
	t.Helper()

	d := StdioOver(in, out)
	require.NoError(t, d.Do(&Request{Command: Open}))
	require.True(t, d.IsOpen())

	return d
}

// pollUntilDone drives pending requests with a deadline, since input
// arrives from a worker goroutine.
func pollUntilDone(t *testing.T, d *Device, r *Request) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)

	for !r.Flags.Has(FlagDone) {
		require.True(t, time.Now().Before(deadline), "request never completed")

		d.PollPending()
		time.Sleep(time.Millisecond)
	}
}

func TestCommandsRequireAnOpenDevice(t *testing.T) {
	d := StdioOver(strings.NewReader(""), io.Discard)

	r := &Request{Command: Write, Data: []byte("x"), Length: 1}
	err := d.Do(r)

	assert.ErrorIs(t, err, ErrNotOpen)
	assert.ErrorIs(t, r.Err, ErrNotOpen)
}

func TestUnhandledCommandIsAnError(t *testing.T) {
	d := openStdio(t, strings.NewReader(""), io.Discard)

	r := &Request{Command: Rename}
	assert.ErrorIs(t, d.Do(r), ErrNoHandler)
}

func TestWriteCompletesSynchronously(t *testing.T) {
	var out bytes.Buffer

	d := openStdio(t, strings.NewReader(""), &out)

	data := []byte("hello device\n")
	r := &Request{Command: Write, Data: data, Length: len(data)}

	require.NoError(t, d.Do(r))
	assert.True(t, r.Flags.Has(FlagDone))
	assert.Equal(t, len(data), r.Actual)
	assert.Equal(t, "hello device\n", out.String())
	assert.Equal(t, 0, d.Pending())
}

func TestLongWritesAreChunked(t *testing.T) {
	var out bytes.Buffer

	d := openStdio(t, strings.NewReader(""), &out)

	data := bytes.Repeat([]byte("ren "), 32*1024)
	r := &Request{Command: Write, Data: data, Length: len(data)}

	require.NoError(t, d.Do(r))
	assert.Equal(t, len(data), r.Actual)
	assert.Equal(t, len(data), out.Len())
}

func TestReadPendsUntilInputArrives(t *testing.T) {
	pr, pw := io.Pipe()

	d := openStdio(t, pr, io.Discard)

	r := &Request{Command: Read, Data: make([]byte, 64)}
	require.NoError(t, d.Do(r))

	// Nothing to read yet: the request parks on the pending list.
	assert.True(t, r.Flags.Has(FlagPending))
	assert.False(t, r.Flags.Has(FlagDone))
	assert.Equal(t, 1, d.Pending())

	_, err := pw.Write([]byte("a line\n"))
	require.NoError(t, err)

	pollUntilDone(t, d, r)

	assert.Equal(t, 0, d.Pending())
	assert.Equal(t, "a line\n", string(r.Data[:r.Actual]))

	require.NoError(t, pw.Close())
}

func TestReadsArriveInOrder(t *testing.T) {
	d := openStdio(t, strings.NewReader("one\ntwo\n"), io.Discard)

	// The worker may need a moment to deliver the first line.
	r := &Request{Command: Read, Data: make([]byte, 64)}
	require.NoError(t, d.Do(r))
	pollUntilDone(t, d, r)
	assert.Equal(t, "one\n", string(r.Data[:r.Actual]))

	r2 := &Request{Command: Read, Data: make([]byte, 64)}
	require.NoError(t, d.Do(r2))
	pollUntilDone(t, d, r2)
	assert.Equal(t, "two\n", string(r2.Data[:r2.Actual]))
}

func TestReadAtEndOfInputCompletesEmpty(t *testing.T) {
	d := openStdio(t, strings.NewReader(""), io.Discard)

	r := &Request{Command: Read, Data: make([]byte, 64)}
	require.NoError(t, d.Do(r))
	pollUntilDone(t, d, r)

	assert.Equal(t, 0, r.Actual)
	assert.NoError(t, r.Err)

	// After end of input every read completes empty at once.
	r2 := &Request{Command: Read, Data: make([]byte, 64)}
	require.NoError(t, d.Do(r2))
	assert.True(t, r2.Flags.Has(FlagDone))
	assert.Equal(t, 0, r2.Actual)
}

func TestTextModeNormalizesLineEndings(t *testing.T) {
	d := StdioOver(strings.NewReader("dos line\r\n"), io.Discard)
	d.SetFlags(FlagText)
	require.NoError(t, d.Do(&Request{Command: Open}))

	r := &Request{Command: Read, Data: make([]byte, 64)}
	require.NoError(t, d.Do(r))
	pollUntilDone(t, d, r)

	assert.Equal(t, "dos line\n", string(r.Data[:r.Actual]))
}

func TestCloseMarksTheDeviceClosed(t *testing.T) {
	d := openStdio(t, strings.NewReader(""), io.Discard)

	require.NoError(t, d.Do(&Request{Command: Close}))
	assert.False(t, d.IsOpen())

	r := &Request{Command: Read, Data: make([]byte, 8)}
	assert.ErrorIs(t, d.Do(r), ErrNotOpen)
}

func TestQueryReportsNonTerminalStreams(t *testing.T) {
	d := StdioOver(strings.NewReader(""), io.Discard)

	r := &Request{Command: Query}
	require.NoError(t, d.Do(r))

	info, ok := r.Tail.(*StdioInfo)
	require.True(t, ok)
	assert.False(t, info.Terminal)
}
