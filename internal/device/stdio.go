// Released under an MIT license. See LICENSE.

package device

import (
	"bufio"
	"bytes"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// The stdio driver. Reads are line oriented and arrive from a worker
// goroutine, so a read against an idle terminal pends instead of
// blocking the evaluator; writes complete synchronously, chunked so
// long output passes through a suspension point.

// writeChunk bounds how much a single write pushes at the host before
// the loop comes back around.
const writeChunk = 32 * 1024

// lineBacklog is how many input lines the reader goroutine may run
// ahead of the evaluator.
const lineBacklog = 8

// StdioInfo is the Tail of a completed stdio Query request.
type StdioInfo struct {
	Terminal      bool
	Width, Height int
}

type stdioLine struct {
	data []byte
	err  error
}

type stdioState struct {
	in  io.Reader
	out io.Writer

	lines   chan stdioLine
	started bool
	eof     bool
}

//nolint:gochecknoglobals
var stdioTable = Table{
	Name: "stdio",
	Commands: [maxCommand]Handler{
		Open:  stdioOpen,
		Close: stdioClose,
		Read:  stdioRead,
		Write: stdioWrite,
		Poll:  stdioPoll,
		Query: stdioQuery,
	},
}

// Stdio returns a device over the process's standard streams. Text
// mode defaults on when stdin is a terminal.
func Stdio() *Device {
	d := StdioOver(os.Stdin, os.Stdout)
	if isatty.IsTerminal(os.Stdin.Fd()) {
		d.SetFlags(FlagText)
	}

	return d
}

// StdioOver returns a stdio device over arbitrary streams.
func StdioOver(in io.Reader, out io.Writer) *Device {
	d := New(&stdioTable)
	d.Context = &stdioState{in: in, out: out}

	return d
}

func stdioOpen(d *Device, r *Request) Result {
	st := d.Context.(*stdioState)

	if !st.started {
		st.started = true
		st.lines = make(chan stdioLine, lineBacklog)

		go readLines(st.in, st.lines)
	}

	return Done
}

func stdioClose(d *Device, r *Request) Result {
	// The worker unblocks at the next line or EOF and finds nobody
	// listening; lines already read are dropped.
	st := d.Context.(*stdioState)
	st.eof = true

	return Done
}

// readLines feeds the pending-read channel until EOF or a host error.
func readLines(in io.Reader, lines chan<- stdioLine) {
	br := bufio.NewReader(in)

	for {
		data, err := br.ReadBytes('\n')
		if len(data) > 0 {
			lines <- stdioLine{data: data}
		}

		if err != nil {
			if err == io.EOF {
				err = nil
			}

			lines <- stdioLine{err: err}
			close(lines)

			return
		}
	}
}

func stdioRead(d *Device, r *Request) Result {
	return stdioTryRead(d, r)
}

func stdioPoll(d *Device, r *Request) Result {
	if r.Command != Read {
		return Done
	}

	return stdioTryRead(d, r)
}

func stdioTryRead(d *Device, r *Request) Result {
	st := d.Context.(*stdioState)

	if st.eof {
		r.Actual = 0

		return Done
	}

	select {
	case line, ok := <-st.lines:
		if !ok || line.data == nil {
			st.eof = true
			r.Err = line.err
			r.Actual = 0

			return Done
		}

		data := line.data
		if d.flags.Has(FlagText) {
			data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
		}

		r.Actual = copy(r.Data, data)

		return Done
	default:
		return Pend
	}
}

func stdioWrite(d *Device, r *Request) Result {
	st := d.Context.(*stdioState)

	data := r.Data
	if r.Length < len(data) {
		data = data[:r.Length]
	}

	for len(data) > 0 {
		n := len(data)
		if n > writeChunk {
			n = writeChunk
		}

		wrote, err := st.out.Write(data[:n])
		r.Actual += wrote

		if err != nil {
			r.Err = err

			return Done
		}

		data = data[wrote:]
	}

	return Done
}

func stdioQuery(d *Device, r *Request) Result {
	info := StdioInfo{}

	st := d.Context.(*stdioState)
	if f, ok := st.in.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		info.Terminal = true
		info.Width, info.Height = terminalSize(f.Fd())
	}

	r.Tail = &info

	return Done
}
