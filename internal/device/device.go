// Released under an MIT license. See LICENSE.

// Package device implements the port request protocol: fixed-layout
// request descriptors dispatched through a per-device command table.
// A handler either completes its request (DONE) or parks it on the
// device's pending list (PEND) for a later poll. The evaluator drives
// polls between steps, so a device may do its real work on another
// goroutine as long as results surface through Poll.
package device

import "errors"

// Command selects the handler a request is dispatched to.
type Command int

// The command codes.
const (
	Open Command = iota
	Close
	Read
	Write
	Poll
	Connect
	Create
	Delete
	Rename
	Query

	maxCommand
)

//nolint:gochecknoglobals
var commandNames = [maxCommand]string{
	"open", "close", "read", "write", "poll",
	"connect", "create", "delete", "rename", "query",
}

func (c Command) String() string {
	if c < 0 || c >= maxCommand {
		return "invalid"
	}

	return commandNames[c]
}

// Result is a handler's verdict on its request.
type Result int

// Done means the request completed synchronously. Pend means it was
// attached to the pending list and will complete in a later poll.
const (
	Done Result = iota
	Pend
)

// Flags carries the request and device state bits.
type Flags uint32

// The flag bits.
const (
	FlagOpen Flags = 1 << iota
	FlagPending
	FlagDone
	FlagActive
	FlagFlush
	FlagText
)

// Has reports whether every bit of want is set.
func (f Flags) Has(want Flags) bool {
	return f&want == want
}

// Request is one unit of work handed to a device.
type Request struct {
	Command Command
	Flags   Flags

	// Data and Length describe the transfer buffer; Actual is how
	// much of it the device processed.
	Data   []byte
	Length int
	Actual int

	// Err records a host failure; a completed request with a non-nil
	// Err completed unsuccessfully.
	Err error

	// Tail holds device-specific fields (a query result, an open
	// target). Its concrete type is the device's business.
	Tail any
}

// A Handler services one command for one device.
type Handler func(d *Device, r *Request) Result

// Table is a device driver: a name and its command handlers. A nil
// entry means the device does not implement that command.
type Table struct {
	Name     string
	Commands [maxCommand]Handler
}

// Device is one instance of a driver plus its open state and pending
// requests. State shared with a worker goroutine belongs in Context,
// guarded by that device's own discipline.
type Device struct {
	table   *Table
	flags   Flags
	pending []*Request

	// Context is driver-private instance state.
	Context any
}

// Protocol errors.
var (
	ErrNoHandler = errors.New("device: command not supported")
	ErrNotOpen   = errors.New("device: not open")
)

// New creates a closed device instance for the driver t.
func New(t *Table) *Device {
	return &Device{table: t}
}

// Name returns the driver name.
func (d *Device) Name() string {
	return d.table.Name
}

// IsOpen reports whether the device has completed an Open.
func (d *Device) IsOpen() bool {
	return d.flags.Has(FlagOpen)
}

// Flags returns the device state bits.
func (d *Device) Flags() Flags {
	return d.flags
}

// SetFlags sets the given device state bits.
func (d *Device) SetFlags(f Flags) {
	d.flags |= f
}

// Do dispatches r to its handler. DONE requests come back with
// FlagDone set; PEND requests join the pending list until a poll
// completes them. Commands other than Open and Query require an open
// device.
func (d *Device) Do(r *Request) error {
	r.Flags &^= FlagDone | FlagPending

	h := d.table.Commands[r.Command]
	if h == nil {
		r.Err = ErrNoHandler

		return r.Err
	}

	switch r.Command {
	case Open, Query, Poll:
	default:
		if !d.IsOpen() {
			r.Err = ErrNotOpen

			return r.Err
		}
	}

	if h(d, r) == Pend {
		r.Flags |= FlagPending
		d.pending = append(d.pending, r)

		return nil
	}

	d.complete(r)

	return r.Err
}

// PollPending re-drives every pending request through the driver's
// Poll handler and retires the ones that finished. It returns the
// number of requests still pending.
func (d *Device) PollPending() int {
	h := d.table.Commands[Poll]

	kept := d.pending[:0]

	for _, r := range d.pending {
		if h != nil && h(d, r) == Pend {
			kept = append(kept, r)

			continue
		}

		r.Flags &^= FlagPending
		d.complete(r)
	}

	// Dropped tail slots would otherwise pin retired requests.
	for i := len(kept); i < len(d.pending); i++ {
		d.pending[i] = nil
	}

	d.pending = kept

	return len(kept)
}

// Pending returns how many requests await a poll.
func (d *Device) Pending() int {
	return len(d.pending)
}

func (d *Device) complete(r *Request) {
	r.Flags |= FlagDone

	switch r.Command {
	case Open:
		if r.Err == nil {
			d.flags |= FlagOpen
		}
	case Close:
		d.flags &^= FlagOpen
	default:
	}
}
