// Released under an MIT license. See LICENSE.

// Package ext loads extensions into an interpreter: bundles of native
// actions, datatype registrations, device drivers, and codecs. An
// extension is plain Go linked into the host; loading one wires its
// pieces into the interpreter's tables.
package ext

import (
	"errors"
	"fmt"

	"github.com/rhencke/ren/internal/core"
	"github.com/rhencke/ren/internal/device"
)

// Native is one action an extension contributes to lib.
type Native struct {
	Name     string
	Enfix    bool
	Params   []core.ParamSpec
	Dispatch core.Dispatcher
}

// Codec translates between a binary encoding and values. Identify
// sniffs data; Decode and Encode convert whole payloads.
type Codec struct {
	Name     string
	Suffixes []string

	Identify func(data []byte) bool
	Decode   func(ip *core.Interp, data []byte, out *core.Cell) error
	Encode   func(ip *core.Interp, v *core.Cell) ([]byte, error)
}

// Extension is everything one extension registers.
type Extension struct {
	Name string

	Natives []Native
	Kinds   []*core.CustomKind
	Devices []*device.Table
	Codecs  []Codec

	// Startup, if set, runs after everything above is wired.
	Startup func(ip *core.Interp, r *Registry) error
}

// Registry tracks what has been loaded into one interpreter.
type Registry struct {
	ip *core.Interp

	loaded  map[string]*Extension
	kinds   map[string]core.Kind
	devices map[string]*device.Device
	codecs  []Codec
}

// Registration errors.
var (
	ErrDupExtension = errors.New("ext: extension already loaded")
	ErrDupDevice    = errors.New("ext: device already registered")
	ErrNoDevice     = errors.New("ext: no such device")
	ErrNoCodec      = errors.New("ext: no codec matches")
)

// NewRegistry creates an empty registry for ip.
func NewRegistry(ip *core.Interp) *Registry {
	return &Registry{
		ip:      ip,
		loaded:  map[string]*Extension{},
		kinds:   map[string]core.Kind{},
		devices: map[string]*device.Device{},
	}
}

// Load wires x into the interpreter. Natives land in lib, kinds claim
// custom ids, each device table gets one instance, codecs join the
// identify chain.
func (r *Registry) Load(x *Extension) error {
	if _, dup := r.loaded[x.Name]; dup {
		return fmt.Errorf("%w: %s", ErrDupExtension, x.Name)
	}

	for _, ck := range x.Kinds {
		k, err := r.ip.RegisterKind(ck)
		if err != nil {
			return err
		}

		r.kinds[ck.Name] = k
	}

	for _, n := range x.Natives {
		r.ip.AddNative(n.Name, n.Enfix, n.Params, n.Dispatch)
	}

	for _, t := range x.Devices {
		if _, dup := r.devices[t.Name]; dup {
			return fmt.Errorf("%w: %s", ErrDupDevice, t.Name)
		}

		r.devices[t.Name] = device.New(t)
	}

	r.codecs = append(r.codecs, x.Codecs...)

	r.loaded[x.Name] = x

	if x.Startup != nil {
		return x.Startup(r.ip, r)
	}

	return nil
}

// Kind returns the kind id claimed for the registered datatype name.
func (r *Registry) Kind(name string) (core.Kind, bool) {
	k, ok := r.kinds[name]

	return k, ok
}

// Device returns the instance registered under name.
func (r *Registry) Device(name string) (*device.Device, error) {
	d, ok := r.devices[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoDevice, name)
	}

	return d, nil
}

// AddDevice registers an already-built device instance, for drivers
// whose construction needs host state the table alone cannot carry.
func (r *Registry) AddDevice(d *device.Device) error {
	if _, dup := r.devices[d.Name()]; dup {
		return fmt.Errorf("%w: %s", ErrDupDevice, d.Name())
	}

	r.devices[d.Name()] = d

	return nil
}

// PollAll drives every registered device's pending requests once and
// returns how many are still pending.
func (r *Registry) PollAll() int {
	pending := 0
	for _, d := range r.devices {
		pending += d.PollPending()
	}

	return pending
}

// IdentifyCodec sniffs data against each loaded codec in load order.
func (r *Registry) IdentifyCodec(data []byte) (*Codec, error) {
	for i := range r.codecs {
		c := &r.codecs[i]
		if c.Identify != nil && c.Identify(data) {
			return c, nil
		}
	}

	return nil, ErrNoCodec
}

// CodecNamed finds a loaded codec by name.
func (r *Registry) CodecNamed(name string) (*Codec, error) {
	for i := range r.codecs {
		if r.codecs[i].Name == name {
			return &r.codecs[i], nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrNoCodec, name)
}
