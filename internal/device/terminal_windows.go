// Released under an MIT license. See LICENSE.

//go:build windows

package device

import "errors"

func terminalSize(fd uintptr) (width, height int) {
	return 0, 0
}

// Mode is a saved terminal state. Raw mode is unix-only; the console
// front-end leaves mode switching to its line editor elsewhere.
type Mode struct{}

// RawMode is unsupported on this platform.
func RawMode(fd uintptr) (*Mode, error) {
	return nil, errors.ErrUnsupported
}

// Restore is a no-op on this platform.
func (m *Mode) Restore() error {
	return nil
}
