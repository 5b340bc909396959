// Released under an MIT license. See LICENSE.

//go:build darwin || dragonfly || freebsd || netbsd || openbsd

package device

import "golang.org/x/sys/unix"

const (
	ioctlGetTermios = unix.TIOCGETA
	ioctlSetTermios = unix.TIOCSETA
)
