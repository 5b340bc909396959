// Released under an MIT license. See LICENSE.

//go:build aix || linux || solaris

package device

import "golang.org/x/sys/unix"

const (
	ioctlGetTermios = unix.TCGETS
	ioctlSetTermios = unix.TCSETS
)
