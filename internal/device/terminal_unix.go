// Released under an MIT license. See LICENSE.

//go:build aix || darwin || dragonfly || freebsd || linux || netbsd || openbsd || solaris

package device

import "golang.org/x/sys/unix"

func terminalSize(fd uintptr) (width, height int) {
	ws, err := unix.IoctlGetWinsize(int(fd), unix.TIOCGWINSZ)
	if err != nil {
		return 0, 0
	}

	return int(ws.Col), int(ws.Row)
}

// Mode is a saved terminal state, restored after raw-mode input.
type Mode struct {
	fd    int
	saved *unix.Termios
}

// RawMode switches the terminal on fd to raw input and returns the
// state to restore.
func RawMode(fd uintptr) (*Mode, error) {
	saved, err := unix.IoctlGetTermios(int(fd), ioctlGetTermios)
	if err != nil {
		return nil, err
	}

	raw := *saved
	raw.Iflag &^= unix.BRKINT | unix.ICRNL | unix.INPCK | unix.ISTRIP | unix.IXON
	raw.Lflag &^= unix.ECHO | unix.ICANON | unix.IEXTEN | unix.ISIG
	raw.Cc[unix.VMIN] = 1
	raw.Cc[unix.VTIME] = 0

	err = unix.IoctlSetTermios(int(fd), ioctlSetTermios, &raw)
	if err != nil {
		return nil, err
	}

	return &Mode{fd: int(fd), saved: saved}, nil
}

// Restore puts the terminal back in its saved state.
func (m *Mode) Restore() error {
	return unix.IoctlSetTermios(m.fd, ioctlSetTermios, m.saved)
}
