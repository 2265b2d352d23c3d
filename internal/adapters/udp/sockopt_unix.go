//go:build unix

package udp

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// control enables address reuse so a restarted client can rebind at once,
// and applies the configured receive buffer size.
func (t *Transport) control(network, address string, rc syscall.RawConn) error {
	var sockErr error
	err := rc.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
		if sockErr == nil && t.socketBuffer > 0 {
			sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_RCVBUF, t.socketBuffer)
		}
	})
	if err != nil {
		return err
	}
	return sockErr
}
