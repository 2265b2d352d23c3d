//go:build !unix

package udp

import "syscall"

// control is a no-op where socket options are not reachable through x/sys/unix.
func (t *Transport) control(network, address string, rc syscall.RawConn) error {
	return nil
}
