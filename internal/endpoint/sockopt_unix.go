//go:build unix

package endpoint

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// controlSockopts lets the listener share the port with other DHCP tools and
// send to the limited broadcast address.
func controlSockopts(_, _ string, c syscall.RawConn) error {
	var serr error
	err := c.Control(func(fd uintptr) {
		if serr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); serr != nil {
			return
		}
		serr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_BROADCAST, 1)
	})
	if err != nil {
		return err
	}
	return serr
}
