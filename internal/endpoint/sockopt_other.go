//go:build !unix

package endpoint

import "syscall"

func controlSockopts(_, _ string, _ syscall.RawConn) error {
	return nil
}
