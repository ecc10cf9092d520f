//go:build unix

package iobuf

import (
	"io"
	"syscall"

	"golang.org/x/sys/unix"
)

// tryReadv performs a real vectored read when r is backed by a raw OS
// socket: one readv(2) call fills main (the buffer's writable tail) and
// then spills any overflow into a freshly sized slice drawn from aux. It
// returns mainN < 0 when r does not support SyscallConn, signaling the
// caller to fall back to a plain Read.
func tryReadv(r io.Reader, main []byte) (mainN int, overflow []byte, err error) {
	sc, ok := r.(syscall.Conn)
	if !ok {
		return -1, nil, nil
	}
	rawConn, rcErr := sc.SyscallConn()
	if rcErr != nil {
		return -1, nil, nil
	}

	iovMain := main
	iovAux := make([]byte, auxReadSize)
	var n int
	var readErr error
	ctrlErr := rawConn.Read(func(fd uintptr) bool {
		iovs := make([][]byte, 0, 2)
		iovs = append(iovs, iovMain)
		if len(iovMain) < auxReadSize {
			iovs = append(iovs, iovAux)
		}
		rn, e := readv(int(fd), iovs)
		n = rn
		if e != nil {
			if e == unix.EAGAIN {
				return false // not ready yet; let the poller retry us
			}
			readErr = e
		}
		return true
	})
	if ctrlErr != nil {
		return -1, nil, nil
	}
	if readErr != nil {
		return 0, nil, readErr
	}
	if n <= len(iovMain) {
		return n, nil, nil
	}
	return len(iovMain), iovAux[:n-len(iovMain)], nil
}

func readv(fd int, iovs [][]byte) (int, error) {
	n, err := unix.Readv(fd, iovs)
	return n, err
}
