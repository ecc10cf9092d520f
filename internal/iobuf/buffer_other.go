//go:build !unix

package iobuf

import "io"

// tryReadv has no vectored fast path outside unix; ReadFrom always falls
// back to the plain two-step Read.
func tryReadv(r io.Reader, main []byte) (mainN int, overflow []byte, err error) {
	return -1, nil, nil
}
