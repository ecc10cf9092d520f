// Package dubbo implements the Dubbo 2 wire frame and the narrow generic
// invocation request/response shapes this client speaks: a 16-byte header
// followed by a Hessian2-encoded body built from the fixed
// $invokeWithJsonArgs(method, parameterTypes, jsonArgs) argument vector.
package dubbo

import (
	"encoding/binary"
	"sync/atomic"
)

// Magic, header layout and size limits, lifted from the Dubbo protocol spec.
const (
	Magic      uint16 = 0xdabb
	HeaderLen         = 16
	// MaxBodySize is the built-in ceiling on a frame body, used unless the
	// CLI's --max-body flag overrides it via SetMaxBodySize.
	MaxBodySize = 4 * 1024 * 1024

	// Version is the protocol version string this client advertises.
	Version = "3.1.0-RELEASE"
)

var maxBodySize int64 = MaxBodySize

// SetMaxBodySize overrides the frame body size ceiling enforced by
// IsCompleteFrame and Decode, wired to the CLI's --max-body flag.
func SetMaxBodySize(n int64) {
	atomic.StoreInt64(&maxBodySize, n)
}

func currentMaxBodySize() int64 {
	return atomic.LoadInt64(&maxBodySize)
}

// Flag bits packed into the header's single flag byte.
const (
	FlagRequest byte = 0x80
	FlagTwoWay  byte = 0x40
	FlagEvent   byte = 0x20

	SerializationMask byte = 0x1f
	Hessian2SeriID    byte = 2
)

// Response status codes.
const (
	StatusOK               byte = 20
	StatusClientTimeout    byte = 30
	StatusServerTimeout    byte = 31
	StatusBadRequest       byte = 40
	StatusBadResponse      byte = 50
	StatusServiceNotFound  byte = 60
	StatusServiceError     byte = 70
	StatusServerError      byte = 80
	StatusClientError      byte = 90
)

// StatusDesc returns a short human-readable description of a response
// status code.
func StatusDesc(status byte) string {
	switch status {
	case StatusOK:
		return "OK"
	case StatusClientTimeout:
		return "CLIENT TIMEOUT"
	case StatusServerTimeout:
		return "SERVER TIMEOUT"
	case StatusBadRequest:
		return "BAD REQUEST"
	case StatusBadResponse:
		return "BAD RESPONSE"
	case StatusServiceNotFound:
		return "SERVICE NOT FOUND"
	case StatusServiceError:
		return "SERVICE ERROR"
	case StatusServerError:
		return "SERVER ERROR"
	case StatusClientError:
		return "CLIENT ERROR"
	default:
		return "UNKNOWN"
	}
}

// ResultKind is the hessian2 small-int tag carried as the first byte of a
// successful response body.
type ResultKind int32

const (
	ResultException ResultKind = 0
	ResultValue     ResultKind = 1
	ResultNull      ResultKind = 2
)

// Header is the decoded form of a Dubbo frame's fixed 16-byte prefix.
type Header struct {
	Flag    byte
	Status  byte
	ReqID   int64
	BodyLen int32
}

// EncodeHeader writes a request header into an 16-byte array, ready to be
// prepended in front of an already-encoded body.
func EncodeHeader(h Header) [HeaderLen]byte {
	var out [HeaderLen]byte
	binary.BigEndian.PutUint16(out[0:2], Magic)
	out[2] = h.Flag
	out[3] = h.Status
	binary.BigEndian.PutUint64(out[4:12], uint64(h.ReqID))
	binary.BigEndian.PutUint32(out[12:16], uint32(h.BodyLen))
	return out
}

// DecodeHeader parses a 16-byte Dubbo frame prefix. buf must be at least
// HeaderLen bytes; callers check IsFrame/IsCompleteFrame first.
func DecodeHeader(buf []byte) Header {
	return Header{
		Flag:    buf[2],
		Status:  buf[3],
		ReqID:   int64(binary.BigEndian.Uint64(buf[4:12])),
		BodyLen: int32(binary.BigEndian.Uint32(buf[12:16])),
	}
}

// IsFrame reports whether buf begins with a plausible Dubbo frame: enough
// bytes for a header, and the magic number in place.
func IsFrame(buf []byte) bool {
	return len(buf) >= HeaderLen && binary.BigEndian.Uint16(buf[0:2]) == Magic
}

// IsCompleteFrame reports whether buf holds one full Dubbo frame (header
// plus body). Once buf holds a full header, remaining is how many more
// bytes are needed when complete is false and err is nil; while buf is
// shorter than a header (or lacks the magic) remaining is 0. It is
// meaningless otherwise.
func IsCompleteFrame(buf []byte) (complete bool, remaining int, err error) {
	if !IsFrame(buf) {
		return false, 0, nil
	}
	bodyLen := int32(binary.BigEndian.Uint32(buf[HeaderLen-4 : HeaderLen]))
	if int64(bodyLen) <= 0 || int64(bodyLen) > currentMaxBodySize() {
		return false, 0, errInvalidBodySize(bodyLen)
	}
	need := HeaderLen + int(bodyLen) - len(buf)
	if need <= 0 {
		return true, 0, nil
	}
	return false, need, nil
}
