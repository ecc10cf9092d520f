package dubbo

import (
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/goghcrow/dubbo-ab/internal/hessian2"
	"github.com/goghcrow/dubbo-ab/internal/iobuf"
)

// Generic invocation method name, version, and parameter-type descriptors.
// Dubbo's GenericService.$invokeWithJsonArgs accepts the target method name,
// its parameter types, and the arguments JSON-serialized as a single string.
// The byte-form descriptor exists because some server-side generic filters
// expect the json args as a raw byte[] rather than a String; ParamCodec picks
// between them at request-build time instead of at compile time, resolving
// what used to be a preprocessor toggle in the original client.
const (
	GenericMethodName    = "$invokeWithJsonArgs"
	GenericMethodVersion = "0.0.0"

	paramTypesStringForm = "Ljava/lang/String;[Ljava/lang/String;Ljava/lang/String;"
	paramTypesByteForm   = "Ljava/lang/String;[Ljava/lang/String;[B;"
)

// ParamCodec selects how the json-args argument is encoded on the wire.
type ParamCodec int

const (
	// ParamCodecString encodes json args as a Hessian2 string (the default,
	// matching how most Dubbo generic-invocation servers are configured).
	ParamCodecString ParamCodec = iota
	// ParamCodecByte encodes json args as a Hessian2 binary blob.
	ParamCodecByte
)

var reqIDCounter int64

// NextReqID returns the next request id in a monotonically increasing
// sequence shared across the process, wrapping back to 1 just before it
// would overflow into the sign bit the wire format reserves.
func NextReqID() int64 {
	for {
		cur := atomic.LoadInt64(&reqIDCounter)
		next := cur + 1
		if next == 0x7fffffffffffffff {
			next = 1
		}
		if atomic.CompareAndSwapInt64(&reqIDCounter, cur, next) {
			return next
		}
	}
}

// Request is one generic-invocation call: a target service/method and its
// JSON-encoded argument string. Attachments are not implemented upstream of
// this client (see Non-goals) and are always encoded as Hessian2 null.
type Request struct {
	ReqID      int64
	Service    string
	Method     string
	JSONArgs   string
	ParamCodec ParamCodec
	TwoWay     bool
}

// NewRequest builds a two-way generic invocation request with a fresh
// request id.
func NewRequest(service, method, jsonArgs string, codec ParamCodec) *Request {
	return &Request{
		ReqID:      NextReqID(),
		Service:    service,
		Method:     method,
		JSONArgs:   jsonArgs,
		ParamCodec: codec,
		TwoWay:     true,
	}
}

// Encode serializes req into buf as a complete Dubbo frame: the Hessian2
// body is written first into buf's body region, then the 16-byte header is
// written into buf's prepend reserve once the body length is known — the
// same header-after-body trick the byte buffer's prepend reserve exists for.
func (req *Request) Encode(buf *iobuf.Buffer) error {
	if err := encodeBody(buf, req); err != nil {
		return errors.Wrap(err, "dubbo: encode request body")
	}

	flag := FlagRequest | Hessian2SeriID
	if req.TwoWay {
		flag |= FlagTwoWay
	}
	hdr := EncodeHeader(Header{
		Flag:    flag,
		Status:  0,
		ReqID:   req.ReqID,
		BodyLen: int32(buf.Readable()),
	})
	buf.Prepend(hdr[:])
	return nil
}

func encodeBody(buf *iobuf.Buffer, req *Request) error {
	paramTypes := paramTypesStringForm
	if req.ParamCodec == ParamCodecByte {
		paramTypes = paramTypesByteForm
	}

	fields := []string{Version, req.Service, GenericMethodVersion, GenericMethodName, paramTypes, req.Method}
	for _, f := range fields {
		s, err := hessian2.EscapeUTF8(f)
		if err != nil {
			return err
		}
		enc, err := hessian2.EncodeString(s)
		if err != nil {
			return err
		}
		buf.Append(enc)
	}

	// method-level parameter-type hint: always null, overloaded generic
	// methods are not supported.
	buf.Append(hessian2.EncodeNull())

	jsonArgs, err := hessian2.EscapeUTF8(req.JSONArgs)
	if err != nil {
		return errors.Wrap(err, "escape json args")
	}
	if req.ParamCodec == ParamCodecByte {
		buf.Append(hessian2.EncodeBinary([]byte(jsonArgs)))
	} else {
		enc, err := hessian2.EncodeString(jsonArgs)
		if err != nil {
			return err
		}
		buf.Append(enc)
	}

	// attachments: unsupported upstream, always null.
	buf.Append(hessian2.EncodeNull())
	return nil
}
