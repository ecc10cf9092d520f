package dubbo

import (
	"github.com/pkg/errors"

	"github.com/goghcrow/dubbo-ab/internal/hessian2"
)

// Response is a decoded Dubbo reply to a generic invocation.
type Response struct {
	ReqID  int64
	Status byte
	OK     bool
	Kind   ResultKind
	// Data holds the JSON result string on ResultValue, or the exception
	// description on ResultException / a non-OK status.
	Data string
	// RawData holds the raw bytes when Kind is ResultValue and the server
	// sent the value as Hessian2 binary; Data is left empty in that case.
	RawData []byte
}

// Decode reads one complete Dubbo frame from the front of buf and returns
// the decoded response. buf must already contain at least one complete
// frame; callers check IsCompleteFrame first. Returns the number of bytes
// consumed so the caller can retrieve them from its buffer.
func Decode(buf []byte) (*Response, int, error) {
	if !IsFrame(buf) {
		return nil, 0, errors.New("dubbo: not a dubbo frame")
	}
	hdr := DecodeHeader(buf)
	if int64(hdr.BodyLen) <= 0 || int64(hdr.BodyLen) > currentMaxBodySize() {
		return nil, 0, errors.Errorf("dubbo: invalid body size %d", hdr.BodyLen)
	}
	total := HeaderLen + int(hdr.BodyLen)
	if len(buf) < total {
		return nil, 0, errors.New("dubbo: frame not fully buffered")
	}

	seriID := hdr.Flag & SerializationMask
	if seriID != Hessian2SeriID {
		return nil, 0, errors.Errorf("dubbo: unsupported serialization id %d", seriID)
	}
	if hdr.Flag&FlagRequest != 0 {
		return nil, 0, errors.New("dubbo: client does not decode request frames")
	}

	body := buf[HeaderLen:total]
	res := &Response{
		ReqID:  hdr.ReqID,
		Status: hdr.Status,
	}

	if err := decodeBody(body, hdr, res); err != nil {
		return nil, 0, err
	}
	return res, total, nil
}

func decodeBody(body []byte, hdr Header, res *Response) error {
	if hdr.Status != StatusOK {
		res.OK = false
		s, _, err := hessian2.DecodeString(body)
		if err != nil {
			return errors.Wrap(err, "dubbo: decode error response body")
		}
		res.Data = s
		return nil
	}

	res.OK = true
	if hdr.Flag&FlagEvent != 0 {
		// event frames (e.g. heartbeats) carry no generic-invocation result;
		// nothing further to decode for this client's purposes.
		return nil
	}

	flag, n, err := hessian2.DecodeInt(body)
	if err != nil {
		return errors.Wrap(err, "dubbo: decode response result flag")
	}
	res.Kind = ResultKind(flag)
	rest := body[n:]

	switch res.Kind {
	case ResultNull:
		return nil
	case ResultException:
		s, _, err := hessian2.DecodeString(rest)
		if err != nil {
			return errors.Wrap(err, "dubbo: decode exception description")
		}
		res.Data = s
		return nil
	case ResultValue:
		if looksLikeBinary(rest) {
			raw, _, err := hessian2.DecodeBinary(rest)
			if err != nil {
				return errors.Wrap(err, "dubbo: decode binary response value")
			}
			res.RawData = raw
			return nil
		}
		s, _, err := hessian2.DecodeString(rest)
		if err != nil {
			return errors.Wrap(err, "dubbo: decode string response value")
		}
		res.Data = s
		return nil
	default:
		return errors.Errorf("dubbo: unknown response result kind %d", flag)
	}
}

// looksLikeBinary distinguishes a Hessian2 binary tag from a string tag at
// the front of rest, so a response value can be decoded correctly regardless
// of which ParamCodec the server mirrors back. Binary tags occupy
// 0x20-0x2f, 0x34-0x37, 0x41 and 'B'; string tags occupy 0x00-0x1f and
// 0x30-0x33 plus 'S' and 0x52. The two tag spaces don't overlap.
func looksLikeBinary(rest []byte) bool {
	if len(rest) == 0 {
		return false
	}
	code := rest[0]
	return (code >= 0x20 && code <= 0x2f) || (code >= 0x34 && code <= 0x37) || code == 0x41 || code == 'B'
}
