package dubbo

import (
	"testing"

	"github.com/goghcrow/dubbo-ab/internal/iobuf"
)

func TestEncodeRequestIsFrame(t *testing.T) {
	req := NewRequest("com.example.DemoService", "sayHello", `["world"]`, ParamCodecString)
	buf := iobuf.New(1024, HeaderLen)
	if err := req.Encode(buf); err != nil {
		t.Fatal(err)
	}
	if !IsFrame(buf.Peek()) {
		t.Fatal("encoded request does not look like a dubbo frame")
	}
	complete, remaining, err := IsCompleteFrame(buf.Peek())
	if err != nil {
		t.Fatal(err)
	}
	if !complete || remaining != 0 {
		t.Fatalf("expected a complete frame, got complete=%v remaining=%d", complete, remaining)
	}
}

func TestIsCompleteFramePartial(t *testing.T) {
	req := NewRequest("svc", "m", "{}", ParamCodecString)
	buf := iobuf.New(1024, HeaderLen)
	if err := req.Encode(buf); err != nil {
		t.Fatal(err)
	}
	full := append([]byte(nil), buf.Peek()...)
	partial := full[:len(full)-1]

	complete, remaining, err := IsCompleteFrame(partial)
	if err != nil {
		t.Fatal(err)
	}
	if complete || remaining != 1 {
		t.Fatalf("expected 1 byte remaining, got complete=%v remaining=%d", complete, remaining)
	}
}

func TestDecodeOKNullResponse(t *testing.T) {
	hdr := EncodeHeader(Header{Flag: Hessian2SeriID, Status: StatusOK, ReqID: 42, BodyLen: 1})
	frame := append(hdr[:], 0x92) // hessian2 compact int 2 => ResultNull

	res, n, err := Decode(frame)
	if err != nil {
		t.Fatal(err)
	}
	if n != len(frame) {
		t.Fatalf("consumed %d, want %d", n, len(frame))
	}
	if !res.OK || res.Kind != ResultNull || res.ReqID != 42 {
		t.Fatalf("unexpected response: %+v", res)
	}
}

func TestDecodeErrorStatusResponse(t *testing.T) {
	body, err := hessianString("boom")
	if err != nil {
		t.Fatal(err)
	}
	hdr := EncodeHeader(Header{Flag: Hessian2SeriID, Status: StatusServiceError, ReqID: 7, BodyLen: int32(len(body))})
	frame := append(hdr[:], body...)

	res, _, err := Decode(frame)
	if err != nil {
		t.Fatal(err)
	}
	if res.OK {
		t.Fatal("expected OK=false for a non-OK status")
	}
	if res.Data != "boom" {
		t.Fatalf("Data = %q, want %q", res.Data, "boom")
	}
}

func hessianString(s string) ([]byte, error) {
	return append([]byte{byte(len(s))}, s...), nil
}
