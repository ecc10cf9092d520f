package hessian2

import (
	"bytes"
	"testing"

	dubbohessian2 "github.com/apache/dubbo-go-hessian2"
)

func TestEncodeIntDirect(t *testing.T) {
	got := EncodeInt(0)
	want := []byte{0x90}
	if !bytes.Equal(got, want) {
		t.Fatalf("EncodeInt(0) = % x, want % x", got, want)
	}
}

func TestEncodeIntByte(t *testing.T) {
	got := EncodeInt(48)
	want := []byte{0xc8, 0x30}
	if !bytes.Equal(got, want) {
		t.Fatalf("EncodeInt(48) = % x, want % x", got, want)
	}
}

func TestIntRoundTrip(t *testing.T) {
	for _, v := range []int32{0, -16, 47, -0x800, 0x7ff, -0x40000, 0x3ffff, 1 << 30, -(1 << 30)} {
		enc := EncodeInt(v)
		got, n, err := DecodeInt(enc)
		if err != nil {
			t.Fatalf("DecodeInt(%d) error: %v", v, err)
		}
		if got != v || n != len(enc) {
			t.Fatalf("round trip %d: got %d consumed %d, want %d consumed %d", v, got, n, v, len(enc))
		}
	}
}

func TestEncodeStringShort(t *testing.T) {
	enc, err := EncodeString("abc")
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0x03, 'a', 'b', 'c'}
	if !bytes.Equal(enc, want) {
		t.Fatalf("EncodeString(abc) = % x, want % x", enc, want)
	}
}

func TestStringRoundTrip(t *testing.T) {
	cases := []string{"", "abc", "hello, world", string(make([]byte, 0))}
	for _, s := range cases {
		enc, err := EncodeString(s)
		if err != nil {
			t.Fatal(err)
		}
		got, n, err := DecodeString(enc)
		if err != nil {
			t.Fatalf("DecodeString(%q) error: %v", s, err)
		}
		if got != s || n != len(enc) {
			t.Fatalf("round trip %q: got %q consumed %d, want consumed %d", s, got, n, len(enc))
		}
	}
}

func TestStringMediumLength(t *testing.T) {
	s := string(bytes.Repeat([]byte("x"), 500))
	enc, err := EncodeString(s)
	if err != nil {
		t.Fatal(err)
	}
	got, _, err := DecodeString(enc)
	if err != nil {
		t.Fatal(err)
	}
	if got != s {
		t.Fatal("medium string round trip mismatch")
	}
}

func TestBinaryRoundTripShortAndChunked(t *testing.T) {
	cases := [][]byte{
		nil,
		{1, 2, 3},
		bytes.Repeat([]byte{0xab}, 2000),
		bytes.Repeat([]byte{0xcd}, 70000), // spans a 64 KiB chunk boundary
	}
	for _, data := range cases {
		enc := EncodeBinary(data)
		got, n, err := DecodeBinary(enc)
		if err != nil {
			t.Fatalf("DecodeBinary error: %v", err)
		}
		if !bytes.Equal(got, data) || n != len(enc) {
			t.Fatalf("binary round trip mismatch, len(data)=%d", len(data))
		}
	}
}

func TestEscapeUTF8ASCIIUnchanged(t *testing.T) {
	s := "hello world 123"
	got, err := EscapeUTF8(s)
	if err != nil {
		t.Fatal(err)
	}
	if got != s {
		t.Fatalf("EscapeUTF8(%q) = %q, want unchanged", s, got)
	}
}

func TestEscapeUTF8BMP(t *testing.T) {
	got, err := EscapeUTF8("中文")
	if err != nil {
		t.Fatal(err)
	}
	want := "\\u4e2d\\u6587"
	if got != want {
		t.Fatalf("EscapeUTF8 = %q, want %q", got, want)
	}
}

func TestEscapeUTF8SurrogatePair(t *testing.T) {
	// U+1F600 GRINNING FACE, outside the BMP, must split into a surrogate pair.
	got, err := EscapeUTF8("\U0001F600")
	if err != nil {
		t.Fatal(err)
	}
	want := "\\ud83d\\ude00"
	if got != want {
		t.Fatalf("EscapeUTF8 = %q, want %q", got, want)
	}
}

// TestStringCrossValidation checks our hand-rolled string codec produces
// bytes the real dubbo-go-hessian2 library decodes identically — used purely
// as a test oracle, never linked into the runtime path.
func TestStringCrossValidation(t *testing.T) {
	cases := []string{"", "abc", "$invokeWithJsonArgs", "3.1.0-RELEASE"}
	for _, s := range cases {
		enc, err := EncodeString(s)
		if err != nil {
			t.Fatal(err)
		}
		dec := dubbohessian2.NewDecoder(enc)
		got, err := dec.Decode()
		if err != nil {
			t.Fatalf("dubbo-go-hessian2 failed to decode our encoding of %q: %v", s, err)
		}
		if got != s {
			t.Fatalf("cross-validation mismatch: got %q, want %q", got, s)
		}
	}
}

func TestIntCrossValidation(t *testing.T) {
	for _, v := range []int32{0, -16, 47, 1000, -1000, 1 << 20} {
		enc := EncodeInt(v)
		dec := dubbohessian2.NewDecoder(enc)
		got, err := dec.Decode()
		if err != nil {
			t.Fatalf("dubbo-go-hessian2 failed to decode our encoding of %d: %v", v, err)
		}
		gotInt, ok := got.(int32)
		if !ok || gotInt != v {
			t.Fatalf("cross-validation mismatch for %d: got %#v", v, got)
		}
	}
}
