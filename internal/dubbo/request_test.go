package dubbo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goghcrow/dubbo-ab/internal/iobuf"
)

func TestNextReqIDMonotonic(t *testing.T) {
	a := NextReqID()
	b := NextReqID()
	assert.Greater(t, b, a)
}

func TestByteCodecUsesBinaryTag(t *testing.T) {
	req := NewRequest("com.example.Svc", "m", `{"a":1}`, ParamCodecByte)
	buf := iobuf.New(1024, HeaderLen)
	require.NoError(t, req.Encode(buf))

	complete, _, err := IsCompleteFrame(buf.Peek())
	require.NoError(t, err)
	assert.True(t, complete)
	// 7-byte payload => compact binary tag 0x20+7, followed by the attachment null.
	assert.Contains(t, string(buf.Peek()), "\x27{\"a\":1}N")
}

func TestNewRequestIsTwoWay(t *testing.T) {
	req := NewRequest("svc", "m", "[]", ParamCodecString)
	assert.True(t, req.TwoWay)
	assert.Equal(t, ParamCodecString, req.ParamCodec)
}
