package dubboclient

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/goghcrow/dubbo-ab/internal/dubbo"
	"github.com/goghcrow/dubbo-ab/internal/iobuf"
)

// Invoke performs one synchronous generic invocation and returns the
// decoded response. It dials, sends, reads until a complete frame has
// arrived, and closes the connection — no pipelining, no reconnect.
func Invoke(ctx context.Context, t Target, timeout time.Duration) (*dubbo.Response, error) {
	conn, err := dialTarget(ctx, t, timeout)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if timeout > 0 {
		deadline := time.Now().Add(timeout)
		if err := conn.SetDeadline(deadline); err != nil {
			return nil, errors.Wrap(err, "set deadline")
		}
	}

	req := dubbo.NewRequest(t.Service, t.Method, t.Args, t.Codec)
	logVerboseRequest(false, req.ReqID)

	sendBuf := iobuf.New(1024, dubbo.HeaderLen)
	if err := req.Encode(sendBuf); err != nil {
		return nil, errors.Wrap(err, "encode request")
	}
	if _, err := conn.Write(sendBuf.Peek()); err != nil {
		return nil, errors.Wrap(err, "write request")
	}

	recvBuf := iobuf.NewDefault()
	for {
		if complete, _, err := dubbo.IsCompleteFrame(recvBuf.Peek()); err != nil {
			return nil, err
		} else if complete {
			break
		}
		n, err := recvBuf.ReadFrom(conn)
		if n == 0 && err == nil {
			return nil, errors.New("dubboclient: server closed connection before a complete frame arrived")
		}
		if err != nil {
			return nil, errors.Wrap(err, "read response")
		}
	}

	res, consumed, err := dubbo.Decode(recvBuf.Peek())
	if err != nil {
		return nil, errors.Wrap(err, "decode response")
	}
	recvBuf.Retrieve(consumed)
	return res, nil
}
