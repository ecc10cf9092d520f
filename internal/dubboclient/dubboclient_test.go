package dubboclient

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/goghcrow/dubbo-ab/internal/dubbo"
	"github.com/goghcrow/dubbo-ab/internal/iobuf"
)

// startEchoServer runs a minimal Dubbo server that replies OK/null to every
// request it decodes, used to drive both the sync and pipelined client
// paths without a real Dubbo provider.
func startEchoServer(t *testing.T) (addr string, stop func()) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	done := make(chan struct{})
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go serveConn(conn, done)
		}
	}()
	return ln.Addr().String(), func() {
		ln.Close()
	}
}

func serveConn(conn net.Conn, done chan struct{}) {
	defer conn.Close()
	buf := iobuf.NewDefault()
	for {
		for {
			complete, _, err := dubbo.IsCompleteFrame(buf.Peek())
			if err != nil {
				return
			}
			if complete {
				break
			}
			n, err := buf.ReadFrom(conn)
			if n == 0 && err == nil {
				return
			}
			if err != nil {
				return
			}
		}
		hdr := dubbo.DecodeHeader(buf.Peek())
		reqID := hdr.ReqID
		buf.Retrieve(dubbo.HeaderLen + int(hdr.BodyLen))

		respHdr := dubbo.EncodeHeader(dubbo.Header{
			Flag:    dubbo.Hessian2SeriID,
			Status:  dubbo.StatusOK,
			ReqID:   reqID,
			BodyLen: 1,
		})
		resp := append(respHdr[:], 0x92) // hessian2 compact int 2 => ResultNull
		if _, err := conn.Write(resp); err != nil {
			return
		}
	}
}

func splitHostPort(t *testing.T, addr string) (string, string) {
	t.Helper()
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatal(err)
	}
	return host, port
}

func TestInvokeSync(t *testing.T) {
	addr, stop := startEchoServer(t)
	defer stop()
	host, port := splitHostPort(t, addr)

	target := Target{Host: host, Port: port, Service: "com.example.Demo", Method: "echo", Args: `[]`}
	res, err := Invoke(context.Background(), target, 2*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if !res.OK || res.Kind != dubbo.ResultNull {
		t.Fatalf("unexpected response: %+v", res)
	}
}

func TestBenchPipelined(t *testing.T) {
	addr, stop := startEchoServer(t)
	defer stop()
	host, port := splitHostPort(t, addr)

	cfg := BenchConfig{
		Target:   Target{Host: host, Port: port, Service: "com.example.Demo", Method: "echo", Args: `[]`},
		Timeout:  2 * time.Second,
		Requests: 50,
		Pipeline: 8,
	}
	summary, err := Bench(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Sent != 50 || summary.Success != 50 || summary.Failure != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}
