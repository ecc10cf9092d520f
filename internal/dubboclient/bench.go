package dubboclient

import (
	"context"
	"net"
	"time"

	"github.com/pkg/errors"

	"github.com/goghcrow/dubbo-ab/internal/dubbo"
	"github.com/goghcrow/dubbo-ab/internal/iobuf"
	"github.com/goghcrow/dubbo-ab/internal/log"
)

// progressEvery mirrors the original client's "sent N requests" tick.
const progressEvery = 1000

// readMsg carries one chunk read off the connection back to the owning
// session loop, or the error that ended the reader goroutine.
type readMsg struct {
	data []byte
	err  error
}

// benchState is mutated only by the session loop goroutine — the two I/O
// helper goroutines never touch it, they only pass bytes and errors over
// channels. This is the single-owner invariant the original reactor's
// non-reentrant callback model also gave it, just reached by communicating
// instead of by being single-threaded.
type benchState struct {
	reqLeft  int
	pipeLeft int
	success  int
	failure  int
	sentAt   map[int64]time.Time
}

// Bench runs a pipelined benchmark: it keeps up to cfg.Pipeline requests in
// flight at once, reconnecting on transport errors, until cfg.Requests
// total requests have completed or ctx is canceled.
func Bench(ctx context.Context, cfg BenchConfig) (Summary, error) {
	pipeline := cfg.Pipeline
	if pipeline > cfg.Requests {
		pipeline = cfg.Requests
	}
	if pipeline <= 0 {
		pipeline = 1
	}

	state := &benchState{reqLeft: cfg.Requests, sentAt: make(map[int64]time.Time, pipeline)}
	start := time.Now()

	for state.reqLeft > 0 {
		if ctx.Err() != nil {
			break
		}

		conn, err := dialTarget(ctx, cfg.Target, cfg.Timeout)
		if err != nil {
			log.Errorf("connect failed: %v", err)
			if !sleepBackoff(ctx) {
				break
			}
			continue
		}

		state.pipeLeft = pipeline
		if state.pipeLeft > state.reqLeft {
			state.pipeLeft = state.reqLeft
		}
		sessionErr := runSession(ctx, conn, cfg, state)
		conn.Close()

		if sessionErr != nil && state.reqLeft > 0 && ctx.Err() == nil {
			log.Warnf("reconnecting: %v", sessionErr)
		}
	}

	return Summary{
		Elapsed: time.Since(start),
		Sent:    cfg.Requests - state.reqLeft,
		Success: state.success,
		Failure: state.failure,
	}, nil
}

func sleepBackoff(ctx context.Context) bool {
	select {
	case <-time.After(500 * time.Millisecond):
		return true
	case <-ctx.Done():
		return false
	}
}

// runSession drives one connection's pipelined exchange until the
// connection fails, the benchmark completes, or ctx is canceled. It spawns
// one reader and one writer goroutine and owns all session state itself,
// only ever mutating it in response to a channel message.
func runSession(ctx context.Context, conn net.Conn, cfg BenchConfig, state *benchState) error {
	writeCh := make(chan []byte, cfg.Pipeline+1)
	readCh := make(chan readMsg, 1)
	writeErrCh := make(chan error, 1)

	sessionCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go writerLoop(conn, writeCh, writeErrCh)
	go readerLoop(sessionCtx, conn, readCh)

	recvBuf := iobuf.NewDefault()

	sendNext := func() error {
		req := dubbo.NewRequest(cfg.Service, cfg.Method, cfg.Args, cfg.Codec)
		logVerboseRequest(cfg.Verbose, req.ReqID)
		sendBuf := iobuf.Get()
		err := req.Encode(sendBuf)
		frame := append([]byte(nil), sendBuf.Peek()...)
		iobuf.Put(sendBuf)
		if err != nil {
			return errors.Wrap(err, "encode request")
		}
		if cfg.Metrics != nil {
			cfg.Metrics.Sent.Inc()
		}
		state.sentAt[req.ReqID] = time.Now()
		select {
		case writeCh <- frame:
			return nil
		case werr := <-writeErrCh:
			return errors.Wrap(werr, "write request")
		case <-sessionCtx.Done():
			return sessionCtx.Err()
		}
	}

	for state.pipeLeft > 0 {
		if err := sendNext(); err != nil {
			close(writeCh)
			return err
		}
		state.pipeLeft--
	}

	defer close(writeCh)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-writeErrCh:
			return errors.Wrap(err, "write request")

		case msg := <-readCh:
			if msg.err != nil {
				return errors.Wrap(msg.err, "read response")
			}
			if len(msg.data) == 0 {
				return errors.New("dubboclient: server closed connection")
			}
			recvBuf.Append(msg.data)

			for {
				complete, _, err := dubbo.IsCompleteFrame(recvBuf.Peek())
				if err != nil {
					return err
				}
				if !complete {
					break
				}
				res, consumed, err := dubbo.Decode(recvBuf.Peek())
				if err != nil {
					return errors.Wrap(err, "decode response")
				}
				recvBuf.Retrieve(consumed)

				recordResult(cfg, state, res)
				state.pipeLeft++
				state.reqLeft--

				sent := cfg.Requests - state.reqLeft
				if sent%progressEvery == 0 {
					log.Infof("sent %d requests", sent)
				}

				if state.reqLeft <= 0 {
					return nil
				}
				if state.pipeLeft > 0 {
					if err := sendNext(); err != nil {
						return err
					}
					state.pipeLeft--
				}
			}
		}
	}
}

func recordResult(cfg BenchConfig, state *benchState, res *dubbo.Response) {
	if sentAt, ok := state.sentAt[res.ReqID]; ok {
		delete(state.sentAt, res.ReqID)
		if cfg.Metrics != nil {
			cfg.Metrics.ObserveLatency(time.Since(sentAt))
		}
	}
	if res.OK {
		state.success++
		if cfg.Metrics != nil {
			cfg.Metrics.Success.Inc()
		}
	} else {
		state.failure++
		if cfg.Metrics != nil {
			cfg.Metrics.Failure.Inc()
		}
	}
	if cfg.Verbose {
		printVerboseResult(res)
	}
}

func writerLoop(conn net.Conn, writeCh <-chan []byte, errCh chan<- error) {
	for frame := range writeCh {
		if _, err := conn.Write(frame); err != nil {
			errCh <- err
			return
		}
	}
}

func readerLoop(ctx context.Context, conn net.Conn, out chan<- readMsg) {
	buf := make([]byte, 64*1024)
	for {
		n, err := conn.Read(buf)
		var data []byte
		if n > 0 {
			data = append([]byte(nil), buf[:n]...)
		}
		select {
		case out <- readMsg{data: data, err: err}:
		case <-ctx.Done():
			return
		}
		if err != nil {
			return
		}
	}
}

func printVerboseResult(res *dubbo.Response) {
	status := "SUCC"
	if !res.OK {
		status = "FAIL"
	}
	if res.Kind == dubbo.ResultNull && res.Data == "" && len(res.RawData) == 0 {
		log.Debugf("<res seq=%d> [%s] NULL", res.ReqID, status)
		return
	}
	payload := res.Data
	if payload == "" && len(res.RawData) > 0 {
		payload = string(res.RawData)
	}
	log.Debugf("<res seq=%d> [%s] %s", res.ReqID, status, payload)
}
