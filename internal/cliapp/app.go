package cliapp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/urfave/cli"

	"github.com/goghcrow/dubbo-ab/internal/dubbo"
	"github.com/goghcrow/dubbo-ab/internal/dubboclient"
	"github.com/goghcrow/dubbo-ab/internal/log"
	"github.com/goghcrow/dubbo-ab/internal/metrics"
)

// byteSizeFlag adapts datasize.ByteSize to urfave/cli's cli.Generic
// interface so --max-body accepts human sizes like "4MB".
type byteSizeFlag struct {
	datasize.ByteSize
}

func (f *byteSizeFlag) Set(s string) error { return f.ByteSize.UnmarshalText([]byte(s)) }
func (f *byteSizeFlag) String() string     { return f.ByteSize.String() }

const defaultAttach = "{}"

// Run parses args (typically os.Args) and executes the requested
// invocation, returning a process exit code.
func Run(args []string) int {
	app := newApp()
	err := app.Run(splitAttachedShortFlags(args))
	if exitErr, ok := err.(*cli.ExitError); ok {
		if msg := exitErr.Error(); msg != "" {
			printFatal(errors.New(msg))
		}
		return exitErr.ExitCode()
	}
	if err != nil {
		printFatal(err)
		return 1
	}
	return 0
}

func newApp() *cli.App {
	maxBody := &byteSizeFlag{ByteSize: datasize.ByteSize(dubbo.MaxBodySize)}

	app := cli.NewApp()
	app.Name = "dubbo-ab"
	app.Usage = "generic-invocation Dubbo client and pipelined benchmarker"
	app.UsageText = "dubbo-ab -h<HOST> -p<PORT> -m<SERVICE>.<METHOD> -a<JSON_ARGS> " +
		"[-e<JSON_ATTACH>] [-t<TIMEOUT_SEC>] [-c<PIPELINE>] [-n<REQUESTS>] [-v] [-b]"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "h", Usage: "target host"},
		cli.StringFlag{Name: "p", Usage: "target port"},
		cli.StringFlag{Name: "m", Usage: "service.method, e.g. com.example.DemoService.sayHello"},
		cli.StringFlag{Name: "a", Usage: "JSON-encoded argument array or object"},
		cli.StringFlag{Name: "e", Value: defaultAttach, Usage: "JSON-encoded attachment object"},
		cli.IntFlag{Name: "t", Value: 3, Usage: "timeout in seconds"},
		cli.IntFlag{Name: "c", Usage: "pipeline depth; with -n>0 switches to benchmark mode"},
		cli.IntFlag{Name: "n", Usage: "total requests to send; with -c>0 switches to benchmark mode"},
		cli.BoolFlag{Name: "v", Usage: "verbose: print every request/response"},
		cli.BoolFlag{Name: "b, byte-codec", Usage: "encode json args as Hessian2 binary instead of string"},
		cli.GenericFlag{Name: "max-body", Value: maxBody, Usage: "reject response frames larger than this (e.g. 4MB)"},
		cli.StringFlag{Name: "metrics-addr", Usage: "if set, serve Prometheus metrics at this address during benchmark mode"},
	}
	app.Action = runAction
	return app
}

func runAction(c *cli.Context) error {
	host := c.String("h")
	port := c.String("p")
	serviceMethod := c.String("m")
	jsonArgs := c.String("a")
	jsonAttach := c.String("e")
	timeoutSec := c.Int("t")
	pipeline := c.Int("c")
	requests := c.Int("n")
	verbose := c.Bool("v")
	byteCodec := c.Bool("b")
	metricsAddr := c.String("metrics-addr")

	if maxBody, ok := c.Generic("max-body").(*byteSizeFlag); ok {
		dubbo.SetMaxBodySize(int64(maxBody.ByteSize.Bytes()))
	}
	if verbose {
		log.Default.SetLevel(log.DEBUG)
	}

	if host == "" {
		return usageError("missing host -h<host>")
	}
	if port == "" {
		return usageError("missing port -p<port>")
	}
	service, method, err := splitServiceMethod(serviceMethod)
	if err != nil {
		return usageError(err.Error())
	}
	if jsonArgs == "" {
		return usageError("missing arguments -a'<json args>'")
	}
	if timeoutSec <= 0 {
		return usageError("timeout must be positive")
	}
	if err := validateJSONArgsOrObject(jsonArgs); err != nil {
		return usageError(fmt.Sprintf("invalid arguments JSON %q: %v", jsonArgs, err))
	}
	if err := validateJSONObject(jsonAttach); err != nil {
		return usageError(fmt.Sprintf("invalid attach JSON %q: %v", jsonAttach, err))
	}

	codec := dubbo.ParamCodecString
	if byteCodec {
		codec = dubbo.ParamCodecByte
	}

	target := dubboclient.Target{
		Host:    host,
		Port:    port,
		Service: service,
		Method:  method,
		Args:    jsonArgs,
		Attach:  jsonAttach,
		Codec:   codec,
	}
	timeout := time.Duration(timeoutSec) * time.Second

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if requests > 0 && pipeline > 0 {
		return runBench(ctx, target, timeout, requests, pipeline, verbose, metricsAddr)
	}
	return runSyncInvoke(ctx, target, timeout)
}

func runSyncInvoke(ctx context.Context, target dubboclient.Target, timeout time.Duration) error {
	res, err := dubboclient.Invoke(ctx, target, timeout)
	if err != nil {
		return errors.Wrap(err, "invoke failed")
	}
	printResult(res)
	if !res.OK {
		return cli.NewExitError("", 1)
	}
	return nil
}

func runBench(ctx context.Context, target dubboclient.Target, timeout time.Duration, requests, pipeline int, verbose bool, metricsAddr string) error {
	var bm *metrics.Benchmark
	if metricsAddr != "" {
		bm = metrics.NewBenchmark()
		go func() {
			if err := bm.Serve(ctx, metricsAddr); err != nil {
				log.Errorf("metrics server: %v", err)
			}
		}()
	}

	cfg := dubboclient.BenchConfig{
		Target:   target,
		Timeout:  timeout,
		Requests: requests,
		Pipeline: pipeline,
		Verbose:  verbose,
		Metrics:  bm,
	}
	summary, err := dubboclient.Bench(ctx, cfg)
	if err != nil {
		return err
	}
	printSummary(summary)
	return nil
}

func printResult(res *dubbo.Response) {
	payload := res.Data
	if payload == "" && len(res.RawData) > 0 {
		payload = string(res.RawData)
	}
	if res.Kind == dubbo.ResultNull {
		payload = "NULL"
	}
	if res.OK {
		color.New(color.FgGreen, color.Bold).Fprintln(os.Stdout, payload)
	} else {
		color.New(color.FgRed, color.Bold).Fprintln(os.Stdout, payload)
	}
}

func printSummary(s dubboclient.Summary) {
	prefix := color.New(color.FgGreen, color.Bold).Sprint("[SUMMARY]")
	fmt.Fprintf(os.Stderr, "%s COST %.2fs, REQ %d, SUCC %d, FAIL %d, QPS %.f\n",
		prefix, s.Elapsed.Seconds(), s.Sent, s.Success, s.Failure, s.QPS())
}

func printFatal(err error) {
	color.New(color.FgRed, color.Bold).Fprintf(os.Stderr, "error: %v\n", err)
}

func usageError(msg string) error {
	return cli.NewExitError(msg, 1)
}

func splitServiceMethod(serviceMethod string) (service, method string, err error) {
	idx := strings.LastIndex(serviceMethod, ".")
	if idx <= 0 || idx == len(serviceMethod)-1 {
		return "", "", errors.Errorf("invalid method %q, expected <service>.<method>", serviceMethod)
	}
	return serviceMethod[:idx], serviceMethod[idx+1:], nil
}

func validateJSONArgsOrObject(s string) error {
	var v interface{}
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return err
	}
	switch v.(type) {
	case []interface{}, map[string]interface{}:
		return nil
	default:
		return errors.New("must be a JSON array or object")
	}
}

func validateJSONObject(s string) error {
	var v map[string]interface{}
	return json.Unmarshal([]byte(s), &v)
}
