// Command dubbo-ab invokes a Dubbo generic-invocation service once, or
// drives a pipelined benchmark against it when both -n and -c are set.
package main

import (
	"os"

	"github.com/goghcrow/dubbo-ab/internal/cliapp"
)

func main() {
	os.Exit(cliapp.Run(os.Args))
}
