// guardflow-worker is the isolation worker: it reads one validator request
// envelope from stdin, runs the declared validator from the built-in
// registry, and writes one outcome envelope to stdout. The engine execs one
// worker per isolated validator invocation.
package main

import (
	"fmt"
	"os"

	"github.com/BaSui01/guardflow/validators"
)

func main() {
	if err := validators.RunWorker(os.Stdin, os.Stdout, validators.DefaultRegistry()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
