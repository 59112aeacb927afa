// Command memobench replays the memocache reference scenario and runs a
// concurrent stress workload against it, optionally exposing Prometheus
// metrics.
package main

import (
	"fmt"
	"os"
)

// Build information set via ldflags
var (
	version = "dev"
	commit  = "none"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
