// Command trustctl runs the scoring engine offline against YAML files, for
// tuning rules and explaining queue order without a running server.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
