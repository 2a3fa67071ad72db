// Command parkctl is a local command line client for the parking dashboard.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(defaultEnv()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
