// Command mpilower lowers message-passing operation manifests to MPI calls.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/mpilower/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
