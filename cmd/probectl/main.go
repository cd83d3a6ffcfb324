package main

import (
	"fmt"
	"io"
	"os"

	"github.com/danmuck/edgeprobe/internal/logging"
)

// Version is overridden at build time.
var Version = "dev"

func main() {
	logging.ConfigureRuntime()
	if err := execute(os.Args, os.Stdout, os.Stderr); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// execute runs the CLI with the provided args and output writers.
func execute(args []string, stdout io.Writer, stderr io.Writer) error {
	cmd := newRootCmd()
	cmd.Version = Version
	if len(args) > 1 {
		cmd.SetArgs(args[1:])
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd.Execute()
}
