package main

import (
	"os"

	"github.com/temirov/runlimit/cmd/cli"
)

// main executes the runlimit command-line application and propagates the
// translated exit code of the supervised command.
func main() {
	os.Exit(cli.Execute())
}
