// Command lakeidx stores JSON records in a blob lake and maintains
// schema-driven secondary indexes over them.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/lakeidx/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()

	// Commands report their own failures; anything else is an argument
	// or flag error from cobra.
	var exitErr *cli.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(cli.GetExitCode(err))
}
