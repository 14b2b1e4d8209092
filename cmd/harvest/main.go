// Command harvest validates crop configs, runs replant scenarios and
// serves the replant engine over HTTP.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/harvest/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(cli.GetExitCode(err))
}
