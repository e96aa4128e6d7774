// Command snapledger registers query signatures, manages equivalence links
// and plans partition regimes.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/snapledger/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		if !cli.IsReported(err) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
