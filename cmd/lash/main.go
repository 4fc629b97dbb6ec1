// Command lash is the CLI entry point: a thin wrapper over
// cmd/lash/commands, grounded on
// _examples/telnet2-opencode/go-opencode/cmd/opencode/main.go.
package main

import (
	"fmt"
	"os"

	"github.com/lashdev/lash/cmd/lash/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
