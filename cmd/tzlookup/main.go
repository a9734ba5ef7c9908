// Command tzlookup resolves coordinates to IANA time zone identifiers using a
// compiled zone table.
package main

import (
	"fmt"
	"os"

	"github.com/datatrails/go-datatrails-common/logger"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "tzlookup:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	defer logger.OnExit()

	cmd := newRootCmd()
	cmd.SetArgs(args)
	return cmd.Execute()
}
