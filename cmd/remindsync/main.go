// Command remindsync selects the next working day's clinic appointments that
// should get a reminder and synchronizes them into respond.io.
package main

import (
	"os"

	"github.com/roach88/remindsync/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:], os.Stdout, os.Stderr))
}
