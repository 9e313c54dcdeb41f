// Command cardstats-mirror copies the published statistics into the local
// SQLite mirror and reports on its contents.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
