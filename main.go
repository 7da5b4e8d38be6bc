// The main package for the atscrawler executable.
package main

import (
	"os"

	"github.com/atsdata/ats-crawler/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
