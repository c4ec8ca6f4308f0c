// Command periodize normalizes historical dating descriptions and assigns
// timeline years and historical periods
package main

import (
	"fmt"
	"os"

	"github.com/ppiankov/periodize/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
