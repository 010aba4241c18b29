// Command enrollmart transforms enrollment logs into a star schema and loads
// it into an analytical store.
package main

import (
	"fmt"
	"os"

	"github.com/pilosa/enrollmart/cmd"
)

func main() {
	rootCmd := cmd.NewRootCommand(os.Stdin, os.Stdout, os.Stderr)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
