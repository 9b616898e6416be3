// Package main provides the dentops CLI: the maintenance toolbox for the
// clinic application's SQLite database and static reference data.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
