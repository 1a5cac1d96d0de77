// racectl drives the racing API from the command line.
//
// Usage:
//
//	racectl --api http://localhost:3000 owner horses Smith
//	racectl race result --race race37 --entry horse1:first:1500 --entry horse2:second:700
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
