// Package main provides the worldevents CLI.
//
// Usage:
//
//	worldevents worker          run the world mutation worker
//	worldevents emit ...        publish a single world event
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
