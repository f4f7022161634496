// Package main is the entry point of the Ebash shell application.
// It simply calls ebash.Run() to start the interactive shell.
package main

import "ebash/internal/ebash"

// main starts the Ebash interactive shell.
func main() {
	ebash.Run()
}
