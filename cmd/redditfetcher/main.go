// The main package for the reddit-fetcher executable.
package main

import (
	"github.com/JakeFAU/reddit-content-fetcher/cmd"
)

// main defers all execution to the Cobra CLI.
func main() {
	cmd.Execute()
}
