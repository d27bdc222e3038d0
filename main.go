// The main package for the linkboard executable.
package main

import (
	"github.com/JakeFAU/linkboard/cmd"
)

// main defers all execution to the Cobra CLI.
func main() {
	cmd.Execute()
}
