// The main package for the gradientharvest executable.
package main

import (
	"gradientharvest/cmd"
)

// main defers all execution to the Cobra CLI.
func main() {
	cmd.Execute()
}
