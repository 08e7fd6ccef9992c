// cmd/driftmon/main.go
package main

import (
	cmd "driftmon/internal/commands"
)

// main starts the driftmon CLI application by delegating to the
// cobra root command defined in the driftmon package. It does not
// take any arguments and does not return a value.
func main() {
	cmd.Execute()
}
