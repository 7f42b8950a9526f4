// Command prefsniff prints the defaults commands that reproduce changes to
// macOS preference files.
package main

import "github.com/bolasblack/prefsniff/internal/cli"

func main() {
	cli.Execute()
}
