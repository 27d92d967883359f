// Command cortex is the CLI entrypoint for the Cortex knowledge store.
package main

import "github.com/cortexlabs/cortex/internal/cli"

func main() {
	cli.Execute()
}
