// Superpeer - two-tier super-peer overlay generator and router.
//
// Superpeer builds overlay topologies of super nodes and regular nodes and
// resolves relay paths through them from the CLI or over MCP.
package main

import (
	"fmt"
	"os"

	"github.com/Benny93/superpeer-go/cmd"
)

func main() {
	cli := cmd.NewCLI()

	if err := cli.Execute(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
