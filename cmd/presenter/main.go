// Command presenter runs and inspects the server-driven UI presenter
// without a UI.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/roach88/presenter/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
