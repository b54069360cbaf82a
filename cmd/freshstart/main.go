// Command freshstart is the administrator's CLI: list profiles, show
// progress, export backups and wipe records.
package main

import (
	"context"
	"os"

	"github.com/fatih/color"

	"github.com/sakif/fresh-start/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
