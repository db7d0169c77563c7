package main

import (
	"fmt"
	"os"

	"github.com/systmms/gcptoolkit/cmd/gcptoolkit/commands"
	dserrors "github.com/systmms/gcptoolkit/internal/errors"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	app := commands.NewApp()
	rootCmd := commands.NewRootCommand(app, commands.BuildInfo{Version: version, Commit: commit, Date: date})
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()

	if werr := app.Metrics.WriteTextfile(app.MetricsTextfile); werr != nil {
		app.Logger.Warn("%v", werr)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return dserrors.ExitCode(err)
}
