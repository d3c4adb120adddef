// Command tracegraph checks and exports requirements traceability
// collections.
//
// Usage:
//
//	tracegraph validate ./docs
//	tracegraph validate ./docs --document srs
//	tracegraph export ./docs -o items.json --db snapshots.db
//	tracegraph validate --snapshot snapshots.db
//	tracegraph items ./docs --pattern 'REQ-' --attr status=approved
//	tracegraph related ./docs REQ-1 TST-1 --relation verified-by
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/roach88/tracegraph/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := cli.NewRootCommand().ExecuteContext(ctx)
	stop()

	// Commands print their own failures; flag and argument errors are not.
	var exitErr *cli.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCommandError)
	}
	os.Exit(cli.GetExitCode(err))
}
