// Command winlist browses very large datasets through a windowed list.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rshade/winlist/internal/cli"
	"github.com/rshade/winlist/pkg/version"
)

func run(ctx context.Context, args []string) error {
	root := cli.NewRootCmd(version.GetVersion())
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:])
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
