package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	cmd, cctx := newRootCommand()
	err := cmd.ExecuteContext(ctx)
	if closeErr := cctx.close(context.Background()); closeErr != nil {
		fmt.Fprintln(os.Stderr, closeErr)
	}
	stop()

	if err != nil {
		if !errors.Is(err, context.Canceled) && !errors.Is(err, errFilesFailed) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
