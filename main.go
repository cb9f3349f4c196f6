package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	_ "cursor-keeper/cmd"
	"cursor-keeper/cmd/root"
	"cursor-keeper/internal/logger"
	"cursor-keeper/internal/output"
)

func main() {
	os.Exit(run())
}

// run executes the command tree and maps its outcome to the process exit code.
func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer logger.Sync()

	if err := root.RootCmd.ExecuteContext(ctx); err != nil {
		output.PrintError(err)
		return 1
	}
	return 0
}
