package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aryankumar/shardexec/internal/cli"
	"github.com/aryankumar/shardexec/internal/util"
)

func main() {
	// Setup signal handling for graceful shutdown
	ctx, stop := util.SetupSignalHandler(context.Background())

	err := cli.Execute(ctx)
	stop()

	if err != nil {
		slog.Error("command failed", "error", util.FriendlyError(err))
		os.Exit(1)
	}
}
