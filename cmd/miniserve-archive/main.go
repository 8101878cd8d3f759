package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/Oliver-Hanikel/miniserve/internal/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	exit(cmd.Run(ctx, os.Args[1:]))
}
