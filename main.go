// Copyright © 2022-2025 Obol Labs Inc. Licensed under the terms of a Business Source License 1.1

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/obolnetwork/starsign/app/log"
	"github.com/obolnetwork/starsign/cmd"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err := cmd.New().ExecuteContext(ctx)

	cancel()

	if err != nil {
		log.Error(ctx, "Fatal error", err)
		log.Stop()
		os.Exit(1)
	}

	log.Stop()
}
