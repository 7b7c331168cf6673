package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/covidmx/internal/app"
)

func main() {
	setupLogging(os.Stderr, false, false)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd(newCLI()).ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("run failed")
		stop()
		os.Exit(exitCode(err))
	}
}

// exitCode maps an empty extraction to 2 and every other failure to 1.
func exitCode(err error) int {
	if errors.Is(err, app.ErrNoCaseRows) {
		return 2
	}
	return 1
}
