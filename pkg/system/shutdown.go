// Package system handles process level concerns such as signals.
package system

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
)

type ShutdownHandler func()

// exitCode follows the shell convention of 128 + SIGINT.
const exitCode = 130

var exit = os.Exit

// RegisterGracefulShutdownHandler runs handler and exits once SIGINT or SIGTERM arrives.
// The handler must not block, extracted corpora and the terminal are restored there.
func RegisterGracefulShutdownHandler(handler ShutdownHandler) {
	sigChannel := make(chan os.Signal, 1)
	signal.Notify(sigChannel, os.Interrupt, syscall.SIGTERM)

	go shutdownOn(sigChannel, handler)
}

func shutdownOn(sigChannel <-chan os.Signal, handler ShutdownHandler) {
	sig := <-sigChannel
	log.Info().Str("signal", sig.String()).Msg("Received interrupt signal, shutting down gracefully...")
	if handler != nil {
		handler()
	}
	exit(exitCode)
}
