// Command conlang-server hosts the backend translation function. It holds
// the model credential server-side so clients can translate without one.
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/supastishn/conlang-translator/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := server.LoadConfig()
	if err != nil {
		return err
	}

	logger, err := server.NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("starting",
		zap.String("addr", cfg.Addr),
		zap.String("upstream", cfg.UpstreamBaseURL),
		zap.String("model", cfg.DefaultModel),
	)

	return server.New(cfg, logger).Run()
}
