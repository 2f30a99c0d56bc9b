// The relay service hosts a websocket hub that repeats every message it
// receives to all connected nodes. Nodes in relay mode use it in place of
// a direct peer-to-peer overlay.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"go.uber.org/zap"

	"github.com/nikakhov/bitshares-toolkit/foundation/logger"
	"github.com/nikakhov/bitshares-toolkit/foundation/relay"
)

var build = "develop"

func main() {
	log, err := logger.New("RELAY")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	cfg := struct {
		conf.Version
		Relay struct {
			Host            string        `conf:"default:0.0.0.0:7090"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "copyright information here",
		},
	}

	const prefix = "RELAY"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	// =========================================================================
	// App Starting

	log.Infow("starting service", "version", build)
	defer log.Infow("shutdown complete")

	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	// =========================================================================
	// Hub Support

	ev := func(v string, args ...any) {
		log.Infow(fmt.Sprintf(v, args...))
	}

	hub := relay.NewHub(relay.HubConfig{
		Host:      cfg.Relay.Host,
		EvHandler: ev,
	})

	serverErrors := make(chan error, 1)

	go func() {
		serverErrors <- hub.Listen()
	}()

	// =========================================================================
	// Shutdown

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Relay.ShutdownTimeout)
		defer cancel()

		if err := hub.Shutdown(ctx); err != nil {
			return fmt.Errorf("could not stop hub gracefully: %w", err)
		}
	}

	return nil
}
