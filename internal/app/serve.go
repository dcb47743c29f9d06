package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bibliojobs/sift/internal/cli"
	"github.com/bibliojobs/sift/internal/httpapi"
	"github.com/bibliojobs/sift/internal/store"
)

func runServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	listen := fs.String("listen", "", "Override the listen address from the configuration")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, logger, err := loadRuntime(envLoader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var runs *store.Store
	if cfg.PersistenceEnabled() {
		runs, err = store.Open(ctx, cfg)
		if err != nil {
			logger.Error().Err(err).Msg("could not open the database")
			fmt.Fprintf(os.Stderr, "Failed to start: %v\n", err)
			return 1
		}
		defer runs.Close()
	} else {
		logger.Warn().Msg("no database configured, run history is disabled")
	}

	addr := cfg.ListenAddr
	if *listen != "" {
		addr = *listen
	}

	server := httpapi.NewServer(runs, logger, httpapi.Options{
		ListenAddr:        addr,
		AdminUser:         cfg.AdminUser,
		AdminPasswordHash: cfg.AdminPasswordHash,
		SessionTTL:        time.Duration(cfg.SessionTTLHours) * time.Hour,
		SessionCookie:     cfg.SessionCookieName,
		SessionSecure:     cfg.SessionCookieSecure,
		EngineOptions:     cfg.EngineOptions(),
	})

	if err := server.Start(ctx); err != nil {
		logger.Error().Err(err).Msg("server stopped with an error")
		return 1
	}
	return 0
}
