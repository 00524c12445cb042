package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/fastprodman/vapor/internal/api"
	"github.com/fastprodman/vapor/internal/infra/logging"
	"github.com/fastprodman/vapor/internal/ledger"
	"github.com/fastprodman/vapor/internal/market"
	"github.com/fastprodman/vapor/internal/repos/users/jsonfile"
	"github.com/fastprodman/vapor/internal/services/session"
	"github.com/fastprodman/vapor/pkg/envconf"
	"github.com/fastprodman/vapor/pkg/shutdownqueue"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error running api: %v\n", err)
		//nolint:gocritic
		os.Exit(1)
	}
}

func run(ctx context.Context) (retErr error) {
	cfg := new(apiConfig)

	err := envconf.LoadFile(cfg, ".env")
	if err != nil {
		return fmt.Errorf("init config: %w", err)
	}

	logging.SetupJSON(cfg.LogLevel, "api")

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		serr := shutdownqueue.Shutdown(shutdownCtx)
		if serr != nil {
			retErr = errors.Join(retErr, serr)
		}
	}()

	// --- Market ---
	st, err := jsonfile.New(cfg.Files.Users, cfg.Files.Market).Load(ctx)
	if err != nil {
		return fmt.Errorf("load accounts: %w", err)
	}

	sink := ledger.NewFileSink(cfg.Files.Ledger)

	err = sink.Reset()
	if err != nil {
		return fmt.Errorf("start ledger: %w", err)
	}

	m, err := market.Restore(st, sink)
	if err != nil {
		return fmt.Errorf("restore market: %w", err)
	}

	sessions := session.New(m)

	// registered before the server so it runs after the server has drained
	shutdownqueue.Add(func(c context.Context) error {
		slog.Info("Flush open session")

		return sessions.Close(c)
	})

	slog.Info("market loaded", "day", int(m.Day()), "accounts", len(st.Accounts), "ledger", sink.Path())

	// --- HTTP server ---
	h := api.NewHandler(sessions, api.NewTokens(cfg.JWTSecret, cfg.TokenTTL))
	srv := api.NewServer(cfg.Port, h)

	shutdownqueue.Add(func(c context.Context) error {
		slog.Info("Shut down server")

		err := srv.Shutdown(c)
		if err != nil {
			return fmt.Errorf("shutdown srv: %w", err)
		}

		return nil
	})

	errCh := make(chan error, 1)

	go func() {
		serr := srv.ListenAndServe()
		// http.ErrServerClosed is the normal path during Shutdown
		if serr != nil && !errors.Is(serr, http.ErrServerClosed) {
			errCh <- serr
			return
		}

		errCh <- nil
	}()

	slog.Info("API started", "port", cfg.Port)

	select {
	case <-ctx.Done():
		return nil
	case serr := <-errCh:
		if serr != nil {
			return fmt.Errorf("server error: %w", serr)
		}

		return nil
	}
}
