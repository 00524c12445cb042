package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fastprodman/vapor/internal/config"
	"github.com/fastprodman/vapor/internal/infra/logging"
	"github.com/fastprodman/vapor/internal/infra/pgutils"
	"github.com/fastprodman/vapor/internal/repos/backend"
	pgrecords "github.com/fastprodman/vapor/internal/repos/records/postgres"
	"github.com/fastprodman/vapor/internal/services/endofday"
	"github.com/fastprodman/vapor/pkg/envconf"
	"github.com/fastprodman/vapor/pkg/shutdownqueue"
)

type endOfDayConfig struct {
	LogLevel        slog.Level    `env:"APP_LOG_LEVEL"        default:"INFO"`
	ShutdownTimeout time.Duration `env:"APP_SHUTDOWN_TIMEOUT" default:"10s"`
	// Store selects where accounts and stats live: "file" or "postgres".
	// With postgres, users.json and market.json are still exported for the
	// next front-end day.
	Store    string `env:"VAPOR_STORE" default:"file"`
	Files    config.FilesConfig
	Postgres config.PostgresConfig
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error running end of day: %v\n", err)
		//nolint:gocritic
		os.Exit(1)
	}
}

func run(ctx context.Context) (retErr error) {
	cfg := new(endOfDayConfig)

	err := envconf.LoadFile(cfg, ".env")
	if err != nil {
		return fmt.Errorf("init config: %w", err)
	}

	logging.SetupJSON(cfg.LogLevel, "endofday")

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		serr := shutdownqueue.Shutdown(shutdownCtx)
		if serr != nil {
			retErr = errors.Join(retErr, serr)
		}
	}()

	opts := endofday.Options{
		LedgerPath: cfg.Files.Ledger,
		ArchiveDir: cfg.Files.Archive,
	}

	var db *sql.DB

	if cfg.Postgres.Enabled() {
		db, err = pgutils.OpenDB(ctx, cfg.Postgres)
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}

		shutdownqueue.Add(func(context.Context) error {
			slog.Info("Close database")

			return db.Close()
		})

		opts.Records = pgrecords.New(db)
	}

	st, err := backend.Open(cfg.Store, cfg.Files, db)
	if err != nil {
		return fmt.Errorf("VAPOR_STORE: %w", err)
	}

	opts.Users, opts.Export, opts.Stats = st.Users, st.Export, st.Stats

	res, err := endofday.New(opts).Run(ctx)
	if err != nil {
		return fmt.Errorf("close day: %w", err)
	}

	slog.Info("day closed",
		"day", int(res.Day),
		"applied", res.Summary.Applied,
		"rejected", res.Summary.Rejected,
		"malformed", res.Summary.Malformed,
		"revenue", res.Report.Daily.Revenue.String(),
		"refunded", res.Report.Daily.Refunded.String())

	return nil
}
