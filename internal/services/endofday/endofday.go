// Package endofday closes a market day: it replays the day's ledger onto the
// stored accounts, advances the day and writes everything back.
package endofday

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/fastprodman/vapor/internal/ledger"
	"github.com/fastprodman/vapor/internal/market"
	"github.com/fastprodman/vapor/internal/repos/records"
	statsrepo "github.com/fastprodman/vapor/internal/repos/stats"
	"github.com/fastprodman/vapor/internal/repos/users"
	"github.com/fastprodman/vapor/internal/stats"
	"golang.org/x/sync/errgroup"
)

type Options struct {
	Users users.Store
	// Export is optional; it receives a copy of the next day's accounts before
	// Users does. cmd/endofday points it at users.json when Users is postgres.
	Export users.Store
	Stats  statsrepo.Store
	// Records is optional; when set the raw ledger lines are stored too.
	Records    records.Records
	LedgerPath string
	ArchiveDir string
}

type Service struct {
	opts Options
}

func New(opts Options) *Service {
	return &Service{opts: opts}
}

// Result describes a processed day.
type Result struct {
	Day     market.Day
	Summary Summary
	Report  stats.Report
}

func (s *Service) Run(ctx context.Context) (Result, error) {
	st, err := s.opts.Users.Load(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("load accounts: %w", err)
	}

	m, err := market.Restore(st, ledger.Discard)
	if err != nil {
		return Result{}, fmt.Errorf("restore market: %w", err)
	}

	carried, err := s.opts.Stats.Totals(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("load stats: %w", err)
	}

	lines, err := ledger.ReadFile(s.opts.LedgerPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return Result{}, fmt.Errorf("read ledger: %w", err)
		}

		slog.Warn("no ledger for today, closing an empty day", "path", s.opts.LedgerPath)
	}

	day := m.Day()
	col := stats.NewCollector(int(day), carried)

	sum := Replay(ctx, m, lines, col)

	slog.Info("ledger replayed",
		"day", int(day), "applied", sum.Applied, "rejected", sum.Rejected, "malformed", sum.Malformed)

	err = m.EndDay()
	if err != nil {
		return Result{}, fmt.Errorf("end day: %w", err)
	}

	next, err := m.Snapshot()
	if err != nil {
		return Result{}, fmt.Errorf("snapshot: %w", err)
	}

	report := col.Report()

	err = s.persist(ctx, day, next, report, lines)
	if err != nil {
		return Result{}, err
	}

	return Result{Day: day, Summary: sum, Report: report}, nil
}

// persist writes the outputs of the day. Stats, archive and records share no
// state and go concurrently. Accounts go last: a saved Users store marks the
// day as closed, so a failure before it leaves the day open for a rerun.
func (s *Service) persist(ctx context.Context, day market.Day, next market.State, report stats.Report, lines []ledger.Line) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := s.opts.Stats.Save(gctx, report)
		if err != nil {
			return fmt.Errorf("save stats: %w", err)
		}

		return nil
	})

	if s.opts.ArchiveDir != "" {
		g.Go(func() error {
			return writeArchive(gctx, s.opts.ArchiveDir, day, lines)
		})
	}

	if s.opts.Records != nil {
		g.Go(func() error {
			err := s.opts.Records.InsertDay(gctx, toRows(day, lines))
			if err != nil {
				return fmt.Errorf("store ledger: %w", err)
			}

			return nil
		})
	}

	err := g.Wait()
	if err != nil {
		return err
	}

	if s.opts.Export != nil {
		err = s.opts.Export.Save(ctx, next)
		if err != nil {
			return fmt.Errorf("export accounts: %w", err)
		}
	}

	err = s.opts.Users.Save(ctx, next)
	if err != nil {
		return fmt.Errorf("save accounts: %w", err)
	}

	return nil
}

func toRows(day market.Day, lines []ledger.Line) []records.Row {
	rows := make([]records.Row, 0, len(lines))

	for _, l := range lines {
		if l.Err != nil {
			continue
		}

		rows = append(rows, records.Row{Day: int(day), LineNo: l.No, Code: int(l.Record.Code), Raw: l.Raw})
	}

	return rows
}
