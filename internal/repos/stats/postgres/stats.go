package stats

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	repo "github.com/fastprodman/vapor/internal/repos/stats"
	"github.com/fastprodman/vapor/internal/stats"
	"github.com/jackc/pgx/v5/pgconn"
)

var _ repo.Store = (*statsRepo)(nil)

type statsRepo struct{ db *sql.DB }

func New(db *sql.DB) *statsRepo {
	return &statsRepo{db: db}
}

func (r *statsRepo) Totals(ctx context.Context) (stats.Totals, error) {
	var t stats.Totals

	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(revenue), 0)::BIGINT, COALESCE(SUM(refunded), 0)::BIGINT
		FROM daily_stats
	`).Scan(&t.Revenue, &t.Refunded)
	if err != nil {
		return stats.Totals{}, fmt.Errorf("sum daily stats: %w", err)
	}

	return t, nil
}

// Save stores the day's figures only; totals are always summed on read.
func (r *statsRepo) Save(ctx context.Context, rep stats.Report) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO daily_stats (day, revenue, refunded)
		VALUES ($1, $2, $3)
	`, rep.Day, int64(rep.Daily.Revenue), int64(rep.Daily.Refunded))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("day %d: %w", rep.Day, repo.ErrDuplicateDay)
		}

		return fmt.Errorf("insert daily stats: %w", err)
	}

	return nil
}
