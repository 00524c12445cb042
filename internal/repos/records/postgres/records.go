package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastprodman/vapor/internal/infra/pgutils"
	"github.com/fastprodman/vapor/internal/repos/records"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

var _ records.Records = (*recordsRepo)(nil)

type recordsRepo struct{ db *sql.DB }

func New(db *sql.DB) *recordsRepo {
	return &recordsRepo{db: db}
}

func (r *recordsRepo) Insert(tx *sql.Tx, row records.Row) error {
	_, err := tx.Exec(`
		INSERT INTO ledger_records (day, line_no, code, raw)
		VALUES ($1, $2, $3, $4)
	`, row.Day, row.LineNo, row.Code, row.Raw)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("day %d line %d: %w", row.Day, row.LineNo, records.ErrDuplicateRecord)
		}

		return fmt.Errorf("insert record: %w", err)
	}

	return nil
}

// InsertDay stores a whole day in one transaction. A day that was already
// archived fails with ErrDuplicateRecord and nothing is written.
func (r *recordsRepo) InsertDay(ctx context.Context, rows []records.Row) error {
	err := pgutils.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		for _, row := range rows {
			err := r.Insert(tx, row)
			if err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("insert day: %w", err)
	}

	return nil
}
