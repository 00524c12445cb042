package records

import (
	"context"
	"database/sql"
	"errors"
)

var ErrDuplicateRecord = errors.New("duplicate ledger record")

// Row is one archived ledger line.
type Row struct {
	Day    int
	LineNo int
	Code   int
	Raw    string
}

type Records interface {
	Insert(tx *sql.Tx, row Row) error
	InsertDay(ctx context.Context, rows []Row) error
}
