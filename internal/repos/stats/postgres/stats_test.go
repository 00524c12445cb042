package stats

import (
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fastprodman/vapor/internal/infra/pgtestutil"
	repo "github.com/fastprodman/vapor/internal/repos/stats"
	"github.com/fastprodman/vapor/internal/stats"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTotals_Mock(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM daily_stats")).
		WillReturnRows(sqlmock.NewRows([]string{"revenue", "refunded"}).AddRow(int64(12_000), int64(500)))

	got, err := New(db).Totals(t.Context())
	require.NoError(t, err)
	assert.Equal(t, stats.Totals{Revenue: 12_000, Refunded: 500}, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSave_Mock(t *testing.T) {
	t.Parallel()

	insert := regexp.QuoteMeta("INSERT INTO daily_stats")
	rep := stats.Report{Day: 4, Daily: stats.Totals{Revenue: 300, Refunded: 100}}

	tests := []struct {
		name    string
		err     error
		wantErr error
	}{
		{name: "ok"},
		{name: "duplicate", err: &pgconn.PgError{Code: "23505"}, wantErr: repo.ErrDuplicateDay},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			db, mock, err := sqlmock.New()
			require.NoError(t, err)

			defer db.Close()

			exp := mock.ExpectExec(insert).WithArgs(4, int64(300), int64(100))
			if tt.err != nil {
				exp.WillReturnError(tt.err)
			} else {
				exp.WillReturnResult(sqlmock.NewResult(0, 1))
			}

			err = New(db).Save(t.Context(), rep)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}

			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestStats_Postgres(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	r := New(db)

	got, err := r.Totals(t.Context())
	require.NoError(t, err)
	assert.Zero(t, got)

	require.NoError(t, r.Save(t.Context(), stats.Report{Day: 1, Daily: stats.Totals{Revenue: 1000}}))
	require.NoError(t, r.Save(t.Context(), stats.Report{Day: 2, Daily: stats.Totals{Revenue: 500, Refunded: 200}}))
	require.ErrorIs(t, r.Save(t.Context(), stats.Report{Day: 2}), repo.ErrDuplicateDay)

	got, err = r.Totals(t.Context())
	require.NoError(t, err)
	assert.Equal(t, stats.Totals{Revenue: 1500, Refunded: 200}, got)
}
