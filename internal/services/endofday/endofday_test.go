package endofday

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/fastprodman/vapor/internal/ledger"
	"github.com/fastprodman/vapor/internal/market"
	"github.com/fastprodman/vapor/internal/money"
	"github.com/fastprodman/vapor/internal/repos/records"
	"github.com/fastprodman/vapor/internal/repos/stats/textfile"
	"github.com/fastprodman/vapor/internal/repos/users/jsonfile"
	"github.com/fastprodman/vapor/internal/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRecords struct {
	rows []records.Row
	err  error
}

func (f *fakeRecords) Insert(_ *sql.Tx, row records.Row) error {
	f.rows = append(f.rows, row)

	return f.err
}

func (f *fakeRecords) InsertDay(_ context.Context, rows []records.Row) error {
	f.rows = append(f.rows, rows...)

	return f.err
}

type failingStore struct {
	err   error
	saved int
}

func (f *failingStore) Load(context.Context) (market.State, error) {
	return market.State{}, f.err
}

func (f *failingStore) Save(context.Context, market.State) error {
	f.saved++

	return f.err
}

type fixture struct {
	dir   string
	users *jsonfile.Store
	stats *textfile.Store
	sink  *ledger.FileSink
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	dir := t.TempDir()
	f := fixture{
		dir:   dir,
		users: jsonfile.New(filepath.Join(dir, "users.json"), filepath.Join(dir, "market.json")),
		stats: textfile.New(filepath.Join(dir, "stats.txt")),
		sink:  ledger.NewFileSink(filepath.Join(dir, "daily.txt")),
	}

	st := market.State{
		Day: 1,
		Accounts: []market.Account{
			{Username: "admin", Type: market.Admin},
			{Username: "bob", Type: market.FullStandard, Balance: 5000},
			{
				Username: "carol",
				Type:     market.Seller,
				Listings: []market.ListingState{{Game: "Portal 2", Price: 1999, Discount: 5000}},
			},
			{Username: "dave", Type: market.Buyer, Balance: 1000},
		},
	}
	require.NoError(t, f.users.Save(t.Context(), st))

	return f
}

func (f fixture) service(rec records.Records) *Service {
	return New(Options{
		Users:      f.users,
		Stats:      f.stats,
		Records:    rec,
		LedgerPath: f.sink.Path(),
		ArchiveDir: filepath.Join(f.dir, "archive"),
	})
}

// frontEnd runs a day of sessions the way the API would, writing daily.txt.
func (f fixture) frontEnd(t *testing.T) market.State {
	t.Helper()

	ctx := t.Context()

	st, err := f.users.Load(ctx)
	require.NoError(t, err)

	m, err := market.Restore(st, f.sink)
	require.NoError(t, err)

	require.NoError(t, m.Login("bob"))
	require.NoError(t, m.Buy("Portal 2", "carol"))
	require.NoError(t, m.Sell("Celeste", 1500, 1000))
	require.ErrorIs(t, m.AddCredit(200_000, ""), market.ErrDailyCreditLimit)
	require.NoError(t, m.Logout(ctx))

	require.NoError(t, m.Login("admin"))
	_, err = m.ToggleAuctionSale()
	require.NoError(t, err)
	require.NoError(t, m.CreateAccount("erin", market.Buyer, 2500))
	require.NoError(t, m.Refund("bob", "carol", 500))
	require.NoError(t, m.Logout(ctx))

	require.NoError(t, m.Login("dave"))
	require.NoError(t, m.AddCredit(500, ""))
	require.NoError(t, m.Logout(ctx))

	require.NoError(t, m.EndDay())

	want, err := m.Snapshot()
	require.NoError(t, err)

	return want
}

func TestRun_ReproducesFrontEnd(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	want := f.frontEnd(t)
	rec := &fakeRecords{}

	res, err := f.service(rec).Run(t.Context())
	require.NoError(t, err)

	assert.Equal(t, market.Day(1), res.Day)
	assert.Equal(t, Summary{Applied: 13}, res.Summary)
	assert.Equal(t, stats.Totals{Revenue: 1999, Refunded: 500}, res.Report.Daily)

	got, err := f.users.Load(t.Context())
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, market.Day(2), got.Day)
	assert.True(t, got.AuctionSale)

	raw, err := os.ReadFile(filepath.Join(f.dir, "stats.txt"))
	require.NoError(t, err)
	assert.Equal(t, "14.99\n19.99\n5.00\n14.99\n19.99\n5.00\n", string(raw))

	archived, err := ReadArchive(ArchivePath(filepath.Join(f.dir, "archive"), 1))
	require.NoError(t, err)
	original, err := ledger.ReadFile(f.sink.Path())
	require.NoError(t, err)
	assert.Equal(t, original, archived)

	assert.Len(t, rec.rows, 13)
	assert.Equal(t, 1, rec.rows[0].Day)
	assert.Equal(t, int(ledger.CodeLogin), rec.rows[0].Code)
}

func TestRun_CarriesTotals(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.frontEnd(t)

	_, err := f.service(nil).Run(t.Context())
	require.NoError(t, err)

	// second day with an empty ledger
	require.NoError(t, f.sink.Reset())

	res, err := f.service(nil).Run(t.Context())
	require.NoError(t, err)

	assert.Equal(t, market.Day(2), res.Day)
	assert.Zero(t, res.Report.Daily)
	assert.Equal(t, stats.Totals{Revenue: 1999, Refunded: 500}, res.Report.Total)
}

func TestRun_MissingLedgerClosesEmptyDay(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	res, err := f.service(nil).Run(t.Context())
	require.NoError(t, err)
	assert.Zero(t, res.Summary)

	got, err := f.users.Load(t.Context())
	require.NoError(t, err)
	assert.Equal(t, market.Day(2), got.Day)
}

func TestRun_RecordsFailureFailsRun(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.frontEnd(t)

	boom := errors.New("boom")

	_, err := f.service(&fakeRecords{err: boom}).Run(t.Context())
	require.ErrorIs(t, err, boom)

	// accounts are saved last, so the day stays open and can be rerun
	st, err := f.users.Load(t.Context())
	require.NoError(t, err)
	assert.Equal(t, market.Day(1), st.Day)
	assert.Equal(t, money.Credits(5000), st.Accounts[1].Balance)

	res, err := f.service(&fakeRecords{}).Run(t.Context())
	require.NoError(t, err)
	assert.Equal(t, Summary{Applied: 13}, res.Summary)
}

func TestRun_ExportsAccounts(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	want := f.frontEnd(t)

	export := jsonfile.New(filepath.Join(f.dir, "export", "users.json"), filepath.Join(f.dir, "export", "market.json"))
	require.NoError(t, os.MkdirAll(filepath.Join(f.dir, "export"), 0o755))

	svc := New(Options{
		Users:      f.users,
		Export:     export,
		Stats:      f.stats,
		LedgerPath: f.sink.Path(),
	})

	_, err := svc.Run(t.Context())
	require.NoError(t, err)

	got, err := export.Load(t.Context())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRun_ExportFailureKeepsDayOpen(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.frontEnd(t)

	boom := errors.New("disk full")
	export := &failingStore{err: boom}

	svc := New(Options{
		Users:      f.users,
		Export:     export,
		Stats:      f.stats,
		LedgerPath: f.sink.Path(),
	})

	_, err := svc.Run(t.Context())
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, export.saved)

	st, err := f.users.Load(t.Context())
	require.NoError(t, err)
	assert.Equal(t, market.Day(1), st.Day)
}

func TestReplay_SkipsBadLines(t *testing.T) {
	t.Parallel()

	m, err := market.Restore(market.State{
		Accounts: []market.Account{
			{Username: "admin", Type: market.Admin},
			{Username: "dave", Type: market.Buyer, Balance: 1000},
		},
	}, ledger.Discard)
	require.NoError(t, err)

	var lines []ledger.Line

	for i, raw := range []string{
		"00 dave            BS 000010.00",
		"garbage",
		"06 dave            BS 000001.00",
		"03 Doom                      dave            00.00 001.00",
		"06 admin           AA 000001.00",
		// no logout: replay closes the session itself
	} {
		rec, derr := ledger.Decode(raw)
		lines = append(lines, ledger.Line{No: i + 1, Raw: raw, Record: rec, Err: derr})
	}

	col := stats.NewCollector(1, stats.Totals{})
	sum := Replay(t.Context(), m, lines, col)

	assert.Equal(t, Summary{Applied: 2, Rejected: 2, Malformed: 1}, sum)

	_, open := m.Active()
	assert.False(t, open)

	v, err := m.User("dave")
	require.NoError(t, err)
	assert.EqualValues(t, 1100, v.Balance)
}
