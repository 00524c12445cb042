package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastprodman/vapor/internal/infra/pgutils"
	"github.com/fastprodman/vapor/internal/market"
	"github.com/fastprodman/vapor/internal/repos/users"
)

var _ users.Store = (*usersRepo)(nil)

type usersRepo struct{ db *sql.DB }

func New(db *sql.DB) *usersRepo {
	return &usersRepo{db: db}
}

// Load reads the whole market in one read-only transaction so accounts,
// games and listings come from the same snapshot.
func (r *usersRepo) Load(ctx context.Context) (market.State, error) {
	var st market.State

	err := pgutils.WithReadTx(ctx, r.db, func(tx *sql.Tx) error {
		var err error

		st, err = loadState(ctx, tx)

		return err
	})
	if err != nil {
		return market.State{}, fmt.Errorf("load market: %w", err)
	}

	return st, nil
}

// Save replaces every stored account with st.
func (r *usersRepo) Save(ctx context.Context, st market.State) error {
	err := pgutils.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		return saveState(ctx, tx, st)
	})
	if err != nil {
		return fmt.Errorf("save market: %w", err)
	}

	return nil
}

func loadState(ctx context.Context, tx *sql.Tx) (market.State, error) {
	var st market.State

	err := tx.QueryRowContext(ctx, `
		SELECT day, auction_sale
		FROM market_state
		WHERE id = 1
	`).Scan(&st.Day, &st.AuctionSale)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return market.State{}, users.ErrNoState
		}

		return market.State{}, fmt.Errorf("select market state: %w", err)
	}

	accounts, index, err := selectUsers(ctx, tx)
	if err != nil {
		return market.State{}, err
	}

	err = selectGames(ctx, tx, accounts, index)
	if err != nil {
		return market.State{}, err
	}

	err = selectListings(ctx, tx, accounts, index)
	if err != nil {
		return market.State{}, err
	}

	st.Accounts = accounts

	return st, nil
}
