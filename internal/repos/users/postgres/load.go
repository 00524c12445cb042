package users

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fastprodman/vapor/internal/market"
)

func selectUsers(ctx context.Context, tx *sql.Tx) ([]market.Account, map[string]int, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT username, user_type, balance
		FROM users
		ORDER BY username
	`)
	if err != nil {
		return nil, nil, fmt.Errorf("select users: %w", err)
	}
	//nolint:errcheck
	defer rows.Close()

	var accounts []market.Account

	index := make(map[string]int)

	for rows.Next() {
		var (
			acc market.Account
			t   string
		)

		err = rows.Scan(&acc.Username, &t, &acc.Balance)
		if err != nil {
			return nil, nil, fmt.Errorf("scan user: %w", err)
		}

		acc.Type = market.UserType(t)
		acc.Games = []string{}
		acc.Listings = []market.ListingState{}

		index[acc.Username] = len(accounts)
		accounts = append(accounts, acc)
	}

	err = rows.Err()
	if err != nil {
		return nil, nil, fmt.Errorf("iterate users: %w", err)
	}

	return accounts, index, nil
}

func selectGames(ctx context.Context, tx *sql.Tx, accounts []market.Account, index map[string]int) error {
	rows, err := tx.QueryContext(ctx, `
		SELECT username, name
		FROM games
		ORDER BY username, name
	`)
	if err != nil {
		return fmt.Errorf("select games: %w", err)
	}
	//nolint:errcheck
	defer rows.Close()

	for rows.Next() {
		var username, name string

		err = rows.Scan(&username, &name)
		if err != nil {
			return fmt.Errorf("scan game: %w", err)
		}

		i, ok := index[username]
		if !ok {
			return fmt.Errorf("game %q: owner %q: %w", name, username, market.ErrUserNotFound)
		}

		accounts[i].Games = append(accounts[i].Games, name)
	}

	err = rows.Err()
	if err != nil {
		return fmt.Errorf("iterate games: %w", err)
	}

	return nil
}

func selectListings(ctx context.Context, tx *sql.Tx, accounts []market.Account, index map[string]int) error {
	rows, err := tx.QueryContext(ctx, `
		SELECT username, game, price, discount
		FROM listings
		ORDER BY username, game
	`)
	if err != nil {
		return fmt.Errorf("select listings: %w", err)
	}
	//nolint:errcheck
	defer rows.Close()

	for rows.Next() {
		var (
			username string
			l        market.ListingState
		)

		err = rows.Scan(&username, &l.Game, &l.Price, &l.Discount)
		if err != nil {
			return fmt.Errorf("scan listing: %w", err)
		}

		i, ok := index[username]
		if !ok {
			return fmt.Errorf("listing %q: seller %q: %w", l.Game, username, market.ErrUserNotFound)
		}

		accounts[i].Listings = append(accounts[i].Listings, l)
	}

	err = rows.Err()
	if err != nil {
		return fmt.Errorf("iterate listings: %w", err)
	}

	return nil
}
