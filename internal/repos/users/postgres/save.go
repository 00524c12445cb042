package users

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fastprodman/vapor/internal/market"
)

func saveState(ctx context.Context, tx *sql.Tx, st market.State) error {
	// listings and games reference users, so they go first
	for _, table := range []string{"listings", "games", "users"} {
		_, err := tx.ExecContext(ctx, "DELETE FROM "+table)
		if err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO market_state (id, day, auction_sale)
		VALUES (1, $1, $2)
		ON CONFLICT (id) DO UPDATE
		SET day = EXCLUDED.day, auction_sale = EXCLUDED.auction_sale
	`, int(st.Day), st.AuctionSale)
	if err != nil {
		return fmt.Errorf("upsert market state: %w", err)
	}

	for _, acc := range st.Accounts {
		err = insertAccount(ctx, tx, acc)
		if err != nil {
			return err
		}
	}

	return nil
}

func insertAccount(ctx context.Context, tx *sql.Tx, acc market.Account) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO users (username, user_type, balance)
		VALUES ($1, $2, $3)
	`, acc.Username, string(acc.Type), int64(acc.Balance))
	if err != nil {
		return fmt.Errorf("insert user %q: %w", acc.Username, err)
	}

	for _, g := range acc.Games {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO games (username, name)
			VALUES ($1, $2)
		`, acc.Username, g)
		if err != nil {
			return fmt.Errorf("insert game %q for %q: %w", g, acc.Username, err)
		}
	}

	for _, l := range acc.Listings {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO listings (username, game, price, discount)
			VALUES ($1, $2, $3, $4)
		`, acc.Username, l.Game, int64(l.Price), int64(l.Discount))
		if err != nil {
			return fmt.Errorf("insert listing %q for %q: %w", l.Game, acc.Username, err)
		}
	}

	return nil
}
