// Package jsonfile keeps accounts in users.json and the day counter in a
// small market.json next to it.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fastprodman/vapor/internal/market"
	"github.com/fastprodman/vapor/internal/money"
	"github.com/fastprodman/vapor/internal/repos/users"
)

var _ users.Store = (*Store)(nil)

type Store struct {
	usersPath  string
	marketPath string
}

func New(usersPath, marketPath string) *Store {
	return &Store{usersPath: usersPath, marketPath: marketPath}
}

type gameJSON struct {
	Name string `json:"name"`
}

type listingJSON struct {
	Game     gameJSON `json:"game"`
	Price    int64    `json:"price"`
	Discount float64  `json:"discount"`
}

type userJSON struct {
	Username string        `json:"username"`
	Type     string        `json:"type"`
	Balance  int64         `json:"balance"`
	Games    []gameJSON    `json:"games"`
	Listings []listingJSON `json:"listings"`
}

type marketJSON struct {
	Day         int  `json:"day"`
	AuctionSale bool `json:"auctionSale"`
}

// Load reads both files. A missing users.json is ErrNoState; a missing
// market.json means day 1 with the auction sale off.
func (s *Store) Load(ctx context.Context) (market.State, error) {
	raw, err := os.ReadFile(s.usersPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return market.State{}, fmt.Errorf("%s: %w", s.usersPath, users.ErrNoState)
		}

		return market.State{}, fmt.Errorf("read users: %w", err)
	}

	var list []userJSON

	err = json.Unmarshal(raw, &list)
	if err != nil {
		return market.State{}, fmt.Errorf("decode %s: %w", s.usersPath, err)
	}

	st := market.State{Day: 1, Accounts: make([]market.Account, 0, len(list))}

	for _, u := range list {
		acc, err := toAccount(u)
		if err != nil {
			return market.State{}, fmt.Errorf("decode %s: %w", s.usersPath, err)
		}

		st.Accounts = append(st.Accounts, acc)
	}

	mraw, err := os.ReadFile(s.marketPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return st, ctx.Err()
	case err != nil:
		return market.State{}, fmt.Errorf("read market: %w", err)
	}

	var mj marketJSON

	err = json.Unmarshal(mraw, &mj)
	if err != nil {
		return market.State{}, fmt.Errorf("decode %s: %w", s.marketPath, err)
	}

	if mj.Day > 0 {
		st.Day = market.Day(mj.Day)
	}

	st.AuctionSale = mj.AuctionSale

	return st, ctx.Err()
}

// Save writes both files through a temporary file and a rename, so readers
// never see a partial users.json.
func (s *Store) Save(ctx context.Context, st market.State) error {
	list := make([]userJSON, 0, len(st.Accounts))
	for _, acc := range st.Accounts {
		list = append(list, fromAccount(acc))
	}

	err := writeJSON(ctx, s.usersPath, list)
	if err != nil {
		return err
	}

	return writeJSON(ctx, s.marketPath, marketJSON{Day: int(st.Day), AuctionSale: st.AuctionSale})
}

func toAccount(u userJSON) (market.Account, error) {
	t, err := market.ParseUserType(u.Type)
	if err != nil {
		return market.Account{}, fmt.Errorf("user %q: %w", u.Username, err)
	}

	acc := market.Account{
		Username: u.Username,
		Type:     t,
		Balance:  money.Credits(u.Balance),
		Games:    make([]string, 0, len(u.Games)),
		Listings: make([]market.ListingState, 0, len(u.Listings)),
	}

	for _, g := range u.Games {
		acc.Games = append(acc.Games, g.Name)
	}

	for _, l := range u.Listings {
		d, err := money.PercentFromFloat(l.Discount)
		if err != nil {
			return market.Account{}, fmt.Errorf("user %q listing %q: %w", u.Username, l.Game.Name, err)
		}

		acc.Listings = append(acc.Listings, market.ListingState{
			Game:     l.Game.Name,
			Price:    money.Credits(l.Price),
			Discount: d,
		})
	}

	return acc, nil
}

func fromAccount(acc market.Account) userJSON {
	u := userJSON{
		Username: acc.Username,
		Type:     string(acc.Type),
		Balance:  int64(acc.Balance),
		Games:    make([]gameJSON, 0, len(acc.Games)),
		Listings: make([]listingJSON, 0, len(acc.Listings)),
	}

	for _, g := range acc.Games {
		u.Games = append(u.Games, gameJSON{Name: g})
	}

	for _, l := range acc.Listings {
		u.Listings = append(u.Listings, listingJSON{
			Game:     gameJSON{Name: l.Game},
			Price:    int64(l.Price),
			Discount: l.Discount.Float(),
		})
	}

	return u
}

func writeJSON(ctx context.Context, path string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	err = ctx.Err()
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}

	_, err = tmp.Write(append(raw, '\n'))
	if err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("write %s: %w", path, err)
	}

	err = tmp.Close()
	if err != nil {
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("close %s: %w", path, err)
	}

	err = os.Rename(tmp.Name(), path)
	if err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}

	return nil
}
