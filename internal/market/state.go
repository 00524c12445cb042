package market

import (
	"fmt"

	"github.com/fastprodman/vapor/internal/ledger"
	"github.com/fastprodman/vapor/internal/money"
)

// State is the persistent form of a market between days. It carries no
// eligibility flags: a restored market always starts a fresh day.
type State struct {
	Day         Day
	AuctionSale bool
	Accounts    []Account
}

type Account struct {
	Username string
	Type     UserType
	Balance  money.Credits
	Games    []string
	Listings []ListingState
}

type ListingState struct {
	Game     string
	Price    money.Credits
	Discount money.Percent
}

// Snapshot captures every account. It fails while a session is open, since
// the open session's records have not reached the ledger yet.
func (m *Market) Snapshot() (State, error) {
	if m.active != nil {
		return State{}, fmt.Errorf("snapshot: %w", ErrSessionOpen)
	}

	st := State{Day: m.day, AuctionSale: m.auctionSale}

	for _, v := range m.Users() {
		acc := Account{
			Username: v.Username,
			Type:     v.Type,
			Balance:  v.Balance,
			Games:    make([]string, 0, len(v.Games)),
			Listings: make([]ListingState, 0, len(v.Listings)),
		}

		for _, g := range v.Games {
			acc.Games = append(acc.Games, g.Name)
		}

		for _, l := range v.Listings {
			acc.Listings = append(acc.Listings, ListingState{
				Game:     l.Game.Name,
				Price:    l.Price,
				Discount: l.Discount,
			})
		}

		st.Accounts = append(st.Accounts, acc)
	}

	return st, nil
}

// Restore builds a market from st. Every game is giftable and every listing
// buyable, as at the start of any day.
func Restore(st State, sink ledger.Sink) (*Market, error) {
	m := New(sink)
	if st.Day > 0 {
		m.day = st.Day
	}

	m.auctionSale = st.AuctionSale

	for _, acc := range st.Accounts {
		u, err := restoreAccount(acc)
		if err != nil {
			return nil, fmt.Errorf("restore: %w", err)
		}

		if _, ok := m.users[u.username]; ok {
			return nil, fmt.Errorf("restore: %w: %q", ErrUserExists, u.username)
		}

		m.users[u.username] = u
	}

	return m, nil
}

func restoreAccount(acc Account) (*user, error) {
	if !ledger.ValidName(acc.Username, ledger.UsernameWidth) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidUsername, acc.Username)
	}

	if !acc.Type.Valid() {
		return nil, fmt.Errorf("account %q: %w: %q", acc.Username, ErrInvalidUserType, acc.Type)
	}

	if acc.Balance < 0 || acc.Balance > money.MaxBalance {
		return nil, fmt.Errorf("account %q: balance %s: %w", acc.Username, acc.Balance, money.ErrOverflow)
	}

	u := newUser(acc.Username, acc.Type, acc.Balance)

	for _, name := range acc.Games {
		if !ledger.ValidName(name, ledger.GameWidth) {
			return nil, fmt.Errorf("account %q: %w: %q", acc.Username, ErrInvalidGameName, name)
		}

		if u.has(name) {
			return nil, fmt.Errorf("account %q: %w: %q", acc.Username, ErrDuplicateGame, name)
		}

		u.games[name] = &Game{Name: name, Giftable: true}
	}

	for _, l := range acc.Listings {
		switch {
		case !ledger.ValidName(l.Game, ledger.GameWidth):
			return nil, fmt.Errorf("account %q: %w: %q", acc.Username, ErrInvalidGameName, l.Game)
		case u.has(l.Game):
			return nil, fmt.Errorf("account %q: %w: %q", acc.Username, ErrDuplicateGame, l.Game)
		case l.Price < 0 || l.Price > money.MaxPrice:
			return nil, fmt.Errorf("account %q listing %q: %w", acc.Username, l.Game, ErrInvalidPrice)
		case l.Discount < 0 || l.Discount > money.MaxDiscount:
			return nil, fmt.Errorf("account %q listing %q: %w", acc.Username, l.Game, ErrInvalidDiscount)
		}

		u.listings[l.Game] = &Listing{
			Game:     Game{Name: l.Game, Giftable: true},
			Price:    l.Price,
			Discount: l.Discount,
			Buyable:  true,
		}
	}

	return u, nil
}
