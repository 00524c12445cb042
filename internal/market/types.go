package market

import (
	"fmt"
	"sort"

	"github.com/fastprodman/vapor/internal/money"
)

// UserType is the two-letter account type written to the ledger.
type UserType string

const (
	Admin        UserType = "AA"
	FullStandard UserType = "FS"
	Buyer        UserType = "BS"
	Seller       UserType = "SS"
)

var userTypeNames = map[string]UserType{
	"Admin":         Admin,
	"Full-Standard": FullStandard,
	"Buyer":         Buyer,
	"Seller":        Seller,
}

// ParseUserType accepts either the ledger code ("FS") or the display name
// ("Full-Standard").
func ParseUserType(s string) (UserType, error) {
	t := UserType(s)
	if t.Valid() {
		return t, nil
	}

	t, ok := userTypeNames[s]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidUserType, s)
	}

	return t, nil
}

func (t UserType) Valid() bool {
	switch t {
	case Admin, FullStandard, Buyer, Seller:
		return true
	default:
		return false
	}
}

func (t UserType) CanBuy() bool {
	return t == Buyer || t == FullStandard || t == Admin
}

func (t UserType) CanSell() bool {
	return t == Seller || t == FullStandard || t == Admin
}

func (t UserType) Privileged() bool {
	return t == Admin
}

// Game is an owned copy. Giftable is false on the day it was acquired.
type Game struct {
	Name     string
	Giftable bool
}

// Listing is a game offered for sale. Buyable is false on the day it was
// listed.
type Listing struct {
	Game     Game
	Price    money.Credits
	Discount money.Percent
	Buyable  bool
}

// SalePrice is the price a buyer pays, with the discount applied during an
// auction sale.
func (l Listing) SalePrice(auctionSale bool) money.Credits {
	if !auctionSale {
		return l.Price
	}

	return l.Price - l.Discount.Of(l.Price)
}

type user struct {
	username     string
	userType     UserType
	balance      money.Credits
	creditsAdded money.Credits
	games        map[string]*Game
	listings     map[string]*Listing
}

func newUser(username string, t UserType, balance money.Credits) *user {
	return &user{
		username: username,
		userType: t,
		balance:  balance,
		games:    make(map[string]*Game),
		listings: make(map[string]*Listing),
	}
}

// has reports whether the game is owned or listed by u.
func (u *user) has(game string) bool {
	_, owned := u.games[game]
	_, listed := u.listings[game]

	return owned || listed
}

func (u *user) endDay() {
	for _, g := range u.games {
		g.Giftable = true
	}

	for _, l := range u.listings {
		l.Buyable = true
		l.Game.Giftable = true
	}

	u.creditsAdded = 0
}

// UserView is a read-only copy of an account.
type UserView struct {
	Username     string
	Type         UserType
	Balance      money.Credits
	CreditsAdded money.Credits
	Games        []Game
	Listings     []Listing
}

func (u *user) view() UserView {
	v := UserView{
		Username:     u.username,
		Type:         u.userType,
		Balance:      u.balance,
		CreditsAdded: u.creditsAdded,
		Games:        make([]Game, 0, len(u.games)),
		Listings:     make([]Listing, 0, len(u.listings)),
	}

	for _, g := range u.games {
		v.Games = append(v.Games, *g)
	}

	for _, l := range u.listings {
		v.Listings = append(v.Listings, *l)
	}

	sort.Slice(v.Games, func(i, j int) bool { return v.Games[i].Name < v.Games[j].Name })
	sort.Slice(v.Listings, func(i, j int) bool { return v.Listings[i].Game.Name < v.Listings[j].Game.Name })

	return v
}

// MarketListing is a listing together with its seller.
type MarketListing struct {
	Seller string
	Listing
}
