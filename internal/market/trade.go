package market

import (
	"errors"
	"fmt"

	"github.com/fastprodman/vapor/internal/ledger"
	"github.com/fastprodman/vapor/internal/money"
)

// Sell lists a game for the active user. The listing cannot be bought until
// the next day.
func (m *Market) Sell(game string, price money.Credits, discount money.Percent) error {
	u, err := m.session()
	if err != nil {
		return fmt.Errorf("sell: %w", err)
	}

	switch {
	case !u.userType.CanSell():
		return fmt.Errorf("sell: %w: %q", ErrNotSeller, u.username)
	case !ledger.ValidName(game, ledger.GameWidth):
		return fmt.Errorf("sell: %w: %q", ErrInvalidGameName, game)
	case price < 0 || price > money.MaxPrice:
		return fmt.Errorf("sell: %w: %s (max %s)", ErrInvalidPrice, price, money.MaxPrice)
	case discount < 0 || discount > money.MaxDiscount:
		return fmt.Errorf("sell: %w: %s", ErrInvalidDiscount, discount)
	case u.has(game):
		return fmt.Errorf("sell %q: %w", game, ErrDuplicateGame)
	}

	err = m.emit(ledger.Sell(game, u.username, discount, price))
	if err != nil {
		return fmt.Errorf("sell: %w", err)
	}

	u.listings[game] = &Listing{
		Game:     Game{Name: game},
		Price:    price,
		Discount: discount,
	}

	return nil
}

// Buy purchases sellerName's listing of game for the active user. The buyer
// is charged and the seller credited exactly once; the bought copy cannot
// be gifted until the next day.
func (m *Market) Buy(game, sellerName string) error {
	u, err := m.session()
	if err != nil {
		return fmt.Errorf("buy: %w", err)
	}

	if !u.userType.CanBuy() {
		return fmt.Errorf("buy: %w: %q", ErrNotBuyer, u.username)
	}

	seller, err := m.lookup(sellerName)
	if err != nil {
		return fmt.Errorf("buy: seller: %w", err)
	}

	if seller == u {
		return fmt.Errorf("buy %q: %w", game, ErrOwnListing)
	}

	listing, ok := seller.listings[game]
	if !ok {
		return fmt.Errorf("buy %q from %q: %w", game, sellerName, ErrGameNotFound)
	}

	if !listing.Buyable {
		return fmt.Errorf("buy %q: %w", game, ErrNotEligible)
	}

	if u.has(game) {
		return fmt.Errorf("buy %q: %w", game, ErrDuplicateGame)
	}

	price := listing.SalePrice(m.auctionSale)

	buyerBalance, err := u.balance.Sub(price)
	if err != nil {
		if errors.Is(err, money.ErrInsufficient) {
			return fmt.Errorf("buy %q for %s: %w", game, price, ErrInsufficientFunds)
		}

		return fmt.Errorf("buy: %w", err)
	}

	sellerBalance, err := seller.balance.Add(price)
	if err != nil {
		return fmt.Errorf("buy: credit seller %q: %w", sellerName, err)
	}

	err = m.emit(ledger.Buy(game, seller.username, u.username))
	if err != nil {
		return fmt.Errorf("buy: %w", err)
	}

	u.balance = buyerBalance
	seller.balance = sellerBalance
	u.games[game] = &Game{Name: game}

	return nil
}

// Gift hands game from its owner to receiverName. The owner is the active
// user unless an admin names another. A game listed or acquired today
// cannot be gifted, and a gifted copy cannot be passed on again until the
// next day.
func (m *Market) Gift(game, receiverName, ownerName string) error {
	_, owner, err := m.actingOn(ownerName)
	if err != nil {
		return fmt.Errorf("gift: %w", err)
	}

	receiver, err := m.lookup(receiverName)
	if err != nil {
		return fmt.Errorf("gift: receiver: %w", err)
	}

	switch {
	case receiver == owner:
		return fmt.Errorf("gift: %w", ErrSelfGift)
	case !receiver.userType.CanBuy():
		return fmt.Errorf("gift: %w: %q", ErrNotBuyer, receiverName)
	case receiver.has(game):
		return fmt.Errorf("gift %q to %q: %w", game, receiverName, ErrDuplicateGame)
	}

	owned, isOwned := owner.games[game]
	listed, isListed := owner.listings[game]

	switch {
	case isOwned && !owned.Giftable:
		return fmt.Errorf("gift %q: %w", game, ErrNotEligible)
	case !isOwned && isListed && !listed.Buyable:
		return fmt.Errorf("gift %q: %w", game, ErrNotEligible)
	case !isOwned && !isListed:
		return fmt.Errorf("gift %q from %q: %w", game, owner.username, ErrGameNotFound)
	}

	err = m.emit(ledger.Gift(game, owner.username, receiver.username))
	if err != nil {
		return fmt.Errorf("gift: %w", err)
	}

	if isOwned {
		delete(owner.games, game)
	} else {
		delete(owner.listings, game)
	}

	receiver.games[game] = &Game{Name: game}

	return nil
}

// RemoveGame takes game out of an owner's games, or failing that out of
// their listings. An admin may name another owner.
func (m *Market) RemoveGame(game, ownerName string) error {
	active, owner, err := m.actingOn(ownerName)
	if err != nil {
		return fmt.Errorf("remove game: %w", err)
	}

	_, isOwned := owner.games[game]
	_, isListed := owner.listings[game]

	if !isOwned && !isListed {
		return fmt.Errorf("remove %q from %q: %w", game, owner.username, ErrGameNotFound)
	}

	actor := ""
	if active != owner {
		actor = active.username
	}

	err = m.emit(ledger.Remove(game, owner.username, actor))
	if err != nil {
		return fmt.Errorf("remove game: %w", err)
	}

	if isOwned {
		delete(owner.games, game)
	} else {
		delete(owner.listings, game)
	}

	return nil
}

// Quote returns what the active auction state would charge for sellerName's
// listing of game.
func (m *Market) Quote(game, sellerName string) (money.Credits, error) {
	seller, err := m.lookup(sellerName)
	if err != nil {
		return 0, fmt.Errorf("quote: %w", err)
	}

	listing, ok := seller.listings[game]
	if !ok {
		return 0, fmt.Errorf("quote %q from %q: %w", game, sellerName, ErrGameNotFound)
	}

	return listing.SalePrice(m.auctionSale), nil
}
