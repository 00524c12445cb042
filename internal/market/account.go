package market

import (
	"errors"
	"fmt"

	"github.com/fastprodman/vapor/internal/ledger"
	"github.com/fastprodman/vapor/internal/money"
)

// CreateAccount adds a new account. Admin only.
func (m *Market) CreateAccount(username string, t UserType, credit money.Credits) error {
	_, err := m.admin()
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}

	if !ledger.ValidName(username, ledger.UsernameWidth) {
		return fmt.Errorf("create account: %w: %q", ErrInvalidUsername, username)
	}

	if !t.Valid() {
		return fmt.Errorf("create account: %w: %q", ErrInvalidUserType, t)
	}

	if _, ok := m.users[username]; ok {
		return fmt.Errorf("create account: %w: %q", ErrUserExists, username)
	}

	if credit < 0 || credit > money.MaxBalance {
		return fmt.Errorf("create account: starting credit %s: %w", credit, money.ErrOverflow)
	}

	err = m.emit(ledger.Create(username, string(t), credit))
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}

	m.users[username] = newUser(username, t, credit)

	return nil
}

// DeleteAccount removes an account and its listings. Admin only; an admin
// cannot delete themselves.
func (m *Market) DeleteAccount(username string) error {
	active, err := m.admin()
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}

	target, err := m.lookup(username)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}

	if target == active {
		return fmt.Errorf("delete account: %w", ErrSelfDeletion)
	}

	err = m.emit(ledger.Delete(target.username, string(target.userType), target.balance))
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}

	delete(m.users, username)

	return nil
}

// AddCredit deposits amount into the active user's account, or into the
// named account when the active user is an admin.
//
// A deposit over the daily limit is still recorded, since the ledger keeps
// every attempt, but the balance is left unchanged and ErrDailyCreditLimit
// is returned. A deposit that would exceed the maximum balance is rejected
// without a record.
func (m *Market) AddCredit(amount money.Credits, username string) error {
	_, target, err := m.actingOn(username)
	if err != nil {
		return fmt.Errorf("add credit: %w", err)
	}

	if amount <= 0 {
		return fmt.Errorf("add credit: %w: %s", money.ErrInvalidAmount, amount)
	}

	rec := ledger.AddCredit(target.username, string(target.userType), amount)

	if amount > money.DailyCreditLimit-target.creditsAdded {
		err = m.emit(rec)
		if err != nil {
			return fmt.Errorf("add credit: %w", err)
		}

		return fmt.Errorf("add credit %s to %q (%s already added today): %w",
			amount, target.username, target.creditsAdded, ErrDailyCreditLimit)
	}

	balance, err := target.balance.Add(amount)
	if err != nil {
		return fmt.Errorf("add credit: %w", err)
	}

	err = m.emit(rec)
	if err != nil {
		return fmt.Errorf("add credit: %w", err)
	}

	target.balance = balance
	target.creditsAdded += amount

	return nil
}

// Refund moves amount from seller back to buyer. Admin only.
func (m *Market) Refund(buyerName, sellerName string, amount money.Credits) error {
	_, err := m.admin()
	if err != nil {
		return fmt.Errorf("refund: %w", err)
	}

	buyer, err := m.lookup(buyerName)
	if err != nil {
		return fmt.Errorf("refund buyer: %w", err)
	}

	seller, err := m.lookup(sellerName)
	if err != nil {
		return fmt.Errorf("refund seller: %w", err)
	}

	switch {
	case buyer == seller:
		return fmt.Errorf("refund: %w", ErrSelfRefund)
	case !buyer.userType.CanBuy():
		return fmt.Errorf("refund: %w: %q", ErrNotBuyer, buyerName)
	case !seller.userType.CanSell():
		return fmt.Errorf("refund: %w: %q", ErrNotSeller, sellerName)
	case amount <= 0:
		return fmt.Errorf("refund: %w: %s", money.ErrInvalidAmount, amount)
	}

	sellerBalance, err := seller.balance.Sub(amount)
	if err != nil {
		if errors.Is(err, money.ErrInsufficient) {
			return fmt.Errorf("refund: %q: %w", sellerName, ErrInsufficientFunds)
		}

		return fmt.Errorf("refund: %w", err)
	}

	buyerBalance, err := buyer.balance.Add(amount)
	if err != nil {
		return fmt.Errorf("refund: %q: %w", buyerName, err)
	}

	err = m.emit(ledger.Refund(buyer.username, seller.username, amount))
	if err != nil {
		return fmt.Errorf("refund: %w", err)
	}

	seller.balance = sellerBalance
	buyer.balance = buyerBalance

	return nil
}

// ToggleAuctionSale switches the market-wide sale on or off and returns the
// new state. Admin only.
func (m *Market) ToggleAuctionSale() (bool, error) {
	u, err := m.admin()
	if err != nil {
		return m.auctionSale, fmt.Errorf("toggle auction sale: %w", err)
	}

	err = m.emit(ledger.AuctionSale(u.username, string(u.userType), u.balance))
	if err != nil {
		return m.auctionSale, fmt.Errorf("toggle auction sale: %w", err)
	}

	m.auctionSale = !m.auctionSale

	return m.auctionSale, nil
}
