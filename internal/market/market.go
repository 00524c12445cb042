// Package market holds the in-memory marketplace: accounts, their games and
// listings, the current simulated day and the single active session.
//
// Every state change emits one ledger record into the session buffer. The
// buffer reaches the ledger sink only when the session logs out.
package market

import (
	"context"
	"fmt"
	"sort"

	"github.com/fastprodman/vapor/internal/ledger"
)

// Day is the ordinal of the simulated day. Eligibility flags and daily
// credit counters reset when it advances.
type Day int

// Market is not safe for concurrent use; callers serialize access.
type Market struct {
	users       map[string]*user
	day         Day
	auctionSale bool

	active *user
	buffer []ledger.Record
	sink   ledger.Sink
}

// New returns an empty market on day 1 that flushes sessions into sink.
func New(sink ledger.Sink) *Market {
	return &Market{
		users: make(map[string]*user),
		day:   1,
		sink:  sink,
	}
}

func (m *Market) Day() Day {
	return m.day
}

func (m *Market) AuctionSale() bool {
	return m.auctionSale
}

// Active returns the username of the logged in user.
func (m *Market) Active() (string, bool) {
	if m.active == nil {
		return "", false
	}

	return m.active.username, true
}

// Pending returns a copy of the records buffered for the open session.
func (m *Market) Pending() []ledger.Record {
	out := make([]ledger.Record, len(m.buffer))
	copy(out, m.buffer)

	return out
}

func (m *Market) User(username string) (UserView, error) {
	u, err := m.lookup(username)
	if err != nil {
		return UserView{}, err
	}

	return u.view(), nil
}

// Users returns every account sorted by username.
func (m *Market) Users() []UserView {
	out := make([]UserView, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u.view())
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })

	return out
}

// Listings returns every listing on the market sorted by seller and game.
func (m *Market) Listings() []MarketListing {
	var out []MarketListing

	for _, u := range m.users {
		for _, l := range u.listings {
			out = append(out, MarketListing{Seller: u.username, Listing: *l})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Seller != out[j].Seller {
			return out[i].Seller < out[j].Seller
		}

		return out[i].Game.Name < out[j].Game.Name
	})

	return out
}

// Login opens a session for username and records its balance.
func (m *Market) Login(username string) error {
	if m.active != nil {
		return fmt.Errorf("login %q: %w", username, ErrAlreadyLoggedIn)
	}

	u, err := m.lookup(username)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	err = m.emit(ledger.Login(u.username, string(u.userType), u.balance))
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	m.active = u

	return nil
}

// Logout records the closing balance and flushes the session to the sink.
// When the flush fails the session stays open with its buffer intact, so
// Logout can be retried without losing records.
func (m *Market) Logout(ctx context.Context) error {
	u, err := m.session()
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}

	rec := ledger.Logout(u.username, string(u.userType), u.balance)

	_, err = ledger.Encode(rec)
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}

	records := make([]ledger.Record, 0, len(m.buffer)+1)
	records = append(records, m.buffer...)
	records = append(records, rec)

	err = m.sink.Append(ctx, records)
	if err != nil {
		return fmt.Errorf("flush ledger: %w", err)
	}

	m.buffer = nil
	m.active = nil

	return nil
}

// EndDay closes the simulated day: every listing becomes buyable, every game
// giftable and every daily credit counter returns to zero.
func (m *Market) EndDay() error {
	if m.active != nil {
		return fmt.Errorf("end day %d: %w", m.day, ErrSessionOpen)
	}

	for _, u := range m.users {
		u.endDay()
	}

	m.day++

	return nil
}

func (m *Market) lookup(username string) (*user, error) {
	u, ok := m.users[username]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUserNotFound, username)
	}

	return u, nil
}

func (m *Market) session() (*user, error) {
	if m.active == nil {
		return nil, ErrNotLoggedIn
	}

	return m.active, nil
}

func (m *Market) admin() (*user, error) {
	u, err := m.session()
	if err != nil {
		return nil, err
	}

	if !u.userType.Privileged() {
		return nil, fmt.Errorf("%w: %q", ErrUnauthorized, u.username)
	}

	return u, nil
}

// actingOn resolves the account an operation targets: the active user, or
// for an admin any named account.
func (m *Market) actingOn(username string) (active, target *user, err error) {
	active, err = m.session()
	if err != nil {
		return nil, nil, err
	}

	if username == "" || username == active.username {
		return active, active, nil
	}

	if !active.userType.Privileged() {
		return nil, nil, fmt.Errorf("%w: %q cannot act for %q", ErrUnauthorized, active.username, username)
	}

	target, err = m.lookup(username)
	if err != nil {
		return nil, nil, err
	}

	return active, target, nil
}

// emit validates rec and appends it to the session buffer. Operations call
// it after every check has passed and before mutating state, so a record
// that cannot be encoded aborts the operation cleanly.
func (m *Market) emit(rec ledger.Record) error {
	_, err := ledger.Encode(rec)
	if err != nil {
		return fmt.Errorf("record %s: %w", rec.Code.Name(), err)
	}

	m.buffer = append(m.buffer, rec)

	return nil
}
