// Package ledger encodes marketplace activity as the fixed-width records of the
// daily transaction file and reads them back.
//
// Every record starts with a two-digit code followed by fields joined with a
// single space:
//
//	XX UUUUUUUUUUUUUUU TT CCCCCCCCC                  login, create, delete, add credit, auction sale, logout
//	XX UUUUUUUUUUUUUUU SSSSSSSSSSSSSSS CCCCCCCCC     refund
//	XX IIIIIIIIIIIIIIIIIIIIIIIII SSSSSSSSSSSSSSS DDDDD PPPPPP   sell
//	XX IIIIIIIIIIIIIIIIIIIIIIIII SSSSSSSSSSSSSSS UUUUUUUUUUUUUUU buy, gift
//	XX IIIIIIIIIIIIIIIIIIIIIIIII UUUUUUUUUUUUUUU SSSSSSSSSSSSSSS remove
package ledger

import (
	"errors"
	"fmt"

	"github.com/fastprodman/vapor/internal/money"
)

const (
	UsernameWidth = 15
	GameWidth     = 25
	TypeWidth     = 2
)

var (
	ErrFieldOverflow = errors.New("value does not fit its field")
	ErrInvalidRecord = errors.New("invalid transaction record")
	ErrUnknownCode   = errors.New("unknown transaction code")
)

// Code identifies the kind of a record. The set is closed: 00 through 10.
type Code int

const (
	CodeLogin Code = iota
	CodeCreate
	CodeDelete
	CodeSell
	CodeBuy
	CodeRefund
	CodeAddCredit
	CodeAuctionSale
	CodeRemove
	CodeGift
	CodeLogout
)

var codeNames = [...]string{
	CodeLogin:       "login",
	CodeCreate:      "create",
	CodeDelete:      "delete",
	CodeSell:        "sell",
	CodeBuy:         "buy",
	CodeRefund:      "refund",
	CodeAddCredit:   "add_credit",
	CodeAuctionSale: "auction_sale",
	CodeRemove:      "remove",
	CodeGift:        "gift",
	CodeLogout:      "logout",
}

func (c Code) Valid() bool {
	return c >= CodeLogin && c <= CodeLogout
}

// String returns the two-digit form used on the wire.
func (c Code) String() string {
	return fmt.Sprintf("%02d", int(c))
}

// Name returns a human readable name for logs.
func (c Code) Name() string {
	if !c.Valid() {
		return "unknown"
	}

	return codeNames[c]
}

type layout int

const (
	layoutXUTC layout = iota
	layoutXUSC
	layoutXISDP
	layoutXISU
	layoutXIUS
)

func (c Code) layout() layout {
	switch c {
	case CodeRefund:
		return layoutXUSC
	case CodeSell:
		return layoutXISDP
	case CodeBuy, CodeGift:
		return layoutXISU
	case CodeRemove:
		return layoutXIUS
	default:
		return layoutXUTC
	}
}

// Record is one line of the daily transaction file. Which fields are
// meaningful depends on Code; the constructors below set exactly those.
type Record struct {
	Code Code

	// User is the first username of the record: the account for account
	// records, the seller for sell/buy, the owner for gift/remove and the
	// credited buyer for refunds.
	User string
	// OtherUser is the second username: the buyer for buy, the receiver for
	// gift, the charged seller for refunds and the acting admin (optional)
	// for remove.
	OtherUser string
	UserType  string

	Credit   money.Credits
	Game     string
	Price    money.Credits
	Discount money.Percent
}

func accountRecord(code Code, username, userType string, credit money.Credits) Record {
	return Record{Code: code, User: username, UserType: userType, Credit: credit}
}

// Login records the start of a session with the user's balance.
func Login(username, userType string, balance money.Credits) Record {
	return accountRecord(CodeLogin, username, userType, balance)
}

// Create records a new account and its starting credit.
func Create(username, userType string, credit money.Credits) Record {
	return accountRecord(CodeCreate, username, userType, credit)
}

// Delete records the removal of an account with its final balance.
func Delete(username, userType string, balance money.Credits) Record {
	return accountRecord(CodeDelete, username, userType, balance)
}

// AddCredit records a deposit request of amount.
func AddCredit(username, userType string, amount money.Credits) Record {
	return accountRecord(CodeAddCredit, username, userType, amount)
}

// AuctionSale records a toggle of the market-wide sale by an admin.
func AuctionSale(username, userType string, balance money.Credits) Record {
	return accountRecord(CodeAuctionSale, username, userType, balance)
}

// Logout records the end of a session with the user's balance.
func Logout(username, userType string, balance money.Credits) Record {
	return accountRecord(CodeLogout, username, userType, balance)
}

func Sell(game, seller string, discount money.Percent, price money.Credits) Record {
	return Record{Code: CodeSell, Game: game, User: seller, Discount: discount, Price: price}
}

func Buy(game, seller, buyer string) Record {
	return Record{Code: CodeBuy, Game: game, User: seller, OtherUser: buyer}
}

// Refund moves amount from seller back to buyer.
func Refund(buyer, seller string, amount money.Credits) Record {
	return Record{Code: CodeRefund, User: buyer, OtherUser: seller, Credit: amount}
}

// Remove records a game taken off an owner. actor is the admin acting on
// someone else's behalf, or empty.
func Remove(game, owner, actor string) Record {
	return Record{Code: CodeRemove, Game: game, User: owner, OtherUser: actor}
}

func Gift(game, owner, receiver string) Record {
	return Record{Code: CodeGift, Game: game, User: owner, OtherUser: receiver}
}
