package market

import "errors"

var (
	ErrNotLoggedIn       = errors.New("no user logged in")
	ErrAlreadyLoggedIn   = errors.New("a user is already logged in")
	ErrSessionOpen       = errors.New("a session is still open")
	ErrUserNotFound      = errors.New("user not found")
	ErrUserExists        = errors.New("user already exists")
	ErrInvalidUsername   = errors.New("invalid username")
	ErrInvalidUserType   = errors.New("invalid user type")
	ErrInvalidGameName   = errors.New("invalid game name")
	ErrInvalidPrice      = errors.New("invalid price")
	ErrInvalidDiscount   = errors.New("invalid discount")
	ErrUnauthorized      = errors.New("user is not privileged")
	ErrNotBuyer          = errors.New("user cannot buy games")
	ErrNotSeller         = errors.New("user cannot sell games")
	ErrOwnListing        = errors.New("cannot buy own listing")
	ErrGameNotFound      = errors.New("game not found")
	ErrDuplicateGame     = errors.New("user already has this game")
	ErrNotEligible       = errors.New("game was listed or acquired today")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrDailyCreditLimit  = errors.New("daily credit limit reached")
	ErrSelfDeletion      = errors.New("cannot delete the logged in user")
	ErrSelfRefund        = errors.New("buyer and seller must differ")
	ErrSelfGift          = errors.New("owner and receiver must differ")
)
