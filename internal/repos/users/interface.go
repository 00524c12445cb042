package users

import (
	"context"
	"errors"

	"github.com/fastprodman/vapor/internal/market"
)

var ErrNoState = errors.New("no stored accounts")

// Store persists the market between days.
type Store interface {
	Load(ctx context.Context) (market.State, error)
	Save(ctx context.Context, st market.State) error
}
