package endofday

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fastprodman/vapor/internal/ledger"
	"github.com/fastprodman/vapor/internal/market"
	"github.com/fastprodman/vapor/internal/stats"
)

var ErrWrongActor = errors.New("record does not belong to the open session")

// Summary counts what happened to each ledger line during a replay.
type Summary struct {
	Applied   int
	Rejected  int
	Malformed int
}

// Replay applies every decodable line to m in order. Lines that fail to
// decode or to apply are logged and skipped so one bad record never stops
// the day from closing. A session left open by the last line is closed.
func Replay(ctx context.Context, m *market.Market, lines []ledger.Line, col *stats.Collector) Summary {
	var sum Summary

	for _, l := range lines {
		if l.Err != nil {
			slog.Warn("skipping malformed ledger line", "line", l.No, "raw", l.Raw, "error", l.Err)

			sum.Malformed++

			continue
		}

		err := apply(ctx, m, l.Record, col)
		if err != nil {
			slog.Error("ledger record rejected",
				"line", l.No, "code", l.Record.Code.String(), "kind", l.Record.Code.Name(), "error", err)

			sum.Rejected++

			continue
		}

		sum.Applied++
	}

	if name, ok := m.Active(); ok {
		slog.Warn("ledger ends inside a session, closing it", "username", name)

		err := m.Logout(ctx)
		if err != nil {
			slog.Error("close trailing session", "username", name, "error", err)
		}
	}

	return sum
}

//nolint:cyclop
func apply(ctx context.Context, m *market.Market, rec ledger.Record, col *stats.Collector) error {
	switch rec.Code {
	case ledger.CodeLogin:
		if name, ok := m.Active(); ok {
			slog.Warn("login without logout, closing previous session", "username", name)

			err := m.Logout(ctx)
			if err != nil {
				return fmt.Errorf("close previous session: %w", err)
			}
		}

		err := m.Login(rec.User)
		if err != nil {
			return err
		}

		checkBalance(m, rec)

		return nil
	case ledger.CodeLogout:
		err := actor(m, rec.User)
		if err != nil {
			return err
		}

		checkBalance(m, rec)

		return m.Logout(ctx)
	case ledger.CodeCreate:
		t, err := market.ParseUserType(rec.UserType)
		if err != nil {
			return err
		}

		return m.CreateAccount(rec.User, t, rec.Credit)
	case ledger.CodeDelete:
		return m.DeleteAccount(rec.User)
	case ledger.CodeSell:
		err := actor(m, rec.User)
		if err != nil {
			return err
		}

		return m.Sell(rec.Game, rec.Price, rec.Discount)
	case ledger.CodeBuy:
		err := actor(m, rec.OtherUser)
		if err != nil {
			return err
		}

		price, err := m.Quote(rec.Game, rec.User)
		if err != nil {
			return err
		}

		err = m.Buy(rec.Game, rec.User)
		if err != nil {
			return err
		}

		col.Sale(price)

		return nil
	case ledger.CodeRefund:
		err := m.Refund(rec.User, rec.OtherUser, rec.Credit)
		if err != nil {
			return err
		}

		col.Refund(rec.Credit)

		return nil
	case ledger.CodeAddCredit:
		err := m.AddCredit(rec.Credit, rec.User)
		if errors.Is(err, market.ErrDailyCreditLimit) {
			// the front end refused it too; the record only documents the attempt
			slog.Info("deposit over daily limit ignored", "username", rec.User, "amount", rec.Credit.String())

			return nil
		}

		return err
	case ledger.CodeAuctionSale:
		err := actor(m, rec.User)
		if err != nil {
			return err
		}

		on, err := m.ToggleAuctionSale()
		if err != nil {
			return err
		}

		slog.Info("auction sale toggled", "on", on)

		return nil
	case ledger.CodeRemove:
		if rec.OtherUser != "" {
			err := actor(m, rec.OtherUser)
			if err != nil {
				return err
			}
		}

		return m.RemoveGame(rec.Game, rec.User)
	case ledger.CodeGift:
		return m.Gift(rec.Game, rec.OtherUser, rec.User)
	default:
		return fmt.Errorf("%w: %s", ledger.ErrUnknownCode, rec.Code)
	}
}

func actor(m *market.Market, username string) error {
	name, ok := m.Active()
	if !ok {
		return market.ErrNotLoggedIn
	}

	if name != username {
		return fmt.Errorf("%w: record names %q, session is %q", ErrWrongActor, username, name)
	}

	return nil
}

// checkBalance warns when the balance in a login or logout record differs
// from the replayed one, which means the ledger and users.json disagree.
func checkBalance(m *market.Market, rec ledger.Record) {
	v, err := m.User(rec.User)
	if err != nil {
		return
	}

	if v.Balance != rec.Credit {
		slog.Warn("ledger balance differs from replayed balance",
			"username", rec.User,
			"code", rec.Code.String(),
			"ledger", rec.Credit.String(),
			"replayed", v.Balance.String())
	}
}
