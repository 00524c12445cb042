// Package stats tracks marketplace revenue and refunds, per day and in total.
package stats

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fastprodman/vapor/internal/money"
	"github.com/shopspring/decimal"
)

var ErrMalformed = errors.New("malformed stats")

// Totals are unbounded sums. They are not balances, so they are not capped at
// money.MaxBalance.
type Totals struct {
	Revenue  money.Credits
	Refunded money.Credits
}

// Profit may be negative when refunds exceed sales.
func (t Totals) Profit() money.Credits {
	return t.Revenue - t.Refunded
}

func (t Totals) Plus(o Totals) Totals {
	return Totals{
		Revenue:  t.Revenue + o.Revenue,
		Refunded: t.Refunded + o.Refunded,
	}
}

// Report is the outcome of one processed day.
type Report struct {
	Day   int
	Total Totals
	Daily Totals
}

// Collector accumulates one day's sales and refunds on top of the totals
// carried over from previous days.
type Collector struct {
	day     int
	carried Totals
	daily   Totals
}

func NewCollector(day int, carried Totals) *Collector {
	return &Collector{day: day, carried: carried}
}

func (c *Collector) Sale(amount money.Credits) {
	c.daily.Revenue += amount
}

func (c *Collector) Refund(amount money.Credits) {
	c.daily.Refunded += amount
}

func (c *Collector) Report() Report {
	return Report{
		Day:   c.day,
		Total: c.carried.Plus(c.daily),
		Daily: c.daily,
	}
}

// WriteText writes the six-line stats file: total profit, revenue and
// refunds, then the same three for the day.
func WriteText(w io.Writer, r Report) error {
	lines := []money.Credits{
		r.Total.Profit(), r.Total.Revenue, r.Total.Refunded,
		r.Daily.Profit(), r.Daily.Revenue, r.Daily.Refunded,
	}

	for _, c := range lines {
		_, err := fmt.Fprintln(w, format(c))
		if err != nil {
			return fmt.Errorf("write stats: %w", err)
		}
	}

	return nil
}

// ReadText reads the running totals back from a stats file. Profit lines are
// derived, so only revenue and refunds are kept.
func ReadText(r io.Reader) (Totals, error) {
	var values []money.Credits

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		c, err := parse(line)
		if err != nil {
			return Totals{}, err
		}

		values = append(values, c)
	}

	err := sc.Err()
	if err != nil {
		return Totals{}, fmt.Errorf("read stats: %w", err)
	}

	if len(values) != 6 {
		return Totals{}, fmt.Errorf("%w: want 6 lines, got %d", ErrMalformed, len(values))
	}

	return Totals{Revenue: values[1], Refunded: values[2]}, nil
}

func format(c money.Credits) string {
	return decimal.New(int64(c), -2).StringFixed(2)
}

func parse(s string) (money.Credits, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformed, s)
	}

	return money.Credits(d.Shift(2).IntPart()), nil
}
