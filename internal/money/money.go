// Package money holds the fixed-point amounts used across the marketplace.
//
// Credits count hundredths of a credit (scale 2) and Percent counts hundredths
// of a percent. Neither type is ever clamped: arithmetic that would leave the
// allowed range returns an error instead.
package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	// Scale is the number of Credits in one whole credit.
	Scale = 100

	// MaxBalance is the largest balance an account may hold (999999.99).
	MaxBalance Credits = 99_999_999

	// DailyCreditLimit is how much a user may deposit per day (1000.00).
	DailyCreditLimit Credits = 100_000

	// MaxPrice is the largest listing price (999.99).
	MaxPrice Credits = 99_999

	// MaxDiscount is the largest auction discount (99.99%).
	MaxDiscount Percent = 9_999
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrOverflow      = errors.New("amount exceeds maximum balance")
	ErrInsufficient  = errors.New("insufficient credits")
)

// Credits is an amount in hundredths of a credit.
type Credits int64

var hundred = decimal.NewFromInt(Scale)

// Parse converts a decimal string such as "12", "12.5" or "12.50" to Credits.
// More than two fractional digits, negative values and values above
// MaxBalance are rejected.
func Parse(s string) (Credits, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	if d.IsNegative() {
		return 0, fmt.Errorf("%w: %q is negative", ErrInvalidAmount, s)
	}

	if d.Exponent() < -2 {
		return 0, fmt.Errorf("%w: %q has more than two decimals", ErrInvalidAmount, s)
	}

	minor := d.Mul(hundred)
	if minor.GreaterThan(decimal.NewFromInt(int64(MaxBalance))) {
		return 0, fmt.Errorf("%w: %q", ErrOverflow, s)
	}

	return Credits(minor.IntPart()), nil
}

// Add returns c+o, or ErrOverflow when the sum exceeds MaxBalance.
func (c Credits) Add(o Credits) (Credits, error) {
	if o < 0 {
		return c, fmt.Errorf("%w: negative addend", ErrInvalidAmount)
	}

	if o > MaxBalance-c {
		return c, fmt.Errorf("add %s to %s: %w", o, c, ErrOverflow)
	}

	return c + o, nil
}

// Sub returns c-o, or ErrInsufficient when o is larger than c.
func (c Credits) Sub(o Credits) (Credits, error) {
	if o < 0 {
		return c, fmt.Errorf("%w: negative subtrahend", ErrInvalidAmount)
	}

	if o > c {
		return c, fmt.Errorf("subtract %s from %s: %w", o, c, ErrInsufficient)
	}

	return c - o, nil
}

// Whole and Frac split c into its integral and fractional parts.
func (c Credits) Whole() int64 { return int64(c) / Scale }
func (c Credits) Frac() int64  { return int64(c) % Scale }

func (c Credits) String() string {
	return fmt.Sprintf("%d.%02d", c.Whole(), c.Frac())
}

// Float is used for reporting only.
func (c Credits) Float() float64 {
	return float64(c) / Scale
}

// Percent is a percentage in hundredths of a percent.
type Percent int64

// ParsePercent converts a decimal string such as "15" or "12.50" to Percent.
func ParsePercent(s string) (Percent, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	return percentFromDecimal(d, s)
}

// PercentFromFloat converts a JSON-style number of percent. Like ParsePercent
// it rejects values with more than two decimals rather than rounding them.
func PercentFromFloat(f float64) (Percent, error) {
	d := decimal.NewFromFloat(f)
	if !d.Equal(d.Round(2)) {
		return 0, fmt.Errorf("%w: discount %q has more than two decimals", ErrInvalidAmount, d.String())
	}

	return percentFromDecimal(d, d.String())
}

func percentFromDecimal(d decimal.Decimal, raw string) (Percent, error) {
	if d.IsNegative() {
		return 0, fmt.Errorf("%w: discount %q is negative", ErrInvalidAmount, raw)
	}

	if d.Exponent() < -2 {
		return 0, fmt.Errorf("%w: discount %q has more than two decimals", ErrInvalidAmount, raw)
	}

	p := Percent(d.Mul(hundred).IntPart())
	if p > MaxDiscount {
		return 0, fmt.Errorf("%w: discount %q above %s", ErrInvalidAmount, raw, MaxDiscount)
	}

	return p, nil
}

// Of returns the discount p applied to c, truncated toward zero.
func (p Percent) Of(c Credits) Credits {
	return Credits(int64(c) * int64(p) / (100 * Scale))
}

func (p Percent) Whole() int64 { return int64(p) / Scale }
func (p Percent) Frac() int64  { return int64(p) % Scale }

func (p Percent) String() string {
	return fmt.Sprintf("%d.%02d", p.Whole(), p.Frac())
}

func (p Percent) Float() float64 {
	return float64(p) / Scale
}
