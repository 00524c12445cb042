package ledger

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/fastprodman/vapor/internal/money"
)

const (
	creditWholeMax   = 999_999
	priceWholeMax    = 999
	discountWholeMax = 99
)

var userTypes = map[string]struct{}{"AA": {}, "FS": {}, "BS": {}, "SS": {}}

// ValidName reports whether s can be written into a name field of width
// characters without truncation and read back unchanged.
func ValidName(s string, width int) bool {
	n := utf8.RuneCountInString(s)
	if n == 0 || n > width {
		return false
	}

	if strings.TrimSpace(s) != s {
		return false
	}

	return !strings.ContainsAny(s, "\r\n")
}

// Encode renders r as a single line without the trailing newline.
func Encode(r Record) (string, error) {
	if !r.Code.Valid() {
		return "", fmt.Errorf("encode %d: %w", int(r.Code), ErrUnknownCode)
	}

	var (
		fields []string
		err    error
	)

	switch r.Code.layout() {
	case layoutXUTC:
		fields, err = join(
			name(r.User, UsernameWidth),
			userType(r.UserType),
			credit(r.Credit),
		)
	case layoutXUSC:
		fields, err = join(
			name(r.User, UsernameWidth),
			name(r.OtherUser, UsernameWidth),
			credit(r.Credit),
		)
	case layoutXISDP:
		fields, err = join(
			name(r.Game, GameWidth),
			name(r.User, UsernameWidth),
			discount(r.Discount),
			price(r.Price),
		)
	case layoutXISU:
		fields, err = join(
			name(r.Game, GameWidth),
			name(r.User, UsernameWidth),
			name(r.OtherUser, UsernameWidth),
		)
	case layoutXIUS:
		fields, err = join(
			name(r.Game, GameWidth),
			name(r.User, UsernameWidth),
			optionalName(r.OtherUser, UsernameWidth),
		)
	}

	if err != nil {
		return "", fmt.Errorf("encode %s record: %w", r.Code.Name(), err)
	}

	return r.Code.String() + " " + strings.Join(fields, " "), nil
}

type fieldFn func() (string, error)

func join(fns ...fieldFn) ([]string, error) {
	out := make([]string, 0, len(fns))

	for _, fn := range fns {
		s, err := fn()
		if err != nil {
			return nil, err
		}

		out = append(out, s)
	}

	return out, nil
}

func name(s string, width int) fieldFn {
	return func() (string, error) {
		if !ValidName(s, width) {
			return "", fmt.Errorf("name %q (width %d): %w", s, width, ErrFieldOverflow)
		}

		return fmt.Sprintf("%-*s", width, s), nil
	}
}

func optionalName(s string, width int) fieldFn {
	if s == "" {
		return func() (string, error) { return strings.Repeat(" ", width), nil }
	}

	return name(s, width)
}

func userType(t string) fieldFn {
	return func() (string, error) {
		if _, ok := userTypes[t]; !ok {
			return "", fmt.Errorf("user type %q: %w", t, ErrFieldOverflow)
		}

		return t, nil
	}
}

// credit renders CCCCCCCCC: six integral digits, a point and two decimals.
func credit(c money.Credits) fieldFn {
	return func() (string, error) {
		if c < 0 || c.Whole() > creditWholeMax {
			return "", fmt.Errorf("credit %s: %w", c, ErrFieldOverflow)
		}

		return fmt.Sprintf("%06d.%02d", c.Whole(), c.Frac()), nil
	}
}

// price renders PPPPPP: three integral digits, a point and two decimals.
func price(c money.Credits) fieldFn {
	return func() (string, error) {
		if c < 0 || c.Whole() > priceWholeMax {
			return "", fmt.Errorf("price %s: %w", c, ErrFieldOverflow)
		}

		return fmt.Sprintf("%03d.%02d", c.Whole(), c.Frac()), nil
	}
}

// discount renders DDDDD: two integral digits, a point and two decimals.
func discount(p money.Percent) fieldFn {
	return func() (string, error) {
		if p < 0 || p.Whole() > discountWholeMax {
			return "", fmt.Errorf("discount %s: %w", p, ErrFieldOverflow)
		}

		return fmt.Sprintf("%02d.%02d", p.Whole(), p.Frac()), nil
	}
}
