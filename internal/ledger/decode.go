package ledger

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/fastprodman/vapor/internal/money"
)

const (
	reUser     = `(\S.{14})`
	reGame     = `(\S.{24})`
	reOptUser  = `(.{15})`
	reType     = `(AA|FS|BS|SS)`
	reCredit   = `(\d{6})\.(\d{2})`
	rePrice    = `(\d{3})\.(\d{2})`
	reDiscount = `(\d{2})\.(\d{2})`
)

var layoutPatterns = map[layout]*regexp.Regexp{
	layoutXUTC:  compile(reUser, reType, reCredit),
	layoutXUSC:  compile(reUser, reUser, reCredit),
	layoutXISDP: compile(reGame, reUser, reDiscount, rePrice),
	layoutXISU:  compile(reGame, reUser, reUser),
	layoutXIUS:  compile(reGame, reUser, reOptUser),
}

func compile(fields ...string) *regexp.Regexp {
	return regexp.MustCompile(`^\d{2} ` + strings.Join(fields, " ") + `$`)
}

// Decode parses one line produced by Encode. A trailing carriage return is
// ignored so files written on other platforms still parse.
func Decode(line string) (Record, error) {
	line = strings.TrimSuffix(line, "\r")

	if len(line) < 2 {
		return Record{}, fmt.Errorf("%w: %q", ErrInvalidRecord, line)
	}

	n, err := strconv.Atoi(line[:2])
	if err != nil {
		return Record{}, fmt.Errorf("%w: bad code in %q", ErrInvalidRecord, line)
	}

	code := Code(n)
	if !code.Valid() {
		return Record{}, fmt.Errorf("%w: %q: %w", ErrInvalidRecord, line[:2], ErrUnknownCode)
	}

	m := layoutPatterns[code.layout()].FindStringSubmatch(line)
	if m == nil {
		return Record{}, fmt.Errorf("%w: %s layout mismatch in %q", ErrInvalidRecord, code.Name(), line)
	}

	r := Record{Code: code}

	switch code.layout() {
	case layoutXUTC:
		r.User = trim(m[1])
		r.UserType = m[2]
		r.Credit = credits(m[3], m[4])
	case layoutXUSC:
		r.User = trim(m[1])
		r.OtherUser = trim(m[2])
		r.Credit = credits(m[3], m[4])
	case layoutXISDP:
		r.Game = trim(m[1])
		r.User = trim(m[2])
		r.Discount = money.Percent(atoi(m[3])*money.Scale + atoi(m[4]))
		r.Price = credits(m[5], m[6])
	case layoutXISU, layoutXIUS:
		r.Game = trim(m[1])
		r.User = trim(m[2])
		r.OtherUser = trim(m[3])
	}

	return r, nil
}

func trim(s string) string {
	return strings.TrimRight(s, " ")
}

func credits(whole, frac string) money.Credits {
	return money.Credits(atoi(whole)*money.Scale + atoi(frac))
}

// atoi is only called on strings the layout regexp has proven to be digits.
func atoi(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}
