package core

// convert.go turns raw cell text into typed values.
//
// Amount columns accept either a period or a comma as the decimal
// separator ("12.50" and "12,50" are equal), an optional exponent
// ("1e5", "2,5E-3") and the special values nan, inf and infinity in any
// case with an optional sign. Thousands separators, digit-group
// underscores and currency symbols are not accepted.

import (
	"errors"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
)

// NormalizeDecimal trims surrounding whitespace and converts a decimal comma
// to a decimal point.
func NormalizeDecimal(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
}

// ToNumeric converts a cell to pgtype.Numeric.
// Returns Valid=false for empty or unparseable input.
func ToNumeric(s string) pgtype.Numeric {
	s = NormalizeDecimal(s)
	if s == "" {
		return pgtype.Numeric{}
	}
	if n, ok := specialNumeric(s); ok {
		return n
	}

	mantissa, exp, hasExp := s, "", false
	if i := strings.IndexAny(s, "eE"); i >= 0 {
		mantissa, exp, hasExp = s[:i], s[i+1:], true
	}

	var n pgtype.Numeric
	if err := n.Scan(mantissa); err != nil {
		return pgtype.Numeric{}
	}
	// Scan maps a few literal spellings to special values; those are only
	// valid as a whole cell.
	if !n.Valid || n.NaN || n.InfinityModifier != pgtype.Finite {
		return pgtype.Numeric{}
	}

	if hasExp {
		return applyExponent(n, exp)
	}
	return n
}

// specialNumeric recognizes signed nan, inf and infinity in any case.
func specialNumeric(s string) (pgtype.Numeric, bool) {
	neg := false
	switch s[0] {
	case '+':
		s = s[1:]
	case '-':
		s, neg = s[1:], true
	}

	switch strings.ToLower(s) {
	case "nan":
		return pgtype.Numeric{NaN: true, Valid: true}, true
	case "inf", "infinity":
		if neg {
			return pgtype.Numeric{InfinityModifier: pgtype.NegativeInfinity, Valid: true}, true
		}
		return pgtype.Numeric{InfinityModifier: pgtype.Infinity, Valid: true}, true
	}
	return pgtype.Numeric{}, false
}

// applyExponent shifts n by a decimal exponent. Exponents beyond the int32
// range of pgtype.Numeric overflow to infinity or underflow to zero.
func applyExponent(n pgtype.Numeric, exp string) pgtype.Numeric {
	e, err := strconv.ParseInt(exp, 10, 32)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return pgtype.Numeric{}
	}

	shifted := int64(n.Exp) + e
	if err == nil && shifted >= math.MinInt32 && shifted <= math.MaxInt32 {
		n.Exp = int32(shifted)
		return n
	}

	switch {
	case n.Int.Sign() == 0 || e < 0:
		return pgtype.Numeric{Int: new(big.Int), Valid: true}
	case n.Int.Sign() > 0:
		return pgtype.Numeric{InfinityModifier: pgtype.Infinity, Valid: true}
	default:
		return pgtype.Numeric{InfinityModifier: pgtype.NegativeInfinity, Valid: true}
	}
}
