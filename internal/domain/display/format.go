// Package display holds the presentation helpers consumed by dashboards:
// compact number formatting and level colour tokens. Nothing here panics.
package display

import "strconv"

const (
	thousand = 1_000
	million  = 1_000_000
)

// FormatNumber renders counts >= 1,000 as "45.3K" or "1.2M" with one decimal,
// rounding half up. Smaller counts are printed in full.
func FormatNumber(n int64) string {
	if n < 0 {
		// two's complement magnitude keeps math.MinInt64 safe
		return "-" + formatMagnitude(uint64(^n)+1)
	}
	return formatMagnitude(uint64(n))
}

func formatMagnitude(u uint64) string {
	switch {
	case u >= million:
		return tenths(u, million) + "M"
	case u >= thousand:
		return tenths(u, thousand) + "K"
	default:
		return strconv.FormatUint(u, 10)
	}
}

// tenths divides u by unit and formats the quotient with one decimal place.
// Integer arithmetic only, so there is no float rounding ambiguity.
func tenths(u, unit uint64) string {
	q, r := u/unit, u%unit
	t := q*10 + (r*10+unit/2)/unit
	return strconv.FormatUint(t/10, 10) + "." + strconv.FormatUint(t%10, 10)
}
