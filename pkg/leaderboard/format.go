package leaderboard

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/ripixel/fitglue-leaderboard/pkg/types"
)

// InvalidDate is shown for timestamps that cannot be parsed.
const InvalidDate = "Invalid Date"

// en-GB abbreviated month names.
var shortMonths = [...]string{
	time.January:   "Jan",
	time.February:  "Feb",
	time.March:     "Mar",
	time.April:     "Apr",
	time.May:       "May",
	time.June:      "Jun",
	time.July:      "Jul",
	time.August:    "Aug",
	time.September: "Sept",
	time.October:   "Oct",
	time.November:  "Nov",
	time.December:  "Dec",
}

// FormatFixed renders v with the given number of decimals. The exact binary
// value is rounded to the nearest decimal and exact halves round up, so
// 0.25 gives "0.3" while 1.45 (stored just below the half) gives "1.4".
func FormatFixed(v float64, digits int) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	}
	if digits < 0 {
		digits = 0
	}

	x := math.Abs(v)
	out := strconv.FormatFloat(x, 'f', digits, 64)

	// FormatFloat breaks exact ties to even; only those need correcting.
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	scaled := new(big.Rat).SetFloat64(x)
	scaled.Mul(scaled, new(big.Rat).SetInt(scale))
	if scaled.Denom().Cmp(big.NewInt(2)) == 0 {
		n := new(big.Int).Quo(scaled.Num(), big.NewInt(2))
		n.Add(n, big.NewInt(1))
		out = insertPoint(n.String(), digits)
	}

	if v < 0 {
		return "-" + out
	}
	return out
}

func insertPoint(intDigits string, digits int) string {
	if digits == 0 {
		return intDigits
	}
	if len(intDigits) <= digits {
		intDigits = strings.Repeat("0", digits-len(intDigits)+1) + intDigits
	}
	cut := len(intDigits) - digits
	return intDigits[:cut] + "." + intDigits[cut:]
}

// FormatDate renders a day as "15 Oct 2026".
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%02d %s %d", t.Day(), shortMonths[t.Month()], t.Year())
}

// FormatClock renders a 24-hour "14:05".
func FormatClock(t time.Time) string {
	return t.Format("15:04")
}

// ParseTimestamp reads a snapshot instant and converts it to loc.
// A bare YYYY-MM-DD is read as that calendar day in loc.
func ParseTimestamp(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if t, err := time.ParseInLocation(types.DateLayout, s, loc); err == nil {
		return t, true
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false
	}
	return t.In(loc), true
}

// LastUpdatedText renders "Last updated: 15 Oct 2026 at 14:05".
func LastUpdatedText(lastUpdated string, loc *time.Location) string {
	t, ok := ParseTimestamp(lastUpdated, loc)
	if !ok {
		return fmt.Sprintf("Last updated: %s at %s", InvalidDate, InvalidDate)
	}
	return fmt.Sprintf("Last updated: %s at %s", FormatDate(t), FormatClock(t))
}

// WeekRangeText renders "Week: 12 Oct 2026 - 18 Oct 2026".
func WeekRangeText(weekStart, weekEnd string, loc *time.Location) string {
	return fmt.Sprintf("Week: %s - %s", dateOrInvalid(weekStart, loc), dateOrInvalid(weekEnd, loc))
}

func dateOrInvalid(s string, loc *time.Location) string {
	t, ok := ParseTimestamp(s, loc)
	if !ok {
		return InvalidDate
	}
	return FormatDate(t)
}
