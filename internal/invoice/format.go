package invoice

import (
	"strconv"
	"strings"
	"time"

	"freelancedesk/internal/core"
)

// DateLayout renders invoice dates as "Mar 05, 2024".
const DateLayout = "Jan 02, 2006"

// FormatAmount renders m with symbol and comma thousands separators,
// e.g. "$12,345.60".
func FormatAmount(symbol string, m core.Money) string {
	cents := m.Cents
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	whole := strconv.FormatInt(cents/100, 10)
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	frac := cents % 100
	fs := strconv.FormatInt(frac, 10)
	if frac < 10 {
		fs = "0" + fs
	}
	return sign + symbol + b.String() + "." + fs
}

// FormatDate renders t with DateLayout; zero times render empty.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}
