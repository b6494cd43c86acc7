package engine

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
)

// labelColumn is the width labels are padded to in the default layout.
const labelColumn = 20

// compactUnits maps SI prefixes onto the short-scale suffixes used for ISK,
// smallest first.
var compactUnits = []struct {
	prefix string
	suffix string
}{
	{"", ""},
	{"k", "k"},
	{"M", "m"},
	{"G", "b"},
	{"T", "t"},
}

// Compact formats v with at most one decimal and a k/m/b/t suffix, e.g.
// 950, 1.2k, 3.4m.
func Compact(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}
	if math.Abs(v) < 1000 {
		return oneDecimal(v)
	}

	scaled, prefix := humanize.ComputeSI(v)
	unit := -1
	for i, u := range compactUnits {
		if u.prefix == prefix {
			unit = i
			break
		}
	}
	if unit < 0 {
		// Past tera everything stays in trillions.
		unit = len(compactUnits) - 1
		scaled = v / 1e12
	}

	r := round1(scaled)
	for math.Abs(r) >= 1000 && unit < len(compactUnits)-1 {
		scaled /= 1000
		unit++
		r = round1(scaled)
	}
	return oneDecimal(r) + compactUnits[unit].suffix
}

// ISK formats an amount of in-game currency.
func ISK(v float64) string {
	return Compact(v) + " ISK"
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func oneDecimal(v float64) string {
	r := round1(v)
	if r == 0 {
		return "0" // no "-0"
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}

// FormatDuration renders milliseconds as "[Dd ]HH:MM:SS".
func FormatDuration(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	total := ms / 1000
	days := total / 86400
	hours := (total % 86400) / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	clock := fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	if days > 0 {
		return fmt.Sprintf("%dd %s", days, clock)
	}
	return clock
}

// align lays out one label/value row. The default layout pads the label to
// labelColumn; the mobile layout puts the value on its own line.
func align(label, value string, mobile bool) string {
	if mobile {
		return capitalize(label) + "\n" + value
	}
	pad := labelColumn - utf8.RuneCountInString(label)
	if pad < 0 {
		pad = 0
	}
	return capitalize(label) + strings.Repeat(" ", pad) + value
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
