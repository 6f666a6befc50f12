// Package display holds presentation helpers for CLI output: large
// number abbreviation and countdown formatting.
package display

import (
	"fmt"
	"math"
	"time"

	str2duration "github.com/xhit/go-str2duration/v2"
)

var abbreviations = []struct {
	threshold float64
	suffix    string
}{
	{1e18, "Qi"},
	{1e15, "Qa"},
	{1e12, "T"},
	{1e9, "B"},
	{1e6, "M"},
	{1e3, "K"},
}

// Abbreviate renders a quantity in compact idle-game notation: 1234 →
// "1.23K", 5.6e9 → "5.60B". Values below a thousand print plainly.
func Abbreviate(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	if math.IsInf(v, 1) {
		return "∞"
	}
	if math.IsInf(v, -1) {
		return "-∞"
	}

	sign := ""
	abs := v
	if abs < 0 {
		sign = "-"
		abs = -abs
	}
	for _, a := range abbreviations {
		if abs >= a.threshold {
			return fmt.Sprintf("%s%.2f%s", sign, abs/a.threshold, a.suffix)
		}
	}
	if abs == math.Trunc(abs) {
		return fmt.Sprintf("%s%.0f", sign, abs)
	}
	return fmt.Sprintf("%s%.2f", sign, abs)
}

// Countdown renders a duration as a clock, with a day prefix past 24h:
// "03:04:05", "2d 03:04:05". Negative durations render as zero. Callers
// handle the unaffordable (infinite) case themselves.
func Countdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	days := int(d / (24 * time.Hour))
	d -= time.Duration(days) * 24 * time.Hour
	hours := int(d / time.Hour)
	minutes := int(d/time.Minute) % 60
	seconds := int(d/time.Second) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %02d:%02d:%02d", days, hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}

// CountdownSeconds is Countdown over raw engine seconds; infinite or NaN
// waits render as "never".
func CountdownSeconds(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return "never"
	}
	return Countdown(time.Duration(seconds * float64(time.Second)))
}

// ParseHorizon parses human horizons like "1d12h30m" into a duration.
func ParseHorizon(s string) (time.Duration, error) {
	return str2duration.ParseDuration(s)
}
