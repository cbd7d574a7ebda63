// Package formatting converts byte sizes between config strings such as
// "4MB" and counts.
package formatting

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Sizes are base-1024. EB is the largest unit an int64 can hold.
var units = []string{"B", "KB", "MB", "GB", "TB", "PB", "EB"}

// FormatBytes renders n with the largest unit that keeps the value at or
// above one. Negative precision is treated as zero.
func FormatBytes(n int64, precision int) string {
	sign, mag := "", uint64(n)
	if n < 0 {
		sign, mag = "-", -uint64(n)
	}
	precision = max(precision, 0)

	size := float64(mag)
	i := 0
	for size >= 1024 && i < len(units)-1 {
		size /= 1024
		i++
	}
	if i == 0 {
		return sign + strconv.FormatUint(mag, 10) + " B"
	}
	return sign + strconv.FormatFloat(size, 'f', precision, 64) + " " + units[i]
}

// ParseBytes reads "50MB", "50 mb", "1.5GiB" or a bare byte count.
func ParseBytes(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty byte size")
	}

	split := strings.IndexFunc(s, func(r rune) bool {
		return (r < '0' || r > '9') && r != '.'
	})
	if split == -1 {
		split = len(s)
	}
	number, unit := s[:split], strings.ToUpper(strings.TrimSpace(s[split:]))
	if number == "" {
		return 0, fmt.Errorf("invalid byte size: %q", s)
	}

	value, err := strconv.ParseFloat(number, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid byte size %q: %w", s, err)
	}

	if len(unit) == 3 && strings.HasSuffix(unit, "IB") {
		unit = unit[:1] + "B"
	}
	if unit == "" {
		unit = "B"
	}
	exp := slices.Index(units, unit)
	if exp == -1 {
		return 0, fmt.Errorf("unknown byte size unit: %q", unit)
	}

	total := value * math.Pow(1024, float64(exp))
	if total >= math.MaxInt64 {
		return 0, fmt.Errorf("byte size %q overflows int64", s)
	}
	return int64(total), nil
}
