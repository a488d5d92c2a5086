// Package kibi formats and parses byte sizes with binary (1024) multipliers.
// The save pipeline's chunk budget is configured with strings like "50mb".
package kibi

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var digitRegex = regexp.MustCompile(`\d+`)
var ErrInvalidByteSizeString = fmt.Errorf("Invalid byte size string")

func FormatBytes(b int64) string {
	switch {
	case b < 1024:
		return fmt.Sprintf("%v bytes", b)
	case b < 1024*1024:
		return fmt.Sprintf("%v KB", b/1024)
	case b < 1024*1024*1024:
		return fmt.Sprintf("%v MB", b/(1024*1024))
	case b < 1024*1024*1024*1024:
		return fmt.Sprintf("%v GB", b/(1024*1024*1024))
	case b < 1024*1024*1024*1024*1024:
		return fmt.Sprintf("%v TB", b/(1024*1024*1024*1024))
	default:
		return fmt.Sprintf("%v PB", b/(1024*1024*1024*1024*1024))
	}
}

// ParseBytes accepts "123", "123 kb", "123K", "50mb", "2 GB", etc.
// Suffixes may be the full two-letter form or just the first letter,
// in any case.
func ParseBytes(v string) (int64, error) {
	v = strings.TrimSpace(strings.ToLower(v))
	digits := digitRegex.FindString(v)
	if digits == "" || !strings.HasPrefix(v, digits) {
		return 0, ErrInvalidByteSizeString
	}
	suffix := strings.TrimSpace(v[len(digits):])
	multiplier := int64(1)
	switch suffix {
	case "", "bytes":
	case "kb", "k":
		multiplier = 1024
	case "mb", "m":
		multiplier = 1024 * 1024
	case "gb", "g":
		multiplier = 1024 * 1024 * 1024
	case "tb", "t":
		multiplier = 1024 * 1024 * 1024 * 1024
	case "pb", "p":
		multiplier = 1024 * 1024 * 1024 * 1024 * 1024
	default:
		return 0, ErrInvalidByteSizeString
	}
	value, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, err
	}
	return value * multiplier, nil
}
