package roster

import (
	"fmt"
	"strconv"
	"strings"
)

// WeekSet is the result of parsing a week specification.
type WeekSet struct {
	// Weeks in input order, ranges expanded ascending. Duplicates are kept.
	Weeks []uint32
	// Warnings holds one message per malformed token, in input order.
	Warnings []string
}

// ParseWeeks parses a comma-separated week specification such as
// "1,3-5,10" into concrete week numbers.
//
//   - Tokens are trimmed; a token containing '-' is an inclusive range split
//     on its first '-'.
//   - A range whose start is greater than its end contributes no weeks.
//   - Malformed tokens are skipped and reported in Warnings.
//   - No bounds are applied; week 0 is accepted.
func ParseWeeks(spec string) WeekSet {
	var out WeekSet

	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)

		if lo, hi, ok := strings.Cut(part, "-"); ok {
			start, serr := parseWeek(lo)
			end, eerr := parseWeek(hi)
			if serr != nil || eerr != nil {
				out.Warnings = append(out.Warnings, fmt.Sprintf("invalid week range: %s", part))
				continue
			}
			out.Weeks = appendRange(out.Weeks, start, end)
			continue
		}

		week, err := parseWeek(part)
		if err != nil {
			out.Warnings = append(out.Warnings, fmt.Sprintf("invalid week number: %s", part))
			continue
		}
		out.Weeks = append(out.Weeks, week)
	}

	return out
}

func parseWeek(s string) (uint32, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(n), nil
}

// appendRange appends start..end inclusive. Reversed ranges append nothing.
func appendRange(dst []uint32, start, end uint32) []uint32 {
	if start > end {
		return dst
	}
	for w := start; ; w++ {
		dst = append(dst, w)
		if w == end {
			break
		}
	}
	return dst
}
