package args

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"ratex/pkg/apperror"
)

const (
	durationExample1 = "1 day 3 hours 2 minutes 59 seconds"
	durationExample2 = "1d 3h 2m 59s"
)

func invalidDuration(format string, a ...any) error {
	msg := fmt.Sprintf(format, a...)
	return apperror.NewUser(apperror.CodeInvalidDuration,
		fmt.Sprintf("%s\nDuration examples: `%s`, `%s`.", msg, durationExample1, durationExample2))
}

// ParseHumanDuration разбирает длительность в свободной форме: пары
// «число единица», где единица — любой непустой префикс слов days,
// hours, minutes, seconds. Пробел между числом и единицей не обязателен.
func ParseHumanDuration(s string) (time.Duration, error) {
	for _, c := range s {
		if !isASCIIAlnum(c) && !isASCIISpace(c) {
			return 0, invalidDuration("Invalid character in duration: `%s`.", escapeRune(c))
		}
	}

	s = strings.ToLower(s)

	var tokens []string
	for _, field := range strings.Fields(s) {
		if split := strings.IndexFunc(field, func(r rune) bool { return r < '0' || r > '9' }); split > 0 {
			tokens = append(tokens, field[:split], field[split:])
		} else {
			tokens = append(tokens, field)
		}
	}

	var total time.Duration
	for i := 0; i < len(tokens); i += 2 {
		if i+1 >= len(tokens) {
			return 0, invalidDuration("Unexpected end of duration.")
		}

		count, err := strconv.ParseUint(tokens[i], 10, 32)
		if err != nil {
			return 0, invalidDuration("Expected a number, got `%s`.", tokens[i])
		}

		unit := tokens[i+1]
		switch {
		case strings.HasPrefix("days", unit):
			total += time.Duration(count) * 24 * time.Hour
		case strings.HasPrefix("hours", unit):
			total += time.Duration(count) * time.Hour
		case strings.HasPrefix("minutes", unit):
			total += time.Duration(count) * time.Minute
		case strings.HasPrefix("seconds", unit):
			total += time.Duration(count) * time.Second
		default:
			return 0, invalidDuration("Unknown time unit: `%s`.", unit)
		}
	}

	return total, nil
}

func isASCIIAlnum(r rune) bool {
	return r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z'
}

func isASCIISpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

// escapeRune экранирует символ для сообщения об ошибке
func escapeRune(r rune) string {
	quoted := strconv.QuoteRune(r)
	return quoted[1 : len(quoted)-1]
}
