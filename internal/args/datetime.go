// Package args разбирает аргументы слэш-команд, которые Discord
// передаёт строками: дату-время в свободной форме, длительность и
// идентификатор обмена. Все ошибки разбора — пользовательские, с
// примерами правильного ввода.
package args

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"ratex/pkg/apperror"
)

const (
	dateTimeExample1 = "2023-06-24 15:33:40 UTC+7"
	dateTimeExample2 = "15:33 UTC"
)

var (
	datePattern   = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
	timePattern   = regexp.MustCompile(`^(\d{2}):(\d{2})(:(\d{2}))?$`)
	offsetPattern = regexp.MustCompile(`^UTC(([+-])(\d{1,2})(:(\d{2}))?)?$`)
)

func invalidDateTime(format string, a ...any) error {
	msg := fmt.Sprintf(format, a...)
	return apperror.NewUser(apperror.CodeInvalidDateTime,
		fmt.Sprintf("%s\nDatetime examples: `%s`, `%s`.", msg, dateTimeExample1, dateTimeExample2))
}

// HumanDateTime дата и/или время с обязательным смещением UTC.
// Дата и время независимы: "15:33 UTC" означает ближайшие 15:33,
// "1987-02-18 UTC" — тот же час, что у базового момента.
type HumanDateTime struct {
	hasDate bool
	year    int
	month   time.Month
	day     int

	hasTime bool
	hour    int
	minute  int
	second  int

	// offsetSeconds смещение к востоку от UTC
	offsetSeconds int
}

// ParseHumanDateTime разбирает дату-время из свободной формы: токены
// через пробел, каждый — дата YYYY-MM-DD, время HH:MM[:SS] или
// смещение UTC[±H[:MM]]. Смещение обязательно, дата или время — хотя
// бы одно из двух.
func ParseHumanDateTime(s string) (*HumanDateTime, error) {
	var parsed HumanDateTime
	hasOffset := false

	for _, token := range strings.Fields(s) {
		switch {
		case datePattern.MatchString(token):
			if parsed.hasDate {
				return nil, invalidDateTime("Duplicate date: `%s`.", token)
			}
			m := datePattern.FindStringSubmatch(token)
			year, _ := strconv.Atoi(m[1])
			month, _ := strconv.Atoi(m[2])
			day, _ := strconv.Atoi(m[3])

			if month < 1 || month > 12 {
				return nil, invalidDateTime("Invalid month: `%s`.", m[2])
			}
			if !validCalendarDate(year, time.Month(month), day) {
				return nil, invalidDateTime("Invalid date: `%s`.", token)
			}

			parsed.hasDate = true
			parsed.year = year
			parsed.month = time.Month(month)
			parsed.day = day

		case timePattern.MatchString(token):
			if parsed.hasTime {
				return nil, invalidDateTime("Duplicate time: `%s`.", token)
			}
			m := timePattern.FindStringSubmatch(token)
			hour, _ := strconv.Atoi(m[1])
			minute, _ := strconv.Atoi(m[2])
			second := 0
			if m[4] != "" {
				second, _ = strconv.Atoi(m[4])
			}

			if hour > 23 || minute > 59 || second > 59 {
				return nil, invalidDateTime("Invalid time: `%s`.", token)
			}

			parsed.hasTime = true
			parsed.hour = hour
			parsed.minute = minute
			parsed.second = second

		case offsetPattern.MatchString(token):
			if hasOffset {
				return nil, invalidDateTime("Duplicate UTC offset: `%s`.", token)
			}
			m := offsetPattern.FindStringSubmatch(token)

			if m[1] == "" {
				hasOffset = true
				parsed.offsetSeconds = 0
				continue
			}

			hour, _ := strconv.Atoi(m[3])
			minute := 0
			if m[5] != "" {
				minute, _ = strconv.Atoi(m[5])
			}
			if hour > 25 || minute > 59 {
				return nil, invalidDateTime("Invalid UTC offset: `%s`.", token)
			}

			sign := 1
			if m[2] == "-" {
				sign = -1
			}

			hasOffset = true
			parsed.offsetSeconds = sign * (hour*3600 + minute*60)

		default:
			return nil, invalidDateTime("Invalid token: `%s`.", token)
		}
	}

	if !hasOffset {
		return nil, invalidDateTime("No UTC offset is provided.")
	}
	if !parsed.hasDate && !parsed.hasTime {
		return nil, invalidDateTime("Neither date nor time is provided.")
	}

	return &parsed, nil
}

// Resolve применяет разобранные дату и время к базовому моменту и
// возвращает результат в UTC. Дата без времени сохраняет часы базового
// момента в указанном поясе; время без даты означает ближайшее будущее
// вхождение этого времени.
func (d *HumanDateTime) Resolve(base time.Time) time.Time {
	loc := d.location()
	local := base.In(loc)

	switch {
	case d.hasDate && d.hasTime:
		return time.Date(d.year, d.month, d.day, d.hour, d.minute, d.second, 0, loc).UTC()

	case d.hasDate:
		hour, minute, second := local.Clock()
		return time.Date(d.year, d.month, d.day, hour, minute, second, local.Nanosecond(), loc).UTC()

	default:
		if !d.afterClockOf(local) {
			local = local.AddDate(0, 0, 1)
		}
		year, month, day := local.Date()
		return time.Date(year, month, day, d.hour, d.minute, d.second, 0, loc).UTC()
	}
}

// afterClockOf сообщает, что разобранное время строго позже часов
// момента t. При равенстве секунд момент t считается более поздним.
func (d *HumanDateTime) afterClockOf(t time.Time) bool {
	hour, minute, second := t.Clock()
	mine := d.hour*3600 + d.minute*60 + d.second
	theirs := hour*3600 + minute*60 + second
	return mine > theirs
}

func (d *HumanDateTime) location() *time.Location {
	if d.offsetSeconds == 0 {
		return time.UTC
	}

	sign := "+"
	secs := d.offsetSeconds
	if secs < 0 {
		sign = "-"
		secs = -secs
	}

	name := fmt.Sprintf("UTC%s%d", sign, secs/3600)
	if secs%3600 != 0 {
		name = fmt.Sprintf("UTC%s%d:%02d", sign, secs/3600, (secs%3600)/60)
	}
	return time.FixedZone(name, d.offsetSeconds)
}

func validCalendarDate(year int, month time.Month, day int) bool {
	if day < 1 {
		return false
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	y, m, dd := t.Date()
	return y == year && m == month && dd == day
}
