package args

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/mozillazg/go-unidecode"

	"ratex/pkg/apperror"
)

// ParseExchangeSlug снимает пробелы по краям и проверяет, что slug
// состоит только из букв, цифр, дефиса и подчёркивания.
func ParseExchangeSlug(s string) (string, error) {
	s = strings.TrimSpace(s)

	for _, c := range s {
		if !isASCIIAlnum(c) && c != '-' && c != '_' {
			return "", apperror.NewUserf(apperror.CodeInvalidSlug,
				"Invalid exchange slug: `%s`.\nIt can only contain a-z, A-Z, 0-9, a dash (-) or an underscore (_).",
				escapeString(s))
		}
	}

	return s, nil
}

// SlugifyCamel собирает slug из отображаемого имени: не-ASCII символы
// транслитерируются, всё кроме букв и цифр выбрасывается и служит
// границей слова, первая строчная буква каждого слова поднимается в
// верхний регистр.
func SlugifyCamel(s string) string {
	var slug strings.Builder
	slug.Grow(len(s))

	startOfWord := false
	add := func(c byte) {
		switch {
		case c >= '0' && c <= '9' || c >= 'A' && c <= 'Z':
			slug.WriteByte(c)
		case c >= 'a' && c <= 'z':
			if startOfWord {
				slug.WriteByte(c - 'a' + 'A')
			} else {
				slug.WriteByte(c)
			}
		}
		startOfWord = !isASCIIAlnumByte(c)
	}

	for _, r := range s {
		if r < utf8.RuneSelf {
			add(byte(r))
			continue
		}
		for _, t := range unidecode.Unidecode(string(r)) {
			if t < utf8.RuneSelf {
				add(byte(t))
			}
		}
	}

	return slug.String()
}

func isASCIIAlnumByte(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

// escapeString экранирует строку для сообщения об ошибке
func escapeString(s string) string {
	quoted := strconv.Quote(s)
	return quoted[1 : len(quoted)-1]
}
