// Package jam нормализует ссылки джем-площадок. Каждый тип джема задаёт
// форму ссылки на сам джем и форму ссылки на заявку внутри него; всё,
// что не подошло под форму, отклоняется до записи в базу.
package jam

import (
	"regexp"
	"strings"

	"ratex/pkg/domain"
)

var (
	itchJamPattern      = regexp.MustCompile(`^(https://itch\.io/jam/[a-z0-9_-]+)/?$`)
	ludumDareJamPattern = regexp.MustCompile(`^(https://ldjam\.com/events/ludum-dare/[0-9]+)/?$`)

	itchEntryTailPattern      = regexp.MustCompile(`/rate/([0-9]+)/?`)
	ludumDareEntryTailPattern = regexp.MustCompile(`/([a-z0-9-]+)/?`)
)

// ludumDarePages служебные страницы джема, совпадающие по форме со
// ссылкой на заявку.
var ludumDarePages = map[string]struct{}{
	"results": {},
	"games":   {},
	"theme":   {},
	"stats":   {},
}

// JamLinkExample возвращает образец ссылки на джем для сообщений об ошибке
func JamLinkExample(jt domain.JamType) string {
	switch jt {
	case domain.JamTypeLudumDare:
		return "https://ldjam.com/events/ludum-dare/123456"
	default:
		return "https://itch.io/jam/example-jam"
	}
}

// EntryLinkExample возвращает образец ссылки на заявку внутри джема
func EntryLinkExample(jt domain.JamType, jamLink string) string {
	switch jt {
	case domain.JamTypeLudumDare:
		return jamLink + "/example-game"
	default:
		return jamLink + "/rate/123456"
	}
}

// NormalizeJamLink приводит ссылку на джем к канонической форме без
// замыкающего слэша. Возвращает false, если ссылка не похожа на джем
// данного типа.
func NormalizeJamLink(jt domain.JamType, link string) (string, bool) {
	var pattern *regexp.Regexp
	switch jt {
	case domain.JamTypeItch:
		pattern = itchJamPattern
	case domain.JamTypeLudumDare:
		pattern = ludumDareJamPattern
	default:
		return "", false
	}

	m := pattern.FindStringSubmatch(link)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// NormalizeEntryLink приводит ссылку на заявку к канонической форме
// {jamLink}/rate/{id} либо {jamLink}/{slug}. Ссылка обязана лежать
// внутри джема jamLink; служебные страницы LD заявками не считаются.
func NormalizeEntryLink(jt domain.JamType, jamLink, entryLink string) (string, bool) {
	tail, found := strings.CutPrefix(entryLink, jamLink)
	if !found {
		return "", false
	}

	switch jt {
	case domain.JamTypeItch:
		m := itchEntryTailPattern.FindStringSubmatch(tail)
		if m == nil {
			return "", false
		}
		return jamLink + "/rate/" + m[1], true

	case domain.JamTypeLudumDare:
		m := ludumDareEntryTailPattern.FindStringSubmatch(tail)
		if m == nil {
			return "", false
		}
		slug := m[1]
		if _, page := ludumDarePages[slug]; page || slug == "" {
			return "", false
		}
		return jamLink + "/" + slug, true

	default:
		return "", false
	}
}

// Ссылки на заявки без привязки к конкретному джему: форма проверяется
// целиком, от схемы до хвоста.
var (
	itchEntryPattern      = regexp.MustCompile(`^https://itch\.io/jam/[a-z0-9_-]+/rate/[0-9]+/?$`)
	ludumDareEntryPattern = regexp.MustCompile(`^https://ldjam\.com/events/ludum-dare/[0-9]+/([a-z0-9-]+)/?$`)
)

// ValidEntryLink проверяет, похожа ли ссылка на заявку хоть одного из
// известных джемов. Используется командой /played, где джем заранее
// неизвестен.
func ValidEntryLink(link string) bool {
	if itchEntryPattern.MatchString(link) {
		return true
	}
	m := ludumDareEntryPattern.FindStringSubmatch(link)
	if m == nil {
		return false
	}
	_, page := ludumDarePages[m[1]]
	return !page
}
