package domain

import "time"

// Submission заявка участника на обмен
type Submission struct {
	ID          int64
	ExchangeID  int64
	Link        string
	Submitter   uint64
	SubmittedAt time.Time
}

// PlayedGame отметка «уже играл»: такие ссылки не попадают участнику
// в раздачу. IsManual=true для отметок, сделанных командой, false для
// выведенных системой.
type PlayedGame struct {
	ID       int64
	Member   uint64
	Link     string
	IsManual bool
}

// PlayedSet индекс сыгранных игр: участник -> множество ссылок
type PlayedSet map[uint64]map[string]struct{}

// NewPlayedSet строит индекс по списку отметок
func NewPlayedSet(games []PlayedGame) PlayedSet {
	set := make(PlayedSet, len(games))
	for _, g := range games {
		links, ok := set[g.Member]
		if !ok {
			links = make(map[string]struct{})
			set[g.Member] = links
		}
		links[g.Link] = struct{}{}
	}
	return set
}

// Contains проверяет, играл ли участник по данной ссылке
func (p PlayedSet) Contains(member uint64, link string) bool {
	links, ok := p[member]
	if !ok {
		return false
	}
	_, ok = links[link]
	return ok
}
