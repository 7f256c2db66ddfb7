package domain

import (
	"fmt"
	"regexp"
	"time"
)

// JamType тип джема, к которому привязан обмен
type JamType int

const (
	JamTypeUnspecified JamType = iota
	JamTypeItch
	JamTypeLudumDare
)

// String возвращает строковое представление типа джема
func (j JamType) String() string {
	switch j {
	case JamTypeItch:
		return "itch"
	case JamTypeLudumDare:
		return "ludum_dare"
	default:
		return "unspecified"
	}
}

// DisplayName возвращает название джема для сообщений пользователю
func (j JamType) DisplayName() string {
	switch j {
	case JamTypeItch:
		return "Itch.io"
	case JamTypeLudumDare:
		return "Ludum Dare"
	default:
		return "unspecified"
	}
}

// ParseJamType разбирает строковое представление типа джема
func ParseJamType(s string) (JamType, error) {
	switch s {
	case "itch":
		return JamTypeItch, nil
	case "ludum_dare":
		return JamTypeLudumDare, nil
	default:
		return JamTypeUnspecified, fmt.Errorf("unknown jam type %q", s)
	}
}

// ExchangeState состояние жизненного цикла обмена.
// Переходы между состояниями выполняет только планировщик.
type ExchangeState int

const (
	ExchangeStateUnspecified ExchangeState = iota
	// ExchangeStateNotStartedYet приём заявок ещё не открыт
	ExchangeStateNotStartedYet
	// ExchangeStateAcceptingSubmissions приём заявок открыт
	ExchangeStateAcceptingSubmissions
	// ExchangeStateAssignmentsSent раздача разослана, обмен завершён
	ExchangeStateAssignmentsSent
	// ExchangeStateMissedByBot бот проспал окно обмена
	ExchangeStateMissedByBot
	// ExchangeStateAssignmentError раздача не удалась
	ExchangeStateAssignmentError
)

// String возвращает строковое представление состояния
func (s ExchangeState) String() string {
	switch s {
	case ExchangeStateNotStartedYet:
		return "NotStartedYet"
	case ExchangeStateAcceptingSubmissions:
		return "AcceptingSubmissions"
	case ExchangeStateAssignmentsSent:
		return "AssignmentsSent"
	case ExchangeStateMissedByBot:
		return "MissedByBot"
	case ExchangeStateAssignmentError:
		return "AssignmentError"
	default:
		return "Unspecified"
	}
}

// ParseExchangeState разбирает строковое представление состояния
func ParseExchangeState(s string) (ExchangeState, error) {
	switch s {
	case "NotStartedYet":
		return ExchangeStateNotStartedYet, nil
	case "AcceptingSubmissions":
		return ExchangeStateAcceptingSubmissions, nil
	case "AssignmentsSent":
		return ExchangeStateAssignmentsSent, nil
	case "MissedByBot":
		return ExchangeStateMissedByBot, nil
	case "AssignmentError":
		return ExchangeStateAssignmentError, nil
	default:
		return ExchangeStateUnspecified, fmt.Errorf("unknown exchange state %q", s)
	}
}

// IsTerminal сообщает, что обмен больше не изменит состояния
func (s ExchangeState) IsTerminal() bool {
	switch s {
	case ExchangeStateAssignmentsSent, ExchangeStateMissedByBot, ExchangeStateAssignmentError:
		return true
	default:
		return false
	}
}

// Exchange один запланированный раунд обмена оценками в канале гильдии
type Exchange struct {
	ID               int64
	GuildID          uint64
	ChannelID        uint64
	JamType          JamType
	JamLink          string
	Slug             string
	DisplayName      string
	State            ExchangeState
	SubmissionsStart time.Time
	SubmissionsEnd   time.Time
	GamesPerMember   int32
}

// slugPattern допустимые символы идентификатора обмена
var slugPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidSlug проверяет, что строка годится в качестве slug обмена
func ValidSlug(s string) bool {
	return slugPattern.MatchString(s)
}

// Validate проверяет корректность параметров обмена
func (e *Exchange) Validate() []error {
	var errs []error

	if !ValidSlug(e.Slug) {
		errs = append(errs, fmt.Errorf("slug %q contains characters outside [A-Za-z0-9_-]", e.Slug))
	}
	if e.DisplayName == "" {
		errs = append(errs, fmt.Errorf("display name is empty"))
	}
	if e.JamType != JamTypeItch && e.JamType != JamTypeLudumDare {
		errs = append(errs, fmt.Errorf("jam type is not set"))
	}
	if e.JamLink == "" {
		errs = append(errs, fmt.Errorf("jam link is empty"))
	}
	if !e.SubmissionsEnd.After(e.SubmissionsStart) {
		errs = append(errs, fmt.Errorf("submissions end %s is not after start %s",
			e.SubmissionsEnd.Format(time.RFC3339), e.SubmissionsStart.Format(time.RFC3339)))
	}
	if e.GamesPerMember < MinGamesPerMember || e.GamesPerMember > MaxGamesPerMember {
		errs = append(errs, fmt.Errorf("games per member %d out of range [%d, %d]",
			e.GamesPerMember, MinGamesPerMember, MaxGamesPerMember))
	}

	return errs
}

// IsDeletable сообщает, можно ли ещё удалить обмен.
// Удаление разрешено только до открытия приёма заявок.
func (e *Exchange) IsDeletable() bool {
	return e.State == ExchangeStateNotStartedYet
}

// AcceptsSubmissions сообщает, принимает ли обмен заявки
func (e *Exchange) AcceptsSubmissions() bool {
	return e.State == ExchangeStateAcceptingSubmissions
}
