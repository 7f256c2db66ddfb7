// Package repository хранит обмены, заявки и историю сыгранных игр в
// PostgreSQL. Помимо запросов, репозиторий обменов владеет каналом
// событий: административные изменения расписания будят планировщик,
// не заставляя его опрашивать базу.
package repository

import (
	"context"
	"errors"
	"time"

	"ratex/pkg/domain"
)

// Стандартные ошибки
var (
	ErrExchangeNotFound   = errors.New("exchange not found")
	ErrSubmissionNotFound = errors.New("submission not found")
)

// NewExchange параметры создания обмена. Окно приёма заявок задаётся
// началом и длительностью, конец вычисляется при вставке.
type NewExchange struct {
	GuildID        uint64
	ChannelID      uint64
	JamType        domain.JamType
	JamLink        string
	Slug           string
	DisplayName    string
	Start          time.Time
	Duration       time.Duration
	GamesPerMember int32
}

// NewSubmission параметры подачи заявки
type NewSubmission struct {
	ExchangeID int64
	Link       string
	Submitter  uint64
}

// ChangeKind вид административного изменения расписания
type ChangeKind string

const (
	ChangeExchangeCreated ChangeKind = "exchange_created"
	ChangeExchangeDeleted ChangeKind = "exchange_deleted"
)

// ChangeEvent уведомление об изменении расписания обменов. События
// носят рекомендательный характер: подписчик перечитывает состояние
// из базы, а не доверяет содержимому события.
type ChangeEvent struct {
	Kind    ChangeKind
	GuildID uint64
	Slug    string
}

// ExchangeRepository интерфейс репозитория обменов.
// Все моменты времени — в UTC.
type ExchangeRepository interface {
	// Create вставляет обмен в состоянии NotStartedYet.
	// Проверку на пересечения делает вызывающий через GetOverlapping.
	Create(ctx context.Context, create NewExchange) (*domain.Exchange, error)

	// GetOverlapping возвращает обмены той же гильдии, чьё окно приёма
	// пересекает [start, end) в том же канале, либо чей slug совпадает.
	GetOverlapping(ctx context.Context, guildID, channelID uint64, slug string, start, end time.Time) ([]domain.Exchange, error)

	// GetRunning возвращает обмен канала, принимающий заявки в момент
	// at, или nil, если такого нет.
	GetRunning(ctx context.Context, guildID, channelID uint64, at time.Time) (*domain.Exchange, error)

	// GetBySlug возвращает обмен гильдии по его slug
	GetBySlug(ctx context.Context, guildID uint64, slug string) (*domain.Exchange, error)

	// GetUpcoming возвращает обмены гильдии, чьё окно приёма ещё не
	// закрылось к моменту after, в порядке начала приёма.
	GetUpcoming(ctx context.Context, guildID uint64, after time.Time) ([]domain.Exchange, error)

	// GetStarting возвращает обмены, которым пора открывать приём:
	// состояние NotStartedYet и submissions_start <= at.
	GetStarting(ctx context.Context, at time.Time) ([]domain.Exchange, error)

	// GetEnding возвращает обмены, которым пора закрываться:
	// состояние AcceptingSubmissions и submissions_end <= at.
	GetEnding(ctx context.Context, at time.Time) ([]domain.Exchange, error)

	// ClosestEventTime возвращает ближайший момент, когда какому-нибудь
	// обмену потребуется переход состояния, или nil, если переходов не
	// ожидается.
	ClosestEventTime(ctx context.Context) (*time.Time, error)

	// CountAccepting возвращает число обменов, принимающих заявки.
	// Планировщик публикует его как метрику.
	CountAccepting(ctx context.Context) (int, error)

	// UpdateState переводит обмен в новое состояние
	UpdateState(ctx context.Context, id int64, state domain.ExchangeState) error

	// Delete удаляет обмен по slug. Возвращает true, если строка была
	// удалена.
	Delete(ctx context.Context, guildID uint64, slug string) (bool, error)

	// Subscribe возвращает канал событий об изменениях расписания.
	// Канал ограничен по ёмкости: не успевающий подписчик теряет
	// события, но не блокирует запись.
	Subscribe() <-chan ChangeEvent
}

// SubmissionRepository интерфейс репозитория заявок
type SubmissionRepository interface {
	// GetConflict возвращает заявку того же обмена с тем же участником
	// или той же ссылкой, либо nil
	GetConflict(ctx context.Context, candidate NewSubmission) (*domain.Submission, error)

	// Upsert вставляет заявку; при повторной подаче тем же участником
	// обновляет ссылку
	Upsert(ctx context.Context, submission NewSubmission) (*domain.Submission, error)

	// Revoke удаляет заявку участника, пока обмен принимает заявки.
	// Возвращает true, если заявка была удалена.
	Revoke(ctx context.Context, exchangeID int64, submitter uint64) (bool, error)

	// ListForExchange возвращает заявки обмена в порядке подачи
	ListForExchange(ctx context.Context, exchangeID int64) ([]domain.Submission, error)
}

// PlayedGameRepository интерфейс репозитория сыгранных игр
type PlayedGameRepository interface {
	// Submit отмечает игру сыгранной. Повторная отметка не ошибка.
	Submit(ctx context.Context, member uint64, link string) error

	// ListForExchange возвращает отметки участников данного обмена
	ListForExchange(ctx context.Context, exchangeID int64) ([]domain.PlayedGame, error)
}
