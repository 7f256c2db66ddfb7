package discord

import (
	"context"
)

// ConfirmOutcome результат ожидания подтверждения администратора
type ConfirmOutcome int

const (
	// ConfirmAccepted нажата кнопка подтверждения
	ConfirmAccepted ConfirmOutcome = iota
	// ConfirmRejected нажата кнопка отмены
	ConfirmRejected
	// ConfirmTimedOut подтверждение не пришло за отведённое время
	ConfirmTimedOut
)

// Responder отвечает на одно slash-взаимодействие. Все ответы
// эфемерные: их видит только вызвавший команду участник.
type Responder interface {
	// Reply отправляет текстовый ответ
	Reply(ctx context.Context, content string) error

	// ReplyEmbed отправляет ответ с embed-блоком
	ReplyEmbed(ctx context.Context, content string, embed *Embed) error

	// ReplyFile отправляет ответ с вложенным файлом
	ReplyFile(ctx context.Context, filename string, file []byte, content string) error

	// Confirm отправляет запрос с кнопками подтверждения и отмены и
	// блокируется до нажатия, истечения таймаута или отмены ctx.
	// Кнопки принимает только автор исходной команды.
	Confirm(ctx context.Context, prompt string, embed *Embed, confirmLabel string) (ConfirmOutcome, error)

	// Update редактирует ранее отправленный ответ, убирая кнопки
	Update(ctx context.Context, content string, embed *Embed) error
}

// Request одно вызванное slash-взаимодействие: кто, где и с какими
// аргументами. Значения опций хранятся как получены от платформы:
// строки, int64 для целых, uint64 для каналов.
type Request struct {
	Responder

	// Command полное имя команды, для подкоманд через пробел:
	// «submit», «exchange create».
	Command string

	// UserID и Username автор взаимодействия
	UserID   uint64
	Username string

	// GuildID и ChannelID место вызова. Вне гильдии GuildID равен 0.
	GuildID   uint64
	ChannelID uint64

	opts map[string]any
}

// NewRequest собирает запрос. Используется адаптером discordgo и
// тестами.
func NewRequest(command string, userID uint64, username string, guildID, channelID uint64, opts map[string]any, resp Responder) *Request {
	if opts == nil {
		opts = map[string]any{}
	}
	return &Request{
		Responder: resp,
		Command:   command,
		UserID:    userID,
		Username:  username,
		GuildID:   guildID,
		ChannelID: channelID,
		opts:      opts,
	}
}

// Has сообщает, передана ли опция
func (r *Request) Has(name string) bool {
	_, ok := r.opts[name]
	return ok
}

// String возвращает строковую опцию, пустую строку при отсутствии
func (r *Request) String(name string) string {
	v, ok := r.opts[name].(string)
	if !ok {
		return ""
	}
	return v
}

// Int возвращает целочисленную опцию
func (r *Request) Int(name string) (int64, bool) {
	v, ok := r.opts[name].(int64)
	return v, ok
}

// Uint возвращает опцию-идентификатор (канал, участник)
func (r *Request) Uint(name string) (uint64, bool) {
	v, ok := r.opts[name].(uint64)
	return v, ok
}
