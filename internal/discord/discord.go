// Package discord содержит транспортный слой бота: интерфейс платформы
// для планировщика и команд, адаптер поверх discordgo, маршрутизатор
// взаимодействий с цепочкой middleware и fake-реализацию для тестов.
package discord

import (
	"context"
	"io"
	"strconv"
)

// Platform операции отправки, которые нужны планировщику и командам.
// Реализация поверх discordgo живёт в Session, тестовая в Fake.
type Platform interface {
	// SendChannelMessage отправляет сообщение в канал гильдии
	SendChannelMessage(ctx context.Context, channelID uint64, content string) error

	// SendDirectMessage отправляет личное сообщение участнику
	SendDirectMessage(ctx context.Context, userID uint64, content string) error

	// SendChannelFile отправляет файл с сопроводительным текстом
	SendChannelFile(ctx context.Context, channelID uint64, name string, r io.Reader, content string) error

	// GuildName возвращает имя гильдии
	GuildName(ctx context.Context, guildID uint64) (string, error)
}

// Цвета embed для подтверждений: золотой для запроса, зелёный для
// успеха, красный для отмены.
const (
	ColorGold      = 0xDAA520
	ColorDarkGreen = 0x1F8B4C
	ColorRed       = 0xED4245
)

// Embed платформонезависимое описание embed-блока. Команды собирают
// его, адаптер переводит в формат discordgo.
type Embed struct {
	Title  string
	Color  int
	Fields []EmbedField
}

// EmbedField одно поле embed-блока
type EmbedField struct {
	Name   string
	Value  string
	Inline bool
}

// WithColor возвращает копию embed с другим цветом
func (e *Embed) WithColor(color int) *Embed {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Color = color
	return &clone
}

// FormatSnowflake переводит идентификатор Discord в строковую форму
func FormatSnowflake(id uint64) string {
	return strconv.FormatUint(id, 10)
}

// ParseSnowflake разбирает строковый идентификатор Discord.
// Пустые и некорректные значения дают 0.
func ParseSnowflake(s string) uint64 {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// ChannelMention строит упоминание канала
func ChannelMention(channelID uint64) string {
	return "<#" + FormatSnowflake(channelID) + ">"
}

// UserMention строит упоминание участника
func UserMention(userID uint64) string {
	return "<@" + FormatSnowflake(userID) + ">"
}
