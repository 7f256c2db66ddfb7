package discord

import (
	"context"
	"io"
	"sync"

	"ratex/pkg/apperror"
)

// FakePlatform реализация Platform для тестов. Записывает отправленные
// сообщения и позволяет подсунуть ошибку отправки по адресату.
type FakePlatform struct {
	mu sync.Mutex

	channelMessages []FakeChannelMessage
	directMessages  []FakeDirectMessage
	files           []FakeFileMessage

	// ChannelErr и DirectErr задают ошибку отправки по каналу либо
	// участнику. Проверяются до записи сообщения.
	ChannelErr map[uint64]error
	DirectErr  map[uint64]error

	// Names имена гильдий, которые вернёт GuildName
	Names map[uint64]string
}

// FakeChannelMessage записанное сообщение в канал
type FakeChannelMessage struct {
	ChannelID uint64
	Content   string
}

// FakeDirectMessage записанное личное сообщение
type FakeDirectMessage struct {
	UserID  uint64
	Content string
}

// FakeFileMessage записанный файл
type FakeFileMessage struct {
	ChannelID uint64
	Name      string
	Data      []byte
	Content   string
}

// NewFakePlatform создаёт пустую фейковую платформу
func NewFakePlatform() *FakePlatform {
	return &FakePlatform{
		ChannelErr: make(map[uint64]error),
		DirectErr:  make(map[uint64]error),
		Names:      make(map[uint64]string),
	}
}

func (f *FakePlatform) SendChannelMessage(ctx context.Context, channelID uint64, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.ChannelErr[channelID]; err != nil {
		return err
	}
	f.channelMessages = append(f.channelMessages, FakeChannelMessage{ChannelID: channelID, Content: content})
	return nil
}

func (f *FakePlatform) SendDirectMessage(ctx context.Context, userID uint64, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.DirectErr[userID]; err != nil {
		return err
	}
	f.directMessages = append(f.directMessages, FakeDirectMessage{UserID: userID, Content: content})
	return nil
}

func (f *FakePlatform) SendChannelFile(ctx context.Context, channelID uint64, name string, r io.Reader, content string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.ChannelErr[channelID]; err != nil {
		return err
	}
	f.files = append(f.files, FakeFileMessage{ChannelID: channelID, Name: name, Data: data, Content: content})
	return nil
}

func (f *FakePlatform) GuildName(ctx context.Context, guildID uint64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if name, ok := f.Names[guildID]; ok {
		return name, nil
	}
	return "", apperror.New(apperror.CodePlatform, "unknown guild")
}

// ChannelMessages возвращает копию записанных сообщений в каналы
func (f *FakePlatform) ChannelMessages() []FakeChannelMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]FakeChannelMessage, len(f.channelMessages))
	copy(out, f.channelMessages)
	return out
}

// DirectMessages возвращает копию записанных личных сообщений
func (f *FakePlatform) DirectMessages() []FakeDirectMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]FakeDirectMessage, len(f.directMessages))
	copy(out, f.directMessages)
	return out
}

// Files возвращает копию записанных файлов
func (f *FakePlatform) Files() []FakeFileMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]FakeFileMessage, len(f.files))
	copy(out, f.files)
	return out
}

// FakeResponder реализация Responder для тестов обработчиков команд.
// Confirm отдаёт заранее заданные исходы по порядку, по умолчанию
// ConfirmAccepted.
type FakeResponder struct {
	Replies  []FakeReply
	Files    []FakeFileReply
	Confirms []FakeConfirmPrompt
	Updates  []FakeReply

	// Outcomes сценарий ответов Confirm, расходуется по одному
	Outcomes []ConfirmOutcome

	// ReplyErr ошибка, которую вернут все методы ответа
	ReplyErr error
}

// FakeReply записанный ответ
type FakeReply struct {
	Content string
	Embed   *Embed
}

// FakeFileReply записанный ответ с файлом
type FakeFileReply struct {
	Filename string
	Data     []byte
	Content  string
}

// FakeConfirmPrompt записанный запрос подтверждения
type FakeConfirmPrompt struct {
	Prompt       string
	Embed        *Embed
	ConfirmLabel string
}

func (r *FakeResponder) Reply(ctx context.Context, content string) error {
	if r.ReplyErr != nil {
		return r.ReplyErr
	}
	r.Replies = append(r.Replies, FakeReply{Content: content})
	return nil
}

func (r *FakeResponder) ReplyEmbed(ctx context.Context, content string, embed *Embed) error {
	if r.ReplyErr != nil {
		return r.ReplyErr
	}
	r.Replies = append(r.Replies, FakeReply{Content: content, Embed: embed})
	return nil
}

func (r *FakeResponder) ReplyFile(ctx context.Context, filename string, file []byte, content string) error {
	if r.ReplyErr != nil {
		return r.ReplyErr
	}
	r.Files = append(r.Files, FakeFileReply{Filename: filename, Data: file, Content: content})
	return nil
}

func (r *FakeResponder) Confirm(ctx context.Context, prompt string, embed *Embed, confirmLabel string) (ConfirmOutcome, error) {
	if r.ReplyErr != nil {
		return ConfirmTimedOut, r.ReplyErr
	}
	r.Confirms = append(r.Confirms, FakeConfirmPrompt{Prompt: prompt, Embed: embed, ConfirmLabel: confirmLabel})
	if len(r.Outcomes) == 0 {
		return ConfirmAccepted, nil
	}
	out := r.Outcomes[0]
	r.Outcomes = r.Outcomes[1:]
	return out, nil
}

func (r *FakeResponder) Update(ctx context.Context, content string, embed *Embed) error {
	if r.ReplyErr != nil {
		return r.ReplyErr
	}
	r.Updates = append(r.Updates, FakeReply{Content: content, Embed: embed})
	return nil
}

// LastReply возвращает последний записанный ответ
func (r *FakeResponder) LastReply() (FakeReply, bool) {
	if len(r.Replies) == 0 {
		return FakeReply{}, false
	}
	return r.Replies[len(r.Replies)-1], true
}
