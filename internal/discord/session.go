package discord

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"ratex/pkg/apperror"
	"ratex/pkg/cache"
	"ratex/pkg/config"
	"ratex/pkg/logger"
	"ratex/pkg/metrics"
)

// Session обёртка над discordgo сессией
type Session struct {
	s          *discordgo.Session
	mux        *Mux
	cfg        *config.DiscordConfig
	guildNames *cache.GuildNameCache

	ctx context.Context
}

// NewSession создаёт сессию с зарегистрированными обработчиками
// gateway событий. Соединение открывается в Start.
func NewSession(cfg *config.DiscordConfig, mux *Mux, guildNames *cache.GuildNameCache) (*Session, error) {
	ds, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodePlatform, "failed to create discord session")
	}
	ds.Identify.Intents = discordgo.IntentsGuilds

	s := &Session{
		s:          ds,
		mux:        mux,
		cfg:        cfg,
		guildNames: guildNames,
		ctx:        context.Background(),
	}

	ds.AddHandler(s.onReady)
	ds.AddHandler(s.onInteraction)

	return s, nil
}

// Start открывает gateway соединение и регистрирует slash-команды.
// Контекст наследуют все обработчики взаимодействий.
func (s *Session) Start(ctx context.Context) error {
	s.ctx = ctx

	if err := s.s.Open(); err != nil {
		return apperror.Wrap(err, apperror.CodePlatform, "failed to open gateway connection")
	}

	if err := s.registerCommands(); err != nil {
		_ = s.s.Close() //nolint:errcheck // соединение уже не нужно
		return err
	}

	return nil
}

// Close закрывает gateway соединение
func (s *Session) Close() error {
	return s.s.Close()
}

func (s *Session) registerCommands() error {
	// ID приложения известен только после Open
	appID := s.s.State.User.ID
	defs := commandDefinitions()

	if s.cfg.RegisterCommandsGlobally {
		if _, err := s.s.ApplicationCommandBulkOverwrite(appID, "", defs); err != nil {
			return apperror.Wrap(err, apperror.CodePlatform, "failed to register global commands")
		}
		logger.Log.Info("Registered global slash commands", "count", len(defs))
	}

	for _, guildID := range s.cfg.RegisterCommandsInGuilds {
		if _, err := s.s.ApplicationCommandBulkOverwrite(appID, FormatSnowflake(guildID), defs); err != nil {
			return apperror.Wrap(err, apperror.CodePlatform,
				fmt.Sprintf("failed to register commands in guild %d", guildID))
		}
		logger.Log.Info("Registered guild slash commands", "guild_id", guildID, "count", len(defs))
	}

	return nil
}

func (s *Session) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	logger.Log.Info("Gateway session ready",
		"username", r.User.Username,
		"guilds", len(r.Guilds),
	)
}

// onInteraction вызывается discordgo в отдельной горутине на каждое
// взаимодействие, поэтому обработчики могут блокироваться в Confirm.
func (s *Session) onInteraction(_ *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		s.handleCommand(i)
	case discordgo.InteractionMessageComponent:
		s.handleComponent(i)
	}
}

func (s *Session) handleCommand(i *discordgo.InteractionCreate) {
	user := interactionUser(i)
	if user == nil {
		logger.Log.Warn("Interaction without user", "interaction_id", i.ID)
		return
	}

	data := i.ApplicationCommandData()
	command := data.Name
	options := data.Options

	// Подкоманды приходят единственной опцией верхнего уровня
	if len(options) == 1 && options[0].Type == discordgo.ApplicationCommandOptionSubCommand {
		command = command + " " + options[0].Name
		options = options[0].Options
	}

	values := make(map[string]any, len(options))
	for _, o := range options {
		switch o.Type {
		case discordgo.ApplicationCommandOptionString:
			values[o.Name] = o.StringValue()
		case discordgo.ApplicationCommandOptionInteger:
			values[o.Name] = o.IntValue()
		case discordgo.ApplicationCommandOptionBoolean:
			values[o.Name] = o.BoolValue()
		case discordgo.ApplicationCommandOptionChannel:
			values[o.Name] = ParseSnowflake(o.ChannelValue(nil).ID)
		}
	}

	userID := ParseSnowflake(user.ID)
	responder := &interactionResponder{
		s:      s.s,
		i:      i.Interaction,
		mux:    s.mux,
		userID: userID,
	}

	req := NewRequest(
		command,
		userID,
		user.Username,
		ParseSnowflake(i.GuildID),
		ParseSnowflake(i.ChannelID),
		values,
		responder,
	)

	s.mux.Dispatch(s.ctx, req)
}

func (s *Session) handleComponent(i *discordgo.InteractionCreate) {
	user := interactionUser(i)
	if user == nil {
		return
	}

	data := i.MessageComponentData()

	switch s.mux.ResolveConfirm(data.CustomID, ParseSnowflake(user.ID)) {
	case ConfirmResolved:
		// Ждущий обработчик сам отредактирует сообщение с кнопками,
		// здесь достаточно подтвердить получение
		err := s.s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseDeferredMessageUpdate,
		})
		if err != nil {
			logger.Log.Warn("Failed to acknowledge component interaction", "error", err)
		}
	case ConfirmForeign:
		s.ephemeralNotice(i, "Only the member who invoked the command can use these buttons.")
	case ConfirmExpired:
		s.ephemeralNotice(i, "This confirmation is no longer active.")
	}
}

func (s *Session) ephemeralNotice(i *discordgo.InteractionCreate, content string) {
	err := s.s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		logger.Log.Warn("Failed to send interaction notice", "error", err)
	}
}

func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

// SendChannelMessage отправляет сообщение в канал гильдии
func (s *Session) SendChannelMessage(ctx context.Context, channelID uint64, content string) error {
	_, err := s.s.ChannelMessageSend(FormatSnowflake(channelID), content)
	recordMessage("channel", err)
	if err != nil {
		return apperror.Wrap(err, apperror.CodePlatform, "failed to send channel message").
			WithDetails("channel_id", channelID)
	}
	return nil
}

// SendDirectMessage отправляет личное сообщение участнику
func (s *Session) SendDirectMessage(ctx context.Context, userID uint64, content string) error {
	ch, err := s.s.UserChannelCreate(FormatSnowflake(userID))
	if err == nil {
		_, err = s.s.ChannelMessageSend(ch.ID, content)
	}
	recordMessage("dm", err)
	if err != nil {
		return apperror.Wrap(err, apperror.CodePlatform, "failed to send direct message").
			WithDetails("user_id", userID)
	}
	return nil
}

// SendChannelFile отправляет в канал файл с сопроводительным текстом
func (s *Session) SendChannelFile(ctx context.Context, channelID uint64, name string, r io.Reader, content string) error {
	_, err := s.s.ChannelMessageSendComplex(FormatSnowflake(channelID), &discordgo.MessageSend{
		Content: content,
		Files:   []*discordgo.File{{Name: name, Reader: r}},
	})
	recordMessage("file", err)
	if err != nil {
		return apperror.Wrap(err, apperror.CodePlatform, "failed to send file").
			WithDetails("channel_id", channelID)
	}
	return nil
}

// GuildName возвращает имя гильдии, кэшируя ответы Discord API
func (s *Session) GuildName(ctx context.Context, guildID uint64) (string, error) {
	return s.guildNames.Lookup(ctx, guildID, func(ctx context.Context, id uint64) (string, error) {
		if g, err := s.s.State.Guild(FormatSnowflake(id)); err == nil && g.Name != "" {
			return g.Name, nil
		}
		g, err := s.s.Guild(FormatSnowflake(id))
		if err != nil {
			return "", apperror.Wrap(err, apperror.CodePlatform, "failed to fetch guild").
				WithDetails("guild_id", id)
		}
		return g.Name, nil
	})
}

func recordMessage(kind string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.Get().RecordMessage(kind, status)
}

// interactionResponder отвечает на одно взаимодействие. Первый ответ
// идёт как interaction response, последующие как followup. Все ответы
// эфемерные.
type interactionResponder struct {
	s      *discordgo.Session
	i      *discordgo.Interaction
	mux    *Mux
	userID uint64

	mu           sync.Mutex
	acknowledged bool
	lastFollowup string
}

func (r *interactionResponder) Reply(ctx context.Context, content string) error {
	return r.respond(content, nil, nil, nil)
}

func (r *interactionResponder) ReplyEmbed(ctx context.Context, content string, embed *Embed) error {
	return r.respond(content, messageEmbeds(embed), nil, nil)
}

func (r *interactionResponder) ReplyFile(ctx context.Context, filename string, file []byte, content string) error {
	files := []*discordgo.File{{Name: filename, Reader: bytes.NewReader(file)}}
	return r.respond(content, nil, nil, files)
}

func (r *interactionResponder) Confirm(ctx context.Context, prompt string, embed *Embed, confirmLabel string) (ConfirmOutcome, error) {
	nonce, ch := r.mux.RegisterConfirm(r.userID)

	components := []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Cancel",
					Style:    discordgo.SecondaryButton,
					CustomID: "cancel:" + nonce,
				},
				discordgo.Button{
					Label:    confirmLabel,
					Style:    discordgo.PrimaryButton,
					CustomID: "confirm:" + nonce,
				},
			},
		},
	}

	if err := r.respond(prompt, messageEmbeds(embed), components, nil); err != nil {
		r.mux.CancelConfirm(nonce)
		return ConfirmTimedOut, err
	}

	timer := time.NewTimer(r.mux.ConfirmTimeout())
	defer timer.Stop()

	select {
	case accepted := <-ch:
		if accepted {
			return ConfirmAccepted, nil
		}
		return ConfirmRejected, nil
	case <-timer.C:
		r.mux.CancelConfirm(nonce)
		return ConfirmTimedOut, nil
	case <-ctx.Done():
		r.mux.CancelConfirm(nonce)
		return ConfirmTimedOut, ctx.Err()
	}
}

// Update редактирует последнее отправленное сообщение, убирая кнопки
func (r *interactionResponder) Update(ctx context.Context, content string, embed *Embed) error {
	r.mu.Lock()
	followupID := r.lastFollowup
	r.mu.Unlock()

	embeds := messageEmbeds(embed)
	if embeds == nil {
		embeds = []*discordgo.MessageEmbed{}
	}
	noComponents := []discordgo.MessageComponent{}

	edit := &discordgo.WebhookEdit{
		Content:    &content,
		Embeds:     &embeds,
		Components: &noComponents,
	}

	var err error
	if followupID != "" {
		_, err = r.s.FollowupMessageEdit(r.i, followupID, edit)
	} else {
		_, err = r.s.InteractionResponseEdit(r.i, edit)
	}
	if err != nil {
		return apperror.Wrap(err, apperror.CodePlatform, "failed to edit interaction response")
	}
	return nil
}

func (r *interactionResponder) respond(content string, embeds []*discordgo.MessageEmbed, components []discordgo.MessageComponent, files []*discordgo.File) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.acknowledged {
		err := r.s.InteractionRespond(r.i, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Content:    content,
				Embeds:     embeds,
				Components: components,
				Files:      files,
				Flags:      discordgo.MessageFlagsEphemeral,
			},
		})
		if err != nil {
			return apperror.Wrap(err, apperror.CodePlatform, "failed to respond to interaction")
		}
		r.acknowledged = true
		return nil
	}

	msg, err := r.s.FollowupMessageCreate(r.i, true, &discordgo.WebhookParams{
		Content:    content,
		Embeds:     embeds,
		Components: components,
		Files:      files,
		Flags:      discordgo.MessageFlagsEphemeral,
	})
	if err != nil {
		return apperror.Wrap(err, apperror.CodePlatform, "failed to send followup message")
	}
	r.lastFollowup = msg.ID
	return nil
}

func messageEmbeds(e *Embed) []*discordgo.MessageEmbed {
	if e == nil {
		return nil
	}
	me := &discordgo.MessageEmbed{
		Title: e.Title,
		Color: e.Color,
	}
	for _, f := range e.Fields {
		me.Fields = append(me.Fields, &discordgo.MessageEmbedField{
			Name:   f.Name,
			Value:  f.Value,
			Inline: f.Inline,
		})
	}
	return []*discordgo.MessageEmbed{me}
}
