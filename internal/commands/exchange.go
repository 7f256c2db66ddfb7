package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"ratex/internal/args"
	"ratex/internal/discord"
	"ratex/internal/jam"
	"ratex/internal/repository"
	"ratex/pkg/apperror"
	"ratex/pkg/domain"
	"ratex/pkg/logger"
)

const defaultGamesPerMember = 5

// ExchangeCreate проверяет аргументы, показывает карточку будущего
// обмена и создаёт его после подтверждения кнопкой.
func (h *Handlers) ExchangeCreate(ctx context.Context, req *discord.Request) error {
	jamType, err := domain.ParseJamType(req.String("type"))
	if err != nil {
		return apperror.NewUserf(apperror.CodeInvalidArgument, "Unknown jam type: `%s`.", req.String("type"))
	}

	rawLink := strings.TrimSpace(req.String("link"))
	jamLink, ok := jam.NormalizeJamLink(jamType, rawLink)
	if !ok {
		return apperror.NewUserf(apperror.CodeInvalidLink,
			"Invalid jam link: `%s`.\nFor %s, it should look like this: `%s`",
			rawLink, jamType.DisplayName(), jam.JamLinkExample(jamType))
	}

	displayName := strings.TrimSpace(req.String("display_name"))

	channelID, ok := req.Uint("channel")
	if !ok || channelID == 0 {
		return apperror.New(apperror.CodeInvalidArgument, "submission channel is missing")
	}

	gamesPerMember := int64(defaultGamesPerMember)
	if games, ok := req.Int("games_per_member"); ok {
		gamesPerMember = games
	}

	now := h.now().UTC()

	start := now
	if req.Has("start") {
		parsed, err := args.ParseHumanDateTime(req.String("start"))
		if err != nil {
			return err
		}
		start = parsed.Resolve(now)
	}

	duration := 24 * time.Hour
	if req.Has("duration") {
		duration, err = args.ParseHumanDuration(req.String("duration"))
		if err != nil {
			return err
		}
	}

	end := start.Add(duration)

	var slug string
	if req.Has("slug") {
		slug, err = args.ParseExchangeSlug(req.String("slug"))
		if err != nil {
			return err
		}
	} else {
		slug = args.SlugifyCamel(displayName)
		if !domain.ValidSlug(slug) {
			return apperror.New(apperror.CodeInvalidSlug,
				fmt.Sprintf("Auto-generated exchange slug is invalid: `%s`.", slug))
		}
	}

	overlapping, err := h.exchanges.GetOverlapping(ctx, req.GuildID, channelID, slug, start, end)
	if err != nil {
		return apperror.Wrap(err, apperror.CodeDatabase, "could not check for overlapping exchanges")
	}

	if len(overlapping) > 0 {
		var b strings.Builder
		b.WriteString("# There are overlapping exchanges\n")
		b.WriteString("The exchange can't be created because the following exchanges use the same submission channel and ")
		b.WriteString("have overlapping submission periods or matching slug:\n")
		for _, ex := range overlapping {
			fmt.Fprintf(&b, " - **%s** (slug: `%s`) - runs from %s UTC to %s UTC\n",
				ex.DisplayName, ex.Slug,
				discord.FormatUTC(ex.SubmissionsStart), discord.FormatUTC(ex.SubmissionsEnd))
		}
		return apperror.NewUser(apperror.CodeOverlappingExchanges, b.String())
	}

	newExchange := repository.NewExchange{
		GuildID:        req.GuildID,
		ChannelID:      channelID,
		JamType:        jamType,
		JamLink:        jamLink,
		Slug:           slug,
		DisplayName:    displayName,
		Start:          start,
		Duration:       duration,
		GamesPerMember: int32(gamesPerMember),
	}

	prompt := fmt.Sprintf(
		"# Confirm exchange creation\n"+
			"You can find the details of a review exchange to be created in the embed below. "+
			"If you don't see the embed, check your Discord settings.\n"+
			"\n"+
			"If you need to make an edit, then cancel and use the command again. "+
			"You can press the up arrow key in your message box to quickly bring up the last command.\n"+
			"\n"+
			"**If you don't confirm exchange creation in %s, it will be cancelled automatically.**",
		formatDuration(h.confirmTimeout))

	embed := newExchangeEmbed(newExchange, discord.ColorGold)

	outcome, err := req.Confirm(ctx, prompt, embed, "Create")
	if err != nil {
		return err
	}

	switch outcome {
	case discord.ConfirmRejected:
		return req.Update(ctx, "# Canceled!", embed.WithColor(discord.ColorRed))

	case discord.ConfirmTimedOut:
		// Приглашение остаётся на месте, истёкшие кнопки сообщат об
		// этом при нажатии
		return nil
	}

	if _, err := h.exchanges.Create(ctx, newExchange); err != nil {
		logger.WithCommand(req.Command, req.UserID).Error("Failed to create exchange",
			"slug", slug,
			"error", err,
		)
		return req.Update(ctx, fmt.Sprintf("# Could not create exchange!\n%s", err), nil)
	}

	return req.Update(ctx, "# Exchange created!", embed.WithColor(discord.ColorDarkGreen))
}

// ExchangeList показывает будущие обмены гильдии
func (h *Handlers) ExchangeList(ctx context.Context, req *discord.Request) error {
	exchanges, err := h.exchanges.GetUpcoming(ctx, req.GuildID, h.now().UTC())
	if err != nil {
		return apperror.Wrap(err, apperror.CodeDatabase, "could not get the upcoming exchanges")
	}

	if len(exchanges) == 0 {
		return req.Reply(ctx, "# There are no upcoming exchanges")
	}

	var b strings.Builder
	b.WriteString("# Upcoming exchanges:\n")
	for _, ex := range exchanges {
		fmt.Fprintf(&b, " - **%s** (slug: `%s`) - runs from %s UTC to %s UTC\n",
			ex.DisplayName, ex.Slug,
			discord.FormatUTC(ex.SubmissionsStart), discord.FormatUTC(ex.SubmissionsEnd))
	}

	return req.Reply(ctx, b.String())
}

// ExchangeDelete удаляет обмен, который ещё не начался
func (h *Handlers) ExchangeDelete(ctx context.Context, req *discord.Request) error {
	slug := req.String("slug")

	exchange, err := h.exchanges.GetBySlug(ctx, req.GuildID, slug)
	if err != nil {
		if errors.Is(err, repository.ErrExchangeNotFound) {
			return apperror.NewUserf(apperror.CodeExchangeNotFound,
				"Exchange with slug `%s` does not exist", slug)
		}
		return apperror.Wrap(err, apperror.CodeDatabase, "could not delete the exchange")
	}

	if !exchange.IsDeletable() {
		return apperror.NewUserf(apperror.CodeInvalidState,
			"Exchange `%s` has already started and cannot be deleted", slug)
	}

	deleted, err := h.exchanges.Delete(ctx, req.GuildID, slug)
	if err != nil {
		return apperror.Wrap(err, apperror.CodeDatabase, "could not delete the exchange")
	}
	if !deleted {
		return apperror.NewUserf(apperror.CodeExchangeNotFound,
			"Exchange with slug `%s` does not exist", slug)
	}

	return req.Reply(ctx, fmt.Sprintf("# Exchange `%s` deleted", slug))
}

// newExchangeEmbed карточка обмена для подтверждения создания
func newExchangeEmbed(ex repository.NewExchange, color int) *discord.Embed {
	end := ex.Start.Add(ex.Duration)

	return &discord.Embed{
		Title: ex.DisplayName,
		Color: color,
		Fields: []discord.EmbedField{
			{Name: "Jam type", Value: ex.JamType.DisplayName(), Inline: true},
			{Name: "Jam link", Value: ex.JamLink, Inline: true},
			{Name: "Submission channel", Value: discord.ChannelMention(ex.ChannelID), Inline: false},
			{
				Name: "Start",
				Value: fmt.Sprintf("%s UTC or %s your time",
					discord.FormatUTC(ex.Start), discord.FormatLocal(ex.Start)),
				Inline: false,
			},
			{
				Name: "End",
				Value: fmt.Sprintf("%s UTC or %s your time",
					discord.FormatUTC(end), discord.FormatLocal(end)),
				Inline: false,
			},
			{Name: "Duration", Value: formatDuration(ex.Duration), Inline: false},
			{Name: "Games per member", Value: strconv.FormatInt(int64(ex.GamesPerMember), 10), Inline: true},
			{Name: "Slug", Value: "`" + ex.Slug + "`", Inline: true},
		},
	}
}
