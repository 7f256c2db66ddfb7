package commands

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ratex/internal/discord"
	"ratex/internal/repository"
	"ratex/pkg/apperror"
	"ratex/pkg/domain"
)

func createOpts() map[string]any {
	return map[string]any{
		"type":         "itch",
		"link":         "https://itch.io/jam/spring-jam",
		"display_name": "Spring Jam",
		"channel":      testChannelID,
		"slug":         "spring-jam",
	}
}

func TestExchangeCreate(t *testing.T) {
	f := newFixture()
	req, resp := f.request("exchange create", createOpts())

	require.NoError(t, f.handlers.ExchangeCreate(context.Background(), req))

	// Подтверждение показывает карточку с кнопкой Create
	require.Len(t, resp.Confirms, 1)
	assert.Equal(t, "Create", resp.Confirms[0].ConfirmLabel)
	require.NotNil(t, resp.Confirms[0].Embed)
	assert.Equal(t, "Spring Jam", resp.Confirms[0].Embed.Title)

	require.Len(t, resp.Updates, 1)
	assert.Equal(t, "# Exchange created!", resp.Updates[0].Content)

	exchange, err := f.exchanges.GetBySlug(context.Background(), testGuildID, "spring-jam")
	require.NoError(t, err)
	assert.Equal(t, "Spring Jam", exchange.DisplayName)
	assert.Equal(t, domain.JamTypeItch, exchange.JamType)
	assert.Equal(t, testChannelID, exchange.ChannelID)
	assert.Equal(t, domain.ExchangeStateNotStartedYet, exchange.State)
	// Без start и duration: начало сейчас, окно сутки
	assert.Equal(t, testNow, exchange.SubmissionsStart)
	assert.Equal(t, testNow.Add(24*time.Hour), exchange.SubmissionsEnd)
	assert.Equal(t, int32(defaultGamesPerMember), exchange.GamesPerMember)
}

func TestExchangeCreate_ExplicitOptions(t *testing.T) {
	f := newFixture()
	opts := createOpts()
	opts["start"] = "2024-03-10 12:00 UTC"
	opts["duration"] = "48h"
	opts["games_per_member"] = int64(3)
	req, _ := f.request("exchange create", opts)

	require.NoError(t, f.handlers.ExchangeCreate(context.Background(), req))

	exchange, err := f.exchanges.GetBySlug(context.Background(), testGuildID, "spring-jam")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC), exchange.SubmissionsStart)
	assert.Equal(t, time.Date(2024, 3, 12, 12, 0, 0, 0, time.UTC), exchange.SubmissionsEnd)
	assert.Equal(t, int32(3), exchange.GamesPerMember)
}

func TestExchangeCreate_AutoSlug(t *testing.T) {
	f := newFixture()
	opts := createOpts()
	delete(opts, "slug")
	opts["display_name"] = "Spring Jam 2024"
	req, _ := f.request("exchange create", opts)

	require.NoError(t, f.handlers.ExchangeCreate(context.Background(), req))

	exchange, err := f.exchanges.GetBySlug(context.Background(), testGuildID, "SpringJam2024")
	require.NoError(t, err)
	assert.Equal(t, "Spring Jam 2024", exchange.DisplayName)
}

func TestExchangeCreate_Canceled(t *testing.T) {
	f := newFixture()
	req, resp := f.request("exchange create", createOpts())
	resp.Outcomes = []discord.ConfirmOutcome{discord.ConfirmRejected}

	require.NoError(t, f.handlers.ExchangeCreate(context.Background(), req))

	require.Len(t, resp.Updates, 1)
	assert.Equal(t, "# Canceled!", resp.Updates[0].Content)

	_, err := f.exchanges.GetBySlug(context.Background(), testGuildID, "spring-jam")
	assert.ErrorIs(t, err, repository.ErrExchangeNotFound)
}

func TestExchangeCreate_ConfirmationTimedOut(t *testing.T) {
	f := newFixture()
	req, resp := f.request("exchange create", createOpts())
	resp.Outcomes = []discord.ConfirmOutcome{discord.ConfirmTimedOut}

	require.NoError(t, f.handlers.ExchangeCreate(context.Background(), req))

	// Приглашение не трогаем, обмен не создаём
	assert.Empty(t, resp.Updates)
	_, err := f.exchanges.GetBySlug(context.Background(), testGuildID, "spring-jam")
	assert.ErrorIs(t, err, repository.ErrExchangeNotFound)
}

func TestExchangeCreate_UnknownJamType(t *testing.T) {
	f := newFixture()
	opts := createOpts()
	opts["type"] = "gamejolt"
	req, _ := f.request("exchange create", opts)

	err := f.handlers.ExchangeCreate(context.Background(), req)
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeInvalidArgument))
	assert.True(t, apperror.IsUserError(err))
}

func TestExchangeCreate_InvalidJamLink(t *testing.T) {
	f := newFixture()
	opts := createOpts()
	opts["link"] = "https://example.com/spring-jam"
	req, _ := f.request("exchange create", opts)

	err := f.handlers.ExchangeCreate(context.Background(), req)
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeInvalidLink))
	assert.Contains(t, apperror.UserMessage(err), "https://itch.io/jam/example-jam")
}

func TestExchangeCreate_Overlapping(t *testing.T) {
	f := newFixture()
	f.createExchange(t, "occupied", testNow.Add(time.Hour), 24*time.Hour, 5)

	// Окно нового обмена пересекает существующее в том же канале
	opts := createOpts()
	opts["start"] = "2024-03-01 20:00 UTC"
	req, _ := f.request("exchange create", opts)

	err := f.handlers.ExchangeCreate(context.Background(), req)
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeOverlappingExchanges))
	assert.Contains(t, apperror.UserMessage(err), "`occupied`")
}

func TestExchangeCreate_SlugConflictInOtherChannel(t *testing.T) {
	f := newFixture()
	f.createExchange(t, "spring-jam", testNow.Add(100*time.Hour), time.Hour, 5)

	// Окно не пересекается, но slug уже занят в гильдии
	req, _ := f.request("exchange create", createOpts())

	err := f.handlers.ExchangeCreate(context.Background(), req)
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeOverlappingExchanges))
}

func TestExchangeList_Empty(t *testing.T) {
	f := newFixture()
	req, resp := f.request("exchange list", nil)

	require.NoError(t, f.handlers.ExchangeList(context.Background(), req))

	reply, ok := resp.LastReply()
	require.True(t, ok)
	assert.Equal(t, "# There are no upcoming exchanges", reply.Content)
}

func TestExchangeList(t *testing.T) {
	f := newFixture()
	f.createExchange(t, "later", testNow.Add(48*time.Hour), 24*time.Hour, 5)
	f.createExchange(t, "sooner", testNow.Add(time.Hour), 24*time.Hour, 5)
	f.createExchange(t, "finished", testNow.Add(-48*time.Hour), time.Hour, 5)

	req, resp := f.request("exchange list", nil)
	require.NoError(t, f.handlers.ExchangeList(context.Background(), req))

	reply, ok := resp.LastReply()
	require.True(t, ok)
	assert.Contains(t, reply.Content, "# Upcoming exchanges:")
	assert.Contains(t, reply.Content, "`sooner`")
	assert.Contains(t, reply.Content, "`later`")
	assert.NotContains(t, reply.Content, "`finished`")
	// Порядок по началу приёма
	assert.Less(t, strings.Index(reply.Content, "`sooner`"), strings.Index(reply.Content, "`later`"))
}

func TestExchangeDelete(t *testing.T) {
	f := newFixture()
	f.createExchange(t, "spring-jam", testNow.Add(time.Hour), 24*time.Hour, 5)

	req, resp := f.request("exchange delete", map[string]any{"slug": "spring-jam"})
	require.NoError(t, f.handlers.ExchangeDelete(context.Background(), req))

	reply, ok := resp.LastReply()
	require.True(t, ok)
	assert.Equal(t, "# Exchange `spring-jam` deleted", reply.Content)

	_, err := f.exchanges.GetBySlug(context.Background(), testGuildID, "spring-jam")
	assert.ErrorIs(t, err, repository.ErrExchangeNotFound)
}

func TestExchangeDelete_NotFound(t *testing.T) {
	f := newFixture()
	req, _ := f.request("exchange delete", map[string]any{"slug": "missing"})

	err := f.handlers.ExchangeDelete(context.Background(), req)
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeExchangeNotFound))
}

func TestExchangeDelete_AlreadyStarted(t *testing.T) {
	f := newFixture()
	f.runningExchange(t, "spring-jam")

	req, _ := f.request("exchange delete", map[string]any{"slug": "spring-jam"})

	err := f.handlers.ExchangeDelete(context.Background(), req)
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeInvalidState))

	// Обмен остаётся на месте
	_, getErr := f.exchanges.GetBySlug(context.Background(), testGuildID, "spring-jam")
	assert.NoError(t, getErr)
}
