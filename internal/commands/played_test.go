package commands

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ratex/pkg/apperror"
)

func TestPlayed(t *testing.T) {
	f := newFixture()
	exchange := f.runningExchange(t, "spring-jam")
	f.submitLink(t, exchange.ID, testUserID, "https://itch.io/jam/spring-jam/rate/111")

	req, resp := f.request("played", map[string]any{"link": "https://itch.io/jam/spring-jam/rate/222"})
	require.NoError(t, f.handlers.Played(context.Background(), req))

	reply, ok := resp.LastReply()
	require.True(t, ok)
	assert.Contains(t, reply.Content, "# Registered this submission as played!")
	assert.Contains(t, reply.Content, "future exchanges")

	list, err := f.played.ListForExchange(context.Background(), exchange.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, testUserID, list[0].Member)
	assert.Equal(t, "https://itch.io/jam/spring-jam/rate/222", list[0].Link)
	assert.True(t, list[0].IsManual)
}

func TestPlayed_Idempotent(t *testing.T) {
	f := newFixture()
	exchange := f.runningExchange(t, "spring-jam")
	f.submitLink(t, exchange.ID, testUserID, "https://itch.io/jam/spring-jam/rate/111")

	for range 2 {
		req, _ := f.request("played", map[string]any{"link": "https://itch.io/jam/spring-jam/rate/222"})
		require.NoError(t, f.handlers.Played(context.Background(), req))
	}

	list, err := f.played.ListForExchange(context.Background(), exchange.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestPlayed_LudumDareLink(t *testing.T) {
	f := newFixture()

	req, resp := f.request("played", map[string]any{"link": "https://ldjam.com/events/ludum-dare/56/my-cool-game"})
	require.NoError(t, f.handlers.Played(context.Background(), req))

	_, ok := resp.LastReply()
	assert.True(t, ok)
}

func TestPlayed_InvalidLink(t *testing.T) {
	f := newFixture()

	for _, link := range []string{
		"https://example.com/game",
		"https://itch.io/jam/spring-jam",
		"https://ldjam.com/events/ludum-dare/56/results",
	} {
		req, _ := f.request("played", map[string]any{"link": link})

		err := f.handlers.Played(context.Background(), req)
		require.Error(t, err, "link %q", link)
		assert.True(t, apperror.Is(err, apperror.CodeInvalidLink), "link %q", link)
	}
}
