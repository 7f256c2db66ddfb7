package commands

import (
	"context"

	"ratex/internal/discord"
)

const helpText = "# Rating exchange bot\n" +
	"\n" +
	"The bot runs rating exchanges for game jams: members submit their games, " +
	"and when the exchange ends, everyone receives a DM with a list of games to rate.\n" +
	"\n" +
	"**Member commands**\n" +
	" - `/submit link` — submit your game to the exchange running in the current channel.\n" +
	" - `/revoke` — withdraw your submission while the exchange is still running.\n" +
	" - `/played link` — mark a game as played, so it is never assigned to you.\n" +
	" - `/help` — show this message.\n" +
	"\n" +
	"**Admin commands**\n" +
	" - `/exchange create` — schedule a rating exchange.\n" +
	" - `/exchange list` — list upcoming exchanges.\n" +
	" - `/exchange delete slug` — delete an exchange that has not started yet.\n" +
	" - `/exchange report slug` — export an exchange report file.\n"

// Help показывает статическую справку по командам
func (h *Handlers) Help(ctx context.Context, req *discord.Request) error {
	return req.Reply(ctx, helpText)
}
