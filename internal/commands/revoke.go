package commands

import (
	"context"
	"fmt"

	"ratex/internal/discord"
	"ratex/pkg/apperror"
	"ratex/pkg/metrics"
)

// Revoke отзывает заявку участника из идущего в канале обмена
func (h *Handlers) Revoke(ctx context.Context, req *discord.Request) error {
	exchange, err := h.exchanges.GetRunning(ctx, req.GuildID, req.ChannelID, h.now().UTC())
	if err != nil {
		return apperror.Wrap(err, apperror.CodeDatabase, "could not get exchanges")
	}
	if exchange == nil {
		return apperror.NewUser(apperror.CodeNoRunningExchange,
			"# There are no currently active exchanges in this channel\n"+
				"\n"+
				"You can revoke a submission only while the corresponding exchange is running.\n"+
				"\n"+
				"Check the starting and ending dates of the exchanges and their submission channels.\n")
	}

	revoked, err := h.submissions.Revoke(ctx, exchange.ID, req.UserID)
	if err != nil {
		return apperror.Wrap(err, apperror.CodeDatabase, "could not revoke the submission")
	}

	if !revoked {
		return apperror.NewUserf(apperror.CodeNotSubmitted,
			"# Could not find your submission to %s\n"+
				"\n"+
				"Either you haven't submitted to that exchange, or it has already ended.\n",
			exchange.DisplayName)
	}

	metrics.Get().RecordSubmission("revoke")

	return req.Reply(ctx, fmt.Sprintf("# Revoked your submission to %s\n", exchange.DisplayName))
}
