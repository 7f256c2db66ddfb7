package commands

import (
	"context"
	"fmt"

	"ratex/internal/discord"
	"ratex/internal/jam"
	"ratex/internal/repository"
	"ratex/pkg/apperror"
	"ratex/pkg/logger"
	"ratex/pkg/metrics"
)

// Submit подаёт игру в идущий в этом канале обмен. Повторная подача
// заменяет ссылку, чужая ссылка отклоняется.
func (h *Handlers) Submit(ctx context.Context, req *discord.Request) error {
	exchange, err := h.exchanges.GetRunning(ctx, req.GuildID, req.ChannelID, h.now().UTC())
	if err != nil {
		return apperror.Wrap(err, apperror.CodeDatabase, "could not get exchanges")
	}
	if exchange == nil {
		return apperror.NewUser(apperror.CodeNoRunningExchange,
			"# There are no currently active exchanges in this channel\n"+
				"\n"+
				"You can submit your game only while an exchange is running.\n"+
				"\n"+
				"Check the starting and ending dates of the exchanges and their submission channels.\n")
	}

	logger.WithExchange(exchange.ID, exchange.Slug).Debug("Found running exchange for submission",
		"user_id", req.UserID,
	)

	link, ok := jam.NormalizeEntryLink(exchange.JamType, exchange.JamLink, req.String("link"))
	if !ok {
		return apperror.NewUserf(apperror.CodeInvalidLink,
			"**Your entry link is invalid.**\n"+
				"\n"+
				"It should look like this: `%s`.\n"+
				"\n"+
				"Make sure to use the correct submission page.\n",
			jam.EntryLinkExample(exchange.JamType, exchange.JamLink))
	}

	submission := repository.NewSubmission{
		ExchangeID: exchange.ID,
		Link:       link,
		Submitter:  req.UserID,
	}

	message := fmt.Sprintf(
		"**Submitted!**\n"+
			"\n"+
			"You will receive your assignments in the DMs when the exchange ends: %s your time or %s UTC.\n",
		discord.FormatLocal(exchange.SubmissionsEnd), discord.FormatUTC(exchange.SubmissionsEnd))

	conflict, err := h.submissions.GetConflict(ctx, submission)
	if err != nil {
		return apperror.Wrap(err, apperror.CodeDatabase, "could not check for conflicting submissions")
	}

	action := "create"
	if conflict != nil {
		switch {
		case conflict.Submitter == submission.Submitter:
			action = "update"
			message = fmt.Sprintf(
				"**Updated your submission**\n"+
					"\n"+
					"Previously submitted link: `%s`.\n"+
					"\n"+
					"New link: `%s`.\n"+
					"\n"+
					"You will receive your assignments in the DMs when the exchange ends: %s your time or %s UTC.\n",
				conflict.Link, submission.Link,
				discord.FormatLocal(exchange.SubmissionsEnd), discord.FormatUTC(exchange.SubmissionsEnd))

		case conflict.Link == submission.Link:
			return apperror.NewUser(apperror.CodeLinkTaken,
				"**Someone else has already submitted this link**\n"+
					"\n"+
					"If you worked in a team, only one team member can submit an entry and get assignments.\n")
		}
	}

	if _, err := h.submissions.Upsert(ctx, submission); err != nil {
		return apperror.Wrap(err, apperror.CodeDatabase, "could not add/update submission")
	}

	metrics.Get().RecordSubmission(action)

	return req.Reply(ctx, message)
}
