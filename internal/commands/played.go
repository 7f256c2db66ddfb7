package commands

import (
	"context"

	"ratex/internal/discord"
	"ratex/internal/jam"
	"ratex/pkg/apperror"
	"ratex/pkg/metrics"
)

// Played регистрирует игру как сыгранную: такие ссылки не попадают
// участнику в раздачу в будущих обменах.
func (h *Handlers) Played(ctx context.Context, req *discord.Request) error {
	link := req.String("link")

	if !jam.ValidEntryLink(link) {
		return apperror.NewUser(apperror.CodeInvalidLink,
			"Invalid entry link, does not match any of known jams")
	}

	if err := h.played.Submit(ctx, req.UserID, link); err != nil {
		return apperror.Wrap(err, apperror.CodeDatabase, "could not register the game as played")
	}

	metrics.Get().RecordSubmission("played")

	return req.Reply(ctx,
		"# Registered this submission as played!\n"+
			"\n"+
			"You won't be assigned this submission in future exchanges.\n")
}
