package commands

import (
	"context"
	"errors"
	"fmt"

	"ratex/internal/discord"
	"ratex/internal/export"
	"ratex/internal/repository"
	"ratex/pkg/apperror"
	"ratex/pkg/domain"
	"ratex/pkg/logger"
)

// ExchangeReport собирает отчёт по обмену и прикладывает файл к
// эфемерному ответу. Для завершённых обменов раздача пересчитывается:
// на неизменных данных решатель детерминирован и даёт ту же раздачу,
// что была разослана.
func (h *Handlers) ExchangeReport(ctx context.Context, req *discord.Request) error {
	slug := req.String("slug")

	exchange, err := h.exchanges.GetBySlug(ctx, req.GuildID, slug)
	if err != nil {
		if errors.Is(err, repository.ErrExchangeNotFound) {
			return apperror.NewUserf(apperror.CodeExchangeNotFound,
				"Exchange with slug `%s` does not exist", slug)
		}
		return apperror.Wrap(err, apperror.CodeDatabase, "could not get the exchange")
	}

	submissions, err := h.submissions.ListForExchange(ctx, exchange.ID)
	if err != nil {
		return apperror.Wrap(err, apperror.CodeDatabase, "could not load submissions")
	}

	guildName, err := h.platform.GuildName(ctx, req.GuildID)
	if err != nil {
		logger.Log.Warn("Failed to resolve guild name for report",
			"guild_id", req.GuildID,
			"error", err,
		)
		guildName = discord.FormatSnowflake(req.GuildID)
	}

	data := &export.ReportData{
		Exchange:    exchange,
		GuildName:   guildName,
		Submissions: submissions,
		GeneratedAt: h.now().UTC(),
		MaxRows:     h.export.MaxRows,
	}

	if exchange.State == domain.ExchangeStateAssignmentsSent && len(submissions) > 0 {
		playedGames, err := h.played.ListForExchange(ctx, exchange.ID)
		if err != nil {
			return apperror.Wrap(err, apperror.CodeDatabase, "could not load played games")
		}

		result, err := h.engine.Run(ctx, exchange, submissions, domain.NewPlayedSet(playedGames))
		if err != nil {
			return apperror.Wrap(err, apperror.CodeInternal, "could not compute assignments for the report")
		}

		data.Assignments = result.Assignments
		data.Reviewers = result.Reviewers
		data.RunID = result.RunID
		data.MaxFlow = result.MaxFlow
	}

	generator, err := export.ForFormat(h.export.Format)
	if err != nil {
		return apperror.Wrap(err, apperror.CodeInvalidArgument, "unsupported report format")
	}

	payload, err := generator.Generate(ctx, data)
	if err != nil {
		return apperror.Wrap(err, apperror.CodeInternal, "could not generate the report")
	}

	filename := fmt.Sprintf("%s-report.%s", exchange.Slug, generator.Format())

	return req.ReplyFile(ctx, filename, payload,
		fmt.Sprintf("# Report for **%s**", exchange.DisplayName))
}
