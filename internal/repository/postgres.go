package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"

	"ratex/pkg/database"
	"ratex/pkg/domain"
	"ratex/pkg/logger"
	"ratex/pkg/telemetry"
)

// Снежинки Discord хранятся в TEXT: BIGINT не вмещает весь диапазон
// uint64, а арифметика над идентификаторами базе не нужна.
func formatSnowflake(id uint64) string {
	return strconv.FormatUint(id, 10)
}

func parseSnowflake(s string) (uint64, error) {
	return strconv.ParseUint(s, 10, 64)
}

// rowScanner общая часть pgx.Row и pgx.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanExchange(row rowScanner) (*domain.Exchange, error) {
	var (
		e       domain.Exchange
		guild   string
		channel string
		jamType string
		state   string
	)

	err := row.Scan(
		&e.ID,
		&guild,
		&channel,
		&jamType,
		&e.JamLink,
		&e.Slug,
		&e.DisplayName,
		&state,
		&e.SubmissionsStart,
		&e.SubmissionsEnd,
		&e.GamesPerMember,
	)
	if err != nil {
		return nil, err
	}

	if e.GuildID, err = parseSnowflake(guild); err != nil {
		return nil, fmt.Errorf("invalid guild id %q: %w", guild, err)
	}
	if e.ChannelID, err = parseSnowflake(channel); err != nil {
		return nil, fmt.Errorf("invalid channel id %q: %w", channel, err)
	}
	if e.JamType, err = domain.ParseJamType(jamType); err != nil {
		return nil, err
	}
	if e.State, err = domain.ParseExchangeState(state); err != nil {
		return nil, err
	}

	e.SubmissionsStart = e.SubmissionsStart.UTC()
	e.SubmissionsEnd = e.SubmissionsEnd.UTC()

	return &e, nil
}

func scanSubmission(row rowScanner) (*domain.Submission, error) {
	var (
		s         domain.Submission
		submitter string
	)

	err := row.Scan(&s.ID, &s.ExchangeID, &s.Link, &submitter, &s.SubmittedAt)
	if err != nil {
		return nil, err
	}

	if s.Submitter, err = parseSnowflake(submitter); err != nil {
		return nil, fmt.Errorf("invalid submitter id %q: %w", submitter, err)
	}
	s.SubmittedAt = s.SubmittedAt.UTC()

	return &s, nil
}

// PostgresExchangeRepository PostgreSQL реализация репозитория обменов
type PostgresExchangeRepository struct {
	db     database.DB
	events *changeBroadcaster
	log    *slog.Logger
}

// NewPostgresExchangeRepository создаёт новый репозиторий
func NewPostgresExchangeRepository(db database.DB) *PostgresExchangeRepository {
	return &PostgresExchangeRepository{
		db:     db,
		events: newChangeBroadcaster(),
		log:    logger.WithService("exchange-repository"),
	}
}

func (r *PostgresExchangeRepository) Create(ctx context.Context, create NewExchange) (*domain.Exchange, error) {
	ctx, span := telemetry.StartSpan(ctx, "PostgresExchangeRepository.Create")
	defer span.End()

	query := `
		INSERT INTO exchanges (
			guild_id, channel_id, jam_type, jam_link, slug,
			display_name, state, submissions_start, submissions_end,
			games_per_member
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING
			id, guild_id, channel_id, jam_type, jam_link, slug,
			display_name, state, submissions_start, submissions_end,
			games_per_member
	`

	end := create.Start.Add(create.Duration)

	exchange, err := database.WithTransactionResult(ctx, r.db, func(tx pgx.Tx) (*domain.Exchange, error) {
		row := tx.QueryRow(ctx, query,
			formatSnowflake(create.GuildID),
			formatSnowflake(create.ChannelID),
			create.JamType.String(),
			create.JamLink,
			create.Slug,
			create.DisplayName,
			domain.ExchangeStateNotStartedYet.String(),
			create.Start.UTC(),
			end.UTC(),
			create.GamesPerMember,
		)
		return scanExchange(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create exchange: %w", err)
	}

	r.events.Publish(ChangeEvent{
		Kind:    ChangeExchangeCreated,
		GuildID: exchange.GuildID,
		Slug:    exchange.Slug,
	})

	return exchange, nil
}

func (r *PostgresExchangeRepository) GetOverlapping(
	ctx context.Context,
	guildID, channelID uint64,
	slug string,
	start, end time.Time,
) ([]domain.Exchange, error) {
	ctx, span := telemetry.StartSpan(ctx, "PostgresExchangeRepository.GetOverlapping")
	defer span.End()

	query := `
		SELECT
			id, guild_id, channel_id, jam_type, jam_link, slug,
			display_name, state, submissions_start, submissions_end,
			games_per_member
		FROM exchanges
		WHERE guild_id = $1
			AND (
				(channel_id = $2 AND submissions_start < $5 AND submissions_end > $4)
				OR slug = $3
			)
		ORDER BY submissions_start, display_name
	`

	rows, err := r.db.Query(ctx, query,
		formatSnowflake(guildID),
		formatSnowflake(channelID),
		slug,
		start.UTC(),
		end.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query overlapping exchanges: %w", err)
	}
	defer rows.Close()

	return collectExchanges(rows)
}

func (r *PostgresExchangeRepository) GetRunning(
	ctx context.Context,
	guildID, channelID uint64,
	at time.Time,
) (*domain.Exchange, error) {
	ctx, span := telemetry.StartSpan(ctx, "PostgresExchangeRepository.GetRunning")
	defer span.End()

	query := `
		SELECT
			id, guild_id, channel_id, jam_type, jam_link, slug,
			display_name, state, submissions_start, submissions_end,
			games_per_member
		FROM exchanges
		WHERE guild_id = $1
			AND channel_id = $2
			AND state = $3
			AND submissions_start <= $4
			AND submissions_end > $4
		LIMIT 1
	`

	row := r.db.QueryRow(ctx, query,
		formatSnowflake(guildID),
		formatSnowflake(channelID),
		domain.ExchangeStateAcceptingSubmissions.String(),
		at.UTC(),
	)

	exchange, err := scanExchange(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get running exchange: %w", err)
	}

	return exchange, nil
}

func (r *PostgresExchangeRepository) GetBySlug(ctx context.Context, guildID uint64, slug string) (*domain.Exchange, error) {
	ctx, span := telemetry.StartSpan(ctx, "PostgresExchangeRepository.GetBySlug")
	defer span.End()

	query := `
		SELECT
			id, guild_id, channel_id, jam_type, jam_link, slug,
			display_name, state, submissions_start, submissions_end,
			games_per_member
		FROM exchanges
		WHERE guild_id = $1 AND slug = $2
		LIMIT 1
	`

	row := r.db.QueryRow(ctx, query, formatSnowflake(guildID), slug)

	exchange, err := scanExchange(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrExchangeNotFound
		}
		return nil, fmt.Errorf("failed to get exchange by slug: %w", err)
	}

	return exchange, nil
}

func (r *PostgresExchangeRepository) GetUpcoming(ctx context.Context, guildID uint64, after time.Time) ([]domain.Exchange, error) {
	ctx, span := telemetry.StartSpan(ctx, "PostgresExchangeRepository.GetUpcoming")
	defer span.End()

	query := `
		SELECT
			id, guild_id, channel_id, jam_type, jam_link, slug,
			display_name, state, submissions_start, submissions_end,
			games_per_member
		FROM exchanges
		WHERE guild_id = $1 AND submissions_end > $2
		ORDER BY submissions_start, display_name
	`

	rows, err := r.db.Query(ctx, query, formatSnowflake(guildID), after.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query upcoming exchanges: %w", err)
	}
	defer rows.Close()

	return collectExchanges(rows)
}

func (r *PostgresExchangeRepository) GetStarting(ctx context.Context, at time.Time) ([]domain.Exchange, error) {
	ctx, span := telemetry.StartSpan(ctx, "PostgresExchangeRepository.GetStarting")
	defer span.End()

	query := `
		SELECT
			id, guild_id, channel_id, jam_type, jam_link, slug,
			display_name, state, submissions_start, submissions_end,
			games_per_member
		FROM exchanges
		WHERE state = $1 AND submissions_start <= $2
		ORDER BY submissions_start
	`

	rows, err := r.db.Query(ctx, query, domain.ExchangeStateNotStartedYet.String(), at.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query starting exchanges: %w", err)
	}
	defer rows.Close()

	return collectExchanges(rows)
}

func (r *PostgresExchangeRepository) GetEnding(ctx context.Context, at time.Time) ([]domain.Exchange, error) {
	ctx, span := telemetry.StartSpan(ctx, "PostgresExchangeRepository.GetEnding")
	defer span.End()

	query := `
		SELECT
			id, guild_id, channel_id, jam_type, jam_link, slug,
			display_name, state, submissions_start, submissions_end,
			games_per_member
		FROM exchanges
		WHERE state = $1 AND submissions_end <= $2
		ORDER BY submissions_end
	`

	rows, err := r.db.Query(ctx, query, domain.ExchangeStateAcceptingSubmissions.String(), at.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query ending exchanges: %w", err)
	}
	defer rows.Close()

	return collectExchanges(rows)
}

func (r *PostgresExchangeRepository) ClosestEventTime(ctx context.Context) (*time.Time, error) {
	ctx, span := telemetry.StartSpan(ctx, "PostgresExchangeRepository.ClosestEventTime")
	defer span.End()

	query := `
		SELECT MIN(event_time) FROM (
			SELECT submissions_start AS event_time FROM exchanges WHERE state = $1
			UNION ALL
			SELECT submissions_end FROM exchanges WHERE state = $2
		) AS events
	`

	var closest *time.Time
	err := r.db.QueryRow(ctx, query,
		domain.ExchangeStateNotStartedYet.String(),
		domain.ExchangeStateAcceptingSubmissions.String(),
	).Scan(&closest)
	if err != nil {
		return nil, fmt.Errorf("failed to query closest event time: %w", err)
	}

	if closest == nil {
		return nil, nil
	}

	utc := closest.UTC()
	return &utc, nil
}

// CountAccepting возвращает число обменов, принимающих заявки
func (r *PostgresExchangeRepository) CountAccepting(ctx context.Context) (int, error) {
	ctx, span := telemetry.StartSpan(ctx, "PostgresExchangeRepository.CountAccepting")
	defer span.End()

	query := `SELECT count(*) FROM exchanges WHERE state = $1`

	var n int
	err := r.db.QueryRow(ctx, query, domain.ExchangeStateAcceptingSubmissions.String()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count accepting exchanges: %w", err)
	}

	return n, nil
}

func (r *PostgresExchangeRepository) UpdateState(ctx context.Context, id int64, state domain.ExchangeState) error {
	ctx, span := telemetry.StartSpan(ctx, "PostgresExchangeRepository.UpdateState")
	defer span.End()

	query := `UPDATE exchanges SET state = $2, updated_at = now() WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id, state.String())
	if err != nil {
		return fmt.Errorf("failed to update exchange state: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrExchangeNotFound
	}

	return nil
}

func (r *PostgresExchangeRepository) Delete(ctx context.Context, guildID uint64, slug string) (bool, error) {
	ctx, span := telemetry.StartSpan(ctx, "PostgresExchangeRepository.Delete")
	defer span.End()

	query := `DELETE FROM exchanges WHERE guild_id = $1 AND slug = $2`

	deleted, err := database.WithTransactionResult(ctx, r.db, func(tx pgx.Tx) (int64, error) {
		result, err := tx.Exec(ctx, query, formatSnowflake(guildID), slug)
		if err != nil {
			return 0, err
		}
		return result.RowsAffected(), nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete exchange: %w", err)
	}

	if deleted > 1 {
		r.log.Warn("deleted more than one exchange",
			"guild_id", guildID,
			"slug", slug,
			"rows", deleted,
		)
	}

	if deleted > 0 {
		r.events.Publish(ChangeEvent{
			Kind:    ChangeExchangeDeleted,
			GuildID: guildID,
			Slug:    slug,
		})
	}

	return deleted > 0, nil
}

func (r *PostgresExchangeRepository) Subscribe() <-chan ChangeEvent {
	return r.events.Subscribe()
}

func collectExchanges(rows pgx.Rows) ([]domain.Exchange, error) {
	var exchanges []domain.Exchange

	for rows.Next() {
		exchange, err := scanExchange(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan exchange: %w", err)
		}
		exchanges = append(exchanges, *exchange)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate exchanges: %w", err)
	}

	return exchanges, nil
}

// PostgresSubmissionRepository PostgreSQL реализация репозитория заявок
type PostgresSubmissionRepository struct {
	db database.DB
}

// NewPostgresSubmissionRepository создаёт новый репозиторий
func NewPostgresSubmissionRepository(db database.DB) *PostgresSubmissionRepository {
	return &PostgresSubmissionRepository{db: db}
}

func (r *PostgresSubmissionRepository) GetConflict(ctx context.Context, candidate NewSubmission) (*domain.Submission, error) {
	ctx, span := telemetry.StartSpan(ctx, "PostgresSubmissionRepository.GetConflict")
	defer span.End()

	query := `
		SELECT id, exchange_id, link, submitter, submitted_at
		FROM submissions
		WHERE exchange_id = $1 AND (submitter = $2 OR link = $3)
		LIMIT 1
	`

	row := r.db.QueryRow(ctx, query,
		candidate.ExchangeID,
		formatSnowflake(candidate.Submitter),
		candidate.Link,
	)

	submission, err := scanSubmission(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get conflicting submission: %w", err)
	}

	return submission, nil
}

func (r *PostgresSubmissionRepository) Upsert(ctx context.Context, submission NewSubmission) (*domain.Submission, error) {
	ctx, span := telemetry.StartSpan(ctx, "PostgresSubmissionRepository.Upsert")
	defer span.End()

	query := `
		INSERT INTO submissions (exchange_id, link, submitter)
		VALUES ($1, $2, $3)
		ON CONFLICT (exchange_id, submitter) DO UPDATE SET link = $2
		RETURNING id, exchange_id, link, submitter, submitted_at
	`

	row := r.db.QueryRow(ctx, query,
		submission.ExchangeID,
		submission.Link,
		formatSnowflake(submission.Submitter),
	)

	stored, err := scanSubmission(row)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert submission: %w", err)
	}

	return stored, nil
}

func (r *PostgresSubmissionRepository) Revoke(ctx context.Context, exchangeID int64, submitter uint64) (bool, error) {
	ctx, span := telemetry.StartSpan(ctx, "PostgresSubmissionRepository.Revoke")
	defer span.End()

	// EXISTS закрывает гонку с планировщиком: после закрытия обмена
	// заявку уже не отозвать.
	query := `
		DELETE FROM submissions
		WHERE exchange_id = $1
			AND submitter = $2
			AND EXISTS (
				SELECT 1 FROM exchanges
				WHERE exchanges.id = submissions.exchange_id
					AND exchanges.state = $3
			)
	`

	result, err := r.db.Exec(ctx, query,
		exchangeID,
		formatSnowflake(submitter),
		domain.ExchangeStateAcceptingSubmissions.String(),
	)
	if err != nil {
		return false, fmt.Errorf("failed to revoke submission: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

func (r *PostgresSubmissionRepository) ListForExchange(ctx context.Context, exchangeID int64) ([]domain.Submission, error) {
	ctx, span := telemetry.StartSpan(ctx, "PostgresSubmissionRepository.ListForExchange")
	defer span.End()

	query := `
		SELECT id, exchange_id, link, submitter, submitted_at
		FROM submissions
		WHERE exchange_id = $1
		ORDER BY id
	`

	rows, err := r.db.Query(ctx, query, exchangeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query submissions: %w", err)
	}
	defer rows.Close()

	var submissions []domain.Submission
	for rows.Next() {
		submission, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		submissions = append(submissions, *submission)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate submissions: %w", err)
	}

	return submissions, nil
}

// PostgresPlayedGameRepository PostgreSQL реализация репозитория
// сыгранных игр
type PostgresPlayedGameRepository struct {
	db database.DB
}

// NewPostgresPlayedGameRepository создаёт новый репозиторий
func NewPostgresPlayedGameRepository(db database.DB) *PostgresPlayedGameRepository {
	return &PostgresPlayedGameRepository{db: db}
}

func (r *PostgresPlayedGameRepository) Submit(ctx context.Context, member uint64, link string) error {
	ctx, span := telemetry.StartSpan(ctx, "PostgresPlayedGameRepository.Submit")
	defer span.End()

	query := `
		INSERT INTO played_games (member, link, is_manual)
		VALUES ($1, $2, TRUE)
		ON CONFLICT (member, link) DO NOTHING
	`

	if _, err := r.db.Exec(ctx, query, formatSnowflake(member), link); err != nil {
		return fmt.Errorf("failed to submit played game: %w", err)
	}

	return nil
}

func (r *PostgresPlayedGameRepository) ListForExchange(ctx context.Context, exchangeID int64) ([]domain.PlayedGame, error) {
	ctx, span := telemetry.StartSpan(ctx, "PostgresPlayedGameRepository.ListForExchange")
	defer span.End()

	query := `
		SELECT pg.id, pg.member, pg.link, pg.is_manual
		FROM played_games pg
		JOIN submissions s ON s.submitter = pg.member
		WHERE s.exchange_id = $1
		ORDER BY pg.id
	`

	rows, err := r.db.Query(ctx, query, exchangeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query played games: %w", err)
	}
	defer rows.Close()

	var games []domain.PlayedGame
	for rows.Next() {
		var (
			game   domain.PlayedGame
			member string
		)
		if err := rows.Scan(&game.ID, &member, &game.Link, &game.IsManual); err != nil {
			return nil, fmt.Errorf("failed to scan played game: %w", err)
		}
		if game.Member, err = parseSnowflake(member); err != nil {
			return nil, fmt.Errorf("invalid member id %q: %w", member, err)
		}
		games = append(games, game)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate played games: %w", err)
	}

	return games, nil
}
