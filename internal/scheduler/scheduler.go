// Package scheduler ведёт жизненный цикл обменов: открывает приём
// заявок, закрывает его и рассылает раздачу в лички. Цикл спит до
// ближайшего запланированного перехода и просыпается раньше по
// событиям об административных изменениях расписания.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ratex/internal/assignment"
	"ratex/internal/discord"
	"ratex/internal/repository"
	"ratex/pkg/domain"
	"ratex/pkg/logger"
	"ratex/pkg/metrics"
	"ratex/pkg/telemetry"
)

// retrySleep пауза перед повтором после ошибки чтения расписания
const retrySleep = time.Minute

// Config зависимости и настройки планировщика
type Config struct {
	Exchanges   repository.ExchangeRepository
	Submissions repository.SubmissionRepository
	Played      repository.PlayedGameRepository
	Platform    discord.Platform
	Engine      *assignment.Engine

	// StartThreshold допустимое опоздание к началу приёма: позже
	// обмен помечается MissedByBot и не объявляется.
	StartThreshold time.Duration
	// EndThreshold то же для конца приёма.
	EndThreshold time.Duration
	// DefaultSleep максимальный сон цикла.
	DefaultSleep time.Duration

	// Now источник времени, в тестах подменяется
	Now func() time.Time
}

// Scheduler фоновый цикл переходов состояний обменов
type Scheduler struct {
	exchanges   repository.ExchangeRepository
	submissions repository.SubmissionRepository
	played      repository.PlayedGameRepository
	platform    discord.Platform
	engine      *assignment.Engine

	startThreshold time.Duration
	endThreshold   time.Duration
	defaultSleep   time.Duration

	changes <-chan repository.ChangeEvent
	now     func() time.Time
	log     *slog.Logger
}

// New создаёт планировщик. Нулевые пороги и сон заменяются часом.
func New(cfg Config) *Scheduler {
	if cfg.StartThreshold <= 0 {
		cfg.StartThreshold = time.Hour
	}
	if cfg.EndThreshold <= 0 {
		cfg.EndThreshold = time.Hour
	}
	if cfg.DefaultSleep <= 0 {
		cfg.DefaultSleep = time.Hour
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Scheduler{
		exchanges:      cfg.Exchanges,
		submissions:    cfg.Submissions,
		played:         cfg.Played,
		platform:       cfg.Platform,
		engine:         cfg.Engine,
		startThreshold: cfg.StartThreshold,
		endThreshold:   cfg.EndThreshold,
		defaultSleep:   cfg.DefaultSleep,
		// Подписка оформляется сразу: изменение расписания между New и
		// Run не должно потеряться.
		changes: cfg.Exchanges.Subscribe(),
		now:     cfg.Now,
		log:     logger.WithService("scheduler"),
	}
}

// Run крутит цикл до отмены контекста. Первый тик выполняется сразу:
// после перезапуска могли накопиться просроченные переходы.
func (s *Scheduler) Run(ctx context.Context) error {
	timer := time.NewTimer(0)
	defer timer.Stop()

	s.log.Info("Scheduler started",
		"start_threshold", s.startThreshold,
		"end_threshold", s.endThreshold,
		"default_sleep", s.defaultSleep,
	)

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Scheduler stopped")
			return ctx.Err()

		case <-timer.C:
			metrics.Get().RecordSchedulerTick("timer")
			s.tick(ctx)

		case event := <-s.changes:
			// Изменение расписания только переставляет будильник:
			// сами переходы выполняет очередной тик.
			metrics.Get().RecordSchedulerTick("change")
			s.log.Debug("Exchange schedule changed",
				"kind", string(event.Kind),
				"guild_id", event.GuildID,
				"slug", event.Slug,
			)
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		}

		timer.Reset(s.sleepUntilNext(ctx))
	}
}

// tick выполняет просроченные переходы и обновляет метрику активных
// обменов
func (s *Scheduler) tick(ctx context.Context) {
	err := telemetry.WithOperationSpan(ctx, "scheduler.tick", func(ctx context.Context) error {
		now := s.now().UTC()
		if err := s.announceOpenings(ctx, now); err != nil {
			return err
		}
		return s.closeExchanges(ctx, now)
	})
	if err != nil {
		s.log.Error("Scheduler tick failed", "error", err)
	}

	accepting, err := s.exchanges.CountAccepting(ctx)
	if err != nil {
		s.log.Warn("Failed to count accepting exchanges", "error", err)
		return
	}
	metrics.Get().SetActiveExchanges(accepting)
}

func (s *Scheduler) announceOpenings(ctx context.Context, now time.Time) error {
	starting, err := s.exchanges.GetStarting(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to query starting exchanges: %w", err)
	}

	for i := range starting {
		s.openExchange(ctx, &starting[i], now)
	}
	return nil
}

// openExchange объявляет открытие приёма и переводит обмен в
// AcceptingSubmissions. Переход только после успешной отправки:
// открытый, но не объявленный обмен участники не найдут.
func (s *Scheduler) openExchange(ctx context.Context, exchange *domain.Exchange, now time.Time) {
	log := logger.WithExchange(exchange.ID, exchange.Slug)

	if late := now.Sub(exchange.SubmissionsStart); late > s.startThreshold {
		log.Warn("Missed submissions start",
			"submissions_start", exchange.SubmissionsStart,
			"late_by", late,
		)
		s.transition(ctx, exchange, domain.ExchangeStateMissedByBot)
		return
	}

	if err := s.platform.SendChannelMessage(ctx, exchange.ChannelID, openingMessage(exchange)); err != nil {
		// Обмен остаётся NotStartedYet, следующий тик попробует снова
		log.Error("Failed to announce exchange opening", "error", err)
		return
	}

	s.transition(ctx, exchange, domain.ExchangeStateAcceptingSubmissions)
	log.Info("Exchange opened", "submissions_end", exchange.SubmissionsEnd)
}

func (s *Scheduler) closeExchanges(ctx context.Context, now time.Time) error {
	ending, err := s.exchanges.GetEnding(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to query ending exchanges: %w", err)
	}

	for i := range ending {
		s.closeExchange(ctx, &ending[i], now)
	}
	return nil
}

func (s *Scheduler) closeExchange(ctx context.Context, exchange *domain.Exchange, now time.Time) {
	log := logger.WithExchange(exchange.ID, exchange.Slug)

	if late := now.Sub(exchange.SubmissionsEnd); late > s.endThreshold {
		log.Warn("Missed submissions end",
			"submissions_end", exchange.SubmissionsEnd,
			"late_by", late,
		)
		s.transition(ctx, exchange, domain.ExchangeStateMissedByBot)
		return
	}

	if err := s.sendAssignments(ctx, exchange); err != nil {
		log.Error("Assignment run failed", "error", err)
		s.transition(ctx, exchange, domain.ExchangeStateAssignmentError)
		return
	}

	s.transition(ctx, exchange, domain.ExchangeStateAssignmentsSent)
	log.Info("Exchange closed")
}

// sendAssignments считает раздачу и доставляет её в лички. Ошибка
// отдельной лички не отменяет раздачу: остальные участники своё уже
// получили, а адресат с закрытыми личками увидит результат в отчёте.
func (s *Scheduler) sendAssignments(ctx context.Context, exchange *domain.Exchange) error {
	submissions, err := s.submissions.ListForExchange(ctx, exchange.ID)
	if err != nil {
		return fmt.Errorf("failed to list submissions: %w", err)
	}

	playedGames, err := s.played.ListForExchange(ctx, exchange.ID)
	if err != nil {
		return fmt.Errorf("failed to list played games: %w", err)
	}

	result, err := s.engine.Run(ctx, exchange, submissions, domain.NewPlayedSet(playedGames))
	if err != nil {
		return err
	}

	log := logger.WithExchange(exchange.ID, exchange.Slug)
	for _, reviewer := range result.Reviewers {
		message := assignmentMessage(exchange, result.Assignments[reviewer])
		if err := s.platform.SendDirectMessage(ctx, reviewer, message); err != nil {
			log.Error("Failed to deliver assignments", "member", reviewer, "error", err)
		}
	}

	if err := s.platform.SendChannelMessage(ctx, exchange.ChannelID, closingMessage(exchange)); err != nil {
		// Раздача уже в личках: закрытие фиксируем и без объявления
		log.Error("Failed to announce exchange closing", "error", err)
	}

	return nil
}

// transition переводит обмен в новое состояние и пишет метрику
// перехода. Ошибка записи оставляет обмен в прежнем состоянии до
// следующего тика.
func (s *Scheduler) transition(ctx context.Context, exchange *domain.Exchange, to domain.ExchangeState) {
	if err := s.exchanges.UpdateState(ctx, exchange.ID, to); err != nil {
		logger.WithExchange(exchange.ID, exchange.Slug).Error("Failed to update exchange state",
			"from", exchange.State.String(),
			"to", to.String(),
			"error", err,
		)
		return
	}

	metrics.Get().RecordTransition(exchange.State.String(), to.String())
	exchange.State = to
}

// sleepUntilNext возвращает время сна до ближайшего перехода, но не
// больше defaultSleep
func (s *Scheduler) sleepUntilNext(ctx context.Context) time.Duration {
	next, err := s.exchanges.ClosestEventTime(ctx)
	if err != nil {
		s.log.Error("Failed to query next transition time", "error", err)
		return retrySleep
	}
	if next == nil {
		return s.defaultSleep
	}

	sleep := next.Sub(s.now())
	switch {
	case sleep < 0:
		return 0
	case sleep > s.defaultSleep:
		return s.defaultSleep
	}
	return sleep
}
