// Package commands реализует обработчики slash-команд. Обработчики
// тонкие: разбор аргументов, вызовы репозиториев и форматирование
// ответов; состояниями обменов управляет только планировщик.
package commands

import (
	"fmt"
	"strings"
	"time"

	"ratex/internal/assignment"
	"ratex/internal/discord"
	"ratex/internal/repository"
	"ratex/pkg/config"
)

// Config зависимости обработчиков команд
type Config struct {
	Exchanges   repository.ExchangeRepository
	Submissions repository.SubmissionRepository
	Played      repository.PlayedGameRepository
	Platform    discord.Platform
	Engine      *assignment.Engine

	Export config.ExportConfig

	// ConfirmTimeout показывается в подтверждении создания обмена.
	// Должен совпадать с таймаутом Confirm у маршрутизатора.
	ConfirmTimeout time.Duration

	// Now источник времени, в тестах подменяется
	Now func() time.Time
}

// Handlers обработчики всех команд бота
type Handlers struct {
	exchanges   repository.ExchangeRepository
	submissions repository.SubmissionRepository
	played      repository.PlayedGameRepository
	platform    discord.Platform
	engine      *assignment.Engine

	export         config.ExportConfig
	confirmTimeout time.Duration
	now            func() time.Time
}

// New создаёт обработчики команд
func New(cfg Config) *Handlers {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.ConfirmTimeout <= 0 {
		cfg.ConfirmTimeout = 5 * time.Minute
	}
	return &Handlers{
		exchanges:      cfg.Exchanges,
		submissions:    cfg.Submissions,
		played:         cfg.Played,
		platform:       cfg.Platform,
		engine:         cfg.Engine,
		export:         cfg.Export,
		confirmTimeout: cfg.ConfirmTimeout,
		now:            cfg.Now,
	}
}

// Route регистрирует обработчики в маршрутизаторе
func (h *Handlers) Route(mux *discord.Mux) {
	mux.Handle("exchange create", h.ExchangeCreate)
	mux.Handle("exchange list", h.ExchangeList)
	mux.Handle("exchange delete", h.ExchangeDelete)
	mux.Handle("exchange report", h.ExchangeReport)
	mux.Handle("submit", h.Submit)
	mux.Handle("revoke", h.Revoke)
	mux.Handle("played", h.Played)
	mux.Handle("help", h.Help)
}

// formatDuration печатает длительность компактно, без нулевых
// компонентов: "1d", "1h30m", "2m59s".
func formatDuration(d time.Duration) string {
	neg := d < 0
	if neg {
		d = -d
	}

	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	d -= minutes * time.Minute
	seconds := d / time.Second

	if days == 0 && hours == 0 && minutes == 0 && seconds == 0 {
		return "0s"
	}

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	if days > 0 {
		fmt.Fprintf(&b, "%dd", days)
	}
	if hours > 0 {
		fmt.Fprintf(&b, "%dh", hours)
	}
	if minutes > 0 {
		fmt.Fprintf(&b, "%dm", minutes)
	}
	if seconds > 0 {
		fmt.Fprintf(&b, "%ds", seconds)
	}
	return b.String()
}
