package discord

import (
	"context"
	"fmt"
	"runtime/debug"
	"strconv"
	"sync"
	"time"

	"ratex/pkg/apperror"
	"ratex/pkg/audit"
	"ratex/pkg/logger"
	"ratex/pkg/metrics"
	"ratex/pkg/ratelimit"
	"ratex/pkg/telemetry"
)

// Handler обрабатывает одно slash-взаимодействие
type Handler func(ctx context.Context, req *Request) error

// Middleware оборачивает обработчик сквозной логикой
type Middleware func(Handler) Handler

// MiddlewareConfig конфигурация цепочки middleware команд
type MiddlewareConfig struct {
	EnableTracing bool
	EnableAudit   bool
	Limits        *ratelimit.CommandLimits
	AuditLogger   audit.Logger
	AuditExclude  map[string]bool
}

// CommandMiddleware возвращает цепочку middleware обработчиков команд
func CommandMiddleware(cfg *MiddlewareConfig) Middleware {
	mw := []Middleware{
		Recovery(),
	}

	// Cooldown (первым после recovery)
	if cfg.Limits != nil {
		mw = append(mw, Cooldown(cfg.Limits))
	}

	// Tracing
	if cfg.EnableTracing {
		mw = append(mw, Tracing())
	}

	// Metrics
	mw = append(mw, Metrics())

	// Logging
	mw = append(mw, Logging())

	// Audit (последним, чтобы логировать результат)
	if cfg.EnableAudit && cfg.AuditLogger != nil {
		mw = append(mw, Audit(&AuditConfig{
			ServiceName:     "ratex",
			ExcludeCommands: cfg.AuditExclude,
			Logger:          cfg.AuditLogger,
		}))
	}

	return Chain(mw...)
}

// Chain объединяет middleware в одну обёртку
func Chain(mw ...Middleware) Middleware {
	return func(h Handler) Handler {
		for i := len(mw) - 1; i >= 0; i-- {
			h = mw[i](h)
		}
		return h
	}
}

// Recovery перехватывает панику обработчика и превращает её во
// внутреннюю ошибку, чтобы один сломанный обработчик не ронял бота
func Recovery() Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, req *Request) (err error) {
			defer func() {
				if r := recover(); r != nil {
					logger.Log.Error("Panic in command handler",
						"command", req.Command,
						"panic", fmt.Sprint(r),
						"stack", string(debug.Stack()),
					)
					err = apperror.New(apperror.CodeInternal, fmt.Sprintf("panic in command handler: %v", r))
				}
			}()
			return next(ctx, req)
		}
	}
}

// Cooldown ограничивает частоту вызова команд. Лимит считается на
// пару команда+участник; при ошибке проверки запрос пропускается
// (fail open).
func Cooldown(limits *ratelimit.CommandLimits) Middleware {
	var mu sync.Mutex
	limiters := make(map[string]ratelimit.Limiter)

	limiterFor := func(command string) (ratelimit.Limiter, error) {
		mu.Lock()
		defer mu.Unlock()
		if l, ok := limiters[command]; ok {
			return l, nil
		}
		l, err := ratelimit.New(limits.Get(command))
		if err != nil {
			return nil, err
		}
		limiters[command] = l
		return l, nil
	}

	return func(next Handler) Handler {
		return func(ctx context.Context, req *Request) error {
			limiter, err := limiterFor(req.Command)
			if err != nil {
				logger.Log.Warn("Cooldown limiter unavailable", "error", err, "command", req.Command)
				return next(ctx, req)
			}

			key := ratelimit.CooldownKey(req.Command, req.UserID)

			allowed, err := limiter.Allow(ctx, key)
			if err != nil {
				logger.Log.Warn("Cooldown check failed", "error", err, "key", key)
				return next(ctx, req)
			}

			if !allowed {
				metrics.Get().RecordCooldownHit(req.Command)

				retryAfter := time.Minute
				if info, infoErr := limiter.GetInfo(ctx, key); infoErr == nil && info != nil {
					switch {
					case info.RetryAfter > 0:
						retryAfter = info.RetryAfter
					case !info.ResetAt.IsZero():
						retryAfter = time.Until(info.ResetAt)
					}
				}
				if retryAfter < time.Second {
					retryAfter = time.Second
				}

				return apperror.NewUserf(apperror.CodeCooldown,
					"Sorry, you're too fast. Please try again in %d s.", int64(retryAfter.Seconds()))
			}

			return next(ctx, req)
		}
	}
}

// Tracing открывает span на время обработки команды
func Tracing() Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, req *Request) error {
			return telemetry.WithCommandSpan(ctx, req.Command, req.UserID, func(ctx context.Context) error {
				return next(ctx, req)
			})
		}
	}
}

// Metrics записывает метрики выполнения команд
func Metrics() Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, req *Request) error {
			start := time.Now()

			err := next(ctx, req)

			status := "ok"
			switch {
			case err == nil:
			case apperror.IsUserError(err):
				status = "user_error"
			default:
				status = "error"
			}

			metrics.Get().RecordCommand(req.Command, status, time.Since(start))

			return err
		}
	}
}

// Logging логирует выполнение команд. Пользовательские ошибки не
// считаются сбоями и пишутся уровнем debug.
func Logging() Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, req *Request) error {
			start := time.Now()

			err := next(ctx, req)

			duration := time.Since(start)
			log := logger.WithCommand(req.Command, req.UserID)

			switch {
			case err == nil:
				log.Info("Command completed",
					"guild_id", req.GuildID,
					"channel_id", req.ChannelID,
					"duration_ms", duration.Milliseconds(),
				)
			case apperror.IsUserError(err):
				log.Debug("Command rejected",
					"guild_id", req.GuildID,
					"channel_id", req.ChannelID,
					"duration_ms", duration.Milliseconds(),
					"reason", err.Error(),
				)
			default:
				log.Error("Command failed",
					"guild_id", req.GuildID,
					"channel_id", req.ChannelID,
					"duration_ms", duration.Milliseconds(),
					"error", err.Error(),
				)
			}

			return err
		}
	}
}

// AuditConfig конфигурация аудит middleware
type AuditConfig struct {
	ServiceName     string
	ExcludeCommands map[string]bool
	Logger          audit.Logger
}

// commandActions сопоставляет командам вид действия в аудит логе
var commandActions = map[string]audit.Action{
	"exchange create": audit.ActionCreate,
	"exchange list":   audit.ActionRead,
	"exchange delete": audit.ActionDelete,
	"exchange report": audit.ActionExport,
	"submit":          audit.ActionSubmit,
	"revoke":          audit.ActionRevoke,
	"played":          audit.ActionSubmit,
	"help":            audit.ActionRead,
}

// Audit пишет аудит запись по каждой команде
func Audit(cfg *AuditConfig) Middleware {
	if cfg.Logger == nil {
		cfg.Logger = audit.Get()
	}

	return func(next Handler) Handler {
		return func(ctx context.Context, req *Request) error {
			if cfg.ExcludeCommands != nil && cfg.ExcludeCommands[req.Command] {
				return next(ctx, req)
			}

			start := time.Now()

			err := next(ctx, req)

			action, ok := commandActions[req.Command]
			if !ok {
				action = audit.ActionRead
			}

			builder := audit.NewEntry().
				Service(cfg.ServiceName).
				Method(req.Command).
				Action(action).
				User(strconv.FormatUint(req.UserID, 10), req.Username).
				Origin(strconv.FormatUint(req.GuildID, 10), strconv.FormatUint(req.ChannelID, 10)).
				Duration(time.Since(start))

			switch {
			case err == nil:
				builder.Outcome(audit.OutcomeSuccess)
			case apperror.IsUserError(err):
				builder.Outcome(audit.OutcomeDenied).
					Error(string(apperror.Code(err)), err.Error())
			default:
				builder.Outcome(audit.OutcomeFailure).
					Error(string(apperror.Code(err)), err.Error())
			}

			entry := builder.Build()

			// Асинхронно логируем
			go func() {
				if logErr := cfg.Logger.Log(context.Background(), entry); logErr != nil {
					logger.Log.Warn("Failed to write audit log", "error", logErr)
				}
			}()

			return err
		}
	}
}
