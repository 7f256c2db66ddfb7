package ratelimit

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"
)

// Стандартные ошибки
var (
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	ErrLimiterClosed     = errors.New("limiter is closed")
)

// Limiter интерфейс ограничителя запросов
type Limiter interface {
	// Allow проверяет, разрешён ли запрос
	Allow(ctx context.Context, key string) (bool, error)

	// AllowN проверяет, разрешены ли n запросов
	AllowN(ctx context.Context, key string, n int) (bool, error)

	// Wait блокирует до получения разрешения
	Wait(ctx context.Context, key string) error

	// Reset сбрасывает лимит для ключа
	Reset(ctx context.Context, key string) error

	// GetInfo возвращает информацию о текущем состоянии
	GetInfo(ctx context.Context, key string) (*LimitInfo, error)

	// Close закрывает лимитер
	Close() error
}

// LimitInfo информация о состоянии лимита
type LimitInfo struct {
	Limit      int           `json:"limit"`
	Remaining  int           `json:"remaining"`
	ResetAt    time.Time     `json:"reset_at"`
	RetryAfter time.Duration `json:"retry_after,omitempty"`
}

// Config конфигурация rate limiter
type Config struct {
	// Requests количество запросов
	Requests int `koanf:"requests"`

	// Window временное окно
	Window time.Duration `koanf:"window"`

	// Strategy стратегия (sliding_window, token_bucket)
	Strategy string `koanf:"strategy"`

	// Backend хранилище (memory, redis)
	Backend string `koanf:"backend"`

	// BurstSize размер burst для token bucket
	BurstSize int `koanf:"burst_size"`

	// CleanupInterval интервал очистки для in-memory
	CleanupInterval time.Duration `koanf:"cleanup_interval"`

	// Redis настройки Redis
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() *Config {
	return &Config{
		Requests:        10,
		Window:          time.Minute,
		Strategy:        "sliding_window",
		Backend:         "memory",
		BurstSize:       5,
		CleanupInterval: 5 * time.Minute,
	}
}

// New создаёт лимитер на основе конфигурации
func New(cfg *Config) (Limiter, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	switch cfg.Backend {
	case "redis":
		return NewRedisLimiter(cfg)
	case "memory", "":
		return NewMemoryLimiter(cfg), nil
	default:
		return NewMemoryLimiter(cfg), nil
	}
}

// CooldownKey возвращает ключ cooldown для пары команда+пользователь.
// Cooldown считается отдельно для каждой команды каждого пользователя.
func CooldownKey(command string, userID uint64) string {
	return command + ":" + strconv.FormatUint(userID, 10)
}

// CommandLimits лимиты по командам
type CommandLimits struct {
	mu            sync.RWMutex
	commands      map[string]*Config
	defaultConfig *Config
}

// NewCommandLimits создаёт конфигурацию лимитов команд
func NewCommandLimits(defaultCfg *Config) *CommandLimits {
	if defaultCfg == nil {
		defaultCfg = DefaultConfig()
	}
	return &CommandLimits{
		commands:      make(map[string]*Config),
		defaultConfig: defaultCfg,
	}
}

// Set устанавливает лимит для команды
func (r *CommandLimits) Set(command string, cfg *Config) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[command] = cfg
}

// Get возвращает конфигурацию для команды
func (r *CommandLimits) Get(command string) *Config {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if cfg, ok := r.commands[command]; ok {
		return cfg
	}
	return r.defaultConfig
}
