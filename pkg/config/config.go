// pkg/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config - главная структура конфигурации
type Config struct {
	App       AppConfig       `koanf:"app"`
	Log       LogConfig       `koanf:"log"`
	Metrics   MetricsConfig   `koanf:"metrics"`
	Tracing   TracingConfig   `koanf:"tracing"`
	Database  DatabaseConfig  `koanf:"database"`
	Discord   DiscordConfig   `koanf:"discord"`
	Scheduler SchedulerConfig `koanf:"scheduler"`
	Cache     CacheConfig     `koanf:"cache"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Audit     AuditConfig     `koanf:"audit"`
	Export    ExportConfig    `koanf:"export"`
}

// AppConfig - общие настройки приложения
type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"` // development, staging, production
	Debug       bool   `koanf:"debug"`
}

// LogConfig - настройки логирования
type LogConfig struct {
	Level      string `koanf:"level"`       // debug, info, warn, error
	Format     string `koanf:"format"`      // json, text
	Output     string `koanf:"output"`      // stdout, stderr, file
	FilePath   string `koanf:"file_path"`   // путь к файлу логов
	MaxSize    int    `koanf:"max_size"`    // MB
	MaxBackups int    `koanf:"max_backups"` // количество бэкапов
	MaxAge     int    `koanf:"max_age"`     // дней
	Compress   bool   `koanf:"compress"`
}

// MetricsConfig - настройки Prometheus метрик
type MetricsConfig struct {
	Enabled   bool   `koanf:"enabled"`
	Port      int    `koanf:"port"`
	Path      string `koanf:"path"`
	Namespace string `koanf:"namespace"`
	Subsystem string `koanf:"subsystem"`
}

// TracingConfig - настройки OpenTelemetry
type TracingConfig struct {
	Enabled     bool    `koanf:"enabled"`
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	SampleRate  float64 `koanf:"sample_rate"`
}

// DatabaseConfig - настройки базы данных.
// URL (из DATABASE_URL) имеет приоритет над отдельными полями.
type DatabaseConfig struct {
	Driver          string        `koanf:"driver"` // postgres
	URL             string        `koanf:"url"`
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Database        string        `koanf:"database"`
	Username        string        `koanf:"username"`
	Password        string        `koanf:"password"`
	SSLMode         string        `koanf:"ssl_mode"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
	AutoMigrate     bool          `koanf:"auto_migrate"`
}

// DSN возвращает строку подключения
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.Username, d.Password, d.Host, d.Port, d.Database, d.SSLMode,
	)
}

// DiscordConfig - настройки Discord бота
type DiscordConfig struct {
	Token                    string   `koanf:"token"`
	RegisterCommandsGlobally bool     `koanf:"register_commands_globally"`
	RegisterCommandsInGuilds []uint64 `koanf:"register_commands_in_guilds"`
}

// SchedulerConfig - настройки планировщика exchange
type SchedulerConfig struct {
	// StartThreshold - допустимое опоздание к submissions_start, после
	// которого exchange помечается MissedByBot.
	StartThreshold time.Duration `koanf:"start_threshold"`
	// EndThreshold - то же для submissions_end.
	EndThreshold time.Duration `koanf:"end_threshold"`
	// DefaultSleep - максимальный сон цикла при отсутствии запланированных событий.
	DefaultSleep time.Duration `koanf:"default_sleep"`
	// ConfirmTimeout - таймаут ожидания подтверждения в admin-командах.
	ConfirmTimeout time.Duration `koanf:"confirm_timeout"`
}

// CacheConfig - настройки кэширования
type CacheConfig struct {
	Enabled    bool          `koanf:"enabled"`
	Driver     string        `koanf:"driver"` // redis, memory
	Host       string        `koanf:"host"`
	Port       int           `koanf:"port"`
	Password   string        `koanf:"password"`
	DB         int           `koanf:"db"`
	DefaultTTL time.Duration `koanf:"default_ttl"`
	MaxEntries int           `koanf:"max_entries"` // для in-memory
}

// Address возвращает адрес кэша
func (c CacheConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RateLimitConfig конфигурация командных cooldown
type RateLimitConfig struct {
	Enabled         bool          `koanf:"enabled"`
	Requests        int           `koanf:"requests"`
	Window          time.Duration `koanf:"window"`
	Strategy        string        `koanf:"strategy"`
	Backend         string        `koanf:"backend"`
	BurstSize       int           `koanf:"burst_size"`
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
	RedisAddr       string        `koanf:"redis_addr"`
}

// AuditConfig конфигурация аудит лога
type AuditConfig struct {
	Enabled     bool          `koanf:"enabled"`
	Backend     string        `koanf:"backend"`
	FilePath    string        `koanf:"file_path"`
	BufferSize  int           `koanf:"buffer_size"`
	FlushPeriod time.Duration `koanf:"flush_period"`
}

// ExportConfig конфигурация выгрузки отчётов
type ExportConfig struct {
	Format  string `koanf:"format"` // xlsx, pdf
	MaxRows int    `koanf:"max_rows"`
}

// Validate проверяет конфигурацию
func (c *Config) Validate() error {
	var errs []string

	if c.App.Name == "" {
		errs = append(errs, "app.name is required")
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, fmt.Sprintf("log.level must be one of: debug, info, warn, error, got %s", c.Log.Level))
	}

	if c.Discord.Token == "" {
		errs = append(errs, "discord.token is required (set DISCORD_BOT_TOKEN)")
	}

	if c.Database.URL == "" && (c.Database.Host == "" || c.Database.Database == "") {
		errs = append(errs, "database.url is required (set DATABASE_URL)")
	}

	if c.Scheduler.StartThreshold <= 0 {
		errs = append(errs, "scheduler.start_threshold must be positive")
	}
	if c.Scheduler.EndThreshold <= 0 {
		errs = append(errs, "scheduler.end_threshold must be positive")
	}
	if c.Scheduler.DefaultSleep <= 0 {
		errs = append(errs, "scheduler.default_sleep must be positive")
	}

	validStrategies := map[string]bool{"token_bucket": true, "sliding_window": true}
	if c.RateLimit.Enabled && !validStrategies[c.RateLimit.Strategy] {
		errs = append(errs, fmt.Sprintf("rate_limit.strategy must be one of: token_bucket, sliding_window, got %s", c.RateLimit.Strategy))
	}

	validFormats := map[string]bool{"xlsx": true, "pdf": true}
	if c.Export.Format != "" && !validFormats[c.Export.Format] {
		errs = append(errs, fmt.Sprintf("export.format must be one of: xlsx, pdf, got %s", c.Export.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return nil
}

// IsDevelopment проверяет режим разработки
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development" || c.App.Environment == "dev"
}

// IsProduction проверяет продакшн режим
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production" || c.App.Environment == "prod"
}
