// Package audit records organizer-facing actions: who invoked which
// command, where, against which resource, and how it ended. Entries are
// JSON lines written by a pluggable backend; a failed write is logged
// and never fails the command itself.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Action classifies what an audit entry records.
type Action string

const (
	// ActionCreate records creation of an exchange.
	ActionCreate Action = "CREATE"
	// ActionRead records list and help style lookups.
	ActionRead Action = "READ"
	// ActionDelete records deletion of an exchange.
	ActionDelete Action = "DELETE"
	// ActionSubmit records a submission or a played-game registration.
	ActionSubmit Action = "SUBMIT"
	// ActionRevoke records a submission withdrawal.
	ActionRevoke Action = "REVOKE"
	// ActionAssign records an assignment distribution run.
	ActionAssign Action = "ASSIGN"
	// ActionExport records report generation.
	ActionExport Action = "EXPORT"
)

// Outcome is how the recorded action ended.
type Outcome string

const (
	// OutcomeSuccess marks a completed action.
	OutcomeSuccess Outcome = "SUCCESS"
	// OutcomeFailure marks an action that failed with an internal error.
	OutcomeFailure Outcome = "FAILURE"
	// OutcomeDenied marks an action rejected as user error or cooldown.
	OutcomeDenied Outcome = "DENIED"
)

// Entry is a single audit record. Snowflake identifiers are kept as
// decimal strings so the JSON survives readers that parse numbers as
// float64.
type Entry struct {
	ID           string         `json:"id"`
	Timestamp    time.Time      `json:"timestamp"`
	Service      string         `json:"service"`
	Method       string         `json:"method"`
	Action       Action         `json:"action"`
	Outcome      Outcome        `json:"outcome"`
	UserID       string         `json:"user_id,omitempty"`
	Username     string         `json:"username,omitempty"`
	GuildID      string         `json:"guild_id,omitempty"`
	ChannelID    string         `json:"channel_id,omitempty"`
	Resource     string         `json:"resource,omitempty"`
	ResourceID   string         `json:"resource_id,omitempty"`
	DurationMs   int64          `json:"duration_ms"`
	ErrorCode    string         `json:"error_code,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// Logger is a backend that persists audit entries.
type Logger interface {
	// Log records one entry.
	Log(ctx context.Context, entry *Entry) error

	// Close flushes buffered entries and releases resources.
	Close() error
}

// Config mirrors the audit section of the bot configuration.
type Config struct {
	Enabled     bool          `koanf:"enabled"`
	Backend     string        `koanf:"backend"`
	FilePath    string        `koanf:"file_path"`
	BufferSize  int           `koanf:"buffer_size"`
	FlushPeriod time.Duration `koanf:"flush_period"`
}

// DefaultConfig returns the stdout backend with a small async buffer.
func DefaultConfig() *Config {
	return &Config{
		Enabled:     true,
		Backend:     "stdout",
		BufferSize:  1000,
		FlushPeriod: 5 * time.Second,
	}
}

// Builder assembles an Entry field by field.
type Builder struct {
	entry *Entry
}

// NewEntry starts a builder stamped with the current time.
func NewEntry() *Builder {
	return &Builder{
		entry: &Entry{
			Timestamp: time.Now(),
			Metadata:  make(map[string]any),
		},
	}
}

// Service sets the emitting service name.
func (b *Builder) Service(s string) *Builder {
	b.entry.Service = s
	return b
}

// Method sets the invoked command or internal operation.
func (b *Builder) Method(m string) *Builder {
	b.entry.Method = m
	return b
}

// Action sets the action class.
func (b *Builder) Action(a Action) *Builder {
	b.entry.Action = a
	return b
}

// Outcome sets how the action ended.
func (b *Builder) Outcome(o Outcome) *Builder {
	b.entry.Outcome = o
	return b
}

// User sets who performed the action. Empty for actions the bot
// performs on schedule.
func (b *Builder) User(id, username string) *Builder {
	b.entry.UserID = id
	b.entry.Username = username
	return b
}

// Origin sets the guild and channel the action came from.
func (b *Builder) Origin(guildID, channelID string) *Builder {
	b.entry.GuildID = guildID
	b.entry.ChannelID = channelID
	return b
}

// Resource sets the affected resource type and its identifier, e.g.
// ("exchange", slug) or ("submission", link).
func (b *Builder) Resource(resource, resourceID string) *Builder {
	b.entry.Resource = resource
	b.entry.ResourceID = resourceID
	return b
}

// Duration sets how long the action took.
func (b *Builder) Duration(d time.Duration) *Builder {
	b.entry.DurationMs = d.Milliseconds()
	return b
}

// Error sets the error code and message for failed actions.
func (b *Builder) Error(code, message string) *Builder {
	b.entry.ErrorCode = code
	b.entry.ErrorMessage = message
	return b
}

// Meta attaches an arbitrary key-value pair.
func (b *Builder) Meta(key string, value any) *Builder {
	b.entry.Metadata[key] = value
	return b
}

// Build finalizes the entry, assigning an id when none was set.
func (b *Builder) Build() *Entry {
	if b.entry.ID == "" {
		b.entry.ID = uuid.NewString()
	}
	return b.entry
}
