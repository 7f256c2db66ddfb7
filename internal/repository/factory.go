package repository

import (
	"context"
	"fmt"

	"ratex/pkg/config"
	"ratex/pkg/database"
)

// RepositoryType тип хранилища
type RepositoryType string

const (
	RepositoryTypeMemory   RepositoryType = "memory"
	RepositoryTypePostgres RepositoryType = "postgres"
)

// Repositories контейнер репозиториев
type Repositories struct {
	Exchanges   ExchangeRepository
	Submissions SubmissionRepository
	Played      PlayedGameRepository

	db *database.PostgresDB // для закрытия при shutdown
}

// Close закрывает соединения
func (r *Repositories) Close() {
	if r.db != nil {
		r.db.Close()
	}
}

// DB возвращает соединение с PostgreSQL, nil для in-memory хранилища.
// Через него выполняются миграции и health check.
func (r *Repositories) DB() *database.PostgresDB {
	return r.db
}

// NewRepositories создаёт репозитории на основе конфигурации
func NewRepositories(ctx context.Context, cfg *config.DatabaseConfig) (*Repositories, error) {
	switch RepositoryType(cfg.Driver) {
	case RepositoryTypeMemory, "":
		exchanges, submissions, played := NewMemoryRepositories()
		return &Repositories{
			Exchanges:   exchanges,
			Submissions: submissions,
			Played:      played,
		}, nil

	case RepositoryTypePostgres, "postgresql":
		return newPostgresRepositories(ctx, cfg)

	default:
		return nil, fmt.Errorf("unsupported repository type: %s", cfg.Driver)
	}
}

func newPostgresRepositories(ctx context.Context, cfg *config.DatabaseConfig) (*Repositories, error) {
	db, err := database.NewPostgresDB(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	return &Repositories{
		Exchanges:   NewPostgresExchangeRepository(db),
		Submissions: NewPostgresSubmissionRepository(db),
		Played:      NewPostgresPlayedGameRepository(db),
		db:          db,
	}, nil
}
