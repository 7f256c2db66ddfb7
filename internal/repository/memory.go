package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"ratex/pkg/domain"
)

// memoryStore общее состояние in-memory репозиториев. Отзыв заявки
// смотрит на состояние обмена, а выборка сыгранных игр — на заявки,
// поэтому хранилище одно на все три репозитория.
type memoryStore struct {
	mu sync.RWMutex

	exchanges   map[int64]*domain.Exchange
	submissions map[int64]*domain.Submission
	played      []domain.PlayedGame

	nextExchangeID   int64
	nextSubmissionID int64
	nextPlayedID     int64

	events *changeBroadcaster
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		exchanges:   make(map[int64]*domain.Exchange),
		submissions: make(map[int64]*domain.Submission),
		events:      newChangeBroadcaster(),
	}
}

// NewMemoryRepositories создаёт in-memory репозитории поверх общего
// хранилища. Используются в тестах и при драйвере базы "memory".
func NewMemoryRepositories() (*MemoryExchangeRepository, *MemorySubmissionRepository, *MemoryPlayedGameRepository) {
	store := newMemoryStore()
	return &MemoryExchangeRepository{store: store},
		&MemorySubmissionRepository{store: store},
		&MemoryPlayedGameRepository{store: store}
}

// MemoryExchangeRepository in-memory реализация ExchangeRepository
type MemoryExchangeRepository struct {
	store *memoryStore
}

func (r *MemoryExchangeRepository) Create(ctx context.Context, create NewExchange) (*domain.Exchange, error) {
	s := r.store

	s.mu.Lock()
	for _, e := range s.exchanges {
		if e.GuildID == create.GuildID && e.Slug == create.Slug {
			s.mu.Unlock()
			return nil, fmt.Errorf("failed to create exchange: slug %q already exists in guild %d", create.Slug, create.GuildID)
		}
	}

	s.nextExchangeID++
	exchange := &domain.Exchange{
		ID:               s.nextExchangeID,
		GuildID:          create.GuildID,
		ChannelID:        create.ChannelID,
		JamType:          create.JamType,
		JamLink:          create.JamLink,
		Slug:             create.Slug,
		DisplayName:      create.DisplayName,
		State:            domain.ExchangeStateNotStartedYet,
		SubmissionsStart: create.Start.UTC(),
		SubmissionsEnd:   create.Start.Add(create.Duration).UTC(),
		GamesPerMember:   create.GamesPerMember,
	}
	s.exchanges[exchange.ID] = exchange
	stored := *exchange
	s.mu.Unlock()

	s.events.Publish(ChangeEvent{
		Kind:    ChangeExchangeCreated,
		GuildID: stored.GuildID,
		Slug:    stored.Slug,
	})

	return &stored, nil
}

func (r *MemoryExchangeRepository) GetOverlapping(
	ctx context.Context,
	guildID, channelID uint64,
	slug string,
	start, end time.Time,
) ([]domain.Exchange, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []domain.Exchange
	for _, e := range s.exchanges {
		if e.GuildID != guildID {
			continue
		}
		overlaps := e.ChannelID == channelID &&
			e.SubmissionsStart.Before(end) &&
			e.SubmissionsEnd.After(start)
		if overlaps || e.Slug == slug {
			matches = append(matches, *e)
		}
	}

	sortByStart(matches)
	return matches, nil
}

func (r *MemoryExchangeRepository) GetRunning(
	ctx context.Context,
	guildID, channelID uint64,
	at time.Time,
) (*domain.Exchange, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.exchanges {
		if e.GuildID == guildID &&
			e.ChannelID == channelID &&
			e.State == domain.ExchangeStateAcceptingSubmissions &&
			!e.SubmissionsStart.After(at) &&
			e.SubmissionsEnd.After(at) {
			result := *e
			return &result, nil
		}
	}

	return nil, nil
}

func (r *MemoryExchangeRepository) GetBySlug(ctx context.Context, guildID uint64, slug string) (*domain.Exchange, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.exchanges {
		if e.GuildID == guildID && e.Slug == slug {
			result := *e
			return &result, nil
		}
	}

	return nil, ErrExchangeNotFound
}

func (r *MemoryExchangeRepository) GetUpcoming(ctx context.Context, guildID uint64, after time.Time) ([]domain.Exchange, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []domain.Exchange
	for _, e := range s.exchanges {
		if e.GuildID == guildID && e.SubmissionsEnd.After(after) {
			matches = append(matches, *e)
		}
	}

	sortByStart(matches)
	return matches, nil
}

func (r *MemoryExchangeRepository) GetStarting(ctx context.Context, at time.Time) ([]domain.Exchange, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []domain.Exchange
	for _, e := range s.exchanges {
		if e.State == domain.ExchangeStateNotStartedYet && !e.SubmissionsStart.After(at) {
			matches = append(matches, *e)
		}
	}

	sortByStart(matches)
	return matches, nil
}

func (r *MemoryExchangeRepository) GetEnding(ctx context.Context, at time.Time) ([]domain.Exchange, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []domain.Exchange
	for _, e := range s.exchanges {
		if e.State == domain.ExchangeStateAcceptingSubmissions && !e.SubmissionsEnd.After(at) {
			matches = append(matches, *e)
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].SubmissionsEnd.Equal(matches[j].SubmissionsEnd) {
			return matches[i].SubmissionsEnd.Before(matches[j].SubmissionsEnd)
		}
		return matches[i].ID < matches[j].ID
	})
	return matches, nil
}

func (r *MemoryExchangeRepository) ClosestEventTime(ctx context.Context) (*time.Time, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	var closest *time.Time
	consider := func(t time.Time) {
		if closest == nil || t.Before(*closest) {
			utc := t.UTC()
			closest = &utc
		}
	}

	for _, e := range s.exchanges {
		switch e.State {
		case domain.ExchangeStateNotStartedYet:
			consider(e.SubmissionsStart)
		case domain.ExchangeStateAcceptingSubmissions:
			consider(e.SubmissionsEnd)
		}
	}

	return closest, nil
}

func (r *MemoryExchangeRepository) CountAccepting(ctx context.Context) (int, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, e := range s.exchanges {
		if e.State == domain.ExchangeStateAcceptingSubmissions {
			n++
		}
	}

	return n, nil
}

func (r *MemoryExchangeRepository) UpdateState(ctx context.Context, id int64, state domain.ExchangeState) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	e, exists := s.exchanges[id]
	if !exists {
		return ErrExchangeNotFound
	}

	e.State = state
	return nil
}

func (r *MemoryExchangeRepository) Delete(ctx context.Context, guildID uint64, slug string) (bool, error) {
	s := r.store

	s.mu.Lock()
	var deleted *domain.Exchange
	for id, e := range s.exchanges {
		if e.GuildID == guildID && e.Slug == slug {
			deleted = e
			delete(s.exchanges, id)
			break
		}
	}
	if deleted != nil {
		// Заявки удалённого обмена уходят вместе с ним, как по FK.
		for id, sub := range s.submissions {
			if sub.ExchangeID == deleted.ID {
				delete(s.submissions, id)
			}
		}
	}
	s.mu.Unlock()

	if deleted == nil {
		return false, nil
	}

	s.events.Publish(ChangeEvent{
		Kind:    ChangeExchangeDeleted,
		GuildID: guildID,
		Slug:    slug,
	})

	return true, nil
}

func (r *MemoryExchangeRepository) Subscribe() <-chan ChangeEvent {
	return r.store.events.Subscribe()
}

func sortByStart(exchanges []domain.Exchange) {
	sort.Slice(exchanges, func(i, j int) bool {
		if !exchanges[i].SubmissionsStart.Equal(exchanges[j].SubmissionsStart) {
			return exchanges[i].SubmissionsStart.Before(exchanges[j].SubmissionsStart)
		}
		return exchanges[i].DisplayName < exchanges[j].DisplayName
	})
}

// MemorySubmissionRepository in-memory реализация SubmissionRepository
type MemorySubmissionRepository struct {
	store *memoryStore
}

func (r *MemorySubmissionRepository) GetConflict(ctx context.Context, candidate NewSubmission) (*domain.Submission, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	var conflict *domain.Submission
	for _, sub := range s.submissions {
		if sub.ExchangeID != candidate.ExchangeID {
			continue
		}
		if sub.Submitter != candidate.Submitter && sub.Link != candidate.Link {
			continue
		}
		if conflict == nil || sub.ID < conflict.ID {
			conflict = sub
		}
	}

	if conflict == nil {
		return nil, nil
	}
	result := *conflict
	return &result, nil
}

func (r *MemorySubmissionRepository) Upsert(ctx context.Context, submission NewSubmission) (*domain.Submission, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var own *domain.Submission
	for _, sub := range s.submissions {
		if sub.ExchangeID != submission.ExchangeID {
			continue
		}
		if sub.Submitter == submission.Submitter {
			own = sub
			continue
		}
		if sub.Link == submission.Link {
			return nil, fmt.Errorf("failed to upsert submission: link %q already submitted to exchange %d", submission.Link, submission.ExchangeID)
		}
	}

	if own != nil {
		own.Link = submission.Link
		result := *own
		return &result, nil
	}

	s.nextSubmissionID++
	stored := &domain.Submission{
		ID:          s.nextSubmissionID,
		ExchangeID:  submission.ExchangeID,
		Link:        submission.Link,
		Submitter:   submission.Submitter,
		SubmittedAt: time.Now().UTC(),
	}
	s.submissions[stored.ID] = stored

	result := *stored
	return &result, nil
}

func (r *MemorySubmissionRepository) Revoke(ctx context.Context, exchangeID int64, submitter uint64) (bool, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	// Отзыв возможен только пока обмен принимает заявки, как и в SQL
	// с условием EXISTS.
	exchange, exists := s.exchanges[exchangeID]
	if !exists || exchange.State != domain.ExchangeStateAcceptingSubmissions {
		return false, nil
	}

	for id, sub := range s.submissions {
		if sub.ExchangeID == exchangeID && sub.Submitter == submitter {
			delete(s.submissions, id)
			return true, nil
		}
	}

	return false, nil
}

func (r *MemorySubmissionRepository) ListForExchange(ctx context.Context, exchangeID int64) ([]domain.Submission, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	var submissions []domain.Submission
	for _, sub := range s.submissions {
		if sub.ExchangeID == exchangeID {
			submissions = append(submissions, *sub)
		}
	}

	sort.Slice(submissions, func(i, j int) bool { return submissions[i].ID < submissions[j].ID })
	return submissions, nil
}

// MemoryPlayedGameRepository in-memory реализация PlayedGameRepository
type MemoryPlayedGameRepository struct {
	store *memoryStore
}

func (r *MemoryPlayedGameRepository) Submit(ctx context.Context, member uint64, link string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, g := range s.played {
		if g.Member == member && g.Link == link {
			return nil
		}
	}

	s.nextPlayedID++
	s.played = append(s.played, domain.PlayedGame{
		ID:       s.nextPlayedID,
		Member:   member,
		Link:     link,
		IsManual: true,
	})

	return nil
}

func (r *MemoryPlayedGameRepository) ListForExchange(ctx context.Context, exchangeID int64) ([]domain.PlayedGame, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	submitters := make(map[uint64]struct{})
	for _, sub := range s.submissions {
		if sub.ExchangeID == exchangeID {
			submitters[sub.Submitter] = struct{}{}
		}
	}

	// played хранится в порядке вставки, он же порядок id
	var games []domain.PlayedGame
	for _, g := range s.played {
		if _, ok := submitters[g.Member]; ok {
			games = append(games, g)
		}
	}

	return games, nil
}
