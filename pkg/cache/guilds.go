package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"
)

// GuildNameCache специализированный кэш имён Discord гильдий.
// Имя гильдии нужно почти каждому ответу бота, а ходить за ним
// в Discord API на каждую команду не хочется.
type GuildNameCache struct {
	cache      Cache
	defaultTTL time.Duration
}

type cachedGuildName struct {
	Name     string    `json:"name"`
	CachedAt time.Time `json:"cached_at"`
}

// NewGuildNameCache создаёт кэш имён гильдий
func NewGuildNameCache(cache Cache, defaultTTL time.Duration) *GuildNameCache {
	if defaultTTL <= 0 {
		defaultTTL = 10 * time.Minute
	}
	return &GuildNameCache{
		cache:      cache,
		defaultTTL: defaultTTL,
	}
}

// BuildGuildKey строит ключ кэша для гильдии
func BuildGuildKey(guildID uint64) string {
	return "guild_name:" + strconv.FormatUint(guildID, 10)
}

// Get получает имя гильдии из кэша
func (gc *GuildNameCache) Get(ctx context.Context, guildID uint64) (string, bool, error) {
	key := BuildGuildKey(guildID)

	data, err := gc.cache.Get(ctx, key)
	if err != nil {
		if err == ErrKeyNotFound {
			return "", false, nil
		}
		return "", false, err
	}

	var entry cachedGuildName
	if err := json.Unmarshal(data, &entry); err != nil {
		// Повреждённый кэш — удаляем, ошибку удаления игнорируем намеренно
		_ = gc.cache.Delete(ctx, key) //nolint:errcheck // best effort cleanup
		return "", false, nil
	}

	return entry.Name, true, nil
}

// Set сохраняет имя гильдии в кэш
func (gc *GuildNameCache) Set(ctx context.Context, guildID uint64, name string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gc.defaultTTL
	}

	entry := cachedGuildName{
		Name:     name,
		CachedAt: time.Now(),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	return gc.cache.Set(ctx, BuildGuildKey(guildID), data, ttl)
}

// Lookup возвращает имя гильдии из кэша, при промахе получает его
// через fetch и кладёт в кэш. Ошибка записи в кэш не фатальна.
func (gc *GuildNameCache) Lookup(ctx context.Context, guildID uint64, fetch func(context.Context, uint64) (string, error)) (string, error) {
	if name, ok, err := gc.Get(ctx, guildID); err == nil && ok {
		return name, nil
	}

	name, err := fetch(ctx, guildID)
	if err != nil {
		return "", err
	}

	_ = gc.Set(ctx, guildID, name, 0) //nolint:errcheck // кэш вторичен

	return name, nil
}

// Invalidate удаляет имя гильдии из кэша
func (gc *GuildNameCache) Invalidate(ctx context.Context, guildID uint64) error {
	return gc.cache.Delete(ctx, BuildGuildKey(guildID))
}

// InvalidateAll удаляет все закэшированные имена гильдий
func (gc *GuildNameCache) InvalidateAll(ctx context.Context) (int64, error) {
	return gc.cache.DeleteByPattern(ctx, "guild_name:*")
}
