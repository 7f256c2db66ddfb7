package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newGuildCache(t *testing.T) (*GuildNameCache, Cache) {
	t.Helper()
	backing := NewMemoryCache(&Options{
		Backend:         BackendMemory,
		DefaultTTL:      time.Minute,
		MaxEntries:      100,
		CleanupInterval: time.Minute,
	})
	t.Cleanup(func() { backing.Close() })
	return NewGuildNameCache(backing, time.Minute), backing
}

func TestBuildGuildKey(t *testing.T) {
	key := BuildGuildKey(123456789012345678)
	if key != "guild_name:123456789012345678" {
		t.Errorf("key = %s, want guild_name:123456789012345678", key)
	}
}

func TestGuildNameCache_SetGet(t *testing.T) {
	gc, _ := newGuildCache(t)
	ctx := context.Background()

	if err := gc.Set(ctx, 42, "Game Jam Central", 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	name, ok, err := gc.Get(ctx, 42)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !ok {
		t.Fatal("expected cache hit")
	}
	if name != "Game Jam Central" {
		t.Errorf("name = %s, want Game Jam Central", name)
	}
}

func TestGuildNameCache_Miss(t *testing.T) {
	gc, _ := newGuildCache(t)

	_, ok, err := gc.Get(context.Background(), 999)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if ok {
		t.Error("expected cache miss")
	}
}

func TestGuildNameCache_CorruptedEntry(t *testing.T) {
	gc, backing := newGuildCache(t)
	ctx := context.Background()

	// Кладём мусор напрямую в backing cache
	if err := backing.Set(ctx, BuildGuildKey(7), []byte("{not json"), time.Minute); err != nil {
		t.Fatalf("backing Set() error = %v", err)
	}

	_, ok, err := gc.Get(ctx, 7)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if ok {
		t.Error("corrupted entry should read as miss")
	}

	// Запись должна быть удалена
	exists, _ := backing.Exists(ctx, BuildGuildKey(7))
	if exists {
		t.Error("corrupted entry should be evicted")
	}
}

func TestGuildNameCache_Lookup(t *testing.T) {
	gc, _ := newGuildCache(t)
	ctx := context.Background()

	calls := 0
	fetch := func(ctx context.Context, guildID uint64) (string, error) {
		calls++
		return "Fetched Guild", nil
	}

	name, err := gc.Lookup(ctx, 10, fetch)
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if name != "Fetched Guild" {
		t.Errorf("name = %s, want Fetched Guild", name)
	}
	if calls != 1 {
		t.Errorf("fetch calls = %d, want 1", calls)
	}

	// Второй Lookup должен попасть в кэш
	name, err = gc.Lookup(ctx, 10, fetch)
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if name != "Fetched Guild" {
		t.Errorf("name = %s, want Fetched Guild", name)
	}
	if calls != 1 {
		t.Errorf("fetch calls = %d, want 1 (cached)", calls)
	}
}

func TestGuildNameCache_LookupFetchError(t *testing.T) {
	gc, _ := newGuildCache(t)

	wantErr := errors.New("discord unavailable")
	_, err := gc.Lookup(context.Background(), 11, func(ctx context.Context, guildID uint64) (string, error) {
		return "", wantErr
	})

	if !errors.Is(err, wantErr) {
		t.Errorf("error = %v, want %v", err, wantErr)
	}
}

func TestGuildNameCache_Invalidate(t *testing.T) {
	gc, _ := newGuildCache(t)
	ctx := context.Background()

	gc.Set(ctx, 1, "One", 0)
	gc.Set(ctx, 2, "Two", 0)

	if err := gc.Invalidate(ctx, 1); err != nil {
		t.Fatalf("Invalidate() error = %v", err)
	}

	_, ok, _ := gc.Get(ctx, 1)
	if ok {
		t.Error("invalidated entry should be gone")
	}
	_, ok, _ = gc.Get(ctx, 2)
	if !ok {
		t.Error("other entries should survive")
	}

	deleted, err := gc.InvalidateAll(ctx)
	if err != nil {
		t.Fatalf("InvalidateAll() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}
}
