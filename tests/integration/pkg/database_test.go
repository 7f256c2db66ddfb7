//go:build integration

package pkg_test

import (
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"ratex/pkg/database"
	"ratex/tests/integration/testutil"
)

func TestPostgresDB_Connect(t *testing.T) {
	_ = testutil.RequirePostgres(t)
	ctx, cancel := testutil.Context(t)
	defer cancel()

	db, err := database.NewPostgresDB(ctx, testutil.PostgresConfig())
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	testutil.Cleanup(t, func() { db.Close() })

	if err := db.Ping(ctx); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
	if err := db.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck failed: %v", err)
	}
}

func TestPostgresDB_ExecQuery(t *testing.T) {
	_ = testutil.RequirePostgres(t)
	ctx, cancel := testutil.Context(t)
	defer cancel()

	db, err := database.NewPostgresDB(ctx, testutil.PostgresConfig())
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	testutil.Cleanup(t, func() { db.Close() })

	tableName := "scratch_entries_" + testutil.RandomString(8)

	_, err = db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS `+tableName+` (
			id BIGSERIAL PRIMARY KEY,
			member BIGINT NOT NULL,
			link TEXT NOT NULL,
			submitted_at TIMESTAMPTZ DEFAULT NOW()
		)
	`)
	if err != nil {
		t.Fatalf("CREATE TABLE failed: %v", err)
	}
	testutil.Cleanup(t, func() {
		db.Exec(ctx, "DROP TABLE IF EXISTS "+tableName)
	})

	member := testutil.RandomSnowflake(t)
	_, err = db.Exec(ctx,
		"INSERT INTO "+tableName+" (member, link) VALUES ($1, $2)",
		int64(member), "https://itch.io/jam/test-jam/rate/100")
	if err != nil {
		t.Fatalf("INSERT failed: %v", err)
	}

	// QueryRow
	var gotMember int64
	var gotLink string
	err = db.QueryRow(ctx,
		"SELECT member, link FROM "+tableName+" WHERE member = $1",
		int64(member)).Scan(&gotMember, &gotLink)
	if err != nil {
		t.Fatalf("SELECT failed: %v", err)
	}
	if uint64(gotMember) != member || gotLink != "https://itch.io/jam/test-jam/rate/100" {
		t.Errorf("got member=%d link=%s", gotMember, gotLink)
	}

	// Query multiple rows
	for i := 0; i < 5; i++ {
		db.Exec(ctx,
			"INSERT INTO "+tableName+" (member, link) VALUES ($1, $2)",
			int64(i), "https://itch.io/jam/test-jam/rate/10"+testutil.RandomString(4))
	}

	rows, err := db.Query(ctx,
		"SELECT member FROM "+tableName+" WHERE member < 5 ORDER BY member")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	defer rows.Close()

	var count int
	for rows.Next() {
		var m int64
		rows.Scan(&m)
		if m != int64(count) {
			t.Errorf("member = %d, want %d", m, count)
		}
		count++
	}
	if count != 5 {
		t.Errorf("row count = %d, want 5", count)
	}
}

func TestPostgresDB_Transaction_Commit(t *testing.T) {
	_ = testutil.RequirePostgres(t)
	ctx, cancel := testutil.Context(t)
	defer cancel()

	db, err := database.NewPostgresDB(ctx, testutil.PostgresConfig())
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	testutil.Cleanup(t, func() { db.Close() })

	tableName := "scratch_tx_commit_" + testutil.RandomString(8)
	db.Exec(ctx, "CREATE TABLE "+tableName+" (id BIGSERIAL, member BIGINT)")
	testutil.Cleanup(t, func() {
		db.Exec(ctx, "DROP TABLE IF EXISTS "+tableName)
	})

	// Successful transaction
	err = database.WithTransaction(ctx, db, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, "INSERT INTO "+tableName+" (member) VALUES ($1)", 100)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, "INSERT INTO "+tableName+" (member) VALUES ($1)", 200)
		return err
	})
	if err != nil {
		t.Errorf("transaction failed: %v", err)
	}

	var count int
	db.QueryRow(ctx, "SELECT COUNT(*) FROM "+tableName).Scan(&count)
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
}

func TestPostgresDB_Transaction_Rollback(t *testing.T) {
	_ = testutil.RequirePostgres(t)
	ctx, cancel := testutil.Context(t)
	defer cancel()

	db, err := database.NewPostgresDB(ctx, testutil.PostgresConfig())
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	testutil.Cleanup(t, func() { db.Close() })

	tableName := "scratch_tx_rollback_" + testutil.RandomString(8)
	db.Exec(ctx, "CREATE TABLE "+tableName+" (id BIGSERIAL, member BIGINT)")
	db.Exec(ctx, "INSERT INTO "+tableName+" (member) VALUES (1)")
	testutil.Cleanup(t, func() {
		db.Exec(ctx, "DROP TABLE IF EXISTS "+tableName)
	})

	// Failed transaction
	err = database.WithTransaction(ctx, db, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, "INSERT INTO "+tableName+" (member) VALUES ($1)", 2)
		if err != nil {
			return err
		}
		return errors.New("force rollback")
	})
	if err == nil {
		t.Error("expected error")
	}

	// Verify rollback - should have only 1 row
	var count int
	db.QueryRow(ctx, "SELECT COUNT(*) FROM "+tableName).Scan(&count)
	if count != 1 {
		t.Errorf("count = %d, want 1 (rollback failed)", count)
	}
}

func TestPostgresDB_Transaction_Panic(t *testing.T) {
	_ = testutil.RequirePostgres(t)
	ctx, cancel := testutil.Context(t)
	defer cancel()

	db, err := database.NewPostgresDB(ctx, testutil.PostgresConfig())
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	testutil.Cleanup(t, func() { db.Close() })

	tableName := "scratch_tx_panic_" + testutil.RandomString(8)
	db.Exec(ctx, "CREATE TABLE "+tableName+" (id BIGSERIAL, member BIGINT)")
	testutil.Cleanup(t, func() {
		db.Exec(ctx, "DROP TABLE IF EXISTS "+tableName)
	})

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic to propagate")
		}
	}()

	database.WithTransaction(ctx, db, func(tx pgx.Tx) error {
		tx.Exec(ctx, "INSERT INTO "+tableName+" (member) VALUES ($1)", 1)
		panic("test panic")
	})
}

func TestPostgresDB_WithTransactionResult(t *testing.T) {
	_ = testutil.RequirePostgres(t)
	ctx, cancel := testutil.Context(t)
	defer cancel()

	db, err := database.NewPostgresDB(ctx, testutil.PostgresConfig())
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	testutil.Cleanup(t, func() { db.Close() })

	tableName := "scratch_tx_result_" + testutil.RandomString(8)
	db.Exec(ctx, "CREATE TABLE "+tableName+" (id BIGSERIAL PRIMARY KEY, member BIGINT)")
	testutil.Cleanup(t, func() {
		db.Exec(ctx, "DROP TABLE IF EXISTS "+tableName)
	})

	id, err := database.WithTransactionResult(ctx, db, func(tx pgx.Tx) (int64, error) {
		var id int64
		err := tx.QueryRow(ctx,
			"INSERT INTO "+tableName+" (member) VALUES ($1) RETURNING id", 42).Scan(&id)
		return id, err
	})
	if err != nil {
		t.Fatalf("transaction failed: %v", err)
	}
	if id <= 0 {
		t.Errorf("expected positive id, got %d", id)
	}
}

func TestPostgresDB_PoolStats(t *testing.T) {
	_ = testutil.RequirePostgres(t)
	ctx, cancel := testutil.Context(t)
	defer cancel()

	db, err := database.NewPostgresDB(ctx, testutil.PostgresConfig())
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	testutil.Cleanup(t, func() { db.Close() })

	pool := db.Pool()
	if pool == nil {
		t.Fatal("Pool() returned nil")
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	var result int
	err = conn.QueryRow(ctx, "SELECT 42").Scan(&result)
	conn.Release()
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if result != 42 {
		t.Errorf("result = %d, want 42", result)
	}

	stats := db.Stats()
	if stats == nil {
		t.Fatal("Stats() returned nil")
	}
	if stats.AcquireCount() < 1 {
		t.Errorf("AcquireCount = %d, expected >= 1", stats.AcquireCount())
	}
}

func TestPostgresDB_Reconnect(t *testing.T) {
	_ = testutil.RequirePostgres(t)
	ctx, cancel := testutil.Context(t)
	defer cancel()

	cfg := testutil.PostgresConfig()
	cfg.MaxOpenConns = 2
	cfg.MaxIdleConns = 1
	cfg.ConnMaxLifetime = 1 * time.Second

	db, err := database.NewPostgresDB(ctx, cfg)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	testutil.Cleanup(t, func() { db.Close() })

	var result int
	db.QueryRow(ctx, "SELECT 1").Scan(&result)

	// Wait for connection lifetime
	time.Sleep(1500 * time.Millisecond)

	// Should still work (reconnect)
	err = db.QueryRow(ctx, "SELECT 2").Scan(&result)
	if err != nil {
		t.Errorf("query after reconnect failed: %v", err)
	}
	if result != 2 {
		t.Errorf("result = %d, want 2", result)
	}
}
