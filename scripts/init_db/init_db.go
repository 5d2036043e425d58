package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file — using system environment variables")
	}

	connStr := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		dbGetEnv("DB_USER", "monitor_user"),
		dbGetEnv("DB_PASSWORD", "monitor_password"),
		dbGetEnv("DB_HOST", "localhost"),
		dbGetEnv("DB_PORT", "5432"),
		dbGetEnv("DB_NAME", "road_monitor"),
	)

	ctx := context.Background()

	fmt.Println("Connecting to Postgres...")
	conn, err := pgx.Connect(ctx, connStr)
	if err != nil {
		log.Fatalf("Connection failed: %v\n\nMake sure Postgres is running:\n  docker-compose up -d postgres", err)
	}
	defer conn.Close(ctx)
	fmt.Println("✓ Connected")

	step1_alert_events_table(ctx, conn)
	step2_indexes(ctx, conn)
	step3_verify(ctx, conn)

	fmt.Println("\n✅ Database initialised successfully")
	fmt.Println("   Run next: go run scripts/seed_redis/seed_redis.go")
}

func step1_alert_events_table(ctx context.Context, conn *pgx.Conn) {
	fmt.Println("\n── Step 1: alert_events table ──────────────────")

	execOrFatal(ctx, conn, `
		CREATE TABLE IF NOT EXISTS alert_events (

			id              BIGSERIAL   PRIMARY KEY,

			-- One row per alert activation; alert_id is the
			-- dedup key for the activate/dismiss pair
			alert_id        TEXT        NOT NULL UNIQUE,
			session_id      TEXT        NOT NULL,

			-- Score is the clamped overall risk score at activation
			score           INTEGER     NOT NULL,
			risk_level      TEXT        NOT NULL,

			-- Must exactly match domain.AlertSeverity constants:
			-- WARNING | CRITICAL
			severity        TEXT        NOT NULL,

			-- The composed alert message as spoken and displayed
			message         TEXT        NOT NULL,

			activated_at    TIMESTAMPTZ NOT NULL,

			-- NULL until the alert is dismissed
			dismissed_at    TIMESTAMPTZ,
			auto_dismissed  BOOLEAN     NOT NULL DEFAULT false,

			CONSTRAINT chk_severity CHECK (
				severity IN ('WARNING', 'CRITICAL')
			),

			CONSTRAINT chk_score CHECK (
				score >= 0 AND score <= 100
			)
		);
	`, "alert_events table created")
}

func step2_indexes(ctx context.Context, conn *pgx.Conn) {
	fmt.Println("\n── Step 2: Indexes ─────────────────────────────")

	indexes := []struct {
		name string
		sql  string
		why  string
	}{
		{
			name: "idx_alert_events_session",
			sql: `CREATE INDEX IF NOT EXISTS idx_alert_events_session
				  ON alert_events (session_id, activated_at DESC);`,
			why: "query: alert history for one session",
		},
		{
			name: "idx_alert_events_activated",
			sql: `CREATE INDEX IF NOT EXISTS idx_alert_events_activated
				  ON alert_events (activated_at DESC);`,
			why: "query: most recent alerts across sessions",
		},
		{
			name: "idx_alert_events_open",
			sql: `CREATE INDEX IF NOT EXISTS idx_alert_events_open
				  ON alert_events (session_id)
				  WHERE dismissed_at IS NULL;`,
			why: "query: alerts never closed out (partial index)",
		},
	}

	for _, idx := range indexes {
		execOrFatal(ctx, conn, idx.sql,
			fmt.Sprintf("%-40s ← %s", idx.name, idx.why),
		)
	}
}

func step3_verify(ctx context.Context, conn *pgx.Conn) {
	fmt.Println("\n── Step 3: Verification ────────────────────────")

	var exists bool
	err := conn.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_name = 'alert_events'
		)
	`).Scan(&exists)
	if err != nil || !exists {
		log.Fatalf("Table alert_events was not created: %v", err)
	}
	fmt.Println("  ✓ table: alert_events")

	var indexCount int
	err = conn.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM pg_indexes
		WHERE tablename = 'alert_events'
		AND indexname LIKE 'idx_%'
	`).Scan(&indexCount)
	if err != nil {
		log.Fatalf("Index check failed: %v", err)
	}
	fmt.Printf("  ✓ indexes created: %d\n", indexCount)
}

// execOrFatal runs a SQL statement and prints result or exits on error
func execOrFatal(ctx context.Context, conn *pgx.Conn, sql, label string) {
	_, err := conn.Exec(ctx, sql)
	if err != nil {
		log.Fatalf("FAILED — %s\nError: %v\nSQL: %s", label, err, sql)
	}
	fmt.Printf("  ✓ %s\n", label)
}

func dbGetEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
