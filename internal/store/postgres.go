package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"road-monitor/internal/config"
	"road-monitor/internal/domain"
)

// PostgresStore persists the alert audit trail. Position samples are
// deliberately never written here; only alert activations and their
// dismissals are kept for operator review.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, cfg *config.Config) (*PostgresStore, error) {
	connStr := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?pool_max_conns=%d",
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBHost,
		cfg.DBPort,
		cfg.DBName,
		cfg.DBMaxConns,
	)

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to create db pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// InsertAlertEvent records one alert activation.
func (s *PostgresStore) InsertAlertEvent(ctx context.Context, ev *domain.AlertEvent) error {
	query := `
		INSERT INTO alert_events
			(alert_id, session_id, score, risk_level, severity, message, activated_at)
		VALUES
			($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (alert_id) DO NOTHING
	`
	_, err := s.pool.Exec(
		ctx,
		query,
		ev.AlertID,
		ev.SessionID,
		ev.Score,
		ev.Level,
		string(ev.Severity),
		ev.Message,
		ev.ActivatedAt,
	)
	return err
}

// MarkDismissed closes out an alert event with its dismissal time and
// whether the 10 s timer, rather than the user, ended it.
func (s *PostgresStore) MarkDismissed(ctx context.Context, ev *domain.AlertEvent) error {
	query := `
		UPDATE alert_events
		SET dismissed_at = $2, auto_dismissed = $3
		WHERE alert_id = $1
	`
	_, err := s.pool.Exec(ctx, query, ev.AlertID, ev.DismissedAt, ev.AutoDismissed)
	return err
}
