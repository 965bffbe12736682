package db

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rawblock/tametsi-solver/pkg/models"
)

// PostgresStore persists RunRecords: one row per Load-to-terminal-result
// pass through the driver.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// Connect initializes the connection pool to PostgreSQL using pgx.
func Connect(connStr string) (*PostgresStore, error) {
	pool, err := pgxpool.New(context.Background(), connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %v", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("ping failed: %v", err)
	}

	log.Println("Successfully connected to PostgreSQL for the solver run log")
	return &PostgresStore{pool: pool}, nil
}

// Close gracefully closes the connection pool.
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// InitSchema loads and executes the schema.sql file.
func (s *PostgresStore) InitSchema() error {
	schemaBytes, err := os.ReadFile("internal/db/schema.sql")
	if err != nil {
		return fmt.Errorf("failed to read schema file: %v", err)
	}

	_, err = s.pool.Exec(context.Background(), string(schemaBytes))
	if err != nil {
		return fmt.Errorf("failed to execute schema migrations: %v", err)
	}

	log.Println("Run log schema initialized")
	return nil
}

// StartRun inserts a new RunRecord row and returns its generated ID.
func (s *PostgresStore) StartRun(ctx context.Context, puzzleName string) (uuid.UUID, error) {
	id := uuid.New()
	sql := `
		INSERT INTO run_records (id, puzzle_name, started_at, steps, outcome)
		VALUES ($1, $2, $3, 0, 'running');
	`
	_, err := s.pool.Exec(ctx, sql, id, puzzleName, time.Now())
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert run record: %v", err)
	}
	return id, nil
}

// RecordStep increments the step counter for a run in progress.
func (s *PostgresStore) RecordStep(ctx context.Context, id uuid.UUID) error {
	sql := `UPDATE run_records SET steps = steps + 1 WHERE id = $1;`
	_, err := s.pool.Exec(ctx, sql, id)
	return err
}

// FinishRun marks a run terminal with its outcome kind and, if the solver
// stopped unexpectedly, the failure reason.
func (s *PostgresStore) FinishRun(ctx context.Context, id uuid.UUID, outcome, reason string) error {
	sql := `
		UPDATE run_records
		SET finished_at = $2, outcome = $3, reason = $4
		WHERE id = $1;
	`
	_, err := s.pool.Exec(ctx, sql, id, time.Now(), outcome, reason)
	return err
}

// ListRuns returns the most recent run records, newest first.
func (s *PostgresStore) ListRuns(ctx context.Context, limit int) ([]models.RunRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	sql := `
		SELECT id, puzzle_name, started_at, finished_at, steps, outcome, reason
		FROM run_records
		ORDER BY started_at DESC
		LIMIT $1;
	`
	rows, err := s.pool.Query(ctx, sql, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []models.RunRecord
	for rows.Next() {
		var r models.RunRecord
		var reason *string
		if err := rows.Scan(&r.ID, &r.PuzzleName, &r.StartedAt, &r.FinishedAt, &r.Steps, &r.Outcome, &reason); err != nil {
			return nil, err
		}
		if reason != nil {
			r.Reason = *reason
		}
		runs = append(runs, r)
	}
	if runs == nil {
		runs = []models.RunRecord{}
	}
	return runs, nil
}

// GetPool exposes the connection pool for subsystems that need it directly.
func (s *PostgresStore) GetPool() *pgxpool.Pool {
	return s.pool
}
