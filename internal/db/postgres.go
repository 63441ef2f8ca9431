package db

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rawblock/isospec-engine/pkg/models"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

// Connect initializes the connection pool to PostgreSQL using pgx
func Connect(connStr string) (*PostgresStore, error) {
	pool, err := pgxpool.New(context.Background(), connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %v", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("ping failed: %v", err)
	}

	log.Println("Successfully connected to PostgreSQL for the Isotope Engine")
	return &PostgresStore{pool: pool}, nil
}

// Close gracefully closes the connection pool
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// InitSchema loads and executes the schema.sql file
func (s *PostgresStore) InitSchema() error {
	schemaBytes, err := os.ReadFile("internal/db/schema.sql")
	if err != nil {
		return fmt.Errorf("failed to read schema file: %v", err)
	}

	_, err = s.pool.Exec(context.Background(), string(schemaBytes))
	if err != nil {
		return fmt.Errorf("failed to execute schema migrations: %v", err)
	}

	log.Println("Isotope Engine schema initialized")
	return nil
}

// SaveSpectrumJob persists one computed spectrum's bookkeeping row. Peaks
// themselves are not stored; they are cheap to recompute and large to keep.
func (s *PostgresStore) SaveSpectrumJob(ctx context.Context, job models.JobRecord) error {
	sql := `
		INSERT INTO spectrum_jobs (id, formula, kind, peak_count, total_prob, elapsed_ms)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING;
	`
	_, err := s.pool.Exec(ctx, sql, job.ID, job.Formula, job.Kind, job.PeakCount, job.TotalProb, job.ElapsedMs)
	if err != nil {
		return fmt.Errorf("failed to insert spectrum job: %v", err)
	}
	return nil
}

// ListRecentJobs returns the persisted computations, newest first.
func (s *PostgresStore) ListRecentJobs(ctx context.Context, page, limit int) ([]models.JobRecord, int, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * limit

	var totalCount int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM spectrum_jobs`).Scan(&totalCount); err != nil {
		return nil, 0, err
	}

	dataSQL := `
		SELECT id, formula, kind, peak_count, total_prob, elapsed_ms, created_at
		FROM spectrum_jobs
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := s.pool.Query(ctx, dataSQL, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var jobs []models.JobRecord
	for rows.Next() {
		var j models.JobRecord
		if err := rows.Scan(&j.ID, &j.Formula, &j.Kind, &j.PeakCount, &j.TotalProb, &j.ElapsedMs, &j.CreatedAt); err != nil {
			return nil, 0, err
		}
		jobs = append(jobs, j)
	}
	if jobs == nil {
		jobs = []models.JobRecord{}
	}
	return jobs, totalCount, nil
}

// GetPool exposes the connection pool for other subsystems
func (s *PostgresStore) GetPool() *pgxpool.Pool {
	return s.pool
}
