// Package storage keeps a ledger of every variant the service has written.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"

	"resize4me/internal/models"
)

type Storage struct {
	pool *pgxpool.Pool
	db   *sql.DB // for migrations
}

func NewStorage(ctx context.Context, dsn string, log zerolog.Logger) (*Storage, error) {
	const op = "storage.NewStorage"

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	db := stdlib.OpenDBFromPool(pool)
	if err := runMigrations(db, log); err != nil {
		db.Close()
		pool.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{pool: pool, db: db}, nil
}

func (s *Storage) Close() {
	s.db.Close()
	s.pool.Close()
}

// SaveVariant inserts v, assigning an ID and timestamp when they are unset.
func (s *Storage) SaveVariant(ctx context.Context, v *models.Variant) error {
	const op = "storage.SaveVariant"

	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO variants (id, source_bucket, source_key, bucket, key, width, filter, url, mode, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		v.ID, v.SourceBucket, v.SourceKey, v.Bucket, v.Key, v.Width, v.Filter, v.URL, v.Mode, v.CreatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListVariants returns every variant recorded for a source object, oldest first.
func (s *Storage) ListVariants(ctx context.Context, bucket, key string) ([]models.Variant, error) {
	const op = "storage.ListVariants"

	rows, err := s.pool.Query(ctx,
		`SELECT id, source_bucket, source_key, bucket, key, width, filter, url, mode, created_at
		 FROM variants WHERE source_bucket = $1 AND source_key = $2
		 ORDER BY created_at, width, filter`,
		bucket, key)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	variants := make([]models.Variant, 0)
	for rows.Next() {
		var v models.Variant
		if err := rows.Scan(&v.ID, &v.SourceBucket, &v.SourceKey, &v.Bucket, &v.Key,
			&v.Width, &v.Filter, &v.URL, &v.Mode, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		variants = append(variants, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return variants, nil
}
