package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SequenceRepository issues the atomic per-year filing sequence. The upsert
// serializes concurrent creations on the year row, so two creations can
// never observe the same value; this replaces counting existing cases.
type SequenceRepository interface {
	Next(ctx context.Context, year int) (int64, error)
}

type sequenceRepository struct {
	pool *pgxpool.Pool
}

// NewSequenceRepository instantiates repository.
func NewSequenceRepository(pool *pgxpool.Pool) SequenceRepository {
	return &sequenceRepository{pool: pool}
}

func (r *sequenceRepository) Next(ctx context.Context, year int) (int64, error) {
	const query = `
        INSERT INTO filing_sequences (year, value) VALUES ($1, 1)
        ON CONFLICT (year) DO UPDATE SET value = filing_sequences.value + 1
        RETURNING value`
	var value int64
	err := r.pool.QueryRow(ctx, query, year).Scan(&value)
	return value, err
}
