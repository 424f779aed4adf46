package pgxstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/screwyprof/eligibility/eligibility"
	"github.com/screwyprof/eligibility/eligibility/store/dbrow"
)

// Sentinel errors for store operations
var (
	ErrConversionFailed = errors.New("outcome conversion failed")
	ErrInsertFailed     = errors.New("insert operation failed")
	ErrQueryFailed      = errors.New("query operation failed")
)

const insertResultSQL = `
	INSERT INTO eligibility_results (run_id, address, proxy, eligible, status, raw, attempts)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`

const statusCountsSQL = `
	SELECT status, COUNT(*)
	FROM eligibility_results
	WHERE run_id = $1
	GROUP BY status`

// Store implements eligibility.Sink using pgx.
// Every row is tagged with the run it belongs to.
type Store struct {
	pool  *pgxpool.Pool
	runID uuid.UUID
}

// New creates a new PostgreSQL store with an existing connection pool
// Returns the store and a closer function
func New(pool *pgxpool.Pool, runID uuid.UUID) (*Store, func()) {
	store := &Store{pool: pool, runID: runID}
	closer := func() {
		pool.Close()
	}
	return store, closer
}

// Append inserts one row for the outcome
func (s *Store) Append(ctx context.Context, outcome eligibility.Outcome) error {
	row, err := dbrow.FromOutcome(s.runID, outcome)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConversionFailed, err)
	}

	if _, err := s.pool.Exec(ctx, insertResultSQL, row.Args()...); err != nil {
		return fmt.Errorf("%w: %w", ErrInsertFailed, err)
	}
	return nil
}

// StatusCounts returns how many rows of the current run carry each status
func (s *Store) StatusCounts(ctx context.Context) (map[eligibility.Status]int, error) {
	rows, err := s.pool.Query(ctx, statusCountsSQL, s.runID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	defer rows.Close()

	counts := make(map[eligibility.Status]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
		}
		counts[eligibility.Status(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	return counts, nil
}
