package dbrow

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/screwyprof/eligibility/eligibility"
)

// Result represents one checked address as stored in the database
type Result struct {
	RunID     uuid.UUID       `db:"run_id"`
	Address   string          `db:"address"`
	Proxy     string          `db:"proxy"`
	Eligible  bool            `db:"eligible"`
	Status    string          `db:"status"`
	Raw       json.RawMessage `db:"raw"`
	Attempts  int             `db:"attempts"`
	CheckedAt time.Time       `db:"checked_at"`
	// id is handled by database BIGSERIAL
}

// FromOutcome converts an outcome of the given run into a row.
// checked_at is left to the database DEFAULT CURRENT_TIMESTAMP.
func FromOutcome(runID uuid.UUID, o eligibility.Outcome) (Result, error) {
	raw, err := json.Marshal(o.Record.Raw)
	if err != nil {
		return Result{}, fmt.Errorf("encoding raw payload: %w", err)
	}

	return Result{
		RunID:    runID,
		Address:  o.Address,
		Proxy:    o.Proxy,
		Eligible: o.Record.Eligible,
		Status:   string(o.Record.Status),
		Raw:      raw,
		Attempts: o.Attempts,
	}, nil
}

// Args returns the insert arguments in column order
func (r Result) Args() []any {
	return []any{
		r.RunID,
		r.Address,
		r.Proxy,
		r.Eligible,
		r.Status,
		r.Raw,
		r.Attempts,
	}
}
