package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrRunNotFound is returned when a run id is not in the ledger.
var ErrRunNotFound = errors.New("run not found")

// Run is one scenario run. FinishedAt and Pass are nil while the run is in
// progress or when it was interrupted.
type Run struct {
	ID          string
	Scenario    string
	Replication string
	StartedAt   time.Time
	FinishedAt  *time.Time
	Pass        *bool
	Errors      []string
	TraceHash   string
}

// StatusPoll is one change request status observed during a run.
type StatusPoll struct {
	RunID      string
	Flow       string
	Operation  string
	Attempt    int
	Status     string
	Payload    json.RawMessage
	ObservedAt time.Time
}

// BeginRun records the start of a run.
func (s *Store) BeginRun(ctx context.Context, id, scenario, replication string) (*Run, error) {
	started := s.clock.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, scenario, replication, started_at)
		VALUES (?, ?, ?, ?)
	`, id, scenario, replication, formatTime(started))
	if err != nil {
		return nil, fmt.Errorf("begin run %s: %w", id, err)
	}
	return &Run{ID: id, Scenario: scenario, Replication: replication, StartedAt: started}, nil
}

// FinishRun records the outcome of a run.
func (s *Store) FinishRun(ctx context.Context, id string, pass bool, errs []string, traceHash string) error {
	errorsJSON, err := marshalErrors(errs)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", id, err)
	}

	var hash sql.NullString
	if traceHash != "" {
		hash = sql.NullString{String: traceHash, Valid: true}
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE runs
		SET finished_at = ?, pass = ?, errors = ?, trace_hash = ?
		WHERE id = ?
	`, s.now(), pass, errorsJSON, hash, id)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("finish run: %w: %s", ErrRunNotFound, id)
	}
	return nil
}

// RecordPoll appends a status poll to a run. A zero ObservedAt is taken from
// the store clock.
func (s *Store) RecordPoll(ctx context.Context, poll StatusPoll) error {
	payload, err := marshalPayload(poll.Payload)
	if err != nil {
		return fmt.Errorf("record poll: %w", err)
	}
	observed := poll.ObservedAt
	if observed.IsZero() {
		observed = s.clock.Now()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO status_polls (run_id, flow, operation, attempt, status, payload, observed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, poll.RunID, poll.Flow, poll.Operation, poll.Attempt, poll.Status, payload, formatTime(observed))
	if err != nil {
		return fmt.Errorf("record poll for run %s: %w", poll.RunID, err)
	}
	return nil
}

const runColumns = `id, scenario, replication, started_at, finished_at, pass, errors, trace_hash`

// Run returns one run.
func (s *Store) Run(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", id, err)
	}
	return run, nil
}

// Runs returns the most recent runs, newest first. A limit below 1 returns
// all runs.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, id COLLATE BINARY DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// Polls returns the polls of a run in the order they were recorded.
func (s *Store) Polls(ctx context.Context, runID string) ([]StatusPoll, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, flow, operation, attempt, status, payload, observed_at
		FROM status_polls
		WHERE run_id = ?
		ORDER BY id ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("list polls of %s: %w", runID, err)
	}
	defer rows.Close()

	var polls []StatusPoll
	for rows.Next() {
		var p StatusPoll
		var payload, observed string
		if err := rows.Scan(&p.RunID, &p.Flow, &p.Operation, &p.Attempt, &p.Status, &payload, &observed); err != nil {
			return nil, fmt.Errorf("list polls of %s: %w", runID, err)
		}
		p.Payload = json.RawMessage(payload)
		if p.ObservedAt, err = parseTime(observed); err != nil {
			return nil, err
		}
		polls = append(polls, p)
	}
	return polls, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var (
		run      Run
		started  string
		finished sql.NullString
		pass     sql.NullBool
		errs     string
		hash     sql.NullString
	)
	if err := row.Scan(&run.ID, &run.Scenario, &run.Replication, &started, &finished, &pass, &errs, &hash); err != nil {
		return nil, err
	}

	var err error
	if run.StartedAt, err = parseTime(started); err != nil {
		return nil, err
	}
	if finished.Valid {
		t, err := parseTime(finished.String)
		if err != nil {
			return nil, err
		}
		run.FinishedAt = &t
	}
	if pass.Valid {
		run.Pass = &pass.Bool
	}
	if run.Errors, err = unmarshalErrors(errs); err != nil {
		return nil, err
	}
	run.TraceHash = hash.String
	return &run, nil
}
