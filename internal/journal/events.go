package journal

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/envrt/internal/construct"
)

// Record inserts an event. A second write with the same environment ID and
// sequence number is silently ignored.
func (j *Journal) Record(ctx context.Context, ev construct.Event) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO events (env_id, seq, kind, outcome, detail)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (env_id, seq) DO NOTHING
	`,
		ev.EnvironmentID,
		ev.Seq,
		string(ev.Kind),
		string(ev.Outcome),
		ev.Detail,
	)
	if err != nil {
		return fmt.Errorf("record event: %w", err)
	}
	return nil
}

// List returns the events of one environment ordered by sequence number.
// Returns an empty slice (not nil) when the environment has no events.
func (j *Journal) List(ctx context.Context, envID string) ([]construct.Event, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT env_id, seq, kind, outcome, detail
		FROM events
		WHERE env_id = ?
		ORDER BY seq ASC
	`, envID)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ListAll returns every event, grouped by environment in first-seen order
// and ordered by sequence number within each environment.
func (j *Journal) ListAll(ctx context.Context) ([]construct.Event, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT e.env_id, e.seq, e.kind, e.outcome, e.detail
		FROM events e
		JOIN (SELECT env_id, MIN(id) AS first FROM events GROUP BY env_id) f
		  ON f.env_id = e.env_id
		ORDER BY f.first ASC, e.seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// Environments returns the IDs of every environment with at least one event,
// in first-seen order.
func (j *Journal) Environments(ctx context.Context) ([]string, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT env_id FROM events GROUP BY env_id ORDER BY MIN(id) ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query environments: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan environment: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate environments: %w", err)
	}
	return ids, nil
}

// LastSeq returns the highest sequence number recorded for an environment,
// or 0 if it has none. Pass it to construct.NewClockAt to continue numbering.
func (j *Journal) LastSeq(ctx context.Context, envID string) (int64, error) {
	var seq sql.NullInt64
	err := j.db.QueryRowContext(ctx,
		`SELECT MAX(seq) FROM events WHERE env_id = ?`, envID,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq.Int64, nil
}

func scanEvents(rows *sql.Rows) ([]construct.Event, error) {
	events := []construct.Event{}
	for rows.Next() {
		var ev construct.Event
		var kind, outcome string
		if err := rows.Scan(&ev.EnvironmentID, &ev.Seq, &kind, &outcome, &ev.Detail); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Kind = construct.EventKind(kind)
		ev.Outcome = construct.Outcome(outcome)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// Recorder adapts the journal to construct.Recorder. Every event is written
// with ctx.
type Recorder struct {
	ctx     context.Context
	journal *Journal
}

// NewRecorder returns a construct.Recorder writing to j.
func NewRecorder(ctx context.Context, j *Journal) *Recorder {
	return &Recorder{ctx: ctx, journal: j}
}

// Record implements construct.Recorder.
func (r *Recorder) Record(ev construct.Event) error {
	return r.journal.Record(r.ctx, ev)
}
