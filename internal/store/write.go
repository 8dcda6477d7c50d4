package store

import (
	"context"
	"fmt"

	"github.com/roach88/comptonseq/internal/csr"
	"github.com/roach88/comptonseq/internal/ir"
	"github.com/roach88/comptonseq/internal/session"
)

// Run kinds.
const (
	KindSimulate    = "simulate"
	KindReconstruct = "reconstruct"
	KindScenario    = "scenario"
)

// Run describes one stored run.
type Run struct {
	ID            string `json:"id"`
	Kind          string `json:"kind"`
	DecayMode     string `json:"decay_mode"`
	Source        string `json:"source,omitempty"`
	ToolVersion   string `json:"tool_version"`
	RecordVersion string `json:"record_version"`
}

// NewRun fills the version fields of a run.
func NewRun(id, kind, decayMode, source string) Run {
	return Run{
		ID:            id,
		Kind:          kind,
		DecayMode:     decayMode,
		Source:        source,
		ToolVersion:   ir.ToolVersion,
		RecordVersion: ir.RecordVersion,
	}
}

// Session is the stored form of a run's session state.
type Session struct {
	FutureEvents []session.FutureEvent  `json:"future_events"`
	Isotopes     []session.IsotopeEntry `json:"isotopes"`
	Skips        []session.SkipEntry    `json:"skips"`
}

// SnapshotOf copies the session state of a run.
func SnapshotOf(st *session.State) Session {
	return Session{
		FutureEvents: st.FutureEvents(),
		Isotopes:     st.Isotopes(),
		Skips:        st.Skips(),
	}
}

// CreateRun inserts a run. Uses ON CONFLICT(id) DO NOTHING for idempotency;
// inserted is false when the run already existed.
func (s *Store) CreateRun(ctx context.Context, run Run) (inserted bool, err error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, kind, decay_mode, source, tool_version, record_version)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, run.ID, run.Kind, run.DecayMode, run.Source, run.ToolVersion, run.RecordVersion)
	if err != nil {
		return false, fmt.Errorf("create run: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("create run: rows affected: %w", err)
	}
	return n > 0, nil
}

// WriteRecords inserts the records of one event in a single transaction and
// returns how many were new. Each record is keyed by its content hash, so
// rewriting an event is a no-op.
//
// Note: The run must exist (foreign key constraint).
func (s *Store) WriteRecords(ctx context.Context, runID, eventID string, records []ir.InteractionRecord) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("write records: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO interactions (hash, run_id, event_id, record_id, category, record)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(hash) DO NOTHING
	`)
	if err != nil {
		return 0, fmt.Errorf("write records: prepare: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, r := range records {
		hash, err := ir.RecordHash(runID, r)
		if err != nil {
			return 0, fmt.Errorf("write records: %w", err)
		}
		data, err := marshalRecord(r)
		if err != nil {
			return 0, fmt.Errorf("write records: %w", err)
		}
		result, err := stmt.ExecContext(ctx, hash, runID, eventID, r.ID, r.Category.Code(), data)
		if err != nil {
			return 0, fmt.Errorf("write records: record %d: %w", r.ID, err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("write records: rows affected: %w", err)
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("write records: commit: %w", err)
	}
	return inserted, nil
}

// WriteSession replaces the stored session state of a run.
func (s *Store) WriteSession(ctx context.Context, runID string, sess Session) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write session: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	for _, table := range []string{"future_events", "isotopes", "skipped_volumes"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE run_id = ?", runID); err != nil {
			return fmt.Errorf("write session: clear %s: %w", table, err)
		}
	}

	for i, ev := range sess.FutureEvents {
		data, err := marshalFutureEvent(ev)
		if err != nil {
			return fmt.Errorf("write session: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO future_events (run_id, seq, global_time, species, volume, event)
			VALUES (?, ?, ?, ?, ?, ?)
		`, runID, i, ev.GlobalTime, int(ev.Species), ev.Volume, data); err != nil {
			return fmt.Errorf("write session: future event %d: %w", i, err)
		}
	}

	for _, iso := range sess.Isotopes {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO isotopes (run_id, volume, nucleus, excitation, float_level, lifetime, count)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, runID, iso.Volume, int(iso.Key.Nucleus), iso.Key.Excitation, int(iso.Key.FloatLevel), iso.Key.Lifetime, iso.Count); err != nil {
			return fmt.Errorf("write session: isotope %s: %w", iso.Key, err)
		}
	}

	for _, skip := range sess.Skips {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO skipped_volumes (run_id, species, volume, count)
			VALUES (?, ?, ?, ?)
		`, runID, int(skip.Species), skip.Volume, skip.Count); err != nil {
			return fmt.Errorf("write session: skip %s: %w", skip.Volume, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write session: commit: %w", err)
	}
	return nil
}

// WriteOrdering inserts the search result of one event. Results are keyed
// by run, event and ordering; inserted is false for a duplicate.
func (s *Store) WriteOrdering(ctx context.Context, runID string, res csr.Result) (inserted bool, err error) {
	hash, err := ir.OrderingHash(runID, res.EventID, res.Order)
	if err != nil {
		return false, fmt.Errorf("write ordering: %w", err)
	}
	seq, err := marshalSequence(res.Order)
	if err != nil {
		return false, fmt.Errorf("write ordering: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO orderings
		(hash, run_id, event_id, status, event_type, reason, sequence, quality, second_quality, n_candidates, near_ties)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(hash) DO NOTHING
	`,
		hash,
		runID,
		res.EventID,
		string(res.Status),
		string(res.Type),
		string(res.Reason),
		seq,
		res.Quality,
		res.SecondQuality,
		res.NCandidates,
		res.NearTies,
	)
	if err != nil {
		return false, fmt.Errorf("write ordering: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("write ordering: rows affected: %w", err)
	}
	return n > 0, nil
}
