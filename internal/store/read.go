package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/comptonseq/internal/csr"
	"github.com/roach88/comptonseq/internal/decay"
	"github.com/roach88/comptonseq/internal/ir"
	"github.com/roach88/comptonseq/internal/queryir"
	"github.com/roach88/comptonseq/internal/querysql"
	"github.com/roach88/comptonseq/internal/session"
)

// StoredRecord is an interaction record with its storage keys.
type StoredRecord struct {
	Hash    string               `json:"hash"`
	EventID string               `json:"event_id"`
	Record  ir.InteractionRecord `json:"record"`
}

// RunCounts summarizes the stored content of a run.
type RunCounts struct {
	Records      int `json:"records"`
	FutureEvents int `json:"future_events"`
	Isotopes     int `json:"isotopes"`
	Skips        int `json:"skips"`
	Orderings    int `json:"orderings"`
	Good         int `json:"good"`
}

// ListRuns returns every run in creation order.
//
// Returns an empty slice (not nil) if the store has no runs.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, decay_mode, source, tool_version, record_version
		FROM runs
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// GetRun returns one run, or ErrRunNotFound.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, kind, decay_mode, source, tool_version, record_version
		FROM runs
		WHERE id = ?
	`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, err
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var run Run
	err := row.Scan(&run.ID, &run.Kind, &run.DecayMode, &run.Source, &run.ToolVersion, &run.RecordVersion)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, err
	}
	if err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	return run, nil
}

// ReadRecords returns the records of a run ordered by record id. Filters
// narrow the rows further, for example to one event or category code.
//
// Returns an empty slice (not nil) if no record matches.
func (s *Store) ReadRecords(ctx context.Context, runID string, filters ...queryir.Predicate) ([]StoredRecord, error) {
	rows, err := s.query(ctx, queryir.Select{
		From:    "interactions",
		Columns: []string{"hash", "event_id", "record"},
		Filter:  runFilter(runID, filters),
	})
	if err != nil {
		return nil, fmt.Errorf("query interactions: %w", err)
	}
	defer rows.Close()

	out := []StoredRecord{}
	for rows.Next() {
		var sr StoredRecord
		var data string
		if err := rows.Scan(&sr.Hash, &sr.EventID, &data); err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}
		if sr.Record, err = unmarshalRecord(data); err != nil {
			return nil, err
		}
		out = append(out, sr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate interactions: %w", err)
	}
	return out, nil
}

// ReadSession returns the stored session state of a run, in the order
// session.State reports it.
func (s *Store) ReadSession(ctx context.Context, runID string) (Session, error) {
	sess := Session{
		FutureEvents: []session.FutureEvent{},
		Isotopes:     []session.IsotopeEntry{},
		Skips:        []session.SkipEntry{},
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT event FROM future_events WHERE run_id = ? ORDER BY seq ASC
	`, runID)
	if err != nil {
		return Session{}, fmt.Errorf("query future events: %w", err)
	}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			rows.Close()
			return Session{}, fmt.Errorf("scan future event: %w", err)
		}
		ev, err := unmarshalFutureEvent(data)
		if err != nil {
			rows.Close()
			return Session{}, err
		}
		sess.FutureEvents = append(sess.FutureEvents, ev)
	}
	if err := closeRows(rows, "future events"); err != nil {
		return Session{}, err
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT volume, nucleus, excitation, float_level, lifetime, count
		FROM isotopes
		WHERE run_id = ?
		ORDER BY volume COLLATE BINARY ASC, nucleus ASC, excitation ASC, float_level ASC
	`, runID)
	if err != nil {
		return Session{}, fmt.Errorf("query isotopes: %w", err)
	}
	for rows.Next() {
		var e session.IsotopeEntry
		var nucleus, level int
		if err := rows.Scan(&e.Volume, &nucleus, &e.Key.Excitation, &level, &e.Key.Lifetime, &e.Count); err != nil {
			rows.Close()
			return Session{}, fmt.Errorf("scan isotope: %w", err)
		}
		e.Key.Nucleus = ir.ParticleCode(nucleus)
		e.Key.FloatLevel = decay.FloatLevel(level)
		sess.Isotopes = append(sess.Isotopes, e)
	}
	if err := closeRows(rows, "isotopes"); err != nil {
		return Session{}, err
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT species, volume, count
		FROM skipped_volumes
		WHERE run_id = ?
		ORDER BY volume COLLATE BINARY ASC, species ASC
	`, runID)
	if err != nil {
		return Session{}, fmt.Errorf("query skips: %w", err)
	}
	for rows.Next() {
		var e session.SkipEntry
		var species int
		if err := rows.Scan(&species, &e.Volume, &e.Count); err != nil {
			rows.Close()
			return Session{}, fmt.Errorf("scan skip: %w", err)
		}
		e.Species = ir.ParticleCode(species)
		sess.Skips = append(sess.Skips, e)
	}
	if err := closeRows(rows, "skips"); err != nil {
		return Session{}, err
	}

	return sess, nil
}

// query runs a compiled catalog query.
func (s *Store) query(ctx context.Context, q queryir.Select) (*sql.Rows, error) {
	text, args, err := querysql.Compile(q)
	if err != nil {
		return nil, err
	}
	return s.db.QueryContext(ctx, text, args...)
}

func runFilter(runID string, filters []queryir.Predicate) queryir.Predicate {
	preds := append([]queryir.Predicate{queryir.Equals{Field: "run_id", Value: runID}}, filters...)
	return queryir.Conjoin(preds...)
}

func closeRows(rows *sql.Rows, what string) error {
	err := rows.Err()
	rows.Close()
	if err != nil {
		return fmt.Errorf("iterate %s: %w", what, err)
	}
	return nil
}

// ReadOrderings returns the search results of a run in insertion order,
// narrowed by filters. Candidates are not stored.
func (s *Store) ReadOrderings(ctx context.Context, runID string, filters ...queryir.Predicate) ([]csr.Result, error) {
	rows, err := s.query(ctx, queryir.Select{
		From: "orderings",
		Columns: []string{"event_id", "status", "event_type", "reason", "sequence",
			"quality", "second_quality", "n_candidates", "near_ties"},
		Filter: runFilter(runID, filters),
	})
	if err != nil {
		return nil, fmt.Errorf("query orderings: %w", err)
	}
	defer rows.Close()

	out := []csr.Result{}
	for rows.Next() {
		var res csr.Result
		var status, typ, reason, seq string
		if err := rows.Scan(&res.EventID, &status, &typ, &reason, &seq,
			&res.Quality, &res.SecondQuality, &res.NCandidates, &res.NearTies); err != nil {
			return nil, fmt.Errorf("scan ordering: %w", err)
		}
		res.Status = csr.Status(status)
		res.Type = csr.EventType(typ)
		res.Reason = csr.Reason(reason)
		if res.Order, err = unmarshalSequence(seq); err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orderings: %w", err)
	}
	return out, nil
}

// MaxRecordID returns the largest record id stored by any run, or 0. A
// new run resumes its id counter past it so ids stay unique per store.
func (s *Store) MaxRecordID(ctx context.Context) (int64, error) {
	var max sql.NullInt64
	if err := s.db.QueryRowContext(ctx, "SELECT MAX(record_id) FROM interactions").Scan(&max); err != nil {
		return 0, fmt.Errorf("query max record id: %w", err)
	}
	return max.Int64, nil
}

// Counts returns the stored content counts of a run.
func (s *Store) Counts(ctx context.Context, runID string) (RunCounts, error) {
	var c RunCounts
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM interactions WHERE run_id = ?1),
			(SELECT COUNT(*) FROM future_events WHERE run_id = ?1),
			(SELECT COALESCE(SUM(count), 0) FROM isotopes WHERE run_id = ?1),
			(SELECT COALESCE(SUM(count), 0) FROM skipped_volumes WHERE run_id = ?1),
			(SELECT COUNT(*) FROM orderings WHERE run_id = ?1),
			(SELECT COUNT(*) FROM orderings WHERE run_id = ?1 AND status = ?2)
	`, runID, string(csr.StatusGood)).Scan(&c.Records, &c.FutureEvents, &c.Isotopes, &c.Skips, &c.Orderings, &c.Good)
	if err != nil {
		return RunCounts{}, fmt.Errorf("count run %s: %w", runID, err)
	}
	return c, nil
}
