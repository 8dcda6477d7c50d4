package harness

import (
	"github.com/roach88/comptonseq/internal/csr"
	"github.com/roach88/comptonseq/internal/input"
	"github.com/roach88/comptonseq/internal/ir"
	"github.com/roach88/comptonseq/internal/store"
)

// Trace event types.
const (
	TraceRecord   = "record"
	TraceKill     = "kill"
	TraceOrdering = "ordering"
)

// TraceEvent is one entry of a scenario trace. Data is in canonical form.
type TraceEvent struct {
	Type    string         `json:"type"`
	EventID string         `json:"event_id"`
	Seq     int64          `json:"seq"`
	Data    map[string]any `json:"data"`
}

// EventResult is what one event produced.
type EventResult struct {
	ID      string                 `json:"id"`
	Records []ir.InteractionRecord `json:"records,omitempty"`
	Kills   []input.Kill           `json:"kills,omitempty"`
	Skipped int                    `json:"skipped,omitempty"`

	// Reconstruction is nil for history events that were not
	// reconstructed.
	Reconstruction *csr.Result `json:"reconstruction,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass is true if every assertion held.
	Pass bool `json:"pass"`

	RunID  string        `json:"run_id"`
	Events []EventResult `json:"events"`

	// Trace contains records, kills and orderings in execution order.
	Trace []TraceEvent `json:"trace"`

	// Counts are read back from the store after the run.
	Counts store.RunCounts `json:"counts"`

	// Errors contains assertion failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult(runID string) *Result {
	return &Result{
		Pass:   true,
		RunID:  runID,
		Events: []EventResult{},
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Event returns the result of the named event.
func (r *Result) Event(id string) (*EventResult, bool) {
	for i := range r.Events {
		if r.Events[i].ID == id {
			return &r.Events[i], true
		}
	}
	return nil, false
}

// Records returns the records of one event, or of every event when id is
// empty, in emission order.
func (r *Result) Records(id string) []ir.InteractionRecord {
	var out []ir.InteractionRecord
	for _, ev := range r.Events {
		if id == "" || ev.ID == id {
			out = append(out, ev.Records...)
		}
	}
	return out
}

// AddRecordTrace adds an interaction record to the trace.
func (r *Result) AddRecordTrace(eventID string, rec ir.InteractionRecord, seq int64) {
	r.Trace = append(r.Trace, TraceEvent{
		Type:    TraceRecord,
		EventID: eventID,
		Seq:     seq,
		Data:    ir.CanonicalRecord(rec),
	})
}

// AddKillTrace adds a terminated track to the trace.
func (r *Result) AddKillTrace(eventID string, k input.Kill, seq int64) {
	data := map[string]any{
		"track":  k.Track,
		"reason": k.Reason.String(),
	}
	if len(k.Secondaries) > 0 {
		data["secondaries"] = intsToAny(k.Secondaries)
	}
	r.Trace = append(r.Trace, TraceEvent{Type: TraceKill, EventID: eventID, Seq: seq, Data: data})
}

// AddOrderingTrace adds a search result to the trace. The quality of a
// rejected event is omitted.
func (r *Result) AddOrderingTrace(res csr.Result, seq int64) {
	data := map[string]any{
		"status":       string(res.Status),
		"type":         string(res.Type),
		"order":        intsToAny(res.Order),
		"n_candidates": res.NCandidates,
	}
	if res.Reason != csr.ReasonNone {
		data["reason"] = string(res.Reason)
	}
	if res.Good() {
		data["quality"] = res.Quality
	}
	r.Trace = append(r.Trace, TraceEvent{Type: TraceOrdering, EventID: res.EventID, Seq: seq, Data: data})
}

func intsToAny(v []int) []any {
	out := make([]any, len(v))
	for i, x := range v {
		out[i] = x
	}
	return out
}
