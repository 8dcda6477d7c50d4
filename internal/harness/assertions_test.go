package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/roach88/comptonseq/internal/csr"
	"github.com/roach88/comptonseq/internal/input"
	"github.com/roach88/comptonseq/internal/ir"
	"github.com/roach88/comptonseq/internal/store"
	"github.com/roach88/comptonseq/internal/stream"
)

// sampleResult is a Compton scatter, an ionization and a photo absorption
// in one event, followed by a radioactive decay with a killed track in a
// second.
func sampleResult() *Result {
	r := NewResult("run")
	r.Events = []EventResult{
		{
			ID: "e1",
			Records: []ir.InteractionRecord{
				{Category: ir.CategoryCompton, ID: 2, OriginID: 1, DetectorType: ir.DetectorStrip2D,
					InEnergy: 662, OutType: ir.ParticleElectron, OutEnergy: 150, OutDirection: r3.Vec{X: 1}},
				{Category: ir.CategoryIonization, ID: 3, OriginID: 1},
				{Category: ir.CategoryPhoto, ID: 4, OriginID: 1, DetectorType: ir.DetectorCalorimeter,
					Position: r3.Vec{Z: -20}, Deposit: 512},
			},
			Reconstruction: &csr.Result{EventID: "e1", Status: csr.StatusGood, Type: csr.EventCompton, Order: []int{0, 1}},
		},
		{
			ID:      "e2",
			Records: []ir.InteractionRecord{{Category: ir.CategoryRadioactiveDecay, ID: 5, OriginID: 5}},
			Kills:   []input.Kill{{Track: 1, Reason: stream.KillDecayDiscarded, Secondaries: []int{20}}},
			Reconstruction: &csr.Result{EventID: "e2", Status: csr.StatusRejected, Type: csr.EventUnknown,
				Reason: csr.ReasonTooManyHits},
		},
	}
	for _, ev := range r.Events {
		for i, rec := range ev.Records {
			r.AddRecordTrace(ev.ID, rec, int64(i+1))
		}
	}
	return r
}

func TestAssertRecordCount(t *testing.T) {
	r := sampleResult()

	assert.NoError(t, assertRecordCount(r, Assertion{Category: "COMP", Count: 1}))
	assert.NoError(t, assertRecordCount(r, Assertion{Category: "photo", Count: 1}))
	assert.NoError(t, assertRecordCount(r, Assertion{Category: "COMP", Count: 0, Event: "e2"}))
	assert.NoError(t, assertRecordCount(r, Assertion{Category: "decay", Count: 1}), "codes are shared by both decay categories")

	err := assertRecordCount(r, Assertion{Category: "PHOT", Count: 2})
	require.Error(t, err)
	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, AssertRecordCount, ae.Type)
	assert.Equal(t, "1 records", ae.Actual)
}

func TestAssertRecordOrder(t *testing.T) {
	r := sampleResult()

	assert.NoError(t, assertRecordOrder(r, Assertion{Categories: []string{"COMP", "PHOT"}}))
	assert.NoError(t, assertRecordOrder(r, Assertion{Categories: []string{"COMP", "PHOT", "DECA"}}))

	err := assertRecordOrder(r, Assertion{Event: "e1", Categories: []string{"PHOT", "COMP"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing COMP")
}

func TestAssertRecord(t *testing.T) {
	r := sampleResult()

	assert.NoError(t, assertRecord(r, Assertion{
		Category: "COMP",
		Expect: map[string]any{
			"id":            2,
			"detector":      "strip2d",
			"out_particle":  "e-",
			"out_direction": []any{1, 0, 0},
			"in_energy":     662.0,
		},
	}))
	assert.NoError(t, assertRecord(r, Assertion{Index: 2, Expect: map[string]any{"category": "PHOT", "deposit": 512}}))

	err := assertRecord(r, Assertion{Category: "PHOT", Expect: map[string]any{"deposit": 500}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `field "deposit"`)

	err = assertRecord(r, Assertion{Category: "PHOT", Index: 1, Expect: map[string]any{"id": 4}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only 1 records")

	err = assertRecord(r, Assertion{Category: "PHOT", Expect: map[string]any{"colour": "red"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown field")
}

func TestAssertKill(t *testing.T) {
	r := sampleResult()

	assert.NoError(t, assertKill(r, Assertion{Track: 1}))
	assert.NoError(t, assertKill(r, Assertion{Track: 1, Event: "e2", Reason: "decay_discarded"}))

	err := assertKill(r, Assertion{Track: 1, Reason: "stuck"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "killed with decay_discarded")

	err = assertKill(r, Assertion{Track: 7})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "track not killed")

	err = assertKill(r, Assertion{Track: 1, Event: "e1"})
	require.Error(t, err)
}

func TestAssertReconstruction(t *testing.T) {
	r := sampleResult()

	assert.NoError(t, assertReconstruction(r, Assertion{Event: "e1", Status: "good", EventType: "compton", Order: []int{0, 1}}))
	assert.NoError(t, assertReconstruction(r, Assertion{Event: "e2", Status: "rejected", Reason: "too_many_hits"}))

	err := assertReconstruction(r, Assertion{Event: "e1", Order: []int{1, 0}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "order")

	err = assertReconstruction(r, Assertion{Event: "e2", Reason: "no_hits"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reason")

	err = assertReconstruction(r, Assertion{Event: "missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no search result")
}

func TestAssertSession(t *testing.T) {
	r := sampleResult()
	r.Counts = store.RunCounts{Records: 4, Isotopes: 2, Orderings: 2, Good: 1}

	assert.NoError(t, assertSession(r, Assertion{Expect: map[string]any{"records": 4, "isotopes": 2, "good": 1}}))

	err := assertSession(r, Assertion{Expect: map[string]any{"orderings": 3}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "orderings = 2")

	err = assertSession(r, Assertion{Expect: map[string]any{"tracks": 1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown count")
}

func TestAssertionError_IncludesTrace(t *testing.T) {
	r := sampleResult()
	err := assertRecordCount(r, Assertion{Category: "COMP", Count: 5})
	require.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, "Full trace:")
	assert.Contains(t, msg, "e1 record COMP id=2 origin=1")
	assert.Contains(t, msg, "e2 record DECA id=5 origin=5")
}

func openStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	ctx := context.Background()
	_, err = st.CreateRun(ctx, store.NewRun("run", store.KindScenario, "normal", "unit"))
	require.NoError(t, err)
	_, err = st.WriteOrdering(ctx, "run", csr.Result{
		EventID: "e1", Status: csr.StatusGood, Type: csr.EventCompton, Order: []int{1, 0},
		Quality: 2.5, SecondQuality: csr.Failed, NCandidates: 2,
	})
	require.NoError(t, err)
	_, err = st.WriteOrdering(ctx, "run", csr.Result{
		EventID: "e2", Status: csr.StatusRejected, Type: csr.EventUnknown, Reason: csr.ReasonNoHits,
		Quality: csr.Failed, SecondQuality: csr.Failed,
	})
	require.NoError(t, err)
	return st
}

func TestAssertFinalState(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()

	assert.NoError(t, assertFinalState(ctx, st, Assertion{
		Table:  "orderings",
		Where:  map[string]any{"event_id": "e1"},
		Expect: map[string]any{"status": "good", "sequence": "[1,0]", "quality": 2.5, "n_candidates": 2},
	}))
	assert.NoError(t, assertFinalState(ctx, st, Assertion{
		Table:  "runs",
		Where:  map[string]any{"id": "run"},
		Expect: map[string]any{"kind": "scenario", "source": "unit"},
	}))

	tests := []struct {
		name      string
		assertion Assertion
		wantErr   string
	}{
		{
			name:      "value mismatch",
			assertion: Assertion{Table: "orderings", Where: map[string]any{"event_id": "e1"}, Expect: map[string]any{"status": "rejected"}},
			wantErr:   `field "status"`,
		},
		{
			name:      "no row",
			assertion: Assertion{Table: "orderings", Where: map[string]any{"event_id": "e9"}, Expect: map[string]any{"status": "good"}},
			wantErr:   "row not found",
		},
		{
			name:      "ambiguous",
			assertion: Assertion{Table: "orderings", Where: map[string]any{"run_id": "run"}, Expect: map[string]any{"status": "good"}},
			wantErr:   "multiple rows matched",
		},
		{
			name:      "missing column",
			assertion: Assertion{Table: "orderings", Where: map[string]any{"event_id": "e1"}, Expect: map[string]any{"colour": "red"}},
			wantErr:   "not present in result columns",
		},
		{
			name:      "unknown table",
			assertion: Assertion{Table: "widgets", Expect: map[string]any{"x": 1}},
			wantErr:   `unknown table "widgets"`,
		},
		{
			name:      "table injection",
			assertion: Assertion{Table: "runs; DROP TABLE runs", Expect: map[string]any{"x": 1}},
			wantErr:   "unknown table",
		},
		{
			name:      "column injection",
			assertion: Assertion{Table: "runs", Where: map[string]any{"id = id OR 1": 1}, Expect: map[string]any{"x": 1}},
			wantErr:   `unknown column "id = id OR 1" in table runs`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := assertFinalState(ctx, st, tt.assertion)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEvaluateAssertions(t *testing.T) {
	r := sampleResult()

	errs := EvaluateAssertions(r, []Assertion{
		{Type: AssertRecordCount, Category: "COMP", Count: 1},
		{Type: AssertKill, Track: 9},
		{Type: AssertFinalState, Table: "runs", Expect: map[string]any{"kind": "scenario"}},
		{Type: "trace_contains"},
	}, nil)

	require.Len(t, errs, 3)
	assert.Contains(t, errs[0], "Assertion failed: kill")
	assert.Contains(t, errs[1], "final_state requires database context")
	assert.Contains(t, errs[2], `unknown assertion type "trace_contains"`)
}

func TestValuesEqual(t *testing.T) {
	tests := []struct {
		name     string
		actual   any
		expected any
		want     bool
	}{
		{"int and float", int64(2), 2.0, true},
		{"float and int", 2.5, 2, false},
		{"sqlite bool", int64(1), true, true},
		{"sqlite false", int64(0), false, true},
		{"bytes as string", []byte("good"), "good", true},
		{"strings", "a", "b", false},
		{"vector", r3.Vec{X: 1, Y: 0, Z: -2}, []any{1, 0, -2.0}, true},
		{"vector length", r3.Vec{X: 1}, []any{1, 0}, false},
		{"both nil", nil, nil, true},
		{"one nil", nil, 0, false},
		{"number and string", 1.0, "1", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, valuesEqual(tt.actual, tt.expected))
		})
	}
}

func TestFormatWhereClause(t *testing.T) {
	assert.Equal(t, "(no conditions)", formatWhereClause(nil))
	assert.Equal(t, "a=1 AND b=x", formatWhereClause(map[string]any{"b": "x", "a": 1}))
}
