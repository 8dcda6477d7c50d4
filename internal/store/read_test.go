package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/comptonseq/internal/csr"
	"github.com/roach88/comptonseq/internal/ir"
	"github.com/roach88/comptonseq/internal/queryir"
)

// ============================================================================
// Filtered reads
// ============================================================================

func TestReadRecordsFiltered(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	newRun(t, s, "run-1")
	newRun(t, s, "run-2")

	records := testRecords()
	_, err := s.WriteRecords(ctx, "run-1", "ev-1", records[:1])
	require.NoError(t, err)
	_, err = s.WriteRecords(ctx, "run-1", "ev-2", records[1:])
	require.NoError(t, err)
	_, err = s.WriteRecords(ctx, "run-2", "ev-1", records)
	require.NoError(t, err)

	got, err := s.ReadRecords(ctx, "run-1", queryir.Equals{Field: "category", Value: "PHOT"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(3), got[0].Record.ID)
	assert.Equal(t, "ev-2", got[0].EventID)

	got, err = s.ReadRecords(ctx, "run-1", queryir.Equals{Field: "event_id", Value: "ev-1"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].Record.ID)

	got, err = s.ReadRecords(ctx, "run-1",
		queryir.Equals{Field: "event_id", Value: "ev-1"},
		queryir.Equals{Field: "category", Value: "PHOT"},
	)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)

	got, err = s.ReadRecords(ctx, "run-2", nil)
	require.NoError(t, err)
	assert.Len(t, got, 2, "nil filters are ignored")
}

func TestReadRecordsRejectsUnknownColumn(t *testing.T) {
	s := createTestStore(t)
	newRun(t, s, "run-1")

	_, err := s.ReadRecords(context.Background(), "run-1", queryir.Equals{Field: "colour", Value: "red"})
	require.Error(t, err)
	assert.True(t, queryir.IsValidationError(err))
	assert.Contains(t, err.Error(), `unknown column "colour" in table interactions`)
}

func TestReadOrderingsFiltered(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	newRun(t, s, "run-1")

	for _, res := range []csr.Result{
		{EventID: "ev-1", Status: csr.StatusGood, Type: csr.EventCompton, Order: []int{1, 0}, Quality: 0.5, SecondQuality: 2},
		{EventID: "ev-2", Status: csr.StatusRejected, Type: csr.EventUnknown, Reason: csr.ReasonNoGoodCombination, Quality: csr.Failed, SecondQuality: csr.Failed},
	} {
		_, err := s.WriteOrdering(ctx, "run-1", res)
		require.NoError(t, err)
	}

	got, err := s.ReadOrderings(ctx, "run-1", queryir.Equals{Field: "event_id", Value: "ev-2"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, csr.StatusRejected, got[0].Status)

	got, err = s.ReadOrderings(ctx, "run-1", queryir.Equals{Field: "status", Value: string(csr.StatusGood)})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ev-1", got[0].EventID)
	assert.Equal(t, []int{1, 0}, got[0].Order)
}

// Every filter shape goes through the real driver, including the ORDER BY
// clause. Rows are written out of key order.
func TestReadBackFilterCombinations(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	newRun(t, s, "run-1")
	newRun(t, s, "run-2")

	base := testRecords()
	compton, photo := base[0], base[1]
	late := compton
	late.ID = 9
	early := photo
	early.ID = 1

	_, err := s.WriteRecords(ctx, "run-1", "ev-b", []ir.InteractionRecord{late, compton})
	require.NoError(t, err)
	_, err = s.WriteRecords(ctx, "run-1", "ev-a", []ir.InteractionRecord{photo, early})
	require.NoError(t, err)
	_, err = s.WriteRecords(ctx, "run-2", "ev-a", base)
	require.NoError(t, err)

	recordTests := []struct {
		name    string
		filters []queryir.Predicate
		want    []int64
	}{
		{"no filter", nil, []int64{1, 2, 3, 9}},
		{"event", []queryir.Predicate{queryir.Equals{Field: "event_id", Value: "ev-b"}}, []int64{2, 9}},
		{"category", []queryir.Predicate{queryir.Equals{Field: "category", Value: "COMP"}}, []int64{2, 9}},
		{"integer column", []queryir.Predicate{queryir.Equals{Field: "record_id", Value: 3}}, []int64{3}},
		{"two filters", []queryir.Predicate{
			queryir.Equals{Field: "event_id", Value: "ev-a"},
			queryir.Equals{Field: "category", Value: "PHOT"},
		}, []int64{1, 3}},
		{"nested and", []queryir.Predicate{queryir.And{Predicates: []queryir.Predicate{
			queryir.Equals{Field: "event_id", Value: "ev-a"},
			queryir.And{Predicates: []queryir.Predicate{queryir.Equals{Field: "record_id", Value: 1}}},
		}}}, []int64{1}},
		{"no match", []queryir.Predicate{queryir.Equals{Field: "category", Value: "PAIR"}}, []int64{}},
	}
	for _, tt := range recordTests {
		t.Run("records/"+tt.name, func(t *testing.T) {
			got, err := s.ReadRecords(ctx, "run-1", tt.filters...)
			require.NoError(t, err)
			ids := []int64{}
			for _, r := range got {
				ids = append(ids, r.Record.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}

	for _, res := range []csr.Result{
		{EventID: "ev-c", Status: csr.StatusRejected, Type: csr.EventPhoto, Reason: csr.ReasonTooFewSites, Quality: csr.Failed, SecondQuality: csr.Failed},
		{EventID: "ev-a", Status: csr.StatusGood, Type: csr.EventCompton, Order: []int{2, 0, 1}, Quality: 0.25, SecondQuality: 1.5, NCandidates: 6},
		{EventID: "ev-b", Status: csr.StatusGood, Type: csr.EventCompton, Order: []int{0, 1}, Quality: 0.5, SecondQuality: 0.75, NCandidates: 2, NearTies: 1},
	} {
		_, err := s.WriteOrdering(ctx, "run-1", res)
		require.NoError(t, err)
	}

	orderingTests := []struct {
		name    string
		filters []queryir.Predicate
		want    []string
	}{
		{"no filter", nil, []string{"ev-c", "ev-a", "ev-b"}},
		{"status", []queryir.Predicate{queryir.Equals{Field: "status", Value: string(csr.StatusGood)}}, []string{"ev-a", "ev-b"}},
		{"reason", []queryir.Predicate{queryir.Equals{Field: "reason", Value: string(csr.ReasonTooFewSites)}}, []string{"ev-c"}},
		{"integer column", []queryir.Predicate{queryir.Equals{Field: "near_ties", Value: 1}}, []string{"ev-b"}},
		{"float column", []queryir.Predicate{queryir.Equals{Field: "quality", Value: 0.25}}, []string{"ev-a"}},
		{"two filters", []queryir.Predicate{
			queryir.Equals{Field: "event_type", Value: string(csr.EventCompton)},
			queryir.Equals{Field: "event_id", Value: "ev-b"},
		}, []string{"ev-b"}},
		{"no match", []queryir.Predicate{queryir.Equals{Field: "event_id", Value: "ev-z"}}, []string{}},
	}
	for _, tt := range orderingTests {
		t.Run("orderings/"+tt.name, func(t *testing.T) {
			got, err := s.ReadOrderings(ctx, "run-1", tt.filters...)
			require.NoError(t, err)
			ids := []string{}
			for _, r := range got {
				ids = append(ids, r.EventID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}

	// A failed single-site search reads back with no ordering.
	got, err := s.ReadOrderings(ctx, "run-1", queryir.Equals{Field: "event_id", Value: "ev-c"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, csr.EventPhoto, got[0].Type)
	assert.Empty(t, got[0].Order)
	assert.Equal(t, csr.Failed, got[0].Quality)
}

// ============================================================================
// Catalog
// ============================================================================

// The query catalog must list the columns of schema.sql in table order.
func TestCatalogMatchesSchema(t *testing.T) {
	s := createTestStore(t)

	var tables []string
	rows, err := s.db.Query("SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	require.NoError(t, err)
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		tables = append(tables, name)
	}
	require.NoError(t, rows.Err())
	rows.Close()
	assert.Equal(t, queryir.TableNames(), tables)

	for _, name := range tables {
		t.Run(name, func(t *testing.T) {
			rows, err := s.db.Query("SELECT name FROM pragma_table_info(?) ORDER BY cid", name)
			require.NoError(t, err)
			defer rows.Close()

			var columns []string
			for rows.Next() {
				var c string
				require.NoError(t, rows.Scan(&c))
				columns = append(columns, c)
			}
			require.NoError(t, rows.Err())
			assert.Equal(t, queryir.Tables[name].Columns, columns)
		})
	}
}
