package stream

import (
	"sort"

	"github.com/roach88/comptonseq/internal/ir"
)

// trackEntry is the side-table row for one live track.
type trackEntry struct {
	info  ir.TrackInformation
	guard *StepGuard
}

// TrackTable maps engine track ids to their bookkeeping.
//
// Not safe for concurrent use; the builder owning it serializes access.
type TrackTable struct {
	maxSteps int
	maxStill int
	rows     map[int]*trackEntry
}

// NewTrackTable creates an empty table whose guards use the given limits.
func NewTrackTable(maxSteps, maxStill int) *TrackTable {
	return &TrackTable{
		maxSteps: maxSteps,
		maxStill: maxStill,
		rows:     make(map[int]*trackEntry),
	}
}

// Insert sets the information of a track, replacing any previous row.
func (t *TrackTable) Insert(trackID int, info ir.TrackInformation) {
	t.rows[trackID] = &trackEntry{info: info, guard: NewStepGuard(t.maxSteps, t.maxStill)}
}

// Has reports whether the track has information.
func (t *TrackTable) Has(trackID int) bool {
	_, ok := t.rows[trackID]
	return ok
}

// Get returns the information of a track.
func (t *TrackTable) Get(trackID int) (ir.TrackInformation, bool) {
	row, ok := t.rows[trackID]
	if !ok {
		return ir.TrackInformation{}, false
	}
	return row.info, true
}

// Remove drops a track. Removing an unknown track is a no-op.
func (t *TrackTable) Remove(trackID int) {
	delete(t.rows, trackID)
}

// Len returns the number of live tracks.
func (t *TrackTable) Len() int {
	return len(t.rows)
}

// IDs returns the live track ids in ascending order.
func (t *TrackTable) IDs() []int {
	ids := make([]int, 0, len(t.rows))
	for id := range t.rows {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Clear drops every track.
func (t *TrackTable) Clear() {
	t.rows = make(map[int]*trackEntry)
}

func (t *TrackTable) row(trackID int) *trackEntry {
	return t.rows[trackID]
}
