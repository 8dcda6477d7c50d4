package input

import (
	"context"
	"fmt"

	"github.com/roach88/comptonseq/internal/ir"
	"github.com/roach88/comptonseq/internal/stream"
)

// Driver is the part of *stream.Builder a replay needs.
type Driver interface {
	BeginEvent(initial []ir.ParticleCode)
	StartPrimary(trackID, index int) error
	Step(ctx context.Context, step stream.Step) (stream.Outcome, error)
	EndTrack(trackID int)
}

var _ Driver = (*stream.Builder)(nil)

// Aborter raises the event-abort flag of the sink. *stream.Collector
// implements it.
type Aborter interface {
	Abort()
}

// Kill records a track the builder terminated.
type Kill struct {
	Track       int               `json:"track"`
	Reason      stream.KillReason `json:"reason"`
	Secondaries []int             `json:"secondaries,omitempty"`
}

// Trace is the result of replaying one history event.
type Trace struct {
	EventID string                 `json:"event_id"`
	Records []ir.InteractionRecord `json:"records"`
	Kills   []Kill                 `json:"kills,omitempty"`

	// Skipped counts steps of tracks that were already terminated.
	Skipped int `json:"skipped,omitempty"`
}

// Replay feeds the steps of ev to d in file order, the way a transport
// engine would. Steps of killed or culled tracks are skipped. abort may be
// nil when ev never aborts.
func Replay(ctx context.Context, d Driver, ev *HistoryEvent, abort Aborter) (*Trace, error) {
	initial, err := ev.Initial()
	if err != nil {
		return nil, fmt.Errorf("event %q: %w", ev.ID, err)
	}
	d.BeginEvent(initial)
	for _, p := range ev.PrimaryTracks() {
		if err := d.StartPrimary(p.Track, p.Index); err != nil {
			return nil, fmt.Errorf("event %q: %w", ev.ID, err)
		}
	}

	trace := &Trace{EventID: ev.ID}
	dead := make(map[int]bool)
	for i, spec := range ev.Steps {
		if err := ctx.Err(); err != nil {
			return trace, err
		}
		if ev.AbortAfter > 0 && i == ev.AbortAfter && abort != nil {
			abort.Abort()
		}
		if dead[spec.Track] {
			trace.Skipped++
			continue
		}

		step, err := spec.Step()
		if err != nil {
			return trace, fmt.Errorf("event %q step %d: %w", ev.ID, i, err)
		}
		out, err := d.Step(ctx, step)
		if err != nil {
			return trace, fmt.Errorf("event %q step %d: %w", ev.ID, i, err)
		}
		trace.Records = append(trace.Records, out.Records...)

		terminated := out.Terminated()
		for _, id := range terminated {
			dead[id] = true
			d.EndTrack(id)
		}
		switch {
		case out.Kill:
			dead[spec.Track] = true
			d.EndTrack(spec.Track)
			trace.Kills = append(trace.Kills, Kill{Track: spec.Track, Reason: out.KillReason, Secondaries: terminated})
		case spec.End:
			d.EndTrack(spec.Track)
		}
	}
	return trace, nil
}
