package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/comptonseq/internal/classify"
	"github.com/roach88/comptonseq/internal/config"
	"github.com/roach88/comptonseq/internal/csr"
	"github.com/roach88/comptonseq/internal/input"
	"github.com/roach88/comptonseq/internal/session"
	"github.com/roach88/comptonseq/internal/store"
	"github.com/roach88/comptonseq/internal/stream"
	"github.com/roach88/comptonseq/internal/testutil"
)

// Harness is the test execution engine of one scenario.
type Harness struct {
	store   *store.Store
	cfg     *config.Config
	builder *stream.Builder
	sink    *stream.Collector
	state   *session.State
	engine  *csr.Engine
	seq     *testutil.Sequence
	runID   string
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation. The run
// id is fixed so that repeated runs produce identical traces.
//
// Execution flow:
//  1. Build the configuration and the run's stream builder
//  2. Replay every history event, reconstructing it if requested
//  3. Reconstruct every readout event
//  4. Persist the session and read the counts back
//  5. Evaluate assertions
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h, err := newHarness(st, scenario)
	if err != nil {
		return nil, err
	}

	if _, err := st.CreateRun(ctx, store.NewRun(h.runID, store.KindScenario, h.cfg.Decay.Mode, scenario.Name)); err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	result := NewResult(h.runID)
	if err := h.executeHistory(ctx, scenario, result); err != nil {
		return nil, fmt.Errorf("failed to execute history: %w", err)
	}
	if err := h.executeReadout(ctx, scenario.Events, result); err != nil {
		return nil, fmt.Errorf("failed to execute readout: %w", err)
	}

	if err := st.WriteSession(ctx, h.runID, store.SnapshotOf(h.state)); err != nil {
		return nil, fmt.Errorf("failed to write session: %w", err)
	}
	counts, err := st.Counts(ctx, h.runID)
	if err != nil {
		return nil, fmt.Errorf("failed to read counts: %w", err)
	}
	result.Counts = counts

	actx := &AssertionContext{
		Store: st,
		Ctx:   ctx,
	}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	return result, nil
}

func newHarness(st *store.Store, scenario *Scenario) (*Harness, error) {
	// Logs are suppressed in scenario runs.
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg, err := config.FromMap(scenario.Config)
	if err != nil {
		return nil, fmt.Errorf("scenario config: %w", err)
	}
	sched, err := cfg.Scheduler()
	if err != nil {
		return nil, fmt.Errorf("scenario config: %w", err)
	}
	engine, err := cfg.Engine(csr.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("scenario config: %w", err)
	}
	levels, err := input.LevelTable(scenario.Levels)
	if err != nil {
		return nil, err
	}

	runID := testutil.NewFixedRunID(scenario.RunID).Generate()
	state := session.NewState(runID)
	sink := stream.NewCollector()
	builder, err := stream.NewBuilder(cfg.StreamConfig(),
		classify.New(classify.WithLogger(logger)), sched, state, sink,
		stream.WithLogger(logger),
		stream.WithNuclearLevels(levels),
	)
	if err != nil {
		return nil, err
	}

	return &Harness{
		store:   st,
		cfg:     cfg,
		builder: builder,
		sink:    sink,
		state:   state,
		engine:  engine,
		seq:     testutil.NewSequence(),
		runID:   runID,
	}, nil
}

// executeHistory replays the history events in order. Unnamed events are
// called history-N.
func (h *Harness) executeHistory(ctx context.Context, scenario *Scenario, result *Result) error {
	for i := range scenario.History {
		ev := scenario.History[i]
		if ev.ID == "" {
			ev.ID = fmt.Sprintf("history-%d", i+1)
		}

		h.sink.Reset()
		trace, err := input.Replay(ctx, h.builder, &ev, h.sink)
		if err != nil {
			return err
		}

		er := EventResult{ID: ev.ID, Records: trace.Records, Kills: trace.Kills, Skipped: trace.Skipped}
		for _, rec := range trace.Records {
			result.AddRecordTrace(ev.ID, rec, h.seq.Next())
		}
		for _, k := range trace.Kills {
			result.AddKillTrace(ev.ID, k, h.seq.Next())
		}
		if _, err := h.store.WriteRecords(ctx, h.runID, ev.ID, trace.Records); err != nil {
			return err
		}

		if scenario.Reconstruct {
			sites := input.SitesFromRecords(trace.Records, h.cfg.SiteResolution())
			res, err := h.reconstruct(ctx, csr.Event{ID: ev.ID, Sites: sites}, result)
			if err != nil {
				return err
			}
			er.Reconstruction = &res
		}
		result.Events = append(result.Events, er)
	}
	return nil
}

// executeReadout reconstructs the readout events.
func (h *Harness) executeReadout(ctx context.Context, specs []input.EventSpec, result *Result) error {
	if len(specs) == 0 {
		return nil
	}
	events, err := (&input.Readout{Events: specs}).Convert(h.cfg.SiteResolution())
	if err != nil {
		return err
	}
	for _, ev := range events {
		res, err := h.reconstruct(ctx, ev, result)
		if err != nil {
			return err
		}
		result.Events = append(result.Events, EventResult{ID: ev.ID, Reconstruction: &res})
	}
	return nil
}

func (h *Harness) reconstruct(ctx context.Context, ev csr.Event, result *Result) (csr.Result, error) {
	res, err := h.engine.Analyze(ctx, ev)
	if err != nil {
		return csr.Result{}, err
	}
	result.AddOrderingTrace(res, h.seq.Next())
	if _, err := h.store.WriteOrdering(ctx, h.runID, res); err != nil {
		return csr.Result{}, err
	}
	return res, nil
}
