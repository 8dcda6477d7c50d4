package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/comptonseq/internal/classify"
	"github.com/roach88/comptonseq/internal/input"
	"github.com/roach88/comptonseq/internal/ir"
	"github.com/roach88/comptonseq/internal/session"
	"github.com/roach88/comptonseq/internal/store"
	"github.com/roach88/comptonseq/internal/stream"
)

// SimulateOptions holds flags for the simulate command.
type SimulateOptions struct {
	*RootOptions
	Database string

	// RunIDs allows overriding the run id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDs session.RunIDGenerator
}

// SimulatedEvent is the interaction stream of one history event.
type SimulatedEvent struct {
	ID              string                 `json:"id"`
	Records         []ir.InteractionRecord `json:"records"`
	Kills           []input.Kill           `json:"kills,omitempty"`
	Skipped         int                    `json:"skipped,omitempty"`
	PassiveDeposits map[string]float64     `json:"passive_deposits,omitempty"`
	EnergyLoss      float64                `json:"energy_loss,omitempty"`
	Comments        []string               `json:"comments,omitempty"`
}

// SimulateResult holds the output of the simulate command.
type SimulateResult struct {
	RunID     string           `json:"run_id"`
	DecayMode string           `json:"decay_mode"`
	Events    []SimulatedEvent `json:"events"`
	Session   session.Counts   `json:"session"`
	Database  string           `json:"database,omitempty"`
}

func (r SimulateResult) renderText(w io.Writer) {
	fmt.Fprintf(w, "Run %s (decay mode %s)\n", r.RunID, r.DecayMode)
	for _, ev := range r.Events {
		fmt.Fprintf(w, "\nEvent %s: %d records\n", ev.ID, len(ev.Records))
		for _, rec := range ev.Records {
			fmt.Fprintf(w, "  %s\n", formatRecord(rec))
		}
		for _, k := range ev.Kills {
			fmt.Fprintf(w, "  killed track %d: %s\n", k.Track, k.Reason)
		}
		if ev.Skipped > 0 {
			fmt.Fprintf(w, "  skipped %d steps of killed tracks\n", ev.Skipped)
		}
		for _, c := range ev.Comments {
			fmt.Fprintf(w, "  # %s\n", c)
		}
		if ev.EnergyLoss > 0 {
			fmt.Fprintf(w, "  energy lost with killed tracks: %g keV\n", ev.EnergyLoss)
		}
	}
	fmt.Fprintf(w, "\nSession: %d future events, %d stored nuclei, %d pending skips\n",
		r.Session.FutureEvents, r.Session.Isotopes, r.Session.Skips)
	if r.Database != "" {
		fmt.Fprintf(w, "Stored in %s\n", r.Database)
	}
}

func formatRecord(r ir.InteractionRecord) string {
	s := fmt.Sprintf("%s id=%d origin=%d t=%g pos=(%g, %g, %g)",
		r.Category.Code(), r.ID, r.OriginID, r.Time, r.Position.X, r.Position.Y, r.Position.Z)
	if r.DetectorType != ir.DetectorNone {
		s += " det=" + r.DetectorType.String()
	}
	if r.InEnergy != 0 {
		s += fmt.Sprintf(" in=%s/%g", r.InType, r.InEnergy)
	}
	if r.OutType != ir.ParticleNone {
		s += fmt.Sprintf(" out=%s/%g", r.OutType, r.OutEnergy)
	}
	if r.Deposit != 0 {
		s += fmt.Sprintf(" deposit=%g", r.Deposit)
	}
	return s
}

// NewSimulateCommand creates the simulate command.
func NewSimulateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SimulateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "simulate <history.yaml>",
		Short: "Build interaction streams from step histories",
		Long: `Replay the step histories of a file through the interaction stream
builder and print the emitted records and the session state.

With --db (or storage.path in the config) the run, its records and its
session state are persisted to SQLite. Record ids continue after the
largest id already in the database.

Examples:
  comptonseq simulate ./histories.yaml
  comptonseq simulate ./histories.yaml --db ./runs.db
  comptonseq --config activation.yaml simulate ./co60.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database")

	return cmd
}

func runSimulate(opts *SimulateOptions, path string, cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	logger := opts.logger(cmd.ErrOrStderr())

	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	sched, err := cfg.Scheduler()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid decay configuration", err)
	}

	h, err := input.LoadHistory(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load history", err)
	}
	levels, err := input.LevelTable(h.Levels)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid level table", err)
	}

	dbPath := opts.Database
	if dbPath == "" {
		dbPath = cfg.Storage.Path
	}
	var st *store.Store
	ids := stream.NewIDCounter()
	if dbPath != "" {
		st, err = store.Open(dbPath)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer closeStore(st, logger)
		last, err := st.MaxRecordID(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read record ids", err)
		}
		ids = stream.NewIDCounterAt(last)
	}

	gen := opts.RunIDs
	if gen == nil {
		gen = session.UUIDv7Generator{}
	}
	runID := gen.Generate()
	state := session.NewState(runID)
	sink := stream.NewCollector()
	builder, err := stream.NewBuilder(cfg.StreamConfig(),
		classify.New(classify.WithLogger(logger)), sched, state, sink,
		stream.WithLogger(logger),
		stream.WithIDCounter(ids),
		stream.WithNuclearLevels(levels),
	)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid stream configuration", err)
	}

	if st != nil {
		run := store.NewRun(runID, store.KindSimulate, sched.Mode().String(), path)
		if _, err := st.CreateRun(ctx, run); err != nil {
			return WrapExitError(ExitCommandError, "failed to create run", err)
		}
	}

	result := SimulateResult{RunID: runID, DecayMode: sched.Mode().String(), Events: []SimulatedEvent{}}
	for i := range h.Events {
		ev := h.Events[i]
		if ev.ID == "" {
			ev.ID = fmt.Sprintf("event-%d", i+1)
		}
		sink.Reset()
		trace, err := input.Replay(ctx, builder, &ev, sink)
		if err != nil {
			return WrapExitError(ExitFailure, fmt.Sprintf("event %s", ev.ID), err)
		}
		logger.Info("event simulated", "event", ev.ID, "records", len(trace.Records), "kills", len(trace.Kills))

		if st != nil {
			if _, err := st.WriteRecords(ctx, runID, ev.ID, trace.Records); err != nil {
				return WrapExitError(ExitCommandError, "failed to store records", err)
			}
		}
		result.Events = append(result.Events, SimulatedEvent{
			ID:              ev.ID,
			Records:         trace.Records,
			Kills:           trace.Kills,
			Skipped:         trace.Skipped,
			PassiveDeposits: sink.PassiveDeposits(),
			EnergyLoss:      sink.EnergyLoss(),
			Comments:        sink.Comments(),
		})
	}

	result.Session = state.Counts()
	if st != nil {
		if err := st.WriteSession(ctx, runID, store.SnapshotOf(state)); err != nil {
			return WrapExitError(ExitCommandError, "failed to store session", err)
		}
		result.Database = dbPath
	}

	return opts.formatter(cmd).Success(result)
}

// commandContext returns the command's context, or Background outside
// Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func closeStore(st *store.Store, logger *slog.Logger) {
	if err := st.Close(); err != nil {
		logger.Error("error closing database", "error", err)
	}
}
