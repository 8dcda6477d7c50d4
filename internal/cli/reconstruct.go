package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/comptonseq/internal/csr"
	"github.com/roach88/comptonseq/internal/input"
	"github.com/roach88/comptonseq/internal/session"
	"github.com/roach88/comptonseq/internal/store"
)

// ReconstructOptions holds flags for the reconstruct command.
type ReconstructOptions struct {
	*RootOptions
	Database string
	Bins     int
	Strict   bool

	// RunIDs allows overriding the run id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDs session.RunIDGenerator
}

// ReconstructResult holds the output of the reconstruct command.
type ReconstructResult struct {
	RunID     string            `json:"run_id"`
	Orderings []csr.Result      `json:"orderings"`
	Summary   csr.SummaryReport `json:"summary"`
	Database  string            `json:"database,omitempty"`
}

func (r ReconstructResult) renderText(w io.Writer) {
	for _, res := range r.Orderings {
		if res.Good() {
			fmt.Fprintf(w, "%s: %s %v quality=%.4g candidates=%d\n",
				res.EventID, res.Type, res.Order, res.Quality, res.NCandidates)
			continue
		}
		fmt.Fprintf(w, "%s: rejected (%s)\n", res.EventID, res.Reason)
	}

	s := r.Summary
	fmt.Fprintf(w, "\n%d events, %d good\n", s.Events, s.Good)
	if s.Good > 0 {
		fmt.Fprintf(w, "quality: mean %.4g, median %.4g\n", s.Mean, s.Median)
	}
	for _, reason := range sortedReasons(s.Reasons) {
		fmt.Fprintf(w, "  rejected %-22s %d\n", reason, s.Reasons[reason])
	}
	peak := 0.0
	for _, b := range s.Bins {
		if b.Count > peak {
			peak = b.Count
		}
	}
	if peak > 0 {
		fmt.Fprintln(w, "quality histogram:")
		for _, b := range s.Bins {
			if b.Count == 0 {
				continue
			}
			bar := strings.Repeat("#", int(b.Count/peak*40+0.5))
			fmt.Fprintf(w, "  [%8.3g, %8.3g) %4g %s\n", b.Low, b.High, b.Count, bar)
		}
	}
	if r.Database != "" {
		fmt.Fprintf(w, "Stored in %s as run %s\n", r.Database, r.RunID)
	}
}

func sortedReasons(m map[csr.Reason]int) []csr.Reason {
	out := make([]csr.Reason, 0, len(m))
	for r := range m {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// NewReconstructCommand creates the reconstruct command.
func NewReconstructCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReconstructOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "reconstruct <events.yaml>",
		Short: "Order the interactions of readout events",
		Long: `Run the sequence search on every event of a readout file and print the
best ordering of each event together with a quality summary.

Exit codes:
  0 - Events reconstructed
  1 - Every event was rejected (--strict only)
  2 - Command error (invalid config, unreadable input, etc.)

Examples:
  comptonseq reconstruct ./events.yaml
  comptonseq reconstruct ./events.yaml --db ./runs.db --bins 50
  comptonseq reconstruct ./events.yaml --strict --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReconstruct(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database")
	cmd.Flags().IntVar(&opts.Bins, "bins", 0, "quality histogram bins (default: reconstruction.summary_bins)")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "fail when no event is reconstructed")

	return cmd
}

func runReconstruct(opts *ReconstructOptions, path string, cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	logger := opts.logger(cmd.ErrOrStderr())

	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	engine, err := cfg.Engine(csr.WithLogger(logger))
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid reconstruction configuration", err)
	}

	readout, err := input.LoadReadout(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load readout", err)
	}
	events, err := readout.Convert(cfg.SiteResolution())
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid readout", err)
	}

	summary := cfg.Summary()
	if opts.Bins > 0 {
		summary = csr.NewSummary(opts.Bins, cfg.Reconstruction.QualityMin, cfg.Reconstruction.QualityMax)
	}

	gen := opts.RunIDs
	if gen == nil {
		gen = session.UUIDv7Generator{}
	}
	result := ReconstructResult{RunID: gen.Generate(), Orderings: []csr.Result{}}

	dbPath := opts.Database
	if dbPath == "" {
		dbPath = cfg.Storage.Path
	}
	var st *store.Store
	if dbPath != "" {
		st, err = store.Open(dbPath)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer closeStore(st, logger)
		run := store.NewRun(result.RunID, store.KindReconstruct, cfg.Decay.Mode, path)
		if _, err := st.CreateRun(ctx, run); err != nil {
			return WrapExitError(ExitCommandError, "failed to create run", err)
		}
		result.Database = dbPath
	}

	for _, ev := range events {
		res, err := engine.Analyze(ctx, ev)
		if err != nil {
			return WrapExitError(ExitFailure, fmt.Sprintf("event %s", ev.ID), err)
		}
		summary.Add(res)
		result.Orderings = append(result.Orderings, res)
		if st != nil {
			if _, err := st.WriteOrdering(ctx, result.RunID, res); err != nil {
				return WrapExitError(ExitCommandError, "failed to store ordering", err)
			}
		}
	}
	result.Summary = summary.Report()

	if err := opts.formatter(cmd).Success(result); err != nil {
		return err
	}
	if opts.Strict && len(events) > 0 && result.Summary.Good == 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("all %d events were rejected", len(events)))
	}
	return nil
}
