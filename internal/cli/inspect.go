package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/comptonseq/internal/csr"
	"github.com/roach88/comptonseq/internal/ir"
	"github.com/roach88/comptonseq/internal/queryir"
	"github.com/roach88/comptonseq/internal/store"
)

// InspectOptions holds flags for the inspect command.
type InspectOptions struct {
	*RootOptions
	Database string
	RunID    string
	Event    string
	Category string
}

// RunListing is one run with its stored counts.
type RunListing struct {
	store.Run
	Counts store.RunCounts `json:"counts"`
}

// InspectListResult lists the runs of a database.
type InspectListResult struct {
	Runs []RunListing `json:"runs"`
}

func (r InspectListResult) renderText(w io.Writer) {
	if len(r.Runs) == 0 {
		fmt.Fprintln(w, "No runs stored.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tKIND\tDECAY MODE\tRECORDS\tORDERINGS\tGOOD\tSOURCE")
	for _, run := range r.Runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n", run.ID, run.Kind, run.DecayMode,
			run.Counts.Records, run.Counts.Orderings, run.Counts.Good, run.Source)
	}
	_ = tw.Flush()
}

// InspectRunResult is the stored content of one run.
type InspectRunResult struct {
	Run       store.Run            `json:"run"`
	Counts    store.RunCounts      `json:"counts"`
	Records   []store.StoredRecord `json:"records"`
	Session   store.Session        `json:"session"`
	Orderings []csr.Result         `json:"orderings"`
}

func (r InspectRunResult) renderText(w io.Writer) {
	fmt.Fprintf(w, "Run %s\n", r.Run.ID)
	fmt.Fprintf(w, "  kind:       %s\n", r.Run.Kind)
	fmt.Fprintf(w, "  decay mode: %s\n", r.Run.DecayMode)
	if r.Run.Source != "" {
		fmt.Fprintf(w, "  source:     %s\n", r.Run.Source)
	}
	fmt.Fprintf(w, "  versions:   tool %s, records %s\n", r.Run.ToolVersion, r.Run.RecordVersion)

	if len(r.Records) > 0 {
		fmt.Fprintf(w, "\nRecords (%d):\n", len(r.Records))
		for _, rec := range r.Records {
			fmt.Fprintf(w, "  [%s] %s\n", rec.EventID, formatRecord(rec.Record))
		}
	}

	c := r.Counts
	if c.FutureEvents+c.Isotopes+c.Skips > 0 {
		fmt.Fprintln(w, "\nSession:")
		for _, ev := range r.Session.FutureEvents {
			fmt.Fprintf(w, "  future event %s in %s at t=%g\n", ev.Species, ev.Volume, ev.GlobalTime)
		}
		for _, iso := range r.Session.Isotopes {
			fmt.Fprintf(w, "  isotope %s in %s x%d\n", iso.Key, iso.Volume, iso.Count)
		}
		for _, sk := range r.Session.Skips {
			fmt.Fprintf(w, "  skip %s in %s x%d\n", sk.Species, sk.Volume, sk.Count)
		}
	}

	if len(r.Orderings) > 0 {
		fmt.Fprintf(w, "\nOrderings (%d, %d good):\n", c.Orderings, c.Good)
		for _, res := range r.Orderings {
			if res.Good() {
				fmt.Fprintf(w, "  %s: %s %v quality=%.4g\n", res.EventID, res.Type, res.Order, res.Quality)
			} else {
				fmt.Fprintf(w, "  %s: rejected (%s)\n", res.EventID, res.Reason)
			}
		}
	}
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InspectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show stored runs",
		Long: `List the runs of a database, or show the records, session state and
orderings of one run.

Examples:
  comptonseq inspect --db ./runs.db
  comptonseq inspect --db ./runs.db --run 01927c3e-...
  comptonseq inspect --db ./runs.db --run 01927c3e-... --event event-2
  comptonseq inspect --db ./runs.db --run 01927c3e-... --category PHOT --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run to show")
	cmd.Flags().StringVar(&opts.Event, "event", "", "only show records and orderings of this event")
	cmd.Flags().StringVar(&opts.Category, "category", "", "only show records of this category (code or name)")

	return cmd
}

func runInspect(opts *InspectOptions, cmd *cobra.Command) error {
	ctx := commandContext(cmd)

	if opts.RunID == "" && (opts.Event != "" || opts.Category != "") {
		return NewExitError(ExitCommandError, "--event and --category require --run")
	}
	recordFilter, orderingFilter, err := opts.filters()
	if err != nil {
		return err
	}

	// store.Open would create a missing database.
	if _, err := os.Stat(opts.Database); err != nil {
		return WrapExitError(ExitCommandError, "database not found", err)
	}
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer closeStore(st, opts.logger(cmd.ErrOrStderr()))

	if opts.RunID == "" {
		runs, err := st.ListRuns(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list runs", err)
		}
		result := InspectListResult{Runs: make([]RunListing, 0, len(runs))}
		for _, run := range runs {
			counts, err := st.Counts(ctx, run.ID)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to count run", err)
			}
			result.Runs = append(result.Runs, RunListing{Run: run, Counts: counts})
		}
		return opts.formatter(cmd).Success(result)
	}

	run, err := st.GetRun(ctx, opts.RunID)
	if errors.Is(err, store.ErrRunNotFound) {
		return WrapExitError(ExitCommandError, "unknown run", err)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}

	result := InspectRunResult{Run: run}
	if result.Counts, err = st.Counts(ctx, run.ID); err != nil {
		return WrapExitError(ExitCommandError, "failed to count run", err)
	}
	if result.Records, err = st.ReadRecords(ctx, run.ID, recordFilter); err != nil {
		return WrapExitError(ExitCommandError, "failed to read records", err)
	}
	if result.Session, err = st.ReadSession(ctx, run.ID); err != nil {
		return WrapExitError(ExitCommandError, "failed to read session", err)
	}
	if result.Orderings, err = st.ReadOrderings(ctx, run.ID, orderingFilter); err != nil {
		return WrapExitError(ExitCommandError, "failed to read orderings", err)
	}
	return opts.formatter(cmd).Success(result)
}

// filters turns --event and --category into store filters. Orderings have
// no category.
func (opts *InspectOptions) filters() (records, orderings queryir.Predicate, err error) {
	where := map[string]any{}
	if opts.Event != "" {
		where["event_id"] = opts.Event
	}
	orderings = queryir.Where(where)

	if opts.Category != "" {
		c, ok := ir.ParseCategoryCode(opts.Category)
		if !ok {
			if c, ok = ir.ParseCategory(opts.Category); !ok {
				return nil, nil, NewExitError(ExitCommandError, fmt.Sprintf("unknown category %q", opts.Category))
			}
		}
		where["category"] = c.Code()
	}
	return queryir.Where(where), orderings, nil
}
