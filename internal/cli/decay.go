package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/comptonseq/internal/decay"
)

// DecayOptions holds flags for the decay command.
type DecayOptions struct {
	*RootOptions
	Mode           string
	Delay          float64
	Threshold      float64
	Primary        bool
	BuildUpInitial bool
	Table          bool
}

// DecayRow is one decision of the decay scheduler.
type DecayRow struct {
	Mode           string  `json:"mode"`
	Delay          float64 `json:"delay"`
	Threshold      float64 `json:"threshold"`
	Delayed        bool    `json:"delayed"`
	Primary        bool    `json:"primary"`
	BuildUpInitial bool    `json:"buildup_initial"`
	decay.Decision
}

// DecayResult holds one decision or the whole table.
type DecayResult struct {
	Rows []DecayRow `json:"rows"`
}

func (r DecayResult) renderText(w io.Writer) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "MODE\tDELAYED\tPRIMARY\tBUILDUP-INITIAL\tK\tS\tF\tD")
	for _, row := range r.Rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			row.Mode, flag(row.Delayed), flag(row.Primary), flag(row.BuildUpInitial),
			flag(row.Keep), flag(row.Store), flag(row.FutureEvent), flag(row.DoNotStart))
	}
	_ = tw.Flush()
}

func flag(b bool) string {
	if b {
		return "T"
	}
	return "F"
}

// NewDecayCommand creates the decay command.
func NewDecayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DecayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "decay",
		Short: "Show radioactive decay decisions",
		Long: `Show how a radioactive decay is handled in a decay mode.

The four flags are Keep (track the products now), Store (add the nucleus
to the activation inventory), FutureEvent (schedule the decay as a later
event) and DoNotStart (skip the next event started from this volume).

The threshold defaults to the configured decay.time_constant.

Examples:
  comptonseq decay --mode buildup --delay 3600
  comptonseq decay --mode activationdelayeddecay --delay 1e-12 --primary
  comptonseq decay --table`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Mode, "mode", "", "decay mode (default: configured decay.mode)")
	cmd.Flags().Float64Var(&opts.Delay, "delay", 0, "time between the decay step and its earliest product, in seconds")
	cmd.Flags().Float64Var(&opts.Threshold, "threshold", 0, "detector time constant in seconds")
	cmd.Flags().BoolVar(&opts.Primary, "primary", false, "the decaying track descends from an initial particle")
	cmd.Flags().BoolVar(&opts.BuildUpInitial, "buildup-initial", false, "the decaying track is an initial build-up source particle")
	cmd.Flags().BoolVar(&opts.Table, "table", false, "print the decision of every mode and condition")

	return cmd
}

func runDecay(opts *DecayOptions, cmd *cobra.Command) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	threshold := cfg.Decay.TimeConstant
	if cmd.Flags().Changed("threshold") {
		threshold = opts.Threshold
	}

	if opts.Table {
		rows, err := decisionTable(threshold)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid threshold", err)
		}
		return opts.formatter(cmd).Success(DecayResult{Rows: rows})
	}

	modeName := cfg.Decay.Mode
	if opts.Mode != "" {
		modeName = opts.Mode
	}
	mode, err := decay.ParseMode(modeName)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid decay mode", err)
	}
	row, err := decide(mode, threshold, opts.Delay, opts.Primary, opts.BuildUpInitial)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid threshold", err)
	}
	return opts.formatter(cmd).Success(DecayResult{Rows: []DecayRow{row}})
}

// decisionTable evaluates every mode on both sides of the threshold for
// every combination of the two input flags.
func decisionTable(threshold float64) ([]DecayRow, error) {
	delays := []float64{threshold, threshold*10 + 1}
	var rows []DecayRow
	for _, mode := range decay.Modes() {
		for _, delay := range delays {
			for _, primary := range []bool{false, true} {
				for _, initial := range []bool{false, true} {
					row, err := decide(mode, threshold, delay, primary, initial)
					if err != nil {
						return nil, err
					}
					rows = append(rows, row)
				}
			}
		}
	}
	return rows, nil
}

func decide(mode decay.Mode, threshold, delay float64, primary, initial bool) (DecayRow, error) {
	s, err := decay.NewScheduler(mode, threshold)
	if err != nil {
		return DecayRow{}, err
	}
	d := s.Decide(decay.Input{
		TimeDelay:                          delay,
		IsPrimaryDecay:                     primary,
		IsInitialParticleFromBuildUpSource: initial,
	})
	return DecayRow{
		Mode:           mode.String(),
		Delay:          delay,
		Threshold:      threshold,
		Delayed:        s.Delayed(delay),
		Primary:        primary,
		BuildUpInitial: initial,
		Decision:       d,
	}, nil
}
