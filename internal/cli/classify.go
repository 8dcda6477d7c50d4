package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/comptonseq/internal/classify"
	"github.com/roach88/comptonseq/internal/ir"
)

// ClassifyEntry is the classification of one process name.
type ClassifyEntry struct {
	Name     string `json:"name"`
	Process  string `json:"process"`
	Category string `json:"category"`
	Code     string `json:"code"`
	Known    bool   `json:"known"`
}

// ClassifyResult lists classified process names in argument order.
type ClassifyResult struct {
	Entries []ClassifyEntry `json:"entries"`
}

func (r ClassifyResult) renderText(w io.Writer) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tPROCESS\tCODE")
	for _, e := range r.Entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Name, e.Process, e.Code)
	}
	_ = tw.Flush()
}

// NewClassifyCommand creates the classify command.
func NewClassifyCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify <process-name>...",
		Short: "Classify physics process names",
		Long: `Map physics-engine process names to the record category they produce.

Unknown names are reported as "uncovered"; no record would be emitted for
them.

Examples:
  comptonseq classify compt phot eIoni
  comptonseq classify RadioactiveDecay --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClassify(rootOpts, args, cmd)
		},
	}
	return cmd
}

func runClassify(opts *RootOptions, names []string, cmd *cobra.Command) error {
	c := classify.New(classify.WithLogger(opts.logger(cmd.ErrOrStderr())))

	result := ClassifyResult{Entries: make([]ClassifyEntry, 0, len(names))}
	for _, name := range names {
		p := c.Classify(name)
		cat := ir.CategoryFor(p)
		result.Entries = append(result.Entries, ClassifyEntry{
			Name:     name,
			Process:  p.String(),
			Category: cat.String(),
			Code:     cat.Code(),
			Known:    p != ir.ProcessUncovered,
		})
	}
	return opts.formatter(cmd).Success(result)
}
