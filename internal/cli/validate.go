package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/comptonseq/internal/config"
	"github.com/roach88/comptonseq/internal/harness"
	"github.com/roach88/comptonseq/internal/input"
)

// Input file kinds.
const (
	KindAuto     = "auto"
	KindConfig   = "config"
	KindHistory  = "history"
	KindReadout  = "readout"
	KindScenario = "scenario"
)

// FileValidation is the outcome of validating one file.
type FileValidation struct {
	Path  string `json:"path"`
	Kind  string `json:"kind"`
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`

	// Key is the offending configuration key, for config files.
	Key string `json:"key,omitempty"`
	// Where locates the offending entry, for input files.
	Where string `json:"where,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid bool             `json:"valid"`
	Files []FileValidation `json:"files"`
}

func (r ValidationResult) renderText(w io.Writer) {
	for _, f := range r.Files {
		if f.Valid {
			fmt.Fprintf(w, "✓ %s (%s)\n", f.Path, f.Kind)
			continue
		}
		fmt.Fprintf(w, "✗ %s (%s)\n", f.Path, f.Kind)
		fmt.Fprintf(w, "  %s\n", f.Error)
	}
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "validate <file>...",
		Short: "Validate config, history, readout and scenario files",
		Long: `Validate input files without running them.

Config files are checked against the configuration schema; histories,
readout files and scenarios are decoded strictly and validated entry by
entry. With --kind auto the kind is guessed from the top-level keys.

Exit codes:
  0 - All files valid
  1 - One or more files invalid
  2 - Command error (unreadable file, unknown kind)`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, kind, args, cmd)
		},
	}

	cmd.Flags().StringVar(&kind, "kind", KindAuto, "file kind (auto|config|history|readout|scenario)")

	return cmd
}

func runValidate(opts *RootOptions, kind string, paths []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	result := ValidationResult{Valid: true, Files: make([]FileValidation, 0, len(paths))}
	for _, path := range paths {
		k := kind
		if k == KindAuto {
			var err error
			if k, err = detectKind(path); err != nil {
				_ = formatter.Error("E_INPUT", err.Error(), nil)
				return WrapExitError(ExitCommandError, "cannot read "+path, err)
			}
		}
		formatter.VerboseLog("Validating %s as %s", path, k)

		fv, err := validateFile(path, k)
		if err != nil {
			_ = formatter.Error("E_INPUT", err.Error(), nil)
			return WrapExitError(ExitCommandError, "cannot validate "+path, err)
		}
		if !fv.Valid {
			result.Valid = false
		}
		result.Files = append(result.Files, fv)
	}

	if err := formatter.Success(result); err != nil {
		return err
	}
	if !result.Valid {
		return NewExitError(ExitFailure, "validation failed")
	}
	return nil
}

// validateFile checks one file. The returned error is reserved for files
// that cannot be validated at all.
func validateFile(path, kind string) (FileValidation, error) {
	fv := FileValidation{Path: path, Kind: kind, Valid: true}
	if _, err := os.Stat(path); err != nil {
		return fv, err
	}

	var err error
	switch kind {
	case KindConfig:
		_, err = config.Load(path)
	case KindHistory:
		_, err = input.LoadHistory(path)
	case KindReadout:
		var r *input.Readout
		if r, err = input.LoadReadout(path); err == nil {
			_, err = r.Convert(input.DefaultResolution)
		}
	case KindScenario:
		_, err = harness.LoadScenario(path)
	default:
		return fv, fmt.Errorf("unknown kind %q", kind)
	}
	if err == nil {
		return fv, nil
	}

	fv.Valid = false
	fv.Error = err.Error()
	var ve *config.ValidationError
	if errors.As(err, &ve) {
		fv.Key = ve.Path
	}
	var fe *input.FormatError
	if errors.As(err, &fe) {
		fv.Where = fe.Where
	}
	return fv, nil
}

// detectKind guesses a file's kind from its top-level keys.
func detectKind(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		// Let the strict decoder of the kind report the syntax error.
		return KindConfig, nil
	}

	if _, ok := doc["assertions"]; ok {
		return KindScenario, nil
	}
	if events, ok := doc["events"].([]any); ok {
		for _, ev := range events {
			if m, ok := ev.(map[string]any); ok {
				if _, ok := m["steps"]; ok {
					return KindHistory, nil
				}
				if _, ok := m["sites"]; ok {
					return KindReadout, nil
				}
			}
		}
	}
	if _, ok := doc["levels"]; ok {
		return KindHistory, nil
	}
	return KindConfig, nil
}
