package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/comptonseq/internal/csr"
	"github.com/roach88/comptonseq/internal/input"
	"github.com/roach88/comptonseq/internal/ir"
	"github.com/roach88/comptonseq/internal/queryir"
	"github.com/roach88/comptonseq/internal/store"
)

// Scenario represents a conformance test scenario loaded from YAML.
type Scenario struct {
	// Name is the unique identifier for this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// RunID is the fixed run id records and orderings are hashed with;
	// testutil.DefaultRunID when empty.
	RunID string `yaml:"run_id,omitempty"`

	// Config is a configuration document, validated like a config file.
	Config map[string]any `yaml:"config,omitempty"`

	// Levels is the nuclear level table used to canonicalize isotopes.
	Levels []input.LevelSpec `yaml:"levels,omitempty"`

	// History is the step history replayed through the stream builder.
	History []input.HistoryEvent `yaml:"history,omitempty"`

	// HistoryFile loads additional history events from a file, resolved
	// relative to the scenario.
	HistoryFile string `yaml:"history_file,omitempty"`

	// Reconstruct turns each replayed event into readout sites and
	// searches their order.
	Reconstruct bool `yaml:"reconstruct,omitempty"`

	// Events are readout events reconstructed after the history.
	Events []input.EventSpec `yaml:"events,omitempty"`

	// ReadoutFile loads additional readout events from a file, resolved
	// relative to the scenario.
	ReadoutFile string `yaml:"readout_file,omitempty"`

	// Assertions are checked after all events ran.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion represents a post-execution validation check.
type Assertion struct {
	// Type is the assertion type.
	Type string `yaml:"type"`

	// Event restricts record and kill assertions to one event and names
	// the event of reconstruction assertions.
	Event string `yaml:"event,omitempty"`

	// Category is a record category code or name (record_count, record).
	Category string `yaml:"category,omitempty"`

	// Categories is the expected relative order (record_order).
	Categories []string `yaml:"categories,omitempty"`

	// Count is the expected number of records (record_count).
	Count int `yaml:"count,omitempty"`

	// Index selects the n-th record, 0-based, of Category or of the event
	// (record).
	Index int `yaml:"index,omitempty"`

	// Track is the killed track (kill).
	Track int `yaml:"track,omitempty"`

	// Reason is the kill reason or the rejection reason.
	Reason string `yaml:"reason,omitempty"`

	// Status is the expected search status (reconstruction).
	Status string `yaml:"status,omitempty"`

	// EventType is the expected reconstructed event type (reconstruction).
	EventType string `yaml:"event_type,omitempty"`

	// Order is the expected site order (reconstruction).
	Order []int `yaml:"order,omitempty"`

	// Table is the store table to query (final_state).
	Table string `yaml:"table,omitempty"`

	// Where filters final_state rows.
	Where map[string]any `yaml:"where,omitempty"`

	// Expect holds expected field values (record, session, final_state).
	Expect map[string]any `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertRecordCount    = "record_count"
	AssertRecordOrder    = "record_order"
	AssertRecord         = "record"
	AssertKill           = "kill"
	AssertReconstruction = "reconstruction"
	AssertSession        = "session"
	AssertFinalState     = "final_state"
)

// LoadScenario loads and validates a scenario from a YAML file. Referenced
// files are resolved relative to the scenario's directory.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath loads and validates a scenario, resolving
// referenced files relative to basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := scenario.resolveFiles(basePath); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// resolveFiles appends the events of referenced files. References are
// cleared afterwards so that a scenario is only expanded once.
func (s *Scenario) resolveFiles(basePath string) error {
	if s.HistoryFile != "" {
		h, err := input.LoadHistory(resolve(basePath, s.HistoryFile))
		if err != nil {
			return err
		}
		s.History = append(s.History, h.Events...)
		s.HistoryFile = ""
	}
	if s.ReadoutFile != "" {
		r, err := input.LoadReadout(resolve(basePath, s.ReadoutFile))
		if err != nil {
			return err
		}
		s.Events = append(s.Events, r.Events...)
		s.ReadoutFile = ""
	}
	return nil
}

func resolve(basePath, path string) string {
	if filepath.IsAbs(path) || basePath == "" {
		return path
	}
	return filepath.Join(basePath, path)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.History) == 0 && len(s.Events) == 0 {
		return fmt.Errorf("history or events is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i := range s.History {
		if err := s.History[i].Validate(fmt.Sprintf("history[%d]", i)); err != nil {
			return err
		}
	}

	for i, ev := range s.Events {
		if _, err := ev.Event(input.DefaultResolution); err != nil {
			return fmt.Errorf("events[%d]: %w", i, err)
		}
	}

	if _, err := input.LevelTable(s.Levels); err != nil {
		return err
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertRecordCount:
		if _, ok := parseCategory(a.Category); !ok {
			return fmt.Errorf("assertions[%d]: unknown category %q for record_count", index, a.Category)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for record_count", index)
		}
	case AssertRecordOrder:
		if len(a.Categories) == 0 {
			return fmt.Errorf("assertions[%d]: categories list is required for record_order", index)
		}
		for _, c := range a.Categories {
			if _, ok := parseCategory(c); !ok {
				return fmt.Errorf("assertions[%d]: unknown category %q for record_order", index, c)
			}
		}
	case AssertRecord:
		if a.Category != "" {
			if _, ok := parseCategory(a.Category); !ok {
				return fmt.Errorf("assertions[%d]: unknown category %q for record", index, a.Category)
			}
		}
		if a.Index < 0 {
			return fmt.Errorf("assertions[%d]: index must be non-negative for record", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for record", index)
		}
	case AssertKill:
		if a.Track <= 0 {
			return fmt.Errorf("assertions[%d]: track is required for kill", index)
		}
	case AssertReconstruction:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: event is required for reconstruction", index)
		}
		switch csr.Status(a.Status) {
		case "", csr.StatusGood, csr.StatusRejected:
		default:
			return fmt.Errorf("assertions[%d]: unknown status %q for reconstruction", index, a.Status)
		}
	case AssertSession:
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for session", index)
		}
		for _, k := range sortedKeys(a.Expect) {
			if _, ok := countFields(store.RunCounts{})[k]; !ok {
				return fmt.Errorf("assertions[%d]: unknown session count %q", index, k)
			}
		}
	case AssertFinalState:
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for final_state", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
		if err := queryir.Validate(queryir.Select{From: a.Table, Filter: queryir.Where(a.Where)}); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

// parseCategory accepts a four-letter code such as "COMP" or a category
// name such as "compton".
func parseCategory(s string) (ir.Category, bool) {
	if c, ok := ir.ParseCategory(s); ok {
		return c, true
	}
	return ir.ParseCategoryCode(s)
}
