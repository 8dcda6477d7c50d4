package harness

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ScenarioNotFoundError is returned when a scenario path doesn't exist.
type ScenarioNotFoundError struct {
	Path string
}

// Error implements the error interface.
func (e *ScenarioNotFoundError) Error() string {
	return fmt.Sprintf("scenario path %q does not exist", e.Path)
}

// IsScenarioNotFound reports whether err is a ScenarioNotFoundError.
func IsScenarioNotFound(err error) bool {
	var e *ScenarioNotFoundError
	return errors.As(err, &e)
}

// FindScenarios returns the scenario files under path in lexical order. A
// file path is returned as is; a directory is searched recursively for
// .yaml and .yml files. Files whose name does not contain filter are
// skipped.
func FindScenarios(path, filter string) ([]string, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, &ScenarioNotFoundError{Path: path}
	}
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var out []string
	err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := filepath.Ext(p)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" && !strings.Contains(filepath.Base(p), filter) {
			return nil
		}
		out = append(out, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

// SuiteResult summarizes a scenario suite run.
type SuiteResult struct {
	Total    int            `json:"total"`
	Passed   int            `json:"passed"`
	Failed   int            `json:"failed"`
	Failures []SuiteFailure `json:"failures,omitempty"`

	// Results holds the result of every scenario that ran, by path.
	Results map[string]*Result `json:"-"`
}

// SuiteFailure represents a scenario that failed to load, run or pass.
type SuiteFailure struct {
	ScenarioPath string `json:"scenario_path"`
	Scenario     string `json:"scenario,omitempty"`
	Error        string `json:"error"`
}

// RunSuite loads and runs every scenario FindScenarios returns.
//
// For each scenario file:
// 1. Load it with its directory as base path
// 2. Run it via RunContext
// 3. Collect and report results
func RunSuite(ctx context.Context, path, filter string) (*SuiteResult, error) {
	paths, err := FindScenarios(path, filter)
	if err != nil {
		return nil, err
	}

	result := &SuiteResult{Results: make(map[string]*Result)}
	for _, scenarioPath := range paths {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Total++

		scenario, err := LoadScenario(scenarioPath)
		if err != nil {
			result.fail(scenarioPath, "", fmt.Sprintf("failed to load scenario: %v", err))
			continue
		}

		runResult, err := RunContext(ctx, scenario)
		if err != nil {
			result.fail(scenarioPath, scenario.Name, fmt.Sprintf("scenario execution failed: %v", err))
			continue
		}
		result.Results[scenarioPath] = runResult

		if !runResult.Pass {
			result.fail(scenarioPath, scenario.Name, fmt.Sprintf("scenario assertions failed: %v", runResult.Errors))
			continue
		}

		result.Passed++
	}

	return result, nil
}

func (r *SuiteResult) fail(path, name, msg string) {
	r.Failed++
	r.Failures = append(r.Failures, SuiteFailure{ScenarioPath: path, Scenario: name, Error: msg})
}
