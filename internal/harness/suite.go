package harness

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// ScenarioNotFoundError is returned when a scenario path does not exist.
type ScenarioNotFoundError struct {
	Path string
}

func (e *ScenarioNotFoundError) Error() string {
	return fmt.Sprintf("scenario file %q does not exist", e.Path)
}

// CollectScenarios expands paths into scenario files. Directories contribute
// their *.yaml and *.yml files in name order; files are kept as given.
func CollectScenarios(paths []string) ([]string, error) {
	var out []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if os.IsNotExist(err) {
			return nil, &ScenarioNotFoundError{Path: path}
		}
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			out = append(out, path)
			continue
		}

		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, err
		}
		var found []string
		for _, entry := range entries {
			ext := filepath.Ext(entry.Name())
			if !entry.IsDir() && (ext == ".yaml" || ext == ".yml") {
				found = append(found, filepath.Join(path, entry.Name()))
			}
		}
		slices.Sort(found)
		out = append(out, found...)
	}
	return out, nil
}

// SuiteResult summarizes a run of several scenarios.
type SuiteResult struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`

	Results  []*Result         `json:"results"`
	Failures []ScenarioFailure `json:"failures,omitempty"`
}

// ScenarioFailure is a scenario that could not be loaded or did not pass.
type ScenarioFailure struct {
	Scenario string `json:"scenario,omitempty"`
	Path     string `json:"path"`
	Error    string `json:"error"`
}

// Pass reports whether every selected scenario passed.
func (s *SuiteResult) Pass() bool {
	return s.Failed == 0
}

// RunSuite loads and runs the scenario files one after another. Scenarios
// whose name does not contain filter are skipped. A ledger failure stops
// the suite.
func (h *Harness) RunSuite(ctx context.Context, paths []string, filter string) (*SuiteResult, error) {
	suite := &SuiteResult{Results: []*Result{}}

	for _, path := range paths {
		scenario, err := LoadScenario(path)
		if err != nil {
			suite.Total++
			suite.Failed++
			suite.Failures = append(suite.Failures, ScenarioFailure{
				Path:  path,
				Error: fmt.Sprintf("failed to load scenario: %v", err),
			})
			continue
		}

		if filter != "" && !strings.Contains(scenario.Name, filter) {
			suite.Skipped++
			continue
		}
		suite.Total++

		result, err := h.Run(ctx, scenario)
		if err != nil {
			return suite, fmt.Errorf("scenario %s: %w", scenario.Name, err)
		}
		suite.Results = append(suite.Results, result)

		if !result.Pass {
			suite.Failed++
			suite.Failures = append(suite.Failures, ScenarioFailure{
				Scenario: scenario.Name,
				Path:     path,
				Error:    strings.Join(result.Errors, "; "),
			})
			continue
		}
		suite.Passed++
	}

	return suite, nil
}
